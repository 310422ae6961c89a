// Package overlay finalizes entry metadata from glob-scoped declaration
// files found inside scanned trees.
package overlay

import (
	"sort"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/mbutane/mbutane/pkg/match"
	"github.com/mbutane/mbutane/pkg/scan"
)

// Resolver applies declaration rules to scanned entries.
type Resolver struct {
	Logger log.Logger
}

func NewResolver(logger log.Logger) *Resolver {
	return &Resolver{Logger: logger}
}

// Resolve computes the final metadata for every entry and returns the
// entries in their original order. For each entry, every rule of the
// matching kind applies in ascending precedence: declaration files closer to
// the entry outrank shallower ones, and within one file later rules outrank
// earlier ones. Each metadata field resolves independently, so unrelated
// fields from different rules can both take effect. Pattern specificity is
// deliberately not consulted: depth plus list order already yield a total,
// deterministic order.
func (r *Resolver) Resolve(entries []scan.Entry, decls []Declaration) ([]scan.Entry, error) {
	debug := level.Debug(log.With(r.Logger, "struct", "resolver", "method", "resolve"))

	ordered := make([]Declaration, len(decls))
	copy(ordered, decls)
	// shallow to deep; lexicographic among equal depths keeps the pass
	// deterministic even though equal-depth files always scope disjoint
	// subtrees
	sort.SliceStable(ordered, func(i, j int) bool {
		di, dj := depth(ordered[i].Dir), depth(ordered[j].Dir)
		if di != dj {
			return di < dj
		}
		return ordered[i].Dir < ordered[j].Dir
	})

	resolved := make([]scan.Entry, len(entries))
	copy(resolved, entries)

	for i := range resolved {
		entry := &resolved[i]
		for _, decl := range ordered {
			rel, ok := relativeTo(entry.Path, decl.Dir)
			if !ok {
				continue
			}
			for _, rule := range rulesFor(decl, entry.Kind) {
				matched, _, err := match.Match(rule.Path, rel)
				if err != nil {
					return nil, err
				}
				if !matched {
					continue
				}
				debug.Log("event", "rule.apply", "path", entry.Path, "pattern", rule.Path, "declaration", decl.Source)
				rule.apply(&entry.Meta)
			}
		}
	}

	return resolved, nil
}

func rulesFor(decl Declaration, kind scan.Kind) []Rule {
	switch kind {
	case scan.KindDirectory:
		return decl.Directories
	case scan.KindLink:
		return decl.Links
	default:
		return decl.Files
	}
}

// relativeTo rebases entryPath against dir, reporting false when the entry
// lies outside dir's subtree. The declaring directory's own entry is in
// scope and rebases to the empty path, which "*" and "**" match.
func relativeTo(entryPath, dir string) (string, bool) {
	if dir == "/" {
		return strings.TrimPrefix(entryPath, "/"), true
	}
	if entryPath == dir {
		return "", true
	}
	if !strings.HasPrefix(entryPath, dir+"/") {
		return "", false
	}
	return strings.TrimPrefix(entryPath, dir+"/"), true
}

func depth(dir string) int {
	if dir == "/" {
		return 0
	}
	return strings.Count(dir, "/")
}
