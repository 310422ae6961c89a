// Package match evaluates glob patterns against slash-separated relative
// paths. `*` and `?` never cross a path separator; `**` does. Patterns are
// anchored to the whole path, never matched as a substring.
package match

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// PatternError reports a malformed glob pattern together with where it was
// declared.
type PatternError struct {
	Pattern string
	Source  string
	Err     error
}

func (e *PatternError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("invalid pattern %q in %s: %v", e.Pattern, e.Source, e.Err)
	}
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// Validate reports whether pattern is well-formed, attributing failures to
// source (a declaration file path).
func Validate(pattern, source string) error {
	if !doublestar.ValidatePattern(normalize(pattern)) {
		return &PatternError{Pattern: pattern, Source: source, Err: doublestar.ErrBadPattern}
	}
	return nil
}

// Match reports whether relPath matches pattern, along with the pattern's
// specificity. Specificity grows with the count of literal characters and is
// meaningful only for comparing two patterns that both matched the same
// path.
func Match(pattern, relPath string) (bool, int, error) {
	p := normalize(pattern)
	matched, err := doublestar.Match(p, normalize(relPath))
	if err != nil {
		return false, 0, &PatternError{Pattern: pattern, Err: err}
	}
	if !matched {
		return false, 0, nil
	}
	return true, Specificity(pattern), nil
}

// Specificity counts the literal (non-wildcard, non-class) characters of a
// pattern. A higher count means a more specific pattern.
func Specificity(pattern string) int {
	literals := 0
	inClass := false
	escaped := false
	for _, r := range normalize(pattern) {
		switch {
		case escaped:
			literals++
			escaped = false
		case r == '\\':
			escaped = true
		case inClass:
			if r == ']' {
				inClass = false
			}
		case r == '[':
			inClass = true
		case r == '*' || r == '?' || r == '{' || r == '}' || r == ',':
		default:
			literals++
		}
	}
	return literals
}

// normalize strips leading and trailing separators so patterns and paths
// compare in the same root-relative space.
func normalize(s string) string {
	return strings.Trim(s, "/")
}
