package scan

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/mbutane/mbutane/pkg/constants"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// maxParallelReads bounds the number of file contents read concurrently
// during a scan.
const maxParallelReads = 8

// ignoredNames are skipped entirely: they produce no Entry and are never
// read, but they do not suppress scanning of sibling or child content.
var ignoredNames = []string{".gitignore", "*~"}

// Error reports a path that could not be scanned. It aborts the scan of the
// affected tree.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Result is the outcome of scanning one file tree.
type Result struct {
	// Entries holds one entry per kept file, directory and symbolic link,
	// sorted lexicographically by path.
	Entries []Entry

	// DeclarationPaths are the project-relative paths of every overlay
	// declaration file found inside the tree, sorted lexicographically.
	// Declaration files never appear in Entries.
	DeclarationPaths []string
}

// Scanner walks file trees under the project filesystem and renders them as
// structured entries with default metadata.
type Scanner struct {
	Logger log.Logger
	FS     afero.Afero
}

func NewScanner(logger log.Logger, projectFS afero.Afero) *Scanner {
	return &Scanner{
		Logger: logger,
		FS:     projectFS,
	}
}

// Scan walks treeDir (project-relative) and returns its entries in
// deterministic path order. File contents are read in parallel but entries
// are always emitted sorted, so downstream resolution never depends on read
// completion order.
func (s *Scanner) Scan(treeDir string) (*Result, error) {
	debug := level.Debug(log.With(s.Logger, "struct", "scanner", "method", "scan", "tree", treeDir))

	result := &Result{}
	var fileIndexes []int

	walkErr := afero.Walk(s.FS.Fs, treeDir, func(walkPath string, info os.FileInfo, err error) error {
		if err != nil {
			return &Error{Path: walkPath, Err: err}
		}
		if filepath.ToSlash(walkPath) == filepath.ToSlash(treeDir) {
			return nil
		}

		rel, err := filepath.Rel(treeDir, walkPath)
		if err != nil || strings.HasPrefix(rel, "..") {
			return &Error{Path: walkPath, Err: errors.New("path escapes tree root")}
		}
		virtualPath := path.Join("/", filepath.ToSlash(rel))
		name := info.Name()

		if isIgnoredName(name) {
			debug.Log("event", "path.ignore", "path", virtualPath)
			return nil
		}

		if name == constants.DeclarationFileName && info.Mode().IsRegular() {
			result.DeclarationPaths = append(result.DeclarationPaths, filepath.ToSlash(walkPath))
			return nil
		}

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			target, err := readlink(s.FS.Fs, walkPath)
			if err != nil {
				return &Error{Path: walkPath, Err: errors.Wrap(err, "read link target")}
			}
			result.Entries = append(result.Entries, Entry{
				Kind:   KindLink,
				Path:   virtualPath,
				Source: filepath.ToSlash(walkPath),
				Target: target,
			})

		case info.IsDir():
			result.Entries = append(result.Entries, Entry{
				Kind:   KindDirectory,
				Path:   virtualPath,
				Source: filepath.ToSlash(walkPath),
				Meta:   Metadata{Mode: intPtr(0755)},
			})

		case info.Mode().IsRegular():
			executable := info.Mode().Perm()&0100 != 0
			mode := 0644
			if executable {
				mode = 0755
			}
			result.Entries = append(result.Entries, Entry{
				Kind:       KindFile,
				Path:       virtualPath,
				Source:     filepath.ToSlash(walkPath),
				Executable: executable,
				Meta:       Metadata{Mode: intPtr(mode)},
			})
			fileIndexes = append(fileIndexes, len(result.Entries)-1)

		default:
			return &Error{Path: walkPath, Err: errors.Errorf("unsupported file mode %s", info.Mode())}
		}

		return nil
	})
	if walkErr != nil {
		var scanErr *Error
		if errors.As(walkErr, &scanErr) {
			return nil, walkErr
		}
		return nil, &Error{Path: treeDir, Err: walkErr}
	}

	if err := s.readContents(result.Entries, fileIndexes); err != nil {
		return nil, err
	}

	sort.Slice(result.Entries, func(i, j int) bool {
		return result.Entries[i].Path < result.Entries[j].Path
	})
	sort.Strings(result.DeclarationPaths)

	debug.Log("event", "scan.complete", "entries", len(result.Entries), "declarations", len(result.DeclarationPaths))
	return result, nil
}

// readContents loads file bytes with bounded parallelism. Each goroutine
// writes only its own entry slot, so the entry slice needs no locking.
func (s *Scanner) readContents(entries []Entry, fileIndexes []int) error {
	var g errgroup.Group
	g.SetLimit(maxParallelReads)

	for _, idx := range fileIndexes {
		idx := idx
		g.Go(func() error {
			content, err := s.FS.ReadFile(entries[idx].Source)
			if err != nil {
				return &Error{Path: entries[idx].Source, Err: errors.Wrap(err, "read file")}
			}
			entries[idx].Content = content
			return nil
		})
	}

	return g.Wait()
}

func isIgnoredName(name string) bool {
	for _, pattern := range ignoredNames {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func readlink(fs afero.Fs, name string) (string, error) {
	if reader, ok := fs.(afero.LinkReader); ok {
		return reader.ReadlinkIfPossible(name)
	}
	return "", errors.New("filesystem does not support symlinks")
}

func intPtr(i int) *int { return &i }
