// Package assemble sequences the full document assembly: base config,
// named merge configs, scanned trees, overlay resolution and the final
// left-to-right merge fold.
package assemble

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/mbutane/mbutane/pkg/constants"
	"github.com/mbutane/mbutane/pkg/document"
	"github.com/mbutane/mbutane/pkg/overlay"
	"github.com/mbutane/mbutane/pkg/scan"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// ConfigError is a fatal project configuration problem, such as a missing
// base config or conflicting duplicate path declarations.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// unit pairs one hand-authored config document with its correspondingly
// named file tree.
type unit struct {
	Name       string
	ConfigPath string
	TreeDir    string
}

// Assembler builds the single merged document out of the project layout.
type Assembler struct {
	Logger   log.Logger
	FS       afero.Afero
	Scanner  *scan.Scanner
	Resolver *overlay.Resolver
}

func NewAssembler(logger log.Logger, projectFS afero.Afero, scanner *scan.Scanner, resolver *overlay.Resolver) *Assembler {
	return &Assembler{
		Logger:   logger,
		FS:       projectFS,
		Scanner:  scanner,
		Resolver: resolver,
	}
}

// Assemble loads the base config, folds every merge config onto it in
// declaration order, and normalizes the storage section of the result.
// Every run recomputes the document from scratch.
func (a *Assembler) Assemble() (document.Document, error) {
	debug := level.Debug(log.With(a.Logger, "struct", "assembler", "method", "assemble"))

	exists, err := a.FS.Exists(constants.BaseConfigFileName)
	if err != nil || !exists {
		if err == nil {
			err = errors.New("file not found")
		}
		return document.Document{}, &ConfigError{Path: constants.BaseConfigFileName, Err: err}
	}

	debug.Log("event", "unit.load", "unit", constants.BaseUnitName)
	merged, err := a.loadUnit(unit{
		Name:       constants.BaseUnitName,
		ConfigPath: constants.BaseConfigFileName,
		TreeDir:    constants.BaseStoragePath,
	})
	if err != nil {
		return document.Document{}, err
	}

	units, err := a.mergeUnits()
	if err != nil {
		return document.Document{}, err
	}

	for _, u := range units {
		debug.Log("event", "unit.load", "unit", u.Name)
		doc, err := a.loadUnit(u)
		if err != nil {
			return document.Document{}, err
		}
		merged, err = document.Merge(merged, doc)
		if err != nil {
			return document.Document{}, err
		}
	}

	if err := normalizeStorage(merged); err != nil {
		return document.Document{}, err
	}

	debug.Log("event", "assemble.complete", "units", len(units)+1)
	return merged, nil
}

// mergeUnits lists config.bu.d in lexicographic order. A missing directory
// means no merge units, not an error.
func (a *Assembler) mergeUnits() ([]unit, error) {
	infos, err := a.FS.ReadDir(constants.MergeConfigDirName)
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, &ConfigError{Path: constants.MergeConfigDirName, Err: err}
	}

	var units []unit
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || !strings.HasSuffix(name, constants.MergeConfigExtension) {
			continue
		}
		unitName := strings.TrimSuffix(name, constants.MergeConfigExtension)
		units = append(units, unit{
			Name:       unitName,
			ConfigPath: path.Join(constants.MergeConfigDirName, name),
			TreeDir:    path.Join(constants.StorageDirName, unitName),
		})
	}
	sort.Slice(units, func(i, j int) bool {
		return units[i].ConfigPath < units[j].ConfigPath
	})
	return units, nil
}

// loadUnit parses the unit's config document and, when a paired tree
// exists, folds its scanned and resolved entries into the document's
// storage section before the unit joins the outer fold.
func (a *Assembler) loadUnit(u unit) (document.Document, error) {
	data, err := a.FS.ReadFile(u.ConfigPath)
	if err != nil {
		return document.Document{}, &ConfigError{Path: u.ConfigPath, Err: err}
	}
	doc, err := document.Parse(data)
	if err != nil {
		return document.Document{}, &ConfigError{Path: u.ConfigPath, Err: err}
	}

	isDir, err := a.FS.IsDir(u.TreeDir)
	if err != nil && !isNotExist(err) {
		return document.Document{}, &scan.Error{Path: u.TreeDir, Err: err}
	}
	if err != nil || !isDir {
		// no paired tree for this unit
		return doc, nil
	}

	result, err := a.Scanner.Scan(u.TreeDir)
	if err != nil {
		return document.Document{}, err
	}
	decls, err := overlay.LoadDeclarations(a.FS, u.TreeDir, result.DeclarationPaths)
	if err != nil {
		return document.Document{}, err
	}
	entries, err := a.Resolver.Resolve(result.Entries, decls)
	if err != nil {
		return document.Document{}, err
	}

	entriesDoc := entriesDocument(entries)
	if entriesDoc.IsZero() {
		return doc, nil
	}
	return document.Merge(doc, entriesDoc)
}

func isNotExist(err error) bool {
	return err != nil && os.IsNotExist(errors.Cause(err))
}
