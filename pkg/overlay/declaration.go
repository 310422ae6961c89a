package overlay

import (
	"path"
	"path/filepath"

	"github.com/emosbaugh/yaml"
	"github.com/mbutane/mbutane/pkg/match"
	"github.com/mbutane/mbutane/pkg/scan"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// NameRef names a user or group by name, matching the translator's
// id-reference shape.
type NameRef struct {
	Name string `yaml:"name"`
}

// Rule overrides metadata fields for every entry of its kind whose path,
// relative to the declaring directory, matches Path. Fields left nil are not
// overridden.
type Rule struct {
	Path      string   `yaml:"path"`
	User      *NameRef `yaml:"user,omitempty"`
	Group     *NameRef `yaml:"group,omitempty"`
	Mode      *int     `yaml:"mode,omitempty"`
	Overwrite *bool    `yaml:"overwrite,omitempty"`
}

// Declaration is one parsed declaration file. Its rules apply only to
// entries at or below Dir, the virtual directory containing the file.
type Declaration struct {
	// Source is the project-relative path of the declaration file.
	Source string
	// Dir is the virtual directory the file was found in, e.g. "/etc".
	Dir string

	Files       []Rule
	Directories []Rule
	Links       []Rule
}

type declarationDoc struct {
	Files       []Rule `yaml:"files"`
	Directories []Rule `yaml:"directories"`
	Links       []Rule `yaml:"links"`
}

// LoadDeclarations parses the declaration files found by the scanner.
// declPaths are project-relative and must live under treeDir. Malformed
// patterns fail the whole load, attributed to the declaring file.
func LoadDeclarations(fs afero.Afero, treeDir string, declPaths []string) ([]Declaration, error) {
	decls := make([]Declaration, 0, len(declPaths))
	for _, declPath := range declPaths {
		data, err := fs.ReadFile(declPath)
		if err != nil {
			return nil, errors.Wrapf(err, "read declaration file %s", declPath)
		}

		var doc declarationDoc
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrapf(err, "parse declaration file %s", declPath)
		}

		rel, err := filepath.Rel(treeDir, filepath.Dir(declPath))
		if err != nil {
			return nil, errors.Wrapf(err, "resolve declaration dir of %s", declPath)
		}

		decl := Declaration{
			Source:      declPath,
			Dir:         path.Join("/", filepath.ToSlash(rel)),
			Files:       doc.Files,
			Directories: doc.Directories,
			Links:       doc.Links,
		}
		if err := validatePatterns(decl); err != nil {
			return nil, err
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

func validatePatterns(decl Declaration) error {
	for _, rules := range [][]Rule{decl.Files, decl.Directories, decl.Links} {
		for _, rule := range rules {
			if err := match.Validate(rule.Path, decl.Source); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r Rule) apply(meta *scan.Metadata) {
	if r.User != nil {
		meta.User = strPtr(r.User.Name)
	}
	if r.Group != nil {
		meta.Group = strPtr(r.Group.Name)
	}
	if r.Mode != nil {
		mode := *r.Mode
		meta.Mode = &mode
	}
	if r.Overwrite != nil {
		overwrite := *r.Overwrite
		meta.Overwrite = &overwrite
	}
}

func strPtr(s string) *string { return &s }
