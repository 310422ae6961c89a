package overlay

import (
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/mbutane/mbutane/pkg/match"
	"github.com/mbutane/mbutane/pkg/scan"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int      { return &i }
func boolPtr(b bool) *bool   { return &b }
func strOf(s *string) string { return *s }

func TestLoadDeclarations(t *testing.T) {
	req := require.New(t)

	fs := afero.Afero{Fs: afero.NewMemMapFs()}
	req.NoError(fs.WriteFile("src/main/subconfig.bu", []byte(`
files:
  - path: "**"
    user: {name: root}
directories:
  - path: var/lib/*
    mode: 0700
links:
  - path: etc/localtime
    overwrite: true
`), 0644))
	req.NoError(fs.WriteFile("src/main/etc/app/subconfig.bu", []byte(`
files:
  - path: "*.secret"
    mode: 0600
`), 0644))

	decls, err := LoadDeclarations(fs, "src/main", []string{
		"src/main/etc/app/subconfig.bu",
		"src/main/subconfig.bu",
	})
	req.NoError(err)
	req.Len(decls, 2)

	req.Equal("/etc/app", decls[0].Dir)
	req.Len(decls[0].Files, 1)
	req.NotNil(decls[0].Files[0].Mode)
	req.Equal(0600, *decls[0].Files[0].Mode)

	req.Equal("/", decls[1].Dir)
	req.Equal("root", decls[1].Files[0].User.Name)
	req.Equal(0700, *decls[1].Directories[0].Mode)
	req.True(*decls[1].Links[0].Overwrite)
}

func TestLoadDeclarationsBadPattern(t *testing.T) {
	req := require.New(t)

	fs := afero.Afero{Fs: afero.NewMemMapFs()}
	req.NoError(fs.WriteFile("src/main/subconfig.bu", []byte("files:\n  - path: \"[\"\n"), 0644))

	_, err := LoadDeclarations(fs, "src/main", []string{"src/main/subconfig.bu"})
	req.Error(err)

	var patternErr *match.PatternError
	req.ErrorAs(err, &patternErr)
	req.Equal("src/main/subconfig.bu", patternErr.Source)
}

func TestResolveDeeperDeclarationWins(t *testing.T) {
	req := require.New(t)

	entries := []scan.Entry{
		{Kind: scan.KindFile, Path: "/a/b/c.txt", Meta: scan.Metadata{Mode: intPtr(0644)}},
	}
	decls := []Declaration{
		{
			Source: "src/main/a/b/subconfig.bu",
			Dir:    "/a/b",
			Files:  []Rule{{Path: "c.txt", Mode: intPtr(0600)}},
		},
		{
			Source: "src/main/a/subconfig.bu",
			Dir:    "/a",
			Files:  []Rule{{Path: "b/c.txt", Mode: intPtr(0640)}},
		},
	}

	resolved, err := NewResolver(log.NewNopLogger()).Resolve(entries, decls)
	req.NoError(err)
	req.Equal(0600, *resolved[0].Meta.Mode)
}

func TestResolveLaterRuleWinsWithinOneFile(t *testing.T) {
	req := require.New(t)

	entries := []scan.Entry{
		{Kind: scan.KindFile, Path: "/app.conf", Meta: scan.Metadata{Mode: intPtr(0644)}},
	}
	decls := []Declaration{
		{
			Source: "src/main/subconfig.bu",
			Dir:    "/",
			Files: []Rule{
				{Path: "*.conf", Mode: intPtr(0600)},
				{Path: "app.conf", Mode: intPtr(0640)},
			},
		},
	}

	resolved, err := NewResolver(log.NewNopLogger()).Resolve(entries, decls)
	req.NoError(err)
	req.Equal(0640, *resolved[0].Meta.Mode)
}

func TestResolveFieldsResolveIndependently(t *testing.T) {
	req := require.New(t)

	entries := []scan.Entry{
		{Kind: scan.KindFile, Path: "/a/app.conf", Meta: scan.Metadata{Mode: intPtr(0644)}},
	}
	decls := []Declaration{
		{
			Source: "src/main/subconfig.bu",
			Dir:    "/",
			Files:  []Rule{{Path: "a/*", User: &NameRef{Name: "app"}, Mode: intPtr(0600)}},
		},
		{
			Source: "src/main/a/subconfig.bu",
			Dir:    "/a",
			Files:  []Rule{{Path: "app.conf", Group: &NameRef{Name: "wheel"}}},
		},
	}

	resolved, err := NewResolver(log.NewNopLogger()).Resolve(entries, decls)
	req.NoError(err)

	meta := resolved[0].Meta
	// user and mode from the shallow rule, group from the deep one
	req.Equal("app", strOf(meta.User))
	req.Equal("wheel", strOf(meta.Group))
	req.Equal(0600, *meta.Mode)
}

func TestResolveScopedToDeclarationSubtree(t *testing.T) {
	req := require.New(t)

	entries := []scan.Entry{
		{Kind: scan.KindFile, Path: "/outside.txt", Meta: scan.Metadata{Mode: intPtr(0644)}},
		{Kind: scan.KindFile, Path: "/etc/inside.txt", Meta: scan.Metadata{Mode: intPtr(0644)}},
	}
	decls := []Declaration{
		{
			Source: "src/main/etc/subconfig.bu",
			Dir:    "/etc",
			Files:  []Rule{{Path: "**", Mode: intPtr(0600)}},
		},
	}

	resolved, err := NewResolver(log.NewNopLogger()).Resolve(entries, decls)
	req.NoError(err)
	req.Equal(0644, *resolved[0].Meta.Mode)
	req.Equal(0600, *resolved[1].Meta.Mode)
}

func TestResolveDeclaringDirectoryIsInScope(t *testing.T) {
	req := require.New(t)

	entries := []scan.Entry{
		{Kind: scan.KindDirectory, Path: "/var/lib", Meta: scan.Metadata{Mode: intPtr(0755)}},
		{Kind: scan.KindDirectory, Path: "/var/lib/app", Meta: scan.Metadata{Mode: intPtr(0755)}},
	}
	decls := []Declaration{
		{
			Source:      "src/main/var/lib/subconfig.bu",
			Dir:         "/var/lib",
			Directories: []Rule{{Path: "**", Mode: intPtr(0700)}},
		},
	}

	resolved, err := NewResolver(log.NewNopLogger()).Resolve(entries, decls)
	req.NoError(err)

	// the declaring directory's own entry is covered, not just its children
	req.Equal(0700, *resolved[0].Meta.Mode)
	req.Equal(0700, *resolved[1].Meta.Mode)
}

func TestResolveKindsDoNotCrossOver(t *testing.T) {
	req := require.New(t)

	entries := []scan.Entry{
		{Kind: scan.KindFile, Path: "/data", Meta: scan.Metadata{Mode: intPtr(0644)}},
		{Kind: scan.KindDirectory, Path: "/logs", Meta: scan.Metadata{Mode: intPtr(0755)}},
		{Kind: scan.KindLink, Path: "/current", Target: "/data"},
	}
	decls := []Declaration{
		{
			Source:      "src/main/subconfig.bu",
			Dir:         "/",
			Files:       []Rule{{Path: "*", Mode: intPtr(0600)}},
			Directories: []Rule{{Path: "*", Mode: intPtr(0700)}},
			Links:       []Rule{{Path: "*", Overwrite: boolPtr(true)}},
		},
	}

	resolved, err := NewResolver(log.NewNopLogger()).Resolve(entries, decls)
	req.NoError(err)
	req.Equal(0600, *resolved[0].Meta.Mode)
	req.Equal(0700, *resolved[1].Meta.Mode)
	req.True(*resolved[2].Meta.Overwrite)
	req.Nil(resolved[2].Meta.Mode)
}

func TestResolveUnmatchedRuleIsSilentlyUnused(t *testing.T) {
	req := require.New(t)

	entries := []scan.Entry{
		{Kind: scan.KindFile, Path: "/a.txt", Meta: scan.Metadata{Mode: intPtr(0644)}},
	}
	decls := []Declaration{
		{
			Source: "src/main/subconfig.bu",
			Dir:    "/",
			Files:  []Rule{{Path: "nothing-matches-me/*", Mode: intPtr(0600)}},
		},
	}

	resolved, err := NewResolver(log.NewNopLogger()).Resolve(entries, decls)
	req.NoError(err)
	req.Equal(0644, *resolved[0].Meta.Mode)
}
