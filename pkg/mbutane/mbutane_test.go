package mbutane

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/cli"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func testViper(t *testing.T, root string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.Set("root", root)
	v.Set("log-level", "off")
	v.Set("no-os-exit", true)
	v.Set("butane", "butane")
	return v
}

func TestGetWiresDependencies(t *testing.T) {
	req := require.New(t)

	m, err := Get(testViper(t, t.TempDir()))
	req.NoError(err)
	req.NotNil(m.Logger)
	req.NotNil(m.UI)
	req.NotNil(m.Assembler)
	req.NotNil(m.Translator)
	req.Equal("butane", m.Translator.BinPath)
}

func TestExecuteMergeOnly(t *testing.T) {
	req := require.New(t)

	root := t.TempDir()
	req.NoError(os.WriteFile(filepath.Join(root, "config.bu"), []byte("variant: fcos\nversion: 1.4.0\nstorage:\n  files: []\n"), 0644))
	req.NoError(os.MkdirAll(filepath.Join(root, "src/main"), 0755))
	req.NoError(os.WriteFile(filepath.Join(root, "src/main/hello.txt"), []byte("hi"), 0644))

	v := testViper(t, root)
	v.Set("merge-only", true)

	m, err := Get(v)
	req.NoError(err)

	mockUI := cli.NewMockUi()
	m.UI = mockUI

	req.NoError(m.Execute(context.Background()))

	output := mockUI.OutputWriter.String()
	req.Contains(output, "path: /hello.txt")
	req.Contains(output, "local: src/main/hello.txt")

	// merge-only never touches the output artifact
	_, err = os.Stat(filepath.Join(root, "config.ign"))
	req.True(os.IsNotExist(err))
}

func TestExecuteMissingBaseConfigExitCode(t *testing.T) {
	req := require.New(t)

	m, err := Get(testViper(t, t.TempDir()))
	req.NoError(err)
	m.UI = cli.NewMockUi()

	execErr := m.ExecuteAndMaybeExit(context.Background())
	req.Error(execErr)
	req.Equal(ExitConfig, ExitCode(execErr))
}
