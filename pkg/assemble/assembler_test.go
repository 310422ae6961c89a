package assemble

import (
	"testing"

	"github.com/emosbaugh/yaml"
	"github.com/go-kit/kit/log"
	"github.com/mbutane/mbutane/pkg/document"
	"github.com/mbutane/mbutane/pkg/overlay"
	"github.com/mbutane/mbutane/pkg/scan"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func newTestAssembler(fs afero.Afero) *Assembler {
	logger := log.NewNopLogger()
	return NewAssembler(logger, fs, scan.NewScanner(logger, fs), overlay.NewResolver(logger))
}

func storageList(t *testing.T, doc document.Document, key string) []interface{} {
	t.Helper()
	req := require.New(t)

	root, ok := doc.MapSlice()
	req.True(ok)
	storageValue, ok := document.GetValue(root, "storage")
	req.True(ok)
	storage, ok := storageValue.(yaml.MapSlice)
	req.True(ok)
	listValue, ok := document.GetValue(storage, key)
	req.True(ok)
	list, ok := listValue.([]interface{})
	req.True(ok)
	return list
}

func TestAssembleSingleTree(t *testing.T) {
	req := require.New(t)

	fs := afero.Afero{Fs: afero.NewMemMapFs()}
	req.NoError(fs.WriteFile("config.bu", []byte("variant: fcos\nversion: 1.4.0\nstorage:\n  files: []\n"), 0644))
	req.NoError(fs.WriteFile("src/main/hello.txt", []byte("hi"), 0644))

	merged, err := newTestAssembler(fs).Assemble()
	req.NoError(err)

	files := storageList(t, merged, "files")
	req.Len(files, 1)

	file := files[0].(yaml.MapSlice)
	p, _ := document.GetValue(file, "path")
	req.Equal("/hello.txt", p)
	mode, _ := document.GetValue(file, "mode")
	req.Equal(0644, mode)
	contents, ok := document.GetValue(file, "contents")
	req.True(ok)
	local, _ := document.GetValue(contents.(yaml.MapSlice), "local")
	req.Equal("src/main/hello.txt", local)

	content, err := fs.ReadFile("src/main/hello.txt")
	req.NoError(err)
	req.Equal("hi", string(content))
}

func TestAssembleEmptyFileOmitsContents(t *testing.T) {
	req := require.New(t)

	fs := afero.Afero{Fs: afero.NewMemMapFs()}
	req.NoError(fs.WriteFile("config.bu", []byte("variant: fcos\nversion: 1.4.0\n"), 0644))
	req.NoError(fs.WriteFile("src/main/etc/flagfile", nil, 0644))

	merged, err := newTestAssembler(fs).Assemble()
	req.NoError(err)

	files := storageList(t, merged, "files")
	req.Len(files, 1)

	// the translator creates zero-length files from the path alone
	file := files[0].(yaml.MapSlice)
	p, _ := document.GetValue(file, "path")
	req.Equal("/etc/flagfile", p)
	_, ok := document.GetValue(file, "contents")
	req.False(ok)
	mode, _ := document.GetValue(file, "mode")
	req.Equal(0644, mode)
}

func TestAssembleMissingBaseConfig(t *testing.T) {
	req := require.New(t)

	fs := afero.Afero{Fs: afero.NewMemMapFs()}
	_, err := newTestAssembler(fs).Assemble()
	req.Error(err)

	var configErr *ConfigError
	req.ErrorAs(err, &configErr)
	req.Equal("config.bu", configErr.Path)
}

func TestAssembleMergeConfigOrderAndOverride(t *testing.T) {
	req := require.New(t)

	fs := afero.Afero{Fs: afero.NewMemMapFs()}
	req.NoError(fs.WriteFile("config.bu", []byte("variant: fcos\nversion: 1.4.0\npasswd:\n  users:\n  - name: core\n"), 0644))
	req.NoError(fs.WriteFile("config.bu.d/10-network.bu", []byte("variant: fcos\npasswd:\n  users:\n  - name: netadmin\n"), 0644))
	req.NoError(fs.WriteFile("config.bu.d/20-final.bu", []byte("version: 1.5.0\n"), 0644))

	merged, err := newTestAssembler(fs).Assemble()
	req.NoError(err)

	root, ok := merged.MapSlice()
	req.True(ok)

	// scalar overridden by the last merge config
	v, _ := document.GetValue(root, "version")
	req.Equal("1.5.0", v)

	passwd, _ := document.GetValue(root, "passwd")
	users, _ := document.GetValue(passwd.(yaml.MapSlice), "users")
	req.Len(users.([]interface{}), 2)
}

func TestAssembleUnitWithoutTreeIsNotAnError(t *testing.T) {
	req := require.New(t)

	fs := afero.Afero{Fs: afero.NewMemMapFs()}
	req.NoError(fs.WriteFile("config.bu", []byte("variant: fcos\nversion: 1.4.0\n"), 0644))
	req.NoError(fs.WriteFile("config.bu.d/10-extra.bu", []byte("kernel_arguments:\n  should_exist:\n  - quiet\n"), 0644))

	merged, err := newTestAssembler(fs).Assemble()
	req.NoError(err)

	root, ok := merged.MapSlice()
	req.True(ok)
	_, ok = document.GetValue(root, "kernel_arguments")
	req.True(ok)
}

func TestAssembleHandDeclaredEntriesComeFirst(t *testing.T) {
	req := require.New(t)

	fs := afero.Afero{Fs: afero.NewMemMapFs()}
	req.NoError(fs.WriteFile("config.bu", []byte(`variant: fcos
version: 1.4.0
storage:
  files:
  - path: /declared-by-hand
    contents:
      inline: manual
`), 0644))
	req.NoError(fs.WriteFile("src/main/scanned.txt", []byte("scanned"), 0644))

	merged, err := newTestAssembler(fs).Assemble()
	req.NoError(err)

	files := storageList(t, merged, "files")
	req.Len(files, 2)

	first, _ := document.GetValue(files[0].(yaml.MapSlice), "path")
	second, _ := document.GetValue(files[1].(yaml.MapSlice), "path")
	req.Equal("/declared-by-hand", first)
	req.Equal("/scanned.txt", second)
}

func TestAssembleAppliesDeclarationOverlays(t *testing.T) {
	req := require.New(t)

	fs := afero.Afero{Fs: afero.NewMemMapFs()}
	req.NoError(fs.WriteFile("config.bu", []byte("variant: fcos\nversion: 1.4.0\n"), 0644))
	req.NoError(fs.WriteFile("src/main/etc/secret.conf", []byte("x"), 0644))
	req.NoError(fs.WriteFile("src/main/etc/subconfig.bu", []byte(`
files:
  - path: "*.conf"
    mode: 0600
    user: {name: root}
`), 0644))

	merged, err := newTestAssembler(fs).Assemble()
	req.NoError(err)

	files := storageList(t, merged, "files")
	req.Len(files, 1)

	file := files[0].(yaml.MapSlice)
	p, _ := document.GetValue(file, "path")
	req.Equal("/etc/secret.conf", p)
	mode, _ := document.GetValue(file, "mode")
	req.Equal(0600, mode)
	user, _ := document.GetValue(file, "user")
	name, _ := document.GetValue(user.(yaml.MapSlice), "name")
	req.Equal("root", name)
}

func TestAssembleIsDeterministic(t *testing.T) {
	req := require.New(t)

	fs := afero.Afero{Fs: afero.NewMemMapFs()}
	req.NoError(fs.WriteFile("config.bu", []byte("variant: fcos\nversion: 1.4.0\n"), 0644))
	req.NoError(fs.WriteFile("config.bu.d/10-a.bu", []byte("storage:\n  files:\n  - path: /a\n"), 0644))
	req.NoError(fs.WriteFile("src/main/one.txt", []byte("1"), 0644))
	req.NoError(fs.WriteFile("src/main/two.txt", []byte("2"), 0644))
	req.NoError(fs.WriteFile("src/10-a/three.txt", []byte("3"), 0644))

	assembler := newTestAssembler(fs)

	first, err := assembler.Assemble()
	req.NoError(err)
	firstOut, err := first.Marshal()
	req.NoError(err)

	for i := 0; i < 5; i++ {
		next, err := assembler.Assemble()
		req.NoError(err)
		nextOut, err := next.Marshal()
		req.NoError(err)
		req.Equal(string(firstOut), string(nextOut))
	}
}
