package fs

import (
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// NewBaseFilesystem creates a new Afero OS filesystem
func NewBaseFilesystem() afero.Afero {
	return afero.Afero{Fs: afero.NewOsFs()}
}

// FilesystemParams is a struct that contains Filesystem configuration
type FilesystemParams struct {
	// RootPath is the project directory everything else resolves against.
	// It is threaded through explicitly; mbutane never changes the process
	// working directory.
	RootPath string
}

// NewFilesystemParams creates a new FilesystemParams config object
func NewFilesystemParams(v *viper.Viper) FilesystemParams {
	rootPath := v.GetString("root")
	if rootPath == "" {
		rootPath = "."
	}
	return FilesystemParams{
		RootPath: rootPath,
	}
}

// NewProjectFilesystem returns a filesystem rooted at the project directory
func NewProjectFilesystem(fsp FilesystemParams, baseFilesystem afero.Afero) afero.Afero {
	return afero.Afero{
		Fs: afero.NewBasePathFs(baseFilesystem.Fs, fsp.RootPath),
	}
}
