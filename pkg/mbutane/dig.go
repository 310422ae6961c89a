package mbutane

import (
	"github.com/go-kit/kit/log"
	"github.com/mbutane/mbutane/pkg/assemble"
	"github.com/mbutane/mbutane/pkg/butane"
	"github.com/mbutane/mbutane/pkg/fs"
	"github.com/mbutane/mbutane/pkg/logger"
	"github.com/mbutane/mbutane/pkg/overlay"
	"github.com/mbutane/mbutane/pkg/scan"
	"github.com/mbutane/mbutane/pkg/ui"
	"github.com/mitchellh/cli"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/dig"
)

func buildInjector(v *viper.Viper) (*dig.Container, error) {
	providers := []interface{}{
		func() *viper.Viper { return v },

		// the one afero.Afero in the graph is rooted at the project dir
		fs.NewFilesystemParams,
		projectFilesystem,
		logger.New,
		ui.FromViper,

		scan.NewScanner,
		overlay.NewResolver,
		assemble.NewAssembler,
		translatorFromViper,

		newMbutane,
	}

	container := dig.New()
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, errors.Wrap(err, "register provider")
		}
	}
	return container, nil
}

// Get builds an Mbutane instance with dependencies resolved from viper.
func Get(v *viper.Viper) (*Mbutane, error) {
	container, err := buildInjector(v)
	if err != nil {
		return nil, errors.Wrap(err, "build injector")
	}

	var m *Mbutane
	if err := container.Invoke(func(built *Mbutane) { m = built }); err != nil {
		return nil, errors.Wrap(err, "resolve mbutane")
	}
	return m, nil
}

func projectFilesystem(fsp fs.FilesystemParams) afero.Afero {
	return fs.NewProjectFilesystem(fsp, fs.NewBaseFilesystem())
}

func translatorFromViper(v *viper.Viper, fsp fs.FilesystemParams, logger log.Logger) *butane.Translator {
	filesDir := v.GetString("files-dir")
	if filesDir == "" {
		filesDir = fsp.RootPath
	}
	return butane.NewTranslator(
		logger,
		v.GetString("butane"),
		filesDir,
		v.GetDuration("timeout"),
	)
}

func newMbutane(
	v *viper.Viper,
	logger log.Logger,
	terminal cli.Ui,
	projectFS afero.Afero,
	assembler *assemble.Assembler,
	translator *butane.Translator,
) *Mbutane {
	return &Mbutane{
		Viper:      v,
		Logger:     logger,
		UI:         terminal,
		FS:         projectFS,
		Assembler:  assembler,
		Translator: translator,
	}
}
