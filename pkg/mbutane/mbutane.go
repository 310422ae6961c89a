package mbutane

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/mbutane/mbutane/pkg/assemble"
	"github.com/mbutane/mbutane/pkg/butane"
	"github.com/mbutane/mbutane/pkg/constants"
	"github.com/mitchellh/cli"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Mbutane merges multiple human-readable Butane configs and file trees into
// one document and translates it into a machine-readable Ignition config.
type Mbutane struct {
	Viper  *viper.Viper
	Logger log.Logger
	UI     cli.Ui

	// FS is rooted at the project directory.
	FS afero.Afero

	Assembler  *assemble.Assembler
	Translator *butane.Translator
}

// Execute runs the full pipeline: assemble, probe the translator, translate,
// persist. With merge-only set it stops after assembly and prints the merged
// document instead.
func (m *Mbutane) Execute(ctx context.Context) error {
	debug := level.Debug(log.With(m.Logger, "struct", "mbutane", "method", "execute"))

	debug.Log("event", "assemble.start")
	doc, err := m.Assembler.Assemble()
	if err != nil {
		return err
	}

	merged, err := doc.Marshal()
	if err != nil {
		return err
	}

	if m.Viper.GetBool("merge-only") {
		m.UI.Output(string(merged))
		return nil
	}

	toolVersion, err := m.Translator.CheckVersion(ctx)
	if err != nil {
		return err
	}
	debug.Log("event", "translator.ready", "version", toolVersion)

	artifact, err := m.Translator.Translate(ctx, merged)
	if err != nil {
		return err
	}

	outputPath := m.Viper.GetString("output")
	if outputPath == "" {
		outputPath = constants.OutputFileName
	}
	if err := m.FS.WriteFile(outputPath, artifact, 0644); err != nil {
		return errors.Wrapf(err, "write output %s", outputPath)
	}

	m.UI.Info("Wrote " + outputPath)
	return nil
}

// ExecuteAndMaybeExit runs Execute and exits the process with the error's
// mapped status code on failure.
func (m *Mbutane) ExecuteAndMaybeExit(ctx context.Context) error {
	if err := m.Execute(ctx); err != nil {
		m.ExitWithError(err)
		return err
	}
	return nil
}
