package mbutane

import (
	"fmt"
	"os"

	"github.com/go-kit/kit/log/level"
	"github.com/mbutane/mbutane/pkg/assemble"
	"github.com/mbutane/mbutane/pkg/butane"
	"github.com/mbutane/mbutane/pkg/document"
	"github.com/mbutane/mbutane/pkg/match"
	"github.com/mbutane/mbutane/pkg/scan"
	"github.com/pkg/errors"
)

// Stable exit codes per error class. Scripts depend on these staying put.
const (
	ExitGeneric      = 1
	ExitConfig       = 2
	ExitScan         = 3
	ExitPattern      = 4
	ExitMergeDefect  = 5
	ExitExternalTool = 6
)

// ExitCode maps an error to its stable process exit status.
func ExitCode(err error) int {
	var configErr *assemble.ConfigError
	var scanErr *scan.Error
	var patternErr *match.PatternError
	var mergeErr *document.MergeError
	var toolErr *butane.ToolError

	switch {
	case errors.As(err, &configErr):
		return ExitConfig
	case errors.As(err, &scanErr):
		return ExitScan
	case errors.As(err, &patternErr):
		return ExitPattern
	case errors.As(err, &mergeErr):
		return ExitMergeDefect
	case errors.As(err, &toolErr):
		return ExitExternalTool
	default:
		return ExitGeneric
	}
}

// ExitWithError prints a single friendly message and terminates with the
// error's mapped status code.
func (m *Mbutane) ExitWithError(err error) {
	if m.Viper.GetString("log-level") == "debug" {
		m.UI.Error(fmt.Sprintf("Error: %+v", err))
	} else {
		m.UI.Error(fmt.Sprintf("Error: %v", err))
	}
	level.Warn(m.Logger).Log("event", "exit.withErr", "code", ExitCode(err), "errorWithStack", fmt.Sprintf("%+v", err))

	if !m.Viper.GetBool("no-os-exit") {
		os.Exit(ExitCode(err))
	}
}
