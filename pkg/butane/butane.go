// Package butane drives the external Butane translator: a version probe
// followed by exactly one translation of the fully merged document.
package butane

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
)

// DefaultTimeout bounds the main translator invocation. The process is
// killed and reaped when it elapses.
const DefaultTimeout = 5 * time.Minute

// versionPattern recognizes the translator's version output; fcct is the
// tool's pre-rename name and still accepted.
var versionPattern = regexp.MustCompile(`(?i)\b(?:butane|fcct)\b.*?\bv?(\d+\.\d+\.\d+)`)

// ToolError is any failure of the external translator: binary missing,
// unrecognized version, non-zero exit, or timeout.
type ToolError struct {
	Op     string
	Detail string
	Err    error
}

func (e *ToolError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("butane %s: %v: %s", e.Op, e.Err, e.Detail)
	}
	return fmt.Sprintf("butane %s: %v", e.Op, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// Translator invokes the butane binary.
type Translator struct {
	Logger log.Logger

	// BinPath is the translator binary, looked up on PATH when relative.
	BinPath string

	// FilesDir is the directory local file references in the document
	// resolve against, i.e. the project root.
	FilesDir string

	Timeout time.Duration
}

func NewTranslator(logger log.Logger, binPath, filesDir string, timeout time.Duration) *Translator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Translator{
		Logger:   logger,
		BinPath:  binPath,
		FilesDir: filesDir,
		Timeout:  timeout,
	}
}

// CheckVersion probes the binary and returns the reported version. It must
// succeed before Translate is attempted.
func (t *Translator) CheckVersion(ctx context.Context) (string, error) {
	debug := level.Debug(log.With(t.Logger, "struct", "translator", "method", "checkVersion"))

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, t.BinPath, "--version").CombinedOutput()
	if err != nil {
		return "", &ToolError{Op: "version check", Detail: strings.TrimSpace(string(out)), Err: err}
	}

	matches := versionPattern.FindSubmatch(out)
	if matches == nil {
		return "", &ToolError{Op: "version check", Detail: strings.TrimSpace(string(out)), Err: errors.New("unrecognized version output")}
	}

	version := string(matches[1])
	debug.Log("event", "version.ok", "version", version)
	return version, nil
}

// Translate feeds the merged document to the translator on stdin and
// returns its stdout, the machine-readable artifact. The process is always
// reaped: on timeout or cancellation the command context kills it and Wait
// collects it before Translate returns.
func (t *Translator) Translate(ctx context.Context, doc []byte) ([]byte, error) {
	debug := level.Debug(log.With(t.Logger, "struct", "translator", "method", "translate"))

	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.BinPath, "--strict", "--files-dir", t.FilesDir)
	cmd.Stdin = bytes.NewReader(doc)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	debug.Log("event", "cmd.start", "args", fmt.Sprintf("%+v", cmd.Args))
	err := cmd.Run()
	debug.Log("event", "cmd.done", "stderr", stderr.String())

	if ctx.Err() == context.DeadlineExceeded {
		return nil, &ToolError{Op: "translate", Detail: fmt.Sprintf("timed out after %s", t.Timeout), Err: ctx.Err()}
	}
	if err != nil {
		return nil, &ToolError{Op: "translate", Detail: strings.TrimSpace(stderr.String()), Err: err}
	}

	return stdout.Bytes(), nil
}
