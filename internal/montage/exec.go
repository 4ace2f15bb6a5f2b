package montage

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/lehigh-university-libraries/mviewer/internal/metrics"
	"github.com/lehigh-university-libraries/mviewer/internal/record"
)

// Runner executes one tool and returns what it wrote to stdout and stderr
type Runner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Exec runs the Montage binaries as subprocesses
type Exec struct {
	binDir string
	run    Runner
}

// NewExec looks tools up in binDir, or on PATH when binDir is empty
func NewExec(binDir string) *Exec {
	return &Exec{binDir: binDir, run: runCommand}
}

// WithRunner swaps the process runner
func (e *Exec) WithRunner(r Runner) *Exec {
	e.run = r
	return e
}

func (e *Exec) binary(tool string) string {
	if e.binDir == "" {
		return tool
	}
	return filepath.Join(e.binDir, tool)
}

func requireFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return errors.Wrapf(err, "input %s", path)
	}
	return nil
}

// invoke runs tool and turns its output into a record. Any stderr output is
// a transport failure even when the exit status is zero.
func (e *Exec) invoke(ctx context.Context, tool string, args ...string) (*record.Record, error) {
	slog.Debug("Running Montage tool", "tool", tool, "args", strings.Join(args, " "))

	stdout, stderr, err := e.run(ctx, e.binary(tool), args...)
	if msg := strings.TrimSpace(string(stderr)); msg != "" || err != nil {
		metrics.ObserveCollaborator(tool, metrics.OutcomeError)
		return nil, &TransportError{Tool: tool, Stderr: msg, Err: err}
	}

	rec, err := record.Parse(strings.TrimSpace(string(stdout)))
	if err != nil {
		metrics.ObserveCollaborator(tool, metrics.OutcomeError)
		return nil, errors.Wrapf(err, "%s response", tool)
	}

	switch rec.Lookup("stat") {
	case "ERROR":
		metrics.ObserveCollaborator(tool, metrics.OutcomeError)
		return rec, &ReportedError{Tool: tool, Message: rec.Lookup("msg")}
	case "WARNING":
		metrics.ObserveCollaborator(tool, metrics.OutcomeWarning)
		return rec, &ReportedError{Tool: tool, Message: rec.Lookup("msg"), Warning: true}
	}

	metrics.ObserveCollaborator(tool, metrics.OutcomeOK)
	return rec, nil
}

func (e *Exec) Inspect(ctx context.Context, path string) (*record.Record, error) {
	if err := requireFile(path); err != nil {
		return nil, &TransportError{Tool: ToolInspect, Err: err}
	}
	return e.invoke(ctx, ToolInspect, path)
}

func (e *Exec) Cutout(ctx context.Context, in, out string, x, y, width, height int) (*record.Record, error) {
	if err := requireFile(in); err != nil {
		return nil, &TransportError{Tool: ToolCutout, Err: err}
	}
	return e.invoke(ctx, ToolCutout, "-p", in, out,
		strconv.Itoa(x), strconv.Itoa(y), strconv.Itoa(width), strconv.Itoa(height))
}

func (e *Exec) Resample(ctx context.Context, in, out string, factor float64) (*record.Record, error) {
	if factor <= 0 {
		return nil, errors.Errorf("resample factor must be positive, got %v", factor)
	}
	return e.invoke(ctx, ToolResample, in, out, ftoa(factor))
}

func (e *Exec) Compose(ctx context.Context, req ComposeRequest) (*record.Record, error) {
	args, err := ComposeArgs(req)
	if err != nil {
		return nil, errors.Wrap(err, "building mViewer arguments")
	}
	return e.invoke(ctx, ToolCompose, args...)
}

// Sample runs mExamine in its aperture mode; coordinates and radius are in pixels
func (e *Exec) Sample(ctx context.Context, path string, x, y float64, radius int) (*record.Record, error) {
	if err := requireFile(path); err != nil {
		return nil, &TransportError{Tool: ToolInspect, Err: err}
	}
	return e.invoke(ctx, ToolInspect, "-p",
		strconv.FormatFloat(x, 'f', -1, 64)+"p",
		strconv.FormatFloat(y, 'f', -1, 64)+"p",
		strconv.Itoa(radius)+"p",
		path)
}

func (e *Exec) Header(ctx context.Context, path, out string) (*record.Record, error) {
	if err := requireFile(path); err != nil {
		return nil, &TransportError{Tool: ToolHeader, Err: err}
	}
	return e.invoke(ctx, ToolHeader, "-H", path, out)
}
