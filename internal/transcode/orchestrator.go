package transcode

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"time"
)

// Orchestrator runs the external transcoder for one job at a time.
//
// The audio stream is piped to the process's stdin; cover art, which the
// transcoder needs to be seekable, goes through an ephemeral temporary
// file that is removed on every exit path. On any failure the partial
// output file is deleted and the process killed if still running.
type Orchestrator struct {
	// ExecPath is the transcoder executable, resolved through PATH when
	// not absolute.
	ExecPath string

	// Timeout is the per-job duration ceiling. 0 disables it.
	Timeout time.Duration
}

// Healthcheck verifies the transcoder executable can be located. Called
// once at startup so a bad ffpath fails before any job runs.
func Healthcheck(execPath string) error {
	_, err := exec.LookPath(execPath)
	return err
}

// Run executes the transcoder for one job.
//
// in describes the argv; audio is streamed to stdin; cover, when
// non-nil, is staged into a temp file whose path replaces in.CoverPath.
// A nil return means the transcoder exited zero and the output file at
// in.OutputPath is the artifact of record.
func (o *Orchestrator) Run(ctx context.Context, in BuildInput, audio io.Reader, cover []byte) error {
	runCtx := ctx
	var cancel context.CancelFunc
	if o.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	if cover != nil {
		coverFile, err := os.CreateTemp("", "ffgrab-cover-*.img")
		if err != nil {
			return &Error{Kind: SpawnFailure, Err: err}
		}
		defer os.Remove(coverFile.Name())
		if _, err := coverFile.Write(cover); err != nil {
			coverFile.Close()
			return &Error{Kind: SpawnFailure, Err: err}
		}
		if err := coverFile.Close(); err != nil {
			return &Error{Kind: SpawnFailure, Err: err}
		}
		in.CoverPath = coverFile.Name()
	}

	args := BuildArgs(in)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, o.ExecPath, args...)
	cmd.Stdin = audio
	cmd.Stderr = &stderr
	// A killed transcoder may leave forked descendants holding the
	// stderr pipe open; without a delay Wait would block on them.
	cmd.WaitDelay = 3 * time.Second
	killProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return &Error{Kind: SpawnFailure, Err: err}
	}

	if err := cmd.Wait(); err != nil {
		// Never leave a partial artifact behind.
		os.Remove(in.OutputPath)
		return classify(ctx, runCtx, err, stderr.String())
	}
	return nil
}

// classify maps a Wait error to the failure kind the caller reports.
func classify(ctx, runCtx context.Context, err error, stderr string) error {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return &Error{Kind: Cancelled, Err: ctx.Err()}
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return &Error{Kind: Timeout, Err: runCtx.Err()}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		werr := err
		if stderr != "" {
			werr = errors.New(stderr)
		}
		return &Error{Kind: NonZeroExit, ExitCode: exitErr.ExitCode(), Err: werr}
	}
	return &Error{Kind: NonZeroExit, Err: err}
}
