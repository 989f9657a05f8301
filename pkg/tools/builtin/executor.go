// Package builtin provides the shell command executor and the run_command
// tool that exposes it to the model.
//
// Commands run through the host shell with the process environment and
// working directory inherited. There is no sandbox and no timeout: a command
// that never exits blocks its caller.
package builtin

import (
	"bufio"
	"errors"
	"io"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultShell is the interpreter commands are passed to with -c.
const DefaultShell = "/bin/sh"

// LaunchFailedCommand replaces CommandResult.Command when the child process
// could not be started.
const LaunchFailedCommand = "error"

// Stream names the child output a line was read from.
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// CommandResult is what a command produced. Output is every stdout line
// followed by every stderr line, joined with "\n". Order is preserved within
// each stream; the two streams are never interleaved.
type CommandResult struct {
	Command string `json:"command"`
	Output  string `json:"output"`
}

// LaunchFailed reports whether the result stands for a process that never
// started.
func (r CommandResult) LaunchFailed() bool { return r.Command == LaunchFailedCommand }

// ExecutorOptions configures an Executor. The zero value is usable.
type ExecutorOptions struct {
	// Shell is the interpreter path. Defaults to DefaultShell.
	Shell string
	// OnLine, if set, observes each line as it is read. It is called from
	// both drain goroutines concurrently and must not block for long.
	OnLine func(stream Stream, line string)
	// Logger receives launch and exit diagnostics. nil disables them.
	Logger *zerolog.Logger
}

// Executor runs shell commands and captures their output.
// It holds no per-command state and is safe for concurrent use.
type Executor struct {
	shell  string
	onLine func(Stream, string)
	log    zerolog.Logger
}

// NewExecutor returns an Executor configured by opts.
func NewExecutor(opts ExecutorOptions) *Executor {
	e := &Executor{
		shell:  opts.Shell,
		onLine: opts.OnLine,
		log:    zerolog.Nop(),
	}
	if e.shell == "" {
		e.shell = DefaultShell
	}
	if opts.Logger != nil {
		e.log = *opts.Logger
	}
	return e
}

// Shell returns the interpreter path commands are run with.
func (e *Executor) Shell() string { return e.shell }

// Execute runs command and returns its captured output.
//
// stdout and stderr are drained by two goroutines at the same time; reading
// them one after the other would stall a child that fills the unread pipe.
// Process exit is awaited only after both streams hit EOF. A nonzero exit
// status is not an error. If the process cannot be started the result's
// Command is LaunchFailedCommand and its Output is the OS error text.
func (e *Executor) Execute(command string) CommandResult {
	cmd := exec.Command(e.shell, "-c", command)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return e.launchFailed(command, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return e.launchFailed(command, err)
	}
	if err := cmd.Start(); err != nil {
		return e.launchFailed(command, err)
	}

	var outLines, errLines []string
	var g errgroup.Group
	g.Go(func() error { return e.drain(stdout, StreamStdout, &outLines) })
	g.Go(func() error { return e.drain(stderr, StreamStderr, &errLines) })
	if err := g.Wait(); err != nil {
		e.log.Warn().Err(err).Str("command", command).Msg("reading command output")
	}

	waitErr := cmd.Wait()
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		e.log.Warn().Err(waitErr).Str("command", command).Msg("waiting for command")
	}

	lines := make([]string, 0, len(outLines)+len(errLines))
	lines = append(lines, outLines...)
	lines = append(lines, errLines...)
	output := strings.Join(lines, "\n")

	if ev := e.log.Debug(); ev.Enabled() {
		head, cut := Preview(output, PreviewMaxLines, PreviewMaxBytes)
		ev.Str("command", command).
			Int("exit_code", cmd.ProcessState.ExitCode()).
			Int("stdout_lines", len(outLines)).
			Int("stderr_lines", len(errLines)).
			Str("size", FormatSize(len(output))).
			Str("preview", head).
			Bool("preview_truncated", cut).
			Msg("command finished")
	}

	return CommandResult{Command: command, Output: output}
}

func (e *Executor) launchFailed(command string, err error) CommandResult {
	e.log.Error().Err(err).Str("command", command).Str("shell", e.shell).Msg("command launch failed")
	return CommandResult{Command: LaunchFailedCommand, Output: err.Error()}
}

// drain reads r to EOF, appending each line without its terminator to *dst.
// On a read error the rest of the stream is discarded so the child never
// blocks on a full pipe.
func (e *Executor) drain(r io.Reader, stream Stream, dst *[]string) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimRight(line, "\r\n")
			if e.onLine != nil {
				e.onLine(stream, line)
			}
			*dst = append(*dst, line)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			_, _ = io.Copy(io.Discard, r)
			return err
		}
	}
}
