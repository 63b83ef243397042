package runner

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/syncdeck/core/pkg/registry"
)

// ExitStatus describes how a sync process ended.
type ExitStatus struct {
	// Code is the process exit code, -1 when the process was signaled.
	Code int
	// Signaled is true when the process was terminated by a signal
	// rather than exiting on its own.
	Signaled bool
	// Err carries wait errors that are not normal non-zero exits.
	Err error
}

// Proc is one launched sync process. Output is the combined stdout/stderr
// stream; it reaches EOF when the process exits. Wait blocks until exit and
// may be called after draining Output.
type Proc interface {
	Handle() registry.Process
	Output() io.Reader
	Wait() ExitStatus
}

// Launcher spawns sync processes. The exec-backed implementation is used in
// production; tests substitute a fake to script output and exit behavior.
type Launcher interface {
	Launch(binary string, args []string) (Proc, error)
}

// ExecLauncher launches real OS processes.
type ExecLauncher struct{}

type execProc struct {
	cmd  *exec.Cmd
	out  io.Reader
	done chan ExitStatus
}

func (l ExecLauncher) Launch(binary string, args []string) (Proc, error) {
	cmd := exec.Command(binary, args...)
	cmd.Env = os.Environ()

	// Both streams feed one pipe: the tool interleaves progress JSON and
	// diagnostics across stdout/stderr and the parser wants all of it.
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", binary, err)
	}

	p := &execProc{cmd: cmd, out: pr, done: make(chan ExitStatus, 1)}
	go func() {
		err := cmd.Wait()
		_ = pw.Close()
		p.done <- classifyExit(err)
	}()

	return p, nil
}

func (p *execProc) Handle() registry.Process { return p.cmd.Process }
func (p *execProc) Output() io.Reader        { return p.out }
func (p *execProc) Wait() ExitStatus         { return <-p.done }

func classifyExit(err error) ExitStatus {
	if err == nil {
		return ExitStatus{Code: 0}
	}
	if ee, ok := err.(*exec.ExitError); ok {
		if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return ExitStatus{Code: -1, Signaled: true}
		}
		return ExitStatus{Code: ee.ExitCode()}
	}
	return ExitStatus{Code: -1, Err: err}
}
