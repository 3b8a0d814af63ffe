package worker

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
)

// Command describes a single miner launch
type Command struct {
	ID   string
	Dir  string
	Exe  string
	Args []string
}

type Process interface {
	PID() int
	Kill() error
	// Done is closed once the process exited and was reaped
	Done() <-chan struct{}
	// ExitError is valid once Done is closed
	ExitError() error
}

type Launcher interface {
	Launch(cmd Command) (Process, error)
}

// ExecLauncher runs the miner as a child process sharing the router stdout
// and stderr. The stdin pipe is held open for the lifetime of the process
type ExecLauncher struct{}

func NewExecLauncher() *ExecLauncher {
	return &ExecLauncher{}
}

func (l *ExecLauncher) Launch(c Command) (Process, error) {
	cmd := exec.Command(resolveExe(c.Dir, c.Exe), c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}

	err = cmd.Start()
	if err != nil {
		return nil, err
	}

	proc := &execProcess{
		cmd:   cmd,
		stdin: stdin,
		done:  make(chan struct{}),
	}
	go proc.wait()

	return proc, nil
}

// resolveExe prefers an executable located in the miner directory, otherwise
// the name is left for the PATH lookup
func resolveExe(dir, exe string) string {
	if filepath.IsAbs(exe) || dir == "" {
		return exe
	}
	candidate := filepath.Join(dir, exe)
	info, err := os.Stat(candidate)
	if err == nil && !info.IsDir() {
		abs, err := filepath.Abs(candidate)
		if err == nil {
			return abs
		}
		return candidate
	}
	return exe
}

type execProcess struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser

	mutex   sync.Mutex
	exitErr error
	done    chan struct{}
}

func (p *execProcess) wait() {
	err := p.cmd.Wait()

	p.mutex.Lock()
	p.exitErr = err
	p.mutex.Unlock()

	close(p.done)
}

func (p *execProcess) PID() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Kill() error {
	return p.cmd.Process.Kill()
}

func (p *execProcess) Done() <-chan struct{} {
	return p.done
}

func (p *execProcess) ExitError() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.exitErr
}
