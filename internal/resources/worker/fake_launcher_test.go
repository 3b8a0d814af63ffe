package worker

import (
	"errors"
	"sync"

	"github.com/Lumerin-protocol/posw-router/internal/config"
	"github.com/Lumerin-protocol/posw-router/internal/repositories/qkc"
	"github.com/ethereum/go-ethereum/common"
)

var errNoSuchFile = errors.New("no such file")

type fakeProcess struct {
	pid     int
	killErr error

	once sync.Once
	done chan struct{}
}

func newFakeProcess(pid int) *fakeProcess {
	return &fakeProcess{pid: pid, done: make(chan struct{})}
}

func (p *fakeProcess) PID() int              { return p.pid }
func (p *fakeProcess) Done() <-chan struct{} { return p.done }
func (p *fakeProcess) ExitError() error      { return nil }

func (p *fakeProcess) Kill() error {
	if p.killErr != nil {
		return p.killErr
	}
	p.exit()
	return nil
}

func (p *fakeProcess) exit() {
	p.once.Do(func() { close(p.done) })
}

type fakeLauncher struct {
	mutex    sync.Mutex
	commands []Command
	procs    []*fakeProcess
	failNext error
}

func (l *fakeLauncher) Launch(cmd Command) (Process, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.failNext != nil {
		err := l.failNext
		l.failNext = nil
		return nil, err
	}

	l.commands = append(l.commands, cmd)
	proc := newFakeProcess(1000 + len(l.procs))
	l.procs = append(l.procs, proc)
	return proc, nil
}

func (l *fakeLauncher) last() *fakeProcess {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.procs[len(l.procs)-1]
}

// alive counts launched processes that were neither killed nor exited
func (l *fakeLauncher) alive() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	n := 0
	for _, p := range l.procs {
		select {
		case <-p.done:
		default:
			n++
		}
	}
	return n
}

func testTarget(seed byte, args ...string) *config.TargetConfig {
	return &config.TargetConfig{
		SpawnArgs: args,
		Path:      "miner.ini",
		Address:   qkc.NewAddress(common.BytesToAddress([]byte{seed}), 3, 0),
	}
}
