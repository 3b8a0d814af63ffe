package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Lumerin-protocol/posw-router/internal/config"
	"github.com/Lumerin-protocol/posw-router/internal/interfaces"
	"github.com/Lumerin-protocol/posw-router/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

const DefaultKillTimeout = 10 * time.Second

// Controller owns at most one miner process at a time
type Controller struct {
	// config
	minerDir    string
	minerExe    string
	killTimeout time.Duration

	// state
	mutex     sync.RWMutex
	proc      Process
	target    *config.TargetConfig
	launchID  string
	startedAt time.Time

	launches     *atomic.Uint64
	terminations *atomic.Uint64
	unexpected   *atomic.Uint64

	// deps
	launcher Launcher
	metrics  *metrics.GroupMetrics
	log      interfaces.ILogger
}

// Info is a point in time view of the controller
type Info struct {
	Status       Status    `json:"status"`
	PID          int       `json:"pid,omitempty"`
	Target       string    `json:"target,omitempty"`
	LaunchID     string    `json:"launchId,omitempty"`
	StartedAt    time.Time `json:"startedAt,omitempty"`
	Launches     uint64    `json:"launches"`
	Terminations uint64    `json:"terminations"`
	Exits        uint64    `json:"exits"`
}

func NewController(minerDir, minerExe string, launcher Launcher, m *metrics.GroupMetrics, log interfaces.ILogger) *Controller {
	return &Controller{
		minerDir:     minerDir,
		minerExe:     minerExe,
		killTimeout:  DefaultKillTimeout,
		launches:     atomic.NewUint64(0),
		terminations: atomic.NewUint64(0),
		unexpected:   atomic.NewUint64(0),
		launcher:     launcher,
		metrics:      m,
		log:          log,
	}
}

// Start launches the miner for target. A process that exited on its own is
// replaced, a live one is reported with ErrAlreadyRunning
func (c *Controller) Start(ctx context.Context, target *config.TargetConfig) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.isRunning() {
		return ErrAlreadyRunning
	}
	return c.start(ctx, target)
}

// Stop kills the miner and waits for it to be reaped. Stopping an idle
// controller or an already exited process is not an error. If termination
// failed the handle is kept so that Stop can be retried
func (c *Controller) Stop() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.stop()
}

// Replace stops the current miner and starts a new one for target. The new
// miner is started even if the old one could not be terminated, both errors
// are returned
func (c *Controller) Replace(ctx context.Context, target *config.TargetConfig) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	stopErr := c.stop()
	startErr := c.start(ctx, target)

	return errors.Join(stopErr, startErr)
}

func (c *Controller) Running() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.isRunning()
}

func (c *Controller) Status() Status {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.status()
}

// PID returns zero when no process was launched
func (c *Controller) PID() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.proc == nil {
		return 0
	}
	return c.proc.PID()
}

func (c *Controller) Target() *config.TargetConfig {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.target
}

func (c *Controller) Info() Info {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	info := Info{
		Status:       c.status(),
		LaunchID:     c.launchID,
		StartedAt:    c.startedAt,
		Launches:     c.launches.Load(),
		Terminations: c.terminations.Load(),
		Exits:        c.unexpected.Load(),
	}
	if c.proc != nil {
		info.PID = c.proc.PID()
	}
	if c.target != nil {
		info.Target = c.target.Address.String()
	}
	return info
}

func (c *Controller) start(ctx context.Context, target *config.TargetConfig) error {
	if err := ctx.Err(); err != nil {
		return &LaunchError{Exe: c.minerExe, Target: target.Address.String(), Err: err}
	}

	c.release()

	launchID := uuid.NewString()
	proc, err := c.launcher.Launch(Command{
		ID:   launchID,
		Dir:  c.minerDir,
		Exe:  c.minerExe,
		Args: target.SpawnArgs,
	})
	if err != nil {
		c.metrics.RecordWorkerError("launch")
		return &LaunchError{Exe: c.minerExe, Target: target.Address.String(), Err: err}
	}

	c.proc = proc
	c.target = target
	c.launchID = launchID
	c.startedAt = time.Now()
	c.launches.Inc()
	c.metrics.RecordLaunch()

	c.log.Infof("miner started for %s, pid %d, launch %s", target.Address, proc.PID(), launchID)
	go c.watch(proc, launchID)

	return nil
}

func (c *Controller) stop() error {
	if c.proc == nil {
		return nil
	}
	proc, launchID := c.proc, c.launchID

	select {
	case <-proc.Done():
		c.log.Debugf("miner %s already exited", launchID)
		c.release()
		return nil
	default:
	}

	err := proc.Kill()
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		c.metrics.RecordWorkerError("termination")
		return &TerminationError{PID: proc.PID(), Err: err}
	}

	timer := time.NewTimer(c.killTimeout)
	defer timer.Stop()

	select {
	case <-proc.Done():
	case <-timer.C:
		c.metrics.RecordWorkerError("termination")
		return &TerminationError{PID: proc.PID(), Err: fmt.Errorf("not reaped within %s", c.killTimeout)}
	}

	c.release()
	c.terminations.Inc()
	c.metrics.RecordTermination()
	c.log.Infof("miner stopped, pid %d, launch %s", proc.PID(), launchID)

	return nil
}

// release drops the handle without touching the process
func (c *Controller) release() {
	c.proc = nil
	c.target = nil
	c.launchID = ""
	c.startedAt = time.Time{}
}

func (c *Controller) isRunning() bool {
	return c.status() == StatusRunning
}

func (c *Controller) status() Status {
	if c.proc == nil {
		return StatusIdle
	}
	select {
	case <-c.proc.Done():
		return StatusExited
	default:
		return StatusRunning
	}
}

// watch reports a process exiting while it is still the current one
func (c *Controller) watch(proc Process, launchID string) {
	<-proc.Done()

	c.mutex.RLock()
	current := c.proc == proc
	c.mutex.RUnlock()

	if !current {
		return
	}

	c.unexpected.Inc()
	c.metrics.RecordWorkerError("exit")
	c.log.Warnf("miner exited unexpectedly, launch %s: %v", launchID, proc.ExitError())
}
