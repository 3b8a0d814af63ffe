package scheduler

import (
	"context"
	"errors"
	"sync"

	"github.com/Lumerin-protocol/posw-router/internal/config"
	"github.com/Lumerin-protocol/posw-router/internal/repositories/qkc"
	"github.com/Lumerin-protocol/posw-router/internal/resources/allowance"
	"github.com/Lumerin-protocol/posw-router/internal/resources/worker"
	"github.com/ethereum/go-ethereum/common"
)

type fakeWorker struct {
	mutex   sync.Mutex
	calls   []string
	target  *config.TargetConfig
	status  worker.Status
	handles int

	startErr error
	stopErr  error

	// when set, Stop signals stopCalled and waits for releaseStop
	stopCalled  chan struct{}
	releaseStop chan struct{}
}

func (w *fakeWorker) Start(ctx context.Context, target *config.TargetConfig) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.calls = append(w.calls, "start "+target.Address.String())
	if w.status == worker.StatusRunning {
		return worker.ErrAlreadyRunning
	}
	return w.launch(target)
}

func (w *fakeWorker) Stop() error {
	if w.stopCalled != nil {
		w.stopCalled <- struct{}{}
		<-w.releaseStop
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.calls = append(w.calls, "stop")
	return w.stop()
}

func (w *fakeWorker) Replace(ctx context.Context, target *config.TargetConfig) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.calls = append(w.calls, "replace "+target.Address.String())
	stopErr := w.stop()
	if stopErr != nil {
		// the process is abandoned
		w.handles--
		w.status = worker.StatusIdle
	}
	return errors.Join(stopErr, w.launch(target))
}

func (w *fakeWorker) Status() worker.Status {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.status
}

func (w *fakeWorker) launch(target *config.TargetConfig) error {
	if w.startErr != nil {
		return &worker.LaunchError{Exe: "miner", Target: target.Address.String(), Err: w.startErr}
	}
	w.target = target
	w.status = worker.StatusRunning
	w.handles++
	return nil
}

// stop keeps the handle if termination fails
func (w *fakeWorker) stop() error {
	switch w.status {
	case worker.StatusIdle:
		return nil
	case worker.StatusRunning:
		if w.stopErr != nil {
			return &worker.TerminationError{PID: 1, Err: w.stopErr}
		}
		w.handles--
	}
	w.target = nil
	w.status = worker.StatusIdle
	return nil
}

func (w *fakeWorker) setStopErr(err error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.stopErr = err
}

func (w *fakeWorker) exit() {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.status = worker.StatusExited
	w.handles--
}

func (w *fakeWorker) history() []string {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return append([]string(nil), w.calls...)
}

func (w *fakeWorker) reset() {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.calls = nil
}

func (w *fakeWorker) running() *config.TargetConfig {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.target
}

func newTarget(seed byte, priority uint16) *config.TargetConfig {
	return &config.TargetConfig{
		Path:     "miner.ini",
		Priority: priority,
		Address:  qkc.NewAddress(common.BytesToAddress([]byte{seed}), 3, 0),
	}
}

// snap builds a snapshot with plenty of allowances unless used says otherwise
func snap(target *config.TargetConfig, difficulty uint64, used uint32) allowance.Snapshot {
	return allowance.Snapshot{
		Target:     target,
		Used:       used,
		Allowances: 10,
		Difficulty: difficulty,
	}
}
