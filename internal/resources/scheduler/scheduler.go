package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Lumerin-protocol/posw-router/internal/config"
	"github.com/Lumerin-protocol/posw-router/internal/interfaces"
	"github.com/Lumerin-protocol/posw-router/internal/metrics"
	"github.com/Lumerin-protocol/posw-router/internal/resources/allowance"
	"github.com/Lumerin-protocol/posw-router/internal/resources/worker"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Source interface {
	Pending() int
	Drain() []allowance.Snapshot
}

type Worker interface {
	Start(ctx context.Context, target *config.TargetConfig) error
	Stop() error
	Replace(ctx context.Context, target *config.TargetConfig) error
	Status() worker.Status
}

// Scheduler consumes allowance snapshots of a group and keeps the miner
// running for the most advantageous target
type Scheduler struct {
	// config
	group    string
	interval time.Duration
	fallback *config.TargetConfig

	// state, written only by the decision loop. The mutex is not held
	// while the worker is busy so that Status never waits for a miner
	mutex        sync.RWMutex
	current      *allowance.Snapshot
	latest       map[string]allowance.Snapshot
	lastDecision time.Time

	// deps
	source  Source
	worker  Worker
	metrics *metrics.GroupMetrics
	log     interfaces.ILogger
}

func NewScheduler(group string, interval time.Duration, fallback *config.TargetConfig, source Source, w Worker, m *metrics.GroupMetrics, log interfaces.ILogger) *Scheduler {
	return &Scheduler{
		group:    group,
		interval: interval,
		fallback: fallback,
		latest:   make(map[string]allowance.Snapshot),
		source:   source,
		worker:   w,
		metrics:  m,
		log:      log,
	}
}

// Run makes a decision every interval until the context is cancelled. The
// miner is stopped on exit
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Infof("scheduler started, deciding every %s", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return ctx.Err()
		case <-ticker.C:
			s.decide(ctx)
		}
	}
}

// Status returns the current selection and the latest snapshots of every
// target seen so far, ordered by priority
func (s *Scheduler) Status() Status {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	st := Status{
		Group:        s.group,
		LastDecision: s.lastDecision,
	}
	if s.current != nil {
		view := newSnapshotView(*s.current)
		st.Selected = &view
	}

	snaps := maps.Values(s.latest)
	slices.SortStableFunc(snaps, func(a, b allowance.Snapshot) bool {
		if a.Priority() != b.Priority() {
			return a.Priority() > b.Priority()
		}
		return a.ID() < b.ID()
	})

	st.Targets = make([]SnapshotView, 0, len(snaps))
	for _, snap := range snaps {
		st.Targets = append(st.Targets, newSnapshotView(snap))
	}
	return st
}

func (s *Scheduler) decide(ctx context.Context) {
	if s.source.Pending() == 0 {
		return
	}
	fresh := latestPerTarget(s.source.Drain())
	if len(fresh) == 0 {
		return
	}

	s.mutex.Lock()
	s.lastDecision = time.Now()
	for _, snap := range fresh {
		s.latest[snap.ID()] = snap
	}
	s.mutex.Unlock()

	if !s.reapLeftover() {
		return
	}
	if !s.refreshCurrent(fresh) {
		return
	}
	s.ensureAlive(ctx)

	best, ok := Select(s.candidates(fresh))

	switch {
	case ok && s.current == nil:
		s.start(ctx, best)
	case ok:
		s.replace(ctx, best)
	case s.current == nil:
		s.start(ctx, allowance.NewFallbackSnapshot(s.fallback))
	}
}

// reapLeftover retries stopping a miner that survived an earlier failed
// stop. Nothing is started while it is alive
func (s *Scheduler) reapLeftover() bool {
	if s.current != nil || s.worker.Status() != worker.StatusRunning {
		return true
	}

	s.log.Warnf("miner without selection is still running, stopping it")
	err := s.worker.Stop()
	if err != nil {
		s.log.Errorf("%s", err)
		return false
	}
	return true
}

// ensureAlive restarts the miner of the current selection if it exited on its own
func (s *Scheduler) ensureAlive(ctx context.Context) {
	if s.current == nil || s.worker.Status() == worker.StatusRunning {
		return
	}

	s.log.Warnf("miner for %s is not running, restarting", s.current.ID())
	err := s.worker.Start(ctx, s.current.Target)
	if err != nil {
		s.log.Errorf("cannot restart miner: %s", err)
		s.setCurrent(nil)
	}
}

// refreshCurrent stops the miner if the current target can no longer
// continue, otherwise keeps its freshest snapshot. Returns false if the
// miner could not be stopped
func (s *Scheduler) refreshCurrent(fresh []allowance.Snapshot) bool {
	if s.current == nil || s.current.IsFallback() {
		return true
	}

	for _, snap := range fresh {
		if snap.ID() != s.current.ID() {
			continue
		}
		if snap.ContinueMining() {
			s.setCurrent(&snap)
			return true
		}

		s.log.Infof("allowances exhausted for %s, stopping miner", snap)
		err := s.worker.Stop()
		s.setCurrent(nil)
		if err != nil {
			s.log.Errorf("%s", err)
			return false
		}
		return true
	}
	return true
}

func (s *Scheduler) candidates(fresh []allowance.Snapshot) []allowance.Snapshot {
	res := make([]allowance.Snapshot, 0, len(fresh))

	for _, snap := range fresh {
		if !snap.ReadyToMine() {
			continue
		}

		switch {
		case s.current == nil:
			res = append(res, snap)
		case s.current.IsFallback():
			// any ready target preempts the fallback
			res = append(res, snap)
		case snap.ID() == s.current.ID():
		case Beats(snap, *s.current):
			res = append(res, snap)
		}
	}
	return res
}

func (s *Scheduler) start(ctx context.Context, snap allowance.Snapshot) {
	s.log.Infof("starting miner for %s", snap)

	err := s.worker.Start(ctx, snap.Target)
	if err != nil {
		s.log.Errorf("%s", err)
		s.setCurrent(nil)
		return
	}
	s.setCurrent(&snap)
}

func (s *Scheduler) replace(ctx context.Context, snap allowance.Snapshot) {
	s.log.Infof("switching miner from %s to %s", s.current, snap)

	err := s.worker.Replace(ctx, snap.Target)
	if errors.Is(err, worker.ErrLaunch) {
		s.log.Errorf("%s", err)
		s.setCurrent(nil)
		return
	}
	if err != nil {
		s.log.Warnf("miner replaced, previous one may still be running: %s", err)
	}
	s.setCurrent(&snap)
}

func (s *Scheduler) setCurrent(snap *allowance.Snapshot) {
	s.mutex.Lock()
	s.current = snap
	s.mutex.Unlock()

	if snap == nil {
		s.metrics.SetSelected("")
		return
	}
	s.metrics.SetSelected(snap.ID())
}

func (s *Scheduler) shutdown() {
	err := s.worker.Stop()
	if err != nil {
		s.log.Errorf("cannot stop miner on shutdown: %s", err)
	}
	s.setCurrent(nil)
	s.log.Info("scheduler stopped")
}
