package group

import (
	"context"
	"fmt"
	"time"

	"github.com/Lumerin-protocol/posw-router/internal/config"
	"github.com/Lumerin-protocol/posw-router/internal/interfaces"
	"github.com/Lumerin-protocol/posw-router/internal/metrics"
	"github.com/Lumerin-protocol/posw-router/internal/resources/allowance"
	"github.com/Lumerin-protocol/posw-router/internal/resources/scheduler"
	"github.com/Lumerin-protocol/posw-router/internal/resources/worker"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	Poller            allowance.PollerConfig
	SchedulerInterval time.Duration
}

type Loggers struct {
	Poller    interfaces.ILogger
	Scheduler interfaces.ILogger
	Worker    interfaces.ILogger
}

// Runner supervises a single group: one poller per target, one scheduler and
// one miner process
type Runner struct {
	// config
	cfg *config.GroupConfig

	// state
	bus        *allowance.Bus
	pollers    []*allowance.Poller
	controller *worker.Controller
	scheduler  *scheduler.Scheduler
}

// Status is the combined view of the group scheduler and its miner
type Status struct {
	scheduler.Status
	RPC    string      `json:"rpc"`
	Worker worker.Info `json:"worker"`
}

func NewRunner(cfg *config.GroupConfig, runCfg Config, ledger allowance.Ledger, launcher worker.Launcher, collector *metrics.Collector, logs Loggers) (*Runner, error) {
	var m *metrics.GroupMetrics
	if collector != nil {
		m = collector.ForGroup(cfg.Name)
	}

	bus := allowance.NewBus()

	pollers := make([]*allowance.Poller, 0, len(cfg.ConfigFiles))
	for _, target := range cfg.ConfigFiles {
		log := logs.Poller.Named(fmt.Sprintf("POLLER %s %s", cfg.Name, target.Address))
		p, err := allowance.NewPoller(target, runCfg.Poller, ledger, bus, m, log)
		if err != nil {
			return nil, fmt.Errorf("group %s, target %s: %w", cfg.Name, target.Path, err)
		}
		pollers = append(pollers, p)
	}

	controller := worker.NewController(cfg.MinerDir, cfg.MinerExe, launcher, m, logs.Worker.Named("WORKER "+cfg.Name))
	sch := scheduler.NewScheduler(cfg.Name, runCfg.SchedulerInterval, cfg.FallbackConfig, bus, controller, m, logs.Scheduler.Named("SCHEDULER "+cfg.Name))

	return &Runner{
		cfg:        cfg,
		bus:        bus,
		pollers:    pollers,
		controller: controller,
		scheduler:  sch,
	}, nil
}

func (r *Runner) Name() string {
	return r.cfg.Name
}

// Run blocks until the context is cancelled, the miner is stopped before
// returning
func (r *Runner) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, p := range r.pollers {
		p := p
		g.Go(func() error {
			return p.Run(gctx)
		})
	}
	g.Go(func() error {
		return r.scheduler.Run(gctx)
	})

	return g.Wait()
}

func (r *Runner) Status() Status {
	return Status{
		Status: r.scheduler.Status(),
		RPC:    r.cfg.RPC,
		Worker: r.controller.Info(),
	}
}
