package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/Lumerin-protocol/posw-router/internal/config"
	"github.com/Lumerin-protocol/posw-router/internal/handlers"
	"github.com/Lumerin-protocol/posw-router/internal/handlers/httphandlers"
	"github.com/Lumerin-protocol/posw-router/internal/interfaces"
	"github.com/Lumerin-protocol/posw-router/internal/lib"
	"github.com/Lumerin-protocol/posw-router/internal/metrics"
	"github.com/Lumerin-protocol/posw-router/internal/repositories/qkc"
	"github.com/Lumerin-protocol/posw-router/internal/resources/allowance"
	"github.com/Lumerin-protocol/posw-router/internal/resources/group"
	"github.com/Lumerin-protocol/posw-router/internal/resources/worker"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const appName = "posw-router"

func main() {
	err := start()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func start() error {
	err := godotenv.Load(".env")
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	var cfg config.Config
	err = config.LoadConfig(&cfg, os.Args)
	if err != nil {
		return err
	}

	newLogger := func(name, level string) (*lib.Logger, error) {
		return lib.NewLogger(name, level, cfg.Log.Color, cfg.Log.IsProd, cfg.Log.JSON, cfg.Log.FolderPath)
	}

	appLog, err := newLogger(appName, cfg.Log.LevelApp)
	if err != nil {
		return err
	}
	defer func() {
		_ = appLog.Sync()
	}()
	log := appLog.Named("APP")

	pollerLog, err := newLogger("poller", cfg.Log.LevelPoller)
	if err != nil {
		return err
	}
	schedulerLog, err := newLogger("scheduler", cfg.Log.LevelScheduler)
	if err != nil {
		return err
	}
	workerLog, err := newLogger("worker", cfg.Log.LevelWorker)
	if err != nil {
		return err
	}
	rpcLog, err := newLogger("rpc", cfg.Log.LevelRPC)
	if err != nil {
		return err
	}

	log.Infof("%s %s starting, environment %s", appName, config.BuildVersion, cfg.Environment)
	log.Debugf("config: %+v", cfg.GetSanitized())

	groupConfigs, err := config.LoadGroups(cfg.Groups.File)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-shutdownChan
		log.Warnf("Received signal: %s", s)
		cancel()

		s = <-shutdownChan
		log.Warnf("Received signal: %s. Forcing exit...", s)
		os.Exit(1)
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	runCfg := group.Config{
		Poller: allowance.PollerConfig{
			Interval:      cfg.Allowance.PollInterval,
			BatchSize:     cfg.Allowance.BatchSize,
			RetryMinDelay: cfg.Allowance.RetryMinDelay,
			RetryMaxDelay: cfg.Allowance.RetryMaxDelay,
		},
		SchedulerInterval: cfg.Scheduler.Interval,
	}
	loggers := group.Loggers{
		Poller:    pollerLog,
		Scheduler: schedulerLog,
		Worker:    workerLog,
	}
	launcher := worker.NewExecLauncher()

	var runners []interfaces.Runnable
	var providers []httphandlers.GroupStatusProvider

	for _, groupCfg := range groupConfigs {
		client, err := qkc.DialContext(ctx, groupCfg.RPC, cfg.RPC.CallTimeout, rpcLog.Named("RPC "+groupCfg.Name))
		if err != nil {
			return fmt.Errorf("group %s: %w", groupCfg.Name, err)
		}
		defer client.Close()

		info, err := client.NetworkInfo(ctx)
		if err != nil {
			log.Warnf("group %s: node %s is not reachable yet: %s", groupCfg.Name, groupCfg.RPC, err)
		} else {
			log.Infof("group %s: network %d, %d chains, syncing %t", groupCfg.Name, uint64(info.NetworkID), uint64(info.ChainSize), info.Syncing)
		}

		runner, err := group.NewRunner(groupCfg, runCfg, client, launcher, collector, loggers)
		if err != nil {
			return err
		}

		log.Infof("group %s: %d targets, rpc %s, miner %s", groupCfg.Name, len(groupCfg.ConfigFiles), groupCfg.RPC, groupCfg.MinerExe)
		runners = append(runners, runner)
		providers = append(providers, runner)
	}

	if cfg.Web.Address != "" {
		router := httphandlers.NewHTTPHandler(providers, &cfg, registry, log.Named("HTTP"))
		runners = append(runners, handlers.NewHTTPServer(cfg.Web.Address, router, log.Named("HTTP")))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range runners {
		r := r
		g.Go(func() error {
			return r.Run(gctx)
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		log.Infof("App exited due to %s", err)
		return nil
	}
	return err
}
