package config

import (
	"time"
)

const (
	DefaultPollInterval      = 60 * time.Second
	DefaultSchedulerInterval = 10 * time.Second
	DefaultBatchSize         = 10
)

// Validation tags described here: https://pkg.go.dev/github.com/go-playground/validator/v10
type Config struct {
	Allowance struct {
		PollInterval  time.Duration `env:"ALLOWANCE_POLL_INTERVAL"   flag:"allowance-poll-interval"   desc:"interval between allowance polls of a single target"`
		BatchSize     int           `env:"ALLOWANCE_BATCH_SIZE"      flag:"allowance-batch-size"      validate:"omitempty,gte=1"  desc:"number of blocks fetched sequentially by one concurrent request batch"`
		RetryMinDelay time.Duration `env:"ALLOWANCE_RETRY_MIN_DELAY" flag:"allowance-retry-min-delay" desc:"delay before retrying a failed poll, doubled on every consequent failure"`
		RetryMaxDelay time.Duration `env:"ALLOWANCE_RETRY_MAX_DELAY" flag:"allowance-retry-max-delay" desc:"upper bound of the retry delay"`
	}
	Environment string `env:"ENVIRONMENT" flag:"environment"`
	Groups      struct {
		File string `env:"GROUPS_FILE" flag:"groups-file" validate:"required,file" desc:"path to json or yaml file describing miner groups and targets"`
	}
	Log struct {
		Color          bool   `env:"LOG_COLOR"           flag:"log-color"`
		FolderPath     string `env:"LOG_FOLDER_PATH"     flag:"log-folder-path"     validate:"omitempty,dir"        desc:"enables file logging and sets the folder path"`
		IsProd         bool   `env:"LOG_IS_PROD"         flag:"log-is-prod"         validate:""                     desc:"affects the format of the log output"`
		JSON           bool   `env:"LOG_JSON"            flag:"log-json"`
		LevelApp       string `env:"LOG_LEVEL_APP"       flag:"log-level-app"       validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
		LevelPoller    string `env:"LOG_LEVEL_POLLER"    flag:"log-level-poller"    validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
		LevelScheduler string `env:"LOG_LEVEL_SCHEDULER" flag:"log-level-scheduler" validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
		LevelWorker    string `env:"LOG_LEVEL_WORKER"    flag:"log-level-worker"    validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
		LevelRPC       string `env:"LOG_LEVEL_RPC"       flag:"log-level-rpc"       validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
	}
	RPC struct {
		CallTimeout time.Duration `env:"RPC_CALL_TIMEOUT" flag:"rpc-call-timeout" desc:"timeout of a single json-rpc request"`
	}
	Scheduler struct {
		Interval time.Duration `env:"SCHEDULER_INTERVAL" flag:"scheduler-interval" desc:"interval between scheduler decisions"`
	}
	Web struct {
		Address string `env:"WEB_ADDRESS" flag:"web-address" validate:"omitempty,hostname_port" desc:"status http server address host:port, disabled if empty"`
	}
}

func (cfg *Config) SetDefaults() {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	// Allowance

	if cfg.Allowance.PollInterval == 0 {
		cfg.Allowance.PollInterval = DefaultPollInterval
	}
	if cfg.Allowance.BatchSize == 0 {
		cfg.Allowance.BatchSize = DefaultBatchSize
	}
	if cfg.Allowance.RetryMinDelay == 0 {
		cfg.Allowance.RetryMinDelay = 500 * time.Millisecond
	}
	if cfg.Allowance.RetryMaxDelay == 0 {
		cfg.Allowance.RetryMaxDelay = 30 * time.Second
	}
	if cfg.Allowance.RetryMaxDelay < cfg.Allowance.RetryMinDelay {
		cfg.Allowance.RetryMaxDelay = cfg.Allowance.RetryMinDelay
	}

	// Groups

	if cfg.Groups.File == "" {
		cfg.Groups.File = "config.json"
	}

	// Log

	if cfg.Log.LevelApp == "" {
		cfg.Log.LevelApp = "info"
	}
	if cfg.Log.LevelPoller == "" {
		cfg.Log.LevelPoller = "info"
	}
	if cfg.Log.LevelScheduler == "" {
		cfg.Log.LevelScheduler = "info"
	}
	if cfg.Log.LevelWorker == "" {
		cfg.Log.LevelWorker = "info"
	}
	if cfg.Log.LevelRPC == "" {
		cfg.Log.LevelRPC = "warn"
	}

	// RPC

	if cfg.RPC.CallTimeout == 0 {
		cfg.RPC.CallTimeout = 30 * time.Second
	}

	// Scheduler

	if cfg.Scheduler.Interval == 0 {
		cfg.Scheduler.Interval = DefaultSchedulerInterval
	}
}

// GetSanitized returns a copy of the config that is safe to expose. There
// are no secrets in the config for now, the method exists so that adding one
// does not leak it through the status api
func (cfg *Config) GetSanitized() interface{} {
	publicCfg := Config{}

	publicCfg.Allowance = cfg.Allowance
	publicCfg.Environment = cfg.Environment
	publicCfg.Groups.File = cfg.Groups.File

	publicCfg.Log.Color = cfg.Log.Color
	publicCfg.Log.IsProd = cfg.Log.IsProd
	publicCfg.Log.JSON = cfg.Log.JSON
	publicCfg.Log.LevelApp = cfg.Log.LevelApp
	publicCfg.Log.LevelPoller = cfg.Log.LevelPoller
	publicCfg.Log.LevelScheduler = cfg.Log.LevelScheduler
	publicCfg.Log.LevelWorker = cfg.Log.LevelWorker
	publicCfg.Log.LevelRPC = cfg.Log.LevelRPC

	publicCfg.RPC.CallTimeout = cfg.RPC.CallTimeout
	publicCfg.Scheduler.Interval = cfg.Scheduler.Interval
	publicCfg.Web.Address = cfg.Web.Address

	return publicCfg
}
