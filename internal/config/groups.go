package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Lumerin-protocol/posw-router/internal/lib"
	"github.com/Lumerin-protocol/posw-router/internal/repositories/qkc"
	"github.com/flynn/go-shlex"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var (
	ErrGroupsFile    = errors.New("cannot load groups file")
	ErrGroupsInvalid = errors.New("invalid groups file")
	ErrMinerSettings = errors.New("cannot load miner settings")
)

// GroupConfig describes a set of targets mined by a single miner process
// against a single ledger node
type GroupConfig struct {
	Name           string          `json:"name"            yaml:"name"`
	RPC            string          `json:"rpc"             yaml:"rpc"             validate:"required,url"`
	MinerDir       string          `json:"miner_dir"       yaml:"miner_dir"       validate:"required"`
	MinerExe       string          `json:"miner_exe"       yaml:"miner_exe"       validate:"required"`
	FallbackConfig *TargetConfig   `json:"fallback_config" yaml:"fallback_config" validate:"required"`
	ConfigFiles    []*TargetConfig `json:"config_files"    yaml:"config_files"    validate:"dive,required"`
}

// TargetConfig is immutable once LoadGroups returns
type TargetConfig struct {
	SpawnArgs                   []string `json:"spawn_args"                       yaml:"spawn_args"`
	SpawnCommand                string   `json:"spawn_command"                    yaml:"spawn_command"`
	Path                        string   `json:"path"                             yaml:"path"                             validate:"required"`
	RootChain                   bool     `json:"root_chain"                       yaml:"root_chain"`
	AllowancesToUse             *uint32  `json:"allowances_to_use"                yaml:"allowances_to_use"`
	MineAtFreeAllowancesFromMax uint32   `json:"mine_at_free_allowances_from_max" yaml:"mine_at_free_allowances_from_max"`

	// derived on load

	// Priority is higher for the targets declared earlier, the fallback has zero priority
	Priority uint16      `json:"-" yaml:"-"`
	Wallet   string      `json:"-" yaml:"-"`
	Address  qkc.Address `json:"-" yaml:"-"`
}

// LoadGroups reads the groups file, json or yaml depending on the extension,
// validates it, derives target priorities and resolves target addresses
// from the miner settings files
func LoadGroups(path string) ([]*GroupConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, lib.WrapError(ErrGroupsFile, err)
	}

	groups, err := parseGroups(data, filepath.Ext(path))
	if err != nil {
		return nil, lib.WrapError(ErrGroupsFile, fmt.Errorf("%s: %w", path, err))
	}

	if len(groups) == 0 {
		return nil, lib.WrapError(ErrGroupsInvalid, fmt.Errorf("%s: no groups defined", path))
	}

	validate := validator.New()
	names := lib.NewSet()

	for i, group := range groups {
		if group == nil {
			return nil, lib.WrapError(ErrGroupsInvalid, fmt.Errorf("group #%d is empty", i))
		}
		if group.Name == "" {
			group.Name = fmt.Sprintf("group-%d", i)
		}
		if names.Contains(group.Name) {
			return nil, lib.WrapError(ErrGroupsInvalid, fmt.Errorf("duplicate group name %s", group.Name))
		}
		names.Add(group.Name)

		err := validate.Struct(group)
		if err != nil {
			return nil, lib.WrapError(ErrGroupsInvalid, fmt.Errorf("group %s: %w", group.Name, err))
		}

		err = group.resolve()
		if err != nil {
			return nil, lib.WrapError(ErrGroupsInvalid, fmt.Errorf("group %s: %w", group.Name, err))
		}
	}

	return groups, nil
}

func parseGroups(data []byte, ext string) ([]*GroupConfig, error) {
	var groups []*GroupConfig

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err := yaml.Unmarshal(data, &groups)
		if err != nil {
			return nil, err
		}
	default:
		err := json.Unmarshal(data, &groups)
		if err != nil {
			return nil, err
		}
	}

	return groups, nil
}

func (g *GroupConfig) resolve() error {
	total := len(g.ConfigFiles)
	if total >= 1<<16 {
		return fmt.Errorf("too many targets: %d", total)
	}

	for i, target := range g.ConfigFiles {
		target.Priority = uint16(total - i)
		err := target.prepare()
		if err != nil {
			return err
		}
	}

	g.FallbackConfig.Priority = 0
	return g.FallbackConfig.prepare()
}

func (t *TargetConfig) prepare() error {
	err := t.splitSpawnCommand()
	if err != nil {
		return err
	}
	return t.loadWallet()
}

// splitSpawnCommand turns the shell-like spawn_command into spawn arguments
func (t *TargetConfig) splitSpawnCommand() error {
	if t.SpawnCommand == "" {
		return nil
	}
	if len(t.SpawnArgs) > 0 {
		return fmt.Errorf("%s: spawn_args and spawn_command are mutually exclusive", t.Path)
	}

	args, err := shlex.Split(t.SpawnCommand)
	if err != nil {
		return fmt.Errorf("%s: spawn_command: %w", t.Path, err)
	}
	t.SpawnArgs = args
	return nil
}

func (t *TargetConfig) loadWallet() error {
	settings, err := LoadMinerSettings(t.Path)
	if err != nil {
		return err
	}

	addr, err := qkc.ParseAddress(settings.Wallet)
	if err != nil {
		return lib.WrapError(ErrMinerSettings, fmt.Errorf("%s: %w", t.Path, err))
	}

	t.Wallet = settings.Wallet
	t.Address = addr
	return nil
}

// Cap is the allowance limit of the target, the override if configured
// otherwise the provided capacity
func (t *TargetConfig) Cap(capacity uint32) uint32 {
	if t.AllowancesToUse != nil {
		return *t.AllowancesToUse
	}
	return capacity
}
