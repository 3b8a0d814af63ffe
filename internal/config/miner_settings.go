package config

import (
	"fmt"

	"github.com/Lumerin-protocol/posw-router/internal/lib"
	"gopkg.in/ini.v1"
)

const (
	minerSettingsSection   = "Ethash"
	minerSettingsWalletKey = "wallet"
)

// MinerSettings is the subset of the miner ini file the router needs
type MinerSettings struct {
	Wallet string
}

func LoadMinerSettings(path string) (*MinerSettings, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, lib.WrapError(ErrMinerSettings, err)
	}

	section, err := file.GetSection(minerSettingsSection)
	if err != nil {
		return nil, lib.WrapError(ErrMinerSettings, fmt.Errorf("%s: %w", path, err))
	}

	key, err := section.GetKey(minerSettingsWalletKey)
	if err != nil {
		return nil, lib.WrapError(ErrMinerSettings, fmt.Errorf("%s: %w", path, err))
	}

	return &MinerSettings{Wallet: key.String()}, nil
}
