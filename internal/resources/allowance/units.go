package allowance

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/Lumerin-protocol/posw-router/internal/config"
	"github.com/Lumerin-protocol/posw-router/internal/lib"
)

const (
	// WindowSize is the number of recent blocks allowances are counted in
	WindowSize = 256
	// DifficultyDivider scales the declared shard block difficulty
	DifficultyDivider = 20
)

var ErrNoAllowanceUnit = errors.New("no allowance unit for the chain")

var (
	// RootAllowance is the stake required for a single root chain block within the window
	RootAllowance = qkcAmount(681_500)

	// ShardAllowances is the balance required for a single shard block within
	// the window, indexed by chain id. Chain 0 has no PoSW
	ShardAllowances = [...]*big.Int{
		new(big.Int),
		qkcAmount(13_629),
		qkcAmount(27_259),
		qkcAmount(54_518),
		qkcAmount(109_035),
		qkcAmount(218_071),
		qkcAmount(27_259),
		qkcAmount(109_035),
	}
)

// AllowanceUnit returns the amount of balance (or stake for root chain
// targets) that grants one block within the window
func AllowanceUnit(target *config.TargetConfig) (*big.Int, error) {
	if target.RootChain {
		return RootAllowance, nil
	}

	chainID := int(target.Address.ChainID())
	if chainID >= len(ShardAllowances) || ShardAllowances[chainID].Sign() == 0 {
		return nil, lib.WrapError(ErrNoAllowanceUnit, fmt.Errorf("chain %d", chainID))
	}
	return ShardAllowances[chainID], nil
}

// Capacity is the number of allowance units covered by balance
func Capacity(balance, unit *big.Int) uint32 {
	if unit.Sign() <= 0 || balance.Sign() <= 0 {
		return 0
	}
	q := new(big.Int).Quo(balance, unit)
	if !q.IsUint64() || q.Uint64() > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(q.Uint64())
}

// ScaleDifficulty converts the declared block difficulty to the comparable figure
func ScaleDifficulty(declared *big.Int) uint64 {
	if declared == nil || declared.Sign() <= 0 {
		return 0
	}
	q := new(big.Int).Quo(declared, big.NewInt(DifficultyDivider))
	if !q.IsUint64() {
		return math.MaxUint64
	}
	return q.Uint64()
}

func qkcAmount(units int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(units), big.NewInt(1e18))
}
