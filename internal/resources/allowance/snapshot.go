package allowance

import (
	"fmt"
	"time"

	"github.com/Lumerin-protocol/posw-router/internal/config"
	"github.com/Lumerin-protocol/posw-router/internal/repositories/qkc"
)

// Snapshot is the allowance state of a single target produced by one poll
// cycle. A newer snapshot of the same target supersedes the older one
type Snapshot struct {
	Target     *config.TargetConfig
	Used       uint32 // blocks mined by the target within the window
	Allowances uint32 // capacity derived from the balance
	Difficulty uint64 // zero for root chain targets
	ProducedAt time.Time

	isFallback bool
}

// NewFallbackSnapshot synthesizes the snapshot of the fallback target. It is
// never polled, has zero difficulty and no allowance constraints
func NewFallbackSnapshot(target *config.TargetConfig) Snapshot {
	return Snapshot{
		Target:     target,
		ProducedAt: time.Now(),
		isFallback: true,
	}
}

func (s Snapshot) Address() qkc.Address {
	return s.Target.Address
}

// ID identifies the target the snapshot belongs to
func (s Snapshot) ID() string {
	return s.Target.Address.String()
}

func (s Snapshot) IsFallback() bool {
	return s.isFallback
}

func (s Snapshot) Priority() uint16 {
	return s.Target.Priority
}

// Cap is the configured override if any, otherwise the derived capacity
func (s Snapshot) Cap() uint32 {
	return s.Target.Cap(s.Allowances)
}

// ReadyToMine reports whether the target has enough free allowances to start
// mining: used <= cap - margin. A target that could not continue is never
// ready, so a zero margin does not start a target that is already at its cap.
// The fallback is never ready, it is only started when nothing else is
func (s Snapshot) ReadyToMine() bool {
	if s.isFallback {
		return false
	}
	if !s.ContinueMining() {
		return false
	}
	return int64(s.Used) <= int64(s.Cap())-int64(s.Target.MineAtFreeAllowancesFromMax)
}

// ContinueMining reports whether an already running target may keep running:
// used < cap. It is weaker than ReadyToMine so that a running target is not
// dropped right after reaching the start threshold
func (s Snapshot) ContinueMining() bool {
	if s.isFallback {
		return true
	}
	return s.Used < s.Cap()
}

// DifficultyG is the difficulty in billions, for logging
func (s Snapshot) DifficultyG() float64 {
	return float64(s.Difficulty) / 1e9
}

func (s Snapshot) String() string {
	if s.isFallback {
		return fmt.Sprintf("fallback %s", s.ID())
	}
	return fmt.Sprintf("%s (%d/%d) difficulty %.4fG", s.ID(), s.Used, s.Allowances, s.DifficultyG())
}
