package scheduler

import (
	"time"

	"github.com/Lumerin-protocol/posw-router/internal/resources/allowance"
)

type Status struct {
	Group        string         `json:"group"`
	Selected     *SnapshotView  `json:"selected"`
	Targets      []SnapshotView `json:"targets"`
	LastDecision time.Time      `json:"lastDecision"`
}

type SnapshotView struct {
	Address    string    `json:"address"`
	Priority   uint16    `json:"priority"`
	Used       uint32    `json:"used"`
	Allowances uint32    `json:"allowances"`
	Cap        uint32    `json:"cap"`
	Difficulty uint64    `json:"difficulty"`
	Ready      bool      `json:"ready"`
	Continue   bool      `json:"continue"`
	Fallback   bool      `json:"fallback"`
	ProducedAt time.Time `json:"producedAt"`
}

func newSnapshotView(s allowance.Snapshot) SnapshotView {
	return SnapshotView{
		Address:    s.ID(),
		Priority:   s.Priority(),
		Used:       s.Used,
		Allowances: s.Allowances,
		Cap:        s.Cap(),
		Difficulty: s.Difficulty,
		Ready:      s.ReadyToMine(),
		Continue:   s.ContinueMining(),
		Fallback:   s.IsFallback(),
		ProducedAt: s.ProducedAt,
	}
}
