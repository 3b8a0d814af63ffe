package scheduler

import (
	"github.com/Lumerin-protocol/posw-router/internal/resources/allowance"
)

// Beats reports whether candidate is strictly preferable to current: lower
// difficulty, or equal difficulty and higher priority
func Beats(candidate, current allowance.Snapshot) bool {
	if candidate.Difficulty != current.Difficulty {
		return candidate.Difficulty < current.Difficulty
	}
	return candidate.Priority() > current.Priority()
}

// Select picks the best snapshot: lowest difficulty, then highest priority,
// then lowest address. The result does not depend on the input order
func Select(candidates []allowance.Snapshot) (allowance.Snapshot, bool) {
	if len(candidates) == 0 {
		return allowance.Snapshot{}, false
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if Beats(c, best) || (!Beats(best, c) && c.ID() < best.ID()) {
			best = c
		}
	}
	return best, true
}

// latestPerTarget keeps the last snapshot of every target, in order of the
// first appearance of the target
func latestPerTarget(snaps []allowance.Snapshot) []allowance.Snapshot {
	index := make(map[string]int, len(snaps))
	res := make([]allowance.Snapshot, 0, len(snaps))

	for _, s := range snaps {
		i, ok := index[s.ID()]
		if ok {
			res[i] = s
			continue
		}
		index[s.ID()] = len(res)
		res = append(res, s)
	}
	return res
}
