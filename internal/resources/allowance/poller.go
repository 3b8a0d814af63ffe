package allowance

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Lumerin-protocol/posw-router/internal/config"
	"github.com/Lumerin-protocol/posw-router/internal/interfaces"
	"github.com/Lumerin-protocol/posw-router/internal/lib"
	"github.com/Lumerin-protocol/posw-router/internal/metrics"
	"github.com/Lumerin-protocol/posw-router/internal/repositories/qkc"
	"golang.org/x/sync/errgroup"
)

var ErrPoll = errors.New("allowance poll failed")

// Ledger is the subset of the ledger node api used to compute allowances
type Ledger interface {
	FetchBalance(ctx context.Context, addr qkc.Address) (*big.Int, error)
	FetchStakedAmount(ctx context.Context, addr qkc.Address) (*big.Int, error)
	FetchLatestBlock(ctx context.Context, chain qkc.Chain) (*qkc.Block, error)
	FetchBlockAtHeight(ctx context.Context, chain qkc.Chain, height uint64) (*qkc.Block, error)
}

type Publisher interface {
	Publish(s Snapshot)
}

type PollerConfig struct {
	Interval      time.Duration
	BatchSize     int
	RetryMinDelay time.Duration
	RetryMaxDelay time.Duration
}

// Poller periodically computes the allowance snapshot of a single target and
// publishes it to the bus
type Poller struct {
	// config
	target *config.TargetConfig
	cfg    PollerConfig
	unit   *big.Int

	// state
	balance    *big.Int // fetched once and never refreshed
	allowances uint32

	// deps
	ledger  Ledger
	bus     Publisher
	metrics *metrics.GroupMetrics
	log     interfaces.ILogger
}

func NewPoller(target *config.TargetConfig, cfg PollerConfig, ledger Ledger, bus Publisher, m *metrics.GroupMetrics, log interfaces.ILogger) (*Poller, error) {
	unit, err := AllowanceUnit(target)
	if err != nil {
		return nil, err
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = config.DefaultBatchSize
	}
	if cfg.RetryMaxDelay < cfg.RetryMinDelay {
		cfg.RetryMaxDelay = cfg.RetryMinDelay
	}

	return &Poller{
		target:  target,
		cfg:     cfg,
		unit:    unit,
		ledger:  ledger,
		bus:     bus,
		metrics: m,
		log:     log,
	}, nil
}

func (p *Poller) ID() string {
	return p.target.Address.String()
}

// Run polls until the context is cancelled. A failed cycle is retried with
// a bounded backoff and publishes nothing
func (p *Poller) Run(ctx context.Context) error {
	retryDelay := p.cfg.RetryMinDelay

	for {
		nextPoll := time.Now().Add(p.cfg.Interval)

		snap, err := p.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.metrics.RecordPollFailure(p.ID())
			p.log.Warnf("%s, retrying in %s", err, retryDelay)

			err = sleep(ctx, retryDelay)
			if err != nil {
				return err
			}
			retryDelay = nextRetryDelay(retryDelay, p.cfg.RetryMaxDelay)
			continue
		}
		retryDelay = p.cfg.RetryMinDelay

		if p.target.RootChain {
			p.log.Infof("address %s: %d used / %d allowances (in recent %d blocks)", p.ID(), snap.Used, snap.Allowances, WindowSize)
		} else {
			p.log.Infof("address %s: (%d/%d in recent %d blocks) difficulty: %.4fG", p.ID(), snap.Used, snap.Allowances, WindowSize, snap.DifficultyG())
		}
		p.metrics.ObserveAllowance(p.ID(), snap.Used, snap.Allowances, snap.Difficulty)
		p.bus.Publish(snap)

		err = sleep(ctx, time.Until(nextPoll))
		if err != nil {
			return err
		}
	}
}

// Poll computes a single snapshot. Any failed request fails the whole poll
func (p *Poller) Poll(ctx context.Context) (Snapshot, error) {
	if p.balance == nil {
		balance, err := p.fetchBalance(ctx)
		if err != nil {
			return Snapshot{}, lib.WrapError(ErrPoll, fmt.Errorf("balance: %w", err))
		}
		p.balance = balance
		p.allowances = Capacity(balance, p.unit)
		p.log.Debugf("balance %s, %d allowances", balance, p.allowances)
	}

	chain := p.chain()

	latest, err := p.ledger.FetchLatestBlock(ctx, chain)
	if err != nil {
		return Snapshot{}, lib.WrapError(ErrPoll, fmt.Errorf("latest block: %w", err))
	}

	var difficulty uint64
	if !p.target.RootChain {
		difficulty = ScaleDifficulty(latest.Difficulty)
	}

	used, err := p.countMined(ctx, chain, latest)
	if err != nil {
		return Snapshot{}, lib.WrapError(ErrPoll, fmt.Errorf("window blocks: %w", err))
	}

	return Snapshot{
		Target:     p.target,
		Used:       used,
		Allowances: p.allowances,
		Difficulty: difficulty,
		ProducedAt: time.Now(),
	}, nil
}

func (p *Poller) fetchBalance(ctx context.Context) (*big.Int, error) {
	if p.target.RootChain {
		return p.ledger.FetchStakedAmount(ctx, p.target.Address)
	}
	return p.ledger.FetchBalance(ctx, p.target.Address)
}

func (p *Poller) chain() qkc.Chain {
	if p.target.RootChain {
		return qkc.RootChain()
	}
	return qkc.ShardChain(p.target.Address)
}

// countMined counts the blocks of the window mined by the target. Preceding
// blocks are fetched in batches, batches run concurrently and the count
// is only returned if every batch succeeded
func (p *Poller) countMined(ctx context.Context, chain qkc.Chain, latest *qkc.Block) (uint32, error) {
	batches := chunk(PrecedingHeights(latest.Height), p.cfg.BatchSize)
	counts := make([]uint32, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			for _, height := range batch {
				block, err := p.ledger.FetchBlockAtHeight(gctx, chain, height)
				if err != nil {
					return err
				}
				if p.target.Address.IsMinedBy(block.Miner) {
					counts[i]++
				}
			}
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return 0, err
	}

	var used uint32
	if p.target.Address.IsMinedBy(latest.Miner) {
		used++
	}
	for _, c := range counts {
		used += c
	}
	return used, nil
}

// PrecedingHeights returns the heights of the blocks that together with the
// latest one form the window, in ascending order
func PrecedingHeights(latest uint64) []uint64 {
	from := uint64(0)
	if latest >= WindowSize-1 {
		from = latest - (WindowSize - 1)
	}

	heights := make([]uint64, 0, latest-from)
	for h := from; h < latest; h++ {
		heights = append(heights, h)
	}
	return heights
}

func chunk(heights []uint64, size int) [][]uint64 {
	var res [][]uint64
	for len(heights) > size {
		res = append(res, heights[:size])
		heights = heights[size:]
	}
	if len(heights) > 0 {
		res = append(res, heights)
	}
	return res
}

func nextRetryDelay(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max || next <= 0 {
		return max
	}
	return next
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
