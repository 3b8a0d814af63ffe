package allowance

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/Lumerin-protocol/posw-router/internal/config"
	"github.com/Lumerin-protocol/posw-router/internal/repositories/qkc"
	"github.com/ethereum/go-ethereum/common"
)

var errNodeDown = errors.New("node down")

type fakeLedger struct {
	mutex sync.Mutex

	balance    *big.Int
	stake      *big.Int
	latest     uint64
	difficulty *big.Int
	miners     map[uint64]string
	failAt     map[uint64]bool

	balanceCalls int
	stakeCalls   int
	blockCalls   int
	chains       map[qkc.Chain]int
}

func newFakeLedger(latest uint64) *fakeLedger {
	return &fakeLedger{
		balance:    new(big.Int),
		stake:      new(big.Int),
		latest:     latest,
		difficulty: big.NewInt(0),
		miners:     make(map[uint64]string),
		failAt:     make(map[uint64]bool),
		chains:     make(map[qkc.Chain]int),
	}
}

func (f *fakeLedger) FetchBalance(ctx context.Context, addr qkc.Address) (*big.Int, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.balanceCalls++
	return new(big.Int).Set(f.balance), nil
}

func (f *fakeLedger) FetchStakedAmount(ctx context.Context, addr qkc.Address) (*big.Int, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.stakeCalls++
	return new(big.Int).Set(f.stake), nil
}

func (f *fakeLedger) FetchLatestBlock(ctx context.Context, chain qkc.Chain) (*qkc.Block, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.chains[chain]++
	return f.block(f.latest), nil
}

func (f *fakeLedger) FetchBlockAtHeight(ctx context.Context, chain qkc.Chain, height uint64) (*qkc.Block, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.blockCalls++
	if f.failAt[height] {
		return nil, errNodeDown
	}
	return f.block(height), nil
}

func (f *fakeLedger) block(height uint64) *qkc.Block {
	miner, ok := f.miners[height]
	if !ok {
		miner = "0x0000000000000000000000000000000000000000"
	}
	return &qkc.Block{Height: height, Miner: miner, Difficulty: new(big.Int).Set(f.difficulty)}
}

func (f *fakeLedger) setMiner(addr qkc.Address, heights ...uint64) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	for _, h := range heights {
		f.miners[h] = addr.Coinbase()
	}
}

func (f *fakeLedger) setBalance(b *big.Int) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.balance = b
}

func (f *fakeLedger) calls() (balance, stake, blocks int) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.balanceCalls, f.stakeCalls, f.blockCalls
}

func testAddress(seed byte, chainID uint16) qkc.Address {
	return qkc.NewAddress(common.BytesToAddress([]byte{seed, 0xaa, 0xbb}), chainID, 0)
}

func testTarget(seed byte, chainID uint16, priority uint16) *config.TargetConfig {
	return &config.TargetConfig{
		Path:     "miner.ini",
		Priority: priority,
		Address:  testAddress(seed, chainID),
	}
}

type capturingBus struct {
	mutex sync.Mutex
	snaps []Snapshot
}

func (b *capturingBus) Publish(s Snapshot) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.snaps = append(b.snaps, s)
}

func (b *capturingBus) published() []Snapshot {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return append([]Snapshot(nil), b.snaps...)
}
