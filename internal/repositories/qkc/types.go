package qkc

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

const TokenQKC = "QKC"

type RootBlock struct {
	ID            string         `json:"id"`
	Hash          string         `json:"hash"`
	Height        hexutil.Uint64 `json:"height"`
	HashPrevBlock string         `json:"hashPrevBlock"`
	Miner         string         `json:"miner"`
	Difficulty    *hexutil.Big   `json:"difficulty"`
	Timestamp     hexutil.Uint64 `json:"timestamp"`
	Coinbase      []TokenBalance `json:"coinbase"`
}

type MinorBlock struct {
	ID                 string         `json:"id"`
	Hash               string         `json:"hash"`
	Height             hexutil.Uint64 `json:"height"`
	FullShardID        string         `json:"fullShardId"`
	ChainID            string         `json:"chainId"`
	ShardID            string         `json:"shardId"`
	HashPrevMinorBlock string         `json:"hashPrevMinorBlock"`
	Miner              string         `json:"miner"`
	Difficulty         *hexutil.Big   `json:"difficulty"`
	Timestamp          hexutil.Uint64 `json:"timestamp"`
	Coinbase           []TokenBalance `json:"coinbase"`
}

type TokenBalance struct {
	TokenID  string       `json:"tokenId"`
	TokenStr string       `json:"tokenStr"`
	Balance  *hexutil.Big `json:"balance"`
}

type Balances struct {
	Branch      string         `json:"branch"`
	FullShardID string         `json:"fullShardId"`
	ShardID     string         `json:"shardId"`
	ChainID     string         `json:"chainId"`
	Balances    []TokenBalance `json:"balances"`
}

type AccountShardData struct {
	FullShardID      string         `json:"fullShardId"`
	ShardID          string         `json:"shardId"`
	ChainID          string         `json:"chainId"`
	Balances         []TokenBalance `json:"balances"`
	TransactionCount hexutil.Uint64 `json:"transactionCount"`
	IsContract       bool           `json:"isContract"`
}

type AccountData struct {
	Primary AccountShardData    `json:"primary"`
	Shards  *[]AccountShardData `json:"shards"`
}

// TokenBalance returns the balance of the token in the primary shard, zero
// if the account holds none of it
func (a *AccountData) TokenBalance(tokenStr string) *big.Int {
	for _, b := range a.Primary.Balances {
		if b.TokenStr == tokenStr && b.Balance != nil {
			return b.Balance.ToInt()
		}
	}
	return new(big.Int)
}

type NetworkInfo struct {
	NetworkID        hexutil.Uint64   `json:"networkId"`
	ChainSize        hexutil.Uint64   `json:"chainSize"`
	ShardSizes       []hexutil.Uint64 `json:"shardSizes"`
	Syncing          bool             `json:"syncing"`
	Mining           bool             `json:"mining"`
	ShardServerCount int              `json:"shardServerCount"`
}

// Chain selects either the root chain or a single shard
type Chain struct {
	Root         bool
	FullShardKey string
}

func RootChain() Chain {
	return Chain{Root: true}
}

func ShardChain(addr Address) Chain {
	return Chain{FullShardKey: addr.FullShardKey()}
}

func (c Chain) String() string {
	if c.Root {
		return "root"
	}
	return "shard " + c.FullShardKey
}

// Block is the chain-agnostic subset of block fields used for allowance accounting
type Block struct {
	Height     uint64
	Miner      string
	Difficulty *big.Int
}

func (b *RootBlock) Block() *Block {
	return &Block{Height: uint64(b.Height), Miner: b.Miner, Difficulty: bigOrZero(b.Difficulty)}
}

func (b *MinorBlock) Block() *Block {
	return &Block{Height: uint64(b.Height), Miner: b.Miner, Difficulty: bigOrZero(b.Difficulty)}
}

func bigOrZero(v *hexutil.Big) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v.ToInt()
}
