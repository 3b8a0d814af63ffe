package qkc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/Lumerin-protocol/posw-router/internal/lib"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// AddressLength is the length of a QuarkChain full address: 20 bytes of
// recipient followed by 4 bytes of full shard key (chain id, shard id)
const AddressLength = common.AddressLength + 4

var ErrInvalidAddress = errors.New("invalid qkc address")

type Address struct {
	Recipient    common.Address
	fullShardKey uint32
}

func NewAddress(recipient common.Address, chainID, shardID uint16) Address {
	return Address{
		Recipient:    recipient,
		fullShardKey: uint32(chainID)<<16 | uint32(shardID),
	}
}

// ParseAddress parses a full 24-byte hex address such as
// 0xf0c9a075c4386ab8f08cf4529fdf77f6d2748d0200070000
func ParseAddress(s string) (Address, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return Address{}, lib.WrapError(ErrInvalidAddress, fmt.Errorf("%s: %w", s, err))
	}
	if len(b) != AddressLength {
		return Address{}, lib.WrapError(ErrInvalidAddress, fmt.Errorf("%s: expected %d bytes, got %d", s, AddressLength, len(b)))
	}
	return Address{
		Recipient:    common.BytesToAddress(b[:common.AddressLength]),
		fullShardKey: binary.BigEndian.Uint32(b[common.AddressLength:]),
	}, nil
}

func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

func (a Address) ChainID() uint16 {
	return uint16(a.fullShardKey >> 16)
}

func (a Address) ShardID() uint16 {
	return uint16(a.fullShardKey)
}

// Coinbase is the lowercase hex of the recipient, the prefix of the miner
// field of every block mined by this address
func (a Address) Coinbase() string {
	return hexutil.Encode(a.Recipient.Bytes())
}

func (a Address) FullShardKey() string {
	return fmt.Sprintf("0x%08x", a.fullShardKey)
}

func (a Address) String() string {
	return fmt.Sprintf("%s%08x", a.Coinbase(), a.fullShardKey)
}

// IsMinedBy reports whether the block miner field belongs to this address
func (a Address) IsMinedBy(miner string) bool {
	return strings.HasPrefix(strings.ToLower(miner), a.Coinbase())
}
