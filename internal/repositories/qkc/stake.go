package qkc

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/Lumerin-protocol/posw-router/internal/lib"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// RootStakingContract is the system contract holding root chain PoSW stakes
const RootStakingContract = "0x514b43000000000000000000000000000000000100000001"

const rootStakingABI = `[{
	"constant": true,
	"inputs": [{"name": "staker", "type": "address"}],
	"name": "getLockedStakes",
	"outputs": [{"name": "", "type": "uint256"}, {"name": "", "type": "address"}],
	"payable": false,
	"stateMutability": "view",
	"type": "function"
}]`

const (
	callGas       = "0xf4240"
	qkcTokenIDHex = "0x8bb0"
)

var rootStakingMeta = mustParseABI(rootStakingABI)

type callArgs struct {
	From            string `json:"from"`
	To              string `json:"to"`
	GasPrice        string `json:"gasPrice"`
	Gas             string `json:"gas"`
	Data            string `json:"data"`
	Value           string `json:"value"`
	GasTokenID      string `json:"gasTokenId"`
	TransferTokenID string `json:"transferTokenId"`
}

// GetRootPoSWStake returns the amount locked by the address in the root chain staking contract
func (c *Client) GetRootPoSWStake(ctx context.Context, addr Address) (*big.Int, error) {
	data, err := rootStakingMeta.Pack("getLockedStakes", addr.Recipient)
	if err != nil {
		return nil, err
	}

	args := callArgs{
		From:            addr.String(),
		To:              RootStakingContract,
		GasPrice:        "0x0",
		Gas:             callGas,
		Data:            hexutil.Encode(data),
		Value:           "0x0",
		GasTokenID:      qkcTokenIDHex,
		TransferTokenID: qkcTokenIDHex,
	}

	var res hexutil.Bytes
	err = c.call(ctx, &res, methodCall, args, "latest")
	if err != nil {
		return nil, err
	}

	return decodeStake(res)
}

// decodeStake takes the first word of the call output, an empty output means no stake
func decodeStake(out []byte) (*big.Int, error) {
	if len(out) == 0 {
		return new(big.Int), nil
	}
	if len(out) < 32 {
		return nil, lib.WrapError(ErrRPC, fmt.Errorf("unexpected getLockedStakes output length %d", len(out)))
	}
	return new(big.Int).SetBytes(out[:32]), nil
}

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic("invalid root staking ABI: " + err.Error())
	}
	return parsed
}
