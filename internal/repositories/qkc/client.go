package qkc

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Lumerin-protocol/posw-router/internal/interfaces"
	"github.com/Lumerin-protocol/posw-router/internal/lib"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

const (
	methodNetworkInfo           = "networkInfo"
	methodGetTransactionCount   = "getTransactionCount"
	methodGetBalances           = "getBalances"
	methodGetAccountData        = "getAccountData"
	methodGetRootBlockByHeight  = "getRootBlockByHeight"
	methodGetMinorBlockByHeight = "getMinorBlockByHeight"
	methodCall                  = "call"
)

var (
	ErrRPC           = errors.New("qkc rpc error")
	ErrBlockNotFound = errors.New("block not found")
)

// Client is a QuarkChain JSON-RPC client. It keeps no mutable state besides
// the underlying connection and is safe for concurrent use
type Client struct {
	// config
	url         string
	callTimeout time.Duration

	// deps
	rpc *rpc.Client
	log interfaces.ILogger
}

func DialContext(ctx context.Context, url string, callTimeout time.Duration, log interfaces.ILogger) (*Client, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, lib.WrapError(ErrRPC, err)
	}
	return NewClient(client, url, callTimeout, log), nil
}

func NewClient(client *rpc.Client, url string, callTimeout time.Duration, log interfaces.ILogger) *Client {
	return &Client{
		url:         url,
		callTimeout: callTimeout,
		rpc:         client,
		log:         log,
	}
}

func (c *Client) URL() string {
	return c.url
}

func (c *Client) Close() {
	c.rpc.Close()
}

func (c *Client) NetworkInfo(ctx context.Context) (*NetworkInfo, error) {
	var res NetworkInfo
	err := c.call(ctx, &res, methodNetworkInfo)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetTransactionCount(ctx context.Context, addr Address) (uint64, error) {
	var res hexutil.Uint64
	err := c.call(ctx, &res, methodGetTransactionCount, addr.String())
	if err != nil {
		return 0, err
	}
	return uint64(res), nil
}

func (c *Client) GetBalances(ctx context.Context, addr Address) (*Balances, error) {
	var res Balances
	err := c.call(ctx, &res, methodGetBalances, addr.String())
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetAccountData(ctx context.Context, addr Address) (*AccountData, error) {
	var res AccountData
	err := c.call(ctx, &res, methodGetAccountData, addr.String())
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// GetRootBlockByHeight returns the root block at height, or the latest one if height is nil
func (c *Client) GetRootBlockByHeight(ctx context.Context, height *uint64) (*RootBlock, error) {
	var (
		res *RootBlock
		err error
	)
	if height == nil {
		err = c.call(ctx, &res, methodGetRootBlockByHeight)
	} else {
		err = c.call(ctx, &res, methodGetRootBlockByHeight, hexutil.EncodeUint64(*height))
	}
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, lib.WrapError(ErrBlockNotFound, fmt.Errorf("root chain height %s", formatHeight(height)))
	}
	return res, nil
}

// GetMinorBlockByHeight returns the shard block at height, or the latest one if height is nil
func (c *Client) GetMinorBlockByHeight(ctx context.Context, fullShardKey string, height *uint64) (*MinorBlock, error) {
	var h *string
	if height != nil {
		encoded := hexutil.EncodeUint64(*height)
		h = &encoded
	}

	var res *MinorBlock
	err := c.call(ctx, &res, methodGetMinorBlockByHeight, fullShardKey, h, false)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, lib.WrapError(ErrBlockNotFound, fmt.Errorf("shard %s height %s", fullShardKey, formatHeight(height)))
	}
	return res, nil
}

// FetchBalance returns the QKC balance held by the address in its own shard
func (c *Client) FetchBalance(ctx context.Context, addr Address) (*big.Int, error) {
	data, err := c.GetAccountData(ctx, addr)
	if err != nil {
		return nil, err
	}
	return data.TokenBalance(TokenQKC), nil
}

func (c *Client) FetchStakedAmount(ctx context.Context, addr Address) (*big.Int, error) {
	return c.GetRootPoSWStake(ctx, addr)
}

func (c *Client) FetchLatestBlock(ctx context.Context, chain Chain) (*Block, error) {
	return c.fetchBlock(ctx, chain, nil)
}

func (c *Client) FetchBlockAtHeight(ctx context.Context, chain Chain, height uint64) (*Block, error) {
	return c.fetchBlock(ctx, chain, &height)
}

func (c *Client) fetchBlock(ctx context.Context, chain Chain, height *uint64) (*Block, error) {
	if chain.Root {
		b, err := c.GetRootBlockByHeight(ctx, height)
		if err != nil {
			return nil, err
		}
		return b.Block(), nil
	}

	b, err := c.GetMinorBlockByHeight(ctx, chain.FullShardKey, height)
	if err != nil {
		return nil, err
	}
	return b.Block(), nil
}

func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	start := time.Now()
	err := c.rpc.CallContext(ctx, result, method, args...)
	if err != nil {
		c.log.Debugf("%s failed after %s: %s", method, time.Since(start), err)
		return lib.WrapError(ErrRPC, fmt.Errorf("%s: %w", method, err))
	}
	c.log.Debugf("%s done in %s", method, time.Since(start))
	return nil
}

func formatHeight(height *uint64) string {
	if height == nil {
		return "latest"
	}
	return fmt.Sprintf("%d", *height)
}
