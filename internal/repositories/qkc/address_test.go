package qkc

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0xF0c9A075c4386ab8F08CF4529FDF77F6D2748d0200070001")
	require.NoError(t, err)

	require.Equal(t, uint16(7), addr.ChainID())
	require.Equal(t, uint16(1), addr.ShardID())
	require.Equal(t, "0x00070001", addr.FullShardKey())
	require.Equal(t, "0xf0c9a075c4386ab8f08cf4529fdf77f6d2748d02", addr.Coinbase())
	require.Equal(t, "0xf0c9a075c4386ab8f08cf4529fdf77f6d2748d0200070001", addr.String())
}

func TestNewAddressMatchesParsed(t *testing.T) {
	recipient := common.HexToAddress("0x13d041434910aD2C1893c6A77537B16Cb7b8Ef5b")
	addr := NewAddress(recipient, 3, 0)

	parsed, err := ParseAddress(addr.String())
	require.NoError(t, err)
	require.Equal(t, addr, parsed)
}

func TestParseAddressInvalid(t *testing.T) {
	for _, s := range []string{
		"",
		"0x",
		"0xf0c9a075c4386ab8f08cf4529fdf77f6d2748d02",
		"0xzzc9a075c4386ab8f08cf4529fdf77f6d2748d0200070001",
	} {
		_, err := ParseAddress(s)
		require.ErrorIs(t, err, ErrInvalidAddress, s)
	}
}

func TestIsMinedBy(t *testing.T) {
	addr := MustParseAddress("0xf0c9a075c4386ab8f08cf4529fdf77f6d2748d0200070000")

	require.True(t, addr.IsMinedBy("0xF0C9A075C4386AB8F08CF4529FDF77F6D2748D0200000000"))
	require.True(t, addr.IsMinedBy("0xf0c9a075c4386ab8f08cf4529fdf77f6d2748d02"))
	require.False(t, addr.IsMinedBy("0x13d041434910ad2c1893c6a77537b16cb7b8ef5b00070000"))
	require.False(t, addr.IsMinedBy(""))
}
