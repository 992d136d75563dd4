package h2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendVarintSmall(t *testing.T) {
	dst := appendVarint(nil, 5, 15)
	require.Equal(t, []byte{15}, dst)
}

func TestAppendVarintMultiByte(t *testing.T) {
	dst := appendVarint(nil, 5, 1337)
	require.Equal(t, []byte{31, 154, 10}, dst)
}

func TestAppendVarintFullPrefix(t *testing.T) {
	dst := appendVarint(nil, 7, 122)
	require.Equal(t, []byte{122}, dst)
}

func TestReadVarintRoundTrip(t *testing.T) {
	b := appendVarint(nil, 5, 1337)
	rest, n, err := readVarint(5, b)
	require.NoError(t, err)
	require.Equal(t, uint64(1337), n)
	require.Empty(t, rest)
}

func TestReadVarintSequence(t *testing.T) {
	b := []byte{15, 31, 154, 10, 122}

	rest, n, err := readVarint(5, b)
	require.NoError(t, err)
	require.Equal(t, uint64(15), n)
	require.Len(t, rest, 4)

	rest, n, err = readVarint(5, rest)
	require.NoError(t, err)
	require.Equal(t, uint64(1337), n)
	require.Len(t, rest, 1)

	rest, n, err = readVarint(7, rest)
	require.NoError(t, err)
	require.Equal(t, uint64(122), n)
	require.Empty(t, rest)
}

func TestReadVarintEmptyInput(t *testing.T) {
	_, _, err := readVarint(5, nil)
	require.Error(t, err)
}

func TestReadVarintTruncatedContinuation(t *testing.T) {
	_, _, err := readVarint(5, []byte{0x1f, 0x80})
	require.Error(t, err)
}

func TestReadVarintOverflow(t *testing.T) {
	overflow := []byte{0x1f}
	for i := 0; i < 10; i++ {
		overflow = append(overflow, 0xff)
	}
	_, _, err := readVarint(5, overflow)
	require.Error(t, err)
	require.Equal(t, errVarintOverflow, err)
}

func TestVarintRoundTripAcrossPrefixWidths(t *testing.T) {
	for _, n := range []uint8{1, 3, 5, 6, 7, 8} {
		for _, v := range []uint64{0, 1, 30, 127, 128, 16383, 1 << 20, 1 << 30} {
			dst := appendVarint(nil, n, v)
			rest, got, err := readVarint(n, dst)
			require.NoErrorf(t, err, "prefix=%d value=%d", n, v)
			require.Equalf(t, v, got, "prefix=%d value=%d", n, v)
			require.Emptyf(t, rest, "prefix=%d value=%d", n, v)
		}
	}
}
