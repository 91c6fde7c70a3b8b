package pio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLittleEndian(t *testing.T) {
	t.Parallel()

	b := make([]byte, 8)
	PutU16LE(b, 0x1234)
	require.Equal(t, []byte{0x34, 0x12}, b[:2])
	require.Equal(t, uint16(0x1234), U16LE(b))

	PutU32LE(b, 0xdeadbeef)
	require.Equal(t, []byte{0xef, 0xbe, 0xad, 0xde}, b[:4])
	require.Equal(t, uint32(0xdeadbeef), U32LE(b))

	PutU64LE(b, 0x0102030405060708)
	require.Equal(t, []byte{8, 7, 6, 5, 4, 3, 2, 1}, b)
	require.Equal(t, uint64(0x0102030405060708), U64LE(b))

	PutI16LE(b, -2)
	require.Equal(t, int16(-2), I16LE(b))
	PutI32LE(b, -70000)
	require.Equal(t, int32(-70000), I32LE(b))
}

func TestBigEndian(t *testing.T) {
	t.Parallel()

	b := make([]byte, 8)
	PutU16BE(b, 0x1234)
	require.Equal(t, []byte{0x12, 0x34}, b[:2])
	require.Equal(t, uint16(0x1234), U16BE(b))

	PutU32BE(b, 0xdeadbeef)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, b[:4])
	require.Equal(t, uint32(0xdeadbeef), U32BE(b))

	PutU64BE(b, 0x0102030405060708)
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, b)
	require.Equal(t, uint64(0x0102030405060708), U64BE(b))
}
