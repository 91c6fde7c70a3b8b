package riffio

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/ugparu/goavi"
	"github.com/ugparu/goavi/utils/bits/pio"
)

func TestMainHeader(t *testing.T) {
	t.Parallel()

	h := MainHeader{
		MicroSecPerFrame: 40000,
		Flags:            AVIFHasIndex | AVIFIsInterleaved,
		TotalFrames:      25,
		Streams:          2,
		Width:            320,
		Height:           240,
	}
	b := make([]byte, h.Len())
	require.Equal(t, 56, h.Marshal(b))
	require.Equal(t, uint32(25), pio.U32LE(b[16:]))
	require.Equal(t, uint32(320), pio.U32LE(b[32:]))

	var got MainHeader
	_, err := got.Unmarshal(b, 100)
	require.NoError(t, err)
	if diff := cmp.Diff(h, got); diff != "" {
		t.Fatalf("avih mismatch (-want +got):\n%s", diff)
	}

	_, err = got.Unmarshal(b[:30], 100)
	require.ErrorIs(t, err, goavi.ErrInvalidData)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, "avih", pe.Debug)
	require.Contains(t, err.Error(), "SuggestedBufferSize:128")
}

func TestStreamHeaderShortForm(t *testing.T) {
	t.Parallel()

	h := StreamHeader{
		Type:       AUDS,
		Scale:      1,
		Rate:       44100,
		Length:     88200,
		Quality:    -1,
		SampleSize: 4,
		Frame:      Rect{Right: 320, Bottom: 240},
	}
	b := make([]byte, h.Len())
	h.Marshal(b)

	var full StreamHeader
	_, err := full.Unmarshal(b, 0)
	require.NoError(t, err)
	require.Equal(t, h, full)

	var short StreamHeader
	_, err = short.Unmarshal(b[:strhMinSize], 0)
	require.NoError(t, err)
	require.Equal(t, Rect{}, short.Frame)
	require.Equal(t, uint32(88200), short.Length)
	require.Equal(t, int32(-1), short.Quality)

	_, err = short.Unmarshal(b[:40], 0)
	require.ErrorIs(t, err, goavi.ErrInvalidData)
}

func TestBitmapInfoHeaderExtra(t *testing.T) {
	t.Parallel()

	h := BitmapInfoHeader{
		Width:       16,
		Height:      8,
		Planes:      1,
		BitCount:    16,
		Compression: StringToFourCC("HFYU"),
		Extra:       []byte{0x41, 16, 0x20, 0},
	}
	b := make([]byte, h.Len())
	require.Equal(t, 44, h.Marshal(b))

	var got BitmapInfoHeader
	_, err := got.Unmarshal(b, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(44), got.Size)
	require.Equal(t, h.Extra, got.Extra)
	require.Equal(t, "HFYU", got.Compression.String())
}

func TestWaveFormatEx(t *testing.T) {
	t.Parallel()

	pcm := WaveFormatEx{FormatTag: 1, Channels: 2, SamplesPerSec: 48000, AvgBytesPerSec: 192000, BlockAlign: 4, BitsPerSample: 16}
	require.Equal(t, 16, pcm.Len())
	b := make([]byte, pcm.Len())
	pcm.Marshal(b)
	var got WaveFormatEx
	_, err := got.Unmarshal(b, 0)
	require.NoError(t, err)
	require.Equal(t, pcm, got)

	ext := make([]byte, waveFormatExSize+extensibleExtraSize)
	pio.PutU16LE(ext[0:], FormatExtensible)
	pio.PutU16LE(ext[2:], 2)
	pio.PutU32LE(ext[4:], 8000)
	pio.PutU16LE(ext[14:], 8)
	pio.PutU16LE(ext[16:], extensibleExtraSize)
	pio.PutU16LE(ext[18:], 8)
	pio.PutU32LE(ext[20:], 3)
	pio.PutU16LE(ext[24:], 7)
	_, err = got.Unmarshal(ext, 0)
	require.NoError(t, err)
	require.Equal(t, uint16(FormatExtensible), got.FormatTag)
	require.Equal(t, uint16(7), got.EffectiveFormatTag())
	require.Equal(t, uint32(3), got.ChannelMask)

	_, err = got.Unmarshal(ext[:20], 0)
	require.ErrorIs(t, err, goavi.ErrInvalidData)
}

func TestSuperIndexKeepsPlaceholderSize(t *testing.T) {
	t.Parallel()

	s := SuperIndex{
		IndexHeader: IndexHeader{ChunkID: StringToFourCC("00db")},
		Entries: []SuperIndexEntry{
			{Offset: 1000, Size: 32, Duration: 1},
			{Offset: 90000, Size: 40, Duration: 2},
		},
		Capacity: 256,
	}
	require.Equal(t, IndexHeaderSize+256*SuperIndexEntrySize, s.Len())
	b := make([]byte, s.Len())
	for i := range b {
		b[i] = 0xAA
	}
	require.Equal(t, s.Len(), s.Marshal(b))
	require.Equal(t, make([]byte, SuperIndexEntrySize), b[IndexHeaderSize+2*SuperIndexEntrySize:][:SuperIndexEntrySize])

	h, err := PeekIndexHeader(b, 0)
	require.NoError(t, err)
	require.Equal(t, uint8(IndexOfIndexes), h.IndexType)
	require.Equal(t, uint16(4), h.LongsPerEntry)

	var got SuperIndex
	_, err = got.Unmarshal(b, 0)
	require.NoError(t, err)
	if diff := cmp.Diff(s.Entries, got.Entries); diff != "" {
		t.Fatalf("indx entries mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 256, got.Capacity)

	var std StandardIndex
	_, err = std.Unmarshal(b, 0)
	require.ErrorIs(t, err, goavi.ErrInvalidData)
}

func TestStandardIndex(t *testing.T) {
	t.Parallel()

	s := StandardIndex{
		IndexHeader: IndexHeader{ChunkID: StringToFourCC("01wb")},
		BaseOffset:  0x100000000,
		Entries:     []StandardIndexEntry{{Offset: 8, Size: 100}, {Offset: 116, Size: 50 | DeltaFrame}},
	}
	b := make([]byte, s.Len())
	s.Marshal(b)

	var got StandardIndex
	_, err := got.Unmarshal(b, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(0x100000000), got.BaseOffset)
	require.Equal(t, s.Entries, got.Entries)
	require.True(t, got.Entries[0].KeyFrame())
	require.False(t, got.Entries[1].KeyFrame())
	require.Equal(t, uint32(50), got.Entries[1].PayloadSize())

	_, err = got.Unmarshal(b[:len(b)-3], 0)
	require.ErrorIs(t, err, goavi.ErrInvalidData)
}

func TestLegacyIndex(t *testing.T) {
	t.Parallel()

	want := []LegacyIndexEntry{
		{ChunkID: StringToFourCC("00db"), Flags: AVIIFKeyFrame, Offset: 4, Size: 230400},
		{ChunkID: StringToFourCC("01wb"), Offset: 230412, Size: 3528},
	}
	b := make([]byte, 2*LegacyIndexEntrySize+5)
	for i, e := range want {
		e.Marshal(b[i*LegacyIndexEntrySize:])
	}
	got, err := UnmarshalLegacyIndex(b, 0)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("idx1 mismatch (-want +got):\n%s", diff)
	}
}

func TestODMLHeader(t *testing.T) {
	t.Parallel()

	b := make([]byte, dmlhSize)
	b[100] = 0xFF
	require.Equal(t, dmlhSize, ODMLHeader{TotalFrames: 12345}.Marshal(b))
	require.Zero(t, b[100])

	var h ODMLHeader
	_, err := h.Unmarshal(b, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(12345), h.TotalFrames)

	_, err = h.Unmarshal(b[:2], 0)
	require.ErrorIs(t, err, goavi.ErrInvalidData)
}
