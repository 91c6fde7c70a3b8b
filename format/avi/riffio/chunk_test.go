package riffio

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ugparu/goavi"
	"github.com/ugparu/goavi/utils/bits/pio"
)

func rawChunk(id string, payload []byte) []byte {
	b := make([]byte, HeaderSize, HeaderSize+len(payload)+1)
	copy(b, id)
	pio.PutU32LE(b[4:], uint32(len(payload)))
	b = append(b, payload...)
	if len(payload)%2 == 1 {
		b = append(b, 0)
	}
	return b
}

func rawList(id, listType string, children ...[]byte) []byte {
	payload := []byte(listType)
	for _, c := range children {
		payload = append(payload, c...)
	}
	return rawChunk(id, payload)
}

func testTree() []byte {
	return rawList("RIFF", "AVI ",
		rawList("LIST", "hdrl", rawChunk("avih", make([]byte, avihSize))),
		rawChunk("JUNK", []byte{1, 2, 3}),
		rawList("LIST", "movi",
			rawChunk("00dc", []byte{9, 9, 9, 9, 9}),
			rawChunk("01wb", []byte{7, 7}),
		),
	)
}

func TestReadChunk(t *testing.T) {
	t.Parallel()

	r := bytes.NewReader(testTree())
	riff, err := ReadChunk(r, 0)
	require.NoError(t, err)
	require.Equal(t, RIFF, riff.ID)
	require.Equal(t, AVI, riff.ListType)
	require.True(t, riff.IsList())
	require.Equal(t, int64(r.Size()), riff.NextOffset())

	_, err = ReadChunk(r, r.Size()-4)
	require.ErrorIs(t, err, goavi.ErrInvalidData)
}

func TestWalkSiblingsIsWordAligned(t *testing.T) {
	t.Parallel()

	r := bytes.NewReader(testTree())
	riff, err := ReadChunk(r, 0)
	require.NoError(t, err)
	rng, err := ChildRange(riff)
	require.NoError(t, err)

	var ids []string
	c, err := First(r, rng)
	for ; err == nil; c, err = Next(r, rng, c) {
		require.Zero(t, (c.Offset-riff.Offset)%2, c.ID.String())
		ids = append(ids, c.ID.String())
	}
	require.ErrorIs(t, err, ErrEndOfRange)
	require.Equal(t, []string{"LIST", "JUNK", "LIST"}, ids)
}

func TestFind(t *testing.T) {
	t.Parallel()

	r := bytes.NewReader(testTree())
	riff, err := ReadChunk(r, 0)
	require.NoError(t, err)
	rng, err := ChildRange(riff)
	require.NoError(t, err)

	movi, err := FindList(r, rng, MOVI)
	require.NoError(t, err)
	require.Equal(t, MOVI, movi.ListType)

	_, err = FindNextList(r, rng, movi, MOVI)
	require.ErrorIs(t, err, ErrNotFound)

	junk, err := FindChunk(r, rng, JUNK)
	require.NoError(t, err)
	require.Equal(t, uint32(3), junk.Size)

	moviRng, err := ChildRange(movi)
	require.NoError(t, err)
	audio, err := FindChunk(r, moviRng, StringToFourCC("01wb"))
	require.NoError(t, err)
	payload, err := ReadPayload(r, audio)
	require.NoError(t, err)
	require.Equal(t, []byte{7, 7}, payload)

	_, err = FindChunk(r, moviRng, IDX1)
	require.True(t, errors.Is(err, ErrNotFound))
	require.False(t, errors.Is(err, goavi.ErrInvalidData))
}

func TestChildRangeRejectsPlainChunk(t *testing.T) {
	t.Parallel()

	r := bytes.NewReader(rawChunk("JUNK", []byte{1, 2}))
	c, err := ReadChunk(r, 0)
	require.NoError(t, err)
	_, err = ChildRange(c)
	require.ErrorIs(t, err, goavi.ErrInvalidData)
}

func TestStreamChunkID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		stream int
		twoCC  string
		want   string
		err    error
	}{
		{stream: 0, twoCC: TwoCCUncompressed, want: "00db"},
		{stream: 1, twoCC: TwoCCAudio, want: "01wb"},
		{stream: 42, twoCC: TwoCCCompressed, want: "42dc"},
		{stream: 99, twoCC: TwoCCAudio, want: "99wb"},
		{stream: 100, twoCC: TwoCCAudio, err: goavi.ErrUnsupported},
		{stream: -1, twoCC: TwoCCAudio, err: goavi.ErrUnsupported},
	}
	for _, tt := range tests {
		id, err := StreamChunkID(tt.stream, tt.twoCC)
		if tt.err != nil {
			require.ErrorIs(t, err, tt.err)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tt.want, id.String())
		n, err := ParseStreamNumber(id)
		require.NoError(t, err)
		require.Equal(t, tt.stream, n)
		require.Equal(t, tt.twoCC, TwoCC(id))
	}

	_, err := ParseStreamNumber(StringToFourCC("x1wb"))
	require.ErrorIs(t, err, goavi.ErrInvalidData)

	ix, err := IndexChunkID(7)
	require.NoError(t, err)
	require.Equal(t, "ix07", ix.String())
}

func TestFprintTree(t *testing.T) {
	t.Parallel()

	data := testTree()
	var sb strings.Builder
	require.NoError(t, FprintTree(&sb, bytes.NewReader(data), FileRange(int64(len(data))), 0))
	out := sb.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 5)
	require.True(t, strings.HasSuffix(lines[0], "RIFF AVI "))
	require.True(t, strings.HasPrefix(lines[1], "  12 "))
	require.True(t, strings.HasSuffix(lines[1], "LIST hdrl"))
	require.True(t, strings.HasPrefix(lines[2], "    24 "))
	require.True(t, strings.HasSuffix(lines[2], "avih"))
	require.NotContains(t, out, "00dc")

	sb.Reset()
	r := bytes.NewReader(data)
	riff, err := ReadChunk(r, 0)
	require.NoError(t, err)
	rng, err := ChildRange(riff)
	require.NoError(t, err)
	movi, err := FindList(r, rng, MOVI)
	require.NoError(t, err)
	require.NoError(t, FprintMovi(&sb, r, movi, 0))
	require.Contains(t, sb.String(), "00dc")
	require.Contains(t, sb.String(), "01wb")
}
