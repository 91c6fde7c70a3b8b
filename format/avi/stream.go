package avi

import (
	"fmt"

	"github.com/ugparu/goavi"
	"github.com/ugparu/goavi/codec/huffyuv"
	"github.com/ugparu/goavi/format/avi/riffio"
)

// StreamKind tells video, audio and anything else apart.
type StreamKind uint8

const (
	KindOther StreamKind = iota
	KindVideo
	KindAudio
)

func (k StreamKind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	}
	return "other"
}

// Stream is one strl entry together with its chunk index.
type Stream struct {
	Number  int
	Kind    StreamKind
	ChunkID riffio.FourCC // sample chunk ID, e.g. 00db or 01wb
	Name    string

	Header riffio.StreamHeader
	Video  riffio.BitmapInfoHeader // valid for KindVideo
	Audio  riffio.WaveFormatEx     // valid for KindAudio

	VideoCodec   goavi.VideoCodec
	AudioCodec   goavi.AudioCodec
	SampleFormat goavi.SampleFormat // 0 when the audio encoding is not supported
	Tables       *huffyuv.Tables    // HuffYUV streams only

	Index *ChunkIndex

	// read side
	odmlIndexed bool     // Index came from indx/ix##, idx1 must not add to it
	starts      []uint64 // audio: first sample of every chunk plus the total

	// write side
	headerSlot   ReservedSlot
	indexSlot    ReservedSlot
	segments     []riffio.SuperIndexEntry
	segmentStart int
	maxChunk     uint32
}

func newStream(number int, kind StreamKind, growth int) *Stream {
	return &Stream{Number: number, Kind: kind, Index: NewChunkIndex(growth)}
}

func (s *Stream) String() string {
	return fmt.Sprintf("STREAM %d %s", s.Number, s.Kind)
}

// Width is the frame width in pixels.
func (s *Stream) Width() int {
	return int(s.Video.Width)
}

// Height is the frame height in pixels regardless of row order.
func (s *Stream) Height() int {
	if s.Video.Height < 0 {
		return int(-s.Video.Height)
	}
	return int(s.Video.Height)
}

// Rate is the stream tick rate, frames per second for video.
func (s *Stream) Rate() goavi.Rational {
	return goavi.Rational{Num: s.Header.Rate, Den: s.Header.Scale}
}

// BlockAlign is the size of one sample of all channels of an audio stream.
func (s *Stream) BlockAlign() int {
	if s.Audio.BlockAlign != 0 {
		return int(s.Audio.BlockAlign)
	}
	return int(s.Audio.Channels) * int(s.Audio.BitsPerSample+7) / 8 //nolint:mnd
}

// SampleCount is the number of samples per channel held by the chunks of an audio stream.
func (s *Stream) SampleCount() uint64 {
	ba := s.BlockAlign()
	if s.Kind != KindAudio || ba == 0 {
		return 0
	}
	var total uint64
	for _, e := range s.Index.Entries() {
		total += uint64(e.PayloadSize() / uint32(ba))
	}
	return total
}

func (s *Stream) noteChunk(size int) {
	s.maxChunk = max(s.maxChunk, uint32(size))
}
