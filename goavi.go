// Package goavi holds the public types shared by the AVI container engine:
// movie configuration, codec identifiers, error kinds and the file collaborator.
package goavi

import (
	"fmt"
	"io"

	"github.com/ugparu/goavi/frame"
)

// Rational is a rate expressed as Num/Den, e.g. a frame rate of 30000/1001.
type Rational struct {
	Num uint32
	Den uint32
}

// Float returns the rate as a floating point number, 0 for an empty denominator.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// Config is the negotiated description of a movie. For a writer the caller fills it
// in; for a reader it is derived from the first video and first audio stream.
type Config struct {
	VideoCodec VideoCodec
	Width      int
	Height     int
	FrameRate  Rational // frames per second, Rate/Scale of the video stream
	FrameCount uint32   // read only

	AudioCodec       AudioCodec
	AudioChannels    int // logical channels over all audio streams
	AudioStreams     int // physical audio streams, 0 means one when AudioChannels > 0
	SampleRate       uint32
	BitsPerSample    int
	AudioSampleCount uint64 // read only, samples per channel
}

// HasVideo reports whether the movie carries a video stream.
func (c Config) HasVideo() bool {
	return c.VideoCodec != VideoNone
}

// HasAudio reports whether the movie carries audio.
func (c Config) HasAudio() bool {
	return c.AudioChannels > 0
}

// ChannelsPerStream returns the interleaved channel count of each audio stream.
func (c Config) ChannelsPerStream() int {
	streams := c.AudioStreams
	if streams <= 0 {
		streams = 1
	}
	return c.AudioChannels / streams
}

// MovieReader is implemented by read-mode container handles.
type MovieReader interface {
	Config() Config
	FrameToAudioSample(frame uint32) uint64
	ReadFrame(index uint32, img *frame.Image) error
	ReadAudio(channel int, first uint64, dst []int16) error
	Dump(w io.Writer) error
	Close() error
}

// MovieWriter is implemented by create-mode container handles.
type MovieWriter interface {
	Config() Config
	WriteVideoFrame(img *frame.Image) error
	WriteAudio(channel int, samples []int16, stride int) error
	Close() error
}
