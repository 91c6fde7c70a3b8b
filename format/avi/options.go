// Package avi reads and writes RIFF/AVI movies with uncompressed video,
// HuffYUV decoding, PCM and G.711 audio, and OpenDML segments past 2 GiB.
package avi

import (
	"time"

	"github.com/ugparu/goavi"
)

const (
	defaultRIFFLimit    = 0x7F000000
	defaultIndexGrowth  = 4096
	defaultAudioLatency = 40 * time.Millisecond
)

type options struct {
	fs           goavi.FileSystem
	riffLimit    int64
	indexGrowth  int
	audioLatency time.Duration
}

func defaultOptions() options {
	return options{
		fs:           goavi.OSFileSystem{},
		riffLimit:    defaultRIFFLimit,
		indexGrowth:  defaultIndexGrowth,
		audioLatency: defaultAudioLatency,
	}
}

// Option tunes a Muxer or a Demuxer.
type Option func(o *options)

// WithFileSystem routes every open, create and remove through fs.
func WithFileSystem(fs goavi.FileSystem) Option {
	return func(o *options) {
		if fs != nil {
			o.fs = fs
		}
	}
}

// WithRIFFLimit sets the size at which the muxer starts a new RIFF AVIX segment.
func WithRIFFLimit(limit int64) Option {
	return func(o *options) {
		if limit > 0 {
			o.riffLimit = limit
		}
	}
}

// WithIndexGrowth sets how many entries a stream index grows by at once.
func WithIndexGrowth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.indexGrowth = n
		}
	}
}

// WithAudioLatency sets how far audio may lag behind video before its chunks
// are finalized.
func WithAudioLatency(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.audioLatency = d
		}
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
