package avi

import (
	"github.com/ugparu/goavi"
	"github.com/ugparu/goavi/codec"
	"github.com/ugparu/goavi/format/avi/riffio"
	"github.com/ugparu/goavi/utils/logger"
)

// pendingChunk is the audio of one video frame: chunks reserved in the movi
// list that still hold silence.
type pendingChunk struct {
	frame     uint32
	first     uint64 // first sample, absolute
	end       uint64 // one past the last sample
	slots     []ReservedSlot
	positions []int // index position per stream, -1 when nothing was reserved
}

// audioBuffer holds samples per logical channel until the chunks of the frame
// they belong to can be filled. Chunks of a frame are reserved right after its
// video chunk and finalized once video is lookahead frames ahead.
type audioBuffer struct {
	mux       *Muxer
	streams   []*Stream
	perStream int
	format    goavi.SampleFormat

	sampleRate uint64
	rate       uint64 // video frames per scale seconds
	scale      uint64
	lookahead  int
	capacity   int

	ring [][]int16
	fill []int  // samples held per channel
	base uint64 // absolute number of ring[c][0]

	pending   []pendingChunk
	finalized uint32

	scratch *codec.ScratchBuffer
	silence []byte
	chans   [][]int16
}

func newAudioBuffer(m *Muxer, streams []*Stream) *audioBuffer {
	cfg := m.cfg
	ab := &audioBuffer{
		mux:        m,
		streams:    streams,
		perStream:  cfg.ChannelsPerStream(),
		format:     streams[0].SampleFormat,
		sampleRate: uint64(cfg.SampleRate),
		rate:       uint64(cfg.FrameRate.Num),
		scale:      uint64(cfg.FrameRate.Den),
		scratch:    codec.NewScratchBuffer(),
	}
	ms := uint64(m.opts.audioLatency.Milliseconds())
	ab.lookahead = int((ab.rate*ms+ab.scale*1000-1)/(ab.scale*1000)) + 1 //nolint:mnd
	perFrame := int((ab.sampleRate*ab.scale + ab.rate - 1) / ab.rate)
	ab.capacity = max(2*int(ab.sampleRate), (ab.lookahead+2)*perFrame) //nolint:mnd

	ab.ring = make([][]int16, cfg.AudioChannels)
	for c := range ab.ring {
		ab.ring[c] = make([]int16, ab.capacity)
	}
	ab.fill = make([]int, cfg.AudioChannels)
	ab.chans = make([][]int16, ab.perStream)
	return ab
}

func (ab *audioBuffer) String() string {
	return "AUDIO BUFFER"
}

// firstSample is the first sample belonging to video frame k.
func (ab *audioBuffer) firstSample(k uint32) uint64 {
	return uint64(k) * ab.sampleRate * ab.scale / ab.rate
}

func (ab *audioBuffer) zeros(n int) []byte {
	if len(ab.silence) < n {
		ab.silence = make([]byte, n)
	}
	return ab.silence[:n]
}

// reserve writes placeholder chunks for the audio of frame k.
func (ab *audioBuffer) reserve(k uint32) error {
	p := pendingChunk{
		frame:     k,
		first:     ab.firstSample(k),
		end:       ab.firstSample(k + 1),
		slots:     make([]ReservedSlot, len(ab.streams)),
		positions: make([]int, len(ab.streams)),
	}
	count := int(p.end - p.first)
	for i, s := range ab.streams {
		p.positions[i] = -1
		size := count * s.BlockAlign()
		if size == 0 {
			continue
		}
		slot, pos, err := ab.mux.reserveSample(s, ab.zeros(size))
		if err != nil {
			return err
		}
		p.slots[i], p.positions[i] = slot, pos
	}
	ab.pending = append(ab.pending, p)
	return nil
}

// append stores every stride-th sample of samples for channel.
func (ab *audioBuffer) append(channel int, samples []int16, stride int) error {
	if stride <= 0 {
		stride = 1
	}
	n := (len(samples) + stride - 1) / stride
	if ab.fill[channel]+n > ab.capacity {
		return goavi.Errorf(goavi.ErrAudioBufferOverflow, "write audio",
			"channel %d: %d buffered + %d new samples exceed %d", channel, ab.fill[channel], n, ab.capacity)
	}
	dst := ab.ring[channel][ab.fill[channel]:]
	for i := 0; i < n; i++ {
		dst[i] = samples[i*stride]
	}
	ab.fill[channel] += n
	return ab.flush(true)
}

func (ab *audioBuffer) complete(end uint64) bool {
	for _, f := range ab.fill {
		if ab.base+uint64(f) < end {
			return false
		}
	}
	return true
}

// flush fills pending chunks in frame order. With onlyFull it stops at the
// first frame inside the lookahead window or without samples on every
// channel; otherwise everything is written and short channels are padded.
func (ab *audioBuffer) flush(onlyFull bool) error {
	done := 0
	for ; done < len(ab.pending); done++ {
		p := &ab.pending[done]
		if onlyFull {
			if uint64(p.frame)+uint64(ab.lookahead) >= uint64(ab.mux.frames) || !ab.complete(p.end) {
				break
			}
		}
		if err := ab.finalize(p); err != nil {
			return err
		}
		ab.finalized++
	}
	ab.pending = append(ab.pending[:0], ab.pending[done:]...)
	ab.compact()
	return nil
}

func (ab *audioBuffer) finalize(p *pendingChunk) error {
	lo := int(p.first - ab.base)
	hi := int(p.end - ab.base)
	for i, s := range ab.streams {
		if p.positions[i] < 0 {
			continue
		}
		present := false
		for j := range ab.chans {
			c := i*ab.perStream + j
			avail := min(hi, ab.fill[c])
			ab.chans[j] = nil
			if avail > lo {
				ab.chans[j] = ab.ring[c][lo:avail]
				present = true
			}
		}
		slot := p.slots[i]
		if !present {
			logger.Warningf(ab, "no samples for %s at frame %d, chunk dropped", s.ChunkID, p.frame)
			if err := ab.mux.w.fill(slot, riffio.JUNK, ab.zeros(int(slot.Size))); err != nil {
				return err
			}
			// only Close leaves chunks empty, so every later entry of s is JUNK too
			s.Index.Truncate(p.positions[i])
			continue
		}
		buf := ab.scratch.Ensure(int(slot.Size))[:slot.Size]
		encodeSamples(buf, ab.format, ab.chans, hi-lo)
		if err := ab.mux.w.fill(slot, s.ChunkID, buf); err != nil {
			return err
		}
	}
	return nil
}

// compact drops samples that belong to finalized frames.
func (ab *audioBuffer) compact() {
	next := ab.firstSample(ab.mux.frames)
	if len(ab.pending) > 0 {
		next = ab.pending[0].first
	}
	if next <= ab.base {
		return
	}
	consumed := next - ab.base
	for c, f := range ab.fill {
		if uint64(f) > consumed {
			copy(ab.ring[c], ab.ring[c][consumed:f])
			ab.fill[c] = f - int(consumed)
		} else {
			ab.fill[c] = 0
		}
	}
	ab.base = next
}
