package avi

import (
	"cmp"
	"math"
	"slices"
	"strconv"

	"github.com/ugparu/goavi"
	"github.com/ugparu/goavi/codec"
	"github.com/ugparu/goavi/codec/rgb24"
	"github.com/ugparu/goavi/codec/yuv"
	"github.com/ugparu/goavi/format/avi/riffio"
	"github.com/ugparu/goavi/frame"
	"github.com/ugparu/goavi/utils/logger"
)

// superIndexCapacity is the number of RIFF segments the indx placeholder can describe.
const superIndexCapacity = 256

// Muxer writes a movie with one video stream and up to two audio streams.
type Muxer struct {
	path    string
	opts    options
	f       goavi.File
	w       *chunkWriter
	cfg     goavi.Config
	streams []*Stream
	video   *Stream
	audio   *audioBuffer   // nil without audio
	scratch *codec.ScratchBuffer

	frames      uint32 // video frames written
	firstFrames uint32 // video frames in the first RIFF segment
	avihSlot    ReservedSlot
	dmlhSlot    ReservedSlot
	riffStart   int64 // header offset of the current RIFF segment
	moviBase    int64 // offset of the movi type code of the first segment
	moviData    int64 // first byte of the current movi list
	segments    int
	closed      bool
}

// Create creates path and writes the headers of a movie described by cfg.
// On failure the partial file is removed.
func Create(path string, cfg goavi.Config, opts ...Option) (*Muxer, error) {
	o := buildOptions(opts)
	if err := checkConfig(&cfg); err != nil {
		return nil, err
	}
	f, err := o.fs.Create(path)
	if err != nil {
		return nil, goavi.Wrap(goavi.ErrCannotOpen, "create "+path, err)
	}
	m, err := newMuxer(f, cfg, o)
	if err != nil {
		_ = f.Close()
		if rerr := o.fs.Remove(path); rerr != nil {
			logger.Warningf(path, "remove partial file: %v", rerr)
		}
		return nil, err
	}
	m.path = path
	return m, nil
}

// CreateFile writes a movie into an already open, empty file. The Muxer owns
// f from then on and closes it in Close, or right away when creation fails.
func CreateFile(f goavi.File, cfg goavi.Config, opts ...Option) (*Muxer, error) {
	o := buildOptions(opts)
	if err := checkConfig(&cfg); err != nil {
		_ = f.Close()
		return nil, err
	}
	m, err := newMuxer(f, cfg, o)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return m, nil
}

// checkConfig validates a writer configuration and fills in defaults.
func checkConfig(cfg *goavi.Config) error {
	const op = "create"
	switch cfg.VideoCodec {
	case goavi.RGB24, goavi.YUY2, goavi.UYVY, goavi.HDYC:
	default:
		return goavi.Errorf(goavi.ErrUnsupportedVideoFormat, op, "cannot write %s video", cfg.VideoCodec)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > math.MaxInt32 || cfg.Height > math.MaxInt32 {
		return goavi.Errorf(goavi.ErrInvalidImage, op, "frame size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.VideoCodec.IsYUV() && cfg.Width%2 != 0 {
		return goavi.Errorf(goavi.ErrInvalidImage, op, "%s needs an even width, got %d", cfg.VideoCodec, cfg.Width)
	}
	if cfg.FrameRate.Num == 0 || cfg.FrameRate.Den == 0 {
		return goavi.Errorf(goavi.ErrInvalidData, op, "frame rate %s", cfg.FrameRate)
	}
	cfg.FrameCount = 0
	cfg.AudioSampleCount = 0
	if !cfg.HasAudio() {
		cfg.AudioChannels, cfg.AudioStreams = 0, 0
		return nil
	}
	if cfg.AudioStreams <= 0 {
		cfg.AudioStreams = 1
	}
	if cfg.AudioStreams > 2 { //nolint:mnd
		return goavi.Errorf(goavi.ErrUnsupported, op, "%d audio streams", cfg.AudioStreams)
	}
	if cfg.AudioChannels%cfg.AudioStreams != 0 || cfg.ChannelsPerStream() > 2 { //nolint:mnd
		return goavi.Errorf(goavi.ErrUnsupportedAudioFormat, op, "%d channels over %d streams", cfg.AudioChannels, cfg.AudioStreams)
	}
	if cfg.SampleRate == 0 {
		return goavi.Errorf(goavi.ErrInvalidSampleRate, op, "sample rate 0")
	}
	if _, ok := goavi.SampleFormatOf(cfg.AudioCodec, cfg.BitsPerSample); !ok || cfg.AudioCodec == goavi.Extensible {
		return goavi.Errorf(goavi.ErrUnsupportedAudioFormat, op, "%s with %d bits", cfg.AudioCodec, cfg.BitsPerSample)
	}
	return nil
}

func marshal(l interface {
	Len() int
	Marshal(b []byte) int
}) []byte {
	b := make([]byte, l.Len())
	l.Marshal(b)
	return b
}

func newMuxer(f goavi.File, cfg goavi.Config, o options) (*Muxer, error) {
	m := &Muxer{
		opts:    o,
		f:       f,
		w:       newChunkWriter(f),
		cfg:     cfg,
		scratch: codec.NewScratchBuffer(),
	}
	if err := m.newVideoStream(); err != nil {
		return nil, err
	}
	var audio []*Stream
	for i := 0; i < cfg.AudioStreams; i++ {
		s, err := m.newAudioStream()
		if err != nil {
			return nil, err
		}
		audio = append(audio, s)
	}
	if len(audio) > 0 {
		m.audio = newAudioBuffer(m, audio)
	}
	if err := m.writeHeaders(); err != nil {
		return nil, err
	}
	logger.Debugf(m, "created %dx%d %s at %s fps with %d streams", cfg.Width, cfg.Height, cfg.VideoCodec, cfg.FrameRate, len(m.streams))
	return m, nil
}

func (m *Muxer) String() string {
	return "AVI MUXER"
}

func (m *Muxer) frameSize() int {
	if m.cfg.VideoCodec == goavi.RGB24 {
		return rgb24.FrameSize(m.cfg.Width, m.cfg.Height)
	}
	return yuv.FrameSize(m.cfg.Width, m.cfg.Height)
}

func (m *Muxer) newVideoStream() (err error) {
	cfg := m.cfg
	s := newStream(len(m.streams), KindVideo, m.opts.indexGrowth)
	if s.ChunkID, err = riffio.StreamChunkID(s.Number, riffio.TwoCCUncompressed); err != nil {
		return err
	}
	s.Name = "Video"
	s.VideoCodec = cfg.VideoCodec
	s.Header = riffio.StreamHeader{
		Type:    riffio.VIDS,
		Handler: riffio.StringToFourCC(cfg.VideoCodec.Handler()),
		Scale:   cfg.FrameRate.Den,
		Rate:    cfg.FrameRate.Num,
		Quality: -1,
		Frame:   riffio.Rect{Right: int16(min(cfg.Width, math.MaxInt16)), Bottom: int16(min(cfg.Height, math.MaxInt16))},
	}
	s.Video = riffio.BitmapInfoHeader{
		Width:       int32(cfg.Width),
		Height:      int32(cfg.Height),
		Planes:      1,
		BitCount:    cfg.VideoCodec.BitCount(),
		Compression: riffio.StringToFourCC(cfg.VideoCodec.FourCC()),
		SizeImage:   uint32(m.frameSize()),
	}
	m.video = s
	m.streams = append(m.streams, s)
	return nil
}

func (m *Muxer) newAudioStream() (s *Stream, err error) {
	cfg := m.cfg
	s = newStream(len(m.streams), KindAudio, m.opts.indexGrowth)
	if s.ChunkID, err = riffio.StreamChunkID(s.Number, riffio.TwoCCAudio); err != nil {
		return nil, err
	}
	s.Name = "Audio " + strconv.Itoa(s.Number)
	s.AudioCodec = cfg.AudioCodec
	s.SampleFormat, _ = goavi.SampleFormatOf(cfg.AudioCodec, cfg.BitsPerSample)
	channels := cfg.ChannelsPerStream()
	blockAlign := channels * s.SampleFormat.BytesPerSample()
	s.Header = riffio.StreamHeader{
		Type:       riffio.AUDS,
		Scale:      1,
		Rate:       cfg.SampleRate,
		Quality:    -1,
		SampleSize: uint32(blockAlign),
	}
	s.Audio = riffio.WaveFormatEx{
		FormatTag:      uint16(cfg.AudioCodec),
		Channels:       uint16(channels),
		SamplesPerSec:  cfg.SampleRate,
		AvgBytesPerSec: cfg.SampleRate * uint32(blockAlign),
		BlockAlign:     uint16(blockAlign),
		BitsPerSample:  uint16(cfg.BitsPerSample),
	}
	m.streams = append(m.streams, s)
	return s, nil
}

func (m *Muxer) mainHeader() riffio.MainHeader {
	var maxChunk uint32
	var bytesPerFrame uint64
	for _, s := range m.streams {
		maxChunk = max(maxChunk, s.maxChunk)
		if s.Kind == KindVideo {
			bytesPerFrame += uint64(s.Video.SizeImage)
		} else {
			bytesPerFrame += uint64(s.Audio.AvgBytesPerSec) * uint64(m.cfg.FrameRate.Den) / uint64(m.cfg.FrameRate.Num)
		}
	}
	return riffio.MainHeader{
		MicroSecPerFrame:    uint32(min(uint64(1e6)*uint64(m.cfg.FrameRate.Den)/uint64(m.cfg.FrameRate.Num), math.MaxUint32)), //nolint:mnd
		MaxBytesPerSec:      uint32(min(bytesPerFrame*uint64(m.cfg.FrameRate.Num)/uint64(m.cfg.FrameRate.Den), math.MaxUint32)),
		Flags:               riffio.AVIFHasIndex | riffio.AVIFIsInterleaved,
		TotalFrames:         m.firstFrames,
		Streams:             uint32(len(m.streams)),
		SuggestedBufferSize: maxChunk + riffio.HeaderSize,
		Width:               uint32(m.cfg.Width),
		Height:              uint32(m.cfg.Height),
	}
}

func (m *Muxer) writeHeaders() (err error) {
	w := m.w
	if err = w.open(riffio.RIFF, riffio.AVI, 0); err != nil {
		return err
	}
	if err = w.open(riffio.LIST, riffio.HDRL, 0); err != nil {
		return err
	}
	if m.avihSlot, err = w.reserve(riffio.AVIH, marshal(m.mainHeader())); err != nil {
		return err
	}
	placeholder := make([]byte, riffio.IndexHeaderSize+riffio.SuperIndexEntrySize*superIndexCapacity)
	for _, s := range m.streams {
		if err = w.open(riffio.LIST, riffio.STRL, 0); err != nil {
			return err
		}
		if s.headerSlot, err = w.reserve(riffio.STRH, marshal(s.Header)); err != nil {
			return err
		}
		format := marshal(s.Video)
		if s.Kind == KindAudio {
			format = marshal(s.Audio)
		}
		if _, err = w.writeChunk(riffio.STRF, format); err != nil {
			return err
		}
		if s.indexSlot, err = w.reserve(riffio.JUNK, placeholder); err != nil {
			return err
		}
		if _, err = w.writeChunk(riffio.STRN, append([]byte(s.Name), 0)); err != nil {
			return err
		}
		if err = w.close(); err != nil {
			return err
		}
	}
	if err = w.open(riffio.LIST, riffio.ODML, 0); err != nil {
		return err
	}
	if m.dmlhSlot, err = w.reserve(riffio.DMLH, marshal(riffio.ODMLHeader{})); err != nil {
		return err
	}
	if err = w.close(); err != nil {
		return err
	}
	if err = w.close(); err != nil {
		return err
	}
	return m.openMovi()
}

func (m *Muxer) openMovi() error {
	if err := m.w.open(riffio.LIST, riffio.MOVI, 0); err != nil {
		return err
	}
	if m.segments == 0 {
		m.moviBase = m.w.cursor - 4 //nolint:mnd
	}
	m.moviData = m.w.cursor
	m.segments++
	return nil
}

// indexAllowance is the room the indexes still to be written into the current
// RIFF segment need, counting one more chunk per stream.
func (m *Muxer) indexAllowance() int64 {
	var n, entries int64
	for _, s := range m.streams {
		pending := int64(s.Index.Len()-s.segmentStart) + 1
		entries += pending
		n += riffio.HeaderSize + riffio.IndexHeaderSize + riffio.StandardIndexEntrySize*pending
	}
	if m.segments == 1 {
		n += riffio.HeaderSize + riffio.LegacyIndexEntrySize*entries
	}
	return n
}

// makeRoom starts a new RIFF segment when a chunk of size bytes would push the
// current one past the limit.
func (m *Muxer) makeRoom(size int) error {
	end := m.w.cursor + riffio.HeaderSize + int64(size) + int64(size&1) + m.indexAllowance()
	if end-m.riffStart <= m.opts.riffLimit || m.w.cursor == m.moviData {
		return nil
	}
	return m.split()
}

func (m *Muxer) split() error {
	if m.segments >= superIndexCapacity {
		return goavi.Errorf(goavi.ErrUnsupported, "write chunk", "more than %d RIFF segments", superIndexCapacity)
	}
	if err := m.writeSubIndexes(); err != nil {
		return err
	}
	if err := m.w.close(); err != nil {
		return err
	}
	if m.segments == 1 {
		if err := m.writeLegacyIndex(); err != nil {
			return err
		}
		m.firstFrames = m.frames
	}
	if err := m.w.close(); err != nil {
		return err
	}
	logger.Debugf(m, "RIFF segment %d ends at %d", m.segments, m.w.cursor)
	m.riffStart = m.w.cursor
	if err := m.w.open(riffio.RIFF, riffio.AVIX, 0); err != nil {
		return err
	}
	return m.openMovi()
}

// writeSample appends a sample chunk of s to the movi list.
func (m *Muxer) writeSample(s *Stream, data []byte) error {
	if err := m.makeRoom(len(data)); err != nil {
		return err
	}
	off, err := m.w.writeChunk(s.ChunkID, data)
	if err != nil {
		return err
	}
	s.Index.Append(off, uint32(len(data))+riffio.HeaderSize)
	s.noteChunk(len(data))
	return nil
}

// reserveSample is writeSample for content that is filled in later. It
// returns the slot and the index position of the chunk.
func (m *Muxer) reserveSample(s *Stream, data []byte) (ReservedSlot, int, error) {
	if err := m.makeRoom(len(data)); err != nil {
		return ReservedSlot{}, 0, err
	}
	slot, err := m.w.reserve(s.ChunkID, data)
	if err != nil {
		return ReservedSlot{}, 0, err
	}
	s.noteChunk(len(data))
	return slot, s.Index.Append(slot.Offset, slot.Size+riffio.HeaderSize), nil
}

// segmentDuration is the time the index entries cover, in stream ticks.
func segmentDuration(s *Stream, entries []IndexEntry) uint32 {
	if s.Kind != KindAudio {
		return uint32(len(entries))
	}
	ba := uint32(max(s.BlockAlign(), 1))
	var d uint32
	for _, e := range entries {
		d += e.PayloadSize() / ba
	}
	return d
}

// writeSubIndexes writes an ix## chunk for the chunks every stream added to the current segment.
func (m *Muxer) writeSubIndexes() error {
	for _, s := range m.streams {
		entries := s.Index.Entries()[min(s.segmentStart, s.Index.Len()):]
		s.segmentStart = s.Index.Len()
		if len(entries) == 0 {
			continue
		}
		id, err := riffio.IndexChunkID(s.Number)
		if err != nil {
			return err
		}
		base := entries[0].Offset + riffio.HeaderSize
		ix := riffio.StandardIndex{
			IndexHeader: riffio.IndexHeader{ChunkID: s.ChunkID},
			BaseOffset:  uint64(base),
			Entries:     make([]riffio.StandardIndexEntry, len(entries)),
		}
		for i, e := range entries {
			ix.Entries[i] = riffio.StandardIndexEntry{
				Offset: uint32(e.Offset + riffio.HeaderSize - base),
				Size:   e.PayloadSize(),
			}
		}
		b := marshal(ix)
		off, err := m.w.writeChunk(id, b)
		if err != nil {
			return err
		}
		s.segments = append(s.segments, riffio.SuperIndexEntry{
			Offset:   uint64(off),
			Size:     uint32(len(b)) + riffio.HeaderSize,
			Duration: segmentDuration(s, entries),
		})
	}
	return nil
}

// writeLegacyIndex writes idx1 for the chunks of the first segment, in file order.
func (m *Muxer) writeLegacyIndex() error {
	var entries []riffio.LegacyIndexEntry
	for _, s := range m.streams {
		var flags uint32
		if s.Kind == KindVideo {
			flags = riffio.AVIIFKeyFrame
		}
		for _, e := range s.Index.Entries() {
			if e.Offset >= m.w.cursor {
				break
			}
			entries = append(entries, riffio.LegacyIndexEntry{
				ChunkID: s.ChunkID,
				Flags:   flags,
				Offset:  uint32(e.Offset - m.moviBase),
				Size:    e.PayloadSize(),
			})
		}
	}
	slices.SortStableFunc(entries, func(a, b riffio.LegacyIndexEntry) int {
		return cmp.Compare(a.Offset, b.Offset)
	})
	b := make([]byte, len(entries)*riffio.LegacyIndexEntrySize)
	for i, e := range entries {
		e.Marshal(b[i*riffio.LegacyIndexEntrySize:])
	}
	_, err := m.w.writeChunk(riffio.IDX1, b)
	return err
}

// Config returns the movie description with the counts written so far.
func (m *Muxer) Config() goavi.Config {
	cfg := m.cfg
	cfg.FrameCount = m.frames
	if m.audio != nil {
		cfg.AudioSampleCount = m.audio.firstSample(m.frames)
	}
	return cfg
}

// Streams returns the streams in header order, video first.
func (m *Muxer) Streams() []*Stream {
	return m.streams
}

func (m *Muxer) checkOpen(op string) error {
	if m.closed {
		return goavi.Errorf(goavi.ErrWrite, op, "movie already closed")
	}
	return nil
}

// WriteVideoFrame appends img as the next frame. The image is scaled neither
// way: smaller images are padded, larger ones cropped.
func (m *Muxer) WriteVideoFrame(img *frame.Image) error {
	const op = "write video frame"
	if err := m.checkOpen(op); err != nil {
		return err
	}
	if m.frames == math.MaxUint32 {
		return goavi.Errorf(goavi.ErrUnsupported, op, "frame count limit reached")
	}
	size := m.frameSize()
	buf := m.scratch.Ensure(size)[:size]
	var err error
	switch m.cfg.VideoCodec {
	case goavi.RGB24:
		err = rgb24.Pack(buf, img, m.cfg.Width, m.cfg.Height)
	case goavi.YUY2, goavi.UYVY, goavi.HDYC:
		err = yuv.Encode(buf, img, m.cfg.VideoCodec, m.cfg.Width, m.cfg.Height)
	default:
		err = goavi.Errorf(goavi.ErrUnsupportedVideoFormat, op, "%s", m.cfg.VideoCodec)
	}
	if err != nil {
		return err
	}
	if err = m.writeSample(m.video, buf); err != nil {
		return err
	}
	if m.audio == nil {
		m.frames++
		return nil
	}
	if err = m.audio.reserve(m.frames); err != nil {
		return err
	}
	m.frames++
	return m.audio.flush(true)
}

// WriteAudio queues every stride-th value of samples for a logical channel.
// A stride of 0 means 1.
func (m *Muxer) WriteAudio(channel int, samples []int16, stride int) error {
	const op = "write audio"
	if err := m.checkOpen(op); err != nil {
		return err
	}
	if m.audio == nil || channel < 0 || channel >= m.cfg.AudioChannels {
		return goavi.Errorf(goavi.ErrInvalidStreamIndex, op, "channel %d of %d", channel, m.cfg.AudioChannels)
	}
	return m.audio.append(channel, samples, stride)
}

// Close flushes pending audio, writes the indexes and final headers and closes
// the file. Calling it again does nothing.
func (m *Muxer) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	err := m.finish()
	if cerr := m.f.Close(); cerr != nil && err == nil {
		err = goavi.Wrap(goavi.ErrWrite, "close", cerr)
	}
	if err != nil {
		logger.Errorf(m, "close %s: %v", m.path, err)
		return err
	}
	logger.Debugf(m, "closed %s: %d frames in %d segments", m.path, m.frames, m.segments)
	return nil
}

func (m *Muxer) finish() error {
	if m.audio != nil {
		if err := m.audio.flush(false); err != nil {
			return err
		}
	}
	if m.segments > 1 {
		if err := m.writeSubIndexes(); err != nil {
			return err
		}
	}
	if err := m.w.close(); err != nil {
		return err
	}
	if m.segments == 1 {
		if err := m.writeLegacyIndex(); err != nil {
			return err
		}
		m.firstFrames = m.frames
	}
	for _, s := range m.streams {
		if s.Kind == KindVideo {
			s.Header.Length = m.frames
		} else {
			s.Header.Length = uint32(min(s.SampleCount(), math.MaxUint32))
		}
		s.Header.SuggestedBufferSize = s.maxChunk + riffio.HeaderSize
		if err := m.w.fill(s.headerSlot, riffio.STRH, marshal(s.Header)); err != nil {
			return err
		}
		if m.segments == 1 {
			continue
		}
		si := riffio.SuperIndex{
			IndexHeader: riffio.IndexHeader{ChunkID: s.ChunkID},
			Entries:     s.segments,
			Capacity:    superIndexCapacity,
		}
		if err := m.w.fill(s.indexSlot, riffio.INDX, marshal(si)); err != nil {
			return err
		}
	}
	if err := m.w.fill(m.dmlhSlot, riffio.DMLH, marshal(riffio.ODMLHeader{TotalFrames: m.frames})); err != nil {
		return err
	}
	if err := m.w.fill(m.avihSlot, riffio.AVIH, marshal(m.mainHeader())); err != nil {
		return err
	}
	return m.w.close()
}
