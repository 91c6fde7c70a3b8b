package avi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/ugparu/goavi"
	"github.com/ugparu/goavi/codec"
	"github.com/ugparu/goavi/codec/huffyuv"
	"github.com/ugparu/goavi/codec/rgb24"
	"github.com/ugparu/goavi/codec/yuv"
	"github.com/ugparu/goavi/format/avi/riffio"
	"github.com/ugparu/goavi/frame"
	"github.com/ugparu/goavi/utils/logger"
)

// Demuxer reads frames and audio samples of an AVI movie.
type Demuxer struct {
	path    string
	opts    options
	f       goavi.File
	size    int64
	cfg     goavi.Config
	streams []*Stream
	video   *Stream   // first video stream, nil when there is none
	audio   []*Stream // every audio stream in header order

	frames   uint32
	moviBase int64
	scratch  *codec.ScratchBuffer
	decoder  *huffyuv.Decoder
	closed   bool
}

// Open opens path and parses its headers and indexes.
func Open(path string, opts ...Option) (*Demuxer, error) {
	o := buildOptions(opts)
	f, err := o.fs.Open(path)
	if err != nil {
		return nil, goavi.Wrap(goavi.ErrCannotOpen, "open "+path, err)
	}
	d, err := newDemuxer(f, o, path)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return d, nil
}

// OpenFile parses an already open file. The Demuxer owns f from then on; it is
// closed right away when parsing fails.
func OpenFile(f goavi.File, opts ...Option) (*Demuxer, error) {
	d, err := newDemuxer(f, buildOptions(opts), "")
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return d, nil
}

func newDemuxer(f goavi.File, o options, path string) (*Demuxer, error) {
	d := &Demuxer{
		path:    path,
		opts:    o,
		f:       f,
		size:    fileSize(f),
		scratch: codec.NewScratchBuffer(),
	}
	if err := d.parse(); err != nil {
		return nil, err
	}
	logger.Debugf(d, "opened %s: %d streams, %d frames", path, len(d.streams), d.frames)
	return d, nil
}

func (d *Demuxer) String() string {
	return "AVI DEMUXER"
}

// fileSize asks the file for its length, or walks the top-level chunks when it
// cannot tell.
func fileSize(f goavi.File) int64 {
	switch v := f.(type) {
	case interface{ Size() int64 }:
		return v.Size()
	case interface{ Stat() (os.FileInfo, error) }:
		if fi, err := v.Stat(); err == nil {
			return fi.Size()
		}
	}
	var off int64
	for {
		c, err := riffio.ReadChunk(f, off)
		if err != nil {
			return off
		}
		off = c.NextOffset()
	}
}

// missing turns a failed search for a mandatory chunk into invalid data.
func missing(err error, what string) error {
	if errors.Is(err, riffio.ErrNotFound) {
		return goavi.Errorf(goavi.ErrInvalidData, "open", "missing %s", what)
	}
	return err
}

// payload reads the payload of c, refusing sizes that run past the end of the file.
func (d *Demuxer) payload(c riffio.Chunk) ([]byte, error) {
	if c.End() > d.size {
		return nil, goavi.Errorf(goavi.ErrInvalidData, "read chunk", "%s at %d: %d bytes past end of file", c.ID, c.Offset, c.End()-d.size)
	}
	b, err := riffio.ReadPayload(d.f, c)
	if err != nil {
		return nil, goavi.Wrap(goavi.ErrInvalidData, "read chunk", err)
	}
	return b, nil
}

func (d *Demuxer) parse() error {
	riff, err := riffio.ReadChunk(d.f, 0)
	if err != nil {
		return err
	}
	if riff.ID != riffio.RIFF || riff.ListType != riffio.AVI {
		return goavi.Errorf(goavi.ErrInvalidData, "open", "not an AVI file: %s %s", riff.ID, riff.ListType)
	}
	top, err := riffio.ChildRange(riff)
	if err != nil {
		return err
	}
	if top.End > d.size {
		logger.Warningf(d, "RIFF declares %d bytes, file holds %d", top.End, d.size)
		top.End = d.size
	}

	hdrl, err := riffio.FindList(d.f, top, riffio.HDRL)
	if err != nil {
		return missing(err, "hdrl")
	}
	hdrlRange, err := riffio.ChildRange(hdrl)
	if err != nil {
		return err
	}
	c, err := riffio.FindChunk(d.f, hdrlRange, riffio.AVIH)
	if err != nil {
		return missing(err, "avih")
	}
	b, err := d.payload(c)
	if err != nil {
		return err
	}
	var mh riffio.MainHeader
	if _, err = mh.Unmarshal(b, c.DataOffset()); err != nil {
		return err
	}
	if mh.Streams == 0 {
		return goavi.Errorf(goavi.ErrInvalidData, "open", "no streams")
	}
	if mh.Streams >= riffio.MaxStreams {
		return goavi.Errorf(goavi.ErrUnsupported, "open", "%d streams", mh.Streams)
	}

	var strl riffio.Chunk
	for i := 0; i < int(mh.Streams); i++ {
		if i == 0 {
			strl, err = riffio.FindList(d.f, hdrlRange, riffio.STRL)
		} else {
			strl, err = riffio.FindNextList(d.f, hdrlRange, strl, riffio.STRL)
		}
		if err != nil {
			return missing(err, fmt.Sprintf("strl of stream %d", i))
		}
		s, err := d.parseStream(i, strl)
		if err != nil {
			return err
		}
		d.streams = append(d.streams, s)
	}

	totalFrames := mh.TotalFrames
	if odml, err := riffio.FindList(d.f, hdrlRange, riffio.ODML); err == nil {
		if total, ok := d.parseODML(odml); ok && total > totalFrames {
			totalFrames = total
		}
	} else if !errors.Is(err, riffio.ErrNotFound) {
		return err
	}

	movi, err := riffio.FindList(d.f, top, riffio.MOVI)
	if err != nil {
		return missing(err, "movi")
	}
	d.moviBase = movi.DataOffset()
	if err = d.parseLegacyIndex(top, movi); err != nil {
		return err
	}
	return d.finishConfig(totalFrames)
}

func (d *Demuxer) parseStream(n int, strl riffio.Chunk) (*Stream, error) {
	rng, err := riffio.ChildRange(strl)
	if err != nil {
		return nil, err
	}
	s := newStream(n, KindOther, d.opts.indexGrowth)

	c, err := riffio.FindChunk(d.f, rng, riffio.STRH)
	if err != nil {
		return nil, missing(err, "strh")
	}
	b, err := d.payload(c)
	if err != nil {
		return nil, err
	}
	if _, err = s.Header.Unmarshal(b, c.DataOffset()); err != nil {
		return nil, err
	}
	if c, err = riffio.FindChunk(d.f, rng, riffio.STRF); err != nil {
		return nil, missing(err, "strf")
	}
	if b, err = d.payload(c); err != nil {
		return nil, err
	}
	switch s.Header.Type {
	case riffio.VIDS:
		if err = d.parseVideoFormat(s, b, c.DataOffset()); err != nil {
			return nil, err
		}
	case riffio.AUDS:
		s.Kind = KindAudio
		if _, err = s.Audio.Unmarshal(b, c.DataOffset()); err != nil {
			return nil, err
		}
		s.AudioCodec = goavi.AudioCodec(s.Audio.EffectiveFormatTag())
		s.SampleFormat, _ = goavi.SampleFormatOf(s.AudioCodec, int(s.Audio.BitsPerSample))
		if s.ChunkID, err = riffio.StreamChunkID(n, riffio.TwoCCAudio); err != nil {
			return nil, err
		}
	default:
		logger.Infof(s, "ignoring %s stream", s.Header.Type)
	}

	if c, err = riffio.FindChunk(d.f, rng, riffio.INDX); err == nil {
		if err = d.parseODMLIndex(s, c); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, riffio.ErrNotFound) {
		return nil, err
	}
	if c, err = riffio.FindChunk(d.f, rng, riffio.STRN); err == nil {
		if b, err = d.payload(c); err != nil {
			return nil, err
		}
		if i := bytes.IndexByte(b, 0); i >= 0 {
			b = b[:i]
		}
		s.Name = string(b)
	} else if !errors.Is(err, riffio.ErrNotFound) {
		return nil, err
	}
	return s, nil
}

func (d *Demuxer) parseVideoFormat(s *Stream, b []byte, offset int64) (err error) {
	s.Kind = KindVideo
	if _, err = s.Video.Unmarshal(b, offset); err != nil {
		return err
	}
	switch {
	case s.Video.Compression == 0:
		s.VideoCodec = goavi.RGB24
	default:
		s.VideoCodec = goavi.VideoCodecFromFourCC(s.Video.Compression.String())
	}
	if s.VideoCodec == goavi.RGB24 && s.Video.BitCount != 24 { //nolint:mnd
		s.VideoCodec = goavi.VideoUnknown
	}
	twoCC := riffio.TwoCCUncompressed
	if s.VideoCodec == goavi.HuffYUV {
		twoCC = riffio.TwoCCCompressed
		if len(s.Video.Extra) < huffyuv.MinExtraSize {
			logger.Warningf(s, "HFYU without tables, frames cannot be decoded")
		} else if s.Tables, err = huffyuv.ParseTables(s.Video.Extra); err != nil {
			return err
		}
	}
	s.ChunkID, err = riffio.StreamChunkID(s.Number, twoCC)
	return err
}

func (d *Demuxer) parseODML(odml riffio.Chunk) (uint32, bool) {
	rng, err := riffio.ChildRange(odml)
	if err != nil {
		return 0, false
	}
	c, err := riffio.FindChunk(d.f, rng, riffio.DMLH)
	if err != nil {
		return 0, false
	}
	b, err := d.payload(c)
	if err != nil {
		return 0, false
	}
	var h riffio.ODMLHeader
	if _, err = h.Unmarshal(b, c.DataOffset()); err != nil {
		logger.Warningf(d, "ignoring dmlh: %v", err)
		return 0, false
	}
	return h.TotalFrames, true
}

// parseODMLIndex loads the indx chunk of s. A super index is followed one
// level down to its ix## chunks.
func (d *Demuxer) parseODMLIndex(s *Stream, c riffio.Chunk) error {
	b, err := d.payload(c)
	if err != nil {
		return err
	}
	h, err := riffio.PeekIndexHeader(b, c.DataOffset())
	if err != nil {
		return err
	}
	switch h.IndexType {
	case riffio.IndexOfChunks:
		err = d.addStandardIndex(s, b, c.DataOffset())
	case riffio.IndexOfIndexes:
		var si riffio.SuperIndex
		if _, err = si.Unmarshal(b, c.DataOffset()); err != nil {
			return err
		}
		for _, e := range si.Entries {
			if e.Offset == 0 {
				continue
			}
			if e.Offset >= uint64(d.size) {
				return goavi.Errorf(goavi.ErrInvalidData, "open", "%s sub-index at %d past end of file", s, e.Offset)
			}
			ix, err := riffio.ReadChunk(d.f, int64(e.Offset))
			if err != nil {
				return err
			}
			sub, err := d.payload(ix)
			if err != nil {
				return err
			}
			sh, err := riffio.PeekIndexHeader(sub, ix.DataOffset())
			if err != nil {
				return err
			}
			if sh.IndexType != riffio.IndexOfChunks {
				return goavi.Errorf(goavi.ErrInvalidData, "open", "%s sub-index at %d has type %d", s, ix.Offset, sh.IndexType)
			}
			if err = d.addStandardIndex(s, sub, ix.DataOffset()); err != nil {
				return err
			}
		}
	default:
		return goavi.Errorf(goavi.ErrInvalidData, "open", "%s index type %d", s, h.IndexType)
	}
	if err != nil {
		return err
	}
	s.odmlIndexed = s.Index.Len() > 0
	return nil
}

func (d *Demuxer) addStandardIndex(s *Stream, b []byte, offset int64) error {
	var ix riffio.StandardIndex
	if _, err := ix.Unmarshal(b, offset); err != nil {
		return err
	}
	for _, e := range ix.Entries {
		s.Index.Append(int64(ix.BaseOffset)+int64(e.Offset)-riffio.HeaderSize, e.PayloadSize()+riffio.HeaderSize)
	}
	return nil
}

func isListEntry(e riffio.LegacyIndexEntry) bool {
	return e.ChunkID == riffio.LIST || e.ChunkID == riffio.REC || e.Flags&riffio.AVIIFList != 0
}

// absoluteOffsets reports whether idx1 offsets count from the start of the
// file rather than from the movi type code, by probing the first entry.
func (d *Demuxer) absoluteOffsets(entries []riffio.LegacyIndexEntry) bool {
	for _, e := range entries {
		if isListEntry(e) {
			continue
		}
		if c, err := riffio.ReadChunk(d.f, d.moviBase+int64(e.Offset)); err == nil && c.ID == e.ChunkID {
			return false
		}
		c, err := riffio.ReadChunk(d.f, int64(e.Offset))
		return err == nil && c.ID == e.ChunkID
	}
	return false
}

func (d *Demuxer) parseLegacyIndex(top riffio.Range, movi riffio.Chunk) error {
	c, err := riffio.FindNextChunk(d.f, top, movi, riffio.IDX1)
	if errors.Is(err, riffio.ErrNotFound) {
		for _, s := range d.streams {
			if s.Kind != KindOther && !s.odmlIndexed {
				logger.Warningf(d, "no index for %s", s)
			}
		}
		return nil
	}
	if err != nil {
		return err
	}
	b, err := d.payload(c)
	if err != nil {
		return err
	}
	entries, err := riffio.UnmarshalLegacyIndex(b, c.DataOffset())
	if err != nil {
		return err
	}
	base := d.moviBase
	if d.absoluteOffsets(entries) {
		logger.Warningf(d, "idx1 holds absolute offsets")
		base = 0
	}
	for _, e := range entries {
		if isListEntry(e) {
			continue
		}
		n, err := riffio.ParseStreamNumber(e.ChunkID)
		if err != nil {
			return err
		}
		if n >= len(d.streams) {
			return goavi.Errorf(goavi.ErrInvalidStreamIndex, "open", "idx1 entry %s for %d streams", e.ChunkID, len(d.streams))
		}
		if s := d.streams[n]; !s.odmlIndexed {
			s.Index.Append(base+int64(e.Offset), e.Size+riffio.HeaderSize)
		}
	}
	return nil
}

func (d *Demuxer) finishConfig(totalFrames uint32) error {
	for _, s := range d.streams {
		switch {
		case s.Kind == KindVideo && d.video == nil:
			d.video = s
		case s.Kind == KindAudio:
			d.audio = append(d.audio, s)
		}
	}
	if v := d.video; v != nil {
		d.cfg.VideoCodec = v.VideoCodec
		d.cfg.Width, d.cfg.Height = v.Width(), v.Height()
		d.cfg.FrameRate = v.Rate()
		d.frames = uint32(v.Index.Len())
		if d.frames != totalFrames {
			logger.Warningf(d, "header declares %d frames, index holds %d", totalFrames, d.frames)
		}
		d.cfg.FrameCount = d.frames
	}
	if len(d.audio) == 0 {
		return nil
	}
	first := d.audio[0]
	for _, a := range d.audio[1:] {
		if a.AudioCodec != first.AudioCodec ||
			a.Header.Scale != first.Header.Scale ||
			a.Header.Rate != first.Header.Rate ||
			a.Header.Length != first.Header.Length ||
			a.Audio.BitsPerSample != first.Audio.BitsPerSample ||
			a.Audio.SamplesPerSec != first.Audio.SamplesPerSec {
			return goavi.Errorf(goavi.ErrIncompatibleAudioStreams, "open", "%s does not match %s", a, first)
		}
	}
	for _, a := range d.audio {
		a.starts = make([]uint64, 1, a.Index.Len()+1)
		ba := uint32(max(a.BlockAlign(), 1))
		for _, e := range a.Index.Entries() {
			a.starts = append(a.starts, a.starts[len(a.starts)-1]+uint64(e.PayloadSize()/ba))
		}
		d.cfg.AudioChannels += int(a.Audio.Channels)
	}
	d.cfg.AudioCodec = first.AudioCodec
	d.cfg.AudioStreams = len(d.audio)
	d.cfg.SampleRate = first.Audio.SamplesPerSec
	d.cfg.BitsPerSample = int(first.Audio.BitsPerSample)
	d.cfg.AudioSampleCount = first.starts[len(first.starts)-1]
	return nil
}

// Config returns the movie description derived from the first video and first
// audio stream.
func (d *Demuxer) Config() goavi.Config {
	return d.cfg
}

// Streams returns every stream in header order.
func (d *Demuxer) Streams() []*Stream {
	return d.streams
}

func (d *Demuxer) FrameCount() uint32 {
	return d.frames
}

// AudioSampleCount is the number of samples per channel of the first audio stream.
func (d *Demuxer) AudioSampleCount() uint64 {
	return d.cfg.AudioSampleCount
}

// FrameToAudioSample returns the first audio sample played with video frame n.
func (d *Demuxer) FrameToAudioSample(n uint32) uint64 {
	if d.cfg.FrameRate.Num == 0 {
		return 0
	}
	return uint64(n) * uint64(d.cfg.SampleRate) * uint64(d.cfg.FrameRate.Den) / uint64(d.cfg.FrameRate.Num)
}

func (d *Demuxer) frameEntry(n uint32, op string) (IndexEntry, error) {
	if d.closed {
		return IndexEntry{}, goavi.Errorf(goavi.ErrRead, op, "movie already closed")
	}
	if d.video == nil {
		return IndexEntry{}, goavi.Errorf(goavi.ErrInvalidStreamIndex, op, "no video stream")
	}
	if n >= d.frames {
		return IndexEntry{}, goavi.Errorf(goavi.ErrInvalidFrameIndex, op, "frame %d of %d", n, d.frames)
	}
	e := d.video.Index.At(int(n))
	if e.Offset < 0 || e.Offset+int64(e.Length) > d.size {
		return IndexEntry{}, goavi.Errorf(goavi.ErrInvalidData, op, "frame %d at %d runs past end of file", n, e.Offset)
	}
	return e, nil
}

// ReadRawFrame returns a copy of the stored bytes of frame n, nil for a dropped frame.
func (d *Demuxer) ReadRawFrame(n uint32) ([]byte, error) {
	e, err := d.frameEntry(n, "read raw frame")
	if err != nil || e.PayloadSize() == 0 {
		return nil, err
	}
	b := make([]byte, e.PayloadSize())
	if err = goavi.ReadFull(d.f, b, e.Offset+riffio.HeaderSize); err != nil {
		return nil, err
	}
	return b, nil
}

// ReadFrame decodes frame n into img. A dropped frame leaves img unchanged.
func (d *Demuxer) ReadFrame(n uint32, img *frame.Image) error {
	const op = "read frame"
	e, err := d.frameEntry(n, op)
	if err != nil {
		return err
	}
	size := int(e.PayloadSize())
	if size == 0 {
		return nil
	}
	v := d.video
	switch v.VideoCodec {
	case goavi.RGB24, goavi.YUY2, goavi.UYVY, goavi.HDYC:
	case goavi.HuffYUV:
		if v.Tables == nil {
			return goavi.Errorf(goavi.ErrUnsupportedVideoFormat, op, "HFYU stream without tables")
		}
	default:
		return goavi.Errorf(goavi.ErrUnsupportedVideoFormat, op, "compression %q", v.Video.Compression.String())
	}
	buf := d.scratch.Ensure(size)[:size]
	if err = goavi.ReadFull(d.f, buf, e.Offset+riffio.HeaderSize); err != nil {
		return err
	}
	w, h := v.Width(), v.Height()
	switch v.VideoCodec {
	case goavi.RGB24:
		if v.Video.Height < 0 {
			return goavi.Errorf(goavi.ErrUnsupportedVideoFormat, op, "top-down RGB")
		}
		return rgb24.Unpack(img, buf, w, h)
	case goavi.HuffYUV:
		if d.decoder == nil {
			d.decoder = huffyuv.NewDecoder(v.Tables, nil)
		}
		return d.decoder.Decode(img, buf, w, h)
	default:
		return yuv.Decode(img, buf, v.VideoCodec, w, h)
	}
}

// audioChannel maps a logical channel to its stream and the channel inside it.
func (d *Demuxer) audioChannel(channel int) (*Stream, int, bool) {
	if channel < 0 {
		return nil, 0, false
	}
	for _, a := range d.audio {
		if channel < int(a.Audio.Channels) {
			return a, channel, true
		}
		channel -= int(a.Audio.Channels)
	}
	return nil, 0, false
}

// ReadAudio fills dst with samples of a logical channel starting at sample
// first. Samples past the end of the stream read as silence.
func (d *Demuxer) ReadAudio(channel int, first uint64, dst []int16) error {
	const op = "read audio"
	if d.closed {
		return goavi.Errorf(goavi.ErrRead, op, "movie already closed")
	}
	s, sub, ok := d.audioChannel(channel)
	if !ok {
		return goavi.Errorf(goavi.ErrInvalidStreamIndex, op, "channel %d of %d", channel, d.cfg.AudioChannels)
	}
	if s.SampleFormat == 0 {
		return goavi.Errorf(goavi.ErrUnsupportedAudioFormat, op, "%s with %d bits", s.AudioCodec, s.Audio.BitsPerSample)
	}
	total := s.starts[len(s.starts)-1]
	if first >= total {
		return goavi.Errorf(goavi.ErrInvalidFrameIndex, op, "sample %d of %d", first, total)
	}
	ba := uint64(s.BlockAlign())
	ci := sort.Search(len(s.starts)-1, func(i int) bool { return s.starts[i+1] > first })
	written := 0
	for ; written < len(dst) && ci < s.Index.Len(); ci++ {
		e := s.Index.At(ci)
		skip := first + uint64(written) - s.starts[ci]
		count := min(s.starts[ci+1]-s.starts[ci]-skip, uint64(len(dst)-written))
		if count == 0 {
			continue
		}
		off := e.Offset + riffio.HeaderSize + int64(skip*ba)
		if off < 0 || off+int64(count*ba) > d.size {
			return goavi.Errorf(goavi.ErrInvalidData, op, "%s chunk %d runs past end of file", s, ci)
		}
		buf := d.scratch.Ensure(int(count * ba))[:count*ba]
		if err := goavi.ReadFull(d.f, buf, off); err != nil {
			return err
		}
		written += decodeChannel(dst[written:], buf, s.SampleFormat, int(s.Audio.Channels), sub)
	}
	clear(dst[written:])
	return nil
}

// Dump writes the chunk tree of the file, one line per chunk. Sample chunks
// inside movi lists are left out.
func (d *Demuxer) Dump(w io.Writer) error {
	return riffio.FprintTree(w, d.f, riffio.FileRange(d.size), 0)
}

// DumpSamples writes the sample chunks of the movi list of every RIFF segment.
func (d *Demuxer) DumpSamples(w io.Writer) error {
	file := riffio.FileRange(d.size)
	riff, err := riffio.First(d.f, file)
	for ; err == nil; riff, err = riffio.Next(d.f, file, riff) {
		if riff.ID != riffio.RIFF {
			continue
		}
		rng, err := riffio.ChildRange(riff)
		if err != nil {
			return err
		}
		rng.End = min(rng.End, d.size)
		movi, err := riffio.FindList(d.f, rng, riffio.MOVI)
		if errors.Is(err, riffio.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if _, err = fmt.Fprintf(w, "%s %s at %d\n", riff.ListType, movi.ListType, movi.Offset); err != nil {
			return err
		}
		if err = riffio.FprintMovi(w, d.f, movi, 1); err != nil {
			return err
		}
	}
	if errors.Is(err, riffio.ErrEndOfRange) {
		return nil
	}
	return err
}

// Close releases the file. Calling it again does nothing.
func (d *Demuxer) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if err := d.f.Close(); err != nil {
		return goavi.Wrap(goavi.ErrRead, "close", err)
	}
	return nil
}
