package main

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/ugparu/goavi"
	"github.com/ugparu/goavi/format/avi"
	"github.com/ugparu/goavi/frame"
	"golang.org/x/image/draw"
)

var errNoInput = errors.New("missing -i input file")

type streamInfo struct {
	Number  int    `json:"number"`
	Kind    string `json:"kind"`
	ChunkID string `json:"chunk_id"`
	Name    string `json:"name,omitempty"`
	Handler string `json:"handler"`
	Length  uint32 `json:"length"`
	Chunks  int    `json:"chunks"`
}

type movieInfo struct {
	Path          string       `json:"path"`
	VideoCodec    string       `json:"video_codec"`
	Width         int          `json:"width"`
	Height        int          `json:"height"`
	FrameRate     string       `json:"frame_rate"`
	Frames        uint32       `json:"frames"`
	AudioCodec    string       `json:"audio_codec,omitempty"`
	AudioChannels int          `json:"audio_channels,omitempty"`
	AudioStreams  int          `json:"audio_streams,omitempty"`
	SampleRate    uint32       `json:"sample_rate,omitempty"`
	BitsPerSample int          `json:"bits_per_sample,omitempty"`
	AudioSamples  uint64       `json:"audio_samples,omitempty"`
	Streams       []streamInfo `json:"streams"`
}

func describe(path string, d *avi.Demuxer) movieInfo {
	cfg := d.Config()
	info := movieInfo{
		Path:       path,
		VideoCodec: cfg.VideoCodec.String(),
		Width:      cfg.Width,
		Height:     cfg.Height,
		FrameRate:  cfg.FrameRate.String(),
		Frames:     d.FrameCount(),
	}
	if cfg.HasAudio() {
		info.AudioCodec = cfg.AudioCodec.String()
		info.AudioChannels = cfg.AudioChannels
		info.AudioStreams = cfg.AudioStreams
		info.SampleRate = cfg.SampleRate
		info.BitsPerSample = cfg.BitsPerSample
		info.AudioSamples = d.AudioSampleCount()
	}
	for _, s := range d.Streams() {
		info.Streams = append(info.Streams, streamInfo{
			Number:  s.Number,
			Kind:    s.Kind.String(),
			ChunkID: s.ChunkID.String(),
			Name:    s.Name,
			Handler: strings.TrimRight(s.Header.Handler.String(), "\x00"),
			Length:  s.Header.Length,
			Chunks:  s.Index.Len(),
		})
	}
	return info
}

// pixelFormat is the bitmap layout frames of codec decode into.
func pixelFormat(codec goavi.VideoCodec) frame.PixelFormat {
	if codec == goavi.RGB24 {
		return frame.RGB32
	}
	return frame.YUY2
}

func decodeFrame(d *avi.Demuxer, n uint32) (*frame.Image, error) {
	cfg := d.Config()
	img := frame.New(pixelFormat(cfg.VideoCodec), cfg.Width, cfg.Height)
	if err := d.ReadFrame(n, img); err != nil {
		return nil, err
	}
	return img, nil
}

// scaled resizes img by factor with Catmull-Rom resampling.
func scaled(img image.Image, factor float64) image.Image {
	if factor <= 0 || factor == 1 {
		return img
	}
	b := img.Bounds()
	w := max(1, int(float64(b.Dx())*factor))
	h := max(1, int(float64(b.Dy())*factor))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func parseRational(s string) (goavi.Rational, error) {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseUint(num, 10, 32)
	if err != nil {
		return goavi.Rational{}, fmt.Errorf("frame rate %q: %w", s, err)
	}
	d := uint64(1)
	if found {
		if d, err = strconv.ParseUint(den, 10, 32); err != nil {
			return goavi.Rational{}, fmt.Errorf("frame rate %q: %w", s, err)
		}
	}
	if n == 0 || d == 0 {
		return goavi.Rational{}, fmt.Errorf("frame rate %q is not positive", s)
	}
	return goavi.Rational{Num: uint32(n), Den: uint32(d)}, nil
}

func parseVideoCodec(s string) (goavi.VideoCodec, error) {
	switch strings.ToUpper(s) {
	case "RGB24", "RGB", "DIB":
		return goavi.RGB24, nil
	case "YUY2":
		return goavi.YUY2, nil
	case "UYVY":
		return goavi.UYVY, nil
	case "HDYC":
		return goavi.HDYC, nil
	}
	return goavi.VideoNone, fmt.Errorf("unknown video codec %q", s)
}

func parseAudioCodec(s string) (goavi.AudioCodec, error) {
	switch strings.ToLower(s) {
	case "pcm":
		return goavi.PCM, nil
	case "alaw":
		return goavi.PCMAlaw, nil
	case "mulaw", "ulaw":
		return goavi.PCMMulaw, nil
	}
	return goavi.AudioNone, fmt.Errorf("unknown audio codec %q", s)
}
