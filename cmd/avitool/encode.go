package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/ugparu/goavi"
	"github.com/ugparu/goavi/format/avi"
	"github.com/ugparu/goavi/frame"
	"github.com/ugparu/goavi/utils/bits/pio"
	"github.com/ugparu/goavi/utils/logger"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

type encodeJob struct {
	out     string
	cfg     goavi.Config
	repeat  int
	images  []string
	pcm     []int16 // interleaved
	riffMax uint
}

func runEncode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	out := fs.String("o", "out.avi", "output AVI file")
	codec := fs.String("codec", "RGB24", "video codec: RGB24, YUY2, UYVY or HDYC")
	fps := fs.String("fps", "25/1", "frame rate as rate/scale")
	repeat := fs.Int("repeat", 1, "frames per input image")
	pcm := fs.String("pcm", "", "raw interleaved S16LE audio file")
	audioCodec := fs.String("audio", "pcm", "stored audio format: pcm, alaw or mulaw")
	bits := fs.Int("bits", 16, "bits per stored PCM sample, 8 or 16")
	rate := fs.Uint("rate", 8000, "audio sample rate")
	channels := fs.Int("channels", 1, "audio channels in -pcm")
	streams := fs.Int("streams", 1, "audio streams the channels are split over")
	riffMax := fs.Uint("riff-limit", 0, "RIFF segment size limit in bytes, 0 for the default")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("no input images")
	}

	job := encodeJob{out: *out, repeat: max(1, *repeat), images: fs.Args(), riffMax: *riffMax}
	var err error
	if job.cfg.VideoCodec, err = parseVideoCodec(*codec); err != nil {
		return err
	}
	if job.cfg.FrameRate, err = parseRational(*fps); err != nil {
		return err
	}
	if *pcm != "" {
		if job.cfg.AudioCodec, err = parseAudioCodec(*audioCodec); err != nil {
			return err
		}
		job.cfg.BitsPerSample = *bits
		if job.cfg.AudioCodec != goavi.PCM {
			job.cfg.BitsPerSample = 8
		}
		job.cfg.SampleRate = uint32(*rate)
		job.cfg.AudioChannels = *channels
		job.cfg.AudioStreams = *streams
		raw, err := os.ReadFile(*pcm)
		if err != nil {
			return err
		}
		job.pcm = make([]int16, len(raw)/2)
		for i := range job.pcm {
			job.pcm[i] = pio.I16LE(raw[2*i:])
		}
	}
	return job.run()
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

func (j *encodeJob) String() string {
	return "ENCODE " + j.out
}

func (j *encodeJob) run() error {
	first, err := loadImage(j.images[0])
	if err != nil {
		return err
	}
	j.cfg.Width, j.cfg.Height = first.Bounds().Dx(), first.Bounds().Dy()
	if j.cfg.VideoCodec.IsYUV() {
		j.cfg.Width &^= 1
	}

	var opts []avi.Option
	if j.riffMax > 0 {
		opts = append(opts, avi.WithRIFFLimit(int64(j.riffMax)))
	}
	m, err := avi.Create(j.out, j.cfg, opts...)
	if err != nil {
		return err
	}
	dst := frame.New(pixelFormat(j.cfg.VideoCodec), j.cfg.Width, j.cfg.Height)
	var frameNo uint32
	for i, path := range j.images {
		src := first
		if i > 0 {
			if src, err = loadImage(path); err != nil {
				_ = m.Close()
				return err
			}
		}
		if src.Bounds().Dx() == j.cfg.Width && src.Bounds().Dy() == j.cfg.Height {
			draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
		} else {
			logger.Debugf(j, "scaling %s from %v", path, src.Bounds().Size())
			draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		}
		for r := 0; r < j.repeat; r++ {
			if err = j.writeAudio(m, frameNo); err != nil {
				_ = m.Close()
				return err
			}
			if err = m.WriteVideoFrame(dst); err != nil {
				_ = m.Close()
				return err
			}
			frameNo++
		}
	}
	logger.Infof(j, "%d frames written", frameNo)
	return m.Close()
}

// writeAudio hands the samples played with frame k to the muxer.
func (j *encodeJob) writeAudio(m *avi.Muxer, k uint32) error {
	ch := j.cfg.AudioChannels
	if ch == 0 || len(j.pcm) == 0 {
		return nil
	}
	total := uint64(len(j.pcm) / ch)
	at := func(k uint32) uint64 {
		return min(total, uint64(k)*uint64(j.cfg.SampleRate)*uint64(j.cfg.FrameRate.Den)/uint64(j.cfg.FrameRate.Num))
	}
	lo, hi := at(k), at(k+1)
	if lo == hi {
		return nil
	}
	for c := 0; c < ch; c++ {
		if err := m.WriteAudio(c, j.pcm[int(lo)*ch+c:int(hi)*ch], ch); err != nil {
			return err
		}
	}
	return nil
}
