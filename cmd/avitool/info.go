package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/ugparu/goavi/format/avi"
	"golang.org/x/image/bmp"
)

func runInfo(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	in := fs.String("i", "", "input AVI file")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errNoInput
	}
	d, err := avi.Open(*in)
	if err != nil {
		return err
	}
	defer d.Close()

	info := describe(*in, d)
	if *asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	return printInfo(w, info)
}

func printInfo(w io.Writer, info movieInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "file\t%s\n", info.Path)
	fmt.Fprintf(tw, "video\t%s %dx%d @ %s fps, %d frames\n", info.VideoCodec, info.Width, info.Height, info.FrameRate, info.Frames)
	if info.AudioChannels > 0 {
		fmt.Fprintf(tw, "audio\t%s %d bit, %d Hz, %d channels in %d streams, %d samples\n",
			info.AudioCodec, info.BitsPerSample, info.SampleRate, info.AudioChannels, info.AudioStreams, info.AudioSamples)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "#\tkind\tid\thandler\tlength\tchunks\tname")
	for _, s := range info.Streams {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%s\n", s.Number, s.Kind, s.ChunkID, s.Handler, s.Length, s.Chunks, s.Name)
	}
	return tw.Flush()
}

func runDump(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	in := fs.String("i", "", "input AVI file")
	movi := fs.Bool("movi", false, "list the sample chunks of every movi list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errNoInput
	}
	d, err := avi.Open(*in)
	if err != nil {
		return err
	}
	defer d.Close()
	if *movi {
		return d.DumpSamples(w)
	}
	return d.Dump(w)
}

func runFrame(args []string) error {
	fs := flag.NewFlagSet("frame", flag.ContinueOnError)
	in := fs.String("i", "", "input AVI file")
	n := fs.Uint("n", 0, "frame number")
	out := fs.String("o", "frame.bmp", "output BMP file")
	scale := fs.Float64("scale", 1, "resize factor")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errNoInput
	}
	d, err := avi.Open(*in)
	if err != nil {
		return err
	}
	defer d.Close()

	img, err := decodeFrame(d, uint32(*n))
	if err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err = bmp.Encode(f, scaled(img, *scale)); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
