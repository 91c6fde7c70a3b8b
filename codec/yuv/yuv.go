// Package yuv moves packed 4:2:2 frames between YUY2 images and the stored
// byte orders YUY2, UYVY and HDYC.
package yuv

import (
	"github.com/ugparu/goavi"
	"github.com/ugparu/goavi/frame"
)

const bytesPerPixel = 2

// FrameSize is the payload length of one width x height frame.
func FrameSize(width, height int) int {
	return width * height * bytesPerPixel
}

// swapped reports whether the stored order has chroma first in each 16-bit word.
func swapped(codec goavi.VideoCodec) (bool, error) {
	switch codec {
	case goavi.YUY2:
		return false, nil
	case goavi.UYVY, goavi.HDYC:
		return true, nil
	}
	return false, goavi.Errorf(goavi.ErrUnsupportedVideoFormat, "yuv", "%s is not a packed YUV format", codec)
}

func copyRow(dst, src []byte, swap bool) {
	if !swap {
		copy(dst, src)
		return
	}
	n := min(len(dst), len(src)) &^ 1
	for i := 0; i < n; i += 2 {
		dst[i], dst[i+1] = src[i+1], src[i]
	}
}

func check(op string, img *frame.Image, buf []byte, width, height int) error {
	if err := img.Validate(); err != nil {
		return goavi.Wrap(goavi.ErrInvalidImage, op, err)
	}
	if img.Format != frame.YUY2 {
		return goavi.Errorf(goavi.ErrInvalidImage, op, "need YUY2 image, got %s", img.Format)
	}
	if len(buf) < FrameSize(width, height) {
		return goavi.Errorf(goavi.ErrInvalidData, op, "buffer holds %d bytes, need %d", len(buf), FrameSize(width, height))
	}
	return nil
}

// Encode stores img as a width x height frame in the byte order of codec.
// Rows are top-down. Uncovered parts are zero, extra image pixels are dropped.
func Encode(dst []byte, img *frame.Image, codec goavi.VideoCodec, width, height int) error {
	swap, err := swapped(codec)
	if err != nil {
		return err
	}
	if err = check("yuv encode", img, dst, width, height); err != nil {
		return err
	}
	rowSize := width * bytesPerPixel
	cols := min(width, img.Width) * bytesPerPixel
	for y := 0; y < height; y++ {
		row := dst[y*rowSize:][:rowSize]
		if y >= img.Height {
			clear(row)
			continue
		}
		copyRow(row[:cols], img.Row(y), swap)
		clear(row[cols:])
	}
	return nil
}

// Decode loads a width x height frame stored in the byte order of codec into img.
func Decode(img *frame.Image, src []byte, codec goavi.VideoCodec, width, height int) error {
	swap, err := swapped(codec)
	if err != nil {
		return err
	}
	if err = check("yuv decode", img, src, width, height); err != nil {
		return err
	}
	rowSize := width * bytesPerPixel
	cols := min(width, img.Width) * bytesPerPixel
	for y := 0; y < min(height, img.Height); y++ {
		copyRow(img.Row(y)[:cols], src[y*rowSize:][:cols], swap)
	}
	return nil
}
