// Package rgb24 converts between RGB32 images and the bottom-up packed 24-bit
// rows of an uncompressed BI_RGB video stream.
package rgb24

import (
	"github.com/ugparu/goavi"
	"github.com/ugparu/goavi/frame"
)

const bytesPerPixel = 3

// RowSize is the stored length of one row: 3 bytes per pixel padded to 4 bytes.
func RowSize(width int) int {
	return (width*bytesPerPixel + 3) &^ 3 //nolint:mnd
}

// FrameSize is the payload length of one width x height frame.
func FrameSize(width, height int) int {
	return RowSize(width) * height
}

func checkImage(op string, img *frame.Image) error {
	if err := img.Validate(); err != nil {
		return goavi.Wrap(goavi.ErrInvalidImage, op, err)
	}
	if img.Format != frame.RGB32 {
		return goavi.Errorf(goavi.ErrInvalidImage, op, "need RGB32 image, got %s", img.Format)
	}
	return nil
}

// Pack writes img into dst as a width x height frame. Parts of the frame not
// covered by the image are zero; image pixels beyond the frame are dropped.
func Pack(dst []byte, img *frame.Image, width, height int) error {
	if err := checkImage("rgb24 pack", img); err != nil {
		return err
	}
	rowSize := RowSize(width)
	if len(dst) < rowSize*height {
		return goavi.Errorf(goavi.ErrInvalidData, "rgb24 pack", "destination holds %d bytes, need %d", len(dst), rowSize*height)
	}
	cols := min(width, img.Width)
	for y := 0; y < height; y++ {
		row := dst[(height-1-y)*rowSize:][:rowSize]
		if y >= img.Height {
			clear(row)
			continue
		}
		src := img.Row(y)
		for x := 0; x < cols; x++ {
			row[x*3+0] = src[x*4+0]
			row[x*3+1] = src[x*4+1]
			row[x*3+2] = src[x*4+2]
		}
		clear(row[cols*bytesPerPixel:])
	}
	return nil
}

// Unpack decodes a width x height frame into img. Only the area shared by the
// frame and the image is written.
func Unpack(img *frame.Image, src []byte, width, height int) error {
	if err := checkImage("rgb24 unpack", img); err != nil {
		return err
	}
	rowSize := RowSize(width)
	if len(src) < rowSize*height {
		return goavi.Errorf(goavi.ErrInvalidData, "rgb24 unpack", "frame holds %d bytes, need %d", len(src), rowSize*height)
	}
	cols := min(width, img.Width)
	rows := min(height, img.Height)
	for y := 0; y < rows; y++ {
		row := src[(height-1-y)*rowSize:][:rowSize]
		out := img.Row(y)
		for x := 0; x < cols; x++ {
			out[x*4+0] = row[x*3+0]
			out[x*4+1] = row[x*3+1]
			out[x*4+2] = row[x*3+2]
			out[x*4+3] = 0
		}
	}
	return nil
}
