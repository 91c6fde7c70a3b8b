// Package frame provides the in-memory bitmap the pixel codecs read from and write into.
package frame

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// PixelFormat is the layout of one pixel in Image.Pix.
type PixelFormat uint8

const (
	// RGB32 stores a pixel as the little-endian word 0xXXRRGGBB, i.e. bytes B, G, R, X.
	RGB32 PixelFormat = iota + 1
	// YUY2 stores a pixel in 16 bits; a horizontal pair shares chroma: Y0 U Y1 V.
	YUY2
)

const (
	rgb32Size = 4
	yuy2Size  = 2
	opaque    = 0xff
)

// BytesPerPixel returns the storage size of one pixel, 0 for unknown formats.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case RGB32:
		return rgb32Size
	case YUY2:
		return yuy2Size
	}
	return 0
}

func (f PixelFormat) String() string {
	switch f {
	case RGB32:
		return "RGB32"
	case YUY2:
		return "YUY2"
	}
	return "?"
}

// Image is a 2D pixel buffer. Stride is measured in pixels, not bytes.
type Image struct {
	Pix    []byte
	Width  int
	Height int
	Stride int
	Format PixelFormat
}

// New allocates a zeroed image with a tight stride.
func New(format PixelFormat, width, height int) *Image {
	return &Image{
		Pix:    make([]byte, format.BytesPerPixel()*width*height),
		Width:  width,
		Height: height,
		Stride: width,
		Format: format,
	}
}

var errNilImage = errors.New("nil image")

// Validate checks that the declared geometry fits in Pix.
func (img *Image) Validate() error {
	if img == nil {
		return errNilImage
	}
	bpp := img.Format.BytesPerPixel()
	if bpp == 0 {
		return fmt.Errorf("unknown pixel format %d", img.Format)
	}
	if img.Width <= 0 || img.Height <= 0 || img.Stride < img.Width {
		return fmt.Errorf("bad geometry %dx%d stride %d", img.Width, img.Height, img.Stride)
	}
	if img.Format == YUY2 && img.Width%2 != 0 {
		return fmt.Errorf("odd YUY2 width %d", img.Width)
	}
	need := ((img.Height-1)*img.Stride + img.Width) * bpp
	if len(img.Pix) < need {
		return fmt.Errorf("pixel buffer holds %d bytes, geometry needs %d", len(img.Pix), need)
	}
	return nil
}

// PixOffset returns the index into Pix of the first byte of pixel (x, y).
func (img *Image) PixOffset(x, y int) int {
	return (y*img.Stride + x) * img.Format.BytesPerPixel()
}

// Row returns the Width pixels of row y.
func (img *Image) Row(y int) []byte {
	off := img.PixOffset(0, y)
	return img.Pix[off : off+img.Width*img.Format.BytesPerPixel()]
}

// ColorModel returns the color model matching the pixel format.
func (img *Image) ColorModel() color.Model {
	if img.Format == YUY2 {
		return color.YCbCrModel
	}
	return color.RGBAModel
}

// Bounds returns the rectangle of the image.
func (img *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, img.Width, img.Height)
}

// At returns the color at the specified pixel coordinates (x, y).
func (img *Image) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(img.Bounds())) {
		return color.RGBA{}
	}
	i := img.PixOffset(x, y)
	switch img.Format {
	case RGB32:
		s := img.Pix[i : i+rgb32Size : i+rgb32Size]
		return color.RGBA{R: s[2], G: s[1], B: s[0], A: opaque}
	case YUY2:
		pair := img.PixOffset(x&^1, y)
		s := img.Pix[pair : pair+2*yuy2Size : pair+2*yuy2Size]
		return color.YCbCr{Y: img.Pix[i], Cb: s[1], Cr: s[3]}
	}
	return color.RGBA{}
}

// Set sets the color at the specified pixel coordinates (x, y). For YUY2 the chroma
// of the pixel pair is replaced by the chroma of c.
func (img *Image) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(img.Bounds())) {
		return
	}
	i := img.PixOffset(x, y)
	switch img.Format {
	case RGB32:
		c1, _ := color.RGBAModel.Convert(c).(color.RGBA)
		s := img.Pix[i : i+rgb32Size : i+rgb32Size]
		s[0], s[1], s[2], s[3] = c1.B, c1.G, c1.R, 0
	case YUY2:
		c1, _ := color.YCbCrModel.Convert(c).(color.YCbCr)
		pair := img.PixOffset(x&^1, y)
		img.Pix[i] = c1.Y
		img.Pix[pair+1] = c1.Cb
		img.Pix[pair+3] = c1.Cr
	}
}

// Clone returns a deep copy with a tight stride.
func (img *Image) Clone() *Image {
	out := New(img.Format, img.Width, img.Height)
	for y := 0; y < img.Height; y++ {
		copy(out.Row(y), img.Row(y))
	}
	return out
}
