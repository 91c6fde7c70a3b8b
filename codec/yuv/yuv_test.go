package yuv

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ugparu/goavi"
	"github.com/ugparu/goavi/frame"
)

func pattern(w, h int) *frame.Image {
	img := frame.New(frame.YUY2, w, h)
	for i := range img.Pix {
		img.Pix[i] = byte(i*7 + 3)
	}
	return img
}

func TestByteOrder(t *testing.T) {
	t.Parallel()

	img := frame.New(frame.YUY2, 2, 1)
	copy(img.Pix, []byte{'Y', 'U', 'y', 'V'})

	tests := []struct {
		codec goavi.VideoCodec
		want  string
	}{
		{goavi.YUY2, "YUyV"},
		{goavi.UYVY, "UYVy"},
		{goavi.HDYC, "UYVy"},
	}
	for _, tt := range tests {
		dst := make([]byte, FrameSize(2, 1))
		require.NoError(t, Encode(dst, img, tt.codec, 2, 1))
		require.Equal(t, tt.want, string(dst), tt.codec.String())
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for _, codec := range []goavi.VideoCodec{goavi.YUY2, goavi.UYVY, goavi.HDYC} {
		img := pattern(8, 3)
		buf := make([]byte, FrameSize(8, 3))
		require.NoError(t, Encode(buf, img, codec, 8, 3))
		out := frame.New(frame.YUY2, 8, 3)
		require.NoError(t, Decode(out, buf, codec, 8, 3))
		require.Equal(t, img.Pix, out.Pix, codec.String())
	}
}

func TestUnsupportedFormatTouchesNothing(t *testing.T) {
	t.Parallel()

	dst := []byte{1, 2, 3, 4}
	err := Encode(dst, pattern(2, 1), goavi.RGB24, 2, 1)
	require.ErrorIs(t, err, goavi.ErrUnsupportedVideoFormat)
	require.Equal(t, []byte{1, 2, 3, 4}, dst)

	img := pattern(2, 1)
	before := append([]byte(nil), img.Pix...)
	err = Decode(img, []byte{9, 9, 9, 9}, goavi.HuffYUV, 2, 1)
	require.ErrorIs(t, err, goavi.ErrUnsupportedVideoFormat)
	require.Equal(t, before, img.Pix)
}

func TestPadding(t *testing.T) {
	t.Parallel()

	dst := make([]byte, FrameSize(4, 2))
	for i := range dst {
		dst[i] = 0xEE
	}
	require.NoError(t, Encode(dst, pattern(2, 1), goavi.YUY2, 4, 2))
	require.Equal(t, pattern(2, 1).Pix, dst[:4])
	require.Equal(t, make([]byte, 12), dst[4:])

	err := Encode(dst, frame.New(frame.RGB32, 4, 2), goavi.YUY2, 4, 2)
	require.ErrorIs(t, err, goavi.ErrInvalidImage)
}
