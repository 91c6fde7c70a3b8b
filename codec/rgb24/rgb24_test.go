package rgb24

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ugparu/goavi"
	"github.com/ugparu/goavi/frame"
)

func gradient(w, h int) *frame.Image {
	img := frame.New(frame.RGB32, w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i+0] = byte(x)
			img.Pix[i+1] = byte(y)
			img.Pix[i+2] = byte(x + y)
		}
	}
	return img
}

func TestRowSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		width, want int
	}{
		{1, 4}, {2, 8}, {3, 12}, {4, 12}, {5, 16}, {320, 960},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, RowSize(tt.width), "width %d", tt.width)
	}
}

func TestPackIsBottomUp(t *testing.T) {
	t.Parallel()

	img := gradient(3, 2)
	dst := make([]byte, FrameSize(3, 2))
	require.NoError(t, Pack(dst, img, 3, 2))
	// first stored row is image row 1
	require.Equal(t, []byte{0, 1, 1, 1, 1, 2, 2, 1, 3, 0, 0, 0}, dst[:12])
	require.Equal(t, []byte{0, 0, 0, 1, 0, 1, 2, 0, 2, 0, 0, 0}, dst[12:])
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	img := gradient(7, 5)
	dst := make([]byte, FrameSize(7, 5))
	require.NoError(t, Pack(dst, img, 7, 5))

	out := frame.New(frame.RGB32, 7, 5)
	require.NoError(t, Unpack(out, dst, 7, 5))
	require.Equal(t, img.Pix, out.Pix)
}

func TestPackPadsAndTruncates(t *testing.T) {
	t.Parallel()

	small := gradient(2, 1)
	dst := make([]byte, FrameSize(4, 2))
	for i := range dst {
		dst[i] = 0xEE
	}
	require.NoError(t, Pack(dst, small, 4, 2))
	require.Equal(t, make([]byte, RowSize(4)), dst[:RowSize(4)], "missing bottom row is zero")
	require.Equal(t, []byte{0, 0, 0, 1, 0, 1}, dst[RowSize(4):][:6])
	require.Equal(t, make([]byte, 6), dst[RowSize(4)+6:])

	large := gradient(6, 4)
	dst = make([]byte, FrameSize(2, 2))
	require.NoError(t, Pack(dst, large, 2, 2))
	require.Equal(t, []byte{0, 0, 0, 1, 0, 1, 0, 0}, dst[RowSize(2):])
}

func TestRejectsWrongImage(t *testing.T) {
	t.Parallel()

	yuv := frame.New(frame.YUY2, 4, 4)
	err := Pack(make([]byte, FrameSize(4, 4)), yuv, 4, 4)
	require.ErrorIs(t, err, goavi.ErrInvalidImage)

	err = Unpack(frame.New(frame.RGB32, 4, 4), make([]byte, 3), 4, 4)
	require.ErrorIs(t, err, goavi.ErrInvalidData)
}
