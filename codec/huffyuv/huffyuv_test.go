package huffyuv

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ugparu/goavi"
	"github.com/ugparu/goavi/frame"
)

// rle encodes code lengths the way the codec data stores them.
func rle(lengths []uint8) []byte {
	var out []byte
	for i := 0; i < len(lengths); {
		j := i
		for j < len(lengths) && lengths[j] == lengths[i] && j-i < 255 {
			j++
		}
		if run := j - i; run < 8 {
			out = append(out, byte(run<<5)|lengths[i])
		} else {
			out = append(out, lengths[i], byte(run))
		}
		i = j
	}
	return out
}

func extraData(method, flags byte, lengths []uint8) []byte {
	out := []byte{method, 16, flags, 0}
	for i := 0; i < planes; i++ {
		out = append(out, rle(lengths)...)
	}
	return out
}

func flatLengths() []uint8 {
	l := make([]uint8, symbols)
	for i := range l {
		l[i] = 8
	}
	return l
}

// longLengths is a complete code where symbol k has length k+1 up to 17 and
// symbols 17 and 18 share length 18.
func longLengths() []uint8 {
	l := make([]uint8, symbols)
	for k := 0; k <= 16; k++ {
		l[k] = uint8(k + 1)
	}
	l[17], l[18] = 18, 18
	return l
}

// bitWriter produces an MSB-first stream and finally stores it as
// little-endian 32-bit words.
type bitWriter struct {
	out  []byte
	cur  byte
	used uint
}

func (w *bitWriter) put(code uint32, length uint8) {
	for i := int(length) - 1; i >= 0; i-- {
		w.cur = w.cur<<1 | byte(code>>uint(i)&1)
		w.used++
		if w.used == 8 {
			w.out = append(w.out, w.cur)
			w.cur, w.used = 0, 0
		}
	}
}

func (w *bitWriter) bytes() []byte {
	for w.used != 0 {
		w.put(0, 1)
	}
	for len(w.out)%4 != 0 {
		w.out = append(w.out, 0)
	}
	for i := 0; i < len(w.out); i += 4 {
		w.out[i], w.out[i+1], w.out[i+2], w.out[i+3] = w.out[i+3], w.out[i+2], w.out[i+1], w.out[i]
	}
	return w.out
}

func TestLittleEndianWithinBigEndianByte(t *testing.T) {
	t.Parallel()

	data := []byte{3, 2, 1, 0, 7, 6, 5, 4, 9, 9}
	for pos := 0; pos < 8; pos++ {
		require.Equal(t, byte(pos), littleEndianWithinBigEndianByte(data, pos))
	}
	require.Zero(t, littleEndianWithinBigEndianByte(data, 8))
	require.Zero(t, littleEndianWithinBigEndianByte(data, 100))
}

func TestParseTablesDeterministic(t *testing.T) {
	t.Parallel()

	extra := extraData(0, 0, longLengths())
	a, err := ParseTables(extra)
	require.NoError(t, err)
	b, err := ParseTables(extra)
	require.NoError(t, err)
	require.Equal(t, a, b)

	p := &a.Planes[0]
	require.Equal(t, uint32(1), p.Codes[0])
	require.Equal(t, uint32(1), p.Codes[16])
	require.Equal(t, uint32(0), p.Codes[17])
	require.Equal(t, uint32(1), p.Codes[18])
	require.Equal(t, uint32(0x3ffff), p.Masks[17])
	require.Len(t, p.overflow, 1)
	require.Equal(t, lookupEntry{sub: 1}, p.base[0])
	require.Equal(t, lookupEntry{sym: 0, length: 1}, p.base[0xffff])
	require.Equal(t, lookupEntry{sym: 16, length: 1}, p.overflow[0][0x8000])
	require.Equal(t, lookupEntry{sym: 17, length: 2}, p.overflow[0][0x0000])
	require.Equal(t, lookupEntry{sym: 18, length: 2}, p.overflow[0][0x4000])
}

func TestParseTablesErrors(t *testing.T) {
	t.Parallel()

	odd := make([]uint8, symbols)
	odd[0], odd[1], odd[2] = 1, 1, 1

	// eight 2-bit codes: every count is even but the root holds two codes
	over := make([]uint8, symbols)
	for i := 0; i < 8; i++ {
		over[i] = 2
	}

	// four 17-bit codes, one code per length from 15 to 2, three 1-bit codes
	overLong := make([]uint8, symbols)
	for i := 0; i < 4; i++ {
		overLong[i] = 17
	}
	for k := 15; k >= 2; k-- {
		overLong[4+15-k] = uint8(k)
	}
	overLong[18], overLong[19], overLong[20] = 1, 1, 1

	tests := []struct {
		name  string
		extra []byte
		err   error
	}{
		{name: "short", extra: []byte{0, 16}, err: goavi.ErrInvalidData},
		{name: "predictor", extra: extraData(3, 0, flatLengths()), err: goavi.ErrUnsupportedVideoFormat},
		{name: "bpp", extra: append([]byte{0, 24, 0, 0}, rle(flatLengths())...), err: goavi.ErrUnsupportedVideoFormat},
		{name: "context", extra: extraData(0, 0x40, flatLengths()), err: goavi.ErrUnsupportedVideoFormat},
		{name: "odd lengths", extra: extraData(0, 0, odd), err: goavi.ErrInvalidData},
		{name: "over-subscribed lengths", extra: extraData(0, 0, over), err: goavi.ErrInvalidData},
		{name: "over-subscribed long codes", extra: extraData(0, 0, overLong), err: goavi.ErrInvalidData},
		{name: "truncated table", extra: extraData(0, 0, flatLengths())[:6], err: goavi.ErrInvalidData},
		{name: "run overflow", extra: []byte{0, 16, 0, 0, 8, 255, 8, 2}, err: goavi.ErrInvalidData},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var err error
			require.NotPanics(t, func() { _, err = ParseTables(tt.extra) })
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestReadSymbolLongCodes(t *testing.T) {
	t.Parallel()

	tables, err := ParseTables(extraData(0, 0, longLengths()))
	require.NoError(t, err)
	p := &tables.Planes[0]

	want := []uint8{16, 17, 0, 18, 5, 0, 16, 3}
	var w bitWriter
	for _, s := range want {
		w.put(p.Codes[s], p.Lengths[s])
	}
	r := newBitReader(w.bytes())
	for _, s := range want {
		got, err := r.readSymbol(p)
		require.NoError(t, err)
		require.Equal(t, s, got)
	}
}

func TestDecodeHandBuiltLeftFrame(t *testing.T) {
	t.Parallel()

	tables, err := ParseTables(extraData(byte(Left), 0, flatLengths()))
	require.NoError(t, err)
	// V0 Y1 U0 Y0 verbatim, then Y2 U1 Y3 V1 residuals of 10
	src := []byte{10, 100, 20, 200, 10, 10, 10, 10}
	img := frame.New(frame.YUY2, 4, 1)
	require.NoError(t, NewDecoder(tables, nil).Decode(img, src, 4, 1))
	require.Equal(t, []byte{10, 100, 20, 200, 30, 110, 40, 210}, img.Pix)

	err = NewDecoder(tables, nil).Decode(img, src[:4], 4, 1)
	require.ErrorIs(t, err, goavi.ErrInvalidData, "residuals are missing")
}

type testFrame struct {
	w, h    int
	y, u, v []uint8
}

func randomFrame(rnd *rand.Rand, w, h int) testFrame {
	f := testFrame{w: w, h: h, y: make([]uint8, w*h), u: make([]uint8, w/2*h), v: make([]uint8, w/2*h)}
	for _, p := range [][]uint8{f.y, f.u, f.v} {
		for i := range p {
			p[i] = uint8(rnd.Intn(256))
		}
	}
	return f
}

func (f testFrame) rows(y int) (ys, us, vs []uint8) {
	return f.y[y*f.w:][:f.w], f.u[y*f.w/2:][:f.w/2], f.v[y*f.w/2:][:f.w/2]
}

func (f testFrame) yuy2() []byte {
	out := make([]byte, 0, f.w*f.h*2)
	for y := 0; y < f.h; y++ {
		ys, us, vs := f.rows(y)
		for x := 0; x < f.w; x += 2 {
			out = append(out, ys[x], us[x/2], ys[x+1], vs[x/2])
		}
	}
	return out
}

func leftResid(vals []uint8, acc *uint8) []uint8 {
	out := make([]uint8, len(vals))
	for i, v := range vals {
		out[i] = v - *acc
		*acc = v
	}
	return out
}

func medianResid(vals, top []uint8, l, lt *uint8) []uint8 {
	out := make([]uint8, len(vals))
	for i, v := range vals {
		out[i] = v - midPred(*l, top[i], *l+top[i]-*lt)
		*l = v
		*lt = top[i]
	}
	return out
}

func emit(w *bitWriter, ry, ru, rv []uint8) {
	for i := range ru {
		w.put(uint32(ry[2*i]), 8)
		w.put(uint32(ru[i]), 8)
		w.put(uint32(ry[2*i+1]), 8)
		w.put(uint32(rv[i]), 8)
	}
}

// encode compresses f with identity 8-bit codes.
func encode(f testFrame, pred Predictor, dist int) []byte {
	var w bitWriter
	y0, u0, v0 := f.rows(0)
	w.put(uint32(v0[0]), 8)
	w.put(uint32(y0[1]), 8)
	w.put(uint32(u0[0]), 8)
	w.put(uint32(y0[0]), 8)
	ly, lu, lv := y0[1], u0[0], v0[0]
	emit(&w, leftResid(y0[2:], &ly), leftResid(u0[1:], &lu), leftResid(v0[1:], &lv))

	if pred != Median {
		for y := 1; y < f.h; y++ {
			ys, us, vs := f.rows(y)
			if pred == Gradient && y >= dist {
				ay, au, av := f.rows(y - dist)
				ys, us, vs = sub(ys, ay), sub(us, au), sub(vs, av)
			}
			emit(&w, leftResid(ys, &ly), leftResid(us, &lu), leftResid(vs, &lv))
		}
		return w.bytes()
	}

	y := 1
	if dist == 2 && y < f.h {
		ys, us, vs := f.rows(1)
		emit(&w, leftResid(ys, &ly), leftResid(us, &lu), leftResid(vs, &lv))
		y++
	}
	if y < f.h {
		ys, us, vs := f.rows(y)
		ty, tu, tv := f.rows(y - dist)
		emit(&w, leftResid(ys[:4], &ly), leftResid(us[:2], &lu), leftResid(vs[:2], &lv))
		lty, ltu, ltv := y0[3], u0[1], v0[1]
		emit(&w, medianResid(ys[4:], ty[4:], &ly, &lty), medianResid(us[2:], tu[2:], &lu, &ltu), medianResid(vs[2:], tv[2:], &lv, &ltv))
		for y++; y < f.h; y++ {
			ys, us, vs = f.rows(y)
			ty, tu, tv = f.rows(y - dist)
			emit(&w, medianResid(ys, ty, &ly, &lty), medianResid(us, tu, &lu, &ltu), medianResid(vs, tv, &lv, &ltv))
		}
	}
	return w.bytes()
}

func sub(a, b []uint8) []uint8 {
	out := make([]uint8, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

func TestDecodePredictors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		pred  Predictor
		flags byte
		dist  int
		w, h  int
	}{
		{name: "left", pred: Left, dist: 1, w: 8, h: 4},
		{name: "gradient", pred: Gradient, dist: 1, w: 8, h: 5},
		{name: "gradient_interlaced", pred: Gradient, flags: 0x10, dist: 2, w: 6, h: 6},
		{name: "median", pred: Median, dist: 1, w: 8, h: 4},
		{name: "median_interlaced", pred: Median, flags: 0x10, dist: 2, w: 8, h: 5},
		{name: "median_single_row", pred: Median, dist: 1, w: 4, h: 1},
		{name: "decorrelate_ignored", pred: Left | 0x40, dist: 1, w: 4, h: 2},
	}
	for i, tt := range tests {
		i, tt := i, tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tables, err := ParseTables(extraData(byte(tt.pred), tt.flags, flatLengths()))
			require.NoError(t, err)
			pred := tables.Predictor

			f := randomFrame(rand.New(rand.NewSource(int64(i+1))), tt.w, tt.h)
			src := encode(f, pred, tt.dist)
			img := frame.New(frame.YUY2, tt.w, tt.h)
			dec := NewDecoder(tables, nil)
			require.NoError(t, dec.Decode(img, src, tt.w, tt.h))
			require.Equal(t, f.yuy2(), img.Pix)

			// decoding twice through the same scratch gives the same frame
			again := frame.New(frame.YUY2, tt.w, tt.h)
			require.NoError(t, dec.Decode(again, src, tt.w, tt.h))
			require.Equal(t, img.Pix, again.Pix)
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	t.Parallel()

	tables, err := ParseTables(extraData(0, 0, flatLengths()))
	require.NoError(t, err)
	dec := NewDecoder(tables, nil)

	err = dec.Decode(frame.New(frame.RGB32, 4, 2), make([]byte, 16), 4, 2)
	require.ErrorIs(t, err, goavi.ErrInvalidImage)

	err = dec.Decode(frame.New(frame.YUY2, 2, 2), make([]byte, 16), 2, 2)
	require.ErrorIs(t, err, goavi.ErrUnsupportedVideoFormat)

	// a table without any codes leaves every prefix unassigned
	empty, err := ParseTables(extraData(0, 0, make([]uint8, symbols)))
	require.NoError(t, err)
	err = NewDecoder(empty, nil).Decode(frame.New(frame.YUY2, 4, 2), make([]byte, 64), 4, 2)
	require.ErrorIs(t, err, goavi.ErrInvalidData)
}
