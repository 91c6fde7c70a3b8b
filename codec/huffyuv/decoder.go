package huffyuv

import (
	"github.com/ugparu/goavi"
	"github.com/ugparu/goavi/codec"
	"github.com/ugparu/goavi/frame"
)

// Decoder reconstructs frames of one stream. It reuses its plane buffer
// between frames.
type Decoder struct {
	tables  *Tables
	scratch *codec.ScratchBuffer

	// per frame state
	r     *bitReader
	resid [planes][]uint8
}

// NewDecoder returns a decoder for a stream with the given tables. scratch may
// be shared with nothing else while Decode runs; nil allocates a private one.
func NewDecoder(t *Tables, scratch *codec.ScratchBuffer) *Decoder {
	if scratch == nil {
		scratch = codec.NewScratchBuffer()
	}
	return &Decoder{tables: t, scratch: scratch}
}

// plane is one component of the frame being rebuilt, stored row-major.
type plane struct {
	pix    []uint8
	stride int
}

func (p plane) row(y int) []uint8 {
	return p.pix[y*p.stride:][:p.stride]
}

// readPairs decodes count luma samples and the chroma between them in stream
// order Y0 U Y1 V.
func (d *Decoder) readPairs(count int) error {
	y, u, v := d.resid[0][:count], d.resid[1][:count/2], d.resid[2][:count/2]
	var err error
	for i := 0; i < count/2; i++ {
		if y[2*i], err = d.r.readSymbol(&d.tables.Planes[0]); err != nil {
			return err
		}
		if u[i], err = d.r.readSymbol(&d.tables.Planes[1]); err != nil {
			return err
		}
		if y[2*i+1], err = d.r.readSymbol(&d.tables.Planes[0]); err != nil {
			return err
		}
		if v[i], err = d.r.readSymbol(&d.tables.Planes[2]); err != nil {
			return err
		}
	}
	return nil
}

// addLeft accumulates diff into dst and returns the running value.
func addLeft(dst, diff []uint8, acc uint8) uint8 {
	for i := range dst {
		acc += diff[i]
		dst[i] = acc
	}
	return acc
}

func addAbove(dst, above []uint8) {
	for i := range dst {
		dst[i] += above[i]
	}
}

func midPred(a, b, c uint8) uint8 {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b = c
		if a > b {
			b = a
		}
	}
	return b
}

// addMedian predicts each sample from its left, top and top-left neighbours.
func addMedian(dst, top, diff []uint8, left, leftTop *uint8) {
	l, lt := *left, *leftTop
	for i := range dst {
		l = midPred(l, top[i], l+top[i]-lt) + diff[i]
		lt = top[i]
		dst[i] = l
	}
	*left, *leftTop = l, lt
}

// Decode decodes the compressed frame src of a width x height stream into img.
// Only the area shared by the frame and the image is written.
func (d *Decoder) Decode(img *frame.Image, src []byte, width, height int) error {
	if err := img.Validate(); err != nil {
		return goavi.Wrap(goavi.ErrInvalidImage, "huffyuv decode", err)
	}
	if img.Format != frame.YUY2 {
		return goavi.Errorf(goavi.ErrInvalidImage, "huffyuv decode", "need YUY2 image, got %s", img.Format)
	}
	if width < 4 || width%2 != 0 || height < 1 { //nolint:mnd
		return goavi.Errorf(goavi.ErrUnsupportedVideoFormat, "huffyuv decode", "frame size %dx%d", width, height)
	}

	buf := d.scratch.Ensure(width*height*2 + width*2) //nolint:mnd
	pl := [planes]plane{
		{pix: buf[:width*height], stride: width},
		{pix: buf[width*height:][:width/2*height], stride: width / 2},
		{pix: buf[width*height+width/2*height:][:width/2*height], stride: width / 2},
	}
	resid := buf[width*height*2:]
	d.resid = [planes][]uint8{resid[:width], resid[width:][:width/2], resid[width+width/2:][:width/2]}
	d.r = newBitReader(src)
	defer func() { d.r = nil }()

	var err error
	if d.tables.Predictor == Median {
		err = d.decodeMedian(pl, width, height)
	} else {
		err = d.decodeLeft(pl, width, height)
	}
	if err != nil {
		return err
	}
	if used := d.r.consumed(); used > 8*len(src) { //nolint:mnd
		return goavi.Errorf(goavi.ErrInvalidData, "huffyuv decode", "frame needs %d bits, chunk holds %d", used, 8*len(src))
	}

	cols := min(width, img.Width) &^ 1
	for y := 0; y < min(height, img.Height); y++ {
		out := img.Row(y)
		ys, us, vs := pl[0].row(y), pl[1].row(y), pl[2].row(y)
		for x := 0; x < cols; x += 2 {
			out[2*x+0] = ys[x]
			out[2*x+1] = us[x/2]
			out[2*x+2] = ys[x+1]
			out[2*x+3] = vs[x/2]
		}
	}
	return nil
}

// first reads the verbatim first pixel pair and returns the left predictors.
func (d *Decoder) first(pl [planes]plane) (ly, lu, lv uint8) {
	lv = d.r.readByte()
	ly = d.r.readByte()
	lu = d.r.readByte()
	y0 := d.r.readByte()
	pl[0].pix[0], pl[0].pix[1] = y0, ly
	pl[1].pix[0] = lu
	pl[2].pix[0] = lv
	return
}

// decodeLeft handles the left predictor and, when the predictor is Gradient,
// adds the row one field line above after left reconstruction.
func (d *Decoder) decodeLeft(pl [planes]plane, width, height int) error {
	dist := 1
	if d.tables.Interlaced(height) {
		dist = 2
	}
	ly, lu, lv := d.first(pl)
	if err := d.readPairs(width - 2); err != nil {
		return err
	}
	ly = addLeft(pl[0].row(0)[2:], d.resid[0], ly)
	lu = addLeft(pl[1].row(0)[1:], d.resid[1], lu)
	lv = addLeft(pl[2].row(0)[1:], d.resid[2], lv)

	for y := 1; y < height; y++ {
		if err := d.readPairs(width); err != nil {
			return err
		}
		yr, ur, vr := pl[0].row(y), pl[1].row(y), pl[2].row(y)
		ly = addLeft(yr, d.resid[0], ly)
		lu = addLeft(ur, d.resid[1], lu)
		lv = addLeft(vr, d.resid[2], lv)
		if d.tables.Predictor == Gradient && y >= dist {
			addAbove(yr, pl[0].row(y-dist))
			addAbove(ur, pl[1].row(y-dist))
			addAbove(vr, pl[2].row(y-dist))
		}
	}
	return nil
}

func (d *Decoder) decodeMedian(pl [planes]plane, width, height int) error {
	dist := 1
	if d.tables.Interlaced(height) {
		dist = 2
	}
	ly, lu, lv := d.first(pl)
	if err := d.readPairs(width - 2); err != nil {
		return err
	}
	ly = addLeft(pl[0].row(0)[2:], d.resid[0], ly)
	lu = addLeft(pl[1].row(0)[1:], d.resid[1], lu)
	lv = addLeft(pl[2].row(0)[1:], d.resid[2], lv)

	y := 1
	if y >= height {
		return nil
	}
	// the second line of the first field has no line above it
	if dist == 2 {
		if err := d.readPairs(width); err != nil {
			return err
		}
		ly = addLeft(pl[0].row(1), d.resid[0], ly)
		lu = addLeft(pl[1].row(1), d.resid[1], lu)
		lv = addLeft(pl[2].row(1), d.resid[2], lv)
		y++
		if y >= height {
			return nil
		}
	}

	// the first two pixel pairs of the line are left predicted
	if err := d.readPairs(4); err != nil { //nolint:mnd
		return err
	}
	yr, ur, vr := pl[0].row(y), pl[1].row(y), pl[2].row(y)
	ly = addLeft(yr[:4], d.resid[0], ly)
	lu = addLeft(ur[:2], d.resid[1], lu)
	lv = addLeft(vr[:2], d.resid[2], lv)

	lty, ltu, ltv := pl[0].pix[3], pl[1].pix[1], pl[2].pix[1]
	if err := d.readPairs(width - 4); err != nil { //nolint:mnd
		return err
	}
	addMedian(yr[4:], pl[0].row(y-dist)[4:], d.resid[0], &ly, &lty)
	addMedian(ur[2:], pl[1].row(y-dist)[2:], d.resid[1], &lu, &ltu)
	addMedian(vr[2:], pl[2].row(y-dist)[2:], d.resid[2], &lv, &ltv)

	for y++; y < height; y++ {
		if err := d.readPairs(width); err != nil {
			return err
		}
		addMedian(pl[0].row(y), pl[0].row(y-dist), d.resid[0], &ly, &lty)
		addMedian(pl[1].row(y), pl[1].row(y-dist), d.resid[1], &lu, &ltu)
		addMedian(pl[2].row(y), pl[2].row(y-dist), d.resid[2], &lv, &ltv)
	}
	return nil
}
