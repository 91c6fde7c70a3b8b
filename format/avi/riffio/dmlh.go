package riffio

import "github.com/ugparu/goavi/utils/bits/pio"

const dmlhSize = 248

// ODMLHeader is the dmlh chunk of LIST odml. Only the total frame count is
// meaningful; the rest of the chunk is reserved space.
type ODMLHeader struct {
	TotalFrames uint32 // frames over all RIFF segments
}

func (h ODMLHeader) Len() int {
	return dmlhSize
}

func (h ODMLHeader) Marshal(b []byte) (n int) {
	pio.PutU32LE(b, h.TotalFrames)
	clear(b[4:dmlhSize])
	return dmlhSize
}

func (h *ODMLHeader) Unmarshal(b []byte, offset int64) (n int, err error) {
	r := fieldReader{b: b, offset: offset}
	h.TotalFrames = r.u32("TotalFrames")
	if r.err != nil {
		return r.n, parseErr("dmlh", offset, r.err)
	}
	return len(b), nil
}
