package pio

func PutU8(b []byte, v uint8) {
	b[0] = v
}

func PutU16LE(b []byte, v uint16) {
	_ = b[1]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func PutI16LE(b []byte, v int16) {
	PutU16LE(b, uint16(v))
}

func PutU32LE(b []byte, v uint32) {
	_ = b[3]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func PutI32LE(b []byte, v int32) {
	PutU32LE(b, uint32(v))
}

func PutU64LE(b []byte, v uint64) {
	PutU32LE(b, uint32(v))
	PutU32LE(b[4:], uint32(v>>32))
}

func PutU16BE(b []byte, v uint16) {
	_ = b[1]
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

func PutU32BE(b []byte, v uint32) {
	_ = b[3]
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func PutU64BE(b []byte, v uint64) {
	PutU32BE(b, uint32(v>>32))
	PutU32BE(b[4:], uint32(v))
}
