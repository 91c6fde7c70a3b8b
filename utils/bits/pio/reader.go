// Package pio reads and writes fixed-width integers in byte slices.
package pio

func U8(b []byte) uint8 {
	return b[0]
}

func U16LE(b []byte) uint16 {
	_ = b[1]
	return uint16(b[0]) | uint16(b[1])<<8
}

func I16LE(b []byte) int16 {
	return int16(U16LE(b))
}

func U32LE(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func I32LE(b []byte) int32 {
	return int32(U32LE(b))
}

func U64LE(b []byte) uint64 {
	return uint64(U32LE(b)) | uint64(U32LE(b[4:]))<<32
}

func U16BE(b []byte) uint16 {
	_ = b[1]
	return uint16(b[0])<<8 | uint16(b[1])
}

func U32BE(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func U64BE(b []byte) uint64 {
	return uint64(U32BE(b))<<32 | uint64(U32BE(b[4:]))
}
