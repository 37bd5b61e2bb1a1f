package mips3

import "encoding/binary"

// System RAM. Multi-byte values are stored in guest byte order
type RAM struct {
	Data  []byte // RAM buffer
	order binary.ByteOrder
}

// Creates a new RAM instance of `size` bytes, filled with garbage values
func NewRAM(size uint32, order binary.ByteOrder) *RAM {
	ram := &RAM{
		Data:  make([]byte, size),
		order: order,
	}
	for i := range ram.Data {
		ram.Data[i] = 0xcd
	}
	return ram
}

// Fetches the byte at `offset`
func (ram *RAM) Load8(offset uint32) uint8 {
	return ram.Data[offset]
}

// Loads a 16 bit value at `offset`
func (ram *RAM) Load16(offset uint32) uint16 {
	return ram.order.Uint16(ram.Data[offset:])
}

// Loads a 32 bit value at `offset`
func (ram *RAM) Load32(offset uint32) uint32 {
	return ram.order.Uint32(ram.Data[offset:])
}

// Loads a 64 bit value at `offset`
func (ram *RAM) Load64(offset uint32) uint64 {
	return ram.order.Uint64(ram.Data[offset:])
}

// Sets the byte at `offset`
func (ram *RAM) Store8(offset uint32, val uint8) {
	ram.Data[offset] = val
}

// Stores a 16 bit value into `offset`
func (ram *RAM) Store16(offset uint32, val uint16) {
	ram.order.PutUint16(ram.Data[offset:], val)
}

// Stores the byte lanes of `val` selected by `mask` into the word at `offset`
func (ram *RAM) Store32(offset, val, mask uint32) {
	b := ram.Data[offset:]
	if mask != 0xffffffff {
		val = (ram.order.Uint32(b) &^ mask) | (val & mask)
	}
	ram.order.PutUint32(b, val)
}

// Stores the byte lanes of `val` selected by `mask` into the doubleword at `offset`
func (ram *RAM) Store64(offset uint32, val, mask uint64) {
	b := ram.Data[offset:]
	if mask != ^uint64(0) {
		val = (ram.order.Uint64(b) &^ mask) | (val & mask)
	}
	ram.order.PutUint64(b, val)
}
