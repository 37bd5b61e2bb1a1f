package mips3

import (
	"encoding/binary"
	"fmt"
	"io"
)

const MAX_ROM_SIZE uint32 = 4 * 1024 * 1024 // The boot ROM window at 0x1fc00000 is 4MB

// Read only boot image
type ROM struct {
	Data  []byte // Raw ROM data
	order binary.ByteOrder
}

// Loads a ROM image from a reader. The image must be a non-empty multiple of
// 4 bytes, no larger than MAX_ROM_SIZE
func LoadROM(r io.Reader, order binary.ByteOrder) (*ROM, error) {
	data, err := io.ReadAll(io.LimitReader(r, int64(MAX_ROM_SIZE)+1))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || len(data)%4 != 0 || uint32(len(data)) > MAX_ROM_SIZE {
		return nil, fmt.Errorf("%w: got %d bytes, expected a multiple of 4 up to %d", ErrROMSize, len(data), MAX_ROM_SIZE)
	}
	return &ROM{Data: data, order: order}, nil
}

// Fetch byte at `offset`
func (rom *ROM) Load8(offset uint32) uint8 {
	return rom.Data[offset]
}

// Returns the 16 bit value at `offset`
func (rom *ROM) Load16(offset uint32) uint16 {
	return rom.order.Uint16(rom.Data[offset:])
}

// Returns the 32 bit value at `offset`. Note that `offset` is not the
// physical address used by the CPU, instead it is an offset in the ROM
func (rom *ROM) Load32(offset uint32) uint32 {
	return rom.order.Uint32(rom.Data[offset:])
}

// Returns the 64 bit value at `offset`
func (rom *ROM) Load64(offset uint32) uint64 {
	return rom.order.Uint64(rom.Data[offset:])
}
