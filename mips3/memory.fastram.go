package mips3

import (
	"encoding/binary"
	"fmt"
)

// A physical memory region accessed directly by the core, bypassing the
// address space. Data is stored in guest byte order
type FastRAM struct {
	Range
	ReadOnly bool
	Data     []byte
}

// Registers a fast RAM region covering physical addresses [start, end]. Up to
// MAX_FASTRAM regions can be registered
func (cpu *CPU) AddFastRAM(start, end uint32, readonly bool, data []byte) error {
	if len(cpu.fastRAM) >= MAX_FASTRAM {
		return fmt.Errorf("%w: limit is %d", ErrTooManyFastRAM, MAX_FASTRAM)
	}
	if end < start {
		return fmt.Errorf("mips3: fast RAM end 0x%08x is below start 0x%08x", end, start)
	}
	length := end - start + 1
	if uint64(len(data)) < uint64(length) {
		return fmt.Errorf("mips3: fast RAM at 0x%08x needs %d bytes, got %d", start, length, len(data))
	}
	cpu.fastRAM = append(cpu.fastRAM, FastRAM{
		Range:    NewRange(start, length),
		ReadOnly: readonly,
		Data:     data[:length],
	})
	cpu.log.Debugf("fast RAM 0x%08x-0x%08x readonly=%v", start, end, readonly)

	// remapping memory changes what compiled code reads
	if cpu.drc != nil {
		cpu.drc.Invalidate()
	}
	return nil
}

// Returns the fast RAM region holding the `size` bytes at `addr`, or nil
func (cpu *CPU) fastRead(addr, size uint32) *FastRAM {
	for i := range cpu.fastRAM {
		if cpu.fastRAM[i].ContainsSpan(addr, size) {
			return &cpu.fastRAM[i]
		}
	}
	return nil
}

// Returns the writable fast RAM region holding the `size` bytes at `addr`, or nil.
// Read only regions are skipped so the write reaches the address space
func (cpu *CPU) fastWrite(addr, size uint32) *FastRAM {
	for i := range cpu.fastRAM {
		if !cpu.fastRAM[i].ReadOnly && cpu.fastRAM[i].ContainsSpan(addr, size) {
			return &cpu.fastRAM[i]
		}
	}
	return nil
}

func (f *FastRAM) load8(addr uint32) uint8 {
	return f.Data[f.Offset(addr)]
}

func (f *FastRAM) load16(order binary.ByteOrder, addr uint32) uint16 {
	return order.Uint16(f.Data[f.Offset(addr):])
}

func (f *FastRAM) load32(order binary.ByteOrder, addr uint32) uint32 {
	return order.Uint32(f.Data[f.Offset(addr):])
}

func (f *FastRAM) load64(order binary.ByteOrder, addr uint32) uint64 {
	return order.Uint64(f.Data[f.Offset(addr):])
}

func (f *FastRAM) store8(addr uint32, val uint8) {
	f.Data[f.Offset(addr)] = val
}

func (f *FastRAM) store16(order binary.ByteOrder, addr uint32, val uint16) {
	order.PutUint16(f.Data[f.Offset(addr):], val)
}

func (f *FastRAM) store32(order binary.ByteOrder, addr uint32, val, mask uint32) {
	b := f.Data[f.Offset(addr):]
	if mask != 0xffffffff {
		val = (order.Uint32(b) &^ mask) | (val & mask)
	}
	order.PutUint32(b, val)
}

func (f *FastRAM) store64(order binary.ByteOrder, addr uint32, val, mask uint64) {
	b := f.Data[f.Offset(addr):]
	if mask != ^uint64(0) {
		val = (order.Uint64(b) &^ mask) | (val & mask)
	}
	order.PutUint64(b, val)
}
