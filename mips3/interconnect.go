package mips3

import "github.com/sirupsen/logrus"

// Default physical memory map
const (
	RAM_BASE uint32 = 0x00000000
	ROM_BASE uint32 = 0x1fc00000 // Seen at 0xbfc00000 through kseg1, the reset vector
)

// A simple physical bus holding RAM and a boot ROM. It implements AddressSpace
type Interconnect struct {
	RAM      *RAM
	RAMRange Range
	ROM      *ROM
	ROMRange Range
	Strict   bool // Unmapped accesses are host-fatal instead of being ignored

	log *logrus.Entry
}

// Creates a new interconnect with `ram` at `ramBase` and `rom` at `romBase`.
// Either may be nil
func NewInterconnect(ram *RAM, ramBase uint32, rom *ROM, romBase uint32) *Interconnect {
	inter := &Interconnect{
		RAM: ram,
		ROM: rom,
		log: logrus.WithField("bus", "interconnect"),
	}
	if ram != nil {
		inter.RAMRange = NewRange(ramBase, uint32(len(ram.Data)))
	}
	if rom != nil {
		inter.ROMRange = NewRange(romBase, uint32(len(rom.Data)))
	}
	return inter
}

func (inter *Interconnect) unmapped(kind string, addr uint32) {
	if inter.Strict {
		inter.log.Errorf("unhandled %s at address 0x%08x", kind, addr)
		panicFmt("interconnect: unhandled %s at address 0x%08x", kind, addr)
	}
	inter.log.Warnf("unhandled %s at address 0x%08x", kind, addr)
}

func (inter *Interconnect) Read8(addr uint32) uint8 {
	if inter.RAM != nil && inter.RAMRange.Contains(addr) {
		return inter.RAM.Load8(inter.RAMRange.Offset(addr))
	}
	if inter.ROM != nil && inter.ROMRange.Contains(addr) {
		return inter.ROM.Load8(inter.ROMRange.Offset(addr))
	}
	inter.unmapped("read8", addr)
	return 0xff
}

func (inter *Interconnect) Read16(addr uint32) uint16 {
	if inter.RAM != nil && inter.RAMRange.ContainsSpan(addr, 2) {
		return inter.RAM.Load16(inter.RAMRange.Offset(addr))
	}
	if inter.ROM != nil && inter.ROMRange.ContainsSpan(addr, 2) {
		return inter.ROM.Load16(inter.ROMRange.Offset(addr))
	}
	inter.unmapped("read16", addr)
	return 0xffff
}

func (inter *Interconnect) Read32(addr uint32, mask uint32) uint32 {
	if inter.RAM != nil && inter.RAMRange.ContainsSpan(addr, 4) {
		return inter.RAM.Load32(inter.RAMRange.Offset(addr)) & mask
	}
	if inter.ROM != nil && inter.ROMRange.ContainsSpan(addr, 4) {
		return inter.ROM.Load32(inter.ROMRange.Offset(addr)) & mask
	}
	inter.unmapped("read32", addr)
	return 0xffffffff & mask
}

func (inter *Interconnect) Read64(addr uint32, mask uint64) uint64 {
	if inter.RAM != nil && inter.RAMRange.ContainsSpan(addr, 8) {
		return inter.RAM.Load64(inter.RAMRange.Offset(addr)) & mask
	}
	if inter.ROM != nil && inter.ROMRange.ContainsSpan(addr, 8) {
		return inter.ROM.Load64(inter.ROMRange.Offset(addr)) & mask
	}
	inter.unmapped("read64", addr)
	return ^uint64(0) & mask
}

func (inter *Interconnect) Write8(addr uint32, val uint8) {
	if inter.RAM != nil && inter.RAMRange.Contains(addr) {
		inter.RAM.Store8(inter.RAMRange.Offset(addr), val)
		return
	}
	inter.unmapped("write8", addr)
}

func (inter *Interconnect) Write16(addr uint32, val uint16) {
	if inter.RAM != nil && inter.RAMRange.ContainsSpan(addr, 2) {
		inter.RAM.Store16(inter.RAMRange.Offset(addr), val)
		return
	}
	inter.unmapped("write16", addr)
}

func (inter *Interconnect) Write32(addr uint32, val, mask uint32) {
	if inter.RAM != nil && inter.RAMRange.ContainsSpan(addr, 4) {
		inter.RAM.Store32(inter.RAMRange.Offset(addr), val, mask)
		return
	}
	inter.unmapped("write32", addr)
}

func (inter *Interconnect) Write64(addr uint32, val, mask uint64) {
	if inter.RAM != nil && inter.RAMRange.ContainsSpan(addr, 8) {
		inter.RAM.Store64(inter.RAMRange.Offset(addr), val, mask)
		return
	}
	inter.unmapped("write64", addr)
}
