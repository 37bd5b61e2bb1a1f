package mips3

// Physical address space seen by the CPU. Multi-byte values use the CPU byte
// order. `mask` selects the byte lanes taking part in the access
type AddressSpace interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32, mask uint32) uint32
	Read64(addr uint32, mask uint64) uint64
	Write8(addr uint32, val uint8)
	Write16(addr uint32, val uint16)
	Write32(addr uint32, val, mask uint32)
	Write64(addr uint32, val, mask uint64)
}

// Translates `addr` for a data read. On failure the TLB exception has been
// taken and false is returned
func (cpu *CPU) translateRead(addr uint32) (uint32, bool) {
	tlbval := cpu.TLB.table[addr>>12]
	if tlbval&cpu.readPerm() != 0 {
		return (tlbval &^ 0xfff) | (addr & 0xfff), true
	}
	if tlbval&VTLB_FLAG_FIXED != 0 {
		cpu.generateTLBException(EXCEPTION_TLBLOAD, addr)
	} else {
		cpu.generateTLBException(EXCEPTION_TLBLOAD_FILL, addr)
	}
	return 0, false
}

// Translates `addr` for a data write. On failure the TLB exception has been
// taken and false is returned
func (cpu *CPU) translateWrite(addr uint32) (uint32, bool) {
	tlbval := cpu.TLB.table[addr>>12]
	if tlbval&cpu.writePerm() != 0 {
		return (tlbval &^ 0xfff) | (addr & 0xfff), true
	}
	if tlbval&cpu.readPerm() != 0 {
		cpu.generateTLBException(EXCEPTION_TLBMOD, addr)
	} else if tlbval&VTLB_FLAG_FIXED != 0 {
		cpu.generateTLBException(EXCEPTION_TLBSTORE, addr)
	} else {
		cpu.generateTLBException(EXCEPTION_TLBSTORE_FILL, addr)
	}
	return 0, false
}

func (cpu *CPU) readPerm() uint32 {
	if cpu.isUser() {
		return VTLB_USER_READ_ALLOWED
	}
	return VTLB_READ_ALLOWED
}

func (cpu *CPU) writePerm() uint32 {
	if cpu.isUser() {
		return VTLB_USER_WRITE_ALLOWED
	}
	return VTLB_WRITE_ALLOWED
}

func (cpu *CPU) fetchPerm() uint32 {
	if cpu.isUser() {
		return VTLB_USER_FETCH_ALLOWED
	}
	return VTLB_FETCH_ALLOWED
}

// Fetches the instruction at `pc`
func (cpu *CPU) fetch(pc uint32) (Instruction, bool) {
	tlbval := cpu.TLB.table[pc>>12]
	if tlbval&cpu.fetchPerm() == 0 {
		if tlbval&VTLB_FLAG_FIXED != 0 {
			cpu.generateTLBException(EXCEPTION_TLBLOAD, pc)
		} else {
			cpu.generateTLBException(EXCEPTION_TLBLOAD_FILL, pc)
		}
		return 0, false
	}
	phys := (tlbval &^ 0xfff) | (pc & 0xfff)
	if f := cpu.fastRead(phys, 4); f != nil {
		return Instruction(f.load32(cpu.Order, phys)), true
	}
	return Instruction(cpu.Mem.Read32(phys, 0xffffffff)), true
}

// Reads the byte at virtual address `addr`
func (cpu *CPU) readByte(addr uint32) (uint8, bool) {
	phys, ok := cpu.translateRead(addr)
	if !ok {
		return 0, false
	}
	cpu.debugger.memoryRead(cpu, addr)
	if f := cpu.fastRead(phys, 1); f != nil {
		return f.load8(phys), true
	}
	return cpu.Mem.Read8(phys), true
}

// Reads the halfword at virtual address `addr`
func (cpu *CPU) readHalf(addr uint32) (uint16, bool) {
	phys, ok := cpu.translateRead(addr)
	if !ok {
		return 0, false
	}
	cpu.debugger.memoryRead(cpu, addr)
	if f := cpu.fastRead(phys, 2); f != nil {
		return f.load16(cpu.Order, phys), true
	}
	return cpu.Mem.Read16(phys), true
}

// Reads the word at virtual address `addr`
func (cpu *CPU) readWord(addr uint32) (uint32, bool) {
	return cpu.readWordMasked(addr, 0xffffffff)
}

// Reads the byte lanes of the word at `addr` selected by `mask`
func (cpu *CPU) readWordMasked(addr, mask uint32) (uint32, bool) {
	phys, ok := cpu.translateRead(addr)
	if !ok {
		return 0, false
	}
	cpu.debugger.memoryRead(cpu, addr)
	if f := cpu.fastRead(phys, 4); f != nil {
		return f.load32(cpu.Order, phys) & mask, true
	}
	return cpu.Mem.Read32(phys, mask) & mask, true
}

// Reads the doubleword at virtual address `addr`
func (cpu *CPU) readDouble(addr uint32) (uint64, bool) {
	return cpu.readDoubleMasked(addr, ^uint64(0))
}

// Reads the byte lanes of the doubleword at `addr` selected by `mask`
func (cpu *CPU) readDoubleMasked(addr uint32, mask uint64) (uint64, bool) {
	phys, ok := cpu.translateRead(addr)
	if !ok {
		return 0, false
	}
	cpu.debugger.memoryRead(cpu, addr)
	if f := cpu.fastRead(phys, 8); f != nil {
		return f.load64(cpu.Order, phys) & mask, true
	}
	return cpu.Mem.Read64(phys, mask) & mask, true
}

// Writes the byte `val` at virtual address `addr`
func (cpu *CPU) writeByte(addr uint32, val uint8) bool {
	phys, ok := cpu.translateWrite(addr)
	if !ok {
		return false
	}
	cpu.wrote(addr, phys)
	if f := cpu.fastWrite(phys, 1); f != nil {
		f.store8(phys, val)
	} else {
		cpu.Mem.Write8(phys, val)
	}
	return true
}

// Writes the halfword `val` at virtual address `addr`
func (cpu *CPU) writeHalf(addr uint32, val uint16) bool {
	phys, ok := cpu.translateWrite(addr)
	if !ok {
		return false
	}
	cpu.wrote(addr, phys)
	if f := cpu.fastWrite(phys, 2); f != nil {
		f.store16(cpu.Order, phys, val)
	} else {
		cpu.Mem.Write16(phys, val)
	}
	return true
}

// Writes the word `val` at virtual address `addr`
func (cpu *CPU) writeWord(addr, val uint32) bool {
	return cpu.writeWordMasked(addr, val, 0xffffffff)
}

// Writes the byte lanes of `val` selected by `mask` to the word at `addr`
func (cpu *CPU) writeWordMasked(addr, val, mask uint32) bool {
	phys, ok := cpu.translateWrite(addr)
	if !ok {
		return false
	}
	cpu.wrote(addr, phys)
	if f := cpu.fastWrite(phys, 4); f != nil {
		f.store32(cpu.Order, phys, val, mask)
	} else {
		cpu.Mem.Write32(phys, val, mask)
	}
	return true
}

// Writes the doubleword `val` at virtual address `addr`
func (cpu *CPU) writeDouble(addr uint32, val uint64) bool {
	return cpu.writeDoubleMasked(addr, val, ^uint64(0))
}

// Writes the byte lanes of `val` selected by `mask` to the doubleword at `addr`
func (cpu *CPU) writeDoubleMasked(addr uint32, val, mask uint64) bool {
	phys, ok := cpu.translateWrite(addr)
	if !ok {
		return false
	}
	cpu.wrote(addr, phys)
	if f := cpu.fastWrite(phys, 8); f != nil {
		f.store64(cpu.Order, phys, val, mask)
	} else {
		cpu.Mem.Write64(phys, val, mask)
	}
	return true
}

// Called before every successful store
func (cpu *CPU) wrote(addr, phys uint32) {
	cpu.debugger.memoryWrite(cpu, addr)

	// a store to the linked doubleword breaks the link
	if cpu.llBit && (phys&^7) == (cpu.llPhys&^7) {
		cpu.llBit = false
	}
	if cpu.drc != nil {
		cpu.drc.codeWritten(phys)
	}
}

// Memory spaces known to Translate
type Space int

const (
	SPACE_PROGRAM Space = iota // Virtual addresses translated by the TLB
	SPACE_PHYSICAL             // Physical addresses, never translated
)

// Access intents known to Translate
type Intent int

const (
	INTENT_READ Intent = iota
	INTENT_WRITE
	INTENT_FETCH
)

// Translates `addr` in `space` without side effects. Only SPACE_PROGRAM goes
// through the TLB. Returns false if the access would fault
func (cpu *CPU) Translate(space Space, intent Intent, addr uint32) (uint32, bool) {
	if space != SPACE_PROGRAM {
		return addr, true
	}
	var perm uint32
	switch intent {
	case INTENT_WRITE:
		perm = cpu.writePerm()
	case INTENT_FETCH:
		perm = cpu.fetchPerm()
	default:
		perm = cpu.readPerm()
	}
	return cpu.TLB.Lookup(addr, perm)
}

// Reads the word at virtual address `addr` without side effects, for tooling
func (cpu *CPU) PeekWord(addr uint32) (uint32, bool) {
	phys, ok := cpu.Translate(SPACE_PROGRAM, INTENT_READ, addr)
	if !ok {
		return 0, false
	}
	if f := cpu.fastRead(phys, 4); f != nil {
		return f.load32(cpu.Order, phys), true
	}
	return cpu.Mem.Read32(phys, 0xffffffff), true
}
