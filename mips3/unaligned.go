package mips3

// Unaligned loads and stores. The byte lanes touched depend on the low
// address bits, mirrored between the two byte orders

// Returns the lane shift of the "left" accessors for an `size` byte access at `addr`
func (cpu *CPU) leftShift(addr, size uint32) uint32 {
	if cpu.Config.BigEndian {
		return 8 * (addr & (size - 1))
	}
	return 8 * (^addr & (size - 1))
}

// Returns the lane shift of the "right" accessors for an `size` byte access at `addr`
func (cpu *CPU) rightShift(addr, size uint32) uint32 {
	if cpu.Config.BigEndian {
		return 8 * (^addr & (size - 1))
	}
	return 8 * (addr & (size - 1))
}

// Load Word Left
func (cpu *CPU) lwl(op Instruction) {
	addr := cpu.effectiveAddress(op)
	shift := cpu.leftShift(addr, 4)
	mask := uint32(0xffffffff) << shift
	if val, ok := cpu.readWordMasked(addr&^3, mask>>shift); ok {
		t := op.T()
		cpu.setReg32(t, (cpu.reg32(t)&^mask)|(val<<shift))
	}
}

// Load Word Right
func (cpu *CPU) lwr(op Instruction) {
	addr := cpu.effectiveAddress(op)
	shift := cpu.rightShift(addr, 4)
	mask := uint32(0xffffffff) >> shift
	if val, ok := cpu.readWordMasked(addr&^3, mask<<shift); ok {
		t := op.T()
		cpu.setReg32(t, (cpu.reg32(t)&^mask)|(val>>shift))
	}
}

// Load Doubleword Left
func (cpu *CPU) ldl(op Instruction) {
	addr := cpu.effectiveAddress(op)
	shift := cpu.leftShift(addr, 8)
	mask := ^uint64(0) << shift
	if val, ok := cpu.readDoubleMasked(addr&^7, mask>>shift); ok {
		t := op.T()
		cpu.SetReg(t, (cpu.Regs[t]&^mask)|(val<<shift))
	}
}

// Load Doubleword Right
func (cpu *CPU) ldr(op Instruction) {
	addr := cpu.effectiveAddress(op)
	shift := cpu.rightShift(addr, 8)
	mask := ^uint64(0) >> shift
	if val, ok := cpu.readDoubleMasked(addr&^7, mask<<shift); ok {
		t := op.T()
		cpu.SetReg(t, (cpu.Regs[t]&^mask)|(val>>shift))
	}
}

// Store Word Left
func (cpu *CPU) swl(op Instruction) {
	addr := cpu.effectiveAddress(op)
	shift := cpu.leftShift(addr, 4)
	mask := uint32(0xffffffff) >> shift
	cpu.writeWordMasked(addr&^3, cpu.reg32(op.T())>>shift, mask)
}

// Store Word Right
func (cpu *CPU) swr(op Instruction) {
	addr := cpu.effectiveAddress(op)
	shift := cpu.rightShift(addr, 4)
	mask := uint32(0xffffffff) << shift
	cpu.writeWordMasked(addr&^3, cpu.reg32(op.T())<<shift, mask)
}

// Store Doubleword Left
func (cpu *CPU) sdl(op Instruction) {
	addr := cpu.effectiveAddress(op)
	shift := cpu.leftShift(addr, 8)
	mask := ^uint64(0) >> shift
	cpu.writeDoubleMasked(addr&^7, cpu.Regs[op.T()]>>shift, mask)
}

// Store Doubleword Right
func (cpu *CPU) sdr(op Instruction) {
	addr := cpu.effectiveAddress(op)
	shift := cpu.rightShift(addr, 8)
	mask := ^uint64(0) << shift
	cpu.writeDoubleMasked(addr&^7, cpu.Regs[op.T()]<<shift, mask)
}
