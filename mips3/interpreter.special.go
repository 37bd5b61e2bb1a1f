package mips3

import "math/bits"

// Executes a SPECIAL instruction
func (cpu *CPU) handleSpecial(op Instruction) {
	s, t, d := op.S(), op.T(), op.D()
	sa := op.Shift()
	rs, rt := cpu.Regs[s], cpu.Regs[t]

	switch op.Subfunction() {
	case 0x00: // Shift Left Logical
		cpu.setReg32(d, uint32(rt)<<sa)
	case 0x01: // Move Conditional on FP False/True
		if cpu.Cf[1][op.BranchCC()] == ((uint32(op)>>16)&1 != 0) {
			cpu.SetReg(d, rs)
		}
	case 0x02: // Shift Right Logical
		cpu.setReg32(d, uint32(rt)>>sa)
	case 0x03: // Shift Right Arithmetic
		cpu.setReg32(d, uint32(int32(rt)>>sa))
	case 0x04: // Shift Left Logical Variable
		cpu.setReg32(d, uint32(rt)<<(rs&31))
	case 0x06: // Shift Right Logical Variable
		cpu.setReg32(d, uint32(rt)>>(rs&31))
	case 0x07: // Shift Right Arithmetic Variable
		cpu.setReg32(d, uint32(int32(rt)>>(rs&31)))
	case 0x08: // Jump Register
		cpu.NextPC = uint32(rs)
	case 0x09: // Jump And Link Register
		cpu.NextPC = uint32(rs)
		cpu.link(d)
	case 0x0a: // Move Conditional on Zero
		if rt == 0 {
			cpu.SetReg(d, rs)
		}
	case 0x0b: // Move Conditional on Not Zero
		if rt != 0 {
			cpu.SetReg(d, rs)
		}
	case 0x0c: // System Call
		cpu.generateException(EXCEPTION_SYSCALL, true)
	case 0x0d: // Break
		cpu.generateException(EXCEPTION_BREAK, true)
	case 0x0f: // Sync
	case 0x10: // Move From HI
		cpu.SetReg(d, cpu.Regs[REG_HI])
	case 0x11: // Move To HI
		cpu.Regs[REG_HI] = rs
	case 0x12: // Move From LO
		cpu.SetReg(d, cpu.Regs[REG_LO])
	case 0x13: // Move To LO
		cpu.Regs[REG_LO] = rs
	case 0x14: // Doubleword Shift Left Logical Variable
		cpu.SetReg(d, rt<<(rs&63))
	case 0x16: // Doubleword Shift Right Logical Variable
		cpu.SetReg(d, rt>>(rs&63))
	case 0x17: // Doubleword Shift Right Arithmetic Variable
		cpu.SetReg(d, uint64(int64(rt)>>(rs&63)))

	case 0x18: // Multiply
		prod := int64(int32(rs)) * int64(int32(rt))
		cpu.Regs[REG_LO] = sext32(uint64(prod))
		cpu.Regs[REG_HI] = sext32(uint64(prod >> 32))
		cpu.Time.Tick(MULT_CYCLES)
	case 0x19: // Multiply Unsigned
		prod := uint64(uint32(rs)) * uint64(uint32(rt))
		cpu.Regs[REG_LO] = sext32(prod)
		cpu.Regs[REG_HI] = sext32(prod >> 32)
		cpu.Time.Tick(MULT_CYCLES)
	case 0x1a: // Divide
		if uint32(rt) != 0 {
			cpu.Regs[REG_LO] = sext32(uint64(int32(rs) / int32(rt)))
			cpu.Regs[REG_HI] = sext32(uint64(int32(rs) % int32(rt)))
		}
		cpu.Time.Tick(DIV_CYCLES)
	case 0x1b: // Divide Unsigned
		if uint32(rt) != 0 {
			cpu.Regs[REG_LO] = sext32(uint64(uint32(rs) / uint32(rt)))
			cpu.Regs[REG_HI] = sext32(uint64(uint32(rs) % uint32(rt)))
		}
		cpu.Time.Tick(DIV_CYCLES)
	case 0x1c: // Doubleword Multiply
		hi, lo := mul64Signed(rs, rt)
		cpu.Regs[REG_HI], cpu.Regs[REG_LO] = hi, lo
		cpu.Time.Tick(DMULT_CYCLES)
	case 0x1d: // Doubleword Multiply Unsigned
		hi, lo := bits.Mul64(rs, rt)
		cpu.Regs[REG_HI], cpu.Regs[REG_LO] = hi, lo
		cpu.Time.Tick(DMULT_CYCLES)
	case 0x1e: // Doubleword Divide
		if rt != 0 {
			cpu.Regs[REG_LO] = uint64(int64(rs) / int64(rt))
			cpu.Regs[REG_HI] = uint64(int64(rs) % int64(rt))
		}
		cpu.Time.Tick(DDIV_CYCLES)
	case 0x1f: // Doubleword Divide Unsigned
		if rt != 0 {
			cpu.Regs[REG_LO] = rs / rt
			cpu.Regs[REG_HI] = rs % rt
		}
		cpu.Time.Tick(DDIV_CYCLES)

	case 0x20: // Add
		res, ovf := add32Overflow(int32(rs), int32(rt))
		if !cpu.overflowed(ovf) {
			cpu.setReg32(d, uint32(res))
		}
	case 0x21: // Add Unsigned
		cpu.setReg32(d, uint32(rs)+uint32(rt))
	case 0x22: // Subtract
		res, ovf := sub32Overflow(int32(rs), int32(rt))
		if !cpu.overflowed(ovf) {
			cpu.setReg32(d, uint32(res))
		}
	case 0x23: // Subtract Unsigned
		cpu.setReg32(d, uint32(rs)-uint32(rt))
	case 0x24: // Bitwise And
		cpu.SetReg(d, rs&rt)
	case 0x25: // Bitwise Or
		cpu.SetReg(d, rs|rt)
	case 0x26: // Bitwise Exclusive Or
		cpu.SetReg(d, rs^rt)
	case 0x27: // Bitwise Not Or
		cpu.SetReg(d, ^(rs | rt))
	case 0x2a: // Set on Less Than
		cpu.SetReg(d, oneIfTrue(int64(rs) < int64(rt)))
	case 0x2b: // Set on Less Than Unsigned
		cpu.SetReg(d, oneIfTrue(rs < rt))
	case 0x2c: // Doubleword Add
		res, ovf := add64Overflow(int64(rs), int64(rt))
		if !cpu.overflowed(ovf) {
			cpu.SetReg(d, uint64(res))
		}
	case 0x2d: // Doubleword Add Unsigned
		cpu.SetReg(d, rs+rt)
	case 0x2e: // Doubleword Subtract
		res, ovf := sub64Overflow(int64(rs), int64(rt))
		if !cpu.overflowed(ovf) {
			cpu.SetReg(d, uint64(res))
		}
	case 0x2f: // Doubleword Subtract Unsigned
		cpu.SetReg(d, rs-rt)

	case 0x30: // Trap if Greater or Equal
		cpu.trapIf(int64(rs) >= int64(rt))
	case 0x31: // Trap if Greater or Equal Unsigned
		cpu.trapIf(rs >= rt)
	case 0x32: // Trap if Less Than
		cpu.trapIf(int64(rs) < int64(rt))
	case 0x33: // Trap if Less Than Unsigned
		cpu.trapIf(rs < rt)
	case 0x34: // Trap if Equal
		cpu.trapIf(rs == rt)
	case 0x36: // Trap if Not Equal
		cpu.trapIf(rs != rt)

	case 0x38: // Doubleword Shift Left Logical
		cpu.SetReg(d, rt<<sa)
	case 0x3a: // Doubleword Shift Right Logical
		cpu.SetReg(d, rt>>sa)
	case 0x3b: // Doubleword Shift Right Arithmetic
		cpu.SetReg(d, uint64(int64(rt)>>sa))
	case 0x3c: // Doubleword Shift Left Logical Plus 32
		cpu.SetReg(d, rt<<(sa+32))
	case 0x3e: // Doubleword Shift Right Logical Plus 32
		cpu.SetReg(d, rt>>(sa+32))
	case 0x3f: // Doubleword Shift Right Arithmetic Plus 32
		cpu.SetReg(d, uint64(int64(rt)>>(sa+32)))
	default:
		cpu.invalidInstruction(op)
	}
}

// Executes a REGIMM instruction
func (cpu *CPU) handleRegimm(op Instruction) {
	rs := int64(cpu.Regs[op.S()])
	imm := op.ImmSE()

	switch op.T() {
	case 0x00: // Branch if Less Than Zero
		if rs < 0 {
			cpu.branch(op)
		}
	case 0x01: // Branch if Greater or Equal to Zero
		if rs >= 0 {
			cpu.branch(op)
		}
	case 0x02: // Branch if Less Than Zero Likely
		cpu.branchLikely(op, rs < 0)
	case 0x03: // Branch if Greater or Equal to Zero Likely
		cpu.branchLikely(op, rs >= 0)
	case 0x08: // Trap if Greater or Equal Immediate
		cpu.trapIf(rs >= int64(imm))
	case 0x09: // Trap if Greater or Equal Immediate Unsigned
		cpu.trapIf(uint64(rs) >= imm)
	case 0x0a: // Trap if Less Than Immediate
		cpu.trapIf(rs < int64(imm))
	case 0x0b: // Trap if Less Than Immediate Unsigned
		cpu.trapIf(uint64(rs) < imm)
	case 0x0c: // Trap if Equal Immediate
		cpu.trapIf(uint64(rs) == imm)
	case 0x0e: // Trap if Not Equal Immediate
		cpu.trapIf(uint64(rs) != imm)
	case 0x10: // Branch if Less Than Zero And Link
		cpu.link(31)
		if rs < 0 {
			cpu.branch(op)
		}
	case 0x11: // Branch if Greater or Equal to Zero And Link
		cpu.link(31)
		if rs >= 0 {
			cpu.branch(op)
		}
	case 0x12: // Branch if Less Than Zero And Link Likely
		cpu.link(31)
		cpu.branchLikely(op, rs < 0)
	case 0x13: // Branch if Greater or Equal to Zero And Link Likely
		cpu.link(31)
		cpu.branchLikely(op, rs >= 0)
	default:
		cpu.invalidInstruction(op)
	}
}

// Raises a TRAP exception if `cond` is set
func (cpu *CPU) trapIf(cond bool) {
	if cond {
		cpu.generateException(EXCEPTION_TRAP, true)
	}
}

// Returns the 128 bit product of two signed 64 bit values
func mul64Signed(a, b uint64) (hi, lo uint64) {
	hi, lo = bits.Mul64(a, b)
	if int64(a) < 0 {
		hi -= b
	}
	if int64(b) < 0 {
		hi -= a
	}
	return hi, lo
}
