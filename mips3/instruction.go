package mips3

type Instruction uint32

// Return bits [31:26] of the instruction
func (op Instruction) Function() uint32 {
	return uint32(op) >> 26
}

// Return bits [5:0] of the instruction
func (op Instruction) Subfunction() uint32 {
	return uint32(op) & 0x3f
}

// Return register index in bits [25:21]
func (op Instruction) S() uint32 {
	return (uint32(op) >> 21) & 0x1f
}

// Return register index in bits [20:16]
func (op Instruction) T() uint32 {
	return (uint32(op) >> 16) & 0x1f
}

// Return register index in bits [15:11]
func (op Instruction) D() uint32 {
	return (uint32(op) >> 11) & 0x1f
}

// Return immediate value in bits [15:0]
func (op Instruction) Imm() uint32 {
	return uint32(op) & 0xffff
}

// Return immediate value in bits [15:0] sign-extended to 64 bits
func (op Instruction) ImmSE() uint64 {
	return uint64(int64(int16(op)))
}

// Jump target stored in bits [25:0]
func (op Instruction) ImmJump() uint32 {
	return uint32(op) & 0x3ffffff
}

// Shift Immediate values are stored in bits [10:6]
func (op Instruction) Shift() uint32 {
	return (uint32(op) >> 6) & 0x1f
}

// Branch displacement in bytes, relative to the delay slot
func (op Instruction) BranchOffset() uint32 {
	return uint32(int32(int16(op)) << 2)
}

// Coprocessor sub-opcode in bits [25:21] (same field as S)
func (op Instruction) CopFunction() uint32 {
	return op.S()
}

// FPU register fields: fs [15:11], ft [20:16], fd [10:6]
func (op Instruction) FS() uint32 { return op.D() }
func (op Instruction) FT() uint32 { return op.T() }
func (op Instruction) FD() uint32 { return op.Shift() }

// FPU format field in bits [25:21]
func (op Instruction) Fmt() uint32 {
	return op.S()
}

// COP1X fr field in bits [25:21]
func (op Instruction) FR() uint32 {
	return op.S()
}

// Condition code selected by BC1 and MOVF/MOVT, bits [20:18]
func (op Instruction) BranchCC() uint32 {
	return (uint32(op) >> 18) & 7
}

// Condition code written by C.cond.fmt, bits [10:8]
func (op Instruction) CompareCC() uint32 {
	return (uint32(op) >> 8) & 7
}

// Sign-extends the low 32 bits of a 64 bit value
func sext32(v uint64) uint64 {
	return uint64(int64(int32(v)))
}
