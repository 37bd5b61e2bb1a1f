package mips3

// Properties of one guest instruction, computed when a block is scanned
type opcodeFlags uint32

const (
	OPFLAG_IS_BRANCH       opcodeFlags = 1 << iota // Sets NextPC (branch or jump)
	OPFLAG_IS_CONDITIONAL                          // Branch depends on a register or condition flag
	OPFLAG_IS_LIKELY                               // Delay slot is skipped when not taken
	OPFLAG_IS_LINKED                               // Writes the return address
	OPFLAG_TO_REGISTER                             // Target comes from a register
	OPFLAG_IN_DELAY_SLOT                           // Follows a branch
	OPFLAG_ENDS_BLOCK                              // Nothing is compiled after this instruction
	OPFLAG_CAN_EXCEPT                              // May enter an exception handler
	OPFLAG_READS_MEMORY                            // Issues a data load
	OPFLAG_WRITES_MEMORY                           // Issues a data store
	OPFLAG_COP0                                    // Touches COP0 state
	OPFLAG_COP1                                    // Touches COP1 state
	OPFLAG_COP2                                    // Touches COP2 state
)

// A scanned guest instruction
type opcodeDesc struct {
	PC     uint32      // Virtual address of the instruction
	Phys   uint32      // Physical address it was fetched from
	Op     Instruction // Encoded instruction
	Flags  opcodeFlags
	Target uint32 // Branch target for PC relative branches and jumps
}

func (desc *opcodeDesc) Has(flags opcodeFlags) bool {
	return desc.Flags&flags != 0
}

// Computes the flags of `op` located at `pc`. Returns the flags and the
// static branch target, if any
func describe(pc uint32, op Instruction) (opcodeFlags, uint32) {
	delay := pc + 4
	rel := delay + op.BranchOffset()

	switch op.Function() {
	case 0x00: // SPECIAL
		switch op.Subfunction() {
		case 0x08: // JR
			return OPFLAG_IS_BRANCH | OPFLAG_TO_REGISTER, 0
		case 0x09: // JALR
			return OPFLAG_IS_BRANCH | OPFLAG_TO_REGISTER | OPFLAG_IS_LINKED, 0
		case 0x0c, 0x0d: // SYSCALL, BREAK
			return OPFLAG_CAN_EXCEPT | OPFLAG_ENDS_BLOCK, 0
		case 0x01: // MOVF, MOVT
			return OPFLAG_COP1, 0
		case 0x20, 0x22, 0x2c, 0x2e, // ADD, SUB, DADD, DSUB
			0x30, 0x31, 0x32, 0x33, 0x34, 0x36: // traps
			return OPFLAG_CAN_EXCEPT, 0
		}
		return 0, 0

	case 0x01: // REGIMM
		t := op.T()
		if t >= 0x08 && t <= 0x0e {
			return OPFLAG_CAN_EXCEPT, 0
		}
		flags := OPFLAG_IS_BRANCH | OPFLAG_IS_CONDITIONAL
		if t&0x02 != 0 {
			flags |= OPFLAG_IS_LIKELY
		}
		if t&0x10 != 0 {
			flags |= OPFLAG_IS_LINKED
		}
		return flags, rel

	case 0x02: // J
		return OPFLAG_IS_BRANCH, (delay & 0xf0000000) | (op.ImmJump() << 2)
	case 0x03: // JAL
		return OPFLAG_IS_BRANCH | OPFLAG_IS_LINKED, (delay & 0xf0000000) | (op.ImmJump() << 2)

	case 0x04, 0x05, 0x06, 0x07: // BEQ, BNE, BLEZ, BGTZ
		return OPFLAG_IS_BRANCH | OPFLAG_IS_CONDITIONAL, rel
	case 0x14, 0x15, 0x16, 0x17: // BEQL, BNEL, BLEZL, BGTZL
		return OPFLAG_IS_BRANCH | OPFLAG_IS_CONDITIONAL | OPFLAG_IS_LIKELY, rel

	case 0x08, 0x18: // ADDI, DADDI
		return OPFLAG_CAN_EXCEPT, 0
	case 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x19: // ALU immediates
		return 0, 0

	case 0x10: // COP0
		// mode, TLB and interrupt state may change under the block
		return OPFLAG_COP0 | OPFLAG_CAN_EXCEPT | OPFLAG_ENDS_BLOCK, 0

	case 0x11, 0x13: // COP1, COP1X
		flags := OPFLAG_COP1 | OPFLAG_CAN_EXCEPT
		if op.Function() == 0x11 && op.CopFunction() == 0x08 { // BC1
			flags |= OPFLAG_IS_BRANCH | OPFLAG_IS_CONDITIONAL
			if op.T()&0x02 != 0 {
				flags |= OPFLAG_IS_LIKELY
			}
			return flags, rel
		}
		if op.Function() == 0x13 {
			switch op.Subfunction() {
			case 0x00, 0x01:
				flags |= OPFLAG_READS_MEMORY
			case 0x08, 0x09:
				flags |= OPFLAG_WRITES_MEMORY
			}
		}
		return flags, 0

	case 0x12: // COP2
		flags := OPFLAG_COP2 | OPFLAG_CAN_EXCEPT
		if op.CopFunction() == 0x08 { // BC2
			flags |= OPFLAG_IS_BRANCH | OPFLAG_IS_CONDITIONAL
			return flags, rel
		}
		return flags, 0

	case 0x1a, 0x1b: // LDL, LDR
		return OPFLAG_READS_MEMORY | OPFLAG_CAN_EXCEPT, 0
	case 0x1c: // IDT MUL
		return 0, 0
	}

	if op.Function() < 0x20 {
		return OPFLAG_CAN_EXCEPT | OPFLAG_ENDS_BLOCK, 0
	}

	// loads and stores
	flags := OPFLAG_CAN_EXCEPT
	switch op.Function() {
	case 0x2f, 0x33: // CACHE, PREF
		return 0, 0
	case 0x3b: // SWC3
		return OPFLAG_CAN_EXCEPT | OPFLAG_ENDS_BLOCK, 0
	case 0x31, 0x35, 0x39, 0x3d:
		flags |= OPFLAG_COP1
	case 0x32, 0x36, 0x3a, 0x3e:
		flags |= OPFLAG_COP2
	}
	switch op.Function() {
	case 0x38, 0x3c: // SC, SCD
		flags |= OPFLAG_READS_MEMORY | OPFLAG_WRITES_MEMORY
	case 0x28, 0x29, 0x2a, 0x2b, 0x2c, 0x2d, 0x2e, 0x39, 0x3a, 0x3d, 0x3e, 0x3f:
		flags |= OPFLAG_WRITES_MEMORY
	default:
		flags |= OPFLAG_READS_MEMORY
	}
	return flags, 0
}

// Fetches the instruction at `pc` without raising exceptions
func (cpu *CPU) peekOp(pc uint32) (Instruction, uint32, bool) {
	phys, ok := cpu.TLB.Lookup(pc, cpu.fetchPerm())
	if !ok {
		return 0, 0, false
	}
	if f := cpu.fastRead(phys, 4); f != nil {
		return Instruction(f.load32(cpu.Order, phys)), phys, true
	}
	return Instruction(cpu.Mem.Read32(phys, 0xffffffff)), phys, true
}

// Scans the block starting at `pc`. A block ends after the delay slot of its
// first branch, after an instruction flagged OPFLAG_ENDS_BLOCK, before an
// address that can't be fetched, or after `max` instructions. Returns nil if
// nothing at `pc` can be fetched
func (cpu *CPU) scanBlock(pc uint32, max int) []opcodeDesc {
	var descs []opcodeDesc
	inDelay := false

	for {
		op, phys, ok := cpu.peekOp(pc)
		if !ok {
			break
		}
		flags, target := describe(pc, op)
		if inDelay {
			flags |= OPFLAG_IN_DELAY_SLOT
		}
		descs = append(descs, opcodeDesc{PC: pc, Phys: phys, Op: op, Flags: flags, Target: target})

		if inDelay || flags&OPFLAG_ENDS_BLOCK != 0 {
			break
		}
		if flags&OPFLAG_IS_BRANCH != 0 {
			// the delay slot always belongs to the block of its branch
			inDelay = true
		} else if len(descs) >= max {
			break
		}
		pc += 4
	}
	return descs
}
