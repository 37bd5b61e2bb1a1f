package mips3

// Number of back to back instruction fetch faults after which execution is
// considered lost in unmapped memory
const MAX_FETCH_FAULTS = 64

// Runs the interpreter until the current slice is over. A pending delay slot
// is always executed before returning
func (cpu *CPU) interpret() {
	th := cpu.Time
	for th.Running() || cpu.NextPC != NO_BRANCH {
		if cpu.debugger.instruction(cpu) {
			return
		}
		cpu.step()
	}
}

// Fetches and executes the instruction at PC
func (cpu *CPU) step() {
	cpu.PPC = cpu.PC

	op, ok := cpu.fetch(cpu.PC)
	if !ok {
		// the handler address is fetched next
		cpu.fetchFaulted()
		return
	}
	cpu.fetchFaults = 0

	if cpu.NextPC != NO_BRANCH {
		cpu.delaySlot = true
		cpu.PC = cpu.NextPC
		cpu.NextPC = NO_BRANCH
	} else {
		cpu.PC += 4
	}

	cpu.execute(op)

	cpu.delaySlot = false
	cpu.Time.Tick(1)
	cpu.burnHotspot(cpu.PPC, op)
}

// Counts a failed instruction fetch. Execution that keeps faulting without
// reaching a mapped handler is a host-fatal condition
func (cpu *CPU) fetchFaulted() {
	cpu.fetchFaults++
	if cpu.fetchFaults >= MAX_FETCH_FAULTS {
		cpu.log.Errorf("attempted to execute unmapped code at 0x%08x", cpu.PPC)
		panicFmt("mips3: attempted to execute unmapped code at PC=0x%08x", cpu.PPC)
	}
}

// Schedules a branch to the delay slot address plus the offset encoded in `op`
func (cpu *CPU) branch(op Instruction) {
	cpu.NextPC = cpu.PC + op.BranchOffset()
}

// Branch likely. The delay slot is skipped when the branch is not taken
func (cpu *CPU) branchLikely(op Instruction, taken bool) {
	if taken {
		cpu.branch(op)
	} else {
		cpu.PC += 4
	}
}

// Schedules a jump inside the current 256MB segment
func (cpu *CPU) jump(op Instruction) {
	cpu.NextPC = (cpu.PC & 0xf0000000) | (op.ImmJump() << 2)
}

// Stores the return address (after the delay slot) in register `reg`
func (cpu *CPU) link(reg uint32) {
	cpu.setReg32(reg, cpu.PC+4)
}

// Raises OVERFLOW if overflow checks are enabled and `overflow` is set.
// Returns true if the exception was taken
func (cpu *CPU) overflowed(overflow bool) bool {
	if overflow && cpu.Config.CheckOverflows {
		cpu.generateException(EXCEPTION_OVERFLOW, true)
		return true
	}
	return false
}

// Decodes and executes `op`. PC already points past the instruction
func (cpu *CPU) execute(op Instruction) {
	s := op.S()
	t := op.T()

	switch op.Function() {
	case 0x00:
		cpu.handleSpecial(op)
	case 0x01:
		cpu.handleRegimm(op)
	case 0x02: // Jump
		cpu.jump(op)
	case 0x03: // Jump And Link
		cpu.jump(op)
		cpu.link(31)
	case 0x04: // Branch if Equal
		if cpu.Regs[s] == cpu.Regs[t] {
			cpu.branch(op)
		}
	case 0x05: // Branch if Not Equal
		if cpu.Regs[s] != cpu.Regs[t] {
			cpu.branch(op)
		}
	case 0x06: // Branch if Less or Equal to Zero
		if int64(cpu.Regs[s]) <= 0 {
			cpu.branch(op)
		}
	case 0x07: // Branch if Greater Than Zero
		if int64(cpu.Regs[s]) > 0 {
			cpu.branch(op)
		}
	case 0x08: // Add Immediate
		res, ovf := add32Overflow(int32(cpu.reg32(s)), int32(op.ImmSE()))
		if !cpu.overflowed(ovf) {
			cpu.setReg32(t, uint32(res))
		}
	case 0x09: // Add Immediate Unsigned
		cpu.setReg32(t, cpu.reg32(s)+uint32(op.ImmSE()))
	case 0x0a: // Set on Less Than Immediate
		cpu.SetReg(t, oneIfTrue(int64(cpu.Regs[s]) < int64(op.ImmSE())))
	case 0x0b: // Set on Less Than Immediate Unsigned
		cpu.SetReg(t, oneIfTrue(cpu.Regs[s] < op.ImmSE()))
	case 0x0c: // Bitwise And Immediate
		cpu.SetReg(t, cpu.Regs[s]&uint64(op.Imm()))
	case 0x0d: // Bitwise Or Immediate
		cpu.SetReg(t, cpu.Regs[s]|uint64(op.Imm()))
	case 0x0e: // Bitwise Exclusive Or Immediate
		cpu.SetReg(t, cpu.Regs[s]^uint64(op.Imm()))
	case 0x0f: // Load Upper Immediate
		cpu.setReg32(t, op.Imm()<<16)
	case 0x10:
		cpu.handleCop0(op)
	case 0x11:
		cpu.handleCop1(op)
	case 0x12:
		cpu.handleCop2(op)
	case 0x13:
		cpu.handleCop1X(op)
	case 0x14: // Branch if Equal Likely
		cpu.branchLikely(op, cpu.Regs[s] == cpu.Regs[t])
	case 0x15: // Branch if Not Equal Likely
		cpu.branchLikely(op, cpu.Regs[s] != cpu.Regs[t])
	case 0x16: // Branch if Less or Equal to Zero Likely
		cpu.branchLikely(op, int64(cpu.Regs[s]) <= 0)
	case 0x17: // Branch if Greater Than Zero Likely
		cpu.branchLikely(op, int64(cpu.Regs[s]) > 0)
	case 0x18: // Doubleword Add Immediate
		res, ovf := add64Overflow(int64(cpu.Regs[s]), int64(op.ImmSE()))
		if !cpu.overflowed(ovf) {
			cpu.SetReg(t, uint64(res))
		}
	case 0x19: // Doubleword Add Immediate Unsigned
		cpu.SetReg(t, cpu.Regs[s]+op.ImmSE())
	case 0x1a: // Load Doubleword Left
		cpu.ldl(op)
	case 0x1b: // Load Doubleword Right
		cpu.ldr(op)
	case 0x1c: // IDT extensions
		if op.Subfunction() == 0x02 { // Multiply Word to GPR
			cpu.setReg32(op.D(), uint32(int32(cpu.reg32(s))*int32(cpu.reg32(t))))
			cpu.Time.Tick(MULT_CYCLES)
		} else {
			cpu.invalidInstruction(op)
		}
	default:
		if op.Function() >= 0x20 {
			cpu.executeLoadStore(op)
		} else {
			cpu.invalidInstruction(op)
		}
	}
}
