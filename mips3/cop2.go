package mips3

// Returns true if COP2 instructions may execute
func (cpu *CPU) cop2Usable() bool {
	return cpu.sr()&SR_COP2 != 0
}

// Executes a COP2 instruction. No coprocessor is attached, only the register
// moves and condition branches are implemented
func (cpu *CPU) handleCop2(op Instruction) {
	if !cpu.cop2Usable() {
		cpu.badCop(2)
		return
	}

	t := op.T()
	d := op.D()

	switch op.CopFunction() {
	case 0x00: // MFC2
		if t != 0 {
			cpu.Regs[t] = sext32(cpu.Cpr[2][d])
		}
	case 0x01: // DMFC2
		if t != 0 {
			cpu.Regs[t] = cpu.Cpr[2][d]
		}
	case 0x02: // CFC2
		if t != 0 {
			cpu.Regs[t] = sext32(cpu.Ccr[2][d])
		}
	case 0x04: // MTC2
		cpu.Cpr[2][d] = uint64(cpu.reg32(t))
	case 0x05: // DMTC2
		cpu.Cpr[2][d] = cpu.Regs[t]
	case 0x06: // CTC2
		cpu.Ccr[2][d] = uint64(cpu.reg32(t))
	case 0x08: // BC2
		switch t {
		case 0x00: // BC2F
			if !cpu.Cf[2][0] {
				cpu.branch(op)
			}
		case 0x01: // BC2T
			if cpu.Cf[2][0] {
				cpu.branch(op)
			}
		default: // the likely forms are not implemented
			cpu.invalidInstruction(op)
		}
	default:
		cpu.invalidInstruction(op)
	}
}
