package mips3

// Input lines of the CPU
type InputLine int

const (
	INPUT_LINE_IRQ0  InputLine = 0 // Cause IP2
	INPUT_LINE_IRQ1  InputLine = 1 // Cause IP3
	INPUT_LINE_IRQ2  InputLine = 2 // Cause IP4
	INPUT_LINE_IRQ3  InputLine = 3 // Cause IP5
	INPUT_LINE_IRQ4  InputLine = 4 // Cause IP6
	INPUT_LINE_IRQ5  InputLine = 5 // Cause IP7, shared with the Count/Compare timer
	INPUT_LINE_RESET InputLine = 6
)

// Sets the state of an input line. IRQ lines are level sensitive and latched
// into Cause, the interrupt is taken at the next instruction boundary where it
// is unmasked, also when the line is raised by a device in the middle of a run. Asserting the reset line resets the CPU
func (cpu *CPU) SetInputLine(line InputLine, asserted bool) {
	switch {
	case line >= INPUT_LINE_IRQ0 && line <= INPUT_LINE_IRQ5:
		bit := uint64(0x400) << uint(line)
		if asserted {
			cpu.Cpr[0][COP0_Cause] |= bit
			cpu.Time.EndSlice()
		} else {
			cpu.Cpr[0][COP0_Cause] &^= bit
		}
	case line == INPUT_LINE_RESET:
		if asserted {
			cpu.Reset()
		}
	default:
		cpu.log.Warnf("unknown input line %d", line)
	}
}

// Returns true if IRQ line `line` is latched in Cause
func (cpu *CPU) InputLine(line InputLine) bool {
	if line < INPUT_LINE_IRQ0 || line > INPUT_LINE_IRQ5 {
		return false
	}
	return cpu.Cpr[0][COP0_Cause]&(uint64(0x400)<<uint(line)) != 0
}
