package mips3

// Keeps track of the emulation time, measured in CPU cycles
type TimeHandler struct {
	Cycles        uint64 // Total executed cycles
	CountZeroTime uint64 // Cycle at which COP0 Count was zero
	CompareArmed  bool   // Set by writes to Compare, cleared when the timer fires
	CompareDue    uint64 // Cycle at which the compare interrupt fires
	compareSet    bool   // CompareDue is valid
	target        uint64 // End of the current ExecuteRun budget
	runUntil      uint64 // End of the current slice of the budget
	stopped       bool
}

// Returns a new instance of TimeHandler
func NewTimeHandler() *TimeHandler {
	return &TimeHandler{}
}

// Advance the current time by `cycles`
func (th *TimeHandler) Tick(cycles uint64) {
	th.Cycles += cycles
}

// Starts a new budget of `budget` cycles
func (th *TimeHandler) Begin(budget uint64) {
	th.target = th.Cycles + budget
	th.runUntil = th.target
	th.stopped = false
}

// Returns true once the budget is exhausted or a stop was requested
func (th *TimeHandler) Done() bool {
	return th.stopped || th.Cycles >= th.target
}

// Returns true while the current slice has cycles left
func (th *TimeHandler) Running() bool {
	return th.Cycles < th.runUntil
}

// Returns the number of cycles left in the current slice
func (th *TimeHandler) Remaining() uint64 {
	if th.Cycles >= th.runUntil {
		return 0
	}
	return th.runUntil - th.Cycles
}

// Ends the current budget at the next instruction boundary
func (th *TimeHandler) Stop() {
	th.stopped = true
	th.target = th.Cycles
	th.runUntil = th.Cycles
}

// Ends the current slice so the run loop looks at interrupts before the next
// instruction
func (th *TimeHandler) EndSlice() {
	if th.runUntil > th.Cycles {
		th.runUntil = th.Cycles
	}
}

// Burns up to `cycles` cycles without going past the end of the slice
func (th *TimeHandler) Burn(cycles uint64) {
	if rem := th.Remaining(); cycles > rem {
		cycles = rem
	}
	th.Cycles += cycles
}

// Returns the current value of COP0 Count
func (th *TimeHandler) Count() uint32 {
	return uint32((th.Cycles - th.CountZeroTime) / 2)
}

// Rebases the Count epoch so that Count reads `count` now
func (th *TimeHandler) SetCount(count uint32) {
	th.CountZeroTime = th.Cycles - uint64(count)*2
}

// Reschedules the compare interrupt and shortens the current slice so that it
// ends when the interrupt is due
func (cpu *CPU) updateCycleCounting() {
	th := cpu.Time
	th.compareSet = false
	if th.CompareArmed && cpu.sr()&SR_IMEX5 != 0 {
		delta := uint32(cpu.Cpr[0][COP0_Compare]) - th.Count()
		th.CompareDue = th.Cycles + uint64(delta)*2
		th.compareSet = true
	}

	th.runUntil = th.target
	if th.stopped {
		th.runUntil = th.Cycles
	} else if th.compareSet && th.CompareDue < th.runUntil {
		th.runUntil = th.CompareDue
	}
}

// Raises IRQ5 if the compare interrupt is due
func (cpu *CPU) fireCompare() {
	th := cpu.Time
	if th.compareSet && th.Cycles >= th.CompareDue {
		th.compareSet = false
		th.CompareArmed = false
		cpu.SetInputLine(INPUT_LINE_IRQ5, true)
	}
}
