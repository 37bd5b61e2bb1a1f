package mips3

type Exception uint32

const (
	EXCEPTION_INTERRUPT     Exception = 0  // External or software interrupt
	EXCEPTION_TLBMOD        Exception = 1  // Store to a page that is not writable
	EXCEPTION_TLBLOAD       Exception = 2  // TLB miss on load or fetch
	EXCEPTION_TLBSTORE      Exception = 3  // TLB miss on store
	EXCEPTION_ADDRLOAD      Exception = 4  // Address error on load
	EXCEPTION_ADDRSTORE     Exception = 5  // Address error on store
	EXCEPTION_BUSINST       Exception = 6  // Bus error on instruction fetch
	EXCEPTION_BUSDATA       Exception = 7  // Bus error on data access
	EXCEPTION_SYSCALL       Exception = 8  // System call (caused by the SYSCALL opcode)
	EXCEPTION_BREAK         Exception = 9  // Breakpoint (caused by the BREAK opcode)
	EXCEPTION_INVALIDOP     Exception = 10 // Reserved instruction
	EXCEPTION_BADCOP        Exception = 11 // Coprocessor unusable
	EXCEPTION_OVERFLOW      Exception = 12 // Arithmetic overflow
	EXCEPTION_TRAP          Exception = 13 // Conditional trap
	EXCEPTION_VCEI          Exception = 14 // Virtual coherency (instruction)
	EXCEPTION_FPE           Exception = 15 // Floating point exception
	EXCEPTION_TLBLOAD_FILL  Exception = 16 // TLB refill on load or fetch, vectored at offset 0
	EXCEPTION_TLBSTORE_FILL Exception = 17 // TLB refill on store, vectored at offset 0

	EXCEPTION_COUNT = 18
)

var exceptionNames = [EXCEPTION_COUNT]string{
	"interrupt", "tlbmod", "tlbload", "tlbstore", "addrload", "addrstore",
	"businst", "busdata", "syscall", "break", "invalidop", "badcop",
	"overflow", "trap", "vcei", "fpe", "tlbload_fill", "tlbstore_fill",
}

func (exc Exception) String() string {
	if exc < EXCEPTION_COUNT {
		return exceptionNames[exc]
	}
	return "unknown"
}

// Enters the exception handler for `exception`. If `backup` is set the PC is
// rewound to the faulting instruction before it is saved to EPC
func (cpu *CPU) generateException(exception Exception, backup bool) {
	offset := uint32(0x180)

	if backup {
		cpu.PC = cpu.PPC
	}

	// refills use the dedicated vector and report the regular cause code
	if exception == EXCEPTION_TLBLOAD_FILL || exception == EXCEPTION_TLBSTORE_FILL {
		offset = 0
		exception = exception - EXCEPTION_TLBLOAD_FILL + EXCEPTION_TLBLOAD
	}

	cpu.Cpr[0][COP0_EPC] = sext32(uint64(cpu.PC))
	cause := uint32(cpu.Cpr[0][COP0_Cause])
	cause = (cause &^ 0x800000ff) | uint32(exception)<<2
	if exception == EXCEPTION_BADCOP {
		cause = (cause &^ 0x30000000) | cpu.badcop<<28
	}

	// a fault in a delay slot resumes at the branch
	if cpu.NextPC != NO_BRANCH || cpu.delaySlot {
		cpu.NextPC = NO_BRANCH
		cpu.delaySlot = false
		cpu.Cpr[0][COP0_EPC] = sext32(cpu.Cpr[0][COP0_EPC] - 4)
		cause |= 0x80000000
	}
	cpu.Cpr[0][COP0_Cause] = uint64(cause)

	sr := cpu.sr()
	cpu.setSR(sr | SR_EXL)

	if sr&SR_BEV != 0 {
		cpu.PC = 0xbfc00200
	} else {
		cpu.PC = 0x80000000
	}
	cpu.PC += offset

	cpu.exceptionTaken = true
	if exception != EXCEPTION_INTERRUPT {
		cpu.log.Debugf("exception %s at 0x%08x, epc 0x%08x, cause 0x%08x",
			exception, cpu.PPC, uint32(cpu.Cpr[0][COP0_EPC]), cause)
	}
}

// Enters a TLB exception for `addr`, filling BadVAddr, Context and EntryHi
func (cpu *CPU) generateTLBException(exception Exception, addr uint32) {
	cpu.Cpr[0][COP0_BadVAddr] = sext32(uint64(addr))
	switch exception {
	case EXCEPTION_TLBLOAD, EXCEPTION_TLBSTORE, EXCEPTION_TLBLOAD_FILL, EXCEPTION_TLBSTORE_FILL:
		ctx := uint32(cpu.Cpr[0][COP0_Context])
		cpu.Cpr[0][COP0_Context] = sext32(uint64((ctx & 0xff800000) | ((addr >> 9) & 0x007ffff0)))
		hi := uint32(cpu.Cpr[0][COP0_EntryHi])
		cpu.Cpr[0][COP0_EntryHi] = sext32(uint64((addr & 0xffffe000) | (hi & 0xff)))
	}
	cpu.generateException(exception, true)
}

// Raises a reserved instruction exception
func (cpu *CPU) invalidInstruction(op Instruction) {
	cpu.log.Warnf("invalid instruction 0x%08x at 0x%08x", uint32(op), cpu.PPC)
	cpu.generateException(EXCEPTION_INVALIDOP, true)
}

// Raises a coprocessor unusable exception for coprocessor `cop`
func (cpu *CPU) badCop(cop uint32) {
	cpu.badcop = cop
	cpu.generateException(EXCEPTION_BADCOP, true)
}

// Returns true if the interrupt exception should be taken now
func (cpu *CPU) irqPending() bool {
	sr := cpu.sr()
	cause := uint32(cpu.Cpr[0][COP0_Cause])
	return cause&sr&0xfc00 != 0 && sr&SR_IE != 0 && sr&(SR_EXL|SR_ERL) == 0
}

// Takes the interrupt exception if one is pending and unmasked
func (cpu *CPU) checkIrqs() {
	if cpu.irqPending() {
		cpu.log.Debugf("interrupt at 0x%08x, cause 0x%08x", cpu.PC, uint32(cpu.Cpr[0][COP0_Cause]))
		cpu.generateException(EXCEPTION_INTERRUPT, false)
	}
}
