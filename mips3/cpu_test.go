package mips3

import (
	"encoding/binary"
	"errors"
	"testing"
)

const testRAMSize = 8 * 1024 * 1024

// Instruction encoders
func encI(op, rs, rt uint32, imm int32) uint32 {
	return op<<26 | rs<<21 | rt<<16 | uint32(uint16(imm))
}

func encR(rs, rt, rd, sa, fn uint32) uint32 {
	return rs<<21 | rt<<16 | rd<<11 | sa<<6 | fn
}

func encJ(op, target uint32) uint32 {
	return op<<26 | (target>>2)&0x3ffffff
}

func encCop(cop, fn, rt, rd uint32) uint32 {
	return (0x10+cop)<<26 | fn<<21 | rt<<16 | rd<<11
}

const (
	opNOP     = 0
	opSYSCALL = 0x0000000c
	opTLBWI   = 0x42000002
	opTLBWR   = 0x42000006
	opTLBP    = 0x42000008
	opTLBR    = 0x42000001
	opERET    = 0x42000018
)

// Branch to self
func opLoop() uint32 {
	return encI(0x04, 0, 0, -1)
}

// Creates a CPU on an 8MB RAM at physical address 0, in kernel mode with
// the FPU enabled and the exception vectors in kseg0
func newTestCPU(t *testing.T, opts ...func(cfg *Config)) (*CPU, *RAM) {
	t.Helper()
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	var order binary.ByteOrder = binary.LittleEndian
	if cfg.BigEndian {
		order = binary.BigEndian
	}
	ram := NewRAM(testRAMSize, order)
	cpu, err := NewCPU(cfg, NewInterconnect(ram, RAM_BASE, nil, 0))
	if err != nil {
		t.Fatal(err)
	}
	cpu.setSR(SR_COP1)
	return cpu, ram
}

func withDRC(enabled bool) func(cfg *Config) {
	return func(cfg *Config) {
		cfg.DRC = enabled
	}
}

func littleEndian(cfg *Config) {
	cfg.BigEndian = false
}

// Writes `words` at virtual address `addr` (kseg0 or kseg1) and points PC at it
func loadProgram(cpu *CPU, addr uint32, words ...uint32) {
	phys := addr & 0x1fffffff
	for i, w := range words {
		cpu.Mem.Write32(phys+uint32(i)*4, w, 0xffffffff)
	}
	cpu.PC = addr
}

func steps(cpu *CPU, n int) {
	for i := 0; i < n; i++ {
		cpu.step()
	}
}

func engineName(drc bool) string {
	if drc {
		return "drc"
	}
	return "interpreter"
}

func TestReset(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}
	cpu, _ := newTestCPU(t)
	cpu.Regs[5] = 5
	cpu.NextPC = 0x1234
	cpu.SetInputLine(INPUT_LINE_RESET, true)

	assert(cpu.PC == 0xbfc00000)
	assert(cpu.NextPC == NO_BRANCH)
	assert(cpu.sr()&SR_BEV != 0)
	assert(cpu.sr()&SR_ERL != 0)
	assert(uint32(cpu.Cpr[0][COP0_PRId]) == 0x2020)
	assert(uint32(cpu.Cpr[0][COP0_Compare]) == 0xffffffff)
	assert(uint32(cpu.Cpr[0][COP0_Config])&0x8000 != 0)

	n := len(cpu.TLB.Entries)
	live := cpu.TLB.LiveSlots()
	assert(len(live) == 2 && live[0] == 2*n && live[1] == 2*n+1)
	for _, e := range cpu.TLB.Entries {
		assert(e.EntryLo[0]&2 == 0 && e.EntryLo[1]&2 == 0)
	}

	phys, ok := cpu.TLB.Lookup(0x80001234, VTLB_READ_ALLOWED)
	assert(ok && phys == 0x1234)
	phys, ok = cpu.TLB.Lookup(0xbfc00000, VTLB_FETCH_ALLOWED)
	assert(ok && phys == 0x1fc00000)
	_, ok = cpu.TLB.Lookup(0x00001000, VTLB_READ_ALLOWED)
	assert(!ok)
	_, ok = cpu.TLB.Lookup(0xc0000000, VTLB_READ_ALLOWED)
	assert(!ok)
}

func TestNewCPUErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TLBEntries = MAX_TLB_ENTRIES + 1
	if _, err := NewCPU(cfg, NewInterconnect(nil, 0, nil, 0)); err == nil {
		t.Error("expected an error for too many TLB entries")
	}
	if _, err := NewCPU(DefaultConfig(), nil); err == nil {
		t.Error("expected an error without an address space")
	}

	cfg = DefaultConfig()
	cfg.Flavor = FLAVOR_VR4300
	cpu, err := NewCPU(cfg, NewInterconnect(nil, 0, nil, 0))
	if err != nil {
		t.Fatal(err)
	}
	if len(cpu.TLB.Entries) != 32 || uint32(cpu.Cpr[0][COP0_PRId]) != 0x0b00 {
		t.Errorf("vr4300: %d TLB entries, PRId 0x%04x", len(cpu.TLB.Entries), cpu.Cpr[0][COP0_PRId])
	}
}

func TestConfigRegister(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ICacheSize = 32 * 1024
	cfg.DCacheSize = 8 * 1024
	cfg.SystemClock = cfg.Clock / 3
	reg := cfg.configRegister()
	if got := (reg >> 9) & 7; got != 3 {
		t.Errorf("icache bits: got %d, expected 3", got)
	}
	if got := (reg >> 6) & 7; got != 1 {
		t.Errorf("dcache bits: got %d, expected 1", got)
	}
	if got := reg >> 28; got != 4 {
		t.Errorf("clock divider: got %d, expected 4", got)
	}
	cfg.BigEndian = false
	if cfg.configRegister()&0x8000 != 0 {
		t.Error("little endian config has the BE bit set")
	}
}

func TestAddiuChain(t *testing.T) {
	for _, drc := range []bool{false, true} {
		t.Logf("running on the %s", engineName(drc))
		cpu, _ := newTestCPU(t, withDRC(drc))
		loadProgram(cpu, 0x80001000,
			encI(0x09, 0, 1, 100),
			encI(0x09, 1, 2, -50),
			opLoop(), opNOP)
		cpu.ExecuteRun(2)
		if cpu.Regs[2] != 50 {
			t.Errorf("$2 = %d, expected 50", cpu.Regs[2])
		}
		if cpu.PC != 0x80001008 {
			t.Errorf("pc = 0x%08x, expected 0x80001008", cpu.PC)
		}
	}
}

func TestZeroRegister(t *testing.T) {
	type zeroTest struct {
		Desc string
		Op   uint32
	}
	tests := []zeroTest{
		{"addiu", encI(0x09, 1, 0, 7)},
		{"lui", encI(0x0f, 0, 0, 0x1234)},
		{"ori", encI(0x0d, 1, 0, 0xff)},
		{"daddiu", encI(0x19, 1, 0, 1)},
		{"slti", encI(0x0a, 0, 0, 5)},
		{"addu", encR(1, 2, 0, 0, 0x21)},
		{"or", encR(1, 2, 0, 0, 0x25)},
		{"sll", encR(0, 1, 0, 4, 0x00)},
		{"dsll32", encR(0, 1, 0, 1, 0x3c)},
		{"mfhi", encR(0, 0, 0, 0, 0x10)},
		{"jalr", encR(3, 0, 0, 0, 0x09)},
		{"lw", encI(0x23, 3, 0, 0)},
		{"lb", encI(0x20, 3, 0, 0)},
		{"ld", encI(0x37, 3, 0, 0)},
		{"mfc0", encCop(0, 0x00, 0, COP0_PRId)},
		{"mfc1", encCop(1, 0x00, 0, 2)},
		{"ll", encI(0x30, 3, 0, 0)},
		{"movn", encR(1, 2, 0, 0, 0x0b)},
	}

	for _, drc := range []bool{false, true} {
		for _, test := range tests {
			t.Logf("running %s on the %s", test.Desc, engineName(drc))
			cpu, _ := newTestCPU(t, withDRC(drc))
			cpu.Regs[1] = 0x1111
			cpu.Regs[2] = 0x2222
			cpu.Regs[3] = 0x80002000
			cpu.Regs[REG_HI] = 0x5555
			cpu.Cpr[1][2] = 0x3f800000
			loadProgram(cpu, 0x80001000, test.Op, opNOP, opLoop(), opNOP)
			cpu.ExecuteRun(1)
			if cpu.Regs[0] != 0 {
				t.Errorf("%s: r0 = 0x%x", test.Desc, cpu.Regs[0])
			}
		}
	}
}

func TestDivideByZero(t *testing.T) {
	for _, fn := range []uint32{0x1a, 0x1b, 0x1e, 0x1f} {
		t.Logf("running function 0x%02x", fn)
		cpu, _ := newTestCPU(t)
		cpu.Regs[1] = 0x1234567890
		cpu.Regs[2] = 0
		cpu.Regs[REG_HI] = 0xdeadbeefcafef00d
		cpu.Regs[REG_LO] = 0x0123456789abcdef
		loadProgram(cpu, 0x80001000, encR(1, 2, 0, 0, fn))
		steps(cpu, 1)

		if cpu.Regs[REG_HI] != 0xdeadbeefcafef00d || cpu.Regs[REG_LO] != 0x0123456789abcdef {
			t.Errorf("function 0x%02x: hi 0x%x lo 0x%x changed", fn, cpu.Regs[REG_HI], cpu.Regs[REG_LO])
		}
		if cpu.Cpr[0][COP0_Cause]&0x7c != 0 || cpu.PC != 0x80001004 {
			t.Errorf("function 0x%02x raised an exception", fn)
		}
	}
}

func TestDelaySlotException(t *testing.T) {
	type slotTest struct {
		Desc   string
		Slot   uint32
		Vector uint32
		Code   uint32
	}
	tests := []slotTest{
		{"syscall", opSYSCALL, 0x80000180, uint32(EXCEPTION_SYSCALL)},
		{"tlb refill", encI(0x23, 0, 3, 0x100), 0x80000000, uint32(EXCEPTION_TLBLOAD)},
		{"overflow", encR(1, 1, 3, 0, 0x20), 0x80000180, uint32(EXCEPTION_OVERFLOW)},
	}

	for _, drc := range []bool{false, true} {
		for _, test := range tests {
			t.Logf("running %s on the %s", test.Desc, engineName(drc))
			cpu, _ := newTestCPU(t, withDRC(drc))
			cpu.Regs[1] = 0x7fffffff
			loadProgram(cpu, 0x80001000, encI(0x04, 0, 0, 2), test.Slot, opNOP, opNOP)
			loadProgram(cpu, test.Vector, opLoop(), opNOP)
			cpu.PC = 0x80001000
			cpu.ExecuteRun(2)

			cause := uint32(cpu.Cpr[0][COP0_Cause])
			if epc := uint32(cpu.Cpr[0][COP0_EPC]); epc != 0x80001000 {
				t.Errorf("%s: epc 0x%08x, expected 0x80001000", test.Desc, epc)
			}
			if cause&0x80000000 == 0 {
				t.Errorf("%s: branch delay bit clear in cause 0x%08x", test.Desc, cause)
			}
			if (cause>>2)&0x1f != test.Code {
				t.Errorf("%s: exception code %d, expected %d", test.Desc, (cause>>2)&0x1f, test.Code)
			}
			if cpu.PC != test.Vector && cpu.PC != test.Vector+4 {
				t.Errorf("%s: pc 0x%08x, expected the handler at 0x%08x", test.Desc, cpu.PC, test.Vector)
			}
			if cpu.sr()&SR_EXL == 0 {
				t.Errorf("%s: EXL clear", test.Desc)
			}
		}
	}
}

func TestBranchLikely(t *testing.T) {
	type likelyTest struct {
		Desc  string
		R2    uint64
		Taken bool
	}
	tests := []likelyTest{
		{"not taken", 2, false},
		{"taken", 1, true},
	}

	for _, drc := range []bool{false, true} {
		for _, test := range tests {
			t.Logf("running %s on the %s", test.Desc, engineName(drc))
			cpu, _ := newTestCPU(t, withDRC(drc))
			cpu.Regs[1] = 1
			cpu.Regs[2] = test.R2
			cpu.Regs[3] = 0x1234
			loadProgram(cpu, 0x80001000,
				encI(0x14, 1, 2, 3),    // beql $1,$2,+3
				encI(0x09, 0, 3, 0x55), // delay slot
				encI(0x09, 0, 4, 1),
				opLoop(), opNOP,
			)
			cpu.ExecuteRun(2)

			if test.Taken {
				if cpu.Regs[3] != 0x55 || cpu.Regs[4] != 0 || cpu.PC != 0x80001010 {
					t.Errorf("%s: r3 0x%x r4 %d pc 0x%08x", test.Desc, cpu.Regs[3], cpu.Regs[4], cpu.PC)
				}
			} else {
				if cpu.Regs[3] != 0x1234 || cpu.Regs[4] != 1 {
					t.Errorf("%s: delay slot ran, r3 0x%x r4 %d", test.Desc, cpu.Regs[3], cpu.Regs[4])
				}
			}
		}
	}
}

func TestExecuteRunFinishesDelaySlot(t *testing.T) {
	for _, drc := range []bool{false, true} {
		cpu, _ := newTestCPU(t, withDRC(drc))
		loadProgram(cpu, 0x80001000,
			encJ(0x02, 0x80001100),
			encI(0x09, 0, 5, 9),
		)
		loadProgram(cpu, 0x80001100, opLoop(), opNOP)
		cpu.PC = 0x80001000

		cycles := cpu.ExecuteRun(1)
		if cycles != 2 || cpu.Regs[5] != 9 || cpu.PC != 0x80001100 || cpu.NextPC != NO_BRANCH {
			t.Errorf("%s: %d cycles, r5 %d, pc 0x%08x", engineName(drc), cycles, cpu.Regs[5], cpu.PC)
		}
	}
}

func TestCycleCosts(t *testing.T) {
	type costTest struct {
		Desc   string
		Op     uint32
		Cycles uint64
	}
	tests := []costTest{
		{"mult", encR(1, 2, 0, 0, 0x18), 1 + MULT_CYCLES},
		{"div", encR(1, 2, 0, 0, 0x1a), 1 + DIV_CYCLES},
		{"dmultu", encR(1, 2, 0, 0, 0x1d), 1 + DMULT_CYCLES},
		{"ddiv", encR(1, 2, 0, 0, 0x1e), 1 + DDIV_CYCLES},
		{"mfc0 count", encCop(0, 0x00, 3, COP0_Count), 1 + COUNT_READ_CYCLES},
		{"mfc0 cause", encCop(0, 0x00, 3, COP0_Cause), 1 + CAUSE_READ_CYCLES},
		{"addu", encR(1, 2, 3, 0, 0x21), 1},
	}

	for _, test := range tests {
		t.Logf("running %s", test.Desc)
		cpu, _ := newTestCPU(t)
		cpu.Regs[1] = 100
		cpu.Regs[2] = 7
		loadProgram(cpu, 0x80001000, test.Op, opLoop(), opNOP)
		cpu.Time.Begin(1000)
		steps(cpu, 1)
		if cpu.Time.Cycles != test.Cycles {
			t.Errorf("%s: %d cycles, expected %d", test.Desc, cpu.Time.Cycles, test.Cycles)
		}
	}

	// burned cycles stop at the end of the slice
	cpu, _ := newTestCPU(t)
	loadProgram(cpu, 0x80001000, encCop(0, 0x00, 3, COP0_Count), opLoop(), opNOP)
	if cycles := cpu.ExecuteRun(10); cycles != 11 {
		t.Errorf("count read in a 10 cycle run took %d cycles", cycles)
	}
}

func TestHotspots(t *testing.T) {
	for _, drc := range []bool{false, true} {
		cpu, _ := newTestCPU(t, withDRC(drc))
		loadProgram(cpu, 0x80001000, opLoop(), opNOP)
		if err := cpu.AddHotspot(0x80001000, Instruction(opLoop()), 1000); err != nil {
			t.Fatal(err)
		}
		cycles := cpu.ExecuteRun(1)
		// the branch and its delay slot
		if cycles != 1002 {
			t.Errorf("%s: %d cycles, expected 1002", engineName(drc), cycles)
		}
	}

	cpu, _ := newTestCPU(t)
	for i := 0; i < MAX_HOTSPOTS; i++ {
		if err := cpu.AddHotspot(uint32(i)*4, 0, 1); err != nil {
			t.Fatal(err)
		}
	}
	if err := cpu.AddHotspot(0, 0, 1); !errors.Is(err, ErrTooManyHotspots) {
		t.Errorf("expected ErrTooManyHotspots, got %v", err)
	}
}

func TestBreakpointInDelaySlot(t *testing.T) {
	cpu, _ := newTestCPU(t)
	loadProgram(cpu, 0x80001000, opLoop(), opNOP)
	cpu.AttachDebugger(NewDebugger())
	cpu.Debugger().AddBreakpoint(0x80001004)
	if cycles := cpu.ExecuteRun(100); cycles != 1 {
		t.Errorf("stopped after %d cycles, expected 1", cycles)
	}
	if cpu.NextPC != 0x80001000 {
		t.Errorf("pending branch lost: 0x%08x", cpu.NextPC)
	}
}

func TestMode(t *testing.T) {
	cpu, _ := newTestCPU(t)
	if cpu.Mode() != 0 {
		t.Errorf("kernel mode %d", cpu.Mode())
	}
	cpu.setSR(SR_KSU_USER | SR_FR)
	if cpu.Mode() != 6 {
		t.Errorf("user mode with FR %d", cpu.Mode())
	}
	cpu.setSR(SR_KSU_USER | SR_EXL)
	if cpu.Mode() != 0 {
		t.Errorf("user mode at exception level %d", cpu.Mode())
	}
	cpu.setSR(SR_KSU_SUPERV)
	if cpu.Mode() != 1 {
		t.Errorf("supervisor mode %d", cpu.Mode())
	}
}
