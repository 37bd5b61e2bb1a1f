package mips3

import (
	"fmt"
	"math/rand"
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestBlockCacheModes(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}
	cpu, _ := newTestCPU(t, withDRC(true))
	drc := cpu.DRC()
	loadProgram(cpu, 0x80001000,
		encI(0x09, 1, 1, 1),
		opLoop(), opNOP)
	cpu.ExecuteRun(3)

	assert(cpu.Mode() == 0)
	block := drc.Lookup(0, 0x80001000)
	assert(block != nil)
	assert(block.Len() == 3)
	assert(drc.Lookup(4, 0x80001000) == nil)

	// the same code under another FPU mode compiles a second block
	cpu.setSR(SR_COP1 | SR_FR)
	cpu.PC = 0x80001000
	cpu.ExecuteRun(1)
	assert(cpu.Mode() == 4)
	assert(drc.Lookup(4, 0x80001000) != nil)
	assert(drc.Lookup(0, 0x80001000) == block)
	assert(drc.Blocks() >= 2)
	assert(cpu.Regs[1] == 2)
}

func TestBlockFormation(t *testing.T) {
	cpu, _ := newTestCPU(t, withDRC(true))
	loadProgram(cpu, 0x80001000,
		encI(0x09, 1, 1, 1),      // addiu
		encI(0x0a, 1, 2, 5),      // slti
		encI(0x0b, 1, 2, 5),      // sltiu
		encI(0x0c, 1, 2, 0xff),   // andi
		encI(0x0d, 1, 2, 0xff),   // ori
		encI(0x0e, 1, 2, 0xff),   // xori
		encI(0x0f, 0, 2, 0x1234), // lui
		encI(0x19, 1, 2, 1),      // daddiu
		opLoop(), opNOP)

	descs := cpu.scanBlock(0x80001000, 64)
	if len(descs) != 10 {
		t.Fatalf("block of %d instructions, expected 10", len(descs))
	}
	for _, desc := range descs[:8] {
		if desc.Flags != 0 {
			t.Errorf("0x%08x: flags 0x%x", desc.PC, desc.Flags)
		}
	}
	if !descs[8].Has(OPFLAG_IS_BRANCH) || !descs[9].Has(OPFLAG_IN_DELAY_SLOT) {
		t.Errorf("branch flags 0x%x, delay slot flags 0x%x", descs[8].Flags, descs[9].Flags)
	}
}

func TestSelfModifyingStore(t *testing.T) {
	for _, drc := range []bool{false, true} {
		t.Logf("running on the %s", engineName(drc))
		cpu, _ := newTestCPU(t, withDRC(drc))
		cpu.Regs[2] = uint64(encI(0x09, 0, 3, 7))
		cpu.Regs[4] = 0xffffffff80001000
		loadProgram(cpu, 0x80001000,
			encI(0x2b, 4, 2, 0x10), // sw $2,0x10($4)
			opNOP,
			opNOP,
			opNOP,
			encI(0x09, 0, 3, 1), // replaced by addiu $3,$0,7
			opLoop(), opNOP)
		var flushes int
		if drc {
			flushes = cpu.DRC().Stats().Flushes
		}
		cpu.ExecuteRun(5)

		if cpu.Regs[3] != 7 {
			t.Errorf("$3 = %d, the stale instruction ran", cpu.Regs[3])
		}
		if drc && cpu.DRC().Stats().Flushes != flushes+1 {
			t.Errorf("%d flushes", cpu.DRC().Stats().Flushes-flushes)
		}
	}
}

func TestStrictVerify(t *testing.T) {
	type verifyTest struct {
		Desc    string
		Options DRCOptions
		Result  uint64
	}
	tests := []verifyTest{
		{"verified", DRC_STRICT_VERIFY, 2},
		{"unverified", DRC_FASTEST_OPTIONS, 1},
	}

	for _, test := range tests {
		t.Logf("running %s", test.Desc)
		cpu, _ := newTestCPU(t, withDRC(true), func(cfg *Config) {
			cfg.DRCOptions = test.Options
		})
		loadProgram(cpu, 0x80001000, encI(0x09, 0, 3, 1), opLoop(), opNOP)
		cpu.ExecuteRun(1)

		// the host rewrites the code behind the recompiler's back
		loadProgram(cpu, 0x80001000, encI(0x09, 0, 3, 2))
		cpu.ExecuteRun(1)

		if cpu.Regs[3] != test.Result {
			t.Errorf("%s: $3 = %d, expected %d", test.Desc, cpu.Regs[3], test.Result)
		}
	}
}

func TestCacheSizeFlush(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}
	cpu, _ := newTestCPU(t, withDRC(true), func(cfg *Config) {
		cfg.CacheSize = 4
	})
	drc := cpu.DRC()
	loadProgram(cpu, 0x80001100, encI(0x09, 0, 3, 1), opLoop(), opNOP)
	loadProgram(cpu, 0x80001000, encJ(0x02, 0x80001100), opNOP)
	before := drc.Stats()
	cpu.ExecuteRun(3)

	stats := drc.Stats()
	assert(cpu.Regs[3] == 1)
	assert(stats.Blocks-before.Blocks == 2)
	assert(stats.Instructions-before.Instructions == 5)
	assert(stats.Flushes-before.Flushes == 1)
	assert(drc.Blocks() == 1)
	assert(drc.Lookup(0, 0x80001000) == nil)
	assert(drc.Lookup(0, 0x80001100) != nil)
}

func TestMaxBlockSize(t *testing.T) {
	cpu, _ := newTestCPU(t, withDRC(true), func(cfg *Config) {
		cfg.MaxBlockSize = 4
	})
	for addr := uint32(0x80001000); addr < 0x80001040; addr += 4 {
		cpu.Mem.Write32(addr&0x1fffffff, encI(0x09, 1, 1, 1), 0xffffffff)
	}
	loadProgram(cpu, 0x80001040, opLoop(), opNOP)
	cpu.PC = 0x80001000
	cpu.ExecuteRun(16)

	if cpu.Regs[1] != 16 {
		t.Errorf("$1 = %d", cpu.Regs[1])
	}
	for pc := uint32(0x80001000); pc < 0x80001040; pc += 16 {
		if block := cpu.DRC().Lookup(0, pc); block == nil || block.Len() != 4 {
			t.Errorf("no 4 instruction block at 0x%08x", pc)
		}
	}
}

func TestStrictCop1Fallbacks(t *testing.T) {
	fallbacks := map[DRCOptions]int{}
	for _, options := range []DRCOptions{DRC_COMPATIBLE_OPTIONS, DRC_FASTEST_OPTIONS} {
		cpu, _ := newTestCPU(t, withDRC(true), func(cfg *Config) {
			cfg.DRCOptions = options
		})
		cpu.SetFPR32(2, 0x1234)
		loadProgram(cpu, 0x80001000,
			encCop(1, 0x00, 3, 2), // mfc1 $3,$f2
			opLoop(), opNOP)
		cpu.ExecuteRun(1)

		if cpu.Regs[3] != 0x1234 {
			t.Errorf("options 0x%x: $3 = 0x%x", options, cpu.Regs[3])
		}
		block := cpu.DRC().Lookup(0, 0x80001000)
		if block == nil {
			t.Fatalf("options 0x%x: block not compiled", options)
		}
		fallbacks[options] = block.Fallbacks()
	}

	if fallbacks[DRC_COMPATIBLE_OPTIONS] != fallbacks[DRC_FASTEST_OPTIONS]+1 {
		t.Errorf("fallbacks: %v", fallbacks)
	}
}

func TestInvalidateOnTLBWrite(t *testing.T) {
	cpu, _ := newTestCPU(t, withDRC(true))
	loadProgram(cpu, 0x80001000, opLoop(), opNOP)
	cpu.ExecuteRun(4)
	if cpu.DRC().Blocks() == 0 {
		t.Fatal("nothing compiled")
	}

	writeTLBEntry(cpu, 3, 0, 0x00400000, entryLo(0x100, true, true, false), 0)
	if cpu.DRC().Blocks() != 0 {
		t.Errorf("%d blocks survived a TLB write", cpu.DRC().Blocks())
	}
}

var (
	randomSpecials = []uint32{
		0x04, 0x06, 0x07, 0x0a, 0x0b, 0x14, 0x21, 0x23, 0x24,
		0x25, 0x26, 0x27, 0x2a, 0x2b, 0x2d, 0x2f,
	}
	randomShifts     = []uint32{0x00, 0x02, 0x03, 0x38, 0x3a, 0x3b, 0x3c, 0x3e, 0x3f}
	randomImmediates = []uint32{0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x19}
	randomMulDiv     = []uint32{0x18, 0x19, 0x1a, 0x1b, 0x1c, 0x1d}
	randomLoads      = []uint32{0x20, 0x21, 0x23, 0x24, 0x25, 0x27, 0x37}
	randomStores     = []uint32{0x28, 0x29, 0x2b, 0x3f}
)

// Generates a program of `n` instructions that only touches $1 to $8 and the
// data page addressed by $9, followed by an endless loop
func randomProgram(rng *rand.Rand, n int) []uint32 {
	reg := func() uint32 { return uint32(1 + rng.Intn(8)) }
	pick := func(list []uint32) uint32 { return list[rng.Intn(len(list))] }

	prog := make([]uint32, 0, n+2)
	for i := 0; i < n; i++ {
		prevBranch := i > 0 && prog[i-1]>>26 >= 0x04 && prog[i-1]>>26 <= 0x05
		switch k := rng.Intn(10); {
		case k < 3:
			prog = append(prog, encR(reg(), reg(), reg(), 0, pick(randomSpecials)))
		case k < 4:
			prog = append(prog, encR(0, reg(), reg(), uint32(rng.Intn(32)), pick(randomShifts)))
		case k < 6:
			prog = append(prog, encI(pick(randomImmediates), reg(), reg(), int32(int16(rng.Uint32()))))
		case k < 7:
			prog = append(prog, encR(reg(), reg(), 0, 0, pick(randomMulDiv)))
			prog = append(prog, encR(0, 0, reg(), 0, 0x10+2*uint32(rng.Intn(2))))
			i++
		case k < 8:
			op := pick(randomLoads)
			off := int32(rng.Intn(64)) * 8
			prog = append(prog, encI(op, 9, reg(), off))
		case k < 9:
			op := pick(randomStores)
			off := int32(rng.Intn(64)) * 8
			prog = append(prog, encI(op, 9, reg(), off))
		default:
			if prevBranch || i+2 >= n {
				prog = append(prog, opNOP)
				continue
			}
			// forward branches that stay inside the program
			skip := 1 + rng.Intn(3)
			if i+1+skip >= n {
				skip = n - i - 2
			}
			prog = append(prog, encI(0x04+uint32(rng.Intn(2)), reg(), reg(), int32(skip)))
		}
	}
	return append(prog, opLoop(), opNOP)
}

// Runs random programs on both engines and compares the final states
func TestRandomDifferential(t *testing.T) {
	const programs = 64
	rng := rand.New(rand.NewSource(1))

	for p := 0; p < programs; p++ {
		prog := randomProgram(rng, 48)
		var init [9]uint64
		for i := range init {
			init[i] = rng.Uint64()
		}

		var cpus [2]*CPU
		for i := range cpus {
			cpus[i], _ = newTestCPU(t, withDRC(i == 1))
			cpu := cpus[i]
			copy(cpu.Regs[:], init[:])
			cpu.Regs[0] = 0
			cpu.Regs[9] = 0xffffffff80002000
			loadProgram(cpu, 0x80001000, prog...)
		}

		var g errgroup.Group
		for _, cpu := range cpus {
			cpu := cpu
			g.Go(func() error {
				cpu.ExecuteRun(5000)
				if cpu.PC != 0x80001000+uint32(len(prog)-2)*4 && cpu.PC != 0x80001000+uint32(len(prog)-1)*4 {
					return fmt.Errorf("%s did not reach the end, pc 0x%08x", engineName(cpu.DRC() != nil), cpu.PC)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			t.Fatalf("program %d: %v", p, err)
		}

		a, b := cpus[0], cpus[1]
		for r := range a.Regs {
			if a.Regs[r] != b.Regs[r] {
				t.Errorf("program %d: %s interpreter 0x%x drc 0x%x", p, GetRegisterName(uint32(r)), a.Regs[r], b.Regs[r])
			}
		}
		if a.PC != b.PC || a.Time.Cycles != b.Time.Cycles {
			t.Errorf("program %d: interpreter pc 0x%08x at %d, drc pc 0x%08x at %d", p, a.PC, a.Time.Cycles, b.PC, b.Time.Cycles)
		}
		for off := uint32(0); off < 0x200; off += 8 {
			va := a.Mem.Read64(0x2000+off, ^uint64(0))
			vb := b.Mem.Read64(0x2000+off, ^uint64(0))
			if va != vb {
				t.Errorf("program %d: data +0x%x interpreter 0x%x drc 0x%x", p, off, va, vb)
			}
		}
		if t.Failed() {
			for i, op := range prog {
				pc := 0x80001000 + uint32(i)*4
				t.Logf("%08x  %08x  %s", pc, op, Disassemble(pc, Instruction(op)))
			}
			return
		}
	}
}
