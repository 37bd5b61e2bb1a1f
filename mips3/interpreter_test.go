package mips3

import "testing"

func TestALU(t *testing.T) {
	type aluTest struct {
		Desc   string
		Op     uint32
		A, B   uint64
		Result uint64
	}
	// rs = $1 = A, rt = $2 = B, the result is read from $3
	tests := []aluTest{
		{"sll", encR(0, 2, 3, 4, 0x00), 0, 0x80000001, 0x10},
		{"sll sign extends", encR(0, 2, 3, 4, 0x00), 0, 0x08000000, 0xffffffff80000000},
		{"srl", encR(0, 2, 3, 4, 0x02), 0, 0xffffffff80000000, 0x08000000},
		{"sra", encR(0, 2, 3, 4, 0x03), 0, 0x80000000, 0xfffffffff8000000},
		{"sllv", encR(1, 2, 3, 0, 0x04), 36, 1, 0x10},
		{"srlv", encR(1, 2, 3, 0, 0x06), 31, 0x80000000, 1},
		{"srav", encR(1, 2, 3, 0, 0x07), 1, 0xfffffffffffffff0, 0xfffffffffffffff8},
		{"dsllv", encR(1, 2, 3, 0, 0x14), 36, 1, 0x1000000000},
		{"dsrlv", encR(1, 2, 3, 0, 0x16), 68, 0xf0, 0x0f},
		{"dsrav", encR(1, 2, 3, 0, 0x17), 4, 0x8000000000000000, 0xf800000000000000},
		{"dsll", encR(0, 2, 3, 8, 0x38), 0, 0xff, 0xff00},
		{"dsrl", encR(0, 2, 3, 8, 0x3a), 0, 0xff00, 0xff},
		{"dsra", encR(0, 2, 3, 4, 0x3b), 0, 0x8000000000000000, 0xf800000000000000},
		{"dsll32", encR(0, 2, 3, 4, 0x3c), 0, 1, 0x1000000000},
		{"dsrl32", encR(0, 2, 3, 0, 0x3e), 0, 0xffffffff00000000, 0xffffffff},
		{"dsra32", encR(0, 2, 3, 0, 0x3f), 0, 0x8000000000000000, 0xffffffff80000000},
		{"movz", encR(1, 2, 3, 0, 0x0a), 0x1234, 0, 0x1234},
		{"movz not zero", encR(1, 2, 3, 0, 0x0a), 0x1234, 1, 0xdead},
		{"movn", encR(1, 2, 3, 0, 0x0b), 0x1234, 1, 0x1234},
		{"movn zero", encR(1, 2, 3, 0, 0x0b), 0x1234, 0, 0xdead},
		{"addu", encR(1, 2, 3, 0, 0x21), 0x7fffffff, 1, 0xffffffff80000000},
		{"addu ignores upper bits", encR(1, 2, 3, 0, 0x21), 0x1200000001, 0x3400000001, 2},
		{"subu", encR(1, 2, 3, 0, 0x23), 0, 1, 0xffffffffffffffff},
		{"daddu", encR(1, 2, 3, 0, 0x2d), 0xffffffff, 1, 0x100000000},
		{"dsubu", encR(1, 2, 3, 0, 0x2f), 0x100000000, 1, 0xffffffff},
		{"and", encR(1, 2, 3, 0, 0x24), 0xf0f0, 0xff00, 0xf000},
		{"or", encR(1, 2, 3, 0, 0x25), 0xf0f0, 0xff00, 0xfff0},
		{"xor", encR(1, 2, 3, 0, 0x26), 0xf0f0, 0xff00, 0x0ff0},
		{"nor", encR(1, 2, 3, 0, 0x27), 0xf0f0, 0xff00, 0xffffffffffff000f},
		{"slt", encR(1, 2, 3, 0, 0x2a), 0xffffffffffffffff, 1, 1},
		{"sltu", encR(1, 2, 3, 0, 0x2b), 0xffffffffffffffff, 1, 0},
		{"addiu", encI(0x09, 1, 3, -1), 0, 0, 0xffffffffffffffff},
		{"slti", encI(0x0a, 1, 3, -4), 0xfffffffffffffffb, 0, 1},
		{"sltiu", encI(0x0b, 1, 3, -1), 5, 0, 1},
		{"andi", encI(0x0c, 1, 3, 0x8000), 0xffffffffffffffff, 0, 0x8000},
		{"ori", encI(0x0d, 1, 3, 0x1234), 0xffff0000, 0, 0xffff1234},
		{"xori", encI(0x0e, 1, 3, 0xffff), 0xff, 0, 0xff00},
		{"lui", encI(0x0f, 0, 3, 0x8000), 0, 0, 0xffffffff80000000},
		{"daddiu", encI(0x19, 1, 3, 1), 0x7fffffff, 0, 0x80000000},
		{"mul", 0x1c<<26 | encR(1, 2, 3, 0, 0x02), 0xfffffffffffffffd, 5, 0xfffffffffffffff1},
	}

	for _, drc := range []bool{false, true} {
		for _, test := range tests {
			t.Logf("running %s on the %s", test.Desc, engineName(drc))
			cpu, _ := newTestCPU(t, withDRC(drc))
			cpu.Regs[1] = test.A
			cpu.Regs[2] = test.B
			cpu.Regs[3] = 0xdead
			loadProgram(cpu, 0x80001000, test.Op, opLoop(), opNOP)
			cpu.ExecuteRun(1)

			if cpu.Regs[3] != test.Result {
				t.Errorf("%s: got 0x%x, expected 0x%x", test.Desc, cpu.Regs[3], test.Result)
			}
			if cpu.PC != 0x80001004 {
				t.Errorf("%s: pc 0x%08x", test.Desc, cpu.PC)
			}
		}
	}
}

func TestMultiplyDivide(t *testing.T) {
	type mdTest struct {
		Desc   string
		Fn     uint32
		A, B   uint64
		HI, LO uint64
		Cycles uint64
	}
	tests := []mdTest{
		{"mult", 0x18, 0xfffffffffffffffe, 3, 0xffffffffffffffff, 0xfffffffffffffffa, MULT_CYCLES},
		{"multu", 0x19, 0xffffffff, 2, 1, 0xfffffffffffffffe, MULT_CYCLES},
		{"div", 0x1a, 0xfffffffffffffff9, 2, 0xffffffffffffffff, 0xfffffffffffffffd, DIV_CYCLES},
		{"divu", 0x1b, 7, 2, 1, 3, DIV_CYCLES},
		{"dmult", 0x1c, 0xffffffffffffffff, 0xffffffffffffffff, 0, 1, DMULT_CYCLES},
		{"dmult mixed signs", 0x1c, 0xfffffffffffffffe, 3, 0xffffffffffffffff, 0xfffffffffffffffa, DMULT_CYCLES},
		{"dmultu", 0x1d, 1 << 63, 4, 2, 0, DMULT_CYCLES},
		{"ddiv", 0x1e, 0xfffffffffffffff7, 4, 0xffffffffffffffff, 0xfffffffffffffffe, DDIV_CYCLES},
		{"ddivu", 0x1f, 0xffffffffffffffff, 0x10, 0xf, 0x0fffffffffffffff, DDIV_CYCLES},
	}

	for _, test := range tests {
		t.Logf("running %s", test.Desc)
		cpu, _ := newTestCPU(t)
		cpu.Regs[1] = test.A
		cpu.Regs[2] = test.B
		loadProgram(cpu, 0x80001000,
			encR(1, 2, 0, 0, test.Fn),
			encR(0, 0, 3, 0, 0x10), // mfhi $3
			encR(0, 0, 4, 0, 0x12), // mflo $4
		)
		steps(cpu, 1)
		if cpu.Time.Cycles != 1+test.Cycles {
			t.Errorf("%s: %d cycles", test.Desc, cpu.Time.Cycles)
		}
		steps(cpu, 2)

		if cpu.Regs[3] != test.HI || cpu.Regs[4] != test.LO {
			t.Errorf("%s: hi 0x%x lo 0x%x, expected hi 0x%x lo 0x%x", test.Desc, cpu.Regs[3], cpu.Regs[4], test.HI, test.LO)
		}
	}
}

func TestMoveToHiLo(t *testing.T) {
	cpu, _ := newTestCPU(t)
	cpu.Regs[1] = 0x1111
	cpu.Regs[2] = 0x2222
	loadProgram(cpu, 0x80001000,
		encR(1, 0, 0, 0, 0x11), // mthi $1
		encR(2, 0, 0, 0, 0x13), // mtlo $2
	)
	steps(cpu, 2)

	if cpu.Regs[REG_HI] != 0x1111 || cpu.Regs[REG_LO] != 0x2222 {
		t.Errorf("hi 0x%x lo 0x%x", cpu.Regs[REG_HI], cpu.Regs[REG_LO])
	}
}

func TestJumpsAndLinks(t *testing.T) {
	type jumpTest struct {
		Desc string
		Op   uint32
		A, B uint64
		PC   uint32
		Link uint32
	}
	// every case runs the branch and one more instruction
	tests := []jumpTest{
		{"j", encJ(0x02, 0x80001100), 0, 0, 0x80001100, 0},
		{"jal", encJ(0x03, 0x80001100), 0, 0, 0x80001100, 31},
		{"jr", encR(1, 0, 0, 0, 0x08), 0xffffffff80001200, 0, 0x80001200, 0},
		{"jalr", encR(1, 0, 5, 0, 0x09), 0xffffffff80001200, 0, 0x80001200, 5},
		{"beq taken", encI(0x04, 1, 2, 0x40), 7, 7, 0x80001104, 0},
		{"bne backwards", encI(0x05, 1, 2, -2), 1, 0, 0x80000ffc, 0},
		{"blez taken", encI(0x06, 1, 0, 0x40), 0, 0, 0x80001104, 0},
		{"bgtz not taken", encI(0x07, 1, 0, 0x40), 0, 0, 0x80001008, 0},
		{"bltz taken", encI(0x01, 1, 0x00, 0x40), 0x8000000000000000, 0, 0x80001104, 0},
		{"bgez not taken", encI(0x01, 1, 0x01, 0x40), 0xffffffffffffffff, 0, 0x80001008, 0},
		{"bltzl not taken", encI(0x01, 1, 0x02, 0x40), 0, 0, 0x8000100c, 0},
		{"bgezl taken", encI(0x01, 1, 0x03, 0x40), 0, 0, 0x80001104, 0},
		{"bltzal not taken", encI(0x01, 1, 0x10, 0x40), 0, 0, 0x80001008, 31},
		{"bgezal taken", encI(0x01, 1, 0x11, 0x40), 0, 0, 0x80001104, 31},
		{"bltzall not taken", encI(0x01, 1, 0x12, 0x40), 0, 0, 0x8000100c, 31},
		{"bgezall taken", encI(0x01, 1, 0x13, 0x40), 5, 0, 0x80001104, 31},
		{"blezl not taken", encI(0x16, 1, 0, 0x40), 1, 0, 0x8000100c, 0},
		{"bgtzl taken", encI(0x17, 1, 0, 0x40), 1, 0, 0x80001104, 0},
	}

	for _, drc := range []bool{false, true} {
		for _, test := range tests {
			t.Logf("running %s on the %s", test.Desc, engineName(drc))
			cpu, _ := newTestCPU(t, withDRC(drc))
			for addr := uint32(0x80000f00); addr < 0x80001300; addr += 4 {
				cpu.Mem.Write32(addr&0x1fffffff, opNOP, 0xffffffff)
			}
			cpu.Regs[1] = test.A
			cpu.Regs[2] = test.B
			loadProgram(cpu, 0x80001000, test.Op)
			cpu.ExecuteRun(2)

			if cpu.PC != test.PC {
				t.Errorf("%s: pc 0x%08x, expected 0x%08x", test.Desc, cpu.PC, test.PC)
			}
			if test.Link != 0 && cpu.Regs[test.Link] != 0xffffffff80001008 {
				t.Errorf("%s: link 0x%x", test.Desc, cpu.Regs[test.Link])
			}
		}
	}
}
