package mips3

import "testing"

func TestRandomRegister(t *testing.T) {
	type randomTest struct {
		Desc     string
		Wired    uint64
		Min, Max uint32
	}
	tests := []randomTest{
		{"no wired entries", 0, 0, 47},
		{"40 wired entries", 40, 40, 47},
		{"all wired", 48, 47, 47},
		{"wired out of range", 60, 47, 47},
	}

	for _, test := range tests {
		t.Logf("running %s", test.Desc)
		cpu, _ := newTestCPU(t)
		cpu.setCop0Reg(COP0_Wired, test.Wired)

		seen := map[uint32]bool{}
		for i := 0; i < 200; i++ {
			r := uint32(cpu.getCop0Reg(COP0_Random))
			if r < test.Min || r > test.Max {
				t.Fatalf("%s: random %d outside [%d, %d]", test.Desc, r, test.Min, test.Max)
			}
			seen[r] = true
			cpu.Time.Tick(1)
		}
		if len(seen) != int(test.Max-test.Min+1) {
			t.Errorf("%s: %d distinct values, expected %d", test.Desc, len(seen), test.Max-test.Min+1)
		}
	}
}

func TestCop0WriteSideEffects(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}
	cpu, _ := newTestCPU(t)

	// only the kseg0 coherency bits of Config are writable
	config := cpu.Cpr[0][COP0_Config]
	cpu.setCop0Reg(COP0_Config, 0xffffffff)
	assert(cpu.Cpr[0][COP0_Config] == config|7)
	cpu.setCop0Reg(COP0_Config, 0)
	assert(cpu.Cpr[0][COP0_Config] == config&^7)

	cpu.setCop0Reg(COP0_PRId, 0x1234)
	assert(cpu.getCop0Reg(COP0_PRId) == 0x2020)

	// the hardware interrupt bits of Cause are read only
	cpu.Cpr[0][COP0_Cause] = 0x8400
	cpu.setCop0Reg(COP0_Cause, 0x300)
	assert(cpu.Cpr[0][COP0_Cause] == 0x8700)
	cpu.setCop0Reg(COP0_Cause, 0)
	assert(cpu.Cpr[0][COP0_Cause] == 0x8400)

	// writing Compare acknowledges the timer interrupt
	cpu.Time.CompareArmed = false
	cpu.setCop0Reg(COP0_Compare, 0x100001234)
	assert(cpu.Cpr[0][COP0_Compare] == 0x1234)
	assert(cpu.Cpr[0][COP0_Cause] == 0x0400)
	assert(cpu.Time.CompareArmed)

	cpu.Time.Tick(1000)
	cpu.setCop0Reg(COP0_Count, 77)
	assert(cpu.Time.Count() == 77)
	cpu.Time.Tick(10)
	assert(cpu.Time.Count() == 82)
}

func TestCop0Moves(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}
	for _, drc := range []bool{false, true} {
		t.Logf("running on the %s", engineName(drc))
		cpu, _ := newTestCPU(t, withDRC(drc))
		cpu.Regs[1] = 0x0000000080001234
		cpu.Regs[2] = 0x123456789abcdef0
		loadProgram(cpu, 0x80001000,
			encCop(0, 0x04, 1, COP0_EPC),     // mtc0 $1,EPC
			encCop(0, 0x00, 3, COP0_EPC),     // mfc0 $3,EPC
			encCop(0, 0x05, 2, COP0_ErrorPC), // dmtc0 $2,ErrorPC
			encCop(0, 0x01, 4, COP0_ErrorPC), // dmfc0 $4,ErrorPC
			encCop(0, 0x00, 5, COP0_ErrorPC), // mfc0 $5,ErrorPC
			encCop(0, 0x00, 0, COP0_EPC),     // mfc0 $0,EPC
			opLoop(), opNOP)
		cpu.ExecuteRun(6)

		assert(cpu.Cpr[0][COP0_EPC] == 0x80001234)
		assert(cpu.Regs[3] == 0xffffffff80001234)
		assert(cpu.Regs[4] == 0x123456789abcdef0)
		assert(cpu.Regs[5] == 0xffffffff9abcdef0)
		assert(cpu.Regs[0] == 0)
		assert(cpu.PC == 0x80001018)
	}
}

func TestCop0Branches(t *testing.T) {
	for _, cond := range []bool{false, true} {
		t.Logf("running with the condition %v", cond)
		cpu, _ := newTestCPU(t)
		cpu.Cf[0][0] = cond
		loadProgram(cpu, 0x80001000,
			0x41000003, // bc0f +3
			opNOP,
		)
		steps(cpu, 2)

		taken := cpu.PC == 0x80001010
		if taken == cond {
			t.Errorf("bc0f taken %v with the condition %v", taken, cond)
		}
	}
}

func TestCop2(t *testing.T) {
	assert := func(v bool) {
		if !v {
			t.Error("assert failed")
		}
	}
	cpu, _ := newTestCPU(t)
	cpu.setSR(SR_COP1 | SR_COP2)
	cpu.Regs[1] = 0xfedcba9876543210
	loadProgram(cpu, 0x80001000,
		encCop(2, 0x04, 1, 7),   // mtc2 $1,$7
		encCop(2, 0x05, 1, 8),   // dmtc2 $1,$8
		encCop(2, 0x06, 1, 9),   // ctc2 $1,$9
		encCop(2, 0x00, 2, 7),   // mfc2 $2,$7
		encCop(2, 0x01, 3, 8),   // dmfc2 $3,$8
		encCop(2, 0x02, 4, 9),   // cfc2 $4,$9
		encCop(2, 0x08, 1, 0)|3, // bc2t +3
		opNOP,
	)
	cpu.Cf[2][0] = true
	steps(cpu, 8)

	assert(cpu.Cpr[2][7] == 0x76543210)
	assert(cpu.Cpr[2][8] == 0xfedcba9876543210)
	assert(cpu.Ccr[2][9] == 0x76543210)
	assert(cpu.Regs[2] == 0x0000000076543210)
	assert(cpu.Regs[3] == 0xfedcba9876543210)
	assert(cpu.Regs[4] == 0x0000000076543210)
	assert(cpu.PC == 0x80001028)
}
