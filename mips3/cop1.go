package mips3

import "math"

// Bit positions of the 8 FPU condition codes in FCR31
var fccShift = [8]uint{23, 25, 26, 27, 28, 29, 30, 31}

// FPU rounding modes stored in FCR31 bits [1:0]
const (
	FPU_ROUND_NEAREST = 0
	FPU_ROUND_ZERO    = 1
	FPU_ROUND_UP      = 2
	FPU_ROUND_DOWN    = 3
)

// Returns true when the FPU uses 32 64 bit registers
func (cpu *CPU) fr1() bool {
	return cpu.sr()&SR_FR != 0
}

// Returns true if COP1 instructions may execute
func (cpu *CPU) cop1Usable() bool {
	return cpu.sr()&SR_COP1 != 0
}

// Returns the 32 bit FPU register `idx`. With FR clear, odd registers are the
// upper half of the preceding even register
func (cpu *CPU) FPR32(idx uint32) uint32 {
	if cpu.fr1() {
		return uint32(cpu.Cpr[1][idx])
	}
	if idx&1 != 0 {
		return uint32(cpu.Cpr[1][idx&0x1e] >> 32)
	}
	return uint32(cpu.Cpr[1][idx&0x1e])
}

// Sets the 32 bit FPU register `idx`. With FR set, the upper half of the
// register is cleared
func (cpu *CPU) SetFPR32(idx uint32, val uint32) {
	if cpu.fr1() {
		cpu.Cpr[1][idx] = uint64(val)
		return
	}
	slot := &cpu.Cpr[1][idx&0x1e]
	if idx&1 != 0 {
		*slot = (*slot & 0x00000000ffffffff) | uint64(val)<<32
	} else {
		*slot = (*slot & 0xffffffff00000000) | uint64(val)
	}
}

// Returns the 64 bit FPU register `idx`. With FR clear, the odd bit of `idx`
// is ignored
func (cpu *CPU) FPR64(idx uint32) uint64 {
	if !cpu.fr1() {
		idx &= 0x1e
	}
	return cpu.Cpr[1][idx]
}

// Sets the 64 bit FPU register `idx`
func (cpu *CPU) SetFPR64(idx uint32, val uint64) {
	if !cpu.fr1() {
		idx &= 0x1e
	}
	cpu.Cpr[1][idx] = val
}

// Returns FPU control register `idx`. FCR31 reflects the condition codes
func (cpu *CPU) getCop1Creg(idx uint32) uint64 {
	if idx == 31 {
		result := uint32(cpu.Ccr[1][31]) &^ 0xfe800000
		for i, shift := range fccShift {
			if cpu.Cf[1][i] {
				result |= 1 << shift
			}
		}
		return uint64(result)
	}
	return cpu.Ccr[1][idx]
}

// Sets FPU control register `idx`. Writing FCR31 updates the condition codes
func (cpu *CPU) setCop1Creg(idx uint32, val uint64) {
	cpu.Ccr[1][idx] = val
	if idx == 31 {
		for i, shift := range fccShift {
			cpu.Cf[1][i] = (val>>shift)&1 != 0
		}
	}
}

// Returns FCR31 with the current condition codes
func (cpu *CPU) FCR31() uint32 {
	return uint32(cpu.getCop1Creg(31))
}

// Reads FPU register `idx` as a single (`single` set) or double value
func (cpu *CPU) fpRead(idx uint32, single bool) float64 {
	if single {
		return float64(math.Float32frombits(cpu.FPR32(idx)))
	}
	return math.Float64frombits(cpu.FPR64(idx))
}

// Writes `v` to FPU register `idx`, rounded to single precision if `single` is set
func (cpu *CPU) fpWrite(idx uint32, single bool, v float64) {
	if single {
		cpu.SetFPR32(idx, math.Float32bits(float32(v)))
	} else {
		cpu.SetFPR64(idx, math.Float64bits(v))
	}
}

// Copies the raw bits of FPU register `fs` to `fd`
func (cpu *CPU) fpMove(fd, fs uint32, single bool) {
	if single {
		cpu.SetFPR32(fd, cpu.FPR32(fs))
	} else {
		cpu.SetFPR64(fd, cpu.FPR64(fs))
	}
}

// Returns the integer value nearest to `v` in the FCR31 rounding mode
func (cpu *CPU) fpRound(v float64) float64 {
	switch cpu.Ccr[1][31] & 3 {
	case FPU_ROUND_ZERO:
		return math.Trunc(v)
	case FPU_ROUND_UP:
		return math.Ceil(v)
	case FPU_ROUND_DOWN:
		return math.Floor(v)
	default:
		return math.RoundToEven(v)
	}
}

// Converts an integral float to a word. Out of range values and NaN give
// the invalid operation result 0x7fffffff
func fpToWord(v float64) uint32 {
	if math.IsNaN(v) || v >= 2147483648.0 || v < -2147483648.0 {
		return 0x7fffffff
	}
	return uint32(int32(v))
}

// Converts an integral float to a long. Out of range values and NaN give
// the invalid operation result 0x7fffffffffffffff
func fpToLong(v float64) uint64 {
	if math.IsNaN(v) || v >= 9223372036854775808.0 || v < -9223372036854775808.0 {
		return 0x7fffffffffffffff
	}
	return uint64(int64(v))
}

// Evaluates the C.cond.fmt predicate `cond` (bit 0 unordered, bit 1 equal,
// bit 2 less than)
func fpCompare(cond uint32, a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return cond&1 != 0
	}
	return (cond&2 != 0 && a == b) || (cond&4 != 0 && a < b)
}

// Computes s*t+r with the product rounded before the addition
func fpMulAdd(single bool, s, t, r float64) float64 {
	p := float64(s * t)
	if single {
		p = float64(float32(p))
	}
	return p + r
}

// Computes s*t-r with the product rounded before the subtraction
func fpMulSub(single bool, s, t, r float64) float64 {
	p := float64(s * t)
	if single {
		p = float64(float32(p))
	}
	return p - r
}

// Executes a COP1 instruction
func (cpu *CPU) handleCop1(op Instruction) {
	if !cpu.cop1Usable() {
		cpu.badCop(1)
		return
	}

	t := op.T()
	d := op.D()

	switch op.CopFunction() {
	case 0x00: // MFC1
		if t != 0 {
			cpu.Regs[t] = sext32(uint64(cpu.FPR32(d)))
		}
	case 0x01: // DMFC1
		if t != 0 {
			cpu.Regs[t] = cpu.FPR64(d)
		}
	case 0x02: // CFC1
		if t != 0 {
			cpu.Regs[t] = sext32(cpu.getCop1Creg(d))
		}
	case 0x04: // MTC1
		cpu.SetFPR32(d, cpu.reg32(t))
	case 0x05: // DMTC1
		cpu.SetFPR64(d, cpu.Regs[t])
	case 0x06: // CTC1
		cpu.setCop1Creg(d, uint64(cpu.reg32(t)))
	case 0x08: // BC1
		cc := cpu.Cf[1][op.BranchCC()]
		switch (uint32(op) >> 16) & 3 {
		case 0x00: // BC1F
			if !cc {
				cpu.branch(op)
			}
		case 0x01: // BC1T
			if cc {
				cpu.branch(op)
			}
		case 0x02: // BC1FL
			cpu.branchLikely(op, !cc)
		case 0x03: // BC1TL
			cpu.branchLikely(op, cc)
		}
	default:
		cpu.cop1Arith(op)
	}
}

// Executes a COP1 computational instruction
func (cpu *CPU) cop1Arith(op Instruction) {
	// bit 21 selects between the single/word and double/long formats
	single := uint32(op)&(1<<21) == 0
	integral := uint32(op)&(1<<23) != 0
	fs, ft, fd := op.FS(), op.FT(), op.FD()

	switch op.Subfunction() {
	case 0x00: // ADD
		cpu.fpWrite(fd, single, cpu.fpRead(fs, single)+cpu.fpRead(ft, single))
	case 0x01: // SUB
		cpu.fpWrite(fd, single, cpu.fpRead(fs, single)-cpu.fpRead(ft, single))
	case 0x02: // MUL
		cpu.fpWrite(fd, single, cpu.fpRead(fs, single)*cpu.fpRead(ft, single))
	case 0x03: // DIV
		cpu.fpWrite(fd, single, cpu.fpRead(fs, single)/cpu.fpRead(ft, single))
	case 0x04: // SQRT
		cpu.fpWrite(fd, single, math.Sqrt(cpu.fpRead(fs, single)))
	case 0x05: // ABS
		if single {
			cpu.SetFPR32(fd, cpu.FPR32(fs)&^(1<<31))
		} else {
			cpu.SetFPR64(fd, cpu.FPR64(fs)&^(1<<63))
		}
	case 0x06: // MOV
		cpu.fpMove(fd, fs, single)
	case 0x07: // NEG
		if single {
			cpu.SetFPR32(fd, cpu.FPR32(fs)^(1<<31))
		} else {
			cpu.SetFPR64(fd, cpu.FPR64(fs)^(1<<63))
		}

	case 0x08: // ROUND.L
		cpu.SetFPR64(fd, fpToLong(math.Round(cpu.fpRead(fs, single))))
	case 0x09: // TRUNC.L
		cpu.SetFPR64(fd, fpToLong(math.Trunc(cpu.fpRead(fs, single))))
	case 0x0a: // CEIL.L
		cpu.SetFPR64(fd, fpToLong(math.Ceil(cpu.fpRead(fs, single))))
	case 0x0b: // FLOOR.L
		cpu.SetFPR64(fd, fpToLong(math.Floor(cpu.fpRead(fs, single))))
	case 0x0c: // ROUND.W
		cpu.SetFPR32(fd, fpToWord(math.Round(cpu.fpRead(fs, single))))
	case 0x0d: // TRUNC.W
		cpu.SetFPR32(fd, fpToWord(math.Trunc(cpu.fpRead(fs, single))))
	case 0x0e: // CEIL.W
		cpu.SetFPR32(fd, fpToWord(math.Ceil(cpu.fpRead(fs, single))))
	case 0x0f: // FLOOR.W
		cpu.SetFPR32(fd, fpToWord(math.Floor(cpu.fpRead(fs, single))))

	case 0x11: // MOVF, MOVT
		if cpu.Cf[1][op.BranchCC()] == ((uint32(op)>>16)&1 != 0) {
			cpu.fpMove(fd, fs, single)
		}
	case 0x12: // MOVZ
		if cpu.Regs[ft] == 0 {
			cpu.fpMove(fd, fs, single)
		}
	case 0x13: // MOVN
		if cpu.Regs[ft] != 0 {
			cpu.fpMove(fd, fs, single)
		}
	case 0x15: // RECIP
		cpu.fpWrite(fd, single, 1.0/cpu.fpRead(fs, single))
	case 0x16: // RSQRT
		cpu.fpWrite(fd, single, 1.0/math.Sqrt(cpu.fpRead(fs, single)))

	case 0x20: // CVT.S
		switch {
		case integral && single: // CVT.S.W
			cpu.SetFPR32(fd, math.Float32bits(float32(int32(cpu.FPR32(fs)))))
		case integral: // CVT.S.L
			cpu.SetFPR32(fd, math.Float32bits(float32(int64(cpu.FPR64(fs)))))
		default: // CVT.S.D
			cpu.SetFPR32(fd, math.Float32bits(float32(cpu.fpRead(fs, false))))
		}
	case 0x21: // CVT.D
		switch {
		case integral && single: // CVT.D.W
			cpu.SetFPR64(fd, math.Float64bits(float64(int32(cpu.FPR32(fs)))))
		case integral: // CVT.D.L
			cpu.SetFPR64(fd, math.Float64bits(float64(int64(cpu.FPR64(fs)))))
		default: // CVT.D.S
			cpu.SetFPR64(fd, math.Float64bits(cpu.fpRead(fs, true)))
		}
	case 0x24: // CVT.W
		cpu.SetFPR32(fd, fpToWord(cpu.fpRound(cpu.fpRead(fs, single))))
	case 0x25: // CVT.L
		cpu.SetFPR64(fd, fpToLong(cpu.fpRound(cpu.fpRead(fs, single))))

	case 0x30, 0x31, 0x32, 0x33, 0x34, 0x35, 0x36, 0x37,
		0x38, 0x39, 0x3a, 0x3b, 0x3c, 0x3d, 0x3e, 0x3f: // C.cond
		cond := op.Subfunction() & 0x0f
		cpu.Cf[1][op.CompareCC()] = fpCompare(cond, cpu.fpRead(fs, single), cpu.fpRead(ft, single))

	default:
		cpu.log.Warnf("unknown cop1 instruction 0x%08x at 0x%08x", uint32(op), cpu.PPC)
	}
}

// Executes a COP1X instruction
func (cpu *CPU) handleCop1X(op Instruction) {
	if !cpu.cop1Usable() {
		cpu.badCop(1)
		return
	}

	addr := cpu.reg32(op.S()) + cpu.reg32(op.T())
	fr, ft, fs, fd := op.FR(), op.FT(), op.FS(), op.FD()

	switch op.Subfunction() {
	case 0x00: // LWXC1
		if val, ok := cpu.readWord(addr); ok {
			cpu.SetFPR32(fd, val)
		}
	case 0x01: // LDXC1
		if val, ok := cpu.readDouble(addr); ok {
			cpu.SetFPR64(fd, val)
		}
	case 0x08: // SWXC1
		cpu.writeWord(addr, cpu.FPR32(fs))
	case 0x09: // SDXC1
		cpu.writeDouble(addr, cpu.FPR64(fs))
	case 0x0f: // PREFX

	case 0x20, 0x21: // MADD
		single := op.Subfunction() == 0x20
		cpu.fpWrite(fd, single, fpMulAdd(single, cpu.fpRead(fs, single), cpu.fpRead(ft, single), cpu.fpRead(fr, single)))
	case 0x28, 0x29: // MSUB
		single := op.Subfunction() == 0x28
		cpu.fpWrite(fd, single, fpMulSub(single, cpu.fpRead(fs, single), cpu.fpRead(ft, single), cpu.fpRead(fr, single)))
	case 0x30, 0x31: // NMADD
		single := op.Subfunction() == 0x30
		cpu.fpWrite(fd, single, -fpMulAdd(single, cpu.fpRead(fs, single), cpu.fpRead(ft, single), cpu.fpRead(fr, single)))
	case 0x38, 0x39: // NMSUB
		single := op.Subfunction() == 0x38
		cpu.fpWrite(fd, single, -fpMulSub(single, cpu.fpRead(fs, single), cpu.fpRead(ft, single), cpu.fpRead(fr, single)))

	default:
		cpu.log.Warnf("unknown cop1x instruction 0x%08x at 0x%08x", uint32(op), cpu.PPC)
	}
}
