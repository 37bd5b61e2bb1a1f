package mips3

import "fmt"

var specialMnemonics = map[uint32]string{
	0x04: "sllv", 0x06: "srlv", 0x07: "srav", 0x0a: "movz", 0x0b: "movn",
	0x14: "dsllv", 0x16: "dsrlv", 0x17: "dsrav",
	0x20: "add", 0x21: "addu", 0x22: "sub", 0x23: "subu",
	0x24: "and", 0x25: "or", 0x26: "xor", 0x27: "nor",
	0x2a: "slt", 0x2b: "sltu", 0x2c: "dadd", 0x2d: "daddu", 0x2e: "dsub", 0x2f: "dsubu",
}

var specialShiftMnemonics = map[uint32]string{
	0x00: "sll", 0x02: "srl", 0x03: "sra",
	0x38: "dsll", 0x3a: "dsrl", 0x3b: "dsra", 0x3c: "dsll32", 0x3e: "dsrl32", 0x3f: "dsra32",
}

var specialMultMnemonics = map[uint32]string{
	0x18: "mult", 0x19: "multu", 0x1a: "div", 0x1b: "divu",
	0x1c: "dmult", 0x1d: "dmultu", 0x1e: "ddiv", 0x1f: "ddivu",
	0x30: "tge", 0x31: "tgeu", 0x32: "tlt", 0x33: "tltu", 0x34: "teq", 0x36: "tne",
}

var regimmMnemonics = map[uint32]string{
	0x00: "bltz", 0x01: "bgez", 0x02: "bltzl", 0x03: "bgezl",
	0x08: "tgei", 0x09: "tgeiu", 0x0a: "tlti", 0x0b: "tltiu", 0x0c: "teqi", 0x0e: "tnei",
	0x10: "bltzal", 0x11: "bgezal", 0x12: "bltzall", 0x13: "bgezall",
}

var immMnemonics = map[uint32]string{
	0x08: "addi", 0x09: "addiu", 0x0a: "slti", 0x0b: "sltiu",
	0x0c: "andi", 0x0d: "ori", 0x0e: "xori", 0x18: "daddi", 0x19: "daddiu",
}

var memMnemonics = map[uint32]string{
	0x1a: "ldl", 0x1b: "ldr",
	0x20: "lb", 0x21: "lh", 0x22: "lwl", 0x23: "lw", 0x24: "lbu", 0x25: "lhu", 0x26: "lwr", 0x27: "lwu",
	0x28: "sb", 0x29: "sh", 0x2a: "swl", 0x2b: "sw", 0x2c: "sdl", 0x2d: "sdr", 0x2e: "swr",
	0x30: "ll", 0x34: "lld", 0x37: "ld", 0x38: "sc", 0x3c: "scd", 0x3f: "sd",
}

var copMemMnemonics = map[uint32]string{
	0x31: "lwc1", 0x32: "lwc2", 0x35: "ldc1", 0x36: "ldc2",
	0x39: "swc1", 0x3a: "swc2", 0x3d: "sdc1", 0x3e: "sdc2",
}

var fpuMnemonics = map[uint32]string{
	0x00: "add", 0x01: "sub", 0x02: "mul", 0x03: "div", 0x04: "sqrt", 0x05: "abs", 0x06: "mov", 0x07: "neg",
	0x08: "round.l", 0x09: "trunc.l", 0x0a: "ceil.l", 0x0b: "floor.l",
	0x0c: "round.w", 0x0d: "trunc.w", 0x0e: "ceil.w", 0x0f: "floor.w",
	0x12: "movz", 0x13: "movn", 0x15: "recip", 0x16: "rsqrt",
	0x20: "cvt.s", 0x21: "cvt.d", 0x24: "cvt.w", 0x25: "cvt.l",
}

var fpuConditions = [16]string{
	"f", "un", "eq", "ueq", "olt", "ult", "ole", "ule",
	"sf", "ngle", "seq", "ngl", "lt", "nge", "le", "ngt",
}

var branchMnemonics = map[uint32]string{
	0x04: "beq", 0x05: "bne", 0x06: "blez", 0x07: "bgtz",
	0x14: "beql", 0x15: "bnel", 0x16: "blezl", 0x17: "bgtzl",
}

func signedHex(v int32) string {
	if v < 0 {
		return fmt.Sprintf("-$%x", -int64(v))
	}
	return fmt.Sprintf("$%x", v)
}

// Returns the assembly text of `op` located at `pc`
func Disassemble(pc uint32, op Instruction) string {
	s, t, d := GetRegisterName(op.S()), GetRegisterName(op.T()), GetRegisterName(op.D())
	simm := signedHex(int32(int16(op.Imm())))
	target := pc + 4 + op.BranchOffset()

	switch fn := op.Function(); fn {
	case 0x00:
		return disassembleSpecial(op)
	case 0x01:
		if name, ok := regimmMnemonics[op.T()]; ok {
			if op.T()&0x08 != 0 {
				return fmt.Sprintf("%s %s,%s", name, s, simm)
			}
			return fmt.Sprintf("%s %s,$%08x", name, s, target)
		}
	case 0x02, 0x03:
		name := "j"
		if fn == 0x03 {
			name = "jal"
		}
		return fmt.Sprintf("%s $%08x", name, ((pc+4)&0xf0000000)|(op.ImmJump()<<2))
	case 0x04, 0x05, 0x14, 0x15:
		if fn == 0x04 && op.S() == 0 && op.T() == 0 {
			return fmt.Sprintf("b $%08x", target)
		}
		return fmt.Sprintf("%s %s,%s,$%08x", branchMnemonics[fn], s, t, target)
	case 0x06, 0x07, 0x16, 0x17:
		return fmt.Sprintf("%s %s,$%08x", branchMnemonics[fn], s, target)
	case 0x08, 0x09, 0x0a, 0x0b, 0x18, 0x19:
		if fn == 0x09 && op.S() == 0 {
			return fmt.Sprintf("li %s,%s", t, simm)
		}
		return fmt.Sprintf("%s %s,%s,%s", immMnemonics[fn], t, s, simm)
	case 0x0c, 0x0d, 0x0e:
		return fmt.Sprintf("%s %s,%s,$%04x", immMnemonics[fn], t, s, op.Imm())
	case 0x0f:
		return fmt.Sprintf("lui %s,$%04x", t, op.Imm())
	case 0x10:
		return disassembleCop0(op, target)
	case 0x11:
		return disassembleCop1(op, target)
	case 0x12:
		return disassembleCop2(op, target)
	case 0x13:
		return disassembleCop1X(op)
	case 0x1c:
		if op.Subfunction() == 0x02 {
			return fmt.Sprintf("mul %s,%s,%s", d, s, t)
		}
	case 0x2f:
		return fmt.Sprintf("cache $%x,%s(%s)", op.T(), simm, s)
	case 0x33:
		return fmt.Sprintf("pref $%x,%s(%s)", op.T(), simm, s)
	default:
		if name, ok := memMnemonics[fn]; ok {
			return fmt.Sprintf("%s %s,%s(%s)", name, t, simm, s)
		}
		if name, ok := copMemMnemonics[fn]; ok {
			return fmt.Sprintf("%s $%d,%s(%s)", name, op.T(), simm, s)
		}
	}
	return fmt.Sprintf("dw $%08x", uint32(op))
}

func disassembleSpecial(op Instruction) string {
	s, t, d := GetRegisterName(op.S()), GetRegisterName(op.T()), GetRegisterName(op.D())
	sub := op.Subfunction()

	if op == 0 {
		return "nop"
	}
	if name, ok := specialShiftMnemonics[sub]; ok {
		return fmt.Sprintf("%s %s,%s,%d", name, d, t, op.Shift())
	}
	if name, ok := specialMnemonics[sub]; ok {
		if sub == 0x25 && op.T() == 0 {
			return fmt.Sprintf("move %s,%s", d, s)
		}
		if sub >= 0x04 && sub <= 0x17 && sub != 0x0a && sub != 0x0b {
			return fmt.Sprintf("%s %s,%s,%s", name, d, t, s)
		}
		return fmt.Sprintf("%s %s,%s,%s", name, d, s, t)
	}
	if name, ok := specialMultMnemonics[sub]; ok {
		return fmt.Sprintf("%s %s,%s", name, s, t)
	}

	switch sub {
	case 0x01:
		name := "movf"
		if op.T()&1 != 0 {
			name = "movt"
		}
		return fmt.Sprintf("%s %s,%s,$fcc%d", name, d, s, op.BranchCC())
	case 0x08:
		return fmt.Sprintf("jr %s", s)
	case 0x09:
		if op.D() == 31 {
			return fmt.Sprintf("jalr %s", s)
		}
		return fmt.Sprintf("jalr %s,%s", d, s)
	case 0x0c:
		return "syscall"
	case 0x0d:
		return "break"
	case 0x0f:
		return "sync"
	case 0x10:
		return fmt.Sprintf("mfhi %s", d)
	case 0x11:
		return fmt.Sprintf("mthi %s", s)
	case 0x12:
		return fmt.Sprintf("mflo %s", d)
	case 0x13:
		return fmt.Sprintf("mtlo %s", s)
	}
	return fmt.Sprintf("dw $%08x", uint32(op))
}

func disassembleCopMove(cop uint32, op Instruction, target uint32) (string, bool) {
	t := GetRegisterName(op.T())
	switch op.CopFunction() {
	case 0x00:
		return fmt.Sprintf("mfc%d %s,$%d", cop, t, op.D()), true
	case 0x01:
		return fmt.Sprintf("dmfc%d %s,$%d", cop, t, op.D()), true
	case 0x02:
		return fmt.Sprintf("cfc%d %s,$%d", cop, t, op.D()), true
	case 0x04:
		return fmt.Sprintf("mtc%d %s,$%d", cop, t, op.D()), true
	case 0x05:
		return fmt.Sprintf("dmtc%d %s,$%d", cop, t, op.D()), true
	case 0x06:
		return fmt.Sprintf("ctc%d %s,$%d", cop, t, op.D()), true
	case 0x08:
		cond := "f"
		if op.T()&1 != 0 {
			cond = "t"
		}
		if op.T()&2 != 0 {
			cond += "l"
		}
		return fmt.Sprintf("bc%d%s $%08x", cop, cond, target), true
	}
	return "", false
}

func disassembleCop0(op Instruction, target uint32) string {
	if text, ok := disassembleCopMove(0, op, target); ok {
		return text
	}
	if op.CopFunction() >= 0x10 {
		switch op.Subfunction() {
		case 0x01:
			return "tlbr"
		case 0x02:
			return "tlbwi"
		case 0x06:
			return "tlbwr"
		case 0x08:
			return "tlbp"
		case 0x18:
			return "eret"
		case 0x20:
			return "wait"
		}
	}
	return fmt.Sprintf("dw $%08x", uint32(op))
}

func disassembleCop1(op Instruction, target uint32) string {
	if text, ok := disassembleCopMove(1, op, target); ok {
		return text
	}

	var format string
	switch op.Fmt() {
	case 0x10:
		format = "s"
	case 0x11:
		format = "d"
	case 0x14:
		format = "w"
	case 0x15:
		format = "l"
	default:
		return fmt.Sprintf("dw $%08x", uint32(op))
	}

	sub := op.Subfunction()
	if sub >= 0x30 {
		return fmt.Sprintf("c.%s.%s $fcc%d,$f%d,$f%d", fpuConditions[sub&0xf], format, op.CompareCC(), op.FS(), op.FT())
	}
	if sub == 0x11 {
		name := "movf"
		if op.T()&1 != 0 {
			name = "movt"
		}
		return fmt.Sprintf("%s.%s $f%d,$f%d,$fcc%d", name, format, op.FD(), op.FS(), op.BranchCC())
	}
	name, ok := fpuMnemonics[sub]
	if !ok {
		return fmt.Sprintf("dw $%08x", uint32(op))
	}
	switch sub {
	case 0x00, 0x01, 0x02, 0x03:
		return fmt.Sprintf("%s.%s $f%d,$f%d,$f%d", name, format, op.FD(), op.FS(), op.FT())
	case 0x12, 0x13:
		return fmt.Sprintf("%s.%s $f%d,$f%d,%s", name, format, op.FD(), op.FS(), GetRegisterName(op.T()))
	}
	return fmt.Sprintf("%s.%s $f%d,$f%d", name, format, op.FD(), op.FS())
}

func disassembleCop2(op Instruction, target uint32) string {
	if text, ok := disassembleCopMove(2, op, target); ok {
		return text
	}
	return fmt.Sprintf("cop2 $%07x", uint32(op)&0x01ffffff)
}

func disassembleCop1X(op Instruction) string {
	base, index := GetRegisterName(op.S()), GetRegisterName(op.T())
	switch sub := op.Subfunction(); sub {
	case 0x00:
		return fmt.Sprintf("lwxc1 $f%d,%s(%s)", op.FD(), index, base)
	case 0x01:
		return fmt.Sprintf("ldxc1 $f%d,%s(%s)", op.FD(), index, base)
	case 0x08:
		return fmt.Sprintf("swxc1 $f%d,%s(%s)", op.FS(), index, base)
	case 0x09:
		return fmt.Sprintf("sdxc1 $f%d,%s(%s)", op.FS(), index, base)
	case 0x0f:
		return fmt.Sprintf("prefx $%x,%s(%s)", op.FS(), index, base)
	case 0x20, 0x21, 0x28, 0x29, 0x30, 0x31, 0x38, 0x39:
		names := map[uint32]string{0x20: "madd", 0x28: "msub", 0x30: "nmadd", 0x38: "nmsub"}
		format := "s"
		if sub&1 != 0 {
			format = "d"
		}
		return fmt.Sprintf("%s.%s $f%d,$f%d,$f%d,$f%d", names[sub&^1], format, op.FD(), op.FR(), op.FS(), op.FT())
	}
	return fmt.Sprintf("dw $%08x", uint32(op))
}
