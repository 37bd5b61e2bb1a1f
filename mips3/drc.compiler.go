package mips3

// A compiled guest instruction. PC has already been advanced when it runs
type uop func(cpu *CPU)

type compiledOp struct {
	PC     uint32
	Phys   uint32
	Op     Instruction
	Fn     uop
	Native bool   // Fn was generated, not an interpreter call
	Burn   uint64 // Hotspot cycles burned after the instruction
}

// Lowers the scanned instructions of a block
func (drc *DRC) compileBlock(descs []opcodeDesc) []compiledOp {
	ops := make([]compiledOp, len(descs))
	for i := range descs {
		desc := &descs[i]
		fn := drc.compileOp(desc)
		native := fn != nil
		if !native {
			fn = interpreterCall(desc.Op)
		}
		ops[i] = compiledOp{
			PC:     desc.PC,
			Phys:   desc.Phys,
			Op:     desc.Op,
			Fn:     fn,
			Native: native,
			Burn:   drc.cpu.hotspotCycles(desc.PC, desc.Op),
		}
	}
	return ops
}

// Runs one instruction through the interpreter
func interpreterCall(op Instruction) uop {
	return func(cpu *CPU) {
		cpu.execute(op)
	}
}

// Returns the generated code for `desc`, or nil if it must run through the
// interpreter
func (drc *DRC) compileOp(desc *opcodeDesc) uop {
	op := desc.Op
	switch {
	case desc.Has(OPFLAG_COP0) && drc.options&DRC_STRICT_COP0 != 0,
		desc.Has(OPFLAG_COP1) && drc.options&DRC_STRICT_COP1 != 0,
		desc.Has(OPFLAG_COP2) && drc.options&DRC_STRICT_COP2 != 0:
		return nil
	}

	s, t := op.S(), op.T()
	imm := op.ImmSE()

	switch op.Function() {
	case 0x00:
		return compileSpecial(op)
	case 0x01:
		return compileRegimm(desc)
	case 0x02: // J
		target := desc.Target
		return func(cpu *CPU) { cpu.NextPC = target }
	case 0x03: // JAL
		target, ret := desc.Target, desc.PC+8
		return func(cpu *CPU) {
			cpu.NextPC = target
			cpu.setReg32(31, ret)
		}
	case 0x04: // BEQ
		return compileBranch(desc, func(cpu *CPU) bool { return cpu.Regs[s] == cpu.Regs[t] })
	case 0x05: // BNE
		return compileBranch(desc, func(cpu *CPU) bool { return cpu.Regs[s] != cpu.Regs[t] })
	case 0x06: // BLEZ
		return compileBranch(desc, func(cpu *CPU) bool { return int64(cpu.Regs[s]) <= 0 })
	case 0x07: // BGTZ
		return compileBranch(desc, func(cpu *CPU) bool { return int64(cpu.Regs[s]) > 0 })
	case 0x09: // ADDIU
		if t == 0 {
			return nop
		}
		return func(cpu *CPU) { cpu.setReg32(t, cpu.reg32(s)+uint32(imm)) }
	case 0x0a: // SLTI
		return func(cpu *CPU) { cpu.SetReg(t, oneIfTrue(int64(cpu.Regs[s]) < int64(imm))) }
	case 0x0b: // SLTIU
		return func(cpu *CPU) { cpu.SetReg(t, oneIfTrue(cpu.Regs[s] < imm)) }
	case 0x0c: // ANDI
		uimm := uint64(op.Imm())
		return func(cpu *CPU) { cpu.SetReg(t, cpu.Regs[s]&uimm) }
	case 0x0d: // ORI
		uimm := uint64(op.Imm())
		return func(cpu *CPU) { cpu.SetReg(t, cpu.Regs[s]|uimm) }
	case 0x0e: // XORI
		uimm := uint64(op.Imm())
		return func(cpu *CPU) { cpu.SetReg(t, cpu.Regs[s]^uimm) }
	case 0x0f: // LUI
		val := sext32(uint64(op.Imm() << 16))
		return func(cpu *CPU) { cpu.SetReg(t, val) }
	case 0x10:
		return compileCop0(op)
	case 0x11:
		return compileCop1(op)
	case 0x12:
		return compileCop2(op)
	case 0x14: // BEQL
		return compileBranch(desc, func(cpu *CPU) bool { return cpu.Regs[s] == cpu.Regs[t] })
	case 0x15: // BNEL
		return compileBranch(desc, func(cpu *CPU) bool { return cpu.Regs[s] != cpu.Regs[t] })
	case 0x16: // BLEZL
		return compileBranch(desc, func(cpu *CPU) bool { return int64(cpu.Regs[s]) <= 0 })
	case 0x17: // BGTZL
		return compileBranch(desc, func(cpu *CPU) bool { return int64(cpu.Regs[s]) > 0 })
	case 0x19: // DADDIU
		return func(cpu *CPU) { cpu.SetReg(t, cpu.Regs[s]+imm) }
	case 0x2f, 0x33: // CACHE, PREF
		return nop
	}
	return compileLoadStore(op)
}

func nop(*CPU) {}

// Generates a PC relative branch. `cond` is evaluated when the branch runs
func compileBranch(desc *opcodeDesc, cond func(cpu *CPU) bool) uop {
	target := desc.Target
	if desc.Has(OPFLAG_IS_LIKELY) {
		return func(cpu *CPU) {
			if cond(cpu) {
				cpu.NextPC = target
			} else {
				cpu.PC += 4
			}
		}
	}
	return func(cpu *CPU) {
		if cond(cpu) {
			cpu.NextPC = target
		}
	}
}

func compileSpecial(op Instruction) uop {
	s, t, d := op.S(), op.T(), op.D()
	sa := op.Shift()

	switch op.Subfunction() {
	case 0x00: // SLL
		if d == 0 {
			return nop
		}
		return func(cpu *CPU) { cpu.setReg32(d, cpu.reg32(t)<<sa) }
	case 0x02: // SRL
		return func(cpu *CPU) { cpu.setReg32(d, cpu.reg32(t)>>sa) }
	case 0x03: // SRA
		return func(cpu *CPU) { cpu.setReg32(d, uint32(int32(cpu.reg32(t))>>sa)) }
	case 0x04: // SLLV
		return func(cpu *CPU) { cpu.setReg32(d, cpu.reg32(t)<<(cpu.Regs[s]&31)) }
	case 0x06: // SRLV
		return func(cpu *CPU) { cpu.setReg32(d, cpu.reg32(t)>>(cpu.Regs[s]&31)) }
	case 0x07: // SRAV
		return func(cpu *CPU) { cpu.setReg32(d, uint32(int32(cpu.reg32(t))>>(cpu.Regs[s]&31))) }
	case 0x08: // JR
		return func(cpu *CPU) { cpu.NextPC = cpu.reg32(s) }
	case 0x09: // JALR
		return func(cpu *CPU) {
			target := cpu.reg32(s)
			cpu.link(d)
			cpu.NextPC = target
		}
	case 0x0a: // MOVZ
		return func(cpu *CPU) {
			if cpu.Regs[t] == 0 {
				cpu.SetReg(d, cpu.Regs[s])
			}
		}
	case 0x0b: // MOVN
		return func(cpu *CPU) {
			if cpu.Regs[t] != 0 {
				cpu.SetReg(d, cpu.Regs[s])
			}
		}
	case 0x0f: // SYNC
		return nop
	case 0x10: // MFHI
		return func(cpu *CPU) { cpu.SetReg(d, cpu.Regs[REG_HI]) }
	case 0x11: // MTHI
		return func(cpu *CPU) { cpu.Regs[REG_HI] = cpu.Regs[s] }
	case 0x12: // MFLO
		return func(cpu *CPU) { cpu.SetReg(d, cpu.Regs[REG_LO]) }
	case 0x13: // MTLO
		return func(cpu *CPU) { cpu.Regs[REG_LO] = cpu.Regs[s] }
	case 0x14: // DSLLV
		return func(cpu *CPU) { cpu.SetReg(d, cpu.Regs[t]<<(cpu.Regs[s]&63)) }
	case 0x16: // DSRLV
		return func(cpu *CPU) { cpu.SetReg(d, cpu.Regs[t]>>(cpu.Regs[s]&63)) }
	case 0x17: // DSRAV
		return func(cpu *CPU) { cpu.SetReg(d, uint64(int64(cpu.Regs[t])>>(cpu.Regs[s]&63))) }
	case 0x21: // ADDU
		return func(cpu *CPU) { cpu.setReg32(d, cpu.reg32(s)+cpu.reg32(t)) }
	case 0x23: // SUBU
		return func(cpu *CPU) { cpu.setReg32(d, cpu.reg32(s)-cpu.reg32(t)) }
	case 0x24: // AND
		return func(cpu *CPU) { cpu.SetReg(d, cpu.Regs[s]&cpu.Regs[t]) }
	case 0x25: // OR
		if t == 0 {
			return func(cpu *CPU) { cpu.SetReg(d, cpu.Regs[s]) }
		}
		return func(cpu *CPU) { cpu.SetReg(d, cpu.Regs[s]|cpu.Regs[t]) }
	case 0x26: // XOR
		return func(cpu *CPU) { cpu.SetReg(d, cpu.Regs[s]^cpu.Regs[t]) }
	case 0x27: // NOR
		return func(cpu *CPU) { cpu.SetReg(d, ^(cpu.Regs[s] | cpu.Regs[t])) }
	case 0x2a: // SLT
		return func(cpu *CPU) { cpu.SetReg(d, oneIfTrue(int64(cpu.Regs[s]) < int64(cpu.Regs[t]))) }
	case 0x2b: // SLTU
		return func(cpu *CPU) { cpu.SetReg(d, oneIfTrue(cpu.Regs[s] < cpu.Regs[t])) }
	case 0x2d: // DADDU
		return func(cpu *CPU) { cpu.SetReg(d, cpu.Regs[s]+cpu.Regs[t]) }
	case 0x2f: // DSUBU
		return func(cpu *CPU) { cpu.SetReg(d, cpu.Regs[s]-cpu.Regs[t]) }
	case 0x38: // DSLL
		return func(cpu *CPU) { cpu.SetReg(d, cpu.Regs[t]<<sa) }
	case 0x3a: // DSRL
		return func(cpu *CPU) { cpu.SetReg(d, cpu.Regs[t]>>sa) }
	case 0x3b: // DSRA
		return func(cpu *CPU) { cpu.SetReg(d, uint64(int64(cpu.Regs[t])>>sa)) }
	case 0x3c: // DSLL32
		return func(cpu *CPU) { cpu.SetReg(d, cpu.Regs[t]<<(sa+32)) }
	case 0x3e: // DSRL32
		return func(cpu *CPU) { cpu.SetReg(d, cpu.Regs[t]>>(sa+32)) }
	case 0x3f: // DSRA32
		return func(cpu *CPU) { cpu.SetReg(d, uint64(int64(cpu.Regs[t])>>(sa+32))) }
	}
	return nil
}

func compileRegimm(desc *opcodeDesc) uop {
	s := desc.Op.S()
	switch desc.Op.T() {
	case 0x00, 0x02: // BLTZ, BLTZL
		return compileBranch(desc, func(cpu *CPU) bool { return int64(cpu.Regs[s]) < 0 })
	case 0x01, 0x03: // BGEZ, BGEZL
		return compileBranch(desc, func(cpu *CPU) bool { return int64(cpu.Regs[s]) >= 0 })
	}
	return nil
}

// Register moves only. Everything else has side effects handled by the interpreter
func compileCop0(op Instruction) uop {
	t, d := op.T(), op.D()
	switch op.CopFunction() {
	case 0x00: // MFC0
		return func(cpu *CPU) {
			if !cpu.cop0Usable() {
				cpu.badCop(0)
				return
			}
			if t != 0 {
				cpu.Regs[t] = sext32(cpu.getCop0Reg(d))
			}
		}
	case 0x01: // DMFC0
		return func(cpu *CPU) {
			if !cpu.cop0Usable() {
				cpu.badCop(0)
				return
			}
			if t != 0 {
				cpu.Regs[t] = cpu.getCop0Reg(d)
			}
		}
	}
	return nil
}

func compileCop1(op Instruction) uop {
	t, fs := op.T(), op.FS()
	switch op.CopFunction() {
	case 0x00: // MFC1
		return func(cpu *CPU) {
			if !cpu.cop1Usable() {
				cpu.badCop(1)
				return
			}
			cpu.setReg32(t, cpu.FPR32(fs))
		}
	case 0x01: // DMFC1
		return func(cpu *CPU) {
			if !cpu.cop1Usable() {
				cpu.badCop(1)
				return
			}
			cpu.SetReg(t, cpu.FPR64(fs))
		}
	case 0x04: // MTC1
		return func(cpu *CPU) {
			if !cpu.cop1Usable() {
				cpu.badCop(1)
				return
			}
			cpu.SetFPR32(fs, cpu.reg32(t))
		}
	case 0x05: // DMTC1
		return func(cpu *CPU) {
			if !cpu.cop1Usable() {
				cpu.badCop(1)
				return
			}
			cpu.SetFPR64(fs, cpu.Regs[t])
		}
	}
	return nil
}

func compileCop2(op Instruction) uop {
	t, d := op.T(), op.D()
	switch op.CopFunction() {
	case 0x00: // MFC2
		return func(cpu *CPU) {
			if !cpu.cop2Usable() {
				cpu.badCop(2)
				return
			}
			cpu.SetReg(t, sext32(cpu.Cpr[2][d]))
		}
	case 0x04: // MTC2
		return func(cpu *CPU) {
			if !cpu.cop2Usable() {
				cpu.badCop(2)
				return
			}
			cpu.Cpr[2][d] = uint64(cpu.reg32(t))
		}
	}
	return nil
}

// Aligned integer loads and stores. The unaligned, linked and coprocessor
// forms go through the interpreter
func compileLoadStore(op Instruction) uop {
	s, t := op.S(), op.T()
	imm := uint32(op.ImmSE())
	ea := func(cpu *CPU) uint32 { return cpu.reg32(s) + imm }

	switch op.Function() {
	case 0x20: // LB
		return func(cpu *CPU) {
			if val, ok := cpu.readByte(ea(cpu)); ok {
				cpu.SetReg(t, uint64(int64(int8(val))))
			}
		}
	case 0x21: // LH
		return func(cpu *CPU) {
			if val, ok := cpu.readHalf(ea(cpu)); ok {
				cpu.SetReg(t, uint64(int64(int16(val))))
			}
		}
	case 0x23: // LW
		return func(cpu *CPU) {
			if val, ok := cpu.readWord(ea(cpu)); ok {
				cpu.setReg32(t, val)
			}
		}
	case 0x24: // LBU
		return func(cpu *CPU) {
			if val, ok := cpu.readByte(ea(cpu)); ok {
				cpu.SetReg(t, uint64(val))
			}
		}
	case 0x25: // LHU
		return func(cpu *CPU) {
			if val, ok := cpu.readHalf(ea(cpu)); ok {
				cpu.SetReg(t, uint64(val))
			}
		}
	case 0x27: // LWU
		return func(cpu *CPU) {
			if val, ok := cpu.readWord(ea(cpu)); ok {
				cpu.SetReg(t, uint64(val))
			}
		}
	case 0x37: // LD
		return func(cpu *CPU) {
			if val, ok := cpu.readDouble(ea(cpu)); ok {
				cpu.SetReg(t, val)
			}
		}
	case 0x28: // SB
		return func(cpu *CPU) { cpu.writeByte(ea(cpu), uint8(cpu.Regs[t])) }
	case 0x29: // SH
		return func(cpu *CPU) { cpu.writeHalf(ea(cpu), uint16(cpu.Regs[t])) }
	case 0x2b: // SW
		return func(cpu *CPU) { cpu.writeWord(ea(cpu), cpu.reg32(t)) }
	case 0x3f: // SD
		return func(cpu *CPU) { cpu.writeDouble(ea(cpu), cpu.Regs[t]) }
	}
	return nil
}
