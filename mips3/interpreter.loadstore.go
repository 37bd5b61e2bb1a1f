package mips3

// Returns the address accessed by a load or store
func (cpu *CPU) effectiveAddress(op Instruction) uint32 {
	return cpu.reg32(op.S()) + uint32(op.ImmSE())
}

// Executes a load or store instruction (primary opcodes 0x20 to 0x3f)
func (cpu *CPU) executeLoadStore(op Instruction) {
	addr := cpu.effectiveAddress(op)
	t := op.T()

	switch op.Function() {
	case 0x20: // Load Byte
		if val, ok := cpu.readByte(addr); ok {
			cpu.SetReg(t, uint64(int64(int8(val))))
		}
	case 0x21: // Load Halfword
		if val, ok := cpu.readHalf(addr); ok {
			cpu.SetReg(t, uint64(int64(int16(val))))
		}
	case 0x22: // Load Word Left
		cpu.lwl(op)
	case 0x23: // Load Word
		if val, ok := cpu.readWord(addr); ok {
			cpu.setReg32(t, val)
		}
	case 0x24: // Load Byte Unsigned
		if val, ok := cpu.readByte(addr); ok {
			cpu.SetReg(t, uint64(val))
		}
	case 0x25: // Load Halfword Unsigned
		if val, ok := cpu.readHalf(addr); ok {
			cpu.SetReg(t, uint64(val))
		}
	case 0x26: // Load Word Right
		cpu.lwr(op)
	case 0x27: // Load Word Unsigned
		if val, ok := cpu.readWord(addr); ok {
			cpu.SetReg(t, uint64(val))
		}
	case 0x28: // Store Byte
		cpu.writeByte(addr, uint8(cpu.Regs[t]))
	case 0x29: // Store Halfword
		cpu.writeHalf(addr, uint16(cpu.Regs[t]))
	case 0x2a: // Store Word Left
		cpu.swl(op)
	case 0x2b: // Store Word
		cpu.writeWord(addr, cpu.reg32(t))
	case 0x2c: // Store Doubleword Left
		cpu.sdl(op)
	case 0x2d: // Store Doubleword Right
		cpu.sdr(op)
	case 0x2e: // Store Word Right
		cpu.swr(op)
	case 0x2f: // Cache
	case 0x30: // Load Linked Word
		cpu.loadLinked(addr, t, false)
	case 0x31: // Load Word to Coprocessor 1
		if !cpu.cop1Usable() {
			cpu.badCop(1)
		} else if val, ok := cpu.readWord(addr); ok {
			cpu.SetFPR32(t, val)
		}
	case 0x32: // Load Word to Coprocessor 2
		if !cpu.cop2Usable() {
			cpu.badCop(2)
		} else if val, ok := cpu.readWord(addr); ok {
			cpu.Cpr[2][t] = uint64(val)
		}
	case 0x33: // Prefetch
	case 0x34: // Load Linked Doubleword
		cpu.loadLinked(addr, t, true)
	case 0x35: // Load Doubleword to Coprocessor 1
		if !cpu.cop1Usable() {
			cpu.badCop(1)
		} else if val, ok := cpu.readDouble(addr); ok {
			cpu.SetFPR64(t, val)
		}
	case 0x36: // Load Doubleword to Coprocessor 2
		if !cpu.cop2Usable() {
			cpu.badCop(2)
		} else if val, ok := cpu.readDouble(addr); ok {
			cpu.Cpr[2][t] = val
		}
	case 0x37: // Load Doubleword
		if val, ok := cpu.readDouble(addr); ok {
			cpu.SetReg(t, val)
		}
	case 0x38: // Store Conditional Word
		cpu.storeConditional(addr, t, false)
	case 0x39: // Store Word from Coprocessor 1
		if !cpu.cop1Usable() {
			cpu.badCop(1)
		} else {
			cpu.writeWord(addr, cpu.FPR32(t))
		}
	case 0x3a: // Store Word from Coprocessor 2
		if !cpu.cop2Usable() {
			cpu.badCop(2)
		} else {
			cpu.writeWord(addr, uint32(cpu.Cpr[2][t]))
		}
	case 0x3c: // Store Conditional Doubleword
		cpu.storeConditional(addr, t, true)
	case 0x3d: // Store Doubleword from Coprocessor 1
		if !cpu.cop1Usable() {
			cpu.badCop(1)
		} else {
			cpu.writeDouble(addr, cpu.FPR64(t))
		}
	case 0x3e: // Store Doubleword from Coprocessor 2
		if !cpu.cop2Usable() {
			cpu.badCop(2)
		} else {
			cpu.writeDouble(addr, cpu.Cpr[2][t])
		}
	case 0x3f: // Store Doubleword
		cpu.writeDouble(addr, cpu.Regs[t])
	default: // SWC3 and the unused opcodes
		cpu.invalidInstruction(op)
	}
}

// LL/LLD: loads register `t` and links the address for a following SC/SCD
func (cpu *CPU) loadLinked(addr uint32, t uint32, double bool) {
	var val uint64
	if double {
		v, ok := cpu.readDouble(addr)
		if !ok {
			return
		}
		val = v
		cpu.SetReg(t, val)
	} else {
		v, ok := cpu.readWord(addr)
		if !ok {
			return
		}
		val = uint64(v)
		cpu.setReg32(t, v)
	}

	phys, _ := cpu.Translate(SPACE_PROGRAM, INTENT_READ, addr)
	cpu.llValue = val
	cpu.llPhys = phys
	cpu.llBit = true
	cpu.Cpr[0][COP0_LLAddr] = uint64(phys >> 4)
}

// SC/SCD: stores register `t` if the link set by LL/LLD still holds and the
// linked value is unchanged in memory. Register `t` receives 1 on success and
// 0 on failure. With `t` = $zero the instruction does nothing
func (cpu *CPU) storeConditional(addr uint32, t uint32, double bool) {
	if t == 0 {
		return
	}
	var cur uint64
	if double {
		v, ok := cpu.readDouble(addr)
		if !ok {
			return
		}
		cur = v
	} else {
		v, ok := cpu.readWord(addr)
		if !ok {
			return
		}
		cur = uint64(v)
	}

	if !cpu.llBit || cur != cpu.llValue {
		cpu.SetReg(t, 0)
		return
	}

	var stored bool
	if double {
		stored = cpu.writeDouble(addr, cpu.Regs[t])
	} else {
		stored = cpu.writeWord(addr, cpu.reg32(t))
	}
	if stored {
		cpu.SetReg(t, 1)
	}
}
