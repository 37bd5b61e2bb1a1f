package mips3

import (
	"errors"
	"fmt"
)

var (
	ErrTooManyFastRAM  = errors.New("mips3: too many fast RAM regions")
	ErrTooManyHotspots = errors.New("mips3: too many hotspots")
	ErrBadState        = errors.New("mips3: bad state blob")
	ErrROMSize         = errors.New("mips3: bad ROM size")
)

// Names of registers
var RegisterNames = []string{
	"r0", "at", "v0", "v1", "a0", "a1", "a2", "a3", // 00
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7", // 08
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7", // 10
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra", // 18
	"hi", "lo", // 20
}

// Returns the name of the register index
func GetRegisterName(index uint32) string {
	if int(index) >= len(RegisterNames) {
		return fmt.Sprintf("r%d", index)
	}
	return RegisterNames[index]
}

// Returns the register index by it's name (in RegisterNames).
// Returns false if the register name does not exist
func GetRegisterIndexByName(name string) (uint32, bool) {
	for idx, n := range RegisterNames {
		if n == name {
			return uint32(idx), true
		}
	}
	var idx uint32
	if _, err := fmt.Sscanf(name, "r%d", &idx); err == nil && idx < 32 {
		return idx, true
	}
	return 0, false
}

// Formatted panic()
func panicFmt(format string, a ...interface{}) {
	panic(fmt.Sprintf(format, a...))
}

// Adds two signed 32 bit integers. Returns true on overflow
func add32Overflow(a, b int32) (int32, bool) {
	c := a + b
	return c, (a >= 0) == (b >= 0) && (c >= 0) != (a >= 0)
}

// Subtracts two signed 32 bit integers. Returns true on overflow
func sub32Overflow(a, b int32) (int32, bool) {
	c := a - b
	return c, (a >= 0) != (b >= 0) && (c >= 0) != (a >= 0)
}

// Adds two signed 64 bit integers. Returns true on overflow
func add64Overflow(a, b int64) (int64, bool) {
	c := a + b
	return c, (a >= 0) == (b >= 0) && (c >= 0) != (a >= 0)
}

// Subtracts two signed 64 bit integers. Returns true on overflow
func sub64Overflow(a, b int64) (int64, bool) {
	c := a - b
	return c, (a >= 0) != (b >= 0) && (c >= 0) != (a >= 0)
}

func oneIfTrue(val bool) uint64 {
	if val {
		return 1
	}
	return 0
}
