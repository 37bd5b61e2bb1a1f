package mips3

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Interactive front end called when the debugger breaks. Break returns when
// the user resumes execution
type Monitor interface {
	Break(cpu *CPU, reason string)
}

type Debugger struct {
	Breakpoints      []uint32 // All breakpoint addresses
	ReadWatchpoints  []uint32 // All read watchpoints (virtual addresses)
	WriteWatchpoints []uint32 // All write watchpoints (virtual addresses)
	Stepping         bool     // Break before every instruction
	Monitor          Monitor  // Called on every break, nil to stop ExecuteRun instead

	lastBreak  string
	resumePC   uint32
	resumeSkip bool
}

func NewDebugger() *Debugger {
	return &Debugger{}
}

// Attaches `debugger` to the CPU. While a debugger is attached the
// interpreter is used even if the recompiler is enabled. Pass nil to detach
func (cpu *CPU) AttachDebugger(debugger *Debugger) {
	cpu.debugger = debugger
}

// Returns the attached debugger, or nil
func (cpu *CPU) Debugger() *Debugger {
	return cpu.debugger
}

// Adds a breakpoint when the instruction at `addr` is about to be executed
func (debugger *Debugger) AddBreakpoint(addr uint32) {
	if !slices.Contains(debugger.Breakpoints, addr) {
		debugger.Breakpoints = append(debugger.Breakpoints, addr)
	}
}

// Deletes a breakpoint at `addr`. Does nothing if it doesn't exist
func (debugger *Debugger) DeleteBreakpoint(addr uint32) {
	debugger.Breakpoints = deleteAddr(debugger.Breakpoints, addr)
}

// Adds a memory read watchpoint for `addr`
func (debugger *Debugger) AddReadWatchpoint(addr uint32) {
	if !slices.Contains(debugger.ReadWatchpoints, addr) {
		debugger.ReadWatchpoints = append(debugger.ReadWatchpoints, addr)
	}
}

// Adds a memory write watchpoint for `addr`
func (debugger *Debugger) AddWriteWatchpoint(addr uint32) {
	if !slices.Contains(debugger.WriteWatchpoints, addr) {
		debugger.WriteWatchpoints = append(debugger.WriteWatchpoints, addr)
	}
}

// Deletes a memory read watchpoint at `addr`. Does nothing if it doesn't exist
func (debugger *Debugger) DeleteReadWatchpoint(addr uint32) {
	debugger.ReadWatchpoints = deleteAddr(debugger.ReadWatchpoints, addr)
}

// Deletes a memory write watchpoint at `addr`. Does nothing if it doesn't exist
func (debugger *Debugger) DeleteWriteWatchpoint(addr uint32) {
	debugger.WriteWatchpoints = deleteAddr(debugger.WriteWatchpoints, addr)
}

func deleteAddr(list []uint32, addr uint32) []uint32 {
	if idx := slices.Index(list, addr); idx >= 0 {
		return slices.Delete(list, idx, idx+1)
	}
	return list
}

// Returns the reason of the last break that stopped ExecuteRun, and clears it
func (debugger *Debugger) LastBreak() string {
	reason := debugger.lastBreak
	debugger.lastBreak = ""
	return reason
}

func (debugger *Debugger) attached() bool {
	return debugger != nil
}

// Called before every instruction. Returns true if execution must stop before
// the instruction at PC
func (debugger *Debugger) instruction(cpu *CPU) bool {
	if debugger == nil {
		return false
	}
	if debugger.resumeSkip {
		debugger.resumeSkip = false
		if cpu.PC == debugger.resumePC {
			return false
		}
	}

	var reason string
	if debugger.Stepping {
		reason = fmt.Sprintf("step at 0x%08x", cpu.PC)
	} else if slices.Contains(debugger.Breakpoints, cpu.PC) {
		reason = fmt.Sprintf("breakpoint at 0x%08x", cpu.PC)
	} else {
		return false
	}

	if debugger.Monitor != nil {
		debugger.Monitor.Break(cpu, reason)
		return false
	}

	// resuming must not hit the same breakpoint again
	debugger.lastBreak = reason
	debugger.resumePC = cpu.PC
	debugger.resumeSkip = true
	cpu.Stop()
	return true
}

// Called by the CPU when it's about to read a value from memory
func (debugger *Debugger) memoryRead(cpu *CPU, addr uint32) {
	if debugger == nil || !slices.Contains(debugger.ReadWatchpoints, addr) {
		return
	}
	debugger.watch(cpu, fmt.Sprintf("read watchpoint 0x%08x at 0x%08x", addr, cpu.PPC))
}

// Called by the CPU when it's about to write a value to memory
func (debugger *Debugger) memoryWrite(cpu *CPU, addr uint32) {
	if debugger == nil || !slices.Contains(debugger.WriteWatchpoints, addr) {
		return
	}
	debugger.watch(cpu, fmt.Sprintf("write watchpoint 0x%08x at 0x%08x", addr, cpu.PPC))
}

// Watchpoints break after the access completes
func (debugger *Debugger) watch(cpu *CPU, reason string) {
	cpu.log.Debugf("debugger: triggered %s", reason)
	if debugger.Monitor != nil {
		debugger.Monitor.Break(cpu, reason)
		return
	}
	debugger.lastBreak = reason
	cpu.Stop()
}
