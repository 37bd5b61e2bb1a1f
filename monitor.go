package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/zeozeozeo/gomips3/mips3"
	"golang.org/x/exp/slices"
	"golang.org/x/term"
)

// Interactive debugger monitor on the controlling terminal. It implements
// mips3.Monitor
type monitor struct {
	term     *term.Terminal
	oldState *term.State
}

func newMonitor() (*monitor, error) {
	mon := &monitor{}
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return nil, err
		}
		mon.oldState = state
	}
	mon.term = term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}, "(mips3) ")
	return mon, nil
}

// Restores the terminal
func (mon *monitor) Close() {
	if mon.oldState != nil {
		term.Restore(int(os.Stdin.Fd()), mon.oldState)
		mon.oldState = nil
	}
}

func (mon *monitor) printf(format string, a ...interface{}) {
	fmt.Fprintf(mon.term, format+"\r\n", a...)
}

// Called by the debugger. Returns when execution resumes
func (mon *monitor) Break(cpu *mips3.CPU, reason string) {
	mon.printf("%s", reason)
	mon.disassemble(cpu, cpu.PC, 1)

	for {
		line, err := mon.term.ReadLine()
		if err != nil {
			mon.Close()
			os.Exit(0)
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		debugger := cpu.Debugger()

		switch args[0] {
		case "s", "step":
			debugger.Stepping = true
			return
		case "c", "continue":
			debugger.Stepping = false
			return
		case "r", "regs":
			mon.regs(cpu)
		case "b", "break":
			if addr, ok := mon.addrArg(args, 1); ok {
				debugger.AddBreakpoint(addr)
			}
		case "bd":
			if addr, ok := mon.addrArg(args, 1); ok {
				debugger.DeleteBreakpoint(addr)
			}
		case "rw":
			if addr, ok := mon.addrArg(args, 1); ok {
				debugger.AddReadWatchpoint(addr)
			}
		case "ww":
			if addr, ok := mon.addrArg(args, 1); ok {
				debugger.AddWriteWatchpoint(addr)
			}
		case "l", "list":
			mon.list(debugger)
		case "x":
			if addr, ok := mon.addrArg(args, 1); ok {
				mon.dump(cpu, addr, mon.countArg(args, 2, 16))
			}
		case "d", "dis":
			addr := cpu.PC
			if len(args) > 1 {
				var ok bool
				if addr, ok = mon.addrArg(args, 1); !ok {
					continue
				}
			}
			mon.disassemble(cpu, addr, mon.countArg(args, 2, 8))
		case "tlb":
			mon.tlb(cpu)
		case "q", "quit":
			mon.Close()
			os.Exit(0)
		default:
			mon.printf("commands: step, continue, regs, break ADDR, bd ADDR, rw ADDR, ww ADDR, list, x ADDR [N], dis [ADDR [N]], tlb, quit")
		}
	}
}

func (mon *monitor) addrArg(args []string, i int) (uint32, bool) {
	if len(args) <= i {
		mon.printf("missing address")
		return 0, false
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(args[i], "0x"), 16, 32)
	if err != nil {
		mon.printf("bad address %q", args[i])
		return 0, false
	}
	return uint32(v), true
}

func (mon *monitor) countArg(args []string, i, def int) int {
	if len(args) <= i {
		return def
	}
	n, err := strconv.Atoi(args[i])
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func (mon *monitor) regs(cpu *mips3.CPU) {
	for i := uint32(0); i < 34; i += 2 {
		mon.printf("%-4s %016x   %-4s %016x",
			mips3.GetRegisterName(i), cpu.Regs[i], mips3.GetRegisterName(i+1), cpu.Regs[i+1])
	}
	mon.printf("pc   %08x   status %08x   cause %08x   epc %08x",
		cpu.PC, uint32(cpu.Cpr[0][mips3.COP0_Status]), uint32(cpu.Cpr[0][mips3.COP0_Cause]), uint32(cpu.Cpr[0][mips3.COP0_EPC]))
}

func (mon *monitor) list(debugger *mips3.Debugger) {
	for _, set := range []struct {
		name  string
		addrs []uint32
	}{
		{"breakpoints", debugger.Breakpoints},
		{"read watchpoints", debugger.ReadWatchpoints},
		{"write watchpoints", debugger.WriteWatchpoints},
	} {
		addrs := slices.Clone(set.addrs)
		slices.Sort(addrs)
		mon.printf("%s:", set.name)
		for _, addr := range addrs {
			mon.printf("  0x%08x", addr)
		}
	}
}

func (mon *monitor) dump(cpu *mips3.CPU, addr uint32, words int) {
	for i := 0; i < words; i += 4 {
		line := fmt.Sprintf("%08x:", addr)
		for j := 0; j < 4 && i+j < words; j++ {
			if val, ok := cpu.PeekWord(addr); ok {
				line += fmt.Sprintf(" %08x", val)
			} else {
				line += " ????????"
			}
			addr += 4
		}
		mon.printf("%s", line)
	}
}

func (mon *monitor) disassemble(cpu *mips3.CPU, addr uint32, count int) {
	for i := 0; i < count; i++ {
		if op, ok := cpu.PeekWord(addr); ok {
			mon.printf("%08x: %08x  %s", addr, op, mips3.Disassemble(addr, mips3.Instruction(op)))
		} else {
			mon.printf("%08x: unmapped", addr)
		}
		addr += 4
	}
}

func (mon *monitor) tlb(cpu *mips3.CPU) {
	for i, e := range cpu.TLB.Entries {
		if e.EntryLo[0]&2 == 0 && e.EntryLo[1]&2 == 0 {
			continue
		}
		mon.printf("%2d: mask %08x hi %08x lo0 %08x lo1 %08x",
			i, uint32(e.PageMask), uint32(e.EntryHi), uint32(e.EntryLo[0]), uint32(e.EntryLo[1]))
	}
}
