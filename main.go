package main

import (
	"bytes"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/zeozeozeo/gomips3/mips3"
)

type options struct {
	romPath   string
	romBase   uint32
	ramPath   string
	ramSize   uint32
	bigEndian bool
	flavor    mips3.Flavor
	drc       bool
	cycles    uint64
	quantum   uint64
}

// A CPU wired to RAM and a boot ROM
type machine struct {
	cpu *mips3.CPU
	bus *mips3.Interconnect
	ram *mips3.RAM
}

func main() {
	// parse arguments
	romPath := flag.String("rom", "", "path to the boot ROM image")
	romBase := flag.String("rom-base", "0x1fc00000", "physical address of the boot ROM")
	ramPath := flag.String("ram", "", "optional raw image loaded at the start of RAM")
	ramSize := flag.Uint("ram-size", 8*1024*1024, "RAM size in bytes")
	endian := flag.String("endian", "big", "byte order: big or little")
	flavorName := flag.String("flavor", "r4600", "cpu flavor")
	drc := flag.Bool("drc", false, "run through the recompiler")
	cycles := flag.Uint64("cycles", 0, "stop after this many cycles, 0 runs forever")
	quantum := flag.Uint64("quantum", 100000, "cycles per ExecuteRun call")
	debug := flag.Bool("debug", false, "start in the debugger monitor")
	breaks := flag.String("break", "", "comma separated breakpoint addresses")
	view := flag.Bool("view", false, "show the framebuffer in a window")
	fb := flag.String("fb", "0x00100000", "physical address of the RGB555 framebuffer")
	fbWidth := flag.Int("fb-width", 320, "framebuffer width")
	fbHeight := flag.Int("fb-height", 240, "framebuffer height")
	verify := flag.Bool("verify", false, "run the interpreter and the recompiler side by side and compare them")
	prof := flag.Bool("profile", false, "write a CPU profile of the run")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if *prof {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	opts := options{
		romPath:   *romPath,
		romBase:   parseAddr("rom-base", *romBase),
		ramPath:   *ramPath,
		ramSize:   uint32(*ramSize),
		bigEndian: *endian != "little",
		drc:       *drc,
		cycles:    *cycles,
		quantum:   *quantum,
	}
	flavor, err := mips3.ParseFlavor(*flavorName)
	if err != nil {
		log.Fatal(err)
	}
	opts.flavor = flavor

	rom := loadFile("rom", opts.romPath)
	var ramImage []byte
	if opts.ramPath != "" {
		ramImage = loadFile("ram image", opts.ramPath)
	}

	if *verify {
		if opts.cycles == 0 {
			log.Fatal("-verify needs -cycles")
		}
		if err := runVerify(opts, rom, ramImage); err != nil {
			log.Fatal(err)
		}
		log.Printf("interpreter and recompiler agree after %d cycles", opts.cycles)
		return
	}

	m, err := newMachine(opts, rom, ramImage)
	if err != nil {
		log.Fatal(err)
	}

	if *debug || *breaks != "" {
		debugger := mips3.NewDebugger()
		for _, s := range strings.Split(*breaks, ",") {
			if s = strings.TrimSpace(s); s != "" {
				debugger.AddBreakpoint(parseAddr("break", s))
			}
		}
		monitor, err := newMonitor()
		if err != nil {
			log.Fatal(err)
		}
		defer monitor.Close()
		debugger.Monitor = monitor
		debugger.Stepping = *debug
		m.cpu.AttachDebugger(debugger)
	}

	if *view {
		if err := runViewer(m, opts, parseAddr("fb", *fb), *fbWidth, *fbHeight); err != nil {
			log.Fatal(err)
		}
		return
	}
	run(m, opts)
}

// Creates the CPU, RAM and bus described by `opts`
func newMachine(opts options, rom, ramImage []byte) (*machine, error) {
	var order binary.ByteOrder = binary.LittleEndian
	if opts.bigEndian {
		order = binary.BigEndian
	}

	romImage, err := mips3.LoadROM(bytes.NewReader(rom), order)
	if err != nil {
		return nil, err
	}
	ram := mips3.NewRAM(opts.ramSize, order)
	if uint32(len(ramImage)) > opts.ramSize {
		return nil, fmt.Errorf("ram image is %d bytes, ram is %d", len(ramImage), opts.ramSize)
	}
	copy(ram.Data, ramImage)

	bus := mips3.NewInterconnect(ram, mips3.RAM_BASE, romImage, opts.romBase)

	cfg := mips3.DefaultConfig()
	cfg.Flavor = opts.flavor
	cfg.BigEndian = opts.bigEndian
	cfg.DRC = opts.drc
	cpu, err := mips3.NewCPU(cfg, bus)
	if err != nil {
		return nil, err
	}
	if err := cpu.AddFastRAM(mips3.RAM_BASE, mips3.RAM_BASE+opts.ramSize-1, false, ram.Data); err != nil {
		return nil, err
	}
	return &machine{cpu: cpu, bus: bus, ram: ram}, nil
}

// Runs `m` in quanta until the cycle limit is reached
func run(m *machine, opts options) {
	log.Printf("running from 0x%08x", m.cpu.PC)
	start := time.Now()

	var total uint64
	for opts.cycles == 0 || total < opts.cycles {
		budget := opts.quantum
		if opts.cycles != 0 && opts.cycles-total < budget {
			budget = opts.cycles - total
		}
		total += m.cpu.ExecuteRun(budget)
		if d := m.cpu.Debugger(); d != nil {
			if reason := d.LastBreak(); reason != "" {
				log.Printf("stopped: %s", reason)
				break
			}
		}
	}

	elapsed := time.Since(start)
	log.Printf("ran %d cycles in %s (%.2f MHz), pc 0x%08x", total, elapsed,
		float64(total)/elapsed.Seconds()/1e6, m.cpu.PC)
	if drc := m.cpu.DRC(); drc != nil {
		stats := drc.Stats()
		log.Printf("drc: %d blocks, %d instructions, %d interpreter calls, %d flushes",
			stats.Blocks, stats.Instructions, stats.Fallbacks, stats.Flushes)
	}
}

func loadFile(what, path string) []byte {
	if path == "" {
		log.Fatalf("no %s given", what)
	}
	log.Printf("loading %s \"%s\"", what, path)
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("loaded %s in %s", what, time.Since(start))
	return data
}

func parseAddr(flagName, s string) uint32 {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 32)
	if err != nil {
		log.Fatalf("-%s: bad address %q", flagName, s)
	}
	return uint32(v)
}
