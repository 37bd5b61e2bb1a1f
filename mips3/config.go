package mips3

import "fmt"

// CPU model emulated by the core
type Flavor int

const (
	FLAVOR_R4000   Flavor = iota // Generic R4000
	FLAVOR_VR4300                // NEC VR4300 (32 TLB entries, 20 bit PFN)
	FLAVOR_R4600                 // IDT R4600
	FLAVOR_R4650                 // IDT R4650
	FLAVOR_R4700                 // IDT R4700
	FLAVOR_R5000                 // MIPS R5000
	FLAVOR_QED5271               // QED 5271
	FLAVOR_RM7000                // PMC-Sierra RM7000
)

var flavorNames = map[Flavor]string{
	FLAVOR_R4000:   "r4000",
	FLAVOR_VR4300:  "vr4300",
	FLAVOR_R4600:   "r4600",
	FLAVOR_R4650:   "r4650",
	FLAVOR_R4700:   "r4700",
	FLAVOR_R5000:   "r5000",
	FLAVOR_QED5271: "qed5271",
	FLAVOR_RM7000:  "rm7000",
}

func (f Flavor) String() string {
	if name, ok := flavorNames[f]; ok {
		return name
	}
	return fmt.Sprintf("flavor(%d)", int(f))
}

// Returns the flavor with the given name
func ParseFlavor(name string) (Flavor, error) {
	for f, n := range flavorNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("mips3: unknown cpu flavor %q", name)
}

// Returns the processor revision identifier reported by COP0 PRId
func (f Flavor) PRId() uint32 {
	switch f {
	case FLAVOR_VR4300:
		return 0x0b00
	case FLAVOR_R4600:
		return 0x2020
	case FLAVOR_R4650:
		return 0x2200
	case FLAVOR_R4700:
		return 0x2100
	case FLAVOR_R5000, FLAVOR_QED5271:
		return 0x2300
	case FLAVOR_RM7000:
		return 0x2700
	default:
		return 0x0400
	}
}

// Returns the number of TLB rows implemented by the flavor
func (f Flavor) TLBEntries() int {
	if f == FLAVOR_VR4300 {
		return 32
	}
	return MAX_TLB_ENTRIES
}

// Returns the mask applied to the PFN field of EntryLo
func (f Flavor) PFNMask() uint32 {
	if f == FLAVOR_VR4300 {
		return 0x000fffff
	}
	return 0x00ffffff
}

// Recompiler options
type DRCOptions uint32

const (
	DRC_STRICT_VERIFY DRCOptions = 0x0001 // Compare block opcodes against memory before running it
	DRC_STRICT_COP0   DRCOptions = 0x0002 // Always run COP0 through the interpreter
	DRC_STRICT_COP1   DRCOptions = 0x0004 // Always run COP1 through the interpreter
	DRC_STRICT_COP2   DRCOptions = 0x0008 // Always run COP2 through the interpreter

	DRC_COMPATIBLE_OPTIONS DRCOptions = DRC_STRICT_VERIFY | DRC_STRICT_COP1
	DRC_FASTEST_OPTIONS    DRCOptions = 0
)

const (
	MAX_TLB_ENTRIES = 48 // Largest TLB implemented by any flavor
	MAX_FASTRAM     = 3  // Maximum number of fast RAM regions
	MAX_HOTSPOTS    = 16 // Maximum number of hotspots
)

// Core configuration. Use DefaultConfig to get sensible values
type Config struct {
	Flavor         Flavor
	BigEndian      bool
	CheckOverflows bool   // Raise OVERFLOW from ADD, ADDI, SUB and their 64 bit forms
	ICacheSize     uint32 // Instruction cache size in bytes, reported in Config
	DCacheSize     uint32 // Data cache size in bytes, reported in Config
	Clock          uint64 // CPU clock in Hz
	SystemClock    uint64 // Bus clock in Hz, 0 means Clock / 2
	TLBEntries     int    // Number of TLB rows, 0 derives it from the flavor
	DRC            bool   // Run through the recompiler instead of the interpreter
	DRCOptions     DRCOptions
	MaxBlockSize   int // Maximum guest instructions per compiled block
	CacheSize      int // Compiled instructions kept before the cache is flushed
}

// Returns the default configuration: a big endian R4600 running the interpreter
func DefaultConfig() Config {
	return Config{
		Flavor:         FLAVOR_R4600,
		BigEndian:      true,
		CheckOverflows: true,
		ICacheSize:     16 * 1024,
		DCacheSize:     16 * 1024,
		Clock:          100000000,
		DRCOptions:     DRC_COMPATIBLE_OPTIONS,
		MaxBlockSize:   64,
		CacheSize:      1 << 20,
	}
}

func (cfg *Config) validate() error {
	if cfg.TLBEntries == 0 {
		cfg.TLBEntries = cfg.Flavor.TLBEntries()
	}
	if cfg.TLBEntries < 1 || cfg.TLBEntries > MAX_TLB_ENTRIES {
		return fmt.Errorf("mips3: %d TLB entries requested, at most %d are supported", cfg.TLBEntries, MAX_TLB_ENTRIES)
	}
	if cfg.MaxBlockSize <= 0 {
		cfg.MaxBlockSize = 64
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 1 << 20
	}
	if cfg.Clock == 0 {
		cfg.Clock = 100000000
	}
	return nil
}

// Encodes the cache size as the 3 bit field used by Config (4KB << n)
func cacheSizeBits(size uint32) uint32 {
	var n uint32
	for n < 7 && (uint32(0x1000)<<n) < size {
		n++
	}
	return n
}

// Computes the power-on value of the COP0 Config register
func (cfg *Config) configRegister() uint32 {
	// 32 byte cache lines, write-back kseg0
	reg := uint32(0x00026030)
	reg |= cacheSizeBits(cfg.DCacheSize) << 6
	reg |= cacheSizeBits(cfg.ICacheSize) << 9

	divisor := uint64(2)
	if cfg.SystemClock != 0 {
		divisor = cfg.Clock * 2 / cfg.SystemClock
	}
	if divisor < 2 {
		divisor = 2
	}
	if divisor > 8 {
		divisor = 8
	}
	reg |= uint32(divisor-2) << 28

	if cfg.BigEndian {
		reg |= 0x00008000
	}
	return reg
}
