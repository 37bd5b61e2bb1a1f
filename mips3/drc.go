package mips3

import "github.com/sirupsen/logrus"

// Recompiler counters
type DRCStats struct {
	Blocks       int    // Blocks compiled
	Instructions int    // Guest instructions compiled
	Fallbacks    int    // Compiled instructions that call the interpreter
	Flushes      int    // Times the whole cache was dropped
	Executed     uint64 // Blocks entered
}

// Dynamic recompiler. Guest blocks are translated into chains of closures
// with their operands decoded once, and cached by (mode, pc)
type DRC struct {
	cpu      *CPU
	cache    *blockCache
	options  DRCOptions
	maxBlock int
	dirty    bool // The cache was dropped while a block was running
	stats    DRCStats
}

func NewDRC(cpu *CPU) *DRC {
	return &DRC{
		cpu:      cpu,
		cache:    newBlockCache(cpu.Config.CacheSize),
		options:  cpu.Config.DRCOptions,
		maxBlock: cpu.Config.MaxBlockSize,
	}
}

// Returns a copy of the recompiler counters
func (drc *DRC) Stats() DRCStats {
	return drc.stats
}

// Returns the number of cached blocks
func (drc *DRC) Blocks() int {
	return drc.cache.len()
}

// Returns the cached block for `pc` in execution mode `mode`, or nil
func (drc *DRC) Lookup(mode, pc uint32) *Block {
	return drc.cache.get(mode, pc)
}

// Drops every compiled block. Blocks are recompiled on their next execution
func (drc *DRC) Flush() {
	drc.cpu.log.Debugf("drc: flushing %d blocks", drc.cache.len())
	drc.cache.flush()
	drc.stats.Flushes++
	drc.dirty = true
}

// Called when translations, mapped memory or hotspots change
func (drc *DRC) Invalidate() {
	if drc.cache.len() != 0 {
		drc.Flush()
	}
}

// Called on every store with the physical address written
func (drc *DRC) codeWritten(phys uint32) {
	if drc.cache.compiled(phys) {
		drc.cpu.log.Debugf("drc: store to compiled code at 0x%08x", phys)
		drc.Flush()
	}
}

// Runs compiled blocks until the current slice is over. A pending delay slot
// is always executed before returning
func (drc *DRC) Run() {
	cpu := drc.cpu
	th := cpu.Time
	for th.Running() || cpu.NextPC != NO_BRANCH {
		if cpu.NextPC != NO_BRANCH {
			// entered in a delay slot
			cpu.step()
			continue
		}
		block := drc.block(cpu.Mode(), cpu.PC)
		if block == nil {
			// let the interpreter take the fetch exception
			cpu.step()
			continue
		}
		drc.execute(block)
	}
}

// Returns the block at `pc`, compiling it if needed. Returns nil if nothing
// can be fetched from `pc`
func (drc *DRC) block(mode, pc uint32) *Block {
	block := drc.cache.get(mode, pc)
	if block != nil && drc.options&DRC_STRICT_VERIFY != 0 && !block.verify(drc.cpu) {
		drc.cpu.log.Debugf("drc: block 0x%08x no longer matches memory", pc)
		drc.Flush()
		block = nil
	}
	if block == nil {
		block = drc.compile(mode, pc)
	}
	return block
}

func (drc *DRC) compile(mode, pc uint32) *Block {
	cpu := drc.cpu
	descs := cpu.scanBlock(pc, drc.maxBlock)
	if len(descs) == 0 {
		return nil
	}
	if drc.cache.full(len(descs)) {
		cpu.log.Debugf("drc: code cache full")
		drc.Flush()
	}

	block := &Block{Mode: mode, PC: pc, ops: drc.compileBlock(descs)}
	drc.cache.put(block)

	fallbacks := block.Fallbacks()
	drc.stats.Blocks++
	drc.stats.Instructions += block.Len()
	drc.stats.Fallbacks += fallbacks

	cpu.log.Debugf("drc: compiled block 0x%08x mode %d, %d instructions, %d through the interpreter",
		pc, mode, block.Len(), fallbacks)
	if cpu.log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		for i := range block.ops {
			ins := &block.ops[i]
			cpu.log.Tracef("drc:   %08x  %08x  %s", ins.PC, uint32(ins.Op), Disassemble(ins.PC, ins.Op))
		}
	}
	return block
}

// Runs `block` from its first instruction. Leaves the block early when a
// branch is taken, an exception is entered, the slice ends or the cache is
// dropped
func (drc *DRC) execute(block *Block) {
	cpu := drc.cpu
	th := cpu.Time

	if block.PC != cpu.PC {
		cpu.log.Errorf("drc: block 0x%08x entered at 0x%08x", block.PC, cpu.PC)
		panicFmt("mips3: drc block 0x%08x entered at PC=0x%08x", block.PC, cpu.PC)
	}
	drc.dirty = false
	drc.stats.Executed++

	for i := range block.ops {
		ins := &block.ops[i]
		if cpu.PC != ins.PC || (!th.Running() && cpu.NextPC == NO_BRANCH) {
			return
		}

		cpu.PPC = ins.PC
		cpu.fetchFaults = 0
		if cpu.NextPC != NO_BRANCH {
			cpu.delaySlot = true
			cpu.PC = cpu.NextPC
			cpu.NextPC = NO_BRANCH
		} else {
			cpu.PC += 4
		}

		cpu.exceptionTaken = false
		ins.Fn(cpu)
		cpu.delaySlot = false
		th.Tick(1 + ins.Burn)

		if cpu.exceptionTaken || drc.dirty {
			return
		}
	}
}
