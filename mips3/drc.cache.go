package mips3

// Compiled blocks are looked up by execution mode and entry PC
type blockKey struct {
	Mode uint32
	PC   uint32
}

// A straight line sequence of compiled guest instructions
type Block struct {
	Mode uint32
	PC   uint32
	ops  []compiledOp
}

// Returns the number of guest instructions in the block
func (block *Block) Len() int {
	return len(block.ops)
}

// Returns the number of instructions running through the interpreter
func (block *Block) Fallbacks() int {
	n := 0
	for i := range block.ops {
		if !block.ops[i].Native {
			n++
		}
	}
	return n
}

// Returns true if every instruction of the block still matches memory
func (block *Block) verify(cpu *CPU) bool {
	for i := range block.ops {
		ins := &block.ops[i]
		op, phys, ok := cpu.peekOp(ins.PC)
		if !ok || op != ins.Op || phys != ins.Phys {
			return false
		}
	}
	return true
}

const pageBits = 1 << (32 - MIN_PAGE_SHIFT)

// Compiled code cache. The whole cache is dropped on invalidation
type blockCache struct {
	blocks map[blockKey]*Block
	size   int      // Compiled instructions currently held
	limit  int      // Compiled instructions held before the cache is flushed
	pages  []uint64 // One bit per physical page holding compiled code
}

func newBlockCache(limit int) *blockCache {
	return &blockCache{
		blocks: make(map[blockKey]*Block),
		limit:  limit,
		pages:  make([]uint64, pageBits/64),
	}
}

func (cache *blockCache) get(mode, pc uint32) *Block {
	return cache.blocks[blockKey{mode, pc}]
}

// Returns true if adding `n` instructions would exceed the cache limit
func (cache *blockCache) full(n int) bool {
	return cache.size+n > cache.limit
}

func (cache *blockCache) put(block *Block) {
	key := blockKey{block.Mode, block.PC}
	if old, ok := cache.blocks[key]; ok {
		cache.size -= old.Len()
	}
	cache.blocks[key] = block
	cache.size += block.Len()
	for i := range block.ops {
		page := block.ops[i].Phys >> MIN_PAGE_SHIFT
		cache.pages[page/64] |= 1 << (page % 64)
	}
}

// Returns true if compiled code was fetched from the page holding `phys`
func (cache *blockCache) compiled(phys uint32) bool {
	page := phys >> MIN_PAGE_SHIFT
	return cache.pages[page/64]&(1<<(page%64)) != 0
}

func (cache *blockCache) flush() {
	cache.blocks = make(map[blockKey]*Block)
	cache.size = 0
	for i := range cache.pages {
		cache.pages[i] = 0
	}
}

func (cache *blockCache) len() int {
	return len(cache.blocks)
}
