package mips3

// Flags stored in the low bits of every virtual TLB table entry
const (
	VTLB_READ_ALLOWED       uint32 = 0x01 // Kernel reads
	VTLB_WRITE_ALLOWED      uint32 = 0x02 // Kernel writes
	VTLB_FETCH_ALLOWED      uint32 = 0x04 // Kernel instruction fetches
	VTLB_FLAG_VALID         uint32 = 0x08 // Entry maps a valid page
	VTLB_USER_READ_ALLOWED  uint32 = 0x10 // User reads
	VTLB_USER_WRITE_ALLOWED uint32 = 0x20 // User writes
	VTLB_USER_FETCH_ALLOWED uint32 = 0x40 // User instruction fetches
	VTLB_FLAG_FIXED         uint32 = 0x80 // Page is covered by a loaded slot
)

const (
	MIN_PAGE_SHIFT = 12
	VTLB_PAGES     = 1 << (32 - MIN_PAGE_SHIFT)
	TLB_GLOBAL     = 0x01 // EntryLo global bit
)

// One row of the hardware TLB
type TLBEntry struct {
	PageMask uint64
	EntryHi  uint64    // VPN2 and ASID
	EntryLo  [2]uint64 // Even and odd page mappings
}

// Returns true if the entry ignores the ASID
func (e *TLBEntry) Global() bool {
	return e.EntryLo[0]&e.EntryLo[1]&TLB_GLOBAL != 0
}

// Returns the entry's ASID
func (e *TLBEntry) ASID() uint32 {
	return uint32(e.EntryHi) & 0xff
}

// A contiguous run of pages loaded into the lookup table
type vtlbSlot struct {
	vpage uint32 // First virtual page
	count uint32 // Number of pages, 0 when unused
	value uint32 // Table value of the first page
}

// Software TLB: the hardware entries plus a flat table mapping every 4KB
// virtual page to a physical page and permission flags
type TLB struct {
	Entries []TLBEntry
	table   []uint32
	slots   []vtlbSlot
	pfnMask uint32
}

// Returns a new TLB with `entries` rows
func NewTLB(entries int, pfnMask uint32) *TLB {
	return &TLB{
		Entries: make([]TLBEntry, entries),
		table:   make([]uint32, VTLB_PAGES),
		slots:   make([]vtlbSlot, 2*entries+2),
		pfnMask: pfnMask,
	}
}

// Invalidates every entry and installs the unmapped kernel segments
func (tlb *TLB) Reset() {
	for i := range tlb.table {
		tlb.table[i] = 0
	}
	for i := range tlb.slots {
		tlb.slots[i] = vtlbSlot{}
	}
	for i := range tlb.Entries {
		tlb.Entries[i] = TLBEntry{
			PageMask: 0,
			EntryHi:  0xffffffff,
			EntryLo:  [2]uint64{0xfffffff8, 0xfffffff8},
		}
	}

	// kseg0 and kseg1 both map the first 512MB of physical memory
	flags := VTLB_READ_ALLOWED | VTLB_WRITE_ALLOWED | VTLB_FETCH_ALLOWED | VTLB_FLAG_VALID
	n := len(tlb.Entries)
	tlb.Load(2*n+0, (0xa0000000-0x80000000)>>MIN_PAGE_SHIFT, 0x80000000, 0x00000000|flags)
	tlb.Load(2*n+1, (0xc0000000-0xa0000000)>>MIN_PAGE_SHIFT, 0xa0000000, 0x00000000|flags)
}

// Installs `count` pages starting at virtual address `vaddr` into slot `index`.
// `value` holds the first physical page and the permission flags. A count of 0
// only removes the previous contents of the slot
func (tlb *TLB) Load(index int, count uint32, vaddr uint32, value uint32) {
	slot := &tlb.slots[index]
	for i := uint32(0); i < slot.count; i++ {
		tlb.table[slot.vpage+i] = 0
	}

	vpage := vaddr >> MIN_PAGE_SHIFT
	if uint64(vpage)+uint64(count) > VTLB_PAGES {
		count = VTLB_PAGES - vpage
	}
	*slot = vtlbSlot{vpage: vpage, count: count, value: value | VTLB_FLAG_FIXED}
	for i := uint32(0); i < count; i++ {
		tlb.table[vpage+i] = slot.value + i<<MIN_PAGE_SHIFT
	}
}

// Returns the raw table value for virtual address `vaddr`
func (tlb *TLB) TableEntry(vaddr uint32) uint32 {
	return tlb.table[vaddr>>MIN_PAGE_SHIFT]
}

// Translates `vaddr`. Returns false if none of the `perm` bits are granted
func (tlb *TLB) Lookup(vaddr uint32, perm uint32) (uint32, bool) {
	val := tlb.table[vaddr>>MIN_PAGE_SHIFT]
	if val&perm == 0 {
		return 0, false
	}
	return (val &^ 0xfff) | (vaddr & 0xfff), true
}

// Returns the indices of the slots currently holding pages
func (tlb *TLB) LiveSlots() []int {
	var live []int
	for i, slot := range tlb.slots {
		if slot.count != 0 {
			live = append(live, i)
		}
	}
	return live
}

// Reloads the table from entry `index`, as seen from address space `asid`
func (tlb *TLB) mapEntry(index int, asid uint32) {
	entry := &tlb.Entries[index]

	// entries of other address spaces are unmapped
	if entry.ASID() != asid && !entry.Global() {
		tlb.Load(2*index+0, 0, 0, 0)
		tlb.Load(2*index+1, 0, 0, 0)
		return
	}

	vpn := uint32((entry.EntryHi>>13)&0x07ffffff) << 1
	if vpn >= VTLB_PAGES {
		tlb.Load(2*index+0, 0, 0, 0)
		tlb.Load(2*index+1, 0, 0, 0)
		return
	}

	count := uint32((entry.PageMask>>13)&0xfff) + 1
	for which := uint32(0); which < 2; which++ {
		effvpn := vpn + count*which
		lo := entry.EntryLo[which]
		pfn := uint32(lo>>6) & tlb.pfnMask
		var flags uint32

		if lo&2 != 0 {
			flags |= VTLB_FLAG_VALID | VTLB_READ_ALLOWED | VTLB_FETCH_ALLOWED
			if lo&4 != 0 {
				flags |= VTLB_WRITE_ALLOWED
			}
			// useg and its mirrors are visible from user mode
			if effvpn < 0x80000000>>MIN_PAGE_SHIFT {
				flags |= (flags << 4) & (VTLB_USER_READ_ALLOWED | VTLB_USER_WRITE_ALLOWED | VTLB_USER_FETCH_ALLOWED)
			}
		}

		// the unmapped kernel segments cannot be overridden
		if effvpn+count <= 0x80000000>>MIN_PAGE_SHIFT || effvpn >= 0xc0000000>>MIN_PAGE_SHIFT {
			tlb.Load(2*int(index)+int(which), count, effvpn<<MIN_PAGE_SHIFT, pfn<<MIN_PAGE_SHIFT|flags)
		} else {
			tlb.Load(2*int(index)+int(which), 0, 0, 0)
		}
	}
}

// Writes entry `index` and reloads it into the table
func (tlb *TLB) Write(index int, pageMask, entryHi, lo0, lo1 uint64, asid uint32) {
	if index < 0 || index >= len(tlb.Entries) {
		return
	}
	entry := &tlb.Entries[index]
	entry.PageMask = pageMask
	entry.EntryHi = entryHi &^ (pageMask & 0x01ffe000)
	entry.EntryLo[0] = lo0
	entry.EntryLo[1] = lo1
	tlb.mapEntry(index, asid)
}

// Returns the index of the entry matching `entryHi`, or -1
func (tlb *TLB) Probe(entryHi uint64) int {
	for i := range tlb.Entries {
		entry := &tlb.Entries[i]
		mask := ^(((entry.PageMask >> 13) & 0xfff) << 13)
		if (entry.EntryHi&mask) == (entryHi&mask) && ((entry.EntryHi&0xff) == (entryHi&0xff) || entry.Global()) {
			return i
		}
	}
	return -1
}

// Reloads every non-global entry for address space `asid`
func (tlb *TLB) Remap(asid uint32) {
	for i := range tlb.Entries {
		if !tlb.Entries[i].Global() {
			tlb.mapEntry(i, asid)
		}
	}
}

// Reloads every entry for address space `asid`
func (tlb *TLB) RemapAll(asid uint32) {
	for i := range tlb.Entries {
		tlb.mapEntry(i, asid)
	}
}

// Returns the ASID in EntryHi
func (cpu *CPU) asid() uint32 {
	return uint32(cpu.Cpr[0][COP0_EntryHi]) & 0xff
}

// TLBWI: writes the COP0 staging registers to the entry selected by Index
func (cpu *CPU) tlbWriteIndex() {
	cpu.tlbWrite(int(uint32(cpu.Cpr[0][COP0_Index]) & 0x3f))
}

// TLBWR: writes the COP0 staging registers to a pseudo-random unwired entry
func (cpu *CPU) tlbWriteRandom() {
	// slots past the end of a smaller TLB are dropped by tlbWrite
	cpu.tlbWrite(int(cpu.randomIndex()))
}

func (cpu *CPU) tlbWrite(index int) {
	if index >= len(cpu.TLB.Entries) {
		return
	}
	cpu.TLB.Write(index,
		cpu.Cpr[0][COP0_PageMask],
		cpu.Cpr[0][COP0_EntryHi],
		cpu.Cpr[0][COP0_EntryLo0],
		cpu.Cpr[0][COP0_EntryLo1],
		cpu.asid())

	e := &cpu.TLB.Entries[index]
	cpu.log.Debugf("tlb write %2d: mask 0x%08x hi 0x%08x lo0 0x%08x lo1 0x%08x",
		index, uint32(e.PageMask), uint32(e.EntryHi), uint32(e.EntryLo[0]), uint32(e.EntryLo[1]))

	// compiled blocks were translated through the old mapping
	if cpu.drc != nil {
		cpu.drc.Invalidate()
	}
}

// TLBP: looks up EntryHi and stores the matching index (or bit 31) in Index
func (cpu *CPU) tlbProbe() {
	if idx := cpu.TLB.Probe(cpu.Cpr[0][COP0_EntryHi]); idx >= 0 {
		cpu.Cpr[0][COP0_Index] = uint64(idx)
	} else {
		cpu.Cpr[0][COP0_Index] = 0x80000000
	}
}

// TLBR: copies the entry selected by Index into the COP0 staging registers
func (cpu *CPU) tlbRead() {
	index := int(uint32(cpu.Cpr[0][COP0_Index]) & 0x3f)
	if index >= len(cpu.TLB.Entries) {
		return
	}
	e := &cpu.TLB.Entries[index]
	oldASID := cpu.asid()
	cpu.Cpr[0][COP0_PageMask] = e.PageMask
	cpu.Cpr[0][COP0_EntryHi] = e.EntryHi
	cpu.Cpr[0][COP0_EntryLo0] = e.EntryLo[0]
	cpu.Cpr[0][COP0_EntryLo1] = e.EntryLo[1]
	if cpu.asid() != oldASID {
		cpu.asidChanged()
	}
}

// Called when the ASID in EntryHi changes: translations of the previous
// address space are removed
func (cpu *CPU) asidChanged() {
	cpu.log.Debugf("asid changed to 0x%02x", cpu.asid())
	cpu.TLB.Remap(cpu.asid())
	if cpu.drc != nil {
		cpu.drc.Invalidate()
	}
}
