package mips3

// A contiguous range of physical addresses
type Range struct {
	Start  uint32 // Start address
	Length uint32 // Length of the mapping
}

func NewRange(start uint32, length uint32) Range {
	return Range{Start: start, Length: length}
}

// Returns whether `addr` is located inside this range
func (r *Range) Contains(addr uint32) bool {
	return addr-r.Start < r.Length
}

// Returns whether the `size` bytes at `addr` are all inside this range
func (r *Range) ContainsSpan(addr, size uint32) bool {
	off := addr - r.Start
	return off < r.Length && r.Length-off >= size
}

// Returns the offset between `addr` and the `Start` of the range.
// Does not check if the range contains the address
func (r *Range) Offset(addr uint32) uint32 {
	return addr - r.Start
}

// Returns the last address inside the range
func (r *Range) End() uint32 {
	return r.Start + r.Length - 1
}

// Returns true if the two ranges share at least one address
func (r *Range) Overlaps(other Range) bool {
	return r.Contains(other.Start) || other.Contains(r.Start)
}
