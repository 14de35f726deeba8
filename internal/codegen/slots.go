package codegen

import "fmt"

// SlotAllocator manages frame slots. Narrow values take one slot, wide
// values (Long, Double) take two adjacent ones addressed by the lower
// index. Released slots are reused by later siblings, which keeps arm
// frames compact; a live wide pair is never handed back half-by-half.
type SlotAllocator struct {
	used []bool
	max  int
}

// NewSlotAllocator creates an empty frame.
func NewSlotAllocator() *SlotAllocator {
	return &SlotAllocator{}
}

// Alloc reserves the lowest free slot.
func (s *SlotAllocator) Alloc() int {
	for i := range s.used {
		if !s.used[i] {
			s.used[i] = true
			s.bump(i + 1)
			return i
		}
	}
	s.used = append(s.used, true)
	s.bump(len(s.used))
	return len(s.used) - 1
}

// AllocWide reserves the lowest free adjacent pair and returns the
// lower index.
func (s *SlotAllocator) AllocWide() int {
	for i := 0; i+1 < len(s.used); i++ {
		if !s.used[i] && !s.used[i+1] {
			s.used[i], s.used[i+1] = true, true
			s.bump(i + 2)
			return i
		}
	}
	if n := len(s.used); n > 0 && !s.used[n-1] {
		s.used[n-1] = true
		s.used = append(s.used, true)
		s.bump(len(s.used))
		return n - 1
	}
	s.used = append(s.used, true, true)
	s.bump(len(s.used))
	return len(s.used) - 2
}

// Release frees a narrow slot.
func (s *SlotAllocator) Release(slot int) {
	s.check(slot)
	s.used[slot] = false
}

// ReleaseWide frees a wide pair by its lower index.
func (s *SlotAllocator) ReleaseWide(slot int) {
	s.check(slot)
	s.check(slot + 1)
	s.used[slot] = false
	s.used[slot+1] = false
}

// Max reports the high-water mark: the frame size the lowered function
// needs.
func (s *SlotAllocator) Max() int {
	return s.max
}

func (s *SlotAllocator) bump(n int) {
	if n > s.max {
		s.max = n
	}
}

func (s *SlotAllocator) check(slot int) {
	if slot < 0 || slot >= len(s.used) || !s.used[slot] {
		panic(fmt.Sprintf("codegen: release of unallocated slot %d", slot))
	}
}
