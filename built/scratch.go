package built

import "plainprops/ident"

const slabSize = 256

type slab[T any] struct {
	block []T
	used  int
}

func (s *slab[T]) alloc(n int) []T {
	if n > slabSize/2 {
		return make([]T, n)
	}

	if n > len(s.block)-s.used {
		s.block = make([]T, slabSize)
		s.used = 0
	}

	out := s.block[s.used : s.used+n : s.used+n]
	s.used += n

	return out
}

func (s *slab[T]) reset() {
	clear(s.block[:s.used])
	s.used = 0
}

// Scratch is a bump allocator for value trees. It is not safe for concurrent
// use; give every concurrent save its own Scratch.
type Scratch struct {
	structs  slab[Struct]
	members  slab[Member]
	ranges   slab[Range]
	pointers slab[*Struct]
	nested   slab[*Range]
	bytes    slab[byte]
}

// NewStruct allocates a struct with room for numMembers members.
func (s *Scratch) NewStruct(schemaID ident.DeclID, numMembers int) *Struct {
	out := &s.structs.alloc(1)[0]
	out.Schema = schemaID
	out.Members = s.members.alloc(numMembers)[:0]

	return out
}

// NewRange allocates an empty range.
func (s *Scratch) NewRange() *Range {
	return &s.ranges.alloc(1)[0]
}

// Structs allocates n struct item slots.
func (s *Scratch) Structs(n int) []*Struct {
	return s.pointers.alloc(n)
}

// Ranges allocates n nested range slots.
func (s *Scratch) Ranges(n int) []*Range {
	return s.nested.alloc(n)
}

// Bytes allocates n zeroed bytes.
func (s *Scratch) Bytes(n int) []byte {
	return s.bytes.alloc(n)
}

// Reset makes the memory of every tree allocated so far reusable. Trees
// allocated before Reset must no longer be used.
func (s *Scratch) Reset() {
	s.structs.reset()
	s.members.reset()
	s.ranges.reset()
	s.pointers.reset()
	s.nested.reset()
	s.bytes.reset()
}
