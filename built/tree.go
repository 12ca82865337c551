package built

import (
	"encoding/binary"
	"math"

	"plainprops/ident"
	"plainprops/schema"
)

// Struct is a saved struct value. Members appear in declared order with the
// super member first; sparse saves omit members.
type Struct struct {
	Schema  ident.DeclID
	Members []Member
}

// Member is one saved member. Exactly one of Leaf, Struct and Range is
// meaningful, depending on Type.
type Member struct {
	// Name is NoName for the super member.
	Name ident.NameID
	Type schema.MemberType
	Enum ident.EnumID

	// Leaf holds the raw bits of a leaf, zero-extended. Bools are 0 or 1.
	Leaf   uint64
	Struct *Struct
	Range  *Range
}

// Range is a saved container at one nesting level.
type Range struct {
	SizeClass schema.RangeSizeClass
	ItemType  schema.MemberType
	// ItemSchema is the DeclID of struct items or the EnumID of enum items.
	ItemSchema uint32
	Num        uint64

	// Leaves holds Num leaf items in memory order. Structs and Ranges hold Num
	// items for struct and range item types.
	Leaves  []byte
	Structs []*Struct
	Ranges  []*Range
}

// Find returns the member called name.
func (s *Struct) Find(name ident.NameID) (*Member, bool) {
	for i := range s.Members {
		if s.Members[i].Name == name {
			return &s.Members[i], true
		}
	}

	return nil, false
}

// Super returns the super member value, if present.
func (s *Struct) Super() (*Struct, bool) {
	if len(s.Members) == 0 {
		return nil, false
	}

	st, ok := s.Members[0].Type.(schema.StructType)
	if !ok || !st.IsSuper {
		return nil, false
	}

	return s.Members[0].Struct, true
}

func leafWidth(t schema.MemberType) schema.LeafWidth {
	if leaf, ok := t.(schema.LeafType); ok {
		return leaf.Width
	}

	return schema.B8
}

// Int returns a signed leaf sign-extended from its width.
func (m *Member) Int() int64 {
	return signExtend(m.Leaf, leafWidth(m.Type))
}

// Uint returns an unsigned leaf.
func (m *Member) Uint() uint64 {
	return m.Leaf
}

// Float returns a float leaf widened to float64.
func (m *Member) Float() float64 {
	return leafFloat(m.Leaf, leafWidth(m.Type))
}

// Bool returns a bool or bitfield leaf.
func (m *Member) Bool() bool {
	return m.Leaf != 0
}

func signExtend(v uint64, w schema.LeafWidth) int64 {
	shift := 64 - 8*w.Bytes()
	return int64(v<<shift) >> shift
}

func leafFloat(v uint64, w schema.LeafWidth) float64 {
	if w == schema.B32 {
		return float64(math.Float32frombits(uint32(v)))
	}

	return math.Float64frombits(v)
}

// LeafAt returns the raw bits of leaf item i.
func (r *Range) LeafAt(i uint64) uint64 {
	w := leafWidth(r.ItemType)
	return ReadLeaf(r.Leaves[i*uint64(w.Bytes()):], w)
}

// String returns the items of a Unicode8 range.
func (r *Range) String() string {
	return string(r.Leaves)
}

// ReadLeaf decodes a leaf of width w stored in memory order.
func ReadLeaf(b []byte, w schema.LeafWidth) uint64 {
	switch w {
	case schema.B8:
		return uint64(b[0])
	case schema.B16:
		return uint64(binary.NativeEndian.Uint16(b))
	case schema.B32:
		return uint64(binary.NativeEndian.Uint32(b))
	default:
		return binary.NativeEndian.Uint64(b)
	}
}

// WriteLeaf encodes a leaf of width w in memory order.
func WriteLeaf(b []byte, w schema.LeafWidth, v uint64) {
	switch w {
	case schema.B8:
		b[0] = byte(v)
	case schema.B16:
		binary.NativeEndian.PutUint16(b, uint16(v))
	case schema.B32:
		binary.NativeEndian.PutUint32(b, uint32(v))
	default:
		binary.NativeEndian.PutUint64(b, v)
	}
}
