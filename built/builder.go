package built

import (
	"math"

	"plainprops/ident"
	"plainprops/schema"
)

// MemberBuilder accumulates members for a custom binding's saved value.
// Members must be added in declared order.
type MemberBuilder struct {
	scratch *Scratch
	members []Member
}

// NewMemberBuilder returns a builder allocating from scratch.
func NewMemberBuilder(scratch *Scratch) *MemberBuilder {
	return &MemberBuilder{scratch: scratch}
}

// Len returns the number of members added since the last Build.
func (b *MemberBuilder) Len() int {
	return len(b.members)
}

// Add appends a prepared member.
func (b *MemberBuilder) Add(m Member) {
	b.members = append(b.members, m)
}

// AddLeaf appends a leaf from its raw bits.
func (b *MemberBuilder) AddLeaf(name ident.NameID, t schema.LeafType, bits uint64) {
	b.Add(Member{Name: name, Type: t, Leaf: bits})
}

// AddInt appends a 64 bit signed leaf.
func (b *MemberBuilder) AddInt(name ident.NameID, v int64) {
	b.AddLeaf(name, schema.LeafType{Category: schema.LeafSignedInt, Width: schema.B64}, uint64(v))
}

// AddUint appends a 64 bit unsigned leaf.
func (b *MemberBuilder) AddUint(name ident.NameID, v uint64) {
	b.AddLeaf(name, schema.LeafType{Category: schema.LeafUnsignedInt, Width: schema.B64}, v)
}

// AddFloat appends a 64 bit float leaf.
func (b *MemberBuilder) AddFloat(name ident.NameID, v float64) {
	b.AddLeaf(name, schema.LeafType{Category: schema.LeafFloat, Width: schema.B64}, math.Float64bits(v))
}

// AddBool appends a bool leaf.
func (b *MemberBuilder) AddBool(name ident.NameID, v bool) {
	var bits uint64
	if v {
		bits = 1
	}

	b.AddLeaf(name, schema.LeafType{Category: schema.LeafBool, Width: schema.B8}, bits)
}

// AddString appends a Unicode8 range.
func (b *MemberBuilder) AddString(name ident.NameID, v string) {
	r := b.scratch.NewRange()
	r.SizeClass = schema.SizeS64
	r.ItemType = schema.LeafType{Category: schema.LeafUnicode, Width: schema.B8}
	r.Num = uint64(len(v))
	r.Leaves = b.scratch.Bytes(len(v))
	copy(r.Leaves, v)

	b.Add(Member{Name: name, Type: schema.RangeType{SizeClass: schema.SizeS64}, Range: r})
}

// AddStruct appends a nested struct.
func (b *MemberBuilder) AddStruct(name ident.NameID, s *Struct) {
	b.Add(Member{Name: name, Type: schema.StructType{}, Struct: s})
}

// Build returns the accumulated members as a struct of schema id and
// resets the builder.
func (b *MemberBuilder) Build(id ident.DeclID) *Struct {
	out := b.scratch.NewStruct(id, len(b.members))
	out.Members = append(out.Members, b.members...)
	b.members = b.members[:0]

	return out
}
