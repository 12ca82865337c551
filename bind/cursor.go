package bind

import (
	"plainprops/ident"
	"plainprops/schema"
)

// LeafMember is a leaf or bitfield member yielded by GrabLeaf.
type LeafMember struct {
	Offset uintptr
	Type   schema.MemberType
	// Enum is set when Type is an enum leaf.
	Enum ident.EnumID
}

// StructMember is a struct member yielded by GrabStruct or GrabSuper.
type StructMember struct {
	Offset uintptr
	Type   schema.StructType
	// Schema is NoBind for dynamic members.
	Schema ident.BindID
}

// RangeMember is a range member with its whole nesting chain.
type RangeMember struct {
	Offset    uintptr
	Ranges    []RangeBinding
	Innermost schema.MemberType
	// Schema is the BindID of struct items or the EnumID of enum leaves.
	Schema    uint32
	HasSchema bool
}

// ItemType returns the item type at nesting level.
func (r RangeMember) ItemType(level int) schema.MemberType {
	if level+1 < len(r.Ranges) {
		return schema.RangeType{SizeClass: r.Ranges[level+1].SizeClass}
	}

	return r.Innermost
}

// Level returns the range member describing nesting level and deeper.
func (r RangeMember) Level(level int) RangeMember {
	r.Ranges = r.Ranges[level:]
	return r
}

// MemberCursor walks the members of one SchemaBinding in order. It advances
// three cursors independently: member tags, inner-range tags and inner schema
// ids.
type MemberCursor struct {
	binding     *SchemaBinding
	member      int
	innerRange  int
	innerSchema int
}

// NewMemberCursor positions a cursor at the first member of b.
func NewMemberCursor(b *SchemaBinding) MemberCursor {
	return MemberCursor{binding: b}
}

// HasMore reports whether members remain.
func (c *MemberCursor) HasMore() bool {
	return c.member < c.binding.NumMembers()
}

// Index returns the index of the next member.
func (c *MemberCursor) Index() int {
	return c.member
}

// PeekKind returns the kind of the next member.
func (c *MemberCursor) PeekKind() schema.MemberKind {
	c.mustHaveMore("PeekKind")
	return c.binding.memberTag(c.member).Kind()
}

func (c *MemberCursor) mustHaveMore(op string) {
	schema.Check(c.HasMore(), "MemberCursor."+op, "no members left in %v", c.binding.typ)
}

func (c *MemberCursor) grabInnerSchema() uint32 {
	id := c.binding.InnerSchema(c.innerSchema)
	c.innerSchema++

	return id
}

// GrabSuper consumes the super member, which must be first.
func (c *MemberCursor) GrabSuper() StructMember {
	c.mustHaveMore("GrabSuper")

	st, ok := c.binding.memberTag(c.member).Unpack().(schema.StructType)
	schema.Check(ok && st.IsSuper && c.member == 0, "MemberCursor.GrabSuper",
		"member %d of %v is not a super", c.member, c.binding.typ)

	return c.grabStruct(st)
}

// GrabLeaf consumes a leaf member.
func (c *MemberCursor) GrabLeaf() LeafMember {
	c.mustHaveMore("GrabLeaf")

	typ := c.binding.memberTag(c.member).Unpack()
	schema.Check(typ.Kind() == schema.KindLeaf, "MemberCursor.GrabLeaf",
		"member %d of %v is a %s", c.member, c.binding.typ, typ)

	out := LeafMember{Offset: c.binding.Offset(c.member), Type: typ}
	if leaf, ok := typ.(schema.LeafType); ok && leaf.Category == schema.LeafEnum {
		out.Enum = ident.EnumID(c.grabInnerSchema())
	}

	c.member++

	return out
}

// GrabStruct consumes a non-super struct member.
func (c *MemberCursor) GrabStruct() StructMember {
	c.mustHaveMore("GrabStruct")

	st, ok := c.binding.memberTag(c.member).Unpack().(schema.StructType)
	schema.Check(ok && !st.IsSuper, "MemberCursor.GrabStruct",
		"member %d of %v is not a plain struct", c.member, c.binding.typ)

	return c.grabStruct(st)
}

func (c *MemberCursor) grabStruct(st schema.StructType) StructMember {
	out := StructMember{Offset: c.binding.Offset(c.member), Type: st, Schema: ident.NoBind}
	if !st.Dynamic {
		out.Schema = ident.BindID(c.grabInnerSchema())
	}

	c.member++

	return out
}

// GrabRange consumes a range member and its run of inner-range entries. The
// run ends at the first non-range inner tag, which is the innermost item type.
func (c *MemberCursor) GrabRange() RangeMember {
	c.mustHaveMore("GrabRange")

	typ := c.binding.memberTag(c.member).Unpack()
	schema.Check(typ.Kind() == schema.KindRange, "MemberCursor.GrabRange",
		"member %d of %v is a %s", c.member, c.binding.typ, typ)

	start := c.innerRange
	for c.binding.innerRangeTag(c.innerRange).IsRange() {
		c.innerRange++
	}

	innermost := c.binding.innerRangeTag(c.innerRange).Unpack()
	c.innerRange++

	out := RangeMember{
		Offset:    c.binding.Offset(c.member),
		Ranges:    c.binding.ranges[start:c.innerRange],
		Innermost: innermost,
	}

	if needsInnerSchema(innermost) {
		out.Schema = c.grabInnerSchema()
		out.HasSchema = true
	}

	c.member++

	return out
}

func needsInnerSchema(t schema.MemberType) bool {
	switch t := t.(type) {
	case schema.StructType:
		return !t.Dynamic
	case schema.LeafType:
		return t.Category == schema.LeafEnum
	default:
		return false
	}
}
