package bind

import (
	"encoding/binary"
	"reflect"

	"plainprops/ident"
	"plainprops/internal/tag"
	"plainprops/schema"
)

// Footer header: declared id (u32), member count (u16), inner schema count
// (u16), inner range count (u16).
const (
	headerSize           = 10
	offNumMembers        = 4
	offNumInnerSchemas   = 6
	offNumInnerRanges    = 8
	maxFooterCount       = 1<<16 - 1
	offsetAlignment      = 4
	innerSchemaAlignment = 4
)

// MemberBinding is one member as handed to BindStruct.
type MemberBinding struct {
	Offset uintptr
	Type   schema.MemberType

	// Innermost and Ranges are set for range members only. Ranges holds one
	// binding per nesting level, outermost first.
	Innermost schema.MemberType
	Ranges    []RangeBinding

	// InnerSchema is the BindID of a static struct member (or innermost range
	// item), or the EnumID of an enum leaf.
	InnerSchema    uint32
	HasInnerSchema bool
}

// SchemaBinding is the packed, read-only member layout of one bound id.
//
// The footer stores, after the header: member tags, inner-range tags,
// 4-aligned member offsets and 4-aligned inner schema ids. The range
// bindings of every nesting level of every range member follow in ranges,
// in the same order as the inner-range tags.
type SchemaBinding struct {
	footer []byte
	ranges []RangeBinding
	typ    reflect.Type
	refs   uint32
	custom bool
}

type footerLayout struct {
	memberTags     int
	innerRangeTags int
	offsets        int
	innerSchemas   int
	size           int
}

func alignUp(n, to int) int {
	return (n + to - 1) &^ (to - 1)
}

func layoutOf(numMembers, numInnerRanges, numInnerSchemas int) footerLayout {
	var l footerLayout

	l.memberTags = headerSize
	l.innerRangeTags = l.memberTags + numMembers
	l.offsets = alignUp(l.innerRangeTags+numInnerRanges, offsetAlignment)
	l.innerSchemas = alignUp(l.offsets+4*numMembers, innerSchemaAlignment)
	l.size = l.innerSchemas + 4*numInnerSchemas

	return l
}

func innerSchemaCount(members []MemberBinding) int {
	n := 0

	for _, m := range members {
		if m.HasInnerSchema {
			n++
		}
	}

	return n
}

func encodeFooter(decl ident.DeclID, members []MemberBinding, typ reflect.Type) *SchemaBinding {
	var ranges []RangeBinding
	for _, m := range members {
		ranges = append(ranges, m.Ranges...)
	}

	numSchemas := innerSchemaCount(members)

	schema.Check(len(members) <= maxFooterCount && len(ranges) <= maxFooterCount && numSchemas <= maxFooterCount,
		"BindStruct", "too many members in %v", typ)

	l := layoutOf(len(members), len(ranges), numSchemas)
	footer := make([]byte, l.size)

	le := binary.LittleEndian
	le.PutUint32(footer, uint32(decl))
	le.PutUint16(footer[offNumMembers:], uint16(len(members)))
	le.PutUint16(footer[offNumInnerSchemas:], uint16(numSchemas))
	le.PutUint16(footer[offNumInnerRanges:], uint16(len(ranges)))

	innerTag := l.innerRangeTags
	innerSchema := l.innerSchemas

	for i, m := range members {
		footer[l.memberTags+i] = byte(tag.Pack(m.Type))
		le.PutUint32(footer[l.offsets+4*i:], uint32(m.Offset))

		for level := 1; level < len(m.Ranges); level++ {
			footer[innerTag] = byte(tag.Pack(schema.RangeType{SizeClass: m.Ranges[level].SizeClass}))
			innerTag++
		}

		if len(m.Ranges) > 0 {
			footer[innerTag] = byte(tag.Pack(m.Innermost))
			innerTag++
		}

		if m.HasInnerSchema {
			le.PutUint32(footer[innerSchema:], m.InnerSchema)
			innerSchema += 4
		}
	}

	return &SchemaBinding{footer: footer, ranges: ranges, typ: typ, refs: 1}
}

func (s *SchemaBinding) layout() footerLayout {
	return layoutOf(s.NumMembers(), s.NumInnerRanges(), s.NumInnerSchemas())
}

// DeclID returns the declaration s lowers to.
func (s *SchemaBinding) DeclID() ident.DeclID {
	return ident.DeclID(binary.LittleEndian.Uint32(s.footer))
}

// NumMembers counts members including the super member.
func (s *SchemaBinding) NumMembers() int {
	return int(binary.LittleEndian.Uint16(s.footer[offNumMembers:]))
}

// NumInnerSchemas counts inner schema ids across all members.
func (s *SchemaBinding) NumInnerSchemas() int {
	return int(binary.LittleEndian.Uint16(s.footer[offNumInnerSchemas:]))
}

// NumInnerRanges counts inner-range tags across all range members and all
// their nesting levels.
func (s *SchemaBinding) NumInnerRanges() int {
	return int(binary.LittleEndian.Uint16(s.footer[offNumInnerRanges:]))
}

// Size returns the footer size in bytes.
func (s *SchemaBinding) Size() int {
	return len(s.footer)
}

// Type returns the runtime type the binding reads from.
func (s *SchemaBinding) Type() reflect.Type {
	return s.typ
}

// IsCustom reports whether values of the binding are handled by a custom
// binding instead of member walking.
func (s *SchemaBinding) IsCustom() bool {
	return s.custom
}

// HasSuper reports whether the first member is a super member.
func (s *SchemaBinding) HasSuper() bool {
	if s.NumMembers() == 0 {
		return false
	}

	st, ok := s.MemberType(0).(schema.StructType)

	return ok && st.IsSuper
}

func (s *SchemaBinding) memberTag(i int) tag.Tag {
	return tag.Tag(s.footer[s.layout().memberTags+i])
}

func (s *SchemaBinding) innerRangeTag(i int) tag.Tag {
	return tag.Tag(s.footer[s.layout().innerRangeTags+i])
}

// MemberType returns the type of member i.
func (s *SchemaBinding) MemberType(i int) schema.MemberType {
	return s.memberTag(i).Unpack()
}

// InnerRangeType returns the item type of inner-range entry i.
func (s *SchemaBinding) InnerRangeType(i int) schema.MemberType {
	return s.innerRangeTag(i).Unpack()
}

// Offset returns the byte offset of member i.
func (s *SchemaBinding) Offset(i int) uintptr {
	return uintptr(binary.LittleEndian.Uint32(s.footer[s.layout().offsets+4*i:]))
}

// InnerSchema returns inner schema id i.
func (s *SchemaBinding) InnerSchema(i int) uint32 {
	return binary.LittleEndian.Uint32(s.footer[s.layout().innerSchemas+4*i:])
}

// Range returns range binding i, parallel to the inner-range tags.
func (s *SchemaBinding) Range(i int) RangeBinding {
	return s.ranges[i]
}

// Cursor returns a member cursor positioned at the first member.
func (s *SchemaBinding) Cursor() MemberCursor {
	return NewMemberCursor(s)
}
