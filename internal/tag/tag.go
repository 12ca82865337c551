// Package tag packs schema.MemberType values into the single byte stored per
// member in a binding footer.
//
// Layout, low bits first:
//
//	bits 0-1  kind (leaf, struct, range)
//	leaf:     bits 2-3 width, bits 4-6 category, bit 7 clear
//	bitfield: bits 2-4 bit index, bit 7 set
//	struct:   bit 2 dynamic, bit 3 super
//	range:    bits 2-5 size class
package tag

import (
	"fmt"

	"plainprops/schema"
)

// Tag is a packed member type.
type Tag uint8

const (
	kindMask     = 0x3
	bitfieldFlag = 0x80
)

// Pack encodes t.
func Pack(t schema.MemberType) Tag {
	switch t := t.(type) {
	case schema.LeafType:
		return Tag(schema.KindLeaf) | Tag(t.Width)<<2 | Tag(t.Category)<<4
	case schema.BitfieldType:
		if t.Bit > 7 {
			schema.Violation("tag.Pack", "bitfield bit %d out of range", t.Bit)
		}

		return Tag(schema.KindLeaf) | Tag(t.Bit)<<2 | bitfieldFlag
	case schema.StructType:
		v := Tag(schema.KindStruct)
		if t.Dynamic {
			v |= 1 << 2
		}

		if t.IsSuper {
			v |= 1 << 3
		}

		return v
	case schema.RangeType:
		return Tag(schema.KindRange) | Tag(t.SizeClass)<<2
	default:
		panic(fmt.Sprintf("tag: unknown member type %T", t))
	}
}

// Kind returns the member kind without a full decode.
func (g Tag) Kind() schema.MemberKind {
	return schema.MemberKind(g & kindMask)
}

// IsRange reports whether g encodes a range.
func (g Tag) IsRange() bool {
	return g.Kind() == schema.KindRange
}

// Unpack decodes g.
func (g Tag) Unpack() schema.MemberType {
	switch g.Kind() {
	case schema.KindLeaf:
		if g&bitfieldFlag != 0 {
			return schema.BitfieldType{Bit: uint8(g>>2) & 0x7}
		}

		return schema.LeafType{
			Category: schema.LeafCategory(g>>4) & 0x7,
			Width:    schema.LeafWidth(g>>2) & 0x3,
		}
	case schema.KindStruct:
		return schema.StructType{Dynamic: g&(1<<2) != 0, IsSuper: g&(1<<3) != 0}
	case schema.KindRange:
		return schema.RangeType{SizeClass: schema.RangeSizeClass(g>>2) & 0xf}
	default:
		panic(fmt.Sprintf("tag: invalid tag %#x", uint8(g)))
	}
}
