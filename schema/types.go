package schema

import "math"

//go:generate go tool stringer -type=MemberKind -trimprefix=Kind -output=member_kind_string.go
//go:generate go tool stringer -type=LeafCategory -trimprefix=Leaf -output=leaf_category_string.go
//go:generate go tool stringer -type=LeafWidth -output=leaf_width_string.go
//go:generate go tool stringer -type=RangeSizeClass -trimprefix=Size -output=range_size_class_string.go

// MemberKind is the top-level kind of a member.
type MemberKind uint8

const (
	KindLeaf MemberKind = iota
	KindStruct
	KindRange
)

// LeafCategory selects how the bits of a leaf are interpreted.
type LeafCategory uint8

const (
	LeafBool LeafCategory = iota
	LeafSignedInt
	LeafUnsignedInt
	LeafFloat
	LeafHex
	LeafEnum
	LeafUnicode
)

// LeafWidth is the byte width of a leaf.
type LeafWidth uint8

const (
	B8 LeafWidth = iota
	B16
	B32
	B64
)

// Bytes returns the size of w in bytes.
func (w LeafWidth) Bytes() int {
	return 1 << w
}

// WidthOf returns the leaf width of an n-byte value.
func WidthOf(n uintptr) LeafWidth {
	switch n {
	case 1:
		return B8
	case 2:
		return B16
	case 4:
		return B32
	case 8:
		return B64
	default:
		Violation("WidthOf", "no leaf width of %d bytes", n)
		return 0
	}
}

// RangeSizeClass selects the width used to persist the item count of one
// range nesting level, and bounds that count.
type RangeSizeClass uint8

const (
	// SizeUni ranges hold zero or one item; the count persists as one bit.
	SizeUni RangeSizeClass = iota
	SizeS8
	SizeU8
	SizeS16
	SizeU16
	SizeS32
	SizeU32
	SizeS64
	SizeU64
)

// NumRangeSizeClasses is the number of size classes.
const NumRangeSizeClasses = int(SizeU64) + 1

// Max returns the largest item count representable in c.
func (c RangeSizeClass) Max() uint64 {
	switch c {
	case SizeUni:
		return 1
	case SizeS8:
		return math.MaxInt8
	case SizeU8:
		return math.MaxUint8
	case SizeS16:
		return math.MaxInt16
	case SizeU16:
		return math.MaxUint16
	case SizeS32:
		return math.MaxInt32
	case SizeU32:
		return math.MaxUint32
	case SizeS64:
		return math.MaxInt64
	default:
		return math.MaxUint64
	}
}

// SizeClassFor returns the smallest unsigned size class that holds n items.
func SizeClassFor(n uint64) RangeSizeClass {
	switch {
	case n <= math.MaxUint8:
		return SizeU8
	case n <= math.MaxUint16:
		return SizeU16
	case n <= math.MaxUint32:
		return SizeU32
	default:
		return SizeU64
	}
}

// MemberType is the closed set of member types: LeafType, BitfieldType,
// StructType and RangeType.
type MemberType interface {
	Kind() MemberKind
	String() string
	isMemberType()
}

// LeafType is a scalar of a given category and width.
type LeafType struct {
	Category LeafCategory
	Width    LeafWidth
}

// BitfieldType is a single-bit bool stored at bit Bit of a byte.
type BitfieldType struct {
	Bit uint8
}

// StructType is a nested struct member.
type StructType struct {
	// Dynamic members store their concrete schema alongside each value.
	Dynamic bool
	// IsSuper is only legal on the first member of a struct.
	IsSuper bool
}

// RangeType is a container member; its item types live in the binding's
// inner-range types, one per nesting level.
type RangeType struct {
	SizeClass RangeSizeClass
}

func (LeafType) Kind() MemberKind     { return KindLeaf }
func (BitfieldType) Kind() MemberKind { return KindLeaf }
func (StructType) Kind() MemberKind   { return KindStruct }
func (RangeType) Kind() MemberKind    { return KindRange }

func (LeafType) isMemberType()     {}
func (BitfieldType) isMemberType() {}
func (StructType) isMemberType()   {}
func (RangeType) isMemberType()    {}

func (t LeafType) String() string {
	return t.Category.String() + t.Width.String()[1:]
}

func (t BitfieldType) String() string {
	return "Bit" + string('0'+rune(t.Bit))
}

func (t StructType) String() string {
	switch {
	case t.IsSuper:
		return "Super"
	case t.Dynamic:
		return "DynamicStruct"
	default:
		return "Struct"
	}
}

func (t RangeType) String() string {
	return "Range" + t.SizeClass.String()
}

// Validate panics unless t is a well-formed leaf.
func (t LeafType) Validate() {
	switch t.Category {
	case LeafBool:
		Check(t.Width == B8, "LeafType", "bool leaves are 8 bit, got %s", t.Width)
	case LeafFloat:
		Check(t.Width == B32 || t.Width == B64, "LeafType", "float leaves are 32 or 64 bit, got %s", t.Width)
	case LeafUnicode:
		Check(t.Width != B64, "LeafType", "unicode leaves are at most 32 bit")
	}

	Check(t.Category <= LeafUnicode && t.Width <= B64, "LeafType", "invalid leaf %d/%d", t.Category, t.Width)
}

// IsLeafBool reports whether t is a bool or bitfield bool leaf.
func IsLeafBool(t MemberType) bool {
	switch t := t.(type) {
	case BitfieldType:
		return true
	case LeafType:
		return t.Category == LeafBool
	default:
		return false
	}
}
