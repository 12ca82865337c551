package primitive

import (
	"reflect"
	"time"

	"plainprops/schema"
)

//go:generate go tool stringer -type=KindEnum -output=kind_string.go

type KindEnum int

const (
	_ KindEnum = iota // skip zero value, use it as a default (invalid) value for KindEnum

	KindInt
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindBool
	KindString
	KindTime
	KindDuration

	// KindTotal is a constant that represents the total number of kinds defined
	KindTotal = int(iota)
)

func (k KindEnum) IsNumber() bool {
	return k.IsInteger() || k.IsFloat()
}

func (k KindEnum) IsInteger() bool {
	return k.IsSigned() || k.IsUnsigned()
}

func (k KindEnum) IsFloat() bool {
	switch k {
	default:
		return false
	case KindFloat32, KindFloat64:
		return true
	}
}

func (k KindEnum) IsSigned() bool {
	switch k {
	default:
		return false
	case KindInt, KindInt8, KindInt16, KindInt32, KindInt64, KindDuration:
		return true
	}
}

func (k KindEnum) IsUnsigned() bool {
	switch k {
	default:
		return false
	case KindUint, KindUint8, KindUint16, KindUint32, KindUint64:
		return true
	}
}

// Bits returns the in-memory width of a scalar kind.
func (k KindEnum) Bits() int {
	switch k {
	default:
		panic("only scalar kinds have a meaningful bit width, but requested for: " + k.String())
	case KindInt, KindUint:
		return strconvIntSize
	case KindInt8, KindUint8, KindBool:
		return 8
	case KindInt16, KindUint16:
		return 16
	case KindInt32, KindUint32, KindFloat32:
		return 32
	case KindInt64, KindUint64, KindFloat64, KindDuration:
		return 64
	}
}

// Leaf returns the leaf type a value of kind k is persisted as. Strings and
// times are not leaves: strings are Unicode8 ranges and times use a custom
// binding.
func (k KindEnum) Leaf() (schema.LeafType, bool) {
	var category schema.LeafCategory

	switch {
	case k == KindBool:
		category = schema.LeafBool
	case k.IsSigned():
		category = schema.LeafSignedInt
	case k.IsUnsigned():
		category = schema.LeafUnsignedInt
	case k.IsFloat():
		category = schema.LeafFloat
	default:
		return schema.LeafType{}, false
	}

	return schema.LeafType{Category: category, Width: schema.WidthOf(uintptr(k.Bits() / 8))}, true
}

// FromReflectType classifies rtype. Named types classify by their underlying
// kind, so an enum-like `type Color uint8` is KindUint8.
func FromReflectType(rtype reflect.Type) KindEnum {
	if rtype == nil {
		return 0
	}

	switch rtype {
	case reflect.TypeOf(time.Time{}):
		return KindTime
	case reflect.TypeOf(time.Duration(0)):
		return KindDuration
	}

	switch rtype.Kind() {
	default:
		return 0
	case reflect.Int:
		return KindInt
	case reflect.Int8:
		return KindInt8
	case reflect.Int16:
		return KindInt16
	case reflect.Int32:
		return KindInt32
	case reflect.Int64:
		return KindInt64
	case reflect.Uint:
		return KindUint
	case reflect.Uint8:
		return KindUint8
	case reflect.Uint16:
		return KindUint16
	case reflect.Uint32:
		return KindUint32
	case reflect.Uint64:
		return KindUint64
	case reflect.Float32:
		return KindFloat32
	case reflect.Float64:
		return KindFloat64
	case reflect.Bool:
		return KindBool
	case reflect.String:
		return KindString
	}
}

// LeafOf is FromReflectType followed by Leaf.
func LeafOf(rtype reflect.Type) (schema.LeafType, bool) {
	return FromReflectType(rtype).Leaf()
}

const strconvIntSize = 32 << (^uint(0) >> 63)
