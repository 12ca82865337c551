// Package node classifies Go types into the member shapes the binder
// persists them as.
package node

import (
	"reflect"
	"strconv"
	"time"

	"plainprops/bind"
	"plainprops/primitive"
)

// Dispatch returns the shape of values of t. Times are structs: they are
// saved through a custom binding.
func Dispatch(t reflect.Type) Shape {
	if t == reflect.TypeFor[time.Time]() {
		return ShapeStruct
	}

	switch t.Kind() {
	case reflect.Interface:
		return ShapeDynamic
	case reflect.String, reflect.Slice, reflect.Array, reflect.Pointer, reflect.Map:
		return ShapeRange
	case reflect.Struct:
		return ShapeStruct
	}

	if _, ok := primitive.LeafOf(t); ok {
		return ShapeLeaf
	}

	return ShapeUnknown
}

// RangeOf returns the container kind of a ShapeRange type.
func RangeOf(t reflect.Type) RangeKind {
	switch t.Kind() {
	case reflect.String:
		return RangeString
	case reflect.Slice:
		return RangeSlice
	case reflect.Array:
		return RangeArray
	case reflect.Pointer:
		return RangePointer
	case reflect.Map:
		if bind.IsSet(t) {
			return RangeSet
		}

		return RangeMap
	default:
		return RangeNone
	}
}

// ItemType returns the type of the items of a ShapeRange type. Map items
// are key/value pair structs.
func ItemType(t reflect.Type) reflect.Type {
	switch RangeOf(t) {
	case RangeString:
		return reflect.TypeFor[byte]()
	case RangeMap:
		return bind.PairType(t)
	case RangeSet:
		return t.Key()
	default:
		return t.Elem()
	}
}

// Depth returns the number of nested ranges starting at t and the innermost
// item type.
func Depth(t reflect.Type) (depth int, innermost reflect.Type) {
	innermost = t
	for Dispatch(innermost) == ShapeRange {
		depth++
		innermost = ItemType(innermost)
	}

	return depth, innermost
}

// TypeString formats t with its full package path, e.g.
// "map[string][]example.com/geo.Point".
func TypeString(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Pointer:
		return "*" + TypeString(t.Elem())
	case reflect.Slice:
		return "[]" + TypeString(t.Elem())
	case reflect.Array:
		return "[" + strconv.Itoa(t.Len()) + "]" + TypeString(t.Elem())
	case reflect.Map:
		return "map[" + TypeString(t.Key()) + "]" + TypeString(t.Elem())
	default:
		if t.PkgPath() == "" {
			return t.String()
		}

		return t.PkgPath() + "." + t.Name()
	}
}
