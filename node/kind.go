package node

// Shape is how values of a Go type are persisted as a member.
type Shape int

const (
	ShapeUnknown Shape = iota
	// ShapeLeaf is a bool or number.
	ShapeLeaf
	// ShapeDynamic is an interface holding a pointer to a bound struct.
	ShapeDynamic
	// ShapeRange is a string, slice, array, pointer, map or set.
	ShapeRange
	// ShapeStruct is a nested struct.
	ShapeStruct

	// ShapeTotal is the number of shapes.
	ShapeTotal = int(iota)
)

// RangeKind tells the container bindings apart.
type RangeKind int

const (
	RangeNone RangeKind = iota
	RangeString
	RangeSlice
	RangeArray
	RangePointer
	RangeMap
	RangeSet
)
