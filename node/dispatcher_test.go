package node_test

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"plainprops/node"
)

type point struct{ X, Y float32 }

type color uint8

func ExampleDispatch() {
	fmt.Println(node.Dispatch(reflect.TypeFor[color]()) == node.ShapeLeaf)
	fmt.Println(node.Dispatch(reflect.TypeFor[[]point]()) == node.ShapeRange)
	fmt.Println(node.Dispatch(reflect.TypeFor[time.Time]()) == node.ShapeStruct)
	// Output:
	// true
	// true
	// true
}

func TestDispatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ   reflect.Type
		shape node.Shape
		rng   node.RangeKind
	}{
		{reflect.TypeFor[int16](), node.ShapeLeaf, node.RangeNone},
		{reflect.TypeFor[bool](), node.ShapeLeaf, node.RangeNone},
		{reflect.TypeFor[time.Duration](), node.ShapeLeaf, node.RangeNone},
		{reflect.TypeFor[any](), node.ShapeDynamic, node.RangeNone},
		{reflect.TypeFor[string](), node.ShapeRange, node.RangeString},
		{reflect.TypeFor[[]int](), node.ShapeRange, node.RangeSlice},
		{reflect.TypeFor[[4]int](), node.ShapeRange, node.RangeArray},
		{reflect.TypeFor[*point](), node.ShapeRange, node.RangePointer},
		{reflect.TypeFor[map[string]point](), node.ShapeRange, node.RangeMap},
		{reflect.TypeFor[map[int]struct{}](), node.ShapeRange, node.RangeSet},
		{reflect.TypeFor[point](), node.ShapeStruct, node.RangeNone},
		{reflect.TypeFor[complex64](), node.ShapeUnknown, node.RangeNone},
		{reflect.TypeFor[chan int](), node.ShapeUnknown, node.RangeNone},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.shape, node.Dispatch(tt.typ))
			assert.Equal(t, tt.rng, node.RangeOf(tt.typ))
		})
	}
}

func TestDepth(t *testing.T) {
	t.Parallel()

	depth, inner := node.Depth(reflect.TypeFor[[][]string]())
	assert.Equal(t, 3, depth)
	assert.Equal(t, reflect.TypeFor[byte](), inner)

	depth, inner = node.Depth(reflect.TypeFor[map[int32]point]())
	assert.Equal(t, 1, depth)
	assert.Equal(t, reflect.Struct, inner.Kind())

	depth, _ = node.Depth(reflect.TypeFor[point]())
	assert.Zero(t, depth)
}

func TestTypeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "map[string][]plainprops/node_test.point", node.TypeString(reflect.TypeFor[map[string][]point]()))
	assert.Equal(t, "*[2]int", node.TypeString(reflect.TypeFor[*[2]int]()))
}
