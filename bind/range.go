package bind

import (
	"errors"
	"unsafe"

	"plainprops/schema"
)

// ErrRangeSize is returned when a loaded item count cannot be stored in the
// destination container, e.g. a fixed-size array of a different length.
var ErrRangeSize = errors.New("range item count does not fit container")

// ItemsRequest is the caller-owned state of one pull over a container.
// The caller advances NumRead by the Num of every chunk it consumed; State
// belongs to the binding and must be left untouched.
type ItemsRequest struct {
	Range   unsafe.Pointer
	NumRead uint64
	State   any
}

// ItemsChunk is a contiguous run of items. Data stays valid until the next
// ReadItems call on the same request.
type ItemsChunk struct {
	Data   unsafe.Pointer
	Num    uint64
	Total  uint64
	Stride uintptr
}

// At returns the address of item i of the chunk.
func (c ItemsChunk) At(i uint64) unsafe.Pointer {
	return unsafe.Add(c.Data, uintptr(i)*c.Stride)
}

// ItemRangeBinding exposes a container of struct, range or leaf items.
type ItemRangeBinding interface {
	// ReadItems returns the next chunk. A chunk with Num == 0 ends the pull.
	ReadItems(req *ItemsRequest) ItemsChunk
	// LoadItems replaces the container at dst with num items, calling fill
	// once per item in order with the address of a zeroed item.
	LoadItems(dst unsafe.Pointer, num uint64, fill func(item unsafe.Pointer) error) error
}

// LeafRangeBinding exposes a container of scalar leaves as raw memory.
type LeafRangeBinding interface {
	// Leaves returns the item count and a read-only view of the leaf bytes.
	Leaves(rng unsafe.Pointer) (uint64, []byte)
	// SetLeaves replaces the container at dst with num leaves copied from data.
	SetLeaves(dst unsafe.Pointer, num uint64, data []byte) error
	// DiffLeaves reports whether two containers differ, bytewise.
	DiffLeaves(a, b unsafe.Pointer) bool
}

// RangeBinding describes one range nesting level. Exactly one of Items and
// Leaves is set; Leaves is only used for leaf items of the innermost level.
type RangeBinding struct {
	SizeClass schema.RangeSizeClass
	Items     ItemRangeBinding
	Leaves    LeafRangeBinding
}

// Len returns the number of items in rng.
func (r RangeBinding) Len(rng unsafe.Pointer) uint64 {
	if r.Leaves != nil {
		n, _ := r.Leaves.Leaves(rng)
		return n
	}

	req := ItemsRequest{Range: rng}

	return r.Items.ReadItems(&req).Total
}

// ForEachItem pulls every chunk of rng and calls fn per item, stopping at the
// first false. It reports whether all items were visited.
func (r RangeBinding) ForEachItem(rng unsafe.Pointer, fn func(i uint64, item unsafe.Pointer) bool) bool {
	req := ItemsRequest{Range: rng}

	for {
		chunk := r.Items.ReadItems(&req)
		if chunk.Num == 0 {
			return true
		}

		for i := range chunk.Num {
			if !fn(req.NumRead+i, chunk.At(i)) {
				return false
			}
		}

		req.NumRead += chunk.Num
	}
}
