package bind

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"unsafe"

	"plainprops/primitive"
	"plainprops/schema"
)

// DefaultChunk is the number of items hash-backed containers yield per pull.
const DefaultChunk = 64

// ErrDuplicateKey is returned when loaded map or set items share a key.
var ErrDuplicateKey = errors.New("duplicate key in loaded range")

func isLeafItem(t reflect.Type) bool {
	_, ok := primitive.LeafOf(t)
	return ok
}

// SliceRange binds a slice type. Slices yield all items in one chunk.
func SliceRange(t reflect.Type) RangeBinding {
	schema.Check(t.Kind() == reflect.Slice, "SliceRange", "%v is not a slice", t)

	s := &sliceRange{typ: t, stride: t.Elem().Size()}
	if isLeafItem(t.Elem()) {
		return RangeBinding{SizeClass: schema.SizeS64, Leaves: s}
	}

	return RangeBinding{SizeClass: schema.SizeS64, Items: s}
}

type sliceRange struct {
	typ    reflect.Type
	stride uintptr
}

func (s *sliceRange) value(p unsafe.Pointer) reflect.Value {
	return reflect.NewAt(s.typ, p).Elem()
}

func (s *sliceRange) ReadItems(req *ItemsRequest) ItemsChunk {
	v := s.value(req.Range)
	total := uint64(v.Len())

	if req.NumRead >= total {
		return ItemsChunk{Total: total, Stride: s.stride}
	}

	return ItemsChunk{
		Data:   unsafe.Add(v.UnsafePointer(), uintptr(req.NumRead)*s.stride),
		Num:    total - req.NumRead,
		Total:  total,
		Stride: s.stride,
	}
}

func (s *sliceRange) LoadItems(dst unsafe.Pointer, num uint64, fill func(item unsafe.Pointer) error) error {
	v := s.value(dst)
	if num == 0 {
		v.SetZero()
		return nil
	}

	if num > math.MaxInt {
		return fmt.Errorf("%v with %d items: %w", s.typ, num, ErrRangeSize)
	}

	fresh := reflect.MakeSlice(s.typ, int(num), int(num))
	for i := range int(num) {
		if err := fill(fresh.Index(i).Addr().UnsafePointer()); err != nil {
			return err
		}
	}

	v.Set(fresh)

	return nil
}

func (s *sliceRange) Leaves(rng unsafe.Pointer) (uint64, []byte) {
	v := s.value(rng)

	n := v.Len()
	if n == 0 {
		return 0, nil
	}

	return uint64(n), unsafe.Slice((*byte)(v.UnsafePointer()), uintptr(n)*s.stride)
}

func (s *sliceRange) SetLeaves(dst unsafe.Pointer, num uint64, data []byte) error {
	if uint64(len(data)) != num*uint64(s.stride) {
		return fmt.Errorf("%v with %d items from %d bytes: %w", s.typ, num, len(data), ErrRangeSize)
	}

	v := s.value(dst)
	if num == 0 {
		v.SetZero()
		return nil
	}

	fresh := reflect.MakeSlice(s.typ, int(num), int(num))
	copy(unsafe.Slice((*byte)(fresh.UnsafePointer()), len(data)), data)
	v.Set(fresh)

	return nil
}

func (s *sliceRange) DiffLeaves(a, b unsafe.Pointer) bool {
	return diffLeaves(s, a, b)
}

func diffLeaves(r LeafRangeBinding, a, b unsafe.Pointer) bool {
	na, da := r.Leaves(a)
	nb, db := r.Leaves(b)

	return na != nb || !bytes.Equal(da, db)
}

// ArrayRange binds a fixed-size array type, using the smallest unsigned
// size class that holds its length.
func ArrayRange(t reflect.Type) RangeBinding {
	schema.Check(t.Kind() == reflect.Array, "ArrayRange", "%v is not an array", t)

	a := &arrayRange{typ: t, stride: t.Elem().Size(), n: uint64(t.Len())}
	class := schema.SizeClassFor(a.n)

	if isLeafItem(t.Elem()) {
		return RangeBinding{SizeClass: class, Leaves: a}
	}

	return RangeBinding{SizeClass: class, Items: a}
}

type arrayRange struct {
	typ    reflect.Type
	stride uintptr
	n      uint64
}

func (a *arrayRange) ReadItems(req *ItemsRequest) ItemsChunk {
	if req.NumRead >= a.n {
		return ItemsChunk{Total: a.n, Stride: a.stride}
	}

	return ItemsChunk{
		Data:   unsafe.Add(req.Range, uintptr(req.NumRead)*a.stride),
		Num:    a.n - req.NumRead,
		Total:  a.n,
		Stride: a.stride,
	}
}

func (a *arrayRange) LoadItems(dst unsafe.Pointer, num uint64, fill func(item unsafe.Pointer) error) error {
	if num != a.n {
		return fmt.Errorf("%v with %d items: %w", a.typ, num, ErrRangeSize)
	}

	tmp := reflect.New(a.typ).Elem()
	for i := range int(num) {
		if err := fill(tmp.Index(i).Addr().UnsafePointer()); err != nil {
			return err
		}
	}

	reflect.NewAt(a.typ, dst).Elem().Set(tmp)

	return nil
}

func (a *arrayRange) Leaves(rng unsafe.Pointer) (uint64, []byte) {
	return a.n, unsafe.Slice((*byte)(rng), a.typ.Size())
}

func (a *arrayRange) SetLeaves(dst unsafe.Pointer, num uint64, data []byte) error {
	if num != a.n || uintptr(len(data)) != a.typ.Size() {
		return fmt.Errorf("%v with %d items from %d bytes: %w", a.typ, num, len(data), ErrRangeSize)
	}

	copy(unsafe.Slice((*byte)(dst), len(data)), data)

	return nil
}

func (a *arrayRange) DiffLeaves(x, y unsafe.Pointer) bool {
	return diffLeaves(a, x, y)
}

// StringRange binds a string type as a Unicode8 leaf range.
func StringRange(t reflect.Type) RangeBinding {
	schema.Check(t.Kind() == reflect.String, "StringRange", "%v is not a string", t)
	return RangeBinding{SizeClass: schema.SizeS64, Leaves: stringRange{}}
}

type stringRange struct{}

func (stringRange) Leaves(rng unsafe.Pointer) (uint64, []byte) {
	s := *(*string)(rng)
	return uint64(len(s)), unsafe.Slice(unsafe.StringData(s), len(s))
}

func (stringRange) SetLeaves(dst unsafe.Pointer, num uint64, data []byte) error {
	if uint64(len(data)) != num {
		return fmt.Errorf("string of %d items from %d bytes: %w", num, len(data), ErrRangeSize)
	}

	*(*string)(dst) = string(data)

	return nil
}

func (stringRange) DiffLeaves(a, b unsafe.Pointer) bool {
	return *(*string)(a) != *(*string)(b)
}

// PointerRange binds a pointer as an optional value holding zero or one item.
func PointerRange(t reflect.Type) RangeBinding {
	schema.Check(t.Kind() == reflect.Pointer, "PointerRange", "%v is not a pointer", t)
	return RangeBinding{SizeClass: schema.SizeUni, Items: &pointerRange{typ: t}}
}

type pointerRange struct {
	typ reflect.Type
}

func (p *pointerRange) ReadItems(req *ItemsRequest) ItemsChunk {
	target := *(*unsafe.Pointer)(req.Range)
	stride := p.typ.Elem().Size()

	if target == nil {
		return ItemsChunk{Stride: stride}
	}

	if req.NumRead > 0 {
		return ItemsChunk{Total: 1, Stride: stride}
	}

	return ItemsChunk{Data: target, Num: 1, Total: 1, Stride: stride}
}

func (p *pointerRange) LoadItems(dst unsafe.Pointer, num uint64, fill func(item unsafe.Pointer) error) error {
	v := reflect.NewAt(p.typ, dst).Elem()

	switch num {
	case 0:
		v.SetZero()
		return nil
	case 1:
		fresh := reflect.New(p.typ.Elem())
		if err := fill(fresh.UnsafePointer()); err != nil {
			return err
		}

		v.Set(fresh)

		return nil
	default:
		return fmt.Errorf("%v with %d items: %w", p.typ, num, ErrRangeSize)
	}
}

// SortableKey reports whether map keys of type t have a deterministic order.
func SortableKey(t reflect.Type) bool {
	k := primitive.FromReflectType(t)
	return k.IsNumber() || k == primitive.KindString || k == primitive.KindBool
}

// IsSet reports whether t is a map used as a set, i.e. its values are empty
// structs.
func IsSet(t reflect.Type) bool {
	return t.Kind() == reflect.Map && t.Elem().Kind() == reflect.Struct && t.Elem().Size() == 0
}

// PairType returns the key/value item struct a map type is saved as.
func PairType(t reflect.Type) reflect.Type {
	schema.Check(t.Kind() == reflect.Map, "PairType", "%v is not a map", t)

	return reflect.StructOf([]reflect.StructField{
		{Name: "Key", Type: t.Key()},
		{Name: "Value", Type: t.Elem()},
	})
}

// MapRange binds a map as a range of PairType items, yielded chunk items at
// a time in ascending key order.
func MapRange(t reflect.Type, chunk int) RangeBinding {
	schema.Check(t.Kind() == reflect.Map && SortableKey(t.Key()), "MapRange", "%v keys have no order", t)

	pair := PairType(t)

	return RangeBinding{SizeClass: schema.SizeS64, Items: &hashRange{typ: t, item: pair, chunk: max(chunk, 1)}}
}

// SetRange binds a set as a range of its keys, yielded chunk items at a time
// in ascending order.
func SetRange(t reflect.Type, chunk int) RangeBinding {
	schema.Check(IsSet(t) && SortableKey(t.Key()), "SetRange", "%v is not an ordered set", t)

	return RangeBinding{SizeClass: schema.SizeS64, Items: &hashRange{typ: t, item: t.Key(), chunk: max(chunk, 1), set: true}}
}

type hashRange struct {
	typ   reflect.Type
	item  reflect.Type
	chunk int
	set   bool
}

type hashCursor struct {
	entries []hashEntry
	buf     reflect.Value
}

// hashEntry holds a value next to its key since NaN keys cannot be looked
// up again.
type hashEntry struct {
	key, value reflect.Value
}

func compareKeys(a, b reflect.Value) int {
	switch {
	case a.CanInt():
		return cmp.Compare(a.Int(), b.Int())
	case a.CanUint():
		return cmp.Compare(a.Uint(), b.Uint())
	case a.CanFloat():
		return cmp.Compare(a.Float(), b.Float())
	case a.Kind() == reflect.Bool:
		return cmp.Compare(boolRank(a.Bool()), boolRank(b.Bool()))
	default:
		return cmp.Compare(a.String(), b.String())
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}

	return 0
}

func (h *hashRange) ReadItems(req *ItemsRequest) ItemsChunk {
	m := reflect.NewAt(h.typ, req.Range).Elem()
	total := uint64(m.Len())

	if req.NumRead >= total {
		return ItemsChunk{Total: total, Stride: h.item.Size()}
	}

	cur, _ := req.State.(*hashCursor)
	if cur == nil {
		entries := make([]hashEntry, 0, m.Len())
		for it := m.MapRange(); it.Next(); {
			entries = append(entries, hashEntry{key: it.Key(), value: it.Value()})
		}

		slices.SortFunc(entries, func(a, b hashEntry) int { return compareKeys(a.key, b.key) })

		cur = &hashCursor{entries: entries, buf: reflect.MakeSlice(reflect.SliceOf(h.item), h.chunk, h.chunk)}
		req.State = cur
	}

	n := min(total-req.NumRead, uint64(h.chunk))
	for i := range int(n) {
		e := cur.entries[req.NumRead+uint64(i)]
		slot := cur.buf.Index(i)

		if h.set {
			slot.Set(e.key)
			continue
		}

		slot.Field(0).Set(e.key)
		slot.Field(1).Set(e.value)
	}

	return ItemsChunk{Data: cur.buf.UnsafePointer(), Num: n, Total: total, Stride: h.item.Size()}
}

func (h *hashRange) LoadItems(dst unsafe.Pointer, num uint64, fill func(item unsafe.Pointer) error) error {
	v := reflect.NewAt(h.typ, dst).Elem()
	if num == 0 {
		v.SetZero()
		return nil
	}

	if num > math.MaxInt {
		return fmt.Errorf("%v with %d items: %w", h.typ, num, ErrRangeSize)
	}

	fresh := reflect.MakeMapWithSize(h.typ, int(num))
	empty := reflect.Zero(h.typ.Elem())

	for range num {
		tmp := reflect.New(h.item)
		if err := fill(tmp.UnsafePointer()); err != nil {
			return err
		}

		if h.set {
			fresh.SetMapIndex(tmp.Elem(), empty)
		} else {
			fresh.SetMapIndex(tmp.Elem().Field(0), tmp.Elem().Field(1))
		}
	}

	if uint64(fresh.Len()) != num {
		return fmt.Errorf("%v: %w", h.typ, ErrDuplicateKey)
	}

	v.Set(fresh)

	return nil
}
