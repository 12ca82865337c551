package engine

import (
	"unsafe"

	"github.com/golang/glog"

	"plainprops/built"
	"plainprops/ident"
	"plainprops/schema"
)

// CustomBinding replaces member walking for one bound type.
type CustomBinding interface {
	// SaveCustom saves src. def is nil for full saves and the default value
	// for delta saves, in which case only members differing from def need to
	// be saved.
	SaveCustom(src, def unsafe.Pointer, ctx *Context) *built.Struct
	LoadCustom(dst unsafe.Pointer, src *built.Struct, ctx *Context) error
	DiffCustom(a, b unsafe.Pointer, ctx *Context) bool
}

// CustomFuncs adapts typed functions to CustomBinding.
type CustomFuncs[T any] struct {
	Save func(src, def *T, ctx *Context) *built.Struct
	Load func(dst *T, src *built.Struct, ctx *Context) error
	Diff func(a, b *T, ctx *Context) bool
}

func (f CustomFuncs[T]) SaveCustom(src, def unsafe.Pointer, ctx *Context) *built.Struct {
	return f.Save((*T)(src), (*T)(def), ctx)
}

func (f CustomFuncs[T]) LoadCustom(dst unsafe.Pointer, src *built.Struct, ctx *Context) error {
	return f.Load((*T)(dst), src, ctx)
}

func (f CustomFuncs[T]) DiffCustom(a, b unsafe.Pointer, ctx *Context) bool {
	return f.Diff((*T)(a), (*T)(b), ctx)
}

// CustomEntry is a registered custom binding.
type CustomEntry struct {
	Binding CustomBinding
	Decl    ident.DeclID
	// Inner lists the bound structs whose schemas the binding's saved values
	// reference.
	Inner []ident.BindID
}

// CustomBindings maps bound ids to custom bindings. A window of the lowest
// bound id and the id span rejects most misses without a map lookup.
//
// An overlay shadows its base: lookups try the overlay first and fall back
// to the base, which is never copied or modified.
type CustomBindings struct {
	base    *CustomBindings
	entries map[ident.BindID]*CustomEntry
	minID   ident.BindID
	span    uint32
}

// NewCustomBindings returns an empty registry.
func NewCustomBindings() *CustomBindings {
	return &CustomBindings{entries: make(map[ident.BindID]*CustomEntry)}
}

// Overlay returns an empty registry shadowing c.
func (c *CustomBindings) Overlay() *CustomBindings {
	o := NewCustomBindings()
	o.base = c

	return o
}

// Bind registers binding for id. Binding an id twice panics.
func (c *CustomBindings) Bind(id ident.BindID, decl ident.DeclID, binding CustomBinding, inner ...ident.BindID) {
	_, dup := c.entries[id]
	schema.Check(!dup, "CustomBindings.Bind", "custom binding %d registered twice", id)

	c.entries[id] = &CustomEntry{Binding: binding, Decl: decl, Inner: inner}

	switch {
	case c.span == 0:
		c.minID, c.span = id, 1
	case id < c.minID:
		c.span += uint32(c.minID - id)
		c.minID = id
	case uint32(id-c.minID) >= c.span:
		c.span = uint32(id-c.minID) + 1
	}

	glog.V(1).Infof("plainprops: custom binding for %d (decl %d)", id, decl)
}

// Drop unregisters id. The window is not shrunk.
func (c *CustomBindings) Drop(id ident.BindID) {
	_, ok := c.entries[id]
	schema.Check(ok, "CustomBindings.Drop", "no custom binding %d", id)

	delete(c.entries, id)
}

// Find returns the custom binding of id, searching overlays outermost first.
func (c *CustomBindings) Find(id ident.BindID) (*CustomEntry, bool) {
	for r := c; r != nil; r = r.base {
		if !r.covers(id) {
			continue
		}

		if e, ok := r.entries[id]; ok {
			return e, true
		}
	}

	return nil, false
}

// covers reports whether id falls inside the window of bound ids.
func (c *CustomBindings) covers(id ident.BindID) bool {
	return uint32(id-c.minID) < c.span
}

// Len returns the number of bindings visible through c.
func (c *CustomBindings) Len() int {
	n := 0

	for r := c; r != nil; r = r.base {
		n += len(r.entries)
	}

	return n
}
