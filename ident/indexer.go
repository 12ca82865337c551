package ident

import (
	"encoding/binary"
	"fmt"
	"slices"
)

// NestedScopeIndexer interns nested scopes.
type NestedScopeIndexer struct {
	index   map[NestedScope]uint32
	entries []NestedScope
}

// Index returns the nested scope id of s, interning it if needed.
func (x *NestedScopeIndexer) Index(s NestedScope) ScopeID {
	if idx, ok := x.index[s]; ok {
		return NestedScopeID(idx)
	}

	if x.index == nil {
		x.index = make(map[NestedScope]uint32)
	}

	idx := uint32(len(x.entries))
	x.index[s] = idx
	x.entries = append(x.entries, s)

	return NestedScopeID(idx)
}

// Find returns the nested scope id of s without interning it.
func (x *NestedScopeIndexer) Find(s NestedScope) (ScopeID, bool) {
	idx, ok := x.index[s]
	if !ok {
		return NoScope, false
	}

	return NestedScopeID(idx), true
}

// Resolve returns the nested scope with index idx.
func (x *NestedScopeIndexer) Resolve(idx uint32) NestedScope {
	if int(idx) >= len(x.entries) {
		panic(fmt.Sprintf("ident: nested scope %d out of range (%d)", idx, len(x.entries)))
	}

	return x.entries[idx]
}

// Num returns the number of interned nested scopes.
func (x *NestedScopeIndexer) Num() int {
	return len(x.entries)
}

// ParametricTypeIndexer interns parametric types by shape.
type ParametricTypeIndexer struct {
	index   map[string]uint32
	entries []ParametricType
}

func parametricKey(t ParametricType) string {
	buf := make([]byte, 0, 4+8*len(t.Parameters))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(t.Name))
	for _, p := range t.Parameters {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(p.Scope))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(p.Name))
	}

	return string(buf)
}

// Index returns the parametric typename id of t, interning it if needed.
func (x *ParametricTypeIndexer) Index(t ParametricType) TypenameID {
	key := parametricKey(t)
	if idx, ok := x.index[key]; ok {
		return ParametricTypename(idx)
	}

	if x.index == nil {
		x.index = make(map[string]uint32)
	}

	idx := uint32(len(x.entries))
	x.index[key] = idx
	x.entries = append(x.entries, ParametricType{Name: t.Name, Parameters: slices.Clone(t.Parameters)})

	return ParametricTypename(idx)
}

// Find returns the parametric typename id of t without interning it.
func (x *ParametricTypeIndexer) Find(t ParametricType) (TypenameID, bool) {
	idx, ok := x.index[parametricKey(t)]
	if !ok {
		return 0, false
	}

	return ParametricTypename(idx), true
}

// Resolve returns the parametric type with index idx.
// The returned parameter slice must not be modified.
func (x *ParametricTypeIndexer) Resolve(idx uint32) ParametricType {
	if int(idx) >= len(x.entries) {
		panic(fmt.Sprintf("ident: parametric type %d out of range (%d)", idx, len(x.entries)))
	}

	return x.entries[idx]
}

// Num returns the number of interned parametric types.
func (x *ParametricTypeIndexer) Num() int {
	return len(x.entries)
}

// typeIndexer assigns dense indexes to types.
type typeIndexer struct {
	index map[Type]uint32
	types []Type
}

func (x *typeIndexer) indexOf(t Type) uint32 {
	if idx, ok := x.index[t]; ok {
		return idx
	}

	if x.index == nil {
		x.index = make(map[Type]uint32)
	}

	idx := uint32(len(x.types))
	x.index[t] = idx
	x.types = append(x.types, t)

	return idx
}

func (x *typeIndexer) find(t Type) (uint32, bool) {
	idx, ok := x.index[t]
	return idx, ok
}

func (x *typeIndexer) resolve(idx uint32, what string) Type {
	if int(idx) >= len(x.types) {
		panic(fmt.Sprintf("ident: %s id %d out of range (%d)", what, idx, len(x.types)))
	}

	return x.types[idx]
}
