package engine_test

import (
	"reflect"
	"testing"
	"time"
	"unsafe"

	"plainprops/bind"
	"plainprops/engine"
	"plainprops/ident"
	"plainprops/schema"
)

type pair struct {
	A, B int32
}

type base struct {
	ID    uint16
	Ratio float32
}

type derived struct {
	base

	Flags  uint8
	Tags   []string
	Grid   [][]int16
	Points map[int32]pair
	Ptr    *pair
	Nested pair
}

// derivedChunked shares derived's declaration through a lowered binding that
// pulls Points two entries at a time.
type derivedChunked derived

type level uint8

type event struct {
	At    time.Time
	Count int32
	Level level
}

type holder struct {
	Weight uint8
	Shape  any
}

type tiny struct {
	Bytes []uint8
}

type journal struct {
	Levels []level
}

var (
	i32     = schema.LeafType{Category: schema.LeafSignedInt, Width: schema.B32}
	i16     = schema.LeafType{Category: schema.LeafSignedInt, Width: schema.B16}
	u16     = schema.LeafType{Category: schema.LeafUnsignedInt, Width: schema.B16}
	u8      = schema.LeafType{Category: schema.LeafUnsignedInt, Width: schema.B8}
	f32     = schema.LeafType{Category: schema.LeafFloat, Width: schema.B32}
	enum8   = schema.LeafType{Category: schema.LeafEnum, Width: schema.B8}
	unicode = schema.LeafType{Category: schema.LeafUnicode, Width: schema.B8}
)

type world struct {
	ids      *ident.Ids
	decls    *schema.Declarations
	bindings *bind.Bindings
	customs  *engine.CustomBindings
	ctx      *engine.Context

	pair, base, kv, derived, chunked, time, event, holder, tiny, journal ident.BindID

	timeDecl ident.DeclID
	level    ident.EnumID
}

func (w *world) name(s string) ident.NameID {
	return w.ids.MakeName(s)
}

func (w *world) declare(name string, occ schema.Occupancy, super ident.DeclID, members ...string) ident.DeclID {
	typ := w.ids.MakeType(w.ids.MakeScope("enginetest"), name)
	id := ident.DeclID(w.ids.IndexStruct(typ))

	names := make([]ident.NameID, len(members))
	for i, m := range members {
		names[i] = w.name(m)
	}

	w.decls.DeclareStruct(id, typ, names, occ, super)

	return id
}

func (w *world) bindAs(name string, decl ident.DeclID, typ reflect.Type, members ...bind.MemberBinding) ident.BindID {
	id := ident.BindID(w.ids.IndexStruct(w.ids.MakeType(w.ids.MakeScope("enginetest"), name)))
	w.bindings.BindStruct(id, decl, members, typ)

	return id
}

func leaf(off uintptr, t schema.MemberType) bind.MemberBinding {
	return bind.MemberBinding{Offset: off, Type: t}
}

func nested(off uintptr, id ident.BindID, t schema.StructType) bind.MemberBinding {
	return bind.MemberBinding{Offset: off, Type: t, InnerSchema: uint32(id), HasInnerSchema: true}
}

func ranged(off uintptr, innermost schema.MemberType, schemaID *ident.BindID, ranges ...bind.RangeBinding) bind.MemberBinding {
	m := bind.MemberBinding{
		Offset:    off,
		Type:      schema.RangeType{SizeClass: ranges[0].SizeClass},
		Innermost: innermost,
		Ranges:    ranges,
	}

	if schemaID != nil {
		m.InnerSchema, m.HasInnerSchema = uint32(*schemaID), true
	}

	return m
}

func derivedMembers(w *world, chunk int) []bind.MemberBinding {
	var d derived

	return []bind.MemberBinding{
		nested(unsafe.Offsetof(d.base), w.base, schema.StructType{IsSuper: true}),
		leaf(unsafe.Offsetof(d.Flags), schema.BitfieldType{Bit: 0}),
		leaf(unsafe.Offsetof(d.Flags), schema.BitfieldType{Bit: 3}),
		ranged(unsafe.Offsetof(d.Tags), unicode, nil,
			bind.SliceRange(reflect.TypeFor[[]string]()), bind.StringRange(reflect.TypeFor[string]())),
		ranged(unsafe.Offsetof(d.Grid), i16, nil,
			bind.SliceRange(reflect.TypeFor[[][]int16]()), bind.SliceRange(reflect.TypeFor[[]int16]())),
		ranged(unsafe.Offsetof(d.Points), schema.StructType{}, &w.kv,
			bind.MapRange(reflect.TypeFor[map[int32]pair](), chunk)),
		ranged(unsafe.Offsetof(d.Ptr), schema.StructType{}, &w.pair,
			bind.PointerRange(reflect.TypeFor[*pair]())),
		nested(unsafe.Offsetof(d.Nested), w.pair, schema.StructType{}),
	}
}

func newWorld(t *testing.T) *world {
	t.Helper()

	w := &world{ids: ident.NewIds()}
	w.decls = schema.NewDeclarations(w.ids)
	w.bindings = bind.NewBindings(w.decls)
	w.customs = engine.NewCustomBindings()
	w.ctx = engine.NewContext(w.bindings, w.customs)

	var (
		p pair
		b base
		e event
		h holder
	)

	pairDecl := w.declare("Pair", schema.AllowSparse, ident.NoDecl, "A", "B")
	w.pair = w.bindAs("Pair", pairDecl, reflect.TypeFor[pair](),
		leaf(unsafe.Offsetof(p.A), i32), leaf(unsafe.Offsetof(p.B), i32))

	baseDecl := w.declare("Base", schema.RequireAll, ident.NoDecl, "ID", "Ratio")
	w.base = w.bindAs("Base", baseDecl, reflect.TypeFor[base](),
		leaf(unsafe.Offsetof(b.ID), u16), leaf(unsafe.Offsetof(b.Ratio), f32))

	kvType := bind.PairType(reflect.TypeFor[map[int32]pair]())
	kvDecl := w.declare("PointEntry", schema.RequireAll, ident.NoDecl, "Key", "Value")
	w.kv = w.bindAs("PointEntry", kvDecl, kvType,
		leaf(kvType.Field(0).Offset, i32), nested(kvType.Field(1).Offset, w.pair, schema.StructType{}))

	derivedDecl := w.declare("Derived", schema.AllowSparse, baseDecl,
		"Visible", "Locked", "Tags", "Grid", "Points", "Ptr", "Nested")
	w.derived = w.bindAs("Derived", derivedDecl, reflect.TypeFor[derived](), derivedMembers(w, bind.DefaultChunk)...)
	w.chunked = w.bindAs("DerivedChunked", derivedDecl, reflect.TypeFor[derivedChunked](), derivedMembers(w, 2)...)

	w.timeDecl = w.declare("Time", schema.RequireAll, ident.NoDecl, "Unix", "Nano")
	w.time = w.timeDecl.Bind()
	w.bindings.BindCustom(w.time, w.timeDecl, reflect.TypeFor[time.Time]())
	w.customs.Bind(w.time, w.timeDecl, engine.NewTimeBinding(w.timeDecl, engine.TimeNames{
		Unix: w.name("Unix"),
		Nano: w.name("Nano"),
	}))

	levelType := w.ids.MakeType(w.ids.MakeScope("enginetest"), "Level")
	w.level = w.ids.IndexEnum(levelType)
	_, err := w.decls.DeclareEnum(w.level, levelType, schema.Flat, schema.B8, []schema.Enumerator{
		{Name: w.name("Debug"), Constant: 0},
		{Name: w.name("Info"), Constant: 1},
	}, schema.AliasFail)
	if err != nil {
		t.Fatal(err)
	}

	eventDecl := w.declare("Event", schema.RequireAll, ident.NoDecl, "At", "Count", "Level")
	w.event = w.bindAs("Event", eventDecl, reflect.TypeFor[event](),
		nested(unsafe.Offsetof(e.At), w.time, schema.StructType{}),
		leaf(unsafe.Offsetof(e.Count), i32),
		bind.MemberBinding{Offset: unsafe.Offsetof(e.Level), Type: enum8, InnerSchema: uint32(w.level), HasInnerSchema: true})

	holderDecl := w.declare("Holder", schema.AllowSparse, ident.NoDecl, "Shape", "Weight")
	w.holder = w.bindAs("Holder", holderDecl, reflect.TypeFor[holder](),
		bind.MemberBinding{Offset: unsafe.Offsetof(h.Shape), Type: schema.StructType{Dynamic: true}},
		leaf(unsafe.Offsetof(h.Weight), u8))

	tinyDecl := w.declare("Tiny", schema.RequireAll, ident.NoDecl, "Bytes")
	w.tiny = w.bindAs("Tiny", tinyDecl, reflect.TypeFor[tiny](),
		ranged(0, u8, nil, bind.RangeBinding{
			SizeClass: schema.SizeS8,
			Leaves:    bind.SliceRange(reflect.TypeFor[[]uint8]()).Leaves,
		}))

	journalDecl := w.declare("Journal", schema.AllowSparse, ident.NoDecl, "Levels")
	w.journal = w.bindAs("Journal", journalDecl, reflect.TypeFor[journal](), bind.MemberBinding{
		Type:           schema.RangeType{SizeClass: schema.SizeS64},
		Innermost:      enum8,
		Ranges:         []bind.RangeBinding{bind.SliceRange(reflect.TypeFor[[]level]())},
		InnerSchema:    uint32(w.level),
		HasInnerSchema: true,
	})

	return w
}

func sample() derived {
	return derived{
		base:   base{ID: 7, Ratio: 0.5},
		Flags:  1<<0 | 1<<3,
		Tags:   []string{"red", "", "blue"},
		Grid:   [][]int16{{1, 2}, {3}, nil},
		Points: map[int32]pair{1: {1, 2}, 2: {3, 4}, 3: {5, 6}, 9: {7, 8}, 4: {}},
		Ptr:    &pair{A: 9},
		Nested: pair{A: 1, B: 2},
	}
}
