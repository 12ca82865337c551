package plainprops

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"

	"github.com/golang/glog"

	"plainprops/bind"
	"plainprops/ident"
	"plainprops/internal/analyze"
	"plainprops/node"
	"plainprops/primitive"
	"plainprops/schema"
)

// Handle keeps the declarations and bindings acquired by one Register call
// alive. Registering a type again acquires them again; they are dropped when
// every handle is released.
type Handle struct {
	r        *Registry
	typ      reflect.Type
	id       ident.BindID
	decl     ident.DeclID
	acquired []acquisition
	released bool
}

type acquisition struct {
	bind ident.BindID
	decl ident.DeclID
}

// ID returns the bound id of the registered type.
func (h *Handle) ID() ident.BindID { return h.id }

// Decl returns the declaration the registered type lowers to.
func (h *Handle) Decl() ident.DeclID { return h.decl }

// Type returns the registered type.
func (h *Handle) Type() reflect.Type { return h.typ }

// Release drops the references acquired by Register, most recent first.
// Releasing twice panics.
func (h *Handle) Release() {
	schema.Check(!h.released, "Handle.Release", "%v released twice", h.typ)
	h.released = true

	h.r.release(h.acquired)

	glog.V(1).Infof("plainprops: released %v", h.typ)
}

func (r *Registry) release(acquired []acquisition) {
	for i := len(acquired) - 1; i >= 0; i-- {
		r.Bindings.DropStruct(acquired[i].bind)
		r.Declarations.DropStructRef(acquired[i].decl)
	}
}

// Register declares and binds struct type T and every struct type its
// fields reach. See package analyze for the pp field tag.
//
// Fields persist as:
//   - bools and numbers: leaves; registered enum types: enum leaves
//   - a leading embedded struct: the super
//   - structs: nested structs; time.Time: a custom binding
//   - interfaces: dynamic structs, holding a pointer to a registered struct
//   - strings, slices, arrays, pointers, maps and sets: ranges, nested as
//     deep as the Go type
func Register[T any](r *Registry, opts ...Option) (*Handle, error) {
	return r.Register(reflect.TypeFor[T](), opts...)
}

// Register is the reflect.Type form of the generic Register.
func (r *Registry) Register(t reflect.Type, opts ...Option) (*Handle, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%v: %w", t, ErrUnsupportedType)
	}

	b := &binder{
		r:       r,
		cfg:     newRegisterConfig(opts),
		root:    t,
		seen:    make(map[reflect.Type]ident.BindID),
		pending: make(map[reflect.Type]ident.BindID),
	}

	id, err := b.bindStruct(t, analyze.NewTypePath(t.Name()), false)
	if err != nil {
		r.release(b.acquired)
		return nil, err
	}

	h := &Handle{r: r, typ: t, id: id, decl: r.Bindings.Lower(id), acquired: b.acquired}

	glog.V(1).Infof("plainprops: registered %v as %s (%d)", t, r.TypeName(id), id)

	return h, nil
}

// binder binds the types reached by one Register call, each once.
type binder struct {
	r        *Registry
	cfg      registerConfig
	root     reflect.Type
	seen     map[reflect.Type]ident.BindID
	pending  map[reflect.Type]ident.BindID
	stack    []reflect.Type
	acquired []acquisition
}

func (b *binder) unsupported(path *analyze.TypePath, t reflect.Type, why string) error {
	return fmt.Errorf("%s: %v %s: %w", path, t, why, ErrUnsupportedType)
}

// bindStruct binds t once per call. item allows t to be an item of its own
// ranges.
func (b *binder) bindStruct(t reflect.Type, path *analyze.TypePath, item bool) (ident.BindID, error) {
	if id, ok := b.seen[t]; ok {
		return id, nil
	}

	if id, ok := b.pending[t]; ok {
		if item && b.stack[len(b.stack)-1] == t {
			return id, nil
		}

		return ident.NoBind, fmt.Errorf("%s: %v: %w", path, t, ErrRecursiveType)
	}

	if id, ok := b.r.Bindings.Lookup(t); ok && b.r.Bindings.Get(id).IsCustom() {
		return id, nil
	}

	if t.Kind() != reflect.Struct {
		return ident.NoBind, b.unsupported(path, t, "is not a struct")
	}

	isRoot := t == b.root

	typ := b.r.typeIdent(t)
	if isRoot && b.cfg.typeName != "" {
		typ = b.r.Ids.MakeType(typ.Scope, b.cfg.typeName)
	}

	id := ident.BindID(b.r.Ids.IndexStruct(typ))

	b.pending[t] = id
	b.stack = append(b.stack, t)

	defer func() {
		delete(b.pending, t)
		b.stack = b.stack[:len(b.stack)-1]
	}()

	members, names, super, err := b.members(t, path, isRoot)
	if err != nil {
		return ident.NoBind, err
	}

	declID, declType, occ := ident.DeclID(id), typ, schema.AllowSparse

	switch {
	case isRoot && b.cfg.lowerTo != nil:
		d := b.r.Declarations.Get(b.cfg.lowerTo.decl)
		if !slices.Equal(d.Names, names) || d.Super != super {
			return ident.NoBind, b.unsupported(path, t, "does not match the members of "+b.cfg.lowerTo.typ.String())
		}

		declID, declType, occ = d.ID, d.Type, d.Occupancy
	case isRoot:
		occ = b.cfg.occupancy
		if d := b.r.Declarations.Find(declID); d != nil && d.Occupancy != occ {
			return ident.NoBind, b.unsupported(path, t, "is already declared "+d.Occupancy.String())
		}
	default:
		if d := b.r.Declarations.Find(declID); d != nil {
			occ = d.Occupancy
		}
	}

	if d := b.r.Declarations.Find(declID); d != nil && (!slices.Equal(d.Names, names) || d.Super != super) {
		return ident.NoBind, b.unsupported(path, t, "conflicts with the members it is already declared with")
	}

	b.r.Declarations.DeclareStruct(declID, declType, names, occ, super)
	b.r.Bindings.BindStruct(id, declID, members, t)

	b.acquired = append(b.acquired, acquisition{bind: id, decl: declID})
	b.seen[t] = id

	return id, nil
}

func (b *binder) members(t reflect.Type, path *analyze.TypePath, isRoot bool) (
	[]bind.MemberBinding, []ident.NameID, ident.DeclID, error,
) {
	fields, err := analyze.Fields(t)
	if err != nil {
		return nil, nil, ident.NoDecl, err
	}

	var (
		members []bind.MemberBinding
		names   []ident.NameID
	)

	super := ident.NoDecl

	for i, f := range fields {
		fp := path.Field(f.Name)

		if i == 0 && f.Index == 0 && f.Embedded && f.Type.Kind() == reflect.Struct && !(isRoot && b.cfg.superAsMember) {
			id, err := b.bindStruct(f.Type, fp, false)
			if err != nil {
				return nil, nil, ident.NoDecl, err
			}

			if !b.r.Bindings.Get(id).IsCustom() {
				super = b.r.Bindings.Lower(id)
				members = append(members, bind.MemberBinding{
					Offset:         f.Offset,
					Type:           schema.StructType{IsSuper: true},
					InnerSchema:    uint32(id),
					HasInnerSchema: true,
				})

				continue
			}
		}

		if f.Options.Bits != nil {
			for bit, name := range f.Options.Bits {
				if name == "" {
					continue
				}

				members = append(members, bind.MemberBinding{Offset: f.Offset, Type: schema.BitfieldType{Bit: uint8(bit)}})
				names = append(names, b.r.Ids.MakeName(name))
			}

			continue
		}

		m, err := b.member(f, fp, isRoot)
		if err != nil {
			return nil, nil, ident.NoDecl, err
		}

		members = append(members, m)
		names = append(names, b.r.Ids.MakeName(f.Name))
	}

	return members, names, super, nil
}

func (b *binder) member(f analyze.FieldInfo, path *analyze.TypePath, isRoot bool) (bind.MemberBinding, error) {
	m := bind.MemberBinding{Offset: f.Offset}

	switch node.Dispatch(f.Type) {
	case node.ShapeLeaf:
		t, enum, hasEnum, err := b.leaf(f.Type, f.Options, path)
		if err != nil {
			return m, err
		}

		m.Type = t
		m.InnerSchema, m.HasInnerSchema = uint32(enum), hasEnum
	case node.ShapeDynamic:
		m.Type = schema.StructType{Dynamic: true}
	case node.ShapeStruct:
		id, err := b.bindStruct(f.Type, path, false)
		if err != nil {
			return m, err
		}

		m.Type = schema.StructType{}
		m.InnerSchema, m.HasInnerSchema = uint32(id), true
	case node.ShapeRange:
		return b.rangeMember(f, path, isRoot)
	default:
		return m, b.unsupported(path, f.Type, "has no persisted shape")
	}

	return m, nil
}

func (b *binder) leaf(t reflect.Type, opts analyze.TagOptions, path *analyze.TypePath) (
	schema.MemberType, ident.EnumID, bool, error,
) {
	if id, ok := b.r.enums[t]; ok {
		if opts.Hex || opts.Unicode {
			return nil, 0, false, b.unsupported(path, t, "is an enum and cannot be hex or unicode")
		}

		return schema.LeafType{Category: schema.LeafEnum, Width: schema.WidthOf(t.Size())}, id, true, nil
	}

	lt, ok := primitive.LeafOf(t)
	if !ok {
		return nil, 0, false, b.unsupported(path, t, "is not a leaf")
	}

	integer := lt.Category == schema.LeafSignedInt || lt.Category == schema.LeafUnsignedInt

	switch {
	case opts.Hex && !integer:
		return nil, 0, false, b.unsupported(path, t, "cannot be hex")
	case opts.Hex:
		lt.Category = schema.LeafHex
	case opts.Unicode && (!integer || lt.Width == schema.B64):
		return nil, 0, false, b.unsupported(path, t, "cannot be unicode")
	case opts.Unicode:
		lt.Category = schema.LeafUnicode
	}

	return lt, 0, false, nil
}

func (b *binder) rangeMember(f analyze.FieldInfo, path *analyze.TypePath, isRoot bool) (bind.MemberBinding, error) {
	chunk := bind.DefaultChunk
	if isRoot {
		chunk = b.cfg.mapChunk
	}

	var (
		ranges []bind.RangeBinding
		last   node.RangeKind
	)

	cur := f.Type

	for node.Dispatch(cur) == node.ShapeRange {
		last = node.RangeOf(cur)

		if (last == node.RangeMap || last == node.RangeSet) && !bind.SortableKey(cur.Key()) {
			return bind.MemberBinding{}, b.unsupported(path, cur, "has unordered keys")
		}

		ranges = append(ranges, rangeBinding(cur, last, chunk))
		cur = node.ItemType(cur)
		path = path.Items()
	}

	m := bind.MemberBinding{
		Offset: f.Offset,
		Type:   schema.RangeType{SizeClass: ranges[0].SizeClass},
		Ranges: ranges,
	}

	if last == node.RangeString {
		m.Innermost = schema.LeafType{Category: schema.LeafUnicode, Width: schema.B8}
		return m, nil
	}

	switch node.Dispatch(cur) {
	case node.ShapeLeaf:
		t, enum, hasEnum, err := b.leaf(cur, f.Options, path)
		if err != nil {
			return m, err
		}

		m.Innermost = t
		m.InnerSchema, m.HasInnerSchema = uint32(enum), hasEnum
	case node.ShapeStruct:
		id, err := b.bindStruct(cur, path, true)
		if err != nil {
			return m, err
		}

		m.Innermost = schema.StructType{}
		m.InnerSchema, m.HasInnerSchema = uint32(id), true
	case node.ShapeDynamic:
		return m, b.unsupported(path, cur, "items cannot be dynamic")
	default:
		return m, b.unsupported(path, cur, "has no persisted shape")
	}

	return m, nil
}

func rangeBinding(t reflect.Type, kind node.RangeKind, chunk int) bind.RangeBinding {
	switch kind {
	case node.RangeString:
		return bind.StringRange(t)
	case node.RangeSlice:
		return bind.SliceRange(t)
	case node.RangeArray:
		return bind.ArrayRange(t)
	case node.RangePointer:
		return bind.PointerRange(t)
	case node.RangeMap:
		return bind.MapRange(t, chunk)
	default:
		return bind.SetRange(t, chunk)
	}
}

// typeIdent names t: named types by package path scope and name, map
// entries as plainprops.Pair<K,V>, other unnamed containers as parametric
// types over their items.
func (r *Registry) typeIdent(t reflect.Type) ident.Type {
	id := analyze.IDOf(t)
	if id.IsNamed() {
		return r.Ids.MakeType(r.Ids.MakeScopePath(id.Scope()...), id.Name)
	}

	switch t.Kind() {
	case reflect.Struct:
		if t.NumField() == 2 && t.Field(0).Name == "Key" && t.Field(1).Name == "Value" {
			return r.parametric("Pair", t.Field(0).Type, t.Field(1).Type)
		}
	case reflect.Slice:
		return r.parametric("Slice", t.Elem())
	case reflect.Array:
		return r.parametric("Array"+strconv.Itoa(t.Len()), t.Elem())
	case reflect.Pointer:
		return r.parametric("Ptr", t.Elem())
	case reflect.Map:
		return r.parametric("Map", t.Key(), t.Elem())
	}

	return r.Ids.MakeType(ident.NoScope, t.String())
}

func (r *Registry) parametric(name string, params ...reflect.Type) ident.Type {
	base := r.Ids.MakeType(r.Ids.MakeScope("plainprops"), name)

	types := make([]ident.Type, len(params))
	for i, p := range params {
		types[i] = r.typeIdent(p)
	}

	return r.Ids.MakeParametricType(base, types)
}
