package engine

import (
	"reflect"
	"unsafe"

	"plainprops/bind"
	"plainprops/built"
	"plainprops/ident"
	"plainprops/schema"
)

// member is one grabbed member of any kind.
type member struct {
	kind   schema.MemberKind
	name   ident.NameID
	leaf   bind.LeafMember
	strct  bind.StructMember
	rng    bind.RangeMember
	offset uintptr
}

func (m *member) typ() schema.MemberType {
	switch m.kind {
	case schema.KindLeaf:
		return m.leaf.Type
	case schema.KindStruct:
		return m.strct.Type
	default:
		return schema.RangeType{SizeClass: m.rng.Ranges[0].SizeClass}
	}
}

// walk grabs every member of b in order, super first.
func walk(b *bind.SchemaBinding, decl *schema.StructDeclaration, fn func(m *member) bool) bool {
	cur := b.Cursor()

	if b.HasSuper() {
		sm := cur.GrabSuper()
		if !fn(&member{kind: schema.KindStruct, name: ident.NoName, strct: sm, offset: sm.Offset}) {
			return false
		}
	}

	for i := 0; cur.HasMore(); i++ {
		m := member{kind: cur.PeekKind(), name: decl.Names[i]}

		switch m.kind {
		case schema.KindLeaf:
			m.leaf = cur.GrabLeaf()
			m.offset = m.leaf.Offset
		case schema.KindStruct:
			m.strct = cur.GrabStruct()
			m.offset = m.strct.Offset
		default:
			m.rng = cur.GrabRange()
			m.offset = m.rng.Offset
		}

		if !fn(&m) {
			return false
		}
	}

	return true
}

func readLeaf(p unsafe.Pointer, t schema.MemberType) uint64 {
	switch t := t.(type) {
	case schema.BitfieldType:
		return uint64(*(*byte)(p)>>t.Bit) & 1
	case schema.LeafType:
		if t.Category == schema.LeafBool {
			if *(*byte)(p) != 0 {
				return 1
			}

			return 0
		}

		return built.ReadLeaf(unsafe.Slice((*byte)(p), t.Width.Bytes()), t.Width)
	default:
		schema.Violation("readLeaf", "%s is not a leaf", t)
		return 0
	}
}

func writeLeaf(p unsafe.Pointer, t schema.MemberType, v uint64) {
	switch t := t.(type) {
	case schema.BitfieldType:
		if v != 0 {
			*(*byte)(p) |= 1 << t.Bit
		} else {
			*(*byte)(p) &^= 1 << t.Bit
		}
	case schema.LeafType:
		if t.Category == schema.LeafBool && v != 0 {
			v = 1
		}

		built.WriteLeaf(unsafe.Slice((*byte)(p), t.Width.Bytes()), t.Width, v)
	default:
		schema.Violation("writeLeaf", "%s is not a leaf", t)
	}
}

// dynamicField returns the interface type of the dynamic member at offset.
func dynamicField(owner reflect.Type, offset uintptr) reflect.Type {
	for i := range owner.NumField() {
		f := owner.Field(i)
		if f.Offset == offset && f.Type.Kind() == reflect.Interface {
			return f.Type
		}
	}

	schema.Violation("dynamicField", "%v has no interface field at offset %d", owner, offset)

	return nil
}

// dynamicTarget returns the bound id and address of the struct the dynamic
// member at offset within p points at, or ok=false for a nil interface.
func (c *Context) dynamicTarget(owner *bind.SchemaBinding, p unsafe.Pointer, offset uintptr) (ident.BindID, unsafe.Pointer, bool) {
	v := reflect.NewAt(dynamicField(owner.Type(), offset), unsafe.Add(p, offset)).Elem()
	if v.IsNil() {
		return ident.NoBind, nil, false
	}

	concrete := v.Elem()
	schema.Check(concrete.Kind() == reflect.Pointer && !concrete.IsNil(), "dynamic member",
		"%v holds %v, want a non-nil pointer to a bound struct", owner.Type(), concrete.Type())

	id, ok := c.Bindings.Lookup(concrete.Type().Elem())
	schema.Check(ok, "dynamic member", "%v holds unbound type %v", owner.Type(), concrete.Type())

	return id, concrete.UnsafePointer(), true
}

func checkSize(n uint64, class schema.RangeSizeClass) {
	schema.Check(n <= class.Max(), "range", "%d items exceed size class %s", n, class)
}
