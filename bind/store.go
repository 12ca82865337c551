package bind

import (
	"bytes"
	"reflect"

	"github.com/golang/glog"

	"plainprops/ident"
	"plainprops/schema"
)

// Bindings stores one SchemaBinding per bound id. It is read-only for the
// engines; mutation must happen before any concurrent reader starts.
type Bindings struct {
	decls   *schema.Declarations
	schemas []*SchemaBinding
	byType  map[reflect.Type]ident.BindID
}

// NewBindings creates an empty store validating against decls.
func NewBindings(decls *schema.Declarations) *Bindings {
	return &Bindings{decls: decls, byType: make(map[reflect.Type]ident.BindID)}
}

// Declarations returns the declaration store bindings are validated against.
func (b *Bindings) Declarations() *schema.Declarations {
	return b.decls
}

// BindStruct binds id to the declaration decl. Rebinding an id with an
// identical layout adds a reference; anything else panics.
func (b *Bindings) BindStruct(id ident.BindID, decl ident.DeclID, members []MemberBinding, typ reflect.Type) *SchemaBinding {
	const op = "BindStruct"

	schema.Check(id != ident.NoBind, op, "invalid bind id")
	schema.Check(typ != nil && typ.Kind() == reflect.Struct, op, "bound type %v is not a struct", typ)

	d := b.decls.Get(decl)
	schema.Check(len(members) == d.NumMembers(), op, "%v binds %d members, declaration has %d",
		typ, len(members), d.NumMembers())

	for i, m := range members {
		b.validateMember(id, typ, d, i, m)
	}

	binding := encodeFooter(decl, members, typ)

	if existing := b.Find(id); existing != nil {
		schema.Check(existing.typ == typ && bytes.Equal(existing.footer, binding.footer), op,
			"%v rebound with a different layout", typ)
		existing.refs++

		return existing
	}

	if other, ok := b.byType[typ]; ok {
		schema.Violation(op, "%v is already bound as %d", typ, other)
	}

	b.schemas = growTo(b.schemas, int(id)+1)
	b.schemas[id] = binding
	b.byType[typ] = id

	glog.V(2).Infof("plainprops: bound %v as %d (decl %d, %d members, %d byte footer)",
		typ, id, decl, len(members), binding.Size())

	return binding
}

func (b *Bindings) validateMember(id ident.BindID, typ reflect.Type, d *schema.StructDeclaration, i int, m MemberBinding) {
	const op = "BindStruct"

	schema.Check(m.Type != nil, op, "%v member %d has no type", typ, i)

	switch t := m.Type.(type) {
	case schema.LeafType:
		t.Validate()
		schema.Check(m.Offset+uintptr(t.Width.Bytes()) <= typ.Size(), op,
			"%v member %d at offset %d overflows the type", typ, i, m.Offset)
		schema.Check(m.HasInnerSchema == (t.Category == schema.LeafEnum), op,
			"%v member %d enum schema mismatch", typ, i)
	case schema.BitfieldType:
		schema.Check(m.Offset < typ.Size(), op, "%v member %d at offset %d overflows the type", typ, i, m.Offset)
		schema.Check(!m.HasInnerSchema, op, "%v member %d is a bitfield with a schema", typ, i)
	case schema.StructType:
		schema.Check(!t.IsSuper || i == 0, op, "%v member %d is a super but not first", typ, i)
		schema.Check(m.HasInnerSchema == !t.Dynamic, op, "%v member %d struct schema mismatch", typ, i)

		size := reflect.TypeFor[any]().Size()
		if !t.Dynamic {
			size = b.Get(ident.BindID(m.InnerSchema)).typ.Size()
		}

		schema.Check(m.Offset+size <= typ.Size(), op, "%v member %d at offset %d overflows the type", typ, i, m.Offset)
	case schema.RangeType:
		b.validateRange(id, typ, i, t, m)
	}

	if i == 0 && d.HasSuper() {
		st, ok := m.Type.(schema.StructType)
		schema.Check(ok && st.IsSuper, op, "%v must bind its super first", typ)
		schema.Check(b.Lower(ident.BindID(m.InnerSchema)) == d.Super, op,
			"%v super binding does not lower to the declared super", typ)
	} else if st, ok := m.Type.(schema.StructType); ok && st.IsSuper {
		schema.Violation(op, "%v binds a super its declaration lacks", typ)
	}
}

func (b *Bindings) validateRange(id ident.BindID, typ reflect.Type, i int, t schema.RangeType, m MemberBinding) {
	const op = "BindStruct"

	schema.Check(len(m.Ranges) > 0, op, "%v member %d is a range without bindings", typ, i)
	schema.Check(t.SizeClass == m.Ranges[0].SizeClass, op, "%v member %d size class mismatch", typ, i)
	schema.Check(m.Offset < typ.Size(), op, "%v member %d at offset %d overflows the type", typ, i, m.Offset)
	schema.Check(m.Innermost != nil && m.Innermost.Kind() != schema.KindRange, op,
		"%v member %d innermost type must not be a range", typ, i)

	_, isBitfield := m.Innermost.(schema.BitfieldType)
	schema.Check(!isBitfield, op, "%v member %d ranges of bitfields are not supported", typ, i)

	for level, r := range m.Ranges {
		schema.Check((r.Items == nil) != (r.Leaves == nil), op,
			"%v member %d level %d needs exactly one of item and leaf bindings", typ, i, level)

		if r.Leaves != nil {
			schema.Check(level == len(m.Ranges)-1 && m.Innermost.Kind() == schema.KindLeaf, op,
				"%v member %d leaf binding at non-leaf level %d", typ, i, level)
		}
	}

	if leaf, ok := m.Innermost.(schema.LeafType); ok {
		leaf.Validate()
	}

	schema.Check(m.HasInnerSchema == needsInnerSchema(m.Innermost), op, "%v member %d item schema mismatch", typ, i)

	if st, ok := m.Innermost.(schema.StructType); ok {
		schema.Check(!st.Dynamic && !st.IsSuper, op, "%v member %d ranges of dynamic structs are not supported", typ, i)

		// Items may be the struct being bound.
		if item := ident.BindID(m.InnerSchema); item != id {
			b.Get(item)
		}
	}
}

// BindCustom binds id to a type whose values are saved, loaded and diffed by
// a custom binding. The binding has no members of its own.
func (b *Bindings) BindCustom(id ident.BindID, decl ident.DeclID, typ reflect.Type) *SchemaBinding {
	const op = "BindCustom"

	schema.Check(id != ident.NoBind && typ != nil, op, "invalid custom binding of %v", typ)
	b.decls.Get(decl)

	binding := encodeFooter(decl, nil, typ)
	binding.custom = true

	if existing := b.Find(id); existing != nil {
		schema.Check(existing.custom && existing.typ == typ && existing.DeclID() == decl, op,
			"%v rebound with a different layout", typ)
		existing.refs++

		return existing
	}

	b.schemas = growTo(b.schemas, int(id)+1)
	b.schemas[id] = binding
	b.byType[typ] = id

	glog.V(2).Infof("plainprops: bound %v as custom %d (decl %d)", typ, id, decl)

	return binding
}

// Get returns the binding of id and panics when id is not bound.
func (b *Bindings) Get(id ident.BindID) *SchemaBinding {
	s := b.Find(id)
	if s == nil {
		schema.Violation("Bindings.Get", "struct %d is not bound", id)
	}

	return s
}

// Find returns the binding of id or nil.
func (b *Bindings) Find(id ident.BindID) *SchemaBinding {
	if int(id) >= len(b.schemas) {
		return nil
	}

	return b.schemas[id]
}

// Lower maps a bound id to its declared id.
func (b *Bindings) Lower(id ident.BindID) ident.DeclID {
	return b.Get(id).DeclID()
}

// Lookup returns the bound id of a runtime type.
func (b *Bindings) Lookup(typ reflect.Type) (ident.BindID, bool) {
	id, ok := b.byType[typ]
	return id, ok
}

// BindingsOf returns every live bound id that lowers to decl.
func (b *Bindings) BindingsOf(decl ident.DeclID) []ident.BindID {
	var out []ident.BindID

	for i, s := range b.schemas {
		if s != nil && s.DeclID() == decl {
			out = append(out, ident.BindID(i))
		}
	}

	return out
}

// DropStruct releases one reference to the binding of id.
func (b *Bindings) DropStruct(id ident.BindID) {
	s := b.Get(id)

	s.refs--
	if s.refs > 0 {
		return
	}

	b.schemas[id] = nil
	delete(b.byType, s.typ)

	glog.V(2).Infof("plainprops: unbound %v (%d)", s.typ, id)
}

func growTo[T any](items []*T, n int) []*T {
	if len(items) >= n {
		return items
	}

	return append(items, make([]*T, n-len(items))...)
}
