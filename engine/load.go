package engine

import (
	"fmt"
	"reflect"
	"unsafe"

	"plainprops/bind"
	"plainprops/built"
	"plainprops/ident"
	"plainprops/schema"
)

// LoadStruct writes the members saved in src into the struct at dst. Members
// absent from src keep their current value, so loading a delta over its
// default reproduces the saved instance. On error dst is left unchanged.
func LoadStruct(dst unsafe.Pointer, src *built.Struct, id ident.BindID, ctx *Context) error {
	b := ctx.Bindings.Get(id)

	tmp := reflect.New(b.Type())
	tmp.Elem().Set(reflect.NewAt(b.Type(), dst).Elem())

	if err := ctx.loadStruct(tmp.UnsafePointer(), src, id); err != nil {
		return err
	}

	reflect.NewAt(b.Type(), dst).Elem().Set(tmp.Elem())

	return nil
}

func (c *Context) typeName(id ident.BindID) string {
	return c.Bindings.Get(id).Type().String()
}

func (c *Context) loadStruct(dst unsafe.Pointer, src *built.Struct, id ident.BindID) error {
	if src == nil {
		return fmt.Errorf("%s: no saved struct: %w", c.typeName(id), ErrSchemaMismatch)
	}

	if e, ok := c.custom(id); ok {
		return e.Binding.LoadCustom(dst, src, c)
	}

	b, decl := c.binding(id)
	if src.Schema != b.DeclID() {
		return fmt.Errorf("%s: saved schema %d, bound %d: %w", c.typeName(id), src.Schema, b.DeclID(), ErrSchemaMismatch)
	}

	var (
		next int
		err  error
	)

	walk(b, decl, func(m *member) bool {
		if next < len(src.Members) && src.Members[next].Name == m.name {
			if err = c.loadMember(b, dst, m, &src.Members[next]); err != nil {
				err = fmt.Errorf("%s.%s: %w", c.typeName(id), c.memberName(m), err)
				return false
			}

			next++

			return true
		}

		if decl.Occupancy == schema.RequireAll {
			err = fmt.Errorf("%s.%s: %w", c.typeName(id), c.memberName(m), ErrMissingMember)
			return false
		}

		return true
	})

	if err != nil {
		return err
	}

	if next < len(src.Members) {
		return fmt.Errorf("%s: member %d of %d: %w", c.typeName(id), next, len(src.Members), ErrUnknownMember)
	}

	return nil
}

func (c *Context) memberName(m *member) string {
	if m.name == ident.NoName {
		return "(super)"
	}

	if ids := c.Declarations.Ids(); ids != nil {
		return ids.ResolveName(m.name)
	}

	return fmt.Sprint(uint32(m.name))
}

func (c *Context) loadMember(owner *bind.SchemaBinding, dst unsafe.Pointer, m *member, saved *built.Member) error {
	if saved.Type != m.typ() {
		return fmt.Errorf("saved %s, bound %s: %w", saved.Type, m.typ(), ErrSchemaMismatch)
	}

	p := unsafe.Add(dst, m.offset)

	switch m.kind {
	case schema.KindLeaf:
		if saved.Enum != m.leaf.Enum {
			return fmt.Errorf("saved enum %d, bound %d: %w", saved.Enum, m.leaf.Enum, ErrSchemaMismatch)
		}

		writeLeaf(p, m.leaf.Type, saved.Leaf)

		return nil
	case schema.KindStruct:
		if m.strct.Type.Dynamic {
			return c.loadDynamic(owner, dst, m.offset, saved.Struct)
		}

		return c.loadStruct(p, saved.Struct, m.strct.Schema)
	default:
		return c.loadRange(p, m.rng, saved.Range)
	}
}

func (c *Context) loadDynamic(owner *bind.SchemaBinding, dst unsafe.Pointer, offset uintptr, saved *built.Struct) error {
	iface := dynamicField(owner.Type(), offset)
	field := reflect.NewAt(iface, unsafe.Add(dst, offset)).Elem()

	if saved == nil {
		field.SetZero()
		return nil
	}

	for _, id := range c.Bindings.BindingsOf(saved.Schema) {
		ptr := reflect.PointerTo(c.Bindings.Get(id).Type())
		if !ptr.Implements(iface) {
			continue
		}

		target := reflect.New(ptr.Elem())
		if err := c.loadStruct(target.UnsafePointer(), saved, id); err != nil {
			return err
		}

		field.Set(target)

		return nil
	}

	return fmt.Errorf("no bound type of schema %d implements %v: %w", saved.Schema, iface, ErrSchemaMismatch)
}

func (c *Context) loadRange(p unsafe.Pointer, rm bind.RangeMember, saved *built.Range) error {
	if saved == nil {
		return fmt.Errorf("no saved range: %w", ErrSchemaMismatch)
	}

	rb := rm.Ranges[0]
	itemType := rm.ItemType(0)

	if saved.ItemType != itemType {
		return fmt.Errorf("saved %s items, bound %s: %w", saved.ItemType, itemType, ErrSchemaMismatch)
	}

	if leaf, ok := itemType.(schema.LeafType); ok && leaf.Category == schema.LeafEnum && len(rm.Ranges) == 1 &&
		rm.HasSchema && saved.ItemSchema != rm.Schema {
		return fmt.Errorf("saved enum %d items, bound %d: %w", saved.ItemSchema, rm.Schema, ErrSchemaMismatch)
	}

	if saved.Num > rb.SizeClass.Max() {
		return fmt.Errorf("%d items in size class %s: %w", saved.Num, rb.SizeClass, bind.ErrRangeSize)
	}

	if rb.Leaves != nil {
		return rb.Leaves.SetLeaves(p, saved.Num, saved.Leaves)
	}

	if !itemsComplete(saved, itemType) {
		return fmt.Errorf("range of %d %s items is truncated: %w", saved.Num, itemType, ErrSchemaMismatch)
	}

	var idx uint64

	return rb.Items.LoadItems(p, saved.Num, func(item unsafe.Pointer) error {
		i := idx
		idx++

		switch itemType.Kind() {
		case schema.KindLeaf:
			writeLeaf(item, itemType, saved.LeafAt(i))
			return nil
		case schema.KindStruct:
			return c.loadStruct(item, saved.Structs[i], ident.BindID(rm.Schema))
		default:
			return c.loadRange(item, rm.Level(1), saved.Ranges[i])
		}
	})
}

func itemsComplete(r *built.Range, itemType schema.MemberType) bool {
	switch t := itemType.(type) {
	case schema.LeafType:
		return uint64(len(r.Leaves)) == r.Num*uint64(t.Width.Bytes())
	case schema.StructType:
		return uint64(len(r.Structs)) == r.Num
	case schema.RangeType:
		return uint64(len(r.Ranges)) == r.Num
	default:
		return false
	}
}
