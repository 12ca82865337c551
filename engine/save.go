package engine

import (
	"unsafe"

	"plainprops/bind"
	"plainprops/built"
	"plainprops/ident"
	"plainprops/schema"
)

// SaveStruct saves every member of the struct at src.
func SaveStruct(src unsafe.Pointer, id ident.BindID, ctx *Context) *built.Struct {
	return ctx.saveStruct(src, id)
}

// SaveStructDelta saves the members of src that differ from def. Members
// equal to their default are absent from the result. RequireAll structs are
// saved whole.
func SaveStructDelta(src, def unsafe.Pointer, id ident.BindID, ctx *Context) *built.Struct {
	if _, ok := ctx.custom(id); !ok {
		if _, decl := ctx.binding(id); decl.Occupancy == schema.RequireAll {
			return ctx.saveStruct(src, id)
		}
	}

	out := ctx.saveDelta(src, def, id)
	if out == nil {
		out = ctx.Scratch.NewStruct(ctx.Bindings.Lower(id), 0)
	}

	return out
}

// SaveStructDeltaIfDiff is SaveStructDelta that returns nil when src equals
// def, telling an omitted struct apart from a present one.
func SaveStructDeltaIfDiff(src, def unsafe.Pointer, id ident.BindID, ctx *Context) *built.Struct {
	return ctx.saveDelta(src, def, id)
}

func (c *Context) custom(id ident.BindID) (*CustomEntry, bool) {
	if c.Customs == nil {
		return nil, false
	}

	return c.Customs.Find(id)
}

func (c *Context) binding(id ident.BindID) (*bind.SchemaBinding, *schema.StructDeclaration) {
	b := c.Bindings.Get(id)
	schema.Check(!b.IsCustom(), "engine", "%v has no custom binding registered", b.Type())

	return b, c.Declarations.Get(b.DeclID())
}

func (c *Context) saveStruct(src unsafe.Pointer, id ident.BindID) *built.Struct {
	if e, ok := c.custom(id); ok {
		return e.Binding.SaveCustom(src, nil, c)
	}

	b, decl := c.binding(id)
	out := c.Scratch.NewStruct(b.DeclID(), b.NumMembers())

	walk(b, decl, func(m *member) bool {
		out.Members = append(out.Members, c.saveMember(b, src, m))
		return true
	})

	return out
}

func (c *Context) saveMember(owner *bind.SchemaBinding, src unsafe.Pointer, m *member) built.Member {
	p := unsafe.Add(src, m.offset)
	out := built.Member{Name: m.name, Type: m.typ()}

	switch m.kind {
	case schema.KindLeaf:
		out.Leaf = readLeaf(p, m.leaf.Type)
		out.Enum = m.leaf.Enum
	case schema.KindStruct:
		if m.strct.Type.Dynamic {
			if id, target, ok := c.dynamicTarget(owner, src, m.offset); ok {
				out.Struct = c.saveStruct(target, id)
			}
		} else {
			out.Struct = c.saveStruct(p, m.strct.Schema)
		}
	default:
		out.Range = c.saveRange(p, m.rng)
	}

	return out
}

func (c *Context) saveRange(p unsafe.Pointer, rm bind.RangeMember) *built.Range {
	rb := rm.Ranges[0]
	itemType := rm.ItemType(0)

	out := c.Scratch.NewRange()
	out.SizeClass = rb.SizeClass
	out.ItemType = itemType

	if len(rm.Ranges) == 1 && rm.HasSchema {
		out.ItemSchema = rm.Schema
		if itemType.Kind() == schema.KindStruct {
			out.ItemSchema = uint32(c.Bindings.Lower(ident.BindID(rm.Schema)))
		}
	}

	if rb.Leaves != nil {
		n, data := rb.Leaves.Leaves(p)
		checkSize(n, rb.SizeClass)

		out.Num = n
		out.Leaves = c.Scratch.Bytes(len(data))
		copy(out.Leaves, data)

		return out
	}

	req := bind.ItemsRequest{Range: p}
	chunk := rb.Items.ReadItems(&req)
	checkSize(chunk.Total, rb.SizeClass)

	out.Num = chunk.Total

	var width int

	switch itemType.Kind() {
	case schema.KindLeaf:
		width = itemType.(schema.LeafType).Width.Bytes()
		out.Leaves = c.Scratch.Bytes(int(out.Num) * width)
	case schema.KindStruct:
		out.Structs = c.Scratch.Structs(int(out.Num))
	default:
		out.Ranges = c.Scratch.Ranges(int(out.Num))
	}

	var idx uint64

	for chunk.Num > 0 {
		schema.Check(idx+chunk.Num <= out.Num, "range", "chunks yield more than %d items", out.Num)

		for i := range chunk.Num {
			item := chunk.At(i)

			switch itemType.Kind() {
			case schema.KindLeaf:
				built.WriteLeaf(out.Leaves[int(idx)*width:], itemType.(schema.LeafType).Width, readLeaf(item, itemType))
			case schema.KindStruct:
				out.Structs[idx] = c.saveStruct(item, ident.BindID(rm.Schema))
			default:
				out.Ranges[idx] = c.saveRange(item, rm.Level(1))
			}

			idx++
		}

		req.NumRead += chunk.Num
		chunk = rb.Items.ReadItems(&req)
	}

	schema.Check(idx == out.Num, "range", "chunks yield %d of %d items", idx, out.Num)

	return out
}

// saveDelta returns nil when src equals def.
func (c *Context) saveDelta(src, def unsafe.Pointer, id ident.BindID) *built.Struct {
	if e, ok := c.custom(id); ok {
		if !e.Binding.DiffCustom(src, def, c) {
			return nil
		}

		return e.Binding.SaveCustom(src, def, c)
	}

	b, decl := c.binding(id)
	if decl.Occupancy == schema.RequireAll {
		if !c.diffStruct(src, def, id) {
			return nil
		}

		return c.saveStruct(src, id)
	}

	out := c.Scratch.NewStruct(b.DeclID(), b.NumMembers())

	walk(b, decl, func(m *member) bool {
		if !c.diffMember(b, src, def, m) {
			return true
		}

		if m.kind == schema.KindStruct && !m.strct.Type.Dynamic {
			sub := c.saveDelta(unsafe.Add(src, m.offset), unsafe.Add(def, m.offset), m.strct.Schema)
			out.Members = append(out.Members, built.Member{Name: m.name, Type: m.strct.Type, Struct: sub})

			return true
		}

		out.Members = append(out.Members, c.saveMember(b, src, m))

		return true
	})

	if len(out.Members) == 0 {
		return nil
	}

	return out
}
