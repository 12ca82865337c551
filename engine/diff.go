package engine

import (
	"fmt"
	"slices"
	"strings"
	"unsafe"

	"github.com/golang/glog"

	"plainprops/bind"
	"plainprops/built"
	"plainprops/ident"
	"plainprops/schema"
)

// DiffEntry is one level of the path to a difference. Member entries name
// the member of Schema; range item entries carry Index instead.
type DiffEntry struct {
	Type   schema.MemberType
	Name   ident.NameID
	Schema ident.BindID
	Index  int64
	A, B   unsafe.Pointer
}

// IsItem reports whether e is a range item entry.
func (e DiffEntry) IsItem() bool {
	return e.Index >= 0
}

// DiffPath locates the first difference, outermost entry first.
type DiffPath []DiffEntry

// Format renders p like "Shape.Points[2].X", resolving names through ids.
func (p DiffPath) Format(ids *ident.Ids) string {
	var sb strings.Builder

	for i, e := range p {
		switch {
		case e.IsItem():
			fmt.Fprintf(&sb, "[%d]", e.Index)
		case e.Name == ident.NoName:
			if i > 0 {
				sb.WriteByte('.')
			}

			sb.WriteString("(super)")
		default:
			if i > 0 {
				sb.WriteByte('.')
			}

			sb.WriteString(ids.ResolveName(e.Name))
		}
	}

	return sb.String()
}

// DiffStructs reports whether the structs at a and b differ.
func DiffStructs(a, b unsafe.Pointer, id ident.BindID, ctx *Context) bool {
	return ctx.diffStruct(a, b, id)
}

// DiffStructsTracked is DiffStructs that also returns the path to the first
// difference in declared member order, supers first.
func DiffStructsTracked(a, b unsafe.Pointer, id ident.BindID, ctx *Context) (bool, DiffPath) {
	d := differ{ctx: ctx, track: true}
	if !d.structs(a, b, id) {
		return false, nil
	}

	slices.Reverse(d.path)

	if glog.V(3) {
		glog.Infof("plainprops: first difference at %d entries deep", len(d.path))
	}

	return true, d.path
}

func (c *Context) diffStruct(a, b unsafe.Pointer, id ident.BindID) bool {
	d := differ{ctx: c}
	return d.structs(a, b, id)
}

func (c *Context) diffMember(owner *bind.SchemaBinding, a, b unsafe.Pointer, m *member) bool {
	d := differ{ctx: c}
	return d.member(owner, a, b, m)
}

// differ stops at the first difference. With track set, every level appends
// its entry while unwinding, innermost first.
type differ struct {
	ctx   *Context
	track bool
	path  DiffPath
}

func (d *differ) record(e DiffEntry) bool {
	if d.track {
		d.path = append(d.path, e)
	}

	return true
}

func (d *differ) structs(a, b unsafe.Pointer, id ident.BindID) bool {
	if e, ok := d.ctx.custom(id); ok {
		return e.Binding.DiffCustom(a, b, d.ctx)
	}

	owner, decl := d.ctx.binding(id)
	differs := false

	walk(owner, decl, func(m *member) bool {
		if !d.member(owner, a, b, m) {
			return true
		}

		differs = d.record(DiffEntry{
			Type:   m.typ(),
			Name:   m.name,
			Schema: id,
			Index:  -1,
			A:      unsafe.Add(a, m.offset),
			B:      unsafe.Add(b, m.offset),
		})

		return false
	})

	return differs
}

func (d *differ) member(owner *bind.SchemaBinding, a, b unsafe.Pointer, m *member) bool {
	pa, pb := unsafe.Add(a, m.offset), unsafe.Add(b, m.offset)

	switch m.kind {
	case schema.KindLeaf:
		return !built.EqualLeaf(m.leaf.Type, readLeaf(pa, m.leaf.Type), readLeaf(pb, m.leaf.Type), d.ctx.floatULPs)
	case schema.KindStruct:
		if !m.strct.Type.Dynamic {
			return d.structs(pa, pb, m.strct.Schema)
		}

		idA, targetA, okA := d.ctx.dynamicTarget(owner, a, m.offset)
		idB, targetB, okB := d.ctx.dynamicTarget(owner, b, m.offset)

		if !okA || !okB || idA != idB {
			return okA || okB
		}

		return d.structs(targetA, targetB, idA)
	default:
		return d.ranges(pa, pb, m.rng)
	}
}

func (d *differ) ranges(a, b unsafe.Pointer, rm bind.RangeMember) bool {
	rb := rm.Ranges[0]
	itemType := rm.ItemType(0)

	if rb.Leaves != nil {
		return d.leafRanges(a, b, rb.Leaves, itemType)
	}

	reqA := bind.ItemsRequest{Range: a}
	reqB := bind.ItemsRequest{Range: b}
	chunkA := rb.Items.ReadItems(&reqA)
	chunkB := rb.Items.ReadItems(&reqB)

	if chunkA.Total != chunkB.Total {
		return true
	}

	var posA, posB uint64

	for idx := range chunkA.Total {
		if posA == chunkA.Num {
			reqA.NumRead += chunkA.Num
			chunkA, posA = rb.Items.ReadItems(&reqA), 0
		}

		if posB == chunkB.Num {
			reqB.NumRead += chunkB.Num
			chunkB, posB = rb.Items.ReadItems(&reqB), 0
		}

		schema.Check(chunkA.Num > 0 && chunkB.Num > 0, "range", "chunks end before %d items", chunkA.Total)

		itemA, itemB := chunkA.At(posA), chunkB.At(posB)
		if d.item(itemA, itemB, rm, itemType) {
			return d.record(DiffEntry{Type: itemType, Name: ident.NoName, Schema: ident.NoBind, Index: int64(idx), A: itemA, B: itemB})
		}

		posA++
		posB++
	}

	return false
}

func (d *differ) item(a, b unsafe.Pointer, rm bind.RangeMember, itemType schema.MemberType) bool {
	switch itemType.Kind() {
	case schema.KindLeaf:
		return !built.EqualLeaf(itemType, readLeaf(a, itemType), readLeaf(b, itemType), d.ctx.floatULPs)
	case schema.KindStruct:
		return d.structs(a, b, ident.BindID(rm.Schema))
	default:
		return d.ranges(a, b, rm.Level(1))
	}
}

func (d *differ) leafRanges(a, b unsafe.Pointer, leaves bind.LeafRangeBinding, itemType schema.MemberType) bool {
	leaf := itemType.(schema.LeafType)

	if leaf.Category != schema.LeafFloat && !d.track {
		return leaves.DiffLeaves(a, b)
	}

	na, da := leaves.Leaves(a)
	nb, db := leaves.Leaves(b)

	if na != nb {
		return true
	}

	w := leaf.Width.Bytes()
	for i := range int(na) {
		va := built.ReadLeaf(da[i*w:], leaf.Width)
		vb := built.ReadLeaf(db[i*w:], leaf.Width)

		if !built.EqualLeaf(leaf, va, vb, d.ctx.floatULPs) {
			return d.record(DiffEntry{
				Type:   leaf,
				Name:   ident.NoName,
				Schema: ident.NoBind,
				Index:  int64(i),
				A:      unsafe.Pointer(&da[i*w]),
				B:      unsafe.Pointer(&db[i*w]),
			})
		}
	}

	return false
}
