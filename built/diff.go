package built

import (
	"bytes"
	"slices"

	"plainprops/ident"
	"plainprops/schema"
)

// Step is one level of a read-side difference path. Member steps carry the
// owning struct's schema and the member name; range item steps carry Index.
type Step struct {
	Schema ident.DeclID
	Name   ident.NameID
	Index  int64
}

// Diff reports whether two saved trees differ, comparing floats within ulps.
func Diff(a, b *Struct, ulps uint64) bool {
	d := treeDiffer{ulps: ulps}
	return d.structs(a, b)
}

// DiffTracked is Diff that also returns the path to the first difference,
// outermost step first.
func DiffTracked(a, b *Struct, ulps uint64) (bool, []Step) {
	d := treeDiffer{ulps: ulps, track: true}
	if !d.structs(a, b) {
		return false, nil
	}

	slices.Reverse(d.path)

	return true, d.path
}

type treeDiffer struct {
	ulps  uint64
	track bool
	path  []Step
}

func (d *treeDiffer) record(s Step) bool {
	if d.track {
		d.path = append(d.path, s)
	}

	return true
}

func (d *treeDiffer) structs(a, b *Struct) bool {
	if a == nil || b == nil {
		return a != b
	}

	if a.Schema != b.Schema {
		return true
	}

	n := min(len(a.Members), len(b.Members))
	for i := range n {
		ma, mb := &a.Members[i], &b.Members[i]
		if ma.Name != mb.Name || d.members(ma, mb) {
			return d.record(Step{Schema: a.Schema, Name: ma.Name, Index: -1})
		}
	}

	switch {
	case len(a.Members) > n:
		return d.record(Step{Schema: a.Schema, Name: a.Members[n].Name, Index: -1})
	case len(b.Members) > n:
		return d.record(Step{Schema: a.Schema, Name: b.Members[n].Name, Index: -1})
	default:
		return false
	}
}

func (d *treeDiffer) members(a, b *Member) bool {
	if a.Type != b.Type || a.Enum != b.Enum {
		return true
	}

	switch a.Type.Kind() {
	case schema.KindLeaf:
		return !EqualLeaf(a.Type, a.Leaf, b.Leaf, d.ulps)
	case schema.KindStruct:
		return d.structs(a.Struct, b.Struct)
	default:
		return d.ranges(a.Range, b.Range)
	}
}

func (d *treeDiffer) ranges(a, b *Range) bool {
	if a == nil || b == nil {
		return a != b
	}

	if a.Num != b.Num || a.ItemType != b.ItemType || a.ItemSchema != b.ItemSchema {
		return true
	}

	switch a.ItemType.Kind() {
	case schema.KindLeaf:
		if leaf, ok := a.ItemType.(schema.LeafType); (!ok || leaf.Category != schema.LeafFloat) &&
			bytes.Equal(a.Leaves, b.Leaves) {
			return false
		}

		for i := range a.Num {
			if !EqualLeaf(a.ItemType, a.LeafAt(i), b.LeafAt(i), d.ulps) {
				return d.record(Step{Index: int64(i)})
			}
		}
	case schema.KindStruct:
		for i := range a.Num {
			if d.structs(a.Structs[i], b.Structs[i]) {
				return d.record(Step{Index: int64(i)})
			}
		}
	default:
		for i := range a.Num {
			if d.ranges(a.Ranges[i], b.Ranges[i]) {
				return d.record(Step{Index: int64(i)})
			}
		}
	}

	return false
}
