package batch

import (
	"slices"

	"github.com/golang/glog"

	"plainprops/bind"
	"plainprops/built"
	"plainprops/engine"
	"plainprops/ident"
	"plainprops/internal/toposort"
	"plainprops/schema"
)

// Build collects the schemas of every struct and enum referenced by roots.
// The set is closed over supers, the inner schemas of bindings and the
// inner structs of custom bindings, so that values saved by a binding are
// describable even when roots omit them.
//
// Member types come from the first non-custom binding of each declaration
// and, for custom-bound declarations, from the saved values themselves.
func Build(ctx *engine.Context, roots ...*built.Struct) *Batch {
	c := collector{
		ctx:      ctx,
		structAt: make(map[ident.DeclID]int),
		enumAt:   make(map[ident.EnumID]int),
		observed: make(map[ident.DeclID]map[ident.NameID]shape),
		bound:    make(map[ident.DeclID][]shape),
	}

	for _, r := range roots {
		c.tree(r)
	}

	c.close()

	b := c.emit()

	glog.V(1).Infof("plainprops: built schema batch of %d structs, %d enums, %d names",
		len(b.Structs), len(b.Enums), len(b.Names))

	return b
}

// shape is a member type with its referenced schema in process ids.
type shape struct {
	typ       schema.MemberType
	items     []schema.MemberType
	schema    uint32
	hasSchema bool
}

type collector struct {
	ctx *engine.Context

	structs  []ident.DeclID
	structAt map[ident.DeclID]int
	enums    []ident.EnumID
	enumAt   map[ident.EnumID]int

	observed map[ident.DeclID]map[ident.NameID]shape
	bound    map[ident.DeclID][]shape
}

func (c *collector) addStruct(id ident.DeclID) {
	if _, ok := c.structAt[id]; ok {
		return
	}

	c.structAt[id] = len(c.structs)
	c.structs = append(c.structs, id)
}

func (c *collector) addEnum(id ident.EnumID) {
	if _, ok := c.enumAt[id]; ok {
		return
	}

	c.enumAt[id] = len(c.enums)
	c.enums = append(c.enums, id)
}

func (c *collector) addRef(s shape) {
	if !s.hasSchema {
		return
	}

	t := s.typ
	if _, ok := t.(schema.RangeType); ok && len(s.items) > 0 {
		t = s.items[len(s.items)-1]
	}

	switch refOf(t) {
	case refEnum:
		c.addEnum(ident.EnumID(s.schema))
	case refStruct:
		c.addStruct(ident.DeclID(s.schema))
	}
}

func (c *collector) tree(s *built.Struct) {
	if s == nil {
		return
	}

	c.addStruct(s.Schema)

	for i := range s.Members {
		m := &s.Members[i]
		c.observe(s.Schema, m)

		switch m.Type.Kind() {
		case schema.KindLeaf:
			if refOf(m.Type) == refEnum {
				c.addEnum(m.Enum)
			}
		case schema.KindStruct:
			c.tree(m.Struct)
		default:
			c.rangeTree(m.Range)
		}
	}
}

func (c *collector) rangeTree(r *built.Range) {
	if r == nil {
		return
	}

	switch refOf(r.ItemType) {
	case refEnum:
		c.addEnum(ident.EnumID(r.ItemSchema))
	case refStruct:
		c.addStruct(ident.DeclID(r.ItemSchema))
	}

	for _, s := range r.Structs {
		c.tree(s)
	}

	for _, nested := range r.Ranges {
		c.rangeTree(nested)
	}
}

func (c *collector) observe(decl ident.DeclID, m *built.Member) {
	if m.Name == ident.NoName {
		return
	}

	seen := c.observed[decl]
	if seen == nil {
		seen = make(map[ident.NameID]shape)
		c.observed[decl] = seen
	}

	if _, ok := seen[m.Name]; ok {
		return
	}

	s := shape{typ: m.Type}

	switch m.Type.Kind() {
	case schema.KindLeaf:
		if refOf(m.Type) == refEnum {
			s.schema, s.hasSchema = uint32(m.Enum), true
		}
	case schema.KindStruct:
		if refOf(m.Type) == refStruct && m.Struct != nil {
			s.schema, s.hasSchema = uint32(m.Struct.Schema), true
		}
	default:
		for r := m.Range; r != nil; {
			s.items = append(s.items, r.ItemType)

			if r.ItemType.Kind() != schema.KindRange {
				s.schema, s.hasSchema = r.ItemSchema, refOf(r.ItemType) != refNone
				break
			}

			if len(r.Ranges) == 0 {
				break
			}

			r = r.Ranges[0]
		}
	}

	seen[m.Name] = s
}

// close adds supers and binding references until no new schema appears.
func (c *collector) close() {
	for i := 0; i < len(c.structs); i++ {
		id := c.structs[i]

		decl := c.ctx.Declarations.Get(id)
		if decl.HasSuper() {
			c.addStruct(decl.Super)
		}

		for _, bid := range c.ctx.Bindings.BindingsOf(id) {
			if c.ctx.Customs != nil {
				if e, ok := c.ctx.Customs.Find(bid); ok {
					for _, inner := range e.Inner {
						c.addStruct(c.ctx.Bindings.Lower(inner))
					}

					continue
				}
			}

			b := c.ctx.Bindings.Get(bid)
			if b.IsCustom() {
				continue
			}

			shapes := boundShapes(c.ctx.Bindings, b)
			if _, ok := c.bound[id]; !ok {
				c.bound[id] = shapes
			}

			for _, s := range shapes {
				c.addRef(s)
			}
		}

		for _, name := range decl.Names {
			if s, ok := c.observed[id][name]; ok {
				c.addRef(s)
			}
		}
	}
}

// boundShapes returns the non-super member shapes of b in declared order.
func boundShapes(bindings *bind.Bindings, b *bind.SchemaBinding) []shape {
	cur := b.Cursor()
	if b.HasSuper() {
		cur.GrabSuper()
	}

	var out []shape

	for cur.HasMore() {
		switch cur.PeekKind() {
		case schema.KindLeaf:
			lm := cur.GrabLeaf()

			s := shape{typ: lm.Type}
			if refOf(lm.Type) == refEnum {
				s.schema, s.hasSchema = uint32(lm.Enum), true
			}

			out = append(out, s)
		case schema.KindStruct:
			sm := cur.GrabStruct()

			s := shape{typ: sm.Type}
			if !sm.Type.Dynamic {
				s.schema, s.hasSchema = uint32(bindings.Lower(sm.Schema)), true
			}

			out = append(out, s)
		default:
			rm := cur.GrabRange()

			s := shape{typ: schema.RangeType{SizeClass: rm.Ranges[0].SizeClass}}
			for level := range rm.Ranges {
				s.items = append(s.items, rm.ItemType(level))
			}

			if rm.HasSchema {
				s.schema, s.hasSchema = rm.Schema, true
				if refOf(rm.Innermost) == refStruct {
					s.schema = uint32(bindings.Lower(ident.BindID(rm.Schema)))
				}
			}

			out = append(out, s)
		}
	}

	return out
}

func (c *collector) emit() *Batch {
	decls := c.ctx.Declarations

	order, err := toposort.Sort(len(c.structs), func(i int) []int {
		decl := decls.Get(c.structs[i])
		if !decl.HasSuper() {
			return nil
		}

		return []int{c.structAt[decl.Super]}
	})
	schema.Check(err == nil, "batch.Build", "super chain: %v", err)

	pos := toposort.Permute(order)

	slices.Sort(c.enums)

	for i, id := range c.enums {
		c.enumAt[id] = i
	}

	b := &Batch{}
	l := newLocalizer(decls.Ids(), b)

	for _, id := range c.enums {
		e := decls.GetEnum(id)

		es := EnumSchema{ID: id, Type: l.typ(e.Type), Mode: e.Mode, Width: e.Width}
		for _, en := range e.Enumerators {
			es.Enumerators = append(es.Enumerators, EnumeratorEntry{Name: l.name(en.Name), Constant: en.Constant})
		}

		b.Enums = append(b.Enums, es)
	}

	for _, i := range order {
		decl := decls.Get(c.structs[i])

		ss := StructSchema{ID: decl.ID, Type: l.typ(decl.Type), Super: NoIndex, Occupancy: decl.Occupancy}
		if decl.HasSuper() {
			ss.Super = pos[c.structAt[decl.Super]]
		}

		bound, hasBound := c.bound[decl.ID]

		for j, name := range decl.Names {
			ms := MemberSchema{Name: l.name(name), Schema: NoIndex}

			s := c.observed[decl.ID][name]
			if hasBound {
				s = bound[j]
			}

			ms.Type, ms.Items = s.typ, s.items

			if s.hasSchema {
				switch ms.refersTo() {
				case refEnum:
					ms.Schema = c.enumAt[ident.EnumID(s.schema)]
				case refStruct:
					ms.Schema = pos[c.structAt[ident.DeclID(s.schema)]]
				}
			}

			ss.Members = append(ss.Members, ms)
		}

		b.Structs = append(b.Structs, ss)
	}

	return b
}

// localizer renumbers process names, scopes and typenames into batch-local
// tables. Outer scopes and type parameters are added before their users.
type localizer struct {
	ids    *ident.Ids
	b      *Batch
	names  map[ident.NameID]int
	scopes map[ident.ScopeID]ident.ScopeID
	params map[ident.TypenameID]ident.TypenameID
}

func newLocalizer(ids *ident.Ids, b *Batch) *localizer {
	return &localizer{
		ids:    ids,
		b:      b,
		names:  make(map[ident.NameID]int),
		scopes: make(map[ident.ScopeID]ident.ScopeID),
		params: make(map[ident.TypenameID]ident.TypenameID),
	}
}

func (l *localizer) name(id ident.NameID) int {
	if idx, ok := l.names[id]; ok {
		return idx
	}

	idx := len(l.b.Names)
	l.names[id] = idx
	l.b.Names = append(l.b.Names, Name{ID: id, Text: l.ids.ResolveName(id)})

	return idx
}

func (l *localizer) scope(s ident.ScopeID) ident.ScopeID {
	switch {
	case s == ident.NoScope:
		return s
	case s.IsFlat():
		return ident.FlatScope(ident.NameID(l.name(s.AsFlat())))
	}

	if local, ok := l.scopes[s]; ok {
		return local
	}

	nested := l.ids.NestedScopes().Resolve(s.AsNested())
	entry := ident.NestedScope{Outer: l.scope(nested.Outer), Inner: ident.NameID(l.name(nested.Inner))}

	local := ident.NestedScopeID(uint32(len(l.b.NestedScopes)))
	l.b.NestedScopes = append(l.b.NestedScopes, entry)
	l.scopes[s] = local

	return local
}

func (l *localizer) typ(t ident.Type) ident.Type {
	return ident.Type{Scope: l.scope(t.Scope), Name: l.typename(t.Name)}
}

func (l *localizer) typename(n ident.TypenameID) ident.TypenameID {
	if !n.IsParametric() {
		return ident.ConcreteTypename(ident.NameID(l.name(n.AsConcrete())))
	}

	if local, ok := l.params[n]; ok {
		return local
	}

	p := l.ids.ParametricTypes().Resolve(n.AsParametric())
	entry := ident.ParametricType{Name: ident.NameID(l.name(p.Name))}

	for _, param := range p.Parameters {
		entry.Parameters = append(entry.Parameters, l.typ(param))
	}

	local := ident.ParametricTypename(uint32(len(l.b.Parametrics)))
	l.b.Parametrics = append(l.b.Parametrics, entry)
	l.params[n] = local

	return local
}
