package batch

import (
	"fmt"
	"math"
	"slices"

	"github.com/golang/glog"

	"plainprops/built"
	"plainprops/engine"
	"plainprops/ident"
	"plainprops/internal/diagnostic"
	"plainprops/internal/match"
	"plainprops/schema"
)

const maxSuggestions = 3

const noTypename = ident.TypenameID(math.MaxUint32)

// Translation maps ids of saved values onto ids of the loading process.
type Translation struct {
	direct  bool
	names   map[ident.NameID]ident.NameID
	structs map[ident.DeclID]ident.DeclID
	enums   map[ident.EnumID]*enumTranslation
}

type enumTranslation struct {
	id   ident.EnumID
	flag bool
	// values maps saved constants to current ones; nil when they agree.
	values map[uint64]uint64
}

// Direct returns the identity translation. It is only valid for values saved
// by the same process, against the same stores.
func Direct() *Translation {
	return &Translation{direct: true}
}

// IsDirect reports whether t carries ids over unchanged.
func (t *Translation) IsDirect() bool {
	return t.direct
}

// Struct returns the current declaration of a saved struct schema id.
func (t *Translation) Struct(saved ident.DeclID) (ident.DeclID, bool) {
	if t.direct {
		return saved, true
	}

	id, ok := t.structs[saved]

	return id, ok
}

// Enum returns the current enum id of a saved enum id.
func (t *Translation) Enum(saved ident.EnumID) (ident.EnumID, bool) {
	if t.direct {
		return saved, true
	}

	e, ok := t.enums[saved]
	if !ok {
		return 0, false
	}

	return e.id, true
}

// Name returns the current id of a saved name id.
func (t *Translation) Name(saved ident.NameID) (ident.NameID, bool) {
	if t.direct || saved == ident.NoName {
		return saved, true
	}

	id, ok := t.names[saved]

	return id, ok
}

// ByName re-resolves every name of b against the stores of ctx without
// interning anything. Nested scopes, parametric types, enums and structs are
// resolved table by table; each entry only references earlier ones.
//
// Every mismatch is reported in the returned diagnostics. The error wraps
// ErrUnmatchedSchema when any diagnostic is an error, and ErrMalformed when b
// is not well formed.
func ByName(b *Batch, ctx *engine.Context) (*Translation, diagnostic.Diagnostics, error) {
	var diags diagnostic.Diagnostics

	if err := b.Validate(); err != nil {
		return nil, diags, err
	}

	r := newResolver(b, ctx)

	r.resolveNames()
	r.resolveScopes()
	r.resolveParametrics()

	for i := range b.Enums {
		r.resolveEnum(&b.Enums[i], &diags)
	}

	for i := range b.Structs {
		r.resolveStruct(i, &diags)
	}

	for _, d := range diags.Errors {
		glog.Warningf("plainprops: %s", d)
	}

	return r.tr, diags, diags.Err(ErrUnmatchedSchema)
}

type resolver struct {
	b   *Batch
	ctx *engine.Context
	ids *ident.Ids
	tr  *Translation

	names   []ident.NameID
	scopes  []ident.ScopeID
	params  []ident.TypenameID
	structs []ident.DeclID
}

func newResolver(b *Batch, ctx *engine.Context) *resolver {
	return &resolver{
		b:   b,
		ctx: ctx,
		ids: ctx.Declarations.Ids(),
		tr: &Translation{
			names:   make(map[ident.NameID]ident.NameID, len(b.Names)),
			structs: make(map[ident.DeclID]ident.DeclID, len(b.Structs)),
			enums:   make(map[ident.EnumID]*enumTranslation, len(b.Enums)),
		},
		structs: make([]ident.DeclID, len(b.Structs)),
	}
}

func (r *resolver) resolveNames() {
	r.names = make([]ident.NameID, len(r.b.Names))

	for i, n := range r.b.Names {
		id, ok := r.ids.FindName(n.Text)
		if !ok {
			id = ident.NoName
		} else {
			r.tr.names[n.ID] = id
		}

		r.names[i] = id
	}
}

func (r *resolver) name(i int) (ident.NameID, bool) {
	id := r.names[i]
	return id, id != ident.NoName
}

func (r *resolver) resolveScopes() {
	r.scopes = make([]ident.ScopeID, len(r.b.NestedScopes))

	for i, s := range r.b.NestedScopes {
		r.scopes[i] = ident.NoScope

		outer, ok := r.scope(s.Outer)
		if !ok {
			continue
		}

		inner, ok := r.name(int(s.Inner))
		if !ok {
			continue
		}

		if id, ok := r.ids.NestedScopes().Find(ident.NestedScope{Outer: outer, Inner: inner}); ok {
			r.scopes[i] = id
		}
	}
}

func (r *resolver) scope(s ident.ScopeID) (ident.ScopeID, bool) {
	switch {
	case s == ident.NoScope:
		return s, true
	case s.IsFlat():
		name, ok := r.name(int(s.AsFlat()))
		return ident.FlatScope(name), ok
	default:
		id := r.scopes[s.AsNested()]
		return id, id != ident.NoScope
	}
}

func (r *resolver) resolveParametrics() {
	r.params = make([]ident.TypenameID, len(r.b.Parametrics))

	for i, p := range r.b.Parametrics {
		r.params[i] = noTypename

		name, ok := r.name(int(p.Name))
		if !ok {
			continue
		}

		params := make([]ident.Type, len(p.Parameters))
		for j, param := range p.Parameters {
			if params[j], ok = r.typ(param); !ok {
				break
			}
		}

		if !ok {
			continue
		}

		if id, ok := r.ids.ParametricTypes().Find(ident.ParametricType{Name: name, Parameters: params}); ok {
			r.params[i] = id
		}
	}
}

func (r *resolver) typ(t ident.Type) (ident.Type, bool) {
	scope, ok := r.scope(t.Scope)
	if !ok {
		return ident.Type{}, false
	}

	if !t.Name.IsParametric() {
		name, ok := r.name(int(t.Name.AsConcrete()))
		return ident.Type{Scope: scope, Name: ident.ConcreteTypename(name)}, ok
	}

	id := r.params[t.Name.AsParametric()]

	return ident.Type{Scope: scope, Name: id}, id != noTypename
}

func (r *resolver) resolveEnum(e *EnumSchema, diags *diagnostic.Diagnostics) {
	typeName := r.b.TypeString(e.Type)

	var decl *schema.EnumDeclaration

	if t, ok := r.typ(e.Type); ok {
		if id, ok := r.ids.FindEnum(t); ok {
			decl = r.ctx.Declarations.FindEnum(id)
		}
	}

	if decl == nil {
		diags.AddError(diagnostic.CodeUnmatchedEnum, "no enum of this type is declared", typeName, "",
			match.Suggest(typeName, r.enumTypeNames(), maxSuggestions)...)

		return
	}

	if decl.Mode != e.Mode || decl.Width != e.Width {
		diags.AddError(diagnostic.CodeTypeChanged,
			fmt.Sprintf("saved as %s %s, declared as %s %s", e.Mode, e.Width, decl.Mode, decl.Width), typeName, "")

		return
	}

	et := &enumTranslation{id: decl.ID, flag: e.Mode == schema.Flag}
	values := make(map[uint64]uint64, len(e.Enumerators))
	moved := false

	for _, en := range e.Enumerators {
		text := r.b.NameText(en.Name)

		name, _ := r.name(en.Name)
		idx := slices.IndexFunc(decl.Enumerators, func(cur schema.Enumerator) bool { return cur.Name == name })

		if name == ident.NoName || idx < 0 {
			diags.AddWarning(diagnostic.CodeUnknownMember, "enumerator is no longer declared", typeName, text)
			continue
		}

		cur := decl.Enumerators[idx].Constant
		values[en.Constant] = cur
		moved = moved || cur != en.Constant
	}

	if moved {
		et.values = values
	}

	r.tr.enums[e.ID] = et
}

func (r *resolver) resolveStruct(i int, diags *diagnostic.Diagnostics) {
	s := &r.b.Structs[i]
	typeName := r.b.TypeString(s.Type)
	r.structs[i] = ident.NoDecl

	var decl *schema.StructDeclaration

	if t, ok := r.typ(s.Type); ok {
		if id, ok := r.ids.FindStruct(t); ok {
			decl = r.ctx.Declarations.Find(ident.DeclID(id))
		}
	}

	if decl == nil {
		diags.AddError(diagnostic.CodeUnmatchedSchema, "no struct of this type is declared", typeName, "",
			match.Suggest(typeName, r.structTypeNames(), maxSuggestions)...)

		return
	}

	r.structs[i] = decl.ID
	r.tr.structs[s.ID] = decl.ID

	wantSuper := ident.NoDecl
	if s.Super != NoIndex {
		wantSuper = r.structs[s.Super]
	}

	// An unmatched super is already reported.
	if (s.Super == NoIndex || wantSuper != ident.NoDecl) && decl.Super != wantSuper {
		diags.AddError(diagnostic.CodeSuperChanged, "super type changed", typeName, "")
	}

	shapes := r.currentShapes(decl.ID)
	current := make([]string, len(decl.Names))

	for j, n := range decl.Names {
		current[j] = r.ids.ResolveName(n)
	}

	seen := make([]bool, len(decl.Names))

	for _, m := range s.Members {
		text := r.b.NameText(m.Name)

		name, _ := r.name(m.Name)
		j := slices.Index(decl.Names, name)

		if name == ident.NoName || j < 0 {
			diags.AddError(diagnostic.CodeUnknownMember, "member is not declared", typeName, text,
				match.Suggest(text, current, maxSuggestions)...)

			continue
		}

		seen[j] = true

		if m.Type != nil && shapes != nil && !sameShape(m, shapes[j]) {
			diags.AddError(diagnostic.CodeTypeChanged,
				fmt.Sprintf("saved as %s, bound as %s", shapeString(m.Type, m.Items), shapeString(shapes[j].typ, shapes[j].items)),
				typeName, text)
		}
	}

	for j, ok := range seen {
		if !ok && decl.Occupancy == schema.RequireAll {
			diags.AddWarning(diagnostic.CodeMissingMember, "required member was not saved", typeName, current[j])
		}
	}
}

// currentShapes returns the member shapes of the first non-custom binding of
// decl, or nil.
func (r *resolver) currentShapes(decl ident.DeclID) []shape {
	for _, bid := range r.ctx.Bindings.BindingsOf(decl) {
		if r.ctx.Customs != nil {
			if _, ok := r.ctx.Customs.Find(bid); ok {
				continue
			}
		}

		if b := r.ctx.Bindings.Get(bid); !b.IsCustom() {
			return boundShapes(r.ctx.Bindings, b)
		}
	}

	return nil
}

func sameShape(m MemberSchema, s shape) bool {
	return m.Type == s.typ && slices.Equal(m.Items, s.items)
}

func shapeString(t schema.MemberType, items []schema.MemberType) string {
	out := t.String()
	for _, it := range items {
		out += "/" + it.String()
	}

	return out
}

func (r *resolver) structTypeNames() []string {
	var out []string

	for i := range r.ids.NumStructs() {
		if r.ctx.Declarations.Find(ident.DeclID(i)) != nil {
			out = append(out, r.ids.TypeString(r.ids.StructType(ident.StructID(i))))
		}
	}

	return out
}

func (r *resolver) enumTypeNames() []string {
	var out []string

	for i := range r.ids.NumEnums() {
		if r.ctx.Declarations.FindEnum(ident.EnumID(i)) != nil {
			out = append(out, r.ids.TypeString(r.ids.EnumType(ident.EnumID(i))))
		}
	}

	return out
}

// Apply returns a copy of s with every id translated, allocated from
// scratch. Direct translations return s itself. Enum values are rewritten
// when enumerator constants changed.
func (t *Translation) Apply(s *built.Struct, scratch *built.Scratch) (*built.Struct, error) {
	if t.direct || s == nil {
		return s, nil
	}

	return t.applyStruct(s, scratch)
}

func (t *Translation) applyStruct(s *built.Struct, scratch *built.Scratch) (*built.Struct, error) {
	id, ok := t.structs[s.Schema]
	if !ok {
		return nil, fmt.Errorf("saved struct schema %d: %w", s.Schema, ErrUnmatchedSchema)
	}

	out := scratch.NewStruct(id, len(s.Members))

	for _, m := range s.Members {
		saved := m.Name
		if m.Name, ok = t.Name(saved); !ok {
			return nil, fmt.Errorf("saved member name %d of schema %d: %w", saved, s.Schema, ErrUnmatchedSchema)
		}

		var err error

		switch m.Type.Kind() {
		case schema.KindLeaf:
			if refOf(m.Type) == refEnum {
				m.Enum, m.Leaf, err = t.enumValue(m.Enum, m.Leaf)
			}
		case schema.KindStruct:
			if m.Struct != nil {
				m.Struct, err = t.applyStruct(m.Struct, scratch)
			}
		default:
			m.Range, err = t.applyRange(m.Range, scratch)
		}

		if err != nil {
			return nil, err
		}

		out.Members = append(out.Members, m)
	}

	return out, nil
}

func (t *Translation) applyRange(r *built.Range, scratch *built.Scratch) (*built.Range, error) {
	if r == nil {
		return nil, nil
	}

	out := scratch.NewRange()
	*out = *r

	switch refOf(r.ItemType) {
	case refStruct:
		id, ok := t.structs[ident.DeclID(r.ItemSchema)]
		if !ok {
			return nil, fmt.Errorf("saved item schema %d: %w", r.ItemSchema, ErrUnmatchedSchema)
		}

		out.ItemSchema = uint32(id)
	case refEnum:
		e, ok := t.enums[ident.EnumID(r.ItemSchema)]
		if !ok {
			return nil, fmt.Errorf("saved item enum %d: %w", r.ItemSchema, ErrUnmatchedSchema)
		}

		out.ItemSchema = uint32(e.id)

		if e.values != nil {
			w := r.ItemType.(schema.LeafType).Width
			out.Leaves = scratch.Bytes(len(r.Leaves))

			for i := range r.Num {
				v, err := e.value(r.LeafAt(i))
				if err != nil {
					return nil, err
				}

				built.WriteLeaf(out.Leaves[i*uint64(w.Bytes()):], w, v)
			}
		}
	}

	if r.Structs != nil {
		out.Structs = scratch.Structs(len(r.Structs))

		for i, s := range r.Structs {
			var err error
			if out.Structs[i], err = t.applyStruct(s, scratch); err != nil {
				return nil, err
			}
		}
	}

	if r.Ranges != nil {
		out.Ranges = scratch.Ranges(len(r.Ranges))

		for i, nested := range r.Ranges {
			var err error
			if out.Ranges[i], err = t.applyRange(nested, scratch); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

func (t *Translation) enumValue(saved ident.EnumID, v uint64) (ident.EnumID, uint64, error) {
	e, ok := t.enums[saved]
	if !ok {
		return 0, 0, fmt.Errorf("saved enum %d: %w", saved, ErrUnmatchedSchema)
	}

	out, err := e.value(v)

	return e.id, out, err
}

func (e *enumTranslation) value(v uint64) (uint64, error) {
	if e.values == nil {
		return v, nil
	}

	if !e.flag {
		out, ok := e.values[v]
		if !ok {
			return 0, fmt.Errorf("saved enum constant %d has no current enumerator: %w", v, ErrUnmatchedSchema)
		}

		return out, nil
	}

	var out uint64

	rest := v

	for from, to := range e.values {
		if from != 0 && v&from == from {
			out |= to
			rest &^= from
		}
	}

	if rest != 0 {
		return 0, fmt.Errorf("saved flags %#x have no current enumerators: %w", rest, ErrUnmatchedSchema)
	}

	return out, nil
}
