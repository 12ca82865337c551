package ident

import (
	"fmt"
	"strings"
)

// Ids interns every name, scope, typename and struct/enum type of one process.
//
// Ids is not safe for concurrent mutation. Registration is expected to happen
// before any concurrent reader starts.
type Ids struct {
	names      []string
	nameIndex  map[string]NameID
	nested     NestedScopeIndexer
	parametric ParametricTypeIndexer
	structs    typeIndexer
	enums      typeIndexer
}

// NewIds creates an empty id space.
func NewIds() *Ids {
	return &Ids{nameIndex: make(map[string]NameID)}
}

// MakeName interns s.
func (x *Ids) MakeName(s string) NameID {
	if id, ok := x.nameIndex[s]; ok {
		return id
	}

	id := NameID(len(x.names))
	x.nameIndex[s] = id
	x.names = append(x.names, s)

	return id
}

// FindName returns the id of s if it was interned.
func (x *Ids) FindName(s string) (NameID, bool) {
	id, ok := x.nameIndex[s]
	return id, ok
}

// ResolveName returns the string of id.
func (x *Ids) ResolveName(id NameID) string {
	if id == NoName {
		return ""
	}

	if int(id) >= len(x.names) {
		panic(fmt.Sprintf("ident: name %d out of range (%d)", id, len(x.names)))
	}

	return x.names[id]
}

// NumNames returns the number of interned names.
func (x *Ids) NumNames() int {
	return len(x.names)
}

// MakeScope interns a flat scope.
func (x *Ids) MakeScope(name string) ScopeID {
	return FlatScope(x.MakeName(name))
}

// NestScope interns name nested inside outer. A NoScope outer yields a flat scope.
func (x *Ids) NestScope(outer ScopeID, name string) ScopeID {
	if outer == NoScope {
		return x.MakeScope(name)
	}

	return x.nested.Index(NestedScope{Outer: outer, Inner: x.MakeName(name)})
}

// MakeScopePath interns a scope from a path of names, outermost first.
func (x *Ids) MakeScopePath(path ...string) ScopeID {
	scope := NoScope
	for _, p := range path {
		scope = x.NestScope(scope, p)
	}

	return scope
}

// NestedScopes exposes the nested scope indexer.
func (x *Ids) NestedScopes() *NestedScopeIndexer {
	return &x.nested
}

// ParametricTypes exposes the parametric type indexer.
func (x *Ids) ParametricTypes() *ParametricTypeIndexer {
	return &x.parametric
}

// MakeTypename interns a concrete typename.
func (x *Ids) MakeTypename(name string) TypenameID {
	return ConcreteTypename(x.MakeName(name))
}

// MakeType interns a concrete type in scope.
func (x *Ids) MakeType(scope ScopeID, name string) Type {
	return Type{Scope: scope, Name: x.MakeTypename(name)}
}

// MakeParametricType applies params to the concrete base type.
func (x *Ids) MakeParametricType(base Type, params []Type) Type {
	name := x.parametric.Index(ParametricType{Name: base.Name.AsConcrete(), Parameters: params})
	return Type{Scope: base.Scope, Name: name}
}

// IndexStruct returns the struct id of t, interning it if needed.
func (x *Ids) IndexStruct(t Type) StructID {
	return StructID(x.structs.indexOf(t))
}

// FindStruct returns the struct id of t if it was indexed.
func (x *Ids) FindStruct(t Type) (StructID, bool) {
	idx, ok := x.structs.find(t)
	return StructID(idx), ok
}

// StructType returns the type of a struct id.
func (x *Ids) StructType(id StructID) Type {
	return x.structs.resolve(uint32(id), "struct")
}

// NumStructs returns the number of indexed struct types.
func (x *Ids) NumStructs() int {
	return len(x.structs.types)
}

// IndexEnum returns the enum id of t, interning it if needed.
func (x *Ids) IndexEnum(t Type) EnumID {
	return EnumID(x.enums.indexOf(t))
}

// FindEnum returns the enum id of t if it was indexed.
func (x *Ids) FindEnum(t Type) (EnumID, bool) {
	idx, ok := x.enums.find(t)
	return EnumID(idx), ok
}

// EnumType returns the type of an enum id.
func (x *Ids) EnumType(id EnumID) Type {
	return x.enums.resolve(uint32(id), "enum")
}

// NumEnums returns the number of indexed enum types.
func (x *Ids) NumEnums() int {
	return len(x.enums.types)
}

// ScopeString formats a scope as a dotted path.
func (x *Ids) ScopeString(s ScopeID) string {
	var sb strings.Builder
	x.appendScope(&sb, s)

	return sb.String()
}

// TypeString formats t for diagnostics, e.g. "geo.shapes.Pair<int32,geo.Point>".
func (x *Ids) TypeString(t Type) string {
	var sb strings.Builder
	x.appendType(&sb, t)

	return sb.String()
}

func (x *Ids) appendScope(sb *strings.Builder, s ScopeID) {
	switch {
	case s == NoScope:
	case s.IsFlat():
		sb.WriteString(x.ResolveName(s.AsFlat()))
	default:
		nested := x.nested.Resolve(s.AsNested())
		x.appendScope(sb, nested.Outer)
		sb.WriteByte('.')
		sb.WriteString(x.ResolveName(nested.Inner))
	}
}

func (x *Ids) appendType(sb *strings.Builder, t Type) {
	if t.Scope != NoScope {
		x.appendScope(sb, t.Scope)
		sb.WriteByte('.')
	}

	if !t.Name.IsParametric() {
		sb.WriteString(x.ResolveName(t.Name.AsConcrete()))
		return
	}

	p := x.parametric.Resolve(t.Name.AsParametric())
	sb.WriteString(x.ResolveName(p.Name))
	sb.WriteByte('<')

	for i, param := range p.Parameters {
		if i > 0 {
			sb.WriteByte(',')
		}

		x.appendType(sb, param)
	}

	sb.WriteByte('>')
}
