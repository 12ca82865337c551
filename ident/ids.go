package ident

import "math"

const tagBit = 1 << 31

// NameID identifies an interned string.
type NameID uint32

// NoName marks an absent name, e.g. the implicit super member of a struct.
const NoName NameID = math.MaxUint32

// ScopeID identifies either a flat scope (a single name) or a nested scope.
type ScopeID uint32

// NoScope marks a type declared outside of any scope.
const NoScope ScopeID = math.MaxUint32

// FlatScope returns the scope id of a single-name scope.
func FlatScope(name NameID) ScopeID {
	return ScopeID(name)
}

// NestedScopeID returns the scope id of the nested scope at index idx.
func NestedScopeID(idx uint32) ScopeID {
	return ScopeID(idx | tagBit)
}

// IsNested reports whether s refers to a nested scope.
func (s ScopeID) IsNested() bool {
	return s != NoScope && s&tagBit != 0
}

// IsFlat reports whether s refers to a flat scope.
func (s ScopeID) IsFlat() bool {
	return s != NoScope && s&tagBit == 0
}

// AsFlat returns the name of a flat scope.
func (s ScopeID) AsFlat() NameID {
	if !s.IsFlat() {
		panic("ident: scope is not flat")
	}

	return NameID(s)
}

// AsNested returns the nested scope index of s.
func (s ScopeID) AsNested() uint32 {
	if !s.IsNested() {
		panic("ident: scope is not nested")
	}

	return uint32(s &^ tagBit)
}

// TypenameID identifies either a concrete or a parametric typename.
type TypenameID uint32

// ConcreteTypename returns the typename id of a plain name.
func ConcreteTypename(name NameID) TypenameID {
	return TypenameID(name)
}

// ParametricTypename returns the typename id of the parametric type at index idx.
func ParametricTypename(idx uint32) TypenameID {
	return TypenameID(idx | tagBit)
}

// IsParametric reports whether t refers to a parametric type.
func (t TypenameID) IsParametric() bool {
	return t&tagBit != 0
}

// AsConcrete returns the name of a concrete typename.
func (t TypenameID) AsConcrete() NameID {
	if t.IsParametric() {
		panic("ident: typename is parametric")
	}

	return NameID(t)
}

// AsParametric returns the parametric type index of t.
func (t TypenameID) AsParametric() uint32 {
	if !t.IsParametric() {
		panic("ident: typename is concrete")
	}

	return uint32(t &^ tagBit)
}

// Type is a scoped typename.
type Type struct {
	Scope ScopeID
	Name  TypenameID
}

// NestedScope is an inner name nested inside an outer scope.
type NestedScope struct {
	Outer ScopeID
	Inner NameID
}

// ParametricType is a concrete typename applied to an ordered parameter list.
type ParametricType struct {
	Name       NameID
	Parameters []Type
}

// StructID indexes an interned struct Type.
type StructID uint32

// DeclID is the persisted identity of a struct declaration.
type DeclID StructID

// BindID is the runtime identity of a struct binding.
type BindID StructID

// EnumID indexes an interned enum Type.
type EnumID uint32

// Struct returns the shared index of d.
func (d DeclID) Struct() StructID { return StructID(d) }

// Struct returns the shared index of b.
func (b BindID) Struct() StructID { return StructID(b) }

// Bind returns the bind id sharing the index of d, which is the bound id of
// every declaration that was not lowered.
func (d DeclID) Bind() BindID { return BindID(d) }

// NoDecl marks the absence of a declaration, e.g. a struct without super.
const NoDecl DeclID = math.MaxUint32

// NoBind marks the absence of a binding.
const NoBind BindID = math.MaxUint32
