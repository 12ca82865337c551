package schema

import (
	"fmt"
	"slices"

	"plainprops/ident"
)

// Occupancy controls whether a struct's members must all be present when a
// value is saved.
type Occupancy uint8

const (
	// RequireAll structs persist every declared member.
	RequireAll Occupancy = iota
	// AllowSparse structs may omit members, which delta save relies on.
	AllowSparse
)

func (o Occupancy) String() string {
	if o == AllowSparse {
		return "AllowSparse"
	}

	return "RequireAll"
}

// EnumMode tells whether enum values are single enumerators or bit flags.
type EnumMode uint8

const (
	Flat EnumMode = iota
	Flag
)

func (m EnumMode) String() string {
	if m == Flag {
		return "Flag"
	}

	return "Flat"
}

// AliasPolicy controls what DeclareEnum does with enumerators sharing a
// constant.
type AliasPolicy uint8

const (
	// AliasStrip keeps the first enumerator of each constant.
	AliasStrip AliasPolicy = iota
	// AliasFail rejects the declaration.
	AliasFail
)

// Enumerator is a named enum constant.
type Enumerator struct {
	Name     ident.NameID
	Constant uint64
}

// StructDeclaration is the persisted shape of a struct type. Names excludes
// the super member, which is implied by Super.
type StructDeclaration struct {
	ID        ident.DeclID
	Type      ident.Type
	Super     ident.DeclID
	Names     []ident.NameID
	Occupancy Occupancy

	refs uint32
}

// HasSuper reports whether d derives from another declaration.
func (d *StructDeclaration) HasSuper() bool {
	return d.Super != ident.NoDecl
}

// NumMembers returns the number of members including the super member.
func (d *StructDeclaration) NumMembers() int {
	if d.HasSuper() {
		return len(d.Names) + 1
	}

	return len(d.Names)
}

// RefCount returns the number of live declare calls.
func (d *StructDeclaration) RefCount() uint32 {
	return d.refs
}

func (d *StructDeclaration) sameShape(typ ident.Type, names []ident.NameID, occ Occupancy, super ident.DeclID) bool {
	return d.Type == typ && d.Occupancy == occ && d.Super == super && slices.Equal(d.Names, names)
}

// EnumDeclaration is the persisted shape of an enum type.
type EnumDeclaration struct {
	ID          ident.EnumID
	Type        ident.Type
	Mode        EnumMode
	Width       LeafWidth
	Enumerators []Enumerator

	refs uint32
}

// RefCount returns the number of live declare calls.
func (d *EnumDeclaration) RefCount() uint32 {
	return d.refs
}

// Lookup returns the enumerator name of constant c.
func (d *EnumDeclaration) Lookup(c uint64) (ident.NameID, bool) {
	for _, e := range d.Enumerators {
		if e.Constant == c {
			return e.Name, true
		}
	}

	return ident.NoName, false
}

// Decompose splits a flag value into enumerator names, lowest bit first. It
// fails when a set bit is not covered by any enumerator.
func (d *EnumDeclaration) Decompose(v uint64) ([]ident.NameID, bool) {
	if v == 0 {
		name, ok := d.Lookup(0)
		if !ok {
			return nil, true
		}

		return []ident.NameID{name}, true
	}

	var out []ident.NameID

	rest := v

	for _, e := range d.Enumerators {
		if e.Constant != 0 && v&e.Constant == e.Constant {
			out = append(out, e.Name)
			rest &^= e.Constant
		}
	}

	return out, rest == 0
}

// Declarations stores struct and enum declarations indexed by id.
type Declarations struct {
	ids     *ident.Ids
	structs []*StructDeclaration
	enums   []*EnumDeclaration
}

// NewDeclarations creates an empty store. ids is used to render diagnostics.
func NewDeclarations(ids *ident.Ids) *Declarations {
	return &Declarations{ids: ids}
}

// Ids returns the id space used for diagnostics, which may be nil.
func (s *Declarations) Ids() *ident.Ids {
	return s.ids
}

func (s *Declarations) typeName(t ident.Type) string {
	if s.ids == nil {
		return fmt.Sprintf("%+v", t)
	}

	return s.ids.TypeString(t)
}

// DeclareStruct registers or re-references a struct declaration. Declaring
// the same id with a different shape panics.
func (s *Declarations) DeclareStruct(id ident.DeclID, typ ident.Type, names []ident.NameID,
	occupancy Occupancy, super ident.DeclID,
) *StructDeclaration {
	const op = "DeclareStruct"

	Check(id != ident.NoDecl, op, "invalid declaration id")

	if super != ident.NoDecl {
		Check(s.Find(super) != nil, op, "%s derives from undeclared struct %d", s.typeName(typ), super)
	}

	seen := make(map[ident.NameID]struct{}, len(names))
	for _, n := range names {
		Check(n != ident.NoName, op, "%s has an unnamed member", s.typeName(typ))

		_, dup := seen[n]
		Check(!dup, op, "%s declares member %q twice", s.typeName(typ), s.nameString(n))
		seen[n] = struct{}{}
	}

	if existing := s.Find(id); existing != nil {
		Check(existing.sameShape(typ, names, occupancy, super), op,
			"%s redeclared with a different shape", s.typeName(typ))
		existing.refs++

		return existing
	}

	decl := &StructDeclaration{
		ID:        id,
		Type:      typ,
		Super:     super,
		Names:     slices.Clone(names),
		Occupancy: occupancy,
		refs:      1,
	}

	s.structs = growTo(s.structs, int(id)+1)
	s.structs[id] = decl

	return decl
}

// DropStructRef releases one reference; the last release removes the
// declaration.
func (s *Declarations) DropStructRef(id ident.DeclID) {
	decl := s.Get(id)

	decl.refs--
	if decl.refs == 0 {
		s.structs[id] = nil
	}
}

// Get returns a live declaration and panics when there is none.
func (s *Declarations) Get(id ident.DeclID) *StructDeclaration {
	decl := s.Find(id)
	if decl == nil {
		Violation("Declarations.Get", "struct %d is not declared", id)
	}

	return decl
}

// Find returns a live declaration or nil.
func (s *Declarations) Find(id ident.DeclID) *StructDeclaration {
	if int(id) >= len(s.structs) {
		return nil
	}

	return s.structs[id]
}

// NumStructSlots returns one past the highest declared struct id.
func (s *Declarations) NumStructSlots() int {
	return len(s.structs)
}

// DeclareEnum registers or re-references an enum declaration. Constants that
// overflow width, or aliases under AliasFail, are returned as errors; a
// conflicting redeclaration panics.
func (s *Declarations) DeclareEnum(id ident.EnumID, typ ident.Type, mode EnumMode, width LeafWidth,
	enumerators []Enumerator, policy AliasPolicy,
) (*EnumDeclaration, error) {
	const op = "DeclareEnum"

	Check(width <= B64, op, "invalid enum width %d", width)

	limit := uint64(1)<<(8*width.Bytes()) - 1
	if width == B64 {
		limit = ^uint64(0)
	}

	kept := make([]Enumerator, 0, len(enumerators))
	constants := make(map[uint64]ident.NameID, len(enumerators))

	for _, e := range enumerators {
		if e.Constant > limit {
			return nil, fmt.Errorf("failed to declare %s: %s=%d: %w",
				s.typeName(typ), s.nameString(e.Name), e.Constant, ErrEnumOverflow)
		}

		if prev, ok := constants[e.Constant]; ok {
			if policy == AliasFail {
				return nil, fmt.Errorf("failed to declare %s: %s and %s: %w",
					s.typeName(typ), s.nameString(prev), s.nameString(e.Name), ErrEnumAlias)
			}

			continue
		}

		constants[e.Constant] = e.Name
		kept = append(kept, e)
	}

	if existing := s.FindEnum(id); existing != nil {
		Check(existing.Type == typ && existing.Mode == mode && existing.Width == width &&
			slices.Equal(existing.Enumerators, kept), op, "%s redeclared with a different shape", s.typeName(typ))
		existing.refs++

		return existing, nil
	}

	decl := &EnumDeclaration{
		ID:          id,
		Type:        typ,
		Mode:        mode,
		Width:       width,
		Enumerators: kept,
		refs:        1,
	}

	s.enums = growTo(s.enums, int(id)+1)
	s.enums[id] = decl

	return decl, nil
}

// DropEnumRef releases one enum reference.
func (s *Declarations) DropEnumRef(id ident.EnumID) {
	decl := s.GetEnum(id)

	decl.refs--
	if decl.refs == 0 {
		s.enums[id] = nil
	}
}

// GetEnum returns a live enum declaration and panics when there is none.
func (s *Declarations) GetEnum(id ident.EnumID) *EnumDeclaration {
	decl := s.FindEnum(id)
	if decl == nil {
		Violation("Declarations.GetEnum", "enum %d is not declared", id)
	}

	return decl
}

// FindEnum returns a live enum declaration or nil.
func (s *Declarations) FindEnum(id ident.EnumID) *EnumDeclaration {
	if int(id) >= len(s.enums) {
		return nil
	}

	return s.enums[id]
}

func (s *Declarations) nameString(n ident.NameID) string {
	if s.ids == nil {
		return fmt.Sprint(uint32(n))
	}

	return s.ids.ResolveName(n)
}

func growTo[T any](items []*T, n int) []*T {
	if len(items) >= n {
		return items
	}

	return append(items, make([]*T, n-len(items))...)
}
