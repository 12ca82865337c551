package batch

import (
	"errors"
	"fmt"
	"strings"

	"plainprops/ident"
	"plainprops/schema"
)

var (
	// ErrUnmatchedSchema is returned when a saved schema cannot be matched to
	// a declaration of the loading process.
	ErrUnmatchedSchema = errors.New("unmatched schema")
	// ErrMalformed is returned for batches whose tables reference missing or
	// later entries.
	ErrMalformed = errors.New("malformed schema batch")
)

// NoIndex marks an absent batch-local reference.
const NoIndex = -1

// Batch is the schema table of a set of saved values.
//
// Scope and typename ids inside Types use the tagging of package ident, but
// their indexes point into Names, NestedScopes and Parametrics.
type Batch struct {
	Names        []Name                 `yaml:"names"`
	NestedScopes []ident.NestedScope    `yaml:"nestedScopes,omitempty"`
	Parametrics  []ident.ParametricType `yaml:"parametrics,omitempty"`
	Enums        []EnumSchema           `yaml:"enums,omitempty"`
	Structs      []StructSchema         `yaml:"structs"`
}

// Name is a name with the id it had in the saving process.
type Name struct {
	ID   ident.NameID `yaml:"id"`
	Text string       `yaml:"text"`
}

// EnumSchema is a saved enum declaration.
type EnumSchema struct {
	ID          ident.EnumID      `yaml:"id"`
	Type        ident.Type        `yaml:"type"`
	Mode        schema.EnumMode   `yaml:"mode"`
	Width       schema.LeafWidth  `yaml:"width"`
	Enumerators []EnumeratorEntry `yaml:"enumerators"`
}

// EnumeratorEntry is one enumerator; Name indexes Batch.Names.
type EnumeratorEntry struct {
	Name     int    `yaml:"name"`
	Constant uint64 `yaml:"constant"`
}

// StructSchema is a saved struct declaration with the member types it was
// saved with. Structs always follow their super.
type StructSchema struct {
	ID        ident.DeclID     `yaml:"id"`
	Type      ident.Type       `yaml:"type"`
	Super     int              `yaml:"super"`
	Occupancy schema.Occupancy `yaml:"occupancy"`
	Members   []MemberSchema   `yaml:"members"`
}

// MemberSchema is one non-super member. Type is nil when no saved value or
// binding revealed it.
type MemberSchema struct {
	// Name indexes Batch.Names.
	Name int
	Type schema.MemberType
	// Items holds the item type of every range nesting level.
	Items []schema.MemberType
	// Schema indexes Batch.Structs for struct members and struct items, and
	// Batch.Enums for enum leaves and enum items.
	Schema int
}

// ItemType returns the innermost item type of a range member.
func (m *MemberSchema) ItemType() schema.MemberType {
	if len(m.Items) == 0 {
		return nil
	}

	return m.Items[len(m.Items)-1]
}

type refKind uint8

const (
	refNone refKind = iota
	refEnum
	refStruct
)

func refOf(t schema.MemberType) refKind {
	switch t := t.(type) {
	case schema.LeafType:
		if t.Category == schema.LeafEnum {
			return refEnum
		}
	case schema.StructType:
		if !t.Dynamic {
			return refStruct
		}
	}

	return refNone
}

// refersTo returns which table Schema indexes.
func (m *MemberSchema) refersTo() refKind {
	if _, ok := m.Type.(schema.RangeType); ok {
		return refOf(m.ItemType())
	}

	return refOf(m.Type)
}

// SchemaName returns the type name of the struct or enum m references, or
// "" when it references none.
func (b *Batch) SchemaName(m MemberSchema) string {
	switch m.refersTo() {
	case refEnum:
		return b.TypeString(b.Enums[m.Schema].Type)
	case refStruct:
		return b.TypeString(b.Structs[m.Schema].Type)
	default:
		return ""
	}
}

// NameText returns the text of name index i.
func (b *Batch) NameText(i int) string {
	if i < 0 || i >= len(b.Names) {
		return ""
	}

	return b.Names[i].Text
}

// ScopeString formats a batch-local scope.
func (b *Batch) ScopeString(s ident.ScopeID) string {
	var sb strings.Builder
	b.appendScope(&sb, s)

	return sb.String()
}

// TypeString formats a batch-local type, e.g. "geo.Pair<int32,geo.Point>".
func (b *Batch) TypeString(t ident.Type) string {
	var sb strings.Builder
	b.appendType(&sb, t)

	return sb.String()
}

func (b *Batch) appendScope(sb *strings.Builder, s ident.ScopeID) {
	switch {
	case s == ident.NoScope:
	case s.IsFlat():
		sb.WriteString(b.NameText(int(s.AsFlat())))
	default:
		idx := int(s.AsNested())
		if idx >= len(b.NestedScopes) {
			sb.WriteString("?")
			return
		}

		nested := b.NestedScopes[idx]
		b.appendScope(sb, nested.Outer)
		sb.WriteByte('.')
		sb.WriteString(b.NameText(int(nested.Inner)))
	}
}

func (b *Batch) appendType(sb *strings.Builder, t ident.Type) {
	if t.Scope != ident.NoScope {
		b.appendScope(sb, t.Scope)
		sb.WriteByte('.')
	}

	if !t.Name.IsParametric() {
		sb.WriteString(b.NameText(int(t.Name.AsConcrete())))
		return
	}

	idx := int(t.Name.AsParametric())
	if idx >= len(b.Parametrics) {
		sb.WriteString("?")
		return
	}

	p := b.Parametrics[idx]
	sb.WriteString(b.NameText(int(p.Name)))
	sb.WriteByte('<')

	for i, param := range p.Parameters {
		if i > 0 {
			sb.WriteByte(',')
		}

		b.appendType(sb, param)
	}

	sb.WriteByte('>')
}

// Validate checks that every reference points at an existing, earlier
// entry: nested scopes at earlier scopes, parametric types at earlier
// parametric types and structs at earlier supers.
func (b *Batch) Validate() error {
	for i, s := range b.NestedScopes {
		if err := b.checkScope(s.Outer, i); err != nil {
			return fmt.Errorf("nested scope %d: %w", i, err)
		}

		if err := b.checkName(int(s.Inner)); err != nil {
			return fmt.Errorf("nested scope %d: %w", i, err)
		}
	}

	for i, p := range b.Parametrics {
		if err := b.checkName(int(p.Name)); err != nil {
			return fmt.Errorf("parametric type %d: %w", i, err)
		}

		for _, param := range p.Parameters {
			if err := b.checkType(param, i); err != nil {
				return fmt.Errorf("parametric type %d: %w", i, err)
			}
		}
	}

	for i, e := range b.Enums {
		if err := b.checkType(e.Type, len(b.Parametrics)); err != nil {
			return fmt.Errorf("enum %d: %w", i, err)
		}

		for _, en := range e.Enumerators {
			if err := b.checkName(en.Name); err != nil {
				return fmt.Errorf("enum %d: %w", i, err)
			}
		}
	}

	for i := range b.Structs {
		if err := b.checkStruct(i); err != nil {
			return fmt.Errorf("struct %d: %w", i, err)
		}
	}

	return nil
}

func (b *Batch) checkStruct(i int) error {
	s := &b.Structs[i]

	if err := b.checkType(s.Type, len(b.Parametrics)); err != nil {
		return err
	}

	if s.Super != NoIndex && (s.Super < 0 || s.Super >= i) {
		return fmt.Errorf("super %d does not precede it: %w", s.Super, ErrMalformed)
	}

	for j := range s.Members {
		m := &s.Members[j]
		if err := b.checkName(m.Name); err != nil {
			return err
		}

		var limit int

		switch m.refersTo() {
		case refEnum:
			limit = len(b.Enums)
		case refStruct:
			limit = len(b.Structs)
		default:
			continue
		}

		if m.Schema < 0 || m.Schema >= limit {
			return fmt.Errorf("member %s schema %d out of range: %w", b.NameText(m.Name), m.Schema, ErrMalformed)
		}
	}

	return nil
}

func (b *Batch) checkName(i int) error {
	if i < 0 || i >= len(b.Names) {
		return fmt.Errorf("name %d out of range: %w", i, ErrMalformed)
	}

	return nil
}

// checkScope requires nested scopes to index below limit.
func (b *Batch) checkScope(s ident.ScopeID, limit int) error {
	switch {
	case s == ident.NoScope:
		return nil
	case s.IsFlat():
		return b.checkName(int(s.AsFlat()))
	case int(s.AsNested()) >= limit:
		return fmt.Errorf("nested scope %d does not precede it: %w", s.AsNested(), ErrMalformed)
	default:
		return nil
	}
}

// checkType requires parametric typenames to index below limit.
func (b *Batch) checkType(t ident.Type, limit int) error {
	if err := b.checkScope(t.Scope, len(b.NestedScopes)); err != nil {
		return err
	}

	if !t.Name.IsParametric() {
		return b.checkName(int(t.Name.AsConcrete()))
	}

	if int(t.Name.AsParametric()) >= limit {
		return fmt.Errorf("parametric type %d does not precede it: %w", t.Name.AsParametric(), ErrMalformed)
	}

	return nil
}
