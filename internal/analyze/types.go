package analyze

import (
	"errors"
	"reflect"
	"strings"
)

// ErrTag is returned for malformed pp tags.
var ErrTag = errors.New("malformed pp tag")

// TagKey is the struct tag key read by Fields.
const TagKey = "pp"

// TypeID uniquely identifies a type by its package path and name.
type TypeID struct {
	PkgPath string // e.g., "example.com/geo"
	Name    string // e.g., "Point"
}

// IDOf returns the TypeID of t. Unnamed types have an empty ID.
func IDOf(t reflect.Type) TypeID {
	return TypeID{PkgPath: t.PkgPath(), Name: t.Name()}
}

// String returns a human-readable representation of the TypeID.
func (t TypeID) String() string {
	if t.PkgPath == "" {
		return t.Name
	}

	return t.PkgPath + "." + t.Name
}

// IsNamed returns true if this type has a name.
func (t TypeID) IsNamed() bool {
	return t.Name != ""
}

// Scope splits the package path into scope names, outermost first.
func (t TypeID) Scope() []string {
	if t.PkgPath == "" {
		return nil
	}

	return strings.Split(t.PkgPath, "/")
}

// FieldInfo describes a persisted struct field.
type FieldInfo struct {
	Name     string            // Persisted name: the tag name or the Go field name
	GoName   string            // Go field name
	Exported bool              // Whether the field is exported
	Type     reflect.Type      // Field type
	Offset   uintptr           // Byte offset in the struct
	Tag      reflect.StructTag // Raw struct tag
	Embedded bool              // Whether the field is embedded (anonymous)
	Index    int               // Field index in the struct
	Options  TagOptions        // Parsed pp tag options
}

// TagOptions are the options of a pp tag.
type TagOptions struct {
	Hex     bool
	Unicode bool
	// Bits names the bitfield bools of a uint8, by bit index. Empty names
	// mark unused bits.
	Bits []string
}

// TypePath builds a readable path string for a type.
// Examples:
//   - "Order" for a simple struct
//   - "Order.Items" for a nested field
//   - "Order.Items[]" for a range field
//   - "Order.Items[].ProductID" for a field within range items
type TypePath struct {
	parts []string
}

// NewTypePath creates a new TypePath from a root type name.
func NewTypePath(root string) *TypePath {
	return &TypePath{
		parts: []string{root},
	}
}

// Field appends a field name to the path.
func (p *TypePath) Field(name string) *TypePath {
	return &TypePath{
		parts: append(append([]string{}, p.parts...), name),
	}
}

// Items appends a range indicator "[]" to the path.
func (p *TypePath) Items() *TypePath {
	if len(p.parts) == 0 {
		return &TypePath{parts: []string{"[]"}}
	}

	newParts := make([]string, len(p.parts))
	copy(newParts, p.parts)
	newParts[len(newParts)-1] += "[]"

	return &TypePath{parts: newParts}
}

// String returns the full path string.
func (p *TypePath) String() string {
	return strings.Join(p.parts, ".")
}
