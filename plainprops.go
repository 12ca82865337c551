// Package plainprops derives persisted schemas from Go types and saves,
// loads and diffs their values through them.
//
// A Registry owns the stores of one process. Register binds a struct type
// and every type it reaches; the returned Handle keeps the bindings alive
// until released. Save, Load and Diff are typed shortcuts over package
// engine.
package plainprops

import (
	"errors"
	"reflect"
	"time"

	"plainprops/bind"
	"plainprops/engine"
	"plainprops/ident"
	"plainprops/schema"
)

var (
	// ErrUnsupportedType is returned when a field type cannot be persisted.
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrNotRegistered is returned when a value's type has no binding.
	ErrNotRegistered = errors.New("type not registered")
	// ErrRecursiveType is returned for types reaching each other through
	// ranges. A type may only range over itself.
	ErrRecursiveType = errors.New("mutually recursive types")
)

// Registry owns the id space, declarations and bindings of one process.
// Like the stores it wraps, it is not safe for concurrent registration.
type Registry struct {
	Ids          *ident.Ids
	Declarations *schema.Declarations
	Bindings     *bind.Bindings
	Customs      *engine.CustomBindings

	enums map[reflect.Type]ident.EnumID
}

// NewRegistry returns a registry with time.Time bound to a custom binding
// persisting Unix seconds and nanoseconds.
func NewRegistry() *Registry {
	ids := ident.NewIds()
	decls := schema.NewDeclarations(ids)

	r := &Registry{
		Ids:          ids,
		Declarations: decls,
		Bindings:     bind.NewBindings(decls),
		Customs:      engine.NewCustomBindings(),
		enums:        make(map[reflect.Type]ident.EnumID),
	}

	r.bindTime()

	return r
}

func (r *Registry) bindTime() {
	t := reflect.TypeFor[time.Time]()
	typ := r.typeIdent(t)
	decl := ident.DeclID(r.Ids.IndexStruct(typ))

	names := engine.TimeNames{Unix: r.Ids.MakeName("Unix"), Nano: r.Ids.MakeName("Nano")}
	r.Declarations.DeclareStruct(decl, typ, []ident.NameID{names.Unix, names.Nano}, schema.RequireAll, ident.NoDecl)
	r.Bindings.BindCustom(decl.Bind(), decl, t)
	r.Customs.Bind(decl.Bind(), decl, engine.NewTimeBinding(decl, names))
}

// Context returns an engine context over the stores of r.
func (r *Registry) Context(opts ...engine.Option) *engine.Context {
	return engine.NewContext(r.Bindings, r.Customs, opts...)
}

// BindID returns the bound id of t.
func (r *Registry) BindID(t reflect.Type) (ident.BindID, bool) {
	return r.Bindings.Lookup(t)
}

// TypeName formats the persisted type name of a bound id.
func (r *Registry) TypeName(id ident.BindID) string {
	return r.Ids.TypeString(r.Ids.StructType(id.Struct()))
}
