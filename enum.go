package plainprops

import (
	"reflect"

	"github.com/golang/glog"

	"plainprops/ident"
	"plainprops/schema"
)

// Integer is the set of types RegisterEnum accepts.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Enumerator names one constant of an enum type.
type Enumerator[T Integer] struct {
	Name  string
	Value T
}

// EnumHandle keeps an enum declaration alive.
type EnumHandle struct {
	r        *Registry
	typ      reflect.Type
	id       ident.EnumID
	released bool
}

// ID returns the enum id of the registered type.
func (h *EnumHandle) ID() ident.EnumID { return h.id }

// Release drops the declaration reference. Releasing twice panics.
func (h *EnumHandle) Release() {
	schema.Check(!h.released, "EnumHandle.Release", "%v released twice", h.typ)
	h.released = true

	h.r.Declarations.DropEnumRef(h.id)
	if h.r.Declarations.FindEnum(h.id) == nil {
		delete(h.r.enums, h.typ)
	}
}

// RegisterEnum declares T as an enum. Fields of type T registered afterwards
// persist as enum leaves, by name of their constant. Negative values are
// stored in two's complement at the width of T. WithTypeName and
// WithAliasPolicy apply.
func RegisterEnum[T Integer](r *Registry, mode schema.EnumMode, enumerators []Enumerator[T], opts ...Option) (*EnumHandle, error) {
	cfg := newRegisterConfig(opts)
	t := reflect.TypeFor[T]()

	typ := r.typeIdent(t)
	if cfg.typeName != "" {
		typ = r.Ids.MakeType(typ.Scope, cfg.typeName)
	}

	width := schema.WidthOf(t.Size())
	mask := uint64(1)<<(8*width.Bytes()) - 1

	decl := make([]schema.Enumerator, len(enumerators))
	for i, e := range enumerators {
		decl[i] = schema.Enumerator{Name: r.Ids.MakeName(e.Name), Constant: uint64(e.Value) & mask}
	}

	id := r.Ids.IndexEnum(typ)
	if _, err := r.Declarations.DeclareEnum(id, typ, mode, width, decl, cfg.aliasPolicy); err != nil {
		return nil, err
	}

	r.enums[t] = id

	glog.V(1).Infof("plainprops: registered enum %v as %s (%d)", t, r.Ids.TypeString(typ), id)

	return &EnumHandle{r: r, typ: t, id: id}, nil
}
