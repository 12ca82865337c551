package plainprops

import (
	"fmt"
	"reflect"
	"unsafe"

	"plainprops/built"
	"plainprops/engine"
	"plainprops/ident"
)

func bindingOf[T any](ctx *engine.Context) (ident.BindID, error) {
	t := reflect.TypeFor[T]()

	id, ok := ctx.Bindings.Lookup(t)
	if !ok {
		return ident.NoBind, fmt.Errorf("%v: %w", t, ErrNotRegistered)
	}

	return id, nil
}

// Save saves every member of v.
func Save[T any](ctx *engine.Context, v *T) (*built.Struct, error) {
	id, err := bindingOf[T](ctx)
	if err != nil {
		return nil, err
	}

	return engine.SaveStruct(unsafe.Pointer(v), id, ctx), nil
}

// SaveDelta saves the members of v that differ from def.
func SaveDelta[T any](ctx *engine.Context, v, def *T) (*built.Struct, error) {
	id, err := bindingOf[T](ctx)
	if err != nil {
		return nil, err
	}

	return engine.SaveStructDelta(unsafe.Pointer(v), unsafe.Pointer(def), id, ctx), nil
}

// SaveDeltaIfDiff is SaveDelta returning nil when v equals def.
func SaveDeltaIfDiff[T any](ctx *engine.Context, v, def *T) (*built.Struct, error) {
	id, err := bindingOf[T](ctx)
	if err != nil {
		return nil, err
	}

	return engine.SaveStructDeltaIfDiff(unsafe.Pointer(v), unsafe.Pointer(def), id, ctx), nil
}

// Load writes the members saved in src into dst. On error dst is unchanged.
func Load[T any](ctx *engine.Context, dst *T, src *built.Struct) error {
	id, err := bindingOf[T](ctx)
	if err != nil {
		return err
	}

	return engine.LoadStruct(unsafe.Pointer(dst), src, id, ctx)
}

// Diff reports whether a and b differ.
func Diff[T any](ctx *engine.Context, a, b *T) (bool, error) {
	id, err := bindingOf[T](ctx)
	if err != nil {
		return false, err
	}

	return engine.DiffStructs(unsafe.Pointer(a), unsafe.Pointer(b), id, ctx), nil
}

// DiffTracked is Diff that also returns the path to the first difference.
func DiffTracked[T any](ctx *engine.Context, a, b *T) (bool, engine.DiffPath, error) {
	id, err := bindingOf[T](ctx)
	if err != nil {
		return false, nil, err
	}

	diff, path := engine.DiffStructsTracked(unsafe.Pointer(a), unsafe.Pointer(b), id, ctx)

	return diff, path, nil
}
