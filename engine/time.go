package engine

import (
	"fmt"
	"time"

	"plainprops/built"
	"plainprops/ident"
)

// TimeNames are the member names of the time.Time declaration.
type TimeNames struct {
	Unix ident.NameID
	Nano ident.NameID
}

// NewTimeBinding saves time.Time as whole seconds and nanoseconds since the
// Unix epoch. Loaded times are in UTC.
func NewTimeBinding(decl ident.DeclID, names TimeNames) CustomBinding {
	return CustomFuncs[time.Time]{
		Save: func(src, _ *time.Time, ctx *Context) *built.Struct {
			b := built.NewMemberBuilder(ctx.Scratch)
			b.AddInt(names.Unix, src.Unix())
			b.AddInt(names.Nano, int64(src.Nanosecond()))

			return b.Build(decl)
		},
		Load: func(dst *time.Time, src *built.Struct, _ *Context) error {
			if src.Schema != decl {
				return fmt.Errorf("time: saved schema %d: %w", src.Schema, ErrSchemaMismatch)
			}

			sec, nsec := dst.Unix(), int64(dst.Nanosecond())

			if m, ok := src.Find(names.Unix); ok {
				sec = m.Int()
			}

			if m, ok := src.Find(names.Nano); ok {
				nsec = m.Int()
			}

			*dst = time.Unix(sec, nsec).UTC()

			return nil
		},
		Diff: func(a, b *time.Time, _ *Context) bool {
			return !a.Equal(*b)
		},
	}
}
