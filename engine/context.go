package engine

import (
	"errors"

	"plainprops/bind"
	"plainprops/built"
	"plainprops/schema"
)

var (
	// ErrSchemaMismatch is returned when a saved value does not have the shape
	// of the binding it is loaded into.
	ErrSchemaMismatch = errors.New("saved value does not match binding")
	// ErrMissingMember is returned when a RequireAll struct lacks a member.
	ErrMissingMember = errors.New("required member missing")
	// ErrUnknownMember is returned when a saved struct has members the
	// declaration does not know, or has them out of order.
	ErrUnknownMember = errors.New("unknown member")
)

// Context carries the stores and the scratch arena of engine calls.
type Context struct {
	Declarations *schema.Declarations
	Bindings     *bind.Bindings
	Customs      *CustomBindings
	Scratch      *built.Scratch

	floatULPs uint64
}

// Option configures a Context.
type Option func(*Context)

// WithFloatULPs sets how many units in the last place two floats may differ
// by and still compare equal in diffs and delta saves.
func WithFloatULPs(ulps uint64) Option {
	return func(c *Context) {
		c.floatULPs = ulps
	}
}

// WithScratch makes saves allocate from scratch.
func WithScratch(scratch *built.Scratch) Option {
	return func(c *Context) {
		c.Scratch = scratch
	}
}

// NewContext returns a context over the given stores. customs may be nil.
func NewContext(bindings *bind.Bindings, customs *CustomBindings, opts ...Option) *Context {
	c := &Context{
		Declarations: bindings.Declarations(),
		Bindings:     bindings,
		Customs:      customs,
		floatULPs:    built.DefaultFloatULPs,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.Scratch == nil {
		c.Scratch = &built.Scratch{}
	}

	return c
}

// FloatULPs returns the float tolerance of c.
func (c *Context) FloatULPs() uint64 {
	return c.floatULPs
}
