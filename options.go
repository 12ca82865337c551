package plainprops

import (
	"plainprops/bind"
	"plainprops/schema"
)

// Option configures Register and RegisterEnum.
type Option func(*registerConfig)

type registerConfig struct {
	typeName      string
	occupancy     schema.Occupancy
	lowerTo       *Handle
	superAsMember bool
	mapChunk      int
	aliasPolicy   schema.AliasPolicy
}

func newRegisterConfig(opts []Option) registerConfig {
	cfg := registerConfig{
		occupancy:   schema.AllowSparse,
		mapChunk:    bind.DefaultChunk,
		aliasPolicy: schema.AliasFail,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// WithTypeName persists the registered type under name instead of its Go
// name. The package path still scopes it.
func WithTypeName(name string) Option {
	return func(c *registerConfig) {
		c.typeName = name
	}
}

// WithOccupancy sets the occupancy of the registered type. Types reached
// from it keep their own, AllowSparse unless registered otherwise first.
func WithOccupancy(occ schema.Occupancy) Option {
	return func(c *registerConfig) {
		c.occupancy = occ
	}
}

// WithLowering binds the registered type to the declaration of h. Values
// of both types save identical trees; the member names must agree.
func WithLowering(h *Handle) Option {
	return func(c *registerConfig) {
		c.lowerTo = h
	}
}

// WithSuperAsMember persists a leading embedded struct as a plain struct
// member instead of the super.
func WithSuperAsMember() Option {
	return func(c *registerConfig) {
		c.superAsMember = true
	}
}

// WithMapChunk sets how many entries map and set members of the registered
// type yield per pull.
func WithMapChunk(n int) Option {
	return func(c *registerConfig) {
		c.mapChunk = n
	}
}

// WithAliasPolicy sets how RegisterEnum treats enumerators sharing a
// constant. The default fails.
func WithAliasPolicy(p schema.AliasPolicy) Option {
	return func(c *registerConfig) {
		c.aliasPolicy = p
	}
}
