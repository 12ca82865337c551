package built

import (
	"math"

	"plainprops/schema"
)

// DefaultFloatULPs is the default float tolerance of diffs and delta saves.
const DefaultFloatULPs = 4

// EqualFloat64 reports whether a and b are equal within ulps units in the
// last place. Zeros of either sign are equal, NaNs equal each other, and
// values of opposite sign or infinities never match anything but themselves.
func EqualFloat64(a, b float64, ulps uint64) bool {
	if a == b {
		return true
	}

	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}

	if math.IsInf(a, 0) || math.IsInf(b, 0) || math.Signbit(a) != math.Signbit(b) {
		return false
	}

	ba, bb := math.Float64bits(a), math.Float64bits(b)
	if ba < bb {
		ba, bb = bb, ba
	}

	return ba-bb <= ulps
}

// EqualFloat32 is EqualFloat64 for 32 bit floats.
func EqualFloat32(a, b float32, ulps uint64) bool {
	if a == b {
		return true
	}

	fa, fb := float64(a), float64(b)
	if math.IsNaN(fa) || math.IsNaN(fb) {
		return math.IsNaN(fa) && math.IsNaN(fb)
	}

	if math.IsInf(fa, 0) || math.IsInf(fb, 0) || math.Signbit(fa) != math.Signbit(fb) {
		return false
	}

	ba, bb := math.Float32bits(a), math.Float32bits(b)
	if ba < bb {
		ba, bb = bb, ba
	}

	return uint64(ba-bb) <= ulps
}

// EqualLeaf compares the raw bits of two leaves of type t.
func EqualLeaf(t schema.MemberType, a, b, ulps uint64) bool {
	leaf, ok := t.(schema.LeafType)
	if !ok || leaf.Category != schema.LeafFloat {
		return a == b
	}

	if leaf.Width == schema.B32 {
		return EqualFloat32(math.Float32frombits(uint32(a)), math.Float32frombits(uint32(b)), ulps)
	}

	return EqualFloat64(math.Float64frombits(a), math.Float64frombits(b), ulps)
}
