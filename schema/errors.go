package schema

import "errors"

var (
	// ErrEnumAlias is returned when an enum declares the same constant twice
	// under AliasFail.
	ErrEnumAlias = errors.New("enum declares aliased constants")
	// ErrEnumOverflow is returned when an enumerator constant does not fit the
	// declared width.
	ErrEnumOverflow = errors.New("enum constant overflows declared width")
	// ErrMemberType is returned when text does not name a member type.
	ErrMemberType = errors.New("invalid member type")
)
