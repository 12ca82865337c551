package schema

import (
	"fmt"
	"strings"
)

// ParseMemberType parses the text form of a member type, as returned by its
// String method.
func ParseMemberType(s string) (MemberType, error) {
	switch s {
	case "Struct":
		return StructType{}, nil
	case "Super":
		return StructType{IsSuper: true}, nil
	case "DynamicStruct":
		return StructType{Dynamic: true}, nil
	}

	if rest, ok := strings.CutPrefix(s, "Range"); ok {
		for c := range RangeSizeClass(NumRangeSizeClasses) {
			if c.String() == rest {
				return RangeType{SizeClass: c}, nil
			}
		}

		return nil, fmt.Errorf("%q: %w", s, ErrMemberType)
	}

	if rest, ok := strings.CutPrefix(s, "Bit"); ok {
		if len(rest) == 1 && rest[0] >= '0' && rest[0] <= '7' {
			return BitfieldType{Bit: rest[0] - '0'}, nil
		}

		return nil, fmt.Errorf("%q: %w", s, ErrMemberType)
	}

	for c := LeafBool; c <= LeafUnicode; c++ {
		rest, ok := strings.CutPrefix(s, c.String())
		if !ok {
			continue
		}

		for w := B8; w <= B64; w++ {
			if w.String()[1:] != rest {
				continue
			}

			t := LeafType{Category: c, Width: w}
			if !t.valid() {
				break
			}

			return t, nil
		}
	}

	return nil, fmt.Errorf("%q: %w", s, ErrMemberType)
}

func (t LeafType) valid() bool {
	switch t.Category {
	case LeafBool:
		return t.Width == B8
	case LeafFloat:
		return t.Width == B32 || t.Width == B64
	case LeafUnicode:
		return t.Width != B64
	default:
		return t.Category <= LeafUnicode && t.Width <= B64
	}
}
