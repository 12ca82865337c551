package built

import (
	"io"

	"github.com/davecgh/go-spew/spew"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Sdump renders a tree for debugging.
func Sdump(s *Struct) string {
	return dumper.Sdump(s)
}

// Fdump writes Sdump(s) to w.
func Fdump(w io.Writer, s *Struct) {
	dumper.Fdump(w, s)
}
