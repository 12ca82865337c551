package plainprops_test

import (
	"fmt"

	"plainprops"
)

type Point struct {
	X, Y int32
}

type Path struct {
	Name   string
	Points []Point
	Closed bool
}

func Example() {
	r := plainprops.NewRegistry()

	h, err := plainprops.Register[Path](r)
	if err != nil {
		panic(err)
	}
	defer h.Release()

	ctx := r.Context()

	def := Path{Name: "edge", Points: []Point{{0, 0}, {1, 1}}}
	cur := def
	cur.Closed = true

	delta, err := plainprops.SaveDelta(ctx, &cur, &def)
	if err != nil {
		panic(err)
	}

	for _, m := range delta.Members {
		fmt.Println(r.Ids.ResolveName(m.Name), m.Bool())
	}

	loaded := def
	if err := plainprops.Load(ctx, &loaded, delta); err != nil {
		panic(err)
	}

	differs, _ := plainprops.Diff(ctx, &cur, &loaded)
	fmt.Println(r.TypeName(h.ID()), differs)

	// Output:
	// Closed true
	// plainprops_test.Path false
}
