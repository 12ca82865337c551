package plainprops_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plainprops"
	"plainprops/engine"
	"plainprops/schema"
)

type Color uint8

const (
	Red Color = iota + 1
	Green
	Blue
)

type Entity struct {
	ID   uint32
	Name string
}

type Shape interface {
	Area() float64
}

type Square struct {
	Side float64
}

func (s *Square) Area() float64 { return s.Side * s.Side }

type Item struct {
	Entity

	Color   Color
	Flags   uint8  `pp:",bits=Visible|Locked"`
	Mask    uint32 `pp:"mask,hex"`
	Created time.Time
	Tags    []string
	Scores  map[string]int32
	Seen    map[int64]struct{}
	Grid    [2][3]int16
	Next    *Entity
	Shape   Shape
	Cache   []byte `pp:"-"`
}

type world struct {
	reg  *plainprops.Registry
	ctx  *engine.Context
	item *plainprops.Handle
}

func newWorld(t *testing.T, opts ...plainprops.Option) *world {
	t.Helper()

	r := plainprops.NewRegistry()

	_, err := plainprops.RegisterEnum(r, schema.Flat, []plainprops.Enumerator[Color]{
		{Name: "Red", Value: Red},
		{Name: "Green", Value: Green},
		{Name: "Blue", Value: Blue},
	})
	require.NoError(t, err)

	_, err = plainprops.Register[Square](r)
	require.NoError(t, err)

	item, err := plainprops.Register[Item](r, opts...)
	require.NoError(t, err)

	return &world{reg: r, ctx: r.Context(), item: item}
}

func sampleItem() Item {
	return Item{
		Entity:  Entity{ID: 7, Name: "lamp"},
		Color:   Green,
		Flags:   0b10,
		Mask:    0xdeadbeef,
		Created: time.Date(2024, 3, 1, 12, 30, 0, 500, time.UTC),
		Tags:    []string{"red", "", "blue"},
		Scores:  map[string]int32{"b": 2, "a": 1, "c": 3},
		Seen:    map[int64]struct{}{9: {}, -1: {}},
		Grid:    [2][3]int16{{1, 2, 3}, {-4, -5, -6}},
		Next:    &Entity{ID: 8, Name: "shade"},
		Shape:   &Square{Side: 2},
	}
}

func TestRegister_RoundTrip(t *testing.T) {
	t.Parallel()

	w := newWorld(t)

	for name, x := range map[string]Item{
		"sample": sampleItem(),
		"zero":   {},
	} {
		t.Run(name, func(t *testing.T) {
			x.Cache = nil

			saved, err := plainprops.Save(w.ctx, &x)
			require.NoError(t, err)

			var y Item
			require.NoError(t, plainprops.Load(w.ctx, &y, saved))
			assert.Equal(t, x, y)

			differs, err := plainprops.Diff(w.ctx, &x, &y)
			require.NoError(t, err)
			assert.False(t, differs)
		})
	}
}

func TestRegister_Shape(t *testing.T) {
	t.Parallel()

	w := newWorld(t)
	ids := w.reg.Ids

	assert.Equal(t, "plainprops_test.Item", w.reg.TypeName(w.item.ID()))

	decl := w.reg.Declarations.Get(w.item.Decl())
	require.True(t, decl.HasSuper())

	names := make([]string, len(decl.Names))
	for i, n := range decl.Names {
		names[i] = ids.ResolveName(n)
	}

	assert.Equal(t, []string{
		"Color", "Visible", "Locked", "mask", "Created", "Tags", "Scores", "Seen", "Grid", "Next", "Shape",
	}, names)

	x := sampleItem()
	saved, err := plainprops.Save(w.ctx, &x)
	require.NoError(t, err)

	super, ok := saved.Super()
	require.True(t, ok)
	assert.Equal(t, uint64(7), super.Members[0].Uint())

	mask, _ := saved.Find(ids.MakeName("mask"))
	assert.Equal(t, schema.LeafType{Category: schema.LeafHex, Width: schema.B32}, mask.Type)

	visible, _ := saved.Find(ids.MakeName("Visible"))
	locked, _ := saved.Find(ids.MakeName("Locked"))
	assert.False(t, visible.Bool())
	assert.True(t, locked.Bool())

	scores, _ := saved.Find(ids.MakeName("Scores"))
	require.Equal(t, uint64(3), scores.Range.Num)
	assert.Equal(t, "a", scores.Range.Structs[0].Members[0].Range.String())
	assert.Equal(t, "plainprops.Pair<string,int32>",
		w.reg.TypeName(scores.Range.Structs[0].Schema.Bind()))

	shape, _ := saved.Find(ids.MakeName("Shape"))
	sq, ok := w.reg.BindID(reflect.TypeFor[Square]())
	require.True(t, ok)
	assert.Equal(t, w.reg.Bindings.Lower(sq), shape.Struct.Schema)
}

func TestSaveDelta(t *testing.T) {
	t.Parallel()

	w := newWorld(t)
	def := sampleItem()

	x := sampleItem()
	x.Name = "bulb"
	x.Tags = append(x.Tags, "green")
	x.Shape = &Square{Side: 2}

	saved, err := plainprops.SaveDelta(w.ctx, &x, &def)
	require.NoError(t, err)

	super, ok := saved.Super()
	require.True(t, ok)
	assert.Len(t, super.Members, 1)
	require.Len(t, saved.Members, 2)

	y := sampleItem()
	require.NoError(t, plainprops.Load(w.ctx, &y, saved))
	assert.Equal(t, x, y)

	same, err := plainprops.SaveDeltaIfDiff(w.ctx, &def, &def)
	require.NoError(t, err)
	assert.Nil(t, same)
}

func TestDiffTracked(t *testing.T) {
	t.Parallel()

	w := newWorld(t)
	a, b := sampleItem(), sampleItem()

	for name, tt := range map[string]struct {
		mutate func(x *Item)
		want   string
	}{
		"super":  {func(x *Item) { x.Name = "x" }, "(super).Name"},
		"tag":    {func(x *Item) { x.Tags[1] = "x" }, "Tags[1]"},
		"grid":   {func(x *Item) { x.Grid[1][2] = 0 }, "Grid[1][2]"},
		"bit":    {func(x *Item) { x.Flags = 0b11 }, "Visible"},
		"shape":  {func(x *Item) { x.Shape = &Square{Side: 3} }, "Shape.Side"},
		"scores": {func(x *Item) { x.Scores = map[string]int32{"a": 1} }, "Scores"},
	} {
		t.Run(name, func(t *testing.T) {
			b := b
			b.Tags = append([]string(nil), a.Tags...)
			tt.mutate(&b)

			differs, path, err := plainprops.DiffTracked(w.ctx, &a, &b)
			require.NoError(t, err)
			assert.True(t, differs)
			assert.Equal(t, tt.want, path.Format(w.reg.Ids))
		})
	}
}

type Tree struct {
	Value    int32
	Children []Tree
}

type Chain struct {
	Value int32
	Next  *Chain
}

type Ping struct {
	Pongs []Pong
}

type Pong struct {
	Pings []Ping
}

func TestRegister_Recursion(t *testing.T) {
	t.Parallel()

	r := plainprops.NewRegistry()
	ctx := r.Context()

	_, err := plainprops.Register[Tree](r)
	require.NoError(t, err)

	_, err = plainprops.Register[Chain](r)
	require.NoError(t, err)

	tree := Tree{Value: 1, Children: []Tree{{Value: 2}, {Value: 3, Children: []Tree{{Value: 4}}}}}
	saved, err := plainprops.Save(ctx, &tree)
	require.NoError(t, err)

	var loaded Tree
	require.NoError(t, plainprops.Load(ctx, &loaded, saved))
	assert.Equal(t, tree, loaded)

	chain := Chain{Value: 1, Next: &Chain{Value: 2, Next: &Chain{Value: 3}}}
	saved, err = plainprops.Save(ctx, &chain)
	require.NoError(t, err)

	var c Chain
	require.NoError(t, plainprops.Load(ctx, &c, saved))
	assert.Equal(t, chain, c)

	_, err = plainprops.Register[Ping](r)
	require.ErrorIs(t, err, plainprops.ErrRecursiveType)

	_, ok := r.BindID(reflect.TypeFor[Pong]())
	assert.False(t, ok, "failed registration leaves nothing bound")
}

func TestRegister_Unsupported(t *testing.T) {
	t.Parallel()

	for name, typ := range map[string]reflect.Type{
		"chan": reflect.TypeFor[struct{ C chan int }](),
		"func": reflect.TypeFor[struct{ F func() }](),
		"struct keys": reflect.TypeFor[struct {
			M map[Entity]int32
		}](),
		"dynamic items": reflect.TypeFor[struct{ S []Shape }](),
		"hex float": reflect.TypeFor[struct {
			F float32 `pp:",hex"`
		}](),
		"unicode 64": reflect.TypeFor[struct {
			U uint64 `pp:",unicode"`
		}](),
		"not a struct":   reflect.TypeFor[[]int32](),
		"complex number": reflect.TypeFor[struct{ C complex64 }](),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := plainprops.NewRegistry().Register(typ)
			require.ErrorIs(t, err, plainprops.ErrUnsupportedType)
		})
	}
}

func TestRegister_ConflictingDeclaration(t *testing.T) {
	t.Parallel()

	r := plainprops.NewRegistry()

	item, err := plainprops.Register[Item](r)
	require.NoError(t, err)

	entity, ok := r.BindID(reflect.TypeFor[Entity]())
	require.True(t, ok)

	_, err = plainprops.Register[Entity](r, plainprops.WithOccupancy(schema.RequireAll))
	require.ErrorIs(t, err, plainprops.ErrUnsupportedType)
	assert.Contains(t, err.Error(), "AllowSparse")
	assert.Equal(t, schema.AllowSparse, r.Declarations.Get(r.Bindings.Lower(entity)).Occupancy)

	_, err = plainprops.Register[Item](r, plainprops.WithSuperAsMember())
	require.ErrorIs(t, err, plainprops.ErrUnsupportedType)
	assert.True(t, r.Declarations.Get(item.Decl()).HasSuper())

	again, err := plainprops.Register[Entity](r)
	require.NoError(t, err)
	assert.Equal(t, entity, again.ID())
	again.Release()
}

func TestNotRegistered(t *testing.T) {
	t.Parallel()

	ctx := plainprops.NewRegistry().Context()
	x := Entity{}

	_, err := plainprops.Save(ctx, &x)
	require.ErrorIs(t, err, plainprops.ErrNotRegistered)
	require.ErrorIs(t, plainprops.Load(ctx, &x, nil), plainprops.ErrNotRegistered)

	_, err = plainprops.Diff(ctx, &x, &x)
	require.ErrorIs(t, err, plainprops.ErrNotRegistered)
}

type EntityView struct {
	ID   uint32
	Name string
}

type EntityBad struct {
	Name string
}

func TestRegister_Lowering(t *testing.T) {
	t.Parallel()

	r := plainprops.NewRegistry()
	ctx := r.Context()

	entity, err := plainprops.Register[Entity](r)
	require.NoError(t, err)

	view, err := plainprops.Register[EntityView](r, plainprops.WithLowering(entity))
	require.NoError(t, err)
	assert.Equal(t, entity.Decl(), view.Decl())
	assert.NotEqual(t, entity.ID(), view.ID())

	e := Entity{ID: 3, Name: "x"}
	v := EntityView(e)

	se, err := plainprops.Save(ctx, &e)
	require.NoError(t, err)
	sv, err := plainprops.Save(ctx, &v)
	require.NoError(t, err)
	assert.Equal(t, se, sv)

	var back EntityView
	require.NoError(t, plainprops.Load(ctx, &back, se))
	assert.Equal(t, v, back)

	_, err = plainprops.Register[EntityBad](r, plainprops.WithLowering(entity))
	require.ErrorIs(t, err, plainprops.ErrUnsupportedType)
}

func TestRegister_Options(t *testing.T) {
	t.Parallel()

	r := plainprops.NewRegistry()

	h, err := plainprops.Register[Item](r,
		plainprops.WithTypeName("Thing"),
		plainprops.WithOccupancy(schema.RequireAll),
		plainprops.WithSuperAsMember(),
	)
	require.NoError(t, err)

	assert.Equal(t, "plainprops_test.Thing", r.TypeName(h.ID()))

	decl := r.Declarations.Get(h.Decl())
	assert.False(t, decl.HasSuper())
	assert.Equal(t, schema.RequireAll, decl.Occupancy)
	assert.Equal(t, "Entity", r.Ids.ResolveName(decl.Names[0]))

	entity, ok := r.BindID(reflect.TypeFor[Entity]())
	require.True(t, ok)
	assert.Equal(t, schema.AllowSparse, r.Declarations.Get(r.Bindings.Lower(entity)).Occupancy)
}

func TestHandle_Release(t *testing.T) {
	t.Parallel()

	r := plainprops.NewRegistry()

	a, err := plainprops.Register[Entity](r)
	require.NoError(t, err)
	b, err := plainprops.Register[Entity](r)
	require.NoError(t, err)
	require.Equal(t, a.ID(), b.ID())

	a.Release()

	_, ok := r.BindID(reflect.TypeFor[Entity]())
	assert.True(t, ok)

	b.Release()

	_, ok = r.BindID(reflect.TypeFor[Entity]())
	assert.False(t, ok)
	assert.Nil(t, r.Declarations.Find(b.Decl()))

	assert.Panics(t, b.Release)
}

type Mode int8

func TestRegisterEnum(t *testing.T) {
	t.Parallel()

	r := plainprops.NewRegistry()

	h, err := plainprops.RegisterEnum(r, schema.Flat, []plainprops.Enumerator[Mode]{
		{Name: "Off", Value: -1},
		{Name: "On", Value: 1},
	}, plainprops.WithTypeName("Switch"))
	require.NoError(t, err)

	decl := r.Declarations.GetEnum(h.ID())
	assert.Equal(t, schema.B8, decl.Width)
	assert.Equal(t, uint64(0xff), decl.Enumerators[0].Constant)
	assert.Equal(t, "plainprops_test.Switch", r.Ids.TypeString(decl.Type))

	h.Release()
	assert.Nil(t, r.Declarations.FindEnum(h.ID()))

	_, err = plainprops.RegisterEnum(r, schema.Flat, []plainprops.Enumerator[Mode]{
		{Name: "A", Value: 1},
		{Name: "B", Value: 1},
	})
	require.ErrorIs(t, err, schema.ErrEnumAlias)

	_, err = plainprops.RegisterEnum(r, schema.Flat, []plainprops.Enumerator[Mode]{
		{Name: "A", Value: 1},
		{Name: "B", Value: 1},
	}, plainprops.WithAliasPolicy(schema.AliasStrip))
	require.NoError(t, err)
}
