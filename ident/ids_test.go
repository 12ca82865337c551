package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNestedScopeIndexer(t *testing.T) {
	s0, s1, s2 := FlatScope(0), FlatScope(1), FlatScope(2)

	n01 := NestedScope{Outer: s0, Inner: 1}
	n10 := NestedScope{Outer: s1, Inner: 0}
	n12 := NestedScope{Outer: s1, Inner: 2}

	var indexer NestedScopeIndexer

	id01 := indexer.Index(n01)
	id10 := indexer.Index(n10)
	id12 := indexer.Index(n12)

	n012 := NestedScope{Outer: id01, Inner: s2.AsFlat()}
	id012 := indexer.Index(n012)

	n0120 := NestedScope{Outer: id012, Inner: s0.AsFlat()}
	id0120 := indexer.Index(n0120)

	assert.Equal(t, id01, indexer.Index(n01))
	assert.Equal(t, id10, indexer.Index(n10))
	assert.Equal(t, id12, indexer.Index(n12))
	assert.Equal(t, id012, indexer.Index(n012))
	assert.Equal(t, id0120, indexer.Index(n0120))

	assert.Equal(t, n01, indexer.Resolve(id01.AsNested()))
	assert.Equal(t, n10, indexer.Resolve(id10.AsNested()))
	assert.Equal(t, n12, indexer.Resolve(id12.AsNested()))
	assert.Equal(t, n012, indexer.Resolve(id012.AsNested()))
	assert.Equal(t, n0120, indexer.Resolve(id0120.AsNested()))
	assert.Equal(t, 5, indexer.Num())

	found, ok := indexer.Find(n012)
	assert.True(t, ok)
	assert.Equal(t, id012, found)

	_, ok = indexer.Find(NestedScope{Outer: s2, Inner: 7})
	assert.False(t, ok)
}

func TestParametricTypeIndexer(t *testing.T) {
	s0, s1, s2 := FlatScope(0), FlatScope(1), FlatScope(2)
	t3 := ConcreteTypename(3)

	s0t3 := Type{Scope: s0, Name: t3}
	s1t3 := Type{Scope: s1, Name: t3}

	var indexer ParametricTypeIndexer

	t4s0t3 := indexer.Index(ParametricType{Name: 4, Parameters: []Type{s0t3}})
	t4s1t3 := indexer.Index(ParametricType{Name: 4, Parameters: []Type{s1t3}})
	assert.NotEqual(t, t4s0t3, t4s1t3)
	assert.True(t, t4s0t3.IsParametric())

	assert.Equal(t, ParametricType{Name: 4, Parameters: []Type{s0t3}}, indexer.Resolve(t4s0t3.AsParametric()))

	s1t4 := Type{Scope: s1, Name: t4s0t3}
	s2t4 := Type{Scope: s2, Name: t4s1t3}

	t5 := indexer.Index(ParametricType{Name: 5, Parameters: []Type{s1t4, s2t4}})
	assert.Equal(t, []Type{s1t4, s2t4}, indexer.Resolve(t5.AsParametric()).Parameters)

	assert.Equal(t, t4s0t3, indexer.Index(ParametricType{Name: 4, Parameters: []Type{s0t3}}))
	assert.Equal(t, t5, indexer.Index(ParametricType{Name: 5, Parameters: []Type{s1t4, s2t4}}))
	assert.Equal(t, 3, indexer.Num())
}

func TestIds_TypeString(t *testing.T) {
	ids := NewIds()

	geo := ids.MakeScopePath("geo", "shapes")
	point := ids.MakeType(geo, "Point")
	i32 := ids.MakeType(NoScope, "int32")
	pair := ids.MakeParametricType(ids.MakeType(geo, "Pair"), []Type{i32, point})

	assert.Equal(t, "geo.shapes", ids.ScopeString(geo))
	assert.Equal(t, "geo.shapes.Point", ids.TypeString(point))
	assert.Equal(t, "geo.shapes.Pair<int32,geo.shapes.Point>", ids.TypeString(pair))

	again := ids.MakeParametricType(ids.MakeType(ids.MakeScopePath("geo", "shapes"), "Pair"), []Type{i32, point})
	assert.Equal(t, pair, again)
}

func TestIds_StructAndEnumSpaces(t *testing.T) {
	ids := NewIds()
	scope := ids.MakeScope("test")

	a := ids.IndexStruct(ids.MakeType(scope, "A"))
	b := ids.IndexStruct(ids.MakeType(scope, "B"))
	e := ids.IndexEnum(ids.MakeType(scope, "A"))

	require.NotEqual(t, a, b)
	assert.Equal(t, a, ids.IndexStruct(ids.MakeType(scope, "A")))
	assert.Equal(t, EnumID(0), e)
	assert.Equal(t, 2, ids.NumStructs())
	assert.Equal(t, 1, ids.NumEnums())

	found, ok := ids.FindStruct(ids.MakeType(scope, "B"))
	assert.True(t, ok)
	assert.Equal(t, b, found)

	_, ok = ids.FindStruct(ids.MakeType(scope, "C"))
	assert.False(t, ok)

	assert.Equal(t, "test.A", ids.TypeString(ids.StructType(a)))
	assert.Equal(t, DeclID(a).Bind(), BindID(a))
}

func TestScopeID_Panics(t *testing.T) {
	assert.Panics(t, func() { NestedScopeID(1).AsFlat() })
	assert.Panics(t, func() { FlatScope(1).AsNested() })
	assert.Panics(t, func() { ParametricTypename(0).AsConcrete() })
	assert.False(t, NoScope.IsFlat())
	assert.False(t, NoScope.IsNested())
}
