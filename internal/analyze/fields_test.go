package analyze

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inner struct {
	ID uint16
}

type tagged struct {
	inner

	Flags  uint8  `pp:",bits=Visible|||Locked"`
	Color  uint32 `pp:"Colour,hex"`
	Glyph  int32  `pp:",unicode"`
	Skip   int    `pp:"-"`
	hidden int
	Plain  float64 `json:"plain"`
}

func TestTypePath(t *testing.T) {
	t.Parallel()

	p := NewTypePath("Order").Field("Items").Items().Field("ProductID")
	assert.Equal(t, "Order.Items[].ProductID", p.String())
	assert.Equal(t, "[]", (&TypePath{}).Items().String())
}

func TestTypeID(t *testing.T) {
	t.Parallel()

	id := IDOf(reflect.TypeFor[tagged]())
	assert.Equal(t, "plainprops/internal/analyze.tagged", id.String())
	assert.Equal(t, []string{"plainprops", "internal", "analyze"}, id.Scope())
	assert.True(t, id.IsNamed())

	builtin := IDOf(reflect.TypeFor[int32]())
	assert.Equal(t, "int32", builtin.String())
	assert.Nil(t, builtin.Scope())
	assert.False(t, IDOf(reflect.TypeFor[[]int]()).IsNamed())
}

func TestFields(t *testing.T) {
	t.Parallel()

	fields, err := Fields(reflect.TypeFor[tagged]())
	require.NoError(t, err)

	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}

	assert.Equal(t, []string{"inner", "Flags", "Colour", "Glyph", "Plain"}, names)

	assert.True(t, fields[0].Embedded)
	assert.False(t, fields[0].Exported)
	assert.Equal(t, []string{"Visible", "", "", "Locked"}, fields[1].Options.Bits)
	assert.True(t, fields[2].Options.Hex)
	assert.Equal(t, "Color", fields[2].GoName)
	assert.True(t, fields[3].Options.Unicode)
	assert.Equal(t, reflect.TypeFor[tagged]().Field(6).Offset, fields[4].Offset)
}

func TestFieldsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		typ  reflect.Type
	}{
		{"unknown option", reflect.TypeFor[struct {
			A int `pp:",packed"`
		}]()},
		{"bits on wide field", reflect.TypeFor[struct {
			A uint16 `pp:",bits=X"`
		}]()},
		{"too many bits", reflect.TypeFor[struct {
			A uint8 `pp:",bits=a|b|c|d|e|f|g|h|i"`
		}]()},
		{"no named bit", reflect.TypeFor[struct {
			A uint8 `pp:",bits=||"`
		}]()},
		{"hex and unicode", reflect.TypeFor[struct {
			A uint8 `pp:",hex,unicode"`
		}]()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Fields(tt.typ)
			require.ErrorIs(t, err, ErrTag)
		})
	}

	_, err := Fields(reflect.TypeFor[int]())
	require.Error(t, err)
}
