package batch_test

import (
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plainprops"
	"plainprops/batch"
	"plainprops/built"
	"plainprops/ident"
	"plainprops/internal/diagnostic"
	"plainprops/schema"
)

type Level uint8

type Base struct {
	ID uint32
}

type Part struct {
	Name   string
	Weight float32
}

type Doc struct {
	Base

	Title string
	Level Level
	Parts []Part
	Index map[string]Part
	When  time.Time
}

// DocRenamed persists Title under a new name.
type DocRenamed struct {
	Base

	Titel string
	Level Level
	Parts []Part
	Index map[string]Part
	When  time.Time
}

// DocRetyped persists Title as a number.
type DocRetyped struct {
	Base

	Title int32
	Level Level
	Parts []Part
	Index map[string]Part
	When  time.Time
}

func registerLevel(t *testing.T, r *plainprops.Registry, low, high Level) {
	t.Helper()

	enumerators := []plainprops.Enumerator[Level]{{Name: "Low", Value: low}}
	if high != 0 {
		enumerators = append(enumerators, plainprops.Enumerator[Level]{Name: "High", Value: high})
	}

	_, err := plainprops.RegisterEnum(r, schema.Flat, enumerators)
	require.NoError(t, err)
}

// saving registers Doc in a fresh registry and saves a sample.
func saving(t *testing.T) (*plainprops.Registry, Doc, *built.Struct) {
	t.Helper()

	r := plainprops.NewRegistry()
	registerLevel(t, r, 1, 2)

	_, err := plainprops.Register[Doc](r)
	require.NoError(t, err)

	doc := Doc{
		Base:  Base{ID: 42},
		Title: "notes",
		Level: 1,
		Parts: []Part{{Name: "a", Weight: 1.5}, {Name: "b"}},
		Index: map[string]Part{"z": {Name: "last"}, "m": {Name: "mid", Weight: 2}},
		When:  time.Date(2025, 1, 2, 3, 4, 5, 6, time.UTC),
	}

	saved, err := plainprops.Save(r.Context(), &doc)
	require.NoError(t, err)

	return r, doc, saved
}

func typeNames(b *batch.Batch) []string {
	out := make([]string, len(b.Structs))
	for i, s := range b.Structs {
		out[i] = b.TypeString(s.Type)
	}

	return out
}

func TestBuild(t *testing.T) {
	t.Parallel()

	r, _, saved := saving(t)
	b := batch.Build(r.Context(), saved)
	require.NoError(t, b.Validate())

	names := typeNames(b)
	assert.ElementsMatch(t, []string{
		"plainprops.batch_test.Base",
		"plainprops.batch_test.Doc",
		"plainprops.batch_test.Part",
		"plainprops.Pair<string,plainprops.batch_test.Part>",
		"time.Time",
	}, names)

	doc := slices.Index(names, "plainprops.batch_test.Doc")
	base := slices.Index(names, "plainprops.batch_test.Base")
	assert.Equal(t, base, b.Structs[doc].Super)
	assert.Less(t, base, doc)

	require.Len(t, b.Enums, 1)
	assert.Equal(t, "plainprops.batch_test.Level", b.TypeString(b.Enums[0].Type))
	assert.Len(t, b.Enums[0].Enumerators, 2)

	members := make(map[string]batch.MemberSchema)
	for _, m := range b.Structs[doc].Members {
		members[b.NameText(m.Name)] = m
	}

	assert.Equal(t, schema.LeafType{Category: schema.LeafEnum, Width: schema.B8}, members["Level"].Type)
	assert.Equal(t, 0, members["Level"].Schema)
	assert.Equal(t, "plainprops.batch_test.Part", names[members["Parts"].Schema])
	assert.Equal(t, []schema.MemberType{schema.StructType{}}, members["Parts"].Items)
	assert.Equal(t, "time.Time", names[members["When"].Schema])

	texts := make([]string, len(b.Names))
	for i, n := range b.Names {
		texts[i] = n.Text
	}

	assert.Len(t, slices.Compact(slices.Sorted(slices.Values(texts))), len(texts), "names are interned once")
}

func TestBatch_Validate(t *testing.T) {
	t.Parallel()

	r, _, saved := saving(t)

	tests := []struct {
		name    string
		corrupt func(b *batch.Batch)
	}{
		{"super after struct", func(b *batch.Batch) {
			for i := range b.Structs {
				if b.Structs[i].Super != batch.NoIndex {
					b.Structs[i].Super = i
				}
			}
		}},
		{"member name out of range", func(b *batch.Batch) { b.Structs[0].Members[0].Name = len(b.Names) }},
		{"struct schema out of range", func(b *batch.Batch) {
			for i := range b.Structs {
				for j := range b.Structs[i].Members {
					if b.Structs[i].Members[j].Schema != batch.NoIndex {
						b.Structs[i].Members[j].Schema = 99
					}
				}
			}
		}},
		{"enumerator name", func(b *batch.Batch) { b.Enums[0].Enumerators[0].Name = -1 }},
		{"nested scope", func(b *batch.Batch) {
			b.NestedScopes = append(b.NestedScopes, ident.NestedScope{Outer: ident.NestedScopeID(5), Inner: 0})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := batch.Build(r.Context(), saved)
			tt.corrupt(b)
			require.ErrorIs(t, b.Validate(), batch.ErrMalformed)
		})
	}
}

func TestYAML_RoundTrip(t *testing.T) {
	t.Parallel()

	r, _, saved := saving(t)
	b := batch.Build(r.Context(), saved)

	path := filepath.Join(t.TempDir(), "schemas.yaml")
	require.NoError(t, batch.WriteFile(b, path))

	loaded, err := batch.LoadFile(path)
	require.NoError(t, err)

	first, err := batch.Marshal(b)
	require.NoError(t, err)
	second, err := batch.Marshal(loaded)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	_, err = batch.Parse([]byte("structs:\n  - members:\n      - name: 0\n        type: Nope\n"))
	require.ErrorIs(t, err, schema.ErrMemberType)

	_, err = batch.Parse([]byte("names: []\nstructs:\n  - type: {scope: 4294967295, name: 3}\n    super: -1\n"))
	require.ErrorIs(t, err, batch.ErrMalformed)

	_, err = batch.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestByName_Load(t *testing.T) {
	t.Parallel()

	src, doc, saved := saving(t)
	b := batch.Build(src.Context(), saved)

	data, err := batch.Marshal(b)
	require.NoError(t, err)

	parsed, err := batch.Parse(data)
	require.NoError(t, err)

	// A process that interned other names first and moved the constants.
	dst := plainprops.NewRegistry()
	for _, n := range []string{"Weight", "unused", "Parts", "zzz"} {
		dst.Ids.MakeName(n)
	}

	_, err = plainprops.Register[Part](dst)
	require.NoError(t, err)
	registerLevel(t, dst, 5, 9)
	_, err = plainprops.Register[Doc](dst)
	require.NoError(t, err)

	ctx := dst.Context()

	tr, diags, err := batch.ByName(parsed, ctx)
	require.NoError(t, err)
	assert.False(t, diags.HasErrors())
	assert.False(t, tr.IsDirect())

	applied, err := tr.Apply(saved, ctx.Scratch)
	require.NoError(t, err)

	var got Doc
	require.NoError(t, plainprops.Load(ctx, &got, applied))

	want := doc
	want.Level = 5
	assert.Equal(t, want, got)
}

func TestByName_SameProcess(t *testing.T) {
	t.Parallel()

	r, doc, saved := saving(t)
	ctx := r.Context()
	b := batch.Build(ctx, saved)

	tr, _, err := batch.ByName(b, ctx)
	require.NoError(t, err)

	for _, s := range b.Structs {
		id, ok := tr.Struct(s.ID)
		require.True(t, ok)
		assert.Equal(t, s.ID, id)
	}

	viaName, err := tr.Apply(saved, ctx.Scratch)
	require.NoError(t, err)

	direct, err := batch.Direct().Apply(saved, ctx.Scratch)
	require.NoError(t, err)
	assert.Same(t, saved, direct)
	assert.False(t, built.Diff(viaName, direct, built.DefaultFloatULPs))

	var got Doc
	require.NoError(t, plainprops.Load(ctx, &got, viaName))
	assert.Equal(t, doc, got)
}

func TestByName_Diagnostics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		register func(t *testing.T, r *plainprops.Registry)
		code     string
		member   string
		suggest  string
	}{
		{
			name: "renamed type",
			register: func(t *testing.T, r *plainprops.Registry) {
				_, err := plainprops.Register[Doc](r, plainprops.WithTypeName("Docs"))
				require.NoError(t, err)
			},
			code:    diagnostic.CodeUnmatchedSchema,
			suggest: "plainprops.batch_test.Docs",
		},
		{
			name: "renamed member",
			register: func(t *testing.T, r *plainprops.Registry) {
				_, err := plainprops.Register[DocRenamed](r, plainprops.WithTypeName("Doc"))
				require.NoError(t, err)
			},
			code:    diagnostic.CodeUnknownMember,
			member:  "Title",
			suggest: "Titel",
		},
		{
			name: "retyped member",
			register: func(t *testing.T, r *plainprops.Registry) {
				_, err := plainprops.Register[DocRetyped](r, plainprops.WithTypeName("Doc"))
				require.NoError(t, err)
			},
			code:   diagnostic.CodeTypeChanged,
			member: "Title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, _, saved := saving(t)
			b := batch.Build(src.Context(), saved)

			dst := plainprops.NewRegistry()
			registerLevel(t, dst, 1, 2)
			tt.register(t, dst)

			_, diags, err := batch.ByName(b, dst.Context())
			require.ErrorIs(t, err, batch.ErrUnmatchedSchema)

			i := slices.IndexFunc(diags.Errors, func(d diagnostic.Diagnostic) bool { return d.Code == tt.code })
			require.GreaterOrEqual(t, i, 0, diags.String())

			d := diags.Errors[i]
			assert.Equal(t, "plainprops.batch_test.Doc", d.Schema)
			assert.Equal(t, tt.member, d.Member)

			if tt.suggest != "" {
				require.NotEmpty(t, d.Suggestions)
				assert.Equal(t, tt.suggest, d.Suggestions[0])
			}
		})
	}
}

func TestByName_Enums(t *testing.T) {
	t.Parallel()

	src, _, saved := saving(t)
	b := batch.Build(src.Context(), saved)

	dst := plainprops.NewRegistry()
	registerLevel(t, dst, 3, 0)
	_, err := plainprops.Register[Doc](dst)
	require.NoError(t, err)

	tr, diags, err := batch.ByName(b, dst.Context())
	require.NoError(t, err)
	require.Len(t, diags.Warnings, 1)
	assert.Equal(t, diagnostic.CodeUnknownMember, diags.Warnings[0].Code)
	assert.Equal(t, "High", diags.Warnings[0].Member)

	_, ok := tr.Enum(b.Enums[0].ID)
	assert.True(t, ok)

	applied, err := tr.Apply(saved, dst.Context().Scratch)
	require.NoError(t, err)

	var got Doc
	require.NoError(t, plainprops.Load(dst.Context(), &got, applied))
	assert.Equal(t, Level(3), got.Level)
}

func TestCompare(t *testing.T) {
	t.Parallel()

	src, _, saved := saving(t)
	old := batch.Build(src.Context(), saved)

	same := batch.Compare(old, old)
	assert.Empty(t, same.All())

	r := plainprops.NewRegistry()
	registerLevel(t, r, 1, 0)

	_, err := plainprops.Register[DocRenamed](r, plainprops.WithTypeName("Doc"))
	require.NoError(t, err)

	doc := DocRenamed{Titel: "x", Level: 1}
	renamed, err := plainprops.Save(r.Context(), &doc)
	require.NoError(t, err)

	cur := batch.Build(r.Context(), renamed)
	diags := batch.Compare(old, cur)

	require.Len(t, diags.Errors, 1, diags.String())
	assert.Equal(t, diagnostic.CodeUnknownMember, diags.Errors[0].Code)
	assert.Equal(t, "Title", diags.Errors[0].Member)
	assert.Equal(t, []string{"Titel"}, diags.Errors[0].Suggestions)

	require.Len(t, diags.Warnings, 1)
	assert.Equal(t, "High", diags.Warnings[0].Member)

	require.Len(t, diags.Infos, 1)
	assert.Equal(t, diagnostic.CodeAddedMember, diags.Infos[0].Code)
	assert.Equal(t, "Titel", diags.Infos[0].Member)
}
