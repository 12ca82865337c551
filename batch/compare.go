package batch

import (
	"fmt"
	"slices"

	"plainprops/internal/diagnostic"
	"plainprops/internal/match"
)

// Compare reports how the schemas of cur evolved from old, matching types
// and members by name. Removed or retyped schemas and members are errors:
// values saved under old cannot load them. Removed enumerators are warnings
// and additions are infos. Both batches must be valid.
func Compare(old, cur *Batch) diagnostic.Diagnostics {
	var diags diagnostic.Diagnostics

	curStructs := make(map[string]int, len(cur.Structs))
	for i, s := range cur.Structs {
		curStructs[cur.TypeString(s.Type)] = i
	}

	curEnums := make(map[string]int, len(cur.Enums))
	for i, e := range cur.Enums {
		curEnums[cur.TypeString(e.Type)] = i
	}

	oldStructs := make(map[string]bool, len(old.Structs))

	for i := range old.Structs {
		s := &old.Structs[i]
		name := old.TypeString(s.Type)
		oldStructs[name] = true

		j, ok := curStructs[name]
		if !ok {
			diags.AddError(diagnostic.CodeUnmatchedSchema, "struct was removed", name, "",
				match.Suggest(name, cur.structNames(), maxSuggestions)...)

			continue
		}

		compareStruct(old, cur, s, &cur.Structs[j], &diags)
	}

	for _, s := range cur.Structs {
		if name := cur.TypeString(s.Type); !oldStructs[name] {
			diags.AddInfo(diagnostic.CodeAddedSchema, "struct was added", name, "")
		}
	}

	for i := range old.Enums {
		e := &old.Enums[i]
		name := old.TypeString(e.Type)

		j, ok := curEnums[name]
		if !ok {
			diags.AddError(diagnostic.CodeUnmatchedEnum, "enum was removed", name, "")
			continue
		}

		compareEnum(old, cur, e, &cur.Enums[j], &diags)
	}

	return diags
}

func (b *Batch) structNames() []string {
	out := make([]string, len(b.Structs))
	for i, s := range b.Structs {
		out[i] = b.TypeString(s.Type)
	}

	return out
}

func (b *Batch) superName(s *StructSchema) string {
	if s.Super == NoIndex {
		return ""
	}

	return b.TypeString(b.Structs[s.Super].Type)
}

func compareStruct(old, cur *Batch, o, c *StructSchema, diags *diagnostic.Diagnostics) {
	name := old.TypeString(o.Type)

	if old.superName(o) != cur.superName(c) {
		diags.AddError(diagnostic.CodeSuperChanged,
			fmt.Sprintf("super changed from %q to %q", old.superName(o), cur.superName(c)), name, "")
	}

	current := make([]string, len(c.Members))
	for i, m := range c.Members {
		current[i] = cur.NameText(m.Name)
	}

	seen := make([]bool, len(c.Members))

	for _, m := range o.Members {
		text := old.NameText(m.Name)

		j := slices.Index(current, text)
		if j < 0 {
			diags.AddError(diagnostic.CodeUnknownMember, "member was removed", name, text,
				match.Suggest(text, current, maxSuggestions)...)

			continue
		}

		seen[j] = true
		cm := c.Members[j]

		if m.Type == nil || cm.Type == nil {
			continue
		}

		if m.Type != cm.Type || !slices.Equal(m.Items, cm.Items) {
			diags.AddError(diagnostic.CodeTypeChanged,
				fmt.Sprintf("type changed from %s to %s", shapeString(m.Type, m.Items), shapeString(cm.Type, cm.Items)),
				name, text)

			continue
		}

		if from, to := old.SchemaName(m), cur.SchemaName(cm); from != to {
			diags.AddError(diagnostic.CodeTypeChanged, fmt.Sprintf("schema changed from %s to %s", from, to), name, text)
		}
	}

	for j, ok := range seen {
		if !ok {
			diags.AddInfo(diagnostic.CodeAddedMember, "member was added", name, current[j])
		}
	}
}

func compareEnum(old, cur *Batch, o, c *EnumSchema, diags *diagnostic.Diagnostics) {
	name := old.TypeString(o.Type)

	if o.Mode != c.Mode || o.Width != c.Width {
		diags.AddError(diagnostic.CodeTypeChanged,
			fmt.Sprintf("changed from %s %s to %s %s", o.Mode, o.Width, c.Mode, c.Width), name, "")

		return
	}

	for _, e := range o.Enumerators {
		text := old.NameText(e.Name)

		if !slices.ContainsFunc(c.Enumerators, func(ce EnumeratorEntry) bool { return cur.NameText(ce.Name) == text }) {
			diags.AddWarning(diagnostic.CodeUnknownMember, "enumerator was removed", name, text)
		}
	}
}
