package analyze

import (
	"fmt"
	"reflect"
	"strings"
)

// Fields returns the persisted fields of struct type t in declaration order.
// Unexported fields are skipped unless they are embedded structs; fields
// tagged "-" are skipped.
func Fields(t reflect.Type) ([]FieldInfo, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%v is not a struct", t)
	}

	out := make([]FieldInfo, 0, t.NumField())

	for i := range t.NumField() {
		f := t.Field(i)

		info := FieldInfo{
			Name:     f.Name,
			GoName:   f.Name,
			Exported: f.IsExported(),
			Type:     f.Type,
			Offset:   f.Offset,
			Tag:      f.Tag,
			Embedded: f.Anonymous,
			Index:    i,
		}

		if !info.Exported && !(info.Embedded && f.Type.Kind() == reflect.Struct) {
			continue
		}

		tag, ok := f.Tag.Lookup(TagKey)
		if !ok {
			out = append(out, info)
			continue
		}

		if tag == "-" {
			continue
		}

		name, opts, err := parseTag(tag)
		if err != nil {
			return nil, fmt.Errorf("%v.%s: %w", t, f.Name, err)
		}

		if name != "" {
			info.Name = name
		}

		info.Options = opts

		if err := checkOptions(f.Type, opts); err != nil {
			return nil, fmt.Errorf("%v.%s: %w", t, f.Name, err)
		}

		out = append(out, info)
	}

	return out, nil
}

func parseTag(tag string) (string, TagOptions, error) {
	var opts TagOptions

	name, rest, _ := strings.Cut(tag, ",")

	for rest != "" {
		var opt string

		opt, rest, _ = strings.Cut(rest, ",")

		switch {
		case opt == "hex":
			opts.Hex = true
		case opt == "unicode":
			opts.Unicode = true
		case strings.HasPrefix(opt, "bits="):
			opts.Bits = strings.Split(strings.TrimPrefix(opt, "bits="), "|")
		default:
			return "", opts, fmt.Errorf("unknown option %q: %w", opt, ErrTag)
		}
	}

	return name, opts, nil
}

func checkOptions(t reflect.Type, opts TagOptions) error {
	if opts.Hex && opts.Unicode {
		return fmt.Errorf("hex and unicode are exclusive: %w", ErrTag)
	}

	if opts.Bits == nil {
		return nil
	}

	if opts.Hex || opts.Unicode {
		return fmt.Errorf("bits excludes other options: %w", ErrTag)
	}

	if t.Kind() != reflect.Uint8 {
		return fmt.Errorf("bits need a uint8 field, got %v: %w", t, ErrTag)
	}

	if len(opts.Bits) > 8 {
		return fmt.Errorf("%d bits do not fit a byte: %w", len(opts.Bits), ErrTag)
	}

	named := 0

	for _, b := range opts.Bits {
		if b != "" {
			named++
		}
	}

	if named == 0 {
		return fmt.Errorf("bits name no bit: %w", ErrTag)
	}

	return nil
}
