package batch

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"plainprops/schema"
)

type memberYAML struct {
	Name   int      `yaml:"name"`
	Type   string   `yaml:"type,omitempty"`
	Items  []string `yaml:"items,omitempty"`
	Schema *int     `yaml:"schema,omitempty"`
}

// MarshalYAML writes member types in their text form.
func (m MemberSchema) MarshalYAML() (any, error) {
	out := memberYAML{Name: m.Name}

	if m.Type != nil {
		out.Type = m.Type.String()
	}

	for _, it := range m.Items {
		out.Items = append(out.Items, it.String())
	}

	if m.Schema != NoIndex {
		idx := m.Schema
		out.Schema = &idx
	}

	return out, nil
}

// UnmarshalYAML parses member types from their text form.
func (m *MemberSchema) UnmarshalYAML(node *yaml.Node) error {
	var in memberYAML

	if err := node.Decode(&in); err != nil {
		return err
	}

	*m = MemberSchema{Name: in.Name, Schema: NoIndex}

	if in.Type != "" {
		t, err := schema.ParseMemberType(in.Type)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}

		m.Type = t
	}

	for _, s := range in.Items {
		t, err := schema.ParseMemberType(s)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}

		m.Items = append(m.Items, t)
	}

	if in.Schema != nil {
		m.Schema = *in.Schema
	}

	return nil
}

// Marshal serializes a batch to YAML.
func Marshal(b *Batch) ([]byte, error) {
	return yaml.Marshal(b)
}

// Parse parses and validates a YAML batch.
func Parse(data []byte) (*Batch, error) {
	var b Batch

	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse schema batch YAML: %w", err)
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}

	return &b, nil
}

// LoadFile loads and parses a YAML batch from path.
func LoadFile(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema batch %s: %w", path, err)
	}

	return Parse(data)
}

// WriteFile writes a batch to path as YAML.
func WriteFile(b *Batch, path string) error {
	data, err := Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal schema batch: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write schema batch %s: %w", path, err)
	}

	return nil
}
