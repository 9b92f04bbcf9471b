// Package schema defines the ficha template: the ordered set of fields, the
// structural shape of each field's value, and its mandatory/optional/default
// status. A Schema is loaded once and never mutated afterwards; callers look
// shapes up here instead of inferring them from data.
package schema

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"fichas/internal/validation"

	"gopkg.in/yaml.v3"
)

// Shape is the structural type of a field's value.
type Shape string

const (
	Scalar      Shape = "scalar"
	StringList  Shape = "string_list"
	StructList  Shape = "struct_list"
	ChannelList Shape = "channel_list"
)

// Requirement says whether a field must be non-empty in a finished record.
type Requirement string

const (
	Required Requirement = "required"
	Optional Requirement = "optional"
)

// Tidy configures the post-fusion cleanup of a struct_list field: items
// missing any Require sub-field are dropped and the rest are deduplicated on
// the loose concept form of the Key sub-fields.
type Tidy struct {
	Require []string `yaml:"require,omitempty" json:"require,omitempty"`
	Key     []string `yaml:"key" json:"key" validate:"required,min=1"`
}

// FieldSpec describes one field of the template.
type FieldSpec struct {
	Name        string      `yaml:"name" json:"name" validate:"required"`
	Shape       Shape       `yaml:"shape" json:"shape" validate:"required,oneof=scalar string_list struct_list channel_list"`
	Key         string      `yaml:"key,omitempty" json:"key,omitempty" validate:"required_if=Shape struct_list,required_if=Shape channel_list"`
	Channels    []string    `yaml:"channels,omitempty" json:"channels,omitempty" validate:"required_if=Shape channel_list,unique"`
	Requirement Requirement `yaml:"requirement,omitempty" json:"requirement,omitempty" validate:"omitempty,oneof=required optional"`
	Strategy    string      `yaml:"strategy,omitempty" json:"strategy,omitempty" validate:"omitempty,oneof=longest union_strings union_by_key line_set channel_merge"`
	Unwrap      string      `yaml:"unwrap,omitempty" json:"unwrap,omitempty"`
	Tidy        *Tidy       `yaml:"tidy,omitempty" json:"tidy,omitempty"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Default     any         `yaml:"default,omitempty" json:"default,omitempty"`
}

// Mandatory reports whether the field must be non-empty in a finished record.
// An unset requirement counts as required.
func (f FieldSpec) Mandatory() bool { return f.Requirement != Optional }

// HasDefault reports whether the field is mandatory-with-default.
func (f FieldSpec) HasDefault() bool { return f.Mandatory() && f.Default != nil }

// Schema is the ordered, immutable field template.
type Schema struct {
	name   string
	fields []FieldSpec
	index  map[string]int
}

type document struct {
	Name   string      `yaml:"name" validate:"required"`
	Fields []FieldSpec `yaml:"fields" validate:"required,min=1,unique=Name,dive"`
}

// Name returns the template name.
func (s *Schema) Name() string { return s.name }

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// Fields returns a copy of the field specs in template order.
func (s *Schema) Fields() []FieldSpec {
	out := make([]FieldSpec, len(s.fields))
	copy(out, s.fields)
	return out
}

// Names returns the field names in template order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// Field looks up a field spec by name.
func (s *Schema) Field(name string) (FieldSpec, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.fields[i], true
}

// Load reads and parses a schema YAML file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %q: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("schema: %q: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates schema YAML bytes.
func Parse(data []byte) (*Schema, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema yaml: %w", err)
	}
	if err := validation.Struct(doc); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	s := &Schema{
		name:   doc.Name,
		fields: doc.Fields,
		index:  make(map[string]int, len(doc.Fields)),
	}
	for i, f := range s.fields {
		if f.Shape != ChannelList && len(f.Channels) > 0 {
			return nil, fmt.Errorf("invalid schema: field %q: channels only apply to channel_list", f.Name)
		}
		if f.Shape != StructList && f.Tidy != nil {
			return nil, fmt.Errorf("invalid schema: field %q: tidy only applies to struct_list", f.Name)
		}
		s.index[f.Name] = i
	}
	return s, nil
}

//go:embed plantilla.yaml
var plantillaYAML []byte

var defaultSchema = sync.OnceValues(func() (*Schema, error) {
	return Parse(plantillaYAML)
})

// Default returns the embedded public-aid template. It panics if the embedded
// YAML is invalid, which the package tests rule out.
func Default() *Schema {
	s, err := defaultSchema()
	if err != nil {
		panic(fmt.Sprintf("load plantilla.yaml: %v", err))
	}
	return s
}
