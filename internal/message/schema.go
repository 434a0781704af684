package message

import (
	"encoding/json"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Object is a JSON object that keeps its keys in document order
type Object = orderedmap.OrderedMap[string, any]

// ValueSchema is a Schema backed by a decoded JSON value
type ValueSchema struct {
	value any
}

// NewSchema wraps a decoded JSON value (objects, maps, slices and scalars)
func NewSchema(value any) *ValueSchema {
	return &ValueSchema{value: value}
}

// ParseSchema decodes a JSON (or YAML) schema. Object keys keep their order.
func ParseSchema(data []byte) (*ValueSchema, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("failed to parse schema: no content")
	}

	p := &documentParser{root: doc.Content[0]}
	return NewSchema(p.value(doc.Content[0], nil)), nil
}

// Type returns the type keyword. A nil schema is the null type.
func (s *ValueSchema) Type() string {
	if s == nil || s.value == nil {
		return NullType
	}

	t, ok := s.field("type")
	if !ok {
		return ""
	}

	switch t := t.(type) {
	case nil:
		// YAML reads an unquoted `type: null` as a null value
		return NullType
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ",")
	default:
		return ""
	}
}

func (s *ValueSchema) field(key string) (any, bool) {
	switch obj := s.value.(type) {
	case *Object:
		return obj.Get(key)
	case map[string]any:
		v, ok := obj[key]
		return v, ok
	}
	return nil, false
}

func (s *ValueSchema) JSON() (json.RawMessage, error) {
	if s == nil {
		return json.RawMessage("null"), nil
	}
	data, err := json.Marshal(s.value)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize schema: %w", err)
	}
	return data, nil
}

// Value returns the underlying decoded value
func (s *ValueSchema) Value() any {
	if s == nil {
		return nil
	}
	return s.value
}

// StaticMessage is a Message with a fixed payload
type StaticMessage struct {
	Schema Schema
}

func (m StaticMessage) Payload() Schema {
	return m.Schema
}
