package entities

import (
	"encoding/json"
	"time"
)

// Entity é uma linha da tabela entities: o "documento" de um Item, Purchase,
// Sale ou Asset. O payload fica em Properties (JSONB) para preservar os
// campos legados sem precisar de uma struct por forma.
type Entity struct {
	ID         string     `json:"id"`
	Type       EntityType `json:"type"`
	Properties Document   `json:"properties,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Prop returns a top-level property value.
func (e *Entity) Prop(key string) (any, bool) {
	if e == nil || e.Properties == nil {
		return nil, false
	}
	v, ok := e.Properties[key]
	return v, ok
}

// StringProp returns a top-level property as string, or "" when absent or of
// another type.
func (e *Entity) StringProp(key string) string {
	v, ok := e.Prop(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// FloatProp returns a top-level numeric property. JSON decoding always yields
// float64, but documents built in Go may carry int values too.
func (e *Entity) FloatProp(key string) (float64, bool) {
	v, ok := e.Prop(key)
	if !ok {
		return 0, false
	}
	return AsFloat(v)
}

// SliceProp returns a top-level array property.
func (e *Entity) SliceProp(key string) []any {
	v, ok := e.Prop(key)
	if !ok {
		return nil
	}
	s, _ := v.([]any)
	return s
}

// DocProp returns a top-level object property.
func (e *Entity) DocProp(key string) Document {
	v, ok := e.Prop(key)
	if !ok {
		return nil
	}
	switch d := v.(type) {
	case Document:
		return d
	case map[string]any:
		return d
	}
	return nil
}

// AsFloat coerces the numeric representations JSON and Go code produce.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// AsDocument coerces a loose value into a Document.
func AsDocument(v any) Document {
	switch d := v.(type) {
	case Document:
		return d
	case map[string]any:
		return d
	}
	return nil
}
