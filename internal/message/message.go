// Package message defines the message source consumed by the emitter and an
// AsyncAPI document loader that produces it.
package message

import "encoding/json"

// NullType is the schema type of payloads that carry no structure
const NullType = "null"

// Schema is a JSON-Schema-shaped payload description
type Schema interface {
	// Type returns the schema's type keyword. Multiple types are joined
	// with commas; an absent keyword is the empty string.
	Type() string

	// JSON returns the schema serialized as JSON
	JSON() (json.RawMessage, error)
}

// Message is a single message whose payload can be generated
type Message interface {
	Payload() Schema
}

// Entry pairs a message with its identifier
type Entry struct {
	ID      string
	Message Message
}

// Collection is an ordered list of messages. Identifiers are not required
// to be unique.
type Collection []Entry

// IDs returns the identifiers in collection order
func (c Collection) IDs() []string {
	ids := make([]string, len(c))
	for i, e := range c {
		ids[i] = e.ID
	}
	return ids
}

// Add appends a message to the collection
func (c *Collection) Add(id string, msg Message) {
	*c = append(*c, Entry{ID: id, Message: msg})
}

// IsNull reports whether s has no generateable structure
func IsNull(s Schema) bool {
	return s == nil || s.Type() == NullType
}
