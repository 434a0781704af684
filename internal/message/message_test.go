package message

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSchema_Type(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		want   string
	}{
		{"object", `{"type":"object"}`, "object"},
		{"null string", `{"type":"null"}`, "null"},
		{"single element array", `{"type":["null"]}`, "null"},
		{"union", `{"type":["string","null"]}`, "string,null"},
		{"absent", `{"properties":{}}`, ""},
		{"json null document", `null`, "null"},
		{"boolean schema", `true`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseSchema([]byte(tt.schema))
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Type())
		})
	}
}

func TestValueSchema_JSON(t *testing.T) {
	s, err := ParseSchema([]byte(`{"type":"object","properties":{"id":{"type":"string"}}}`))
	require.NoError(t, err)

	data, err := s.JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"object","properties":{"id":{"type":"string"}}}`, string(data))
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(NewSchema(nil)))
	assert.True(t, IsNull(NewSchema(map[string]any{"type": "null"})))
	assert.False(t, IsNull(NewSchema(map[string]any{"type": "object"})))
}

func TestCollection(t *testing.T) {
	var c Collection
	c.Add("a", StaticMessage{})
	c.Add("b", StaticMessage{})
	c.Add("a", StaticMessage{})

	// Test: insertion order and duplicates are preserved
	assert.Equal(t, []string{"a", "b", "a"}, c.IDs())
}

func TestLoadDocument_Streetlights(t *testing.T) {
	msgs, err := LoadDocument(filepath.Join("testdata", "streetlights.yaml"))
	require.NoError(t, err)

	assert.Equal(t, []string{"lightMeasured", "orderCreated", "turnOn", "heartbeat", "ping"}, msgs.IDs())

	byID := make(map[string]Schema)
	for _, e := range msgs {
		byID[e.ID] = e.Message.Payload()
	}

	// Test: component payload refs are inlined
	data, err := byID["lightMeasured"].JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "object",
		"properties": {
			"id": {"type": "integer"},
			"lumens": {"type": "integer", "minimum": 0}
		}
	}`, string(data))

	// Test: nested refs in inline payloads are inlined
	data, err = byID["turnOn"].JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"object","properties":{"lumens":{"type":"integer","minimum":0}}}`, string(data))

	assert.Equal(t, "null", byID["heartbeat"].Type())
	assert.Equal(t, "object", byID["ping"].Type())
}

func TestParseDocument_JSON(t *testing.T) {
	doc := `{
		"asyncapi": "2.6.0",
		"info": {"title": "t", "version": "1"},
		"components": {
			"messages": {
				"empty": {"payload": {"type": "null"}},
				"noPayload": {},
				"user": {"payload": {"type": "object"}}
			}
		}
	}`

	msgs, err := ParseDocument([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, []string{"empty", "noPayload", "user"}, msgs.IDs())

	assert.True(t, IsNull(msgs[0].Message.Payload()))
	assert.True(t, IsNull(msgs[1].Message.Payload()))
	assert.False(t, IsNull(msgs[2].Message.Payload()))
}

func TestParseDocument_AsyncAPI3(t *testing.T) {
	doc := `
asyncapi: 3.0.0
info: {title: t, version: '1'}
channels:
  users:
    messages:
      userSignedUp:
        $ref: '#/components/messages/userSignedUp'
      userDeleted:
        payload:
          schemaFormat: application/schema+json;version=draft-07
          schema:
            type: object
            properties:
              id: {type: string}
components:
  messages:
    userSignedUp:
      payload:
        type: object
`
	msgs, err := ParseDocument([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"userSignedUp", "userDeleted"}, msgs.IDs())

	data, err := msgs[1].Message.Payload().JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"object","properties":{"id":{"type":"string"}}}`, string(data))
}

func TestParseDocument_UnquotedNullType(t *testing.T) {
	doc := `
asyncapi: 2.0.0
components:
  messages:
    nothing:
      payload:
        type: null
`
	msgs, err := ParseDocument([]byte(doc))
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "null", msgs[0].Message.Payload().Type())
}

func TestParseDocument_CyclicRef(t *testing.T) {
	doc := `
asyncapi: 2.0.0
components:
  messages:
    tree:
      payload:
        $ref: '#/components/schemas/node'
  schemas:
    node:
      type: object
      properties:
        children:
          type: array
          items:
            $ref: '#/components/schemas/node'
`
	msgs, err := ParseDocument([]byte(doc))
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	data, err := msgs[0].Message.Payload().JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "object",
		"properties": {
			"children": {"type": "array", "items": {"$ref": "#/components/schemas/node"}}
		}
	}`, string(data))
}

func TestParseDocument_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "asyncapi: [unclosed"},
		{"scalar root", "just a string"},
		{"missing version", "info: {title: t}"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadDocument_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadDocument(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read document")

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	_, err = LoadDocument(empty)
	assert.ErrorContains(t, err, "document is empty")
}

func TestValueSchema_NilReceiver(t *testing.T) {
	var s *ValueSchema

	assert.Equal(t, NullType, s.Type())
	assert.True(t, IsNull(s))
	assert.Nil(t, s.Value())

	data, err := s.JSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestParseSchema_KeepsPropertyOrder(t *testing.T) {
	raw := `{"type":"object","properties":{"zeta":{"type":"string"},"alpha":{"type":"integer"},"createdAt":{"type":"string","format":"date-time"}},"required":["zeta","alpha"]}`

	s, err := ParseSchema([]byte(raw))
	require.NoError(t, err)

	data, err := s.JSON()
	require.NoError(t, err)
	assert.Equal(t, raw, string(data))
}

func TestParseSchema_Errors(t *testing.T) {
	_, err := ParseSchema([]byte(`{"type":`))
	assert.Error(t, err)

	_, err = ParseSchema([]byte("   "))
	assert.Error(t, err)
}

func TestParseDocument_KeepsPropertyOrder(t *testing.T) {
	doc := `
asyncapi: 2.6.0
components:
  messages:
    orderCreated:
      payload:
        $ref: '#/components/schemas/order'
  schemas:
    order:
      type: object
      properties:
        zeta: {type: string}
        alpha: {type: integer}
        createdAt:
          type: string
          format: date-time
`
	msgs, err := ParseDocument([]byte(doc))
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	data, err := msgs[0].Message.Payload().JSON()
	require.NoError(t, err)
	assert.Equal(t,
		`{"type":"object","properties":{"zeta":{"type":"string"},"alpha":{"type":"integer"},"createdAt":{"type":"string","format":"date-time"}}}`,
		string(data))
}

func TestParseDocument_InlineFallbackIDs(t *testing.T) {
	doc := `
asyncapi: 2.6.0
channels:
  orders:
    publish:
      message:
        payload: {type: object}
    subscribe:
      message:
        oneOf:
          - payload: {type: object}
          - payload: {type: string}
`
	msgs, err := ParseDocument([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ordersPublishMessage",
		"ordersSubscribeMessage1",
		"ordersSubscribeMessage2",
	}, msgs.IDs())
}
