package message

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// LoadDocument reads an AsyncAPI document (YAML or JSON) from disk
func LoadDocument(path string) (Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("document is empty: %s", path)
	}

	msgs, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document %s: %w", path, err)
	}
	return msgs, nil
}

// ParseDocument extracts every message of an AsyncAPI 2.x or 3.x document in
// document order: component messages first, then messages declared inline on
// channels. Local references are resolved.
func ParseDocument(data []byte) (Collection, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("document has no content")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("document root must be a mapping")
	}
	if lookup(root, "asyncapi") == nil {
		return nil, fmt.Errorf("missing 'asyncapi' version field")
	}

	p := &documentParser{root: root, seen: make(map[*yaml.Node]bool)}
	p.collectComponents()
	p.collectChannels()
	return p.messages, nil
}

type documentParser struct {
	root     *yaml.Node
	messages Collection
	// seen holds resolved message nodes so shared messages are emitted once
	seen map[*yaml.Node]bool
}

func (p *documentParser) collectComponents() {
	components := lookup(p.root, "components")
	forEach(lookup(components, "messages"), func(key string, node *yaml.Node) {
		p.add(key, node)
	})
}

func (p *documentParser) collectChannels() {
	forEach(lookup(p.root, "channels"), func(channel string, node *yaml.Node) {
		node = p.deref(node)

		// AsyncAPI 2.x
		for _, op := range []string{"publish", "subscribe"} {
			operation := p.deref(lookup(node, op))
			msg := lookup(operation, "message")
			if msg == nil {
				continue
			}
			fallback := fallbackID(channel, op)
			if oneOf := lookup(p.deref(msg), "oneOf"); oneOf != nil && oneOf.Kind == yaml.SequenceNode {
				for i, alt := range oneOf.Content {
					p.add(fallback+strconv.Itoa(i+1), alt)
				}
				continue
			}
			p.add(fallback, msg)
		}

		// AsyncAPI 3.x
		forEach(lookup(node, "messages"), func(key string, msg *yaml.Node) {
			p.add(key, msg)
		})
	})
}

// fallbackID names an inline message without messageId or name, e.g.
// "user/signedup" publish -> "user/signedupPublishMessage"
func fallbackID(channel, op string) string {
	return channel + strings.ToUpper(op[:1]) + op[1:] + "Message"
}

// add records a message unless the same node was already collected
func (p *documentParser) add(fallback string, node *yaml.Node) {
	node = p.deref(node)
	if node == nil || p.seen[node] {
		return
	}
	p.seen[node] = true

	id := fallback
	if v := scalar(lookup(node, "messageId")); v != "" {
		id = v
	} else if v := scalar(lookup(node, "name")); v != "" && !isComponentKey(p.root, node) {
		id = v
	}

	var payload any
	if pl := lookup(node, "payload"); pl != nil {
		// Multi-format schema object
		resolved := p.deref(pl)
		if inner := lookup(resolved, "schema"); inner != nil && lookup(resolved, "schemaFormat") != nil {
			pl = inner
		}
		payload = p.value(pl, nil)
	}

	p.messages.Add(id, StaticMessage{Schema: NewSchema(payload)})
}

// deref follows local $ref chains to the referenced node
func (p *documentParser) deref(node *yaml.Node) *yaml.Node {
	for i := 0; node != nil && i < 32; i++ {
		if node.Kind == yaml.AliasNode {
			node = node.Alias
			continue
		}
		ref := scalar(lookup(node, "$ref"))
		if ref == "" {
			return node
		}
		target := p.pointer(ref)
		if target == nil {
			return node
		}
		node = target
	}
	return node
}

// pointer resolves a local JSON pointer such as #/components/schemas/User
func (p *documentParser) pointer(ref string) *yaml.Node {
	if !strings.HasPrefix(ref, "#/") {
		return nil
	}
	node := p.root
	for _, part := range strings.Split(strings.TrimPrefix(ref, "#/"), "/") {
		part = strings.ReplaceAll(strings.ReplaceAll(part, "~1", "/"), "~0", "~")
		switch node.Kind {
		case yaml.MappingNode:
			node = lookup(node, part)
		case yaml.SequenceNode:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node.Content) {
				return nil
			}
			node = node.Content[idx]
		default:
			return nil
		}
		if node == nil {
			return nil
		}
	}
	return node
}

// value converts a node into Go values, inlining local references. Mappings
// become *Object so keys keep document order.
// References already being expanded are kept as $ref to break cycles.
func (p *documentParser) value(node *yaml.Node, expanding []string) any {
	if node == nil {
		return nil
	}

	switch node.Kind {
	case yaml.AliasNode:
		return p.value(node.Alias, expanding)

	case yaml.MappingNode:
		if ref := scalar(lookup(node, "$ref")); ref != "" {
			if target := p.pointer(ref); target != nil && !contains(expanding, ref) {
				return p.value(target, append(expanding, ref))
			}
		}
		obj := orderedmap.New[string, any]()
		for i := 0; i+1 < len(node.Content); i += 2 {
			obj.Set(node.Content[i].Value, p.value(node.Content[i+1], expanding))
		}
		return obj

	case yaml.SequenceNode:
		arr := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			arr = append(arr, p.value(item, expanding))
		}
		return arr

	case yaml.ScalarNode:
		var v any
		if err := node.Decode(&v); err != nil {
			return node.Value
		}
		return v
	}
	return nil
}

// isComponentKey reports whether node is declared under components.messages,
// where the map key rather than the name field identifies it
func isComponentKey(root, node *yaml.Node) bool {
	msgs := lookup(lookup(root, "components"), "messages")
	if msgs == nil {
		return false
	}
	for i := 1; i < len(msgs.Content); i += 2 {
		if msgs.Content[i] == node {
			return true
		}
	}
	return false
}

func lookup(node *yaml.Node, key string) *yaml.Node {
	if node == nil {
		return nil
	}
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func forEach(node *yaml.Node, fn func(key string, value *yaml.Node)) {
	if node == nil || node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		fn(node.Content[i].Value, node.Content[i+1])
	}
}

func scalar(node *yaml.Node) string {
	if node == nil || node.Kind != yaml.ScalarNode {
		return ""
	}
	return node.Value
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
