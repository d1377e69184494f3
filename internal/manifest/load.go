package manifest

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/GoPowerDNS-Admin/go-settings/internal/settings/value"
)

// Format is the encoding of a manifest document.
type Format string

// Supported manifest formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

const (
	keyType  = "type"
	keyValue = "value"
)

// FormatOf derives the format from a file name extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", errors.Wrapf(ErrUnsupportedFormat, "file '%s'", path)
	}
}

// LoadFile reads a manifest from disk, picking the format from the extension.
func LoadFile(path string) (*Manifest, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, errors.Wrap(err, "failed to read manifest file")
	}

	return Parse(data, format)
}

// Parse builds a manifest from a document.
func Parse(data []byte, format Format) (*Manifest, error) {
	switch format {
	case FormatYAML, FormatJSON:
		// JSON documents are valid YAML
		return parseYAML(data)
	case FormatTOML:
		return parseTOML(data)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "format '%s'", format)
	}
}

func parseYAML(data []byte) (*Manifest, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(ErrMalformed, "%v", err)
	}

	m := New()

	if doc.Kind == 0 || len(doc.Content) == 0 {
		return m, nil
	}

	top := deref(doc.Content[0])

	switch {
	case isNull(top):
		return m, nil
	case top.Kind != yaml.MappingNode:
		return nil, errors.Wrap(ErrMalformed, "top level must map scope names to groups")
	}

	for i := 0; i+1 < len(top.Content); i += 2 {
		name := top.Content[i].Value
		body := deref(top.Content[i+1])

		if !isNull(body) && (body.Kind != yaml.MappingNode || isLeafNode(body)) {
			return nil, errors.Wrapf(ErrMalformed, "scope '%s' must be a group", name)
		}

		g, err := yamlGroup(body)
		if err != nil {
			return nil, errors.Wrapf(err, "scope '%s'", name)
		}

		m.root.Add(name, GroupNode(g))
	}

	return m, nil
}

func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}

	return n
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

func isLeafNode(n *yaml.Node) bool {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if k := n.Content[i].Value; k == keyType || k == keyValue {
			return true
		}
	}

	return false
}

func yamlGroup(n *yaml.Node) (*Group, error) {
	g := NewGroup()
	if isNull(n) {
		return g, nil
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		name := n.Content[i].Value
		child := deref(n.Content[i+1])

		switch {
		case isNull(child):
			g.Add(name, GroupNode(NewGroup()))
		case child.Kind == yaml.MappingNode && isLeafNode(child):
			l, err := yamlLeaf(child)
			if err != nil {
				return nil, errors.Wrapf(err, "setting '%s'", name)
			}

			g.Add(name, LeafNode(l))
		case child.Kind == yaml.MappingNode:
			sub, err := yamlGroup(child)
			if err != nil {
				return nil, errors.Wrapf(err, "group '%s'", name)
			}

			g.Add(name, GroupNode(sub))
		default:
			// neither a group nor a declaration; reported on resolution
			g.Add(name, LeafNode(Leaf{}))
		}
	}

	return g, nil
}

func yamlLeaf(n *yaml.Node) (Leaf, error) {
	var l Leaf

	for i := 0; i+1 < len(n.Content); i += 2 {
		field := deref(n.Content[i+1])

		switch n.Content[i].Value {
		case keyType:
			if isNull(field) {
				continue
			}

			l.Type = field.Value
			l.HasType = true
		case keyValue:
			if isNull(field) {
				continue
			}

			v, err := yamlValue(field)
			if err != nil {
				return Leaf{}, err
			}

			l.Default = v
			l.HasValue = true
		}
	}

	return l, nil
}

// yamlValue converts a node into plain Go values. Mappings become ordered
// maps so that collection defaults keep their declared order.
func yamlValue(n *yaml.Node) (any, error) {
	n = deref(n)

	switch n.Kind {
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))

		for _, item := range n.Content {
			v, err := yamlValue(item)
			if err != nil {
				return nil, err
			}

			out = append(out, v)
		}

		return out, nil
	case yaml.MappingNode:
		out := value.NewMap()

		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := yamlValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}

			out.Set(n.Content[i].Value, v)
		}

		return out, nil
	default:
		if isNull(n) {
			return nil, nil
		}

		var v any
		if err := n.Decode(&v); err != nil {
			return nil, errors.Wrapf(ErrMalformed, "line %d: %v", n.Line, err)
		}

		return v, nil
	}
}

func parseTOML(data []byte) (*Manifest, error) {
	var raw map[string]any

	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformed, "%v", err)
	}

	// implicit parent tables take the position of their first child
	order := map[string]int{}
	for i, k := range md.Keys() {
		for j := 1; j <= len(k); j++ {
			if _, ok := order[k[:j].String()]; !ok {
				order[k[:j].String()] = i
			}
		}
	}

	o := tomlOrder(order)
	m := New()

	for _, name := range o.keys("", raw) {
		body, ok := raw[name].(map[string]any)
		if !ok || isLeafMap(body) {
			return nil, errors.Wrapf(ErrMalformed, "scope '%s' must be a group", name)
		}

		m.root.Add(name, GroupNode(o.group(name, body)))
	}

	return m, nil
}

// tomlOrder recovers declaration order, which a decoded TOML map loses.
type tomlOrder map[string]int

func (o tomlOrder) keys(prefix string, m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	pos := func(k string) int {
		if p, ok := o[toml.Key(append(splitKey(prefix), k)).String()]; ok {
			return p
		}

		return len(o)
	}

	sort.SliceStable(keys, func(i, j int) bool {
		pi, pj := pos(keys[i]), pos(keys[j])
		if pi != pj {
			return pi < pj
		}

		return keys[i] < keys[j]
	})

	return keys
}

func splitKey(prefix string) toml.Key {
	if prefix == "" {
		return nil
	}

	return toml.Key(strings.Split(prefix, "\x00"))
}

func joinKey(prefix, k string) string {
	if prefix == "" {
		return k
	}

	return prefix + "\x00" + k
}

func isLeafMap(m map[string]any) bool {
	_, hasType := m[keyType]
	_, hasValue := m[keyValue]

	return hasType || hasValue
}

func (o tomlOrder) group(prefix string, m map[string]any) *Group {
	g := NewGroup()

	for _, name := range o.keys(prefix, m) {
		path := joinKey(prefix, name)

		child, ok := m[name].(map[string]any)
		switch {
		case !ok:
			g.Add(name, LeafNode(Leaf{}))
		case isLeafMap(child):
			var l Leaf
			if t, ok := child[keyType].(string); ok {
				l.Type, l.HasType = t, true
			}

			if v, ok := child[keyValue]; ok {
				l.Default, l.HasValue = o.value(joinKey(path, keyValue), v), true
			}

			g.Add(name, LeafNode(l))
		default:
			g.Add(name, GroupNode(o.group(path, child)))
		}
	}

	return g
}

func (o tomlOrder) value(path string, v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := value.NewMap()
		for _, k := range o.keys(path, x) {
			out.Set(k, o.value(joinKey(path, k), x[k]))
		}

		return out
	case []map[string]any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = o.value(path, item)
		}

		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = o.value(path, item)
		}

		return out
	default:
		return v
	}
}
