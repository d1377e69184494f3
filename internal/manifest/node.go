package manifest

import (
	"slices"
)

// Leaf is a single setting declaration as written in the manifest. It is kept
// raw; checks happen when the leaf is resolved.
type Leaf struct {
	Type     string
	Default  any
	HasType  bool
	HasValue bool
}

// Node is either a group of further declarations or a leaf.
type Node struct {
	leaf  *Leaf
	group *Group
}

// LeafNode wraps l into a Node.
func LeafNode(l Leaf) Node { return Node{leaf: &l} }

// GroupNode wraps g into a Node.
func GroupNode(g *Group) Node { return Node{group: g} }

// IsLeaf reports whether n is a setting declaration.
func (n Node) IsLeaf() bool { return n.leaf != nil }

// Leaf returns the declaration of a leaf node, nil for groups.
func (n Node) Leaf() *Leaf { return n.leaf }

// Group returns the children of a group node, nil for leaves.
func (n Node) Group() *Group { return n.group }

// Group holds named children in declaration order.
type Group struct {
	keys     []string
	children map[string]Node
}

// NewGroup returns an empty group.
func NewGroup() *Group {
	return &Group{children: map[string]Node{}}
}

// Add stores n under name. A name that is already present keeps its position.
func (g *Group) Add(name string, n Node) *Group {
	if g.children == nil {
		g.children = map[string]Node{}
	}

	if _, ok := g.children[name]; !ok {
		g.keys = append(g.keys, name)
	}

	g.children[name] = n

	return g
}

// Leaf declares a setting named name and returns g for chaining.
func (g *Group) Leaf(name, typ string, def any) *Group {
	return g.Add(name, LeafNode(Leaf{Type: typ, Default: def, HasType: true, HasValue: true}))
}

// Group returns the child group called name, creating it when missing.
// An existing leaf of that name is replaced.
func (g *Group) Group(name string) *Group {
	if n, ok := g.Child(name); ok && n.group != nil {
		return n.group
	}

	child := NewGroup()
	g.Add(name, GroupNode(child))

	return child
}

// Child returns the node stored under name.
func (g *Group) Child(name string) (Node, bool) {
	if g == nil {
		return Node{}, false
	}

	n, ok := g.children[name]

	return n, ok
}

// Keys returns the child names in declaration order.
func (g *Group) Keys() []string {
	if g == nil {
		return nil
	}

	return slices.Clone(g.keys)
}

// walk visits every leaf below g depth first, in declaration order.
func (g *Group) walk(prefix string, fn func(path string, l *Leaf)) {
	if g == nil {
		return
	}

	for _, k := range g.keys {
		path := k
		if prefix != "" {
			path = prefix + Separator + k
		}

		n := g.children[k]
		if n.leaf != nil {
			fn(path, n.leaf)
			continue
		}

		n.group.walk(path, fn)
	}
}
