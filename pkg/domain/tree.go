package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Edge links a parent to a child. Order is the zero-based position of the
// child among its siblings and encodes tick order for control nodes.
type Edge struct {
	Parent NodeID `json:"parent" yaml:"parent"`
	Child  NodeID `json:"child" yaml:"child"`
	Order  int    `json:"order" yaml:"order"`
}

// Tree is the canonical in-memory representation of a behavior tree: an
// arena of nodes indexed by id plus ordered child lists. A Tree is immutable
// once built; all accessors return copies.
type Tree struct {
	nodes    map[NodeID]Node
	order    []NodeID
	children map[NodeID][]NodeID
	parent   map[NodeID]NodeID
	roots    []NodeID
}

// TreeBuilder accumulates nodes and edges and produces an immutable Tree.
type TreeBuilder struct {
	nodes map[NodeID]Node
	order []NodeID
	edges []Edge
}

// NewTreeBuilder creates an empty builder.
func NewTreeBuilder() *TreeBuilder {
	return &TreeBuilder{
		nodes: make(map[NodeID]Node),
	}
}

// AddNode registers a node. Node ids must be unique.
func (b *TreeBuilder) AddNode(n Node) error {
	if _, exists := b.nodes[n.ID]; exists {
		return fmt.Errorf("%w: duplicate node id %d", ErrStructural, n.ID)
	}
	b.nodes[n.ID] = n.clone()
	b.order = append(b.order, n.ID)
	return nil
}

// AddEdge registers a parent/child link. Both endpoints must already exist.
func (b *TreeBuilder) AddEdge(e Edge) error {
	if _, ok := b.nodes[e.Parent]; !ok {
		return fmt.Errorf("%w: edge from unknown node %d", ErrStructural, e.Parent)
	}
	if _, ok := b.nodes[e.Child]; !ok {
		return fmt.Errorf("%w: edge to unknown node %d", ErrStructural, e.Child)
	}
	if e.Order < 0 {
		return fmt.Errorf("%w: negative child order %d on edge %d->%d", ErrStructural, e.Order, e.Parent, e.Child)
	}
	b.edges = append(b.edges, e)
	return nil
}

// Build validates the collected edges, derives untagged categories from the
// child count and returns the immutable Tree. At least one Root is required
// and roots cannot have a parent. Nodes unreachable from the roots (cycles
// included) are kept; the validator reports them.
func (b *TreeBuilder) Build() (*Tree, error) {
	t := &Tree{
		nodes:    make(map[NodeID]Node, len(b.nodes)),
		order:    append([]NodeID(nil), b.order...),
		children: make(map[NodeID][]NodeID),
		parent:   make(map[NodeID]NodeID),
	}

	byParent := make(map[NodeID][]Edge)
	for _, e := range b.edges {
		if p, ok := t.parent[e.Child]; ok {
			return nil, fmt.Errorf("%w: node %d has two parents (%d, %d)", ErrStructural, e.Child, p, e.Parent)
		}
		t.parent[e.Child] = e.Parent
		byParent[e.Parent] = append(byParent[e.Parent], e)
	}
	for parent, edges := range byParent {
		sort.SliceStable(edges, func(i, j int) bool { return edges[i].Order < edges[j].Order })
		ids := make([]NodeID, len(edges))
		for i, e := range edges {
			if i > 0 && edges[i-1].Order == e.Order {
				return nil, fmt.Errorf("%w: node %d has two children at position %d", ErrStructural, parent, e.Order)
			}
			ids[i] = e.Child
		}
		t.children[parent] = ids
	}

	for _, id := range t.order {
		n := b.nodes[id].clone()
		if n.Category == CategoryAuto {
			n.Category = categoryFor(len(t.children[id]))
		}
		if n.Category == CategoryRoot {
			// Every node has at most one parent, so a parentless root also
			// rules out any cycle reachable from it.
			if p, ok := t.parent[id]; ok {
				return nil, fmt.Errorf("%w: root %d has parent %d", ErrStructural, id, p)
			}
			t.roots = append(t.roots, id)
		}
		t.nodes[id] = n
	}
	if len(t.roots) == 0 {
		return nil, fmt.Errorf("%w: tree has no root", ErrStructural)
	}
	return t, nil
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.order)
}

// Node returns the node with the given id.
func (t *Tree) Node(id NodeID) (Node, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Has reports whether the tree contains a node with the given id.
func (t *Tree) Has(id NodeID) bool {
	_, ok := t.nodes[id]
	return ok
}

// IDs returns all node ids in insertion (document) order.
func (t *Tree) IDs() []NodeID {
	return append([]NodeID(nil), t.order...)
}

// Nodes returns all nodes in insertion (document) order.
func (t *Tree) Nodes() []Node {
	out := make([]Node, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.nodes[id].clone())
	}
	return out
}

// Children returns the ordered child ids of a node.
func (t *Tree) Children(id NodeID) []NodeID {
	return append([]NodeID(nil), t.children[id]...)
}

// Parent returns the parent of a node, if any.
func (t *Tree) Parent(id NodeID) (NodeID, bool) {
	p, ok := t.parent[id]
	return p, ok
}

// Roots returns the ids of all Root nodes in insertion order.
func (t *Tree) Roots() []NodeID {
	return append([]NodeID(nil), t.roots...)
}

// Edges returns every edge, grouped by parent in insertion order and ordered
// by child position.
func (t *Tree) Edges() []Edge {
	out := make([]Edge, 0, len(t.parent))
	for _, id := range t.order {
		for i, c := range t.children[id] {
			out = append(out, Edge{Parent: id, Child: c, Order: i})
		}
	}
	return out
}

// SameStructure reports whether both trees have the same node ids, names,
// categories, attributes and ordered edges.
func (t *Tree) SameStructure(other *Tree) bool {
	if t == nil || other == nil {
		return t == other
	}
	if len(t.nodes) != len(other.nodes) {
		return false
	}
	for id, n := range t.nodes {
		o, ok := other.nodes[id]
		if !ok || n.Name != o.Name || n.Category != o.Category || !sameAttrs(n.Attributes, o.Attributes) {
			return false
		}
		a, b := t.children[id], other.children[id]
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}

// Fingerprint returns a stable digest of the tree structure: ids, names,
// categories, attributes and ordered children. Trees with the same
// structure have the same fingerprint.
func (t *Tree) Fingerprint() string {
	h := sha256.New()
	for _, id := range t.order {
		n := t.nodes[id]
		fmt.Fprintf(h, "%d|%s|%s|", id, n.Name, n.Category)
		keys := make([]string, 0, len(n.Attributes))
		for k := range n.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(h, "%q=%q,", k, n.Attributes[k])
		}
		children := make([]string, len(t.children[id]))
		for i, c := range t.children[id] {
			children[i] = c.String()
		}
		fmt.Fprintf(h, "|%s\n", strings.Join(children, ","))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func sameAttrs(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || v != w {
			return false
		}
	}
	return true
}

type treeDoc struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// MarshalJSON renders the tree as {"nodes": [...], "edges": [...]}.
func (t *Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(treeDoc{Nodes: t.Nodes(), Edges: t.Edges()})
}

// MarshalYAML renders the tree with the same layout as MarshalJSON.
func (t *Tree) MarshalYAML() (interface{}, error) {
	return treeDoc{Nodes: t.Nodes(), Edges: t.Edges()}, nil
}
