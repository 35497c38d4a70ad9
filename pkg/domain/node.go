package domain

import (
	"fmt"
	"strconv"
)

// NodeID identifies a node within one Tree.
type NodeID uint64

// String renders the id in decimal, the form used for automaton port names.
func (id NodeID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Category classifies a node by its role in the tree.
type Category uint8

const (
	// CategoryAuto marks a node whose category is derived from its child count
	// when the tree is built.
	CategoryAuto Category = iota
	CategoryRoot
	CategoryControl
	CategoryDecorator
	CategoryLeaf
	CategorySubtree
)

var categoryNames = map[Category]string{
	CategoryAuto:      "auto",
	CategoryRoot:      "root",
	CategoryControl:   "control",
	CategoryDecorator: "decorator",
	CategoryLeaf:      "leaf",
	CategorySubtree:   "subtree",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if _, ok := categoryNames[c]; !ok {
		return nil, fmt.Errorf("unknown category %d", uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	for cat, name := range categoryNames {
		if name == string(text) {
			*c = cat
			return nil
		}
	}
	return fmt.Errorf("unknown category %q", string(text))
}

// categoryFor derives the category of an untagged node from its child count.
func categoryFor(children int) Category {
	switch {
	case children == 0:
		return CategoryLeaf
	case children == 1:
		return CategoryDecorator
	default:
		return CategoryControl
	}
}

// Well-known node names and attribute keys.
const (
	// AttrID is the stable instance identifier, legal only on Action/Condition leaves.
	AttrID = "ID"
	// AttrName is the optional instance name of a definition node.
	AttrName = "name"
	// AttrRegistrationName carries the registration name decoded from a trace snapshot.
	AttrRegistrationName = "registration_name"

	NameBehaviorTree = "BehaviorTree"
	NameSubTree      = "SubTree"
	NameAction       = "Action"
	NameCondition    = "Condition"
	NameControl      = "Control"
	NameDecorator    = "Decorator"
	NameSequence     = "Sequence"
	NameFallback     = "Fallback"
	NameInverter     = "Inverter"
)

// Node is a vertex of a behavior tree.
type Node struct {
	ID       NodeID   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Category Category `json:"category" yaml:"category"`

	// Attributes holds the declared attributes of the node.
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`

	// Line is the 1-based source line of a node parsed from a definition, 0 otherwise.
	Line int `json:"line,omitempty" yaml:"line,omitempty"`
}

// Kind returns the construct name of the node. Generic "Control" and
// "Decorator" elements name their construct through the ID attribute
// (e.g. <Control ID="Sequence">); every other node is named by Name.
func (n Node) Kind() string {
	if n.Name == NameControl || n.Name == NameDecorator {
		if id := n.Attributes[AttrID]; id != "" {
			return id
		}
	}
	return n.Name
}

func (n Node) clone() Node {
	if n.Attributes != nil {
		attrs := make(map[string]string, len(n.Attributes))
		for k, v := range n.Attributes {
			attrs[k] = v
		}
		n.Attributes = attrs
	}
	return n
}
