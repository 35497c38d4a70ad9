package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/btlib/internal/telemetry"
	"github.com/aretw0/btlib/pkg/domain"
)

// TreeMermaid produces a Mermaid flowchart of the tree. It applies semantic
// styling:
// - Root: ((Circle))
// - Control: {{Hexagon}}
// - Decorator: [/Parallelogram/]
// - Subtree: [[Subroutine]]
// - Leaf: [Rectangle]
// Nodes with a positive value in values are styled as visited. A nil map
// draws the bare tree.
func TreeMermaid(tree *domain.Tree, values domain.ValueMap) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range tree.Nodes() {
		opener, closer := "[", "]"
		switch node.Category {
		case domain.CategoryRoot:
			opener, closer = "((", "))"
		case domain.CategoryControl:
			opener, closer = "{{", "}}"
		case domain.CategoryDecorator:
			opener, closer = "[/", "/]"
		case domain.CategorySubtree:
			opener, closer = "[[", "]]"
		}

		label := escape(nodeLabel(node))
		if v := values[node.ID]; v != nil && v.Kind == domain.KindCount {
			label = fmt.Sprintf("%s <br/> x%d", label, v.Count)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", nodeID(node.ID), opener, label, closer)
	}

	for _, e := range tree.Edges() {
		fmt.Fprintf(&sb, "    %s -- %d --> %s\n", nodeID(e.Parent), e.Order, nodeID(e.Child))
	}

	if values != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		for _, id := range tree.IDs() {
			if telemetry.Visited(values[id]) {
				fmt.Fprintf(&sb, "    class %s visited;\n", nodeID(id))
			}
		}
	}
	return sb.String()
}

// AutomatonMermaid produces a Mermaid flowchart of a compiled automaton with
// one labeled edge per transition. Global ports are drawn as circles.
func AutomatonMermaid(a *domain.Automaton) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	ids := make(map[string]string)
	for i, state := range a.States() {
		id := fmt.Sprintf("s%d", i)
		ids[state] = id
		switch state {
		case domain.PortTick, domain.PortSuccess, domain.PortFailure, domain.PortRunning:
			fmt.Fprintf(&sb, "    %s((\"%s\"))\n", id, escape(state))
		default:
			fmt.Fprintf(&sb, "    %s[\"%s\"]\n", id, escape(state))
		}
	}
	for _, t := range a.Transitions() {
		fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", ids[t.From], t.Label, ids[t.To])
	}
	return sb.String()
}

func nodeLabel(n domain.Node) string {
	if id, ok := n.Attributes[domain.AttrID]; ok && id != "" {
		return n.Name + ": " + id
	}
	return n.Name
}

func nodeID(id domain.NodeID) string {
	return "n" + id.String()
}

// escape keeps user text from closing the quoted Mermaid label.
func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
