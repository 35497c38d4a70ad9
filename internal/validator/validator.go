package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/btlib/pkg/domain"
)

// Issues walks the tree from its roots and lists every structural problem
// that would stop it from compiling. Subtree nodes are reported as well
// since they cannot be inlined.
func Issues(tree *domain.Tree) []string {
	var issues []string

	roots := tree.Roots()
	if len(roots) != 1 {
		issues = append(issues, fmt.Sprintf("expected exactly one root, found %d", len(roots)))
	}

	// BFS from every root; anything left over is unreachable or part of a
	// cycle (roots have no parent, so cycles never hang off a root).
	visited := make(map[domain.NodeID]bool, tree.Len())
	queue := append([]domain.NodeID(nil), roots...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		node, _ := tree.Node(id)
		children := tree.Children(id)
		issues = append(issues, checkNode(node, len(children))...)
		for _, c := range children {
			if !visited[c] {
				queue = append(queue, c)
			}
		}
	}

	for _, id := range tree.IDs() {
		if !visited[id] {
			issues = append(issues, fmt.Sprintf("node %d is not reachable from any root", id))
		}
	}
	return issues
}

func checkNode(node domain.Node, children int) []string {
	var issues []string
	at := describe(node)

	switch node.Category {
	case domain.CategoryRoot:
		if children != 1 {
			issues = append(issues, fmt.Sprintf("root %s must have exactly one child, found %d", at, children))
		}
	case domain.CategoryLeaf:
		if children != 0 {
			issues = append(issues, fmt.Sprintf("leaf %s has %d children", at, children))
		}
	case domain.CategoryDecorator:
		if children != 1 {
			issues = append(issues, fmt.Sprintf("decorator %s must have exactly one child, found %d", at, children))
		}
	case domain.CategoryControl:
		if children == 0 {
			issues = append(issues, fmt.Sprintf("control %s has no children", at))
		}
	case domain.CategorySubtree:
		issues = append(issues, fmt.Sprintf("subtree %s cannot be inlined", at))
	}

	if _, ok := node.Attributes[domain.AttrID]; ok && node.Category == domain.CategoryLeaf &&
		node.Name != domain.NameAction && node.Name != domain.NameCondition {
		issues = append(issues, fmt.Sprintf("only Action and Condition leaves can have an ID, %s is %q", at, node.Name))
	}
	return issues
}

func describe(n domain.Node) string {
	if n.Line > 0 {
		return fmt.Sprintf("%d (line %d)", n.ID, n.Line)
	}
	return n.ID.String()
}

// ValidateTree returns an ErrStructural error listing every issue, or nil.
func ValidateTree(tree *domain.Tree) error {
	issues := Issues(tree)
	if len(issues) > 0 {
		return fmt.Errorf("%w: found %d errors:\n- %s", domain.ErrStructural, len(issues), strings.Join(issues, "\n- "))
	}
	return nil
}
