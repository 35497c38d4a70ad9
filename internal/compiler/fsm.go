package compiler

import (
	"fmt"
	"strings"

	"github.com/aretw0/btlib/pkg/domain"
)

// ports names the four signal endpoints of one compiled node.
type ports struct {
	tick, success, failure, running string
}

func portsOf(id domain.NodeID) ports {
	s := id.String()
	return ports{
		tick:    domain.PortTick + "_" + s,
		success: domain.PortSuccess + "_" + s,
		failure: domain.PortFailure + "_" + s,
		running: domain.PortRunning + "_" + s,
	}
}

func (p ports) addTo(a *domain.Automaton) {
	a.AddState(p.tick)
	a.AddState(p.success)
	a.AddState(p.failure)
	a.AddState(p.running)
}

// CompileFSM translates a tree with exactly one root into an automaton whose
// external ports are tick, success, failure and running. Internal ports with
// a single successor are collapsed afterwards. Any error aborts compilation.
func CompileFSM(tree *domain.Tree) (*domain.Automaton, error) {
	roots := tree.Roots()
	if len(roots) != 1 {
		return nil, fmt.Errorf("%w: there must be exactly one root node, found %d", domain.ErrStructural, len(roots))
	}
	children := tree.Children(roots[0])
	if len(children) != 1 {
		return nil, fmt.Errorf("%w: root node must have exactly one child, found %d", domain.ErrStructural, len(children))
	}

	fsm, p, err := compileSubtree(tree, roots[0])
	if err != nil {
		return nil, err
	}
	err = fsm.Rename(map[string]string{
		p.tick:    domain.PortTick,
		p.success: domain.PortSuccess,
		p.failure: domain.PortFailure,
		p.running: domain.PortRunning,
	})
	if err != nil {
		return nil, err
	}
	collapsePorts(fsm)
	return fsm, nil
}

// compileSubtree returns the owned automaton of the subtree below id together
// with the ports the caller wires against.
func compileSubtree(tree *domain.Tree, id domain.NodeID) (*domain.Automaton, ports, error) {
	node, ok := tree.Node(id)
	if !ok {
		return nil, ports{}, fmt.Errorf("%w: unknown node %d", domain.ErrStructural, id)
	}
	children := tree.Children(id)

	switch node.Category {
	case domain.CategoryRoot:
		if len(children) != 1 {
			return nil, ports{}, fmt.Errorf("%w: root node %d must have exactly one child", domain.ErrStructural, id)
		}
		return compileSubtree(tree, children[0])
	case domain.CategoryLeaf:
		return compileLeaf(node)
	case domain.CategoryControl:
		return compileControl(tree, node, children)
	case domain.CategoryDecorator:
		return compileDecorator(tree, node, children)
	default:
		return nil, ports{}, fmt.Errorf("%w: category %s of node %d", domain.ErrUnsupportedConstruct, node.Category, id)
	}
}

func compileLeaf(node domain.Node) (*domain.Automaton, ports, error) {
	var name string
	if instance, ok := node.Attributes[domain.AttrID]; ok {
		if node.Name != domain.NameAction && node.Name != domain.NameCondition {
			return nil, ports{}, fmt.Errorf("%w: only Action and Condition nodes can have an ID, node %d is %q",
				domain.ErrStructural, node.ID, node.Name)
		}
		name = node.ID.String() + "_" + instance
	} else if node.Name != "" {
		name = node.ID.String() + "_" + node.Name
	} else {
		return nil, ports{}, fmt.Errorf("%w: leaf node %d must have an ID or a NAME", domain.ErrStructural, node.ID)
	}

	fsm := domain.NewAutomaton()
	p := portsOf(node.ID)
	p.addTo(fsm)
	fsm.AddState(name)
	fsm.AddTransition(p.tick, name, domain.OnTick)
	fsm.AddTransition(name, p.success, domain.OnSuccess)
	fsm.AddTransition(name, p.failure, domain.OnFailure)
	fsm.AddTransition(name, p.running, domain.OnRunning)
	return fsm, p, nil
}

type controlType int

const (
	controlSequence controlType = iota
	controlFallback
)

func compileControl(tree *domain.Tree, node domain.Node, children []domain.NodeID) (*domain.Automaton, ports, error) {
	if len(children) == 0 {
		return nil, ports{}, fmt.Errorf("%w: control node %d has no children", domain.ErrStructural, node.ID)
	}
	subs := make([]*domain.Automaton, len(children))
	childPorts := make([]ports, len(children))
	for i, c := range children {
		sub, cp, err := compileSubtree(tree, c)
		if err != nil {
			return nil, ports{}, err
		}
		subs[i], childPorts[i] = sub, cp
	}

	var ct controlType
	switch node.Kind() {
	case domain.NameSequence:
		ct = controlSequence
	case domain.NameFallback:
		ct = controlFallback
	default:
		return nil, ports{}, fmt.Errorf("%w: control type %q of node %d", domain.ErrUnsupportedConstruct, node.Kind(), node.ID)
	}

	fsm := domain.NewAutomaton()
	p := portsOf(node.ID)
	p.addTo(fsm)
	for _, sub := range subs {
		fsm.Absorb(sub)
	}

	for i := 0; i < len(childPorts)-1; i++ {
		cur, next := childPorts[i], childPorts[i+1]
		switch ct {
		case controlSequence:
			fsm.AddTransition(cur.success, next.tick, domain.OnSuccess)
			fsm.AddTransition(cur.failure, p.failure, domain.OnFailure)
		case controlFallback:
			fsm.AddTransition(cur.success, p.success, domain.OnSuccess)
			fsm.AddTransition(cur.failure, next.tick, domain.OnFailure)
		}
		fsm.AddTransition(cur.running, p.running, domain.OnRunning)
	}

	first, last := childPorts[0], childPorts[len(childPorts)-1]
	fsm.AddTransition(p.tick, first.tick, domain.OnTick)
	fsm.AddTransition(last.success, p.success, domain.OnSuccess)
	fsm.AddTransition(last.failure, p.failure, domain.OnFailure)
	fsm.AddTransition(last.running, p.running, domain.OnRunning)
	return fsm, p, nil
}

func compileDecorator(tree *domain.Tree, node domain.Node, children []domain.NodeID) (*domain.Automaton, ports, error) {
	if len(children) != 1 {
		return nil, ports{}, fmt.Errorf("%w: decorator node %d must have exactly one child, found %d",
			domain.ErrStructural, node.ID, len(children))
	}
	sub, cp, err := compileSubtree(tree, children[0])
	if err != nil {
		return nil, ports{}, err
	}
	if node.Kind() != domain.NameInverter {
		return nil, ports{}, fmt.Errorf("%w: decorator %q of node %d", domain.ErrUnsupportedConstruct, node.Kind(), node.ID)
	}

	fsm := domain.NewAutomaton()
	p := portsOf(node.ID)
	p.addTo(fsm)
	fsm.Absorb(sub)
	fsm.AddTransition(p.tick, cp.tick, domain.OnTick)
	fsm.AddTransition(cp.success, p.failure, domain.OnSuccess)
	fsm.AddTransition(cp.failure, p.success, domain.OnFailure)
	fsm.AddTransition(cp.running, p.running, domain.OnRunning)
	return fsm, p, nil
}

// collapsePorts removes every internal port that has exactly one outgoing
// and at least one incoming transition, redirecting the incoming transitions
// to the outgoing target with their own labels. Dead-end ports stay.
func collapsePorts(fsm *domain.Automaton) {
	for _, state := range fsm.States() {
		if !isInternalPort(state) || !fsm.HasState(state) {
			continue
		}
		out, in := fsm.Out(state), fsm.In(state)
		if len(out) != 1 || len(in) == 0 {
			continue
		}
		for _, t := range in {
			fsm.AddTransition(t.From, out[0].To, t.Label)
		}
		fsm.RemoveState(state)
	}
}

func isInternalPort(state string) bool {
	for _, prefix := range []string{domain.PortTick, domain.PortSuccess, domain.PortFailure, domain.PortRunning} {
		if strings.HasPrefix(state, prefix+"_") {
			return true
		}
	}
	return false
}
