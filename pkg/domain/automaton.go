package domain

import (
	"encoding/json"
	"fmt"
)

// Label names the signal carried by an automaton transition.
type Label string

const (
	OnTick    Label = "on_tick"
	OnSuccess Label = "on_success"
	OnFailure Label = "on_failure"
	OnRunning Label = "on_running"
)

// Global port names exposed by a compiled automaton.
const (
	PortTick    = "tick"
	PortSuccess = "success"
	PortFailure = "failure"
	PortRunning = "running"
)

// Transition is a labeled, directed automaton edge.
type Transition struct {
	From  string `json:"from" yaml:"from"`
	To    string `json:"to" yaml:"to"`
	Label Label  `json:"label" yaml:"label"`
}

type transitionKey struct{ from, to string }

// Automaton is a directed graph of named states (ports and leaves) with at
// most one labeled transition per ordered pair of states. States and
// transitions keep insertion order so that output is deterministic.
type Automaton struct {
	states []string
	known  map[string]struct{}
	edges  []Transition
	index  map[transitionKey]int
}

// NewAutomaton creates an empty automaton.
func NewAutomaton() *Automaton {
	return &Automaton{
		known: make(map[string]struct{}),
		index: make(map[transitionKey]int),
	}
}

// AddState adds a state if it is not yet present.
func (a *Automaton) AddState(name string) {
	if _, ok := a.known[name]; ok {
		return
	}
	a.known[name] = struct{}{}
	a.states = append(a.states, name)
}

// AddTransition adds from->to with the given label, creating missing states.
// Adding an existing pair replaces its label.
func (a *Automaton) AddTransition(from, to string, label Label) {
	a.AddState(from)
	a.AddState(to)
	k := transitionKey{from, to}
	if i, ok := a.index[k]; ok {
		a.edges[i].Label = label
		return
	}
	a.index[k] = len(a.edges)
	a.edges = append(a.edges, Transition{From: from, To: to, Label: label})
}

// HasState reports whether the state exists.
func (a *Automaton) HasState(name string) bool {
	_, ok := a.known[name]
	return ok
}

// Label returns the label of from->to, if that transition exists.
func (a *Automaton) Label(from, to string) (Label, bool) {
	i, ok := a.index[transitionKey{from, to}]
	if !ok {
		return "", false
	}
	return a.edges[i].Label, true
}

// States returns all states in insertion order.
func (a *Automaton) States() []string {
	return append([]string(nil), a.states...)
}

// Transitions returns all transitions in insertion order.
func (a *Automaton) Transitions() []Transition {
	return append([]Transition(nil), a.edges...)
}

// In returns the transitions entering a state.
func (a *Automaton) In(name string) []Transition {
	var out []Transition
	for _, e := range a.edges {
		if e.To == name {
			out = append(out, e)
		}
	}
	return out
}

// Out returns the transitions leaving a state.
func (a *Automaton) Out(name string) []Transition {
	var out []Transition
	for _, e := range a.edges {
		if e.From == name {
			out = append(out, e)
		}
	}
	return out
}

// RemoveState deletes a state and every transition touching it.
func (a *Automaton) RemoveState(name string) {
	if _, ok := a.known[name]; !ok {
		return
	}
	delete(a.known, name)
	states := a.states[:0]
	for _, s := range a.states {
		if s != name {
			states = append(states, s)
		}
	}
	a.states = states

	edges := a.edges[:0]
	for _, e := range a.edges {
		if e.From != name && e.To != name {
			edges = append(edges, e)
		}
	}
	a.edges = edges
	a.reindex()
}

// Rename relabels states according to mapping, keeping order and transitions.
// Renaming onto an existing state is an error.
func (a *Automaton) Rename(mapping map[string]string) error {
	for from, to := range mapping {
		if _, ok := a.known[from]; !ok {
			return fmt.Errorf("%w: cannot rename unknown state %q", ErrStructural, from)
		}
		if _, taken := a.known[to]; taken && mapping[to] == "" {
			return fmt.Errorf("%w: cannot rename %q onto existing state %q", ErrStructural, from, to)
		}
	}
	rename := func(s string) string {
		if to, ok := mapping[s]; ok {
			return to
		}
		return s
	}
	a.known = make(map[string]struct{}, len(a.states))
	for i, s := range a.states {
		a.states[i] = rename(s)
		a.known[a.states[i]] = struct{}{}
	}
	for i := range a.edges {
		a.edges[i].From = rename(a.edges[i].From)
		a.edges[i].To = rename(a.edges[i].To)
	}
	a.reindex()
	return nil
}

// Absorb copies every state and transition of other into a, preserving the
// order of other.
func (a *Automaton) Absorb(other *Automaton) {
	for _, s := range other.states {
		a.AddState(s)
	}
	for _, e := range other.edges {
		a.AddTransition(e.From, e.To, e.Label)
	}
}

func (a *Automaton) reindex() {
	a.index = make(map[transitionKey]int, len(a.edges))
	for i, e := range a.edges {
		a.index[transitionKey{e.From, e.To}] = i
	}
}

type automatonDoc struct {
	States      []string     `json:"states" yaml:"states"`
	Transitions []Transition `json:"transitions" yaml:"transitions"`
}

// MarshalJSON renders the automaton as {"states": [...], "transitions": [...]}.
func (a *Automaton) MarshalJSON() ([]byte, error) {
	return json.Marshal(automatonDoc{States: a.States(), Transitions: a.Transitions()})
}

// MarshalYAML renders the automaton with the same layout as MarshalJSON.
func (a *Automaton) MarshalYAML() (interface{}, error) {
	return automatonDoc{States: a.States(), Transitions: a.Transitions()}, nil
}
