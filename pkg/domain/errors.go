package domain

import "errors"

// ErrFormat is returned when binary or text input is malformed or unrecognized.
var ErrFormat = errors.New("format error")

// ErrStructural is returned when a tree violates a structural invariant
// (missing or duplicate root, wrong child count, missing required attribute).
var ErrStructural = errors.New("structural error")

// ErrConsistency is returned when value maps disagree in shape or length,
// or when telemetry references a node the tree does not contain.
var ErrConsistency = errors.New("consistency error")

// ErrUnsupportedConstruct is returned when the automaton compiler has no rule
// for a control or decorator name, or for a node category.
var ErrUnsupportedConstruct = errors.New("unsupported construct")

// ErrRecordNotFound is returned when a telemetry record cannot be found in a store.
var ErrRecordNotFound = errors.New("record not found")
