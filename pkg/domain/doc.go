/*
Package domain contains the core models of the behavior-tree toolkit.

The package is kept pure and free of I/O, following Hexagonal Architecture
principles: decoders and compilers build these values, adapters persist them.

# Key Entities

  - Tree: the canonical, immutable directed graph of a behavior tree (nodes with
    categories and attributes, ordered parent/child edges).
  - Event: one decoded (node id, status) observation from an execution log.
  - ValueMap: per-node telemetry (execution counts or per-status histograms),
    where a nil value means the node was never observed.
  - Telemetry: the accumulated counts and histograms of one or more runs.
  - Automaton: the four-port finite-state automaton compiled from a Tree.
*/
package domain
