// Package serialization holds the flatbuffers tables of the BehaviorTree
// trace snapshot (namespace Serialization): BehaviorTree, TreeNode and
// NodeModel, together with their builder functions.
//
// The accessors follow the layout emitted by flatc for Go so that the
// package can be regenerated from the schema without touching callers.
package serialization
