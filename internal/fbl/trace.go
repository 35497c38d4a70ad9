package fbl

import (
	"encoding/binary"
	"fmt"

	"github.com/aretw0/btlib/internal/fbl/serialization"
	"github.com/aretw0/btlib/pkg/domain"
)

// headerOffset is the position of the snapshot behind the u32 length prefix.
const headerOffset = 4

// NodeModel describes a registered node type as listed in the snapshot.
type NodeModel struct {
	RegistrationName string `json:"registration_name" yaml:"registration_name"`
	Type             string `json:"type" yaml:"type"`
}

// DecodeTrace builds a Tree from a trace file. Every node record becomes a
// node named after its instance name; the node whose uid equals the
// snapshot's root uid is the Root, and children keep their listed order.
func DecodeTrace(buf []byte) (tree *domain.Tree, err error) {
	bt, err := openSnapshot(buf)
	if err != nil {
		return nil, err
	}
	// Offsets inside the snapshot are not bounds checked by the table
	// accessors; a corrupt buffer panics with an index error.
	defer func() {
		if r := recover(); r != nil {
			tree, err = nil, fmt.Errorf("%w: corrupt trace snapshot: %v", domain.ErrFormat, r)
		}
	}()

	rootUID := domain.NodeID(bt.RootUid())
	n := bt.NodesLength()
	records := make([]serialization.TreeNode, n)
	b := domain.NewTreeBuilder()
	foundRoot := false
	for i := 0; i < n; i++ {
		rec := &records[i]
		bt.Nodes(rec, i)
		node := domain.Node{
			ID:   domain.NodeID(rec.Uid()),
			Name: string(rec.InstanceName()),
		}
		if reg := rec.RegistrationName(); len(reg) > 0 {
			node.Attributes = map[string]string{domain.AttrRegistrationName: string(reg)}
		}
		if node.ID == rootUID {
			node.Category = domain.CategoryRoot
			foundRoot = true
		}
		if err := b.AddNode(node); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrFormat, err)
		}
	}
	if !foundRoot {
		return nil, fmt.Errorf("%w: root uid %d does not match any node", domain.ErrFormat, rootUID)
	}

	for i := range records {
		rec := &records[i]
		for j := 0; j < rec.ChildrenUidLength(); j++ {
			edge := domain.Edge{
				Parent: domain.NodeID(rec.Uid()),
				Child:  domain.NodeID(rec.ChildrenUid(j)),
				Order:  j,
			}
			if err := b.AddEdge(edge); err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrFormat, err)
			}
		}
	}

	tree, err = b.Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFormat, err)
	}
	return tree, nil
}

// DecodeNodeModels lists the node models carried by the trace snapshot.
func DecodeNodeModels(buf []byte) (models []NodeModel, err error) {
	bt, err := openSnapshot(buf)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			models, err = nil, fmt.Errorf("%w: corrupt trace snapshot: %v", domain.ErrFormat, r)
		}
	}()

	n := bt.NodeModelsLength()
	models = make([]NodeModel, 0, n)
	var m serialization.NodeModel
	for i := 0; i < n; i++ {
		bt.NodeModels(&m, i)
		models = append(models, NodeModel{
			RegistrationName: string(m.RegistrationName()),
			Type:             m.Type().String(),
		})
	}
	return models, nil
}

func openSnapshot(buf []byte) (*serialization.BehaviorTree, error) {
	if len(buf) < headerOffset+4 {
		return nil, fmt.Errorf("%w: trace too short (%d bytes)", domain.ErrFormat, len(buf))
	}
	size := binary.LittleEndian.Uint32(buf)
	if uint64(size) > uint64(len(buf)-headerOffset) {
		return nil, fmt.Errorf("%w: header length %d exceeds buffer", domain.ErrFormat, size)
	}
	root := binary.LittleEndian.Uint32(buf[headerOffset:])
	if root >= size {
		return nil, fmt.Errorf("%w: root table offset %d out of range", domain.ErrFormat, root)
	}
	return serialization.GetRootAsBehaviorTree(buf, headerOffset), nil
}
