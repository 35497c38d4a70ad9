package fbl

import (
	"encoding/binary"
	"fmt"
	"math"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/aretw0/btlib/internal/fbl/serialization"
	"github.com/aretw0/btlib/pkg/domain"
)

// EncodeTrace writes the framed snapshot of a single-root tree. Node ids
// must fit in 16 bits. Names follow traceNames, so decoding the snapshot
// keeps the identity of definition leaves.
func EncodeTrace(tree *domain.Tree) ([]byte, error) {
	roots := tree.Roots()
	if len(roots) != 1 {
		return nil, fmt.Errorf("%w: trace needs exactly one root, found %d", domain.ErrStructural, len(roots))
	}
	ids := tree.IDs()
	for _, id := range ids {
		if id > math.MaxUint16 {
			return nil, fmt.Errorf("%w: node id %d does not fit in a trace uid", domain.ErrFormat, id)
		}
	}

	b := flatbuffers.NewBuilder(1024)
	offsets := make([]flatbuffers.UOffsetT, len(ids))
	for i, id := range ids {
		n, _ := tree.Node(id)
		children := tree.Children(id)

		instance, registration := traceNames(n)
		name := b.CreateString(instance)
		var reg flatbuffers.UOffsetT
		if registration != "" {
			reg = b.CreateString(registration)
		}
		serialization.TreeNodeStartChildrenUidVector(b, len(children))
		for j := len(children) - 1; j >= 0; j-- {
			b.PrependUint16(uint16(children[j]))
		}
		kids := b.EndVector(len(children))

		serialization.TreeNodeStart(b)
		serialization.TreeNodeAddUid(b, uint16(id))
		serialization.TreeNodeAddChildrenUid(b, kids)
		serialization.TreeNodeAddInstanceName(b, name)
		if reg != 0 {
			serialization.TreeNodeAddRegistrationName(b, reg)
		}
		offsets[i] = serialization.TreeNodeEnd(b)
	}

	serialization.BehaviorTreeStartNodesVector(b, len(offsets))
	for i := len(offsets) - 1; i >= 0; i-- {
		b.PrependUOffsetT(offsets[i])
	}
	nodes := b.EndVector(len(offsets))

	serialization.BehaviorTreeStart(b)
	serialization.BehaviorTreeAddRootUid(b, uint16(roots[0]))
	serialization.BehaviorTreeAddNodes(b, nodes)
	b.Finish(serialization.BehaviorTreeEnd(b))

	snapshot := b.FinishedBytes()
	out := make([]byte, headerOffset, headerOffset+len(snapshot))
	binary.LittleEndian.PutUint32(out, uint32(len(snapshot)))
	return append(out, snapshot...), nil
}

// traceNames returns the instance and registration names written for n.
// A definition node registers under its ID attribute (or its tag) and is
// named by its name attribute, falling back to the registration name. Nodes
// decoded from a trace keep their names unchanged. The registration name is
// left empty when it adds nothing to the instance name.
func traceNames(n domain.Node) (instance, registration string) {
	if r, ok := n.Attributes[domain.AttrRegistrationName]; ok {
		return n.Name, r
	}
	registration = n.Name
	if id := n.Attributes[domain.AttrID]; id != "" {
		registration = id
	}
	instance = registration
	if name := n.Attributes[domain.AttrName]; name != "" {
		instance = name
	}
	if registration == instance {
		registration = ""
	}
	return instance, registration
}

// AppendLog appends one record per event to a trace file. Timestamps and the
// previous status byte are left zero.
func AppendLog(file []byte, events []domain.Event) ([]byte, error) {
	for _, ev := range events {
		if ev.NodeID > math.MaxUint16 {
			return nil, fmt.Errorf("%w: node id %d does not fit in a trace uid", domain.ErrFormat, ev.NodeID)
		}
		var rec [RecordSize]byte
		binary.LittleEndian.PutUint16(rec[uidOffset:], uint16(ev.NodeID))
		rec[statusOffset] = byte(ev.Status)
		file = append(file, rec[:]...)
	}
	return file, nil
}

// EncodeFile writes a complete trace file: snapshot followed by the events.
// Readers locate the records through the low 16 bits of the header length,
// so the snapshot must stay below 64 KiB.
func EncodeFile(tree *domain.Tree, events []domain.Event) ([]byte, error) {
	file, err := EncodeTrace(tree)
	if err != nil {
		return nil, err
	}
	if size := binary.LittleEndian.Uint32(file); size > math.MaxUint16 {
		return nil, fmt.Errorf("%w: snapshot of %d bytes is too large for a log header", domain.ErrFormat, size)
	}
	return AppendLog(file, events)
}
