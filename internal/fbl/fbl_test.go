package fbl

import (
	"encoding/binary"
	"strings"
	"testing"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/btlib/internal/fbl/serialization"
	"github.com/aretw0/btlib/pkg/domain"
)

type rawNode struct {
	uid      uint16
	name     string
	children []uint16
}

type rawModel struct {
	name string
	typ  serialization.NodeType
}

// rawTrace builds a framed snapshot directly, so tests can produce buffers
// EncodeTrace would refuse to write.
func rawTrace(rootUID uint16, nodes []rawNode, models []rawModel) []byte {
	b := flatbuffers.NewBuilder(256)

	nodeOffsets := make([]flatbuffers.UOffsetT, len(nodes))
	for i, n := range nodes {
		name := b.CreateString(n.name)
		serialization.TreeNodeStartChildrenUidVector(b, len(n.children))
		for j := len(n.children) - 1; j >= 0; j-- {
			b.PrependUint16(n.children[j])
		}
		kids := b.EndVector(len(n.children))
		serialization.TreeNodeStart(b)
		serialization.TreeNodeAddUid(b, n.uid)
		serialization.TreeNodeAddChildrenUid(b, kids)
		serialization.TreeNodeAddStatus(b, serialization.NodeStatusIDLE)
		serialization.TreeNodeAddInstanceName(b, name)
		nodeOffsets[i] = serialization.TreeNodeEnd(b)
	}
	modelOffsets := make([]flatbuffers.UOffsetT, len(models))
	for i, m := range models {
		name := b.CreateString(m.name)
		serialization.NodeModelStart(b)
		serialization.NodeModelAddRegistrationName(b, name)
		serialization.NodeModelAddType(b, m.typ)
		modelOffsets[i] = serialization.NodeModelEnd(b)
	}

	serialization.BehaviorTreeStartNodesVector(b, len(nodeOffsets))
	for i := len(nodeOffsets) - 1; i >= 0; i-- {
		b.PrependUOffsetT(nodeOffsets[i])
	}
	nodesVec := b.EndVector(len(nodeOffsets))
	serialization.BehaviorTreeStartNodeModelsVector(b, len(modelOffsets))
	for i := len(modelOffsets) - 1; i >= 0; i-- {
		b.PrependUOffsetT(modelOffsets[i])
	}
	modelsVec := b.EndVector(len(modelOffsets))

	serialization.BehaviorTreeStart(b)
	serialization.BehaviorTreeAddRootUid(b, rootUID)
	serialization.BehaviorTreeAddNodes(b, nodesVec)
	serialization.BehaviorTreeAddNodeModels(b, modelsVec)
	b.Finish(serialization.BehaviorTreeEnd(b))

	snapshot := b.FinishedBytes()
	out := make([]byte, 4, 4+len(snapshot))
	binary.LittleEndian.PutUint32(out, uint32(len(snapshot)))
	return append(out, snapshot...)
}

func record(uid uint16, status byte) []byte {
	rec := make([]byte, RecordSize)
	binary.LittleEndian.PutUint16(rec[8:], uid)
	rec[11] = status
	return rec
}

func demoTree(t *testing.T) *domain.Tree {
	t.Helper()
	b := domain.NewTreeBuilder()
	require.NoError(t, b.AddNode(domain.Node{
		ID: 1, Name: "Sequence", Category: domain.CategoryRoot,
		Attributes: map[string]string{domain.AttrRegistrationName: "Sequence"},
	}))
	require.NoError(t, b.AddNode(domain.Node{ID: 2, Name: "IsBatteryOk"}))
	require.NoError(t, b.AddNode(domain.Node{ID: 3, Name: "Dock"}))
	require.NoError(t, b.AddEdge(domain.Edge{Parent: 1, Child: 2, Order: 0}))
	require.NoError(t, b.AddEdge(domain.Edge{Parent: 1, Child: 3, Order: 1}))
	tree, err := b.Build()
	require.NoError(t, err)
	return tree
}

func TestDecodeTrace(t *testing.T) {
	buf := rawTrace(1, []rawNode{
		{uid: 1, name: "root_seq", children: []uint16{3, 2}},
		{uid: 2, name: "second"},
		{uid: 3, name: "first"},
	}, nil)

	tree, err := DecodeTrace(buf)
	require.NoError(t, err)

	assert.Equal(t, []domain.NodeID{1, 2, 3}, tree.IDs())
	assert.Equal(t, []domain.NodeID{1}, tree.Roots())
	assert.Equal(t, []domain.NodeID{3, 2}, tree.Children(1), "children keep listed order")

	root, _ := tree.Node(1)
	assert.Equal(t, "root_seq", root.Name)
	assert.Equal(t, domain.CategoryRoot, root.Category)
	leaf, _ := tree.Node(3)
	assert.Equal(t, "first", leaf.Name)
	assert.Equal(t, domain.CategoryLeaf, leaf.Category)
	assert.Empty(t, leaf.Attributes)
}

func TestDecodeTrace_RoundTrip(t *testing.T) {
	tree := demoTree(t)
	buf, err := EncodeTrace(tree)
	require.NoError(t, err)

	got, err := DecodeTrace(buf)
	require.NoError(t, err)
	assert.True(t, tree.SameStructure(got))

	root, _ := got.Node(1)
	assert.Equal(t, "Sequence", root.Attributes[domain.AttrRegistrationName])
}

func TestDecodeTrace_Errors(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{"empty", nil},
		{"short", []byte{1, 0, 0}},
		{"header beyond buffer", []byte{0xff, 0, 0, 0, 4, 0, 0, 0}},
		{"root offset beyond header", []byte{4, 0, 0, 0, 9, 0, 0, 0}},
		{"corrupt table", []byte{8, 0, 0, 0, 4, 0, 0, 0, 0xff, 0xff, 0xff, 0x7f}},
		{"root uid unknown", rawTrace(7, []rawNode{{uid: 1, name: "a"}}, nil)},
		{"unknown child", rawTrace(1, []rawNode{{uid: 1, name: "a", children: []uint16{2}}}, nil)},
		{"duplicate uid", rawTrace(1, []rawNode{{uid: 1, name: "a"}, {uid: 1, name: "b"}}, nil)},
		{"root cycle", rawTrace(1, []rawNode{
			{uid: 1, name: "a", children: []uint16{2}},
			{uid: 2, name: "b", children: []uint16{1}},
		}, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := DecodeTrace(tt.buf)
			assert.Nil(t, tree)
			assert.ErrorIs(t, err, domain.ErrFormat)
		})
	}
}

func TestDecodeNodeModels(t *testing.T) {
	buf := rawTrace(1, []rawNode{{uid: 1, name: "a"}}, []rawModel{
		{name: "Sequence", typ: serialization.NodeTypeCONTROL},
		{name: "Dock", typ: serialization.NodeTypeACTION},
	})

	models, err := DecodeNodeModels(buf)
	require.NoError(t, err)
	assert.Equal(t, []NodeModel{
		{RegistrationName: "Sequence", Type: "CONTROL"},
		{RegistrationName: "Dock", Type: "ACTION"},
	}, models)

	// node models do not influence the tree
	tree, err := DecodeTrace(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, tree.Len())
}

func TestDecodeLog(t *testing.T) {
	buf := append([]byte{0, 0, 0, 0}, record(5, 2)...)

	events, err := DecodeLog(buf)
	require.NoError(t, err)
	assert.Equal(t, []domain.Event{{NodeID: 5, Status: domain.StatusSuccess}}, events)
}

func TestDecodeLog_SkipsHeader(t *testing.T) {
	buf := []byte{3, 0, 0, 0, 0xaa, 0xbb, 0xcc}
	buf = append(buf, record(1, 1)...)
	buf = append(buf, record(2, 3)...)
	buf = append(buf, record(1, 0)...)

	events, err := DecodeLog(buf)
	require.NoError(t, err)
	assert.Equal(t, []domain.Event{
		{NodeID: 1, Status: domain.StatusRunning},
		{NodeID: 2, Status: domain.StatusFailure},
		{NodeID: 1, Status: domain.StatusIdle},
	}, events)
}

func TestDecodeLog_IgnoresTruncatedRecord(t *testing.T) {
	buf := append([]byte{0, 0, 0, 0}, record(5, 2)...)
	buf = append(buf, record(6, 9)[:11]...)

	events, err := DecodeLog(buf)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestDecodeLog_Errors(t *testing.T) {
	_, err := DecodeLog(append([]byte{0, 0, 0, 0}, record(5, 9)...))
	assert.ErrorIs(t, err, domain.ErrFormat)
	assert.Contains(t, err.Error(), "unknown state")

	_, err = DecodeLog([]byte{1})
	assert.ErrorIs(t, err, domain.ErrFormat)

	events, err := DecodeLog([]byte{0xff, 0x00, 0, 0})
	require.NoError(t, err, "header beyond buffer leaves no records")
	assert.Empty(t, events)

	// A header that skips past complete records hides them too.
	buf := append([]byte{100, 0, 0, 0}, record(5, 2)...)
	events, err = DecodeLog(buf)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEncodeFile(t *testing.T) {
	tree := demoTree(t)
	want := []domain.Event{
		{NodeID: 1, Status: domain.StatusRunning},
		{NodeID: 2, Status: domain.StatusSuccess},
		{NodeID: 3, Status: domain.StatusFailure},
		{NodeID: 1, Status: domain.StatusFailure},
	}

	file, err := EncodeFile(tree, want)
	require.NoError(t, err)

	got, err := DecodeLog(file)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	decoded, err := DecodeTrace(file)
	require.NoError(t, err)
	assert.True(t, tree.SameStructure(decoded))
}

func TestEncodeTrace_DefinitionNames(t *testing.T) {
	b := domain.NewTreeBuilder()
	require.NoError(t, b.AddNode(domain.Node{ID: 10, Name: domain.NameBehaviorTree, Category: domain.CategoryRoot}))
	require.NoError(t, b.AddNode(domain.Node{ID: 100, Name: domain.NameSequence}))
	require.NoError(t, b.AddNode(domain.Node{ID: 1000, Name: domain.NameAction, Attributes: map[string]string{domain.AttrID: "Pick"}}))
	require.NoError(t, b.AddNode(domain.Node{ID: 1001, Name: domain.NameAction, Attributes: map[string]string{
		domain.AttrID:   "Place",
		domain.AttrName: "place_on_shelf",
	}}))
	require.NoError(t, b.AddEdge(domain.Edge{Parent: 10, Child: 100}))
	require.NoError(t, b.AddEdge(domain.Edge{Parent: 100, Child: 1000, Order: 0}))
	require.NoError(t, b.AddEdge(domain.Edge{Parent: 100, Child: 1001, Order: 1}))
	tree, err := b.Build()
	require.NoError(t, err)

	buf, err := EncodeTrace(tree)
	require.NoError(t, err)
	got, err := DecodeTrace(buf)
	require.NoError(t, err)

	seq, _ := got.Node(100)
	assert.Equal(t, domain.NameSequence, seq.Name)
	assert.Empty(t, seq.Attributes)

	pick, _ := got.Node(1000)
	assert.Equal(t, "Pick", pick.Name, "leaf keeps its ID, not its tag")
	assert.Empty(t, pick.Attributes)

	place, _ := got.Node(1001)
	assert.Equal(t, "place_on_shelf", place.Name)
	assert.Equal(t, "Place", place.Attributes[domain.AttrRegistrationName])

	// Decoded trees encode to themselves.
	again, err := EncodeTrace(got)
	require.NoError(t, err)
	decoded, err := DecodeTrace(again)
	require.NoError(t, err)
	assert.True(t, got.SameStructure(decoded))
}

func TestEncodeTrace_Errors(t *testing.T) {
	b := domain.NewTreeBuilder()
	require.NoError(t, b.AddNode(domain.Node{ID: 70000, Name: "big", Category: domain.CategoryRoot}))
	tree, err := b.Build()
	require.NoError(t, err)
	_, err = EncodeTrace(tree)
	assert.ErrorIs(t, err, domain.ErrFormat)

	b = domain.NewTreeBuilder()
	require.NoError(t, b.AddNode(domain.Node{ID: 1, Name: "a", Category: domain.CategoryRoot}))
	require.NoError(t, b.AddNode(domain.Node{ID: 2, Name: "b", Category: domain.CategoryRoot}))
	tree, err = b.Build()
	require.NoError(t, err)
	_, err = EncodeTrace(tree)
	assert.ErrorIs(t, err, domain.ErrStructural)

	_, err = AppendLog(nil, []domain.Event{{NodeID: 1 << 20}})
	assert.ErrorIs(t, err, domain.ErrFormat)
}

func TestParseLogLine(t *testing.T) {
	tests := []struct {
		line string
		want domain.Event
	}{
		{
			"[1674644299.406561] (  1): SequenceStar              \x1b[36mIDLE   \x1b[0m -> \x1b[33mRUNNING\x1b[0m",
			domain.Event{NodeID: 1, Status: domain.StatusRunning},
		},
		{
			"[1674644299.407965] (  9):          Inverter         \x1b[33mRUNNING\x1b[0m -> \x1b[32mSUCCESS\x1b[0m",
			domain.Event{NodeID: 9, Status: domain.StatusSuccess},
		},
		{
			"[1674644299.408000] (999):   AnotherNode         SUCCESS -> FAILURE",
			domain.Event{NodeID: 999, Status: domain.StatusFailure},
		},
	}
	for _, tt := range tests {
		got, err := ParseLogLine(tt.line)
		require.NoError(t, err, tt.line)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseLogLine_Errors(t *testing.T) {
	for _, line := range []string{
		"",
		"[] (): SequenceStar",
		"[1674644299.406561] (  1): SequenceStar   \x1b[36mIDLE   \x1b[0m -> \x1b[33mRUNNINK\x1b[0m",
		"(1): Node IDLE -> RUNNING",
	} {
		_, err := ParseLogLine(line)
		assert.ErrorIs(t, err, domain.ErrFormat, "line %q", line)
	}
}

func TestDecodeTextLog(t *testing.T) {
	input := strings.Join([]string{
		"[0.1] (1): Root IDLE -> RUNNING",
		"",
		"[0.2] (2): Check IDLE -> SUCCESS",
		"[0.3] (1): Root RUNNING -> SUCCESS",
	}, "\n")

	events, err := DecodeTextLog(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []domain.Event{
		{NodeID: 1, Status: domain.StatusRunning},
		{NodeID: 2, Status: domain.StatusSuccess},
		{NodeID: 1, Status: domain.StatusSuccess},
	}, events)

	_, err = DecodeTextLog(strings.NewReader("[0.1] (1): Root IDLE -> RUNNING\nnoise\n"))
	assert.ErrorIs(t, err, domain.ErrFormat)
	assert.Contains(t, err.Error(), "line 2")
}
