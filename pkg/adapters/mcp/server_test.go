package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/btlib"
	"github.com/aretw0/btlib/internal/fbl"
	"github.com/aretw0/btlib/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inverterXML = `<root><BehaviorTree><Inverter><Condition ID="Busy"/></Inverter></BehaviorTree></root>`

func newTestServer(t *testing.T) (*Server, *btlib.Analyzer) {
	t.Helper()
	a := btlib.New()
	return NewServer(a, a.Recorder(), nil), a
}

func call(t *testing.T, s *Server, method string, params any) string {
	t.Helper()
	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)
	resp := s.MCPServer().HandleMessage(context.Background(), msg)
	out, err := json.Marshal(resp)
	require.NoError(t, err)
	return string(out)
}

func TestHandleCompile(t *testing.T) {
	s, _ := newTestServer(t)

	resp, err := s.handleCompile(context.Background(), mcp.CallToolRequest{}, DefinitionArgs{Definition: inverterXML, Format: "mermaid"})
	require.NoError(t, err)
	assert.Equal(t, []string{"tick", "success", "failure", "running", "1000_Busy"}, resp.States)
	assert.Contains(t, resp.Transitions, domain.Transition{From: "1000_Busy", To: "failure", Label: domain.OnSuccess})
	assert.Contains(t, resp.Mermaid, "graph LR")

	_, err = s.handleCompile(context.Background(), mcp.CallToolRequest{}, DefinitionArgs{Definition: "<root/>"})
	assert.ErrorIs(t, err, domain.ErrStructural)
}

func TestHandleCoverage(t *testing.T) {
	s, a := newTestServer(t)
	tree, err := a.ParseDefinition([]byte(inverterXML))
	require.NoError(t, err)
	buf, err := fbl.EncodeFile(tree, []domain.Event{{NodeID: 1000, Status: domain.StatusSuccess}})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "run.fbl")
	require.NoError(t, os.WriteFile(path, buf, 0644))

	summary, err := s.handleCoverage(context.Background(), mcp.CallToolRequest{}, CoverageArgs{Path: path})
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3.0, summary.Coverage, 1e-9)
	assert.Equal(t, 1, summary.Runs)

	for i := 0; i < 2; i++ {
		summary, err = s.handleCoverage(context.Background(), mcp.CallToolRequest{}, CoverageArgs{Path: path, Key: "probe"})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, summary.Runs)
	assert.Equal(t, 2, summary.Nodes[2].Count)

	_, err = s.handleCoverage(context.Background(), mcp.CallToolRequest{}, CoverageArgs{})
	assert.ErrorContains(t, err, "path is required")
}

func TestToolCall_ParseDefinition(t *testing.T) {
	s, _ := newTestServer(t)

	out := call(t, s, "tools/call", map[string]any{
		"name":      "parse_definition",
		"arguments": map[string]any{"definition": inverterXML},
	})
	assert.Contains(t, out, `\"name\":\"Inverter\"`)

	out = call(t, s, "tools/call", map[string]any{
		"name":      "parse_definition",
		"arguments": map[string]any{"definition": "not xml"},
	})
	assert.Contains(t, out, `"isError":true`)
}

func TestResources(t *testing.T) {
	s, a := newTestServer(t)
	tree, err := a.ParseDefinition([]byte(inverterXML))
	require.NoError(t, err)
	_, err = a.Record(context.Background(), "probe", tree, []domain.Event{{NodeID: 100, Status: domain.StatusRunning}})
	require.NoError(t, err)

	out := call(t, s, "resources/read", map[string]any{"uri": runsURI})
	assert.Contains(t, out, `[\"probe\"]`)

	out = call(t, s, "resources/read", map[string]any{"uri": runsURI + "/probe"})
	assert.Contains(t, out, `\"key\":\"probe\"`)
}
