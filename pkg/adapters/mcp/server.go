// Package mcp exposes the analyzer to AI agents as a Model Context Protocol
// server.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aretw0/btlib"
	"github.com/aretw0/btlib/internal/logging"
	"github.com/aretw0/btlib/internal/presentation/graph"
	"github.com/aretw0/btlib/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const runsURI = "btlib://runs"

// Analyzer defines what the MCP server needs from the library facade.
type Analyzer interface {
	ParseDefinition(text []byte) (*domain.Tree, error)
	CompileFSM(tree *domain.Tree) (*domain.Automaton, error)
	Validate(tree *domain.Tree) error
	Analyze(buf []byte) (*domain.Tree, *domain.Telemetry, error)
	Ingest(ctx context.Context, key string, buf []byte) (*domain.Telemetry, error)
	Summarize(tree *domain.Tree, record *domain.Telemetry) (btlib.Summary, error)
	Coverage(values domain.ValueMap) (float64, error)
}

// Store is the read side of recorded runs.
type Store interface {
	Load(ctx context.Context, key string) (*domain.Telemetry, error)
	List(ctx context.Context) ([]string, error)
}

// DefinitionArgs carries a behavior tree definition.
type DefinitionArgs struct {
	Definition string `json:"definition"`
	Format     string `json:"format,omitempty"`
}

// CoverageArgs points at an .fbl file and optionally records it.
type CoverageArgs struct {
	Path string `json:"path"`
	Key  string `json:"key,omitempty"`
}

// CompileResponse is the structured result of compile_fsm.
type CompileResponse struct {
	States      []string            `json:"states" jsonschema_description:"Automaton states: ports and leaves"`
	Transitions []domain.Transition `json:"transitions" jsonschema_description:"Labeled transitions"`
	Mermaid     string              `json:"mermaid,omitempty" jsonschema_description:"Mermaid flowchart, when format is mermaid"`
}

// Server wraps the Analyzer and exposes it as an MCP Server.
type Server struct {
	analyzer  Analyzer
	store     Store
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance. A nil logger discards logs.
func NewServer(analyzer Analyzer, store Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		analyzer:  analyzer,
		store:     store,
		logger:    logger,
		mcpServer: server.NewMCPServer("btlib-mcp", btlib.Version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when
// ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: parse_definition
	s.mcpServer.AddTool(mcp.NewTool("parse_definition",
		mcp.WithDescription("Parse a behavior tree XML definition and return its nodes and ordered edges."),
		mcp.WithString("definition", mcp.Required(), mcp.Description("XML definition text")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args DefinitionArgs
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		tree, err := s.analyzer.ParseDefinition([]byte(args.Definition))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("parse failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(tree)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: validate_tree
	s.mcpServer.AddTool(mcp.NewTool("validate_tree",
		mcp.WithDescription("Report every structural problem that would stop a definition from compiling."),
		mcp.WithString("definition", mcp.Required(), mcp.Description("XML definition text")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args DefinitionArgs
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		tree, err := s.analyzer.ParseDefinition([]byte(args.Definition))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("parse failed: %v", err)), nil
		}
		if err := s.analyzer.Validate(tree); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("valid"), nil
	})

	// TOOL: compile_fsm
	s.mcpServer.AddTool(mcp.NewTool("compile_fsm",
		mcp.WithDescription("Compile a behavior tree definition (Sequence, Fallback, Inverter) into a finite-state automaton."),
		mcp.WithString("definition", mcp.Required(), mcp.Description("XML definition text")),
		mcp.WithString("format", mcp.Description("Set to 'mermaid' to include a Mermaid flowchart")),
		mcp.WithOutputSchema[CompileResponse](),
	), mcp.NewStructuredToolHandler(s.handleCompile))

	// TOOL: coverage
	s.mcpServer.AddTool(mcp.NewTool("coverage",
		mcp.WithDescription("Decode an .fbl trace file and report per-node execution counts and coverage. With a key, the run is recorded and the report covers every run under that key."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the .fbl file")),
		mcp.WithString("key", mcp.Description("Record the run under this key (optional)")),
		mcp.WithOutputSchema[btlib.Summary](),
	), mcp.NewStructuredToolHandler(s.handleCoverage))
}

func (s *Server) handleCompile(ctx context.Context, request mcp.CallToolRequest, args DefinitionArgs) (CompileResponse, error) {
	tree, err := s.analyzer.ParseDefinition([]byte(args.Definition))
	if err != nil {
		return CompileResponse{}, fmt.Errorf("parse failed: %w", err)
	}
	fsm, err := s.analyzer.CompileFSM(tree)
	if err != nil {
		return CompileResponse{}, fmt.Errorf("compile failed: %w", err)
	}
	resp := CompileResponse{
		States:      fsm.States(),
		Transitions: fsm.Transitions(),
	}
	if strings.EqualFold(args.Format, "mermaid") {
		resp.Mermaid = graph.AutomatonMermaid(fsm)
	}
	return resp, nil
}

func (s *Server) handleCoverage(ctx context.Context, request mcp.CallToolRequest, args CoverageArgs) (btlib.Summary, error) {
	if args.Path == "" {
		return btlib.Summary{}, errors.New("path is required")
	}
	buf, err := os.ReadFile(args.Path)
	if err != nil {
		return btlib.Summary{}, fmt.Errorf("failed to read trace: %w", err)
	}
	tree, record, err := s.analyzer.Analyze(buf)
	if err != nil {
		return btlib.Summary{}, fmt.Errorf("decode failed: %w", err)
	}
	if args.Key != "" {
		record, err = s.analyzer.Ingest(ctx, args.Key, buf)
		if err != nil {
			return btlib.Summary{}, fmt.Errorf("record failed: %w", err)
		}
		s.logger.Info("MCP: Run recorded", "key", args.Key, "runs", len(record.Runs))
	}
	return s.analyzer.Summarize(tree, record)
}

func (s *Server) registerResources() {
	// EXPOSE: btlib://runs
	s.mcpServer.AddResource(mcp.NewResource(runsURI, "Recorded Runs",
		mcp.WithResourceDescription("Keys of every recorded telemetry record"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		keys, err := s.store.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list runs: %w", err)
		}
		jsonBytes, _ := json.Marshal(keys)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      runsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	// EXPOSE: btlib://runs/{key}
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(runsURI+"/{key}", "Recorded Run",
		mcp.WithTemplateDescription("Merged telemetry and coverage of one key"),
		mcp.WithTemplateMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		key := strings.TrimPrefix(request.Params.URI, runsURI+"/")
		record, err := s.store.Load(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to load run %q: %w", key, err)
		}
		cov, err := s.analyzer.Coverage(record.Counts)
		if err != nil {
			return nil, err
		}
		jsonBytes, _ := json.Marshal(map[string]any{
			"key":      key,
			"coverage": cov,
			"record":   record,
		})
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      request.Params.URI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
