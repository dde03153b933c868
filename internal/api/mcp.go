package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Version is reported to MCP clients
const Version = "0.1.0"

type mcpHandlers struct {
	knowledge Knowledge
	logger    *zap.Logger
}

// NewMCPServer exposes question answering and the section list as MCP tools
func NewMCPServer(knowledge Knowledge, logger *zap.Logger) *server.MCPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &mcpHandlers{knowledge: knowledge, logger: logger}

	ask := mcp.NewTool("ask",
		mcp.WithDescription("Answer a question from the uploaded PDF documents"),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Question in natural language"),
		))
	sections := mcp.NewTool("list_sections",
		mcp.WithDescription("List the section titles found in the uploaded documents"))

	srv := server.NewMCPServer("pdf-qa", Version, server.WithToolCapabilities(false))
	srv.AddTool(ask, h.ask)
	srv.AddTool(sections, h.listSections)
	return srv
}

// ServeMCP runs the MCP SSE endpoint until ctx is done
func ServeMCP(ctx context.Context, srv *server.MCPServer, addr string, logger *zap.Logger) error {
	sse := server.NewSSEServer(srv, server.WithBaseURL(fmt.Sprintf("http://%s", addr)))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mcp server listening", zap.String("addr", addr))
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return sse.Shutdown(context.Background())
	}
}

func (h *mcpHandlers) ask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := h.knowledge.Ask(ctx, q)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func (h *mcpHandlers) listSections(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sections := h.knowledge.Sections()
	if len(sections) == 0 {
		return mcp.NewToolResultText("No sections available."), nil
	}
	return mcp.NewToolResultText(strings.Join(sections, "\n")), nil
}
