// Package mcpserver exposes the scanner as MCP tools over stdio, so an
// agent can check a cell before handing it to a kernel.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
	"github.com/Lin-Jiong-HDU/cellguard/internal/security"
)

const (
	ToolScanCode  = "scan_code"
	ToolListRules = "list_rules"
)

// Server wires the scanner into an MCP server.
type Server struct {
	scanner *security.Scanner
	logger  *zap.Logger
	mcp     *server.MCPServer
}

// New creates a Server with both tools registered. A nil logger disables
// logging.
func New(scanner *security.Scanner, logger *zap.Logger, version string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		scanner: scanner,
		logger:  logger,
		mcp: server.NewMCPServer(
			"cellguard",
			version,
			server.WithToolCapabilities(false),
			server.WithLogging(),
		),
	}
	s.registerTools()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves requests on stdin/stdout until stdin closes.
func (s *Server) ServeStdio() error {
	s.logger.Info("serving MCP over stdio")
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	scanTool := mcp.Tool{
		Name: ToolScanCode,
		Description: "Scan one notebook cell for dangerous operations before execution. " +
			"Returns the scan result as JSON; when the cell is blocked a second text " +
			"block explains why and how to fix it.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"code": map[string]interface{}{
					"type":        "string",
					"description": "Cell source, including any IPython magics or shell escapes",
				},
			},
			Required: []string{"code"},
		},
	}
	s.mcp.AddTool(scanTool, s.withRequestLog(ToolScanCode, s.handleScanCode))

	rulesTool := mcp.Tool{
		Name:        ToolListRules,
		Description: "List the detection rules with their severity and suggested fix.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"min_level": map[string]interface{}{
					"type":        "string",
					"description": "Only list rules at or above this level (LOW, MEDIUM, HIGH, CRITICAL)",
				},
			},
		},
	}
	s.mcp.AddTool(rulesTool, s.withRequestLog(ToolListRules, s.handleListRules))
}

type handlerFunc func(context.Context, mcp.CallToolRequest, *zap.Logger) (*mcp.CallToolResult, error)

// withRequestLog tags each call with a request id.
func (s *Server) withRequestLog(tool string, h handlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log := s.logger.With(
			zap.String("request_id", uuid.NewString()),
			zap.String("tool", tool),
		)
		log.Debug("tool call")
		return h(ctx, req, log)
	}
}

func (s *Server) handleScanCode(_ context.Context, req mcp.CallToolRequest, log *zap.Logger) (*mcp.CallToolResult, error) {
	code, ok := req.GetArguments()["code"].(string)
	if !ok {
		log.Warn("missing code argument")
		return errorResult("missing required parameter: code"), nil
	}

	result := s.scanner.Scan(code)
	log.Info("cell scanned",
		zap.Bool("blocked", result.Blocked),
		zap.Int("issues", len(result.Issues)),
		zap.String("parse", string(result.Parse)),
	)

	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode scan result: %w", err)
	}

	content := []mcp.Content{textContent(string(data))}
	if result.Blocked {
		content = append(content, textContent(security.RejectionMessage(result)))
	}
	return &mcp.CallToolResult{Content: content}, nil
}

func (s *Server) handleListRules(_ context.Context, req mcp.CallToolRequest, log *zap.Logger) (*mcp.CallToolResult, error) {
	rules := security.Rules()

	if raw, ok := req.GetArguments()["min_level"].(string); ok && raw != "" {
		floor, err := finding.ParseRiskLevel(raw)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		filtered := rules[:0:0]
		for _, r := range rules {
			if r.Level >= floor {
				filtered = append(filtered, r)
			}
		}
		rules = filtered
	}

	data, err := json.Marshal(rules)
	if err != nil {
		return nil, fmt.Errorf("encode rules: %w", err)
	}
	log.Debug("rules listed", zap.Int("count", len(rules)))
	return &mcp.CallToolResult{Content: []mcp.Content{textContent(string(data))}}, nil
}

func textContent(text string) mcp.TextContent {
	return mcp.TextContent{Type: "text", Text: text}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{textContent(msg)},
		IsError: true,
	}
}
