// Package mcp exposes ironflow to MCP clients: template listing, connection
// checks, recommendations and flow descriptions.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/ironflow"
	"github.com/aretw0/ironflow/internal/logging"
	"github.com/aretw0/ironflow/internal/service"
	"github.com/aretw0/ironflow/pkg/recommend"
)

const templatesURI = "ironflow://templates"

// TemplatesResult lists templates.
type TemplatesResult struct {
	Templates []service.TemplateInfo `json:"templates" jsonschema_description:"Templates sorted by identifier"`
}

// CheckArgs names an output and an input port.
type CheckArgs struct {
	OutputTemplate string `json:"output_template"`
	OutputPort     string `json:"output_port"`
	InputTemplate  string `json:"input_template"`
	InputPort      string `json:"input_port"`
}

// RecommendArgs names a port.
type RecommendArgs struct {
	Template string `json:"template"`
	Port     string `json:"port"`
	Side     string `json:"side"`
}

// RecommendResult lists recommendations.
type RecommendResult struct {
	Recommendations []recommend.Recommendation `json:"recommendations" jsonschema_description:"Template ports that connect to the given port"`
}

// DescribeArgs names a script of a stored session.
type DescribeArgs struct {
	SessionID string `json:"session_id"`
	Script    int    `json:"script"`
}

// Server exposes a service as an MCP server.
type Server struct {
	svc       *service.Service
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates an MCP server for svc.
func NewServer(svc *service.Service, opts ...Option) *Server {
	s := &Server{
		svc:       svc,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("ironflow-mcp", ironflow.Version, server.WithToolCapabilities(false)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio serves on stdin and stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sse.SSEHandler())
	mux.Handle("/message", sse.MessageHandler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errs := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List the node templates, optionally of one group."),
		mcp.WithString("group", mcp.Description("Template group, e.g. std")),
		mcp.WithOutputSchema[TemplatesResult](),
	), mcp.NewStructuredToolHandler(s.handleListTemplates))

	s.mcpServer.AddTool(mcp.NewTool("check_connection",
		mcp.WithDescription("Check whether an output port of one template may be connected to an input port of another."),
		mcp.WithString("output_template", mcp.Required(), mcp.Description("Identifier of the source template, group.title")),
		mcp.WithString("output_port", mcp.Required(), mcp.Description("Output label")),
		mcp.WithString("input_template", mcp.Required(), mcp.Description("Identifier of the target template")),
		mcp.WithString("input_port", mcp.Required(), mcp.Description("Input label")),
		mcp.WithOutputSchema[service.ConnectionCheck](),
	), mcp.NewStructuredToolHandler(s.handleCheckConnection))

	s.mcpServer.AddTool(mcp.NewTool("recommend",
		mcp.WithDescription("Recommend template ports to connect to a port, using ontology types where the port has one."),
		mcp.WithString("template", mcp.Required(), mcp.Description("Template identifier")),
		mcp.WithString("port", mcp.Required(), mcp.Description("Port label")),
		mcp.WithString("side", mcp.Required(), mcp.Enum(string(service.SideInput), string(service.SideOutput))),
		mcp.WithOutputSchema[RecommendResult](),
	), mcp.NewStructuredToolHandler(s.handleRecommend))

	s.mcpServer.AddTool(mcp.NewTool("describe_flow",
		mcp.WithDescription("Describe a script of a stored session as markdown."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Stored session ID")),
		mcp.WithNumber("script", mcp.Description("Script index, 0 by default")),
	), s.handleDescribeFlow)
}

func (s *Server) handleListTemplates(_ context.Context, _ mcp.CallToolRequest, args map[string]any) (TemplatesResult, error) {
	group, _ := args["group"].(string)
	return TemplatesResult{Templates: s.svc.Templates(group)}, nil
}

func (s *Server) handleCheckConnection(_ context.Context, _ mcp.CallToolRequest, args CheckArgs) (service.ConnectionCheck, error) {
	return s.svc.CheckConnection(
		service.PortRef{Template: args.OutputTemplate, Port: args.OutputPort},
		service.PortRef{Template: args.InputTemplate, Port: args.InputPort},
	)
}

func (s *Server) handleRecommend(_ context.Context, _ mcp.CallToolRequest, args RecommendArgs) (RecommendResult, error) {
	side := service.Side(args.Side)
	if side != service.SideInput && side != service.SideOutput {
		return RecommendResult{}, fmt.Errorf("side must be %q or %q, got %q", service.SideInput, service.SideOutput, args.Side)
	}
	recs, err := s.svc.Recommend(service.PortRef{Template: args.Template, Port: args.Port}, side)
	if err != nil {
		return RecommendResult{}, err
	}
	return RecommendResult{Recommendations: recs}, nil
}

func (s *Server) handleDescribeFlow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	md, err := s.svc.DescribeFlow(ctx, id, request.GetInt("script", 0))
	if err != nil {
		s.logger.Warn("describe_flow failed", "session_id", id, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("describe failed: %v", err)), nil
	}
	return mcp.NewToolResultText(md), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(templatesURI, "Node templates",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.svc.Templates(""))
		if err != nil {
			return nil, errors.Join(errors.New("failed to encode templates"), err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: templatesURI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}
