package mcp

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ironflow"
	"github.com/aretw0/ironflow/internal/service"
	"github.com/aretw0/ironflow/pkg/adapters/memory"
	"github.com/aretw0/ironflow/pkg/nodes/std"
	"github.com/aretw0/ironflow/pkg/registry"
	"github.com/aretw0/ironflow/pkg/session"
)

func newServer(t *testing.T) (*Server, *service.Service) {
	t.Helper()
	reg := registry.NewRegistry()
	require.NoError(t, std.Register(reg))
	svc := service.New(reg, session.NewManager(memory.NewStore()))
	return NewServer(svc), svc
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func TestListTemplates(t *testing.T) {
	s, _ := newServer(t)

	res, err := s.handleListTemplates(context.Background(), mcp.CallToolRequest{}, map[string]any{"group": "std"})
	require.NoError(t, err)
	assert.Len(t, res.Templates, 11)

	res, err = s.handleListTemplates(context.Background(), mcp.CallToolRequest{}, map[string]any{"group": "none"})
	require.NoError(t, err)
	assert.Empty(t, res.Templates)
}

func TestCheckConnection(t *testing.T) {
	s, _ := newServer(t)

	res, err := s.handleCheckConnection(context.Background(), mcp.CallToolRequest{}, CheckArgs{
		OutputTemplate: "std.Linspace", OutputPort: "linspace",
		InputTemplate: "std.Sin", InputPort: "x",
	})
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = s.handleCheckConnection(context.Background(), mcp.CallToolRequest{}, CheckArgs{
		OutputTemplate: "std.Click", OutputPort: "exec",
		InputTemplate: "std.Sin", InputPort: "x",
	})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Reason)
}

func TestRecommend(t *testing.T) {
	s, _ := newServer(t)

	res, err := s.handleRecommend(context.Background(), mcp.CallToolRequest{}, RecommendArgs{Template: "std.Click", Port: "exec", Side: "output"})
	require.NoError(t, err)
	assert.Len(t, res.Recommendations, 3)

	_, err = s.handleRecommend(context.Background(), mcp.CallToolRequest{}, RecommendArgs{Template: "std.Click", Port: "exec", Side: "up"})
	assert.Error(t, err)
}

func TestDescribeFlow(t *testing.T) {
	ctx := context.Background()
	s, svc := newServer(t)

	iflow, err := ironflow.New("demo")
	require.NoError(t, err)
	_, err = iflow.CreateNode("std.Linspace", 0, 0)
	require.NoError(t, err)
	doc, err := iflow.Serialize()
	require.NoError(t, err)
	_, err = svc.SaveSession(ctx, "demo", doc)
	require.NoError(t, err)

	res, err := s.handleDescribeFlow(ctx, call(map[string]any{"session_id": "demo"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	text := res.Content[0].(mcp.TextContent).Text
	assert.Contains(t, text, "## Linspace (std.Linspace)")

	res, err = s.handleDescribeFlow(ctx, call(map[string]any{"session_id": "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleDescribeFlow(ctx, call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
