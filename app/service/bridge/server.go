package bridge

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/tmc/langchaingo/tools"
)

// Serve runs the tracker tools as a stdio MCP server until ctx is done.
func (s *Service) Serve(ctx context.Context) error {
	mcpServer := server.NewMCPServer("gmtracker", "1.0.0")

	for _, t := range s.Tools() {
		mcpServer.AddTool(toolSpec(t), toolHandler(t))
	}

	slog.Info("Serving tracker tools over MCP stdio")

	stdio := server.NewStdioServer(mcpServer)

	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

func toolSpec(t tools.Tool) mcp.Tool {
	return mcp.NewTool(t.Name(),
		mcp.WithDescription(t.Description()),
		mcp.WithString("input",
			mcp.Description("Tool arguments, JSON where the description says so"),
		),
	)
}

func toolHandler(t tools.Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input := request.GetString("input", "")

		result, err := t.Call(ctx, input)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(result), nil
	}
}
