package tools

import (
	"context"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterMCP exposes tools on srv. The envelope is returned as text content;
// configuration errors become MCP tool errors.
func RegisterMCP(srv *mcp.Server, tools []Tool) {
	for _, t := range tools {
		srv.AddTool(&mcp.Tool{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: InputSchema(t),
		}, mcpHandler(t))
	}
}

func mcpHandler(t Tool) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args string
		if req.Params != nil {
			args = string(req.Params.Arguments)
		}

		envelope, err := t.InvokableRun(ctx, args)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(err)
			return &res, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: envelope}},
		}, nil
	}
}

// InputSchema renders the tool parameters as a JSON Schema object.
func InputSchema(t Tool) map[string]any {
	params := t.Params()

	properties := make(map[string]any, len(params))
	required := make([]string, 0, len(params))
	for name, p := range params {
		prop := map[string]any{
			"type":        string(p.Type),
			"description": p.Desc,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		properties[name] = prop

		if p.Required {
			required = append(required, name)
		}
	}
	sort.Strings(required)

	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}
