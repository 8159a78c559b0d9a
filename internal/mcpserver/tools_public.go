package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerAccountTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_balance",
			mcp.WithDescription("Get the user's balance and lifetime game stats"),
			mcp.WithString("user_id", mcp.Description("User id; optional when token is given")),
			mcp.WithString("token", mcp.Description("Session token from wallet login")),
		),
		s.handleGetBalance,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_store_items",
			mcp.WithDescription("List purchasable store items with prices"),
		),
		s.handleListStoreItems,
	)
}

func (s *Server) handleGetBalance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, authErr := s.authUser(request.GetString("user_id", ""), request.GetString("token", ""))
	if authErr != nil {
		return authErr, nil
	}
	view, err := s.svc.Account.Current(ctx, userID)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(map[string]any{
		"userId":  view.ID,
		"balance": view.Balance,
		"stats":   view.Stats,
	}), nil
}

func (s *Server) handleListStoreItems(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.Shop.Items(ctx)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(map[string]any{"items": items}), nil
}
