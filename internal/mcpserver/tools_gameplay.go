package mcpserver

import (
	"context"

	"blackjack-casino/internal/app/history"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/shopspring/decimal"
)

func (s *Server) registerGameplayTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"deal",
			mcp.WithDescription("Place a bet and deal a new game. Fails while another game is unsettled."),
			mcp.WithString("user_id", mcp.Description("User id; optional when token is given")),
			mcp.WithString("token", mcp.Description("Session token from wallet login")),
			mcp.WithNumber("bet", mcp.Required(), mcp.Description("Bet amount, must be positive")),
		),
		s.handleDeal,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"game_action",
			mcp.WithDescription("Apply an action to the active hand of a game."),
			mcp.WithString("user_id", mcp.Description("User id; optional when token is given")),
			mcp.WithString("token", mcp.Description("Session token from wallet login")),
			mcp.WithString("game_id", mcp.Required(), mcp.Description("Game id from deal")),
			mcp.WithString("action", mcp.Required(), mcp.Description("hit|stand|double_down|split|surrender|insurance")),
		),
		s.handleGameAction,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"game_history",
			mcp.WithDescription("Settled games newest first, with sessions and overall stats"),
			mcp.WithString("user_id", mcp.Description("User id; optional when token is given")),
			mcp.WithString("token", mcp.Description("Session token from wallet login")),
			mcp.WithString("result", mcp.Description("all|win|lose|push|blackjack")),
			mcp.WithNumber("page", mcp.Description("Page number, default 1")),
			mcp.WithNumber("limit", mcp.Description("Page size, default 20, max 100")),
		),
		s.handleGameHistory,
	)
}

func (s *Server) handleDeal(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, authErr := s.authUser(request.GetString("user_id", ""), request.GetString("token", ""))
	if authErr != nil {
		return authErr, nil
	}
	bet, err := request.RequireFloat("bet")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	res, err := s.svc.Play.Deal(ctx, userID, decimal.NewFromFloat(bet))
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(res), nil
}

func (s *Server) handleGameAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, authErr := s.authUser(request.GetString("user_id", ""), request.GetString("token", ""))
	if authErr != nil {
		return authErr, nil
	}
	gameID, err := request.RequireString("game_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	action, err := request.RequireString("action")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	res, err := s.svc.Play.Act(ctx, userID, gameID, action)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(res), nil
}

func (s *Server) handleGameHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, authErr := s.authUser(request.GetString("user_id", ""), request.GetString("token", ""))
	if authErr != nil {
		return authErr, nil
	}
	filter, err := history.ParseFilter(request.GetString("result", ""))
	if err != nil {
		return mapDomainError(err), nil
	}
	// history.Query clamps page and limit
	resp, err := s.svc.History.Query(ctx, history.Query{
		UserID: userID,
		Result: filter,
		Page:   request.GetInt("page", 1),
		Limit:  request.GetInt("limit", history.DefaultLimit),
	})
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(resp), nil
}
