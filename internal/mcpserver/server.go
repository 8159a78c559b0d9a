package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"blackjack-casino/internal/app"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type Server struct {
	svc *app.Services

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(svc *app.Services) *Server {
	mcpSrv := server.NewMCPServer(
		"blackjack-casino",
		"0.1.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithResourceRecovery(),
	)
	s := &Server{
		svc:        svc,
		mcpServer:  mcpSrv,
		httpServer: server.NewStreamableHTTPServer(mcpSrv, server.WithStateLess(true), server.WithDisableStreaming(true)),
	}
	s.registerAccountTools()
	s.registerGameplayTools()
	s.registerResources()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcp.NewResource(
			"table://rules",
			"table_rules",
			mcp.WithResourceDescription("House rules the dealer and the action validator follow"),
			mcp.WithMIMEType("application/json"),
		),
		func(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			rules := s.svc.Play.Rules()
			payload, err := json.Marshal(map[string]any{
				"dealerStandsOnSoft17": true,
				"blackjackPays":        "3:2",
				"insurancePays":        "2:1",
				"doubleAfterSplit":     rules.DoubleAfterSplit,
				"splitAcesOneCard":     rules.SplitAcesOneCard,
				"maxHands":             2,
			})
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      request.Params.URI,
					MIMEType: "application/json",
					Text:     string(payload),
				},
			}, nil
		},
	)
}

// authUser resolves the acting user the same way the HTTP API does: a token
// subject wins and must match user_id when both are given.
func (s *Server) authUser(userID, token string) (string, *mcp.CallToolResult) {
	userID = strings.TrimSpace(userID)
	token = strings.TrimSpace(token)
	if token != "" {
		sub, err := s.svc.Tokens.Subject(token)
		if err != nil {
			return "", toolError("unauthorized", "invalid or expired token")
		}
		if userID != "" && userID != sub {
			return "", toolError("forbidden", "user_id does not match token")
		}
		return sub, nil
	}
	if s.svc.RequireAuth {
		return "", toolError("unauthorized", "token is required")
	}
	if userID == "" {
		return "", toolError("invalid_request", "user_id is required")
	}
	return userID, nil
}
