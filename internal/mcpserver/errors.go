package mcpserver

import (
	"fmt"

	"blackjack-casino/internal/app/apperr"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog/log"
)

func toolResult(data any) *mcp.CallToolResult {
	return mcp.NewToolResultStructuredOnly(data)
}

func toolError(code, message string) *mcp.CallToolResult {
	result := mcp.NewToolResultStructured(
		map[string]any{
			"error": map[string]any{
				"code":    code,
				"message": message,
			},
		},
		fmt.Sprintf("%s: %s", code, message),
	)
	result.IsError = true
	return result
}

func mapDomainError(err error) *mcp.CallToolResult {
	m := apperr.Map(err)
	if m.Code == apperr.CodeInternal {
		log.Error().Err(err).Msg("mcp tool failed")
	}
	return toolError(m.Code, m.Message)
}
