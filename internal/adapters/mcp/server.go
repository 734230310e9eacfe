// Package mcpadapter exposes document validation as an MCP tool.
package mcpadapter

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/docgate/internal/core/domain"
	"github.com/kirillkom/docgate/internal/core/ports"
	"github.com/kirillkom/docgate/internal/core/usecase"
)

const ToolValidateDocument = "validate_document"

type Server struct {
	validator ports.DocumentValidator
	maxBytes  int64
	logger    *slog.Logger
}

func New(validator ports.DocumentValidator, maxBytes int64, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{validator: validator, maxBytes: maxBytes, logger: logger}
}

// MCPServer builds the tool server; version is reported to clients.
func (s *Server) MCPServer(version string) *server.MCPServer {
	srv := server.NewMCPServer("docgate", version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	srv.AddTool(validateDocumentTool(), s.handleValidateDocument)
	return srv
}

func validateDocumentTool() mcp.Tool {
	return mcp.NewTool(ToolValidateDocument,
		mcp.WithDescription("Decide whether a local file is an accepted financial or real-estate document. "+
			"Returns accepted, a reason code when rejected, and the category scores."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path of the document to validate.")),
		mcp.WithString("mime_type", mcp.Description("Media type override; detected from the file when empty.")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

type toolResult struct {
	Accepted       bool                   `json:"accepted"`
	Reason         domain.ReasonCode      `json:"reason,omitempty"`
	Detail         string                 `json:"detail,omitempty"`
	Stage          domain.Stage           `json:"stage"`
	MediaType      string                 `json:"media_type"`
	LexiconVersion string                 `json:"lexicon_version,omitempty"`
	Classification *domain.Classification `json:"classification,omitempty"`
}

// handleValidateDocument reports a rejection as a normal result; tool errors
// are reserved for unreadable input.
func (s *Server) handleValidateDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	in, err := usecase.LoadLocalInput(path, req.GetString("mime_type", ""), s.maxBytes)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("cannot read document", err), nil
	}

	outcome := s.validator.Validate(ctx, in)
	s.logger.Info("mcp_validate_document", "validation_id", in.ID, "accepted", outcome.Accepted, "reason", outcome.Reason)

	return mcp.NewToolResultJSON(toolResult{
		Accepted:       outcome.Accepted,
		Reason:         outcome.Reason,
		Detail:         outcome.Detail,
		Stage:          outcome.Stage,
		MediaType:      in.MediaType,
		LexiconVersion: outcome.LexiconVersion,
		Classification: outcome.Classification,
	})
}
