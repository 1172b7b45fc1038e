// Package mcp provides Model Context Protocol server functionality.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/helixml/careerpath/domain/career"
	"github.com/helixml/careerpath/domain/errs"
	"github.com/helixml/careerpath/domain/trait"
)

// Recommender produces the final career list for a user.
type Recommender interface {
	TopCareers(ctx context.Context, userID int64, topK int, sessionID string) ([]career.FinalItem, error)
}

// TraitInferrer runs essay inference and reads stored snapshots.
type TraitInferrer interface {
	Infer(ctx context.Context, raw string, lang string) (trait.Inference, error)
	Latest(ctx context.Context, userID int64) (trait.Snapshot, error)
}

// CareerLookup resolves career ids to catalog entries.
type CareerLookup interface {
	Get(ctx context.Context, ids ...string) ([]career.Career, error)
}

// Server wraps the MCP server with career recommendation tools.
type Server struct {
	mcpServer   *server.MCPServer
	recommender Recommender
	traits      TraitInferrer
	careers     CareerLookup
	version     string
	logger      *slog.Logger
}

// NewServer creates a new MCP server with the given dependencies. careers
// may be nil, in which case recommendations carry ids only.
func NewServer(recommender Recommender, traits TraitInferrer, careers CareerLookup, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		recommender: recommender,
		traits:      traits,
		careers:     careers,
		version:     version,
		logger:      logger,
	}

	mcpServer := server.NewMCPServer(
		"careerpath",
		"0.1.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	recommendTool := mcp.NewTool("recommend_careers",
		mcp.WithDescription("Recommend careers for a user from their stored personality traits. Shown careers are logged as impressions."),
		mcp.WithNumber("user_id",
			mcp.Required(),
			mcp.Description("The user to recommend careers for"),
		),
		mcp.WithNumber("top_k",
			mcp.Description("Number of careers to return (default: 10)"),
		),
		mcp.WithString("session_id",
			mcp.Description("Session the recommendations are shown in"),
		),
	)
	mcpServer.AddTool(recommendTool, s.handleRecommend)

	inferTool := mcp.NewTool("infer_traits",
		mcp.WithDescription("Infer RIASEC and Big Five scores from a free-text essay in English or Vietnamese. Nothing is stored."),
		mcp.WithString("essay_text",
			mcp.Required(),
			mcp.Description("The essay to analyse, at least 5 characters"),
		),
		mcp.WithString("lang",
			mcp.Description("vi, en or auto (default: auto)"),
		),
	)
	mcpServer.AddTool(inferTool, s.handleInfer)

	traitsTool := mcp.NewTool("get_user_traits",
		mcp.WithDescription("Get the latest fused trait snapshot of a user"),
		mcp.WithNumber("user_id",
			mcp.Required(),
			mcp.Description("The user whose traits to return"),
		),
	)
	mcpServer.AddTool(traitsTool, s.handleUserTraits)

	versionTool := mcp.NewTool("get_version",
		mcp.WithDescription("Get the careerpath server version"),
	)
	mcpServer.AddTool(versionTool, s.handleVersion)
}

func (s *Server) handleRecommend(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := requireUserID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	topK := request.GetInt("top_k", 10)
	sessionID := request.GetString("session_id", "")

	items, err := s.recommender.TopCareers(ctx, userID, topK, sessionID)
	if errors.Is(err, errs.ErrRetrievalEmpty) {
		return mcp.NewToolResultError("no candidate careers for this user; store an essay for them first"), nil
	}
	if err != nil {
		s.logger.Error("recommendation failed", slog.Int64("user_id", userID), slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("recommendation failed: %v", err)), nil
	}

	titles := map[string]string{}
	if s.careers != nil && len(items) > 0 {
		ids := make([]string, len(items))
		for i, it := range items {
			ids[i] = it.CareerID
		}
		found, err := s.careers.Get(ctx, ids...)
		if err != nil {
			s.logger.Warn("career lookup failed", slog.Any("error", err))
		}
		for _, c := range found {
			titles[c.ID] = c.Title
		}
	}

	type recommendation struct {
		CareerID   string  `json:"career_id"`
		Title      string  `json:"title,omitempty"`
		FinalScore float64 `json:"final_score"`
	}
	results := make([]recommendation, len(items))
	for i, it := range items {
		results[i] = recommendation{
			CareerID:   it.CareerID,
			Title:      titles[it.CareerID],
			FinalScore: it.FinalScore,
		}
	}
	return jsonResult(results)
}

func (s *Server) handleInfer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("essay_text")
	if err != nil {
		return mcp.NewToolResultError("essay_text is required"), nil
	}
	lang := request.GetString("lang", "auto")

	inf, err := s.traits.Infer(ctx, text, lang)
	if err != nil {
		if !errors.Is(err, errs.ErrValidation) {
			s.logger.Error("trait inference failed", slog.Any("error", err))
		}
		return mcp.NewToolResultError(fmt.Sprintf("inference failed: %v", err)), nil
	}

	type inference struct {
		DetectedLang string    `json:"detected_lang"`
		UsedLang     string    `json:"used_lang"`
		RIASEC       []float64 `json:"riasec"`
		BigFive      []float64 `json:"big5"`
		EmbeddingDim int       `json:"embedding_dim"`
	}
	return jsonResult(inference{
		DetectedLang: inf.DetectedLang,
		UsedLang:     inf.UsedLang,
		RIASEC:       inf.RIASEC,
		BigFive:      inf.BigFive,
		EmbeddingDim: len(inf.Embedding),
	})
}

func (s *Server) handleUserTraits(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := requireUserID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	snap, err := s.traits.Latest(ctx, userID)
	if errors.Is(err, errs.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no traits stored for user %d", userID)), nil
	}
	if err != nil {
		s.logger.Error("failed to get traits", slog.Int64("user_id", userID), slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to get traits: %v", err)), nil
	}

	type snapshot struct {
		UserID   int64     `json:"user_id"`
		RIASEC   []float64 `json:"riasec"`
		BigFive  []float64 `json:"big5"`
		HasTest  bool      `json:"has_test"`
		HasEssay bool      `json:"has_essay"`
	}
	return jsonResult(snapshot{
		UserID:   snap.UserID,
		RIASEC:   snap.RIASEC(),
		BigFive:  snap.BigFive(),
		HasTest:  snap.HasTest(),
		HasEssay: snap.HasEssay(),
	})
}

func (s *Server) handleVersion(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.version), nil
}

func requireUserID(request mcp.CallToolRequest) (int64, error) {
	id, err := request.RequireInt("user_id")
	if err != nil {
		return 0, errors.New("user_id is required")
	}
	if id <= 0 {
		return 0, errors.New("user_id must be positive")
	}
	return int64(id), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// MCPServer returns the underlying MCP server for stdio serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
