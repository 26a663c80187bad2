package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lexfindco/lexfind/pkg/document"
	"github.com/lexfindco/lexfind/pkg/embeddings"
	"github.com/lexfindco/lexfind/pkg/engine"
	"github.com/lexfindco/lexfind/pkg/eventstream"
	"github.com/lexfindco/lexfind/pkg/metastore"
)

// CompletionRequest is the body of POST /api/chat/completions.
type CompletionRequest struct {
	Prompt string `json:"prompt"`

	// TopK defaults to DefaultTopK when omitted.
	TopK int `json:"top_k"`
}

// CompletionResponse carries the resolved documents, best match first.
type CompletionResponse struct {
	Results []document.Document `json:"results"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DefaultTopK is used when the request omits top_k.
const DefaultTopK = 3

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleCompletions embeds the prompt, searches the index, and returns the
// resolved metadata records.
func (s *Server) handleCompletions(c *fiber.Ctx) error {
	var req CompletionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
		})
	}

	if req.TopK == 0 {
		req.TopK = DefaultTopK
	}

	ctx, cancel := context.WithTimeout(c.Context(), s.config.RequestTimeout)
	defer cancel()

	start := time.Now()

	docs, err := s.config.Engine.Query(ctx, req.Prompt, req.TopK)
	if err != nil {
		return s.completionError(c, req.TopK, err)
	}

	s.publishQuery(c, req.TopK, len(docs), time.Since(start))

	return c.JSON(CompletionResponse{Results: docs})
}

// completionError maps engine failures onto HTTP statuses.
func (s *Server) completionError(c *fiber.Ctx, topK int, err error) error {
	switch {
	case errors.Is(err, engine.ErrInvalidTopK):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: err.Error(),
		})

	case errors.Is(err, embeddings.ErrEmptyInput):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "prompt must not be empty",
		})

	case errors.Is(err, metastore.ErrUnavailable):
		s.logger.Error("metadata store unavailable", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "metadata store unavailable",
		})

	default:
		s.logger.Error("query failed",
			"top_k", topK,
			"error", err,
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "query failed",
		})
	}
}

// publishQuery emits one usage event for a served query. Publish failures
// are logged, never surfaced to the caller.
func (s *Server) publishQuery(c *fiber.Ctx, topK, resultCount int, duration time.Duration) {
	if s.config.Publisher == nil {
		return
	}

	owner := "anonymous"
	if record := validatedKey(c); record != nil {
		owner = record.Owner
	}

	event := eventstream.NewQueryServedEvent(owner, c.Path(), topK, resultCount, duration)
	if err := s.config.Publisher.PublishQuery(c.Context(), event); err != nil {
		s.logger.Warn("publishing usage event failed",
			"event_id", event.EventID,
			"error", err,
		)
	}
}
