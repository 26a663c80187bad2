package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lexfindco/lexfind/pkg/authgate"
)

// localsKeyAPIKey is the fiber locals slot holding the validated key record.
const localsKeyAPIKey = "apiKey"

// requireAPIKey validates the api_key query parameter before a query
// reaches the engine. Usage is recorded per validated request, and the
// validated record is stashed for the handler.
func (s *Server) requireAPIKey(c *fiber.Ctx) error {
	if s.config.Gate == nil {
		// No gate configured; local development only.
		return c.Next()
	}

	key := c.Query("api_key")
	if key == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error: "api_key query parameter is required",
		})
	}

	record, err := s.config.Gate.Validate(c.Context(), key)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error: "invalid or inactive API key",
		})
	}

	if s.config.Recorder != nil {
		if err := s.config.Recorder.RecordUsage(c.Context(), record.ID, c.Path()); err != nil {
			// Usage logging must not block the query.
			s.logger.Warn("recording usage failed",
				"key_id", record.ID,
				"error", err,
			)
		}
	}

	c.Locals(localsKeyAPIKey, record)

	return c.Next()
}

// validatedKey returns the key record stashed by requireAPIKey, or nil when
// no gate is configured.
func validatedKey(c *fiber.Ctx) *authgate.APIKey {
	record, _ := c.Locals(localsKeyAPIKey).(*authgate.APIKey)
	return record
}
