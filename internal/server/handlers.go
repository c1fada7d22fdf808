package server

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/ahrav/go-checkmate/internal/configuration"
	"github.com/ahrav/go-checkmate/internal/factcheck"
	llmerrors "github.com/ahrav/go-checkmate/internal/llm/errors"
)

// factCheckFailedMessage is the stable, generic message callers see for
// every terminal failure. Diagnostic detail stays with the error tracker.
const factCheckFailedMessage = "fact check failed"

func (s *Server) handleFactCheck(c *fiber.Ctx) error {
	return s.runFactCheck(c, configuration.ClassFactCheck)
}

func (s *Server) handleFactCheckBackground(c *fiber.Ctx) error {
	return s.runFactCheck(c, configuration.ClassFactCheckQuick)
}

// runFactCheck parses the request, drives the orchestrator under the given
// operation class, and maps errors onto the HTTP contract: 400 for
// validation failures, 500 with the generic message for everything else.
func (s *Server) runFactCheck(c *fiber.Ctx, class string) error {
	var req factcheck.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	resp, err := s.checker.Check(c.UserContext(), class, &req)
	if err != nil {
		return s.renderError(c, err)
	}
	return c.JSON(resp)
}

// renderError maps orchestrator errors onto HTTP responses. Only
// validation messages are specific; terminal failures are generic, with
// detail attached in development mode only.
func (s *Server) renderError(c *fiber.Ctx, err error) error {
	if llmerrors.IsValidation(err) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	body := fiber.Map{"error": factCheckFailedMessage}
	if s.development {
		body["detail"] = err.Error()
	}
	return c.Status(fiber.StatusInternalServerError).JSON(body)
}

// requireBackgroundToken guards the background variant with the shared
// secret. An unconfigured token disables the endpoint entirely.
func (s *Server) requireBackgroundToken(c *fiber.Ctx) error {
	token := c.Get("X-Background-Token")
	if s.cfg.BackgroundToken == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.BackgroundToken)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid background token",
		})
	}
	return c.Next()
}

// handleHealth reports liveness plus a snapshot of every breaker.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"breakers": s.breakers.Snapshot(),
	})
}
