package http

import (
	"context"
	"errors"

	"github.com/LerianStudio/lib-graphkit/graphkit"
	"github.com/LerianStudio/lib-graphkit/graphkit/log"
	"github.com/LerianStudio/lib-graphkit/graphkit/neo4j"
	libOpentelemetry "github.com/LerianStudio/lib-graphkit/graphkit/opentelemetry"
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"
)

// Ping returns HTTP Status 200 with response "pong".
func Ping(c *fiber.Ctx) error {
	return c.SendString("pong")
}

// ErrorHandler is a fiber.ErrorHandler that maps graph lifecycle errors to
// 503 and logs everything else through the request logger.
func ErrorHandler(c *fiber.Ctx, err error) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	libOpentelemetry.HandleSpanError(trace.SpanFromContext(ctx), "handler error", err)

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return WriteError(c, fe.Code, "request_error", fe.Message)
	}

	switch {
	case errors.Is(err, neo4j.ErrNotInitialized), errors.Is(err, graphkit.ErrGraphNotInContext):
		return ServiceUnavailableError(c, "graph_not_initialized")
	case neo4j.IsTransient(err):
		return ServiceUnavailableError(c, "graph_unavailable")
	case errors.Is(err, neo4j.ErrEmptyQuery), errors.Is(err, neo4j.ErrInvalidIndex):
		return WriteError(c, fiber.StatusBadRequest, "invalid_request", err.Error())
	}

	log.SafeError(graphkit.LoggerFromContext(ctx), ctx, "handler error", err)

	return WriteError(c, fiber.StatusInternalServerError, "internal_error", "internal server error")
}
