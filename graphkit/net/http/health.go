package http

import (
	"context"
	"time"

	"github.com/LerianStudio/lib-graphkit/graphkit"
	"github.com/LerianStudio/lib-graphkit/graphkit/log"
	"github.com/gofiber/fiber/v2"
)

// DefaultHealthTimeout bounds a single health probe.
const DefaultHealthTimeout = 5 * time.Second

// HealthChecker probes a dependency. *neo4j.Extension implements it.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// GraphHealth reports 200 {"status":"available"} while checker answers and
// 503 {"status":"unavailable"} otherwise.
func GraphHealth(checker HealthChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if checker == nil {
			return JSONResponse(c, fiber.StatusServiceUnavailable, fiber.Map{"status": "unavailable"})
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), DefaultHealthTimeout)
		defer cancel()

		if err := checker.Ping(ctx); err != nil {
			logger := graphkit.LoggerFromContext(ctx)
			if logger.Enabled(log.LevelWarn) {
				logger.Log(ctx, log.LevelWarn, "graph health check failed", log.Err(err))
			}

			return JSONResponse(c, fiber.StatusServiceUnavailable, fiber.Map{
				"status": "unavailable",
				"neo4j":  "down",
			})
		}

		return JSONResponse(c, fiber.StatusOK, fiber.Map{
			"status": "available",
			"neo4j":  "up",
		})
	}
}
