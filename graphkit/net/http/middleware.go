package http

import (
	"github.com/LerianStudio/lib-graphkit/graphkit"
	"github.com/LerianStudio/lib-graphkit/graphkit/log"
	"github.com/LerianStudio/lib-graphkit/graphkit/neo4j"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HeaderRequestID is read from and echoed on every request.
const HeaderRequestID = "X-Request-Id"

// WithGraph places ext, logger and a request id in the request context so
// handlers can reach them through GraphFromRequest and graphkit helpers.
func WithGraph(ext *neo4j.Extension, logger log.Logger) fiber.Handler {
	if logger == nil {
		logger = log.NewNop()
	}

	return func(c *fiber.Ctx) error {
		requestID := c.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(HeaderRequestID, requestID)

		ctx := graphkit.ContextWithRequestID(c.UserContext(), requestID)
		ctx = graphkit.ContextWithLogger(ctx, logger.With(log.String("request_id", requestID)))
		ctx = graphkit.ContextWithGraph(ctx, ext)

		c.SetUserContext(ctx)

		return c.Next()
	}
}

// GraphFromRequest returns the extension installed by WithGraph.
func GraphFromRequest(c *fiber.Ctx) (*neo4j.Extension, error) {
	return graphkit.GraphFromContext(c.UserContext())
}
