package main

import (
	"context"
	"time"

	"github.com/LerianStudio/lib-graphkit/graphkit/config"
	"github.com/LerianStudio/lib-graphkit/graphkit/host/fiberhost"
	"github.com/LerianStudio/lib-graphkit/graphkit/log"
	httpkit "github.com/LerianStudio/lib-graphkit/graphkit/net/http"
	"github.com/LerianStudio/lib-graphkit/graphkit/neo4j"
	"github.com/LerianStudio/lib-graphkit/graphkit/server"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

func newServeCmd(c *cli) *cobra.Command {
	var (
		httpAddress    string
		grpcAddress    string
		healthInterval time.Duration
		enableQuery    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve HTTP health and query endpoints plus gRPC health for the graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := c.mapping()
			if err != nil {
				return err
			}

			app := fiber.New(fiber.Config{
				DisableStartupMessage: true,
				ErrorHandler:          httpkit.ErrorHandler,
			})
			h := fiberhost.New(app, fiberhost.WithConfig(m), fiberhost.WithLogger(c.logger))

			ext, err := neo4j.NewWithHost(cmd.Context(), h, c.extensionOptions()...)
			if err != nil {
				return err
			}

			registerRoutes(app, ext, c.logger, enableQuery)

			sm := server.NewServerManager(c.logger).
				WithHTTPServer(app, httpAddress).
				WithHost(h)

			if grpcAddress != "" {
				sm.WithGRPCServer(grpc.NewServer(), grpcAddress).
					WithGraphHealth(ext, healthInterval)
			}

			return sm.StartWithGracefulShutdownWithError()
		},
	}

	cmd.Flags().StringVar(&httpAddress, "http", config.GetenvOrDefault("SERVER_ADDRESS", "127.0.0.1:8080"), "HTTP listen address")
	cmd.Flags().StringVar(&grpcAddress, "grpc", "", "gRPC health listen address (disabled when empty)")
	cmd.Flags().DurationVar(&healthInterval, "health-interval", 10*time.Second, "gRPC health probe interval")
	cmd.Flags().BoolVar(&enableQuery, "enable-query", false, "expose POST /query; it runs arbitrary Cypher and has no authentication")

	return cmd
}

// registerRoutes mounts the health endpoints and, only when enableQuery is
// set, the unauthenticated query endpoint.
func registerRoutes(app *fiber.App, ext *neo4j.Extension, logger log.Logger, enableQuery bool) {
	app.Use(httpkit.WithGraph(ext, logger))
	app.Get("/ping", httpkit.Ping)
	app.Get("/health", httpkit.GraphHealth(ext))

	if !enableQuery {
		return
	}

	if logger.Enabled(log.LevelWarn) {
		logger.Log(context.Background(), log.LevelWarn, "POST /query is enabled without authentication")
	}

	app.Post("/query", queryHandler)
}

type queryRequest struct {
	Query  string         `json:"query"`
	Params map[string]any `json:"params"`
}

func queryHandler(c *fiber.Ctx) error {
	var req queryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "body must be {\"query\": ..., \"params\": {...}}")
	}

	ext, err := httpkit.GraphFromRequest(c)
	if err != nil {
		return err
	}

	records, err := ext.Execute(c.UserContext(), req.Query, req.Params)
	if err != nil {
		return err
	}

	rows := make([]map[string]any, 0, len(records))
	for _, record := range records {
		rows = append(rows, record.AsMap())
	}

	return c.JSON(fiber.Map{"records": rows})
}
