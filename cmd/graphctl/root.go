package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/LerianStudio/lib-graphkit/graphkit/config"
	"github.com/LerianStudio/lib-graphkit/graphkit/host"
	"github.com/LerianStudio/lib-graphkit/graphkit/log"
	"github.com/LerianStudio/lib-graphkit/graphkit/neo4j"
	graphzap "github.com/LerianStudio/lib-graphkit/graphkit/zap"
	"github.com/spf13/cobra"
)

// cli holds the flags shared by every subcommand.
type cli struct {
	configFile  string
	uri         string
	database    string
	environment string
	logLevel    string

	out           io.Writer
	driverFactory neo4j.DriverFactory
	logger        log.Logger
}

// Execute runs graphctl with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return newRootCmd(&cli{out: os.Stdout}).ExecuteContext(ctx)
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "graphctl",
		Short: "Inspect and query a Neo4j database",
		Long: `graphctl resolves NEO4J_* settings from a config file and the
environment, connects with the same retry policy applications use and runs
checks or queries against the database.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setupLogger,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "config file (yaml, json or toml) holding NEO4J_* keys")
	flags.StringVar(&c.uri, "uri", "", "override NEO4J_URI")
	flags.StringVar(&c.database, "database", "", "override NEO4J_DATABASE")
	flags.StringVar(&c.environment, "env", config.GetenvOrDefault("ENV_NAME", "local"), "logging profile: production, staging, development or local")
	flags.StringVar(&c.logLevel, "log-level", config.GetenvOrDefault("LOG_LEVEL", "warn"), "log level")

	root.AddCommand(newVerifyCmd(c), newQueryCmd(c), newServeCmd(c))

	return root
}

func (c *cli) setupLogger(cmd *cobra.Command, _ []string) error {
	if c.out == nil {
		c.out = cmd.OutOrStdout()
	}

	if c.logger != nil {
		return nil
	}

	logger, err := graphzap.New(graphzap.Config{
		Environment: graphzap.Environment(strings.ToLower(c.environment)),
		Level:       c.logLevel,
	})
	if err != nil {
		return err
	}

	c.logger = logger

	return nil
}

// mapping loads the config file (if any) with env overrides, then applies
// command-line overrides.
func (c *cli) mapping() (config.Mapping, error) {
	var (
		m   config.Mapping
		err error
	)

	if c.configFile != "" {
		m, err = config.LoadFile(c.configFile)
		if err != nil {
			return nil, err
		}
	} else {
		m = config.FromEnv()
	}

	if c.uri != "" {
		m[config.KeyURI] = c.uri
	}

	if c.database != "" {
		m[config.KeyDatabase] = c.database
	}

	return m, nil
}

// attach connects an extension to a fresh in-process host.
func (c *cli) attach(ctx context.Context) (*host.App, *neo4j.Extension, error) {
	m, err := c.mapping()
	if err != nil {
		return nil, nil, err
	}

	app := host.NewApp(host.WithConfig(m), host.WithLogger(c.logger))

	ext, err := neo4j.NewWithHost(ctx, app, c.extensionOptions()...)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}

	return app, ext, nil
}

func (c *cli) extensionOptions() []neo4j.Option {
	opts := []neo4j.Option{neo4j.WithLogger(c.logger)}
	if c.driverFactory != nil {
		opts = append(opts, neo4j.WithDriverFactory(c.driverFactory))
	}

	return opts
}
