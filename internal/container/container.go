// Package container wires the goodday services using go.uber.org/dig.
package container

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/hyperengineering/goodday"
	"github.com/hyperengineering/goodday/internal/observe"
	gdmcp "github.com/hyperengineering/goodday/mcp"
)

// Container holds the resolved service singletons.
// Callers use the typed getters; they never need to import dig directly.
type Container struct {
	config  goodday.Config
	logger  *zap.Logger
	metrics *observe.Metrics
	client  *goodday.Client
	server  *gdmcp.Server
}

func (c *Container) Config() goodday.Config    { return c.config }
func (c *Container) Logger() *zap.Logger       { return c.logger }
func (c *Container) Metrics() *observe.Metrics { return c.metrics }
func (c *Container) Client() *goodday.Client   { return c.client }
func (c *Container) Server() *gdmcp.Server     { return c.server }

// Close releases the client and flushes the logger.
func (c *Container) Close() error {
	err := c.client.Close()
	_ = c.logger.Sync()
	return err
}

// Options are the inputs the container cannot build itself.
type Options struct {
	// Version is reported as the MCP server version.
	Version string

	// MeterProvider receives the metric instruments. Nil discards them.
	MeterProvider metric.MeterProvider

	// Logger replaces the logger built from the config.
	Logger *zap.Logger
}

// serverVersion is a named string so dig can tell it apart from other strings.
type serverVersion string

// New builds and wires config → logger → metrics → client → MCP server.
func New(cfg goodday.Config, opts Options) (*Container, error) {
	d := dig.New()

	providers := []any{
		func() goodday.Config { return cfg.WithDefaults() },
		func() serverVersion { return serverVersion(opts.Version) },
		func(cfg goodday.Config) (*zap.Logger, error) {
			if opts.Logger != nil {
				return opts.Logger, nil
			}
			return goodday.NewLogger(cfg.LogLevel, cfg.Debug, cfg.DebugLogPath)
		},
		func() (*observe.Metrics, error) {
			if opts.MeterProvider == nil {
				return observe.Nop(), nil
			}
			return observe.NewMetrics(opts.MeterProvider)
		},
		newClient,
		newServer,
	}
	for _, p := range providers {
		if err := d.Provide(p); err != nil {
			return nil, fmt.Errorf("container: %w", err)
		}
	}

	var result *Container
	err := d.Invoke(func(
		cfg goodday.Config,
		logger *zap.Logger,
		metrics *observe.Metrics,
		client *goodday.Client,
		server *gdmcp.Server,
	) {
		result = &Container{
			config:  cfg,
			logger:  logger,
			metrics: metrics,
			client:  client,
			server:  server,
		}
	})
	if err != nil {
		return nil, fmt.Errorf("container: %w", dig.RootCause(err))
	}
	return result, nil
}

func newClient(cfg goodday.Config, logger *zap.Logger, metrics *observe.Metrics) (*goodday.Client, error) {
	return goodday.New(cfg, goodday.WithLogger(logger), goodday.WithMetrics(metrics))
}

func newServer(client *goodday.Client, version serverVersion, logger *zap.Logger, metrics *observe.Metrics) *gdmcp.Server {
	return gdmcp.NewServer(client, string(version),
		gdmcp.WithLogger(logger.Named("mcp")),
		gdmcp.WithMetrics(metrics))
}
