package main

import (
	"github.com/spf13/cobra"

	"github.com/vango-dev/domsync/pkg/server"
	"github.com/vango-dev/domsync/pkg/telemetry"
)

func serveCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a headless render target",
		Long: `Serve keeps one in-memory document and applies transactions sent over
WebSocket (/ws) or HTTP (/transactions). Delegated events are pushed
back to connected clients.

Examples:
  domsync serve
  domsync serve --port=8080
  domsync serve --host=0.0.0.0 --config=prod.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, ".")
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := newLogger(cfg, cmd.ErrOrStderr())
			store, err := storeFor(cmd.Context(), cfg.Snapshot)
			if err != nil {
				return err
			}
			opts := []server.Option{
				server.WithLogger(logger),
				server.WithTracer(telemetry.Tracer(telemetry.DefaultTracerName)),
			}
			if cfg.Metrics.Enabled {
				opts = append(opts, server.WithMetrics(telemetry.NewMetrics(
					telemetry.WithNamespace(cfg.Metrics.Namespace),
				)))
			}

			srv := server.New(&server.ServerConfig{
				Address:         cfg.Address(),
				ReadBufferSize:  cfg.Server.ReadBufferSize,
				WriteBufferSize: cfg.Server.WriteBufferSize,
				MaxMessageBytes: cfg.Server.MaxMessageBytes,
				CheckOrigin:     server.AllowOrigins(cfg.Server.AllowedOrigins),
				ShutdownTimeout: cfg.ShutdownTimeout(),
				Minify:          cfg.Snapshot.Minify,
				Store:           store,
			}, opts...)

			return srv.Run()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")

	return cmd
}
