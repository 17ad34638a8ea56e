package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/chronos/internal/config"
	"github.com/rpggio/chronos/internal/mcp"
	"github.com/rpggio/chronos/internal/transport"
	"github.com/spf13/cobra"
)

// localUserID owns all data when auth is off.
const localUserID = "local"

func newServeCmd(opts *rootOptions) *cobra.Command {
	var transportMode string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over HTTP or stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if transportMode != "" {
				cfg.Server.Transport = transportMode
				if err := cfg.Validate(); err != nil {
					return fmt.Errorf("config error: %w", err)
				}
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&transportMode, "transport", "", "override the transport: http or stdio")

	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, closer, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	a, err := openApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	stdio := cfg.Server.Transport == config.TransportStdio
	authEnabled := cfg.Auth.Enabled && !stdio
	if !authEnabled {
		if err := a.Users.EnsureUser(ctx, localUserID, "Local"); err != nil {
			return err
		}
	}

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Heartbeats: a.Heartbeats,
			Summary:    a.Summary,
			Projects:   a.Projects,
		},
		Resolver:      a.Users,
		AuthEnabled:   authEnabled,
		TransportMode: cfg.Server.Transport,
		DefaultUser:   localUserID,
		Version:       version,
		Logger:        logger,
	})

	if stdio {
		return runStdio(ctx, logger, mcpServer)
	}
	return runHTTP(ctx, logger, mcpServer, cfg, authEnabled)
}

func runStdio(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	// Run blocks until stdin closes or the context is cancelled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTP(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server, cfg config.Config, authEnabled bool) error {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr: addr,
		Handler: transport.NewRouter(transport.RouterConfig{
			MCP:         mcpHandler,
			AuthEnabled: authEnabled,
			Logger:      logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "auth", authEnabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
