package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/chronos/internal/domain/heartbeat"
	"github.com/rpggio/chronos/internal/domain/project"
	"github.com/rpggio/chronos/internal/domain/summary"
)

// HeartbeatService defines ingestion operations needed by MCP.
type HeartbeatService interface {
	Save(ctx context.Context, userID string, beats []heartbeat.Heartbeat) (heartbeat.SaveResult, error)
}

// SummaryService defines reporting operations needed by MCP.
type SummaryService interface {
	Total(ctx context.Context, userID string) (int64, error)
	Range(ctx context.Context, userID string, q summary.RangeQuery) (*summary.RangeResult, error)
	ProjectActivity(ctx context.Context, userID, projectID string, q summary.RangeQuery) (*summary.RangeResult, error)
}

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	Create(ctx context.Context, userID string, req project.CreateRequest) (*project.Project, error)
	List(ctx context.Context, userID string) ([]project.ProjectSummary, error)
	SetParent(ctx context.Context, userID, id string, parentID *string) (*project.Project, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Heartbeats HeartbeatService
	Summary    SummaryService
	Projects   ProjectService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	Resolver      UserResolver
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	// DefaultUser is the user every call runs as when auth is off.
	DefaultUser string
	Version     string
	Logger      *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "chronos",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is local only, so it always runs as the default user.
	if cfg.TransportMode == "stdio" || !cfg.AuthEnabled {
		server.AddReceivingMiddleware(noAuthMiddleware(cfg.DefaultUser))
	} else {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services)

	return server
}
