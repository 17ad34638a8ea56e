package testserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/chronos/internal/domain/activity"
	"github.com/rpggio/chronos/internal/domain/heartbeat"
	"github.com/rpggio/chronos/internal/domain/project"
	"github.com/rpggio/chronos/internal/domain/summary"
	"github.com/rpggio/chronos/internal/domain/user"
	"github.com/rpggio/chronos/internal/mcp"
	"github.com/rpggio/chronos/internal/sqlite"
	"github.com/rpggio/chronos/internal/transport"
	"github.com/stretchr/testify/require"
)

// TestServer runs the full HTTP stack against a throwaway database.
type TestServer struct {
	Server *httptest.Server
	DB     *sqlite.DB
	Users  *user.Service
}

// New starts a server with auth enabled.
func New(t *testing.T) *TestServer {
	t.Helper()

	db, err := sqlite.New(filepath.Join(t.TempDir(), "chronos.db"))
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	heartbeatRepo := sqlite.NewHeartbeatRepository(db)
	projectRepo := sqlite.NewProjectRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)
	userRepo := sqlite.NewUserRepository(db)

	builder := activity.NewBuilder(heartbeatRepo, projectRepo, activityRepo, activity.BuilderConfig{}, nil)
	users := user.NewService(userRepo, nil)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Heartbeats: heartbeat.NewService(heartbeatRepo, builder, nil),
			Summary:    summary.NewService(activityRepo, nil),
			Projects:   project.NewService(projectRepo, builder, nil),
		},
		Resolver:      users,
		AuthEnabled:   true,
		TransportMode: "http",
	})
	handler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: time.Minute},
	)
	server := httptest.NewServer(transport.NewRouter(transport.RouterConfig{MCP: handler, AuthEnabled: true}))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return &TestServer{Server: server, DB: db, Users: users}
}

// CreateUser registers a user and returns its id and API key.
func (ts *TestServer) CreateUser(t *testing.T, name, email string) (string, string) {
	t.Helper()
	u, key, err := ts.Users.Create(context.Background(), user.CreateRequest{Name: name, Email: email})
	require.NoError(t, err)
	return u.ID, key
}

// Connect opens an MCP client session that sends token as its bearer.
func (ts *TestServer) Connect(ctx context.Context, token string) (*sdkmcp.ClientSession, error) {
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	return client.Connect(ctx, &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: bearerTransport{token: token}},
		MaxRetries: -1,
	}, nil)
}

type bearerTransport struct {
	token string
}

func (b bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
	return http.DefaultTransport.RoundTrip(req)
}
