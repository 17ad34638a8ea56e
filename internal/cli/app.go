package cli

import (
	"fmt"
	"log/slog"

	"github.com/rpggio/chronos/internal/config"
	"github.com/rpggio/chronos/internal/domain/activity"
	"github.com/rpggio/chronos/internal/domain/heartbeat"
	"github.com/rpggio/chronos/internal/domain/project"
	"github.com/rpggio/chronos/internal/domain/summary"
	"github.com/rpggio/chronos/internal/domain/user"
	"github.com/rpggio/chronos/internal/sqlite"
)

// app holds the wired services shared by every command.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	db     *sqlite.DB

	Heartbeats *heartbeat.Service
	Projects   *project.Service
	Summary    *summary.Service
	Users      *user.Service
	Rebuilder  *activity.Rebuilder
}

func openApp(cfg config.Config, logger *slog.Logger) (*app, error) {
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	heartbeatRepo := sqlite.NewHeartbeatRepository(db)
	projectRepo := sqlite.NewProjectRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)
	userRepo := sqlite.NewUserRepository(db)

	builder := activity.NewBuilder(heartbeatRepo, projectRepo, activityRepo, activity.BuilderConfig{
		Interval: cfg.Heartbeat.IntervalSec,
	}, logger)

	return &app{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		Heartbeats: heartbeat.NewService(heartbeatRepo, builder, logger),
		Projects:   project.NewService(projectRepo, builder, logger),
		Summary:    summary.NewService(activityRepo, logger),
		Users:      user.NewService(userRepo, logger),
		Rebuilder:  activity.NewRebuilder(userRepo, heartbeatRepo, builder, cfg.Rebuild.Chunk, logger),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// withApp loads config, opens the database and runs fn against the wired app.
func withApp(opts *rootOptions, fn func(*app) error) error {
	cfg, err := opts.load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
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

	return fn(a)
}
