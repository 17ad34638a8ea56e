package sqlite

import (
	"github.com/rpggio/chronos/internal/domain/activity"
	"github.com/rpggio/chronos/internal/domain/heartbeat"
	"github.com/rpggio/chronos/internal/domain/project"
	"github.com/rpggio/chronos/internal/domain/summary"
	"github.com/rpggio/chronos/internal/domain/user"
)

var (
	_ heartbeat.Repository     = (*HeartbeatRepository)(nil)
	_ activity.HeartbeatSource = (*HeartbeatRepository)(nil)
	_ project.Repository       = (*ProjectRepository)(nil)
	_ activity.Repository      = (*ActivityRepository)(nil)
	_ summary.Repository       = (*ActivityRepository)(nil)
	_ user.Repository          = (*UserRepository)(nil)
	_ activity.UserLister      = (*UserRepository)(nil)
)
