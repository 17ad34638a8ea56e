package activity

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/spaolacci/murmur3"
)

const (
	// HourSeconds is the width of one aggregation bucket.
	HourSeconds int64 = 3600
	// DaySeconds is the width of one day in seconds.
	DaySeconds int64 = 24 * HourSeconds
)

// HourlyActivity is the aggregate row for one (user, category, language,
// branch, project, hour) tuple. Only TimeSpent changes after insert.
type HourlyActivity struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Timestamp     int64     `json:"timestamp"`
	CompositeKey  string    `json:"composite_key"`
	ProjectID     string    `json:"project_id,omitempty"`
	RootProjectID string    `json:"root_project_id,omitempty"`
	Branch        string    `json:"git_branch,omitempty"`
	Language      string    `json:"language,omitempty"`
	Category      string    `json:"category,omitempty"`
	TimeSpent     int64     `json:"time_spent"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// GroupKey identifies the dimension tuple and hour a set of heartbeats
// aggregates into. It is comparable and used directly as a map key.
type GroupKey struct {
	UserID    string
	Category  string
	Language  string
	Branch    string
	ProjectID string
	Hour      int64
}

// CompositeKey returns the deterministic storage key for the tuple. Fields
// are length-prefixed in a fixed order so no two tuples serialize alike, and
// the user is always part of the key.
func (k GroupKey) CompositeKey() string {
	h := murmur3.New128()
	for _, field := range []string{
		k.UserID,
		k.Category,
		k.Language,
		k.Branch,
		k.ProjectID,
		strconv.FormatInt(k.Hour, 10),
	} {
		_, _ = h.Write([]byte(strconv.Itoa(len(field))))
		_, _ = h.Write([]byte{':'})
		_, _ = h.Write([]byte(field))
	}
	hi, lo := h.Sum128()
	return fmt.Sprintf("%016x%016x", hi, lo)
}

// HourStart truncates a unix timestamp to the start of its hour.
func HourStart(t float64) int64 {
	return floorDiv(int64(math.Floor(t)), HourSeconds) * HourSeconds
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
