package heartbeat

import "time"

// Category classifies what the developer was doing when a heartbeat was sent.
type Category string

const (
	CategoryDebugging     Category = "debugging"
	CategoryAICoding      Category = "ai coding"
	CategoryBuilding      Category = "building"
	CategoryCodeReviewing Category = "code reviewing"
)

// Valid reports whether c is empty or one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case "", CategoryDebugging, CategoryAICoding, CategoryBuilding, CategoryCodeReviewing:
		return true
	}
	return false
}

// Heartbeat is a single timestamped activity event sent by an editor client.
// Heartbeats are append-only; nothing mutates them after insert.
type Heartbeat struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Time             float64   `json:"time"`
	Entity           string    `json:"entity"`
	IsWrite          bool      `json:"is_write"`
	LineNo           int       `json:"lineno"`
	CursorPos        int       `json:"cursorpos"`
	LinesInFile      int       `json:"lines_in_file"`
	AlternateProject string    `json:"alternate_project,omitempty"`
	GitBranch        string    `json:"git_branch,omitempty"`
	ProjectFolder    string    `json:"project_folder,omitempty"`
	ProjectRootCount *int      `json:"project_root_count,omitempty"`
	Language         string    `json:"language,omitempty"`
	Category         Category  `json:"category,omitempty"`
	AILineChanges    *int      `json:"ai_line_changes,omitempty"`
	HumanLineChanges *int      `json:"human_line_changes,omitempty"`
	IsUnsavedEntity  bool      `json:"is_unsaved_entity,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Bounds is the earliest and latest heartbeat time stored for a user.
type Bounds struct {
	Min float64
	Max float64
}
