package project

import "time"

// Project is a user-scoped identity for a code folder. Folder is unique per
// user. The aggregation engine only creates projects and appends branches;
// every other field belongs to whoever manages projects.
type Project struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Folder        string    `json:"project_folder"`
	Name          string    `json:"name"`
	AlternateName string    `json:"alternate_project,omitempty"`
	ParentID      *string   `json:"parent,omitempty"`
	Description   string    `json:"description,omitempty"`
	Branches      []string  `json:"git_branches"`
	Favorite      bool      `json:"is_favorite"`
	Archived      bool      `json:"is_archived"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsRoot reports whether the project has no parent.
func (p *Project) IsRoot() bool {
	return p.ParentID == nil || *p.ParentID == ""
}

// ProjectSummary is a lightweight representation for listing
type ProjectSummary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Folder    string  `json:"project_folder"`
	ParentID  *string `json:"parent,omitempty"`
	Favorite  bool    `json:"is_favorite"`
	Archived  bool    `json:"is_archived"`
	TimeSpent int64   `json:"total_time_spent"`
}
