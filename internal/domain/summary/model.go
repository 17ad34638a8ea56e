package summary

// ProjectRef names the root project an activity rolls up to.
type ProjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Activity is one reported slice of time. Rows read from the aggregate store
// carry their dimensions; empty-bucket placeholders carry only a timestamp.
type Activity struct {
	Timestamp   int64       `json:"timestamp"`
	TimeSpent   int64       `json:"time_spent"`
	ProjectID   string      `json:"project_id,omitempty"`
	RootProject *ProjectRef `json:"root_project,omitempty"`
	Branch      string      `json:"git_branch,omitempty"`
	Language    string      `json:"language,omitempty"`
	Category    string      `json:"category,omitempty"`
}

func (a Activity) rootID() string {
	if a.RootProject == nil {
		return ""
	}
	return a.RootProject.ID
}

// RangeQuery selects a reporting range. Start and End are unix seconds and
// both inclusive. A zero Interval picks DefaultInterval.
type RangeQuery struct {
	Start    int64
	End      int64
	Interval int64
	Full     bool
}

// RangeResult is the reporting response for a range.
type RangeResult struct {
	TotalTime    int64        `json:"totalTime"`
	TotalTimeStr string       `json:"totalTimeStr"`
	Start        int64        `json:"start"`
	End          int64        `json:"end"`
	Interval     int64        `json:"interval,omitempty"`
	Activities   [][]Activity `json:"activities,omitempty"`
}
