package mcp

import (
	"github.com/rpggio/chronos/internal/domain/heartbeat"
	"github.com/rpggio/chronos/internal/domain/project"
	"github.com/rpggio/chronos/internal/domain/summary"
)

// HeartbeatInput is the client-supplied part of a heartbeat.
type HeartbeatInput struct {
	Time             float64 `json:"time" jsonschema:"unix seconds, fractional allowed"`
	Entity           string  `json:"entity" jsonschema:"file path, url or app name"`
	IsWrite          bool    `json:"is_write,omitempty"`
	LineNo           int     `json:"lineno,omitempty"`
	CursorPos        int     `json:"cursorpos,omitempty"`
	LinesInFile      int     `json:"lines_in_file,omitempty"`
	AlternateProject string  `json:"alternate_project,omitempty" jsonschema:"project name reported by the editor"`
	GitBranch        string  `json:"git_branch,omitempty"`
	ProjectFolder    string  `json:"project_folder,omitempty" jsonschema:"absolute project root; empty means unknown"`
	ProjectRootCount *int    `json:"project_root_count,omitempty"`
	Language         string  `json:"language,omitempty"`
	Category         string  `json:"category,omitempty" jsonschema:"one of debugging, ai coding, building, code reviewing"`
	AILineChanges    *int    `json:"ai_line_changes,omitempty"`
	HumanLineChanges *int    `json:"human_line_changes,omitempty"`
	IsUnsavedEntity  bool    `json:"is_unsaved_entity,omitempty"`
}

func (in HeartbeatInput) toDomain() heartbeat.Heartbeat {
	return heartbeat.Heartbeat{
		Time:             in.Time,
		Entity:           in.Entity,
		IsWrite:          in.IsWrite,
		LineNo:           in.LineNo,
		CursorPos:        in.CursorPos,
		LinesInFile:      in.LinesInFile,
		AlternateProject: in.AlternateProject,
		GitBranch:        in.GitBranch,
		ProjectFolder:    in.ProjectFolder,
		ProjectRootCount: in.ProjectRootCount,
		Language:         in.Language,
		Category:         heartbeat.Category(in.Category),
		AILineChanges:    in.AILineChanges,
		HumanLineChanges: in.HumanLineChanges,
		IsUnsavedEntity:  in.IsUnsavedEntity,
	}
}

type SaveHeartbeatsInput struct {
	Heartbeats []HeartbeatInput `json:"heartbeats" jsonschema:"heartbeats to store; the batch is stored whole or not at all"`
}

type SaveHeartbeatsOutput struct {
	Count int     `json:"count"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type GetSummaryInput struct{}

type GetSummaryOutput struct {
	TotalTime    int64  `json:"totalTime"`
	TotalTimeStr string `json:"totalTimeStr"`
}

type RangeInput struct {
	Start    int64 `json:"start" jsonschema:"range start, unix seconds, inclusive"`
	End      int64 `json:"end" jsonschema:"range end, unix seconds, inclusive"`
	Interval int64 `json:"interval,omitempty" jsonschema:"bucket width in seconds; 0 picks a default from the range span"`
	Full     bool  `json:"full,omitempty" jsonschema:"include bucketed activities, not just the total"`
}

func (in RangeInput) query() summary.RangeQuery {
	return summary.RangeQuery{Start: in.Start, End: in.End, Interval: in.Interval, Full: in.Full}
}

type ProjectActivityInput struct {
	ProjectID string `json:"project_id" jsonschema:"project whose own and rolled-up activity is reported"`
	Start     int64  `json:"start" jsonschema:"range start, unix seconds, inclusive"`
	End       int64  `json:"end" jsonschema:"range end, unix seconds, inclusive"`
	Interval  int64  `json:"interval,omitempty" jsonschema:"bucket width in seconds; 0 picks a default from the range span"`
	Full      bool   `json:"full,omitempty"`
}

func (in ProjectActivityInput) query() summary.RangeQuery {
	return summary.RangeQuery{Start: in.Start, End: in.End, Interval: in.Interval, Full: in.Full}
}

// RangeOutput mirrors summary.RangeResult.
type RangeOutput struct {
	TotalTime    int64                `json:"totalTime"`
	TotalTimeStr string               `json:"totalTimeStr"`
	Start        int64                `json:"start"`
	End          int64                `json:"end"`
	Interval     int64                `json:"interval,omitempty"`
	Activities   [][]summary.Activity `json:"activities,omitempty"`
}

func rangeOutput(res *summary.RangeResult) RangeOutput {
	return RangeOutput{
		TotalTime:    res.TotalTime,
		TotalTimeStr: res.TotalTimeStr,
		Start:        res.Start,
		End:          res.End,
		Interval:     res.Interval,
		Activities:   res.Activities,
	}
}

type ListProjectsInput struct{}

type ListProjectsOutput struct {
	Projects []project.ProjectSummary `json:"projects"`
}

type CreateProjectInput struct {
	Folder        string `json:"project_folder" jsonschema:"absolute project root"`
	Name          string `json:"name,omitempty" jsonschema:"display name; defaults to the folder"`
	AlternateName string `json:"alternate_project,omitempty"`
	Description   string `json:"description,omitempty"`
}

type SetProjectParentInput struct {
	ProjectID string `json:"project_id"`
	ParentID  string `json:"parent_id,omitempty" jsonschema:"new parent; omit to make the project a root"`
}

// ProjectOutput is the tool view of a project.
type ProjectOutput struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Folder   string   `json:"project_folder"`
	ParentID string   `json:"parent,omitempty"`
	Branches []string `json:"git_branches,omitempty"`
}

func projectOutput(p *project.Project) ProjectOutput {
	out := ProjectOutput{
		ID:       p.ID,
		Name:     p.Name,
		Folder:   p.Folder,
		Branches: p.Branches,
	}
	if p.ParentID != nil {
		out.ParentID = *p.ParentID
	}
	return out
}
