package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/chronos/internal/domain/heartbeat"
	"github.com/rpggio/chronos/internal/domain/project"
	"github.com/rpggio/chronos/internal/domain/summary"
	"github.com/samber/lo"
)

func registerTools(server *sdkmcp.Server, svc Services) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "save_heartbeats",
		Description: "Store a batch of editor heartbeats and refresh the hourly activity they touch.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in SaveHeartbeatsInput) (*sdkmcp.CallToolResult, SaveHeartbeatsOutput, error) {
		beats := lo.Map(in.Heartbeats, func(hb HeartbeatInput, _ int) heartbeat.Heartbeat {
			return hb.toDomain()
		})
		res, err := svc.Heartbeats.Save(ctx, getUserID(ctx), beats)
		if err != nil {
			return nil, SaveHeartbeatsOutput{}, toolError(err)
		}
		return nil, SaveHeartbeatsOutput{Count: res.Count, Start: res.Start, End: res.End}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_summary",
		Description: "Total tracked time across all of the user's activity.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ GetSummaryInput) (*sdkmcp.CallToolResult, GetSummaryOutput, error) {
		total, err := svc.Summary.Total(ctx, getUserID(ctx))
		if err != nil {
			return nil, GetSummaryOutput{}, toolError(err)
		}
		return nil, GetSummaryOutput{TotalTime: total, TotalTimeStr: summary.FormatDuration(total)}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_summary_range",
		Description: "Tracked time in a range. With full=true, activities are grouped into interval buckets and merged per root project.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in RangeInput) (*sdkmcp.CallToolResult, RangeOutput, error) {
		res, err := svc.Summary.Range(ctx, getUserID(ctx), in.query())
		if err != nil {
			return nil, RangeOutput{}, toolError(err)
		}
		return nil, rangeOutput(res), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_project_activity",
		Description: "Like get_summary_range, restricted to one project and the projects rolled up under it.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectActivityInput) (*sdkmcp.CallToolResult, RangeOutput, error) {
		res, err := svc.Summary.ProjectActivity(ctx, getUserID(ctx), in.ProjectID, in.query())
		if err != nil {
			return nil, RangeOutput{}, toolError(err)
		}
		return nil, rangeOutput(res), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List the user's projects with their total tracked time.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ ListProjectsInput) (*sdkmcp.CallToolResult, ListProjectsOutput, error) {
		projects, err := svc.Projects.List(ctx, getUserID(ctx))
		if err != nil {
			return nil, ListProjectsOutput{}, toolError(err)
		}
		if projects == nil {
			projects = []project.ProjectSummary{}
		}
		return nil, ListProjectsOutput{Projects: projects}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_project",
		Description: "Register a project folder before any heartbeats arrive for it.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in CreateProjectInput) (*sdkmcp.CallToolResult, ProjectOutput, error) {
		proj, err := svc.Projects.Create(ctx, getUserID(ctx), project.CreateRequest{
			Folder:        in.Folder,
			Name:          in.Name,
			AlternateName: in.AlternateName,
			Description:   in.Description,
		})
		if err != nil {
			return nil, ProjectOutput{}, toolError(err)
		}
		return nil, projectOutput(proj), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "set_project_parent",
		Description: "Move a project under a parent, or make it a root when parent_id is omitted. Existing activity is re-attributed to the new root.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in SetProjectParentInput) (*sdkmcp.CallToolResult, ProjectOutput, error) {
		var parentID *string
		if in.ParentID != "" {
			parentID = &in.ParentID
		}
		proj, err := svc.Projects.SetParent(ctx, getUserID(ctx), in.ProjectID, parentID)
		if err != nil {
			return nil, ProjectOutput{}, toolError(err)
		}
		return nil, projectOutput(proj), nil
	})
}
