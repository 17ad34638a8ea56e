package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `chronos records editor heartbeats and reports coding time.

Core concepts:
- Heartbeat: one timestamped editor event (file, project folder, branch, language).
- Hourly activity: heartbeats rolled up per hour and per project, branch, language and category.
- Project: identity for a folder. Projects nest; time rolls up to the root project.

Tools:
1) save_heartbeats to ingest a batch. Aggregates refresh as part of the call.
2) get_summary for the all-time total.
3) get_summary_range with start/end (unix seconds, inclusive). Pass full=true for buckets.
4) get_project_activity for one project and its children.
5) list_projects, create_project, set_project_parent to manage the project tree.

Docs:
- chronos://docs/index
- chronos://docs/time-estimation
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "chronos://docs/index",
		Name:        "docs_index",
		Title:       "chronos docs index",
		Description: "Entry point: what the tools return and how ranges are bucketed.",
		Content: `# chronos: Agent Docs Index

## Reporting ranges

- ` + "`start`" + ` and ` + "`end`" + ` are unix seconds and both inclusive.
- ` + "`interval`" + ` of 0 picks an hour for spans under a day, otherwise a day.
- A range may produce at most 10000 buckets.
- With ` + "`full=true`" + `, each bucket lists one activity per root project.
  An empty bucket holds a single placeholder with only its timestamp.

## Projects

- Heartbeats with no project folder are filed under the ` + "`unknown`" + ` project.
- ` + "`set_project_parent`" + ` moves past activity to the new root as well.

## Sizes

` + "`resources/list`" + ` returns each doc resource with a ` + "`size`" + ` (bytes) estimate.
`,
	},
	{
		URI:         "chronos://docs/time-estimation",
		Name:        "docs_time_estimation",
		Title:       "How active time is estimated",
		Description: "Rules for turning heartbeat timestamps into seconds of activity.",
		Content: `# How active time is estimated

Heartbeats are grouped by hour and by (project, branch, language, category).
Within a group:

- The hour is split into slots one heartbeat interval wide (120s by default).
- Every slot holding at least one heartbeat counts as a full interval.
- When the newest heartbeat is less than one interval old, its slot counts only the whole minutes elapsed since it.
- A total within one interval of a full hour counts as the full hour.

Saving the same batch again does not change totals: every refresh recomputes whole hours from stored heartbeats.
`,
	},
}

const docMIMEType = "text/markdown"

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    docMIMEType,
			Size:        int64(len(doc.Content)),
		}, doc.read)
	}
}

// read serves the document under the URI the client asked for.
func (d docResource) read(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	uri := d.URI
	if req != nil && req.Params != nil && req.Params.URI != "" {
		uri = req.Params.URI
	}
	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{{URI: uri, MIMEType: docMIMEType, Text: d.Content}},
	}, nil
}
