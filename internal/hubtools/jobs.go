package hubtools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// jobCommand is one entry in the hf_jobs dispatch table. Dispatch is a map
// lookup on the command name; adding a subcommand means adding a row here.
type jobCommand struct {
	description string
	run         func(ctx context.Context, client *Client, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

var jobCommands = map[string]jobCommand{
	"ps": {
		description: "List compute jobs for the authenticated account",
		run: func(ctx context.Context, client *Client, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			body, err := client.Get(ctx, "/api/jobs", nil)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("listing jobs failed: %v", err)), nil
			}
			return mcp.NewToolResultText(string(body)), nil
		},
	},
	"inspect": {
		description: "Show the full state of one job (requires job_id)",
		run: func(ctx context.Context, client *Client, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			jobID, err := req.RequireString("job_id")
			if err != nil {
				return mcp.NewToolResultError("command 'inspect' requires 'job_id'"), nil
			}
			body, err := client.Get(ctx, "/api/jobs/"+jobID, nil)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("inspecting job failed: %v", err)), nil
			}
			return mcp.NewToolResultText(string(body)), nil
		},
	},
	"logs": {
		description: "Fetch the logs of one job (requires job_id)",
		run: func(ctx context.Context, client *Client, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			jobID, err := req.RequireString("job_id")
			if err != nil {
				return mcp.NewToolResultError("command 'logs' requires 'job_id'"), nil
			}
			body, err := client.Get(ctx, "/api/jobs/"+jobID+"/logs", nil)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("fetching job logs failed: %v", err)), nil
			}
			return mcp.NewToolResultText(string(body)), nil
		},
	},
	"run": {
		description: "Start a job from a container image (requires image; optional command_line, flavor)",
		run: func(ctx context.Context, client *Client, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			image, err := req.RequireString("image")
			if err != nil {
				return mcp.NewToolResultError("command 'run' requires 'image'"), nil
			}
			payload := map[string]interface{}{
				"dockerImage": image,
			}
			if commandLine := req.GetString("command_line", ""); commandLine != "" {
				payload["command"] = strings.Fields(commandLine)
			}
			if flavor := req.GetString("flavor", ""); flavor != "" {
				payload["flavor"] = flavor
			}
			data, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("encoding job payload: %w", err)
			}
			body, err := client.Post(ctx, "/api/jobs", bytes.NewReader(data))
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("starting job failed: %v", err)), nil
			}
			return mcp.NewToolResultText(string(body)), nil
		},
	},
	"cancel": {
		description: "Cancel a running job (requires job_id)",
		run: func(ctx context.Context, client *Client, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			jobID, err := req.RequireString("job_id")
			if err != nil {
				return mcp.NewToolResultError("command 'cancel' requires 'job_id'"), nil
			}
			body, err := client.Delete(ctx, "/api/jobs/"+jobID)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("cancelling job failed: %v", err)), nil
			}
			return mcp.NewToolResultText(string(body)), nil
		},
	},
}

// jobCommandNames returns the table keys in stable order for the tool help.
func jobCommandNames() []string {
	names := make([]string, 0, len(jobCommands))
	for name := range jobCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func jobsDescription() string {
	var b strings.Builder
	b.WriteString("Manage Hugging Face compute jobs. Commands:\n")
	for _, name := range jobCommandNames() {
		fmt.Fprintf(&b, "  %s - %s\n", name, jobCommands[name].description)
	}
	return b.String()
}

func newJobsTool(client *Client) server.ServerTool {
	return server.ServerTool{
		Tool: mcp.NewTool(ToolJobs,
			mcp.WithDescription(jobsDescription()),
			mcp.WithString("command", mcp.Required(),
				mcp.Description("Subcommand: "+strings.Join(jobCommandNames(), ", "))),
			mcp.WithString("job_id", mcp.Description("Job identifier for inspect/logs/cancel")),
			mcp.WithString("image", mcp.Description("Container image for run")),
			mcp.WithString("command_line", mcp.Description("Command line for run")),
			mcp.WithString("flavor", mcp.Description("Hardware flavor for run, e.g. cpu-basic, a10g-small")),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			name, err := req.RequireString("command")
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("missing or invalid 'command': %v", err)), nil
			}
			cmd, ok := jobCommands[name]
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf(
					"unknown command %q, expected one of: %s", name, strings.Join(jobCommandNames(), ", "))), nil
			}
			return cmd.run(ctx, client, req)
		},
	}
}
