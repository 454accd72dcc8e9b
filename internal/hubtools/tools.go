package hubtools

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ForIDs builds the tool descriptors for the enabled ids, each bound to the
// given client (and thereby to one request-scoped token). Unknown ids are
// skipped; the selection policy already filters against the known set.
func ForIDs(ids []string, client *Client) []server.ServerTool {
	builders := map[string]func(*Client) server.ServerTool{
		ToolWhoami:        newWhoamiTool,
		ToolModelSearch:   newModelSearchTool,
		ToolModelDetail:   newModelDetailTool,
		ToolDatasetSearch: newDatasetSearchTool,
		ToolDatasetDetail: newDatasetDetailTool,
		ToolSpaceSearch:   newSpaceSearchTool,
		ToolPaperSearch:   newPaperSearchTool,
		ToolDocSearch:     newDocSearchTool,
		ToolDocFetch:      newDocFetchTool,
		ToolJobs:          newJobsTool,
	}

	var tools []server.ServerTool
	for _, id := range ids {
		if build, ok := builders[id]; ok {
			tools = append(tools, build(client))
		}
	}
	return tools
}

func newWhoamiTool(client *Client) server.ServerTool {
	return server.ServerTool{
		Tool: mcp.NewTool(ToolWhoami,
			mcp.WithDescription("Identify the Hugging Face account the current token belongs to."),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			body, err := client.Get(ctx, "/api/whoami-v2", nil)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("whoami failed: %v", err)), nil
			}
			return mcp.NewToolResultText(string(body)), nil
		},
	}
}

func newModelSearchTool(client *Client) server.ServerTool {
	return server.ServerTool{
		Tool: mcp.NewTool(ToolModelSearch,
			mcp.WithDescription("Search models on the Hugging Face Hub."),
			mcp.WithString("query", mcp.Description("Free-text search terms")),
			mcp.WithString("author", mcp.Description("Filter by author or organization")),
			mcp.WithString("sort", mcp.Description("Sort field: downloads, likes, lastModified or trendingScore")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		Handler: repoSearchHandler(client, "/api/models"),
	}
}

func newDatasetSearchTool(client *Client) server.ServerTool {
	return server.ServerTool{
		Tool: mcp.NewTool(ToolDatasetSearch,
			mcp.WithDescription("Search datasets on the Hugging Face Hub."),
			mcp.WithString("query", mcp.Description("Free-text search terms")),
			mcp.WithString("author", mcp.Description("Filter by author or organization")),
			mcp.WithString("sort", mcp.Description("Sort field: downloads, likes, lastModified or trendingScore")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		Handler: repoSearchHandler(client, "/api/datasets"),
	}
}

func newSpaceSearchTool(client *Client) server.ServerTool {
	return server.ServerTool{
		Tool: mcp.NewTool(ToolSpaceSearch,
			mcp.WithDescription("Search Spaces on the Hugging Face Hub, including Gradio apps usable as tools."),
			mcp.WithString("query", mcp.Description("Free-text search terms")),
			mcp.WithString("author", mcp.Description("Filter by author or organization")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		Handler: repoSearchHandler(client, "/api/spaces"),
	}
}

// repoSearchHandler serves the three repo list endpoints, which share query
// parameter semantics.
func repoSearchHandler(client *Client, path string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := url.Values{}
		if q := req.GetString("query", ""); q != "" {
			query.Set("search", q)
		}
		if author := req.GetString("author", ""); author != "" {
			query.Set("author", author)
		}
		if sort := req.GetString("sort", ""); sort != "" {
			query.Set("sort", sort)
		}
		query.Set("limit", strconv.Itoa(req.GetInt("limit", 10)))

		body, err := client.Get(ctx, path, query)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}

func newModelDetailTool(client *Client) server.ServerTool {
	return server.ServerTool{
		Tool: mcp.NewTool(ToolModelDetail,
			mcp.WithDescription("Fetch detailed metadata for one model repository."),
			mcp.WithString("repo_id", mcp.Required(), mcp.Description("Model id, e.g. meta-llama/Llama-3.1-8B")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		Handler: repoDetailHandler(client, "/api/models/"),
	}
}

func newDatasetDetailTool(client *Client) server.ServerTool {
	return server.ServerTool{
		Tool: mcp.NewTool(ToolDatasetDetail,
			mcp.WithDescription("Fetch detailed metadata for one dataset repository."),
			mcp.WithString("repo_id", mcp.Required(), mcp.Description("Dataset id, e.g. HuggingFaceFW/fineweb")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		Handler: repoDetailHandler(client, "/api/datasets/"),
	}
}

func repoDetailHandler(client *Client, prefix string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		repoID, err := req.RequireString("repo_id")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("missing or invalid 'repo_id': %v", err)), nil
		}
		body, err := client.Get(ctx, prefix+repoID, nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("detail lookup failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}

func newPaperSearchTool(client *Client) server.ServerTool {
	return server.ServerTool{
		Tool: mcp.NewTool(ToolPaperSearch,
			mcp.WithDescription("Search machine learning papers indexed on the Hugging Face Hub."),
			mcp.WithString("query", mcp.Required(), mcp.Description("Search terms")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			q, err := req.RequireString("query")
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("missing or invalid 'query': %v", err)), nil
			}
			query := url.Values{}
			query.Set("q", q)
			body, err := client.Get(ctx, "/api/papers/search", query)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("paper search failed: %v", err)), nil
			}
			return mcp.NewToolResultText(string(body)), nil
		},
	}
}

func newDocSearchTool(client *Client) server.ServerTool {
	return server.ServerTool{
		Tool: mcp.NewTool(ToolDocSearch,
			mcp.WithDescription("Semantic search over the Hugging Face documentation."),
			mcp.WithString("query", mcp.Required(), mcp.Description("Search terms")),
			mcp.WithString("product", mcp.Description("Restrict to one product, e.g. transformers, diffusers, hub")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			q, err := req.RequireString("query")
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("missing or invalid 'query': %v", err)), nil
			}
			query := url.Values{}
			query.Set("q", q)
			if product := req.GetString("product", ""); product != "" {
				query.Set("product", product)
			}
			body, err := client.GetAbsolute(ctx, DefaultDocSearchURL, query)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("doc search failed: %v", err)), nil
			}
			return mcp.NewToolResultText(string(body)), nil
		},
	}
}

func newDocFetchTool(client *Client) server.ServerTool {
	return server.ServerTool{
		Tool: mcp.NewTool(ToolDocFetch,
			mcp.WithDescription("Fetch one Hugging Face documentation page as markdown."),
			mcp.WithString("doc_url", mcp.Required(), mcp.Description("Documentation page URL on huggingface.co")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			docURL, err := req.RequireString("doc_url")
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("missing or invalid 'doc_url': %v", err)), nil
			}
			if err := validateDocURL(docURL); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			body, err := client.GetAbsolute(ctx, docURL, nil)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("doc fetch failed: %v", err)), nil
			}
			return mcp.NewToolResultText(string(body)), nil
		},
	}
}

// validateDocURL restricts doc fetches to Hugging Face domains so the tool
// cannot be used as an open proxy.
func validateDocURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" {
		return fmt.Errorf("doc_url must be an https URL")
	}
	host := strings.ToLower(u.Hostname())
	if host != "huggingface.co" && host != "hf.co" && !strings.HasSuffix(host, ".huggingface.co") {
		return fmt.Errorf("doc_url must point at huggingface.co")
	}
	return nil
}
