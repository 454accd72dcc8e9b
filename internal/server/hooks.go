package server

import (
	"context"

	"github.com/evalstate/hf-mcp-server-sub001/internal/gradio"
	"github.com/evalstate/hf-mcp-server-sub001/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Hook runs after a successful remote connection's tools are registered.
// It can layer extra tools onto the server for that endpoint.
type Hook func(s *server.MCPServer, conn gradio.Connection)

// HookTable maps endpoint identity ("owner/space") to a post-registration
// hook. Special-casing an endpoint means adding a table entry, not a
// branch in the composition path.
type HookTable map[string]Hook

// fluxEndpointID is the one endpoint that ships a companion tool by
// default: an image-generation space whose prompting conventions are
// non-obvious enough to warrant a static guide.
const fluxEndpointID = "evalstate/flux1_schnell"

// DefaultHooks returns the hook table the factory starts with.
func DefaultHooks() HookTable {
	return HookTable{
		fluxEndpointID: fluxPromptGuideHook,
	}
}

func (f *Factory) runHooks(s *server.MCPServer, conns []gradio.Connection) {
	for _, conn := range conns {
		if !conn.OK() {
			continue
		}
		hook, ok := f.hooks[conn.Endpoint.ID]
		if !ok {
			continue
		}
		logging.Debug("ServerFactory", "Running post-registration hook for %s", conn.Endpoint.ID)
		hook(s, conn)
	}
}

func fluxPromptGuideHook(s *server.MCPServer, conn gradio.Connection) {
	tool := mcp.NewTool("flux1_schnell_prompting_guide",
		mcp.WithDescription("Prompting guidance for the FLUX.1 Schnell image generation tools"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTools(server.ServerTool{
		Tool: tool,
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText(fluxPromptGuide), nil
		},
	})
}

const fluxPromptGuide = `FLUX.1 Schnell prompting guide:
- Describe the subject first, then style, lighting, and composition.
- Schnell is distilled for 1-4 inference steps; keep the steps argument low.
- Negative prompts are not supported; phrase what you want, not what to avoid.
- Use width/height multiples of 16. 1024x1024 is a good default.
- Seeds make results reproducible; omit the seed for variety.`
