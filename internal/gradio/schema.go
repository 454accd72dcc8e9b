package gradio

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
)

// ErrNoTools marks an endpoint whose schema parsed but described zero
// usable tools. Zero tools counts as a connection failure.
var ErrNoTools = errors.New("no tools found in endpoint schema")

// RemoteTool is one tool description as introspected from an endpoint.
// InputSchema is nil when the entry carried no parseable schema; the
// descriptor still gets built, with an unconstrained validator.
type RemoteTool struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// ParseSchema decodes an endpoint's schema document. Two wire shapes are
// accepted: an array of {name, description, inputSchema} records, or an
// object keyed by tool name. Any other shape, or zero valid entries, fails
// the endpoint.
func ParseSchema(data []byte) ([]RemoteTool, error) {
	var records []struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		InputSchema json.RawMessage `json:"inputSchema"`
	}
	if err := json.Unmarshal(data, &records); err == nil {
		tools := make([]RemoteTool, 0, len(records))
		for _, r := range records {
			if r.Name == "" {
				continue
			}
			tools = append(tools, RemoteTool{
				Name:        r.Name,
				Description: r.Description,
				InputSchema: decodeObject(r.InputSchema),
			})
		}
		if len(tools) == 0 {
			return nil, ErrNoTools
		}
		return tools, nil
	}

	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(data, &keyed); err != nil {
		return nil, fmt.Errorf("unrecognized schema shape: %w", err)
	}

	names := make([]string, 0, len(keyed))
	for name := range keyed {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	tools := make([]RemoteTool, 0, len(names))
	for _, name := range names {
		schema := decodeObject(keyed[name])
		tool := RemoteTool{Name: name, InputSchema: schema}
		if schema != nil {
			if desc, ok := schema["description"].(string); ok {
				tool.Description = desc
			}
		}
		tools = append(tools, tool)
	}
	if len(tools) == 0 {
		return nil, ErrNoTools
	}
	return tools, nil
}

func decodeObject(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return obj
}

const fileInputHint = "Accepts a URL, absolute file path, or data URI referencing the file. "

// ConvertInputSchema translates a remote JSON-Schema fragment into the
// local validator shape. The translation is total: malformed or unknown
// constructs degrade to unconstrained, never to an error.
//
// Rules: a string with a "file" format hint gets a descriptive override; a
// primitive default makes the field optional-with-default unless defaults
// are suppressed; an object default shaped like a file descriptor becomes a
// structured sub-schema; unknown or absent types stay unconstrained.
func ConvertInputSchema(raw map[string]any, suppressDefaults bool) mcp.ToolInputSchema {
	out := mcp.ToolInputSchema{Type: "object"}

	props, ok := raw["properties"].(map[string]any)
	if !ok || len(props) == 0 {
		return out
	}

	required := requiredSet(raw)
	out.Properties = make(map[string]any, len(props))

	for name, v := range props {
		prop, ok := v.(map[string]any)
		if !ok {
			out.Properties[name] = map[string]any{}
			continue
		}
		converted, hasDefault := convertProperty(prop, suppressDefaults)
		out.Properties[name] = converted
		if hasDefault {
			delete(required, name)
		}
	}

	if len(required) > 0 {
		names := make([]string, 0, len(required))
		for name := range required {
			names = append(names, name)
		}
		sort.Strings(names)
		out.Required = names
	}
	return out
}

func requiredSet(raw map[string]any) map[string]bool {
	set := make(map[string]bool)
	entries, ok := raw["required"].([]any)
	if !ok {
		return set
	}
	for _, e := range entries {
		if name, ok := e.(string); ok {
			set[name] = true
		}
	}
	return set
}

// convertProperty maps one property schema. The second return reports
// whether a default was applied, which makes the field optional.
func convertProperty(prop map[string]any, suppressDefaults bool) (map[string]any, bool) {
	out := map[string]any{}
	typ, _ := prop["type"].(string)
	desc, _ := prop["description"].(string)

	switch typ {
	case "string":
		out["type"] = "string"
		if format, _ := prop["format"].(string); format == "file" || format == "filepath" {
			desc = fileInputHint + desc
		}
	case "number", "integer", "boolean":
		out["type"] = typ
	case "array":
		out["type"] = "array"
		if items, ok := prop["items"]; ok {
			out["items"] = items
		}
	case "object":
		out["type"] = "object"
		if nested, ok := prop["properties"]; ok {
			out["properties"] = nested
		}
	default:
		// Unknown or absent type: unconstrained.
	}

	if desc != "" {
		out["description"] = desc
	}

	if def, ok := prop["default"]; ok && !suppressDefaults {
		switch d := def.(type) {
		case string, bool, float64:
			out["default"] = d
			return out, true
		case map[string]any:
			if isFileDescriptor(d) {
				out["type"] = "object"
				out["properties"] = fileDescriptorProperties()
				if desc != "" {
					out["description"] = desc
				}
				return out, true
			}
		}
	}

	return out, false
}

// isFileDescriptor recognizes the object shape Gradio uses to describe
// file-valued defaults.
func isFileDescriptor(obj map[string]any) bool {
	_, hasPath := obj["path"]
	_, hasURL := obj["url"]
	_, hasMeta := obj["meta"]
	return hasPath || hasURL || hasMeta
}

func fileDescriptorProperties() map[string]any {
	return map[string]any{
		"path": map[string]any{
			"type":        "string",
			"description": "File path or identifier on the remote host",
		},
		"url": map[string]any{
			"type":        "string",
			"description": "Publicly reachable URL for the file",
		},
	}
}
