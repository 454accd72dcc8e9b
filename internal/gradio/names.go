package gradio

import (
	"fmt"
	"strconv"
	"strings"
)

// Name generation budgets. The budget is what MCP clients tolerate for tool
// names; head/tail slices keep truncated names recognizable at both ends.
const (
	MaxToolNameLength  = 64
	overflowHeadLength = 30
	overflowTailLength = 16
	overflowMarker     = "___"
)

// ProxyToolName derives the local name for a remote tool. It is a pure
// function of its inputs: the same (raw, endpointOrdinal, private,
// toolOrdinal) always yields the same name, and the result never exceeds
// MaxToolNameLength.
//
// The prefix encodes the endpoint ordinal and visibility in one number so
// that tools from different endpoints, or from public and namespaced views
// of the same endpoint, can never collide. When the sanitized name
// overflows the budget, the within-endpoint tool ordinal is injected
// between fixed head and tail slices; two overflowing names sharing both
// slices still differ by ordinal.
func ProxyToolName(raw string, endpointOrdinal int, private bool, toolOrdinal int) string {
	prefix := endpointPrefix(endpointOrdinal, private)
	name := SanitizeToolName(raw)

	if len(prefix)+len(name) <= MaxToolNameLength {
		return prefix + name
	}

	head := name[:overflowHeadLength]
	tail := name[len(name)-overflowTailLength:]
	return prefix + head + overflowMarker + strconv.Itoa(toolOrdinal) + "_" + tail
}

func endpointPrefix(endpointOrdinal int, private bool) string {
	n := endpointOrdinal * 2
	if private {
		n++
	}
	return fmt.Sprintf("gr%d_", n)
}

// SanitizeToolName case-folds a raw remote tool name and maps every
// non-alphanumeric rune to an underscore.
func SanitizeToolName(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToLower(raw) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
