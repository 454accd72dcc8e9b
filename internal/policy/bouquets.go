package policy

import (
	"github.com/evalstate/hf-mcp-server-sub001/internal/hubtools"
)

// BouquetAll is the one bouquet that does not suppress remote augmentation.
const BouquetAll = "all"

// DefaultBouquets returns the server-defined presets. Recognized names are
// data; an unrecognized name simply fails the bouquet precedence branch.
func DefaultBouquets() map[string][]string {
	return map[string][]string{
		"search": {
			hubtools.ToolSpaceSearch,
			hubtools.ToolModelSearch,
			hubtools.ToolDatasetSearch,
			hubtools.ToolPaperSearch,
			hubtools.ToolDocSearch,
		},
		"docs": {
			hubtools.ToolDocSearch,
			hubtools.ToolDocFetch,
		},
		"hf_api": {
			hubtools.ToolWhoami,
			hubtools.ToolModelSearch,
			hubtools.ToolModelDetail,
			hubtools.ToolDatasetSearch,
			hubtools.ToolDatasetDetail,
			hubtools.ToolSpaceSearch,
			hubtools.ToolPaperSearch,
		},
		BouquetAll: hubtools.AllToolIDs(),
	}
}

// DefaultMixes returns the presets that union additively with a user's own
// enabled tools.
func DefaultMixes() map[string][]string {
	return map[string][]string{
		"hf_api": {
			hubtools.ToolWhoami,
			hubtools.ToolModelSearch,
			hubtools.ToolModelDetail,
			hubtools.ToolDatasetSearch,
			hubtools.ToolDatasetDetail,
			hubtools.ToolSpaceSearch,
			hubtools.ToolPaperSearch,
		},
	}
}

// DefaultRules returns the implied-tool rule table. One pair ships by
// default: doc search results reference pages that only doc fetch can
// retrieve, so enabling the former without the latter strands the caller.
func DefaultRules() []Rule {
	return []Rule{
		{Primary: hubtools.ToolDocSearch, Implied: hubtools.ToolDocFetch},
	}
}
