// Package hubtools provides the locally implemented Hugging Face Hub tools:
// thin HTTP wrappers over the Hub REST API, registered per server instance
// with a request-scoped token.
package hubtools

// Tool ids known to the gateway. The selection policy, bouquet presets and
// the fallback mode all operate on these identifiers.
const (
	ToolWhoami        = "hf_whoami"
	ToolModelSearch   = "model_search"
	ToolModelDetail   = "model_detail"
	ToolDatasetSearch = "dataset_search"
	ToolDatasetDetail = "dataset_detail"
	ToolSpaceSearch   = "space_search"
	ToolPaperSearch   = "paper_search"
	ToolDocSearch     = "hf_doc_search"
	ToolDocFetch      = "hf_doc_fetch"
	ToolJobs          = "hf_jobs"
)

// AllToolIDs returns every tool id the gateway can serve locally. Order is
// stable; the fallback selection mode enables exactly this set.
func AllToolIDs() []string {
	return []string{
		ToolWhoami,
		ToolModelSearch,
		ToolModelDetail,
		ToolDatasetSearch,
		ToolDatasetDetail,
		ToolSpaceSearch,
		ToolPaperSearch,
		ToolDocSearch,
		ToolDocFetch,
		ToolJobs,
	}
}

// IsKnownToolID reports whether id names a local tool.
func IsKnownToolID(id string) bool {
	for _, known := range AllToolIDs() {
		if known == id {
			return true
		}
	}
	return false
}
