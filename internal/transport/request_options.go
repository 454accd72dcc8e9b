package transport

import (
	"net/http"
	"strings"

	"github.com/evalstate/hf-mcp-server-sub001/internal/server"
)

// queryParamGradio names request-supplied Gradio endpoints on the HTTP
// transports. The parameter may repeat and each value may carry several
// comma-separated ids; the literal value "off" disables remote
// augmentation for the request instead.
const queryParamGradio = "gradio"

// gradioRequestOptions reads the request-level augmentation controls from
// the URL. The stdio transport carries no per-request parameters and
// always runs under the default policy.
func gradioRequestOptions(r *http.Request) ([]string, server.Augment) {
	var ids []string
	for _, v := range r.URL.Query()[queryParamGradio] {
		for _, id := range strings.Split(v, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if strings.EqualFold(id, "off") {
				return nil, server.AugmentDisabledByRequest
			}
			ids = append(ids, id)
		}
	}
	return ids, server.AugmentUnlessBouquet
}
