package instagram

import (
	"encoding/json"
	"sort"

	"github.com/sajibhub/instagram-downloader/internal/domain"
)

// knownPaths are the key paths where Instagram has been observed to put
// the post object, in priority order. The shape is not versioned and
// drifts between deployments.
var knownPaths = [][]string{
	{"data", "xdt_shortcode_media"},
	{"data", "shortcode_media"},
	{"data", "media"},
	{"data", "graphql", "shortcode_media"},
	{"graphql", "shortcode_media"},
}

// knownTypenames are the __typename values that identify a post object
// when it turns up somewhere unexpected in the payload.
var knownTypenames = map[string]bool{
	"GraphSidecar":    true,
	"GraphVideo":      true,
	"GraphImage":      true,
	"XDTGraphSidecar": true,
	"XDTGraphVideo":   true,
	"XDTGraphImage":   true,
}

// maxSearchDepth bounds the recursive fallback search over the payload.
const maxSearchDepth = 5

// extractPostNode locates the canonical post object inside a raw GraphQL
// response. It probes the known key paths first, then falls back to a
// bounded depth-first search for any object with a recognized
// __typename. Returns domain.ErrUnsupportedResponseShape when neither
// strategy finds one.
func extractPostNode(payload []byte) (*postNode, error) {
	for _, path := range knownPaths {
		raw, ok := lookupPath(payload, path)
		if !ok {
			continue
		}
		return decodePostNode(raw)
	}

	if raw, ok := searchByTypename(payload, 0); ok {
		return decodePostNode(raw)
	}

	return nil, domain.ErrUnsupportedResponseShape
}

func decodePostNode(raw json.RawMessage) (*postNode, error) {
	var node postNode
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, domain.ErrUnsupportedResponseShape
	}
	return &node, nil
}

// lookupPath walks a key path through nested JSON objects. The final
// value must itself be a non-empty object to count as a match.
func lookupPath(raw []byte, path []string) (json.RawMessage, bool) {
	cur := json.RawMessage(raw)
	for _, key := range path {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(cur, &obj); err != nil {
			return nil, false
		}
		next, ok := obj[key]
		if !ok {
			return nil, false
		}
		cur = next
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(cur, &obj); err != nil || len(obj) == 0 {
		return nil, false
	}
	return cur, true
}

// searchByTypename walks the payload depth-first, visiting object keys
// in sorted order so traversal is deterministic, and returns the first
// object whose __typename is a known post type.
func searchByTypename(raw json.RawMessage, depth int) (json.RawMessage, bool) {
	if depth > maxSearchDepth {
		return nil, false
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		if tn, ok := obj["__typename"]; ok {
			var name string
			if json.Unmarshal(tn, &name) == nil && knownTypenames[name] {
				return raw, true
			}
		}

		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if found, ok := searchByTypename(obj[k], depth+1); ok {
				return found, true
			}
		}
		return nil, false
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		for _, el := range arr {
			if found, ok := searchByTypename(el, depth+1); ok {
				return found, true
			}
		}
	}

	return nil, false
}
