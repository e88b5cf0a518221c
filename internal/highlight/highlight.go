// Package highlight finds the document tokens a query matched.
package highlight

import (
	"sort"
	"strings"
)

// Extract returns the distinct document tokens whose lowercase form equals the lowercase
// form of some query token, sorted ascending. Matching is whole-token only.
func Extract(queryTokens, docTokens []string) []string {
	out := []string{}
	if len(queryTokens) == 0 || len(docTokens) == 0 {
		return out
	}
	wanted := make(map[string]struct{}, len(queryTokens))
	for _, t := range queryTokens {
		if t == "" {
			continue
		}
		wanted[strings.ToLower(t)] = struct{}{}
	}
	seen := make(map[string]struct{})
	for _, t := range docTokens {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		if _, ok := wanted[strings.ToLower(t)]; ok {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}
