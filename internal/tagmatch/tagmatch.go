// Package tagmatch implements the pure tag-containment rule used to pick
// resources for a lock-by-tags or reservation request (spec §4.3).
package tagmatch

import (
	"sort"
	"strings"

	"github.com/rentabot/rentabot/internal/catalog"
)

// Parse splits a comma-separated tag string into a set, trimming
// whitespace around each tag. An empty or blank input yields an empty set,
// which never matches any non-empty required set (spec §4.3).
func Parse(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tag := range strings.Split(raw, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		set[tag] = struct{}{}
	}
	return set
}

// Match returns the resources whose tags are a superset of required, in id
// order, for deterministic output (spec §4.3).
func Match(required map[string]struct{}, resources []catalog.Resource) []catalog.Resource {
	out := make([]catalog.Resource, 0, len(resources))
	for _, r := range resources {
		if r.HasTags(required) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
