package tagmatch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rentabot/rentabot/internal/catalog"
	"github.com/rentabot/rentabot/internal/tagmatch"
)

func TestParse(t *testing.T) {
	assert.Equal(t, map[string]struct{}{"gpu": {}, "fast": {}}, tagmatch.Parse(" gpu , fast "))
	assert.Empty(t, tagmatch.Parse(""))
	assert.Empty(t, tagmatch.Parse("  ,  "))
}

func TestMatchSortedByID(t *testing.T) {
	resources := []catalog.Resource{
		{ID: 3, Tags: map[string]struct{}{"gpu": {}}},
		{ID: 1, Tags: map[string]struct{}{"gpu": {}, "fast": {}}},
		{ID: 2, Tags: map[string]struct{}{"cpu": {}}},
	}
	matched := tagmatch.Match(map[string]struct{}{"gpu": {}}, resources)
	require := []int{1, 3}
	got := []int{matched[0].ID, matched[1].ID}
	assert.Equal(t, require, got)
}
