package ordering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
)

func rankFixture() []domain.Link {
	return []domain.Link{
		{ID: "jf", Title: "Jellyfin", URL: "https://jellyfin.srv1.home.lan", Order: domain.Int64Ptr(0)},
		{ID: "gh", Title: "GitHub", URL: "https://github.com", Order: domain.Int64Ptr(1)},
		{ID: "gl", Title: "GitLab CE", URL: "https://gitlab.example.com", Order: domain.Int64Ptr(2)},
		{ID: "docs", Title: "Go docs", URL: "https://pkg.go.dev", Order: domain.Int64Ptr(3)},
		{ID: "wiki", Title: "Wikipedia", URL: "https://www.wikipedia.org", Order: domain.Int64Ptr(4)},
	}
}

func matchIDs(ms []Match) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Link.ID
	}
	return out
}

func TestRank_ExactTitleWins(t *testing.T) {
	got := Rank(rankFixture(), "github")
	require.NotEmpty(t, got)
	assert.Equal(t, "gh", got[0].Link.ID)
	assert.Equal(t, ScoreExactTitleBonus+ScoreExactMatch, got[0].Score)
}

func TestRank_PrefixBeatsSubstring(t *testing.T) {
	got := Rank(rankFixture(), "git")
	assert.Equal(t, []string{"gh", "gl"}, matchIDs(got)[:2])
	for _, m := range got[:2] {
		assert.Greater(t, m.Score, ScoreSubstringMatch)
	}
}

func TestRank_HostnameLabels(t *testing.T) {
	best, ok := Best(rankFixture(), "srv1")
	require.True(t, ok)
	assert.Equal(t, "jf", best.ID)

	assert.Equal(t, []string{"wikipedia", "wikipedia", "org"}, linkFragments(rankFixture()[4]))
}

func TestRank_EveryWordMustMatch(t *testing.T) {
	got := Rank(rankFixture(), "go docs")
	require.NotEmpty(t, got)
	assert.Equal(t, "docs", got[0].Link.ID)

	assert.Empty(t, Rank(rankFixture(), "go zzzzqqq"))
}

func TestRank_FuzzyAndEmpty(t *testing.T) {
	got := Rank(rankFixture(), "jelyfn")
	require.NotEmpty(t, got)
	assert.Equal(t, "jf", got[0].Link.ID)
	assert.Less(t, got[0].Score, ScoreSubstringMatch)

	assert.Empty(t, Rank(rankFixture(), "  "))
	assert.Empty(t, Rank(rankFixture(), "!!"))
}

func TestRank_TiesKeepDisplayOrder(t *testing.T) {
	links := []domain.Link{
		{ID: "b", Title: "Mirror", URL: "https://b.example", Order: domain.Int64Ptr(1)},
		{ID: "a", Title: "Mirror", URL: "https://a.example", Order: domain.Int64Ptr(0)},
		{ID: "p", Title: "Mirror", URL: "https://p.example", Pinned: true, PinnedOrder: domain.Int64Ptr(0)},
	}
	assert.Equal(t, []string{"p", "a", "b"}, matchIDs(Rank(links, "mirror")))
}
