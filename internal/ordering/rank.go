package ordering

import (
	"cmp"
	"math"
	"net/url"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
)

// Relevance weights.
const (
	ScoreExactMatch     = 100.0
	ScorePrefixMatch    = 75.0
	ScoreSubstringMatch = 50.0
	ScoreFuzzyMatch     = 25.0

	// ScorePositionBonus favours fragments that come first (title words,
	// then the leftmost hostname labels).
	ScorePositionBonus = 10.0

	// ScoreExactTitleBonus lifts a link whose whole title is the query.
	ScoreExactTitleBonus = 200.0

	// minSimilarity is the share of query characters a fragment must
	// contain to count as a fuzzy match.
	minSimilarity = 0.5
)

// Match is a link with its relevance to a query.
type Match struct {
	Link  domain.Link
	Score float64
}

// Rank scores links against a free text query and returns the matching
// ones, best first. Equal scores keep display order.
func Rank(links []domain.Link, query string) []Match {
	words := queryWords(query)
	if len(words) == 0 {
		return []Match{}
	}
	whole := normalizeFragment(query)

	sorted := slices.Clone(links)
	SortForDisplay(sorted)

	out := make([]Match, 0, len(sorted))
	for _, l := range sorted {
		if s := scoreLink(l, whole, words); s > 0 {
			out = append(out, Match{Link: l, Score: s})
		}
	}
	slices.SortStableFunc(out, func(a, b Match) int { return cmp.Compare(b.Score, a.Score) })
	return out
}

// Best returns the most relevant link for query.
func Best(links []domain.Link, query string) (domain.Link, bool) {
	m := Rank(links, query)
	if len(m) == 0 {
		return domain.Link{}, false
	}
	return m[0].Link, true
}

// scoreLink requires every query word to hit some fragment; the score is
// the mean of the best hit per word.
func scoreLink(l domain.Link, whole string, words []string) float64 {
	if whole != "" && normalizeFragment(l.Title) == whole {
		return ScoreExactTitleBonus + ScoreExactMatch
	}

	frags := linkFragments(l)
	var total float64
	for _, w := range words {
		best := 0.0
		for i, f := range frags {
			best = math.Max(best, scoreFragment(w, f, i))
		}
		if best == 0 {
			return 0
		}
		total += best
	}
	return total / float64(len(words))
}

// linkFragments lists the title words followed by the hostname labels,
// "www" excluded.
func linkFragments(l domain.Link) []string {
	var frags []string
	for _, w := range strings.Fields(l.Title) {
		if f := normalizeFragment(w); f != "" {
			frags = append(frags, f)
		}
	}
	if u, err := url.Parse(l.URL); err == nil {
		for _, label := range strings.Split(strings.ToLower(u.Hostname()), ".") {
			if label != "" && label != "www" {
				frags = append(frags, normalizeFragment(label))
			}
		}
	}
	return frags
}

func scoreFragment(q, frag string, position int) float64 {
	if q == "" || frag == "" {
		return 0
	}
	switch {
	case q == frag:
		return ScoreExactMatch + positionBonus(position)
	case strings.HasPrefix(frag, q):
		return ScorePrefixMatch + positionBonus(position)
	case strings.Contains(frag, q):
		at := strings.Index(frag, q)
		return ScoreSubstringMatch + ScorePositionBonus*(1-float64(at)/float64(len(frag)))
	}
	if sim := similarity(q, frag); sim > minSimilarity {
		return ScoreFuzzyMatch * sim
	}
	return 0
}

func positionBonus(position int) float64 {
	return ScorePositionBonus * math.Exp(-float64(position)*0.3)
}

// similarity is the share of runes of q that occur in s.
func similarity(q, s string) float64 {
	n := utf8.RuneCountInString(q)
	if n == 0 || s == "" {
		return 0
	}
	hits := 0
	for _, r := range q {
		if strings.ContainsRune(s, r) {
			hits++
		}
	}
	return float64(hits) / float64(n)
}

func queryWords(query string) []string {
	var words []string
	for _, w := range strings.Fields(query) {
		if f := normalizeFragment(w); f != "" {
			words = append(words, f)
		}
	}
	return words
}

// normalizeFragment keeps lower-cased letters and digits only.
func normalizeFragment(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)
}
