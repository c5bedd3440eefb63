// Package ordering holds the pure ranking rules of the dashboard: how links
// are appended, dragged, pinned and displayed. Nothing here performs I/O.
package ordering

import (
	"cmp"
	"slices"
	"strings"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
)

// compareOrder ranks by Order, falling back to CreatedAt.
func compareOrder(a, b domain.Link) int {
	return cmp.Compare(a.SortKey(), b.SortKey())
}

// comparePinned ranks pinned links: PinnedOrder ascending, links carrying a
// PinnedOrder before links without one, then CreatedAt ascending.
func comparePinned(a, b domain.Link) int {
	switch {
	case a.PinnedOrder != nil && b.PinnedOrder != nil:
		return cmp.Compare(*a.PinnedOrder, *b.PinnedOrder)
	case a.PinnedOrder != nil:
		return -1
	case b.PinnedOrder != nil:
		return 1
	default:
		return cmp.Compare(a.CreatedAt, b.CreatedAt)
	}
}

// compareDisplay is the canonical rule for the whole collection.
func compareDisplay(a, b domain.Link) int {
	if a.Pinned != b.Pinned {
		if a.Pinned {
			return -1
		}
		return 1
	}
	if a.Pinned {
		return comparePinned(a, b)
	}
	return compareOrder(a, b)
}

// OrderLess reports whether a sorts before b in a category view.
func OrderLess(a, b domain.Link) bool { return compareOrder(a, b) < 0 }

// PinnedLess reports whether a sorts before b in the pinned view.
func PinnedLess(a, b domain.Link) bool { return comparePinned(a, b) < 0 }

// SortForDisplay sorts links in place: pinned first by pinned rank, then the
// rest by order. Ties keep their relative position.
func SortForDisplay(links []domain.Link) {
	slices.SortStableFunc(links, compareDisplay)
}

// CategoryView returns the links shown for a category, sorted by order.
// domain.AllCategoriesID selects every link.
func CategoryView(links []domain.Link, categoryID string) []domain.Link {
	out := make([]domain.Link, 0, len(links))
	for _, l := range links {
		if categoryID == domain.AllCategoriesID || l.CategoryID == categoryID {
			out = append(out, l)
		}
	}
	slices.SortStableFunc(out, compareOrder)
	return out
}

// PinnedView returns the pinned links in pinned order.
func PinnedView(links []domain.Link) []domain.Link {
	out := make([]domain.Link, 0)
	for _, l := range links {
		if l.Pinned {
			out = append(out, l)
		}
	}
	slices.SortStableFunc(out, comparePinned)
	return out
}

// SearchView returns links whose title, url or description contain query,
// case-insensitively, in display order. An empty query matches nothing.
func SearchView(links []domain.Link, query string) []domain.Link {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]domain.Link, 0)
	if q == "" {
		return out
	}
	for _, l := range links {
		if strings.Contains(strings.ToLower(l.Title), q) ||
			strings.Contains(strings.ToLower(l.URL), q) ||
			strings.Contains(strings.ToLower(l.Description), q) {
			out = append(out, l)
		}
	}
	slices.SortStableFunc(out, compareDisplay)
	return out
}

// VisibleLinks drops links that belong to locked categories.
func VisibleLinks(links []domain.Link, categories []domain.Category, unlocked map[string]bool) []domain.Link {
	locked := make(map[string]bool)
	for _, c := range categories {
		if c.Locked(unlocked) {
			locked[c.ID] = true
		}
	}
	out := make([]domain.Link, 0, len(links))
	for _, l := range links {
		if !locked[l.CategoryID] {
			out = append(out, l)
		}
	}
	return out
}

// arrayMove returns a copy of s with the element at from moved to to.
func arrayMove[T any](s []T, from, to int) []T {
	out := make([]T, 0, len(s))
	out = append(out, s[:from]...)
	out = append(out, s[from+1:]...)
	moved := s[from]
	out = slices.Insert(out, to, moved)
	return out
}
