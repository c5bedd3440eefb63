package ordering

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
)

var (
	ErrLinkNotFound     = errors.New("link not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrIndexOutOfRange  = errors.New("index out of range")
)

// IDFunc generates identifiers for new links.
type IDFunc func() string

// LinkPatch lists the editable fields of a link. Nil fields are left alone.
type LinkPatch struct {
	Title       *string
	URL         *string
	Description *string
	Icon        *string
	CategoryID  *string
}

// nextOrder is one past the highest order among the non-pinned links of a
// category. Links without an order count as 0; an empty category yields 0.
func nextOrder(links []domain.Link, categoryID string) int64 {
	maxOrder := int64(-1)
	for _, l := range links {
		if l.Pinned || l.CategoryID != categoryID {
			continue
		}
		var o int64
		if l.Order != nil {
			o = *l.Order
		}
		if o > maxOrder {
			maxOrder = o
		}
	}
	return maxOrder + 1
}

func pinnedCount(links []domain.Link) int64 {
	var n int64
	for _, l := range links {
		if l.Pinned {
			n++
		}
	}
	return n
}

func resolveCategory(doc *domain.Document, id string) string {
	if id != "" && doc.FindCategory(id) >= 0 {
		return id
	}
	return domain.FallbackCategoryID
}

// AppendLink adds link to doc and returns the stored copy.
//
// A non-pinned link lands at the tail of its category. A pinned link lands at
// the tail of the pinned section and also receives a category order, so
// unpinning it later puts it at the end of its category.
func AppendLink(doc *domain.Document, link domain.Link, now time.Time, newID IDFunc) (domain.Link, error) {
	link.URL = domain.NormalizeURL(link.URL)
	if link.URL == "" {
		return domain.Link{}, &domain.ValidationError{Problems: []string{"url is required"}}
	}
	if link.Title == "" {
		link.Title = link.URL
	}
	if link.ID == "" || doc.FindLink(link.ID) >= 0 {
		link.ID = newID()
	}
	if link.CreatedAt == 0 {
		link.CreatedAt = now.UnixMilli()
	}
	link.CategoryID = resolveCategory(doc, link.CategoryID)
	link.Order = domain.Int64Ptr(nextOrder(doc.Links, link.CategoryID))
	link.PinnedOrder = nil

	if !link.Pinned {
		doc.Links = append(doc.Links, link)
		SortForDisplay(doc.Links)
		return link, nil
	}

	link.PinnedOrder = domain.Int64Ptr(pinnedCount(doc.Links))
	at := len(doc.Links)
	for i, l := range doc.Links {
		if !l.Pinned {
			at = i
			break
		}
	}
	doc.Links = slices.Insert(doc.Links, at, link)
	SortForDisplay(doc.Links)
	return link, nil
}

// EditLink applies patch to the link with id. A category change keeps the
// link's order and pin fields.
func EditLink(doc *domain.Document, id string, patch LinkPatch) error {
	i := doc.FindLink(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLinkNotFound, id)
	}
	l := &doc.Links[i]
	if patch.Title != nil {
		l.Title = *patch.Title
	}
	if patch.URL != nil {
		u := domain.NormalizeURL(*patch.URL)
		if u == "" {
			return &domain.ValidationError{Problems: []string{"url is required"}}
		}
		l.URL = u
	}
	if patch.Description != nil {
		l.Description = *patch.Description
	}
	if patch.Icon != nil {
		l.Icon = *patch.Icon
	}
	if patch.CategoryID != nil && *patch.CategoryID != l.CategoryID {
		if doc.FindCategory(*patch.CategoryID) < 0 {
			return fmt.Errorf("%w: %s", ErrCategoryNotFound, *patch.CategoryID)
		}
		l.CategoryID = *patch.CategoryID
	}
	SortForDisplay(doc.Links)
	return nil
}

// DeleteLinks removes every link whose id is listed and returns how many were removed.
func DeleteLinks(doc *domain.Document, ids ...string) int {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := doc.Links[:0]
	removed := 0
	for _, l := range doc.Links {
		if drop[l.ID] {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	doc.Links = kept
	return removed
}

// MoveInCategory drags the link at position from to position to inside the
// displayed view of a category. Only the order of links in that view changes.
func MoveInCategory(doc *domain.Document, categoryID string, from, to int) error {
	if categoryID != domain.AllCategoriesID && doc.FindCategory(categoryID) < 0 {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, categoryID)
	}
	view := CategoryView(doc.Links, categoryID)
	if from < 0 || from >= len(view) || to < 0 || to >= len(view) {
		return fmt.Errorf("%w: move %d -> %d in %d links", ErrIndexOutOfRange, from, to, len(view))
	}

	moved := arrayMove(view, from, to)
	rank := make(map[string]int64, len(moved))
	for i, l := range moved {
		rank[l.ID] = int64(i)
	}
	for i := range doc.Links {
		if r, ok := rank[doc.Links[i].ID]; ok {
			doc.Links[i].Order = domain.Int64Ptr(r)
		}
	}
	SortForDisplay(doc.Links)
	return nil
}

// MoveLink drags the link with id to position to inside a category view.
func MoveLink(doc *domain.Document, categoryID, id string, to int) error {
	view := CategoryView(doc.Links, categoryID)
	for i, l := range view {
		if l.ID == id {
			return MoveInCategory(doc, categoryID, i, to)
		}
	}
	return fmt.Errorf("%w: %s in %s", ErrLinkNotFound, id, categoryID)
}

// MovePinned drags inside the pinned view. Only pinnedOrder changes.
func MovePinned(doc *domain.Document, from, to int) error {
	view := PinnedView(doc.Links)
	if from < 0 || from >= len(view) || to < 0 || to >= len(view) {
		return fmt.Errorf("%w: move %d -> %d in %d pinned links", ErrIndexOutOfRange, from, to, len(view))
	}

	moved := arrayMove(view, from, to)
	rank := make(map[string]int64, len(moved))
	for i, l := range moved {
		rank[l.ID] = int64(i)
	}
	for i := range doc.Links {
		if r, ok := rank[doc.Links[i].ID]; ok {
			doc.Links[i].PinnedOrder = domain.Int64Ptr(r)
		}
	}
	SortForDisplay(doc.Links)
	return nil
}

// MovePinnedLink drags the pinned link with id to position to.
func MovePinnedLink(doc *domain.Document, id string, to int) error {
	for i, l := range PinnedView(doc.Links) {
		if l.ID == id {
			return MovePinned(doc, i, to)
		}
	}
	return fmt.Errorf("%w: %s is not pinned", ErrLinkNotFound, id)
}

// TogglePin flips the pinned flag of a link and returns the new state.
func TogglePin(doc *domain.Document, id string) (bool, error) {
	i := doc.FindLink(id)
	if i < 0 {
		return false, fmt.Errorf("%w: %s", ErrLinkNotFound, id)
	}
	pinned := !doc.Links[i].Pinned
	return pinned, SetPinned(doc, id, pinned)
}

// SetPinned pins a link at the end of the pinned section, or unpins it and
// clears its pinned rank. The category order is never touched.
func SetPinned(doc *domain.Document, id string, pinned bool) error {
	i := doc.FindLink(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLinkNotFound, id)
	}
	if doc.Links[i].Pinned == pinned {
		return nil
	}
	if pinned {
		doc.Links[i].PinnedOrder = domain.Int64Ptr(pinnedCount(doc.Links))
		doc.Links[i].Pinned = true
	} else {
		doc.Links[i].Pinned = false
		doc.Links[i].PinnedOrder = nil
	}
	SortForDisplay(doc.Links)
	return nil
}
