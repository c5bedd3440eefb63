package ordering

import (
	"fmt"
	"time"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
)

// UpsertCategory adds a category or updates the name, icon and password of an
// existing one. It returns true when a new category was added.
func UpsertCategory(doc *domain.Document, c domain.Category) (bool, error) {
	if c.ID == "" || c.Name == "" {
		return false, &domain.ValidationError{Problems: []string{"category id and name are required"}}
	}
	if i := doc.FindCategory(c.ID); i >= 0 {
		doc.Categories[i] = c
		return false, nil
	}
	doc.Categories = append(doc.Categories, c)
	return true, nil
}

// DeleteCategory removes a category and hands its links to the fallback
// category in the same document update. Only their categoryId changes.
// It returns how many links moved.
func DeleteCategory(doc *domain.Document, id string) (int, error) {
	if id == domain.FallbackCategoryID {
		return 0, domain.ErrFallbackCategory
	}
	i := doc.FindCategory(id)
	if i < 0 {
		return 0, fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
	}
	doc.Categories = append(doc.Categories[:i], doc.Categories[i+1:]...)
	moved := 0
	for j := range doc.Links {
		if doc.Links[j].CategoryID == id {
			doc.Links[j].CategoryID = domain.FallbackCategoryID
			moved++
		}
	}
	EnsureFallback(doc)
	SortForDisplay(doc.Links)
	return moved, nil
}

// EnsureFallback makes the fallback category exist and sit first, and moves
// links pointing at unknown categories into it. It reports whether doc changed.
func EnsureFallback(doc *domain.Document) bool {
	changed := false

	switch i := doc.FindCategory(domain.FallbackCategoryID); {
	case i < 0:
		doc.Categories = append([]domain.Category{domain.FallbackCategory()}, doc.Categories...)
		changed = true
	case i > 0:
		common := doc.Categories[i]
		rest := append([]domain.Category{}, doc.Categories[:i]...)
		rest = append(rest, doc.Categories[i+1:]...)
		doc.Categories = append([]domain.Category{common}, rest...)
		changed = true
	}

	known := make(map[string]bool, len(doc.Categories))
	for _, c := range doc.Categories {
		known[c.ID] = true
	}
	for i := range doc.Links {
		if !known[doc.Links[i].CategoryID] {
			doc.Links[i].CategoryID = domain.FallbackCategoryID
			changed = true
		}
	}
	if doc.Links == nil {
		doc.Links = []domain.Link{}
	}
	return changed
}

// MergeResult reports what a bulk import added.
type MergeResult struct {
	CategoriesAdded int
	LinksAdded      int
}

// Merge imports links and categories into doc. Categories whose id or name
// already exists are not duplicated; imported links follow them to the
// existing category. Every link is appended with a fresh rank.
func Merge(doc *domain.Document, links []domain.Link, categories []domain.Category, now time.Time, newID IDFunc) (MergeResult, error) {
	var res MergeResult
	EnsureFallback(doc)

	remap := make(map[string]string, len(categories))
	for _, nc := range categories {
		if nc.ID == "" || nc.Name == "" {
			continue
		}
		target := ""
		for _, c := range doc.Categories {
			if c.ID == nc.ID || c.Name == nc.Name {
				target = c.ID
				break
			}
		}
		if target == "" {
			doc.Categories = append(doc.Categories, nc)
			target = nc.ID
			res.CategoriesAdded++
		}
		remap[nc.ID] = target
	}

	for _, l := range links {
		if mapped, ok := remap[l.CategoryID]; ok {
			l.CategoryID = mapped
		}
		if _, err := AppendLink(doc, l, now, newID); err != nil {
			return res, fmt.Errorf("import %q: %w", l.Title, err)
		}
		res.LinksAdded++
	}

	EnsureFallback(doc)
	SortForDisplay(doc.Links)
	return res, nil
}
