package domain

import "strings"

const (
	// FallbackCategoryID is the category that can never be deleted.
	// Orphaned links are always reassigned to it.
	FallbackCategoryID = "common"

	// FallbackCategoryName is the display name of the fallback category.
	FallbackCategoryName = "常用推荐"

	// FallbackCategoryIcon is the icon of the fallback category.
	FallbackCategoryIcon = "Star"

	// AllCategoriesID is the pseudo category selecting every link.
	AllCategoriesID = "all"
)

// Link is one bookmark on the dashboard.
type Link struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is unique within a document.
	ID string `json:"id" validate:"required"`

	// CreatedAt is a millisecond epoch set once at creation.
	// It doubles as the fallback sort key when Order is absent.
	CreatedAt int64 `json:"createdAt"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	Title       string `json:"title"`
	URL         string `json:"url" validate:"required"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`

	// CategoryID references an existing Category.
	CategoryID string `json:"categoryId" validate:"required"`

	// ─────────────────────────────
	// Ordering
	// ─────────────────────────────

	// Order is the rank within the category view, ascending.
	Order *int64 `json:"order,omitempty"`

	// Pinned links are shown in the pinned section.
	Pinned bool `json:"pinned,omitempty"`

	// PinnedOrder is the rank within the pinned section, ascending.
	// Only meaningful while Pinned is true.
	PinnedOrder *int64 `json:"pinnedOrder,omitempty"`
}

// SortKey is Order when present, otherwise CreatedAt.
func (l Link) SortKey() int64 {
	if l.Order != nil {
		return *l.Order
	}
	return l.CreatedAt
}

// Category groups links. A category with a password is locked until unlocked.
type Category struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Icon     string `json:"icon"`
	Password string `json:"password,omitempty"`
}

// Locked reports whether the category hides its links given the set of unlocked ids.
func (c Category) Locked(unlocked map[string]bool) bool {
	return c.Password != "" && !unlocked[c.ID]
}

// FallbackCategory returns a fresh copy of the "common" category.
func FallbackCategory() Category {
	return Category{ID: FallbackCategoryID, Name: FallbackCategoryName, Icon: FallbackCategoryIcon}
}

// DefaultCategories is the category set of a brand new dashboard.
func DefaultCategories() []Category {
	return []Category{FallbackCategory()}
}

// NormalizeURL prefixes https:// when the value carries no http(s) scheme.
func NormalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return u
	}
	lower := strings.ToLower(u)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return u
	}
	return "https://" + u
}

// Int64Ptr is a small helper for the optional ranks.
func Int64Ptr(v int64) *int64 { return &v }
