package homepage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
)

// ErrNothingToImport is returned when a file holds no usable entry.
var ErrNothingToImport = errors.New("no valid entries found in homepage config")

// Result is a batch ready for ordering.Merge. Links keep file order.
type Result struct {
	Categories []domain.Category
	Links      []domain.Link
}

// Mapper converts Homepage groups into categories and links
type Mapper struct {
	now func() time.Time
}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{now: time.Now}
}

// MapServices converts a services.yaml tree. Each group becomes a category.
func (m *Mapper) MapServices(config ServicesConfig) (Result, error) {
	var res Result
	created := m.now().UnixMilli()

	for _, groupMap := range config {
		for _, groupName := range sortedKeys(groupMap) {
			catID := res.addCategory(groupName)

			for _, serviceMap := range groupMap[groupName] {
				for _, serviceName := range sortedKeys(serviceMap) {
					props := serviceMap[serviceName]
					if !validHref(props.Href) {
						continue
					}
					res.Links = append(res.Links, domain.Link{
						ID:          linkID(props.Href),
						CreatedAt:   created,
						Title:       serviceName,
						URL:         props.Href,
						Description: props.Description,
						Icon:        props.Icon,
						CategoryID:  catID,
					})
				}
			}
		}
	}

	return res.finish()
}

// MapBookmarks converts a bookmarks.yaml tree. The bookmark name is the
// title, abbr is used when the name is empty.
func (m *Mapper) MapBookmarks(config BookmarksConfig) (Result, error) {
	var res Result
	created := m.now().UnixMilli()

	for _, group := range config {
		for _, groupName := range sortedKeys(group) {
			catID := res.addCategory(groupName)

			for _, bookmarkMap := range group[groupName] {
				for _, bookmarkName := range sortedKeys(bookmarkMap) {
					entryList := bookmarkMap[bookmarkName]
					// Each bookmark has a list with a single entry
					if len(entryList) == 0 {
						continue
					}
					entry := entryList[0]
					if !validHref(entry.Href) {
						continue
					}

					title := strings.TrimSpace(bookmarkName)
					if title == "" {
						title = entry.Abbr
					}

					res.Links = append(res.Links, domain.Link{
						ID:          linkID(entry.Href),
						CreatedAt:   created,
						Title:       title,
						URL:         entry.Href,
						Description: entry.Description,
						Icon:        entry.Icon,
						CategoryID:  catID,
					})
				}
			}
		}
	}

	return res.finish()
}

func (r *Result) addCategory(name string) string {
	id := CategoryID(name)
	for _, c := range r.Categories {
		if c.ID == id {
			return id
		}
	}
	r.Categories = append(r.Categories, domain.Category{ID: id, Name: name, Icon: "Folder"})
	return id
}

func (r *Result) finish() (Result, error) {
	if len(r.Links) == 0 {
		return Result{}, ErrNothingToImport
	}
	return *r, nil
}

// CategoryID derives a stable id from a group name: a lowercase slug, or a
// hash prefix when the name has no ASCII letters or digits.
// Example: "Media Center" -> "media-center"
func CategoryID(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		sum := sha256.Sum256([]byte(name))
		return "group-" + hex.EncodeToString(sum[:])[:8]
	}
	return slug
}

// linkID creates a stable ID from a URL using SHA-256 hash
// This ensures that re-importing the same file yields the same ids
func linkID(href string) string {
	hash := sha256.Sum256([]byte(href))
	return hex.EncodeToString(hash[:])[:16]
}

func validHref(href string) bool {
	if href == "" {
		return false
	}
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
