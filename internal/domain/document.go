package domain

// Meta describes the last accepted write of a document.
type Meta struct {
	// UpdatedAt is a millisecond epoch set by the store on acceptance.
	UpdatedAt int64 `json:"updatedAt"`
	// DeviceID identifies the writer.
	DeviceID string `json:"deviceId"`
	// Version increases by exactly one per accepted write.
	Version int64 `json:"version" validate:"gte=0"`
}

// Document is the whole synchronized dashboard payload.
type Document struct {
	Links        []Link        `json:"links" validate:"dive"`
	Categories   []Category    `json:"categories" validate:"dive"`
	SearchConfig *SearchConfig `json:"searchConfig,omitempty"`
	AIConfig     *AIConfig     `json:"aiConfig,omitempty"`
	SiteSettings *SiteSettings `json:"siteSettings,omitempty"`
	Meta         Meta          `json:"meta"`
}

// NewDocument returns an empty dashboard with the default categories.
func NewDocument() Document {
	return Document{
		Links:      []Link{},
		Categories: DefaultCategories(),
	}
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (d Document) Clone() Document {
	out := d
	out.Links = make([]Link, len(d.Links))
	for i, l := range d.Links {
		if l.Order != nil {
			l.Order = Int64Ptr(*l.Order)
		}
		if l.PinnedOrder != nil {
			l.PinnedOrder = Int64Ptr(*l.PinnedOrder)
		}
		out.Links[i] = l
	}
	out.Categories = append([]Category(nil), d.Categories...)
	if out.Categories == nil {
		out.Categories = []Category{}
	}
	if d.SearchConfig != nil {
		sc := *d.SearchConfig
		sc.ExternalSources = append([]SearchSource(nil), d.SearchConfig.ExternalSources...)
		if d.SearchConfig.SelectedSource != nil {
			sel := *d.SearchConfig.SelectedSource
			sc.SelectedSource = &sel
		}
		out.SearchConfig = &sc
	}
	if d.AIConfig != nil {
		ai := *d.AIConfig
		out.AIConfig = &ai
	}
	if d.SiteSettings != nil {
		ss := *d.SiteSettings
		out.SiteSettings = &ss
	}
	return out
}

// FindLink returns the index of the link with id, or -1.
func (d *Document) FindLink(id string) int {
	for i := range d.Links {
		if d.Links[i].ID == id {
			return i
		}
	}
	return -1
}

// FindCategory returns the index of the category with id, or -1.
func (d *Document) FindCategory(id string) int {
	for i := range d.Categories {
		if d.Categories[i].ID == id {
			return i
		}
	}
	return -1
}

// BackupInfo describes one snapshot in a backup listing.
type BackupInfo struct {
	Key string `json:"key"`
	// Timestamp is the label derived from the key.
	Timestamp string `json:"timestamp"`
	// Expiration is a unix timestamp in seconds, absent when the key never expires.
	Expiration *int64 `json:"expiration,omitempty"`
	DeviceID   string `json:"deviceId,omitempty"`
	UpdatedAt  int64  `json:"updatedAt,omitempty"`
	Version    int64  `json:"version,omitempty"`
}
