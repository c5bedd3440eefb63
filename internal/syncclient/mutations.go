package syncclient

import (
	"context"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
	"github.com/MrSnakeDoc/cloudnav/internal/ordering"
)

// AddLink appends link to its category and returns it with id and ranks set.
func (e *Engine) AddLink(ctx context.Context, link domain.Link) (domain.Link, error) {
	var added domain.Link
	err := e.Apply(ctx, func(doc *domain.Document) error {
		var err error
		added, err = ordering.AppendLink(doc, link, e.opts.Now(), e.opts.NewID)
		return err
	})
	return added, err
}

func (e *Engine) EditLink(ctx context.Context, id string, patch ordering.LinkPatch) error {
	return e.Apply(ctx, func(doc *domain.Document) error {
		return ordering.EditLink(doc, id, patch)
	})
}

// DeleteLinks removes the given links and reports how many existed.
func (e *Engine) DeleteLinks(ctx context.Context, ids ...string) (int, error) {
	var n int
	err := e.Apply(ctx, func(doc *domain.Document) error {
		n = ordering.DeleteLinks(doc, ids...)
		if n == 0 {
			return ordering.ErrLinkNotFound
		}
		return nil
	})
	return n, err
}

// MoveLink places link id at position to of its category view.
func (e *Engine) MoveLink(ctx context.Context, categoryID, id string, to int) error {
	return e.Apply(ctx, func(doc *domain.Document) error {
		return ordering.MoveLink(doc, categoryID, id, to)
	})
}

// MovePinned places link id at position to of the pinned section.
func (e *Engine) MovePinned(ctx context.Context, id string, to int) error {
	return e.Apply(ctx, func(doc *domain.Document) error {
		return ordering.MovePinnedLink(doc, id, to)
	})
}

// TogglePin flips the pinned flag and returns the new value.
func (e *Engine) TogglePin(ctx context.Context, id string) (bool, error) {
	var pinned bool
	err := e.Apply(ctx, func(doc *domain.Document) error {
		var err error
		pinned, err = ordering.TogglePin(doc, id)
		return err
	})
	return pinned, err
}

// UpsertCategory adds c or updates the category with the same id. It
// reports whether c was new.
func (e *Engine) UpsertCategory(ctx context.Context, c domain.Category) (bool, error) {
	var created bool
	err := e.Apply(ctx, func(doc *domain.Document) error {
		var err error
		created, err = ordering.UpsertCategory(doc, c)
		return err
	})
	return created, err
}

// DeleteCategory removes a category and returns how many links moved to
// the fallback category.
func (e *Engine) DeleteCategory(ctx context.Context, id string) (int, error) {
	var moved int
	err := e.Apply(ctx, func(doc *domain.Document) error {
		var err error
		moved, err = ordering.DeleteCategory(doc, id)
		return err
	})
	return moved, err
}

// Import merges links and categories from an external source.
func (e *Engine) Import(ctx context.Context, links []domain.Link, categories []domain.Category) (ordering.MergeResult, error) {
	var res ordering.MergeResult
	err := e.Apply(ctx, func(doc *domain.Document) error {
		var err error
		res, err = ordering.Merge(doc, links, categories, e.opts.Now(), e.opts.NewID)
		return err
	})
	return res, err
}

func (e *Engine) SetSearchConfig(ctx context.Context, cfg domain.SearchConfig) error {
	if err := e.cache.SaveSearchConfig(ctx, cfg); err != nil {
		return err
	}
	return e.Apply(ctx, func(doc *domain.Document) error {
		doc.SearchConfig = &cfg
		return nil
	})
}

func (e *Engine) SetAIConfig(ctx context.Context, cfg domain.AIConfig) error {
	if err := e.cache.SaveAIConfig(ctx, cfg); err != nil {
		return err
	}
	return e.Apply(ctx, func(doc *domain.Document) error {
		doc.AIConfig = &cfg
		return nil
	})
}

func (e *Engine) SetSiteSettings(ctx context.Context, s domain.SiteSettings) error {
	if err := e.cache.SaveSiteSettings(ctx, s); err != nil {
		return err
	}
	return e.Apply(ctx, func(doc *domain.Document) error {
		doc.SiteSettings = &s
		return nil
	})
}

// SetWebDAVConfig stores the WebDAV settings on this device only. They are
// never part of the synchronized document.
func (e *Engine) SetWebDAVConfig(ctx context.Context, cfg domain.WebDAVConfig) error {
	return e.cache.SaveWebDAVConfig(ctx, cfg)
}
