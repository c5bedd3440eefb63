package localcache

import (
	"context"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
)

// Config blobs live under their own keys, outside the versioned document
// exchange. Saves are validated, loads are not.

func (c *Cache) LoadSearchConfig(ctx context.Context) (domain.SearchConfig, bool, error) {
	return load[domain.SearchConfig](ctx, c, KeySearchConfig)
}

func (c *Cache) SaveSearchConfig(ctx context.Context, cfg domain.SearchConfig) error {
	if err := domain.ValidateStruct(cfg); err != nil {
		return err
	}
	return c.save(ctx, KeySearchConfig, cfg)
}

func (c *Cache) LoadAIConfig(ctx context.Context) (domain.AIConfig, bool, error) {
	return load[domain.AIConfig](ctx, c, KeyAIConfig)
}

func (c *Cache) SaveAIConfig(ctx context.Context, cfg domain.AIConfig) error {
	if err := domain.ValidateStruct(cfg); err != nil {
		return err
	}
	return c.save(ctx, KeyAIConfig, cfg)
}

func (c *Cache) LoadSiteSettings(ctx context.Context) (domain.SiteSettings, bool, error) {
	return load[domain.SiteSettings](ctx, c, KeySiteSettings)
}

func (c *Cache) SaveSiteSettings(ctx context.Context, s domain.SiteSettings) error {
	if err := domain.ValidateStruct(s); err != nil {
		return err
	}
	return c.save(ctx, KeySiteSettings, s)
}

func (c *Cache) LoadWebDAVConfig(ctx context.Context) (domain.WebDAVConfig, bool, error) {
	return load[domain.WebDAVConfig](ctx, c, KeyWebDAVConfig)
}

func (c *Cache) SaveWebDAVConfig(ctx context.Context, cfg domain.WebDAVConfig) error {
	if err := domain.ValidateStruct(cfg); err != nil {
		return err
	}
	return c.save(ctx, KeyWebDAVConfig, cfg)
}
