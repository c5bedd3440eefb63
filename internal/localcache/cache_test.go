package localcache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
	"github.com/MrSnakeDoc/cloudnav/internal/logger"
)

func openTemp(t *testing.T) (*Cache, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	c, err := Open(path, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, path
}

func TestRawKeys(t *testing.T) {
	ctx := context.Background()
	c, _ := openTemp(t)

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "a", "1"))
	require.NoError(t, c.Set(ctx, "a", "2"))
	v, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", v)

	require.NoError(t, c.Set(ctx, "b", "x"))
	keys, err := c.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	require.NoError(t, c.Delete(ctx, "a"))
	require.NoError(t, c.Delete(ctx, "a"))
	_, ok, _ = c.Get(ctx, "a")
	assert.False(t, ok)
}

func TestDocumentSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	c, path := openTemp(t)

	doc := domain.NewDocument()
	doc.Links = []domain.Link{{ID: "l1", Title: "Go", URL: "https://go.dev", CategoryID: domain.FallbackCategoryID, Order: domain.Int64Ptr(0)}}
	doc.Meta = domain.Meta{Version: 4, DeviceID: "device_1_abcdefg", UpdatedAt: 99}
	require.NoError(t, c.SaveDocument(ctx, doc))
	require.NoError(t, c.Close())

	reopened, err := Open(path, logger.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	got, ok, err := reopened.LoadDocument(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, doc.Links, got.Links)
	assert.Equal(t, int64(4), got.Meta.Version)
}

func TestCorruptEntryIsMissing(t *testing.T) {
	ctx := context.Background()
	c, _ := openTemp(t)

	require.NoError(t, c.Set(ctx, KeyDocument, "{not json"))
	_, ok, err := c.LoadDocument(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, KeyLastSync, "yesterday"))
	_, ok, err = c.LastSync(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSyncMetaAndLastSync(t *testing.T) {
	ctx := context.Background()
	c, _ := openTemp(t)

	_, ok, err := c.LoadSyncMeta(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	meta := domain.Meta{Version: 7, UpdatedAt: 1_700_000_000_000, DeviceID: "device_1_abcdefg"}
	require.NoError(t, c.SaveSyncMeta(ctx, meta))
	got, ok, err := c.LoadSyncMeta(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, meta, got)

	at := time.UnixMilli(1_700_000_123_456)
	require.NoError(t, c.SetLastSync(ctx, at))
	last, ok, err := c.LastSync(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, at.Equal(last))
}

func TestAuthTokenAndDeviceID(t *testing.T) {
	ctx := context.Background()
	c, _ := openTemp(t)

	require.NoError(t, c.SetAuthToken(ctx, "s3cret"))
	require.NoError(t, c.SetDeviceID(ctx, "device_1_abcdefg"))

	tok, ok, err := c.AuthToken(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "s3cret", tok)

	require.NoError(t, c.ClearAuthToken(ctx))
	_, ok, _ = c.AuthToken(ctx)
	assert.False(t, ok)

	id, ok, _ := c.DeviceID(ctx)
	assert.True(t, ok, "device id survives a cleared token")
	assert.Equal(t, "device_1_abcdefg", id)
}

func TestConfigBlobs(t *testing.T) {
	ctx := context.Background()
	c, _ := openTemp(t)

	search := domain.DefaultSearchConfig(1)
	require.NoError(t, c.SaveSearchConfig(ctx, search))
	gotSearch, ok, err := c.LoadSearchConfig(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, search, gotSearch)

	require.NoError(t, c.SaveAIConfig(ctx, domain.DefaultAIConfig()))
	ai, ok, _ := c.LoadAIConfig(ctx)
	assert.True(t, ok)
	assert.Equal(t, "gemini", ai.Provider)

	require.NoError(t, c.SaveSiteSettings(ctx, domain.DefaultSiteSettings()))
	site, ok, _ := c.LoadSiteSettings(ctx)
	assert.True(t, ok)
	assert.Equal(t, 7, site.PasswordExpiryDays)

	require.NoError(t, c.SaveWebDAVConfig(ctx, domain.WebDAVConfig{URL: "https://dav.example.com", Username: "me"}))
	dav, ok, _ := c.LoadWebDAVConfig(ctx)
	assert.True(t, ok)
	assert.Equal(t, "me", dav.Username)
}

func TestConfigBlobsAreValidated(t *testing.T) {
	ctx := context.Background()
	c, _ := openTemp(t)

	err := c.SaveAIConfig(ctx, domain.AIConfig{Provider: "skynet"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = c.SaveSiteSettings(ctx, domain.SiteSettings{PasswordExpiryDays: -1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = c.SaveWebDAVConfig(ctx, domain.WebDAVConfig{URL: "not a url"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, ok, _ := c.LoadAIConfig(ctx)
	assert.False(t, ok, "rejected blobs are not written")
}
