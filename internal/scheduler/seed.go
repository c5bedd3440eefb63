package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
	"github.com/MrSnakeDoc/cloudnav/internal/logger"
	"github.com/MrSnakeDoc/cloudnav/internal/ordering"
	"github.com/MrSnakeDoc/cloudnav/internal/sources/homepage"
	"github.com/MrSnakeDoc/cloudnav/internal/store"
)

// SeedDeviceID marks documents written by the seeder.
const SeedDeviceID = "server_seed"

// Seeder fills an empty store from Homepage YAML files so a fresh server
// starts with the links of an existing Homepage install.
type Seeder struct {
	files  []string
	store  store.DocumentStore
	logger logger.Logger
	now    func() time.Time
}

// NewSeeder creates a seeder over the given services.yaml or bookmarks.yaml
// paths. Empty paths are ignored.
func NewSeeder(st store.DocumentStore, log logger.Logger, files ...string) *Seeder {
	var kept []string
	for _, f := range files {
		if f != "" {
			kept = append(kept, f)
		}
	}
	return &Seeder{files: kept, store: st, logger: log, now: time.Now}
}

// Seed writes the imported document when nothing is stored yet. It returns
// the number of links written, 0 when the store already had data.
func (s *Seeder) Seed(ctx context.Context) (int, error) {
	if len(s.files) == 0 {
		return 0, nil
	}

	existing, err := s.store.GetDocument(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read document: %w", err)
	}
	if existing != nil {
		s.logger.Debug("store already holds a document, seeding skipped",
			logger.Int64("version", existing.Meta.Version))
		return 0, nil
	}

	now := s.now()
	doc := domain.NewDocument()
	doc.Meta.DeviceID = SeedDeviceID

	for _, file := range s.files {
		res, err := homepage.ImportFile(file, "")
		if err != nil {
			return 0, fmt.Errorf("failed to import %s: %w", file, err)
		}
		merged, err := ordering.Merge(&doc, res.Links, res.Categories, now, uuid.NewString)
		if err != nil {
			return 0, fmt.Errorf("failed to merge %s: %w", file, err)
		}
		s.logger.Info("loaded homepage file",
			logger.String("file", file),
			logger.Int("links", merged.LinksAdded),
			logger.Int("categories", merged.CategoriesAdded))
	}
	ordering.EnsureFallback(&doc)

	if err := doc.Validate(); err != nil {
		return 0, err
	}

	// expected=0 loses against any client that wrote first
	saved, err := s.store.PutDocument(ctx, doc, domain.Int64Ptr(0))
	if err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			s.logger.Info("a client stored a document first, seeding skipped")
			return 0, nil
		}
		return 0, fmt.Errorf("failed to store seeded document: %w", err)
	}

	s.logger.Info("seeded document from homepage",
		logger.Int("links", len(saved.Links)),
		logger.Int("categories", len(saved.Categories)))
	return len(saved.Links), nil
}
