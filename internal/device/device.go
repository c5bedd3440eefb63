// Package device provides the stable per-installation identifier stamped
// into every pushed document.
package device

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	prefix     = "device_"
	randomSize = 7
)

var idPattern = regexp.MustCompile(`^device_(\d+)_([0-9a-z]{7})$`)

// Store persists the identifier. *localcache.Cache satisfies it.
type Store interface {
	DeviceID(ctx context.Context) (string, bool, error)
	SetDeviceID(ctx context.Context, id string) error
}

// Provider hands out the device id, creating it on first use.
type Provider struct {
	store Store
	now   func() time.Time

	mu sync.Mutex
	id string
}

func NewProvider(store Store) *Provider {
	return &Provider{store: store, now: time.Now}
}

// ID returns the persisted identifier, generating and saving
// device_<unix-ms>_<7 chars> when none exists yet.
func (p *Provider) ID(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.id != "" {
		return p.id, nil
	}

	id, ok, err := p.store.DeviceID(ctx)
	if err != nil {
		return "", fmt.Errorf("reading device id: %w", err)
	}
	if ok && id != "" {
		p.id = id
		return id, nil
	}

	id = New(p.now())
	if err := p.store.SetDeviceID(ctx, id); err != nil {
		return "", fmt.Errorf("saving device id: %w", err)
	}
	p.id = id
	return id, nil
}

// New builds a fresh identifier for the given instant.
func New(now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:randomSize]
	return prefix + strconv.FormatInt(now.UnixMilli(), 10) + "_" + random
}

// Valid reports whether id has the generated shape.
func Valid(id string) bool {
	return idPattern.MatchString(id)
}

// Label renders an id for humans, "device 2024-05-01 12:30 (abc1234)".
// Ids of another shape are returned unchanged.
func Label(id string) string {
	m := idPattern.FindStringSubmatch(id)
	if m == nil {
		return id
	}
	ms, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return id
	}
	return fmt.Sprintf("device %s (%s)", time.UnixMilli(ms).Format("2006-01-02 15:04"), m[2])
}
