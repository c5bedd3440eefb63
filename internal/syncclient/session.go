package syncclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
)

// SessionStore is the persistence a Session needs. *localcache.Cache
// satisfies it.
type SessionStore interface {
	AuthToken(ctx context.Context) (string, bool, error)
	SetAuthToken(ctx context.Context, token string) error
	ClearAuthToken(ctx context.Context) error
	LoadSyncMeta(ctx context.Context) (domain.Meta, bool, error)
}

// DeviceIDs hands out the device identifier. *device.Provider satisfies it.
type DeviceIDs interface {
	ID(ctx context.Context) (string, error)
}

// Session holds who this client is and what it last saw from the server.
type Session struct {
	store SessionStore

	mu             sync.RWMutex
	deviceID       string
	authToken      string
	currentVersion int64
}

// NewSession restores the session from the local cache. fallbackToken is
// used, without being persisted, when no token is stored.
func NewSession(ctx context.Context, st SessionStore, devices DeviceIDs, fallbackToken string) (*Session, error) {
	id, err := devices.ID(ctx)
	if err != nil {
		return nil, err
	}

	token, ok, err := st.AuthToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading auth token: %w", err)
	}
	if !ok {
		token = fallbackToken
	}

	meta, _, err := st.LoadSyncMeta(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading sync meta: %w", err)
	}

	return &Session{
		store:          st,
		deviceID:       id,
		authToken:      token,
		currentVersion: meta.Version,
	}, nil
}

func (s *Session) DeviceID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deviceID
}

func (s *Session) AuthToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authToken
}

// Authenticated reports whether remote operations may be attempted.
func (s *Session) Authenticated() bool {
	return s.AuthToken() != ""
}

// CurrentVersion is the remote version the local document is based on.
func (s *Session) CurrentVersion() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentVersion
}

func (s *Session) SetCurrentVersion(v int64) {
	s.mu.Lock()
	s.currentVersion = v
	s.mu.Unlock()
}

// Login stores token for this and later runs.
func (s *Session) Login(ctx context.Context, token string) error {
	if err := s.store.SetAuthToken(ctx, token); err != nil {
		return err
	}
	s.mu.Lock()
	s.authToken = token
	s.mu.Unlock()
	return nil
}

// useToken switches the token for this run only.
func (s *Session) useToken(token string) {
	s.mu.Lock()
	s.authToken = token
	s.mu.Unlock()
}

// Logout forgets the token. The device id is kept.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.authToken = ""
	s.mu.Unlock()
	return s.store.ClearAuthToken(ctx)
}
