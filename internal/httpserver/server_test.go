package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
	"github.com/MrSnakeDoc/cloudnav/internal/httpserver/deps"
	"github.com/MrSnakeDoc/cloudnav/internal/logger"
	"github.com/MrSnakeDoc/cloudnav/internal/store/memory"
)

type envelope struct {
	Success   bool                `json:"success"`
	Conflict  bool                `json:"conflict"`
	Data      *domain.Document    `json:"data"`
	Message   string              `json:"message"`
	Error     string              `json:"error"`
	Problems  []string            `json:"problems"`
	BackupKey string              `json:"backupKey"`
	Backups   []domain.BackupInfo `json:"backups"`
}

func newTestRouter(t *testing.T, mutate func(*deps.Deps)) (http.Handler, *memory.Store) {
	t.Helper()
	st := memory.NewStore()
	d := deps.Deps{
		Logger:          logger.Nop(),
		StartTime:       time.Now(),
		Version:         "test",
		TimeNow:         time.Now,
		Store:           st,
		BackupTTL:       time.Hour,
		MaxBodyBytes:    1 << 20,
		SnapshotTrigger: make(chan struct{}, 1),
	}
	if mutate != nil {
		mutate(&d)
	}
	return NewRouter(d.Logger, d, time.Second), st
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any, header map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func sampleDoc(title string) domain.Document {
	doc := domain.NewDocument()
	doc.Links = []domain.Link{{
		ID:         "l1",
		CreatedAt:  1,
		Title:      title,
		URL:        "https://example.com",
		CategoryID: domain.FallbackCategoryID,
		Order:      domain.Int64Ptr(0),
	}}
	doc.Meta.DeviceID = "device_1_abcdefg"
	return doc
}

func TestSyncGetEmpty(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec, env := doJSON(t, h, http.MethodGet, "/api/sync", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !env.Success || env.Data != nil {
		t.Errorf("GET empty = %+v, want success with null data", env)
	}
	if !strings.Contains(rec.Body.String(), `"data":null`) {
		t.Errorf("body %q should carry an explicit null data", rec.Body.String())
	}
}

func TestSyncPushSequence(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec, env := doJSON(t, h, http.MethodPost, "/api/sync", map[string]any{"data": sampleDoc("a")}, nil)
	if rec.Code != http.StatusOK || env.Data == nil || env.Data.Meta.Version != 1 {
		t.Fatalf("first push = %d %+v, want version 1", rec.Code, env)
	}
	if env.Data.Meta.UpdatedAt == 0 {
		t.Errorf("updatedAt should be stamped by the server")
	}

	rec, env = doJSON(t, h, http.MethodPost, "/api/sync",
		map[string]any{"data": sampleDoc("b"), "expectedVersion": 1}, nil)
	if rec.Code != http.StatusOK || env.Data.Meta.Version != 2 {
		t.Fatalf("second push = %d %+v, want version 2", rec.Code, env)
	}

	_, env = doJSON(t, h, http.MethodGet, "/api/sync", nil, nil)
	if env.Data == nil || env.Data.Links[0].Title != "b" || env.Data.Meta.Version != 2 {
		t.Errorf("GET after push = %+v", env.Data)
	}
}

func TestSyncPushConflict(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	doJSON(t, h, http.MethodPost, "/api/sync", map[string]any{"data": sampleDoc("a")}, nil)
	doJSON(t, h, http.MethodPost, "/api/sync", map[string]any{"data": sampleDoc("b"), "expectedVersion": 1}, nil)

	rec, env := doJSON(t, h, http.MethodPost, "/api/sync",
		map[string]any{"data": sampleDoc("stale"), "expectedVersion": 1}, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if env.Success || !env.Conflict || env.Data == nil || env.Data.Meta.Version != 2 {
		t.Errorf("conflict envelope = %+v, want remote version 2", env)
	}

	_, env = doJSON(t, h, http.MethodGet, "/api/sync", nil, nil)
	if env.Data.Links[0].Title != "b" {
		t.Errorf("stored title = %q after conflict, want b", env.Data.Links[0].Title)
	}
}

func TestSyncPushWithoutExpectedOverwrites(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	doJSON(t, h, http.MethodPost, "/api/sync", map[string]any{"data": sampleDoc("a")}, nil)
	rec, env := doJSON(t, h, http.MethodPost, "/api/sync", map[string]any{"data": sampleDoc("force")}, nil)
	if rec.Code != http.StatusOK || env.Data.Meta.Version != 2 {
		t.Errorf("unconditional push = %d %+v, want version 2", rec.Code, env.Data)
	}
}

func TestSyncPushRejectsBadPayload(t *testing.T) {
	h, _ := newTestRouter(t, func(d *deps.Deps) { d.MaxBodyBytes = 256 })

	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing data", map[string]any{"expectedVersion": 1}, http.StatusBadRequest},
		{"not json", "{nope", http.StatusBadRequest},
		{"invalid link", map[string]any{"data": map[string]any{
			"links":      []map[string]any{{"id": "x", "title": "", "url": "", "categoryId": "common"}},
			"categories": []map[string]any{{"id": "common", "name": "Common"}},
		}}, http.StatusBadRequest},
		{"too large", map[string]any{"data": sampleDoc(strings.Repeat("x", 512))}, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := doJSON(t, h, http.MethodPost, "/api/sync", tt.body, nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
			if env.Success {
				t.Errorf("success = true for a rejected payload")
			}
		})
	}

	_, env := doJSON(t, h, http.MethodGet, "/api/sync", nil, nil)
	if env.Data != nil {
		t.Errorf("store should still be empty, got %+v", env.Data)
	}
}

func TestSyncMethodNotAllowed(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec, env := doJSON(t, h, http.MethodPut, "/api/sync", nil, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if env.Success || env.Error != "Method not allowed" {
		t.Errorf("405 envelope = %+v", env)
	}
}

func TestSyncBackups(t *testing.T) {
	h, st := newTestRouter(t, nil)

	rec, env := doJSON(t, h, http.MethodGet, "/api/sync?action=backups", nil, nil)
	if rec.Code != http.StatusOK || env.Backups == nil || len(env.Backups) != 0 {
		t.Fatalf("empty list = %d %+v", rec.Code, env)
	}

	rec, env = doJSON(t, h, http.MethodPost, "/api/sync?action=backup", map[string]any{"data": sampleDoc("snap")}, nil)
	if rec.Code != http.StatusOK || env.BackupKey == "" || !strings.HasSuffix(env.Message, env.BackupKey) {
		t.Fatalf("create backup = %d %+v", rec.Code, env)
	}
	key := env.BackupKey

	_, env = doJSON(t, h, http.MethodPost, "/api/sync/backup", map[string]any{"data": sampleDoc("snap2")}, nil)
	if env.BackupKey == "" || env.BackupKey == key {
		t.Errorf("second backup key = %q, want a fresh key", env.BackupKey)
	}

	_, env = doJSON(t, h, http.MethodGet, "/api/sync/backups", nil, nil)
	if len(env.Backups) != 2 {
		t.Fatalf("backups = %d, want 2", len(env.Backups))
	}
	for _, b := range env.Backups {
		if b.Timestamp == "" || b.Expiration == nil {
			t.Errorf("backup entry %+v misses timestamp or expiration", b)
		}
	}

	_, env = doJSON(t, h, http.MethodGet, "/api/sync?action=backup&key="+key, nil, nil)
	if env.Data == nil || env.Data.Links[0].Title != "snap" {
		t.Errorf("get backup = %+v", env.Data)
	}

	rec, _ = doJSON(t, h, http.MethodGet, "/api/sync?action=backup&key=cloudnav:backup:missing", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown backup status = %d, want 404", rec.Code)
	}

	rec, _ = doJSON(t, h, http.MethodPost, "/api/sync?action=backup", map[string]any{}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("backup without data status = %d, want 400", rec.Code)
	}

	doc, _ := st.GetDocument(t.Context())
	if doc != nil {
		t.Errorf("backups must not touch the main document")
	}
}

func TestSyncPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	h, _ := newTestRouter(t, func(d *deps.Deps) { d.SyncPasswordHash = hash })

	rec, env := doJSON(t, h, http.MethodGet, "/api/sync", nil, nil)
	if rec.Code != http.StatusUnauthorized || env.Success {
		t.Errorf("no password status = %d, want 401", rec.Code)
	}

	rec, _ = doJSON(t, h, http.MethodGet, "/api/sync", nil, map[string]string{"X-Sync-Password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", rec.Code)
	}

	rec, _ = doJSON(t, h, http.MethodGet, "/api/sync", nil, map[string]string{"X-Sync-Password": "s3cret"})
	if rec.Code != http.StatusOK {
		t.Errorf("right password status = %d, want 200", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/sync", nil)
	req.Header.Set("Origin", "https://nav.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), "X-Sync-Password") {
		t.Errorf("Allow-Headers = %q", rec.Header().Get("Access-Control-Allow-Headers"))
	}
}

func TestOpsEndpoints(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	for _, path := range []string{"/healthz", "/readyz", "/infra"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/snapshot", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Errorf("first snapshot = %d, want 202", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/snapshot", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second snapshot while pending = %d, want 429", rec.Code)
	}
}

func TestOpsEndpointsRespectCIDRs(t *testing.T) {
	h, _ := newTestRouter(t, func(d *deps.Deps) { d.AllowedCIDRS = []string{"10.0.0.0/8"} })

	req := httptest.NewRequest(http.MethodGet, "/infra", nil)
	req.RemoteAddr = "192.168.1.5:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("GET /infra from outside = %d, want 403", rec.Code)
	}
}
