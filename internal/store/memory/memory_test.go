package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
	"github.com/MrSnakeDoc/cloudnav/internal/store"
)

func testDoc(title string) domain.Document {
	doc := domain.NewDocument()
	doc.Links = []domain.Link{{ID: "l1", Title: title, URL: "https://example.com", CategoryID: domain.FallbackCategoryID}}
	doc.Meta.DeviceID = "device_1_abcdefg"
	return doc
}

func TestGetDocumentEmpty(t *testing.T) {
	s := NewStore()
	doc, err := s.GetDocument(context.Background())
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if doc != nil {
		t.Errorf("GetDocument() = %v, want nil on empty store", doc)
	}
}

func TestPutDocumentVersions(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	first, err := s.PutDocument(ctx, testDoc("a"), nil)
	if err != nil {
		t.Fatalf("PutDocument() error = %v", err)
	}
	if first.Meta.Version != 1 {
		t.Errorf("first version = %d, want 1", first.Meta.Version)
	}

	for want := int64(2); want <= 3; want++ {
		got, err := s.PutDocument(ctx, testDoc("a"), domain.Int64Ptr(want-1))
		if err != nil {
			t.Fatalf("PutDocument(expected=%d) error = %v", want-1, err)
		}
		if got.Meta.Version != want {
			t.Errorf("version = %d, want %d", got.Meta.Version, want)
		}
	}
}

func TestPutDocumentConflictLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	for i := 0; i < 3; i++ {
		if _, err := s.PutDocument(ctx, testDoc("kept"), nil); err != nil {
			t.Fatalf("seed error = %v", err)
		}
	}

	_, err := s.PutDocument(ctx, testDoc("stale"), domain.Int64Ptr(2))
	var ce *domain.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("PutDocument() error = %v, want *ConflictError", err)
	}
	if ce.Remote == nil || ce.Remote.Meta.Version != 3 {
		t.Errorf("conflict remote = %+v, want version 3", ce.Remote)
	}

	doc, _ := s.GetDocument(ctx)
	if doc.Meta.Version != 3 || doc.Links[0].Title != "kept" {
		t.Errorf("store changed after conflict: version=%d title=%q", doc.Meta.Version, doc.Links[0].Title)
	}
}

func TestPutDocumentConcurrentCAS(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	if _, err := s.PutDocument(ctx, testDoc("seed"), nil); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.PutDocument(ctx, testDoc("race"), domain.Int64Ptr(1)); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("concurrent writers with the same expected version: %d won, want exactly 1", wins)
	}
}

func TestGetDocumentReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	if _, err := s.PutDocument(ctx, testDoc("orig"), nil); err != nil {
		t.Fatal(err)
	}

	doc, _ := s.GetDocument(ctx)
	doc.Links[0].Title = "mutated"

	again, _ := s.GetDocument(ctx)
	if again.Links[0].Title != "orig" {
		t.Errorf("GetDocument() leaked internal state, title = %q", again.Links[0].Title)
	}
}

func TestBackupsAreImmutable(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	stored, _ := s.PutDocument(ctx, testDoc("v1"), nil)
	key, err := s.CreateBackup(ctx, *stored, store.DefaultBackupTTL)
	if err != nil {
		t.Fatalf("CreateBackup() error = %v", err)
	}
	if !store.IsBackupKey(key) {
		t.Errorf("CreateBackup() key = %q, want %s prefix", key, store.KeyPrefixBackup)
	}

	if _, err := s.PutDocument(ctx, testDoc("v2"), domain.Int64Ptr(1)); err != nil {
		t.Fatal(err)
	}

	snap, err := s.GetBackup(ctx, key)
	if err != nil {
		t.Fatalf("GetBackup() error = %v", err)
	}
	if snap.Links[0].Title != "v1" || snap.Meta.Version != 1 {
		t.Errorf("backup changed after re-push: title=%q version=%d", snap.Links[0].Title, snap.Meta.Version)
	}
}

func TestBackupKeysUniqueWithinSameInstant(t *testing.T) {
	ctx := context.Background()
	frozen := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	s := NewStore().WithClock(func() time.Time { return frozen })

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		key, err := s.CreateBackup(ctx, testDoc("x"), time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		if seen[key] {
			t.Fatalf("duplicate backup key %q", key)
		}
		seen[key] = true
	}

	list, _ := s.ListBackups(ctx)
	if len(list) != 50 {
		t.Errorf("ListBackups() = %d entries, want 50", len(list))
	}
	if list[0].Timestamp != "2024-05-01T12-30-00" {
		t.Errorf("Timestamp = %q, want 2024-05-01T12-30-00", list[0].Timestamp)
	}
	if list[0].Expiration == nil || *list[0].Expiration != frozen.Add(time.Hour).Unix() {
		t.Errorf("Expiration = %v, want %d", list[0].Expiration, frozen.Add(time.Hour).Unix())
	}
}

func TestBackupsExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s := NewStore().WithClock(func() time.Time { return now })

	key, _ := s.CreateBackup(ctx, testDoc("x"), time.Hour)
	now = now.Add(2 * time.Hour)

	if _, err := s.GetBackup(ctx, key); !errors.Is(err, store.ErrBackupNotFound) {
		t.Errorf("GetBackup() after expiry error = %v, want ErrBackupNotFound", err)
	}
	list, _ := s.ListBackups(ctx)
	if len(list) != 0 {
		t.Errorf("ListBackups() after expiry = %d entries, want 0", len(list))
	}
}

func TestDeleteBackup(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	key, _ := s.CreateBackup(ctx, testDoc("x"), 0)

	if err := s.DeleteBackup(ctx, key); err != nil {
		t.Fatalf("DeleteBackup() error = %v", err)
	}
	if _, err := s.GetBackup(ctx, key); !errors.Is(err, store.ErrBackupNotFound) {
		t.Errorf("GetBackup() after delete error = %v, want ErrBackupNotFound", err)
	}
}
