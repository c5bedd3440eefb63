package store

import (
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
)

func TestBackupKey(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 30, 0, 123_000_000, time.UTC)
	key := BackupKey(now)

	wantPrefix := "cloudnav:backup:2024-05-01T12-30-00-123-"
	if !strings.HasPrefix(key, wantPrefix) {
		t.Fatalf("BackupKey() = %q, want prefix %q", key, wantPrefix)
	}
	if len(key) != len(wantPrefix)+6 {
		t.Errorf("BackupKey() suffix length = %d, want 6", len(key)-len(wantPrefix))
	}
	if strings.ContainsAny(strings.TrimPrefix(key, KeyPrefixBackup), ":.") {
		t.Errorf("BackupKey() = %q must not contain ':' or '.' after the prefix", key)
	}
	if BackupKey(now) == key {
		t.Errorf("BackupKey() returned the same key twice for one instant")
	}
}

func TestBackupTimestamp(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"current format", "cloudnav:backup:2024-05-01T12-30-00-123-abcdef", "2024-05-01T12-30-00"},
		{"second resolution", "cloudnav:backup:2024-05-01T12-30-00", "2024-05-01T12-30-00"},
		{"short label", "cloudnav:backup:manual", "manual"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BackupTimestamp(tt.key); got != tt.want {
				t.Errorf("BackupTimestamp() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBackupTime(t *testing.T) {
	got := BackupTime("cloudnav:backup:2024-05-01T12-30-00-123-abcdef")
	want := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("BackupTime() = %v, want %v", got, want)
	}
	if !BackupTime("cloudnav:backup:nope").IsZero() {
		t.Errorf("BackupTime() of a malformed key should be zero")
	}
}

func TestIsBackupKey(t *testing.T) {
	if IsBackupKey(KeyDocument) {
		t.Errorf("IsBackupKey(%q) = true", KeyDocument)
	}
	if IsBackupKey(KeyPrefixBackup) {
		t.Errorf("IsBackupKey(prefix only) = true")
	}
	if !IsBackupKey(KeyPrefixBackup + "2024-05-01T12-30-00") {
		t.Errorf("IsBackupKey(valid) = false")
	}
}

func TestSortNewestFirst(t *testing.T) {
	list := []domain.BackupInfo{
		{Key: KeyPrefixBackup + "2024-05-01T12-30-00-000-aaaaaa"},
		{Key: KeyPrefixBackup + "2024-06-01T00-00-00-000-aaaaaa"},
		{Key: KeyPrefixBackup + "2024-05-01T12-30-00-500-aaaaaa"},
	}
	SortNewestFirst(list)
	if list[0].Key != KeyPrefixBackup+"2024-06-01T00-00-00-000-aaaaaa" ||
		list[2].Key != KeyPrefixBackup+"2024-05-01T12-30-00-000-aaaaaa" {
		t.Errorf("SortNewestFirst() = %v", list)
	}
}
