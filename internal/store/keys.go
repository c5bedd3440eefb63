package store

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
)

const (
	// KeyDocument holds the shared document. It never expires.
	KeyDocument = "cloudnav:data"
	// KeyPrefixBackup prefixes every snapshot key.
	KeyPrefixBackup = "cloudnav:backup:"

	backupStampLayout = "2006-01-02T15-04-05"
)

// BackupKey builds a snapshot key from the UTC time: the second-resolution
// stamp, then milliseconds, then a random suffix so two snapshots taken in
// the same instant never share a key.
// Example: cloudnav:backup:2024-05-01T12-30-00-123-9f86d0
func BackupKey(now time.Time) string {
	now = now.UTC()
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("%s%s-%03d-%s", KeyPrefixBackup, now.Format(backupStampLayout), now.Nanosecond()/int(time.Millisecond), suffix)
}

// BackupTimestamp is the label shown for a key: the stamp without prefix or suffix.
func BackupTimestamp(key string) string {
	label := strings.TrimPrefix(key, KeyPrefixBackup)
	if len(label) >= len(backupStampLayout) {
		return label[:len(backupStampLayout)]
	}
	return label
}

// IsBackupKey reports whether key names a snapshot.
func IsBackupKey(key string) bool {
	return strings.HasPrefix(key, KeyPrefixBackup) && len(key) > len(KeyPrefixBackup)
}

// BackupTime parses the stamp of a key back into a time, zero when malformed.
func BackupTime(key string) time.Time {
	t, err := time.Parse(backupStampLayout, BackupTimestamp(key))
	if err != nil {
		return time.Time{}
	}
	return t
}

// SortNewestFirst orders a listing by key, newest snapshot first.
// Keys embed a fixed-width UTC stamp so lexical order is chronological.
func SortNewestFirst(list []domain.BackupInfo) {
	slices.SortFunc(list, func(a, b domain.BackupInfo) int {
		return strings.Compare(b.Key, a.Key)
	})
}
