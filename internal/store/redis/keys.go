package redis

import "github.com/MrSnakeDoc/cloudnav/internal/store"

const (
	// KeyDocument is the key of the shared document
	KeyDocument = store.KeyDocument
	// KeyPrefixBackup is the prefix for snapshot hashes
	KeyPrefixBackup = store.KeyPrefixBackup

	// Snapshot hash fields. Only fieldData carries the payload so listings
	// can read the metadata without pulling every document.
	fieldData      = "data"
	fieldDeviceID  = "deviceId"
	fieldUpdatedAt = "updatedAt"
	fieldVersion   = "version"
)

// BackupPattern returns the SCAN match pattern for snapshot keys
func BackupPattern() string {
	return KeyPrefixBackup + "*"
}
