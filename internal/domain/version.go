package domain

import "time"

// NextVersion decides whether incoming may replace existing and builds the
// document that gets stored.
//
// existing is nil when nothing is stored yet. expected is the version the
// writer last saw; nil skips the check. On acceptance the version is bumped by
// one (or starts at 1) and UpdatedAt is stamped with now.
func NextVersion(existing *Document, incoming Document, expected *int64, now time.Time) (Document, error) {
	var current int64
	if existing != nil {
		current = existing.Meta.Version
		if expected != nil && *expected != current {
			remote := existing.Clone()
			return Document{}, &ConflictError{
				ExpectedVersion: *expected,
				CurrentVersion:  current,
				Remote:          &remote,
			}
		}
	}

	next := incoming.Clone()
	next.Meta = Meta{
		UpdatedAt: now.UnixMilli(),
		DeviceID:  incoming.Meta.DeviceID,
		Version:   current + 1,
	}
	return next, nil
}
