package store

import (
	"context"

	"github.com/intervoxlabs/intervox/internal/models"
)

// Source says where a consumed record came from. The display surface renders
// archive hits with a "previous interview" notice.
type Source string

const (
	SourceFresh   Source = "fresh"
	SourceArchive Source = "archive"
)

// FeedbackStore holds at most one pending feedback record per session,
// consumed exactly once, plus a shared last-known-good archive used when the
// primary record is unexpectedly absent.
type FeedbackStore interface {
	// Put stores rec as the session's pending record and mirrors it to the
	// last-known-good archive.
	Put(ctx context.Context, sessionID string, rec models.FeedbackRecord) error
	// Consume removes and returns the session's pending record, falling back
	// to the archive. Returns utils.ErrNotFound when neither exists.
	Consume(ctx context.Context, sessionID string) (models.FeedbackRecord, Source, error)
}
