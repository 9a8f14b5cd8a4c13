package event

import (
	"context"
	"log/slog"

	"github.com/faultline-hq/faultline/internal/metrics"
)

// Deprecated accessors, kept for backward compatibility with plugin-era
// callers. Every access emits a structured legacy-access signal so the
// remaining call sites can be found and migrated.

// Logger returns the logger tag.
//
// Deprecated: read Tags instead.
func (e *Event) Logger(ctx context.Context) (string, error) {
	e.legacyAccess("logger")
	return e.GetTag(ctx, "logger")
}

// Site returns the site tag.
//
// Deprecated: read Tags instead.
func (e *Event) Site(ctx context.Context) (string, error) {
	e.legacyAccess("site")
	return e.GetTag(ctx, "site")
}

// ServerName returns the server_name tag.
//
// Deprecated: read Tags instead.
func (e *Event) ServerName(ctx context.Context) (string, error) {
	e.legacyAccess("server_name")
	return e.GetTag(ctx, "server_name")
}

// Checksum is no longer computed and always returns empty.
//
// Deprecated: checksums were folded into grouping hashes.
func (e *Event) Checksum() string {
	e.legacyAccess("checksum")
	return ""
}

// MessageShort returns the event title.
//
// Deprecated: use Title.
func (e *Event) MessageShort(ctx context.Context) (string, error) {
	e.legacyAccess("message_short")
	return e.Title(ctx)
}

// Level returns the severity level recorded on the event's group.
func (e *Event) Level(ctx context.Context) (string, error) {
	group, err := e.Group(ctx)
	if err != nil {
		return "", err
	}
	return group.Level, nil
}

func (e *Event) legacyAccess(field string) {
	slog.Warn("deprecated event field accessed",
		"field", field,
		"event_id", e.EventID,
		"project_id", e.ProjectID)
	metrics.LegacyFieldAccess.WithLabelValues(field).Inc()
}
