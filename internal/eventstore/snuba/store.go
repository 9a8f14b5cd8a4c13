package snuba

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/faultline-hq/faultline/internal/core/event"
)

// ErrNotFound is returned when the analytical store yields no usable row
// for an event identity. Multiple rows for one identity also map here: a
// duplicated identity cannot be attributed, so it is treated as absent.
var ErrNotFound = errors.New("event not found in snuba")

// defaultRetentionDays bounds lookups when no retention is configured.
const defaultRetentionDays = 90

// Querier is the query surface the store needs. *Client satisfies it; tests
// substitute a fake.
type Querier interface {
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)
}

// Rows is the subset of the driver's result cursor the store consumes.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Close() error
	Err() error
}

// Store serves read-only snapshot events from the analytical store.
type Store struct {
	querier       Querier
	deps          event.Deps
	retentionDays int
}

// NewStore builds a snapshot store over the given query surface.
// retentionDays bounds how far back lookups scan; zero or negative applies
// the default.
func NewStore(querier Querier, deps event.Deps, retentionDays int) *Store {
	if retentionDays <= 0 {
		retentionDays = defaultRetentionDays
	}
	return &Store{querier: querier, deps: deps, retentionDays: retentionDays}
}

// GetEvent fetches one event by identity and materializes it as a
// snapshot-backed Event. The query requests exactly the selected column
// set; the retention window clamps the scan range.
func (s *Store) GetEvent(ctx context.Context, projectID int64, eventID string) (*event.Event, error) {
	since := time.Now().UTC().AddDate(0, 0, -s.retentionDays)

	rows, err := s.querier.Query(ctx, buildEventQuery(), projectID, eventID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query snuba: %w", err)
	}
	defer rows.Close()

	collected, err := collectRows(rows)
	if err != nil {
		return nil, err
	}
	if len(collected) != 1 {
		if len(collected) > 1 {
			slog.Warn("[Snuba] Ambiguous event identity",
				"project_id", projectID,
				"event_id", eventID,
				"rows", len(collected))
		}
		return nil, ErrNotFound
	}

	return event.NewSnapshot(collected[0], s.deps)
}

// buildEventQuery renders the snapshot lookup from the selected column set.
// LIMIT 2 is enough to distinguish "exactly one" from "ambiguous".
func buildEventQuery() string {
	cols := make([]string, len(event.SelectedColumns))
	for i, col := range event.SelectedColumns {
		cols[i] = quoteColumn(col)
	}

	return fmt.Sprintf(`
		SELECT %s
		FROM events
		WHERE project_id = ?
		  AND event_id = ?
		  AND timestamp >= ?
		LIMIT 2
	`, strings.Join(cols, ", "))
}

// quoteColumn backtick-quotes nested array columns like "tags.key" so they
// are not parsed as tuple access.
func quoteColumn(col string) string {
	if strings.Contains(col, ".") {
		return "`" + col + "`"
	}
	return col
}

// collectRows scans every result row into a column-keyed map matching the
// selected column set.
func collectRows(rows Rows) ([]map[string]interface{}, error) {
	var out []map[string]interface{}
	for rows.Next() {
		dests := make([]interface{}, len(event.SelectedColumns))
		for i, col := range event.SelectedColumns {
			dests[i] = columnDest(col)
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("failed to scan snuba row: %w", err)
		}

		row := make(map[string]interface{}, len(event.SelectedColumns))
		for i, col := range event.SelectedColumns {
			row[col] = columnValue(dests[i])
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snuba rows: %w", err)
	}
	return out, nil
}

// columnDest allocates the scan destination for a column. The driver is
// strict about destination types, so each column gets its native one.
func columnDest(col string) interface{} {
	switch col {
	case "project_id", "group_id":
		return new(uint64)
	case "timestamp":
		return new(time.Time)
	case "tags.key", "tags.value":
		return new([]string)
	case "user_id", "username", "ip_address", "email":
		return new(*string)
	default:
		return new(string)
	}
}

// columnValue unwraps one level of scan indirection. Nullable string
// columns stay pointers so absence survives into the snapshot row.
func columnValue(dest interface{}) interface{} {
	switch v := dest.(type) {
	case *uint64:
		return *v
	case *time.Time:
		return *v
	case *[]string:
		return *v
	case **string:
		return *v
	case *string:
		return *v
	}
	return dest
}
