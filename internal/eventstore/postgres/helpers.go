package postgres

import (
	"database/sql"
	"encoding/json"

	"github.com/faultline-hq/faultline/internal/core/event"
)

// rowScanner abstracts *sql.Row and *sql.Rows so scanEventRow serves both
// single-row and window queries.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanEventRow scans the shared event column list into a StoredRow.
func scanEventRow(row rowScanner) (event.StoredRow, error) {
	var (
		stored    event.StoredRow
		timeSpent sql.NullInt64
	)

	err := row.Scan(
		&stored.ID,
		&stored.EventID,
		&stored.ProjectID,
		&stored.GroupID,
		&stored.Message,
		&stored.Platform,
		&stored.Datetime,
		&timeSpent,
	)
	if err != nil {
		return event.StoredRow{}, err
	}

	if timeSpent.Valid {
		stored.TimeSpent = &timeSpent.Int64
	}
	return stored, nil
}

// unmarshalOptions decodes the project option blob. NULL and empty blobs
// decode to an empty map so callers never see a nil option set.
func unmarshalOptions(blob []byte) (map[string]string, error) {
	if len(blob) == 0 {
		return map[string]string{}, nil
	}
	var opts map[string]string
	if err := json.Unmarshal(blob, &opts); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = map[string]string{}
	}
	return opts, nil
}
