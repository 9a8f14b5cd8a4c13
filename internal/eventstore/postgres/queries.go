package postgres

// SQL queries for the relational event store.

const (
	// queryGetEvent resolves an event by its external identity. The
	// (project_id, event_id) pair is unique, so at most one row matches.
	queryGetEvent = `
		SELECT
			id, event_id, project_id, group_id,
			message, platform, datetime, time_spent
		FROM events
		WHERE project_id = $1 AND event_id = $2
	`

	// queryInsertEvent inserts an event row with external-id idempotency.
	// ON CONFLICT DO NOTHING returns no rows (sql.ErrNoRows) for duplicates.
	queryInsertEvent = `
		INSERT INTO events (
			event_id, project_id, group_id,
			message, platform, datetime, time_spent
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (project_id, event_id) DO NOTHING
		RETURNING id
	`

	// queryWindowAfter fetches a bounded candidate window for next-event
	// resolution. Ordering within equal datetimes is resolved by the caller,
	// so only the timestamp is ordered here and the anchor row is excluded.
	queryWindowAfter = `
		SELECT
			id, event_id, project_id, group_id,
			message, platform, datetime, time_spent
		FROM events
		WHERE group_id = $1
		  AND datetime >= $2
		  AND id <> $3
		ORDER BY datetime ASC
		LIMIT $4
	`

	// queryWindowBefore is the mirror window for prev-event resolution.
	queryWindowBefore = `
		SELECT
			id, event_id, project_id, group_id,
			message, platform, datetime, time_spent
		FROM events
		WHERE group_id = $1
		  AND datetime <= $2
		  AND id <> $3
		ORDER BY datetime DESC
		LIMIT $4
	`

	// queryGetGroup resolves the issue group an event was folded into.
	queryGetGroup = `
		SELECT id, project_id, culprit, level, short_id
		FROM groups
		WHERE id = $1
	`

	// queryGetProject resolves a project with its option blob.
	queryGetProject = `
		SELECT id, slug, name, org_slug, options
		FROM projects
		WHERE id = $1
	`
)
