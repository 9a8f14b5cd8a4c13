package search

// SQL queries for search persistence.

const (
	// querySavedSearches lists the searches visible to a user: their own,
	// their organization's ownerless ones, and the global defaults. Owned
	// searches sort first so the pinned search leads the result.
	querySavedSearches = `
		SELECT id, organization_id, type, name, query, owner_id, is_global
		FROM saved_searches
		WHERE type = $3
		  AND (
			(organization_id = $1 AND (owner_id = $2 OR owner_id IS NULL))
			OR is_global
		  )
		ORDER BY (owner_id IS NOT NULL) DESC, UPPER(name) ASC
	`

	// queryRecentSearches lists a user's recent searches, newest first.
	queryRecentSearches = `
		SELECT id, organization_id, user_id, type, query, last_seen, date_added
		FROM recent_searches
		WHERE organization_id = $1
		  AND user_id = $2
		  AND type = $3
		ORDER BY last_seen DESC
		LIMIT $4
	`

	// queryTouchRecentSearch upserts on the (user, organization, type,
	// query) identity, refreshing last_seen for a re-run query.
	queryTouchRecentSearch = `
		INSERT INTO recent_searches (
			organization_id, user_id, type, query, last_seen, date_added
		)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id, organization_id, type, query)
		DO UPDATE SET last_seen = EXCLUDED.last_seen
	`
)
