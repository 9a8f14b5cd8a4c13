package search

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresStore implements Store over a shared postgres connection.
type PostgresStore struct {
	db        *sql.DB
	stmtSaved *sql.Stmt
	stmtList  *sql.Stmt
	stmtTouch *sql.Stmt
}

// NewPostgresStore prepares the search statements over an existing
// connection. The relational event adapter usually owns the pool.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	stmtSaved, err := db.Prepare(querySavedSearches)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare savedSearches statement: %w", err)
	}

	stmtList, err := db.Prepare(queryRecentSearches)
	if err != nil {
		stmtSaved.Close()
		return nil, fmt.Errorf("failed to prepare recentSearches statement: %w", err)
	}

	stmtTouch, err := db.Prepare(queryTouchRecentSearch)
	if err != nil {
		stmtSaved.Close()
		stmtList.Close()
		return nil, fmt.Errorf("failed to prepare touchRecentSearch statement: %w", err)
	}

	return &PostgresStore{
		db:        db,
		stmtSaved: stmtSaved,
		stmtList:  stmtList,
		stmtTouch: stmtTouch,
	}, nil
}

func (s *PostgresStore) SavedSearches(ctx context.Context, orgID, userID int64, searchType Type) ([]*SavedSearch, error) {
	rows, err := s.stmtSaved.QueryContext(ctx, orgID, userID, int(searchType))
	if err != nil {
		return nil, fmt.Errorf("failed to query saved searches: %w", err)
	}
	defer rows.Close()

	var searches []*SavedSearch
	for rows.Next() {
		var (
			search  SavedSearch
			ownerID sql.NullInt64
		)
		err := rows.Scan(
			&search.ID, &search.OrganizationID, &search.Type,
			&search.Name, &search.Query, &ownerID, &search.IsGlobal)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved search: %w", err)
		}
		if ownerID.Valid {
			search.OwnerID = &ownerID.Int64
		}
		searches = append(searches, &search)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saved searches: %w", err)
	}
	return searches, nil
}

func (s *PostgresStore) RecentSearches(ctx context.Context, orgID, userID int64, searchType Type, limit int) ([]*RecentSearch, error) {
	rows, err := s.stmtList.QueryContext(ctx, orgID, userID, int(searchType), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent searches: %w", err)
	}
	defer rows.Close()

	var searches []*RecentSearch
	for rows.Next() {
		var search RecentSearch
		err := rows.Scan(
			&search.ID, &search.OrganizationID, &search.UserID,
			&search.Type, &search.Query, &search.LastSeen, &search.DateAdded)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recent search: %w", err)
		}
		searches = append(searches, &search)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recent searches: %w", err)
	}
	return searches, nil
}

func (s *PostgresStore) TouchRecentSearch(ctx context.Context, orgID, userID int64, searchType Type, query string, seenAt time.Time) error {
	if _, err := s.stmtTouch.ExecContext(ctx, orgID, userID, int(searchType), query, seenAt); err != nil {
		return fmt.Errorf("failed to touch recent search: %w", err)
	}
	return nil
}

// Close closes the prepared statements. The shared connection stays open
// for its owner to close.
func (s *PostgresStore) Close() error {
	var firstErr error
	for _, stmt := range []*sql.Stmt{s.stmtSaved, s.stmtList, s.stmtTouch} {
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close statement: %w", err)
		}
	}
	return firstErr
}
