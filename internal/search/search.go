package search

import (
	"context"
	"time"
)

// Type discriminates what kind of entity a search query targets.
type Type int

const (
	TypeIssue Type = 0
	TypeEvent Type = 1
)

// SavedSearch is a named, persisted search query. A search owned by a user
// is that user's pinned search; an ownerless search is visible to the whole
// organization; a global search ships with the product and belongs to no
// organization.
type SavedSearch struct {
	ID             int64
	OrganizationID int64
	Type           Type
	Name           string
	Query          string
	OwnerID        *int64
	IsGlobal       bool
}

// Pinned reports whether this search is a user's pinned search.
func (s *SavedSearch) Pinned() bool {
	return s.OwnerID != nil
}

// RecentSearch records one query a user ran, keyed by
// (user, organization, type, query). Re-running a query refreshes LastSeen
// instead of inserting a second row.
type RecentSearch struct {
	ID             int64
	OrganizationID int64
	UserID         int64
	Type           Type
	Query          string
	LastSeen       time.Time
	DateAdded      time.Time
}

// Store is the persistence surface for searches.
type Store interface {
	// SavedSearches returns the user's visible saved searches of one type,
	// ordered owned-first then by case-insensitive name.
	SavedSearches(ctx context.Context, orgID, userID int64, searchType Type) ([]*SavedSearch, error)

	// RecentSearches returns the user's recent searches of one type,
	// most recent first, capped at limit.
	RecentSearches(ctx context.Context, orgID, userID int64, searchType Type, limit int) ([]*RecentSearch, error)

	// TouchRecentSearch inserts a recent-search row or refreshes LastSeen
	// on the existing one.
	TouchRecentSearch(ctx context.Context, orgID, userID int64, searchType Type, query string, seenAt time.Time) error
}
