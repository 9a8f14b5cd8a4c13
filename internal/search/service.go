package search

import (
	"context"
	"fmt"
	"time"
)

// defaultRecentLimit matches the "last few searches" affordance in search
// dropdowns.
const defaultRecentLimit = 3

// Service layers the presentation rules over the store: pinned-search
// precedence and duplicate-query suppression for saved searches, and the
// default limit for recent ones.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// ListSavedSearches returns the saved searches visible to a user. The
// store already orders owned searches first; when the first result is
// owned it is the user's pinned search, and any later search carrying the
// same query is suppressed so the list never shows the query twice.
func (s *Service) ListSavedSearches(ctx context.Context, orgID, userID int64, searchType Type) ([]*SavedSearch, error) {
	searches, err := s.store.SavedSearches(ctx, orgID, userID, searchType)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved searches: %w", err)
	}
	if len(searches) == 0 {
		return []*SavedSearch{}, nil
	}

	results := []*SavedSearch{searches[0]}
	var pinned *SavedSearch
	if searches[0].Pinned() {
		pinned = searches[0]
	}
	for _, search := range searches[1:] {
		if pinned != nil && search.Query == pinned.Query {
			continue
		}
		results = append(results, search)
	}
	return results, nil
}

// ListRecentSearches returns the user's recent searches of one type, most
// recent first. A non-positive limit applies the default.
func (s *Service) ListRecentSearches(ctx context.Context, orgID, userID int64, searchType Type, limit int) ([]*RecentSearch, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	searches, err := s.store.RecentSearches(ctx, orgID, userID, searchType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent searches: %w", err)
	}
	if searches == nil {
		searches = []*RecentSearch{}
	}
	return searches, nil
}

// RecordRecentSearch notes that the user just ran a query. Re-running a
// known query only refreshes its recency.
func (s *Service) RecordRecentSearch(ctx context.Context, orgID, userID int64, searchType Type, query string) error {
	if query == "" {
		return fmt.Errorf("cannot record empty search query")
	}
	if err := s.store.TouchRecentSearch(ctx, orgID, userID, searchType, query, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record recent search: %w", err)
	}
	return nil
}
