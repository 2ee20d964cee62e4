package memstore

import (
	"context"
	"sync"

	"github.com/fieldcalc/calc-engine/internal/domain"
	"github.com/fieldcalc/calc-engine/internal/ports"
)

var _ ports.FavoritesRepository = (*FavoritesStore)(nil)

// FavoritesStore is an in-memory ports.FavoritesRepository keyed by
// user and template ids. Favorite ids are returned in the order they
// were added.
type FavoritesStore struct {
	mu sync.RWMutex
	// byUser holds each user's favorite template ids in add order.
	byUser map[string][]string
}

// NewFavoritesStore creates an empty FavoritesStore.
func NewFavoritesStore() *FavoritesStore {
	return &FavoritesStore{byUser: make(map[string][]string)}
}

// IsFavorite reports whether the user has favorited the template.
func (s *FavoritesStore) IsFavorite(ctx context.Context, userID, templateID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return indexOf(s.byUser[userID], templateID) >= 0, nil
}

// AddFavorite marks the template as a favorite of the user. Adding an
// existing favorite is a no-op.
func (s *FavoritesStore) AddFavorite(ctx context.Context, userID, templateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if indexOf(s.byUser[userID], templateID) >= 0 {
		return nil
	}
	s.byUser[userID] = append(s.byUser[userID], templateID)
	return nil
}

// RemoveFavorite clears the user's favorite mark for the template.
// Removing an absent favorite is a no-op.
func (s *FavoritesStore) RemoveFavorite(ctx context.Context, userID, templateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.byUser[userID]
	if i := indexOf(ids, templateID); i >= 0 {
		s.byUser[userID] = append(ids[:i], ids[i+1:]...)
	}
	return nil
}

// GetFavorites returns the ids of every template the user has
// favorited, in add order. Ids may reference deleted templates.
func (s *FavoritesStore) GetFavorites(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, len(s.byUser[userID]))
	copy(ids, s.byUser[userID])
	return ids, nil
}

// GetFavoriteStats counts how many users favorited the template.
func (s *FavoritesStore) GetFavoriteStats(ctx context.Context, templateID string) (domain.FavoriteStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats domain.FavoriteStats
	for _, ids := range s.byUser {
		if indexOf(ids, templateID) >= 0 {
			stats.FavoriteCount++
		}
	}
	return stats, nil
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
