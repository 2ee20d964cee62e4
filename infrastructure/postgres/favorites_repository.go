package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldcalc/calc-engine/internal/domain"
	"github.com/fieldcalc/calc-engine/internal/ports"
)

var _ ports.FavoritesRepository = (*FavoritesRepository)(nil)

// FavoritesRepository implements ports.FavoritesRepository on
// PostgreSQL.
type FavoritesRepository struct {
	pool *pgxpool.Pool
}

// NewFavoritesRepository creates a FavoritesRepository over the given
// pool.
func NewFavoritesRepository(pool *pgxpool.Pool) *FavoritesRepository {
	return &FavoritesRepository{pool: pool}
}

// IsFavorite reports whether the user has favorited the template.
func (r *FavoritesRepository) IsFavorite(ctx context.Context, userID, templateID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM template_favorites WHERE user_id = $1 AND template_id = $2)`,
		userID, templateID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query favorite: %w", err)
	}
	return exists, nil
}

// AddFavorite marks the template as a favorite of the user. Adding an
// existing favorite is a no-op.
func (r *FavoritesRepository) AddFavorite(ctx context.Context, userID, templateID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO template_favorites (user_id, template_id)
		 VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, templateID)
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite clears the user's favorite mark for the template.
// Removing an absent favorite is a no-op.
func (r *FavoritesRepository) RemoveFavorite(ctx context.Context, userID, templateID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM template_favorites WHERE user_id = $1 AND template_id = $2`,
		userID, templateID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// GetFavorites returns the ids of every template the user has
// favorited, oldest first. Ids may reference deleted templates.
func (r *FavoritesRepository) GetFavorites(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT template_id FROM template_favorites WHERE user_id = $1 ORDER BY created_at ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate favorites: %w", err)
	}
	return ids, nil
}

// GetFavoriteStats counts how many users favorited the template.
func (r *FavoritesRepository) GetFavoriteStats(ctx context.Context, templateID string) (domain.FavoriteStats, error) {
	var stats domain.FavoriteStats
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM template_favorites WHERE template_id = $1`, templateID).
		Scan(&stats.FavoriteCount)
	if err != nil {
		return domain.FavoriteStats{}, fmt.Errorf("failed to query favorite stats: %w", err)
	}
	return stats, nil
}
