package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// AddFavorite marks a word as favorite
func (s *Store) AddFavorite(ctx context.Context, word string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO favorites (word, created_at) VALUES (?, ?)",
		word, s.now(),
	)
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite unmarks a word
func (s *Store) RemoveFavorite(ctx context.Context, word string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM favorites WHERE word = ?", word); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

// IsFavorite reports whether word is a favorite
func (s *Store) IsFavorite(ctx context.Context, word string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM favorites WHERE word = ?", word).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find favorite: %w", err)
	}
	return true, nil
}

// ToggleFavorite flips the favorite flag and returns the new value
func (s *Store) ToggleFavorite(ctx context.Context, word string) (bool, error) {
	fav, err := s.IsFavorite(ctx, word)
	if err != nil {
		return false, err
	}
	if fav {
		return false, s.RemoveFavorite(ctx, word)
	}
	return true, s.AddFavorite(ctx, word)
}

// ListFavorites returns favorites in the order they were added
func (s *Store) ListFavorites(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT word FROM favorites ORDER BY created_at, word")
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		words = append(words, w)
	}
	return words, rows.Err()
}
