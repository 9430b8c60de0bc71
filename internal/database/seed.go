package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// DefaultCategories are created on an empty development database so the
// editor has something to pick from.
var DefaultCategories = []string{"Finance", "Leadership", "Technology"}

// Seed populates an empty categories table with DefaultCategories.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	for _, name := range DefaultCategories {
		if _, err := db.Exec(`INSERT INTO categories (name) VALUES ($1)`, name); err != nil {
			return fmt.Errorf("seed insert category %q: %w", name, err)
		}
	}

	slog.Info("database seeded with default categories", "count", len(DefaultCategories))
	return nil
}
