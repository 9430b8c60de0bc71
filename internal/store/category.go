// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"portfolio/internal/models"
)

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

// List returns all categories in insertion order.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id::text, name FROM categories ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if err := c.Validate(); err != nil {
			slog.Warn("skipping invalid category row", "id", c.ID, "error", err)
			continue
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id string) (*models.Category, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	var c models.Category
	err := s.db.QueryRowContext(ctx, `SELECT id::text, name FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return &c, nil
}

// Create inserts a category and returns its ID.
func (s *CategoryStore) Create(ctx context.Context, name string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id::text`, name).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create category: %w", err)
	}
	return id, nil
}

// DeleteCascade reassigns the category's posts to replacement and deletes
// the category in one transaction. The category row is locked first so a
// missing category aborts before anything is written.
func (s *CategoryStore) DeleteCascade(ctx context.Context, id string, replacement models.Category) (int64, error) {
	if _, err := uuid.Parse(id); err != nil {
		return 0, models.ErrNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var locked string
	err = tx.QueryRowContext(ctx, `SELECT id::text FROM categories WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err == sql.ErrNoRows {
		return 0, models.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lock category: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE posts SET category_id = $1, category_name = $2, updated_at = NOW()
		WHERE category_id = $3`,
		replacement.ID, replacement.Name, id,
	)
	if err != nil {
		return 0, fmt.Errorf("reassign posts of category %s: %w", id, err)
	}
	moved, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reassign posts rows affected: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
		return 0, fmt.Errorf("delete category %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit category delete: %w", err)
	}
	return moved, nil
}
