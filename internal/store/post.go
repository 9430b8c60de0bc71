// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"portfolio/internal/models"
)

// PostStore handles post persistence in PostgreSQL.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

const postColumns = `id::text, title, slug, content, content_html, date, image, category_id, category_name`

// scanPost scans a row into a Post struct.
func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.ContentHTML,
		&p.Date, &p.Image, &p.CategoryID, &p.CategoryName,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// queryPosts runs a SELECT returning post rows and drops rows that fail
// validation, logging each one.
func (s *PostStore) queryPosts(ctx context.Context, what, query string, args ...any) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer rows.Close()

	var items []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		if err := p.Validate(); err != nil {
			slog.Warn("skipping invalid post row", "id", p.ID, "error", err)
			continue
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// List returns every post, newest first.
func (s *PostStore) List(ctx context.Context) ([]models.Post, error) {
	return s.queryPosts(ctx, "list posts", `
		SELECT `+postColumns+` FROM posts
		WHERE slug <> ''
		ORDER BY date DESC, id DESC`)
}

// Page returns up to limit posts after the cursor using keyset pagination
// on (date, id).
func (s *PostStore) Page(ctx context.Context, after *models.Post, limit int) ([]models.Post, error) {
	if after == nil {
		return s.queryPosts(ctx, "page posts", `
			SELECT `+postColumns+` FROM posts
			WHERE slug <> ''
			ORDER BY date DESC, id DESC
			LIMIT $1`, limit)
	}
	return s.queryPosts(ctx, "page posts", `
		SELECT `+postColumns+` FROM posts
		WHERE slug <> '' AND (date, id) < ($1, $2::uuid)
		ORDER BY date DESC, id DESC
		LIMIT $3`, after.Date, after.ID, limit)
}

// FindByID retrieves a post by ID. Returns nil if not found.
func (s *PostStore) FindByID(ctx context.Context, id string) (*models.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	return s.findOne(ctx, "find post by id", `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
}

// FindBySlug retrieves a post through the unique slug index. Returns nil
// if not found.
func (s *PostStore) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.findOne(ctx, "find post by slug", `SELECT `+postColumns+` FROM posts WHERE slug = $1`, slug)
}

func (s *PostStore) findOne(ctx context.Context, what, query string, arg string) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid row %s: %w", what, p.ID, err)
	}
	return p, nil
}

// SlugTaken reports whether a post other than exceptID uses slug.
func (s *PostStore) SlugTaken(ctx context.Context, slug, exceptID string) (bool, error) {
	var taken bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1 AND id::text <> $2)`,
		slug, exceptID,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check post slug: %w", err)
	}
	return taken, nil
}

// MissingSlugs returns posts written before slugs were stored.
func (s *PostStore) MissingSlugs(ctx context.Context) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = '' ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list posts missing slugs: %w", err)
	}
	defer rows.Close()

	var items []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// Create inserts a post and returns its ID. An empty slug is replaced
// with the new ID.
func (s *PostStore) Create(ctx context.Context, p *models.Post) (string, error) {
	id := uuid.New().String()
	slug := p.Slug
	if slug == "" {
		slug = id
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, title, slug, content, content_html, date, image, category_id, category_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, p.Title, slug, p.Content, p.ContentHTML, p.Date, p.Image, p.CategoryID, p.CategoryName,
	)
	if isUniqueViolation(err) {
		return "", models.ErrSlugTaken
	}
	if err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}
	return id, nil
}

// Update writes the non-nil fields of u to post id.
func (s *PostStore) Update(ctx context.Context, id string, u models.PostUpdate) error {
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrNotFound
	}

	var sets []string
	var args []any
	add := func(col string, v *string) {
		if v == nil {
			return
		}
		args = append(args, *v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	add("title", u.Title)
	add("slug", u.Slug)
	add("content", u.Content)
	add("content_html", u.ContentHTML)
	add("image", u.Image)
	add("category_id", u.CategoryID)
	add("category_name", u.CategoryName)
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE posts SET `+strings.Join(sets, ", ")+` WHERE id = $`+strconv.Itoa(len(args)),
		args...,
	)
	if isUniqueViolation(err) {
		return models.ErrSlugTaken
	}
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return expectOneRow(res, "update post")
}

// Delete removes a post by ID.
func (s *PostStore) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return expectOneRow(res, "delete post")
}

func expectOneRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", what, err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
