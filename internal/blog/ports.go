package blog

import (
	"context"

	"portfolio/internal/models"
)

// PostRepository is the document-store contract the service needs for posts.
// Find methods return (nil, nil) when the document does not exist; Update
// and Delete return models.ErrNotFound. Create and Update return
// models.ErrSlugTaken when the slug collides with another post.
type PostRepository interface {
	// List returns every post ordered by date descending, id descending.
	List(ctx context.Context) ([]models.Post, error)
	// Page returns up to limit posts ordered after the cursor post in the
	// same order as List. A nil cursor starts at the newest post.
	Page(ctx context.Context, after *models.Post, limit int) ([]models.Post, error)
	FindByID(ctx context.Context, id string) (*models.Post, error)
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	// SlugTaken reports whether a post other than exceptID uses slug.
	SlugTaken(ctx context.Context, slug, exceptID string) (bool, error)
	// MissingSlugs returns posts stored before slugs were persisted.
	MissingSlugs(ctx context.Context) ([]models.Post, error)
	// Create stores p and returns its new ID. An empty p.Slug is replaced
	// by the assigned ID.
	Create(ctx context.Context, p *models.Post) (string, error)
	Update(ctx context.Context, id string, u models.PostUpdate) error
	Delete(ctx context.Context, id string) error
}

// CategoryRepository is the document-store contract for categories.
type CategoryRepository interface {
	// List returns categories in insertion order.
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id string) (*models.Category, error)
	Create(ctx context.Context, name string) (string, error)
	// DeleteCascade reassigns every post in category id to the replacement
	// category and deletes category id as one atomic unit. It returns the
	// number of reassigned posts, or models.ErrNotFound (with nothing
	// changed) when the category does not exist.
	DeleteCascade(ctx context.Context, id string, replacement models.Category) (int64, error)
}
