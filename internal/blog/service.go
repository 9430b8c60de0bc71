// Package blog is the data-access layer for posts and categories. It derives
// rendered HTML and slugs, denormalizes category names, and classifies
// backend failures into apperr kinds. Persistence is delegated to a
// PostRepository and CategoryRepository supplied by the caller.
package blog

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"portfolio/internal/apperr"
	"portfolio/internal/markdown"
	"portfolio/internal/models"
	"portfolio/internal/slug"
)

// maxSlugSuffix bounds the -N disambiguator search for colliding titles.
const maxSlugSuffix = 100

// slugRetries is how many times a write is retried when a concurrent
// writer claims the chosen slug between the check and the write.
const slugRetries = 3

// PostInput is the editor submission for a new post.
type PostInput struct {
	Title      string `validate:"required,max=200"`
	Content    string `validate:"required"`
	Image      string `validate:"omitempty,url"`
	CategoryID string `validate:"required"`
}

// PostUpdateInput is a partial edit. Nil fields are left untouched; an
// empty Image clears the featured image.
type PostUpdateInput struct {
	Title      *string
	Content    *string
	Image      *string
	CategoryID *string
}

// Service implements the post and category operations.
type Service struct {
	posts      PostRepository
	categories CategoryRepository
	validate   *validator.Validate
	now        func() time.Time
}

// NewService returns a Service backed by the given repositories.
func NewService(posts PostRepository, categories CategoryRepository) *Service {
	return &Service{
		posts:      posts,
		categories: categories,
		validate:   validator.New(),
		now:        time.Now,
	}
}

// SetClock overrides the time source used to stamp new posts.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// ListPosts returns all posts, newest first.
func (s *Service) ListPosts(ctx context.Context) ([]models.Post, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, "blog.ListPosts", err, "Could not load posts.")
	}
	slices.SortStableFunc(posts, newestFirst)
	return posts, nil
}

// PostsPage returns up to pageSize posts following cursor. A nil cursor
// returns the first page; fewer than pageSize results means the last page.
func (s *Service) PostsPage(ctx context.Context, cursor *models.Post, pageSize int) ([]models.Post, error) {
	if pageSize <= 0 {
		return nil, apperr.New(apperr.ValidationFailed, "blog.PostsPage", "Page size must be positive.")
	}
	posts, err := s.posts.Page(ctx, cursor, pageSize)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, "blog.PostsPage", err, "Could not load posts.")
	}
	return posts, nil
}

// PostsPageAfter resolves the cursor by post ID and returns the next page.
// An empty afterID returns the first page.
func (s *Service) PostsPageAfter(ctx context.Context, afterID string, pageSize int) ([]models.Post, error) {
	if afterID == "" {
		return s.PostsPage(ctx, nil, pageSize)
	}
	cursor, err := s.posts.FindByID(ctx, afterID)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, "blog.PostsPageAfter", err, "Could not load posts.")
	}
	if cursor == nil {
		return nil, apperr.New(apperr.NotFound, "blog.PostsPageAfter", "The page cursor no longer exists.")
	}
	return s.PostsPage(ctx, cursor, pageSize)
}

// PostBySlug returns the post stored under slug.
func (s *Service) PostBySlug(ctx context.Context, postSlug string) (*models.Post, error) {
	const op = "blog.PostBySlug"
	if !slug.Valid(postSlug) {
		return nil, apperr.New(apperr.NotFound, op, "Post not found.")
	}
	p, err := s.posts.FindBySlug(ctx, postSlug)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, op, err, "Could not load the post.")
	}
	if p == nil {
		return nil, apperr.New(apperr.NotFound, op, "Post not found.")
	}
	return p, nil
}

// PostByID returns the post with the given ID.
func (s *Service) PostByID(ctx context.Context, id string) (*models.Post, error) {
	const op = "blog.PostByID"
	p, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, op, err, "Could not load the post.")
	}
	if p == nil {
		return nil, apperr.New(apperr.NotFound, op, "Post not found.")
	}
	return p, nil
}

// CreatePost renders the content, resolves the category name, picks a
// unique slug, stamps the current time, and stores the post.
func (s *Service) CreatePost(ctx context.Context, in PostInput) (*models.Post, error) {
	const op = "blog.CreatePost"
	in.Title = strings.TrimSpace(in.Title)
	in.Image = strings.TrimSpace(in.Image)
	if err := s.validate.Struct(in); err != nil {
		return nil, apperr.Wrap(apperr.ValidationFailed, op, err, ValidationMessage(err))
	}

	cat, err := s.resolveCategory(ctx, op, in.CategoryID)
	if err != nil {
		return nil, err
	}
	html, err := markdown.ToHTML(in.Content)
	if err != nil {
		return nil, apperr.Wrap(apperr.ValidationFailed, op, err, "Could not render the post content.")
	}

	p := &models.Post{
		Title:        in.Title,
		Content:      in.Content,
		ContentHTML:  html,
		Date:         s.now().UTC(),
		Image:        in.Image,
		CategoryID:   cat.ID,
		CategoryName: cat.Name,
	}

	for attempt := 0; ; attempt++ {
		p.Slug, err = s.uniqueSlug(ctx, op, p.Title, "")
		if err != nil {
			return nil, err
		}
		id, err := s.posts.Create(ctx, p)
		if errors.Is(err, models.ErrSlugTaken) && attempt < slugRetries {
			continue
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.StoreUnavailable, op, err, "Could not publish the post.")
		}
		p.ID = id
		if p.Slug == "" {
			p.Slug = id
		}
		return p, nil
	}
}

// UpdatePost applies a partial edit. The publish date is preserved; the
// slug is regenerated only when the title changes; the HTML is recomputed
// whenever content is supplied. It returns the post as stored.
func (s *Service) UpdatePost(ctx context.Context, id string, in PostUpdateInput) (*models.Post, error) {
	const op = "blog.UpdatePost"

	existing, err := s.PostByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var u models.PostUpdate
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperr.New(apperr.ValidationFailed, op, "Title is required.")
		}
		if title != existing.Title {
			u.Title = &title
		}
	}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return nil, apperr.New(apperr.ValidationFailed, op, "Content is required.")
		}
		html, err := markdown.ToHTML(*in.Content)
		if err != nil {
			return nil, apperr.Wrap(apperr.ValidationFailed, op, err, "Could not render the post content.")
		}
		u.Content = in.Content
		u.ContentHTML = &html
	}
	if in.Image != nil {
		img := strings.TrimSpace(*in.Image)
		if img != "" {
			if err := s.validate.Var(img, "url"); err != nil {
				return nil, apperr.Wrap(apperr.ValidationFailed, op, err, "Image must be a URL.")
			}
		}
		u.Image = &img
	}
	if in.CategoryID != nil && *in.CategoryID != existing.CategoryID {
		cat, err := s.resolveCategory(ctx, op, *in.CategoryID)
		if err != nil {
			return nil, err
		}
		u.CategoryID = &cat.ID
		u.CategoryName = &cat.Name
	}

	if u.Empty() {
		return existing, nil
	}

	for attempt := 0; ; attempt++ {
		if u.Title != nil {
			newSlug, err := s.uniqueSlug(ctx, op, *u.Title, id)
			if err != nil {
				return nil, err
			}
			u.Slug = &newSlug
		}
		err = s.posts.Update(ctx, id, u)
		if errors.Is(err, models.ErrSlugTaken) && attempt < slugRetries {
			continue
		}
		if errors.Is(err, models.ErrNotFound) {
			return nil, apperr.Wrap(apperr.NotFound, op, err, "Post not found.")
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.StoreUnavailable, op, err, "Could not save the post.")
		}
		break
	}

	updated := *existing
	u.Apply(&updated)
	return &updated, nil
}

// DeletePost removes a post. Nothing else is affected.
func (s *Service) DeletePost(ctx context.Context, id string) error {
	const op = "blog.DeletePost"
	err := s.posts.Delete(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return apperr.Wrap(apperr.NotFound, op, err, "Post not found.")
	}
	if err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, op, err, "Could not delete the post.")
	}
	return nil
}

// ListCategories returns all categories in insertion order.
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, "blog.ListCategories", err, "Could not load categories.")
	}
	return cats, nil
}

// CategoryInput is the "add category" form.
type CategoryInput struct {
	Name string `validate:"required,max=100"`
}

// AddCategory creates a category. Duplicate names are allowed.
func (s *Service) AddCategory(ctx context.Context, name string) (string, error) {
	const op = "blog.AddCategory"
	in := CategoryInput{Name: strings.TrimSpace(name)}
	if err := s.validate.Struct(in); err != nil {
		return "", apperr.Wrap(apperr.ValidationFailed, op, err, ValidationMessage(err))
	}
	id, err := s.categories.Create(ctx, in.Name)
	if err != nil {
		return "", apperr.Wrap(apperr.StoreUnavailable, op, err, "Could not create the category.")
	}
	return id, nil
}

// DeleteCategory moves every post in the category to the Unknown sentinel
// and deletes the category, atomically. On any failure nothing changes.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	const op = "blog.DeleteCategory"
	if id == models.UnknownCategoryID {
		return apperr.New(apperr.ValidationFailed, op, "The Unknown category cannot be deleted.")
	}
	moved, err := s.categories.DeleteCascade(ctx, id, models.UnknownCategory())
	if errors.Is(err, models.ErrNotFound) {
		return apperr.Wrap(apperr.NotFound, op, err, "Category not found.")
	}
	if err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, op, err, "Could not delete the category. No changes were made.")
	}
	slog.Info("category deleted", "category_id", id, "posts_reassigned", moved)
	return nil
}

// BackfillSlugs stores a derived slug on every post that has none. It is
// safe to run repeatedly and returns the number of posts updated.
func (s *Service) BackfillSlugs(ctx context.Context) (int, error) {
	const op = "blog.BackfillSlugs"
	legacy, err := s.posts.MissingSlugs(ctx)
	if err != nil {
		return 0, apperr.Wrap(apperr.StoreUnavailable, op, err, "Could not list posts without slugs.")
	}

	n := 0
	for _, p := range legacy {
		newSlug, err := s.uniqueSlug(ctx, op, p.Title, p.ID)
		if err != nil {
			return n, err
		}
		if err := s.posts.Update(ctx, p.ID, models.PostUpdate{Slug: &newSlug}); err != nil {
			return n, apperr.Wrap(apperr.StoreUnavailable, op, err, "Could not store a post slug.")
		}
		n++
	}
	return n, nil
}

// uniqueSlug derives a slug from title and appends -2, -3, ... until no
// post other than exceptID uses it. An empty derivation falls back to
// exceptID; for new posts it returns "" and the store uses the new ID.
func (s *Service) uniqueSlug(ctx context.Context, op, title, exceptID string) (string, error) {
	base := slug.Generate(title)
	if base == "" {
		return exceptID, nil
	}
	for n := 1; n <= maxSlugSuffix; n++ {
		candidate := slug.WithSuffix(base, n)
		taken, err := s.posts.SlugTaken(ctx, candidate, exceptID)
		if err != nil {
			return "", apperr.Wrap(apperr.StoreUnavailable, op, err, "Could not check the post URL.")
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", apperr.New(apperr.ValidationFailed, op, "Too many posts share this title.")
}

func (s *Service) resolveCategory(ctx context.Context, op, id string) (models.Category, error) {
	if id == models.UnknownCategoryID {
		return models.UnknownCategory(), nil
	}
	cat, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return models.Category{}, apperr.Wrap(apperr.StoreUnavailable, op, err, "Could not load the category.")
	}
	if cat == nil {
		return models.Category{}, apperr.New(apperr.ValidationFailed, op, "The selected category does not exist.")
	}
	return *cat, nil
}

func newestFirst(a, b models.Post) int {
	if c := b.Date.Compare(a.Date); c != 0 {
		return c
	}
	return strings.Compare(b.ID, a.ID)
}

// ValidationMessage turns the first validator failure into a form notice.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid input."
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required."
	case "max":
		return fe.Field() + " is too long."
	case "url":
		return fe.Field() + " must be a URL."
	case "email":
		return fe.Field() + " must be a valid email address."
	case "min":
		return fe.Field() + " is too short."
	default:
		return fe.Field() + " is invalid."
	}
}

