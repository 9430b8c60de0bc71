// Package blogtest provides an in-memory document store implementing the
// blog repositories, with per-method failure injection for tests.
package blogtest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"portfolio/internal/models"
)

// Store holds posts and categories in memory. The zero value is not
// usable; call New.
type Store struct {
	mu         sync.Mutex
	posts      map[string]models.Post
	categories []models.Category
	nextID     int
	fail       map[string]error
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		posts: make(map[string]models.Post),
		fail:  make(map[string]error),
	}
}

// Fail makes every later call to method return err. Method names are
// "posts.List", "posts.Create", "categories.DeleteCascade", and so on.
// A nil err clears the injected failure.
func (s *Store) Fail(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, method)
		return
	}
	s.fail[method] = err
}

// Posts returns the post repository view of the store.
func (s *Store) Posts() *Posts { return &Posts{s: s} }

// Categories returns the category repository view of the store.
func (s *Store) Categories() *Categories { return &Categories{s: s} }

// Seed stores p as-is, assigning an ID when it has none. Slug derivation
// is skipped so legacy documents can be simulated.
func (s *Store) Seed(p models.Post) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = s.newID("post")
	}
	s.posts[p.ID] = p
	return p.ID
}

// AllPosts returns a snapshot of every stored post, newest first.
func (s *Store) AllPosts() []models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

// AllCategories returns a snapshot of every stored category.
func (s *Store) AllCategories() []models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Category(nil), s.categories...)
}

func (s *Store) newID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *Store) failure(method string) error {
	return s.fail[method]
}

func (s *Store) sortedLocked() []models.Post {
	out := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return before(out[i], out[j]) })
	return out
}

// before reports whether a sorts before b in newest-first order.
func before(a, b models.Post) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	return a.ID > b.ID
}

// Posts implements blog.PostRepository.
type Posts struct{ s *Store }

func (r *Posts) List(_ context.Context) ([]models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("posts.List"); err != nil {
		return nil, err
	}
	return r.s.sortedLocked(), nil
}

func (r *Posts) Page(_ context.Context, after *models.Post, limit int) ([]models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("posts.Page"); err != nil {
		return nil, err
	}
	var out []models.Post
	for _, p := range r.s.sortedLocked() {
		if after != nil && !before(*after, p) {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *Posts) FindByID(_ context.Context, id string) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("posts.FindByID"); err != nil {
		return nil, err
	}
	p, ok := r.s.posts[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *Posts) FindBySlug(_ context.Context, slug string) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("posts.FindBySlug"); err != nil {
		return nil, err
	}
	for _, p := range r.s.posts {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, nil
}

func (r *Posts) SlugTaken(_ context.Context, slug, exceptID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("posts.SlugTaken"); err != nil {
		return false, err
	}
	return r.slugTakenLocked(slug, exceptID), nil
}

func (r *Posts) slugTakenLocked(slug, exceptID string) bool {
	for id, p := range r.s.posts {
		if id != exceptID && p.Slug == slug {
			return true
		}
	}
	return false
}

func (r *Posts) MissingSlugs(_ context.Context) ([]models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("posts.MissingSlugs"); err != nil {
		return nil, err
	}
	var out []models.Post
	for _, p := range r.s.sortedLocked() {
		if p.Slug == "" {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *Posts) Create(_ context.Context, p *models.Post) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("posts.Create"); err != nil {
		return "", err
	}
	if p.Slug != "" && r.slugTakenLocked(p.Slug, "") {
		return "", models.ErrSlugTaken
	}
	doc := *p
	doc.ID = r.s.newID("post")
	if doc.Slug == "" {
		doc.Slug = doc.ID
	}
	r.s.posts[doc.ID] = doc
	return doc.ID, nil
}

func (r *Posts) Update(_ context.Context, id string, u models.PostUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("posts.Update"); err != nil {
		return err
	}
	p, ok := r.s.posts[id]
	if !ok {
		return models.ErrNotFound
	}
	if u.Slug != nil && r.slugTakenLocked(*u.Slug, id) {
		return models.ErrSlugTaken
	}
	u.Apply(&p)
	r.s.posts[id] = p
	return nil
}

func (r *Posts) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("posts.Delete"); err != nil {
		return err
	}
	if _, ok := r.s.posts[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.s.posts, id)
	return nil
}

// Categories implements blog.CategoryRepository.
type Categories struct{ s *Store }

func (r *Categories) List(_ context.Context) ([]models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("categories.List"); err != nil {
		return nil, err
	}
	return append([]models.Category(nil), r.s.categories...), nil
}

func (r *Categories) FindByID(_ context.Context, id string) (*models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("categories.FindByID"); err != nil {
		return nil, err
	}
	for _, c := range r.s.categories {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, nil
}

func (r *Categories) Create(_ context.Context, name string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("categories.Create"); err != nil {
		return "", err
	}
	c := models.Category{ID: r.s.newID("cat"), Name: name}
	r.s.categories = append(r.s.categories, c)
	return c.ID, nil
}

// DeleteCascade stages the reassignment and deletion on copies and swaps
// them in only when every step succeeded.
func (r *Categories) DeleteCascade(_ context.Context, id string, replacement models.Category) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	idx := -1
	for i, c := range r.s.categories {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, models.ErrNotFound
	}

	staged := make(map[string]models.Post, len(r.s.posts))
	var moved int64
	for pid, p := range r.s.posts {
		if p.CategoryID == id {
			p.CategoryID = replacement.ID
			p.CategoryName = replacement.Name
			moved++
		}
		staged[pid] = p
	}
	cats := append(append([]models.Category(nil), r.s.categories[:idx]...), r.s.categories[idx+1:]...)

	if err := r.s.failure("categories.DeleteCascade"); err != nil {
		return 0, err
	}

	r.s.posts = staged
	r.s.categories = cats
	return moved, nil
}
