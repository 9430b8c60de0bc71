package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"portfolio/internal/models"
)

// postDoc is the stored shape of a post. Documents written before slugs
// were persisted have no slug field.
type postDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Title        string             `bson:"title"`
	Slug         string             `bson:"slug,omitempty"`
	Content      string             `bson:"content"`
	ContentHTML  string             `bson:"contentHtml"`
	Date         time.Time          `bson:"date"`
	Image        string             `bson:"image,omitempty"`
	CategoryID   string             `bson:"categoryId"`
	CategoryName string             `bson:"categoryName"`
}

func (d postDoc) toModel() models.Post {
	return models.Post{
		ID:           d.ID.Hex(),
		Title:        d.Title,
		Slug:         d.Slug,
		Content:      d.Content,
		ContentHTML:  d.ContentHTML,
		Date:         d.Date.UTC(),
		Image:        d.Image,
		CategoryID:   d.CategoryID,
		CategoryName: d.CategoryName,
	}
}

var newestFirst = bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}

// PostStore handles post persistence in MongoDB.
type PostStore struct {
	coll *mongo.Collection
}

// NewPostStore returns a PostStore on db's posts collection.
func NewPostStore(db *mongo.Database) *PostStore {
	return &PostStore{coll: db.Collection(postsCollection)}
}

func (s *PostStore) find(ctx context.Context, what string, filter any, opts *options.FindOptions) ([]models.Post, error) {
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	var docs []postDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s decode: %w", what, err)
	}

	items := make([]models.Post, 0, len(docs))
	for _, d := range docs {
		p := d.toModel()
		if err := p.Validate(); err != nil {
			slog.Warn("skipping invalid post document", "id", p.ID, "error", err)
			continue
		}
		items = append(items, p)
	}
	return items, nil
}

// List returns every post, newest first.
func (s *PostStore) List(ctx context.Context) ([]models.Post, error) {
	return s.find(ctx, "list posts", bson.M{}, options.Find().SetSort(newestFirst))
}

// Page returns up to limit posts after the cursor, ordered by (date, _id)
// descending.
func (s *PostStore) Page(ctx context.Context, after *models.Post, limit int) ([]models.Post, error) {
	filter := bson.M{}
	if after != nil {
		oid, err := primitive.ObjectIDFromHex(after.ID)
		if err != nil {
			return nil, fmt.Errorf("page posts: bad cursor id %q: %w", after.ID, err)
		}
		filter = bson.M{"$or": bson.A{
			bson.M{"date": bson.M{"$lt": after.Date}},
			bson.M{"date": after.Date, "_id": bson.M{"$lt": oid}},
		}}
	}
	opts := options.Find().SetSort(newestFirst).SetLimit(int64(limit))
	return s.find(ctx, "page posts", filter, opts)
}

// FindByID retrieves a post by ObjectID hex. Returns nil if not found.
func (s *PostStore) FindByID(ctx context.Context, id string) (*models.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return s.findOne(ctx, "find post by id", bson.M{"_id": oid})
}

// FindBySlug retrieves a post through the unique slug index. Returns nil
// if not found.
func (s *PostStore) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.findOne(ctx, "find post by slug", bson.M{"slug": slug})
}

func (s *PostStore) findOne(ctx context.Context, what string, filter bson.M) (*models.Post, error) {
	var d postDoc
	err := s.coll.FindOne(ctx, filter).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	p := d.toModel()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid document %s: %w", what, p.ID, err)
	}
	return &p, nil
}

// SlugTaken reports whether a post other than exceptID uses slug.
func (s *PostStore) SlugTaken(ctx context.Context, slug, exceptID string) (bool, error) {
	filter := bson.M{"slug": slug}
	if oid, err := primitive.ObjectIDFromHex(exceptID); err == nil {
		filter["_id"] = bson.M{"$ne": oid}
	}
	n, err := s.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check post slug: %w", err)
	}
	return n > 0, nil
}

// MissingSlugs returns posts stored without a slug field.
func (s *PostStore) MissingSlugs(ctx context.Context) ([]models.Post, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"slug": bson.M{"$exists": false}},
		bson.M{"slug": ""},
	}}
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("list posts missing slugs: %w", err)
	}
	var docs []postDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list posts missing slugs decode: %w", err)
	}
	items := make([]models.Post, len(docs))
	for i, d := range docs {
		items[i] = d.toModel()
	}
	return items, nil
}

// Create inserts a post and returns its ObjectID hex. An empty slug is
// replaced with the new ID.
func (s *PostStore) Create(ctx context.Context, p *models.Post) (string, error) {
	d := postDoc{
		ID:           primitive.NewObjectID(),
		Title:        p.Title,
		Slug:         p.Slug,
		Content:      p.Content,
		ContentHTML:  p.ContentHTML,
		Date:         p.Date,
		Image:        p.Image,
		CategoryID:   p.CategoryID,
		CategoryName: p.CategoryName,
	}
	if d.Slug == "" {
		d.Slug = d.ID.Hex()
	}
	_, err := s.coll.InsertOne(ctx, d)
	if mongo.IsDuplicateKeyError(err) {
		return "", models.ErrSlugTaken
	}
	if err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}
	return d.ID.Hex(), nil
}

// Update sets the non-nil fields of u on post id.
func (s *PostStore) Update(ctx context.Context, id string, u models.PostUpdate) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrNotFound
	}

	set := bson.M{}
	put := func(field string, v *string) {
		if v != nil {
			set[field] = *v
		}
	}
	put("title", u.Title)
	put("slug", u.Slug)
	put("content", u.Content)
	put("contentHtml", u.ContentHTML)
	put("image", u.Image)
	put("categoryId", u.CategoryID)
	put("categoryName", u.CategoryName)
	if len(set) == 0 {
		return nil
	}

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrSlugTaken
	}
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes a post by ID.
func (s *PostStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrNotFound
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
