package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"portfolio/internal/models"
)

type categoryDoc struct {
	ID   primitive.ObjectID `bson:"_id,omitempty"`
	Name string             `bson:"name"`
}

// CategoryStore handles category persistence in MongoDB.
type CategoryStore struct {
	client     *mongo.Client
	categories *mongo.Collection
	posts      *mongo.Collection
}

// NewCategoryStore returns a CategoryStore on db.
func NewCategoryStore(db *mongo.Database) *CategoryStore {
	return &CategoryStore{
		client:     db.Client(),
		categories: db.Collection(categoriesCollection),
		posts:      db.Collection(postsCollection),
	}
}

// List returns categories in insertion order (ObjectIDs ascend with time).
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	cur, err := s.categories.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	var docs []categoryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list categories decode: %w", err)
	}

	items := make([]models.Category, 0, len(docs))
	for _, d := range docs {
		c := models.Category{ID: d.ID.Hex(), Name: d.Name}
		if err := c.Validate(); err != nil {
			slog.Warn("skipping invalid category document", "id", c.ID, "error", err)
			continue
		}
		items = append(items, c)
	}
	return items, nil
}

// FindByID retrieves a category by ObjectID hex. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id string) (*models.Category, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var d categoryDoc
	err = s.categories.FindOne(ctx, bson.M{"_id": oid}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return &models.Category{ID: d.ID.Hex(), Name: d.Name}, nil
}

// Create inserts a category and returns its ID.
func (s *CategoryStore) Create(ctx context.Context, name string) (string, error) {
	d := categoryDoc{ID: primitive.NewObjectID(), Name: name}
	if _, err := s.categories.InsertOne(ctx, d); err != nil {
		return "", fmt.Errorf("create category: %w", err)
	}
	return d.ID.Hex(), nil
}

// DeleteCascade deletes the category and reassigns its posts to
// replacement inside one transaction. Returning an error from the callback
// aborts the transaction, so a missing category leaves posts untouched.
func (s *CategoryStore) DeleteCascade(ctx context.Context, id string, replacement models.Category) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, models.ErrNotFound
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return 0, fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	moved, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		del, err := s.categories.DeleteOne(sc, bson.M{"_id": oid})
		if err != nil {
			return nil, fmt.Errorf("delete category %s: %w", id, err)
		}
		if del.DeletedCount == 0 {
			return nil, models.ErrNotFound
		}

		upd, err := s.posts.UpdateMany(sc,
			bson.M{"categoryId": id},
			bson.M{"$set": bson.M{"categoryId": replacement.ID, "categoryName": replacement.Name}},
		)
		if err != nil {
			return nil, fmt.Errorf("reassign posts of category %s: %w", id, err)
		}
		return upd.MatchedCount, nil
	})
	if err != nil {
		return 0, err
	}
	return moved.(int64), nil
}
