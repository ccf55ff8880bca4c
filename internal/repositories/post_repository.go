package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/spotlight/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetPostsByIDs(ctx context.Context, ids []string) (map[string]models.Post, error)
	ListPosts(ctx context.Context, filter models.PostFilter, skip, limit int64) ([]models.Post, int64, error)
	StorageIDInUse(ctx context.Context, storageID string) (bool, error)
	DeletePost(ctx context.Context, id string) error
	DeletePostsByUserID(ctx context.Context, userID uint) ([]models.Post, error)
	IncrementLikesCount(ctx context.Context, postID string, delta int) error
	IncrementCommentsCount(ctx context.Context, postID string, delta int) error
	EnsureIndexes(ctx context.Context) error
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// CreatePost creates a new post in MongoDB
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, post)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var post models.Post
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetPostsByIDs retrieves posts keyed by hex ID; unknown IDs are skipped
func (r *MongoPostRepository) GetPostsByIDs(ctx context.Context, ids []string) (map[string]models.Post, error) {
	result := make(map[string]models.Post, len(ids))
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if objID, err := primitive.ObjectIDFromHex(id); err == nil {
			objIDs = append(objIDs, objID)
		}
	}
	if len(objIDs) == 0 {
		return result, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	for _, p := range posts {
		result[p.ID.Hex()] = p
	}
	return result, nil
}

// ListPosts returns the posts matching f newest first
func (r *MongoPostRepository) ListPosts(ctx context.Context, f models.PostFilter, skip, limit int64) ([]models.Post, int64, error) {
	userID := bson.M{}
	if f.Authors != nil {
		if len(f.Authors) == 0 {
			return []models.Post{}, 0, nil
		}
		userID["$in"] = f.Authors
	}
	if len(f.ExcludeAuthors) > 0 {
		userID["$nin"] = f.ExcludeAuthors
	}
	filter := bson.M{}
	if len(userID) > 0 {
		filter["user_id"] = userID
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// StorageIDInUse reports whether a post already references the stored media
func (r *MongoPostRepository) StorageIDInUse(ctx context.Context, storageID string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"storage_id": storageID}, options.Count().SetLimit(1))
	return n > 0, err
}

// DeletePost deletes a post by ID from MongoDB
func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePostsByUserID deletes all posts of a user and returns them
func (r *MongoPostRepository) DeletePostsByUserID(ctx context.Context, userID uint) ([]models.Post, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	if _, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return nil, err
	}
	return posts, nil
}

// IncrementLikesCount adjusts the likes counter of a post
func (r *MongoPostRepository) IncrementLikesCount(ctx context.Context, postID string, delta int) error {
	return r.increment(ctx, postID, "likes", delta)
}

// IncrementCommentsCount adjusts the comments counter of a post
func (r *MongoPostRepository) IncrementCommentsCount(ctx context.Context, postID string, delta int) error {
	return r.increment(ctx, postID, "comments", delta)
}

func (r *MongoPostRepository) increment(ctx context.Context, postID, field string, delta int) error {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return fmt.Errorf("invalid post ID format: %w", err)
	}
	filter := bson.M{"_id": objID}
	if delta < 0 {
		// counters never go negative
		filter[field] = bson.M{"$gte": -delta}
	}
	_, err = r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{field: delta}})
	return err
}

// EnsureIndexes creates the indexes the feed and profile queries rely on
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "storage_id", Value: 1}}, Options: uniqueStorageID()},
	})
	return err
}

// uniqueStorageID makes storage_id unique among documents that carry one
func uniqueStorageID() *options.IndexOptions {
	return options.Index().
		SetUnique(true).
		SetPartialFilterExpression(bson.M{"storage_id": bson.M{"$gt": ""}})
}
