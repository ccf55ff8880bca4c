package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/spotlight/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StoryRepository defines the interface for story operations
type StoryRepository interface {
	CreateStory(ctx context.Context, story *models.Story) error
	GetStoryByID(ctx context.Context, id string) (*models.Story, error)
	StorageIDInUse(ctx context.Context, storageID string) (bool, error)
	GetActiveStoriesByUserIDs(ctx context.Context, userIDs []uint, now time.Time) ([]models.Story, error)
	GetExpiredStories(ctx context.Context, now time.Time, limit int64) ([]models.Story, error)
	DeleteStory(ctx context.Context, id string) error
	DeleteStories(ctx context.Context, ids []string) (int64, error)
	DeleteStoriesByUserID(ctx context.Context, userID uint) ([]models.Story, error)
	EnsureIndexes(ctx context.Context) error
}

type mongoStoryRepository struct {
	collection *mongo.Collection
}

// NewMongoStoryRepository creates a story repository on the stories collection
func NewMongoStoryRepository(db *mongo.Database) StoryRepository {
	return &mongoStoryRepository{collection: db.Collection("stories")}
}

// CreateStory inserts a story; the caller sets CreatedAt and ExpiresAt
func (r *mongoStoryRepository) CreateStory(ctx context.Context, story *models.Story) error {
	story.ID = primitive.NewObjectID()
	_, err := r.collection.InsertOne(ctx, story)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (r *mongoStoryRepository) StorageIDInUse(ctx context.Context, storageID string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"storage_id": storageID}, options.Count().SetLimit(1))
	return n > 0, err
}

func (r *mongoStoryRepository) GetStoryByID(ctx context.Context, id string) (*models.Story, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var story models.Story
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&story)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &story, nil
}

// GetActiveStoriesByUserIDs returns unexpired stories, oldest first so the viewer plays them in order
func (r *mongoStoryRepository) GetActiveStoriesByUserIDs(ctx context.Context, userIDs []uint, now time.Time) ([]models.Story, error) {
	if len(userIDs) == 0 {
		return []models.Story{}, nil
	}
	filter := bson.M{
		"user_id":    bson.M{"$in": userIDs},
		"expires_at": bson.M{"$gt": now},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	stories := []models.Story{}
	if err = cursor.All(ctx, &stories); err != nil {
		return nil, err
	}
	return stories, nil
}

func (r *mongoStoryRepository) GetExpiredStories(ctx context.Context, now time.Time, limit int64) ([]models.Story, error) {
	opts := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "expires_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"expires_at": bson.M{"$lte": now}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stories []models.Story
	if err = cursor.All(ctx, &stories); err != nil {
		return nil, err
	}
	return stories, nil
}

func (r *mongoStoryRepository) DeleteStory(ctx context.Context, id string) error {
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

func (r *mongoStoryRepository) DeleteStories(ctx context.Context, ids []string) (int64, error) {
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if objID, err := primitive.ObjectIDFromHex(id); err == nil {
			objIDs = append(objIDs, objID)
		}
	}
	if len(objIDs) == 0 {
		return 0, nil
	}
	res, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": objIDs}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *mongoStoryRepository) DeleteStoriesByUserID(ctx context.Context, userID uint) ([]models.Story, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stories []models.Story
	if err = cursor.All(ctx, &stories); err != nil {
		return nil, err
	}
	if _, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return nil, err
	}
	return stories, nil
}

func (r *mongoStoryRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "expires_at", Value: 1}}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}},
		{Keys: bson.D{{Key: "storage_id", Value: 1}}, Options: uniqueStorageID()},
	})
	return err
}
