package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/timeline-globe/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrPostNotFound is returned when no post matches the given id.
	ErrPostNotFound = errors.New("post not found")
	// ErrVersionConflict is returned by SwapVotes when the post changed since it was read.
	ErrVersionConflict = errors.New("post version conflict")
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	FindPosts(ctx context.Context, filter models.PostFilter) ([]models.Post, error)
	// UpdatePost applies patch to the post only if it is owned by authorID.
	UpdatePost(ctx context.Context, id string, authorID uint, patch models.PostPatch) (*models.Post, error)
	// DeletePost removes the post only if it is owned by authorID.
	DeletePost(ctx context.Context, id string, authorID uint) error
	// SwapVotes replaces the tally and vote records in one write if the
	// stored version still equals expectedVersion, and bumps the version.
	SwapVotes(ctx context.Context, id string, expectedVersion int64, votes models.VoteTally, userVotes []models.UserVote) (*models.Post, error)
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts"), now: time.Now}
}

// EnsureIndexes creates the spherical index used by proximity queries and
// the indexes backing the year/recency sort.
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "location.point", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "year", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create post indexes: %w", err)
	}
	return nil
}

// CreatePost creates a new post in MongoDB
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	if post.UserVotes == nil {
		post.UserVotes = []models.UserVote{}
	}
	if post.Media == nil {
		post.Media = []models.Media{}
	}
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrPostNotFound
	}

	var post models.Post
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// FindPosts runs a year/proximity filtered query. Without a proximity filter
// results are most recent first; with one they are nearest first, then most
// recent, then by id.
func (r *MongoPostRepository) FindPosts(ctx context.Context, filter models.PostFilter) ([]models.Post, error) {
	query := bson.D{}
	if filter.Year != nil {
		query = append(query, bson.E{Key: "year", Value: *filter.Year})
	}

	var (
		cursor *mongo.Cursor
		err    error
	)
	if filter.Near != nil {
		geoNear := bson.D{
			{Key: "near", Value: bson.D{
				{Key: "type", Value: models.GeoJSONPoint},
				{Key: "coordinates", Value: bson.A{filter.Near.Lng(), filter.Near.Lat()}},
			}},
			{Key: "key", Value: "location.point"},
			{Key: "distanceField", Value: "distance"},
			{Key: "maxDistance", Value: filter.RadiusMeters},
			{Key: "spherical", Value: true},
			{Key: "query", Value: query},
		}
		pipeline := mongo.Pipeline{
			{{Key: "$geoNear", Value: geoNear}},
			{{Key: "$sort", Value: bson.D{{Key: "distance", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		}
		if filter.Skip > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$skip", Value: filter.Skip}})
		}
		if filter.Limit > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$limit", Value: filter.Limit}})
		}
		cursor, err = r.collection.Aggregate(ctx, pipeline)
	} else {
		findOptions := options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
			SetSkip(filter.Skip)
		if filter.Limit > 0 {
			findOptions.SetLimit(filter.Limit)
		}
		cursor, err = r.collection.Find(ctx, query, findOptions)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdatePost updates the mutable fields of a post owned by authorID.
func (r *MongoPostRepository) UpdatePost(ctx context.Context, id string, authorID uint, patch models.PostPatch) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrPostNotFound
	}

	set := bson.M{"updated_at": r.now()}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}
	if patch.Location != nil {
		set["location"] = *patch.Location
	}
	if patch.Year != nil {
		set["year"] = *patch.Year
	}
	if patch.Media != nil {
		set["media"] = patch.Media
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var post models.Post
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objID, "author": authorID}, bson.M{"$set": set}, opts).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// DeletePost deletes a post owned by authorID from MongoDB
func (r *MongoPostRepository) DeletePost(ctx context.Context, id string, authorID uint) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrPostNotFound
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID, "author": authorID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

// SwapVotes writes the tally and the vote records together, guarded by the
// document version. Documents written before versioning count as version 0.
func (r *MongoPostRepository) SwapVotes(ctx context.Context, id string, expectedVersion int64, votes models.VoteTally, userVotes []models.UserVote) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrPostNotFound
	}

	filter := bson.M{"_id": objID, "version": expectedVersion}
	if expectedVersion == 0 {
		filter = bson.M{"_id": objID, "$or": bson.A{
			bson.M{"version": 0},
			bson.M{"version": bson.M{"$exists": false}},
		}}
	}
	if userVotes == nil {
		userVotes = []models.UserVote{}
	}
	update := bson.M{
		"$set": bson.M{
			"votes":      votes,
			"user_votes": userVotes,
			"updated_at": r.now(),
		},
		"$inc": bson.M{"version": 1},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var post models.Post
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrVersionConflict
		}
		return nil, err
	}
	return &post, nil
}
