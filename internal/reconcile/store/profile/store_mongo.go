package profile

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/reconcile/models"
	"storefront/pkg/platform/sentinel"
)

const (
	DefaultCollection = "profiles"

	// Request-rate-too-large from Cosmos DB's Mongo API and Atlas serverless.
	codeTooManyRequests = 16500
	nameTooManyRequests = "TooManyRequests"
)

// MongoStore is the production ProfileStore. Email uniqueness is enforced by
// a unique index, see EnsureIndexes.
type MongoStore struct {
	coll *mongo.Collection
}

type MongoOption func(*mongoSettings)

type mongoSettings struct {
	collection string
}

// WithCollection overrides the collection name.
func WithCollection(name string) MongoOption {
	return func(s *mongoSettings) {
		if name != "" {
			s.collection = name
		}
	}
}

func NewMongo(db *mongo.Database, opts ...MongoOption) *MongoStore {
	settings := mongoSettings{collection: DefaultCollection}
	for _, opt := range opts {
		opt(&settings)
	}
	return &MongoStore{coll: db.Collection(settings.collection)}
}

// EnsureIndexes creates the unique email index. Idempotent.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create profile email index: %w", mapMongoError(err))
	}
	return nil
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*models.ProfileRecord, error) {
	var rec models.ProfileRecord
	err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&rec)
	if err != nil {
		return nil, fmt.Errorf("find profile by email: %w", mapMongoError(err))
	}
	return &rec, nil
}

func (s *MongoStore) Create(ctx context.Context, record *models.ProfileRecord) (*models.ProfileRecord, error) {
	if record == nil || record.ID == "" || record.Email == "" {
		return nil, sentinel.ErrInvalid
	}
	if _, err := s.coll.InsertOne(ctx, record); err != nil {
		return nil, fmt.Errorf("insert profile: %w", mapMongoError(err))
	}
	out := *record
	return &out, nil
}

func (s *MongoStore) Update(ctx context.Context, id string, patch models.ProfilePatch) (*models.ProfileRecord, error) {
	set := bson.M{}
	if patch.Phone != nil {
		set["phone"] = *patch.Phone
	}
	if patch.Address != nil {
		set["address"] = *patch.Address
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if !patch.UpdatedAt.IsZero() {
		set["updated_at"] = patch.UpdatedAt
	}
	if len(set) == 0 {
		var rec models.ProfileRecord
		if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
			return nil, fmt.Errorf("find profile: %w", mapMongoError(err))
		}
		return &rec, nil
	}

	var rec models.ProfileRecord
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rec)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", mapMongoError(err))
	}
	return &rec, nil
}

// Probe issues a metadata-only count, the cheapest read the collection
// offers, so a throttled account surfaces here before any credential is spent.
func (s *MongoStore) Probe(ctx context.Context) error {
	if _, err := s.coll.EstimatedDocumentCount(ctx); err != nil {
		return fmt.Errorf("probe profile store: %w", mapMongoError(err))
	}
	return nil
}

func mapMongoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return sentinel.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return sentinel.ErrConflict
	case isTooManyRequests(err):
		return fmt.Errorf("%w: %w", sentinel.ErrRateLimited, err)
	default:
		return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}
}

func isTooManyRequests(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Name == nameTooManyRequests {
		return true
	}
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) && serverErr.HasErrorCode(codeTooManyRequests) {
		return true
	}
	return false
}
