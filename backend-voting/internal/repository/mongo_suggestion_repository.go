package repository

import (
	"context"
	"fmt"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-voting/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/mongodb"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/telemetry"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SuggestionsCollection is the MongoDB collection holding DJ suggestions
const SuggestionsCollection = "dj_suggestions"

// MongoSuggestionRepository implements SuggestionRepository using MongoDB
type MongoSuggestionRepository struct {
	coll *mongo.Collection
}

// NewMongoSuggestionRepository creates a new MongoSuggestionRepository
func NewMongoSuggestionRepository(db *mongodb.DB) *MongoSuggestionRepository {
	return &MongoSuggestionRepository{coll: db.Collection(SuggestionsCollection)}
}

// EnsureIndexes makes normalized names unique per period
func (r *MongoSuggestionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "period_id", Value: 1}, {Key: "name_key", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_period_name"),
	})
	if err != nil {
		return fmt.Errorf("failed to create suggestion indexes: %w", err)
	}
	return nil
}

func (r *MongoSuggestionRepository) Create(ctx context.Context, s *domain.Suggestion) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.mongo.suggestion.create")
	defer span.End()

	if _, err := r.coll.InsertOne(ctx, s); err != nil {
		if mongodb.IsDuplicateKey(err) {
			return domain.ErrDuplicateDJ
		}
		telemetry.SetSpanError(ctx, err)
		return domain.Transient("dj_suggestions.insert", err)
	}
	return nil
}

func (r *MongoSuggestionRepository) GetByID(ctx context.Context, periodID, id string) (*domain.Suggestion, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.mongo.suggestion.get_by_id")
	defer span.End()

	var s domain.Suggestion
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}, {Key: "period_id", Value: periodID}}).Decode(&s)
	if err != nil {
		if mongodb.IsNotFound(err) {
			return nil, domain.ErrDJNotFound
		}
		telemetry.SetSpanError(ctx, err)
		return nil, domain.Transient("dj_suggestions.find", err)
	}
	return &s, nil
}

func (r *MongoSuggestionRepository) ListByPeriod(ctx context.Context, periodID string) ([]*domain.Suggestion, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.mongo.suggestion.list")
	defer span.End()

	cursor, err := r.coll.Find(ctx,
		bson.M{"period_id": periodID},
		options.Find().SetSort(bson.D{{Key: "name_key", Value: 1}}),
	)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, domain.Transient("dj_suggestions.find", err)
	}
	defer cursor.Close(ctx)

	suggestions := []*domain.Suggestion{}
	if err := cursor.All(ctx, &suggestions); err != nil {
		return nil, domain.Transient("dj_suggestions.decode", err)
	}
	return suggestions, nil
}

// Ensure MongoSuggestionRepository implements SuggestionRepository
var _ SuggestionRepository = (*MongoSuggestionRepository)(nil)
