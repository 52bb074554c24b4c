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
	"go.opentelemetry.io/otel/attribute"
)

// PeriodsCollection is the MongoDB collection holding voting periods
const PeriodsCollection = "voting_periods"

// MongoPeriodRepository implements PeriodRepository using MongoDB
type MongoPeriodRepository struct {
	coll *mongo.Collection
}

// NewMongoPeriodRepository creates a new MongoPeriodRepository
func NewMongoPeriodRepository(db *mongodb.DB) *MongoPeriodRepository {
	return &MongoPeriodRepository{coll: db.Collection(PeriodsCollection)}
}

// EnsureIndexes creates the unique (country, year) key
func (r *MongoPeriodRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "country", Value: 1}, {Key: "year", Value: -1}},
		Options: options.Index().SetUnique(true).SetName("uniq_country_year"),
	})
	if err != nil {
		return fmt.Errorf("failed to create voting period indexes: %w", err)
	}
	return nil
}

func (r *MongoPeriodRepository) Create(ctx context.Context, period *domain.VotingPeriod) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.mongo.period.create")
	defer span.End()

	if _, err := r.coll.InsertOne(ctx, period); err != nil {
		if mongodb.IsDuplicateKey(err) {
			return domain.ErrPeriodAlreadyExists
		}
		telemetry.SetSpanError(ctx, err)
		return domain.Transient("voting_periods.insert", err)
	}
	return nil
}

func (r *MongoPeriodRepository) GetByKey(ctx context.Context, country string, year int) (*domain.VotingPeriod, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.mongo.period.get_by_key")
	defer span.End()

	span.SetAttributes(attribute.String("country", country), attribute.Int("year", year))

	var period domain.VotingPeriod
	err := r.coll.FindOne(ctx, bson.D{{Key: "country", Value: country}, {Key: "year", Value: year}}).Decode(&period)
	if err != nil {
		if mongodb.IsNotFound(err) {
			return nil, domain.ErrPeriodNotFound
		}
		telemetry.SetSpanError(ctx, err)
		return nil, domain.Transient("voting_periods.find", err)
	}
	return &period, nil
}

func (r *MongoPeriodRepository) List(ctx context.Context, country string) ([]*domain.VotingPeriod, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.mongo.period.list")
	defer span.End()

	query := bson.D{}
	if country != "" {
		query = append(query, bson.E{Key: "country", Value: country})
	}
	opts := options.Find().SetSort(bson.D{{Key: "year", Value: -1}, {Key: "country", Value: 1}})

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, domain.Transient("voting_periods.find", err)
	}
	defer cursor.Close(ctx)

	periods := []*domain.VotingPeriod{}
	if err := cursor.All(ctx, &periods); err != nil {
		return nil, domain.Transient("voting_periods.decode", err)
	}
	return periods, nil
}

// ApplyChange is a compare-and-set on the state field. When nothing matches, a
// period that still exists lost the race and ErrInvalidTransition is returned.
func (r *MongoPeriodRepository) ApplyChange(ctx context.Context, change *domain.StateChange) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.mongo.period.apply_change")
	defer span.End()

	span.SetAttributes(
		attribute.String("period_id", change.PeriodID),
		attribute.String("action", change.Action.String()),
		attribute.String("to", string(change.To)),
	)

	set := bson.M{
		"state":      change.To,
		"updated_at": change.At,
		"updated_by": change.ActorID,
	}
	switch change.Action {
	case domain.ActionGenerateRanking:
		set["ranking_generated_at"] = change.At
	case domain.ActionPublishRanking:
		set["published_at"] = change.At
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: change.PeriodID}, {Key: "state", Value: bson.M{"$in": change.From}}},
		bson.M{"$set": set},
	)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return domain.Transient("voting_periods.apply_change", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": change.PeriodID}, options.Count().SetLimit(1))
	if err != nil {
		return domain.Transient("voting_periods.count", err)
	}
	if n == 0 {
		return domain.ErrPeriodNotFound
	}
	return domain.ErrInvalidTransition
}

// Ensure MongoPeriodRepository implements PeriodRepository
var _ PeriodRepository = (*MongoPeriodRepository)(nil)
