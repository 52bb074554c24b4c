package repository

import (
	"context"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-voting/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/mongodb"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/telemetry"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"
)

// RankingsCollection is the MongoDB collection holding ranking snapshots,
// keyed by period ID
const RankingsCollection = "dj_rankings"

// MongoRankingRepository implements RankingRepository using MongoDB
type MongoRankingRepository struct {
	coll *mongo.Collection
}

// NewMongoRankingRepository creates a new MongoRankingRepository
func NewMongoRankingRepository(db *mongodb.DB) *MongoRankingRepository {
	return &MongoRankingRepository{coll: db.Collection(RankingsCollection)}
}

// Replace upserts the snapshot unless a published one is stored. The upsert then
// collides on _id, which is reported as ErrInvalidTransition.
func (r *MongoRankingRepository) Replace(ctx context.Context, ranking *domain.Ranking) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.mongo.ranking.replace")
	defer span.End()

	span.SetAttributes(
		attribute.String("period_id", ranking.PeriodID),
		attribute.Int("entries", len(ranking.Entries)),
	)

	doc := *ranking
	doc.Published = false
	filter := bson.D{{Key: "_id", Value: ranking.PeriodID}, {Key: "published", Value: bson.M{"$ne": true}}}
	_, err := r.coll.ReplaceOne(ctx, filter, &doc, options.Replace().SetUpsert(true))
	if mongodb.IsDuplicateKey(err) {
		return domain.ErrInvalidTransition
	}
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return domain.Transient("dj_rankings.replace", err)
	}
	return nil
}

func (r *MongoRankingRepository) Publish(ctx context.Context, periodID, revision string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.mongo.ranking.publish")
	defer span.End()

	span.SetAttributes(attribute.String("period_id", periodID))

	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: periodID}, {Key: "revision", Value: revision}},
		bson.M{"$set": bson.M{"published": true}},
	)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return domain.Transient("dj_rankings.publish", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *MongoRankingRepository) Get(ctx context.Context, periodID string) (*domain.Ranking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.mongo.ranking.get")
	defer span.End()

	var ranking domain.Ranking
	if err := r.coll.FindOne(ctx, bson.M{"_id": periodID}).Decode(&ranking); err != nil {
		if mongodb.IsNotFound(err) {
			return nil, domain.ErrRankingNotFound
		}
		telemetry.SetSpanError(ctx, err)
		return nil, domain.Transient("dj_rankings.find", err)
	}
	if ranking.Entries == nil {
		ranking.Entries = []domain.RankingEntry{}
	}
	return &ranking, nil
}

// Ensure MongoRankingRepository implements RankingRepository
var _ RankingRepository = (*MongoRankingRepository)(nil)
