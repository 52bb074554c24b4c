package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-voting/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/logger"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/mongodb"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/telemetry"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	// VotesCollection holds one document per (period, user, DJ)
	VotesCollection = "dj_votes"
	// QuotasCollection holds the number of votes each user has used per period
	QuotasCollection = "dj_vote_quotas"
)

// errQuotaRace is returned when two first votes of a user raced on the quota upsert
var errQuotaRace = errors.New("quota upsert raced")

// MongoVoteRepository implements VoteRepository using MongoDB. The per-user
// limit is kept in a quota document that is only incremented while below the
// limit, so concurrent votes cannot exceed it.
type MongoVoteRepository struct {
	votes  *mongo.Collection
	quotas *mongo.Collection
}

// NewMongoVoteRepository creates a new MongoVoteRepository
func NewMongoVoteRepository(db *mongodb.DB) *MongoVoteRepository {
	return &MongoVoteRepository{
		votes:  db.Collection(VotesCollection),
		quotas: db.Collection(QuotasCollection),
	}
}

// EnsureIndexes creates the one vote per (period, user, DJ) key and the tally index
func (r *MongoVoteRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.votes.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "period_id", Value: 1}, {Key: "user_id", Value: 1}, {Key: "dj_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_period_user_dj"),
		},
		{Keys: bson.D{{Key: "period_id", Value: 1}, {Key: "dj_id", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create vote indexes: %w", err)
	}
	return nil
}

func quotaID(periodID, userID string) string {
	return periodID + ":" + userID
}

// Cast takes one unit of the user's quota and then inserts the vote. A
// duplicate vote gives the unit back.
func (r *MongoVoteRepository) Cast(ctx context.Context, vote *domain.Vote, maxVotes int) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.mongo.vote.cast")
	defer span.End()

	span.SetAttributes(
		attribute.String("period_id", vote.PeriodID),
		attribute.String("dj_id", vote.DJID),
		attribute.Int("max_votes", maxVotes),
	)

	qid := quotaID(vote.PeriodID, vote.UserID)
	err := r.takeQuota(ctx, qid, vote, maxVotes)
	if errors.Is(err, errQuotaRace) {
		err = r.takeQuota(ctx, qid, vote, maxVotes)
	}
	if err != nil {
		if errors.Is(err, errQuotaRace) {
			err = domain.Transient("dj_vote_quotas.take", err)
		}
		if domain.IsTransientError(err) {
			telemetry.SetSpanError(ctx, err)
		}
		return err
	}

	if _, err := r.votes.InsertOne(ctx, vote); err != nil {
		r.releaseQuota(ctx, qid)
		if mongodb.IsDuplicateKey(err) {
			return domain.ErrAlreadyVoted
		}
		telemetry.SetSpanError(ctx, err)
		return domain.Transient("dj_votes.insert", err)
	}
	return nil
}

// takeQuota increments the quota while it is below maxVotes. The upsert fails
// with a duplicate key when the document exists at the limit, or when another
// first vote created it concurrently.
func (r *MongoVoteRepository) takeQuota(ctx context.Context, qid string, vote *domain.Vote, maxVotes int) error {
	_, err := r.quotas.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: qid}, {Key: "used", Value: bson.M{"$lt": maxVotes}}},
		bson.M{
			"$inc":         bson.M{"used": 1},
			"$setOnInsert": bson.M{"period_id": vote.PeriodID, "user_id": vote.UserID},
		},
		options.Update().SetUpsert(true),
	)
	if err == nil {
		return nil
	}
	if !mongodb.IsDuplicateKey(err) {
		return domain.Transient("dj_vote_quotas.take", err)
	}

	var quota struct {
		Used int `bson:"used"`
	}
	if err := r.quotas.FindOne(ctx, bson.M{"_id": qid}).Decode(&quota); err != nil {
		return domain.Transient("dj_vote_quotas.find", err)
	}
	if quota.Used >= maxVotes {
		return domain.ErrVoteLimitReached
	}
	return errQuotaRace
}

func (r *MongoVoteRepository) releaseQuota(ctx context.Context, qid string) {
	_, err := r.quotas.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: qid}, {Key: "used", Value: bson.M{"$gt": 0}}},
		bson.M{"$inc": bson.M{"used": -1}},
	)
	if err != nil {
		logger.Get().WarnContext(ctx, "failed to release vote quota",
			zap.String("quota_id", qid),
			zap.Error(err),
		)
	}
}

func (r *MongoVoteRepository) ListByUser(ctx context.Context, periodID, userID string) ([]*domain.Vote, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.mongo.vote.list_by_user")
	defer span.End()

	cursor, err := r.votes.Find(ctx,
		bson.D{{Key: "period_id", Value: periodID}, {Key: "user_id", Value: userID}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, domain.Transient("dj_votes.find", err)
	}
	defer cursor.Close(ctx)

	votes := []*domain.Vote{}
	if err := cursor.All(ctx, &votes); err != nil {
		return nil, domain.Transient("dj_votes.decode", err)
	}
	return votes, nil
}

// Tally groups the votes of a period by DJ with an aggregation pipeline
func (r *MongoVoteRepository) Tally(ctx context.Context, periodID string) ([]domain.Tally, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.mongo.vote.tally")
	defer span.End()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "period_id", Value: periodID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$dj_id"},
			{Key: "votes", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "first_vote", Value: bson.D{{Key: "$min", Value: "$created_at"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "votes", Value: -1}, {Key: "first_vote", Value: 1}, {Key: "_id", Value: 1}}}},
	}

	cursor, err := r.votes.Aggregate(ctx, pipeline)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, domain.Transient("dj_votes.aggregate", err)
	}
	defer cursor.Close(ctx)

	tallies := []domain.Tally{}
	if err := cursor.All(ctx, &tallies); err != nil {
		return nil, domain.Transient("dj_votes.decode", err)
	}
	span.SetAttributes(attribute.Int("djs", len(tallies)))
	return tallies, nil
}

// Ensure MongoVoteRepository implements VoteRepository
var _ VoteRepository = (*MongoVoteRepository)(nil)
