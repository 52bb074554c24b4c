package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/logger"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/mongodb"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/telemetry"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// EventsCollection is the MongoDB collection holding events
const EventsCollection = "events"

// MongoEventRepository implements EventRepository using MongoDB
type MongoEventRepository struct {
	coll *mongo.Collection
}

// NewMongoEventRepository creates a new MongoEventRepository
func NewMongoEventRepository(db *mongodb.DB) *MongoEventRepository {
	return &MongoEventRepository{coll: db.Collection(EventsCollection)}
}

// EnsureIndexes creates the indexes the queries below rely on
func (r *MongoEventRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_slug")},
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "status", Value: 1}, {Key: "start_date", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "deleted_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create event indexes: %w", err)
	}
	return nil
}

// notDeleted matches documents without a deletion stamp
var notDeleted = bson.E{Key: "deleted_at", Value: bson.M{"$exists": false}}

// Create creates a new event
func (r *MongoEventRepository) Create(ctx context.Context, event *domain.Event) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.mongo.event.create")
	defer span.End()

	if _, err := r.coll.InsertOne(ctx, event); err != nil {
		if mongodb.IsDuplicateKey(err) {
			return domain.ErrEventAlreadyExists
		}
		telemetry.SetSpanError(ctx, err)
		return domain.Transient("events.insert", err)
	}
	return nil
}

// GetByID retrieves an event by ID
func (r *MongoEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	return r.findOne(ctx, "repo.mongo.event.get_by_id", bson.D{{Key: "_id", Value: id}, notDeleted})
}

// GetBySlug retrieves an event by slug
func (r *MongoEventRepository) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	return r.findOne(ctx, "repo.mongo.event.get_by_slug", bson.D{{Key: "slug", Value: slug}, notDeleted})
}

func (r *MongoEventRepository) findOne(ctx context.Context, spanName string, filter bson.D) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	var event domain.Event
	if err := r.coll.FindOne(ctx, filter).Decode(&event); err != nil {
		if mongodb.IsNotFound(err) {
			return nil, domain.ErrEventNotFound
		}
		telemetry.SetSpanError(ctx, err)
		return nil, domain.Transient("events.find", err)
	}
	return &event, nil
}

// Update replaces an event document
func (r *MongoEventRepository) Update(ctx context.Context, event *domain.Event) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.mongo.event.update")
	defer span.End()

	res, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: event.ID}, notDeleted}, event)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return domain.ErrEventAlreadyExists
		}
		telemetry.SetSpanError(ctx, err)
		return domain.Transient("events.replace", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

// Delete soft deletes an event by ID
func (r *MongoEventRepository) Delete(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, notDeleted},
		bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now}},
	)
	if err != nil {
		return domain.Transient("events.soft_delete", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

// List lists events with filters and pagination, newest start date last
func (r *MongoEventRepository) List(ctx context.Context, filter *EventFilter, limit, offset int) ([]*domain.Event, int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.mongo.event.list")
	defer span.End()

	query := buildEventQuery(filter)

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, 0, domain.Transient("events.count", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	events, err := r.find(ctx, query, opts)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, 0, err
	}

	span.SetAttributes(attribute.Int64("total", total))
	return events, total, nil
}

// ListPublished lists every published, non-deleted event
func (r *MongoEventRepository) ListPublished(ctx context.Context) ([]*domain.Event, error) {
	return r.find(ctx, bson.D{{Key: "status", Value: domain.EventStatusPublished}, notDeleted}, options.Find())
}

func (r *MongoEventRepository) find(ctx context.Context, query bson.D, opts *options.FindOptions) ([]*domain.Event, error) {
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, domain.Transient("events.find", err)
	}
	defer cursor.Close(ctx)

	events := []*domain.Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, domain.Transient("events.decode", err)
	}
	return events, nil
}

// SlugExists checks if a slug already exists, deleted events included
func (r *MongoEventRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, domain.Transient("events.count_slug", err)
	}
	return n > 0, nil
}

// ApplySales subtracts qty from the allotment of (phaseID, zoneID). The
// decrement only matches while at least qty remain; otherwise the allotment
// is floored at zero and the shortfall is logged. updated_at is left alone so
// that ModifiedCount reflects the allotment only.
func (r *MongoEventRepository) ApplySales(ctx context.Context, eventID, phaseID, zoneID string, qty int) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.mongo.event.apply_sales")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("phase_id", phaseID),
		attribute.String("zone_id", zoneID),
		attribute.Int("quantity", qty),
	)

	filter := bson.D{{Key: "_id", Value: eventID}}
	path := "sales_phases.$[p].zone_pricing.$[z].available"

	res, err := r.coll.UpdateOne(ctx, filter,
		bson.M{"$inc": bson.M{path: -qty}},
		options.Update().SetArrayFilters(options.ArrayFilters{Filters: []interface{}{
			bson.M{"p.id": phaseID},
			bson.M{"z.zone_id": zoneID, "z.available": bson.M{"$gte": qty}},
		}}),
	)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return false, domain.Transient("events.apply_sales", err)
	}
	if res.MatchedCount == 0 {
		return false, domain.ErrEventNotFound
	}
	if res.ModifiedCount == 1 {
		return false, nil
	}

	// Fewer than qty left, or the pricing entry does not exist
	res, err = r.coll.UpdateOne(ctx, filter,
		bson.M{"$set": bson.M{path: 0}},
		options.Update().SetArrayFilters(options.ArrayFilters{Filters: []interface{}{
			bson.M{"p.id": phaseID},
			bson.M{"z.zone_id": zoneID},
		}}),
	)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return false, domain.Transient("events.floor_sales", err)
	}
	if res.ModifiedCount == 0 {
		event, err := r.GetByID(ctx, eventID)
		if err != nil {
			return false, err
		}
		if phase, ok := event.Phase(phaseID); !ok {
			return false, domain.ErrPricingNotFound
		} else if _, ok := phase.Pricing(zoneID); !ok {
			return false, domain.ErrPricingNotFound
		}
	}

	logger.Get().WarnContext(ctx, "ticket sales exceeded persisted availability, floored at zero",
		zap.String("event_id", eventID),
		zap.String("phase_id", phaseID),
		zap.String("zone_id", zoneID),
		zap.Int("quantity", qty),
	)
	span.SetAttributes(attribute.Bool("floored", true))
	return true, nil
}

func buildEventQuery(filter *EventFilter) bson.D {
	query := bson.D{notDeleted}
	if filter == nil {
		return query
	}
	if filter.TenantID != "" {
		query = append(query, bson.E{Key: "tenant_id", Value: filter.TenantID})
	}
	if filter.OrganizerID != "" {
		query = append(query, bson.E{Key: "organizer_id", Value: filter.OrganizerID})
	}
	if filter.Status != "" {
		query = append(query, bson.E{Key: "status", Value: filter.Status})
	}
	if filter.City != "" {
		query = append(query, bson.E{Key: "city", Value: filter.City})
	}
	if filter.Country != "" {
		query = append(query, bson.E{Key: "country", Value: filter.Country})
	}
	if filter.Search != "" {
		pattern := regexp.QuoteMeta(filter.Search)
		query = append(query, bson.E{Key: "$or", Value: bson.A{
			bson.M{"name": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": pattern, "$options": "i"}},
		}})
	}
	return query
}

// Ensure MongoEventRepository implements EventRepository
var _ EventRepository = (*MongoEventRepository)(nil)
