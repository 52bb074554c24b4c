package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/telemetry"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const orderColumns = `
	id, tenant_id, user_id, status, payment_status, payment_method, payment_reference,
	shipping_address, shipping_cost, total_amount, currency, notes, tracking_number,
	expected_delivery_date, order_date, updated_at, reviewed_by, reviewed_at`

// PostgresOrderRepository implements OrderRepository using PostgreSQL with pgxpool
type PostgresOrderRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresOrderRepository creates a new PostgresOrderRepository
func NewPostgresOrderRepository(pool *pgxpool.Pool) *PostgresOrderRepository {
	return &PostgresOrderRepository{pool: pool}
}

// Create inserts the order with its items and the initial history row
func (r *PostgresOrderRepository) Create(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.order.create")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", order.ID),
		attribute.String("user_id", order.UserID),
		attribute.Int("items", len(order.Items)),
	)

	_, err := tx.Exec(ctx, `
		INSERT INTO orders (
			id, tenant_id, user_id, status, payment_status, payment_method,
			shipping_address, shipping_cost, total_amount, currency, notes,
			order_date, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		order.ID,
		nullString(order.TenantID),
		order.UserID,
		order.Status.String(),
		order.PaymentStatus.String(),
		order.PaymentMethod,
		order.ShippingAddress,
		order.ShippingCost,
		order.TotalAmount,
		order.Currency,
		nullString(order.Notes),
		order.OrderDate,
		order.UpdatedAt,
	)
	if err != nil {
		return fail(span, "repo.order.create", err)
	}

	for _, it := range order.Items {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, variant_id, name, quantity, price_per_unit, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, it.ID, order.ID, it.ProductID, nullString(it.VariantID), it.Name, it.Quantity, it.PricePerUnit, it.Subtotal)
		if err != nil {
			return fail(span, "repo.order.create_item", err)
		}
	}

	if err := insertHistory(ctx, tx, &domain.StatusHistoryEntry{
		OrderID:   order.ID,
		Kind:      domain.HistoryKindStatus,
		To:        order.Status.String(),
		ActorID:   order.UserID,
		CreatedAt: order.OrderDate,
	}); err != nil {
		return fail(span, "repo.order.create_history", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByID retrieves an order with its items
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.order.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("order_id", id))

	if !isUUID(id) {
		span.SetStatus(codes.Error, "not found")
		return nil, domain.ErrOrderNotFound
	}

	order, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrOrderNotFound
		}
		return nil, fail(span, "repo.order.get", err)
	}

	if err := r.attachItems(ctx, map[string]*domain.Order{order.ID: order}); err != nil {
		return nil, fail(span, "repo.order.items", err)
	}

	span.SetStatus(codes.Ok, "")
	return order, nil
}

// List returns a page of orders, newest first
func (r *PostgresOrderRepository) List(ctx context.Context, filter *domain.OrderFilter) ([]*domain.Order, int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.order.list")
	defer span.End()

	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.UserID != "" {
		add("user_id = $%d", filter.UserID)
	}
	if filter.TenantID != "" {
		add("tenant_id = $%d", filter.TenantID)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status.String())
	}
	if filter.PaymentStatus != "" {
		add("payment_status = $%d", filter.PaymentStatus.String())
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, fail(span, "repo.order.count", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY order_date DESC LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fail(span, "repo.order.list", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0, filter.Limit)
	byID := make(map[string]*domain.Order, filter.Limit)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fail(span, "repo.order.list", err)
		}
		orders = append(orders, o)
		byID[o.ID] = o
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fail(span, "repo.order.list", err)
	}

	if err := r.attachItems(ctx, byID); err != nil {
		return nil, 0, fail(span, "repo.order.items", err)
	}

	span.SetAttributes(attribute.Int64("total", total))
	span.SetStatus(codes.Ok, "")
	return orders, total, nil
}

// UpdateStatus applies a fulfilment change guarded by the expected current status.
// A row that moved on since it was read yields ErrConcurrentUpdate.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, change *domain.StatusChange) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.order.update_status")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", change.OrderID),
		attribute.String("from", change.From.String()),
		attribute.String("to", change.To.String()),
	)

	reviewedAt := reviewStamp(change.ActorID, change.At)

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE orders
			SET status = $3,
				updated_at = $4,
				tracking_number = COALESCE($5, tracking_number),
				expected_delivery_date = COALESCE($6, expected_delivery_date),
				reviewed_by = COALESCE($7, reviewed_by),
				reviewed_at = COALESCE($8, reviewed_at)
			WHERE id = $1 AND status = $2
		`,
			change.OrderID,
			change.From.String(),
			change.To.String(),
			change.At,
			nullString(change.TrackingNumber),
			change.ExpectedDeliveryDate,
			nullString(change.ActorID),
			reviewedAt,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return lostUpdate(ctx, tx, change.OrderID)
		}

		return insertHistory(ctx, tx, &domain.StatusHistoryEntry{
			OrderID:   change.OrderID,
			Kind:      domain.HistoryKindStatus,
			From:      change.From.String(),
			To:        change.To.String(),
			ActorID:   change.ActorID,
			Notes:     change.Notes,
			CreatedAt: change.At,
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) || errors.Is(err, domain.ErrConcurrentUpdate) {
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		return fail(span, "repo.order.update_status", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// UpdatePaymentStatus applies a payment change guarded by the expected payment status
func (r *PostgresOrderRepository) UpdatePaymentStatus(ctx context.Context, change *domain.PaymentChange) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.order.update_payment_status")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", change.OrderID),
		attribute.String("from", change.From.String()),
		attribute.String("to", change.To.String()),
	)

	reviewedAt := reviewStamp(change.ActorID, change.At)

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE orders
			SET payment_status = $3,
				updated_at = $4,
				payment_reference = COALESCE($5, payment_reference),
				reviewed_by = COALESCE($6, reviewed_by),
				reviewed_at = COALESCE($7, reviewed_at)
			WHERE id = $1 AND payment_status = $2
		`,
			change.OrderID,
			change.From.String(),
			change.To.String(),
			change.At,
			nullString(change.Reference),
			nullString(change.ActorID),
			reviewedAt,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return lostUpdate(ctx, tx, change.OrderID)
		}

		return insertHistory(ctx, tx, &domain.StatusHistoryEntry{
			OrderID:   change.OrderID,
			Kind:      domain.HistoryKindPayment,
			From:      change.From.String(),
			To:        change.To.String(),
			ActorID:   change.ActorID,
			Notes:     change.Reference,
			CreatedAt: change.At,
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) || errors.Is(err, domain.ErrConcurrentUpdate) {
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		return fail(span, "repo.order.update_payment_status", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// History returns the audit trail of an order, oldest first
func (r *PostgresOrderRepository) History(ctx context.Context, orderID string) ([]*domain.StatusHistoryEntry, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.order.history")
	defer span.End()

	span.SetAttributes(attribute.String("order_id", orderID))

	if !isUUID(orderID) {
		return []*domain.StatusHistoryEntry{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, kind, from_status, to_status, actor_id, notes, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY created_at, id
	`, orderID)
	if err != nil {
		return nil, fail(span, "repo.order.history", err)
	}
	defer rows.Close()

	entries := make([]*domain.StatusHistoryEntry, 0)
	for rows.Next() {
		var (
			e       domain.StatusHistoryEntry
			actorID *string
			notes   *string
		)
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Kind, &e.From, &e.To, &actorID, &notes, &e.CreatedAt); err != nil {
			return nil, fail(span, "repo.order.history", err)
		}
		e.ActorID = derefString(actorID)
		e.Notes = derefString(notes)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fail(span, "repo.order.history", err)
	}

	span.SetStatus(codes.Ok, "")
	return entries, nil
}

func (r *PostgresOrderRepository) attachItems(ctx context.Context, orders map[string]*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, 0, len(orders))
	for id := range orders {
		ids = append(ids, id)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, product_id, variant_id, name, quantity, price_per_unit, subtotal
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, name
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it        domain.OrderItem
			variantID *string
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &variantID, &it.Name, &it.Quantity, &it.PricePerUnit, &it.Subtotal); err != nil {
			return err
		}
		it.VariantID = derefString(variantID)
		if o, ok := orders[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

// lostUpdate tells a missing order apart from one whose status changed underneath us
func lostUpdate(ctx context.Context, tx pgx.Tx, orderID string) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrOrderNotFound
	}
	return domain.ErrConcurrentUpdate
}

func insertHistory(ctx context.Context, tx pgx.Tx, e *domain.StatusHistoryEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO order_status_history (id, order_id, kind, from_status, to_status, actor_id, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.OrderID, e.Kind, e.From, e.To, nullString(e.ActorID), nullString(e.Notes), e.CreatedAt)
	return err
}

// reviewStamp is the reviewed_at value for a change; nil keeps the column as is
func reviewStamp(actorID string, at time.Time) *time.Time {
	if actorID == "" {
		return nil
	}
	return &at
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o                domain.Order
		tenantID         *string
		status           string
		paymentStatus    string
		paymentReference *string
		notes            *string
		trackingNumber   *string
		reviewedBy       *string
	)
	err := row.Scan(
		&o.ID,
		&tenantID,
		&o.UserID,
		&status,
		&paymentStatus,
		&o.PaymentMethod,
		&paymentReference,
		&o.ShippingAddress,
		&o.ShippingCost,
		&o.TotalAmount,
		&o.Currency,
		&notes,
		&trackingNumber,
		&o.ExpectedDeliveryDate,
		&o.OrderDate,
		&o.UpdatedAt,
		&reviewedBy,
		&o.ReviewedAt,
	)
	if err != nil {
		return nil, err
	}
	o.TenantID = derefString(tenantID)
	o.Status = domain.OrderStatus(status)
	o.PaymentStatus = domain.PaymentStatus(paymentStatus)
	o.PaymentReference = derefString(paymentReference)
	o.Notes = derefString(notes)
	o.TrackingNumber = derefString(trackingNumber)
	o.ReviewedBy = derefString(reviewedBy)
	o.Items = []domain.OrderItem{}
	return &o, nil
}
