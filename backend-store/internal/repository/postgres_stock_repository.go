package repository

import (
	"context"
	"errors"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/telemetry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PostgresStockRepository implements StockRepository on the catalog tables
type PostgresStockRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresStockRepository creates a new PostgresStockRepository
func NewPostgresStockRepository(pool *pgxpool.Pool) *PostgresStockRepository {
	return &PostgresStockRepository{pool: pool}
}

// GetStockLevels loads product stock for plain items and variant stock for variant items
func (r *PostgresStockRepository) GetStockLevels(ctx context.Context, items []domain.StockItem) ([]domain.StockLevel, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.stock.get_levels")
	defer span.End()

	span.SetAttributes(attribute.Int("items", len(items)))

	var productIDs, variantIDs []string
	for _, it := range items {
		if it.VariantID == "" {
			productIDs = append(productIDs, it.ProductID)
		} else {
			variantIDs = append(variantIDs, it.VariantID)
		}
	}

	productStock := make(map[string]int)
	if ids := validUUIDs(productIDs); len(ids) > 0 {
		rows, err := r.pool.Query(ctx, `SELECT id, stock FROM products WHERE id = ANY($1)`, ids)
		if err != nil {
			return nil, fail(span, "repo.stock.products", err)
		}
		for rows.Next() {
			var (
				id    string
				stock int
			)
			if err := rows.Scan(&id, &stock); err != nil {
				rows.Close()
				return nil, fail(span, "repo.stock.products", err)
			}
			productStock[id] = stock
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fail(span, "repo.stock.products", err)
		}
	}

	type variantRow struct {
		productID string
		stock     int
	}
	variantStock := make(map[string]variantRow)
	if ids := validUUIDs(variantIDs); len(ids) > 0 {
		rows, err := r.pool.Query(ctx, `SELECT id, product_id, stock FROM product_variants WHERE id = ANY($1)`, ids)
		if err != nil {
			return nil, fail(span, "repo.stock.variants", err)
		}
		for rows.Next() {
			var (
				id string
				v  variantRow
			)
			if err := rows.Scan(&id, &v.productID, &v.stock); err != nil {
				rows.Close()
				return nil, fail(span, "repo.stock.variants", err)
			}
			variantStock[id] = v
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fail(span, "repo.stock.variants", err)
		}
	}

	levels := make([]domain.StockLevel, len(items))
	for i, it := range items {
		levels[i].StockItem = it
		if it.VariantID == "" {
			levels[i].InStock, levels[i].Found = productStock[it.ProductID]
			continue
		}
		if v, ok := variantStock[it.VariantID]; ok && v.productID == it.ProductID {
			levels[i].InStock, levels[i].Found = v.stock, true
		}
	}

	span.SetStatus(codes.Ok, "")
	return levels, nil
}

// DecrementFloor runs stock = GREATEST(stock - qty, 0) as one statement and returns
// the stock the row held before the write
func (r *PostgresStockRepository) DecrementFloor(ctx context.Context, item domain.StockItem) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.stock.decrement_floor")
	defer span.End()

	span.SetAttributes(
		attribute.String("product_id", item.ProductID),
		attribute.String("variant_id", item.VariantID),
		attribute.Int("quantity", item.Quantity),
	)

	query := `
		WITH prev AS (
			SELECT id, stock FROM products WHERE id = $1 FOR UPDATE
		)
		UPDATE products p
		SET stock = GREATEST(p.stock - $2, 0), updated_at = NOW()
		FROM prev
		WHERE p.id = prev.id
		RETURNING prev.stock
	`
	args := []interface{}{item.ProductID, item.Quantity}
	miss := domain.ErrProductNotFound
	valid := isUUID(item.ProductID)
	if item.VariantID != "" {
		query = `
			WITH prev AS (
				SELECT id, stock FROM product_variants WHERE id = $2 AND product_id = $1 FOR UPDATE
			)
			UPDATE product_variants v
			SET stock = GREATEST(v.stock - $3, 0)
			FROM prev
			WHERE v.id = prev.id
			RETURNING prev.stock
		`
		args = []interface{}{item.ProductID, item.VariantID, item.Quantity}
		miss = domain.ErrVariantNotFound
		valid = valid && isUUID(item.VariantID)
	}
	if !valid {
		span.SetStatus(codes.Error, "not found")
		return 0, miss
	}

	var previous int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&previous); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return 0, miss
		}
		return 0, fail(span, "repo.stock.decrement", err)
	}

	span.SetAttributes(attribute.Int("previous", previous))
	span.SetStatus(codes.Ok, "")
	return previous, nil
}

// ReserveStock decrements each item with a conditional update inside tx. Items are
// merged and sorted first so concurrent checkouts lock rows in the same order.
// The first item that cannot be covered aborts with an InsufficientStockError;
// the caller's rollback undoes the items already taken.
func (r *PostgresStockRepository) ReserveStock(ctx context.Context, tx pgx.Tx, items []domain.StockItem) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.stock.reserve")
	defer span.End()

	span.SetAttributes(attribute.Int("items", len(items)))

	for _, it := range domain.MergeStockItems(items) {
		if it.Quantity <= 0 {
			return domain.ErrInvalidQuantity
		}

		query := `UPDATE products SET stock = stock - $2, updated_at = NOW() WHERE id = $1 AND stock >= $2`
		exists := `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`
		args := []interface{}{it.ProductID, it.Quantity}
		existsArgs := []interface{}{it.ProductID}
		miss := domain.ErrProductNotFound
		valid := isUUID(it.ProductID)
		if it.VariantID != "" {
			query = `UPDATE product_variants SET stock = stock - $3 WHERE id = $2 AND product_id = $1 AND stock >= $3`
			exists = `SELECT EXISTS (SELECT 1 FROM product_variants WHERE id = $2 AND product_id = $1)`
			args = []interface{}{it.ProductID, it.VariantID, it.Quantity}
			existsArgs = []interface{}{it.ProductID, it.VariantID}
			miss = domain.ErrVariantNotFound
			valid = valid && isUUID(it.VariantID)
		}
		if !valid {
			span.SetStatus(codes.Error, "not found")
			return miss
		}

		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fail(span, "repo.stock.reserve", err)
		}
		if tag.RowsAffected() == 1 {
			continue
		}

		var found bool
		if err := tx.QueryRow(ctx, exists, existsArgs...).Scan(&found); err != nil {
			return fail(span, "repo.stock.reserve", err)
		}
		if !found {
			span.SetStatus(codes.Error, "not found")
			return miss
		}
		span.SetStatus(codes.Error, "insufficient stock")
		return &domain.InsufficientStockError{ProductID: it.ProductID, VariantID: it.VariantID, Requested: it.Quantity}
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
