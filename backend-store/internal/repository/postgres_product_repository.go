package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/telemetry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const productColumns = `
	id, tenant_id, name, slug, description, price, currency,
	discount_percentage, stock, is_active, created_at, updated_at`

// PostgresProductRepository implements ProductRepository using PostgreSQL with pgxpool
type PostgresProductRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresProductRepository creates a new PostgresProductRepository
func NewPostgresProductRepository(pool *pgxpool.Pool) *PostgresProductRepository {
	return &PostgresProductRepository{pool: pool}
}

// Create inserts a product and its variants in one transaction
func (r *PostgresProductRepository) Create(ctx context.Context, product *domain.Product) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.product.create")
	defer span.End()

	span.SetAttributes(
		attribute.String("product_id", product.ID),
		attribute.String("slug", product.Slug),
		attribute.Int("variants", len(product.Variants)),
	)

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO products (
				id, tenant_id, name, slug, description, price, currency,
				discount_percentage, stock, is_active, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`,
			product.ID,
			nullString(product.TenantID),
			product.Name,
			product.Slug,
			nullString(product.Description),
			product.Price,
			product.Currency,
			product.DiscountPercentage,
			product.Stock,
			product.IsActive,
			product.CreatedAt,
			product.UpdatedAt,
		)
		if err != nil {
			return err
		}

		for _, v := range product.Variants {
			if _, err := tx.Exec(ctx, `
				INSERT INTO product_variants (id, product_id, name, sku, price, stock)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, v.ID, product.ID, v.Name, nullString(v.SKU), v.Price, v.Stock); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			span.SetStatus(codes.Error, "duplicate slug")
			return domain.ErrProductAlreadyExists
		}
		return fail(span, "repo.product.create", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Update rewrites the editable product fields
func (r *PostgresProductRepository) Update(ctx context.Context, product *domain.Product) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.product.update")
	defer span.End()

	span.SetAttributes(attribute.String("product_id", product.ID))

	if !isUUID(product.ID) {
		return domain.ErrProductNotFound
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE products
		SET name = $2, slug = $3, description = $4, price = $5, currency = $6,
			discount_percentage = $7, is_active = $8, updated_at = $9
		WHERE id = $1
	`,
		product.ID,
		product.Name,
		product.Slug,
		nullString(product.Description),
		product.Price,
		product.Currency,
		product.DiscountPercentage,
		product.IsActive,
		product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			span.SetStatus(codes.Error, "duplicate slug")
			return domain.ErrProductAlreadyExists
		}
		return fail(span, "repo.product.update", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrProductNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByID retrieves a product with its variants
func (r *PostgresProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.product.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("product_id", id))

	if !isUUID(id) {
		span.SetStatus(codes.Error, "not found")
		return nil, domain.ErrProductNotFound
	}

	product, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrProductNotFound
		}
		return nil, fail(span, "repo.product.get", err)
	}

	if err := r.attachVariants(ctx, map[string]*domain.Product{product.ID: product}); err != nil {
		return nil, fail(span, "repo.product.variants", err)
	}

	span.SetStatus(codes.Ok, "")
	return product, nil
}

// GetByIDs retrieves several products with their variants; unknown IDs are skipped
func (r *PostgresProductRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.product.get_by_ids")
	defer span.End()

	span.SetAttributes(attribute.Int("count", len(ids)))

	ids = validUUIDs(ids)
	products := make(map[string]*domain.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fail(span, "repo.product.get_many", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fail(span, "repo.product.get_many", err)
		}
		products[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fail(span, "repo.product.get_many", err)
	}

	if err := r.attachVariants(ctx, products); err != nil {
		return nil, fail(span, "repo.product.variants", err)
	}

	span.SetStatus(codes.Ok, "")
	return products, nil
}

// List returns a page of products, newest first
func (r *PostgresProductRepository) List(ctx context.Context, filter *ProductFilter) ([]*domain.Product, int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.product.list")
	defer span.End()

	var (
		conds []string
		args  []interface{}
	)
	if filter.TenantID != "" {
		args = append(args, filter.TenantID)
		conds = append(conds, fmt.Sprintf("tenant_id = $%d", len(args)))
	}
	if filter.ActiveOnly {
		conds = append(conds, "is_active = TRUE")
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, s)
		conds = append(conds, fmt.Sprintf("name ILIKE '%%' || $%d || '%%'", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fail(span, "repo.product.count", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		productColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fail(span, "repo.product.list", err)
	}
	defer rows.Close()

	products := make([]*domain.Product, 0, filter.Limit)
	byID := make(map[string]*domain.Product, filter.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fail(span, "repo.product.list", err)
		}
		products = append(products, p)
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fail(span, "repo.product.list", err)
	}

	if err := r.attachVariants(ctx, byID); err != nil {
		return nil, 0, fail(span, "repo.product.variants", err)
	}

	span.SetAttributes(attribute.Int64("total", total))
	span.SetStatus(codes.Ok, "")
	return products, total, nil
}

// SetStock overwrites the stock of a product or variant
func (r *PostgresProductRepository) SetStock(ctx context.Context, productID, variantID string, stock int) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.product.set_stock")
	defer span.End()

	span.SetAttributes(
		attribute.String("product_id", productID),
		attribute.String("variant_id", variantID),
		attribute.Int("stock", stock),
	)

	if !isUUID(productID) {
		return domain.ErrProductNotFound
	}
	if variantID != "" && !isUUID(variantID) {
		return domain.ErrVariantNotFound
	}

	var (
		query = `UPDATE products SET stock = $2, updated_at = NOW() WHERE id = $1`
		args  = []interface{}{productID, stock}
		miss  = domain.ErrProductNotFound
	)
	if variantID != "" {
		query = `UPDATE product_variants SET stock = $3 WHERE id = $2 AND product_id = $1`
		args = []interface{}{productID, variantID, stock}
		miss = domain.ErrVariantNotFound
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fail(span, "repo.product.set_stock", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return miss
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func (r *PostgresProductRepository) attachVariants(ctx context.Context, products map[string]*domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]string, 0, len(products))
	for id := range products {
		ids = append(ids, id)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, name, sku, price, stock
		FROM product_variants
		WHERE product_id = ANY($1)
		ORDER BY product_id, name
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			v     domain.ProductVariant
			sku   *string
			price decimal.NullDecimal
		)
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &sku, &price, &v.Stock); err != nil {
			return err
		}
		v.SKU = derefString(sku)
		if price.Valid {
			p := price.Decimal
			v.Price = &p
		}
		if p, ok := products[v.ProductID]; ok {
			p.Variants = append(p.Variants, v)
		}
	}
	return rows.Err()
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p           domain.Product
		tenantID    *string
		description *string
		discount    decimal.NullDecimal
	)
	err := row.Scan(
		&p.ID,
		&tenantID,
		&p.Name,
		&p.Slug,
		&description,
		&p.Price,
		&p.Currency,
		&discount,
		&p.Stock,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.TenantID = derefString(tenantID)
	p.Description = derefString(description)
	if discount.Valid {
		d := discount.Decimal
		p.DiscountPercentage = &d
	}
	return &p, nil
}
