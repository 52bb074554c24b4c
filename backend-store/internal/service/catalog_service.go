package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/dto"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/repository"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/telemetry"
	"github.com/google/uuid"
)

type catalogService struct {
	productRepo repository.ProductRepository
	now         func() time.Time
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(productRepo repository.ProductRepository) CatalogService {
	return &catalogService{productRepo: productRepo, now: time.Now}
}

// CreateProduct adds a product and its variants. A slug is derived from the name
// when none is given.
func (s *catalogService) CreateProduct(ctx context.Context, req *dto.CreateProductRequest) (*domain.Product, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.catalog.create")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, err.Error())
	}

	generated := req.Slug == ""
	slug := req.Slug
	if generated {
		slug = generateSlug(req.Name)
	}

	now := s.now().UTC()
	product := &domain.Product{
		ID:                 uuid.New().String(),
		TenantID:           req.TenantID,
		Name:               strings.TrimSpace(req.Name),
		Slug:               slug,
		Description:        req.Description,
		Price:              req.Price,
		Currency:           strings.ToUpper(req.Currency),
		DiscountPercentage: req.DiscountPercentage,
		Stock:              req.Stock,
		IsActive:           req.IsActive == nil || *req.IsActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	for _, v := range req.Variants {
		product.Variants = append(product.Variants, domain.ProductVariant{
			ID:        uuid.New().String(),
			ProductID: product.ID,
			Name:      strings.TrimSpace(v.Name),
			SKU:       v.SKU,
			Price:     v.Price,
			Stock:     v.Stock,
		})
	}

	err := s.productRepo.Create(ctx, product)
	if errors.Is(err, domain.ErrProductAlreadyExists) && generated {
		product.Slug = fmt.Sprintf("%s-%s", slug, uuid.New().String()[:8])
		err = s.productRepo.Create(ctx, product)
	}
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}
	return product, nil
}

// UpdateProduct applies the non-nil fields of req
func (s *catalogService) UpdateProduct(ctx context.Context, id string, req *dto.UpdateProductRequest) (*domain.Product, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.catalog.update")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, err.Error())
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Slug != nil {
		product.Slug = *req.Slug
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Currency != nil {
		product.Currency = strings.ToUpper(*req.Currency)
	}
	if req.ClearDiscount {
		product.DiscountPercentage = nil
	} else if req.DiscountPercentage != nil {
		product.DiscountPercentage = req.DiscountPercentage
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	product.UpdatedAt = s.now().UTC()

	if err := s.productRepo.Update(ctx, product); err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}
	return product, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.productRepo.GetByID(ctx, id)
}

// ListProducts returns a page of the catalog. activeOnly hides inactive products.
func (s *catalogService) ListProducts(ctx context.Context, filter *dto.ProductListFilter, activeOnly bool) ([]*domain.Product, int64, error) {
	filter.SetDefaults()
	return s.productRepo.List(ctx, &repository.ProductFilter{
		ActiveOnly: activeOnly,
		Search:     strings.TrimSpace(filter.Search),
		Limit:      filter.Limit,
		Offset:     (filter.Page - 1) * filter.Limit,
	})
}

// SetStock overwrites a stock counter and returns the updated product
func (s *catalogService) SetStock(ctx context.Context, productID string, req *dto.UpdateStockRequest) (*domain.Product, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.catalog.set_stock")
	defer span.End()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, err.Error())
	}
	if err := s.productRepo.SetStock(ctx, productID, req.VariantID, *req.Stock); err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}
	return s.productRepo.GetByID(ctx, productID)
}

var hyphens = regexp.MustCompile(`-+`)

// generateSlug lowercases s and keeps ASCII letters and digits, joined by hyphens
func generateSlug(s string) string {
	var builder strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			builder.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			builder.WriteRune('-')
		}
	}
	slug := strings.Trim(hyphens.ReplaceAllString(builder.String(), "-"), "-")
	if slug == "" {
		slug = "product"
	}
	return slug
}
