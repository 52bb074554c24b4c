package handler

import (
	"net/http"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/dto"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/service"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/middleware"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/response"
	"github.com/gin-gonic/gin"
)

// ProductHandler serves the catalog
type ProductHandler struct {
	catalog service.CatalogService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalog service.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// List handles GET /store/products. Only admins see inactive products.
func (h *ProductHandler) List(c *gin.Context) {
	var filter dto.ProductListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid query parameters"))
		return
	}

	products, total, err := h.catalog.ListProducts(c.Request.Context(), &filter, !middleware.IsAdmin(c))
	if err != nil {
		respondError(c, err, "Failed to list products")
		return
	}

	out := make([]*dto.ProductResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	c.JSON(http.StatusOK, response.Paginated(out, filter.Page, filter.Limit, total))
}

// Get handles GET /store/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get product")
		return
	}
	if !product.IsActive && !middleware.IsAdmin(c) {
		c.JSON(http.StatusNotFound, response.NotFound("Product not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(toProductResponse(product)))
}

// Create handles POST /admin/products
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}
	req.TenantID, _ = middleware.GetTenantID(c)

	product, err := h.catalog.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to create product")
		return
	}
	c.JSON(http.StatusCreated, response.Success(toProductResponse(product)))
}

// Update handles PUT /admin/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}

	product, err := h.catalog.UpdateProduct(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err, "Failed to update product")
		return
	}
	c.JSON(http.StatusOK, response.Success(toProductResponse(product)))
}

// SetStock handles PUT /admin/products/:id/stock
func (h *ProductHandler) SetStock(c *gin.Context) {
	var req dto.UpdateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}

	product, err := h.catalog.SetStock(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err, "Failed to update stock")
		return
	}
	c.JSON(http.StatusOK, response.Success(toProductResponse(product)))
}

func toProductResponse(p *domain.Product) *dto.ProductResponse {
	price, _ := p.EffectivePrice("")
	resp := &dto.ProductResponse{
		ID:                 p.ID,
		Name:               p.Name,
		Slug:               p.Slug,
		Description:        p.Description,
		Price:              p.Price,
		EffectivePrice:     price,
		Currency:           p.Currency,
		DiscountPercentage: p.DiscountPercentage,
		Stock:              p.Stock,
		InStock:            p.Stock > 0,
		IsActive:           p.IsActive,
		Variants:           make([]*dto.VariantResponse, 0, len(p.Variants)),
		CreatedAt:          p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          p.UpdatedAt.Format(time.RFC3339),
	}
	for _, v := range p.Variants {
		vp, _ := p.EffectivePrice(v.ID)
		resp.Variants = append(resp.Variants, &dto.VariantResponse{
			ID:             v.ID,
			Name:           v.Name,
			SKU:            v.SKU,
			EffectivePrice: vp,
			Stock:          v.Stock,
		})
		if v.Stock > 0 {
			resp.InStock = true
		}
	}
	return resp
}
