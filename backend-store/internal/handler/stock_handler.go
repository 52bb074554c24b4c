package handler

import (
	"net/http"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/domain"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/dto"
	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/service"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/response"
	"github.com/gin-gonic/gin"
)

// StockHandler exposes the stock checker and the offline sale updater
type StockHandler struct {
	stock service.StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stock service.StockService) *StockHandler {
	return &StockHandler{stock: stock}
}

// CheckCart handles POST /store/cart/check
func (h *StockHandler) CheckCart(c *gin.Context) {
	items, ok := bindItems(c)
	if !ok {
		return
	}

	levels, available, err := h.stock.CheckCart(c.Request.Context(), items)
	if err != nil {
		respondError(c, err, "Failed to check stock")
		return
	}

	resp := &dto.StockCheckResponse{Available: available, Items: make([]*dto.StockCheckItemResult, len(levels))}
	for i, l := range levels {
		resp.Items[i] = &dto.StockCheckItemResult{
			ProductID: l.ProductID,
			VariantID: l.VariantID,
			Requested: l.Quantity,
			InStock:   l.InStock,
			OK:        l.OK(),
		}
	}
	c.JSON(http.StatusOK, response.Success(resp))
}

// ApplySale handles POST /admin/stock/apply-sale. It records a sale made outside
// checkout; stock is floored at zero and oversold items are reported.
func (h *StockHandler) ApplySale(c *gin.Context) {
	items, ok := bindItems(c)
	if !ok {
		return
	}

	if err := h.stock.UpdateStockAfterOrder(c.Request.Context(), items); err != nil {
		respondError(c, err, "Failed to update stock")
		return
	}
	c.JSON(http.StatusOK, response.Success(map[string]int{"items": len(items)}))
}

func bindItems(c *gin.Context) ([]domain.StockItem, bool) {
	var req dto.CheckStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return nil, false
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, response.ValidationError(err.Error()))
		return nil, false
	}

	items := make([]domain.StockItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = domain.StockItem{ProductID: it.ProductID, VariantID: it.VariantID, Quantity: it.Quantity}
	}
	return items, true
}
