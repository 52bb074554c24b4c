package handler

import (
	"context"
	"net/http"

	"github.com/PercyTuncar/ravehub-website-sub003/pkg/currency"
	"github.com/PercyTuncar/ravehub-website-sub003/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// RateService is the part of currency.RateService the handler needs
type RateService interface {
	Current(ctx context.Context) (*currency.RateTable, error)
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*currency.Conversion, error)
	Refresh(ctx context.Context) (*currency.RateTable, error)
}

// CurrencyHandler serves exchange rates and conversions
type CurrencyHandler struct {
	rates RateService
}

// NewCurrencyHandler creates a new CurrencyHandler
func NewCurrencyHandler(rates RateService) *CurrencyHandler {
	return &CurrencyHandler{rates: rates}
}

// Rates handles GET /currency/rates
func (h *CurrencyHandler) Rates(c *gin.Context) {
	table, err := h.rates.Current(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to load exchange rates")
		return
	}
	c.JSON(http.StatusOK, response.Success(table))
}

// Convert handles GET /currency/convert?amount=100&from=USD&to=PEN
func (h *CurrencyHandler) Convert(c *gin.Context) {
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil || amount.IsNegative() {
		c.JSON(http.StatusBadRequest, response.ValidationError("Amount must be a non-negative number"))
		return
	}
	from, to := currency.Normalize(c.Query("from")), currency.Normalize(c.Query("to"))
	if len(from) != 3 || len(to) != 3 {
		c.JSON(http.StatusBadRequest, response.ValidationError("Currencies must be 3-letter codes"))
		return
	}

	conv, err := h.rates.Convert(c.Request.Context(), amount, from, to)
	if err != nil {
		respondError(c, err, "Failed to convert amount")
		return
	}
	c.JSON(http.StatusOK, response.Success(conv))
}

// Refresh handles POST /admin/currency/refresh
func (h *CurrencyHandler) Refresh(c *gin.Context) {
	table, err := h.rates.Refresh(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, response.ErrorWithDetails(response.ErrCodeTryAgain, "No exchange rate provider answered", err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(table))
}
