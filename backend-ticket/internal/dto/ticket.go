package dto

import "github.com/PercyTuncar/ravehub-website-sub003/backend-ticket/internal/domain"

// PurchaseTicketsRequest represents a ticket purchase for one phase and zone
type PurchaseTicketsRequest struct {
	PhaseID  string `json:"phase_id" binding:"required"`
	ZoneID   string `json:"zone_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
	EventID  string `json:"-"` // Set from path
	UserID   string `json:"-"` // Set from context
	TenantID string `json:"-"` // Set from context
}

// Validate validates the PurchaseTicketsRequest
func (r *PurchaseTicketsRequest) Validate() (bool, string) {
	if r.PhaseID == "" || r.ZoneID == "" {
		return false, "Phase and zone are required"
	}
	if r.Quantity <= 0 {
		return false, "Quantity must be greater than zero"
	}
	if r.Quantity > domain.MaxTicketsPerPurchase {
		return false, "Quantity exceeds the per-purchase limit"
	}
	return true, ""
}
