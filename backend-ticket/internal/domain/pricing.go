package domain

import "time"

// PriceOption is one (phase, zone) entry of an event's pricing
type PriceOption struct {
	PhaseID   string  `json:"phase_id"`
	PhaseName string  `json:"phase_name"`
	ZoneID    string  `json:"zone_id"`
	ZoneName  string  `json:"zone_name"`
	Price     float64 `json:"price"`
	Available int     `json:"available"`
	// SoldOut is set on a cheapest option that cannot be purchased
	SoldOut bool `json:"sold_out"`
}

// FlattenPricing lists every (phase, zone) entry in phase order
func FlattenPricing(e *Event) []PriceOption {
	var out []PriceOption
	for _, p := range e.SalesPhases {
		for _, zp := range p.ZonePricing {
			out = append(out, PriceOption{
				PhaseID:   p.ID,
				PhaseName: p.Name,
				ZoneID:    zp.ZoneID,
				ZoneName:  e.ZoneName(zp.ZoneID),
				Price:     zp.Price,
				Available: zp.Available,
			})
		}
	}
	return out
}

// CheapestAvailable returns the lowest priced entry that still has tickets.
// When every entry is sold out it returns the lowest priced entry overall with
// SoldOut set. It returns false only when the event has no pricing at all.
// Ties keep the first entry in phase order.
func CheapestAvailable(e *Event) (PriceOption, bool) {
	options := FlattenPricing(e)
	if len(options) == 0 {
		return PriceOption{}, false
	}

	bestAvail, bestAny := -1, 0
	for i, o := range options {
		if o.Price < options[bestAny].Price {
			bestAny = i
		}
		if o.Available > 0 && (bestAvail < 0 || o.Price < options[bestAvail].Price) {
			bestAvail = i
		}
	}

	if bestAvail >= 0 {
		return options[bestAvail], true
	}
	cheapest := options[bestAny]
	cheapest.SoldOut = true
	return cheapest, true
}

// IsSoldOut is true iff every pricing entry of every phase has Available <= 0.
// An event without pricing entries is not sold out.
func IsSoldOut(e *Event) bool {
	entries := 0
	for _, p := range e.SalesPhases {
		for _, zp := range p.ZonePricing {
			entries++
			if zp.Available > 0 {
				return false
			}
		}
	}
	return entries > 0
}

// ActivePhase returns the sales phase whose window contains now
func ActivePhase(e *Event, now time.Time) (*SalesPhase, bool) {
	for i := range e.SalesPhases {
		if e.SalesPhases[i].Contains(now) {
			return &e.SalesPhases[i], true
		}
	}
	return nil, false
}

// IsOnSale reports whether tickets can be bought at now
func IsOnSale(e *Event, now time.Time) bool {
	if e.Status != EventStatusPublished || IsSoldOut(e) {
		return false
	}
	phase, ok := ActivePhase(e, now)
	if !ok {
		return false
	}
	for _, zp := range phase.ZonePricing {
		if zp.Available > 0 {
			return true
		}
	}
	return false
}
