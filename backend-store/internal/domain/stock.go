package domain

import (
	"sort"
	"time"
)

// StockItem is a quantity of a product, or of one of its variants
type StockItem struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

func (i StockItem) key() string {
	return i.ProductID + "/" + i.VariantID
}

// StockLevel is the current stock of one requested item
type StockLevel struct {
	StockItem
	InStock int  `json:"in_stock"`
	Found   bool `json:"found"`
}

// OK reports whether the requested quantity is in stock
func (l StockLevel) OK() bool {
	return l.Found && l.Quantity <= l.InStock
}

// StockAnomaly records a decrement that asked for more than was in stock
type StockAnomaly struct {
	ProductID string    `json:"product_id"`
	VariantID string    `json:"variant_id,omitempty"`
	Previous  int       `json:"previous"`
	Requested int       `json:"requested"`
	At        time.Time `json:"at"`
}

// MergeStockItems sums quantities of repeated product/variant pairs and sorts the
// result by product, then variant. Rows are always locked in this order.
func MergeStockItems(items []StockItem) []StockItem {
	idx := make(map[string]int, len(items))
	merged := make([]StockItem, 0, len(items))
	for _, it := range items {
		if i, ok := idx[it.key()]; ok {
			merged[i].Quantity += it.Quantity
			continue
		}
		idx[it.key()] = len(merged)
		merged = append(merged, it)
	}
	sort.Slice(merged, func(a, b int) bool {
		if merged[a].ProductID != merged[b].ProductID {
			return merged[a].ProductID < merged[b].ProductID
		}
		return merged[a].VariantID < merged[b].VariantID
	})
	return merged
}
