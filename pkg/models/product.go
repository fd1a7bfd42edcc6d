package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID                string          `json:"id" db:"id"`
	Name              string          `json:"name" db:"name"`
	SKU               string          `json:"sku" db:"sku"`
	Serial            string          `json:"serial,omitempty" db:"serial"`
	Category          string          `json:"category,omitempty" db:"category"`
	Unit              string          `json:"unit,omitempty" db:"unit"`
	Price             decimal.Decimal `json:"price" db:"price"`
	LowStockThreshold int             `json:"lowStockThreshold" db:"low_stock_threshold"`
	CreatedAt         time.Time       `json:"createdAt" db:"created_at"`
}

// IsLowStock reports whether the given on-hand quantity is at or below the product threshold.
func (p *Product) IsLowStock(onHand int) bool {
	return p.LowStockThreshold > 0 && onHand <= p.LowStockThreshold
}
