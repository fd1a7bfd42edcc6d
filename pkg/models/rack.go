package models

import (
	"encoding/json"
	"time"
)

// ProductRef is the product reference stored on a rack line. It is kept verbatim
// so lines written in a legacy shape keep that shape when the rack is rewritten.
type ProductRef json.RawMessage

// NewProductRef builds the canonical representation: the plain id.
func NewProductRef(productID string) ProductRef {
	b, _ := json.Marshal(productID)
	return ProductRef(b)
}

func (r ProductRef) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return []byte(r), nil
}

func (r *ProductRef) UnmarshalJSON(b []byte) error {
	*r = append((*r)[:0], b...)
	return nil
}

type RackProductLine struct {
	Product ProductRef `json:"product"`
	Stock   int        `json:"stock"`
}

type Rack struct {
	ID         string            `json:"id"`
	RackNumber string            `json:"rackNumber"`
	Products   []RackProductLine `json:"products"`
	CreatedAt  time.Time         `json:"createdAt"`
	// Collection is the table the rack was resolved from.
	Collection string `json:"-"`
}
