package stocks

import (
	"context"
	"fmt"

	custom_error "github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/errors"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"
)

// Table is the authoritative per-rack, per-product on-hand quantity.
type Table struct {
	racks       RackRepository
	collections []string
	matchers    []ProductMatcher
}

func NewTable(racks RackRepository) *Table {
	return &Table{
		racks:       racks,
		collections: []string{CanonicalCollection, LegacyCollection},
		matchers:    DefaultMatchers,
	}
}

// Rack resolves a rack from the canonical collection, then the legacy one.
func (t *Table) Rack(ctx context.Context, rackID string) (*models.Rack, error) {
	return t.resolve(ctx, rackID, false)
}

// LockRack is Rack with the row locked until the surrounding unit of work ends.
func (t *Table) LockRack(ctx context.Context, rackID string) (*models.Rack, error) {
	return t.resolve(ctx, rackID, true)
}

func (t *Table) resolve(ctx context.Context, rackID string, forUpdate bool) (*models.Rack, error) {
	for _, collection := range t.collections {
		rack, err := t.racks.FindRackIn(ctx, collection, rackID, forUpdate)
		if err != nil {
			return nil, err
		}
		if rack != nil {
			return rack, nil
		}
	}
	return nil, custom_error.NewNotFoundError("rack", rackID)
}

// LineOf returns the rack's line for productID, or nil when the rack holds none.
func (t *Table) LineOf(rack *models.Rack, productID string) *models.RackProductLine {
	idx, _ := FindLine(rack.Products, productID, t.matchers)
	if idx < 0 {
		return nil
	}
	return &rack.Products[idx]
}

// StockOf is LineOf with absence read as zero.
func (t *Table) StockOf(rack *models.Rack, productID string) int {
	if line := t.LineOf(rack, productID); line != nil {
		return line.Stock
	}
	return 0
}

func (t *Table) GetLine(ctx context.Context, rackID, productID string) (*models.RackProductLine, error) {
	rack, err := t.Rack(ctx, rackID)
	if err != nil {
		return nil, err
	}
	return t.LineOf(rack, productID), nil
}

// SetStock overwrites an existing line, or appends one when newStock is positive.
// A missing line with a non-positive target is left absent.
func (t *Table) SetStock(ctx context.Context, rackID, productID string, newStock int) error {
	_, _, err := t.write(ctx, rackID, productID, func(int) (int, error) { return newStock, nil }, false)
	return err
}

// UpsertStock overwrites or inserts the line even when newStock is zero and
// returns the stock it replaced.
func (t *Table) UpsertStock(ctx context.Context, rackID, productID string, newStock int) (int, error) {
	previous, _, err := t.write(ctx, rackID, productID, func(int) (int, error) { return newStock, nil }, true)
	return previous, err
}

// Adjust reads the current stock under a row lock, computes the new value with
// fn and writes it back. It returns the previous and the new stock.
func (t *Table) Adjust(ctx context.Context, rackID, productID string, fn func(current int) (int, error)) (int, int, error) {
	return t.write(ctx, rackID, productID, fn, false)
}

func (t *Table) write(ctx context.Context, rackID, productID string, fn func(current int) (int, error), keepZero bool) (int, int, error) {
	rack, err := t.resolve(ctx, rackID, true)
	if err != nil {
		if custom_error.IsNotFound(err) {
			return 0, 0, custom_error.NewValidationError("Rack not found", fmt.Sprintf("rack %s not found", rackID))
		}
		return 0, 0, err
	}

	idx, _ := FindLine(rack.Products, productID, t.matchers)
	current := 0
	if idx >= 0 {
		current = rack.Products[idx].Stock
	}

	newStock, err := fn(current)
	if err != nil {
		return current, current, err
	}
	if newStock < 0 {
		return current, current, custom_error.NewConflictError(
			"Insufficient stock",
			fmt.Sprintf("rack %s would hold %d of product %s", rack.RackNumber, newStock, productID),
		)
	}

	switch {
	case idx >= 0:
		rack.Products[idx].Stock = newStock
	case newStock > 0 || keepZero:
		rack.Products = append(rack.Products, models.RackProductLine{
			Product: models.NewProductRef(productID),
			Stock:   newStock,
		})
	default:
		return current, newStock, nil
	}

	if err := t.racks.SaveProducts(ctx, rack.Collection, rack.ID, rack.Products); err != nil {
		return current, current, err
	}

	return current, newStock, nil
}
