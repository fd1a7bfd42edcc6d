package memory

import (
	"context"
	"fmt"

	custom_error "github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/errors"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"
)

type RackRepository struct {
	s Session
}

// FindRackIn ignores forUpdate; the session lock already serializes writers.
func (r *RackRepository) FindRackIn(_ context.Context, collection, rackID string, _ bool) (*models.Rack, error) {
	var found *models.Rack
	err := r.s.do(func(d *dataset) error {
		rack, ok := d.racks[collection][rackID]
		if !ok {
			return nil
		}
		c := copyRack(rack)
		c.Collection = collection
		found = &c
		return nil
	})
	return found, err
}

func (r *RackRepository) SaveProducts(_ context.Context, collection, rackID string, lines []models.RackProductLine) error {
	return r.s.do(func(d *dataset) error {
		rack, ok := d.racks[collection][rackID]
		if !ok {
			return fmt.Errorf("rack %s vanished from %s during update", rackID, collection)
		}
		rack.Products = append([]models.RackProductLine(nil), lines...)
		d.racks[collection][rackID] = rack
		return nil
	})
}

func (r *RackRepository) InsertRack(_ context.Context, collection string, rack *models.Rack) error {
	return r.s.do(func(d *dataset) error {
		if d.racks[collection] == nil {
			d.racks[collection] = map[string]models.Rack{}
		}
		for _, existing := range d.racks[collection] {
			if existing.ID == rack.ID || existing.RackNumber == rack.RackNumber {
				return custom_error.WrapDBError("rack "+rack.RackNumber+" already exists", "23505")
			}
		}
		rack.Collection = collection
		d.racks[collection][rack.ID] = copyRack(*rack)
		return nil
	})
}
