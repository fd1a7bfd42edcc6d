package memory

import (
	"context"
	"sort"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"
)

type HoldRepository struct {
	s Session
}

func (r *HoldRepository) GetRackHold(_ context.Context, rackNumber, projectID, productID string) (*models.RackHold, error) {
	var found *models.RackHold
	err := r.s.do(func(d *dataset) error {
		if hold, ok := d.rackHolds[rackHoldKey{rackNumber, projectID, productID}]; ok {
			found = &hold
		}
		return nil
	})
	return found, err
}

func (r *HoldRepository) ListRackHolds(_ context.Context, projectID, productID string) ([]models.RackHold, error) {
	holds := []models.RackHold{}
	err := r.s.do(func(d *dataset) error {
		for key, hold := range d.rackHolds {
			if key.projectID == projectID && key.productID == productID {
				holds = append(holds, hold)
			}
		}
		return nil
	})
	sort.Slice(holds, func(i, j int) bool { return holds[i].RackNumber < holds[j].RackNumber })
	return holds, err
}

func (r *HoldRepository) UpsertRackHold(_ context.Context, hold models.RackHold) error {
	return r.s.do(func(d *dataset) error {
		d.rackHolds[rackHoldKey{hold.RackNumber, hold.ProjectID, hold.ProductID}] = hold
		return nil
	})
}

func (r *HoldRepository) DeleteRackHold(_ context.Context, rackNumber, projectID, productID string) error {
	return r.s.do(func(d *dataset) error {
		delete(d.rackHolds, rackHoldKey{rackNumber, projectID, productID})
		return nil
	})
}

func (r *HoldRepository) SumRackHolds(_ context.Context, projectID, productID string) (int, error) {
	total := 0
	err := r.s.do(func(d *dataset) error {
		for key, hold := range d.rackHolds {
			if key.projectID == projectID && key.productID == productID {
				total += hold.HeldQuantity
			}
		}
		return nil
	})
	return total, err
}

func (r *HoldRepository) GetProjectHold(_ context.Context, projectID, productID string) (*models.ProjectHold, error) {
	var found *models.ProjectHold
	err := r.s.do(func(d *dataset) error {
		if hold, ok := d.projectHolds[projectHoldKey{projectID, productID}]; ok {
			found = &hold
		}
		return nil
	})
	return found, err
}

func (r *HoldRepository) UpsertProjectHold(_ context.Context, hold models.ProjectHold) error {
	return r.s.do(func(d *dataset) error {
		d.projectHolds[projectHoldKey{hold.ProjectID, hold.ProductID}] = hold
		return nil
	})
}

func (r *HoldRepository) DeleteProjectHold(_ context.Context, projectID, productID string) error {
	return r.s.do(func(d *dataset) error {
		delete(d.projectHolds, projectHoldKey{projectID, productID})
		return nil
	})
}
