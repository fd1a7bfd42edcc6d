package holds

import (
	"context"
	"fmt"
	"time"

	custom_error "github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/errors"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"
)

// Ledger keeps reserved quantities. Rack-level records are the source; the
// project-level record is always recomputed from them, never adjusted in place.
type Ledger struct {
	repo Repository
	now  func() time.Time
}

func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo, now: time.Now}
}

// SetRackHold stores quantity for the rack, deleting the record at zero, and
// returns the recomputed project-level hold.
func (l *Ledger) SetRackHold(ctx context.Context, rackNumber, projectID, productID string, quantity int) (int, error) {
	if quantity < 0 {
		return 0, custom_error.NewValidationError("Invalid hold quantity", fmt.Sprintf("hold for rack %s cannot be negative (%d)", rackNumber, quantity))
	}

	if quantity > 0 {
		err := l.repo.UpsertRackHold(ctx, models.RackHold{
			RackNumber:   rackNumber,
			ProjectID:    projectID,
			ProductID:    productID,
			HeldQuantity: quantity,
			UpdatedAt:    l.now(),
		})
		if err != nil {
			return 0, err
		}
	} else if err := l.repo.DeleteRackHold(ctx, rackNumber, projectID, productID); err != nil {
		return 0, err
	}

	return l.RecomputeProjectHold(ctx, projectID, productID)
}

// AddRackHold reserves quantity on top of what the rack already holds.
func (l *Ledger) AddRackHold(ctx context.Context, rackNumber, projectID, productID string, quantity int) (int, error) {
	current, err := l.GetRackHold(ctx, rackNumber, projectID, productID)
	if err != nil {
		return 0, err
	}
	return l.SetRackHold(ctx, rackNumber, projectID, productID, current+quantity)
}

// ReleaseRackHold gives back up to quantity; a hold never drops below zero.
func (l *Ledger) ReleaseRackHold(ctx context.Context, rackNumber, projectID, productID string, quantity int) (int, error) {
	current, err := l.GetRackHold(ctx, rackNumber, projectID, productID)
	if err != nil {
		return 0, err
	}
	return l.SetRackHold(ctx, rackNumber, projectID, productID, max(current-quantity, 0))
}

// RecomputeProjectHold sums the rack-level records of the pair and stores the
// result, deleting the project-level record when the sum is zero.
func (l *Ledger) RecomputeProjectHold(ctx context.Context, projectID, productID string) (int, error) {
	total, err := l.repo.SumRackHolds(ctx, projectID, productID)
	if err != nil {
		return 0, err
	}

	if total <= 0 {
		return 0, l.repo.DeleteProjectHold(ctx, projectID, productID)
	}

	err = l.repo.UpsertProjectHold(ctx, models.ProjectHold{
		ProjectID:    projectID,
		ProductID:    productID,
		HeldQuantity: total,
		UpdatedAt:    l.now(),
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (l *Ledger) GetProjectHold(ctx context.Context, projectID, productID string) (int, error) {
	hold, err := l.repo.GetProjectHold(ctx, projectID, productID)
	if err != nil || hold == nil {
		return 0, err
	}
	return hold.HeldQuantity, nil
}

func (l *Ledger) GetRackHold(ctx context.Context, rackNumber, projectID, productID string) (int, error) {
	hold, err := l.repo.GetRackHold(ctx, rackNumber, projectID, productID)
	if err != nil || hold == nil {
		return 0, err
	}
	return hold.HeldQuantity, nil
}

func (l *Ledger) ListRackHolds(ctx context.Context, projectID, productID string) ([]models.RackHold, error) {
	return l.repo.ListRackHolds(ctx, projectID, productID)
}
