package holds

import (
	"context"
	"fmt"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/repository"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

type Repository interface {
	GetRackHold(ctx context.Context, rackNumber, projectID, productID string) (*models.RackHold, error)
	ListRackHolds(ctx context.Context, projectID, productID string) ([]models.RackHold, error)
	UpsertRackHold(ctx context.Context, hold models.RackHold) error
	DeleteRackHold(ctx context.Context, rackNumber, projectID, productID string) error
	SumRackHolds(ctx context.Context, projectID, productID string) (int, error)
	GetProjectHold(ctx context.Context, projectID, productID string) (*models.ProjectHold, error)
	UpsertProjectHold(ctx context.Context, hold models.ProjectHold) error
	DeleteProjectHold(ctx context.Context, projectID, productID string) error
}

type holdRepository struct {
	q repository.Querier
}

func NewRepository(q repository.Querier) Repository {
	return &holdRepository{q: q}
}

func (r *holdRepository) GetRackHold(ctx context.Context, rackNumber, projectID, productID string) (*models.RackHold, error) {
	var hold models.RackHold
	found, err := r.q.From("rack_holds").
		Select("rack_number", "project_id", "product_id", "held_quantity", "updated_at").
		Where(goqu.Ex{"rack_number": rackNumber, "project_id": projectID, "product_id": productID}).
		Executor().
		ScanStructContext(ctx, &hold)
	if err != nil {
		return nil, fmt.Errorf("unable to select rack hold: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &hold, nil
}

func (r *holdRepository) ListRackHolds(ctx context.Context, projectID, productID string) ([]models.RackHold, error) {
	holds := []models.RackHold{}
	err := r.q.From("rack_holds").
		Select("rack_number", "project_id", "product_id", "held_quantity", "updated_at").
		Where(goqu.Ex{"project_id": projectID, "product_id": productID}).
		Order(goqu.I("rack_number").Asc()).
		Executor().
		ScanStructsContext(ctx, &holds)
	if err != nil {
		return nil, fmt.Errorf("unable to list rack holds: %w", err)
	}
	return holds, nil
}

func (r *holdRepository) UpsertRackHold(ctx context.Context, hold models.RackHold) error {
	_, err := r.q.Insert("rack_holds").
		Rows(goqu.Record{
			"rack_number":   hold.RackNumber,
			"project_id":    hold.ProjectID,
			"product_id":    hold.ProductID,
			"held_quantity": hold.HeldQuantity,
			"updated_at":    hold.UpdatedAt,
		}).
		OnConflict(goqu.DoUpdate("rack_number, project_id, product_id", goqu.Record{
			"held_quantity": goqu.L("EXCLUDED.held_quantity"),
			"updated_at":    goqu.L("EXCLUDED.updated_at"),
		})).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert rack hold: %w", err)
	}
	return nil
}

func (r *holdRepository) DeleteRackHold(ctx context.Context, rackNumber, projectID, productID string) error {
	_, err := r.q.Delete("rack_holds").
		Where(goqu.Ex{"rack_number": rackNumber, "project_id": projectID, "product_id": productID}).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete rack hold: %w", err)
	}
	return nil
}

func (r *holdRepository) SumRackHolds(ctx context.Context, projectID, productID string) (int, error) {
	var total int64
	_, err := r.q.From("rack_holds").
		Select(goqu.COALESCE(goqu.SUM("held_quantity"), 0)).
		Where(goqu.Ex{"project_id": projectID, "product_id": productID}).
		Executor().
		ScanValContext(ctx, &total)
	if err != nil {
		return 0, fmt.Errorf("unable to sum rack holds: %w", err)
	}
	return int(total), nil
}

func (r *holdRepository) GetProjectHold(ctx context.Context, projectID, productID string) (*models.ProjectHold, error) {
	var hold models.ProjectHold
	found, err := r.q.From("project_holds").
		Select("project_id", "product_id", "held_quantity", "updated_at").
		Where(goqu.Ex{"project_id": projectID, "product_id": productID}).
		Executor().
		ScanStructContext(ctx, &hold)
	if err != nil {
		return nil, fmt.Errorf("unable to select project hold: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &hold, nil
}

func (r *holdRepository) UpsertProjectHold(ctx context.Context, hold models.ProjectHold) error {
	_, err := r.q.Insert("project_holds").
		Rows(goqu.Record{
			"project_id":    hold.ProjectID,
			"product_id":    hold.ProductID,
			"held_quantity": hold.HeldQuantity,
			"updated_at":    hold.UpdatedAt,
		}).
		OnConflict(goqu.DoUpdate("project_id, product_id", goqu.Record{
			"held_quantity": goqu.L("EXCLUDED.held_quantity"),
			"updated_at":    goqu.L("EXCLUDED.updated_at"),
		})).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert project hold: %w", err)
	}
	return nil
}

func (r *holdRepository) DeleteProjectHold(ctx context.Context, projectID, productID string) error {
	_, err := r.q.Delete("project_holds").
		Where(goqu.Ex{"project_id": projectID, "product_id": productID}).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete project hold: %w", err)
	}
	return nil
}
