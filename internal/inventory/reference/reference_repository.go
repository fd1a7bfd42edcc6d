package reference

import (
	"context"
	"fmt"
	"time"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/repository"
	custom_error "github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/errors"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
)

// Repository reads catalog data owned elsewhere. InsertProject exists only for
// lobby provisioning.
type Repository interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	// FindLobby returns nil, nil when the manager has no lobby yet.
	FindLobby(ctx context.Context, managerID string) (*models.Project, error)
	InsertProject(ctx context.Context, project *models.Project) error
}

type referenceRepository struct {
	q repository.Querier
}

func NewRepository(q repository.Querier) Repository {
	return &referenceRepository{q: q}
}

type flatProject struct {
	ID        string         `db:"id"`
	Name      string         `db:"name"`
	Color     string         `db:"color"`
	Racks     pq.StringArray `db:"racks"`
	Users     pq.StringArray `db:"users"`
	IsLobby   bool           `db:"is_lobby"`
	ManagerID *string        `db:"manager_id"`
	CreatedAt time.Time      `db:"created_at"`
}

func (p flatProject) toModel() models.Project {
	racks := []string(p.Racks)
	if racks == nil {
		racks = []string{}
	}
	users := []string(p.Users)
	if users == nil {
		users = []string{}
	}
	return models.Project{
		ID:        p.ID,
		Name:      p.Name,
		Color:     p.Color,
		Racks:     racks,
		Users:     users,
		IsLobby:   p.IsLobby,
		ManagerID: p.ManagerID,
		CreatedAt: p.CreatedAt,
	}
}

func (r *referenceRepository) projects() *goqu.SelectDataset {
	return r.q.From("projects").
		Select("id", "name", "color", "racks", "users", "is_lobby", "manager_id", "created_at")
}

func (r *referenceRepository) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	found, err := r.q.From("products").
		Select("id", "name", "sku", "serial", "category", "unit", "price", "low_stock_threshold", "created_at").
		Where(goqu.Ex{"id": id}).
		Executor().
		ScanStructContext(ctx, &product)
	if err != nil {
		return nil, fmt.Errorf("unable to select product %s: %w", id, err)
	}
	if !found {
		return nil, custom_error.NewNotFoundError("product", id)
	}
	return &product, nil
}

func (r *referenceRepository) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var row flatProject
	found, err := r.projects().Where(goqu.Ex{"id": id}).Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("unable to select project %s: %w", id, err)
	}
	if !found {
		return nil, custom_error.NewNotFoundError("project", id)
	}
	project := row.toModel()
	return &project, nil
}

func (r *referenceRepository) ListProjects(ctx context.Context) ([]models.Project, error) {
	var rows []flatProject
	err := r.projects().Order(goqu.I("created_at").Asc()).Executor().ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("unable to list projects: %w", err)
	}

	projects := make([]models.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, row.toModel())
	}
	return projects, nil
}

func (r *referenceRepository) FindLobby(ctx context.Context, managerID string) (*models.Project, error) {
	var row flatProject
	found, err := r.projects().
		Where(goqu.Ex{"is_lobby": true, "manager_id": managerID}).
		Executor().
		ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("unable to select lobby of manager %s: %w", managerID, err)
	}
	if !found {
		return nil, nil
	}
	project := row.toModel()
	return &project, nil
}

func (r *referenceRepository) InsertProject(ctx context.Context, project *models.Project) error {
	_, err := r.q.Insert("projects").
		Rows(goqu.Record{
			"id":         project.ID,
			"name":       project.Name,
			"color":      project.Color,
			"racks":      pq.StringArray(project.Racks),
			"users":      pq.StringArray(project.Users),
			"is_lobby":   project.IsLobby,
			"manager_id": project.ManagerID,
			"created_at": project.CreatedAt,
		}).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert project %s: %w", project.Name, custom_error.FromPQ(err))
	}
	return nil
}
