package availability

import (
	"context"
	"slices"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/holds"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/projects"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/stocks"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/store"
	custom_error "github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/errors"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"

	"go.uber.org/zap"
)

type RackAvailability struct {
	RackID     string `json:"rackId"`
	RackNumber string `json:"rackNumber"`
	OnHand     int    `json:"onHand"`
	OnHold     int    `json:"onHold"`
	Available  int    `json:"available"`
}

type ProjectAvailability struct {
	ProjectID   string             `json:"projectId"`
	ProjectName string             `json:"projectName"`
	IsLobby     bool               `json:"isLobby"`
	Racks       []RackAvailability `json:"racks"`
	// UnlistedHolds are holds on racks the project no longer lists. They are
	// part of OnHold but of no rack row.
	UnlistedHolds []models.RackHold `json:"unlistedHolds,omitempty"`
	OnHand        int               `json:"onHand"`
	OnHold        int               `json:"onHold"`
	Available     int               `json:"available"`
}

type StockValidation struct {
	ProductID   string                `json:"productId"`
	ProductName string                `json:"productName"`
	Projects    []ProjectAvailability `json:"projects"`
	OnHand      int                   `json:"onHand"`
	OnHold      int                   `json:"onHold"`
	Available   int                   `json:"available"`
	IsLowStock  bool                  `json:"isLowStock"`
}

type Query struct {
	ProductID      string
	ProjectID      string
	GetAllProjects bool
}

// AvailabilityService answers how much of a product can still be issued,
// rack by rack. It never writes.
type AvailabilityService struct {
	store    store.Store
	projects *projects.ProjectService
	logger   *zap.Logger
}

func NewService(s store.Store, p *projects.ProjectService, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{store: s, projects: p, logger: logger}
}

func (s *AvailabilityService) Validate(ctx context.Context, actor models.Actor, q Query) (*StockValidation, error) {
	var problems []string
	if q.ProductID == "" {
		problems = append(problems, "productId is required")
	}
	if q.ProjectID == "" && !q.GetAllProjects {
		problems = append(problems, "projectId or getAllProjects is required")
	}
	if len(problems) > 0 {
		return nil, custom_error.NewValidationError("Validation failed", problems...)
	}

	repos := s.store.Repositories()
	product, err := repos.Reference.GetProduct(ctx, q.ProductID)
	if err != nil {
		return nil, err
	}

	visible, err := s.projects.VisibleProjects(ctx, actor)
	if err != nil {
		return nil, err
	}
	if q.ProjectID != "" {
		if _, err := repos.Reference.GetProject(ctx, q.ProjectID); err != nil {
			return nil, err
		}
		idx := slices.IndexFunc(visible, func(p models.Project) bool { return p.ID == q.ProjectID })
		if idx < 0 {
			return nil, &custom_error.ForbiddenError{Message: "Project is not visible to the caller"}
		}
		visible = visible[idx : idx+1]
	}

	table := stocks.NewTable(repos.Racks)
	ledger := holds.NewLedger(repos.Holds)
	result := &StockValidation{
		ProductID:   product.ID,
		ProductName: product.Name,
		Projects:    []ProjectAvailability{},
	}

	for _, project := range visible {
		pa, err := s.projectAvailability(ctx, table, ledger, project, product.ID)
		if err != nil {
			return nil, err
		}
		if q.GetAllProjects && q.ProjectID == "" && pa.OnHand == 0 && pa.OnHold == 0 {
			continue
		}
		result.Projects = append(result.Projects, pa)
		result.OnHand += pa.OnHand
		result.OnHold += pa.OnHold
		result.Available += pa.Available
	}
	result.IsLowStock = product.IsLowStock(result.OnHand)

	return result, nil
}

func (s *AvailabilityService) projectAvailability(ctx context.Context, table *stocks.Table, ledger *holds.Ledger, project models.Project, productID string) (ProjectAvailability, error) {
	pa := ProjectAvailability{
		ProjectID:   project.ID,
		ProjectName: project.Name,
		IsLobby:     project.IsLobby,
		Racks:       []RackAvailability{},
	}

	rackHolds, err := ledger.ListRackHolds(ctx, project.ID, productID)
	if err != nil {
		return pa, err
	}
	heldByRack := make(map[string]int, len(rackHolds))
	for _, hold := range rackHolds {
		heldByRack[hold.RackNumber] = hold.HeldQuantity
	}

	listed := map[string]bool{}
	for _, rackID := range project.Racks {
		rack, err := table.Rack(ctx, rackID)
		if custom_error.IsNotFound(err) {
			s.logger.Debug("Project references missing rack", zap.String("project_id", project.ID), zap.String("rack_id", rackID))
			continue
		}
		if err != nil {
			return pa, err
		}
		listed[rack.RackNumber] = true

		onHand := table.StockOf(rack, productID)
		onHold := heldByRack[rack.RackNumber]
		ra := RackAvailability{
			RackID:     rack.ID,
			RackNumber: rack.RackNumber,
			OnHand:     onHand,
			OnHold:     onHold,
			Available:  max(0, onHand-onHold),
		}

		pa.Racks = append(pa.Racks, ra)
		pa.OnHand += ra.OnHand
		pa.Available += ra.Available
	}

	for _, hold := range rackHolds {
		if !listed[hold.RackNumber] {
			s.logger.Warn("Hold on rack outside project",
				zap.String("project_id", project.ID),
				zap.String("product_id", productID),
				zap.String("rack_number", hold.RackNumber),
				zap.Int("held_quantity", hold.HeldQuantity),
			)
			pa.UnlistedHolds = append(pa.UnlistedHolds, hold)
		}
	}

	projectHold, err := ledger.GetProjectHold(ctx, project.ID, productID)
	if err != nil {
		return pa, err
	}
	pa.OnHold = projectHold
	return pa, nil
}
