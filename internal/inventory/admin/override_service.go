package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/holds"
	inventorylog "github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/inventory_log"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/stocks"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/store"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/metrics"
	custom_error "github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/errors"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/roles"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/admin")

// OverrideService corrects ledger drift by writing stock and holds directly,
// outside the transaction log. Every call is recorded as an admin action.
type OverrideService struct {
	store        store.Store
	inventoryLog *inventorylog.InventoryLog
	metrics      *metrics.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

func NewService(s store.Store, l *inventorylog.InventoryLog, m *metrics.Metrics, logger *zap.Logger) *OverrideService {
	return &OverrideService{
		store:        s,
		inventoryLog: l,
		metrics:      m,
		logger:       logger,
		now:          time.Now,
	}
}

// Override applies req atomically. direct_rack_stock_update needs an explicit
// rack; direct_stock_update falls back to the first project rack holding the
// product, then to the first project rack.
func (s *OverrideService) Override(ctx context.Context, actor models.Actor, action string, req OverrideRequest) (*OverrideResult, error) {
	ctx, span := tracer.Start(ctx, "admin.Override", trace.WithAttributes(
		attribute.String("override.action", action),
		attribute.String("actor.id", actor.ID),
	))
	defer span.End()

	result, err := s.override(ctx, actor, action, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.observe(action, err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Direct stock override applied",
		zap.String("admin_action_id", result.AdminAction.ID),
		zap.String("action", action),
		zap.String("rack_number", result.AdminAction.RackNumber),
		zap.String("product_id", req.ProductID),
		zap.Int("stock_on_hand", result.After.StockOnHand),
		zap.Int("rack_hold", result.After.RackHold),
		zap.String("actor_id", actor.ID),
	)
	s.inventoryLog.CreateAdminActionLogEntry(ctx, actor, result.AdminAction)
	return result, nil
}

func (s *OverrideService) override(ctx context.Context, actor models.Actor, action string, req OverrideRequest) (*OverrideResult, error) {
	if !actor.Can(roles.Admin) {
		return nil, &custom_error.ForbiddenError{Message: "Only administrators can override stock"}
	}
	if err := validate(action, req); err != nil {
		return nil, err
	}

	result := &OverrideResult{Success: true}
	err := s.store.WithinTx(ctx, func(repos store.Repositories) error {
		if _, err := repos.Reference.GetProduct(ctx, req.ProductID); err != nil {
			return err
		}
		project, err := repos.Reference.GetProject(ctx, req.ProjectID)
		if err != nil {
			return err
		}

		table := stocks.NewTable(repos.Racks)
		rack, err := resolveRack(ctx, table, project, action, req)
		if err != nil {
			return err
		}

		ledger := holds.NewLedger(repos.Holds)
		before, err := readValues(ctx, table, ledger, rack, project.ID, req.ProductID)
		if err != nil {
			return err
		}

		if req.StockOnHand != nil {
			if _, err := table.UpsertStock(ctx, rack.ID, req.ProductID, *req.StockOnHand); err != nil {
				return err
			}
		}
		if req.StockOnHold != nil {
			if _, err := ledger.SetRackHold(ctx, rack.RackNumber, project.ID, req.ProductID, *req.StockOnHold); err != nil {
				return err
			}
		}

		rack, err = table.Rack(ctx, rack.ID)
		if err != nil {
			return err
		}
		after, err := readValues(ctx, table, ledger, rack, project.ID, req.ProductID)
		if err != nil {
			return err
		}

		record := &models.AdminAction{
			ID:         uuid.NewString(),
			Action:     action,
			OperatorID: actor.ID,
			Reason:     strings.TrimSpace(req.Reason),
			ProductID:  req.ProductID,
			ProjectID:  project.ID,
			RackID:     rack.ID,
			RackNumber: rack.RackNumber,
			Before:     before.asMap(),
			After:      after.asMap(),
			CreatedAt:  s.now(),
		}
		if err := repos.AdminActions.InsertAdminAction(ctx, record); err != nil {
			return err
		}

		result.AdminAction = record
		result.Before, result.After = before, after
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func validate(action string, req OverrideRequest) error {
	var problems []string
	switch action {
	case ActionDirectRackStockUpdate:
		if req.RackID == "" && req.RackNumber == "" {
			problems = append(problems, "rackId or rackNumber is required")
		}
	case ActionDirectStockUpdate:
	default:
		problems = append(problems, fmt.Sprintf("unknown override action %q", action))
	}
	if strings.TrimSpace(req.Reason) == "" {
		problems = append(problems, "reason is required")
	}
	if req.ProductID == "" {
		problems = append(problems, "productId is required")
	}
	if req.ProjectID == "" {
		problems = append(problems, "projectId is required")
	}
	if req.StockOnHand == nil && req.StockOnHold == nil {
		problems = append(problems, "stockOnHand or stockOnHold is required")
	}
	if req.StockOnHand != nil && *req.StockOnHand < 0 {
		problems = append(problems, "stockOnHand cannot be negative")
	}
	if req.StockOnHold != nil && *req.StockOnHold < 0 {
		problems = append(problems, "stockOnHold cannot be negative")
	}

	if len(problems) > 0 {
		return custom_error.NewValidationError("Validation failed", problems...)
	}
	return nil
}

func resolveRack(ctx context.Context, table *stocks.Table, project *models.Project, action string, req OverrideRequest) (*models.Rack, error) {
	if req.RackID != "" {
		if !project.HasRack(req.RackID) {
			return nil, custom_error.NewValidationError("Validation failed", fmt.Sprintf("rack %s is not part of project %s", req.RackID, project.Name))
		}
		return table.LockRack(ctx, req.RackID)
	}

	var fallback *models.Rack
	for _, id := range project.Racks {
		rack, err := table.LockRack(ctx, id)
		if custom_error.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}

		if req.RackNumber != "" {
			if rack.RackNumber == req.RackNumber {
				return rack, nil
			}
			continue
		}
		if table.LineOf(rack, req.ProductID) != nil {
			return rack, nil
		}
		if fallback == nil {
			fallback = rack
		}
	}

	if req.RackNumber == "" && action == ActionDirectStockUpdate && fallback != nil {
		return fallback, nil
	}
	if req.RackNumber != "" {
		return nil, custom_error.NewValidationError("Validation failed", fmt.Sprintf("rack %s is not part of project %s", req.RackNumber, project.Name))
	}
	return nil, custom_error.NewValidationError("Validation failed", fmt.Sprintf("project %s has no racks", project.Name))
}

func readValues(ctx context.Context, table *stocks.Table, ledger *holds.Ledger, rack *models.Rack, projectID, productID string) (LedgerValues, error) {
	rackHold, err := ledger.GetRackHold(ctx, rack.RackNumber, projectID, productID)
	if err != nil {
		return LedgerValues{}, err
	}
	projectHold, err := ledger.GetProjectHold(ctx, projectID, productID)
	if err != nil {
		return LedgerValues{}, err
	}
	return LedgerValues{
		StockOnHand: table.StockOf(rack, productID),
		RackHold:    rackHold,
		ProjectHold: projectHold,
	}, nil
}

func (s *OverrideService) ListActions(ctx context.Context, limit, offset int) ([]models.AdminAction, error) {
	return s.store.Repositories().AdminActions.ListAdminActions(ctx, limit, offset)
}

func (s *OverrideService) observe(action string, err error) {
	s.metrics.ObserveTransition(action, metrics.Classify(err))
}
