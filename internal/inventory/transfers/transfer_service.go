package transfers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/holds"
	inventorylog "github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/inventory_log"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/stocks"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/store"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/metrics"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/repository"
	custom_error "github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/errors"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/metadata"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/roles"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/transfers")

type TransferService struct {
	store        store.Store
	inventoryLog *inventorylog.InventoryLog
	metrics      *metrics.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

func NewService(s store.Store, l *inventorylog.InventoryLog, m *metrics.Metrics, logger *zap.Logger) *TransferService {
	return &TransferService{
		store:        s,
		inventoryLog: l,
		metrics:      m,
		logger:       logger,
		now:          time.Now,
	}
}

type stockKey struct {
	rackID    string
	productID string
}

// Create validates the whole batch before touching anything. Immediate
// transactions are applied and logged as completed; order-mode ones are
// logged as pending and reserve outgoing quantities on hold.
func (s *TransferService) Create(ctx context.Context, actor models.Actor, req CreateTransactionRequest) (*CreateTransactionResult, error) {
	ctx, span := tracer.Start(ctx, "transfers.Create", trace.WithAttributes(attribute.String("actor.id", actor.ID)))
	defer span.End()

	txType, err := metadata.NewTransactionType(req.Type)
	if err != nil {
		err = custom_error.NewValidationError("Invalid transaction type", err.Error())
	} else if len(req.Items) == 0 {
		err = custom_error.NewValidationError("Validation failed", "at least one item is required")
	}
	if err != nil {
		s.observe(ctx, "create", err)
		return nil, err
	}

	now := s.now()
	status := metadata.StatusCompleted
	if req.IsOrderMode {
		status = metadata.StatusPending
	}
	ts := &models.StockTransaction{
		ID:            uuid.NewString(),
		Type:          txType,
		Status:        status,
		IsOrderMode:   req.IsOrderMode,
		InvoiceNumber: req.InvoiceNumber,
		Supplier:      req.Supplier,
		Notes:         req.Notes,
		CreatedBy:     actor.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.store.WithinTx(ctx, func(repos store.Repositories) error {
		table := stocks.NewTable(repos.Racks)

		items, racks, err := s.resolveItems(ctx, repos, table, req.Items)
		if err != nil {
			return err
		}

		// Running totals keep repeated rack/product pairs consistent within the batch.
		running := map[stockKey]int{}
		var shortages []string
		for i := range items {
			item := &items[i]
			key := stockKey{item.RackID, item.ProductID}
			current, seen := running[key]
			if !seen {
				current = table.StockOf(racks[item.RackID], item.ProductID)
			}

			next := txType.Apply(current, item.Quantity)
			if next < 0 {
				shortages = append(shortages, fmt.Sprintf(
					"item %d: insufficient stock of %s in rack %s (available %d, requested %d)",
					i+1, item.ProductName, item.RackNumber, current, item.Quantity,
				))
				continue
			}
			item.PreviousStock, item.NewStock = current, next
			running[key] = next
		}
		if len(shortages) > 0 {
			return custom_error.NewConflictError("Insufficient stock", shortages...)
		}

		ledger := holds.NewLedger(repos.Holds)
		for _, item := range items {
			switch {
			case !req.IsOrderMode:
				if err := table.SetStock(ctx, item.RackID, item.ProductID, item.NewStock); err != nil {
					return err
				}
			case txType == metadata.TransactionOut:
				if _, err := ledger.AddRackHold(ctx, item.RackNumber, item.ProjectID, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		ts.Items = items
		ts.Flatten()
		return repos.Transactions.Insert(ctx, ts)
	})
	s.observe(ctx, "create", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Stock transaction created",
		zap.String("transaction_id", ts.ID),
		zap.String("type", ts.Type.String()),
		zap.String("status", ts.Status.String()),
		zap.Int("items", len(ts.Items)),
		zap.String("actor_id", actor.ID),
	)
	s.inventoryLog.CreateTransactionLogEntry(ctx, inventorylog.ActionCreated, actor, ts, nil)

	return &CreateTransactionResult{
		Transaction:   ts,
		ItemCount:     len(ts.Items),
		TotalQuantity: ts.TotalQuantity(),
	}, nil
}

// resolveItems checks every item against the reference data and locks the
// racks involved. All problems are reported together.
func (s *TransferService) resolveItems(ctx context.Context, repos store.Repositories, table *stocks.Table, reqItems []TransferItemRequest) ([]models.TransferItem, map[string]*models.Rack, error) {
	items := make([]models.TransferItem, 0, len(reqItems))
	racks := map[string]*models.Rack{}
	var problems []string

	for i, req := range reqItems {
		n := i + 1
		if req.Quantity <= 0 {
			problems = append(problems, fmt.Sprintf("item %d: quantity must be greater than 0", n))
		}

		var (
			product *models.Product
			project *models.Project
			rack    *models.Rack
			err     error
		)

		if req.ProductID == "" {
			problems = append(problems, fmt.Sprintf("item %d: productId is required", n))
		} else {
			product, err = repos.Reference.GetProduct(ctx, req.ProductID)
			if err != nil && !custom_error.IsNotFound(err) {
				return nil, nil, err
			}
			if product == nil {
				problems = append(problems, fmt.Sprintf("item %d: product %s not found", n, req.ProductID))
			}
		}

		if req.ProjectID == "" {
			problems = append(problems, fmt.Sprintf("item %d: projectId is required", n))
		} else {
			project, err = repos.Reference.GetProject(ctx, req.ProjectID)
			if err != nil && !custom_error.IsNotFound(err) {
				return nil, nil, err
			}
			if project == nil {
				problems = append(problems, fmt.Sprintf("item %d: project %s not found", n, req.ProjectID))
			}
		}

		if req.RackID == "" {
			problems = append(problems, fmt.Sprintf("item %d: rackId is required", n))
		} else {
			var ok bool
			rack, ok = racks[req.RackID]
			if !ok {
				rack, err = table.LockRack(ctx, req.RackID)
				if err != nil && !custom_error.IsNotFound(err) {
					return nil, nil, err
				}
				if rack != nil {
					racks[req.RackID] = rack
				}
			}
			if rack == nil {
				problems = append(problems, fmt.Sprintf("item %d: rack %s not found", n, req.RackID))
			}
		}

		if project != nil && rack != nil && !project.HasRack(rack.ID) {
			problems = append(problems, fmt.Sprintf("item %d: rack %s is not part of project %s", n, rack.RackNumber, project.Name))
		}
		if product == nil || project == nil || rack == nil {
			continue
		}

		items = append(items, models.TransferItem{
			ProductID:   product.ID,
			ProjectID:   project.ID,
			RackID:      rack.ID,
			Quantity:    req.Quantity,
			ProductName: product.Name,
			ProjectName: project.Name,
			RackNumber:  rack.RackNumber,
		})
	}

	if len(problems) > 0 {
		return nil, nil, custom_error.NewValidationError("Validation failed", problems...)
	}
	return items, racks, nil
}

// Approve completes a pending transaction and applies its items one at a time.
// An item that cannot be applied is skipped and reported; the rest still land.
func (s *TransferService) Approve(ctx context.Context, actor models.Actor, id string) (*ApproveResult, error) {
	ctx, span := tracer.Start(ctx, "transfers.Approve", trace.WithAttributes(attribute.String("transaction.id", id)))
	defer span.End()

	ts, err := s.store.Repositories().Transactions.Get(ctx, id)
	if err != nil {
		s.observe(ctx, "approve", err)
		return nil, err
	}
	if err := guardTransition(ts, metadata.StatusPending, metadata.StatusCompleted, "Only pending transactions can be approved"); err != nil {
		s.observe(ctx, "approve", err)
		return nil, err
	}

	// The claim commits before any item is applied, so items land at most once.
	now := s.now()
	claimed, err := s.store.Repositories().Transactions.UpdateStatus(ctx, id, metadata.StatusPending, metadata.StatusCompleted, actor.ID, now)
	if err != nil {
		s.observe(ctx, "approve", err)
		return nil, err
	}
	if !claimed {
		err := custom_error.NewConflictError("Only pending transactions can be approved", "transaction was processed concurrently")
		s.observe(ctx, "approve", err)
		return nil, err
	}

	var itemErrors []string
	for i := range ts.Items {
		if err := s.approveItem(ctx, ts, &ts.Items[i]); err != nil {
			itemErrors = append(itemErrors, fmt.Sprintf("item %d (%s in rack %s): %s", i+1, ts.Items[i].ProductName, ts.Items[i].RackNumber, err.Error()))
		}
	}

	if err := s.store.Repositories().Transactions.SaveItems(ctx, id, ts.Items); err != nil {
		s.logger.Error("Unable to store approval snapshots", zap.String("transaction_id", id), zap.Error(err))
	}

	ts.Status = metadata.StatusCompleted
	ts.ProcessedBy = &actor.ID
	ts.ProcessedAt = &now
	ts.UpdatedAt = now
	ts.Flatten()

	outcome := metrics.OutcomeSuccess
	if len(itemErrors) > 0 {
		outcome = metrics.OutcomePartial
		s.logger.Warn("Stock transaction approved with item errors",
			zap.String("transaction_id", id),
			zap.Strings("errors", itemErrors),
		)
	}
	s.metrics.ObserveTransition("approve", outcome)
	s.inventoryLog.CreateTransactionLogEntry(ctx, inventorylog.ActionApproved, actor, ts, map[string]interface{}{"errors": itemErrors})

	return &ApproveResult{Success: true, Transaction: ts, Errors: itemErrors}, nil
}

// approveItem applies one item in its own unit of work. Its outgoing hold is
// released even when the stock no longer covers it.
func (s *TransferService) approveItem(ctx context.Context, ts *models.StockTransaction, item *models.TransferItem) error {
	var itemErr error

	err := s.store.WithinTx(ctx, func(repos store.Repositories) error {
		if ts.Type == metadata.TransactionOut {
			ledger := holds.NewLedger(repos.Holds)
			if _, err := ledger.ReleaseRackHold(ctx, item.RackNumber, item.ProjectID, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		previous, next, err := stocks.NewTable(repos.Racks).Adjust(ctx, item.RackID, item.ProductID, func(current int) (int, error) {
			next := ts.Type.Apply(current, item.Quantity)
			if next < 0 {
				return current, custom_error.NewConflictError(fmt.Sprintf("insufficient stock (available %d, requested %d)", current, item.Quantity))
			}
			return next, nil
		})
		if isDomainError(err) {
			itemErr = err
			item.PreviousStock, item.NewStock = previous, previous
			return nil
		}
		if err != nil {
			return err
		}

		item.PreviousStock, item.NewStock = previous, next
		return nil
	})
	if err != nil {
		s.logger.Error("Unable to apply approved item",
			zap.String("transaction_id", ts.ID),
			zap.String("rack_id", item.RackID),
			zap.String("product_id", item.ProductID),
			zap.Error(err),
		)
		return err
	}
	return itemErr
}

// Reject closes a pending transaction without moving stock.
func (s *TransferService) Reject(ctx context.Context, actor models.Actor, id string) (*models.StockTransaction, error) {
	ctx, span := tracer.Start(ctx, "transfers.Reject", trace.WithAttributes(attribute.String("transaction.id", id)))
	defer span.End()

	ts, err := s.store.Repositories().Transactions.Get(ctx, id)
	if err != nil {
		s.observe(ctx, "reject", err)
		return nil, err
	}
	if err := guardTransition(ts, metadata.StatusPending, metadata.StatusRejected, "Only pending transactions can be rejected"); err != nil {
		s.observe(ctx, "reject", err)
		return nil, err
	}

	err = s.closePending(ctx, actor, ts, metadata.StatusRejected, "Only pending transactions can be rejected")
	s.observe(ctx, "reject", err)
	if err != nil {
		return nil, err
	}

	s.inventoryLog.CreateTransactionLogEntry(ctx, inventorylog.ActionRejected, actor, ts, nil)
	return ts, nil
}

// Cancel withdraws a pending order request, or reverses every item of a
// completed immediate transaction. A reversal that would leave any rack
// negative is refused as a whole.
func (s *TransferService) Cancel(ctx context.Context, actor models.Actor, id string) (*models.StockTransaction, error) {
	ctx, span := tracer.Start(ctx, "transfers.Cancel", trace.WithAttributes(attribute.String("transaction.id", id)))
	defer span.End()

	ts, err := s.store.Repositories().Transactions.Get(ctx, id)
	if err != nil {
		s.observe(ctx, "cancel", err)
		return nil, err
	}
	if !actor.Can(roles.Manager) && actor.ID != ts.CreatedBy {
		err := &custom_error.ForbiddenError{Message: "Only managers or the creator can cancel this transaction"}
		s.observe(ctx, "cancel", err)
		return nil, err
	}

	extra := map[string]interface{}{}
	if ts.IsOrderMode {
		if err := guardTransition(ts, metadata.StatusPending, metadata.StatusCancelled, "Only pending order requests can be cancelled"); err != nil {
			s.observe(ctx, "cancel", err)
			return nil, err
		}
		err = s.closePending(ctx, actor, ts, metadata.StatusCancelled, "Only pending order requests can be cancelled")
	} else {
		if err := guardTransition(ts, metadata.StatusCompleted, metadata.StatusCancelled, "Only completed stock transactions can be cancelled"); err != nil {
			s.observe(ctx, "cancel", err)
			return nil, err
		}
		var reversals []map[string]interface{}
		reversals, err = s.reverse(ctx, actor, ts)
		extra["reversals"] = reversals
	}
	s.observe(ctx, "cancel", err)
	if err != nil {
		return nil, err
	}

	s.inventoryLog.CreateTransactionLogEntry(ctx, inventorylog.ActionCancelled, actor, ts, extra)
	return ts, nil
}

// guardTransition refuses unless ts is currently in from and the lifecycle
// allows from -> to.
func guardTransition(ts *models.StockTransaction, from, to metadata.Status, message string) error {
	if ts.Status == from && from.CanTransitionTo(to) {
		return nil
	}
	return custom_error.NewConflictError(message, "current status: "+ts.Status.String())
}

// closePending moves a pending transaction to a terminal status and releases
// whatever it held, in one unit of work.
func (s *TransferService) closePending(ctx context.Context, actor models.Actor, ts *models.StockTransaction, to metadata.Status, conflictMessage string) error {
	now := s.now()
	err := s.store.WithinTx(ctx, func(repos store.Repositories) error {
		ok, err := repos.Transactions.UpdateStatus(ctx, ts.ID, metadata.StatusPending, to, actor.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return custom_error.NewConflictError(conflictMessage, "transaction was processed concurrently")
		}

		if ts.Type != metadata.TransactionOut {
			return nil
		}
		ledger := holds.NewLedger(repos.Holds)
		for _, item := range ts.Items {
			if _, err := ledger.ReleaseRackHold(ctx, item.RackNumber, item.ProjectID, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	ts.Status = to
	ts.ProcessedBy = &actor.ID
	ts.ProcessedAt = &now
	ts.UpdatedAt = now
	return nil
}

func (s *TransferService) reverse(ctx context.Context, actor models.Actor, ts *models.StockTransaction) ([]map[string]interface{}, error) {
	now := s.now()
	var reversals []map[string]interface{}

	err := s.store.WithinTx(ctx, func(repos store.Repositories) error {
		table := stocks.NewTable(repos.Racks)
		running := map[stockKey]int{}
		reversals = reversals[:0]
		var problems []string

		for i, item := range ts.Items {
			key := stockKey{item.RackID, item.ProductID}
			current, seen := running[key]
			if !seen {
				rack, err := table.LockRack(ctx, item.RackID)
				if custom_error.IsNotFound(err) {
					problems = append(problems, fmt.Sprintf("item %d: rack %s not found", i+1, item.RackNumber))
					continue
				}
				if err != nil {
					return err
				}
				current = table.StockOf(rack, item.ProductID)
			}

			next := ts.Type.Reverse(current, item.Quantity)
			if next < 0 {
				problems = append(problems, fmt.Sprintf(
					"item %d: reversing %d of %s would leave rack %s at %d",
					i+1, item.Quantity, item.ProductName, item.RackNumber, next,
				))
				continue
			}
			running[key] = next
			reversals = append(reversals, map[string]interface{}{
				"rack_id":        item.RackID,
				"product_id":     item.ProductID,
				"previous_stock": current,
				"new_stock":      next,
			})
		}
		if len(problems) > 0 {
			return custom_error.NewConflictError("Cannot cancel transaction: reversal would result in negative stock", problems...)
		}

		for _, item := range ts.Items {
			key := stockKey{item.RackID, item.ProductID}
			if err := table.SetStock(ctx, item.RackID, item.ProductID, running[key]); err != nil {
				return err
			}
		}

		ok, err := repos.Transactions.UpdateStatus(ctx, ts.ID, metadata.StatusCompleted, metadata.StatusCancelled, actor.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return custom_error.NewConflictError("Only completed stock transactions can be cancelled", "transaction was processed concurrently")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ts.Status = metadata.StatusCancelled
	ts.ProcessedBy = &actor.ID
	ts.ProcessedAt = &now
	ts.UpdatedAt = now
	return reversals, nil
}

func (s *TransferService) Get(ctx context.Context, id string) (*models.StockTransaction, error) {
	return s.store.Repositories().Transactions.Get(ctx, id)
}

// List returns transactions matching the filter; keepers only see their own.
func (s *TransferService) List(ctx context.Context, actor models.Actor, conditions repository.QueryBuilder, limit, offset int) ([]models.StockTransaction, error) {
	if !actor.Can(roles.Manager) {
		conditions.AddCondition("created_by", actor.ID)
	}
	return s.store.Repositories().Transactions.List(ctx, conditions, limit, offset)
}

func (s *TransferService) observe(ctx context.Context, operation string, err error) {
	if err != nil {
		span := trace.SpanFromContext(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.metrics.ObserveTransition(operation, metrics.Classify(err))
}

func isDomainError(err error) bool {
	var (
		validationErr *custom_error.ValidationError
		conflictErr   *custom_error.ConflictError
	)
	return errors.As(err, &validationErr) || errors.As(err, &conflictErr)
}
