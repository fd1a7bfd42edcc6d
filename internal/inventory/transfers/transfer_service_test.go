package transfers

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/holds"
	inventorylog "github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/inventory_log"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/stocks"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/store"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/metrics"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/repository"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/repository/memory"
	custom_error "github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/errors"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/metadata"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/roles"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

var (
	keeper  = models.Actor{ID: "keeper-1", Role: roles.Keeper}
	other   = models.Actor{ID: "keeper-2", Role: roles.Keeper}
	manager = models.Actor{ID: "manager-1", Role: roles.Manager}
)

type TransferServiceSuite struct {
	suite.Suite
	ctx     context.Context
	db      *memory.DB
	store   store.Store
	service *TransferService
}

func TestTransferServiceSuite(t *testing.T) {
	suite.Run(t, new(TransferServiceSuite))
}

func (s *TransferServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = memory.NewDB()
	s.db.SeedProduct(models.Product{ID: "p1", Name: "Cable"})
	s.db.SeedProduct(models.Product{ID: "p2", Name: "Switch"})
	s.db.SeedRack(stocks.CanonicalCollection, models.Rack{
		ID:         "r1",
		RackNumber: "A-01",
		Products:   []models.RackProductLine{{Product: models.NewProductRef("p1"), Stock: 10}},
	})
	s.db.SeedRack(stocks.LegacyCollection, models.Rack{
		ID:         "r2",
		RackNumber: "B-01",
		Products:   []models.RackProductLine{{Product: models.ProductRef(`{"$oid":"p2"}`), Stock: 3}},
	})
	s.db.SeedRack(stocks.CanonicalCollection, models.Rack{ID: "r3", RackNumber: "C-01"})
	s.db.SeedProject(models.Project{ID: "pr1", Name: "Main", Racks: []string{"r1", "r2"}})
	s.db.SeedProject(models.Project{ID: "pr2", Name: "Annex", Racks: []string{"r3"}})

	s.store = store.NewMemoryStore(s.db)
	s.service = s.newService(s.store.Repositories().Activities, s.store.Repositories().Notifications)
}

func (s *TransferServiceSuite) newService(a inventorylog.ActivityRepository, n inventorylog.NotificationRepository) *TransferService {
	m := metrics.New(prometheus.NewRegistry())
	log := inventorylog.NewInventoryLog(a, n, zap.NewNop(), m)
	return NewService(s.store, log, m, zap.NewNop())
}

func (s *TransferServiceSuite) stock(rackID, productID string) int {
	table := stocks.NewTable(s.store.Repositories().Racks)
	rack, err := table.Rack(s.ctx, rackID)
	s.Require().NoError(err)
	return table.StockOf(rack, productID)
}

func (s *TransferServiceSuite) projectHold(projectID, productID string) int {
	held, err := holds.NewLedger(s.store.Repositories().Holds).GetProjectHold(s.ctx, projectID, productID)
	s.Require().NoError(err)
	return held
}

func (s *TransferServiceSuite) status(id string) metadata.Status {
	ts, err := s.service.Get(s.ctx, id)
	s.Require().NoError(err)
	return ts.Status
}

func (s *TransferServiceSuite) create(txType string, orderMode bool, items ...TransferItemRequest) *models.StockTransaction {
	result, err := s.service.Create(s.ctx, keeper, CreateTransactionRequest{Type: txType, IsOrderMode: orderMode, Items: items})
	s.Require().NoError(err)
	return result.Transaction
}

func item(productID, rackID string, quantity int) TransferItemRequest {
	return TransferItemRequest{ProductID: productID, ProjectID: "pr1", RackID: rackID, Quantity: quantity}
}

func (s *TransferServiceSuite) TestImmediateOutThenCancelRestoresStock() {
	ts := s.create("out", false, item("p1", "r1", 4))

	s.Equal(metadata.StatusCompleted, ts.Status)
	s.Equal(6, s.stock("r1", "p1"))
	s.Require().NotNil(ts.PreviousStock)
	s.Equal(10, *ts.PreviousStock)
	s.Equal(6, *ts.NewStock)

	cancelled, err := s.service.Cancel(s.ctx, manager, ts.ID)
	s.Require().NoError(err)

	s.Equal(metadata.StatusCancelled, cancelled.Status)
	s.Equal(metadata.StatusCancelled, s.status(ts.ID))
	s.Equal(10, s.stock("r1", "p1"))
}

func (s *TransferServiceSuite) TestImmediateInThenCancelRestoresStock() {
	ts := s.create("in", false, item("p1", "r1", 5), item("p2", "r2", 2))
	s.Equal(15, s.stock("r1", "p1"))
	s.Equal(5, s.stock("r2", "p2"))

	_, err := s.service.Cancel(s.ctx, keeper, ts.ID)
	s.Require().NoError(err)

	s.Equal(10, s.stock("r1", "p1"))
	s.Equal(3, s.stock("r2", "p2"))
}

func (s *TransferServiceSuite) TestOrderModeInThenApprove() {
	ts := s.create("in", true, item("p1", "r1", 5))

	s.Equal(metadata.StatusPending, ts.Status)
	s.Equal(10, s.stock("r1", "p1"))

	result, err := s.service.Approve(s.ctx, manager, ts.ID)
	s.Require().NoError(err)

	s.True(result.Success)
	s.Empty(result.Errors)
	s.Equal(15, s.stock("r1", "p1"))
	s.Equal(metadata.StatusCompleted, s.status(ts.ID))

	stored, _ := s.service.Get(s.ctx, ts.ID)
	s.Equal(10, stored.Items[0].PreviousStock)
	s.Equal(15, stored.Items[0].NewStock)
	s.Equal(manager.ID, *stored.ProcessedBy)
}

func (s *TransferServiceSuite) TestOrderModeInThenReject() {
	ts := s.create("in", true, item("p1", "r1", 5))

	rejected, err := s.service.Reject(s.ctx, manager, ts.ID)
	s.Require().NoError(err)

	s.Equal(metadata.StatusRejected, rejected.Status)
	s.Equal(metadata.StatusRejected, s.status(ts.ID))
	s.Equal(10, s.stock("r1", "p1"))
}

func (s *TransferServiceSuite) TestOrderModeOutHoldsUntilApproved() {
	ts := s.create("out", true, item("p1", "r1", 4))

	s.Equal(10, s.stock("r1", "p1"))
	s.Equal(4, s.projectHold("pr1", "p1"))

	_, err := s.service.Approve(s.ctx, manager, ts.ID)
	s.Require().NoError(err)

	s.Equal(6, s.stock("r1", "p1"))
	s.Zero(s.projectHold("pr1", "p1"))
}

func (s *TransferServiceSuite) TestRejectReleasesHold() {
	ts := s.create("out", true, item("p1", "r1", 4))

	_, err := s.service.Reject(s.ctx, manager, ts.ID)
	s.Require().NoError(err)

	s.Zero(s.projectHold("pr1", "p1"))
	s.Equal(10, s.stock("r1", "p1"))
}

func (s *TransferServiceSuite) TestCancelPendingOrderRequest() {
	ts := s.create("out", true, item("p1", "r1", 4))

	cancelled, err := s.service.Cancel(s.ctx, keeper, ts.ID)
	s.Require().NoError(err)

	s.Equal(metadata.StatusCancelled, cancelled.Status)
	s.Equal(10, s.stock("r1", "p1"))
	s.Zero(s.projectHold("pr1", "p1"))
}

func (s *TransferServiceSuite) TestOutWithInsufficientStockIsRejected() {
	_, err := s.service.Create(s.ctx, keeper, CreateTransactionRequest{Type: "out", Items: []TransferItemRequest{item("p1", "r1", 11)}})

	var conflict *custom_error.ConflictError
	s.Require().True(errors.As(err, &conflict))
	s.Len(conflict.Details, 1)
	s.Equal(10, s.stock("r1", "p1"))
}

func (s *TransferServiceSuite) TestBatchWithOneShortItemWritesNothing() {
	_, err := s.service.Create(s.ctx, keeper, CreateTransactionRequest{
		Type:  "out",
		Items: []TransferItemRequest{item("p1", "r1", 4), item("p2", "r2", 5)},
	})

	var conflict *custom_error.ConflictError
	s.Require().True(errors.As(err, &conflict))
	s.Equal([]string{"item 2: insufficient stock of Switch in rack B-01 (available 3, requested 5)"}, conflict.Details)
	s.Equal(10, s.stock("r1", "p1"))
	s.Equal(3, s.stock("r2", "p2"))

	list, err := s.service.List(s.ctx, manager, repository.NewQueryBuilder(), 10, 0)
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *TransferServiceSuite) TestRepeatedPairUsesRunningTotal() {
	_, err := s.service.Create(s.ctx, keeper, CreateTransactionRequest{
		Type:  "out",
		Items: []TransferItemRequest{item("p1", "r1", 6), item("p1", "r1", 6)},
	})

	var conflict *custom_error.ConflictError
	s.Require().True(errors.As(err, &conflict))
	s.Contains(conflict.Details[0], "item 2")
	s.Equal(10, s.stock("r1", "p1"))

	ts := s.create("out", false, item("p1", "r1", 3), item("p1", "r1", 2))
	s.Equal(5, s.stock("r1", "p1"))
	s.Equal(7, ts.Items[1].PreviousStock)
	s.Equal(5, ts.Items[1].NewStock)
}

func (s *TransferServiceSuite) TestValidationListsEveryProblem() {
	_, err := s.service.Create(s.ctx, keeper, CreateTransactionRequest{
		Type: "in",
		Items: []TransferItemRequest{
			{ProductID: "missing", ProjectID: "pr1", RackID: "r1", Quantity: 1},
			{ProductID: "p1", ProjectID: "pr1", RackID: "r3", Quantity: 1},
			{ProductID: "p1", ProjectID: "nope", RackID: "gone", Quantity: 1},
		},
	})

	var validation *custom_error.ValidationError
	s.Require().True(errors.As(err, &validation))
	s.Equal([]string{
		"item 1: product missing not found",
		"item 2: rack C-01 is not part of project Main",
		"item 3: project nope not found",
		"item 3: rack gone not found",
	}, validation.Details)
	s.Equal(10, s.stock("r1", "p1"))
}

func (s *TransferServiceSuite) TestInvalidTypeIsValidationError() {
	_, err := s.service.Create(s.ctx, keeper, CreateTransactionRequest{Type: "sideways", Items: []TransferItemRequest{item("p1", "r1", 1)}})

	var validation *custom_error.ValidationError
	s.True(errors.As(err, &validation))
}

func (s *TransferServiceSuite) TestLegacyRackAndReferenceAreResolved() {
	ts := s.create("out", true, item("p2", "r2", 2))

	_, err := s.service.Approve(s.ctx, manager, ts.ID)
	s.Require().NoError(err)

	rack, err := stocks.NewTable(s.store.Repositories().Racks).Rack(s.ctx, "r2")
	s.Require().NoError(err)
	s.Equal(stocks.LegacyCollection, rack.Collection)
	s.Require().Len(rack.Products, 1)
	s.Equal(`{"$oid":"p2"}`, string(rack.Products[0].Product))
	s.Equal(1, rack.Products[0].Stock)
}

func (s *TransferServiceSuite) TestApproveAppliesWhatItCan() {
	ts := s.create("out", true, item("p1", "r1", 4), item("p2", "r2", 3))

	// Stock drains between the request and its approval.
	s.create("out", false, item("p2", "r2", 2))

	result, err := s.service.Approve(s.ctx, manager, ts.ID)
	s.Require().NoError(err)

	s.True(result.Success)
	s.Require().Len(result.Errors, 1)
	s.Contains(result.Errors[0], "item 2")
	s.Equal(metadata.StatusCompleted, s.status(ts.ID))
	s.Equal(6, s.stock("r1", "p1"))
	s.Equal(1, s.stock("r2", "p2"))
	s.Zero(s.projectHold("pr1", "p2"), "hold is released even for the skipped item")
}

func (s *TransferServiceSuite) TestCancelReversalUnderflowWritesNothing() {
	first := s.create("in", false, item("p1", "r1", 5))
	s.create("out", false, item("p1", "r1", 12))
	s.Equal(3, s.stock("r1", "p1"))

	_, err := s.service.Cancel(s.ctx, manager, first.ID)

	var conflict *custom_error.ConflictError
	s.Require().True(errors.As(err, &conflict))
	s.NotEmpty(conflict.Details)
	s.Equal(3, s.stock("r1", "p1"))
	s.Equal(metadata.StatusCompleted, s.status(first.ID))
}

func (s *TransferServiceSuite) TestIllegalTransitionsLeaveStatusUnchanged() {
	completed := s.create("in", false, item("p1", "r1", 1))
	pending := s.create("in", true, item("p1", "r1", 1))
	_, err := s.service.Reject(s.ctx, manager, pending.ID)
	s.Require().NoError(err)
	cancelled := s.create("in", true, item("p1", "r1", 1))
	_, err = s.service.Cancel(s.ctx, manager, cancelled.ID)
	s.Require().NoError(err)

	tests := []struct {
		name string
		id   string
		call func(id string) error
		want metadata.Status
	}{
		{"approve completed", completed.ID, s.approve, metadata.StatusCompleted},
		{"reject completed", completed.ID, s.reject, metadata.StatusCompleted},
		{"approve rejected", pending.ID, s.approve, metadata.StatusRejected},
		{"cancel rejected", pending.ID, s.cancel, metadata.StatusRejected},
		{"approve cancelled", cancelled.ID, s.approve, metadata.StatusCancelled},
		{"reject cancelled", cancelled.ID, s.reject, metadata.StatusCancelled},
		{"cancel cancelled", cancelled.ID, s.cancel, metadata.StatusCancelled},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			err := tt.call(tt.id)
			var conflict *custom_error.ConflictError
			s.True(errors.As(err, &conflict), "got %v", err)
			s.Equal(tt.want, s.status(tt.id))
		})
	}
}

func (s *TransferServiceSuite) TestApprovedOrderRequestCannotBeCancelled() {
	ts := s.create("in", true, item("p1", "r1", 2))
	_, err := s.service.Approve(s.ctx, manager, ts.ID)
	s.Require().NoError(err)

	_, err = s.service.Cancel(s.ctx, manager, ts.ID)

	var conflict *custom_error.ConflictError
	s.Require().True(errors.As(err, &conflict))
	s.Equal("Only pending order requests can be cancelled", conflict.Message)
	s.Equal(12, s.stock("r1", "p1"))
}

func (s *TransferServiceSuite) TestUnknownTransactionIsNotFound() {
	_, err := s.service.Approve(s.ctx, manager, "missing")
	s.True(custom_error.IsNotFound(err))
}

func (s *TransferServiceSuite) TestCancelRequiresManagerOrCreator() {
	ts := s.create("in", false, item("p1", "r1", 1))

	_, err := s.service.Cancel(s.ctx, other, ts.ID)

	var forbidden *custom_error.ForbiddenError
	s.True(errors.As(err, &forbidden))
	s.Equal(metadata.StatusCompleted, s.status(ts.ID))
}

func (s *TransferServiceSuite) TestConcurrentApprovalsApplyOnce() {
	ts := s.create("in", true, item("p1", "r1", 5))

	var wg sync.WaitGroup
	results := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.Approve(s.ctx, manager, ts.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		}
	}
	s.Equal(1, succeeded)
	s.Equal(15, s.stock("r1", "p1"))
}

func (s *TransferServiceSuite) TestAuditSinkFailureDoesNotFailTransition() {
	activities := new(MockActivityRepository)
	notifications := new(MockNotificationRepository)
	activities.On("InsertActivity", mock.Anything).Return(errors.New("audit store down"))
	notifications.On("InsertNotification", mock.Anything).Return(errors.New("audit store down"))
	service := s.newService(activities, notifications)

	result, err := service.Create(s.ctx, keeper, CreateTransactionRequest{Type: "out", Items: []TransferItemRequest{item("p1", "r1", 4)}})
	s.Require().NoError(err)

	s.Equal(6, s.stock("r1", "p1"))
	s.Equal(metadata.StatusCompleted, s.status(result.Transaction.ID))
	activities.AssertNumberOfCalls(s.T(), "InsertActivity", 1)
}

func (s *TransferServiceSuite) TestActivitiesAreRecorded() {
	ts := s.create("in", true, item("p1", "r1", 5))
	_, err := s.service.Approve(s.ctx, manager, ts.ID)
	s.Require().NoError(err)

	conditions := repository.NewQueryBuilder()
	conditions.AddCondition("entity_id", ts.ID)
	activities, err := s.store.Repositories().Activities.ListActivities(s.ctx, conditions, 10, 0)
	s.Require().NoError(err)

	s.Require().Len(activities, 2)
	s.Equal(inventorylog.ActionApproved, activities[0].Action)
	s.Equal(inventorylog.ActionCreated, activities[1].Action)
}

func (s *TransferServiceSuite) TestKeepersOnlyListTheirOwnTransactions() {
	s.create("in", true, item("p1", "r1", 1))
	_, err := s.service.Create(s.ctx, other, CreateTransactionRequest{Type: "in", IsOrderMode: true, Items: []TransferItemRequest{item("p1", "r1", 1)}})
	s.Require().NoError(err)

	mine, err := s.service.List(s.ctx, keeper, repository.NewQueryBuilder(), 10, 0)
	s.Require().NoError(err)
	s.Len(mine, 1)

	all, err := s.service.List(s.ctx, manager, repository.NewQueryBuilder(), 10, 0)
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *TransferServiceSuite) approve(id string) error {
	_, err := s.service.Approve(s.ctx, manager, id)
	return err
}

func (s *TransferServiceSuite) reject(id string) error {
	_, err := s.service.Reject(s.ctx, manager, id)
	return err
}

func (s *TransferServiceSuite) cancel(id string) error {
	_, err := s.service.Cancel(s.ctx, manager, id)
	return err
}

type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) InsertActivity(ctx context.Context, activity *models.Activity) error {
	args := m.Called(activity)
	return args.Error(0)
}

func (m *MockActivityRepository) ListActivities(ctx context.Context, conditions repository.QueryBuilder, limit, offset int) ([]models.Activity, error) {
	args := m.Called(conditions, limit, offset)
	return args.Get(0).([]models.Activity), args.Error(1)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) InsertNotification(ctx context.Context, notification *models.Notification) error {
	args := m.Called(notification)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListNotifications(ctx context.Context, recipientID string, recipientRoles []string, limit, offset int) ([]models.Notification, error) {
	args := m.Called(recipientID, recipientRoles, limit, offset)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func TestGuardTransition(t *testing.T) {
	tests := []struct {
		name     string
		current  metadata.Status
		from, to metadata.Status
		allowed  bool
	}{
		{"pending to completed", metadata.StatusPending, metadata.StatusPending, metadata.StatusCompleted, true},
		{"pending to rejected", metadata.StatusPending, metadata.StatusPending, metadata.StatusRejected, true},
		{"completed to cancelled", metadata.StatusCompleted, metadata.StatusCompleted, metadata.StatusCancelled, true},
		{"status moved on", metadata.StatusRejected, metadata.StatusPending, metadata.StatusCompleted, false},
		{"completed to rejected", metadata.StatusCompleted, metadata.StatusCompleted, metadata.StatusRejected, false},
		{"rejected to cancelled", metadata.StatusRejected, metadata.StatusRejected, metadata.StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guardTransition(&models.StockTransaction{Status: tt.current}, tt.from, tt.to, "refused")
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			var conflict *custom_error.ConflictError
			require.True(t, errors.As(err, &conflict))
			assert.Equal(t, "refused", conflict.Message)
			assert.Equal(t, []string{"current status: " + tt.current.String()}, conflict.Details)
		})
	}
}
