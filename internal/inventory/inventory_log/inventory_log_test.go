package inventorylog

import (
	"context"
	"errors"
	"testing"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/metrics"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/repository"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/repository/memory"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/metadata"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/roles"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

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

func sampleTransaction() *models.StockTransaction {
	return &models.StockTransaction{
		ID:          "t1",
		Type:        metadata.TransactionOut,
		Status:      metadata.StatusPending,
		IsOrderMode: true,
		CreatedBy:   "keeper-1",
		Items: []models.TransferItem{
			{ProductID: "p1", RackID: "r1", RackNumber: "A-01", Quantity: 2},
			{ProductID: "p2", RackID: "r1", RackNumber: "A-01", Quantity: 3},
		},
	}
}

func TestCreateTransactionLogEntryWritesActivityAndNotification(t *testing.T) {
	audit := memory.NewDB().Session().AuditTrail()
	log := NewInventoryLog(audit, audit, zap.NewNop(), nil)
	actor := models.Actor{ID: "keeper-1", Role: roles.Keeper}

	log.CreateTransactionLogEntry(context.Background(), ActionCreated, actor, sampleTransaction(), nil)

	activities, err := audit.ListActivities(context.Background(), repository.NewQueryBuilder(), 10, 0)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "stock_transaction", activities[0].EntityType)
	assert.Equal(t, "Order request submitted (2 items, 5 units)", activities[0].Message)
	assert.Equal(t, 5, activities[0].Metadata["total_quantity"])

	notifications, err := audit.ListNotifications(context.Background(), "someone", []string{"keeper", "manager"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationOrderRequest, notifications[0].Type)
}

func TestCreateTransactionLogEntryNotifiesCreatorOnDecision(t *testing.T) {
	audit := memory.NewDB().Session().AuditTrail()
	log := NewInventoryLog(audit, audit, zap.NewNop(), nil)
	ts := sampleTransaction()
	ts.Status = metadata.StatusRejected

	log.CreateTransactionLogEntry(context.Background(), ActionRejected, models.Actor{ID: "m1", Role: roles.Manager}, ts, nil)

	notifications, err := audit.ListNotifications(context.Background(), "keeper-1", nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationTransferRejected, notifications[0].Type)
}

func TestAuditSinkFailureIsSwallowed(t *testing.T) {
	activities := new(MockActivityRepository)
	notifications := new(MockNotificationRepository)
	activities.On("InsertActivity", mock.Anything).Return(errors.New("disk full")).Once()
	notifications.On("InsertNotification", mock.Anything).Return(errors.New("disk full")).Once()

	core, logs := observer.New(zap.WarnLevel)
	m := metrics.New(prometheus.NewRegistry())
	log := NewInventoryLog(activities, notifications, zap.New(core), m)

	assert.NotPanics(t, func() {
		log.CreateTransactionLogEntry(context.Background(), ActionApproved, models.Actor{ID: "m1"}, sampleTransaction(),
			map[string]interface{}{"errors": []string{"item 2: insufficient stock"}})
	})

	assert.Equal(t, 2, logs.Len())
	activities.AssertExpectations(t)
	notifications.AssertExpectations(t)
}

func TestUnknownActionIsIgnored(t *testing.T) {
	activities := new(MockActivityRepository)
	notifications := new(MockNotificationRepository)

	NewInventoryLog(activities, notifications, zap.NewNop(), nil).
		CreateTransactionLogEntry(context.Background(), "teleported", models.Actor{}, sampleTransaction(), nil)

	activities.AssertNotCalled(t, "InsertActivity", mock.Anything)
	notifications.AssertNotCalled(t, "InsertNotification", mock.Anything)
}
