package inventorylog

import (
	"context"
	"fmt"
	"time"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/metrics"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/metadata"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/roles"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ActionCreated   = "created"
	ActionApproved  = "approved"
	ActionRejected  = "rejected"
	ActionCancelled = "cancelled"
)

// InventoryLog writes the activity trail and notifications that follow a
// committed transition. Failures are logged and counted, never returned.
type InventoryLog struct {
	activities    ActivityRepository
	notifications NotificationRepository
	logger        *zap.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
}

func NewInventoryLog(a ActivityRepository, n NotificationRepository, logger *zap.Logger, m *metrics.Metrics) *InventoryLog {
	return &InventoryLog{
		activities:    a,
		notifications: n,
		logger:        logger,
		metrics:       m,
		now:           time.Now,
	}
}

type logMessage struct {
	activity     string
	title        string
	notification models.NotificationType
}

func transactionMessage(action string, ts *models.StockTransaction) (logMessage, bool) {
	switch action {
	case ActionCreated:
		if ts.IsOrderMode {
			return logMessage{"Order request submitted", "New order request", models.NotificationOrderRequest}, true
		}
		if ts.Type == metadata.TransactionOut {
			return logMessage{"Stock issued", "Stock issued", models.NotificationStockOut}, true
		}
		return logMessage{"Stock received", "Stock received", models.NotificationStockIn}, true
	case ActionApproved:
		return logMessage{"Transfer approved", "Your request was approved", models.NotificationTransferApproved}, true
	case ActionRejected:
		return logMessage{"Transfer rejected", "Your request was rejected", models.NotificationTransferRejected}, true
	case ActionCancelled:
		if ts.IsOrderMode {
			return logMessage{"Order request cancelled", "Order request cancelled", models.NotificationOrderRequestCancelled}, true
		}
		return logMessage{"Stock transaction cancelled and reversed", "Stock transaction cancelled", models.NotificationTransactionCancelled}, true
	}
	return logMessage{}, false
}

// CreateTransactionLogEntry records one transition of ts. extra is merged into
// the metadata of both records.
func (s *InventoryLog) CreateTransactionLogEntry(ctx context.Context, action string, actor models.Actor, ts *models.StockTransaction, extra map[string]interface{}) {
	messages, ok := transactionMessage(action, ts)
	if !ok {
		return
	}

	items := make([]map[string]interface{}, 0, len(ts.Items))
	for _, item := range ts.Items {
		items = append(items, map[string]interface{}{
			"product_id":     item.ProductID,
			"rack_id":        item.RackID,
			"rack_number":    item.RackNumber,
			"quantity":       item.Quantity,
			"previous_stock": item.PreviousStock,
			"new_stock":      item.NewStock,
		})
	}

	meta := map[string]interface{}{
		"transaction_id": ts.ID,
		"type":           ts.Type.String(),
		"status":         ts.Status.String(),
		"is_order_mode":  ts.IsOrderMode,
		"item_count":     len(ts.Items),
		"total_quantity": ts.TotalQuantity(),
		"items":          items,
	}
	for k, v := range extra {
		meta[k] = v
	}

	activity := ts.CreateLogView()
	activity.Action = action
	activity.ActorID = actor.ID
	activity.Message = fmt.Sprintf("%s (%d items, %d units)", messages.activity, len(ts.Items), ts.TotalQuantity())
	activity.Metadata = meta
	s.saveActivity(ctx, &activity)

	notification := models.Notification{
		Type:       messages.notification,
		Title:      messages.title,
		Message:    activity.Message,
		EntityID:   ts.ID,
		EntityType: activity.EntityType,
		Metadata:   meta,
	}
	if action == ActionCreated {
		notification.RecipientRole = rolePtr(roles.Manager)
	} else {
		creator := ts.CreatedBy
		notification.RecipientID = &creator
	}
	s.saveNotification(ctx, &notification)
}

func (s *InventoryLog) CreateAdminActionLogEntry(ctx context.Context, actor models.Actor, a *models.AdminAction) {
	meta := map[string]interface{}{
		"admin_action_id": a.ID,
		"product_id":      a.ProductID,
		"project_id":      a.ProjectID,
		"rack_id":         a.RackID,
		"rack_number":     a.RackNumber,
		"reason":          a.Reason,
		"before":          a.Before,
		"after":           a.After,
	}

	activity := a.CreateLogView()
	activity.Action = a.Action
	activity.ActorID = actor.ID
	activity.Message = fmt.Sprintf("Direct stock override on rack %s: %s", a.RackNumber, a.Reason)
	activity.Metadata = meta
	s.saveActivity(ctx, &activity)

	s.saveNotification(ctx, &models.Notification{
		Type:          models.NotificationStockOverride,
		Title:         "Stock overridden by administrator",
		Message:       activity.Message,
		EntityID:      a.ID,
		EntityType:    activity.EntityType,
		RecipientRole: rolePtr(roles.Admin),
		Metadata:      meta,
	})
}

func (s *InventoryLog) saveActivity(ctx context.Context, activity *models.Activity) {
	activity.ID = uuid.NewString()
	activity.CreatedAt = s.now()

	if err := s.activities.InsertActivity(context.WithoutCancel(ctx), activity); err != nil {
		s.metrics.AuditSinkFailure()
		s.logger.Warn("Unable to write activity",
			zap.String("entity_id", activity.EntityID),
			zap.String("action", activity.Action),
			zap.Error(err),
		)
	}
}

func (s *InventoryLog) saveNotification(ctx context.Context, notification *models.Notification) {
	notification.ID = uuid.NewString()
	notification.CreatedAt = s.now()

	if err := s.notifications.InsertNotification(context.WithoutCancel(ctx), notification); err != nil {
		s.metrics.AuditSinkFailure()
		s.logger.Warn("Unable to enqueue notification",
			zap.String("entity_id", notification.EntityID),
			zap.String("type", string(notification.Type)),
			zap.Error(err),
		)
	}
}

func rolePtr(r roles.Role) *string {
	s := r.String()
	return &s
}
