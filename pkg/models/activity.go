package models

import "time"

// Activity is an append-only audit trail entry.
type Activity struct {
	ID         string                 `json:"id" db:"id"`
	EntityID   string                 `json:"entityId" db:"entity_id"`
	EntityType string                 `json:"entityType" db:"entity_type"`
	Action     string                 `json:"action" db:"action"`
	ActorID    string                 `json:"actorId,omitempty" db:"actor_id"`
	Message    string                 `json:"message" db:"message"`
	Metadata   map[string]interface{} `json:"metadata" db:"-"`
	CreatedAt  time.Time              `json:"createdAt" db:"created_at"`
}

type NotificationType string

const (
	NotificationOrderRequest          NotificationType = "order_request"
	NotificationStockIn               NotificationType = "stock_in"
	NotificationStockOut              NotificationType = "stock_out"
	NotificationTransferApproved      NotificationType = "transfer_approved"
	NotificationTransferRejected      NotificationType = "transfer_rejected"
	NotificationOrderRequestCancelled NotificationType = "order_request_cancelled"
	NotificationTransactionCancelled  NotificationType = "stock_transaction_cancelled"
	NotificationStockOverride         NotificationType = "stock_override"
)

type Notification struct {
	ID            string                 `json:"id"`
	Type          NotificationType       `json:"type"`
	Title         string                 `json:"title"`
	Message       string                 `json:"message"`
	EntityID      string                 `json:"entityId"`
	EntityType    string                 `json:"entityType"`
	RecipientID   *string                `json:"recipientId,omitempty"`
	RecipientRole *string                `json:"recipientRole,omitempty"`
	Metadata      map[string]interface{} `json:"metadata"`
	CreatedAt     time.Time              `json:"createdAt"`
}

// AdminAction records one direct ledger override verbatim.
type AdminAction struct {
	ID         string                 `json:"id"`
	Action     string                 `json:"action"`
	OperatorID string                 `json:"operatorId"`
	Reason     string                 `json:"reason"`
	ProductID  string                 `json:"productId"`
	ProjectID  string                 `json:"projectId"`
	RackID     string                 `json:"rackId"`
	RackNumber string                 `json:"rackNumber"`
	Before     map[string]interface{} `json:"before"`
	After      map[string]interface{} `json:"after"`
	CreatedAt  time.Time              `json:"createdAt"`
}

func (a *AdminAction) CreateLogView() Activity {
	return Activity{
		EntityID:   a.ID,
		EntityType: "admin_action",
	}
}
