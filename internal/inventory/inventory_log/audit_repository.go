package inventorylog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/repository"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

type ActivityRepository interface {
	InsertActivity(ctx context.Context, activity *models.Activity) error
	ListActivities(ctx context.Context, conditions repository.QueryBuilder, limit, offset int) ([]models.Activity, error)
}

type NotificationRepository interface {
	InsertNotification(ctx context.Context, notification *models.Notification) error
	ListNotifications(ctx context.Context, recipientID string, recipientRoles []string, limit, offset int) ([]models.Notification, error)
}

// AdminActionRepository is the verbatim record of direct ledger overrides.
type AdminActionRepository interface {
	InsertAdminAction(ctx context.Context, action *models.AdminAction) error
	ListAdminActions(ctx context.Context, limit, offset int) ([]models.AdminAction, error)
}

// AuditRepository stores the append-only audit collections in postgres.
type AuditRepository struct {
	q repository.Querier
}

func NewAuditRepository(q repository.Querier) *AuditRepository {
	return &AuditRepository{q: q}
}

func toJSONB(v interface{}) (interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit payload: %w", err)
	}
	return goqu.L("?::jsonb", string(b)), nil
}

func fromJSONB(raw []byte) map[string]interface{} {
	out := map[string]interface{}{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}

func (r *AuditRepository) InsertActivity(ctx context.Context, activity *models.Activity) error {
	meta, err := toJSONB(activity.Metadata)
	if err != nil {
		return err
	}

	_, err = r.q.Insert("activities").
		Rows(goqu.Record{
			"id":          activity.ID,
			"entity_id":   activity.EntityID,
			"entity_type": activity.EntityType,
			"action":      activity.Action,
			"actor_id":    activity.ActorID,
			"message":     activity.Message,
			"metadata":    meta,
			"created_at":  activity.CreatedAt,
		}).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

type flatActivity struct {
	ID         string    `db:"id"`
	EntityID   string    `db:"entity_id"`
	EntityType string    `db:"entity_type"`
	Action     string    `db:"action"`
	ActorID    string    `db:"actor_id"`
	Message    string    `db:"message"`
	Metadata   []byte    `db:"metadata"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r *AuditRepository) ListActivities(ctx context.Context, conditions repository.QueryBuilder, limit, offset int) ([]models.Activity, error) {
	query := r.q.From("activities").
		Select("id", "entity_id", "entity_type", "action", "actor_id", "message", "metadata", "created_at").
		Order(goqu.I("created_at").Desc())
	if conditions.HasConditions() {
		query = query.Where(conditions.BuildConditions(nil))
	}
	query = paginate(query, limit, offset)

	var rows []flatActivity
	if err := query.Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("unable to list activities: %w", err)
	}

	activities := make([]models.Activity, 0, len(rows))
	for _, row := range rows {
		activities = append(activities, models.Activity{
			ID:         row.ID,
			EntityID:   row.EntityID,
			EntityType: row.EntityType,
			Action:     row.Action,
			ActorID:    row.ActorID,
			Message:    row.Message,
			Metadata:   fromJSONB(row.Metadata),
			CreatedAt:  row.CreatedAt,
		})
	}
	return activities, nil
}

func (r *AuditRepository) InsertNotification(ctx context.Context, notification *models.Notification) error {
	meta, err := toJSONB(notification.Metadata)
	if err != nil {
		return err
	}

	_, err = r.q.Insert("notifications").
		Rows(goqu.Record{
			"id":             notification.ID,
			"type":           string(notification.Type),
			"title":          notification.Title,
			"message":        notification.Message,
			"entity_id":      notification.EntityID,
			"entity_type":    notification.EntityType,
			"recipient_id":   notification.RecipientID,
			"recipient_role": notification.RecipientRole,
			"metadata":       meta,
			"created_at":     notification.CreatedAt,
		}).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

type flatNotification struct {
	ID            string    `db:"id"`
	Type          string    `db:"type"`
	Title         string    `db:"title"`
	Message       string    `db:"message"`
	EntityID      string    `db:"entity_id"`
	EntityType    string    `db:"entity_type"`
	RecipientID   *string   `db:"recipient_id"`
	RecipientRole *string   `db:"recipient_role"`
	Metadata      []byte    `db:"metadata"`
	CreatedAt     time.Time `db:"created_at"`
}

func (r *AuditRepository) ListNotifications(ctx context.Context, recipientID string, recipientRoles []string, limit, offset int) ([]models.Notification, error) {
	query := r.q.From("notifications").
		Select("id", "type", "title", "message", "entity_id", "entity_type", "recipient_id", "recipient_role", "metadata", "created_at").
		Where(goqu.Or(
			goqu.C("recipient_id").Eq(recipientID),
			goqu.C("recipient_role").In(recipientRoles),
		)).
		Order(goqu.I("created_at").Desc())
	query = paginate(query, limit, offset)

	var rows []flatNotification
	if err := query.Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("unable to list notifications: %w", err)
	}

	notifications := make([]models.Notification, 0, len(rows))
	for _, row := range rows {
		notifications = append(notifications, models.Notification{
			ID:            row.ID,
			Type:          models.NotificationType(row.Type),
			Title:         row.Title,
			Message:       row.Message,
			EntityID:      row.EntityID,
			EntityType:    row.EntityType,
			RecipientID:   row.RecipientID,
			RecipientRole: row.RecipientRole,
			Metadata:      fromJSONB(row.Metadata),
			CreatedAt:     row.CreatedAt,
		})
	}
	return notifications, nil
}

func (r *AuditRepository) InsertAdminAction(ctx context.Context, action *models.AdminAction) error {
	before, err := toJSONB(action.Before)
	if err != nil {
		return err
	}
	after, err := toJSONB(action.After)
	if err != nil {
		return err
	}

	_, err = r.q.Insert("admin_actions").
		Rows(goqu.Record{
			"id":          action.ID,
			"action":      action.Action,
			"operator_id": action.OperatorID,
			"reason":      action.Reason,
			"product_id":  action.ProductID,
			"project_id":  action.ProjectID,
			"rack_id":     action.RackID,
			"rack_number": action.RackNumber,
			"before":      before,
			"after":       after,
			"created_at":  action.CreatedAt,
		}).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert admin action: %w", err)
	}
	return nil
}

type flatAdminAction struct {
	ID         string    `db:"id"`
	Action     string    `db:"action"`
	OperatorID string    `db:"operator_id"`
	Reason     string    `db:"reason"`
	ProductID  string    `db:"product_id"`
	ProjectID  string    `db:"project_id"`
	RackID     string    `db:"rack_id"`
	RackNumber string    `db:"rack_number"`
	Before     []byte    `db:"before"`
	After      []byte    `db:"after"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r *AuditRepository) ListAdminActions(ctx context.Context, limit, offset int) ([]models.AdminAction, error) {
	query := r.q.From("admin_actions").
		Select("id", "action", "operator_id", "reason", "product_id", "project_id", "rack_id", "rack_number", "before", "after", "created_at").
		Order(goqu.I("created_at").Desc())
	query = paginate(query, limit, offset)

	var rows []flatAdminAction
	if err := query.Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("unable to list admin actions: %w", err)
	}

	actions := make([]models.AdminAction, 0, len(rows))
	for _, row := range rows {
		actions = append(actions, models.AdminAction{
			ID:         row.ID,
			Action:     row.Action,
			OperatorID: row.OperatorID,
			Reason:     row.Reason,
			ProductID:  row.ProductID,
			ProjectID:  row.ProjectID,
			RackID:     row.RackID,
			RackNumber: row.RackNumber,
			Before:     fromJSONB(row.Before),
			After:      fromJSONB(row.After),
			CreatedAt:  row.CreatedAt,
		})
	}
	return actions, nil
}

func paginate(query *goqu.SelectDataset, limit, offset int) *goqu.SelectDataset {
	if limit > 0 {
		query = query.Limit(uint(limit))
	}
	if offset > 0 {
		query = query.Offset(uint(offset))
	}
	return query
}
