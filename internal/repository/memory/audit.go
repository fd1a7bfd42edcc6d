package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/repository"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"
)

// AuditRepository stores activities, notifications and admin actions.
type AuditRepository struct {
	s Session
}

func (r *AuditRepository) InsertActivity(_ context.Context, activity *models.Activity) error {
	return r.s.do(func(d *dataset) error {
		d.activities = append(d.activities, *activity)
		return nil
	})
}

func (r *AuditRepository) ListActivities(_ context.Context, conditions repository.QueryBuilder, limit, offset int) ([]models.Activity, error) {
	matched := []models.Activity{}
	err := r.s.do(func(d *dataset) error {
		for i := len(d.activities) - 1; i >= 0; i-- {
			if matchesActivity(d.activities[i], conditions.Conditions()) {
				matched = append(matched, d.activities[i])
			}
		}
		return nil
	})
	return page(matched, limit, offset), err
}

func matchesActivity(a models.Activity, conditions map[string]interface{}) bool {
	for key, want := range conditions {
		var got string
		switch key {
		case "entity_id":
			got = a.EntityID
		case "entity_type":
			got = a.EntityType
		case "action":
			got = a.Action
		case "actor_id":
			got = a.ActorID
		default:
			return false
		}
		if got != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func (r *AuditRepository) InsertNotification(_ context.Context, notification *models.Notification) error {
	return r.s.do(func(d *dataset) error {
		d.notifications = append(d.notifications, *notification)
		return nil
	})
}

func (r *AuditRepository) ListNotifications(_ context.Context, recipientID string, recipientRoles []string, limit, offset int) ([]models.Notification, error) {
	matched := []models.Notification{}
	err := r.s.do(func(d *dataset) error {
		for i := len(d.notifications) - 1; i >= 0; i-- {
			n := d.notifications[i]
			if (n.RecipientID != nil && *n.RecipientID == recipientID) ||
				(n.RecipientRole != nil && slices.Contains(recipientRoles, *n.RecipientRole)) {
				matched = append(matched, n)
			}
		}
		return nil
	})
	return page(matched, limit, offset), err
}

func (r *AuditRepository) InsertAdminAction(_ context.Context, action *models.AdminAction) error {
	return r.s.do(func(d *dataset) error {
		d.adminActions = append(d.adminActions, *action)
		return nil
	})
}

func (r *AuditRepository) ListAdminActions(_ context.Context, limit, offset int) ([]models.AdminAction, error) {
	actions := []models.AdminAction{}
	err := r.s.do(func(d *dataset) error {
		for i := len(d.adminActions) - 1; i >= 0; i-- {
			actions = append(actions, d.adminActions[i])
		}
		return nil
	})
	return page(actions, limit, offset), err
}
