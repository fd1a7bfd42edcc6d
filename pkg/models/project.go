package models

import (
	"slices"
	"time"
)

// Project is a warehouse/work context. A lobby project is a manager's personal
// default warehouse.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	Racks     []string  `json:"racks"`
	Users     []string  `json:"users"`
	IsLobby   bool      `json:"isLobby"`
	ManagerID *string   `json:"managerId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p *Project) HasRack(rackID string) bool {
	return slices.Contains(p.Racks, rackID)
}

func (p *Project) HasUser(userID string) bool {
	return slices.Contains(p.Users, userID)
}

func (p *Project) IsLobbyOf(managerID string) bool {
	return p.IsLobby && p.ManagerID != nil && *p.ManagerID == managerID
}
