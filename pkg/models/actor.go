package models

import "github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/roles"

// Actor is the authenticated caller. It is threaded explicitly through every
// state-changing operation.
type Actor struct {
	ID   string     `json:"id"`
	Role roles.Role `json:"role"`
}

func (a Actor) Can(required roles.Role) bool {
	return a.Role.HasPermission(required)
}
