package models

import "time"

type ProjectHold struct {
	ProjectID    string    `json:"projectId" db:"project_id"`
	ProductID    string    `json:"productId" db:"product_id"`
	HeldQuantity int       `json:"heldQuantity" db:"held_quantity"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

type RackHold struct {
	RackNumber   string    `json:"rackNumber" db:"rack_number"`
	ProjectID    string    `json:"projectId" db:"project_id"`
	ProductID    string    `json:"productId" db:"product_id"`
	HeldQuantity int       `json:"heldQuantity" db:"held_quantity"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
