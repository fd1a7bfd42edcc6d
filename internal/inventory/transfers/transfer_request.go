package transfers

import (
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"
)

// TransferItemRequest is checked item by item by the service so that every
// problem in a batch is reported together.
type TransferItemRequest struct {
	ProductID string `json:"productId"`
	ProjectID string `json:"projectId"`
	RackID    string `json:"rackId"`
	Quantity  int    `json:"quantity"`
}

type CreateTransactionRequest struct {
	Type          string                `json:"type" binding:"required,txtype"`
	Items         []TransferItemRequest `json:"items" binding:"required,min=1"`
	IsOrderMode   bool                  `json:"isOrderMode"`
	InvoiceNumber string                `json:"invoiceNumber"`
	Supplier      string                `json:"supplier"`
	Notes         string                `json:"notes"`
}

type CreateTransactionResult struct {
	Transaction   *models.StockTransaction `json:"transaction"`
	ItemCount     int                      `json:"itemCount"`
	TotalQuantity int                      `json:"totalQuantity"`
}

// ApproveResult carries the per-item failures of a partially applied approval.
type ApproveResult struct {
	Success     bool                     `json:"success"`
	Transaction *models.StockTransaction `json:"transaction"`
	Errors      []string                 `json:"errors,omitempty"`
}
