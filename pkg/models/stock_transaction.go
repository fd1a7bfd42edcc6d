package models

import (
	"time"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/metadata"
)

type TransferItem struct {
	ProductID     string `json:"productId"`
	ProjectID     string `json:"projectId"`
	RackID        string `json:"rackId"`
	Quantity      int    `json:"quantity"`
	ProductName   string `json:"productName"`
	ProjectName   string `json:"projectName"`
	RackNumber    string `json:"rackNumber"`
	PreviousStock int    `json:"previousStock"`
	NewStock      int    `json:"newStock"`
}

type StockTransaction struct {
	ID            string                   `json:"id"`
	Type          metadata.TransactionType `json:"type"`
	Status        metadata.Status          `json:"status"`
	IsOrderMode   bool                     `json:"isOrderMode"`
	Items         []TransferItem           `json:"items"`
	InvoiceNumber string                   `json:"invoiceNumber,omitempty"`
	Supplier      string                   `json:"supplier,omitempty"`
	Notes         string                   `json:"notes,omitempty"`
	CreatedBy     string                   `json:"createdBy"`
	ProcessedBy   *string                  `json:"processedBy,omitempty"`
	ProcessedAt   *time.Time               `json:"processedAt,omitempty"`
	CreatedAt     time.Time                `json:"createdAt"`
	UpdatedAt     time.Time                `json:"updatedAt"`

	// Flattened copy of the only item of a single-item transaction.
	ProductID     string `json:"productId,omitempty"`
	ProjectID     string `json:"projectId,omitempty"`
	RackID        string `json:"rackId,omitempty"`
	Quantity      int    `json:"quantity,omitempty"`
	ProductName   string `json:"productName,omitempty"`
	ProjectName   string `json:"projectName,omitempty"`
	RackNumber    string `json:"rackNumber,omitempty"`
	PreviousStock *int   `json:"previousStock,omitempty"`
	NewStock      *int   `json:"newStock,omitempty"`
}

// Flatten copies the item fields of a single-item transaction onto the document
// and clears them otherwise.
func (t *StockTransaction) Flatten() {
	if len(t.Items) != 1 {
		t.ProductID, t.ProjectID, t.RackID = "", "", ""
		t.ProductName, t.ProjectName, t.RackNumber = "", "", ""
		t.Quantity = 0
		t.PreviousStock, t.NewStock = nil, nil
		return
	}

	item := t.Items[0]
	prev, next := item.PreviousStock, item.NewStock
	t.ProductID = item.ProductID
	t.ProjectID = item.ProjectID
	t.RackID = item.RackID
	t.Quantity = item.Quantity
	t.ProductName = item.ProductName
	t.ProjectName = item.ProjectName
	t.RackNumber = item.RackNumber
	t.PreviousStock = &prev
	t.NewStock = &next
}

func (t *StockTransaction) TotalQuantity() int {
	total := 0
	for _, item := range t.Items {
		total += item.Quantity
	}
	return total
}

func (t *StockTransaction) CreateLogView() Activity {
	return Activity{
		EntityID:   t.ID,
		EntityType: "stock_transaction",
	}
}
