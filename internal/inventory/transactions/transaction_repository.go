package transactions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/repository"
	custom_error "github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/errors"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/metadata"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

// Repository is the append-only log of stock movements. Only status, processing
// stamps and per-item audit snapshots change after insertion.
type Repository interface {
	Insert(ctx context.Context, t *models.StockTransaction) error
	Get(ctx context.Context, id string) (*models.StockTransaction, error)
	// UpdateStatus moves the transaction from `from` to `to` and reports false
	// when the stored status no longer equals `from`.
	UpdateStatus(ctx context.Context, id string, from, to metadata.Status, processedBy string, at time.Time) (bool, error)
	SaveItems(ctx context.Context, id string, items []models.TransferItem) error
	List(ctx context.Context, conditions repository.QueryBuilder, limit, offset int) ([]models.StockTransaction, error)
}

type transactionRepository struct {
	q repository.Querier
}

func NewRepository(q repository.Querier) Repository {
	return &transactionRepository{q: q}
}

type flatTransaction struct {
	ID            string     `db:"id"`
	Type          string     `db:"type"`
	Status        string     `db:"status"`
	IsOrderMode   bool       `db:"is_order_mode"`
	Items         []byte     `db:"items"`
	InvoiceNumber string     `db:"invoice_number"`
	Supplier      string     `db:"supplier"`
	Notes         string     `db:"notes"`
	CreatedBy     string     `db:"created_by"`
	ProcessedBy   *string    `db:"processed_by"`
	ProcessedAt   *time.Time `db:"processed_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

var transactionColumns = []interface{}{
	"id", "type", "status", "is_order_mode", "items", "invoice_number", "supplier", "notes",
	"created_by", "processed_by", "processed_at", "created_at", "updated_at",
}

func (r *transactionRepository) Insert(ctx context.Context, t *models.StockTransaction) error {
	t.Flatten()
	record, err := itemsRecord(t.Items)
	if err != nil {
		return err
	}

	record["id"] = t.ID
	record["type"] = t.Type.String()
	record["status"] = t.Status.String()
	record["is_order_mode"] = t.IsOrderMode
	record["invoice_number"] = t.InvoiceNumber
	record["supplier"] = t.Supplier
	record["notes"] = t.Notes
	record["created_by"] = t.CreatedBy
	record["created_at"] = t.CreatedAt
	record["updated_at"] = t.UpdatedAt

	_, err = r.q.Insert("stock_transactions").Rows(record).Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert stock transaction: %w", custom_error.FromPQ(err))
	}
	return nil
}

func (r *transactionRepository) Get(ctx context.Context, id string) (*models.StockTransaction, error) {
	var row flatTransaction
	found, err := r.q.From("stock_transactions").
		Select(transactionColumns...).
		Where(goqu.Ex{"id": id}).
		Executor().
		ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("unable to select stock transaction %s: %w", id, err)
	}
	if !found {
		return nil, custom_error.NewNotFoundError("stock transaction", id)
	}
	return row.toModel()
}

func (r *transactionRepository) UpdateStatus(ctx context.Context, id string, from, to metadata.Status, processedBy string, at time.Time) (bool, error) {
	result, err := r.q.Update("stock_transactions").
		Set(goqu.Record{
			"status":       to.String(),
			"processed_by": processedBy,
			"processed_at": at,
			"updated_at":   at,
		}).
		Where(goqu.Ex{"id": id, "status": from.String()}).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to update status of stock transaction %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to retrieve rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

func (r *transactionRepository) SaveItems(ctx context.Context, id string, items []models.TransferItem) error {
	record, err := itemsRecord(items)
	if err != nil {
		return err
	}

	result, err := r.q.Update("stock_transactions").
		Set(record).
		Where(goqu.Ex{"id": id}).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update items of stock transaction %s: %w", id, err)
	}
	if rowsAffected, _ := result.RowsAffected(); rowsAffected == 0 {
		return custom_error.NewNotFoundError("stock transaction", id)
	}
	return nil
}

func (r *transactionRepository) List(ctx context.Context, conditions repository.QueryBuilder, limit, offset int) ([]models.StockTransaction, error) {
	query := r.q.From("stock_transactions").
		Select(transactionColumns...).
		Order(goqu.I("created_at").Desc())

	if conditions.HasConditions() {
		query = query.Where(conditions.BuildConditions(nil))
	}
	if limit > 0 {
		query = query.Limit(uint(limit))
	}
	if offset > 0 {
		query = query.Offset(uint(offset))
	}

	var rows []flatTransaction
	if err := query.Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("unable to list stock transactions: %w", err)
	}

	list := make([]models.StockTransaction, 0, len(rows))
	for _, row := range rows {
		t, err := row.toModel()
		if err != nil {
			return nil, err
		}
		list = append(list, *t)
	}
	return list, nil
}

// itemsRecord renders the items column and the flattened single-item columns
// older readers still query.
func itemsRecord(items []models.TransferItem) (goqu.Record, error) {
	if items == nil {
		items = []models.TransferItem{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transaction items: %w", err)
	}

	view := models.StockTransaction{Items: items}
	view.Flatten()

	record := goqu.Record{
		"items":          goqu.L("?::jsonb", string(payload)),
		"product_id":     nullable(view.ProductID),
		"project_id":     nullable(view.ProjectID),
		"rack_id":        nullable(view.RackID),
		"quantity":       nil,
		"product_name":   nullable(view.ProductName),
		"project_name":   nullable(view.ProjectName),
		"rack_number":    nullable(view.RackNumber),
		"previous_stock": view.PreviousStock,
		"new_stock":      view.NewStock,
	}
	if len(items) == 1 {
		record["quantity"] = view.Quantity
	}
	return record, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (row flatTransaction) toModel() (*models.StockTransaction, error) {
	t := models.StockTransaction{
		ID:            row.ID,
		Type:          metadata.TransactionType(row.Type),
		Status:        metadata.Status(row.Status),
		IsOrderMode:   row.IsOrderMode,
		InvoiceNumber: row.InvoiceNumber,
		Supplier:      row.Supplier,
		Notes:         row.Notes,
		CreatedBy:     row.CreatedBy,
		ProcessedBy:   row.ProcessedBy,
		ProcessedAt:   row.ProcessedAt,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if err := json.Unmarshal(row.Items, &t.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal items of stock transaction %s: %w", row.ID, err)
	}
	t.Flatten()
	return &t, nil
}
