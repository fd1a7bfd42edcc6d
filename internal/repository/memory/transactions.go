package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/repository"
	custom_error "github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/errors"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/metadata"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"
)

type TransactionRepository struct {
	s Session
}

func (r *TransactionRepository) Insert(_ context.Context, t *models.StockTransaction) error {
	return r.s.do(func(d *dataset) error {
		if _, ok := d.transactions[t.ID]; ok {
			return custom_error.WrapDBError("stock transaction "+t.ID+" already exists", "23505")
		}
		d.transactions[t.ID] = copyTransaction(*t)
		d.txOrder = append(d.txOrder, t.ID)
		return nil
	})
}

func (r *TransactionRepository) Get(_ context.Context, id string) (*models.StockTransaction, error) {
	var found *models.StockTransaction
	err := r.s.do(func(d *dataset) error {
		t, ok := d.transactions[id]
		if !ok {
			return custom_error.NewNotFoundError("stock transaction", id)
		}
		c := copyTransaction(t)
		found = &c
		return nil
	})
	return found, err
}

func (r *TransactionRepository) UpdateStatus(_ context.Context, id string, from, to metadata.Status, processedBy string, at time.Time) (bool, error) {
	updated := false
	err := r.s.do(func(d *dataset) error {
		t, ok := d.transactions[id]
		if !ok || t.Status != from {
			return nil
		}
		t.Status = to
		t.ProcessedBy = &processedBy
		t.ProcessedAt = &at
		t.UpdatedAt = at
		d.transactions[id] = t
		updated = true
		return nil
	})
	return updated, err
}

func (r *TransactionRepository) SaveItems(_ context.Context, id string, items []models.TransferItem) error {
	return r.s.do(func(d *dataset) error {
		t, ok := d.transactions[id]
		if !ok {
			return custom_error.NewNotFoundError("stock transaction", id)
		}
		t.Items = slices.Clone(items)
		d.transactions[id] = copyTransaction(t)
		return nil
	})
}

func (r *TransactionRepository) List(_ context.Context, conditions repository.QueryBuilder, limit, offset int) ([]models.StockTransaction, error) {
	matched := []models.StockTransaction{}
	err := r.s.do(func(d *dataset) error {
		for i := len(d.txOrder) - 1; i >= 0; i-- {
			t := d.transactions[d.txOrder[i]]
			if matchesTransaction(t, conditions.Conditions()) {
				matched = append(matched, copyTransaction(t))
			}
		}
		return nil
	})
	return page(matched, limit, offset), err
}

func matchesTransaction(t models.StockTransaction, conditions map[string]interface{}) bool {
	for key, want := range conditions {
		var got interface{}
		switch key {
		case "status":
			got = t.Status.String()
		case "type":
			got = t.Type.String()
		case "is_order_mode":
			got = t.IsOrderMode
		case "created_by":
			got = t.CreatedBy
		default:
			return false
		}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}
