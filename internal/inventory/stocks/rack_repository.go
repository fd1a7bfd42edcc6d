package stocks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/repository"
	custom_error "github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/errors"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

const (
	CanonicalCollection = "racks"
	LegacyCollection    = "Racks"
)

// RackRepository reads and rewrites rack documents in a single collection.
type RackRepository interface {
	// FindRackIn returns nil, nil when the rack is not stored in collection.
	FindRackIn(ctx context.Context, collection, rackID string, forUpdate bool) (*models.Rack, error)
	SaveProducts(ctx context.Context, collection, rackID string, lines []models.RackProductLine) error
	InsertRack(ctx context.Context, collection string, rack *models.Rack) error
}

type rackRepository struct {
	q repository.Querier
}

func NewRackRepository(q repository.Querier) RackRepository {
	return &rackRepository{q: q}
}

type flatRack struct {
	ID         string    `db:"id"`
	RackNumber string    `db:"rack_number"`
	Products   []byte    `db:"products"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r *rackRepository) FindRackIn(ctx context.Context, collection, rackID string, forUpdate bool) (*models.Rack, error) {
	query := r.q.From(goqu.T(collection)).
		Select("id", "rack_number", "products", "created_at").
		Where(goqu.Ex{"id": rackID})
	if forUpdate {
		query = query.ForUpdate(exp.Wait)
	}

	var row flatRack
	found, err := query.Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("unable to select rack %s from %s: %w", rackID, collection, err)
	}
	if !found {
		return nil, nil
	}

	rack := models.Rack{
		ID:         row.ID,
		RackNumber: row.RackNumber,
		CreatedAt:  row.CreatedAt,
		Collection: collection,
	}
	if len(row.Products) > 0 {
		if err := json.Unmarshal(row.Products, &rack.Products); err != nil {
			return nil, fmt.Errorf("failed to unmarshal products of rack %s: %w", rackID, err)
		}
	}

	return &rack, nil
}

func (r *rackRepository) SaveProducts(ctx context.Context, collection, rackID string, lines []models.RackProductLine) error {
	payload, err := marshalLines(lines)
	if err != nil {
		return err
	}

	result, err := r.q.Update(goqu.T(collection)).
		Set(goqu.Record{"products": goqu.L("?::jsonb", payload)}).
		Where(goqu.Ex{"id": rackID}).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update products of rack %s: %w", rackID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to retrieve rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("rack %s vanished from %s during update", rackID, collection)
	}

	return nil
}

func (r *rackRepository) InsertRack(ctx context.Context, collection string, rack *models.Rack) error {
	payload, err := marshalLines(rack.Products)
	if err != nil {
		return err
	}

	_, err = r.q.Insert(goqu.T(collection)).
		Rows(goqu.Record{
			"id":          rack.ID,
			"rack_number": rack.RackNumber,
			"products":    goqu.L("?::jsonb", payload),
			"created_at":  rack.CreatedAt,
		}).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert rack %s: %w", rack.RackNumber, custom_error.FromPQ(err))
	}

	rack.Collection = collection
	return nil
}

func marshalLines(lines []models.RackProductLine) (string, error) {
	if lines == nil {
		lines = []models.RackProductLine{}
	}
	b, err := json.Marshal(lines)
	if err != nil {
		return "", fmt.Errorf("failed to marshal rack products: %w", err)
	}
	return string(b), nil
}
