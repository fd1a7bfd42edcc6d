// Package store binds the inventory repositories to one storage backend and
// runs units of work against it.
package store

import (
	"context"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/holds"
	inventorylog "github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/inventory_log"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/reference"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/stocks"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/transactions"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/repository"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/repository/memory"

	"github.com/doug-martin/goqu/v9"
)

type Repositories struct {
	Racks         stocks.RackRepository
	Holds         holds.Repository
	Transactions  transactions.Repository
	Reference     reference.Repository
	AdminActions  inventorylog.AdminActionRepository
	Activities    inventorylog.ActivityRepository
	Notifications inventorylog.NotificationRepository
}

// Store hands out repositories. Repositories passed to a WithinTx callback see
// one consistent snapshot and are committed together or not at all; they must
// not be used after the callback returns.
type Store interface {
	Repositories() Repositories
	WithinTx(ctx context.Context, fn func(Repositories) error) error
	Ping(ctx context.Context) error
}

type postgresStore struct {
	r *repository.Repository
}

func NewPostgresStore(r *repository.Repository) Store {
	return &postgresStore{r: r}
}

func bindQuerier(q repository.Querier) Repositories {
	audit := inventorylog.NewAuditRepository(q)
	return Repositories{
		Racks:         stocks.NewRackRepository(q),
		Holds:         holds.NewRepository(q),
		Transactions:  transactions.NewRepository(q),
		Reference:     reference.NewRepository(q),
		AdminActions:  audit,
		Activities:    audit,
		Notifications: audit,
	}
}

func (s *postgresStore) Repositories() Repositories {
	return bindQuerier(s.r.GoquDBWrapper)
}

func (s *postgresStore) WithinTx(ctx context.Context, fn func(Repositories) error) error {
	return repository.WithTransaction(ctx, s.r.GoquDBWrapper, func(tx *goqu.TxDatabase) error {
		return fn(bindQuerier(tx))
	})
}

func (s *postgresStore) Ping(ctx context.Context) error {
	return s.r.DB.PingContext(ctx)
}

type memoryStore struct {
	db *memory.DB
}

func NewMemoryStore(db *memory.DB) Store {
	return &memoryStore{db: db}
}

func bindSession(s memory.Session) Repositories {
	audit := s.AuditTrail()
	return Repositories{
		Racks:         s.Racks(),
		Holds:         s.Holds(),
		Transactions:  s.Transactions(),
		Reference:     s.Reference(),
		AdminActions:  audit,
		Activities:    audit,
		Notifications: audit,
	}
}

func (s *memoryStore) Repositories() Repositories {
	return bindSession(s.db.Session())
}

func (s *memoryStore) WithinTx(ctx context.Context, fn func(Repositories) error) error {
	return s.db.WithinTx(ctx, func(session memory.Session) error {
		return fn(bindSession(session))
	})
}

func (s *memoryStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
