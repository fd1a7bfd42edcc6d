// Package memory keeps every repository in process memory. It backs the
// `memory` storage driver and the service tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"
)

type rackHoldKey struct {
	rackNumber string
	projectID  string
	productID  string
}

type projectHoldKey struct {
	projectID string
	productID string
}

type dataset struct {
	racks         map[string]map[string]models.Rack
	rackHolds     map[rackHoldKey]models.RackHold
	projectHolds  map[projectHoldKey]models.ProjectHold
	transactions  map[string]models.StockTransaction
	txOrder       []string
	products      map[string]models.Product
	projects      map[string]models.Project
	projectOrder  []string
	activities    []models.Activity
	notifications []models.Notification
	adminActions  []models.AdminAction
}

func newDataset() *dataset {
	return &dataset{
		racks:        map[string]map[string]models.Rack{},
		rackHolds:    map[rackHoldKey]models.RackHold{},
		projectHolds: map[projectHoldKey]models.ProjectHold{},
		transactions: map[string]models.StockTransaction{},
		products:     map[string]models.Product{},
		projects:     map[string]models.Project{},
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	for collection, racks := range d.racks {
		c.racks[collection] = make(map[string]models.Rack, len(racks))
		for id, rack := range racks {
			c.racks[collection][id] = copyRack(rack)
		}
	}
	for k, v := range d.rackHolds {
		c.rackHolds[k] = v
	}
	for k, v := range d.projectHolds {
		c.projectHolds[k] = v
	}
	for k, v := range d.transactions {
		c.transactions[k] = copyTransaction(v)
	}
	for k, v := range d.products {
		c.products[k] = v
	}
	for k, v := range d.projects {
		c.projects[k] = copyProject(v)
	}
	c.txOrder = slices.Clone(d.txOrder)
	c.projectOrder = slices.Clone(d.projectOrder)
	c.activities = slices.Clone(d.activities)
	c.notifications = slices.Clone(d.notifications)
	c.adminActions = slices.Clone(d.adminActions)
	return c
}

// DB is a process-local database. Writes made inside WithinTx are discarded
// when the callback fails.
type DB struct {
	mu   sync.Mutex
	data *dataset
}

func NewDB() *DB {
	return &DB{data: newDataset()}
}

// Session hands out repositories. A session obtained from WithinTx runs under
// the lock already held by the transaction.
type Session struct {
	db   *DB
	inTx bool
}

func (db *DB) Session() Session {
	return Session{db: db}
}

// WithinTx serializes fn against every other memory operation and restores the
// previous state if fn returns an error or panics.
func (db *DB) WithinTx(ctx context.Context, fn func(Session) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	snapshot := db.data.clone()
	defer func() {
		if p := recover(); p != nil {
			db.data = snapshot
			panic(p)
		}
		if err != nil {
			db.data = snapshot
		}
	}()

	return fn(Session{db: db, inTx: true})
}

func (db *DB) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s Session) do(fn func(d *dataset) error) error {
	if !s.inTx {
		s.db.mu.Lock()
		defer s.db.mu.Unlock()
	}
	return fn(s.db.data)
}

func (s Session) Racks() *RackRepository {
	return &RackRepository{s: s}
}

func (s Session) Holds() *HoldRepository {
	return &HoldRepository{s: s}
}

func (s Session) Transactions() *TransactionRepository {
	return &TransactionRepository{s: s}
}

func (s Session) Reference() *ReferenceRepository {
	return &ReferenceRepository{s: s}
}

func (s Session) AuditTrail() *AuditRepository {
	return &AuditRepository{s: s}
}

// SeedRack stores rack in collection as is, including legacy product reference shapes.
func (db *DB) SeedRack(collection string, rack models.Rack) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.data.racks[collection] == nil {
		db.data.racks[collection] = map[string]models.Rack{}
	}
	db.data.racks[collection][rack.ID] = copyRack(rack)
}

func (db *DB) SeedProduct(product models.Product) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data.products[product.ID] = product
}

func (db *DB) SeedProject(project models.Project) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.data.projects[project.ID]; !ok {
		db.data.projectOrder = append(db.data.projectOrder, project.ID)
	}
	db.data.projects[project.ID] = copyProject(project)
}

func copyRack(r models.Rack) models.Rack {
	r.Products = slices.Clone(r.Products)
	return r
}

func copyProject(p models.Project) models.Project {
	p.Racks = slices.Clone(p.Racks)
	p.Users = slices.Clone(p.Users)
	if p.ManagerID != nil {
		id := *p.ManagerID
		p.ManagerID = &id
	}
	return p
}

func copyTransaction(t models.StockTransaction) models.StockTransaction {
	t.Items = slices.Clone(t.Items)
	if t.ProcessedBy != nil {
		by := *t.ProcessedBy
		t.ProcessedBy = &by
	}
	if t.ProcessedAt != nil {
		at := *t.ProcessedAt
		t.ProcessedAt = &at
	}
	t.Flatten()
	return t
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
