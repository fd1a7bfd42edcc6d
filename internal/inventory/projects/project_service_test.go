package projects

import (
	"context"
	"testing"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/stocks"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/store"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/repository/memory"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/roles"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	manager = models.Actor{ID: "3f2a9c1b-77aa-4d1e-9f00-000000000001", Role: roles.Manager}
	keeper  = models.Actor{ID: "keeper-1", Role: roles.Keeper}
	admin   = models.Actor{ID: "admin-1", Role: roles.Admin}
)

func newService() (*ProjectService, *memory.DB) {
	db := memory.NewDB()
	db.SeedRack(stocks.CanonicalCollection, models.Rack{
		ID:         "r1",
		RackNumber: "A-01",
		Products:   []models.RackProductLine{{Product: models.NewProductRef("p1"), Stock: 5}},
	})
	db.SeedRack(stocks.CanonicalCollection, models.Rack{ID: "r2", RackNumber: "B-01"})
	db.SeedProject(models.Project{ID: "pr1", Name: "Main", Racks: []string{"r1"}, Users: []string{"keeper-1", manager.ID}})
	db.SeedProject(models.Project{ID: "pr2", Name: "Annex", Racks: []string{"r2", "gone"}, Users: []string{manager.ID}})
	db.SeedProject(models.Project{ID: "pr3", Name: "Elsewhere", Racks: []string{}, Users: []string{}})
	return NewService(store.NewMemoryStore(db), zap.NewNop(), "LB"), db
}

func TestLobbyRackNumber(t *testing.T) {
	assert.Equal(t, "LB-3F2A9C-10F085", LobbyRackNumber("LB", "3f2a9c1b-77aa"))
	assert.Equal(t, "LB-AB1-476212", LobbyRackNumber("LB", "a-b_1"))
	assert.Equal(t, "LB-LOBBY-761C5E", LobbyRackNumber("LB", "--"))
	assert.NotEqual(t, LobbyRackNumber("LB", "manager-1"), LobbyRackNumber("LB", "manager-2"))
}

func TestEnsureLobbyForManagersSharingIDPrefix(t *testing.T) {
	ctx := context.Background()
	service, _ := newService()
	first := models.Actor{ID: "manager-1", Role: roles.Manager}
	second := models.Actor{ID: "manager-2", Role: roles.Manager}

	firstLobby, err := service.EnsureLobby(ctx, first)
	require.NoError(t, err)
	require.NotNil(t, firstLobby)

	secondLobby, err := service.EnsureLobby(ctx, second)
	require.NoError(t, err)
	require.NotNil(t, secondLobby)
	assert.NotEqual(t, firstLobby.ID, secondLobby.ID)
	assert.True(t, secondLobby.IsLobbyOf(second.ID))

	visible, err := service.VisibleProjects(ctx, second)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, secondLobby.ID, visible[0].ID)
}

func TestEnsureLobbyProvisionsOnce(t *testing.T) {
	ctx := context.Background()
	service, _ := newService()

	first, err := service.EnsureLobby(ctx, manager)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.True(t, first.IsLobbyOf(manager.ID))
	require.Len(t, first.Racks, 1)

	rack, err := stocks.NewTable(service.store.Repositories().Racks).Rack(ctx, first.Racks[0])
	require.NoError(t, err)
	assert.Equal(t, "LB-3F2A9C-85AE3E", rack.RackNumber)

	second, err := service.EnsureLobby(ctx, manager)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestEnsureLobbySkipsNonManagers(t *testing.T) {
	service, _ := newService()

	lobby, err := service.EnsureLobby(context.Background(), keeper)

	require.NoError(t, err)
	assert.Nil(t, lobby)
}

func TestVisibleProjects(t *testing.T) {
	ctx := context.Background()
	service, _ := newService()

	forKeeper, err := service.VisibleProjects(ctx, keeper)
	require.NoError(t, err)
	require.Len(t, forKeeper, 1)
	assert.Equal(t, "pr1", forKeeper[0].ID)

	forManager, err := service.VisibleProjects(ctx, manager)
	require.NoError(t, err)
	assert.Len(t, forManager, 3, "assigned projects plus the lobby")

	forAdmin, err := service.VisibleProjects(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, forAdmin, 4)
}

func TestListProjectsForProductKeepsLobby(t *testing.T) {
	ctx := context.Background()
	service, _ := newService()

	listings, err := service.ListProjectsFor(ctx, manager, "p1")
	require.NoError(t, err)

	require.Len(t, listings, 2)
	assert.Equal(t, "pr1", listings[0].ID)
	assert.Equal(t, 5, *listings[0].ProductStock)
	assert.True(t, listings[1].IsLobby)
	assert.Equal(t, 0, *listings[1].ProductStock)
}
