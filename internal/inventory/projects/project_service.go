package projects

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/stocks"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/internal/inventory/store"
	custom_error "github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/errors"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/roles"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	lobbyName      = "Lobby"
	lobbyColor     = "#9e9e9e"
	shortIDLength  = 6
	digestLength   = 6
	defaultShortID = "LOBBY"
)

type ProjectService struct {
	store           store.Store
	logger          *zap.Logger
	lobbyRackPrefix string
	now             func() time.Time
}

func NewService(s store.Store, logger *zap.Logger, lobbyRackPrefix string) *ProjectService {
	return &ProjectService{
		store:           s,
		logger:          logger,
		lobbyRackPrefix: lobbyRackPrefix,
		now:             time.Now,
	}
}

// ProjectListing is a project as seen by one caller, optionally with the
// on-hand quantity of the product the listing was filtered by.
type ProjectListing struct {
	models.Project
	ProductStock *int `json:"productStock,omitempty"`
}

// LobbyRackNumber derives the lobby rack label from the first alphanumerics of
// the manager id followed by a digest of the whole id, e.g. LB-3F2A9C-10F085.
// Rack numbers are unique, so ids sharing a prefix must still differ.
func LobbyRackNumber(prefix, managerID string) string {
	var short strings.Builder
	for _, r := range strings.ToUpper(managerID) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			short.WriteRune(r)
			if short.Len() == shortIDLength {
				break
			}
		}
	}
	if short.Len() == 0 {
		short.WriteString(defaultShortID)
	}
	digest := uuid.NewSHA1(uuid.NameSpaceOID, []byte(managerID)).String()[:digestLength]
	return prefix + "-" + short.String() + "-" + strings.ToUpper(digest)
}

// EnsureLobby returns the manager's lobby project, provisioning it together
// with its default rack on first access. Callers that are not managers get nil.
func (s *ProjectService) EnsureLobby(ctx context.Context, actor models.Actor) (*models.Project, error) {
	if actor.Role != roles.Manager {
		return nil, nil
	}

	lobby, err := s.store.Repositories().Reference.FindLobby(ctx, actor.ID)
	if err != nil || lobby != nil {
		return lobby, err
	}

	managerID := actor.ID
	now := s.now()
	err = s.store.WithinTx(ctx, func(repos store.Repositories) error {
		rack := &models.Rack{
			ID:         uuid.NewString(),
			RackNumber: LobbyRackNumber(s.lobbyRackPrefix, managerID),
			Products:   []models.RackProductLine{},
			CreatedAt:  now,
		}
		if err := repos.Racks.InsertRack(ctx, stocks.CanonicalCollection, rack); err != nil {
			return err
		}

		lobby = &models.Project{
			ID:        uuid.NewString(),
			Name:      lobbyName,
			Color:     lobbyColor,
			Racks:     []string{rack.ID},
			Users:     []string{managerID},
			IsLobby:   true,
			ManagerID: &managerID,
			CreatedAt: now,
		}
		return repos.Reference.InsertProject(ctx, lobby)
	})

	if custom_error.IsUniqueViolation(err) {
		// Another request provisioned it first.
		existing, findErr := s.store.Repositories().Reference.FindLobby(ctx, managerID)
		if findErr == nil && existing != nil {
			return existing, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to provision lobby for manager %s: %w", managerID, err)
	}

	s.logger.Info("Lobby provisioned",
		zap.String("manager_id", managerID),
		zap.String("project_id", lobby.ID),
		zap.String("rack_id", lobby.Racks[0]),
	)
	return lobby, nil
}

// VisibleProjects lists every project for admins and, for everyone else, the
// projects they are assigned to plus their own lobby.
func (s *ProjectService) VisibleProjects(ctx context.Context, actor models.Actor) ([]models.Project, error) {
	if _, err := s.EnsureLobby(ctx, actor); err != nil {
		return nil, err
	}

	all, err := s.store.Repositories().Reference.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	if actor.Can(roles.Admin) {
		return all, nil
	}

	visible := make([]models.Project, 0, len(all))
	for _, project := range all {
		if project.HasUser(actor.ID) || project.IsLobbyOf(actor.ID) {
			visible = append(visible, project)
		}
	}
	return visible, nil
}

// ListProjectsFor narrows the visible projects to those stocking productID.
// The caller's own lobby always stays in the listing.
func (s *ProjectService) ListProjectsFor(ctx context.Context, actor models.Actor, productID string) ([]ProjectListing, error) {
	visible, err := s.VisibleProjects(ctx, actor)
	if err != nil {
		return nil, err
	}

	listings := make([]ProjectListing, 0, len(visible))
	if productID == "" {
		for _, project := range visible {
			listings = append(listings, ProjectListing{Project: project})
		}
		return listings, nil
	}

	table := stocks.NewTable(s.store.Repositories().Racks)
	for _, project := range visible {
		onHand, err := s.projectStock(ctx, table, project, productID)
		if err != nil {
			return nil, err
		}
		if onHand > 0 || project.IsLobbyOf(actor.ID) {
			listings = append(listings, ProjectListing{Project: project, ProductStock: &onHand})
		}
	}
	return listings, nil
}

func (s *ProjectService) projectStock(ctx context.Context, table *stocks.Table, project models.Project, productID string) (int, error) {
	total := 0
	for _, rackID := range project.Racks {
		rack, err := table.Rack(ctx, rackID)
		if custom_error.IsNotFound(err) {
			s.logger.Debug("Project references missing rack", zap.String("project_id", project.ID), zap.String("rack_id", rackID))
			continue
		}
		if err != nil {
			return 0, err
		}
		total += table.StockOf(rack, productID)
	}
	return total, nil
}
