package memory

import (
	"context"

	custom_error "github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/errors"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"
)

type ReferenceRepository struct {
	s Session
}

func (r *ReferenceRepository) GetProduct(_ context.Context, id string) (*models.Product, error) {
	var found *models.Product
	err := r.s.do(func(d *dataset) error {
		product, ok := d.products[id]
		if !ok {
			return custom_error.NewNotFoundError("product", id)
		}
		found = &product
		return nil
	})
	return found, err
}

func (r *ReferenceRepository) GetProject(_ context.Context, id string) (*models.Project, error) {
	var found *models.Project
	err := r.s.do(func(d *dataset) error {
		project, ok := d.projects[id]
		if !ok {
			return custom_error.NewNotFoundError("project", id)
		}
		c := copyProject(project)
		found = &c
		return nil
	})
	return found, err
}

func (r *ReferenceRepository) ListProjects(_ context.Context) ([]models.Project, error) {
	projects := []models.Project{}
	err := r.s.do(func(d *dataset) error {
		for _, id := range d.projectOrder {
			projects = append(projects, copyProject(d.projects[id]))
		}
		return nil
	})
	return projects, err
}

func (r *ReferenceRepository) FindLobby(_ context.Context, managerID string) (*models.Project, error) {
	var found *models.Project
	err := r.s.do(func(d *dataset) error {
		for _, id := range d.projectOrder {
			project := d.projects[id]
			if project.IsLobbyOf(managerID) {
				c := copyProject(project)
				found = &c
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *ReferenceRepository) InsertProject(_ context.Context, project *models.Project) error {
	return r.s.do(func(d *dataset) error {
		if _, ok := d.projects[project.ID]; ok {
			return custom_error.WrapDBError("project "+project.ID+" already exists", "23505")
		}
		if project.IsLobby && project.ManagerID != nil {
			for _, existing := range d.projects {
				if existing.IsLobbyOf(*project.ManagerID) {
					return custom_error.WrapDBError("lobby already provisioned for manager "+*project.ManagerID, "23505")
				}
			}
		}
		d.projects[project.ID] = copyProject(*project)
		d.projectOrder = append(d.projectOrder, project.ID)
		return nil
	})
}
