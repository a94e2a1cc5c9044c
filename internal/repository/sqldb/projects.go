package sqldb

import (
	"context"

	"github.com/google/uuid"

	"github.com/iliyamo/gameforge-studio/internal/model"
)

const projectColumns = `id, name, description, icon, status, engine, platform, owner_id,
	team_members, features, screenshots, last_updated, created_at`

func (s *Store) GetProject(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	found, err := s.getOne(ctx, "projects.get", &p, "SELECT "+projectColumns+" FROM projects WHERE id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]model.Project, error) {
	out := []model.Project{}
	err := s.selectAll(ctx, "projects.list", &out,
		"SELECT "+projectColumns+" FROM projects ORDER BY last_updated DESC")
	return out, err
}

func (s *Store) ListProjectsByOwner(ctx context.Context, ownerID string) ([]model.Project, error) {
	out := []model.Project{}
	err := s.selectAll(ctx, "projects.list_by_owner", &out,
		"SELECT "+projectColumns+" FROM projects WHERE owner_id = ? ORDER BY last_updated DESC", ownerID)
	return out, err
}

func (s *Store) CreateProject(ctx context.Context, in model.NewProject) (*model.Project, error) {
	now := s.timestamp()
	p := model.Project{
		ID:          in.ID,
		Name:        in.Name,
		Description: in.Description,
		Icon:        in.Icon,
		Status:      in.Status,
		Engine:      in.Engine,
		Platform:    in.Platform,
		OwnerID:     in.OwnerID,
		TeamMembers: model.StringList(in.TeamMembers).Clone(),
		Features:    model.StringList(in.Features).Clone(),
		Screenshots: model.StringList(in.Screenshots).Clone(),
		LastUpdated: now,
		CreatedAt:   now,
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = model.ProjectNotStarted
	}
	err := s.namedExec(ctx, "projects.create", `INSERT INTO projects (`+projectColumns+`) VALUES (
		:id, :name, :description, :icon, :status, :engine, :platform, :owner_id,
		:team_members, :features, :screenshots, :last_updated, :created_at)`, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpdateProject(ctx context.Context, id string, patch model.ProjectPatch) (*model.Project, error) {
	p, err := s.GetProject(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	patch.Apply(p)
	p.LastUpdated = s.timestamp()

	err = s.namedExec(ctx, "projects.update", `UPDATE projects SET
		name = :name, description = :description, icon = :icon, status = :status, engine = :engine,
		platform = :platform, team_members = :team_members, features = :features,
		screenshots = :screenshots, last_updated = :last_updated
		WHERE id = :id`, p)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) DeleteProject(ctx context.Context, id string) (bool, error) {
	return s.execAffected(ctx, "projects.delete", "DELETE FROM projects WHERE id = ?", id)
}
