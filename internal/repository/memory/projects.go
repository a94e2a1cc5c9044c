package memory

import (
	"context"
	"time"

	"github.com/iliyamo/gameforge-studio/internal/model"
)

func projectRecency(p model.Project) time.Time { return p.LastUpdated }

func (s *Store) GetProject(_ context.Context, id string) (*model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects.get(id)
	if !ok {
		return nil, nil
	}
	out := p.Clone()
	return &out, nil
}

func (s *Store) ListProjects(_ context.Context) ([]model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projects.list(nil, projectRecency, model.Project.Clone), nil
}

func (s *Store) ListProjectsByOwner(_ context.Context, ownerID string) ([]model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owned := func(p model.Project) bool { return p.OwnerID == ownerID }
	return s.projects.list(owned, projectRecency, model.Project.Clone), nil
}

func (s *Store) CreateProject(_ context.Context, in model.NewProject) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p := model.Project{
		ID:          newID(in.ID),
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
	if p.Status == "" {
		p.Status = model.ProjectNotStarted
	}
	s.projects.insert(p.ID, s.nextSeqLocked(), p)
	out := p.Clone()
	return &out, nil
}

func (s *Store) UpdateProject(_ context.Context, id string, patch model.ProjectPatch) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects.get(id)
	if !ok {
		return nil, nil
	}
	p = p.Clone()
	patch.Apply(&p)
	p.LastUpdated = s.now()
	s.projects.set(id, p)
	out := p.Clone()
	return &out, nil
}

func (s *Store) DeleteProject(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projects.remove(id), nil
}
