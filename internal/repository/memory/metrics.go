package memory

import (
	"context"

	"github.com/iliyamo/gameforge-studio/internal/model"
)

func (s *Store) GetMetrics(_ context.Context, userID string) (*model.Metrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.metrics.get(userID)
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *Store) UpsertMetrics(_ context.Context, userID string, v model.MetricsValues) (*model.Metrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.metrics.get(userID)
	if !ok {
		m = model.Metrics{ID: newID(""), UserID: userID}
	}
	m.ActiveProjects = v.ActiveProjects
	m.TeamMembers = v.TeamMembers
	m.AssetsCreated = v.AssetsCreated
	m.GamesPublished = v.GamesPublished
	m.Revenue = v.Revenue
	m.UpdatedAt = s.now()
	if ok {
		s.metrics.set(userID, m)
	} else {
		s.metrics.insert(userID, s.nextSeqLocked(), m)
	}
	return &m, nil
}
