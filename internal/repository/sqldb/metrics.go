package sqldb

import (
	"context"

	"github.com/google/uuid"

	"github.com/iliyamo/gameforge-studio/internal/model"
)

const metricsColumns = `id, user_id, active_projects, team_members, assets_created,
	games_published, revenue, updated_at`

func (s *Store) GetMetrics(ctx context.Context, userID string) (*model.Metrics, error) {
	var m model.Metrics
	found, err := s.getOne(ctx, "metrics.get", &m, "SELECT "+metricsColumns+" FROM metrics WHERE user_id = ?", userID)
	if err != nil || !found {
		return nil, err
	}
	return &m, nil
}

// UpsertMetrics reads before writing instead of using a dialect specific
// upsert statement.
func (s *Store) UpsertMetrics(ctx context.Context, userID string, v model.MetricsValues) (*model.Metrics, error) {
	existing, err := s.GetMetrics(ctx, userID)
	if err != nil {
		return nil, err
	}
	m := model.Metrics{
		UserID:         userID,
		ActiveProjects: v.ActiveProjects,
		TeamMembers:    v.TeamMembers,
		AssetsCreated:  v.AssetsCreated,
		GamesPublished: v.GamesPublished,
		Revenue:        v.Revenue,
		UpdatedAt:      s.timestamp(),
	}
	if existing == nil {
		m.ID = uuid.NewString()
		err = s.namedExec(ctx, "metrics.insert", `INSERT INTO metrics (`+metricsColumns+`) VALUES (
			:id, :user_id, :active_projects, :team_members, :assets_created,
			:games_published, :revenue, :updated_at)`, &m)
		if err == nil {
			return &m, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		// a concurrent writer inserted first; fall through to update its row
		if existing, err = s.GetMetrics(ctx, userID); err != nil || existing == nil {
			return nil, err
		}
	}
	m.ID = existing.ID
	err = s.namedExec(ctx, "metrics.update", `UPDATE metrics SET
		active_projects = :active_projects, team_members = :team_members, assets_created = :assets_created,
		games_published = :games_published, revenue = :revenue, updated_at = :updated_at
		WHERE user_id = :user_id`, &m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
