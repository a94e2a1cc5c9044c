package model

import "time"

// Metrics holds one user's dashboard counters. There is at most one row per
// user.
type Metrics struct {
	ID             string    `json:"id" db:"id"`
	UserID         string    `json:"userId" db:"user_id"`
	ActiveProjects int       `json:"activeProjects" db:"active_projects"`
	TeamMembers    int       `json:"teamMembers" db:"team_members"`
	AssetsCreated  int       `json:"assetsCreated" db:"assets_created"`
	GamesPublished int       `json:"gamesPublished" db:"games_published"`
	Revenue        int       `json:"revenue" db:"revenue"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// MetricsValues is the input to UpsertMetrics.
type MetricsValues struct {
	ActiveProjects int `json:"activeProjects" validate:"min=0"`
	TeamMembers    int `json:"teamMembers" validate:"min=0"`
	AssetsCreated  int `json:"assetsCreated" validate:"min=0"`
	GamesPublished int `json:"gamesPublished" validate:"min=0"`
	Revenue        int `json:"revenue" validate:"min=0"`
}
