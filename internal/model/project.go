package model

import "time"

// Project status values.
const (
	ProjectNotStarted = "not-started"
	ProjectInProgress = "in-progress"
	ProjectLive       = "live"
)

// Project mirrors the projects table.
type Project struct {
	ID          string     `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	Icon        string     `json:"icon" db:"icon"`
	Status      string     `json:"status" db:"status"`
	Engine      string     `json:"engine" db:"engine"`
	Platform    string     `json:"platform" db:"platform"`
	OwnerID     string     `json:"ownerId" db:"owner_id"`
	TeamMembers StringList `json:"teamMembers" db:"team_members"`
	Features    StringList `json:"features" db:"features"`
	Screenshots StringList `json:"screenshots" db:"screenshots"`
	LastUpdated time.Time  `json:"lastUpdated" db:"last_updated"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
}

// Clone returns a deep copy of the project.
func (p Project) Clone() Project {
	p.TeamMembers = p.TeamMembers.Clone()
	p.Features = p.Features.Clone()
	p.Screenshots = p.Screenshots.Clone()
	return p
}

// HasMember reports whether userID owns the project or is on its team.
func (p Project) HasMember(userID string) bool {
	return p.OwnerID == userID || p.TeamMembers.Contains(userID)
}

// NewProject is the input to CreateProject.
type NewProject struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Status      string
	Engine      string
	Platform    string
	OwnerID     string
	TeamMembers []string
	Features    []string
	Screenshots []string
}

// ProjectPatch lists the mutable project fields. The owner cannot be changed.
type ProjectPatch struct {
	Name        *string   `json:"name" validate:"omitempty,min=1,max=120"`
	Description *string   `json:"description" validate:"omitempty,max=2000"`
	Icon        *string   `json:"icon" validate:"omitempty,max=2048"`
	Status      *string   `json:"status" validate:"omitempty,oneof=not-started in-progress live"`
	Engine      *string   `json:"engine" validate:"omitempty,oneof=unity unreal godot gamemaker custom"`
	Platform    *string   `json:"platform" validate:"omitempty,oneof=pc mobile console web cross-platform"`
	TeamMembers *[]string `json:"teamMembers" validate:"omitempty,max=100,dive,min=1"`
	Features    *[]string `json:"features" validate:"omitempty,max=50,dive,min=1,max=200"`
	Screenshots *[]string `json:"screenshots" validate:"omitempty,max=20,dive,min=1,max=2048"`
}

// Apply merges the patch into p.
func (pp ProjectPatch) Apply(p *Project) {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Icon != nil {
		p.Icon = *pp.Icon
	}
	if pp.Status != nil {
		p.Status = *pp.Status
	}
	if pp.Engine != nil {
		p.Engine = *pp.Engine
	}
	if pp.Platform != nil {
		p.Platform = *pp.Platform
	}
	if pp.TeamMembers != nil {
		p.TeamMembers = StringList(*pp.TeamMembers).Clone()
	}
	if pp.Features != nil {
		p.Features = StringList(*pp.Features).Clone()
	}
	if pp.Screenshots != nil {
		p.Screenshots = StringList(*pp.Screenshots).Clone()
	}
}
