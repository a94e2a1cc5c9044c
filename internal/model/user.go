package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Availability values shown next to a user's avatar.
const (
	AvailabilityOnline  = "online"
	AvailabilityAway    = "away"
	AvailabilityBusy    = "busy"
	AvailabilityOffline = "offline"
)

// Visibility values used by privacy settings.
const (
	VisibilityPublic  = "public"
	VisibilityTeam    = "team"
	VisibilityPrivate = "private"
)

// DefaultRole is assigned to accounts created without an explicit role.
const DefaultRole = "Game Developer"

// User mirrors the users table. Password holds the bcrypt hash and is never
// serialized.
type User struct {
	ID             string       `json:"id" db:"id"`
	Username       string       `json:"username" db:"username"`
	Password       string       `json:"-" db:"password"`
	Email          string       `json:"email" db:"email"`
	DisplayName    string       `json:"displayName" db:"display_name"`
	Role           string       `json:"role" db:"role"`
	Avatar         *string      `json:"avatar" db:"avatar"`
	Banner         *string      `json:"banner" db:"banner"`
	Bio            *string      `json:"bio" db:"bio"`
	Status         *string      `json:"status" db:"status"`
	Location       *string      `json:"location" db:"location"`
	PortfolioLink  *string      `json:"portfolioLink" db:"portfolio_link"`
	Skills         StringList   `json:"skills" db:"skills"`
	CurrentProject *string      `json:"currentProject" db:"current_project"`
	Availability   string       `json:"availability" db:"availability"`
	Settings       UserSettings `json:"settings" db:"settings"`
	CreatedAt      time.Time    `json:"createdAt" db:"created_at"`
}

// NotificationSettings toggles outbound notifications.
type NotificationSettings struct {
	Email          bool `json:"email"`
	Push           bool `json:"push"`
	ProjectUpdates bool `json:"projectUpdates"`
	TeamMessages   bool `json:"teamMessages"`
	Marketing      bool `json:"marketing"`
}

// PrivacySettings controls who can see profile data.
type PrivacySettings struct {
	ProfileVisibility  string `json:"profileVisibility" validate:"omitempty,oneof=public team private"`
	ActivityVisibility string `json:"activityVisibility" validate:"omitempty,oneof=public team private"`
	ShowEmail          bool   `json:"showEmail"`
}

// UserSettings is stored as a single JSON column.
type UserSettings struct {
	Notifications NotificationSettings `json:"notifications"`
	Privacy       PrivacySettings      `json:"privacy"`
}

// DefaultUserSettings is applied to new accounts.
func DefaultUserSettings() UserSettings {
	return UserSettings{
		Notifications: NotificationSettings{
			Email:          true,
			Push:           true,
			ProjectUpdates: true,
			TeamMessages:   true,
		},
		Privacy: PrivacySettings{
			ProfileVisibility:  VisibilityPublic,
			ActivityVisibility: VisibilityTeam,
		},
	}
}

// Value encodes the settings as JSON text.
func (s UserSettings) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan decodes the JSON settings column.
func (s *UserSettings) Scan(src interface{}) error {
	raw, err := jsonBytes(src)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		*s = DefaultUserSettings()
		return nil
	}
	if err := json.Unmarshal(raw, s); err != nil {
		return fmt.Errorf("scan user settings: %w", err)
	}
	return nil
}

// NewUser is the input to CreateUser. ID is optional and only set by fixtures.
type NewUser struct {
	ID           string
	Username     string
	Password     string // already hashed
	Email        string
	DisplayName  string
	Role         string
	Avatar       *string
	Bio          *string
	Location     *string
	Skills       []string
	Availability string
}

// UserPatch lists the profile fields a user may change. Anything not listed
// here (id, username, password, createdAt) cannot be updated through it.
type UserPatch struct {
	Email          *string       `json:"email" validate:"omitempty,email,max=255"`
	DisplayName    *string       `json:"displayName" validate:"omitempty,min=1,max=100"`
	Role           *string       `json:"role" validate:"omitempty,max=100"`
	Avatar         *string       `json:"avatar" validate:"omitempty,max=2048"`
	Banner         *string       `json:"banner" validate:"omitempty,max=2048"`
	Bio            *string       `json:"bio" validate:"omitempty,max=1000"`
	Status         *string       `json:"status" validate:"omitempty,max=200"`
	Location       *string       `json:"location" validate:"omitempty,max=200"`
	PortfolioLink  *string       `json:"portfolioLink" validate:"omitempty,url,max=2048"`
	Skills         *[]string     `json:"skills" validate:"omitempty,max=30,dive,min=1,max=50"`
	CurrentProject *string       `json:"currentProject" validate:"omitempty,max=200"`
	Availability   *string       `json:"availability" validate:"omitempty,oneof=online away busy offline"`
	Settings       *UserSettings `json:"settings"`
}

// Apply merges the patch into u.
func (p UserPatch) Apply(u *User) {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.DisplayName != nil {
		u.DisplayName = *p.DisplayName
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Avatar != nil {
		u.Avatar = copyString(p.Avatar)
	}
	if p.Banner != nil {
		u.Banner = copyString(p.Banner)
	}
	if p.Bio != nil {
		u.Bio = copyString(p.Bio)
	}
	if p.Status != nil {
		u.Status = copyString(p.Status)
	}
	if p.Location != nil {
		u.Location = copyString(p.Location)
	}
	if p.PortfolioLink != nil {
		u.PortfolioLink = copyString(p.PortfolioLink)
	}
	if p.Skills != nil {
		u.Skills = StringList(*p.Skills).Clone()
	}
	if p.CurrentProject != nil {
		u.CurrentProject = copyString(p.CurrentProject)
	}
	if p.Availability != nil {
		u.Availability = *p.Availability
	}
	if p.Settings != nil {
		u.Settings = *p.Settings
	}
}

// Clone returns a deep copy of the user.
func (u User) Clone() User {
	u.Avatar = copyString(u.Avatar)
	u.Banner = copyString(u.Banner)
	u.Bio = copyString(u.Bio)
	u.Status = copyString(u.Status)
	u.Location = copyString(u.Location)
	u.PortfolioLink = copyString(u.PortfolioLink)
	u.CurrentProject = copyString(u.CurrentProject)
	u.Skills = u.Skills.Clone()
	return u
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
