package sqldb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/gameforge-studio/internal/model"
	"github.com/iliyamo/gameforge-studio/internal/repository"
)

const userColumns = `id, username, password, email, display_name, role, avatar, banner, bio,
	status, location, portfolio_link, skills, current_project, availability, settings, created_at`

func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.findUser(ctx, "users.get", "id = ?", id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findUser(ctx, "users.get_by_username", "username = ?", username)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, "users.get_by_email", "LOWER(email) = ?", strings.ToLower(email))
}

func (s *Store) findUser(ctx context.Context, op, where string, arg interface{}) (*model.User, error) {
	var u model.User
	found, err := s.getOne(ctx, op, &u, "SELECT "+userColumns+" FROM users WHERE "+where, arg)
	if err != nil || !found {
		return nil, err
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	out := []model.User{}
	err := s.selectAll(ctx, "users.list", &out, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC")
	return out, err
}

func (s *Store) CreateUser(ctx context.Context, in model.NewUser) (*model.User, error) {
	u := model.User{
		ID:           in.ID,
		Username:     in.Username,
		Password:     in.Password,
		Email:        in.Email,
		DisplayName:  in.DisplayName,
		Role:         in.Role,
		Avatar:       in.Avatar,
		Bio:          in.Bio,
		Location:     in.Location,
		Skills:       model.StringList(in.Skills).Clone(),
		Availability: in.Availability,
		Settings:     model.DefaultUserSettings(),
		CreatedAt:    s.timestamp(),
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = model.DefaultRole
	}
	if u.Availability == "" {
		u.Availability = model.AvailabilityOnline
	}

	err := s.namedExec(ctx, "users.create", `INSERT INTO users (`+userColumns+`) VALUES (
		:id, :username, :password, :email, :display_name, :role, :avatar, :banner, :bio,
		:status, :location, :portfolio_link, :skills, :current_project, :availability, :settings, :created_at)`, &u)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrConflict
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil || u == nil {
		return nil, err
	}
	patch.Apply(u)

	err = s.namedExec(ctx, "users.update", `UPDATE users SET
		email = :email, display_name = :display_name, role = :role, avatar = :avatar, banner = :banner,
		bio = :bio, status = :status, location = :location, portfolio_link = :portfolio_link,
		skills = :skills, current_project = :current_project, availability = :availability,
		settings = :settings
		WHERE id = :id`, u)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrConflict
		}
		return nil, err
	}
	return u, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, id, hash string) (bool, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil || u == nil {
		return false, err
	}
	// MySQL reports zero affected rows when the value is unchanged, so the
	// lookup above decides existence.
	_, err = s.execAffected(ctx, "users.update_password", "UPDATE users SET password = ? WHERE id = ?", hash, id)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) (bool, error) {
	return s.execAffected(ctx, "users.delete", "DELETE FROM users WHERE id = ?", id)
}
