package memory

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/gameforge-studio/internal/model"
	"github.com/iliyamo/gameforge-studio/internal/repository"
)

func (s *Store) GetUser(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users.get(id)
	if !ok {
		return nil, nil
	}
	out := u.Clone()
	return &out, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findUserLocked(func(u model.User) bool { return u.Username == username }), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findUserLocked(func(u model.User) bool { return strings.EqualFold(u.Email, email) }), nil
}

func (s *Store) findUserLocked(match func(model.User) bool) *model.User {
	for _, r := range s.users {
		if match(r.val) {
			out := r.val.Clone()
			return &out
		}
	}
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users.list(nil, func(u model.User) time.Time { return u.CreatedAt }, model.User.Clone), nil
}

func (s *Store) CreateUser(_ context.Context, in model.NewUser) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.users {
		if r.val.Username == in.Username || strings.EqualFold(r.val.Email, in.Email) {
			return nil, repository.ErrConflict
		}
	}
	u := model.User{
		ID:           newID(in.ID),
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
		CreatedAt:    s.now(),
	}
	if u.Role == "" {
		u.Role = model.DefaultRole
	}
	if u.Availability == "" {
		u.Availability = model.AvailabilityOnline
	}
	if _, exists := s.users.get(u.ID); exists {
		return nil, repository.ErrConflict
	}
	u = u.Clone()
	s.users.insert(u.ID, s.nextSeqLocked(), u)
	out := u.Clone()
	return &out, nil
}

func (s *Store) UpdateUser(_ context.Context, id string, patch model.UserPatch) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users.get(id)
	if !ok {
		return nil, nil
	}
	if patch.Email != nil {
		for otherID, r := range s.users {
			if otherID != id && strings.EqualFold(r.val.Email, *patch.Email) {
				return nil, repository.ErrConflict
			}
		}
	}
	u = u.Clone()
	patch.Apply(&u)
	s.users.set(id, u)
	out := u.Clone()
	return &out, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, id, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users.get(id)
	if !ok {
		return false, nil
	}
	u.Password = hash
	s.users.set(id, u)
	return true, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users.remove(id), nil
}
