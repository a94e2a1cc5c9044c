package memory

import (
	"context"
	"time"

	"github.com/iliyamo/gameforge-studio/internal/model"
)

func chatRecency(c model.Chat) time.Time { return c.CreatedAt }
func memberRecency(m model.ChatMember) time.Time { return m.JoinedAt }
func messageRecency(m model.Message) time.Time { return m.CreatedAt }

func (s *Store) GetChat(_ context.Context, id string) (*model.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chats.get(id)
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *Store) ListChats(_ context.Context) ([]model.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chats.list(nil, chatRecency, identity[model.Chat]), nil
}

func (s *Store) ListChatsByUser(_ context.Context, userID string) ([]model.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	joined := make(map[string]bool)
	for _, r := range s.members {
		if r.val.UserID == userID {
			joined[r.val.ChatID] = true
		}
	}
	keep := func(c model.Chat) bool { return joined[c.ID] }
	return s.chats.list(keep, chatRecency, identity[model.Chat]), nil
}

func (s *Store) CreateChat(_ context.Context, in model.NewChat) (*model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c := model.Chat{
		ID:          newID(in.ID),
		Name:        in.Name,
		Description: in.Description,
		Type:        in.Type,
		IsMainChat:  in.IsMainChat,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if c.Type == "" {
		c.Type = model.ChatGroup
	}
	s.chats.insert(c.ID, s.nextSeqLocked(), c)
	return &c, nil
}

func (s *Store) UpdateChat(_ context.Context, id string, patch model.ChatPatch) (*model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chats.get(id)
	if !ok {
		return nil, nil
	}
	patch.Apply(&c)
	c.UpdatedAt = s.now()
	s.chats.set(id, c)
	return &c, nil
}

func (s *Store) DeleteChat(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.chats.remove(id) {
		return false, nil
	}
	for mid, r := range s.messages {
		if r.val.ChatID == id {
			delete(s.messages, mid)
		}
	}
	for mid, r := range s.members {
		if r.val.ChatID == id {
			delete(s.members, mid)
		}
	}
	return true, nil
}

func (s *Store) ListChatMembers(_ context.Context, chatID string) ([]model.ChatMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inChat := func(m model.ChatMember) bool { return m.ChatID == chatID }
	return s.members.list(inChat, memberRecency, identity[model.ChatMember]), nil
}

func (s *Store) GetChatMember(_ context.Context, chatID, userID string) (*model.ChatMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findMemberLocked(chatID, userID), nil
}

func (s *Store) findMemberLocked(chatID, userID string) *model.ChatMember {
	for _, r := range s.members {
		if r.val.ChatID == chatID && r.val.UserID == userID {
			m := r.val
			return &m
		}
	}
	return nil
}

func (s *Store) AddChatMember(_ context.Context, chatID, userID, role string) (*model.ChatMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.findMemberLocked(chatID, userID); existing != nil {
		return existing, nil
	}
	if role == "" {
		role = model.MemberMember
	}
	m := model.ChatMember{
		ID:       newID(""),
		ChatID:   chatID,
		UserID:   userID,
		Role:     role,
		JoinedAt: s.now(),
	}
	s.members.insert(m.ID, s.nextSeqLocked(), m)
	return &m, nil
}

func (s *Store) RemoveChatMember(_ context.Context, chatID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.findMemberLocked(chatID, userID)
	if m == nil {
		return false, nil
	}
	return s.members.remove(m.ID), nil
}

func (s *Store) GetMessage(_ context.Context, id string) (*model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages.get(id)
	if !ok {
		return nil, nil
	}
	out := m.Clone()
	return &out, nil
}

func (s *Store) ListMessages(_ context.Context, chatID string) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inChat := func(m model.Message) bool { return m.ChatID == chatID }
	return s.messages.list(inChat, messageRecency, model.Message.Clone), nil
}

func (s *Store) CreateMessage(_ context.Context, in model.NewMessage) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := model.Message{
		ID:        newID(in.ID),
		ChatID:    in.ChatID,
		UserID:    in.UserID,
		Content:   in.Content,
		ReplyToID: in.ReplyToID,
		CreatedAt: s.now(),
	}.Clone()
	s.messages.insert(m.ID, s.nextSeqLocked(), m)
	out := m.Clone()
	return &out, nil
}

func (s *Store) UpdateMessage(_ context.Context, id string, patch model.MessagePatch) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages.get(id)
	if !ok {
		return nil, nil
	}
	m = m.Clone()
	if patch.Content != nil {
		m.Content = *patch.Content
	}
	edited := s.now()
	m.EditedAt = &edited
	s.messages.set(id, m)
	out := m.Clone()
	return &out, nil
}

func (s *Store) DeleteMessage(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages.remove(id), nil
}
