package sqldb

import (
	"context"

	"github.com/google/uuid"

	"github.com/iliyamo/gameforge-studio/internal/model"
)

const chatColumns = "id, name, description, type, is_main_chat, created_by, created_at, updated_at"
const memberColumns = "id, chat_id, user_id, role, joined_at"
const messageColumns = "id, chat_id, user_id, content, reply_to_id, edited_at, created_at"

func (s *Store) GetChat(ctx context.Context, id string) (*model.Chat, error) {
	var c model.Chat
	found, err := s.getOne(ctx, "chats.get", &c, "SELECT "+chatColumns+" FROM chats WHERE id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListChats(ctx context.Context) ([]model.Chat, error) {
	out := []model.Chat{}
	err := s.selectAll(ctx, "chats.list", &out, "SELECT "+chatColumns+" FROM chats ORDER BY created_at DESC")
	return out, err
}

func (s *Store) ListChatsByUser(ctx context.Context, userID string) ([]model.Chat, error) {
	out := []model.Chat{}
	err := s.selectAll(ctx, "chats.list_by_user", &out, `SELECT c.id, c.name, c.description, c.type,
		c.is_main_chat, c.created_by, c.created_at, c.updated_at
		FROM chats c JOIN chat_members m ON m.chat_id = c.id
		WHERE m.user_id = ? ORDER BY c.created_at DESC`, userID)
	return out, err
}

func (s *Store) CreateChat(ctx context.Context, in model.NewChat) (*model.Chat, error) {
	now := s.timestamp()
	c := model.Chat{
		ID:          in.ID,
		Name:        in.Name,
		Description: in.Description,
		Type:        in.Type,
		IsMainChat:  in.IsMainChat,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Type == "" {
		c.Type = model.ChatGroup
	}
	err := s.namedExec(ctx, "chats.create", `INSERT INTO chats (`+chatColumns+`) VALUES (
		:id, :name, :description, :type, :is_main_chat, :created_by, :created_at, :updated_at)`, &c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) UpdateChat(ctx context.Context, id string, patch model.ChatPatch) (*model.Chat, error) {
	c, err := s.GetChat(ctx, id)
	if err != nil || c == nil {
		return nil, err
	}
	patch.Apply(c)
	c.UpdatedAt = s.timestamp()
	err = s.namedExec(ctx, "chats.update", `UPDATE chats SET
		name = :name, description = :description, updated_at = :updated_at
		WHERE id = :id`, c)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteChat removes messages, members and the chat in one transaction.
func (s *Store) DeleteChat(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := s.retry(ctx, "chats.delete", func(ctx context.Context) error {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback() // no-op after Commit

		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM messages WHERE chat_id = ?"), id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM chat_members WHERE chat_id = ?"), id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM chats WHERE id = ?"), id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		removed = n > 0
		return nil
	})
	return removed, err
}

func (s *Store) ListChatMembers(ctx context.Context, chatID string) ([]model.ChatMember, error) {
	out := []model.ChatMember{}
	err := s.selectAll(ctx, "chat_members.list", &out,
		"SELECT "+memberColumns+" FROM chat_members WHERE chat_id = ? ORDER BY joined_at DESC", chatID)
	return out, err
}

func (s *Store) GetChatMember(ctx context.Context, chatID, userID string) (*model.ChatMember, error) {
	var m model.ChatMember
	found, err := s.getOne(ctx, "chat_members.get", &m,
		"SELECT "+memberColumns+" FROM chat_members WHERE chat_id = ? AND user_id = ?", chatID, userID)
	if err != nil || !found {
		return nil, err
	}
	return &m, nil
}

func (s *Store) AddChatMember(ctx context.Context, chatID, userID, role string) (*model.ChatMember, error) {
	existing, err := s.GetChatMember(ctx, chatID, userID)
	if err != nil || existing != nil {
		return existing, err
	}
	if role == "" {
		role = model.MemberMember
	}
	m := model.ChatMember{
		ID:       uuid.NewString(),
		ChatID:   chatID,
		UserID:   userID,
		Role:     role,
		JoinedAt: s.timestamp(),
	}
	err = s.namedExec(ctx, "chat_members.add", `INSERT INTO chat_members (`+memberColumns+`)
		VALUES (:id, :chat_id, :user_id, :role, :joined_at)`, &m)
	if err != nil {
		if isUniqueViolation(err) {
			// lost a race with a concurrent add of the same pair
			return s.GetChatMember(ctx, chatID, userID)
		}
		return nil, err
	}
	return &m, nil
}

func (s *Store) RemoveChatMember(ctx context.Context, chatID, userID string) (bool, error) {
	return s.execAffected(ctx, "chat_members.remove",
		"DELETE FROM chat_members WHERE chat_id = ? AND user_id = ?", chatID, userID)
}

func (s *Store) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	var m model.Message
	found, err := s.getOne(ctx, "messages.get", &m, "SELECT "+messageColumns+" FROM messages WHERE id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return &m, nil
}

func (s *Store) ListMessages(ctx context.Context, chatID string) ([]model.Message, error) {
	out := []model.Message{}
	err := s.selectAll(ctx, "messages.list", &out,
		"SELECT "+messageColumns+" FROM messages WHERE chat_id = ? ORDER BY created_at DESC", chatID)
	return out, err
}

func (s *Store) CreateMessage(ctx context.Context, in model.NewMessage) (*model.Message, error) {
	m := model.Message{
		ID:        in.ID,
		ChatID:    in.ChatID,
		UserID:    in.UserID,
		Content:   in.Content,
		ReplyToID: in.ReplyToID,
		CreatedAt: s.timestamp(),
	}.Clone()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	err := s.namedExec(ctx, "messages.create", `INSERT INTO messages (`+messageColumns+`)
		VALUES (:id, :chat_id, :user_id, :content, :reply_to_id, :edited_at, :created_at)`, &m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) UpdateMessage(ctx context.Context, id string, patch model.MessagePatch) (*model.Message, error) {
	m, err := s.GetMessage(ctx, id)
	if err != nil || m == nil {
		return nil, err
	}
	if patch.Content != nil {
		m.Content = *patch.Content
	}
	edited := s.timestamp()
	m.EditedAt = &edited
	err = s.namedExec(ctx, "messages.update",
		"UPDATE messages SET content = :content, edited_at = :edited_at WHERE id = :id", m)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Store) DeleteMessage(ctx context.Context, id string) (bool, error) {
	return s.execAffected(ctx, "messages.delete", "DELETE FROM messages WHERE id = ?", id)
}
