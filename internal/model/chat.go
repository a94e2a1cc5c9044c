package model

import "time"

// Chat types.
const (
	ChatGroup   = "group"
	ChatDirect  = "direct"
	ChatProject = "project"
)

// Chat member roles.
const (
	MemberAdmin  = "admin"
	MemberMember = "member"
)

// Chat is a conversation room.
type Chat struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Type        string    `json:"type" db:"type"`
	IsMainChat  bool      `json:"isMainChat" db:"is_main_chat"`
	CreatedBy   string    `json:"createdBy" db:"created_by"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// NewChat is the input to CreateChat.
type NewChat struct {
	ID          string
	Name        string
	Description string
	Type        string
	IsMainChat  bool
	CreatedBy   string
}

// ChatPatch lists the mutable chat fields.
type ChatPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// Apply merges the patch into c.
func (p ChatPatch) Apply(c *Chat) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
}

// ChatMember joins a user to a chat. (ChatID, UserID) is unique.
type ChatMember struct {
	ID       string    `json:"id" db:"id"`
	ChatID   string    `json:"chatId" db:"chat_id"`
	UserID   string    `json:"userId" db:"user_id"`
	Role     string    `json:"role" db:"role"`
	JoinedAt time.Time `json:"joinedAt" db:"joined_at"`
}

// Message belongs to exactly one chat.
type Message struct {
	ID        string     `json:"id" db:"id"`
	ChatID    string     `json:"chatId" db:"chat_id"`
	UserID    string     `json:"userId" db:"user_id"`
	Content   string     `json:"content" db:"content"`
	ReplyToID *string    `json:"replyToId" db:"reply_to_id"`
	EditedAt  *time.Time `json:"editedAt" db:"edited_at"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	m.ReplyToID = copyString(m.ReplyToID)
	m.EditedAt = copyTime(m.EditedAt)
	return m
}

// NewMessage is the input to CreateMessage.
type NewMessage struct {
	ID        string
	ChatID    string
	UserID    string
	Content   string
	ReplyToID *string
}

// MessagePatch lists the mutable message fields. Editing sets EditedAt.
type MessagePatch struct {
	Content *string `json:"content" validate:"omitempty,min=1,max=4000"`
}
