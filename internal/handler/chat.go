package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gameforge-studio/internal/model"
	"github.com/iliyamo/gameforge-studio/internal/repository"
)

// ChatHandler serves chats, their membership and messages. All routes
// require a session.
type ChatHandler struct {
	Chats    repository.ChatStore
	Messages repository.MessageStore
	Users    repository.UserStore
}

func NewChatHandler(chats repository.ChatStore, messages repository.MessageStore, users repository.UserStore) *ChatHandler {
	if chats == nil || messages == nil || users == nil {
		panic("nil repository passed to NewChatHandler")
	}
	return &ChatHandler{Chats: chats, Messages: messages, Users: users}
}

// ----- DTOs -----

type createChatReq struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=500"`
	Type        string   `json:"type" validate:"omitempty,oneof=group direct project"`
	MemberIDs   []string `json:"memberIds" validate:"max=100,dive,min=1"`
}

type addMemberReq struct {
	UserID string `json:"userId" validate:"required"`
	Role   string `json:"role" validate:"omitempty,oneof=admin member"`
}

type createMessageReq struct {
	Content   string  `json:"content" validate:"required,max=4000"`
	ReplyToID *string `json:"replyToId" validate:"omitempty,min=1"`
}

type editMessageReq struct {
	Content string `json:"content" validate:"required,max=4000"`
}

// loadChat writes a 404 and returns nil when the chat does not exist.
func (h *ChatHandler) loadChat(c echo.Context) (*model.Chat, error) {
	chat, err := h.Chats.GetChat(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, internalError(err)
	}
	if chat == nil {
		return nil, notFound(c, "Chat")
	}
	return chat, nil
}

func (h *ChatHandler) membership(c echo.Context, chatID string) (*model.ChatMember, error) {
	return h.Chats.GetChatMember(c.Request().Context(), chatID, getUserID(c))
}

// List: GET /api/chats returns the chats the session user belongs to.
func (h *ChatHandler) List(c echo.Context) error {
	chats, err := h.Chats.ListChatsByUser(c.Request().Context(), getUserID(c))
	if err != nil {
		return internalError(err)
	}
	return c.JSON(http.StatusOK, chats)
}

// Create: POST /api/chats. The creator becomes an admin member; memberIds
// join as plain members. The chat and its members are written one call at
// a time, so a failure part way leaves the chat with fewer members.
func (h *ChatHandler) Create(c echo.Context) error {
	var req createChatReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	ctx := c.Request().Context()
	uid := getUserID(c)

	for _, id := range req.MemberIDs {
		u, err := h.Users.GetUser(ctx, id)
		if err != nil {
			return internalError(err)
		}
		if u == nil {
			return badRequest(c, invalid(FieldError{Field: "memberIds", Message: "unknown user " + id}))
		}
	}
	typ := req.Type
	if typ == "" {
		typ = model.ChatGroup
	}

	chat, err := h.Chats.CreateChat(ctx, model.NewChat{
		Name:        req.Name,
		Description: req.Description,
		Type:        typ,
		CreatedBy:   uid,
	})
	if err != nil {
		return storageError(c, err)
	}
	if _, err := h.Chats.AddChatMember(ctx, chat.ID, uid, model.MemberAdmin); err != nil {
		return internalError(err)
	}
	for _, id := range req.MemberIDs {
		if id == uid {
			continue
		}
		if _, err := h.Chats.AddChatMember(ctx, chat.ID, id, model.MemberMember); err != nil {
			return internalError(err)
		}
	}
	return c.JSON(http.StatusCreated, chat)
}

// Get: GET /api/chats/:id.
func (h *ChatHandler) Get(c echo.Context) error {
	chat, err := h.loadChat(c)
	if chat == nil {
		return err
	}
	return c.JSON(http.StatusOK, chat)
}

// Update: PATCH /api/chats/:id. Chat admins only.
func (h *ChatHandler) Update(c echo.Context) error {
	chat, err := h.loadChat(c)
	if chat == nil {
		return err
	}
	m, err := h.membership(c, chat.ID)
	if err != nil {
		return internalError(err)
	}
	if m == nil || m.Role != model.MemberAdmin {
		return forbidden(c)
	}
	var patch model.ChatPatch
	if err := bind(c, &patch, immutableKeys...); err != nil {
		return badRequest(c, err)
	}
	updated, err := h.Chats.UpdateChat(c.Request().Context(), chat.ID, patch)
	if err != nil {
		return storageError(c, err)
	}
	if updated == nil {
		return notFound(c, "Chat")
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete: DELETE /api/chats/:id removes the chat with its members and
// messages. Only the creator or an admin may delete it.
func (h *ChatHandler) Delete(c echo.Context) error {
	chat, err := h.loadChat(c)
	if chat == nil {
		return err
	}
	if chat.CreatedBy != getUserID(c) {
		m, err := h.membership(c, chat.ID)
		if err != nil {
			return internalError(err)
		}
		if m == nil || m.Role != model.MemberAdmin {
			return forbidden(c)
		}
	}
	if _, err := h.Chats.DeleteChat(c.Request().Context(), chat.ID); err != nil {
		return internalError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMembers: GET /api/chats/:id/members. Members only.
func (h *ChatHandler) ListMembers(c echo.Context) error {
	chat, err := h.loadChat(c)
	if chat == nil {
		return err
	}
	if self, err := h.membership(c, chat.ID); err != nil {
		return internalError(err)
	} else if self == nil {
		return forbidden(c)
	}
	members, err := h.Chats.ListChatMembers(c.Request().Context(), chat.ID)
	if err != nil {
		return internalError(err)
	}
	return c.JSON(http.StatusOK, members)
}

// AddMember: POST /api/chats/:id/members. Any member may invite. Adding an
// existing member returns the existing row with 200.
func (h *ChatHandler) AddMember(c echo.Context) error {
	chat, err := h.loadChat(c)
	if chat == nil {
		return err
	}
	var req addMemberReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	ctx := c.Request().Context()

	self, err := h.membership(c, chat.ID)
	if err != nil {
		return internalError(err)
	}
	if self == nil {
		return forbidden(c)
	}
	role := req.Role
	if role == "" {
		role = model.MemberMember
	}
	if role == model.MemberAdmin && self.Role != model.MemberAdmin {
		return forbidden(c)
	}

	u, err := h.Users.GetUser(ctx, req.UserID)
	if err != nil {
		return internalError(err)
	}
	if u == nil {
		return badRequest(c, invalid(FieldError{Field: "userId", Message: "does not exist"}))
	}
	if existing, err := h.Chats.GetChatMember(ctx, chat.ID, u.ID); err != nil {
		return internalError(err)
	} else if existing != nil {
		return c.JSON(http.StatusOK, existing)
	}
	m, err := h.Chats.AddChatMember(ctx, chat.ID, u.ID, role)
	if err != nil {
		return storageError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// RemoveMember: DELETE /api/chats/:id/members/:userId. Members may leave;
// admins may remove anyone.
func (h *ChatHandler) RemoveMember(c echo.Context) error {
	chat, err := h.loadChat(c)
	if chat == nil {
		return err
	}
	target := c.Param("userId")
	if target != getUserID(c) {
		self, err := h.membership(c, chat.ID)
		if err != nil {
			return internalError(err)
		}
		if self == nil || self.Role != model.MemberAdmin {
			return forbidden(c)
		}
	}
	ok, err := h.Chats.RemoveChatMember(c.Request().Context(), chat.ID, target)
	if err != nil {
		return internalError(err)
	}
	if !ok {
		return notFound(c, "Chat member")
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMessages: GET /api/chats/:id/messages, newest first. Members only.
func (h *ChatHandler) ListMessages(c echo.Context) error {
	chat, err := h.loadChat(c)
	if chat == nil {
		return err
	}
	if self, err := h.membership(c, chat.ID); err != nil {
		return internalError(err)
	} else if self == nil {
		return forbidden(c)
	}
	msgs, err := h.Messages.ListMessages(c.Request().Context(), chat.ID)
	if err != nil {
		return internalError(err)
	}
	return c.JSON(http.StatusOK, msgs)
}

// PostMessage: POST /api/chats/:id/messages. Members only. A reply must
// point at a message in the same chat.
func (h *ChatHandler) PostMessage(c echo.Context) error {
	chat, err := h.loadChat(c)
	if chat == nil {
		return err
	}
	var req createMessageReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	ctx := c.Request().Context()

	self, err := h.membership(c, chat.ID)
	if err != nil {
		return internalError(err)
	}
	if self == nil {
		return forbidden(c)
	}
	if req.ReplyToID != nil {
		parent, err := h.Messages.GetMessage(ctx, *req.ReplyToID)
		if err != nil {
			return internalError(err)
		}
		if parent == nil || parent.ChatID != chat.ID {
			return badRequest(c, invalid(FieldError{Field: "replyToId", Message: "does not exist in this chat"}))
		}
	}
	msg, err := h.Messages.CreateMessage(ctx, model.NewMessage{
		ChatID:    chat.ID,
		UserID:    self.UserID,
		Content:   req.Content,
		ReplyToID: req.ReplyToID,
	})
	if err != nil {
		return storageError(c, err)
	}
	return c.JSON(http.StatusCreated, msg)
}

// authored loads message :id and checks the session user wrote it.
func (h *ChatHandler) authored(c echo.Context) (*model.Message, error) {
	msg, err := h.Messages.GetMessage(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, internalError(err)
	}
	if msg == nil {
		return nil, notFound(c, "Message")
	}
	if msg.UserID != getUserID(c) {
		return nil, forbidden(c)
	}
	return msg, nil
}

// EditMessage: PATCH /api/messages/:id. Sets editedAt.
func (h *ChatHandler) EditMessage(c echo.Context) error {
	msg, err := h.authored(c)
	if msg == nil {
		return err
	}
	var req editMessageReq
	if err := bind(c, &req, immutableKeys...); err != nil {
		return badRequest(c, err)
	}
	updated, err := h.Messages.UpdateMessage(c.Request().Context(), msg.ID, model.MessagePatch{Content: &req.Content})
	if err != nil {
		return storageError(c, err)
	}
	if updated == nil {
		return notFound(c, "Message")
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteMessage: DELETE /api/messages/:id.
func (h *ChatHandler) DeleteMessage(c echo.Context) error {
	msg, err := h.authored(c)
	if msg == nil {
		return err
	}
	if _, err := h.Messages.DeleteMessage(c.Request().Context(), msg.ID); err != nil {
		return internalError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
