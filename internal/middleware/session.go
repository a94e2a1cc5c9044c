package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/gameforge-studio/internal/model"
	"github.com/iliyamo/gameforge-studio/internal/session"
	"github.com/iliyamo/gameforge-studio/internal/utils"
)

// CookieName is the name of the session cookie.
const CookieName = "gameforge.sid"

// Context keys set by Load.
const (
	ctxUserID    = "user_id"
	ctxSessionID = "session_id"
)

// UserLookup resolves the user a session is bound to. A missing user is
// (nil, nil).
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
}

// Sessions ties the server-side session store to the signed cookie that
// points at it.
type Sessions struct {
	store  session.Store
	users  UserLookup
	secret string
	secure bool
	log    logrus.FieldLogger
}

// NewSessions panics on a nil dependency or empty secret.
func NewSessions(store session.Store, users UserLookup, secret string, secure bool, log logrus.FieldLogger) *Sessions {
	if store == nil || users == nil || log == nil {
		panic("nil dependency passed to NewSessions")
	}
	if secret == "" {
		panic("empty session secret")
	}
	return &Sessions{store: store, users: users, secret: secret, secure: secure, log: log}
}

// Start creates a session for userID, sets the cookie and marks the current
// request as authenticated.
func (s *Sessions) Start(c echo.Context, userID string) error {
	if old := SessionID(c); old != "" {
		_ = s.store.Destroy(c.Request().Context(), old)
	}
	sess, err := s.store.Create(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	token, err := utils.NewSessionToken(s.secret, sess.ID, userID, sess.ExpiresAt)
	if err != nil {
		return err
	}
	c.SetCookie(s.cookie(token, sess.ExpiresAt))
	c.Set(ctxUserID, userID)
	c.Set(ctxSessionID, sess.ID)
	return nil
}

// End destroys the request's session, if any, and clears the cookie.
func (s *Sessions) End(c echo.Context) error {
	var err error
	if id := SessionID(c); id != "" {
		err = s.store.Destroy(c.Request().Context(), id)
	}
	expired := s.cookie("", time.Unix(0, 0))
	expired.MaxAge = -1
	c.SetCookie(expired)
	c.Set(ctxUserID, nil)
	c.Set(ctxSessionID, nil)
	return err
}

func (s *Sessions) cookie(value string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Load resolves the session cookie on every request. A missing, forged or
// expired cookie leaves the request anonymous. A session whose user no
// longer exists is destroyed and its cookie cleared.
func (s *Sessions) Load() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ck, err := c.Cookie(CookieName)
			if err != nil || ck.Value == "" {
				return next(c)
			}
			claims, err := utils.ParseSessionToken(s.secret, ck.Value)
			if err != nil {
				return next(c)
			}
			ctx := c.Request().Context()
			sess, err := s.store.Get(ctx, claims.SessionID)
			if err != nil {
				s.log.WithError(err).Warn("session lookup failed")
				return next(c)
			}
			if sess == nil || sess.UserID != claims.UserID {
				return next(c)
			}
			user, err := s.users.GetUser(ctx, sess.UserID)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError,
					echo.Map{"message": "Internal server error"}).SetInternal(err)
			}
			c.Set(ctxSessionID, sess.ID)
			if user == nil {
				s.log.WithField("session_id", sess.ID).Info("session user gone, ending session")
				if err := s.End(c); err != nil {
					s.log.WithError(err).Warn("session destroy failed")
				}
				return next(c)
			}
			c.Set(ctxUserID, sess.UserID)
			return next(c)
		}
	}
}

// RequireSession rejects anonymous requests with 401.
func RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if UserID(c) == "" {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authenticated"})
		}
		return next(c)
	}
}
