package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/gameforge-studio/internal/config"
	"github.com/iliyamo/gameforge-studio/internal/model"
	"github.com/iliyamo/gameforge-studio/internal/session"
	"github.com/iliyamo/gameforge-studio/internal/utils"
)

type userSet struct {
	mu  sync.Mutex
	ids map[string]bool
}

func newUserSet(ids ...string) *userSet {
	u := &userSet{ids: map[string]bool{}}
	for _, id := range ids {
		u.ids[id] = true
	}
	return u
}

func (u *userSet) GetUser(_ context.Context, id string) (*model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.ids[id] {
		return nil, nil
	}
	return &model.User{ID: id}, nil
}

func (u *userSet) remove(id string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.ids, id)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func whoami(c echo.Context) error {
	return c.String(http.StatusOK, UserID(c))
}

func newEcho(s *Sessions) *echo.Echo {
	e := echo.New()
	e.Use(s.Load())
	e.GET("/whoami", whoami)
	e.GET("/private", whoami, RequireSession)
	e.POST("/login/:id", func(c echo.Context) error {
		if err := s.Start(c, c.Param("id")); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	})
	e.POST("/logout", func(c echo.Context) error {
		if err := s.End(c); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	})
	return e
}

func serve(e *echo.Echo, method, path string, ck *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if ck != nil {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func cookieFrom(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	return nil
}

func TestSessionLifecycle(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	e := newEcho(NewSessions(store, newUserSet("user-1"), "secret", true, quietLogger()))

	rec := serve(e, http.MethodGet, "/private", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Not authenticated"}`, rec.Body.String())

	rec = serve(e, http.MethodPost, "/login/user-1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	ck := cookieFrom(rec)
	require.NotNil(t, ck)
	assert.True(t, ck.HttpOnly)
	assert.True(t, ck.Secure)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)

	rec = serve(e, http.MethodGet, "/private", ck)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())

	rec = serve(e, http.MethodPost, "/logout", ck)
	require.Equal(t, http.StatusNoContent, rec.Code)
	cleared := cookieFrom(rec)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	rec = serve(e, http.MethodGet, "/private", ck)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoadIgnoresBadCookies(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	e := newEcho(NewSessions(store, newUserSet("user-1", "user-2"), "secret", false, quietLogger()))

	// signed with another key
	sess, err := store.Create(context.Background(), "user-1")
	require.NoError(t, err)
	other, err := utils.NewSessionToken("other-secret", sess.ID, "user-1", sess.ExpiresAt)
	require.NoError(t, err)
	rec := serve(e, http.MethodGet, "/whoami", &http.Cookie{Name: CookieName, Value: other})
	assert.Equal(t, "", rec.Body.String())

	// valid signature, but the token names a different user than the session
	mismatched, err := utils.NewSessionToken("secret", sess.ID, "user-2", sess.ExpiresAt)
	require.NoError(t, err)
	rec = serve(e, http.MethodGet, "/whoami", &http.Cookie{Name: CookieName, Value: mismatched})
	assert.Equal(t, "", rec.Body.String())

	// valid token for an unknown session
	orphan, err := utils.NewSessionToken("secret", "no-such-session", "user-1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	rec = serve(e, http.MethodGet, "/whoami", &http.Cookie{Name: CookieName, Value: orphan})
	assert.Equal(t, "", rec.Body.String())

	good, err := utils.NewSessionToken("secret", sess.ID, "user-1", sess.ExpiresAt)
	require.NoError(t, err)
	rec = serve(e, http.MethodGet, "/whoami", &http.Cookie{Name: CookieName, Value: good})
	assert.Equal(t, "user-1", rec.Body.String())
}

func TestNewSessionsPanicsOnMissingDeps(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	assert.Panics(t, func() { NewSessions(nil, newUserSet(), "secret", false, quietLogger()) })
	assert.Panics(t, func() { NewSessions(store, nil, "secret", false, quietLogger()) })
	assert.Panics(t, func() { NewSessions(store, newUserSet(), "", false, quietLogger()) })
}

func TestLoadEndsSessionOfMissingUser(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	users := newUserSet("user-1")
	e := newEcho(NewSessions(store, users, "secret", false, quietLogger()))

	rec := serve(e, http.MethodPost, "/login/user-1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	ck := cookieFrom(rec)
	require.NotNil(t, ck)
	claims, err := utils.ParseSessionToken("secret", ck.Value)
	require.NoError(t, err)

	users.remove("user-1")

	rec = serve(e, http.MethodGet, "/private", ck)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	cleared := cookieFrom(rec)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	sess, err := store.Get(context.Background(), claims.SessionID)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestDevOnly(t *testing.T) {
	for _, tc := range []struct {
		production bool
		want       int
	}{
		{production: false, want: http.StatusOK},
		{production: true, want: http.StatusNotFound},
	} {
		e := echo.New()
		e.GET("/dev", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, DevOnly(tc.production))
		rec := serve(e, http.MethodGet, "/dev", nil)
		assert.Equal(t, tc.want, rec.Code)
	}
}

func TestDisabledMiddlewaresPassThrough(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "x") },
		NewRedisCache(config.CacheConfig{Enabled: true}, nil),
		NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil, quietLogger()),
	)
	for i := 0; i < 3; i++ {
		rec := serve(e, http.MethodGet, "/x", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
}

func TestCachePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	payload, err := encodePayload(http.StatusOK, hdr, []byte(`[1,2,3]`))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodePayload(payload)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, `[1,2,3]`, string(body))

	_, _, _, ok = decodePayload(payload[:5])
	assert.False(t, ok)
}

func TestCacheKeyIncludesPathParamsAndQuery(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "gf", KeyStrategy: "route_query"}
	e := echo.New()
	e.GET("/api/assets/:id", whoami) // sizes the context's param slots
	key := func(target string) string {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/api/assets/:id")
		c.SetParamNames("id")
		c.SetParamValues(req.URL.Path[len("/api/assets/"):])
		return cacheKeyFrom(cfg, c)
	}
	assert.NotEqual(t, key("/api/assets/a1"), key("/api/assets/a2"))
	assert.Equal(t, key("/api/assets/a1?x=1&y=2"), key("/api/assets/a1?y=2&x=1"))
}

func TestRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/auth/login")

	assert.Equal(t, "rl:ip:10.0.0.1", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c))
	assert.Equal(t, "rl:ip:10.0.0.1:route:POST /api/auth/login", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_route"}, c))

	c.Set(ctxUserID, "user-1")
	assert.Equal(t, "rl:user:user-1", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c))
}
