package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/gameforge-studio/internal/config"
	"github.com/iliyamo/gameforge-studio/internal/handler"
	"github.com/iliyamo/gameforge-studio/internal/middleware"
	"github.com/iliyamo/gameforge-studio/internal/queue"
	"github.com/iliyamo/gameforge-studio/internal/repository/memory"
	"github.com/iliyamo/gameforge-studio/internal/repository/seed"
	"github.com/iliyamo/gameforge-studio/internal/router"
	"github.com/iliyamo/gameforge-studio/internal/session"
	"github.com/iliyamo/gameforge-studio/internal/utils"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.PurchaseCompletedEvent
}

func (p *recordingPublisher) PublishPurchaseCompleted(_ context.Context, ev queue.PurchaseCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type testServer struct {
	t     *testing.T
	e     *echo.Echo
	store *memory.Store
	pub   *recordingPublisher
}

func newServer(t *testing.T, env string) *testServer {
	t.Helper()
	hash, err := utils.HashPassword(seed.DevPassword, bcrypt.MinCost)
	require.NoError(t, err)
	store, err := memory.New(memory.WithFixtures(seed.Build(hash)))
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)
	pub := &recordingPublisher{}
	e := router.New(router.Deps{
		Config:    config.Config{Env: env, BcryptCost: bcrypt.MinCost},
		Store:     store,
		Sessions:  middleware.NewSessions(session.NewMemoryStore(time.Hour), store, "test-secret", false, log),
		Publisher: pub,
		Log:       log,
	})
	return &testServer{t: t, e: e, store: store, pub: pub}
}

func (s *testServer) do(method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	s.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if r != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.CookieName {
			return c
		}
	}
	return nil
}

func (s *testServer) login(username string) *http.Cookie {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/auth/dev-login", map[string]string{"username": username}, nil)
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	ck := sessionCookie(rec)
	require.NotNil(s.t, ck)
	return ck
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

type errorBody struct {
	Message string `json:"message"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (b errorBody) fields() []string {
	out := make([]string, 0, len(b.Errors))
	for _, e := range b.Errors {
		out = append(out, e.Field)
	}
	return out
}

func TestSignupStartsSession(t *testing.T) {
	s := newServer(t, "test")

	rec := s.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "x", "email": "x@x.com", "password": "secret1", "confirmPassword": "secret1",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body map[string]map[string]interface{}
	decode(t, rec, &body)
	require.Contains(t, body, "user")
	assert.Equal(t, "x", body["user"]["username"])
	assert.NotContains(t, body["user"], "password")

	ck := sessionCookie(rec)
	require.NotNil(t, ck)
	assert.True(t, ck.HttpOnly)

	rec = s.do(http.MethodGet, "/api/user/current", nil, ck)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"x"`)
}

func TestSignupTrimsBeforeValidating(t *testing.T) {
	s := newServer(t, "test")

	rec := s.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "   ", "email": "blank@x.com", "password": "secret1", "confirmPassword": "secret1",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var eb errorBody
	decode(t, rec, &eb)
	require.Len(t, eb.Errors, 1)
	assert.Equal(t, "username", eb.Errors[0].Field)

	rec = s.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "  neo ", "email": " NEO@X.com ", "password": "secret1", "confirmPassword": "secret1",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body map[string]map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "neo", body["user"]["username"])
	assert.Equal(t, "neo@x.com", body["user"]["email"])
}

func TestSignupRejectsTakenUsernameAndEmail(t *testing.T) {
	s := newServer(t, "test")

	rec := s.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "alexchen", "email": "new@x.com", "password": "secret1", "confirmPassword": "secret1",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "newbie", "email": "alex@gameforge.dev", "password": "secret1", "confirmPassword": "secret1",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSignupEnumeratesEveryFieldError(t *testing.T) {
	s := newServer(t, "test")

	rec := s.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"email": "not-an-email", "password": "123", "confirmPassword": "456",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	decode(t, rec, &body)
	assert.ElementsMatch(t, []string{"username", "email", "password", "confirmPassword"}, body.fields())
}

func TestUnknownFieldsAreRejected(t *testing.T) {
	s := newServer(t, "test")

	rec := s.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "y", "email": "y@y.com", "password": "secret1", "confirmPassword": "secret1", "isAdmin": "true",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, []string{"isAdmin"}, body.fields())

	rec = s.do(http.MethodPost, "/api/auth/login", `[1,2]`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	s := newServer(t, "test")

	rec := s.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "sarahkim", "password": seed.DevPassword}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotNil(t, sessionCookie(rec))

	rec = s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "SARAH@gameforge.dev", "password": seed.DevPassword}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "sarahkim", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, sessionCookie(rec))

	rec = s.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "nobody", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutEndsSession(t *testing.T) {
	s := newServer(t, "test")
	ck := s.login("alexchen")

	rec := s.do(http.MethodPost, "/api/auth/logout", nil, ck)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := sessionCookie(rec)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	rec = s.do(http.MethodGet, "/api/user/current", nil, ck)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestForgedCookieIsAnonymous(t *testing.T) {
	s := newServer(t, "test")
	forged := &http.Cookie{Name: middleware.CookieName, Value: "eyJhbGciOiJub25lIn0.e30."}
	rec := s.do(http.MethodGet, "/api/user/current", nil, forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Not authenticated"}`, rec.Body.String())
}

func TestChangePassword(t *testing.T) {
	s := newServer(t, "test")
	ck := s.login("marcusj")

	rec := s.do(http.MethodPatch, "/api/auth/change-password", map[string]string{
		"currentPassword": "wrong", "newPassword": "hunter22",
	}, ck)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, []string{"currentPassword"}, body.fields())

	rec = s.do(http.MethodPatch, "/api/auth/change-password", map[string]string{
		"currentPassword": seed.DevPassword, "newPassword": "hunter22", "confirmPassword": "hunter22",
	}, ck)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "marcusj", "password": "hunter22"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "marcusj", "password": seed.DevPassword}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDevLoginHiddenInProduction(t *testing.T) {
	s := newServer(t, "production")
	rec := s.do(http.MethodPost, "/api/auth/dev-login", map[string]string{"username": "alexchen"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Nil(t, sessionCookie(rec))

	dev := newServer(t, "development")
	rec = dev.do(http.MethodPost, "/api/auth/dev-login", map[string]string{"username": "ghost"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResponsesNeverContainPassword(t *testing.T) {
	s := newServer(t, "test")
	ck := s.login("alexchen")

	paths := []string{"/api/users", "/api/users/" + seed.UserSarah, "/api/user/current"}
	for _, p := range paths {
		rec := s.do(http.MethodGet, p, nil, ck)
		require.Equal(t, http.StatusOK, rec.Code, p)
		assert.NotContains(t, rec.Body.String(), `"password"`, p)
	}
	rec := s.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "alexchen", "password": seed.DevPassword}, nil)
	assert.NotContains(t, rec.Body.String(), `"password"`)
}

func TestCurrentUserGoneDestroysSession(t *testing.T) {
	s := newServer(t, "test")
	ck := s.login("emmaw")

	ok, err := s.store.DeleteUser(context.Background(), seed.UserEmma)
	require.NoError(t, err)
	require.True(t, ok)

	rec := s.do(http.MethodGet, "/api/user/current", nil, ck)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	cleared := sessionCookie(rec)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	// the session itself is gone, not only the cookie
	rec = s.do(http.MethodGet, "/api/library", nil, ck)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeletedUserLosesEverySessionRoute(t *testing.T) {
	s := newServer(t, "test")
	rec := s.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "ghost", "email": "ghost@x.com", "password": "secret1", "confirmPassword": "secret1",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body map[string]map[string]interface{}
	decode(t, rec, &body)
	ghostID := body["user"]["id"].(string)
	ck := sessionCookie(rec)
	require.NotNil(t, ck)

	ok, err := s.store.DeleteUser(context.Background(), ghostID)
	require.NoError(t, err)
	require.True(t, ok)

	rec = s.do(http.MethodPost, "/api/chats", map[string]string{"name": "Haunted"}, ck)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	cleared := sessionCookie(rec)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	for _, tc := range []struct {
		method, path string
		body         interface{}
	}{
		{http.MethodPost, "/api/library", map[string]string{"gameId": "g1", "title": "Boo"}},
		{http.MethodPut, "/api/metrics", map[string]int{"activeProjects": 1}},
		{http.MethodGet, "/api/chats", nil},
	} {
		rec = s.do(tc.method, tc.path, tc.body, ck)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
	}

	chats, err := s.store.ListChatsByUser(context.Background(), ghostID)
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestUpdateUserIsSelfOnly(t *testing.T) {
	s := newServer(t, "test")
	ck := s.login("alexchen")

	rec := s.do(http.MethodPatch, "/api/users/"+seed.UserSarah, map[string]string{"displayName": "Hacked"}, ck)
	require.Equal(t, http.StatusForbidden, rec.Code)

	sarah, err := s.store.GetUser(context.Background(), seed.UserSarah)
	require.NoError(t, err)
	assert.Equal(t, "Sarah Kim", sarah.DisplayName)

	rec = s.do(http.MethodPatch, "/api/users/"+seed.UserSarah, map[string]string{"displayName": "Hacked"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateUserDropsImmutableFields(t *testing.T) {
	s := newServer(t, "test")
	ck := s.login("alexchen")
	before, err := s.store.GetUser(context.Background(), seed.UserAlex)
	require.NoError(t, err)

	rec := s.do(http.MethodPatch, "/api/users/"+seed.UserAlex, map[string]interface{}{
		"id":          "user-evil",
		"createdAt":   "2001-01-01T00:00:00Z",
		"password":    "plaintext",
		"bio":         "Now shipping.",
		"skills":      []string{"Go"},
		"displayName": "Alex C.",
	}, ck)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	after, err := s.store.GetUser(context.Background(), seed.UserAlex)
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.Equal(t, before.Password, after.Password)
	assert.Equal(t, "Alex C.", after.DisplayName)
	require.NotNil(t, after.Bio)
	assert.Equal(t, "Now shipping.", *after.Bio)
}

func TestUpdateUserValidation(t *testing.T) {
	s := newServer(t, "test")
	ck := s.login("alexchen")

	rec := s.do(http.MethodPatch, "/api/users/"+seed.UserAlex, map[string]interface{}{
		"availability": "asleep",
		"portfolioLink": "not a url",
	}, ck)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.ElementsMatch(t, []string{"availability", "portfolioLink"}, body.fields())

	rec = s.do(http.MethodPatch, "/api/users/"+seed.UserAlex, map[string]string{"email": "sarah@gameforge.dev"}, ck)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteProjectRequiresOwner(t *testing.T) {
	s := newServer(t, "test")
	path := "/api/projects/" + seed.ProjectMystic

	rec := s.do(http.MethodDelete, path, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	sarah := s.login("sarahkim")
	rec = s.do(http.MethodDelete, path, nil, sarah)
	require.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodGet, path, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	alex := s.login("alexchen")
	rec = s.do(http.MethodDelete, path, nil, alex)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodDelete, path, nil, alex)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateAndPatchProject(t *testing.T) {
	s := newServer(t, "test")

	rec := s.do(http.MethodPost, "/api/projects", map[string]string{"name": "Orphan"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodPost, "/api/projects", map[string]string{"name": "Ghost", "ownerId": "user-missing"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/projects", map[string]string{"name": "Side Quest", "ownerId": seed.UserMarcus, "engine": "godot"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]interface{}
	decode(t, rec, &created)
	assert.Equal(t, seed.UserMarcus, created["ownerId"])

	ck := s.login("emmaw")
	rec = s.do(http.MethodPost, "/api/projects", map[string]string{"name": "Mine", "ownerId": seed.UserMarcus}, ck)
	require.Equal(t, http.StatusCreated, rec.Code)
	var mine map[string]interface{}
	decode(t, rec, &mine)
	assert.Equal(t, seed.UserEmma, mine["ownerId"])

	id := created["id"].(string)
	rec = s.do(http.MethodPatch, "/api/projects/"+id, map[string]string{"status": "live", "ownerId": seed.UserEmma}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var patched map[string]interface{}
	decode(t, rec, &patched)
	assert.Equal(t, "live", patched["status"])
	assert.Equal(t, seed.UserMarcus, patched["ownerId"])

	rec = s.do(http.MethodPatch, "/api/projects/"+id, map[string]string{"engine": "cryengine"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodPatch, "/api/projects/missing", map[string]string{"status": "live"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/projects?ownerId="+seed.UserAlex, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var owned []map[string]interface{}
	decode(t, rec, &owned)
	assert.Len(t, owned, 2)
}

func TestCreateChatAddsCreatorAsAdmin(t *testing.T) {
	s := newServer(t, "test")
	ck := s.login("alexchen")

	rec := s.do(http.MethodPost, "/api/chats", map[string]string{"name": "Team"}, ck)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var chat map[string]interface{}
	decode(t, rec, &chat)
	id := chat["id"].(string)

	rec = s.do(http.MethodGet, "/api/chats/"+id+"/members", nil, ck)
	require.Equal(t, http.StatusOK, rec.Code)
	var members []map[string]interface{}
	decode(t, rec, &members)
	require.Len(t, members, 1)
	assert.Equal(t, seed.UserAlex, members[0]["userId"])
	assert.Equal(t, "admin", members[0]["role"])
}

func TestChatMembershipAndMessages(t *testing.T) {
	s := newServer(t, "test")
	alex := s.login("alexchen")
	sarah := s.login("sarahkim")

	rec := s.do(http.MethodPost, "/api/chats", map[string]string{"name": "Art"}, alex)
	require.Equal(t, http.StatusCreated, rec.Code)
	var chat map[string]interface{}
	decode(t, rec, &chat)
	base := "/api/chats/" + chat["id"].(string)

	rec = s.do(http.MethodPost, base+"/messages", map[string]string{"content": "let me in"}, sarah)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, base+"/members", map[string]string{"userId": seed.UserSarah}, alex)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(http.MethodPost, base+"/members", map[string]string{"userId": seed.UserSarah}, alex)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, base+"/members", nil, alex)
	var members []map[string]interface{}
	decode(t, rec, &members)
	assert.Len(t, members, 2)

	rec = s.do(http.MethodPost, base+"/messages", map[string]string{"content": "hello"}, sarah)
	require.Equal(t, http.StatusCreated, rec.Code)
	var msg map[string]interface{}
	decode(t, rec, &msg)
	assert.Nil(t, msg["editedAt"])
	msgPath := "/api/messages/" + msg["id"].(string)

	rec = s.do(http.MethodPatch, msgPath, map[string]string{"content": "hijacked"}, alex)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodPatch, msgPath, map[string]string{"content": "hello all"}, sarah)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &msg)
	assert.Equal(t, "hello all", msg["content"])
	assert.NotNil(t, msg["editedAt"])

	rec = s.do(http.MethodPost, base+"/messages", map[string]string{"content": "reply", "replyToId": seed.WelcomeMessage}, alex)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, base, nil, sarah)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodDelete, base, nil, alex)
	require.Equal(t, http.StatusNoContent, rec.Code)

	msgs, err := s.store.ListMessages(context.Background(), chat["id"].(string))
	require.NoError(t, err)
	assert.Empty(t, msgs)
	rec = s.do(http.MethodGet, base+"/members", nil, alex)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatReadsAreMembersOnly(t *testing.T) {
	s := newServer(t, "test")
	alex := s.login("alexchen")
	sarah := s.login("sarahkim")

	rec := s.do(http.MethodPost, "/api/chats", map[string]string{"name": "Private"}, alex)
	require.Equal(t, http.StatusCreated, rec.Code)
	var chat map[string]interface{}
	decode(t, rec, &chat)
	base := "/api/chats/" + chat["id"].(string)

	rec = s.do(http.MethodPost, base+"/messages", map[string]string{"content": "secret plans"}, alex)
	require.Equal(t, http.StatusCreated, rec.Code)

	for _, path := range []string{base + "/members", base + "/messages"} {
		rec = s.do(http.MethodGet, path, nil, sarah)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
		assert.NotContains(t, rec.Body.String(), "secret plans")

		rec = s.do(http.MethodGet, path, nil, alex)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestChatsRequireSession(t *testing.T) {
	s := newServer(t, "test")
	rec := s.do(http.MethodPost, "/api/chats", map[string]string{"name": "Team"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartAndCheckout(t *testing.T) {
	s := newServer(t, "test")
	ctx := context.Background()
	base := "/api/cart/" + seed.UserSarah
	assetID := "asset-pixel-tileset"

	rec := s.do(http.MethodPost, base, map[string]string{"assetId": assetID, "bundleId": "bundle-rpg-starter"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodPost, base, map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodPost, base, map[string]string{"assetId": "asset-missing"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, base, map[string]string{"assetId": assetID}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(http.MethodPost, base, map[string]string{"assetId": assetID}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var item map[string]interface{}
	decode(t, rec, &item)
	assert.EqualValues(t, 2, item["quantity"])

	rec = s.do(http.MethodPost, base, map[string]string{"bundleId": "bundle-rpg-starter"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	asset, err := s.store.GetAsset(ctx, assetID)
	require.NoError(t, err)
	bundle, err := s.store.GetBundle(ctx, "bundle-rpg-starter")
	require.NoError(t, err)

	rec = s.do(http.MethodPost, base+"/checkout", nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		Purchases []map[string]interface{} `json:"purchases"`
		Total     int                      `json:"total"`
	}
	decode(t, rec, &out)
	assert.Len(t, out.Purchases, 2)
	assert.Equal(t, asset.Price*2+bundle.Price, out.Total)
	assert.Len(t, s.pub.events, 2)

	items, err := s.store.ListCartItems(ctx, seed.UserSarah)
	require.NoError(t, err)
	assert.Empty(t, items)

	rec = s.do(http.MethodPost, base+"/checkout", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/purchases/"+seed.UserSarah, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var purchases []map[string]interface{}
	decode(t, rec, &purchases)
	assert.Len(t, purchases, 2)
}

func TestRemoveCartItem(t *testing.T) {
	s := newServer(t, "test")
	base := "/api/cart/" + seed.UserMarcus

	rec := s.do(http.MethodPost, base, map[string]string{"assetId": "asset-ui-kit"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var item map[string]interface{}
	decode(t, rec, &item)
	itemPath := base + "/items/" + item["id"].(string)

	rec = s.do(http.MethodDelete, "/api/cart/"+seed.UserEmma+"/items/"+item["id"].(string), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(http.MethodDelete, itemPath, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodDelete, itemPath, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreatePurchase(t *testing.T) {
	s := newServer(t, "test")

	rec := s.do(http.MethodPost, "/api/purchases", map[string]interface{}{"userId": "user-missing", "assetId": "asset-ui-kit"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/purchases", map[string]interface{}{"userId": seed.UserEmma, "assetId": "asset-ui-kit", "status": "pending"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Empty(t, s.pub.events)

	rec = s.do(http.MethodPost, "/api/purchases", map[string]interface{}{"userId": seed.UserEmma, "bundleId": "bundle-audio-complete", "price": 0}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var p map[string]interface{}
	decode(t, rec, &p)
	assert.EqualValues(t, 0, p["price"])
	assert.Equal(t, "completed", p["status"])
	require.Len(t, s.pub.events, 1)
	assert.Equal(t, "bundle-audio-complete", s.pub.events[0].BundleID)
}

func TestLibrary(t *testing.T) {
	s := newServer(t, "test")
	alex := s.login("alexchen")
	sarah := s.login("sarahkim")

	rec := s.do(http.MethodGet, "/api/library", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/library", map[string]interface{}{"gameId": "game-neon", "title": "Neon Drift"}, alex)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var entry map[string]interface{}
	decode(t, rec, &entry)
	path := "/api/library/" + entry["id"].(string)

	rec = s.do(http.MethodPatch, path, map[string]interface{}{"isFavorite": true}, sarah)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodPatch, path, map[string]interface{}{"isFavorite": true, "playTime": 90, "userId": seed.UserSarah}, alex)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &entry)
	assert.Equal(t, true, entry["isFavorite"])
	assert.EqualValues(t, 90, entry["playTime"])
	assert.Equal(t, seed.UserAlex, entry["userId"])

	rec = s.do(http.MethodGet, "/api/library", nil, sarah)
	var sarahs []map[string]interface{}
	decode(t, rec, &sarahs)
	assert.Empty(t, sarahs)

	rec = s.do(http.MethodDelete, path, nil, alex)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodDelete, path, nil, alex)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardMetrics(t *testing.T) {
	s := newServer(t, "test")
	rec := s.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "fresh", "email": "fresh@x.com", "password": "secret1", "confirmPassword": "secret1",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	ck := sessionCookie(rec)

	rec = s.do(http.MethodGet, "/api/metrics", nil, ck)
	require.Equal(t, http.StatusOK, rec.Code)
	var m map[string]interface{}
	decode(t, rec, &m)
	assert.EqualValues(t, 0, m["activeProjects"])
	assert.EqualValues(t, 0, m["revenue"])

	rec = s.do(http.MethodPut, "/api/metrics", map[string]int{"activeProjects": -1}, ck)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/api/metrics", map[string]int{"activeProjects": 3, "revenue": 1500}, ck)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(http.MethodGet, "/api/metrics", nil, ck)
	decode(t, rec, &m)
	assert.EqualValues(t, 3, m["activeProjects"])
	assert.EqualValues(t, 1500, m["revenue"])

	sarah := s.login("sarahkim")
	rec = s.do(http.MethodGet, "/api/metrics", nil, sarah)
	decode(t, rec, &m)
	assert.EqualValues(t, 48, m["assetsCreated"])
}

func TestCatalogReads(t *testing.T) {
	s := newServer(t, "test")

	rec := s.do(http.MethodGet, "/api/assets", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var assets []map[string]interface{}
	decode(t, rec, &assets)
	assert.Len(t, assets, 6)

	rec = s.do(http.MethodGet, "/api/assets?search=shader&category=all", nil, nil)
	decode(t, rec, &assets)
	require.Len(t, assets, 1)
	assert.Equal(t, "asset-water-shader", assets[0]["id"])

	rec = s.do(http.MethodGet, "/api/assets/asset-missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(http.MethodGet, "/api/bundles/bundle-rpg-starter", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	s := newServer(t, "test")

	rec := s.do(http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = s.do(http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gameforge_http_requests_total")
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthLogsStorageFailure(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	e := echo.New()
	e.GET("/healthz", handler.Health(downPinger{}, log))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", rec.Body.String())

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.EqualError(t, entry.Data[logrus.ErrorKey].(error), "connection refused")
}
