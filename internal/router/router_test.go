package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/anonto42/spotlight/backend/internal/models"
	"github.com/anonto42/spotlight/backend/internal/services"
	"github.com/anonto42/spotlight/backend/internal/testutil"
	"github.com/anonto42/spotlight/backend/pkg/config"
	"github.com/anonto42/spotlight/backend/pkg/firebase"
	"github.com/anonto42/spotlight/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	svix "github.com/svix/svix-webhooks/go"
	"gorm.io/gorm"
)

const webhookSecret = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"

type server struct {
	e     *echo.Echo
	db    *gorm.DB
	svc   *services.Registry
	posts *testutil.PostStore
	pub   *testutil.Publisher
	wh    *svix.Webhook
}

func newServer(t *testing.T) *server {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		ServiceName:             "spotlight-test",
		JWTSecret:               "jwt-secret",
		JWTTTL:                  time.Hour,
		WebhookSecret:           webhookSecret,
		StoryTTL:                24 * time.Hour,
		FollowCacheTTL:          time.Minute,
		FollowToggleLimit:       10,
		FollowToggleWindow:      time.Minute,
		NotificationDedupWindow: time.Hour,
	}
	s := &server{
		db:    testutil.NewDB(t),
		posts: testutil.NewPostStore(),
		pub:   &testutil.Publisher{},
	}
	s.svc = services.NewRegistry(services.Backends{
		Postgres:  s.db,
		Posts:     s.posts,
		Stories:   testutil.NewStoryStore(),
		Redis:     rdb,
		Storage:   &testutil.Storage{},
		Publisher: s.pub,
	}, cfg)

	verifier := testutil.Verifier{
		"ada-token":     firebase.Identity{UID: "fb_ada", Email: "ada@example.com", Name: "Ada Lovelace"},
		"bob-token":     firebase.Identity{UID: "fb_bob", Email: "bob@example.com", Name: "Bob"},
		"mallory-token": firebase.Identity{UID: "fb_mallory", Email: "ada@example.com", EmailVerified: true},
	}

	s.e = echo.New()
	s.e.Validator = validators.NewValidator()
	config.SetupMiddleware(s.e, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, SetupRoutes(s.e, cfg, s.svc, verifier))

	wh, err := svix.NewWebhook(webhookSecret)
	require.NoError(t, err)
	s.wh = wh
	return s
}

func (s *server) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func (s *server) session(t *testing.T, idToken string) string {
	t.Helper()
	rec, out := s.do(t, http.MethodPost, "/api/v1/auth/session", "", echo.Map{"id_token": idToken})
	require.Contains(t, []int{http.StatusOK, http.StatusCreated}, rec.Code, rec.Body.String())
	return out["data"].(map[string]any)["token"].(string)
}

func (s *server) webhook(t *testing.T, id string, payload []byte, sign bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/identity", bytes.NewReader(payload))
	now := time.Now()
	req.Header.Set("svix-id", id)
	req.Header.Set("svix-timestamp", strconv.FormatInt(now.Unix(), 10))
	signature := "v1,bm90LWEtc2lnbmF0dXJl"
	if sign {
		var err error
		signature, err = s.wh.Sign(id, now, payload)
		require.NoError(t, err)
	}
	req.Header.Set("svix-signature", signature)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	rec, out := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "spotlight-test", out["service"])
}

func TestSessionCreatesUserOnce(t *testing.T) {
	s := newServer(t)

	rec, out := s.do(t, http.MethodPost, "/api/v1/auth/session", "", echo.Map{"id_token": "ada-token"})
	require.Equal(t, http.StatusCreated, rec.Code)
	user := out["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "ada", user["username"])

	rec, _ = s.do(t, http.MethodPost, "/api/v1/auth/session", "", echo.Map{"id_token": "ada-token"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/auth/session", "", echo.Map{"id_token": "forged"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/auth/session", "", echo.Map{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionCannotClaimAnotherAccountsEmail(t *testing.T) {
	s := newServer(t)
	s.session(t, "ada-token")

	rec, out := s.do(t, http.MethodPost, "/api/v1/auth/session", "", echo.Map{"id_token": "mallory-token"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Nil(t, out["data"])
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newServer(t)
	rec, _ := s.do(t, http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := s.session(t, "ada-token")
	rec, out := s.do(t, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada@example.com", out["data"].(map[string]any)["email"])
}

func TestIdentityWebhook(t *testing.T) {
	s := newServer(t)
	created := []byte(`{"type":"user.created","data":{"id":"user_2abc","first_name":"Grace","last_name":"Hopper",` +
		`"image_url":"https://img.test/g.png","email_addresses":[{"email_address":"grace@navy.mil"}]}}`)

	rec := s.webhook(t, "msg_1", created, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var users []models.User
	require.NoError(t, s.db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "grace", users[0].Username)
	assert.Equal(t, "Grace Hopper", users[0].FullName)

	rec = s.webhook(t, "msg_1", created, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "duplicate")

	rec = s.webhook(t, "msg_2", created, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/identity", bytes.NewReader(created))
	missing := httptest.NewRecorder()
	s.e.ServeHTTP(missing, req)
	assert.Equal(t, http.StatusBadRequest, missing.Code)

	rec = s.webhook(t, "msg_3", []byte(`{"type":"session.created","data":{"id":"sess_1"}}`), true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.webhook(t, "msg_4", []byte(`{"type":"user.deleted","data":{"id":"user_2abc"}}`), true)
	require.Equal(t, http.StatusOK, rec.Code)
	var count int64
	require.NoError(t, s.db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestIdentityWebhookDoesNotRelinkTakenEmail(t *testing.T) {
	s := newServer(t)
	s.session(t, "ada-token")

	claim := []byte(`{"type":"user.created","data":{"id":"user_evil","first_name":"Eve",` +
		`"email_addresses":[{"email_address":"ada@example.com","verification":{"status":"verified"}}]}}`)
	rec := s.webhook(t, "msg_claim", claim, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var ada models.User
	require.NoError(t, s.db.Where("email = ?", "ada@example.com").First(&ada).Error)
	assert.Equal(t, "fb_ada", ada.ProviderUID)
	var count int64
	require.NoError(t, s.db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPostLifecycle(t *testing.T) {
	s := newServer(t)
	ada := s.session(t, "ada-token")
	bob := s.session(t, "bob-token")

	rec, out := s.do(t, http.MethodPost, "/api/v1/uploads", ada, echo.Map{"content_type": "image/png"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	storageID := out["data"].(map[string]any)["storage_id"].(string)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/uploads", ada, echo.Map{"content_type": "text/html"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/posts", bob, echo.Map{"storage_id": storageID})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "bob cannot publish ada's upload")

	rec, out = s.do(t, http.MethodPost, "/api/v1/posts", ada, echo.Map{"storage_id": storageID, "caption": "first"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	postID := out["data"].(map[string]any)["id"].(string)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/posts", ada, echo.Map{"storage_id": storageID, "caption": "again"})
	assert.Equal(t, http.StatusConflict, rec.Code, "one upload backs one post")

	rec, out = s.do(t, http.MethodPost, "/api/v1/posts/"+postID+"/like", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["data"].(map[string]any)["liked"])
	assert.EqualValues(t, 1, out["data"].(map[string]any)["likes"])

	rec, _ = s.do(t, http.MethodPost, "/api/v1/posts/"+postID+"/comments", bob, echo.Map{"content": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = s.do(t, http.MethodPost, "/api/v1/posts/"+postID+"/comments", bob, echo.Map{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = s.do(t, http.MethodPost, "/api/v1/posts/"+postID+"/comments", bob, echo.Map{"content": "nice"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, out = s.do(t, http.MethodGet, "/api/v1/feed?page=1&limit=5", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	posts := out["data"].(map[string]any)["posts"].([]any)
	require.Len(t, posts, 1)
	first := posts[0].(map[string]any)
	assert.Equal(t, true, first["is_liked"])
	assert.EqualValues(t, 1, first["comments"])
	assert.EqualValues(t, 1, out["meta"].(map[string]any)["totalItems"])

	rec, _ = s.do(t, http.MethodGet, "/api/v1/notifications/unread-count", ada, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unreadCount":2`)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/posts/"+postID, bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = s.do(t, http.MethodDelete, "/api/v1/posts/"+postID, ada, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(t, http.MethodGet, "/api/v1/posts/"+postID, ada, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, s.posts.Len())
}

func TestFollowRoutes(t *testing.T) {
	s := newServer(t)
	ada := s.session(t, "ada-token")
	bob := s.session(t, "bob-token")

	rec, out := s.do(t, http.MethodGet, "/api/v1/users/by-username/bob", ada, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	bobID := int(out["data"].(map[string]any)["id"].(float64))
	path := "/api/v1/users/" + strconv.Itoa(bobID)

	rec, _ = s.do(t, http.MethodPut, "/api/v1/me", bob, echo.Map{"is_private": true})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, path+"/posts", ada, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, out = s.do(t, http.MethodPost, path+"/follow", ada, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["data"].(map[string]any)["requested"])

	rec, out = s.do(t, http.MethodGet, "/api/v1/follow-requests", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	requests := out["data"].(map[string]any)["requests"].([]any)
	require.Len(t, requests, 1)
	requestID := int64(requests[0].(map[string]any)["id"].(float64))

	rec, _ = s.do(t, http.MethodPost, "/api/v1/follow-requests/"+strconv.FormatInt(requestID, 10)+"/accept", ada, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = s.do(t, http.MethodPost, "/api/v1/follow-requests/"+strconv.FormatInt(requestID, 10)+"/accept", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, out = s.do(t, http.MethodGet, path+"/follow-status", ada, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["data"].(map[string]any)["following"])

	rec, _ = s.do(t, http.MethodGet, path+"/posts", ada, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, out = s.do(t, http.MethodGet, path+"/followers", ada, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["data"].(map[string]any)["users"], 1)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/users/abc", ada, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFollowSelfIsRejected(t *testing.T) {
	s := newServer(t)
	ada := s.session(t, "ada-token")
	rec, out := s.do(t, http.MethodGet, "/api/v1/me", ada, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	id := int64(out["data"].(map[string]any)["id"].(float64))

	rec, _ = s.do(t, http.MethodPost, "/api/v1/users/"+strconv.FormatInt(id, 10)+"/follow", ada, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
