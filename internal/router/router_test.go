package router_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/skyport/config"
	"github.com/oksasatya/skyport/internal/container"
	"github.com/oksasatya/skyport/internal/domain/repository"
	"github.com/oksasatya/skyport/internal/infrastructure/memory"
	"github.com/oksasatya/skyport/internal/router"
	"github.com/oksasatya/skyport/pkg/helpers"
)

const baseURL = "http://skyport.test"

func init() {
	gin.SetMode(gin.TestMode)
}

type captureNotifier struct {
	mu    sync.Mutex
	links map[string]string
}

func (n *captureNotifier) SendConfirmation(_ context.Context, to, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.links[to] = link
	return nil
}

func (n *captureNotifier) link(to string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.links[to]
}

type testApp struct {
	t        *testing.T
	engine   *gin.Engine
	c        *container.Container
	notifier *captureNotifier
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.Load()
	cfg.PublicBaseURL = baseURL
	cfg.RateLimitEnabled = false
	cfg.HTTPLogEnabled = false
	cfg.DebugMetricsEnabled = true
	cfg.CORSAllowedOrigins = ""

	notifier := &captureNotifier{links: map[string]string{}}
	c := &container.Container{
		Config:   cfg,
		Logger:   helpers.NewDiscardLogger(),
		Redis:    rdb,
		Users:    memory.NewUserRepository(),
		Content:  memory.NewContentRepository(),
		Notifier: notifier,
	}
	c.Wire()

	engine, err := router.NewEngine(c)
	require.NoError(t, err)
	return &testApp{t: t, engine: engine, c: c, notifier: notifier}
}

// browser keeps cookies between requests like a real client.
type browser struct {
	app *testApp
	jar *cookiejar.Jar
}

func (a *testApp) browser() *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(a.t, err)
	return &browser{app: a, jar: jar}
}

func (b *browser) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	u, _ := url.Parse(baseURL + path)
	for _, c := range b.jar.Cookies(u) {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.app.engine.ServeHTTP(rec, req)
	b.jar.SetCookies(u, rec.Result().Cookies())
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder { return b.do(http.MethodGet, path, nil) }

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	return b.do(http.MethodPost, path, form)
}

func (b *browser) hasSession() bool {
	u, _ := url.Parse(baseURL + "/")
	for _, c := range b.jar.Cookies(u) {
		if c.Name == b.app.c.Config.SessionCookieName && c.Value != "" {
			return true
		}
	}
	return false
}

func registerForm(username, email, password string) url.Values {
	return url.Values{
		"username":         {username},
		"email":            {email},
		"password":         {password},
		"confirm_password": {password},
	}
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, location, rec.Header().Get("Location"))
}

func TestAliceRegistersConfirmsAndUsesTheSite(t *testing.T) {
	app := newTestApp(t)
	alice := app.browser()

	assertRedirect(t, alice.get("/account"), "/login")

	assertRedirect(t, alice.post("/register", registerForm("alice", "alice@example.com", "hunter2")), "/login")
	link := app.notifier.link("alice@example.com")
	require.True(t, strings.HasPrefix(link, baseURL+"/confirm_email/"), link)

	rec := alice.get("/login")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Your account has been created.")

	assertRedirect(t, alice.post("/login", url.Values{"username": {"alice"}, "password": {"hunter2"}}), "/")
	require.True(t, alice.hasSession())
	assertRedirect(t, alice.get("/"), "/account")
	assertRedirect(t, alice.get("/register"), "/")

	rec = alice.get("/account")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "please confirm your email")
	assert.Contains(t, rec.Body.String(), "alice@example.com")

	// content is gated until the email is confirmed
	rec = alice.get("/post")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "please confirm your email")
	assert.NotContains(t, rec.Body.String(), "New post</h2>")

	rec = alice.get("/api/session")
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data struct {
			State     string `json:"state"`
			Username  string `json:"username"`
			Confirmed bool   `json:"confirmed"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "authenticated_unconfirmed", env.Data.State)
	assert.Equal(t, "alice", env.Data.Username)

	rec = alice.get(strings.TrimPrefix(link, baseURL))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Thank you! Your email has been confirmed.")

	rec = alice.get("/account")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Your posts")
	assert.NotContains(t, rec.Body.String(), "please confirm your email")

	assertRedirect(t, alice.post("/post", url.Values{"title": {"Crab Nebula"}, "content": {"Seen through the 8 inch tonight."}}), "/account")
	assert.Contains(t, alice.get("/account").Body.String(), "Crab Nebula")

	assertRedirect(t, alice.post("/request_object", url.Values{"name": {"Andromeda"}}), "/stellar_object/Andromeda")
	rec = alice.post("/request_object", url.Values{"name": {"andromeda"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Thread with that title already exists!")

	assertRedirect(t, alice.post("/stellar_object/andromeda", url.Values{"content": {"Bright tonight"}}), "/stellar_object/andromeda")
	assert.Contains(t, alice.get("/stellar_object/ANDROMEDA").Body.String(), "Bright tonight")

	assertRedirect(t, alice.post("/search", url.Values{"query": {"andro"}}), "/search-results/andro")
	assert.Contains(t, alice.get("/search-results/andro").Body.String(), "Andromeda")

	assert.Contains(t, alice.get("/user/alice").Body.String(), "Crab Nebula")
	assert.Equal(t, http.StatusNotFound, alice.get("/user/nobody").Code)

	// replaying the link is harmless
	rec = alice.get(strings.TrimPrefix(link, baseURL))
	assert.Equal(t, http.StatusOK, rec.Code)

	assertRedirect(t, alice.get("/logout"), "/")
	assert.False(t, alice.hasSession())
	assertRedirect(t, alice.get("/account"), "/login")
}

func TestBobCannotRegisterTwice(t *testing.T) {
	app := newTestApp(t)
	b := app.browser()

	assertRedirect(t, b.post("/register", registerForm("bob", "bob@example.com", "pw")), "/login")

	rec := b.post("/register", registerForm("bob", "bob2@example.com", "pw"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Username is taken")

	_, err := app.c.Users.GetByEmail(context.Background(), "bob2@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	users, err := app.c.Users.SearchByUsername(context.Background(), "bob", 0)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	rec = b.post("/register", registerForm("robert", "BOB@example.com", "pw"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email is taken")
}

func TestLoginFailureIsGeneric(t *testing.T) {
	app := newTestApp(t)
	b := app.browser()
	assertRedirect(t, b.post("/register", registerForm("carol", "carol@example.com", "right")), "/login")

	wrong := b.post("/login", url.Values{"username": {"carol"}, "password": {"wrong"}})
	unknown := b.post("/login", url.Values{"username": {"nobody"}, "password": {"wrong"}})

	for _, rec := range []*httptest.ResponseRecorder{wrong, unknown} {
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Login failed. Check your username and/or password")
	}
	assert.False(t, b.hasSession())
}

func TestInvalidConfirmationLink(t *testing.T) {
	app := newTestApp(t)
	rec := app.browser().get("/confirm_email/not-a-token")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "This confirmation link is invalid.")
}

func TestPagesAndHeaders(t *testing.T) {
	app := newTestApp(t)
	b := app.browser()

	rec := b.get("/about")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusNotFound, b.get("/no/such/page").Code)
	assertRedirect(t, b.get("/logout"), "/login")

	rec = b.get("/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"ok"`)

	rec = b.get("/debug/vars")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "skyport.registrations")
}
