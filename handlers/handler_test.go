package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reviewcms/auth"
	"reviewcms/config"
	"reviewcms/database"
	"reviewcms/filestore"
	"reviewcms/middleware"
	"reviewcms/models"
	"reviewcms/notify"
	"reviewcms/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int             `json:"code"`
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e envelope) dataIsNull() bool {
	return len(e.Data) == 0 || string(e.Data) == "null"
}

type testEnv struct {
	h       *Handler
	router  *gin.Engine
	events  *notify.Recorder
	uploads string
	author  *models.User
	token   string
}

func memRepos() Repos {
	return Repos{
		Users:         database.NewMemory[models.User]("email", "googleId", "facebookId"),
		Categories:    database.NewMemory[models.Category]("slug"),
		Subcategories: database.NewMemory[models.Subcategory]("slug"),
		Articles:      database.NewMemory[models.Article]("slug"),
		Reviews:       database.NewMemory[models.Review]("slug"),
		Comparisons:   database.NewMemory[models.Comparison]("slug"),
		Comments:      database.NewMemory[models.Comment](),
		Contacts:      database.NewMemory[models.Contact](),
		Subscribers:   database.NewMemory[models.Subscriber]("email"),
		PushSubs:      database.NewMemory[models.PushSubscription]("endpoint"),
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repos := memRepos()

	uploads := t.TempDir()
	local, err := filestore.NewLocal(uploads)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:        config.EnvDevelopment,
		PublicURL:  "http://localhost:8080",
		LoginTTL:   7 * 24 * time.Hour,
		OAuthTTL:   time.Hour,
		SessionTTL: time.Hour,
		Admin:      config.AdminSeed{Email: "admin@example.com", Password: "admin-pass", FirstName: "Site", LastName: "Admin"},
	}
	verifiers := auth.NewRegistry()
	verifiers.Register(auth.StrategyLocal, auth.NewLocalVerifier(repos.Users))
	events := &notify.Recorder{}

	h := New(Deps{
		Config:    cfg,
		Repos:     repos,
		Tokens:    auth.NewTokens("test-secret"),
		Verifiers: verifiers,
		Sessions:  session.NewManager(session.NewMemoryStore(), repos.Users, "session-secret", time.Hour, false),
		Uploader:  filestore.NewUploader(local, 1024, []string{"image/jpeg", "image/webp", "image/png", "image/gif"}),
		Events:    events,
	})

	e := &testEnv{h: h, events: events, uploads: uploads}
	e.router = e.buildRouter()
	e.author = e.seedUser(t, "author@example.com", "author-pass", models.RoleUser)
	e.token = e.tokenFor(t, e.author)
	return e
}

func (e *testEnv) buildRouter() *gin.Engine {
	h := e.h
	r := gin.New()
	gate := middleware.TokenGate(h.Tokens)
	api := r.Group("/api/v1")

	resources := map[string]CRUD{
		"users":         h.Users(),
		"categories":    h.Categories(),
		"subcategories": h.Subcategories(),
		"articles":      h.Articles(),
		"reviews":       h.Reviews(),
		"comparisons":   h.Comparisons(),
		"comments":      h.Comments(),
		"contacts":      h.Contacts(),
	}
	for path, res := range resources {
		g := api.Group("/" + path)
		g.GET("", res.List)
		g.GET("/:id", res.Get)
		g.GET("/slug/:slug", res.GetBySlug)
		g.POST("", gate, res.Create)
		g.PUT("/:id", gate, res.Update)
		g.DELETE("/:id", gate, res.Delete)
	}
	api.POST("/reviews/:id/view", h.ViewReview)

	authGroup := api.Group("/auth")
	authGroup.GET("/register", h.BootstrapAdmin)
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/adminlogin", h.AdminLogin)
	authGroup.GET("/logout", h.Logout)
	authGroup.GET("/me", h.Me)
	authGroup.GET("/google", h.OAuthStart(auth.StrategyGoogle))
	authGroup.GET("/google/callback", h.OAuthCallback(auth.StrategyGoogle))

	sub := api.Group("/subscriber")
	sub.POST("", h.Subscribe)
	sub.PUT("/unsubscribe", h.Unsubscribe)
	sub.GET("", h.Subscribers().List)
	sub.DELETE("/:id", h.Subscribers().Delete)
	sub.GET("/push/key", h.VapidPublicKey)
	sub.POST("/push", h.SubscribePush)

	r.POST("/upload/:folder", h.Upload)
	r.GET("/upload/:folder/:fileName", h.ServeUpload)
	return r
}

func (e *testEnv) seedUser(t *testing.T, email, password, role string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{FirstName: "Ada", LastName: "Lovelace", Email: email, Password: hash, Role: role}
	u.ApplyDefaults()
	require.NoError(t, e.h.Repos.Users.Create(context.Background(), u))
	return u
}

func (e *testEnv) tokenFor(t *testing.T, u *models.User) string {
	t.Helper()
	token, _, err := e.h.Tokens.Issue(u.ID.Hex(), time.Hour)
	require.NoError(t, err)
	return token
}

type request struct {
	method  string
	path    string
	body    any
	token   string
	cookies []*http.Cookie
}

func (e *testEnv) do(t *testing.T, req request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var body io.Reader
	switch b := req.body.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	r := httptest.NewRequest(req.method, req.path, body)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	for _, c := range req.cookies {
		r.AddCookie(c)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), string(env.Data))
	return out
}

// Fixtures written straight to the store.

func (e *testEnv) category(t *testing.T, slug string) *models.Category {
	t.Helper()
	c := &models.Category{Title: slug, Slug: slug}
	require.NoError(t, e.h.Repos.Categories.Create(context.Background(), c))
	return c
}

func (e *testEnv) subcategory(t *testing.T, slug string, parent *models.Category) *models.Subcategory {
	t.Helper()
	s := &models.Subcategory{Title: slug, Slug: slug}
	if parent != nil {
		s.ParentCategory = &parent.ID
	}
	require.NoError(t, e.h.Repos.Subcategories.Create(context.Background(), s))
	return s
}

func (e *testEnv) article(t *testing.T, slug, status string, cat *models.Category) *models.Article {
	t.Helper()
	a := &models.Article{Title: "Title " + slug, Slug: slug, Status: status, Category: cat.ID, Author: e.author.ID}
	a.ApplyDefaults()
	require.NoError(t, e.h.Repos.Articles.Create(context.Background(), a))
	return a
}

func (e *testEnv) review(t *testing.T, slug string, cat *models.Category, sub *models.Subcategory) *models.Review {
	t.Helper()
	r := &models.Review{Title: "Review " + slug, Slug: slug, Category: cat.ID, Subcategory: sub.ID, Author: e.author.ID}
	r.ApplyDefaults()
	require.NoError(t, e.h.Repos.Reviews.Create(context.Background(), r))
	return r
}
