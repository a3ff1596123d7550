package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reviewcms/database"
	"reviewcms/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestManager(t *testing.T) (*Manager, *MemoryStore, *models.User, *database.Memory[models.User]) {
	t.Helper()
	users := database.NewMemory[models.User]("email")
	u := &models.User{Email: "ada@example.com"}
	u.ApplyDefaults()
	require.NoError(t, users.Create(context.Background(), u))

	store := NewMemoryStore()
	return NewManager(store, users, "session-secret", time.Hour, false), store, u, users
}

// do runs fn inside a gin context carrying the given cookies and returns the recorder.
func do(fn func(c *gin.Context), cookies ...*http.Cookie) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		c.Request.AddCookie(ck)
	}
	fn(c)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range w.Result().Cookies() {
		if ck.Name == DefaultCookieName {
			return ck
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestManager_LoginCurrentLogout(t *testing.T) {
	m, _, user, _ := newTestManager(t)

	w := do(func(c *gin.Context) { require.NoError(t, m.Login(c, user)) })
	cookie := sessionCookie(t, w)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 3600, cookie.MaxAge)

	do(func(c *gin.Context) {
		got, err := m.Current(c)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	}, cookie)

	w = do(func(c *gin.Context) { require.NoError(t, m.Logout(c)) }, cookie)
	assert.Equal(t, -1, sessionCookie(t, w).MaxAge)

	do(func(c *gin.Context) {
		_, err := m.Current(c)
		assert.ErrorIs(t, err, ErrNoSession)
	}, cookie)
}

func TestManager_RejectsForgedCookie(t *testing.T) {
	m, store, user, _ := newTestManager(t)
	require.NoError(t, store.Save(context.Background(), "forged", user.ID.Hex(), time.Hour))

	for _, value := range []string{"forged", "forged.AAAA", "forged.!!"} {
		do(func(c *gin.Context) {
			_, err := m.Current(c)
			assert.ErrorIs(t, err, ErrNoSession, value)
		}, &http.Cookie{Name: DefaultCookieName, Value: value})
	}
}

func TestManager_NoCookie(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	do(func(c *gin.Context) {
		_, err := m.Current(c)
		assert.ErrorIs(t, err, ErrNoSession)
	})
}

func TestManager_DeletedUserEndsSession(t *testing.T) {
	m, _, user, users := newTestManager(t)

	cookie := sessionCookie(t, do(func(c *gin.Context) { require.NoError(t, m.Login(c, user)) }))
	_, err := users.Delete(context.Background(), user.ID)
	require.NoError(t, err)

	do(func(c *gin.Context) {
		_, err := m.Current(c)
		assert.ErrorIs(t, err, ErrNoSession)
	}, cookie)
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "a", "u1", time.Minute))
	got, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "u1", got)

	s.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = s.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}
