package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"reviewcms/database"
	"reviewcms/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultCookieName = "reviewcms.sid"

var ErrNoSession = errors.New("no active session")

// Manager ties a signed cookie to a Store entry.
type Manager struct {
	store  Store
	users  database.Repository[models.User]
	secret []byte
	ttl    time.Duration

	CookieName string
	Secure     bool
}

func NewManager(store Store, users database.Repository[models.User], secret string, ttl time.Duration, secure bool) *Manager {
	return &Manager{
		store:      store,
		users:      users,
		secret:     []byte(secret),
		ttl:        ttl,
		CookieName: DefaultCookieName,
		Secure:     secure,
	}
}

// Login starts a session for user, replacing any session the request carried.
func (m *Manager) Login(c *gin.Context, user *models.User) error {
	if old, ok := m.sessionID(c); ok {
		_ = m.store.Delete(c.Request.Context(), old)
	}

	id := uuid.NewString()
	if err := m.store.Save(c.Request.Context(), id, user.ID.Hex(), m.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.CookieName, m.sign(id), int(m.ttl.Seconds()), "/", "", m.Secure, true)
	return nil
}

// Current resolves the session cookie back to a user.
func (m *Manager) Current(c *gin.Context) (*models.User, error) {
	id, ok := m.sessionID(c)
	if !ok {
		return nil, ErrNoSession
	}

	userID, err := m.store.Load(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrNoSession
	}
	user, err := m.users.Get(c.Request.Context(), oid)
	if errors.Is(err, database.ErrNotFound) {
		// The user was deleted after logging in.
		_ = m.store.Delete(c.Request.Context(), id)
		return nil, ErrNoSession
	}
	return user, err
}

func (m *Manager) Logout(c *gin.Context) error {
	var err error
	if id, ok := m.sessionID(c); ok {
		err = m.store.Delete(c.Request.Context(), id)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.CookieName, "", -1, "/", "", m.Secure, true)
	return err
}

// sessionID returns the id from a cookie whose signature checks out.
func (m *Manager) sessionID(c *gin.Context) (string, bool) {
	value, err := c.Cookie(m.CookieName)
	if err != nil || value == "" {
		return "", false
	}
	id, sig, found := strings.Cut(value, ".")
	if !found {
		return "", false
	}
	expected := m.mac(id)
	given, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil || !hmac.Equal(given, expected) {
		return "", false
	}
	return id, true
}

func (m *Manager) sign(id string) string {
	return id + "." + base64.RawURLEncoding.EncodeToString(m.mac(id))
}

func (m *Manager) mac(id string) []byte {
	h := hmac.New(sha256.New, m.secret)
	h.Write([]byte(id))
	return h.Sum(nil)
}
