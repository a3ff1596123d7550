package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"reviewcms/config"
	"reviewcms/database"
	"reviewcms/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/oauth2"
)

// fakeProvider serves a token endpoint and a profile endpoint.
func fakeProvider(t *testing.T, profile any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"provider-token","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer provider-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(profile)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func pointAt(v *OAuthVerifier, srv *httptest.Server) {
	v.Config.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token", AuthStyle: oauth2.AuthStyleInParams}
	v.ProfileURL = srv.URL + "/me"
}

func TestGoogleVerifier_CreatesThenReuses(t *testing.T) {
	srv := fakeProvider(t, map[string]any{
		"id": "g-123", "email": "Grace@Example.com", "verified_email": true, "given_name": "Grace", "family_name": "Hopper", "picture": "https://img/g.png",
	})
	users := database.NewMemory[models.User]("email", "googleId")
	v := NewGoogleVerifier(config.OAuthProvider{ClientID: "id", ClientSecret: "secret"}, "http://localhost:8080", users)
	pointAt(v, srv)
	ctx := context.Background()

	first, err := v.Verify(ctx, Credentials{Code: "good-code"})
	require.NoError(t, err)
	assert.Equal(t, "g-123", first.GoogleID)
	assert.Equal(t, "grace@example.com", first.Email)
	assert.Equal(t, "Grace", first.FirstName)
	assert.Equal(t, "Hopper", first.LastName)
	assert.Equal(t, "https://img/g.png", first.ProfilePic)
	assert.Equal(t, models.RoleUser, first.Role)
	require.NotNil(t, first.LastLogin)

	second, err := v.Verify(ctx, Credentials{Code: "good-code"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	n, err := users.Count(ctx, "googleId", "g-123")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestGoogleVerifier_LinksVerifiedEmail(t *testing.T) {
	srv := fakeProvider(t, map[string]any{
		"id": "g-7", "email": "ada@example.com", "email_verified": true, "picture": "https://img/g.png",
	})
	users := database.NewMemory[models.User]("email", "googleId")
	existing := seedUser(t, users, "ada@example.com", "pw")

	v := NewGoogleVerifier(config.OAuthProvider{ClientID: "id", ClientSecret: "secret"}, "http://localhost:8080", users)
	pointAt(v, srv)

	got, err := v.Verify(context.Background(), Credentials{Code: "good-code"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, got.ID)
	assert.Equal(t, "g-7", got.GoogleID)
	assert.Equal(t, "https://img/g.png", got.ProfilePic)
}

func TestGoogleVerifier_UnverifiedEmailDoesNotLink(t *testing.T) {
	srv := fakeProvider(t, map[string]any{
		"id": "attacker-1", "email": "admin@example.com", "verified_email": false,
	})
	users := database.NewMemory[models.User]("email", "googleId")
	admin := seedUser(t, users, "admin@example.com", "pw")
	_, err := users.Update(context.Background(), admin.ID, bson.M{"role": models.RoleAdmin})
	require.NoError(t, err)

	v := NewGoogleVerifier(config.OAuthProvider{ClientID: "id", ClientSecret: "secret"}, "http://localhost:8080", users)
	pointAt(v, srv)

	got, err := v.Verify(context.Background(), Credentials{Code: "good-code"})
	require.NoError(t, err)
	assert.NotEqual(t, admin.ID, got.ID)
	assert.Equal(t, models.RoleUser, got.Role)
	assert.Empty(t, got.Email)

	stored, err := users.Get(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.GoogleID)
}

func TestFacebookVerifier_NeverLinksByEmail(t *testing.T) {
	srv := fakeProvider(t, map[string]any{
		"id": "fb-9", "email": "ada@example.com", "first_name": "Ada", "last_name": "L",
		"picture": map[string]any{"data": map[string]any{"url": "https://img/fb.png"}},
	})
	users := database.NewMemory[models.User]("email", "facebookId")
	existing := seedUser(t, users, "ada@example.com", "pw")

	v := NewFacebookVerifier(config.OAuthProvider{ClientID: "id", ClientSecret: "secret"}, "http://localhost:8080", users)
	pointAt(v, srv)

	got, err := v.Verify(context.Background(), Credentials{Code: "good-code"})
	require.NoError(t, err)
	assert.NotEqual(t, existing.ID, got.ID)
	assert.Equal(t, "fb-9", got.FacebookID)
	assert.Empty(t, got.Email)
	assert.Equal(t, "https://img/fb.png", got.ProfilePic)
}

func TestFacebookVerifier_EmaillessAccountsCoexist(t *testing.T) {
	profile := map[string]any{"id": "fb-1", "first_name": "One"}
	srv := fakeProvider(t, profile)
	users := database.NewMemory[models.User]("email", "googleId", "facebookId")
	v := NewFacebookVerifier(config.OAuthProvider{ClientID: "id", ClientSecret: "secret"}, "http://localhost:8080", users)
	pointAt(v, srv)
	ctx := context.Background()

	first, err := v.Verify(ctx, Credentials{Code: "good-code"})
	require.NoError(t, err)

	profile["id"] = "fb-2"
	profile["first_name"] = "Two"
	second, err := v.Verify(ctx, Credentials{Code: "good-code"})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "fb-1", first.FacebookID)
	assert.Equal(t, "fb-2", second.FacebookID)
}

func TestOAuthVerifier_ExchangeFailurePropagates(t *testing.T) {
	srv := fakeProvider(t, map[string]any{"id": "g-1"})
	users := database.NewMemory[models.User]()
	v := NewGoogleVerifier(config.OAuthProvider{ClientID: "id", ClientSecret: "secret"}, "http://localhost:8080", users)
	pointAt(v, srv)

	_, err := v.Verify(context.Background(), Credentials{Code: "bad-code"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "google code exchange")

	_, err = v.Verify(context.Background(), Credentials{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestOAuthVerifier_AuthCodeURL(t *testing.T) {
	v := NewGoogleVerifier(config.OAuthProvider{ClientID: "client", ClientSecret: "secret"}, "https://cms.example", nil)
	url := v.AuthCodeURL("state-1")
	assert.Contains(t, url, "client_id=client")
	assert.Contains(t, url, "state=state-1")
	assert.Contains(t, url, "redirect_uri=https%3A%2F%2Fcms.example%2Fapi%2Fv1%2Fauth%2Fgoogle%2Fcallback")
}
