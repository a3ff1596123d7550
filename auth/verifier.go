package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"reviewcms/database"
	"reviewcms/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// Strategy names.
const (
	StrategyLocal    = "local"
	StrategyGoogle   = "google"
	StrategyFacebook = "facebook"
)

// Credentials is what a strategy is handed: an email and password for
// local login or an authorization code for a provider callback.
type Credentials struct {
	Email    string
	Password string
	Code     string
}

// CredentialVerifier resolves credentials to a user or fails.
type CredentialVerifier interface {
	Verify(ctx context.Context, creds Credentials) (*models.User, error)
}

// Principal is the identity attached to a request once authenticated.
type Principal struct {
	UserID primitive.ObjectID
	Email  string
	Role   string
}

func PrincipalOf(u *models.User) Principal {
	return Principal{UserID: u.ID, Email: u.Email, Role: u.Role}
}

// LocalVerifier checks an email and password against the stored bcrypt hash.
type LocalVerifier struct {
	Users database.Repository[models.User]
}

func NewLocalVerifier(users database.Repository[models.User]) *LocalVerifier {
	return &LocalVerifier{Users: users}
}

func (v *LocalVerifier) Verify(ctx context.Context, creds Credentials) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	if email == "" || creds.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := v.Users.FindOne(ctx, "email", email)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	// Federated-only accounts have no password to compare.
	if user.Password == "" || !CheckPassword(creds.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Registry maps strategy names to their verifiers.
type Registry struct {
	verifiers map[string]CredentialVerifier
}

func NewRegistry() *Registry {
	return &Registry{verifiers: make(map[string]CredentialVerifier)}
}

func (r *Registry) Register(name string, v CredentialVerifier) {
	r.verifiers[name] = v
}

func (r *Registry) Get(name string) (CredentialVerifier, bool) {
	v, ok := r.verifiers[name]
	return v, ok
}

var _ CredentialVerifier = (*LocalVerifier)(nil)
