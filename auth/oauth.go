package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"reviewcms/config"
	"reviewcms/database"
	"reviewcms/models"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"
)

const (
	googleProfileURL   = "https://www.googleapis.com/oauth2/v2/userinfo"
	facebookProfileURL = "https://graph.facebook.com/me?fields=id,email,first_name,last_name,picture"
)

// Profile is the provider identity reduced to the fields a user is built from.
// Email is only trusted when EmailVerified is set.
type Profile struct {
	ID            string
	Email         string
	EmailVerified bool
	FirstName     string
	LastName      string
	Picture       string
}

type googleUserInfo struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Verified   bool   `json:"verified_email"`
	OIDCVerify bool   `json:"email_verified"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

type facebookUserInfo struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Picture   struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

// OAuthVerifier exchanges a provider authorization code for a local user,
// creating or linking the account on first sight.
type OAuthVerifier struct {
	Provider   string
	Config     *oauth2.Config
	ProfileURL string
	Users      database.Repository[models.User]

	idField string
	parse   func(*http.Response) (Profile, error)
}

func NewGoogleVerifier(p config.OAuthProvider, publicURL string, users database.Repository[models.User]) *OAuthVerifier {
	return &OAuthVerifier{
		Provider: StrategyGoogle,
		Config: &oauth2.Config{
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			RedirectURL:  publicURL + "/api/v1/auth/google/callback",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		ProfileURL: googleProfileURL,
		Users:      users,
		idField:    "googleId",
		parse:      parseGoogle,
	}
}

func NewFacebookVerifier(p config.OAuthProvider, publicURL string, users database.Repository[models.User]) *OAuthVerifier {
	return &OAuthVerifier{
		Provider: StrategyFacebook,
		Config: &oauth2.Config{
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			RedirectURL:  publicURL + "/api/v1/auth/facebook/callback",
			Scopes:       []string{"email", "public_profile"},
			Endpoint:     facebook.Endpoint,
		},
		ProfileURL: facebookProfileURL,
		Users:      users,
		idField:    "facebookId",
		parse:      parseFacebook,
	}
}

// AuthCodeURL is where the browser is sent to start the provider flow.
func (v *OAuthVerifier) AuthCodeURL(state string) string {
	return v.Config.AuthCodeURL(state)
}

func (v *OAuthVerifier) Verify(ctx context.Context, creds Credentials) (*models.User, error) {
	if creds.Code == "" {
		return nil, ErrInvalidCredentials
	}
	profile, err := v.fetchProfile(ctx, creds.Code)
	if err != nil {
		return nil, err
	}
	if profile.ID == "" {
		return nil, fmt.Errorf("%s profile has no id", v.Provider)
	}
	return v.upsert(ctx, profile)
}

func (v *OAuthVerifier) fetchProfile(ctx context.Context, code string) (Profile, error) {
	token, err := v.Config.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("%s code exchange: %w", v.Provider, err)
	}

	resp, err := v.Config.Client(ctx, token).Get(v.ProfileURL)
	if err != nil {
		return Profile{}, fmt.Errorf("%s profile request: %w", v.Provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("%s profile request: status %d", v.Provider, resp.StatusCode)
	}
	return v.parse(resp)
}

func parseGoogle(resp *http.Response) (Profile, error) {
	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Profile{}, fmt.Errorf("decode google profile: %w", err)
	}
	return Profile{
		ID:            info.ID,
		Email:         info.Email,
		EmailVerified: info.Verified || info.OIDCVerify,
		FirstName:     info.GivenName,
		LastName:      info.FamilyName,
		Picture:       info.Picture,
	}, nil
}

// parseFacebook leaves EmailVerified unset: the Graph API reports no
// verification status for the email it returns.
func parseFacebook(resp *http.Response) (Profile, error) {
	var info facebookUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Profile{}, fmt.Errorf("decode facebook profile: %w", err)
	}
	return Profile{ID: info.ID, Email: info.Email, FirstName: info.FirstName, LastName: info.LastName, Picture: info.Picture.Data.URL}, nil
}

// upsert finds the user by provider id, then by verified email, and creates
// it otherwise. An unverified email is neither linked nor stored.
func (v *OAuthVerifier) upsert(ctx context.Context, p Profile) (*models.User, error) {
	now := time.Now().UTC()

	user, err := v.Users.FindOne(ctx, v.idField, p.ID)
	switch {
	case err == nil:
		set := bson.M{"lastLogin": now}
		if user.ProfilePic == "" && p.Picture != "" {
			set["profilePic"] = p.Picture
		}
		return v.Users.Update(ctx, user.ID, set)
	case !errors.Is(err, database.ErrNotFound):
		return nil, fmt.Errorf("find %s user: %w", v.Provider, err)
	}

	email := ""
	if p.EmailVerified {
		email = strings.ToLower(strings.TrimSpace(p.Email))
	}
	if email != "" {
		existing, err := v.Users.FindOne(ctx, "email", email)
		if err == nil {
			log.Printf("🔗 Linking %s account to existing user %s", v.Provider, existing.ID.Hex())
			set := bson.M{v.idField: p.ID, "lastLogin": now}
			if existing.ProfilePic == "" && p.Picture != "" {
				set["profilePic"] = p.Picture
			}
			return v.Users.Update(ctx, existing.ID, set)
		}
		if !errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("find user by email: %w", err)
		}
	}

	created := &models.User{
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Email:      email,
		ProfilePic: p.Picture,
		LastLogin:  &now,
	}
	if v.idField == "googleId" {
		created.GoogleID = p.ID
	} else {
		created.FacebookID = p.ID
	}
	created.ApplyDefaults()

	if err := v.Users.Create(ctx, created); err != nil {
		// A concurrent callback for the same account won the insert.
		if errors.Is(err, database.ErrDuplicate) {
			if winner, findErr := v.Users.FindOne(ctx, v.idField, p.ID); findErr == nil {
				return winner, nil
			}
		}
		return nil, fmt.Errorf("create %s user: %w", v.Provider, err)
	}
	log.Printf("📝 Created user %s from %s", created.ID.Hex(), v.Provider)
	return created, nil
}

var _ CredentialVerifier = (*OAuthVerifier)(nil)
