package handlers

import (
	"context"
	"encoding/json"
	"strings"

	"reviewcms/auth"
	"reviewcms/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const minPasswordLen = 6

// userSummary is the user shape returned by the auth routes.
type userSummary struct {
	ID         primitive.ObjectID `json:"id"`
	Email      string             `json:"email"`
	FirstName  string             `json:"firstname"`
	LastName   string             `json:"lastname"`
	ProfilePic string             `json:"profilePic"`
	Role       string             `json:"role"`
}

func summaryOf(u *models.User) userSummary {
	return userSummary{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		ProfilePic: u.ProfilePic,
		Role:       u.Role,
	}
}

func hashNewPassword(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", badRequest("password must be at least %d characters", minPasswordLen)
	}
	return auth.HashPassword(password)
}

func (h *Handler) userResource() *resource[models.User] {
	return &resource[models.User]{
		name:   "User",
		plural: "Users",
		kind:   "user",
		repo:   h.Repos.Users,
		unique: []string{"email"},
		prepare: func(c *gin.Context, u *models.User) error {
			// password is not part of the bound model
			var in struct {
				Password string `json:"password"`
			}
			_ = c.ShouldBindBodyWith(&in, binding.JSON)
			if in.Password != "" {
				hash, err := hashNewPassword(in.Password)
				if err != nil {
					return err
				}
				u.Password = hash
			}
			u.Email = strings.ToLower(strings.TrimSpace(u.Email))
			u.GoogleID, u.FacebookID = "", ""
			if u.ProfilePic == "" {
				u.ProfilePic = fallbackAvatar
			}
			u.ApplyDefaults()
			return nil
		},
		amend: func(_ *gin.Context, _ *models.User, p *patch[models.User]) error {
			delete(p.Set, "googleId")
			delete(p.Set, "facebookId")
			delete(p.Set, "lastLogin")
			if email, ok := p.Set["email"].(string); ok {
				p.Set["email"] = strings.ToLower(strings.TrimSpace(email))
			}
			if raw, ok := p.Raw["password"]; ok {
				var password string
				if err := json.Unmarshal(raw, &password); err != nil {
					return badRequest("password must be a string")
				}
				hash, err := hashNewPassword(password)
				if err != nil {
					return err
				}
				p.Set["password"] = hash
			}
			return nil
		},
		inUse: func(ctx context.Context, id primitive.ObjectID) (bool, error) {
			return referenced(ctx,
				countOf(h.Repos.Articles, "author", id),
				countOf(h.Repos.Reviews, "author", id),
				countOf(h.Repos.Comparisons, "author", id),
				countOf(h.Repos.Comments, "userId", id),
			)
		},
	}
}
