package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"reviewcms/auth"
	"reviewcms/database"
	"reviewcms/metrics"
	"reviewcms/models"
	"reviewcms/response"
	"reviewcms/session"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// BootstrapAdmin creates the configured admin account on first call.
func (h *Handler) BootstrapAdmin(c *gin.Context) {
	seed := h.Config.Admin
	if seed.Email == "" || seed.Password == "" {
		response.Error(c, http.StatusServiceUnavailable, "Admin bootstrap is not configured")
		return
	}

	admin, created, err := auth.EnsureAdmin(c.Request.Context(), h.Repos.Users, seed)
	if err != nil {
		fail(c, "BootstrapAdmin", err)
		return
	}
	if !created {
		response.Error(c, http.StatusBadRequest, "User already exists")
		return
	}
	log.Printf("👑 Admin %s bootstrapped", admin.Email)
	response.Success(c, http.StatusCreated, "User registered successfully", summaryOf(admin))
}

// Register creates a local account and signs it in.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, "Register", bindError(err))
		return
	}
	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(req.Email))

	_, err := h.Repos.Users.FindOne(ctx, "email", email)
	if err == nil {
		response.Error(c, http.StatusBadRequest, "User already exists")
		return
	}
	if !errors.Is(err, database.ErrNotFound) {
		fail(c, "Register", err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		fail(c, "Register", err)
		return
	}
	user := &models.User{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      email,
		Password:   hash,
		ProfilePic: fallbackAvatar,
	}
	user.ApplyDefaults()
	if err := h.Repos.Users.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			response.Error(c, http.StatusBadRequest, "User already exists")
			return
		}
		fail(c, "Register", err)
		return
	}

	log.Printf("📝 Registered user %s", user.ID.Hex())
	h.signIn(c, "Register", auth.StrategyLocal, user, h.Config.LoginTTL, http.StatusCreated, "User registered successfully")
}

func (h *Handler) Login(c *gin.Context) {
	h.localLogin(c, "Login", false)
}

// AdminLogin is Login restricted to accounts with the admin role.
func (h *Handler) AdminLogin(c *gin.Context) {
	h.localLogin(c, "AdminLogin", true)
}

func (h *Handler) localLogin(c *gin.Context, op string, adminOnly bool) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, op, bindError(err))
		return
	}

	verifier, ok := h.Verifiers.Get(auth.StrategyLocal)
	if !ok {
		response.Error(c, http.StatusServiceUnavailable, "Local login is not configured")
		return
	}
	user, err := verifier.Verify(c.Request.Context(), auth.Credentials{Email: req.Email, Password: req.Password})
	if errors.Is(err, auth.ErrInvalidCredentials) {
		metrics.RecordLogin(auth.StrategyLocal, "failure")
		response.Error(c, http.StatusUnauthorized, "Login failed: Invalid email or password.")
		return
	}
	if err != nil {
		metrics.RecordLogin(auth.StrategyLocal, "error")
		fail(c, op, err)
		return
	}

	if adminOnly && !user.IsAdmin() {
		metrics.RecordLogin(auth.StrategyLocal, "forbidden")
		response.Error(c, http.StatusForbidden, "Access denied. Admins only.")
		return
	}
	h.signIn(c, op, auth.StrategyLocal, user, h.Config.LoginTTL, http.StatusOK, "Login successful")
}

// signIn starts a session for user and answers with a fresh bearer token.
func (h *Handler) signIn(c *gin.Context, op, strategy string, user *models.User, ttl time.Duration, code int, message string) {
	if err := h.Sessions.Login(c, user); err != nil {
		metrics.RecordLogin(strategy, "error")
		fail(c, op, err)
		return
	}
	token, expiresAt, err := h.Tokens.Issue(user.ID.Hex(), ttl)
	if err != nil {
		metrics.RecordLogin(strategy, "error")
		fail(c, op, err)
		return
	}

	metrics.RecordLogin(strategy, "success")
	log.Printf("[%s] %s signed in via %s", op, user.ID.Hex(), strategy)
	response.Success(c, code, message, gin.H{
		"user":      summaryOf(user),
		"token":     token,
		"expiresAt": expiresAt,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.Sessions.Logout(c); err != nil {
		log.Printf("⚠️ [Logout] %v", err)
	}
	response.Success(c, http.StatusOK, "Logged out successfully", nil)
}

// Me returns the user behind the session cookie.
func (h *Handler) Me(c *gin.Context) {
	user, err := h.Sessions.Current(c)
	if errors.Is(err, session.ErrNoSession) {
		response.Error(c, http.StatusUnauthorized, "Not logged in")
		return
	}
	if err != nil {
		fail(c, "Me", err)
		return
	}
	response.Success(c, http.StatusOK, "User retrieved successfully", summaryOf(user))
}
