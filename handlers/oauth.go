package handlers

import (
	"errors"
	"log"
	"net/http"

	"reviewcms/auth"
	"reviewcms/metrics"
	"reviewcms/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const oauthStateCookie = "oauth_state"

var providerNames = map[string]string{
	auth.StrategyGoogle:   "Google",
	auth.StrategyFacebook: "Facebook",
}

// redirector is a verifier that starts its flow with a browser redirect.
type redirector interface {
	auth.CredentialVerifier
	AuthCodeURL(state string) string
}

func (h *Handler) redirector(c *gin.Context, provider string) (redirector, bool) {
	if v, ok := h.Verifiers.Get(provider); ok {
		if r, ok := v.(redirector); ok {
			return r, true
		}
	}
	response.Error(c, http.StatusServiceUnavailable, providerNames[provider]+" login is not configured")
	return nil, false
}

// OAuthStart sends the browser to the provider's consent screen.
func (h *Handler) OAuthStart(provider string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := h.redirector(c, provider)
		if !ok {
			return
		}
		state := uuid.NewString()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(oauthStateCookie, state, 600, "/", "", h.Sessions.Secure, true)
		c.Redirect(http.StatusFound, v.AuthCodeURL(state))
	}
}

// OAuthCallback completes the provider flow and signs the user in.
func (h *Handler) OAuthCallback(provider string) gin.HandlerFunc {
	op := providerNames[provider] + "Callback"
	return func(c *gin.Context) {
		v, ok := h.redirector(c, provider)
		if !ok {
			return
		}

		state, err := c.Cookie(oauthStateCookie)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(oauthStateCookie, "", -1, "/", "", h.Sessions.Secure, true)
		if err != nil || state == "" || c.Query("state") != state {
			response.Error(c, http.StatusBadRequest, "Invalid OAuth state")
			return
		}
		if reason := c.Query("error"); reason != "" {
			metrics.RecordLogin(provider, "failure")
			response.Error(c, http.StatusUnauthorized, "Login failed: "+reason)
			return
		}

		user, err := v.Verify(c.Request.Context(), auth.Credentials{Code: c.Query("code")})
		if errors.Is(err, auth.ErrInvalidCredentials) {
			metrics.RecordLogin(provider, "failure")
			response.Error(c, http.StatusUnauthorized, "Login failed: missing authorization code")
			return
		}
		if err != nil {
			metrics.RecordLogin(provider, "error")
			log.Printf("❌ [%s] %v", op, err)
			response.Error(c, http.StatusInternalServerError, "Error processing your request")
			return
		}
		h.signIn(c, op, provider, user, h.Config.OAuthTTL, http.StatusOK, "Login successful")
	}
}
