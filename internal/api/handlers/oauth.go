package handlers

import (
	"net/http"
	"time"

	"github.com/Conceptual-Machines/eternal-union/internal/accounts"
	apimiddleware "github.com/Conceptual-Machines/eternal-union/internal/api/middleware"
	"github.com/Conceptual-Machines/eternal-union/internal/config"
	"github.com/Conceptual-Machines/eternal-union/internal/events"
	"github.com/Conceptual-Machines/eternal-union/internal/logger"
	"github.com/Conceptual-Machines/eternal-union/internal/middleware"
	"github.com/Conceptual-Machines/eternal-union/internal/studio"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
)

const forwardedProtoHTTPS = "https"

type OAuthHandler struct {
	users   accounts.Store
	manager *studio.Manager
	cfg     *config.Config

	// swapped in tests
	beginAuth    func(http.ResponseWriter, *http.Request)
	completeAuth func(http.ResponseWriter, *http.Request) (goth.User, error)
	logout       func(http.ResponseWriter, *http.Request) error
	now          func() time.Time
}

// NewOAuthHandler registers the Google provider with gothic. store keeps the
// OAuth state between the redirect and the callback.
func NewOAuthHandler(users accounts.Store, manager *studio.Manager, cfg *config.Config, store sessions.Store) *OAuthHandler {
	gothic.Store = store

	goth.UseProviders(
		google.New(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.BaseURL+"/api/auth/google/callback",
			"email", "profile",
		),
	)

	return &OAuthHandler{
		users:        users,
		manager:      manager,
		cfg:          cfg,
		beginAuth:    gothic.BeginAuthHandler,
		completeAuth: gothic.CompleteUserAuth,
		logout:       gothic.Logout,
		now:          time.Now,
	}
}

// withProvider copies the route's provider into the query where gothic reads it.
func withProvider(c *gin.Context) bool {
	provider := c.Param("provider")
	if provider != providerGoogle {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported provider"})
		return false
	}

	q := c.Request.URL.Query()
	q.Set("provider", provider)
	c.Request.URL.RawQuery = q.Encode()
	return true
}

// BeginAuth redirects user to OAuth provider login
func (h *OAuthHandler) BeginAuth(c *gin.Context) {
	if !withProvider(c) {
		return
	}
	h.beginAuth(c.Writer, c.Request)
}

// Callback completes the OAuth flow, issues the access cookie and signs the
// browser's studio in.
func (h *OAuthHandler) Callback(c *gin.Context) {
	if !withProvider(c) {
		return
	}

	gothUser, err := h.completeAuth(c.Writer, c.Request)
	if err != nil {
		logger.Warn("OAuth authentication failed", logger.Fields{"error": err.Error(), "request_id": c.GetString("request_id")})
		c.JSON(http.StatusUnauthorized, gin.H{"error": "OAuth authentication failed"})
		return
	}

	user, isNew, err := h.users.FindOrCreate(c.Request.Context(), accounts.Identity{
		Provider:       gothUser.Provider,
		ProviderUserID: gothUser.UserID,
		Email:          gothUser.Email,
		Name:           gothUser.Name,
		AvatarURL:      gothUser.AvatarURL,
	})
	if err != nil {
		logger.Error("Failed to resolve OAuth user", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is disabled"})
		return
	}

	accessToken, err := middleware.IssueAccessToken(h.cfg.JWTSecret, user, h.now())
	if err != nil {
		logger.Error("Failed to sign access token", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, accessToken, int(middleware.AccessTokenDuration.Seconds()), "/", "", h.secure(c), true)

	h.manager.Dispatch(c.Request.Context(), apimiddleware.GetStudioID(c), events.AuthEvent{
		Kind: events.LoggedIn,
		User: &events.AuthUser{ID: user.ID, Name: user.Name, Email: user.Email, AvatarURL: user.AvatarURL},
	})
	logger.Info("User signed in", logger.Fields{"user_id": user.ID, "is_new": isNew, "provider": gothUser.Provider})

	c.Redirect(http.StatusTemporaryRedirect, h.cfg.AuthRedirectURL)
}

// Logout clears the access cookie and signs the studio out
func (h *OAuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", h.secure(c), true)
	if err := h.logout(c.Writer, c.Request); err != nil {
		logger.Debug("No OAuth session to clear", logger.Fields{"error": err.Error()})
	}

	h.manager.Dispatch(c.Request.Context(), apimiddleware.GetStudioID(c), events.AuthEvent{Kind: events.LoggedOut})
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *OAuthHandler) secure(c *gin.Context) bool {
	return h.cfg.IsProduction() || c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == forwardedProtoHTTPS
}
