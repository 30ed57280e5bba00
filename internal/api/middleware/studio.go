package middleware

import (
	"net/http"

	"github.com/Conceptual-Machines/eternal-union/internal/events"
	"github.com/Conceptual-Machines/eternal-union/internal/logger"
	authmiddleware "github.com/Conceptual-Machines/eternal-union/internal/middleware"
	"github.com/Conceptual-Machines/eternal-union/internal/studio"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	// StudioCookie names the session cookie that pins a browser to its studio.
	StudioCookie = "eternal_union_studio"
	studioIDKey  = "studio_id"
)

// StudioSession resolves the browser's studio id from its session cookie,
// issuing a new id on first visit.
func StudioSession(store sessions.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		// a tampered or expired cookie yields a fresh session
		session, _ := store.Get(c.Request, StudioCookie)

		id, _ := session.Values[studioIDKey].(string)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
			session.Values[studioIDKey] = id
			if err := session.Save(c.Request, c.Writer); err != nil {
				logger.Error("Failed to save studio session", err, logger.WithContext(c))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start studio session"})
				c.Abort()
				return
			}
		}

		c.Set(studioIDKey, id)
		c.Next()
	}
}

// GetStudioID returns the id resolved by StudioSession.
func GetStudioID(c *gin.Context) string {
	return c.GetString(studioIDKey)
}

// SyncStudioUser reconciles the studio's signed-in user with the request's
// access token, so a studio recreated after a restart picks the user back
// up and an expired token signs the studio out.
func SyncStudioUser(manager *studio.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := GetStudioID(c)
		if id == "" {
			c.Next()
			return
		}

		current := manager.Get(id).Snapshot().User
		user, signedIn := authmiddleware.GetCurrentUser(c)
		switch {
		case signedIn && (current == nil || current.ID != user.ID):
			manager.Dispatch(c.Request.Context(), id, events.AuthEvent{
				Kind: events.LoggedIn,
				User: &events.AuthUser{ID: user.ID, Name: user.Name, Email: user.Email, AvatarURL: user.AvatarURL},
			})
		case !signedIn && current != nil:
			manager.Dispatch(c.Request.Context(), id, events.AuthEvent{Kind: events.LoggedOut})
		}
		c.Next()
	}
}
