package handlers

import (
	"net/http"

	apimiddleware "github.com/Conceptual-Machines/eternal-union/internal/api/middleware"
	"github.com/Conceptual-Machines/eternal-union/internal/middleware"
	"github.com/Conceptual-Machines/eternal-union/internal/studio"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	manager *studio.Manager
}

func NewUserHandler(manager *studio.Manager) *UserHandler {
	return &UserHandler{manager: manager}
}

// GetProfile returns the current user's profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, exists := middleware.GetCurrentUser(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	v := h.manager.Get(apimiddleware.GetStudioID(c)).Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":         user.ID,
			"email":      user.Email,
			"name":       user.Name,
			"avatar_url": user.AvatarURL,
			"created_at": user.CreatedAt,
		},
		"has_credential": v.Credential != "",
		"photos":         len(v.Photos),
	})
}
