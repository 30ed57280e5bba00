package handlers

import (
	"net/http"

	apimiddleware "github.com/Conceptual-Machines/eternal-union/internal/api/middleware"
	"github.com/Conceptual-Machines/eternal-union/internal/studio"
	"github.com/gin-gonic/gin"
)

type CredentialHandler struct {
	manager *studio.Manager
}

func NewCredentialHandler(manager *studio.Manager) *CredentialHandler {
	return &CredentialHandler{manager: manager}
}

type CredentialRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// Put stores the user's Gemini API key
func (h *CredentialHandler) Put(c *gin.Context) {
	var req CredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st := h.manager.Get(apimiddleware.GetStudioID(c))
	if err := st.SaveCredential(c.Request.Context(), req.APIKey); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"has_credential": true})
}
