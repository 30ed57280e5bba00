package handlers

import (
	"errors"
	"io"
	"net/http"

	apimiddleware "github.com/Conceptual-Machines/eternal-union/internal/api/middleware"
	"github.com/Conceptual-Machines/eternal-union/internal/imagecodec"
	"github.com/Conceptual-Machines/eternal-union/internal/studio"
	"github.com/gin-gonic/gin"
)

type AlbumHandler struct {
	manager *studio.Manager
}

func NewAlbumHandler(manager *studio.Manager) *AlbumHandler {
	return &AlbumHandler{manager: manager}
}

func (h *AlbumHandler) studio(c *gin.Context) *studio.Studio {
	return h.manager.Get(apimiddleware.GetStudioID(c))
}

// List reloads and returns the signed-in user's photos, newest first
func (h *AlbumHandler) List(c *gin.Context) {
	st := h.studio(c)
	if err := st.RefreshPhotos(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photos": st.Snapshot().Photos})
}

type SavePhotoRequest struct {
	// Image defaults to the current result when omitted
	Image *imagecodec.Image `json:"image"`
}

// Save stores a photo under the selected scene
func (h *AlbumHandler) Save(c *gin.Context) {
	var req SavePhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st := h.studio(c)
	if err := st.SaveToAlbum(c.Request.Context(), req.Image); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"photos": st.Snapshot().Photos})
}

// Delete removes one photo
func (h *AlbumHandler) Delete(c *gin.Context) {
	st := h.studio(c)
	if err := st.DeletePhoto(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photos": st.Snapshot().Photos})
}
