package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	apimiddleware "github.com/Conceptual-Machines/eternal-union/internal/api/middleware"
	"github.com/Conceptual-Machines/eternal-union/internal/events"
	"github.com/Conceptual-Machines/eternal-union/internal/imagecodec"
	"github.com/Conceptual-Machines/eternal-union/internal/logger"
	"github.com/Conceptual-Machines/eternal-union/internal/studio"
	"github.com/gin-gonic/gin"
)

type StudioHandler struct {
	manager *studio.Manager
	hub     *events.Hub
}

func NewStudioHandler(manager *studio.Manager, hub *events.Hub) *StudioHandler {
	return &StudioHandler{manager: manager, hub: hub}
}

func (h *StudioHandler) studio(c *gin.Context) *studio.Studio {
	return h.manager.Get(apimiddleware.GetStudioID(c))
}

// detached keeps a generation running when the browser drops the request;
// the outcome still reaches the studio state and its event stream.
func detached(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

// Get returns the current snapshot
func (h *StudioHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.studio(c).Snapshot())
}

// Catalog returns the selectable scenes, outfits, poses, filters and commands
func (h *StudioHandler) Catalog(c *gin.Context) {
	c.JSON(http.StatusOK, studio.FullCatalog())
}

type StudioPatchRequest struct {
	SceneID       *string     `json:"scene_id"`
	PoseID        *string     `json:"pose_id"`
	OutfitID      *string     `json:"outfit_id"`
	FilterID      *string     `json:"filter_id"`
	CustomPose    *string     `json:"custom_pose"`
	Lighting      *int        `json:"lighting" binding:"omitempty,min=0,max=100"`
	HighQuality   *bool       `json:"high_quality"`
	Brightness    *int        `json:"brightness" binding:"omitempty,min=50,max=150"`
	Contrast      *int        `json:"contrast" binding:"omitempty,min=50,max=150"`
	Saturation    *int        `json:"saturation" binding:"omitempty,min=50,max=150"`
	ActiveTab     *studio.Tab `json:"active_tab" binding:"omitempty,oneof=generation color album"`
	CustomRetouch *string     `json:"custom_retouch"`
	ShowEditModal *bool       `json:"show_edit_modal"`
}

// toPatch resolves catalog ids into the prompt text kept in the state.
func (r StudioPatchRequest) toPatch() (studio.Patch, error) {
	var p studio.Patch

	if r.SceneID != nil {
		scene, ok := studio.SceneByID(*r.SceneID)
		if !ok {
			return p, fmt.Errorf("unknown scene %q", *r.SceneID)
		}
		p.Scene = studio.Set(scene.Description)
	}
	if r.PoseID != nil {
		pose, ok := studio.PoseByID(*r.PoseID)
		if !ok {
			return p, fmt.Errorf("unknown pose %q", *r.PoseID)
		}
		p.Pose = studio.Set(pose.Prompt)
		p.CustomPose = studio.Set(pose.Prompt)
	}
	if r.OutfitID != nil {
		outfit, ok := studio.OutfitByID(*r.OutfitID)
		if !ok {
			return p, fmt.Errorf("unknown outfit %q", *r.OutfitID)
		}
		p.Outfit = studio.Set(outfit.Description)
	}
	if r.FilterID != nil {
		filter, ok := studio.FilterByID(*r.FilterID)
		if !ok {
			return p, fmt.Errorf("unknown filter %q", *r.FilterID)
		}
		p.Filter = studio.Set(filter.Prompt)
	}

	setIf(&p.CustomPose, r.CustomPose)
	setIf(&p.Lighting, r.Lighting)
	setIf(&p.HighQuality, r.HighQuality)
	setIf(&p.Brightness, r.Brightness)
	setIf(&p.Contrast, r.Contrast)
	setIf(&p.Saturation, r.Saturation)
	setIf(&p.ActiveTab, r.ActiveTab)
	setIf(&p.CustomRetouch, r.CustomRetouch)
	setIf(&p.ShowEditModal, r.ShowEditModal)
	return p, nil
}

func setIf[T any](field *studio.Field[T], v *T) {
	if v != nil {
		*field = studio.Set(*v)
	}
}

// Patch updates selections and adjustments
func (h *StudioHandler) Patch(c *gin.Context) {
	var req StudioPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.studio(c).Update(patch))
}

type HoverRequest struct {
	Image *imagecodec.Image `json:"image"`
}

// Hover sets or clears the preview image
func (h *StudioHandler) Hover(c *gin.Context) {
	var req HoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.studio(c).Hover(req.Image))
}

// Upload stores multipart images in a slot
func (h *StudioHandler) Upload(c *gin.Context) {
	slot, err := studio.ParseSlot(c.Param("slot"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBody)
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart upload"})
		return
	}

	files := c.Request.MultipartForm.File[uploadFormField]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No images uploaded"})
		return
	}

	imgs := make([]imagecodec.Image, 0, len(files))
	for _, fh := range files {
		img, err := imagecodec.FromFileHeader(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s: %v", fh.Filename, err)})
			return
		}
		imgs = append(imgs, img)
	}

	v, err := h.studio(c).Upload(slot, imgs...)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// ClearUpload empties a slot
func (h *StudioHandler) ClearUpload(c *gin.Context) {
	slot, err := studio.ParseSlot(c.Param("slot"))
	if err != nil {
		respondError(c, err)
		return
	}

	v, err := h.studio(c).ClearSlot(slot)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// RemoveUpload drops one subject photo
func (h *StudioHandler) RemoveUpload(c *gin.Context) {
	slot, err := studio.ParseSlot(c.Param("slot"))
	if err != nil {
		respondError(c, err)
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image index"})
		return
	}

	v, err := h.studio(c).RemoveSubjectImage(slot, index)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// Generate runs one single-shot generation and returns the final snapshot
func (h *StudioHandler) Generate(c *gin.Context) {
	st := h.studio(c)
	if err := st.Generate(detached(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st.Snapshot())
}

// StartBatch launches a signature batch; progress arrives over the event stream
func (h *StudioHandler) StartBatch(c *gin.Context) {
	st := h.studio(c)
	run, err := st.StartBatch(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("Batch started", logger.Fields{"studio_id": st.ID(), "batch_id": run.ID})
	c.JSON(http.StatusAccepted, gin.H{
		"batch_id": run.ID,
		"total":    studio.BatchSize,
		"state":    st.Snapshot(),
	})
}

// CancelBatch stops the running batch
func (h *StudioHandler) CancelBatch(c *gin.Context) {
	st := h.studio(c)
	cancelled := st.CancelBatch()
	c.JSON(http.StatusOK, gin.H{
		"cancelled": cancelled,
		"state":     st.Snapshot(),
	})
}

// SelectBatchResult makes one batch photo the current result and opens the editor
func (h *StudioHandler) SelectBatchResult(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid batch result index"})
		return
	}

	v, err := h.studio(c).SelectBatchResult(index)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// OpenEditor opens the retouch editor on the current result
func (h *StudioHandler) OpenEditor(c *gin.Context) {
	c.JSON(http.StatusOK, h.studio(c).OpenEditor())
}

type RetouchRequest struct {
	Instruction string `json:"instruction"`
}

// Retouch edits the current result. An empty instruction uses the custom
// retouch text held in the studio.
func (h *StudioHandler) Retouch(c *gin.Context) {
	var req RetouchRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st := h.studio(c)
	var err error
	if req.Instruction != "" {
		err = st.Retouch(detached(c), req.Instruction)
	} else {
		err = st.RetouchCustom(detached(c))
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st.Snapshot())
}

// SuggestPose fills the custom pose with a suggestion for the selected scene
func (h *StudioHandler) SuggestPose(c *gin.Context) {
	st := h.studio(c)
	if err := st.SuggestPose(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st.Snapshot())
}

// Home resets the result view
func (h *StudioHandler) Home(c *gin.Context) {
	c.JSON(http.StatusOK, h.studio(c).GoHome())
}

// DismissStatus clears the status line
func (h *StudioHandler) DismissStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.studio(c).DismissStatus())
}

// Events streams studio snapshots and auth changes as server-sent events
func (h *StudioHandler) Events(c *gin.Context) {
	id := apimiddleware.GetStudioID(c)
	st := h.manager.Get(id)

	// subscribe before the first snapshot so no change falls in between
	ch, unsubscribe := h.hub.Subscribe(studio.Topic(id))
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	initial, err := json.Marshal(st.Snapshot())
	if err != nil {
		logger.Error("Failed to encode snapshot", err, logger.WithContext(c))
		return
	}
	writeEvent(c, events.Event{Type: events.TypeSnapshot, Data: initial})

	keepAlive := time.NewTicker(sseKeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(c, evt)
		case <-keepAlive.C:
			fmt.Fprint(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}

func writeEvent(c *gin.Context, evt events.Event) {
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", evt.Type, evt.Data)
	c.Writer.Flush()
}
