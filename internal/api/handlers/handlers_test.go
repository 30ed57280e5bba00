package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Conceptual-Machines/eternal-union/internal/album"
	"github.com/Conceptual-Machines/eternal-union/internal/events"
	"github.com/Conceptual-Machines/eternal-union/internal/imagecodec"
	"github.com/Conceptual-Machines/eternal-union/internal/imagegen"
	"github.com/Conceptual-Machines/eternal-union/internal/studio"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testStudioID = "studio-1"

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func init() {
	gin.SetMode(gin.TestMode)
}

type stubImages struct {
	mu          sync.Mutex
	generateErr error
	generated   int
}

func (s *stubImages) Generate(context.Context, imagegen.Request) (imagecodec.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generateErr != nil {
		return imagecodec.Image{}, s.generateErr
	}
	s.generated++
	return imagecodec.New("image/png", []byte(fmt.Sprintf("photo-%d", s.generated))), nil
}

func (s *stubImages) Edit(_ context.Context, img imagecodec.Image, instruction, _ string) (imagecodec.Image, error) {
	return imagecodec.New(img.MIMEType, append(append([]byte{}, img.Data...), instruction...)), nil
}

func (s *stubImages) SuggestPose(context.Context, string, string) (string, error) {
	return "dancing under lanterns", nil
}

func (s *stubImages) SuggestRetouch(context.Context, string, string) ([]string, error) {
	return []string{"Warm it up"}, nil
}

type testEnv struct {
	manager *studio.Manager
	hub     *events.Hub
	images  *stubImages
	router  *gin.Engine
}

// newTestEnv wires the studio routes behind a fixed studio id.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{hub: events.NewHub(), images: &stubImages{}}
	env.manager = studio.NewManager(studio.Deps{
		Images: env.images,
		Album:  album.NewMemoryStore(),
	}, env.hub)

	studioHandler := NewStudioHandler(env.manager, env.hub)
	albumHandler := NewAlbumHandler(env.manager)
	credentialHandler := NewCredentialHandler(env.manager)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("studio_id", testStudioID)
		c.Next()
	})
	r.GET("/studio", studioHandler.Get)
	r.GET("/studio/catalog", studioHandler.Catalog)
	r.PATCH("/studio", studioHandler.Patch)
	r.POST("/studio/uploads/:slot", studioHandler.Upload)
	r.DELETE("/studio/uploads/:slot", studioHandler.ClearUpload)
	r.DELETE("/studio/uploads/:slot/:index", studioHandler.RemoveUpload)
	r.POST("/studio/generate", studioHandler.Generate)
	r.POST("/studio/batch", studioHandler.StartBatch)
	r.POST("/studio/batch/cancel", studioHandler.CancelBatch)
	r.POST("/studio/batch/select/:index", studioHandler.SelectBatchResult)
	r.POST("/studio/editor", studioHandler.OpenEditor)
	r.POST("/studio/retouch", studioHandler.Retouch)
	r.POST("/studio/suggest-pose", studioHandler.SuggestPose)
	r.POST("/studio/home", studioHandler.Home)
	r.GET("/album", albumHandler.List)
	r.POST("/album", albumHandler.Save)
	r.DELETE("/album/:id", albumHandler.Delete)
	r.PUT("/credential", credentialHandler.Put)
	env.router = r
	return env
}

func (env *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env *testEnv) upload(t *testing.T, slot string, files ...[]byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i, data := range files {
		part, err := mw.CreateFormFile(uploadFormField, fmt.Sprintf("photo-%d.png", i))
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/studio/uploads/"+slot, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env *testEnv) signIn(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	env.manager.Dispatch(ctx, testStudioID, events.AuthEvent{
		Kind: events.LoggedIn,
		User: &events.AuthUser{ID: 1, Name: "Mina", Email: "mina@example.com"},
	})
	require.NoError(t, env.manager.Get(testStudioID).SaveCredential(ctx, "gemini-key"))
}

func (env *testEnv) readyToGenerate(t *testing.T) {
	t.Helper()
	env.signIn(t)
	require.Equal(t, http.StatusOK, env.upload(t, "bride", pngHeader).Code)
	require.Equal(t, http.StatusOK, env.upload(t, "groom", pngHeader).Code)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &studio.ValidationError{Message: "upload first"}, http.StatusBadRequest},
		{"login", &studio.ValidationError{Message: "login required", LoginRequired: true}, http.StatusUnauthorized},
		{"missing photo", &studio.PersistenceError{Op: "deleting photo", Err: album.ErrNotFound}, http.StatusNotFound},
		{"generation", &studio.GenerationError{Op: "generation", Err: errors.New("quota")}, http.StatusBadGateway},
		{"persistence", &studio.PersistenceError{Op: "saving", Err: errors.New("disk")}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestStudioHandler_GetHidesCredential(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	w := env.do(http.MethodGet, "/studio", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "gemini-key")

	body := decode(t, w)
	assert.Equal(t, true, body["has_credential"])
	assert.Equal(t, true, body["high_quality"])
	assert.Equal(t, string(studio.TabGeneration), body["active_tab"])
}

func TestStudioHandler_Catalog(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/studio/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var catalog studio.Catalog
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &catalog))
	assert.Len(t, catalog.BatchPoses, studio.BatchSize)
	assert.Equal(t, studio.Scenes, catalog.Scenes)
}

func TestStudioHandler_Patch(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPatch, "/studio", gin.H{"scene_id": "cathedral", "pose_id": "lift", "lighting": 80})
	require.Equal(t, http.StatusOK, w.Code)

	v := env.manager.Get(testStudioID).Snapshot()
	scene, _ := studio.SceneByID("cathedral")
	pose, _ := studio.PoseByID("lift")
	assert.Equal(t, scene.Description, v.Scene)
	assert.Equal(t, pose.Prompt, v.Pose)
	assert.Equal(t, pose.Prompt, v.CustomPose)
	assert.Equal(t, 80, v.Lighting)

	for name, body := range map[string]gin.H{
		"unknown scene":       {"scene_id": "moon"},
		"lighting too high":   {"lighting": 120},
		"brightness too low":  {"brightness": 10},
		"unknown tab":         {"active_tab": "settings"},
		"unknown filter name": {"filter_id": "sepia"},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPatch, "/studio", body).Code)
		})
	}
	assert.Equal(t, 80, env.manager.Get(testStudioID).Snapshot().Lighting)
}

func TestStudioHandler_Uploads(t *testing.T) {
	env := newTestEnv(t)

	w := env.upload(t, "bride", pngHeader, pngHeader)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, env.manager.Get(testStudioID).Snapshot().BrideImages, 2)

	w = env.upload(t, "scene", pngHeader)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, env.manager.Get(testStudioID).Snapshot().SceneRef)

	assert.Equal(t, http.StatusBadRequest, env.upload(t, "cake", pngHeader).Code)
	assert.Equal(t, http.StatusBadRequest, env.upload(t, "groom", []byte("just some text")).Code)
	assert.Equal(t, http.StatusBadRequest, env.upload(t, "groom").Code)

	require.Equal(t, http.StatusOK, env.do(http.MethodDelete, "/studio/uploads/bride/0", nil).Code)
	assert.Len(t, env.manager.Get(testStudioID).Snapshot().BrideImages, 1)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodDelete, "/studio/uploads/bride/x", nil).Code)

	require.Equal(t, http.StatusOK, env.do(http.MethodDelete, "/studio/uploads/scene", nil).Code)
	assert.Nil(t, env.manager.Get(testStudioID).Snapshot().SceneRef)
}

func TestStudioHandler_GenerateRequiresLogin(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/studio/generate", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, env.images.generated)

	status := env.manager.Get(testStudioID).Snapshot().Status
	require.NotNil(t, status)
	assert.Equal(t, studio.StatusError, status.Kind)
}

func TestStudioHandler_Generate(t *testing.T) {
	env := newTestEnv(t)
	env.readyToGenerate(t)

	w := env.do(http.MethodPost, "/studio/generate", nil)
	require.Equal(t, http.StatusOK, w.Code)

	v := env.manager.Get(testStudioID).Snapshot()
	require.NotNil(t, v.Result)
	assert.Equal(t, []byte("photo-1"), v.Result.Data)
	assert.False(t, v.IsGenerating)
	assert.Equal(t, []string{"Warm it up"}, v.RetouchSuggestions)

	w = env.do(http.MethodPost, "/studio/retouch", RetouchRequest{Instruction: "+glow"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []byte("photo-1+glow"), env.manager.Get(testStudioID).Snapshot().Result.Data)

	w = env.do(http.MethodPost, "/studio/home", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, env.manager.Get(testStudioID).Snapshot().Result)
}

func TestStudioHandler_GenerateFailure(t *testing.T) {
	env := newTestEnv(t)
	env.readyToGenerate(t)
	env.images.generateErr = errors.New("model overloaded")

	w := env.do(http.MethodPost, "/studio/generate", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, decode(t, w)["error"], "model overloaded")
	assert.False(t, env.manager.Get(testStudioID).Snapshot().IsGenerating)
}

func TestStudioHandler_SuggestPose(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	w := env.do(http.MethodPost, "/studio/suggest-pose", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dancing under lanterns", env.manager.Get(testStudioID).Snapshot().CustomPose)
}

func TestStudioHandler_Batch(t *testing.T) {
	env := newTestEnv(t)
	env.readyToGenerate(t)

	w := env.do(http.MethodPost, "/studio/batch", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	body := decode(t, w)
	assert.NotEmpty(t, body["batch_id"])
	assert.EqualValues(t, studio.BatchSize, body["total"])

	run := env.manager.Get(testStudioID).ActiveRun()
	require.NotNil(t, run)
	<-run.Done()

	v := env.manager.Get(testStudioID).Snapshot()
	assert.Len(t, v.BatchResults, studio.BatchSize)
	assert.False(t, v.IsBatchGenerating)

	w = env.do(http.MethodPost, "/studio/batch/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["cancelled"])
}

func TestStudioHandler_SelectBatchResult(t *testing.T) {
	env := newTestEnv(t)
	env.readyToGenerate(t)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/studio/batch/select/0", nil).Code, "no batch yet")

	require.Equal(t, http.StatusAccepted, env.do(http.MethodPost, "/studio/batch", nil).Code)
	<-env.manager.Get(testStudioID).ActiveRun().Done()

	w := env.do(http.MethodPost, "/studio/batch/select/2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["show_edit_modal"])

	v := env.manager.Get(testStudioID).Snapshot()
	require.NotNil(t, v.Result)
	assert.Equal(t, v.BatchResults[2], *v.Result)
	assert.Equal(t, v.BatchResults[2], *v.Original)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/studio/batch/select/9", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/studio/batch/select/two", nil).Code)
}

func TestStudioHandler_OpenEditor(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/studio/editor", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["show_edit_modal"])

	env.readyToGenerate(t)
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/studio/generate", nil).Code)

	w = env.do(http.MethodPost, "/studio/editor", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["show_edit_modal"])
}

func TestStudioHandler_BatchValidation(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)

	w := env.do(http.MethodPost, "/studio/batch", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, env.manager.Get(testStudioID).ActiveRun())
}

func TestAlbumHandler(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/album", nil).Code)

	env.readyToGenerate(t)
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/studio/generate", nil).Code)

	w := env.do(http.MethodPost, "/album", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodGet, "/album", nil)
	require.Equal(t, http.StatusOK, w.Code)
	photos := env.manager.Get(testStudioID).Snapshot().Photos
	require.Len(t, photos, 1)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, "/album/missing", nil).Code)

	w = env.do(http.MethodDelete, "/album/"+photos[0].ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, env.manager.Get(testStudioID).Snapshot().Photos)
}

func TestCredentialHandler(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPut, "/credential", gin.H{}).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPut, "/credential", CredentialRequest{APIKey: "k"}).Code)

	env.manager.Dispatch(context.Background(), testStudioID, events.AuthEvent{
		Kind: events.LoggedIn,
		User: &events.AuthUser{ID: 3},
	})
	assert.True(t, env.manager.Get(testStudioID).Snapshot().NeedsCredential)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPut, "/credential", CredentialRequest{APIKey: "   "}).Code)

	w := env.do(http.MethodPut, "/credential", CredentialRequest{APIKey: "gemini-key"})
	require.Equal(t, http.StatusOK, w.Code)
	v := env.manager.Get(testStudioID).Snapshot()
	assert.Equal(t, "gemini-key", v.Credential)
	assert.False(t, v.NeedsCredential)
}

func TestStudioHandler_EventsSendsSnapshotFirst(t *testing.T) {
	env := newTestEnv(t)
	handler := NewStudioHandler(env.manager, env.hub)

	r := gin.New()
	r.GET("/events", func(c *gin.Context) {
		c.Set("studio_id", testStudioID)
		handler.Events(c)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	buf := make([]byte, 64)
	n, err := resp.Body.Read(buf)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(buf[:n]), "event: snapshot\n"), string(buf[:n]))
}
