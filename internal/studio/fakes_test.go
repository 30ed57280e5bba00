package studio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Conceptual-Machines/eternal-union/internal/album"
	"github.com/Conceptual-Machines/eternal-union/internal/events"
	"github.com/Conceptual-Machines/eternal-union/internal/imagecodec"
	"github.com/Conceptual-Machines/eternal-union/internal/imagegen"
	"github.com/Conceptual-Machines/eternal-union/internal/models"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend unavailable")

// fakeImages records every call. Hooks override the default answers.
type fakeImages struct {
	mu            sync.Mutex
	generateCalls []imagegen.Request
	editCalls     []string
	poseCalls     int
	retouchCalls  int
	onGenerate    func(call int, req imagegen.Request) (imagecodec.Image, error)
	editErr       error
	poseErr       error
	suggestErr    error
	suggestions   []string
	suggestedPose string
}

func (f *fakeImages) Generate(_ context.Context, req imagegen.Request) (imagecodec.Image, error) {
	f.mu.Lock()
	call := len(f.generateCalls)
	f.generateCalls = append(f.generateCalls, req)
	hook := f.onGenerate
	f.mu.Unlock()

	if hook != nil {
		return hook(call, req)
	}
	return testImage(fmt.Sprintf("generated-%d", call)), nil
}

func (f *fakeImages) Edit(_ context.Context, img imagecodec.Image, instruction, _ string) (imagecodec.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.editCalls = append(f.editCalls, instruction)
	if f.editErr != nil {
		return imagecodec.Image{}, f.editErr
	}
	return testImage(string(img.Data) + "+" + instruction), nil
}

func (f *fakeImages) SuggestPose(context.Context, string, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.poseCalls++
	if f.poseErr != nil {
		return "", f.poseErr
	}
	return f.suggestedPose, nil
}

func (f *fakeImages) SuggestRetouch(context.Context, string, string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retouchCalls++
	if f.suggestErr != nil {
		return nil, f.suggestErr
	}
	return f.suggestions, nil
}

func (f *fakeImages) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.generateCalls) + len(f.editCalls) + f.poseCalls + f.retouchCalls
}

func (f *fakeImages) generated() []imagegen.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]imagegen.Request(nil), f.generateCalls...)
}

// faultyAlbum wraps a MemoryStore and fails selected operations.
type faultyAlbum struct {
	*album.MemoryStore
	listErr       error
	credentialErr error
	saveErr       error
}

func (a *faultyAlbum) ListRecords(ctx context.Context, userID uint) ([]models.SavedPhoto, error) {
	if a.listErr != nil {
		return nil, a.listErr
	}
	return a.MemoryStore.ListRecords(ctx, userID)
}

func (a *faultyAlbum) GetCredential(ctx context.Context, userID uint) (string, bool, error) {
	if a.credentialErr != nil {
		return "", false, a.credentialErr
	}
	return a.MemoryStore.GetCredential(ctx, userID)
}

func (a *faultyAlbum) SaveRecord(ctx context.Context, userID uint, img imagecodec.Image, label string) (models.SavedPhoto, error) {
	if a.saveErr != nil {
		return models.SavedPhoto{}, a.saveErr
	}
	return a.MemoryStore.SaveRecord(ctx, userID, img, label)
}

type recordedBatch struct {
	outcome   string
	completed int
}

type fakeRecorder struct {
	mu      sync.Mutex
	batches []recordedBatch
}

func (r *fakeRecorder) RecordGeneration(context.Context, string, time.Duration, bool) {}

func (r *fakeRecorder) RecordBatch(_ context.Context, outcome string, completed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, recordedBatch{outcome, completed})
}

func (r *fakeRecorder) last() recordedBatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.batches) == 0 {
		return recordedBatch{}
	}
	return r.batches[len(r.batches)-1]
}

func testImage(tag string) imagecodec.Image {
	return imagecodec.New("image/png", []byte(tag))
}

type fixture struct {
	studio  *Studio
	images  *fakeImages
	album   *faultyAlbum
	metrics *fakeRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		images:  &fakeImages{suggestions: []string{"Brighten", "Add glow"}},
		album:   &faultyAlbum{MemoryStore: album.NewMemoryStore()},
		metrics: &fakeRecorder{},
	}
	f.studio = New("studio-1", Deps{
		Images:       f.images,
		Album:        f.album,
		Metrics:      f.metrics,
		DismissDelay: 20 * time.Millisecond,
	}, nil)
	return f
}

// signIn logs user 1 in with a stored credential.
func (f *fixture) signIn(t *testing.T) {
	t.Helper()
	require.NoError(t, f.album.SetCredential(context.Background(), 1, "user-key"))
	f.studio.HandleAuthEvent(context.Background(), events.AuthEvent{
		Kind: events.LoggedIn,
		User: &events.AuthUser{ID: 1, Name: "Jin", Email: "jin@example.com"},
	})
	require.Equal(t, "user-key", f.studio.Snapshot().Credential)
}

func (f *fixture) uploadSubjects(t *testing.T) {
	t.Helper()
	_, err := f.studio.Upload(SlotBride, testImage("bride"))
	require.NoError(t, err)
	_, err = f.studio.Upload(SlotGroom, testImage("groom"))
	require.NoError(t, err)
}

func (f *fixture) ready(t *testing.T) {
	t.Helper()
	f.signIn(t)
	f.uploadSubjects(t)
}

func waitRun(t *testing.T, run *BatchRun) {
	t.Helper()
	select {
	case <-run.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("batch run did not finish")
	}
}
