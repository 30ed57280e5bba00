package studio

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Conceptual-Machines/eternal-union/internal/album"
	"github.com/Conceptual-Machines/eternal-union/internal/events"
	"github.com/Conceptual-Machines/eternal-union/internal/imagecodec"
	"github.com/Conceptual-Machines/eternal-union/internal/imagegen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() (*Manager, *events.Hub) {
	hub := events.NewHub()
	return NewManager(Deps{Images: &fakeImages{}, Album: album.NewMemoryStore()}, hub), hub
}

func nextEvent(t *testing.T, ch <-chan events.Event) events.Event {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return events.Event{}
	}
}

func TestManager_GetReusesStudio(t *testing.T) {
	m, _ := newTestManager()

	a := m.Get("a")
	assert.Same(t, a, m.Get("a"))
	assert.NotSame(t, a, m.Get("b"))
	assert.Equal(t, "a", a.ID())
	assert.Equal(t, 2, m.Len())
}

func TestManager_PublishesSnapshots(t *testing.T) {
	m, hub := newTestManager()
	st := m.Get("a")

	ch, unsubscribe := hub.Subscribe(Topic("a"))
	defer unsubscribe()

	st.Update(Patch{Brightness: Set(130)})

	evt := nextEvent(t, ch)
	assert.Equal(t, events.TypeSnapshot, evt.Type)

	var body map[string]any
	require.NoError(t, json.Unmarshal(evt.Data, &body))
	assert.EqualValues(t, 130, body["brightness"])
	assert.Equal(t, false, body["has_credential"])
	assert.NotContains(t, body, "Credential")
}

func TestManager_SlowListenerSeesFinalSnapshot(t *testing.T) {
	m, hub := newTestManager()
	st := m.Get("a")

	ch, unsubscribe := hub.Subscribe(Topic("a"))
	defer unsubscribe()

	for i := 1; i <= 20; i++ {
		st.Update(Patch{BatchProgress: Set(i)})
	}

	var last events.Event
	for len(ch) > 0 {
		last = <-ch
	}
	var body map[string]any
	require.NoError(t, json.Unmarshal(last.Data, &body))
	assert.EqualValues(t, 20, body["batch_progress"])
}

func TestManager_Dispatch(t *testing.T) {
	m, hub := newTestManager()
	ch, unsubscribe := hub.Subscribe(Topic("a"))
	defer unsubscribe()

	m.Dispatch(context.Background(), "a", loginEvent(5))

	var auth *events.Event
	for auth == nil {
		evt := nextEvent(t, ch)
		if evt.Type == events.TypeAuth {
			auth = &evt
		}
	}
	var payload events.AuthEvent
	require.NoError(t, json.Unmarshal(auth.Data, &payload))
	assert.Equal(t, events.LoggedIn, payload.Kind)
	require.NotNil(t, payload.User)
	assert.Equal(t, uint(5), payload.User.ID)

	v := m.Get("a").Snapshot()
	require.NotNil(t, v.User)
	assert.Equal(t, uint(5), v.User.ID)
}

func TestManager_Stats(t *testing.T) {
	m, _ := newTestManager()
	m.Get("a").Update(Patch{User: Set(&UserSession{ID: 1}), IsGenerating: Set(true)})
	m.Get("b")

	assert.Equal(t, Stats{Live: 2, SignedIn: 1, Generating: 1}, m.Stats())
}

func TestManager_EvictIdle(t *testing.T) {
	m, hub := newTestManager()
	clock := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	stale := m.Get("stale")
	m.Get("watched")
	m.Get("busy").Update(Patch{IsGenerating: Set(true)})
	_, unsubscribe := hub.Subscribe(Topic("watched"))
	defer unsubscribe()

	clock = clock.Add(30 * time.Minute)
	m.Get("fresh")

	assert.Equal(t, 0, m.EvictIdle(time.Hour), "nothing idle yet")

	clock = clock.Add(45 * time.Minute)
	assert.Equal(t, 1, m.EvictIdle(time.Hour))
	assert.Equal(t, 3, m.Len())

	// a returning browser gets a fresh studio
	assert.NotSame(t, stale, m.Get("stale"))
}

func TestManager_EvictIdleCancelsBatch(t *testing.T) {
	images := &fakeImages{}
	block := make(chan struct{})
	images.onGenerate = func(int, imagegen.Request) (imagecodec.Image, error) {
		<-block
		return testImage("batch"), nil
	}
	m := NewManager(Deps{Images: images, Album: album.NewMemoryStore()}, nil)
	clock := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	st := m.Get("a")
	st.Update(Patch{
		Credential:  Set("key"),
		BrideImages: Set([]imagecodec.Image{testImage("bride")}),
		GroomImages: Set([]imagecodec.Image{testImage("groom")}),
	})
	run, err := st.StartBatch(context.Background())
	require.NoError(t, err)

	clock = clock.Add(2 * time.Hour)
	assert.Equal(t, 1, m.EvictIdle(time.Hour))
	assert.True(t, run.Cancelled())

	close(block)
	waitRun(t, run)
	assert.Zero(t, m.Len())
}

func TestManager_Sweeper(t *testing.T) {
	m, _ := newTestManager()
	m.Get("a")

	m.StartSweeper(0, 5*time.Millisecond)
	defer m.Stop()

	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
	m.Stop()
}
