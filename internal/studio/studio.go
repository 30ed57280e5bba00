package studio

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Conceptual-Machines/eternal-union/internal/album"
	"github.com/Conceptual-Machines/eternal-union/internal/imagecodec"
	"github.com/Conceptual-Machines/eternal-union/internal/imagegen"
	"github.com/Conceptual-Machines/eternal-union/internal/metrics"
)

// DefaultStatusDismissDelay is how long a success status stays visible.
const DefaultStatusDismissDelay = 3 * time.Second

// Deps are the collaborators shared by every studio.
type Deps struct {
	Images       imagegen.Client
	Album        album.Store
	Metrics      metrics.Recorder
	DismissDelay time.Duration
}

// Studio is one browser's workspace.
type Studio struct {
	id           string
	store        *Store
	images       imagegen.Client
	album        album.Store
	metrics      metrics.Recorder
	dismissDelay time.Duration
	statusSeq    atomic.Uint64

	mu    sync.Mutex
	batch *BatchRun
}

// New creates a studio in its default state. publish receives every snapshot.
func New(id string, deps Deps, publish func(ViewState)) *Studio {
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop{}
	}
	if deps.DismissDelay <= 0 {
		deps.DismissDelay = DefaultStatusDismissDelay
	}
	return &Studio{
		id:           id,
		store:        NewStore(DefaultViewState(), publish),
		images:       deps.Images,
		album:        deps.Album,
		metrics:      deps.Metrics,
		dismissDelay: deps.DismissDelay,
	}
}

func (s *Studio) ID() string {
	return s.id
}

// Snapshot returns the current view state.
func (s *Studio) Snapshot() ViewState {
	return s.store.Snapshot()
}

// Update merges a selection or adjustment patch.
func (s *Studio) Update(p Patch) ViewState {
	return s.store.Update(p)
}

// Hover sets the preview image shown on hover.
func (s *Studio) Hover(img *imagecodec.Image) ViewState {
	return s.store.Hover(img)
}

// DismissStatus clears the current status.
func (s *Studio) DismissStatus() ViewState {
	return s.store.Update(Patch{Status: Set[*Status](nil)})
}

// GoHome resets the result view and cancels a running batch. Calling it
// twice yields the same state as calling it once.
func (s *Studio) GoHome() ViewState {
	s.CancelBatch()
	return s.store.Update(homePatch())
}

func (s *Studio) newStatus(kind StatusKind, message string) *Status {
	return &Status{Seq: s.statusSeq.Add(1), Kind: kind, Message: message}
}

func (s *Studio) errorStatus(message string) Field[*Status] {
	return Set(s.newStatus(StatusError, message))
}

// succeed shows a success status and schedules its dismissal. A newer status
// is never cleared by an older timer.
func (s *Studio) succeed(message string) {
	status := s.newStatus(StatusSuccess, message)
	s.store.Update(Patch{Status: Set(status)})

	time.AfterFunc(s.dismissDelay, func() {
		s.store.UpdateIf(func(v ViewState) bool {
			return v.Status != nil && v.Status.Seq == status.Seq
		}, Patch{Status: Set[*Status](nil)})
	})
}

// reject surfaces a validation failure as a sticky status. A signed-in
// user without a key is also asked for one.
func (s *Studio) reject(err error) error {
	p := Patch{Status: s.errorStatus(err.Error())}
	if err == errNeedCredential {
		p.NeedsCredential = Set(true)
	}
	s.store.Update(p)
	return err
}

// checkCredential enforces the credential gate.
func checkCredential(v ViewState) error {
	if v.Credential != "" {
		return nil
	}
	if v.User == nil {
		return errLoginRequired
	}
	return errNeedCredential
}

func checkGenerate(v ViewState) error {
	if err := checkCredential(v); err != nil {
		return err
	}
	if len(v.BrideImages) == 0 || len(v.GroomImages) == 0 {
		return errNoSubjects
	}
	if v.Busy() {
		return errBusy
	}
	return nil
}

// requestFrom builds the generation request for pose from a snapshot.
func requestFrom(v ViewState, pose string) imagegen.Request {
	return imagegen.Request{
		Bride:          v.BrideImages,
		Groom:          v.GroomImages,
		Scene:          v.Scene,
		Pose:           pose,
		Filter:         v.Filter,
		Outfit:         v.Outfit,
		Lighting:       v.Lighting,
		HighQuality:    v.HighQuality,
		SceneRef:       v.SceneRef,
		PoseRef:        v.PoseRef,
		BrideOutfitRef: v.BrideOutfitRef,
		GroomOutfitRef: v.GroomOutfitRef,
		Credential:     v.Credential,
	}
}
