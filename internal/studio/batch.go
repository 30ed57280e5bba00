package studio

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Conceptual-Machines/eternal-union/internal/imagecodec"
	"github.com/Conceptual-Machines/eternal-union/internal/imagegen"
	"github.com/Conceptual-Machines/eternal-union/internal/logger"
	"github.com/Conceptual-Machines/eternal-union/internal/metrics"
	"github.com/google/uuid"
)

// BatchRun is one signature batch. Results only grow, and once the run is
// cancelled nothing more is appended or dispatched.
type BatchRun struct {
	ID    string
	poses []string

	cancelled atomic.Bool
	done      chan struct{}

	mu      sync.Mutex
	results []imagecodec.Image
	err     error
}

func newBatchRun(poses []string) *BatchRun {
	return &BatchRun{
		ID:    uuid.NewString(),
		poses: poses,
		done:  make(chan struct{}),
	}
}

// Cancel stops the run at the next step boundary. The result of a step
// already in flight is discarded.
func (r *BatchRun) Cancel() {
	r.cancelled.Store(true)
}

func (r *BatchRun) Cancelled() bool {
	return r.cancelled.Load()
}

// Done is closed when the run's goroutine exits.
func (r *BatchRun) Done() <-chan struct{} {
	return r.done
}

// Results returns a copy of the results produced so far.
func (r *BatchRun) Results() []imagecodec.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]imagecodec.Image(nil), r.results...)
}

// Completed is the number of results produced so far.
func (r *BatchRun) Completed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

// Err is the failure that stopped the run, if any.
func (r *BatchRun) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *BatchRun) appendResult(img imagecodec.Image) []imagecodec.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, img)
	return append([]imagecodec.Image(nil), r.results...)
}

func (r *BatchRun) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// owns reports whether v still belongs to this run and the run is live.
func (r *BatchRun) owns(v ViewState) bool {
	return v.ActiveBatch == r.ID && !r.Cancelled()
}

// StartBatch validates the studio and launches a batch in the background.
// Validation failures are returned synchronously and nothing is dispatched.
func (s *Studio) StartBatch(ctx context.Context) (*BatchRun, error) {
	run := newBatchRun(BatchPoses[:])

	var base imagegen.Request
	_, err := s.store.Apply(func(v ViewState) (Patch, error) {
		if err := checkGenerate(v); err != nil {
			return Patch{}, err
		}
		base = requestFrom(v, "")

		// published before the lock is released, so a cancel always sees it
		s.mu.Lock()
		s.batch = run
		s.mu.Unlock()

		return Patch{
			IsBatchGenerating: Set(true),
			BatchProgress:     Set(0),
			BatchResults:      Set[[]imagecodec.Image](nil),
			Result:            Set[*imagecodec.Image](nil),
			ActiveBatch:       Set(run.ID),
			Status:            Set[*Status](nil),
		}, nil
	})
	if err != nil {
		return nil, s.reject(err)
	}

	go s.runBatch(context.WithoutCancel(ctx), run, base)
	return run, nil
}

// ActiveRun returns the most recent batch run, if any.
func (s *Studio) ActiveRun() *BatchRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batch
}

// CancelBatch cancels the running batch. It reports whether there was one.
func (s *Studio) CancelBatch() bool {
	run := s.ActiveRun()
	if run == nil || run.Cancelled() {
		return false
	}
	run.Cancel()

	s.store.UpdateIf(func(v ViewState) bool {
		return v.ActiveBatch == run.ID
	}, Patch{
		IsBatchGenerating: Set(false),
		ActiveBatch:       Set(""),
	})
	logger.Info("Batch cancelled", logger.Fields{"studio_id": s.id, "batch_id": run.ID, "completed": run.Completed()})
	return true
}

// runBatch generates the batch poses strictly in order. Step 0 becomes the
// anchor passed to every later step. Every merge is guarded by run.owns so a
// cancelled or replaced run cannot overwrite newer state.
func (s *Studio) runBatch(ctx context.Context, run *BatchRun, base imagegen.Request) {
	defer close(run.done)

	var anchor *imagecodec.Image
	for i, pose := range run.poses {
		if run.Cancelled() {
			break
		}
		if _, ok := s.store.UpdateIf(run.owns, Patch{BatchProgress: Set(i + 1)}); !ok {
			break
		}

		req := base
		req.Pose = pose
		req.PriorResult = anchor

		start := time.Now()
		img, err := s.images.Generate(ctx, req)
		s.metrics.RecordGeneration(ctx, metrics.OpBatch, time.Since(start), err == nil)
		if err != nil {
			s.failBatch(ctx, run, err)
			return
		}

		// Append only while the run still owns the state, so a cancel that
		// lands during the call discards this step's image.
		_, err = s.store.Apply(func(v ViewState) (Patch, error) {
			if !run.owns(v) {
				return Patch{}, errSkip
			}
			return Patch{BatchResults: Set(run.appendResult(img))}, nil
		})
		if err != nil {
			break
		}
		if i == 0 {
			first := img
			anchor = &first
		}
	}

	completed := run.Completed()
	if completed < len(run.poses) {
		s.metrics.RecordBatch(ctx, metrics.BatchCancelled, completed)
		return
	}

	first := run.Results()[0]
	if _, ok := s.store.UpdateIf(run.owns, Patch{
		Result:            Set(&first),
		Original:          Set(&first),
		IsBatchGenerating: Set(false),
		ActiveBatch:       Set(""),
	}); !ok {
		s.metrics.RecordBatch(ctx, metrics.BatchCancelled, completed)
		return
	}
	s.metrics.RecordBatch(ctx, metrics.BatchCompleted, completed)
	logger.Info("Batch completed", logger.Fields{"studio_id": s.id, "batch_id": run.ID})
}

func (s *Studio) failBatch(ctx context.Context, run *BatchRun, err error) {
	genErr := &GenerationError{Op: "batch generation", Err: err}
	run.fail(genErr)
	s.metrics.RecordBatch(ctx, metrics.BatchFailed, run.Completed())
	logger.Warn("Batch step failed", logger.Fields{
		"studio_id": s.id,
		"batch_id":  run.ID,
		"completed": run.Completed(),
		"error":     err.Error(),
	})

	s.store.UpdateIf(run.owns, Patch{
		IsBatchGenerating: Set(false),
		ActiveBatch:       Set(""),
		Status:            s.errorStatus(genErr.Error()),
	})
}
