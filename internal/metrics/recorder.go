package metrics

import (
	"context"
	"time"
)

// Operation names used as metric dimensions.
const (
	OpGenerate = "generate"
	OpBatch    = "batch_step"
	OpRetouch  = "retouch"
)

// Batch outcomes.
const (
	BatchCompleted = "completed"
	BatchCancelled = "cancelled"
	BatchFailed    = "failed"
)

// Recorder receives studio outcome metrics.
type Recorder interface {
	RecordGeneration(ctx context.Context, op string, duration time.Duration, success bool)
	RecordBatch(ctx context.Context, outcome string, completed int)
}

// APIRecorder receives one sample per finished HTTP request.
type APIRecorder interface {
	RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordGeneration(context.Context, string, time.Duration, bool) {}
func (Nop) RecordBatch(context.Context, string, int)                      {}
func (Nop) RecordAPIRequest(context.Context, string, int, time.Duration)  {}

// Multi fans each call out to every recorder.
type Multi []Recorder

func (m Multi) RecordGeneration(ctx context.Context, op string, duration time.Duration, success bool) {
	for _, r := range m {
		r.RecordGeneration(ctx, op, duration, success)
	}
}

func (m Multi) RecordBatch(ctx context.Context, outcome string, completed int) {
	for _, r := range m {
		r.RecordBatch(ctx, outcome, completed)
	}
}

// MultiAPI fans each request sample out to every recorder.
type MultiAPI []APIRecorder

func (m MultiAPI) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	for _, r := range m {
		r.RecordAPIRequest(ctx, endpoint, statusCode, duration)
	}
}
