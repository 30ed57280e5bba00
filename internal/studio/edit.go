package studio

import (
	"context"
	"strings"
	"time"

	"github.com/Conceptual-Machines/eternal-union/internal/imagecodec"
	"github.com/Conceptual-Machines/eternal-union/internal/logger"
	"github.com/Conceptual-Machines/eternal-union/internal/metrics"
)

const retouchFailedMessage = "retouch failed"

// Retouch applies instruction to the current result and replaces it. The
// comparison original is left alone so it keeps pointing at the generated
// photo across retouch rounds. Without a result this is a no-op.
func (s *Studio) Retouch(ctx context.Context, instruction string) error {
	instruction = strings.TrimSpace(instruction)

	var (
		source     imagecodec.Image
		credential string
	)
	_, err := s.store.Apply(func(v ViewState) (Patch, error) {
		if v.Result == nil {
			return Patch{}, errSkip
		}
		if instruction == "" {
			return Patch{}, errEmptyRetouch
		}
		if err := checkCredential(v); err != nil {
			return Patch{}, err
		}
		if v.IsBatchGenerating {
			return Patch{}, errBatchRunning
		}
		if v.IsGenerating {
			return Patch{}, errBusy
		}
		source, credential = *v.Result, v.Credential
		return Patch{IsGenerating: Set(true), Status: Set[*Status](nil)}, nil
	})
	if err == errSkip {
		return nil
	}
	if err != nil {
		return s.reject(err)
	}

	start := time.Now()
	edited, err := s.images.Edit(ctx, source, instruction, credential)
	s.metrics.RecordGeneration(ctx, metrics.OpRetouch, time.Since(start), err == nil)
	if err != nil {
		logger.Warn("Retouch failed", logger.Fields{"studio_id": s.id, "instruction": instruction, "error": err.Error()})
		s.store.Update(Patch{
			IsGenerating: Set(false),
			Status:       s.errorStatus(retouchFailedMessage),
		})
		return &GenerationError{Op: "retouch", Err: err}
	}

	s.store.Update(Patch{
		Result:       Set(&edited),
		IsGenerating: Set(false),
	})
	return nil
}

// RetouchCustom applies the free-text instruction held in the state.
func (s *Studio) RetouchCustom(ctx context.Context) error {
	return s.Retouch(ctx, s.store.Snapshot().CustomRetouch)
}

// OpenEditor opens the retouch editor on the current result and makes it the
// comparison baseline. Without a result this is a no-op.
func (s *Studio) OpenEditor() ViewState {
	v, _ := s.store.Apply(func(v ViewState) (Patch, error) {
		if v.Result == nil {
			return Patch{}, errSkip
		}
		return Patch{Original: Set(v.Result), ShowEditModal: Set(true)}, nil
	})
	return v
}

// SelectBatchResult makes batch result index the current photo and opens the
// editor on it.
func (s *Studio) SelectBatchResult(index int) (ViewState, error) {
	v, err := s.store.Apply(func(v ViewState) (Patch, error) {
		if v.IsBatchGenerating {
			return Patch{}, errBatchRunning
		}
		if index < 0 || index >= len(v.BatchResults) {
			return Patch{}, errNoBatchResult
		}
		img := v.BatchResults[index]
		return Patch{
			Result:        Set(&img),
			Original:      Set(&img),
			ShowEditModal: Set(true),
		}, nil
	})
	if err != nil {
		return v, s.reject(err)
	}
	return v, nil
}
