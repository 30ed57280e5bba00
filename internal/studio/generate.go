package studio

import (
	"context"
	"time"

	"github.com/Conceptual-Machines/eternal-union/internal/imagecodec"
	"github.com/Conceptual-Machines/eternal-union/internal/imagegen"
	"github.com/Conceptual-Machines/eternal-union/internal/logger"
	"github.com/Conceptual-Machines/eternal-union/internal/metrics"
)

// Generate composes one photo from the current selections. On success the
// photo becomes both the result and the comparison original, then retouch
// suggestions are refreshed on a best-effort basis.
func (s *Studio) Generate(ctx context.Context) error {
	var req imagegen.Request
	_, err := s.store.Apply(func(v ViewState) (Patch, error) {
		if err := checkGenerate(v); err != nil {
			return Patch{}, err
		}
		req = requestFrom(v, v.SelectedPose())
		return Patch{
			IsGenerating: Set(true),
			BatchResults: Set[[]imagecodec.Image](nil),
			Status:       Set[*Status](nil),
		}, nil
	})
	if err != nil {
		return s.reject(err)
	}

	start := time.Now()
	img, err := s.images.Generate(ctx, req)
	s.metrics.RecordGeneration(ctx, metrics.OpGenerate, time.Since(start), err == nil)
	if err != nil {
		genErr := &GenerationError{Op: "generation", Err: err}
		logger.Warn("Generation failed", logger.Fields{"studio_id": s.id, "error": err.Error()})
		s.store.Update(Patch{
			IsGenerating: Set(false),
			Status:       s.errorStatus(genErr.Error()),
		})
		return genErr
	}

	s.store.Update(Patch{
		Result:   Set(&img),
		Original: Set(&img),
	})
	s.refreshSuggestions(ctx, req.Scene, req.Credential)
	s.store.Update(Patch{IsGenerating: Set(false)})
	return nil
}

// refreshSuggestions replaces the retouch suggestions. Failures keep the
// previous list.
func (s *Studio) refreshSuggestions(ctx context.Context, scene, credential string) {
	suggestions, err := s.images.SuggestRetouch(ctx, scene, credential)
	if err != nil {
		logger.Warn("Retouch suggestions unavailable", logger.Fields{"studio_id": s.id, "error": err.Error()})
		return
	}
	s.store.Update(Patch{RetouchSuggestions: Set(suggestions)})
}

// SuggestPose asks the image service for a pose matching the selected scene
// and writes it into the custom pose text. Failures are logged only.
func (s *Studio) SuggestPose(ctx context.Context) error {
	v := s.store.Snapshot()
	if err := checkCredential(v); err != nil {
		return s.reject(err)
	}

	pose, err := s.images.SuggestPose(ctx, v.Scene, v.Credential)
	if err != nil {
		logger.Warn("Pose suggestion unavailable", logger.Fields{"studio_id": s.id, "error": err.Error()})
		return nil
	}
	s.store.Update(Patch{CustomPose: Set(pose)})
	return nil
}
