package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateImageCost(t *testing.T) {
	tests := []struct {
		name        string
		model       string
		highQuality bool
		want        float64
	}{
		{"pro 2K", "gemini-3-pro-image-preview", true, proImage2KPrice},
		{"pro 1K", "gemini-3-pro-image-preview", false, proImage1KPrice},
		{"flash snapshot", "gemini-2.5-flash-image-001", true, flashImagePrice},
		{"unknown", "some-other-model", true, unknownImagePrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CalculateImageCost(tt.model, tt.highQuality), 1e-9)
		})
	}
}

func TestDisabledLangfuseIsNoop(t *testing.T) {
	var client *LangfuseClient
	assert.False(t, client.IsEnabled())

	trace := client.StartTrace(context.Background(), "studio.generate", nil)
	gen := trace.Generation("generate", "model", map[string]any{"k": "v"})
	gen.Input("in")
	gen.Output("out")
	gen.Fail(errors.New("boom"))
	gen.Finish()
	trace.Finish()
}
