// Package imagegen wraps the generative image service used to compose and
// retouch wedding photos.
package imagegen

import (
	"context"
	"errors"

	"github.com/Conceptual-Machines/eternal-union/internal/imagecodec"
)

var (
	// ErrNoImage is returned when the model answers without an image part.
	ErrNoImage = errors.New("image engine returned no image")
	// ErrMissingCredential is returned when a call is attempted without an API key.
	ErrMissingCredential = errors.New("generation credential is required")
)

// Client is the capability the studio depends on. Implementations must be
// safe for sequential use from a single goroutine per studio.
type Client interface {
	// Generate composes one wedding photo from the subject and reference images.
	Generate(ctx context.Context, req Request) (imagecodec.Image, error)
	// Edit applies a free-text retouch instruction and returns a new image.
	Edit(ctx context.Context, img imagecodec.Image, instruction, credential string) (imagecodec.Image, error)
	// SuggestPose proposes a single pose description for the scene.
	SuggestPose(ctx context.Context, scene, credential string) (string, error)
	// SuggestRetouch proposes up to MaxRetouchSuggestions short retouch commands.
	SuggestRetouch(ctx context.Context, scene, credential string) ([]string, error)
}

// Request is the full parameter set of one synthesis call.
type Request struct {
	Bride       []imagecodec.Image
	Groom       []imagecodec.Image
	Scene       string
	Pose        string
	Filter      string
	Outfit      string
	Lighting    int
	HighQuality bool

	SceneRef       *imagecodec.Image
	PoseRef        *imagecodec.Image
	BrideOutfitRef *imagecodec.Image
	GroomOutfitRef *imagecodec.Image

	// PriorResult anchors later batch steps to the first generated photo.
	PriorResult *imagecodec.Image

	Credential string
}

// Suggester produces text suggestions. It lets the suggestion calls be served
// by a different provider than image generation.
type Suggester interface {
	SuggestPose(ctx context.Context, scene, credential string) (string, error)
	SuggestRetouch(ctx context.Context, scene, credential string) ([]string, error)
}

// WithSuggester returns a Client that generates and edits through base but
// routes suggestions to s.
func WithSuggester(base Client, s Suggester) Client {
	if s == nil {
		return base
	}
	return &splitClient{Client: base, suggester: s}
}

type splitClient struct {
	Client
	suggester Suggester
}

func (c *splitClient) SuggestPose(ctx context.Context, scene, credential string) (string, error) {
	return c.suggester.SuggestPose(ctx, scene, credential)
}

func (c *splitClient) SuggestRetouch(ctx context.Context, scene, credential string) ([]string, error) {
	return c.suggester.SuggestRetouch(ctx, scene, credential)
}
