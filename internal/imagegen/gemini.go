package imagegen

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Conceptual-Machines/eternal-union/internal/imagecodec"
	"github.com/Conceptual-Machines/eternal-union/internal/logger"
	"github.com/Conceptual-Machines/eternal-union/internal/observability"
	"github.com/getsentry/sentry-go"
	"google.golang.org/genai"
)

const (
	aspectRatioPortrait = "3:4"
	imageSizeHigh       = "2K"
	imageSizeStandard   = "1K"
)

// ContentGenerator is the slice of the genai SDK the adapter needs;
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeneratorFactory builds a generator bound to one user's API key.
type GeneratorFactory func(ctx context.Context, apiKey string) (ContentGenerator, error)

// NewGenaiFactory returns a factory backed by the Gemini API.
func NewGenaiFactory() GeneratorFactory {
	return func(ctx context.Context, apiKey string) (ContentGenerator, error) {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return client.Models, nil
	}
}

// GeminiClient implements Client on top of Gemini image and text models.
type GeminiClient struct {
	factory    GeneratorFactory
	imageModel string
	textModel  string
	tracer     *observability.LangfuseClient
}

// NewGeminiClient creates the adapter. tracer may be nil.
func NewGeminiClient(factory GeneratorFactory, imageModel, textModel string, tracer *observability.LangfuseClient) *GeminiClient {
	return &GeminiClient{
		factory:    factory,
		imageModel: imageModel,
		textModel:  textModel,
		tracer:     tracer,
	}
}

// Generate implements Client.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (imagecodec.Image, error) {
	parts := buildGenerateParts(req)
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig: &genai.ImageConfig{
			AspectRatio: aspectRatioPortrait,
			ImageSize:   imageSizeFor(req.HighQuality),
		},
	}

	metadata := map[string]any{
		"bride_images":  len(req.Bride),
		"groom_images":  len(req.Groom),
		"anchored":      req.PriorResult != nil,
		"high_quality":  req.HighQuality,
		"estimated_usd": observability.CalculateImageCost(c.imageModel, req.HighQuality),
	}
	return c.generateImage(ctx, "gemini.generate_image", req.Credential, parts, config, metadata)
}

// Edit implements Client.
func (c *GeminiClient) Edit(ctx context.Context, img imagecodec.Image, instruction, credential string) (imagecodec.Image, error) {
	parts := []*genai.Part{
		imagePart(img),
		genai.NewPartFromText(buildEditPrompt(instruction)),
	}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
	metadata := map[string]any{"instruction": instruction}
	return c.generateImage(ctx, "gemini.edit_image", credential, parts, config, metadata)
}

// SuggestPose implements Client.
func (c *GeminiClient) SuggestPose(ctx context.Context, scene, credential string) (string, error) {
	text, err := c.generateText(ctx, "gemini.suggest_pose", credential, buildPoseSuggestionPrompt(scene))
	if err != nil {
		return "", err
	}
	return parsePoseSuggestion(text), nil
}

// SuggestRetouch implements Client.
func (c *GeminiClient) SuggestRetouch(ctx context.Context, scene, credential string) ([]string, error) {
	text, err := c.generateText(ctx, "gemini.suggest_retouch", credential, buildRetouchSuggestionPrompt(scene))
	if err != nil {
		return nil, err
	}
	return parseRetouchSuggestions(text), nil
}

func (c *GeminiClient) generateImage(
	ctx context.Context,
	op, credential string,
	parts []*genai.Part,
	config *genai.GenerateContentConfig,
	metadata map[string]any,
) (imagecodec.Image, error) {
	if credential == "" {
		return imagecodec.Image{}, ErrMissingCredential
	}

	transaction := sentry.StartTransaction(ctx, op)
	defer transaction.Finish()
	transaction.SetTag("model", c.imageModel)
	transaction.SetTag("provider", "gemini")

	trace := c.tracer.StartTrace(ctx, op, metadata)
	defer trace.Finish()
	gen := trace.Generation(op, c.imageModel, metadata)
	gen.Input(map[string]any{"parts": len(parts)})
	defer gen.Finish()

	generator, err := c.factory(ctx, credential)
	if err != nil {
		transaction.SetTag("success", "false")
		gen.Fail(err)
		return imagecodec.Image{}, err
	}

	span := transaction.StartChild("gemini.api_call")
	start := time.Now()
	resp, err := generator.GenerateContent(ctx, c.imageModel, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, config)
	span.Finish()
	if err != nil {
		log.Printf("❌ %s failed after %v: %v", op, time.Since(start), err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		gen.Fail(err)
		return imagecodec.Image{}, fmt.Errorf("gemini request failed: %w", err)
	}

	img, err := extractImage(resp)
	if err != nil {
		transaction.SetTag("success", "false")
		gen.Fail(err)
		return imagecodec.Image{}, err
	}

	logger.LogImageCall(ctx, op, c.imageModel, time.Since(start), len(img.Data), logger.Fields{"mime_type": img.MIMEType})
	transaction.SetTag("success", "true")
	gen.Output(map[string]any{"mime_type": img.MIMEType, "bytes": len(img.Data)})
	return img, nil
}

func (c *GeminiClient) generateText(ctx context.Context, op, credential, prompt string) (string, error) {
	if credential == "" {
		return "", ErrMissingCredential
	}

	transaction := sentry.StartTransaction(ctx, op)
	defer transaction.Finish()
	transaction.SetTag("model", c.textModel)

	trace := c.tracer.StartTrace(ctx, op, nil)
	defer trace.Finish()
	gen := trace.Generation(op, c.textModel, nil)
	gen.Input(prompt)
	defer gen.Finish()

	generator, err := c.factory(ctx, credential)
	if err != nil {
		gen.Fail(err)
		return "", err
	}

	resp, err := generator.GenerateContent(ctx, c.textModel, genai.Text(prompt), nil)
	if err != nil {
		transaction.SetTag("success", "false")
		gen.Fail(err)
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	text := resp.Text()
	gen.Output(text)
	transaction.SetTag("success", "true")
	return text, nil
}

// buildGenerateParts orders parts as identities, style references, the
// optional series anchor, then the prompt text.
func buildGenerateParts(req Request) []*genai.Part {
	parts := make([]*genai.Part, 0, len(req.Bride)+len(req.Groom)+6)
	for _, img := range req.Bride {
		parts = append(parts, imagePart(img))
	}
	for _, img := range req.Groom {
		parts = append(parts, imagePart(img))
	}
	for _, ref := range []*imagecodec.Image{req.SceneRef, req.PoseRef, req.BrideOutfitRef, req.GroomOutfitRef, req.PriorResult} {
		if ref != nil {
			parts = append(parts, imagePart(*ref))
		}
	}
	return append(parts, genai.NewPartFromText(buildGeneratePrompt(req)))
}

func imagePart(img imagecodec.Image) *genai.Part {
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = imagecodec.DefaultMIMEType
	}
	return genai.NewPartFromBytes(img.Data, mimeType)
}

func imageSizeFor(highQuality bool) string {
	if highQuality {
		return imageSizeHigh
	}
	return imageSizeStandard
}

// extractImage returns the first inline image of the first candidate.
func extractImage(resp *genai.GenerateContentResponse) (imagecodec.Image, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return imagecodec.Image{}, ErrNoImage
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return imagecodec.Image{}, ErrNoImage
	}
	for _, part := range candidate.Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return imagecodec.New(part.InlineData.MIMEType, part.InlineData.Data), nil
		}
	}
	return imagecodec.Image{}, ErrNoImage
}
