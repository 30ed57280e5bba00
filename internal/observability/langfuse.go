package observability

import (
	"context"
	"log"
	"time"

	"github.com/Conceptual-Machines/eternal-union/internal/config"
	langfuse "github.com/henomis/langfuse-go"
	"github.com/henomis/langfuse-go/model"
)

const levelError = "ERROR"

// LangfuseClient records every image model call as a Langfuse generation.
// A disabled client (or a nil one) turns every method into a no-op.
type LangfuseClient struct {
	client  *langfuse.Langfuse
	enabled bool
}

// NewLangfuseClient builds the client from configuration. The SDK reads its
// keys and host from the LANGFUSE_* environment variables.
func NewLangfuseClient(ctx context.Context, cfg *config.Config) *LangfuseClient {
	if !cfg.LangfuseEnabled || cfg.LangfuseSecretKey == "" {
		log.Println("⚠️  Langfuse not configured (LANGFUSE_ENABLED=false or LANGFUSE_SECRET_KEY not set)")
		return &LangfuseClient{enabled: false}
	}

	log.Printf("✅ Langfuse initialized (host: %s)", cfg.LangfuseHost)
	return &LangfuseClient{
		client:  langfuse.New(ctx),
		enabled: true,
	}
}

// IsEnabled returns whether traces are sent.
func (c *LangfuseClient) IsEnabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// StartTrace opens a trace for one studio operation.
func (c *LangfuseClient) StartTrace(ctx context.Context, name string, metadata map[string]any) *Trace {
	if !c.IsEnabled() {
		return &Trace{ctx: ctx}
	}

	trace, err := c.client.Trace(&model.Trace{
		Name:     name,
		Metadata: metadata,
	})
	if err != nil {
		log.Printf("⚠️  Failed to create Langfuse trace: %v", err)
		return &Trace{ctx: ctx}
	}

	return &Trace{
		trace:   trace,
		enabled: true,
		ctx:     ctx,
		client:  c.client,
	}
}

// Trace groups the generations issued by one operation.
type Trace struct {
	trace   *model.Trace
	enabled bool
	ctx     context.Context
	client  *langfuse.Langfuse
}

// Generation opens a generation span within the trace.
func (t *Trace) Generation(name, modelName string, metadata map[string]any) *Generation {
	if !t.enabled {
		return &Generation{}
	}

	now := time.Now()
	gen, err := t.client.Generation(&model.Generation{
		TraceID:   t.trace.ID,
		Name:      name,
		Model:     modelName,
		StartTime: &now,
		Metadata:  metadata,
	}, nil)
	if err != nil {
		log.Printf("⚠️  Failed to create Langfuse generation: %v", err)
		return &Generation{}
	}

	return &Generation{
		generation: gen,
		enabled:    true,
		client:     t.client,
	}
}

// Finish flushes queued events for the trace.
func (t *Trace) Finish() {
	if t.enabled && t.client != nil {
		t.client.Flush(t.ctx)
	}
}

// Generation is a single model call inside a trace.
type Generation struct {
	generation *model.Generation
	enabled    bool
	client     *langfuse.Langfuse
}

// Input records the request summary. Image bytes are never sent.
func (g *Generation) Input(input any) {
	if g.enabled && g.generation != nil {
		g.generation.Input = input
	}
}

// Output records the response summary.
func (g *Generation) Output(output any) {
	if g.enabled && g.generation != nil {
		g.generation.Output = output
	}
}

// Fail marks the generation as errored.
func (g *Generation) Fail(err error) {
	if !g.enabled || g.generation == nil || err == nil {
		return
	}
	g.generation.Level = model.ObservationLevel(levelError)
	md, ok := g.generation.Metadata.(map[string]any)
	if !ok || md == nil {
		md = map[string]any{}
	}
	md["error"] = err.Error()
	g.generation.Metadata = md
}

// Finish ends the generation and queues it for sending.
func (g *Generation) Finish() {
	if g.enabled && g.generation != nil && g.client != nil {
		now := time.Now()
		g.generation.EndTime = &now
		if _, err := g.client.GenerationEnd(g.generation); err != nil {
			log.Printf("⚠️  Failed to end Langfuse generation: %v", err)
		}
	}
}
