// Package justification writes the short "why this person fits" text attached to ranked entries.
package justification

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/observability"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/openai"
)

// Completion settings for the justification model.
const (
	SystemPrompt = "You are a precise, brief development/staffing analyst. Do not invent facts."
	Temperature  = 0.2
	MaxTokens    = 220
)

// Completer runs a single-turn chat completion.
type Completer interface {
	Complete(ctx context.Context, req openai.CompletionRequest) (string, error)
}

// Generator produces justifications with a Completer, or with the deterministic stub when none
// is configured.
type Generator struct {
	completer Completer
	limiter   *rate.Limiter
	logger    *slog.Logger
	metrics   observability.PipelineMetrics
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithRateLimit caps completion calls per second.
func WithRateLimit(perSecond float64) GeneratorOption {
	return func(g *Generator) {
		if perSecond > 0 {
			g.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMetrics records one outcome per justification. nil disables recording.
func WithMetrics(m observability.PipelineMetrics) GeneratorOption {
	return func(g *Generator) {
		g.metrics = m
	}
}

// NewGenerator creates a Generator. completer may be nil.
func NewGenerator(completer Completer, opts ...GeneratorOption) *Generator {
	g := &Generator{completer: completer, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Justify returns the justification for person on project. It never fails: completion errors
// are reported inline in the returned text.
func (g *Generator) Justify(
	ctx context.Context,
	project models.ProjectProfile,
	person models.PersonProfile,
	feedback []models.FeedbackEvent,
) string {
	if g.completer == nil {
		g.record(ctx, "stub")

		return Stub(project, person, feedback)
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			g.record(ctx, "unavailable")

			return unavailable(err)
		}
	}

	text, err := g.completer.Complete(ctx, openai.CompletionRequest{
		System:      SystemPrompt,
		User:        BuildPrompt(project, person, feedback),
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	})
	if err != nil {
		g.logger.Warn("justification completion failed",
			"project_id", project.ProjectID,
			"person_id", person.ID,
			"error", err,
		)
		g.record(ctx, "unavailable")

		return unavailable(err)
	}

	g.record(ctx, "generated")

	return text
}

func (g *Generator) record(ctx context.Context, outcome string) {
	if g.metrics != nil {
		g.metrics.RecordJustification(ctx, outcome)
	}
}

func unavailable(err error) string {
	return fmt.Sprintf("(justification temporarily unavailable: %v)", err)
}
