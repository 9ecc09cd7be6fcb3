package assessment

import (
	"context"
	"log/slog"
	"time"

	"github.com/yanqian/derma-advisor/internal/domain/recovery"
	"github.com/yanqian/derma-advisor/pkg/metrics"
)

// Service exposes the assessment endpoints.
//
// An error is returned only when the request fails validation; every upstream
// problem is reported inside the envelope.
type Service interface {
	AnalyzeMole(ctx context.Context, req MoleRequest) (recovery.Envelope, error)
	GenerateSkinCarePlan(ctx context.Context, req PlanRequest) (recovery.Envelope, error)
}

var (
	molePresenter = recovery.Presenter{UpstreamMessage: "failed to analyze mole"}
	planPresenter = recovery.Presenter{UpstreamMessage: "failed to generate skincare plan"}
)

type service struct {
	cfg     Config
	prompts PromptBuilder
	invoker *Invoker
	logger  *slog.Logger
	now     func() time.Time
}

// NewService is a wire provider for the assessment domain.
func NewService(cfg Config, client ChatClient, tokens *metrics.TokenCounter, logger *slog.Logger) Service {
	return &service{
		cfg:     cfg,
		prompts: PromptBuilder{MoleSystem: cfg.Mole.SystemPrompt, PlanSystem: cfg.Plan.SystemPrompt},
		invoker: NewInvoker(client, tokens, logger),
		logger:  logger.With("component", "assessment.service"),
		now:     time.Now,
	}
}

func (s *service) AnalyzeMole(ctx context.Context, req MoleRequest) (recovery.Envelope, error) {
	prompt, err := s.prompts.Mole(req)
	if err != nil {
		return recovery.Envelope{}, err
	}
	return complete[MoleResult](ctx, s, "mole", prompt, s.cfg.Mole.Options, molePresenter), nil
}

func (s *service) GenerateSkinCarePlan(ctx context.Context, req PlanRequest) (recovery.Envelope, error) {
	prompt, err := s.prompts.Plan(req)
	if err != nil {
		return recovery.Envelope{}, err
	}
	return complete[SkinCarePlan](ctx, s, "plan", prompt, s.cfg.Plan.Options, planPresenter), nil
}

func complete[T any](ctx context.Context, s *service, endpoint string, prompt Prompt, opts Options, presenter recovery.Presenter) recovery.Envelope {
	start := s.now()

	var (
		outcome recovery.Outcome
		usage   metrics.TokenUsage
	)
	completion, err := s.invoker.Invoke(ctx, prompt, opts)
	if err != nil {
		outcome = recovery.Failed(err)
	} else {
		outcome = recovery.Recover[T](completion.Text)
		usage = completion.Usage
	}

	env := presenter.Present(outcome)
	env.DurationMs = s.now().Sub(start).Milliseconds()
	if !usage.IsZero() {
		env.TokenUsage = &usage
	}

	attrs := []any{
		"endpoint", endpoint,
		"model", opts.Model,
		"mode", string(opts.Mode),
		"outcome", recovery.Kind(outcome),
		"duration_ms", env.DurationMs,
	}
	switch v := outcome.(type) {
	case recovery.Success:
		s.logger.Info("assessment completed", attrs...)
	case recovery.Fallback:
		s.logger.Warn("assessment reply not parseable", append(attrs, "error", v.Reason(), "content", v.Raw, "truncated", completion.Truncated)...)
	case recovery.UpstreamFailure:
		s.logger.Error("assessment upstream failure", append(attrs, "error", v.Reason)...)
	}
	return env
}
