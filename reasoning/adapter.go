package reasoning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"autoclaim/metrics"
	"autoclaim/models"
)

// FallbackModel is the model_used value of a degraded result.
const FallbackModel = "fallback"

// Outcome is the adapter's result. Degraded outcomes carry an empty decision
// list and at least one warning.
type Outcome struct {
	Result   models.LLMResult
	Warnings []string
	Degraded bool
}

// Adapter bounds every reasoning call by a timeout and never fails: any
// transport, timeout or parsing problem yields the fallback result.
type Adapter struct {
	reasoner Reasoner
	timeout  time.Duration
	logger   *zap.Logger
}

func NewAdapter(r Reasoner, timeout time.Duration, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{reasoner: r, timeout: timeout, logger: logger}
}

func (a *Adapter) Assess(ctx context.Context, req Request) Outcome {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	provider := a.reasoner.Name()
	log := a.logger.With(zap.String("provider", provider))

	reply, err := a.infer(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrDisabled):
			return a.fallback(provider, "vision reasoning disabled; no part decisions produced")
		case errors.Is(err, context.DeadlineExceeded):
			log.Warn("reasoning timed out", zap.Duration("timeout", a.timeout))
			return a.fallback(provider, fmt.Sprintf("vision reasoning timed out after %s; no part decisions produced", a.timeout))
		default:
			log.Warn("reasoning failed", zap.Error(err))
			return a.fallback(provider, fmt.Sprintf("vision reasoning unavailable: %v", err))
		}
	}

	decisions, warnings, err := parseDecisions(reply.Text)
	if err != nil {
		log.Warn("reasoning reply unparsable", zap.Error(err), zap.Int("reply_bytes", len(reply.Text)))
		return a.fallback(provider, fmt.Sprintf("vision reasoning reply unparsable: %v", err))
	}
	for _, w := range warnings {
		log.Warn("reasoning entry adjusted", zap.String("detail", w))
	}

	model := reply.Model
	if model == "" {
		model = provider
	}
	metrics.ReasoningCallsTotal.WithLabelValues(provider, "ok").Inc()
	if reply.TotalTokens != nil {
		metrics.ReasoningTokensTotal.Add(float64(*reply.TotalTokens))
	}

	return Outcome{
		Result: models.LLMResult{
			Decisions:    decisions,
			ModelUsed:    model,
			PromptTokens: reply.TotalTokens,
		},
		Warnings: warnings,
	}
}

// infer runs the reasoner in its own goroutine so a provider that ignores ctx
// still cannot hold the pipeline past the deadline.
func (a *Adapter) infer(ctx context.Context, req Request) (Reply, error) {
	type result struct {
		reply Reply
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("reasoner panic: %v", r)}
			}
		}()
		reply, err := a.reasoner.Infer(ctx, req)
		ch <- result{reply: reply, err: err}
	}()

	select {
	case res := <-ch:
		if res.err == nil && ctx.Err() != nil {
			return Reply{}, ctx.Err()
		}
		return res.reply, res.err
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}

func (a *Adapter) fallback(provider, warning string) Outcome {
	metrics.ReasoningCallsTotal.WithLabelValues(provider, FallbackModel).Inc()
	return Outcome{
		Result: models.LLMResult{
			Decisions: []models.PartDecision{},
			ModelUsed: FallbackModel,
		},
		Warnings: []string{warning},
		Degraded: true,
	}
}

// Fallback returns the degraded outcome without calling the reasoner.
func (a *Adapter) Fallback(warning string) Outcome {
	return a.fallback(a.reasoner.Name(), warning)
}
