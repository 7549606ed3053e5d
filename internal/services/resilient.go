package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/Lllllllleong/pdfinsight/internal/models"
)

// RetryPolicy bounds retries of transient failures with exponential backoff.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func (p RetryPolicy) newBackOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if p.InitialBackoff > 0 {
		eb.InitialInterval = p.InitialBackoff
	}
	if p.MaxBackoff > 0 {
		eb.MaxInterval = p.MaxBackoff
	}
	eb.Multiplier = 2
	eb.MaxElapsedTime = 0
	eb.Reset()

	attempts := max(p.MaxAttempts, 1)
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(attempts-1)), ctx)
}

// do runs fn until it succeeds, fails permanently, or the attempts run out.
// Errors that are not transient, and any error once ctx is done, stop the loop.
func (p RetryPolicy) do(ctx context.Context, operation string, fn func() error) error {
	attempt := 0
	op := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		slog.Warn(
			"Call failed, will retry.",
			"operation", operation,
			"attempt", attempt,
			"maxAttempts", p.MaxAttempts,
			"backoff", wait.String(),
			"error", err,
		)
	}
	return backoff.RetryNotify(op, p.newBackOff(ctx), notify)
}

// ResilientInference adds rate limiting, per-call timeouts and retries to an
// InferenceClient. Failures come back as *InferenceError.
type ResilientInference struct {
	next        InferenceClient
	limiter     *rate.Limiter
	callTimeout time.Duration
	policy      RetryPolicy
}

// NewResilientInference wraps next. A nil limiter disables rate limiting and a
// zero callTimeout leaves each call bounded only by its parent context.
func NewResilientInference(next InferenceClient, limiter *rate.Limiter, callTimeout time.Duration, policy RetryPolicy) *ResilientInference {
	return &ResilientInference{next: next, limiter: limiter, callTimeout: callTimeout, policy: policy}
}

func (r *ResilientInference) Generate(ctx context.Context, prompt string, image []byte) (string, error) {
	var text string
	err := r.policy.do(ctx, "generate", func() error {
		callCtx, cancel, err := r.begin(ctx)
		if err != nil {
			return err
		}
		defer cancel()
		text, err = r.next.Generate(callCtx, prompt, image)
		return err
	})
	if err != nil {
		return "", &InferenceError{Op: "generate", Err: err}
	}
	return text, nil
}

func (r *ResilientInference) Embed(ctx context.Context, text string) ([]float64, error) {
	var values []float64
	err := r.policy.do(ctx, "embed", func() error {
		callCtx, cancel, err := r.begin(ctx)
		if err != nil {
			return err
		}
		defer cancel()
		values, err = r.next.Embed(callCtx, text)
		return err
	})
	if err != nil {
		return nil, &InferenceError{Op: "embed", Err: err}
	}
	return values, nil
}

// begin waits for a rate limiter token and derives the per-call context.
func (r *ResilientInference) begin(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}
	}
	if r.callTimeout <= 0 {
		return ctx, func() {}, nil
	}
	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	return callCtx, cancel, nil
}

// ResilientStore retries transient insert failures. Failures come back as
// *PersistenceError.
type ResilientStore struct {
	next        ResultStore
	callTimeout time.Duration
	policy      RetryPolicy
}

func NewResilientStore(next ResultStore, callTimeout time.Duration, policy RetryPolicy) *ResilientStore {
	return &ResilientStore{next: next, callTimeout: callTimeout, policy: policy}
}

func (s *ResilientStore) Insert(ctx context.Context, record models.PageRecord) error {
	err := s.policy.do(ctx, "insert", func() error {
		callCtx := ctx
		if s.callTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, s.callTimeout)
			defer cancel()
		}
		return s.next.Insert(callCtx, record)
	})
	if err != nil {
		return &PersistenceError{Err: err}
	}
	return nil
}
