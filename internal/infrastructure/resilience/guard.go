package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

type GuardConfig struct {
	Breaker Config
	// RatePerSecond <= 0 disables rate limiting.
	RatePerSecond float64
	Burst         int
	// Timeout bounds each call, including the wait for a rate token.
	Timeout time.Duration
}

// Guard fronts a paid or fragile service: a deadline per call, a token
// bucket bounding spend, and a circuit breaker that fails fast while the
// service is down.
type Guard struct {
	exec    *Executor
	limiter *rate.Limiter
	timeout time.Duration
}

func NewGuard(cfg GuardConfig, logger *slog.Logger) *Guard {
	g := &Guard{
		exec:    NewExecutorWithLogger(cfg.Breaker, logger),
		timeout: cfg.Timeout,
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return g
}

func (g *Guard) Do(ctx context.Context, operation string, fn func(context.Context) error, classifier ErrorClassifier) error {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: wait for rate limit: %w", operation, err)
		}
	}
	return g.exec.Execute(ctx, operation, fn, classifier)
}
