package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/domain"
	autherror "github.com/AnthoniusHendriyanto/blogger-auth/internal/errors"
	"github.com/AnthoniusHendriyanto/blogger-auth/internal/logger"
)

// AttemptGuard limits requests per (ip, route) to MaxAttempts inside a
// sliding Window.
type AttemptGuard struct {
	ledger      domain.AttemptLedger
	maxAttempts int
	window      time.Duration
	now         func() time.Time
	log         *slog.Logger
}

func NewAttemptGuard(ledger domain.AttemptLedger, maxAttempts int, window time.Duration, log *slog.Logger) *AttemptGuard {
	if log == nil {
		log = logger.Discard()
	}
	return &AttemptGuard{
		ledger:      ledger,
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
		log:         log,
	}
}

// SetClock replaces the guard's time source.
func (g *AttemptGuard) SetClock(now func() time.Time) {
	g.now = now
}

// Check counts the attempts already in the window, records this one, and
// rejects it with ErrTooManyRequests when the earlier count reached the
// limit. Rejected attempts are recorded too, so a client that keeps calling
// stays locked out.
func (g *AttemptGuard) Check(ctx context.Context, ip, route string) error {
	now := g.now()

	count, err := g.ledger.CountRecent(ctx, ip, route, now.Add(-g.window))
	if err != nil {
		return err
	}

	if err := g.ledger.Append(ctx, &domain.Attempt{
		IPAddress: ip,
		Route:     route,
		CreatedAt: now,
	}); err != nil {
		return err
	}

	if count >= g.maxAttempts {
		g.log.WarnContext(ctx, "rate limit exceeded", "ip", ip, "route", route, "count", count)
		return autherror.ErrTooManyRequests
	}
	return nil
}

// RunRetention deletes attempts older than retention every interval until ctx
// is done. Ledgers that expire entries on their own are left alone.
func (g *AttemptGuard) RunRetention(ctx context.Context, interval, retention time.Duration) {
	pruner, ok := g.ledger.(domain.AttemptPruner)
	if !ok {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := pruner.DeleteOlderThan(ctx, g.now().Add(-retention))
			if err != nil {
				g.log.ErrorContext(ctx, "attempt retention failed", "error", err)
				continue
			}
			if deleted > 0 {
				g.log.DebugContext(ctx, "attempt retention", "deleted", deleted)
			}
		}
	}
}
