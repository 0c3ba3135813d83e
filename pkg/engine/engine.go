package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spendsentry/spendsentry/pkg/model"
	"github.com/spendsentry/spendsentry/pkg/pricefeed"
	"github.com/spendsentry/spendsentry/pkg/push"
	"github.com/spendsentry/spendsentry/pkg/rules"
	"github.com/spendsentry/spendsentry/pkg/storage"
	"github.com/spendsentry/spendsentry/pkg/tips"
)

// Notification channels the client apps group messages under.
const (
	channelCoachingTips = "coaching_tips"
	channelBudgetAlerts = "budget_alerts"
	channelPriceAlerts  = "price_alerts"
	channelMilestones   = "milestones"
)

// RunSummary aggregates the outcome of one job run. Attempted counts
// detected crossings, Sent successful dispatches, Failed per-entity
// errors, Skipped no-ops (missing token, malformed entity, or a
// condition already claimed by a concurrent run).
type RunSummary struct {
	Attempted int64 `json:"attempted"`
	Sent      int64 `json:"sent"`
	Failed    int64 `json:"failed"`
	Skipped   int64 `json:"skipped"`
}

func (s RunSummary) String() string {
	return fmt.Sprintf("attempted=%d sent=%d failed=%d skipped=%d",
		s.Attempted, s.Sent, s.Failed, s.Skipped)
}

// counters is the concurrent-safe accumulator behind a RunSummary.
type counters struct {
	attempted atomic.Int64
	sent      atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
}

func (c *counters) summary() RunSummary {
	return RunSummary{
		Attempted: c.attempted.Load(),
		Sent:      c.sent.Load(),
		Failed:    c.failed.Load(),
		Skipped:   c.skipped.Load(),
	}
}

// Engine runs the scheduled notification jobs. Each run is stateless:
// everything it knows comes from the store, everything it decides goes
// back to the store, and nothing survives in-process between runs.
type Engine struct {
	store      storage.Store
	dispatcher push.Dispatcher
	feed       pricefeed.Feed
	tips       *tips.Catalog
	logger     *slog.Logger
	workers    int
}

// New creates an engine. workers bounds the per-user fan-out; values
// below 1 are treated as 1.
func New(store storage.Store, dispatcher push.Dispatcher, feed pricefeed.Feed, catalog *tips.Catalog, logger *slog.Logger, workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	if catalog == nil {
		catalog = tips.Default()
	}
	return &Engine{
		store:      store,
		dispatcher: dispatcher,
		feed:       feed,
		tips:       catalog,
		logger:     logger,
		workers:    workers,
	}
}

// forEachUser runs fn for every user with bounded concurrency. Users
// are independent; fn must confine its errors to the counters.
func (e *Engine) forEachUser(ctx context.Context, users []model.User, fn func(context.Context, model.User)) {
	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		sem <- struct{}{}
		go func(u model.User) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(ctx, u)
		}(u)
	}
	wg.Wait()
}

// audit appends the notification record for a successful dispatch. A
// failed append is logged but does not undo the send: the user already
// has the notification.
func (e *Engine) audit(ctx context.Context, userID string, kind model.NotificationKind, r rules.Rendered) {
	n := &model.Notification{
		UserID:    userID,
		Kind:      kind,
		Title:     r.Title,
		Body:      r.Body,
		Timestamp: time.Now().UTC(),
		Data:      r.Data,
	}
	if err := e.store.AddNotification(ctx, n); err != nil {
		e.logger.Error("append audit record", "user", userID, "kind", kind, "error", err)
	}
}
