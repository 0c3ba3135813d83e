package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/spendsentry/spendsentry/pkg/model"
	"github.com/spendsentry/spendsentry/pkg/push"
	"github.com/spendsentry/spendsentry/pkg/rules"
)

// RunPriceDrops fetches current prices for every eligible user's
// active tracked items and notifies drops at or below the target
// price. There is no per-item sent flag: suppression comes from
// advancing the last known price after a successful send, so the same
// price never fires twice but every further drop stays newsworthy.
func (e *Engine) RunPriceDrops(ctx context.Context) (RunSummary, error) {
	users, err := e.store.ListEligibleUsers(ctx, model.EligibleFilter{PriceDrops: true})
	if err != nil {
		return RunSummary{}, fmt.Errorf("list eligible users: %w", err)
	}

	var c counters
	e.forEachUser(ctx, users, func(ctx context.Context, user model.User) {
		if user.FCMToken == "" {
			c.skipped.Add(1)
			return
		}

		items, err := e.store.ListTrackedItems(ctx, user.ID)
		if err != nil {
			e.logger.Error("list tracked items", "user", user.ID, "error", err)
			c.failed.Add(1)
			return
		}

		for _, item := range items {
			e.checkItem(ctx, &c, user, item)
		}
	})

	summary := c.summary()
	e.logger.Info("price drops run complete", "feed", e.feed.Name(), "summary", summary.String())
	return summary, nil
}

func (e *Engine) checkItem(ctx context.Context, c *counters, user model.User, item model.TrackedItem) {
	current, err := e.feed.CurrentPrice(ctx, &item)
	if err != nil {
		e.logger.Error("fetch current price", "item", item.ItemName, "error", err)
		c.failed.Add(1)
		return
	}

	if !rules.EvaluatePriceDrop(&item, current) {
		return
	}
	c.attempted.Add(1)

	rendered := rules.RenderPriceDrop(&item, current)
	msg := push.Message{
		Title:   rendered.Title,
		Body:    rendered.Body,
		Data:    rendered.Data,
		Channel: channelPriceAlerts,
	}

	if err := e.dispatcher.Send(ctx, user.FCMToken, msg); err != nil {
		e.logger.Error("send price drop alert",
			"user", user.ID, "item", item.ItemName, "error", err)
		c.failed.Add(1)
		return
	}

	// Advance the baseline only after a successful send; a failed send
	// re-fires at the same price on the next run.
	if err := e.store.UpdateItemPrice(ctx, item.ID, current, time.Now().UTC()); err != nil {
		e.logger.Error("update item price", "item", item.ID, "error", err)
	}

	c.sent.Add(1)
	e.audit(ctx, user.ID, model.KindPriceAlert, rendered)
	e.logger.Info("price drop alert sent",
		"user", user.ID, "item", item.ItemName,
		"old_price", item.LastKnownPrice, "new_price", current)
}
