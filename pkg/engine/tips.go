package engine

import (
	"context"
	"fmt"

	"github.com/spendsentry/spendsentry/pkg/model"
	"github.com/spendsentry/spendsentry/pkg/push"
	"github.com/spendsentry/spendsentry/pkg/rules"
)

// RunCoachingTips sends one tip, picked at random per run, to every
// user opted into spending insights.
func (e *Engine) RunCoachingTips(ctx context.Context) (RunSummary, error) {
	users, err := e.store.ListEligibleUsers(ctx, model.EligibleFilter{SpendingInsights: true})
	if err != nil {
		return RunSummary{}, fmt.Errorf("list eligible users: %w", err)
	}

	tip := e.tips.Pick(nil)

	var c counters
	e.forEachUser(ctx, users, func(ctx context.Context, user model.User) {
		if user.FCMToken == "" {
			c.skipped.Add(1)
			return
		}
		c.attempted.Add(1)

		rendered := rules.RenderCoachingTip(user.ID, tip.Title, tip.Body)
		msg := push.Message{
			Title:   rendered.Title,
			Body:    rendered.Body,
			Data:    rendered.Data,
			Channel: channelCoachingTips,
		}

		if err := e.dispatcher.Send(ctx, user.FCMToken, msg); err != nil {
			e.logger.Error("send coaching tip", "user", user.ID, "error", err)
			c.failed.Add(1)
			return
		}

		c.sent.Add(1)
		e.audit(ctx, user.ID, model.KindCoachingTip, rendered)
	})

	summary := c.summary()
	e.logger.Info("coaching tips run complete", "tip", tip.Title, "summary", summary.String())
	return summary, nil
}
