package engine

import (
	"context"
	"fmt"

	"github.com/spendsentry/spendsentry/pkg/model"
	"github.com/spendsentry/spendsentry/pkg/push"
	"github.com/spendsentry/spendsentry/pkg/rules"
)

// RunMilestones checks every eligible user's lifetime spending total
// against the milestone registry and notifies each newly crossed
// milestone. Milestones are cumulative: a total that jumped past
// several at once fires all of them in ascending order, each with its
// own achievement record.
//
// The achievement is created conditionally before dispatching; if the
// send fails the record is removed again, so a failed notification is
// retried on the next run and an achievement only ever exists for a
// delivered notification.
func (e *Engine) RunMilestones(ctx context.Context) (RunSummary, error) {
	users, err := e.store.ListEligibleUsers(ctx, model.EligibleFilter{})
	if err != nil {
		return RunSummary{}, fmt.Errorf("list eligible users: %w", err)
	}

	var c counters
	e.forEachUser(ctx, users, func(ctx context.Context, user model.User) {
		if user.FCMToken == "" {
			c.skipped.Add(1)
			return
		}

		total, err := e.store.SumLifetimeSpend(ctx, user.ID)
		if err != nil {
			e.logger.Error("sum lifetime spend", "user", user.ID, "error", err)
			c.failed.Add(1)
			return
		}

		existing, err := e.store.ListAchievements(ctx, user.ID)
		if err != nil {
			e.logger.Error("list achievements", "user", user.ID, "error", err)
			c.failed.Add(1)
			return
		}
		achieved := make(map[int64]bool, len(existing))
		for _, a := range existing {
			achieved[a.Milestone] = true
		}

		for _, milestone := range rules.EvaluateMilestones(total, achieved) {
			e.awardMilestone(ctx, &c, user, milestone, total)
		}
	})

	summary := c.summary()
	e.logger.Info("milestones run complete", "summary", summary.String())
	return summary, nil
}

func (e *Engine) awardMilestone(ctx context.Context, c *counters, user model.User, milestone int64, total float64) {
	c.attempted.Add(1)

	achievement := &model.Achievement{
		ID:            model.AchievementID(user.ID, milestone),
		UserID:        user.ID,
		Milestone:     milestone,
		TotalSpending: total,
	}

	created, err := e.store.CreateAchievement(ctx, achievement)
	if err != nil {
		e.logger.Error("create achievement", "user", user.ID, "milestone", milestone, "error", err)
		c.failed.Add(1)
		return
	}
	if !created {
		// Another run claimed this milestone first.
		c.skipped.Add(1)
		return
	}

	rendered := rules.RenderMilestone(user.ID, milestone, total)
	msg := push.Message{
		Title:   rendered.Title,
		Body:    rendered.Body,
		Data:    rendered.Data,
		Channel: channelMilestones,
	}

	if err := e.dispatcher.Send(ctx, user.FCMToken, msg); err != nil {
		e.logger.Error("send milestone alert", "user", user.ID, "milestone", milestone, "error", err)
		// Undo the claim: an achievement must not outlive a failed send.
		if delErr := e.store.DeleteAchievement(ctx, achievement.ID); delErr != nil {
			e.logger.Error("delete achievement after failed send",
				"achievement", achievement.ID, "error", delErr)
		}
		c.failed.Add(1)
		return
	}

	c.sent.Add(1)
	e.audit(ctx, user.ID, model.KindMilestone, rendered)
	e.logger.Info("milestone achievement sent", "user", user.ID, "milestone", milestone, "total", total)
}
