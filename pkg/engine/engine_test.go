package engine_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/spendsentry/spendsentry/pkg/engine"
	"github.com/spendsentry/spendsentry/pkg/model"
	"github.com/spendsentry/spendsentry/pkg/pricefeed"
	"github.com/spendsentry/spendsentry/pkg/push"
	"github.com/spendsentry/spendsentry/pkg/storage"
	"github.com/spendsentry/spendsentry/pkg/tips"
)

// fakeDispatcher records sends and can be told to fail.
type fakeDispatcher struct {
	mu    sync.Mutex
	fail  bool
	sends []push.Message
}

func (f *fakeDispatcher) Name() string { return "fake" }

func (f *fakeDispatcher) Send(_ context.Context, _ string, msg push.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("push unavailable")
	}
	f.sends = append(f.sends, msg)
	return nil
}

func (f *fakeDispatcher) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func (f *fakeDispatcher) sent() []push.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]push.Message, len(f.sends))
	copy(out, f.sends)
	return out
}

func newTestEngine(t *testing.T, dispatcher push.Dispatcher, feed pricefeed.Feed) (*engine.Engine, *storage.SQLite) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := storage.NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	if feed == nil {
		feed = pricefeed.NewStatic(nil)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	eng := engine.New(store, dispatcher, feed, tips.Default(), logger, 4)
	return eng, store
}

func seedUser(t *testing.T, store *storage.SQLite, id, token string) {
	t.Helper()
	err := store.CreateUser(context.Background(), &model.User{
		ID:       id,
		FCMToken: token,
		Settings: model.NotificationSettings{
			Enabled:          true,
			BudgetAlerts:     true,
			PriceDrops:       true,
			SpendingInsights: true,
		},
	})
	require.NoError(t, err)
}

// seedBudget creates a current-month budget with the given spending
// already recorded as one expense transaction.
func seedBudget(t *testing.T, store *storage.SQLite, userID, category string, limit, spent float64) *model.Budget {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	budget := &model.Budget{
		UserID:   userID,
		Category: category,
		Month:    model.MonthKey(now),
		LimitUSD: limit,
	}
	require.NoError(t, store.CreateBudget(ctx, budget))

	if spent != 0 {
		require.NoError(t, store.AddTransaction(ctx, &model.Transaction{
			UserID:    userID,
			Category:  category,
			Type:      model.TxExpense,
			AmountUSD: spent,
			Date:      now,
		}))
	}
	return budget
}

func TestRunBudgetAlerts_EndToEnd(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	eng, store := newTestEngine(t, dispatcher, nil)
	ctx := context.Background()

	seedUser(t, store, "u1", "tok-1")
	seedBudget(t, store, "u1", "groceries", 500, 510)

	summary, err := eng.RunBudgetAlerts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.Attempted)
	assert.EqualValues(t, 1, summary.Sent)
	assert.EqualValues(t, 0, summary.Failed)

	sends := dispatcher.sent()
	require.Len(t, sends, 1)
	assert.Equal(t, "Budget Exceeded!", sends[0].Title)
	assert.Contains(t, sends[0].Body, "$10.00")
	assert.Equal(t, "budget_alert", sends[0].Data["type"])

	// Flag committed.
	budgets, err := store.ListBudgets(ctx, "u1", model.MonthKey(time.Now().UTC()))
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.True(t, budgets[0].OverageSent)

	// Audit record created.
	notifications, err := store.ListNotifications(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, model.KindBudgetAlert, notifications[0].Kind)
	assert.Contains(t, notifications[0].Body, "$10.00")

	// Second run, same numbers: nothing fires.
	summary, err = eng.RunBudgetAlerts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, summary.Sent)
	assert.Len(t, dispatcher.sent(), 1)
}

func TestRunBudgetAlerts_SeverityPrecedence(t *testing.T) {
	// 101% with all flags clear fires exactly one alert: the overage.
	dispatcher := &fakeDispatcher{}
	eng, store := newTestEngine(t, dispatcher, nil)

	seedUser(t, store, "u1", "tok-1")
	seedBudget(t, store, "u1", "dining", 100, 101)

	summary, err := eng.RunBudgetAlerts(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.Sent)

	sends := dispatcher.sent()
	require.Len(t, sends, 1)
	assert.Equal(t, "Budget Exceeded!", sends[0].Title)
}

func TestRunBudgetAlerts_DispatchFailureRetriesNextRun(t *testing.T) {
	dispatcher := &fakeDispatcher{fail: true}
	eng, store := newTestEngine(t, dispatcher, nil)
	ctx := context.Background()

	seedUser(t, store, "u1", "tok-1")
	seedBudget(t, store, "u1", "groceries", 500, 510)

	summary, err := eng.RunBudgetAlerts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.Failed)
	assert.EqualValues(t, 0, summary.Sent)

	// Flag released: the failed alert stays pending.
	budgets, err := store.ListBudgets(ctx, "u1", model.MonthKey(time.Now().UTC()))
	require.NoError(t, err)
	assert.False(t, budgets[0].OverageSent)

	// No audit record for a failed send.
	notifications, err := store.ListNotifications(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, notifications)

	// Channel recovers; next run delivers.
	dispatcher.setFail(false)
	summary, err = eng.RunBudgetAlerts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.Sent)
}

func TestRunBudgetAlerts_NoTokenSkips(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	eng, store := newTestEngine(t, dispatcher, nil)

	seedUser(t, store, "u1", "")
	seedBudget(t, store, "u1", "groceries", 500, 510)

	summary, err := eng.RunBudgetAlerts(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.Skipped)
	assert.Empty(t, dispatcher.sent())
}

func TestRunBudgetAlerts_ZeroLimitSkips(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	eng, store := newTestEngine(t, dispatcher, nil)

	seedUser(t, store, "u1", "tok-1")
	seedBudget(t, store, "u1", "broken", 0, 100)

	summary, err := eng.RunBudgetAlerts(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.Skipped)
	assert.EqualValues(t, 0, summary.Failed)
	assert.Empty(t, dispatcher.sent())
}

func TestRunBudgetAlerts_ConcurrentRunsSendOnce(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	eng, store := newTestEngine(t, dispatcher, nil)

	seedUser(t, store, "u1", "tok-1")
	seedBudget(t, store, "u1", "groceries", 500, 510)

	const overlapping = 4
	var wg sync.WaitGroup
	for i := 0; i < overlapping; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eng.RunBudgetAlerts(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Exactly one run won the flag; the rest saw it claimed.
	assert.Len(t, dispatcher.sent(), 1)
}

func TestResetRestoresFiring(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	eng, store := newTestEngine(t, dispatcher, nil)
	ctx := context.Background()

	seedUser(t, store, "u1", "tok-1")
	seedBudget(t, store, "u1", "groceries", 500, 510)

	_, err := eng.RunBudgetAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, dispatcher.sent(), 1)

	count, err := eng.ResetBudgetFlags(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// Still over limit in the new period: fires again.
	summary, err := eng.RunBudgetAlerts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.Sent)
	assert.Len(t, dispatcher.sent(), 2)
}

func TestRunMilestones_Completeness(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	eng, store := newTestEngine(t, dispatcher, nil)
	ctx := context.Background()

	seedUser(t, store, "u1", "tok-1")
	require.NoError(t, store.AddTransaction(ctx, &model.Transaction{
		UserID: "u1", Category: "misc", Type: model.TxExpense, AmountUSD: 1200,
	}))

	summary, err := eng.RunMilestones(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, summary.Attempted)
	assert.EqualValues(t, 3, summary.Sent)

	achievements, err := store.ListAchievements(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, achievements, 3)
	milestones := []int64{achievements[0].Milestone, achievements[1].Milestone, achievements[2].Milestone}
	assert.Equal(t, []int64{100, 500, 1000}, milestones)

	notifications, err := store.ListNotifications(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, notifications, 3)

	// Re-run: all milestones already achieved.
	summary, err = eng.RunMilestones(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, summary.Sent)
	assert.Len(t, dispatcher.sent(), 3)
}

func TestRunMilestones_DispatchFailureRollsBack(t *testing.T) {
	dispatcher := &fakeDispatcher{fail: true}
	eng, store := newTestEngine(t, dispatcher, nil)
	ctx := context.Background()

	seedUser(t, store, "u1", "tok-1")
	require.NoError(t, store.AddTransaction(ctx, &model.Transaction{
		UserID: "u1", Category: "misc", Type: model.TxExpense, AmountUSD: 150,
	}))

	summary, err := eng.RunMilestones(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.Failed)

	// No achievement may outlive a failed send.
	achievements, err := store.ListAchievements(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, achievements)

	dispatcher.setFail(false)
	summary, err = eng.RunMilestones(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.Sent)

	achievements, err = store.ListAchievements(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, achievements, 1)
	assert.EqualValues(t, 100, achievements[0].Milestone)
}

func TestRunPriceDrops(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	feed := pricefeed.NewStatic(map[string]float64{"headphones": 74.5})
	eng, store := newTestEngine(t, dispatcher, feed)
	ctx := context.Background()

	seedUser(t, store, "u1", "tok-1")
	item := &model.TrackedItem{
		UserID: "u1", ItemName: "headphones",
		TargetPrice: 80, LastKnownPrice: 100, Active: true,
	}
	require.NoError(t, store.CreateTrackedItem(ctx, item))

	summary, err := eng.RunPriceDrops(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.Sent)

	sends := dispatcher.sent()
	require.Len(t, sends, 1)
	assert.Contains(t, sends[0].Body, "$74.50")
	assert.Equal(t, "price_alert", sends[0].Data["type"])

	// Baseline advanced.
	items, err := store.ListTrackedItems(ctx, "u1")
	require.NoError(t, err)
	assert.InDelta(t, 74.5, items[0].LastKnownPrice, 0.001)

	notifications, err := store.ListNotifications(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, model.KindPriceAlert, notifications[0].Kind)

	// Same price again: not a further drop, no re-fire.
	summary, err = eng.RunPriceDrops(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, summary.Sent)
	assert.Len(t, dispatcher.sent(), 1)
}

func TestRunPriceDrops_AboveTargetNoAlert(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	feed := pricefeed.NewStatic(map[string]float64{"headphones": 85})
	eng, store := newTestEngine(t, dispatcher, feed)
	ctx := context.Background()

	seedUser(t, store, "u1", "tok-1")
	require.NoError(t, store.CreateTrackedItem(ctx, &model.TrackedItem{
		UserID: "u1", ItemName: "headphones",
		TargetPrice: 80, LastKnownPrice: 100, Active: true,
	}))

	summary, err := eng.RunPriceDrops(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, summary.Sent)
	assert.Empty(t, dispatcher.sent())

	// Baseline untouched when nothing was sent.
	items, err := store.ListTrackedItems(ctx, "u1")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, items[0].LastKnownPrice, 0.001)
}

func TestRunCoachingTips(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	eng, store := newTestEngine(t, dispatcher, nil)
	ctx := context.Background()

	seedUser(t, store, "u1", "tok-1")
	seedUser(t, store, "u2", "") // no token, skipped

	summary, err := eng.RunCoachingTips(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.Sent)
	assert.EqualValues(t, 1, summary.Skipped)

	sends := dispatcher.sent()
	require.Len(t, sends, 1)
	assert.Equal(t, "coaching_tip", sends[0].Data["type"])
	assert.NotEmpty(t, sends[0].Title)

	notifications, err := store.ListNotifications(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, model.KindCoachingTip, notifications[0].Kind)
}

func TestPurgeNotifications_Horizon(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	eng, store := newTestEngine(t, dispatcher, nil)
	ctx := context.Background()

	old := &model.Notification{
		UserID: "u1", Kind: model.KindBudgetAlert, Title: "old", Body: "b",
		Timestamp: time.Now().UTC().AddDate(0, 0, -31),
	}
	recent := &model.Notification{
		UserID: "u1", Kind: model.KindBudgetAlert, Title: "recent", Body: "b",
		Timestamp: time.Now().UTC().AddDate(0, 0, -29),
	}
	require.NoError(t, store.AddNotification(ctx, old))
	require.NoError(t, store.AddNotification(ctx, recent))

	deleted, err := eng.PurgeNotifications(ctx, 30)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	notifications, err := store.ListNotifications(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "recent", notifications[0].Title)
}
