package storage

import (
	"context"
	"time"

	"github.com/spendsentry/spendsentry/pkg/model"
)

// Store defines the persistence layer for users, budgets, tracked
// items, achievements and the notification audit log. All writes that
// guard a notification use conditional semantics so that overlapping
// runs cannot both claim the same condition.
type Store interface {
	// CreateUser persists a user.
	CreateUser(ctx context.Context, user *model.User) error

	// GetUser retrieves a user by id.
	GetUser(ctx context.Context, id string) (*model.User, error)

	// ListEligibleUsers returns users whose notification settings
	// satisfy the filter (global enabled plus every opt-in the filter
	// requires).
	ListEligibleUsers(ctx context.Context, filter model.EligibleFilter) ([]model.User, error)

	// CreateBudget persists a budget for a (user, category, month).
	CreateBudget(ctx context.Context, budget *model.Budget) error

	// ListBudgets returns a user's budgets for the given month key.
	ListBudgets(ctx context.Context, userID, month string) ([]model.Budget, error)

	// ListAllBudgets returns every budget, across users and months.
	ListAllBudgets(ctx context.Context) ([]model.Budget, error)

	// MarkAlertSent atomically sets the named alert flag to true only
	// if it is currently false. It reports whether this call won the
	// flag; false means another run already sent the alert.
	MarkAlertSent(ctx context.Context, budgetID, flag string) (bool, error)

	// ClearAlertFlag sets the named alert flag back to false. Used to
	// release a claimed flag after a failed dispatch.
	ClearAlertFlag(ctx context.Context, budgetID, flag string) error

	// ResetAlertFlags clears all three alert flags on every budget and
	// returns the number of budgets touched. Idempotent.
	ResetAlertFlags(ctx context.Context) (int64, error)

	// AddTransaction persists a transaction.
	AddTransaction(ctx context.Context, tx *model.Transaction) error

	// SumTransactions returns the total expense amount for a user and
	// category within [start, end).
	SumTransactions(ctx context.Context, userID, category string, start, end time.Time) (float64, error)

	// SumLifetimeSpend returns the user's all-time expense total.
	SumLifetimeSpend(ctx context.Context, userID string) (float64, error)

	// CreateTrackedItem persists a price watch.
	CreateTrackedItem(ctx context.Context, item *model.TrackedItem) error

	// ListTrackedItems returns a user's active price watches.
	ListTrackedItems(ctx context.Context, userID string) ([]model.TrackedItem, error)

	// UpdateItemPrice records a new last-known price and check time.
	UpdateItemPrice(ctx context.Context, itemID string, price float64, checkedAt time.Time) error

	// CreateAchievement inserts an achievement only if none exists for
	// its key. It reports whether the record was created.
	CreateAchievement(ctx context.Context, a *model.Achievement) (bool, error)

	// DeleteAchievement removes an achievement by key. Used to release
	// a claimed milestone after a failed dispatch.
	DeleteAchievement(ctx context.Context, id string) error

	// ListAchievements returns a user's achievements.
	ListAchievements(ctx context.Context, userID string) ([]model.Achievement, error)

	// AddNotification appends an audit record.
	AddNotification(ctx context.Context, n *model.Notification) error

	// ListNotifications returns a user's audit records, newest first.
	ListNotifications(ctx context.Context, userID string) ([]model.Notification, error)

	// PurgeNotifications deletes audit records older than cutoff and
	// returns the number deleted.
	PurgeNotifications(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases resources.
	Close() error
}
