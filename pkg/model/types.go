package model

import (
	"fmt"
	"time"
)

// NotificationKind identifies the class of a notification for downstream
// consumers. These values are a stable contract with the mobile clients.
type NotificationKind string

const (
	KindCoachingTip NotificationKind = "coaching_tip"
	KindBudgetAlert NotificationKind = "budget_alert"
	KindPriceAlert  NotificationKind = "price_alert"
	KindMilestone   NotificationKind = "milestone"
)

// NotificationSettings holds a user's per-kind opt-in flags.
type NotificationSettings struct {
	Enabled          bool `json:"enabled" db:"notify_enabled"`
	BudgetAlerts     bool `json:"budget_alerts" db:"budget_alerts"`
	PriceDrops       bool `json:"price_drops" db:"price_drops"`
	SpendingInsights bool `json:"spending_insights" db:"spending_insights"`
}

// User owns budgets, transactions and tracked items. A user with no
// FCM token is silently skipped by every job.
type User struct {
	ID        string               `json:"id" db:"id"`
	FCMToken  string               `json:"fcm_token,omitempty" db:"fcm_token"`
	Settings  NotificationSettings `json:"notification_settings"`
	CreatedAt time.Time            `json:"created_at" db:"created_at"`
}

// Alert flag names. These are the budget columns the conditional-set
// operations target; rules.BudgetBands references them.
const (
	FlagSeventyFivePct = "seventy_five_pct_alert_sent"
	FlagNinetyPct      = "ninety_pct_alert_sent"
	FlagOverage        = "overage_alert_sent"
)

// Budget is a monthly spending limit for one category. The three sent
// flags record which alert bands have already fired this period.
type Budget struct {
	ID                 string    `json:"id" db:"id"`
	UserID             string    `json:"user_id" db:"user_id"`
	Category           string    `json:"category" db:"category"`
	Month              string    `json:"month" db:"month"` // "YYYY-MM"
	LimitUSD           float64   `json:"limit_usd" db:"limit_usd"`
	SeventyFivePctSent bool      `json:"seventy_five_pct_alert_sent" db:"seventy_five_pct_alert_sent"`
	NinetyPctSent      bool      `json:"ninety_pct_alert_sent" db:"ninety_pct_alert_sent"`
	OverageSent        bool      `json:"overage_alert_sent" db:"overage_alert_sent"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// FlagSet reports whether the named alert flag is set on the budget.
func (b *Budget) FlagSet(flag string) bool {
	switch flag {
	case FlagSeventyFivePct:
		return b.SeventyFivePctSent
	case FlagNinetyPct:
		return b.NinetyPctSent
	case FlagOverage:
		return b.OverageSent
	}
	return false
}

// Transaction types.
const (
	TxExpense = "expense"
	TxIncome  = "income"
)

// Transaction is a single money movement. Budget and milestone metrics
// are computed by summing expense transactions; the engine never
// persists derived totals.
type Transaction struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Category  string    `json:"category" db:"category"`
	Type      string    `json:"type" db:"type"`
	AmountUSD float64   `json:"amount_usd" db:"amount_usd"`
	Date      time.Time `json:"date" db:"date"`
}

// TrackedItem is a price watch. LastKnownPrice is advanced after each
// successful drop notification so the same price does not re-fire.
type TrackedItem struct {
	ID             string    `json:"id" db:"id"`
	UserID         string    `json:"user_id" db:"user_id"`
	ItemName       string    `json:"item_name" db:"item_name"`
	TargetPrice    float64   `json:"target_price" db:"target_price"`
	LastKnownPrice float64   `json:"last_known_price" db:"last_known_price"`
	Active         bool      `json:"active" db:"active"`
	LastChecked    time.Time `json:"last_checked" db:"last_checked"`
}

// Achievement is a durable marker that a spending milestone was reached
// and notified. Its existence is the already-sent flag; milestones
// never reset.
type Achievement struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	Milestone     int64     `json:"milestone" db:"milestone"`
	TotalSpending float64   `json:"total_spending" db:"total_spending"`
	AchievedAt    time.Time `json:"achieved_at" db:"achieved_at"`
}

// AchievementID builds the deterministic key for a (user, milestone)
// pair, so creation can be conditional on absence.
func AchievementID(userID string, milestone int64) string {
	return fmt.Sprintf("%s_spending_%d", userID, milestone)
}

// Notification is an append-only audit record of a delivered push
// message. Rows are never mutated; the retention sweeper deletes them
// in bulk past the horizon.
type Notification struct {
	ID        string            `json:"id" db:"id"`
	UserID    string            `json:"user_id" db:"user_id"`
	Kind      NotificationKind  `json:"type" db:"kind"`
	Title     string            `json:"title" db:"title"`
	Body      string            `json:"body" db:"body"`
	Timestamp time.Time         `json:"timestamp" db:"timestamp"`
	Read      bool              `json:"read" db:"read"`
	Data      map[string]string `json:"data,omitempty"`
}

// EligibleFilter selects users for one job kind. Enabled is always
// required; each true field additionally requires that opt-in.
type EligibleFilter struct {
	BudgetAlerts     bool
	PriceDrops       bool
	SpendingInsights bool
}

// MonthKey formats t's month as the period key budgets are stored
// under, e.g. "2026-09".
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// MonthBounds returns the half-open [start, end) window of t's
// calendar month in UTC.
func MonthBounds(t time.Time) (start, end time.Time) {
	u := t.UTC()
	start = time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0)
	return start, end
}

// ParseMonthKey parses a "YYYY-MM" period key back into the first
// instant of that month in UTC.
func ParseMonthKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01", key, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse month key %q: %w", key, err)
	}
	return t, nil
}
