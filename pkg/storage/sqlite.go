package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spendsentry/spendsentry/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLite implements the Store interface using an SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// busy_timeout applies per connection, so it goes in the DSN where
	// every pooled connection picks it up; overlapping runs then queue
	// on the write lock instead of failing fast.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, fcm_token, notify_enabled, budget_alerts, price_drops, spending_insights, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.FCMToken,
		user.Settings.Enabled, user.Settings.BudgetAlerts,
		user.Settings.PriceDrops, user.Settings.SpendingInsights,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLite) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, fcm_token, notify_enabled, budget_alerts, price_drops, spending_insights, created_at
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.FCMToken, &u.Settings.Enabled, &u.Settings.BudgetAlerts,
		&u.Settings.PriceDrops, &u.Settings.SpendingInsights, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *SQLite) ListEligibleUsers(ctx context.Context, filter model.EligibleFilter) ([]model.User, error) {
	query := `SELECT id, fcm_token, notify_enabled, budget_alerts, price_drops, spending_insights, created_at
		FROM users WHERE notify_enabled = 1`
	if filter.BudgetAlerts {
		query += " AND budget_alerts = 1"
	}
	if filter.PriceDrops {
		query += " AND price_drops = 1"
	}
	if filter.SpendingInsights {
		query += " AND spending_insights = 1"
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list eligible users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.FCMToken, &u.Settings.Enabled, &u.Settings.BudgetAlerts,
			&u.Settings.PriceDrops, &u.Settings.SpendingInsights, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLite) CreateBudget(ctx context.Context, budget *model.Budget) error {
	if budget.ID == "" {
		budget.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if budget.CreatedAt.IsZero() {
		budget.CreatedAt = now
	}
	budget.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (id, user_id, category, month, limit_usd,
			seventy_five_pct_alert_sent, ninety_pct_alert_sent, overage_alert_sent,
			created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, category, month) DO UPDATE SET
		   limit_usd = excluded.limit_usd,
		   updated_at = excluded.updated_at`,
		budget.ID, budget.UserID, budget.Category, budget.Month, budget.LimitUSD,
		budget.SeventyFivePctSent, budget.NinetyPctSent, budget.OverageSent,
		budget.CreatedAt, budget.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create budget: %w", err)
	}
	return nil
}

const budgetColumns = `id, user_id, category, month, limit_usd,
	seventy_five_pct_alert_sent, ninety_pct_alert_sent, overage_alert_sent,
	created_at, updated_at`

func scanBudget(rows *sql.Rows) (model.Budget, error) {
	var b model.Budget
	err := rows.Scan(&b.ID, &b.UserID, &b.Category, &b.Month, &b.LimitUSD,
		&b.SeventyFivePctSent, &b.NinetyPctSent, &b.OverageSent,
		&b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (s *SQLite) ListBudgets(ctx context.Context, userID, month string) ([]model.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+budgetColumns+" FROM budgets WHERE user_id = ? AND month = ? ORDER BY category",
		userID, month)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []model.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget row: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (s *SQLite) ListAllBudgets(ctx context.Context) ([]model.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+budgetColumns+" FROM budgets ORDER BY user_id, month, category")
	if err != nil {
		return nil, fmt.Errorf("list all budgets: %w", err)
	}
	defer rows.Close()

	var budgets []model.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget row: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// validFlag guards the column name interpolated into flag updates.
func validFlag(flag string) bool {
	switch flag {
	case model.FlagSeventyFivePct, model.FlagNinetyPct, model.FlagOverage:
		return true
	}
	return false
}

func (s *SQLite) MarkAlertSent(ctx context.Context, budgetID, flag string) (bool, error) {
	if !validFlag(flag) {
		return false, fmt.Errorf("unknown alert flag %q", flag)
	}

	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE budgets SET %s = 1, updated_at = ? WHERE id = ? AND %s = 0", flag, flag),
		time.Now().UTC(), budgetID,
	)
	if err != nil {
		return false, fmt.Errorf("mark alert sent: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	return rows == 1, nil
}

func (s *SQLite) ClearAlertFlag(ctx context.Context, budgetID, flag string) error {
	if !validFlag(flag) {
		return fmt.Errorf("unknown alert flag %q", flag)
	}

	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE budgets SET %s = 0, updated_at = ? WHERE id = ?", flag),
		time.Now().UTC(), budgetID,
	)
	if err != nil {
		return fmt.Errorf("clear alert flag: %w", err)
	}
	return nil
}

func (s *SQLite) ResetAlertFlags(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE budgets SET
			seventy_five_pct_alert_sent = 0,
			ninety_pct_alert_sent = 0,
			overage_alert_sent = 0,
			updated_at = ?`,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("reset alert flags: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}
	return rows, nil
}

func (s *SQLite) AddTransaction(ctx context.Context, tx *model.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.Date.IsZero() {
		tx.Date = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, category, type, amount_usd, date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, tx.Category, tx.Type, tx.AmountUSD, tx.Date,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *SQLite) SumTransactions(ctx context.Context, userID, category string, start, end time.Time) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_usd), 0) FROM transactions
		 WHERE user_id = ? AND category = ? AND type = 'expense' AND date >= ? AND date < ?`,
		userID, category, start, end,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum transactions: %w", err)
	}
	return total, nil
}

func (s *SQLite) SumLifetimeSpend(ctx context.Context, userID string) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_usd), 0) FROM transactions
		 WHERE user_id = ? AND type = 'expense'`,
		userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum lifetime spend: %w", err)
	}
	return total, nil
}

func (s *SQLite) CreateTrackedItem(ctx context.Context, item *model.TrackedItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.LastChecked.IsZero() {
		item.LastChecked = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO price_tracking (id, user_id, item_name, target_price, last_known_price, active, last_checked)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.UserID, item.ItemName, item.TargetPrice,
		item.LastKnownPrice, item.Active, item.LastChecked,
	)
	if err != nil {
		return fmt.Errorf("insert tracked item: %w", err)
	}
	return nil
}

func (s *SQLite) ListTrackedItems(ctx context.Context, userID string) ([]model.TrackedItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, item_name, target_price, last_known_price, active, last_checked
		 FROM price_tracking WHERE user_id = ? AND active = 1 ORDER BY item_name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list tracked items: %w", err)
	}
	defer rows.Close()

	var items []model.TrackedItem
	for rows.Next() {
		var it model.TrackedItem
		if err := rows.Scan(&it.ID, &it.UserID, &it.ItemName, &it.TargetPrice,
			&it.LastKnownPrice, &it.Active, &it.LastChecked); err != nil {
			return nil, fmt.Errorf("scan tracked item row: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *SQLite) UpdateItemPrice(ctx context.Context, itemID string, price float64, checkedAt time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE price_tracking SET last_known_price = ?, last_checked = ? WHERE id = ?`,
		price, checkedAt, itemID,
	)
	if err != nil {
		return fmt.Errorf("update item price: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("tracked item %q not found", itemID)
	}
	return nil
}

func (s *SQLite) CreateAchievement(ctx context.Context, a *model.Achievement) (bool, error) {
	if a.ID == "" {
		a.ID = model.AchievementID(a.UserID, a.Milestone)
	}
	if a.AchievedAt.IsZero() {
		a.AchievedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO achievements (id, user_id, milestone, total_spending, achieved_at)
		 VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Milestone, a.TotalSpending, a.AchievedAt,
	)
	if err != nil {
		return false, fmt.Errorf("create achievement: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	return rows == 1, nil
}

func (s *SQLite) DeleteAchievement(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM achievements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete achievement: %w", err)
	}
	return nil
}

func (s *SQLite) ListAchievements(ctx context.Context, userID string) ([]model.Achievement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, milestone, total_spending, achieved_at
		 FROM achievements WHERE user_id = ? ORDER BY milestone`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	var achievements []model.Achievement
	for rows.Next() {
		var a model.Achievement
		if err := rows.Scan(&a.ID, &a.UserID, &a.Milestone, &a.TotalSpending, &a.AchievedAt); err != nil {
			return nil, fmt.Errorf("scan achievement row: %w", err)
		}
		achievements = append(achievements, a)
	}
	return achievements, rows.Err()
}

func (s *SQLite) AddNotification(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}

	data := "{}"
	if len(n.Data) > 0 {
		raw, err := json.Marshal(n.Data)
		if err != nil {
			return fmt.Errorf("marshal notification data: %w", err)
		}
		data = string(raw)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, kind, title, body, timestamp, read, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Kind, n.Title, n.Body, n.Timestamp, n.Read, data,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *SQLite) ListNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, kind, title, body, timestamp, read, data
		 FROM notifications WHERE user_id = ? ORDER BY timestamp DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		var data string
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body,
			&n.Timestamp, &n.Read, &data); err != nil {
			return nil, fmt.Errorf("scan notification row: %w", err)
		}
		if data != "" && data != "{}" {
			if err := json.Unmarshal([]byte(data), &n.Data); err != nil {
				return nil, fmt.Errorf("unmarshal notification data: %w", err)
			}
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *SQLite) PurgeNotifications(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge notifications: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}
	return rows, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
