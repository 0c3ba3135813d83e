package storage

import (
	"database/sql"
	"fmt"
)

var migrations = []string{
	// Migration 1: Initial schema
	`CREATE TABLE IF NOT EXISTS users (
		id                TEXT PRIMARY KEY,
		fcm_token         TEXT NOT NULL DEFAULT '',
		notify_enabled    INTEGER NOT NULL DEFAULT 1,
		budget_alerts     INTEGER NOT NULL DEFAULT 1,
		price_drops       INTEGER NOT NULL DEFAULT 1,
		spending_insights INTEGER NOT NULL DEFAULT 1,
		created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS budgets (
		id                          TEXT PRIMARY KEY,
		user_id                     TEXT NOT NULL REFERENCES users(id),
		category                    TEXT NOT NULL,
		month                       TEXT NOT NULL,
		limit_usd                   REAL NOT NULL,
		seventy_five_pct_alert_sent INTEGER NOT NULL DEFAULT 0,
		ninety_pct_alert_sent       INTEGER NOT NULL DEFAULT 0,
		overage_alert_sent          INTEGER NOT NULL DEFAULT 0,
		created_at                  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at                  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, category, month)
	);

	CREATE INDEX IF NOT EXISTS idx_budgets_user_month ON budgets(user_id, month);

	CREATE TABLE IF NOT EXISTS transactions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id),
		category   TEXT NOT NULL,
		type       TEXT NOT NULL CHECK(type IN ('expense', 'income')),
		amount_usd REAL NOT NULL,
		date       DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tx_user_type ON transactions(user_id, type);
	CREATE INDEX IF NOT EXISTS idx_tx_user_category_date ON transactions(user_id, category, date);

	CREATE TABLE IF NOT EXISTS price_tracking (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL REFERENCES users(id),
		item_name        TEXT NOT NULL,
		target_price     REAL NOT NULL,
		last_known_price REAL NOT NULL,
		active           INTEGER NOT NULL DEFAULT 1,
		last_checked     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_tracking_user_active ON price_tracking(user_id, active);

	CREATE TABLE IF NOT EXISTS achievements (
		id             TEXT PRIMARY KEY,
		user_id        TEXT NOT NULL REFERENCES users(id),
		milestone      INTEGER NOT NULL,
		total_spending REAL NOT NULL,
		achieved_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_achievements_user ON achievements(user_id);

	CREATE TABLE IF NOT EXISTS notifications (
		id        TEXT PRIMARY KEY,
		user_id   TEXT NOT NULL,
		kind      TEXT NOT NULL,
		title     TEXT NOT NULL,
		body      TEXT NOT NULL,
		timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		read      INTEGER NOT NULL DEFAULT 0,
		data      TEXT NOT NULL DEFAULT '{}'
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id);
	CREATE INDEX IF NOT EXISTS idx_notifications_timestamp ON notifications(timestamp);

	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
}

// runMigrations applies pending schema migrations.
func runMigrations(db *sql.DB) error {
	// Ensure migration tracking table exists
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create migration table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("check migration version: %w", err)
	}

	for i := currentVersion; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec(migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("run migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", i+1); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", i+1, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", i+1, err)
		}
	}

	return nil
}
