package postgres

import "database/sql"

// migrations mirror the SQLite schema. Money columns are NUMERIC; the driver
// hands them to the scanner as strings so no float conversion happens. The
// empty group_id is the global (no-group) scope, keeping the balances primary
// key non-null.
const schema = `
CREATE TABLE IF NOT EXISTS groups (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS group_members (
    group_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    PRIMARY KEY (group_id, user_id),
    FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS balances (
    ower TEXT NOT NULL,
    owed_to TEXT NOT NULL,
    amount NUMERIC(20, 6) NOT NULL,
    group_id TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (ower, owed_to, group_id)
);

CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    description TEXT NOT NULL,
    amount NUMERIC(20, 6) NOT NULL,
    paid_by TEXT NOT NULL,
    created_by TEXT NOT NULL,
    group_id TEXT NOT NULL DEFAULT '',
    split_type TEXT NOT NULL,
    created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS expense_participants (
    expense_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    amount NUMERIC(20, 6) NOT NULL,
    percentage NUMERIC(20, 6) NOT NULL DEFAULT 0,
    PRIMARY KEY (expense_id, user_id),
    FOREIGN KEY (expense_id) REFERENCES expenses(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS settlements (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL DEFAULT '',
    from_user_id TEXT NOT NULL,
    to_user_id TEXT NOT NULL,
    amount NUMERIC(20, 6) NOT NULL,
    created_at BIGINT NOT NULL,
    created_by TEXT NOT NULL,
    note TEXT
);

CREATE INDEX IF NOT EXISTS idx_balances_group_id ON balances(group_id);
CREATE INDEX IF NOT EXISTS idx_balances_owed_to ON balances(owed_to, group_id);
CREATE INDEX IF NOT EXISTS idx_expenses_group_id ON expenses(group_id);
CREATE INDEX IF NOT EXISTS idx_expense_participants_expense_id ON expense_participants(expense_id);
CREATE INDEX IF NOT EXISTS idx_expense_participants_user_id ON expense_participants(user_id);
CREATE INDEX IF NOT EXISTS idx_settlements_group_id ON settlements(group_id);
CREATE INDEX IF NOT EXISTS idx_group_members_group_id ON group_members(group_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
