/*
Package sqlite persists the budgeting model the engine reads from.

PURPOSE:
  Stores budgets, posts, amount patterns, containers, category pools and
  bank holidays. The engine itself never touches this package: occurrences
  are recomputed on demand from stored patterns, never persisted, and the
  bank calendar is materialized into an in-memory snapshot before any
  generation call.

KEY TABLES:
  budgets:        budget records
  posts:          budget posts (direction, category, transfer endpoints)
  patterns:       amount patterns as pattern JSON, ordered per post
  containers:     account pools with starting balances
  category_pools: container pools declared per category path
  holidays:       bank holidays consumed by the calendar snapshot

PATTERN STORAGE:
  The recurrence union is stored as the same tagged JSON the API speaks
  (factory.PatternJSON), so stored rows and draft previews share one shape.
  Amounts are INTEGER minor units throughout.

WAL MODE:
  SQLite is opened with WAL for read concurrency, as the dashboard fans out
  one read-only projection per budget.

SEE ALSO:
  - factory/pattern.go: the JSON codec
  - api/refresher.go:   holiday snapshot rebuilds
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/openbudget/forecast-engine/bankday"
	"github.com/openbudget/forecast-engine/factory"
	"github.com/openbudget/forecast-engine/forecast"
	"github.com/openbudget/forecast-engine/recurrence"
)

// Store implements persistence over SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (and migrates) a store at the given path. Use ":memory:" for
// an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS budgets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS containers (
		id TEXT PRIMARY KEY,
		budget_id TEXT NOT NULL REFERENCES budgets(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		start_balance INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_containers_budget ON containers(budget_id);

	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		budget_id TEXT NOT NULL REFERENCES budgets(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		direction TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		accumulate INTEGER NOT NULL DEFAULT 0,
		from_container TEXT,
		to_container TEXT,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);
	CREATE INDEX IF NOT EXISTS idx_posts_budget ON posts(budget_id);

	CREATE TABLE IF NOT EXISTS patterns (
		id TEXT PRIMARY KEY,
		post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		pattern_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_patterns_post ON patterns(post_id, position);

	CREATE TABLE IF NOT EXISTS category_pools (
		budget_id TEXT NOT NULL REFERENCES budgets(id) ON DELETE CASCADE,
		path TEXT NOT NULL,
		container_id TEXT NOT NULL,
		PRIMARY KEY (budget_id, path, container_id)
	);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT ''
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_date ON holidays(date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// BUDGETS
// =============================================================================

// BudgetRecord is a stored budget row.
type BudgetRecord struct {
	ID   string
	Name string
}

// SaveBudget inserts or updates a budget. A missing ID is generated.
func (s *Store) SaveBudget(ctx context.Context, b *BudgetRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		b.ID, b.Name)
	return err
}

// GetBudget returns a budget, or nil when not found.
func (s *Store) GetBudget(ctx context.Context, id string) (*BudgetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b BudgetRecord
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM budgets WHERE id = ?`, id).
		Scan(&b.ID, &b.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBudgets returns every budget, by name.
func (s *Store) ListBudgets(ctx context.Context) ([]BudgetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM budgets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []BudgetRecord
	for rows.Next() {
		var b BudgetRecord
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// DeleteBudget removes a budget and, via cascade, its posts and patterns.
func (s *Store) DeleteBudget(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	return err
}

// =============================================================================
// CONTAINERS
// =============================================================================

// ContainerRecord is an account pool with its starting balance.
type ContainerRecord struct {
	ID           string
	BudgetID     string
	Name         string
	StartBalance recurrence.Amount
}

// SaveContainer inserts or updates a container.
func (s *Store) SaveContainer(ctx context.Context, c *ContainerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO containers (id, budget_id, name, start_balance) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, start_balance = excluded.start_balance`,
		c.ID, c.BudgetID, c.Name, int64(c.StartBalance))
	return err
}

// ListContainers returns a budget's containers.
func (s *Store) ListContainers(ctx context.Context, budgetID string) ([]ContainerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, budget_id, name, start_balance FROM containers WHERE budget_id = ? ORDER BY name`, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ContainerRecord
	for rows.Next() {
		var c ContainerRecord
		var balance int64
		if err := rows.Scan(&c.ID, &c.BudgetID, &c.Name, &balance); err != nil {
			return nil, err
		}
		c.StartBalance = recurrence.Amount(balance)
		out = append(out, c)
	}
	return out, rows.Err()
}

// StartingBalances returns a budget's balances keyed by container id, the
// shape the projector consumes.
func (s *Store) StartingBalances(ctx context.Context, budgetID string) (map[recurrence.ContainerID]recurrence.Amount, error) {
	containers, err := s.ListContainers(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	balances := make(map[recurrence.ContainerID]recurrence.Amount, len(containers))
	for _, c := range containers {
		balances[recurrence.ContainerID(c.ID)] = c.StartBalance
	}
	return balances, nil
}

// =============================================================================
// POSTS AND PATTERNS
// =============================================================================

// SavePost inserts or updates a post and replaces its pattern list.
func (s *Store) SavePost(ctx context.Context, budgetID string, post *forecast.BudgetPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if post.ID == "" {
		post.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO posts (id, budget_id, name, direction, category, accumulate, from_container, to_container)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, direction = excluded.direction, category = excluded.category,
			accumulate = excluded.accumulate, from_container = excluded.from_container,
			to_container = excluded.to_container`,
		post.ID, budgetID, post.Name, string(post.Direction), post.Category,
		boolToInt(post.Accumulate), string(post.FromContainer), string(post.ToContainer))
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM patterns WHERE post_id = ?`, post.ID); err != nil {
		return err
	}
	for i, p := range post.Patterns {
		encoded, err := factory.EncodePatternString(p)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO patterns (id, post_id, position, pattern_json) VALUES (?, ?, ?, ?)`,
			uuid.NewString(), post.ID, i, encoded)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadPosts returns a budget's posts with their patterns decoded, in the
// order they were stored.
func (s *Store) LoadPosts(ctx context.Context, budgetID string) ([]forecast.BudgetPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, direction, category, accumulate, from_container, to_container
		FROM posts WHERE budget_id = ? ORDER BY created_at, id`, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []forecast.BudgetPost
	for rows.Next() {
		var p forecast.BudgetPost
		var direction, from, to string
		var accumulate int
		if err := rows.Scan(&p.ID, &p.Name, &direction, &p.Category, &accumulate, &from, &to); err != nil {
			return nil, err
		}
		p.Direction = forecast.Direction(direction)
		p.Accumulate = accumulate != 0
		p.FromContainer = recurrence.ContainerID(from)
		p.ToContainer = recurrence.ContainerID(to)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range posts {
		patterns, err := s.loadPatterns(ctx, posts[i].ID, posts[i].Direction == forecast.Transfer)
		if err != nil {
			return nil, err
		}
		posts[i].Patterns = patterns
	}
	return posts, nil
}

func (s *Store) loadPatterns(ctx context.Context, postID string, forTransfer bool) ([]recurrence.AmountPattern, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pattern_json FROM patterns WHERE post_id = ? ORDER BY position`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patterns []recurrence.AmountPattern
	for rows.Next() {
		var encoded string
		if err := rows.Scan(&encoded); err != nil {
			return nil, err
		}
		p, err := factory.ParsePatternString(encoded, forTransfer)
		if err != nil {
			return nil, fmt.Errorf("stored pattern for post %s: %w", postID, err)
		}
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

// DeletePost removes a post and its patterns.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	return err
}

// =============================================================================
// CATEGORY POOLS
// =============================================================================

// SetCategoryPool replaces the container pool declared on a category path.
func (s *Store) SetCategoryPool(ctx context.Context, budgetID, path string, pool []recurrence.ContainerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM category_pools WHERE budget_id = ? AND path = ?`, budgetID, path); err != nil {
		return err
	}
	for _, c := range pool {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO category_pools (budget_id, path, container_id) VALUES (?, ?, ?)`,
			budgetID, path, string(c)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CategoryTree loads a budget's pool declarations into a resolvable tree.
func (s *Store) CategoryTree(ctx context.Context, budgetID string) (*forecast.CategoryTree, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT path, container_id FROM category_pools WHERE budget_id = ? ORDER BY path`, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pools := make(map[string][]recurrence.ContainerID)
	for rows.Next() {
		var path, container string
		if err := rows.Scan(&path, &container); err != nil {
			return nil, err
		}
		pools[path] = append(pools[path], recurrence.ContainerID(container))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tree := forecast.NewCategoryTree()
	for path, pool := range pools {
		tree.SetPool(path, pool)
	}
	return tree, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// SaveHoliday inserts or updates a bank holiday.
func (s *Store) SaveHoliday(ctx context.Context, date recurrence.Date, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, date, name) VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET name = excluded.name`,
		uuid.NewString(), date.String(), name)
	return err
}

// DeleteHoliday removes the holiday on the given date.
func (s *Store) DeleteHoliday(ctx context.Context, date recurrence.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM holidays WHERE date = ?`, date.String())
	return err
}

// ListHolidays returns all stored holidays, ascending by date.
func (s *Store) ListHolidays(ctx context.Context) ([]bankday.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT date, name FROM holidays ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []bankday.Holiday
	for rows.Next() {
		var dateStr, name string
		if err := rows.Scan(&dateStr, &name); err != nil {
			return nil, err
		}
		d, err := recurrence.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("stored holiday date %q: %w", dateStr, err)
		}
		holidays = append(holidays, bankday.Holiday{Date: d, Name: name})
	}
	return holidays, rows.Err()
}

// CalendarSnapshot materializes the holiday table into an immutable bank
// calendar for the engine.
func (s *Store) CalendarSnapshot(ctx context.Context) (*bankday.Table, error) {
	holidays, err := s.ListHolidays(ctx)
	if err != nil {
		return nil, err
	}
	return bankday.NewTable(holidays), nil
}

// Reset drops all data. Dev/demo use only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"patterns", "posts", "category_pools", "containers", "budgets", "holidays"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
