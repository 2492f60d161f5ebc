package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is the hedge journal: one row per session, one row per order.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			exchange TEXT NOT NULL,
			symbol TEXT NOT NULL,
			amount_usdt REAL NOT NULL,
			leverage INTEGER NOT NULL,
			quantity REAL NOT NULL DEFAULT 0,
			long_entry REAL NOT NULL DEFAULT 0,
			short_entry REAL NOT NULL DEFAULT 0,
			long_take_profit REAL NOT NULL DEFAULT 0,
			short_take_profit REAL NOT NULL DEFAULT 0,
			state TEXT NOT NULL,
			trigger_side TEXT NOT NULL DEFAULT '',
			stop_price REAL NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			order_id TEXT NOT NULL,
			exchange TEXT NOT NULL,
			symbol TEXT NOT NULL,
			role TEXT NOT NULL,
			side TEXT NOT NULL,
			position_side TEXT NOT NULL,
			type TEXT NOT NULL,
			quantity REAL NOT NULL,
			price REAL NOT NULL,
			avg_price REAL NOT NULL,
			stop_price REAL NOT NULL,
			status TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_session ON orders(session_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

// SaveSession inserts the session or overwrites its previous row.
func (s *SQLiteStore) SaveSession(ctx context.Context, sess *domain.HedgeSession) error {
	var triggerSide string
	var stopPrice float64
	if sess.Trigger != nil {
		triggerSide = string(sess.Trigger.Side)
		stopPrice = sess.Trigger.StopPrice
	}

	query := `INSERT INTO sessions (id, exchange, symbol, amount_usdt, leverage, quantity, long_entry, short_entry,
				long_take_profit, short_take_profit, state, trigger_side, stop_price, error, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(id) DO UPDATE SET
			  quantity=excluded.quantity,
			  long_entry=excluded.long_entry,
			  short_entry=excluded.short_entry,
			  long_take_profit=excluded.long_take_profit,
			  short_take_profit=excluded.short_take_profit,
			  state=excluded.state,
			  trigger_side=excluded.trigger_side,
			  stop_price=excluded.stop_price,
			  error=excluded.error,
			  updated_at=excluded.updated_at`
	_, err := s.db.ExecContext(ctx, query,
		sess.ID, sess.Exchange, sess.Symbol, sess.AmountUSDT, sess.Leverage, sess.Quantity,
		sess.LongEntry, sess.ShortEntry, sess.LongTakeProfit, sess.ShortTakeProfit,
		string(sess.State), triggerSide, stopPrice, sess.Error, sess.CreatedAt, sess.UpdatedAt)
	return err
}

// LatestSession returns the most recently created session, or nil when there is none.
func (s *SQLiteStore) LatestSession(ctx context.Context) (*domain.HedgeSession, error) {
	query := `SELECT id, exchange, symbol, amount_usdt, leverage, quantity, long_entry, short_entry,
				long_take_profit, short_take_profit, state, trigger_side, stop_price, error, created_at, updated_at
			  FROM sessions ORDER BY created_at DESC LIMIT 1`
	row := s.db.QueryRowContext(ctx, query)

	var sess domain.HedgeSession
	var triggerSide string
	var stopPrice float64
	err := row.Scan(&sess.ID, &sess.Exchange, &sess.Symbol, &sess.AmountUSDT, &sess.Leverage, &sess.Quantity,
		&sess.LongEntry, &sess.ShortEntry, &sess.LongTakeProfit, &sess.ShortTakeProfit,
		&sess.State, &triggerSide, &stopPrice, &sess.Error, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if triggerSide != "" {
		sess.Trigger = &domain.Trigger{Side: domain.Side(triggerSide), StopPrice: stopPrice}
	}
	return &sess, nil
}

func (s *SQLiteStore) SaveOrder(ctx context.Context, sessionID string, order *domain.Order) error {
	query := `INSERT INTO orders (session_id, order_id, exchange, symbol, role, side, position_side, type,
				quantity, price, avg_price, stop_price, status, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		sessionID, order.OrderID, order.Exchange, order.Symbol, string(order.Role), string(order.Side),
		string(order.PositionSide), string(order.Type), order.Quantity, order.Price, order.AvgPrice,
		order.StopPrice, order.Status, order.CreatedAt)
	return err
}

// ListOrders returns the newest orders first.
func (s *SQLiteStore) ListOrders(ctx context.Context, limit int) ([]*domain.Order, error) {
	query := `SELECT order_id, exchange, symbol, role, side, position_side, type, quantity, price, avg_price,
				stop_price, status, created_at
			  FROM orders ORDER BY id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.OrderID, &o.Exchange, &o.Symbol, &o.Role, &o.Side, &o.PositionSide, &o.Type,
			&o.Quantity, &o.Price, &o.AvgPrice, &o.StopPrice, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, &o)
	}
	return orders, rows.Err()
}
