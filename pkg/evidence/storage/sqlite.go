package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"tork-hq/governance/pkg/evidence"
	"tork-hq/governance/pkg/evidence/query"
	"tork-hq/governance/pkg/pii"
	"tork-hq/governance/pkg/policy/engine"
)

const (
	// DriverCGO selects github.com/mattn/go-sqlite3.
	DriverCGO = "sqlite3"

	// DriverPure selects modernc.org/sqlite, which needs no C toolchain.
	DriverPure = "sqlite"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// Driver is the database/sql driver name, DriverCGO or DriverPure.
	// Default: DriverPure
	Driver string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/receipts.db",
		Driver:       DriverPure,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage creates a new SQLite storage backend.
// It initializes the database schema and enables WAL mode if configured.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	defaults := DefaultSQLiteConfig()
	if config == nil {
		config = defaults
	}
	cfg := *config
	if cfg.Path == "" {
		cfg.Path = defaults.Path
	}
	if cfg.Driver == "" {
		cfg.Driver = defaults.Driver
	}
	if cfg.Driver != DriverCGO && cfg.Driver != DriverPure {
		return nil, evidence.NewStorageError("sqlite", "open",
			fmt.Errorf("unknown driver %q (must be %q or %q)", cfg.Driver, DriverCGO, DriverPure))
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = defaults.MaxOpenConns
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = defaults.MaxIdleConns
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = defaults.BusyTimeout
	}
	// Each connection to :memory: is a separate database.
	if cfg.Path == ":memory:" {
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
		cfg.WALMode = false
	}

	logger := slog.Default().With("component", "evidence.storage.sqlite")

	db, err := sql.Open(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "open", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: &cfg,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", cfg.Path,
		"driver", cfg.Driver,
		"wal_mode", cfg.WALMode,
		"max_open_conns", cfg.MaxOpenConns,
	)

	return s, nil
}

// initialize sets up the database schema and enables WAL mode.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return evidence.NewStorageError("sqlite", "enable_wal", err)
		}
		s.logger.Debug("WAL mode enabled")
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return evidence.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return evidence.NewStorageError("sqlite", "create_schema", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return evidence.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return evidence.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return evidence.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// Store persists a receipt to the database.
func (s *SQLiteStorage) Store(ctx context.Context, receipt *evidence.Receipt) error {
	if receipt == nil || receipt.ReceiptID == "" {
		return evidence.NewStorageError("sqlite", "store", fmt.Errorf("receipt id is required"))
	}

	types := receipt.DetectedTypes
	if types == nil {
		types = []pii.PIIType{}
	}
	detected, err := json.Marshal(types)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO receipts ("+receiptColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		receipt.ReceiptID, receipt.Timestamp.UnixNano(),
		receipt.InputHash, receipt.OutputHash,
		receipt.PolicyVersion, string(detected), string(receipt.Action), receipt.ProcessingTimeNs,
	)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return evidence.NewStorageError("sqlite", "store",
			fmt.Errorf("receipt %s: %w", receipt.ReceiptID, evidence.ErrDuplicateReceipt))
	}
	return nil
}

// Get retrieves a single receipt by ID.
func (s *SQLiteStorage) Get(ctx context.Context, receiptID string) (*evidence.Receipt, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+receiptColumns+" FROM receipts WHERE receipt_id = ?", receiptID)

	receipt, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, evidence.ErrNotFound
	}
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "get", err)
	}
	return receipt, nil
}

// Query retrieves receipts matching the query filters.
func (s *SQLiteStorage) Query(ctx context.Context, q *evidence.Query) ([]*evidence.Receipt, error) {
	if err := query.Validate(q); err != nil {
		return nil, err
	}

	sqlQuery, args := s.buildSelect(q)
	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	receipts := []*evidence.Receipt{}
	for rows.Next() {
		receipt, err := scanReceipt(rows)
		if err != nil {
			return nil, evidence.NewStorageError("sqlite", "scan", err)
		}
		receipts = append(receipts, receipt)
	}
	if err := rows.Err(); err != nil {
		return nil, evidence.NewStorageError("sqlite", "query", err)
	}
	return receipts, nil
}

// QueryStream returns a channel of receipts for memory-efficient streaming.
// Use this for large result sets to avoid loading everything in memory.
// The channels will be closed when the query completes or errors.
func (s *SQLiteStorage) QueryStream(ctx context.Context, q *evidence.Query) (<-chan *evidence.Receipt, <-chan error, error) {
	if err := query.Validate(q); err != nil {
		return nil, nil, err
	}

	receiptsCh := make(chan *evidence.Receipt, 100)
	errCh := make(chan error, 1)
	sqlQuery, args := s.buildSelect(q)

	go func() {
		defer close(receiptsCh)
		defer close(errCh)

		rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
		if err != nil {
			errCh <- evidence.NewStorageError("sqlite", "query_stream", err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			receipt, err := scanReceipt(rows)
			if err != nil {
				errCh <- evidence.NewStorageError("sqlite", "scan", err)
				return
			}

			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case receiptsCh <- receipt:
			}
		}

		if err := rows.Err(); err != nil {
			errCh <- evidence.NewStorageError("sqlite", "query_stream", err)
		}
	}()

	return receiptsCh, errCh, nil
}

// Count returns the number of receipts matching the query filters.
func (s *SQLiteStorage) Count(ctx context.Context, q *evidence.Query) (int64, error) {
	sqlQuery := "SELECT COUNT(*) FROM receipts"
	whereClause, args := buildWhereClause(q)
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, evidence.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes receipts matching the query filters and returns the number
// deleted. Limit and offset apply to the sorted match set.
func (s *SQLiteStorage) Delete(ctx context.Context, q *evidence.Query) (int64, error) {
	whereClause, args := buildWhereClause(q)

	sqlQuery := "DELETE FROM receipts"
	switch {
	case q.Limit > 0 || q.Offset > 0:
		sqlQuery += " WHERE receipt_id IN (SELECT receipt_id FROM receipts"
		if whereClause != "" {
			sqlQuery += " WHERE " + whereClause
		}
		sqlQuery += orderClause(q) + limitClause(q) + ")"
	case whereClause != "":
		sqlQuery += " WHERE " + whereClause
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "delete", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "delete", err)
	}
	return count, nil
}

// Close releases resources held by the storage backend.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return evidence.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite storage closed")
	return nil
}

func (s *SQLiteStorage) buildSelect(q *evidence.Query) (string, []interface{}) {
	sqlQuery := "SELECT " + receiptColumns + " FROM receipts"
	whereClause, args := buildWhereClause(q)
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}
	return sqlQuery + orderClause(q) + limitClause(q), args
}

// buildWhereClause builds a SQL WHERE clause from query filters.
// Returns the WHERE clause (without "WHERE" keyword) and the query arguments.
func buildWhereClause(q *evidence.Query) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if q.StartTime != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, q.StartTime.UnixNano())
	}
	if q.EndTime != nil {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, q.EndTime.UnixNano())
	}
	if q.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, string(q.Action))
	}
	if q.PolicyVersion != "" {
		conditions = append(conditions, "policy_version = ?")
		args = append(args, q.PolicyVersion)
	}
	if q.PIIType != "" {
		// detected_types is a JSON array of quoted names.
		conditions = append(conditions, "detected_types LIKE ?")
		args = append(args, `%"`+string(q.PIIType)+`"%`)
	}

	return strings.Join(conditions, " AND "), args
}

func orderClause(q *evidence.Query) string {
	order := "DESC"
	if q.SortOrder == "asc" {
		order = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, receipt_id %s", query.ColumnFor(q.SortBy), order, order)
}

func limitClause(q *evidence.Query) string {
	if q.Limit <= 0 && q.Offset <= 0 {
		return ""
	}
	limit := -1
	if q.Limit > 0 {
		limit = q.Limit
	}
	clause := fmt.Sprintf(" LIMIT %d", limit)
	if q.Offset > 0 {
		clause += fmt.Sprintf(" OFFSET %d", q.Offset)
	}
	return clause
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanReceipt scans a database row into a Receipt.
func scanReceipt(row rowScanner) (*evidence.Receipt, error) {
	var (
		receipt  evidence.Receipt
		tsNanos  int64
		detected string
		action   string
	)

	err := row.Scan(
		&receipt.ReceiptID, &tsNanos,
		&receipt.InputHash, &receipt.OutputHash,
		&receipt.PolicyVersion, &detected, &action, &receipt.ProcessingTimeNs,
	)
	if err != nil {
		return nil, err
	}

	receipt.Timestamp = time.Unix(0, tsNanos).UTC()
	receipt.Action = engine.Action(action)
	receipt.DetectedTypes = []pii.PIIType{}
	if detected != "" {
		if err := json.Unmarshal([]byte(detected), &receipt.DetectedTypes); err != nil {
			return nil, fmt.Errorf("decoding detected_types: %w", err)
		}
	}
	return &receipt, nil
}
