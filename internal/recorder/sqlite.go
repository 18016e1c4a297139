package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"FXSentinel/internal/model"
)

// SQLiteStore keeps the latest row per pair in a local SQLite table. It is a
// stand-in for the remote database when running offline.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set WAL mode")
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}
	logger.Info("sqlite store opened", zap.String("path", dbPath))
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS fx_rows (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			name          TEXT NOT NULL,
			current_price REAL,
			daily_high    REAL,
			daily_low     REAL,
			ten_day_high  REAL,
			ten_day_low   REAL,
			bb_upper      REAL,
			bb_lower      REAL,
			updated_at    TEXT,
			flags         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fx_rows_name ON fx_rows(name)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) Name() string { return "sqlite" }

// ListRows returns rows in insertion order, so later duplicates win in an index.
func (s *SQLiteStore) ListRows(ctx context.Context) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM fx_rows ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "list rows")
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, errors.Wrap(err, "scan row")
		}
		out = append(out, Row{Handle: strconv.FormatInt(id, 10), Name: name})
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Create(ctx context.Context, f Fields) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flags, err := json.Marshal(flagsOrEmpty(f.Flags))
	if err != nil {
		return "", errors.Wrap(err, "encode flags")
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO fx_rows
		(name, current_price, daily_high, daily_low, ten_day_high, ten_day_low,
		 bb_upper, bb_lower, updated_at, flags)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		f.Name, f.CurrentPrice, toNull(f.DailyHigh), toNull(f.DailyLow), f.TenDayHigh, f.TenDayLow,
		toNull(f.BBUpper), toNull(f.BBLower), f.UpdatedAt.UTC().Format(time.RFC3339Nano), string(flags),
	)
	if err != nil {
		return "", errors.Wrapf(err, "insert row %s", f.Name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", errors.Wrap(err, "last insert id")
	}
	return strconv.FormatInt(id, 10), nil
}

func (s *SQLiteStore) Update(ctx context.Context, handle string, f Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := strconv.ParseInt(handle, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "bad row handle %q", handle)
	}
	flags, err := json.Marshal(flagsOrEmpty(f.Flags))
	if err != nil {
		return errors.Wrap(err, "encode flags")
	}
	res, err := s.db.ExecContext(ctx, `UPDATE fx_rows SET
		name = ?, current_price = ?, daily_high = ?, daily_low = ?,
		ten_day_high = ?, ten_day_low = ?, bb_upper = ?, bb_lower = ?,
		updated_at = ?, flags = ?
		WHERE id = ?`,
		f.Name, f.CurrentPrice, toNull(f.DailyHigh), toNull(f.DailyLow),
		f.TenDayHigh, f.TenDayLow, toNull(f.BBUpper), toNull(f.BBLower),
		f.UpdatedAt.UTC().Format(time.RFC3339Nano), string(flags), id,
	)
	if err != nil {
		return errors.Wrapf(err, "update row %s", handle)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Errorf("update row %s: no such row", handle)
	}
	return nil
}

// Get reads back the fields stored under handle.
func (s *SQLiteStore) Get(ctx context.Context, handle string) (Fields, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := strconv.ParseInt(handle, 10, 64)
	if err != nil {
		return Fields{}, errors.Wrapf(err, "bad row handle %q", handle)
	}
	var (
		f                           Fields
		dHigh, dLow, bbUpper, bbLow sql.NullFloat64
		updatedAt, flags            string
	)
	err = s.db.QueryRowContext(ctx, `SELECT name, current_price, daily_high, daily_low,
		ten_day_high, ten_day_low, bb_upper, bb_lower, updated_at, flags
		FROM fx_rows WHERE id = ?`, id).Scan(
		&f.Name, &f.CurrentPrice, &dHigh, &dLow, &f.TenDayHigh, &f.TenDayLow,
		&bbUpper, &bbLow, &updatedAt, &flags,
	)
	if err != nil {
		return Fields{}, errors.Wrapf(err, "get row %s", handle)
	}
	f.DailyHigh, f.DailyLow = fromNull(dHigh), fromNull(dLow)
	f.BBUpper, f.BBLower = fromNull(bbUpper), fromNull(bbLow)
	if f.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return Fields{}, errors.Wrap(err, "parse updated_at")
	}
	if err := json.Unmarshal([]byte(flags), &f.Flags); err != nil {
		return Fields{}, errors.Wrap(err, "decode flags")
	}
	return f, nil
}

func (s *SQLiteStore) Close() error {
	s.logger.Info("closing sqlite store")
	return s.db.Close()
}

func toNull(v optional.Option[float64]) sql.NullFloat64 {
	if v.IsNone() {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v.Unwrap(), Valid: true}
}

func fromNull(v sql.NullFloat64) optional.Option[float64] {
	if !v.Valid {
		return optional.None[float64]()
	}
	return optional.Some(v.Float64)
}

func flagsOrEmpty(flags []model.Flag) []model.Flag {
	if flags == nil {
		return []model.Flag{}
	}
	return flags
}
