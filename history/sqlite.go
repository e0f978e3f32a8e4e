package history

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var sqliteSchema string

// SQLiteStore keeps records in the COMPUTATION_HISTORY table of a SQLite
// database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates a SQLite store. dsn is a file name or any
// connection string accepted by modernc.org/sqlite.
func OpenSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "history: open sqlite")
	}
	// One connection serializes writers and keeps in-memory databases alive.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "history: set WAL mode")
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "history: create schema")
	}
	return &SQLiteStore{db: db}, nil
}

// Insert stores a record.
func (s *SQLiteStore) Insert(ctx context.Context, rec Record) (int64, error) {
	rec.fill()
	steps, err := json.Marshal(rec.Steps)
	if err != nil {
		return 0, errors.Wrap(err, "history: marshal steps")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO COMPUTATION_HISTORY (uuid, user_id, expression, result, computation_type, timestamp, symbolic_steps)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.UUID,
		rec.UserID,
		rec.Expression,
		rec.Result,
		rec.ComputationType,
		rec.Timestamp.UnixNano(),
		string(steps),
	)
	if err != nil {
		return 0, errors.Wrap(err, "history: insert")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "history: insert id")
	}
	return id, nil
}

// List returns a user's records, newest first.
func (s *SQLiteStore) List(ctx context.Context, userID string, limit int) ([]Record, error) {
	query := `SELECT history_id, uuid, user_id, expression, result, computation_type, timestamp, symbolic_steps
	          FROM COMPUTATION_HISTORY`
	var args []any
	if userID != "" {
		query += " WHERE user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY history_id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "history: list")
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var recs []Record
	for rows.Next() {
		var (
			rec    Record
			result sql.NullString
			stamp  int64
			steps  string
		)
		err := rows.Scan(&rec.ID, &rec.UUID, &rec.UserID, &rec.Expression, &result, &rec.ComputationType, &stamp, &steps)
		if err != nil {
			return nil, errors.Wrap(err, "history: scan")
		}
		rec.Result = result.String
		rec.Timestamp = time.Unix(0, stamp).UTC()
		if err := json.Unmarshal([]byte(steps), &rec.Steps); err != nil {
			return nil, errors.Wrapf(err, "history: steps of record %d", rec.ID)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "history: rows")
	}
	return recs, nil
}

// Prune deletes records stamped before the given time.
func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM COMPUTATION_HISTORY WHERE timestamp < ?`, before.UnixNano())
	if err != nil {
		return 0, errors.Wrap(err, "history: prune")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "history: prune count")
	}
	return int(n), nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
