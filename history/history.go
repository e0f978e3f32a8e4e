// Package history persists evaluated expressions.
//
// A Record holds one successful evaluation: the expression, its result, the
// kind of the result, and the transcript of steps that produced it. Stores
// are backed by SQLite or bbolt, and a Pruner deletes records older than a
// retention window on a cron schedule.
package history

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Record is one entry in the computation history.
type Record struct {
	// ID is assigned by the store on insert.
	ID   int64  `json:"id"`
	UUID string `json:"uuid"`

	UserID     string `json:"user_id"`
	Expression string `json:"expression"`
	Result     string `json:"result"`

	// ComputationType is the lowercase kind of the result, e.g. "scalar" or
	// "matrix".
	ComputationType string    `json:"computation_type"`
	Timestamp       time.Time `json:"timestamp"`
	Steps           []string  `json:"symbolic_steps"`
}

// NewRecord creates a record with a fresh UUID stamped with the current time.
func NewRecord(userID, expr, result, kind string, steps []string) Record {
	return Record{
		UUID:            uuid.NewString(),
		UserID:          userID,
		Expression:      expr,
		Result:          result,
		ComputationType: strings.ToLower(kind),
		Timestamp:       time.Now().UTC(),
		Steps:           steps,
	}
}

// fill sets the UUID and timestamp of a record that lacks them.
func (r *Record) fill() {
	if r.UUID == "" {
		r.UUID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	if r.Steps == nil {
		r.Steps = []string{}
	}
}

// Sink accepts records.
type Sink interface {
	// Insert stores a record and returns the ID assigned to it.
	Insert(ctx context.Context, rec Record) (int64, error)
}

// Store is a Sink that can also be queried and pruned.
type Store interface {
	Sink
	// List returns up to limit records for a user, newest first. An empty
	// userID lists every user's records. A limit less than 1 means no limit.
	List(ctx context.Context, userID string, limit int) ([]Record, error)
	// Prune deletes records stamped before the given time and returns the
	// number deleted.
	Prune(ctx context.Context, before time.Time) (int, error)
	Close() error
}

// Discard is a Store that keeps nothing.
var Discard Store = discard{}

type discard struct{}

func (discard) Insert(context.Context, Record) (int64, error)       { return 0, nil }
func (discard) List(context.Context, string, int) ([]Record, error) { return nil, nil }
func (discard) Prune(context.Context, time.Time) (int, error)       { return 0, nil }
func (discard) Close() error                                        { return nil }

// Drivers accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
	DriverNone   = "none"
)

// Open opens the store for a driver. The empty driver and DriverNone give
// Discard.
func Open(driver, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSQLite, "sqlite3":
		if path == "" {
			return nil, errors.New("history: sqlite store needs a path")
		}
		return OpenSQLite(path)
	case DriverBolt, "bbolt":
		if path == "" {
			return nil, errors.New("history: bolt store needs a path")
		}
		return OpenBolt(path)
	case DriverNone, "":
		return Discard, nil
	}
	return nil, errors.Errorf("history: unknown driver %q", driver)
}
