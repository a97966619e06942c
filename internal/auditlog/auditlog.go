// Package auditlog is the durable, append-only trail of everything the
// dispatcher and schedule registry do. It is a domain store (queried and
// exported through the API), separate from operational zap logging.
package auditlog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/jmehdipour/wablast/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS logs (
	timestamp      TEXT NOT NULL,
	text           TEXT NOT NULL,
	recipient_hash TEXT,
	status         TEXT,
	schedule_id    TEXT NOT NULL DEFAULT 'Manual'
);
CREATE INDEX IF NOT EXISTS idx_logs_date ON logs (timestamp);
CREATE INDEX IF NOT EXISTS idx_logs_schedule ON logs (schedule_id);
`

type Store struct {
	db  *sqlx.DB
	log *zap.Logger
	now func() time.Time
}

func NewStore(db *sqlx.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log, now: time.Now}
}

// Migrate creates the logs table. Safe to call on every start.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Append writes one audit row. The recipient, when present, is stored only
// as a SHA-256 hash; raw tokens that failed normalization get hashed the
// same way. An empty scheduleID is recorded as "Manual". Timestamps are
// stored in UTC so they compare against SQLite's datetime('now') in the
// retention sweep. Write failures are logged and swallowed: losing one
// audit line must never abort a running broadcast.
func (s *Store) Append(ctx context.Context, text string, recipient string, status model.DeliveryStatus, scheduleID string) {
	ts := s.now().UTC().Format("2006-01-02 15:04:05")

	var hash string
	if recipient != "" {
		sum := sha256.Sum256([]byte(recipient))
		hash = hex.EncodeToString(sum[:])
	}
	if scheduleID == "" {
		scheduleID = model.DefaultLogScheduleID
	}

	const q = `
		INSERT INTO logs (timestamp, text, recipient_hash, status, schedule_id)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, q, ts, text, hash, status.String(), scheduleID); err != nil {
		s.log.Warn("audit append failed", zap.Error(err), zap.String("text", text))
	}
}

// ListByDate returns the log texts for a date ("YYYY-MM-DD"), optionally
// filtered by schedule id, in insertion order.
func (s *Store) ListByDate(ctx context.Context, date, scheduleID string) ([]string, error) {
	q := `SELECT text FROM logs WHERE date(timestamp) = ?`
	args := []any{date}
	if scheduleID != "" {
		q += ` AND schedule_id = ?`
		args = append(args, scheduleID)
	}
	q += ` ORDER BY rowid`

	var texts []string
	if err := s.db.SelectContext(ctx, &texts, q, args...); err != nil {
		return nil, err
	}
	return texts, nil
}

// Dates lists distinct dates that have log rows, newest first.
func (s *Store) Dates(ctx context.Context) ([]string, error) {
	var dates []string
	err := s.db.SelectContext(ctx, &dates, `
		SELECT DISTINCT date(timestamp) FROM logs ORDER BY date(timestamp) DESC
	`)
	if err != nil {
		return nil, err
	}
	return dates, nil
}

// Sessions lists the distinct schedule ids that logged on a date.
func (s *Store) Sessions(ctx context.Context, date string) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids, `
		SELECT DISTINCT schedule_id FROM logs
		 WHERE date(timestamp) = ? AND schedule_id IS NOT NULL
		 ORDER BY schedule_id
	`, date)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

const exportSeparatorLen = 50

// Export renders a plain-text dump for a date: a header, a fixed-width
// separator, then "timestamp | text" lines.
func (s *Store) Export(ctx context.Context, date, scheduleID string) (string, error) {
	q := `SELECT timestamp, text FROM logs WHERE date(timestamp) = ?`
	args := []any{date}
	if scheduleID != "" {
		q += ` AND schedule_id = ?`
		args = append(args, scheduleID)
	}
	q += ` ORDER BY rowid`

	rows, err := s.db.QueryxContext(ctx, q, args...)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var b strings.Builder
	b.WriteString("Timestamp | Log Message\n")
	b.WriteString(strings.Repeat("-", exportSeparatorLen))
	b.WriteString("\n")
	for rows.Next() {
		var ts, text string
		if err := rows.Scan(&ts, &text); err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s | %s\n", ts, text)
	}
	return b.String(), rows.Err()
}

// PurgeOlderThan deletes rows older than the retention window. Returns the
// number of rows removed.
func (s *Store) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("retention days must be > 0, got %d", days)
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM logs WHERE timestamp < datetime('now', ?)`,
		fmt.Sprintf("-%d days", days),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
