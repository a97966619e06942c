package auditlog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jmehdipour/wablast/internal/db"
	"github.com/jmehdipour/wablast/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	sdb, err := db.NewSQLiteConnection(":memory:", db.SQLiteOpts{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sdb.Close() })

	s := NewStore(sdb, zap.NewNop())
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func fixClock(s *Store, at time.Time) {
	s.now = func() time.Time { return at }
}

func TestAppendAndListByDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fixClock(s, time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC))

	s.Append(ctx, "[INFO] first line", "", "", "2026-03-20_09:30")
	s.Append(ctx, "[SENDING] processing message to 628123456789", "628123456789", model.StatusSending, "2026-03-20_09:30")
	fixClock(s, time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC))
	s.Append(ctx, "[INFO] next day", "", "", "")

	logs, err := s.ListByDate(ctx, "2026-03-15", "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"[INFO] first line",
		"[SENDING] processing message to 628123456789",
	}, logs)

	logs, err = s.ListByDate(ctx, "2026-03-16", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"[INFO] next day"}, logs)

	// filter by schedule id
	logs, err = s.ListByDate(ctx, "2026-03-15", "2026-03-20_09:30")
	require.NoError(t, err)
	assert.Len(t, logs, 2)
	logs, err = s.ListByDate(ctx, "2026-03-15", "other")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestAppendStoresHashNotRawNumber(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fixClock(s, time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC))

	s.Append(ctx, "[SUCCESS] message delivered", "628123456789", model.StatusSuccess, "")

	var row struct {
		RecipientHash string `db:"recipient_hash"`
		Status        string `db:"status"`
		ScheduleID    string `db:"schedule_id"`
	}
	require.NoError(t, s.db.Get(&row, `SELECT recipient_hash, status, schedule_id FROM logs`))

	sum := sha256.Sum256([]byte("628123456789"))
	assert.Equal(t, hex.EncodeToString(sum[:]), row.RecipientHash)
	assert.NotContains(t, row.RecipientHash, "628123456789")
	assert.Equal(t, "success", row.Status)
	assert.Equal(t, model.DefaultLogScheduleID, row.ScheduleID)
}

func TestDatesNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fixClock(s, time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC))
	s.Append(ctx, "a", "", "", "")
	fixClock(s, time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC))
	s.Append(ctx, "b", "", "", "")
	s.Append(ctx, "c", "", "", "")

	dates, err := s.Dates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-16", "2026-03-14"}, dates)
}

func TestSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fixClock(s, time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC))

	s.Append(ctx, "a", "", "", "2026-03-20_09:30")
	s.Append(ctx, "b", "", "", "2026-03-20_09:30")
	s.Append(ctx, "c", "", "", "")

	ids, err := s.Sessions(ctx, "2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-20_09:30", "Manual"}, ids)
}

func TestExportFormat(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fixClock(s, time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC))

	s.Append(ctx, "[INFO] first", "", "", "")
	s.Append(ctx, "[INFO] second", "", "", "")

	out, err := s.Export(ctx, "2026-03-15", "")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Timestamp | Log Message", lines[0])
	assert.Equal(t, strings.Repeat("-", 50), lines[1])
	assert.Equal(t, "2026-03-15 09:30:00 | [INFO] first", lines[2])
	assert.Equal(t, "2026-03-15 09:30:00 | [INFO] second", lines[3])
}

func TestPurgeOlderThan(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := time.Now().UTC().AddDate(0, 0, -40)
	recent := time.Now().UTC().AddDate(0, 0, -1)
	fixClock(s, old)
	s.Append(ctx, "stale", "", "", "")
	fixClock(s, recent)
	s.Append(ctx, "fresh", "", "", "")

	n, err := s.PurgeOlderThan(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	logs, err := s.ListByDate(ctx, recent.Format("2006-01-02"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, logs)

	_, err = s.PurgeOlderThan(ctx, 0)
	assert.Error(t, err)
}

func TestPurgeUnaffectedByClockZone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	// a row 3 hours past the window, observed through a +07:00 wall
	// clock: its local timestamp string would read 4 hours inside the
	// window and dodge the sweep if stored as-is
	fixClock(s, time.Now().In(jakarta).AddDate(0, 0, -30).Add(-3*time.Hour))
	s.Append(ctx, "stale", "", "", "")

	n, err := s.PurgeOlderThan(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
