package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/jmehdipour/wablast/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS schedules (
	schedule_id  TEXT PRIMARY KEY,
	message_full TEXT NOT NULL,
	days         TEXT NOT NULL,
	time         TEXT NOT NULL,
	recipients   INTEGER NOT NULL DEFAULT 0
);
`

// SchedulesRepository persists schedule definitions. It exists for
// recovery on restart; the in-memory registry stays authoritative while
// the process runs.
type SchedulesRepository interface {
	Insert(ctx context.Context, s model.Schedule) error
	Update(ctx context.Context, s model.Schedule) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.Schedule, error)
	UpdateRecipientCounts(ctx context.Context, count int) error
}

type SchedulesRepositoryImpl struct {
	db *sqlx.DB
}

var _ SchedulesRepository = (*SchedulesRepositoryImpl)(nil)

func NewSchedulesRepository(db *sqlx.DB) *SchedulesRepositoryImpl {
	return &SchedulesRepositoryImpl{db: db}
}

// Migrate creates the schedules table. Safe to call on every start.
func (r *SchedulesRepositoryImpl) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

type scheduleRow struct {
	ScheduleID  string `db:"schedule_id"`
	MessageFull string `db:"message_full"`
	Days        string `db:"days"`
	Time        string `db:"time"`
	Recipients  int    `db:"recipients"`
}

func (r *SchedulesRepositoryImpl) Insert(ctx context.Context, s model.Schedule) error {
	const q = `
		INSERT INTO schedules (schedule_id, message_full, days, time, recipients)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, q,
		s.ID, s.MessageFull, model.DaysCSV(s.Days), s.TimeString(), s.RecipientCount,
	)
	return err
}

func (r *SchedulesRepositoryImpl) Update(ctx context.Context, s model.Schedule) error {
	const q = `
		UPDATE schedules
		   SET message_full = ?, days = ?, time = ?, recipients = ?
		 WHERE schedule_id = ?
	`
	_, err := r.db.ExecContext(ctx, q,
		s.MessageFull, model.DaysCSV(s.Days), s.TimeString(), s.RecipientCount, s.ID,
	)
	return err
}

func (r *SchedulesRepositoryImpl) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE schedule_id = ?`, id)
	return err
}

// List loads every stored definition. Rows with an unparsable time are
// returned as errors by the caller-side bind, not silently dropped here.
func (r *SchedulesRepositoryImpl) List(ctx context.Context) ([]model.Schedule, error) {
	var rows []scheduleRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT schedule_id, message_full, days, time, recipients
		  FROM schedules
		 ORDER BY schedule_id
	`)
	if err != nil {
		return nil, err
	}

	out := make([]model.Schedule, 0, len(rows))
	for _, row := range rows {
		hour, minute, err := model.ParseTimeOfDay(row.Time)
		if err != nil {
			return nil, fmt.Errorf("schedule %s: %w", row.ScheduleID, err)
		}
		out = append(out, model.Schedule{
			ID:             row.ScheduleID,
			MessageFull:    row.MessageFull,
			Days:           model.ParseDays(splitCSV(row.Days)),
			Hour:           hour,
			Minute:         minute,
			RecipientCount: row.Recipients,
		})
	}
	return out, nil
}

// UpdateRecipientCounts rewrites the snapshot size on every stored
// schedule after the recipient list is replaced.
func (r *SchedulesRepositoryImpl) UpdateRecipientCounts(ctx context.Context, count int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE schedules SET recipients = ?`, count)
	return err
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
