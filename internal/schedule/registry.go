// Package schedule owns the recurring broadcast schedules: an in-memory
// authoritative registry of definitions, each bound to a cron entry that
// ticks at the configured HH:MM in a fixed time zone, reconciled with the
// durable store on startup.
package schedule

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/jmehdipour/wablast/internal/metrics"
	"github.com/jmehdipour/wablast/internal/model"
	"github.com/jmehdipour/wablast/internal/repository"
)

// Dispatcher runs one broadcast pass.
type Dispatcher interface {
	Run(ctx context.Context, c model.Campaign) (model.Result, error)
}

// RecipientSource supplies the current recipient snapshot.
type RecipientSource interface {
	Current() []model.RecipientID
	Count() int
}

// Notifier delivers out-of-band admin alerts.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// Auditor is the slice of the audit log the registry needs.
type Auditor interface {
	Append(ctx context.Context, text string, recipient string, status model.DeliveryStatus, scheduleID string)
}

type Config struct {
	Timezone string        // IANA TZ, e.g. "Asia/Jakarta"
	Grace    time.Duration // how late a tick may be and still fire
}

type binding struct {
	def     model.Schedule
	entryID cron.EntryID
}

type Registry struct {
	repo     repository.SchedulesRepository
	engine   Dispatcher
	source   RecipientSource
	notifier Notifier
	audit    Auditor
	log      *zap.Logger

	loc   *time.Location
	grace time.Duration
	now   func() time.Time

	runCtx context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	c       *cron.Cron
	entries map[string]*binding
}

func NewRegistry(
	cfg Config,
	repo repository.SchedulesRepository,
	engine Dispatcher,
	source RecipientSource,
	notifier Notifier,
	audit Auditor,
	log *zap.Logger,
) (*Registry, error) {
	tz := cfg.Timezone
	if tz == "" {
		tz = "Asia/Jakarta"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	grace := cfg.Grace
	if grace <= 0 {
		grace = 5 * time.Minute
	}

	return &Registry{
		repo:     repo,
		engine:   engine,
		source:   source,
		notifier: notifier,
		audit:    audit,
		log:      log,
		loc:      loc,
		grace:    grace,
		now:      time.Now,
		c:        cron.New(cron.WithLocation(loc)),
		entries:  map[string]*binding{},
	}, nil
}

// Start rehydrates stored definitions into live bindings and starts the
// cron runner.
func (r *Registry) Start(ctx context.Context) error {
	r.runCtx, r.cancel = context.WithCancel(context.WithoutCancel(ctx))

	defs, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load schedules: %w", err)
	}

	r.mu.Lock()
	for _, def := range defs {
		if err := r.bindLocked(def); err != nil {
			r.mu.Unlock()
			return fmt.Errorf("bind schedule %s: %w", def.ID, err)
		}
	}
	r.mu.Unlock()

	r.c.Start()
	r.log.Info("schedule registry started",
		zap.Int("schedules", len(defs)), zap.String("tz", r.loc.String()))
	return nil
}

// Shutdown cancels any dispatch a tick started, stops the cron runner,
// and waits for ticks in progress.
func (r *Registry) Shutdown() {
	if r.cancel != nil {
		r.cancel()
	}
	<-r.c.Stop().Done()
}

// AddDailyJob registers an extra cron entry (used for the log retention
// sweep) on the registry's runner.
func (r *Registry) AddDailyJob(spec string, fn func()) error {
	_, err := r.c.AddFunc(spec, fn)
	return err
}

type CreateInput struct {
	Time    string // "HH:MM"
	Days    []int  // days of month
	Message string
}

// Create validates the input, generates the schedule id, persists the
// definition, and installs the trigger binding. Validation problems come
// back as an error Result; nothing is partially applied.
func (r *Registry) Create(ctx context.Context, in CreateInput) (string, model.Result) {
	def, errRes := r.buildDefinition("", in)
	if errRes != nil {
		return "", *errRes
	}

	r.mu.Lock()
	def.ID = r.generateIDLocked(def)
	r.mu.Unlock()

	r.notifier.Notify(ctx, fmt.Sprintf(
		"*Schedule active (id: %s)*\nMessage %q will be sent to %d numbers on day(s) %s at %s",
		def.ID, def.Preview(), def.RecipientCount, daysList(def.Days), def.TimeString()))

	if err := r.repo.Insert(ctx, def); err != nil {
		r.log.Error("schedule insert failed", zap.String("id", def.ID), zap.Error(err))
		r.audit.Append(ctx, fmt.Sprintf("[ERROR] failed to save schedule %s", def.ID), "", "", def.ID)
		return "", model.Err("failed to save schedule to database")
	}

	r.mu.Lock()
	err := r.bindLocked(def)
	r.mu.Unlock()
	if err != nil {
		r.log.Error("schedule bind failed", zap.String("id", def.ID), zap.Error(err))
		return "", model.Err("failed to activate schedule")
	}

	r.audit.Append(ctx, fmt.Sprintf("[INFO] schedule active daily at %s (id: %s)", def.TimeString(), def.ID), "", "", def.ID)
	return def.ID, model.OK(fmt.Sprintf(
		"message will be sent at %s on the selected days (id: %s)", def.TimeString(), def.ID))
}

type EditInput struct {
	ID      string
	Time    string
	Days    []int
	Message string
}

// Edit replaces an existing definition in place. The old trigger binding
// is stopped before the new one is installed, under one lock, so no two
// triggers for the same id ever run concurrently.
func (r *Registry) Edit(ctx context.Context, in EditInput) model.Result {
	r.mu.Lock()
	_, ok := r.entries[in.ID]
	r.mu.Unlock()
	if !ok {
		r.audit.Append(ctx, fmt.Sprintf("[ERROR] schedule not found: %s", in.ID), "", "", in.ID)
		return model.Err("schedule not found")
	}

	def, errRes := r.buildDefinition(in.ID, CreateInput{Time: in.Time, Days: in.Days, Message: in.Message})
	if errRes != nil {
		return *errRes
	}

	r.mu.Lock()
	// re-check: a concurrent delete or expiry may have dropped the entry
	// since the lookup above, and rebinding would resurrect it without a
	// durable row
	old, ok := r.entries[in.ID]
	if !ok {
		r.mu.Unlock()
		r.audit.Append(ctx, fmt.Sprintf("[ERROR] schedule not found: %s", in.ID), "", "", in.ID)
		return model.Err("schedule not found")
	}
	r.c.Remove(old.entryID)
	delete(r.entries, in.ID)
	err := r.bindLocked(def)
	r.mu.Unlock()
	if err != nil {
		r.log.Error("schedule rebind failed", zap.String("id", in.ID), zap.Error(err))
		return model.Err("failed to update schedule")
	}

	if err := r.repo.Update(ctx, def); err != nil {
		// In-memory binding already swapped; surfaced, not rolled back.
		r.log.Error("schedule update failed", zap.String("id", in.ID), zap.Error(err))
		r.audit.Append(ctx, fmt.Sprintf("[ERROR] failed to update schedule %s in database", in.ID), "", "", in.ID)
		return model.Err("failed to update schedule in database")
	}

	r.audit.Append(ctx, fmt.Sprintf("[INFO] schedule %s updated", in.ID), "", "", in.ID)
	return model.OK(fmt.Sprintf("schedule %s updated", in.ID))
}

// Delete stops the trigger and removes the definition from registry and
// store. Historical log entries for the id are deliberately preserved.
func (r *Registry) Delete(ctx context.Context, id string) model.Result {
	r.mu.Lock()
	b, ok := r.entries[id]
	if ok {
		r.c.Remove(b.entryID)
		delete(r.entries, id)
	}
	r.mu.Unlock()
	if !ok {
		r.audit.Append(ctx, fmt.Sprintf("[ERROR] schedule not found: %s", id), "", "", id)
		return model.Err("schedule not found")
	}

	if err := r.repo.Delete(ctx, id); err != nil {
		r.log.Error("schedule delete failed", zap.String("id", id), zap.Error(err))
		r.audit.Append(ctx, fmt.Sprintf("[ERROR] failed to delete schedule %s", id), "", "", id)
		return model.Err("failed to delete schedule from database")
	}

	r.audit.Append(ctx, fmt.Sprintf("[INFO] schedule %s deleted (logs preserved)", id), "", "", id)
	return model.OK(fmt.Sprintf("schedule %s deleted", id))
}

// Info is the listing view of a schedule: message preview only, no full
// text, no trigger handle.
type Info struct {
	Message    string `json:"message"`
	Days       []int  `json:"days"`
	Time       string `json:"time"`
	Recipients int    `json:"recipients"`
}

func (r *Registry) List() map[string]Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]Info, len(r.entries))
	for id, b := range r.entries {
		out[id] = Info{
			Message:    b.def.Preview(),
			Days:       append([]int(nil), b.def.Days...),
			Time:       b.def.TimeString(),
			Recipients: b.def.RecipientCount,
		}
	}
	return out
}

// UpdateRecipientCounts refreshes the snapshot size on every live entry
// and stored row after the recipient list is replaced.
func (r *Registry) UpdateRecipientCounts(ctx context.Context, count int) error {
	r.mu.Lock()
	for _, b := range r.entries {
		b.def.RecipientCount = count
	}
	r.mu.Unlock()
	return r.repo.UpdateRecipientCounts(ctx, count)
}

// buildDefinition validates create/edit input into a definition without
// an id (create generates one, edit supplies one).
func (r *Registry) buildDefinition(id string, in CreateInput) (model.Schedule, *model.Result) {
	fail := func(msg string) (model.Schedule, *model.Result) {
		res := model.Err(msg)
		return model.Schedule{}, &res
	}

	hour, minute, err := model.ParseTimeOfDay(in.Time)
	if err != nil {
		return fail("invalid time format (must be HH:MM, e.g. 14:00)")
	}
	days := make([]int, 0, len(in.Days))
	for _, d := range in.Days {
		if d >= 1 && d <= 31 {
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		return fail("select at least one day for the schedule")
	}
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return fail("message must not be empty")
	}
	if r.source.Count() == 0 {
		return fail("load a recipient list first")
	}

	return model.Schedule{
		ID:             id,
		MessageFull:    msg,
		Days:           days,
		Hour:           hour,
		Minute:         minute,
		RecipientCount: r.source.Count(),
	}, nil
}

// generateIDLocked derives the schedule id from the current year-month,
// the latest selected day, and the time of day; a numeric suffix keeps
// repeated creations with the same day/time distinct.
func (r *Registry) generateIDLocked(def model.Schedule) string {
	now := r.now().In(r.loc)
	base := fmt.Sprintf("%04d-%02d-%02d_%s", now.Year(), now.Month(), def.LastDay(), def.TimeString())

	id := base
	for suffix := 1; ; suffix++ {
		if _, exists := r.entries[id]; !exists {
			return id
		}
		id = fmt.Sprintf("%s_%d", base, suffix)
	}
}

// bindLocked installs the cron entry for a definition. Caller holds r.mu.
func (r *Registry) bindLocked(def model.Schedule) error {
	id := def.ID
	entryID, err := r.c.AddFunc(fmt.Sprintf("%d %d * * *", def.Minute, def.Hour), func() {
		r.onTick(id)
	})
	if err != nil {
		return err
	}
	r.entries[id] = &binding{def: def, entryID: entryID}
	return nil
}

// onTick runs once per day per schedule, at the configured HH:MM. It
// fires the dispatch when today is eligible, then re-evaluates whether
// the schedule has any future occurrence left and expires it if not.
func (r *Registry) onTick(id string) {
	ctx := r.runCtx
	if ctx == nil {
		ctx = context.Background()
	}

	r.mu.Lock()
	b, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	def := b.def
	r.mu.Unlock()

	now := r.now().In(r.loc)
	fired := false

	switch {
	case ShouldFire(def.Days, def.Hour, def.Minute, now, r.grace):
		r.audit.Append(ctx, fmt.Sprintf("[INFO] today is day %d, included in the send list (id: %s)", now.Day(), id), "", "", id)
		metrics.ScheduleFiresTotal.Inc()
		fired = true

		campaign := model.Campaign{
			Message:    def.MessageFull,
			ScheduleID: id,
			Recipients: r.source.Current(),
		}
		if _, err := r.engine.Run(ctx, campaign); err != nil {
			// DispatchBusy: another campaign holds the engine; this
			// occurrence is skipped, not queued.
			r.audit.Append(ctx, fmt.Sprintf("[ERROR] dispatch busy, occurrence skipped (id: %s)", id), "", "", id)
			r.log.Warn("scheduled dispatch rejected", zap.String("id", id), zap.Error(err))
		}

	case containsDay(def.Days, now.Day()):
		r.audit.Append(ctx, fmt.Sprintf(
			"[INFO] today is day %d but time %s has already passed (id: %s)",
			now.Day(), def.TimeString(), id), "", "", id)
	}

	// Fast cleanup for one-shot "send on day D" schedules.
	if fired && len(def.Days) == 1 && def.Days[0] == now.Day() {
		r.expire(ctx, id, fmt.Sprintf("[INFO] schedule %s removed automatically after its single occurrence completed", id))
		return
	}

	if len(FutureOccurrences(def.Days, def.Hour, def.Minute, r.now().In(r.loc))) == 0 {
		r.expire(ctx, id, fmt.Sprintf("[INFO] schedule %s removed automatically: all selected days and times have passed", id))
		return
	}
	r.audit.Append(ctx, fmt.Sprintf("[INFO] schedule %s remains active, future occurrences exist", id), "", "", id)
}

// expire removes a schedule system-initiated: trigger stopped, registry
// entry dropped, durable row deleted, removal logged.
func (r *Registry) expire(ctx context.Context, id, reason string) {
	r.mu.Lock()
	b, ok := r.entries[id]
	if ok {
		r.c.Remove(b.entryID)
		delete(r.entries, id)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	if err := r.repo.Delete(ctx, id); err != nil {
		r.log.Error("schedule expiry delete failed", zap.String("id", id), zap.Error(err))
	}
	r.audit.Append(ctx, reason, "", "", id)
}

func daysList(days []int) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return strings.Join(parts, ", ")
}
