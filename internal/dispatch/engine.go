// Package dispatch drives a single broadcast pass: recipients in snapshot
// order, one retry pass over the failures, jittered pacing between sends,
// cooperative cancellation. Only one pass runs at a time.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jmehdipour/wablast/internal/metrics"
	"github.com/jmehdipour/wablast/internal/model"
	"github.com/jmehdipour/wablast/internal/util"
)

// ErrBusy is returned when a dispatch is requested while another pass is
// still running. Campaigns are never interleaved or queued.
var ErrBusy = errors.New("a dispatch is already running")

// Sender sends one message to one recipient.
type Sender interface {
	Send(ctx context.Context, to, text string) error
}

// Notifier delivers out-of-band admin alerts.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// Auditor is the slice of the audit log the engine needs.
type Auditor interface {
	Append(ctx context.Context, text string, recipient string, status model.DeliveryStatus, scheduleID string)
}

type Engine struct {
	gw       Sender
	audit    Auditor
	notifier Notifier
	log      *zap.Logger

	// Pacing window between consecutive sends. The delay is drawn
	// uniformly from [PaceMin, PaceMax] so outbound traffic stays under
	// the gateway's implicit rate limits.
	PaceMin time.Duration
	PaceMax time.Duration

	mu       sync.Mutex
	running  bool
	canceled bool
	progress int
	inFlight map[model.RecipientID]struct{}
	failed   []model.RecipientID
}

func NewEngine(gw Sender, audit Auditor, notifier Notifier, log *zap.Logger) *Engine {
	return &Engine{
		gw:       gw,
		audit:    audit,
		notifier: notifier,
		log:      log,
		PaceMin:  30 * time.Second,
		PaceMax:  60 * time.Second,
		inFlight: map[model.RecipientID]struct{}{},
	}
}

const (
	attemptFirst = "first"
	attemptRetry = "retry"
)

// Run executes one campaign. Empty recipients or an empty message are
// expected conditions reported in the Result; the only error value is
// ErrBusy. Progress resets to 0 on every exit path.
func (e *Engine) Run(ctx context.Context, c model.Campaign) (model.Result, error) {
	msg := strings.TrimSpace(c.Message)
	sid := c.ScheduleID
	if sid == "" {
		sid = model.ManualScheduleID
	}

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return model.Err("a broadcast is already running, try again later"), ErrBusy
	}
	e.running = true
	e.canceled = false
	e.failed = nil
	e.inFlight = map[model.RecipientID]struct{}{}
	e.setProgressLocked(0)
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.setProgressLocked(0)
		e.mu.Unlock()
	}()

	if len(c.Recipients) == 0 {
		e.audit.Append(ctx, "[ERROR] no recipient data to send to", "", "", sid)
		return model.Err("load a recipient list first"), nil
	}
	if msg == "" {
		e.audit.Append(ctx, "[ERROR] empty message, broadcast aborted", "", "", sid)
		return model.Err("message must not be empty"), nil
	}

	runID := util.New()
	total := len(c.Recipients)
	e.log.Info("broadcast starting",
		zap.String("run_id", runID), zap.String("schedule_id", sid), zap.Int("recipients", total))

	e.notifier.Notify(ctx, fmt.Sprintf(
		"*Broadcast starting*\nSending %q to %d numbers", model.PreviewText(msg), total))
	e.audit.Append(ctx, fmt.Sprintf("=== Broadcast started (id: %s, run: %s) ===", sid, runID), "", "", sid)

	successes := 0
	canceled := false

	for i, rid := range c.Recipients {
		if e.isCanceled() || ctx.Err() != nil {
			e.audit.Append(ctx, "[INFO] broadcast canceled by user", "", "", sid)
			e.clearTransient()
			canceled = true
			break
		}

		if e.sendOne(ctx, rid, msg, sid, attemptFirst) {
			successes++
		} else {
			e.recordFailed(rid)
			e.notifier.Notify(ctx, fmt.Sprintf("*Delivery to number %s has FAILED*", rid))
		}
		e.setProgress((i + 1) * 100 / total)
		e.pause(ctx)
	}

	if !canceled {
		canceled = e.retryPass(ctx, msg, sid, &successes)
	}

	if !canceled {
		remaining := len(e.FailedRecipients())
		e.notifier.Notify(ctx, fmt.Sprintf(
			"*Broadcast finished*\nMessage %q delivered to %d numbers, failed = %d",
			model.PreviewText(msg), successes, remaining))
		e.audit.Append(ctx, "=== Broadcast finished ===", "", "", sid)
		e.log.Info("broadcast finished",
			zap.String("run_id", runID), zap.Int("sent", successes), zap.Int("failed", remaining))
	}

	return model.OK("all messages processed"), nil
}

// retryPass runs exactly one FIFO pass over a snapshot of the failed list.
// Recipients that fail again stay in the failed list and are never
// attempted a third time. Returns whether the pass was canceled.
func (e *Engine) retryPass(ctx context.Context, msg, sid string, successes *int) bool {
	retry := e.FailedRecipients()
	if len(retry) == 0 {
		return false
	}

	e.audit.Append(ctx, fmt.Sprintf("=== Retrying failed messages (id: %s) ===", sid), "", "", sid)

	var remaining []model.RecipientID
	for _, rid := range retry {
		if e.isCanceled() || ctx.Err() != nil {
			e.audit.Append(ctx, "[INFO] broadcast canceled by user", "", "", sid)
			e.clearTransient()
			return true
		}

		if e.sendOne(ctx, rid, msg, sid, attemptRetry) {
			*successes++
		} else {
			remaining = append(remaining, rid)
			e.notifier.Notify(ctx, fmt.Sprintf("*Delivery to number %s has FAILED*", rid))
		}
		e.pause(ctx)
	}

	e.setFailed(remaining)
	if len(remaining) > 0 {
		e.audit.Append(ctx, fmt.Sprintf("[INFO] numbers still failing: %d", len(remaining)), "", "", sid)
	} else {
		e.audit.Append(ctx, "[INFO] all failed messages were delivered on retry", "", "", sid)
	}
	return false
}

// sendOne performs a single attempt with the full audit trail
// (sending -> success|failure). The recipient is in the in-flight set for
// exactly the duration of the attempt.
func (e *Engine) sendOne(ctx context.Context, rid model.RecipientID, msg, sid, attempt string) bool {
	e.markInFlight(rid, true)
	defer e.markInFlight(rid, false)

	verb := "processing"
	if attempt == attemptRetry {
		verb = "reprocessing"
	}
	e.audit.Append(ctx, fmt.Sprintf("[SENDING] %s message to %s", verb, rid), rid.String(), model.StatusSending, sid)

	if err := e.gw.Send(ctx, rid.String(), msg); err != nil {
		e.audit.Append(ctx, fmt.Sprintf("[FAILURE] message to %s not delivered: %v", rid, err), rid.String(), model.StatusFailure, sid)
		metrics.MessagesTotal.WithLabelValues("failure", attempt).Inc()
		return false
	}

	done := "delivered"
	if attempt == attemptRetry {
		done = "delivered on retry"
	}
	e.audit.Append(ctx, fmt.Sprintf("[SUCCESS] message to %s %s", rid, done), rid.String(), model.StatusSuccess, sid)
	metrics.MessagesTotal.WithLabelValues("success", attempt).Inc()
	return true
}

// Cancel is synchronous and idempotent: it raises the flag and clears the
// transient state immediately. A network call already in flight is not
// aborted; the loop stops before issuing the next one. Run clears the
// flag again on its next start.
func (e *Engine) Cancel(ctx context.Context) model.Result {
	e.mu.Lock()
	e.canceled = true
	e.inFlight = map[model.RecipientID]struct{}{}
	e.setProgressLocked(0)
	e.mu.Unlock()

	e.audit.Append(ctx, "[INFO] broadcast canceled by user", "", "", "")
	return model.OK("broadcast canceled")
}

// Progress reports the running pass's percent complete, 0 when idle.
func (e *Engine) Progress() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress
}

func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// FailedRecipients returns a copy of the recipients awaiting retry, or
// those that failed both attempts once the pass is over.
func (e *Engine) FailedRecipients() []model.RecipientID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.RecipientID(nil), e.failed...)
}

// InFlight returns the recipients currently being sent.
func (e *Engine) InFlight() []model.RecipientID {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.RecipientID, 0, len(e.inFlight))
	for rid := range e.inFlight {
		out = append(out, rid)
	}
	return out
}

func (e *Engine) isCanceled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canceled
}

func (e *Engine) clearTransient() {
	e.mu.Lock()
	e.inFlight = map[model.RecipientID]struct{}{}
	e.setProgressLocked(0)
	e.mu.Unlock()
}

func (e *Engine) recordFailed(rid model.RecipientID) {
	e.mu.Lock()
	e.failed = append(e.failed, rid)
	e.mu.Unlock()
}

func (e *Engine) setFailed(failed []model.RecipientID) {
	e.mu.Lock()
	e.failed = failed
	e.mu.Unlock()
}

func (e *Engine) markInFlight(rid model.RecipientID, on bool) {
	e.mu.Lock()
	if on {
		e.inFlight[rid] = struct{}{}
	} else {
		delete(e.inFlight, rid)
	}
	e.mu.Unlock()
}

func (e *Engine) setProgress(p int) {
	e.mu.Lock()
	e.setProgressLocked(p)
	e.mu.Unlock()
}

func (e *Engine) setProgressLocked(p int) {
	e.progress = p
	metrics.DispatchProgress.Set(float64(p))
}

// pause is the explicit suspension point between iterations. It returns
// early on context cancellation so shutdown is not held up by the pacing
// delay.
func (e *Engine) pause(ctx context.Context) {
	d := e.paceDelay()
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func (e *Engine) paceDelay() time.Duration {
	if e.PaceMax <= e.PaceMin {
		return e.PaceMin
	}
	return e.PaceMin + time.Duration(rand.Int63n(int64(e.PaceMax-e.PaceMin)))
}
