package model

import "strings"

// DeliveryStatus is the per-recipient outcome recorded in the audit log.
type DeliveryStatus string

const (
	StatusSending DeliveryStatus = "sending"
	StatusSuccess DeliveryStatus = "success"
	StatusFailure DeliveryStatus = "failure"
)

func (s DeliveryStatus) String() string { return string(s) }

func (s DeliveryStatus) Valid() bool {
	return s == StatusSending || s == StatusSuccess || s == StatusFailure
}

func ParseDeliveryStatus(s string) (DeliveryStatus, bool) {
	st := DeliveryStatus(strings.ToLower(strings.TrimSpace(s)))
	if st.Valid() {
		return st, true
	}
	return "", false
}

// LogEntry is one immutable audit record. RecipientHash is a one-way hash
// of the recipient id; the raw number is never stored. ScheduleID defaults
// to "Manual" for sends outside any schedule.
type LogEntry struct {
	Timestamp     string `db:"timestamp"` // "YYYY-MM-DD HH:MM:SS"
	Text          string `db:"text"`
	RecipientHash string `db:"recipient_hash"`
	Status        string `db:"status"`
	ScheduleID    string `db:"schedule_id"`
}

// DefaultLogScheduleID is what the audit log stores when no schedule id is
// supplied. Distinct from ManualScheduleID: this is a display value in log
// rows, kept as the original data format.
const DefaultLogScheduleID = "Manual"
