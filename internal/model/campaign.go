package model

// ManualScheduleID marks an ad-hoc send that was not fired by a schedule.
const ManualScheduleID = "manual"

// Campaign is the unit of work for one send pass. It is built at dispatch
// start (message plus a snapshot of the current recipient list) and is not
// persisted.
type Campaign struct {
	Message    string
	ScheduleID string // schedule id or ManualScheduleID
	Recipients []RecipientID
}

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Result is the structured outcome returned to callers of the user-facing
// operations. Expected failures (empty message, empty recipient list,
// validation problems) are reported here, not raised.
type Result struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func OK(msg string) Result  { return Result{Status: ResultSuccess, Message: msg} }
func Err(msg string) Result { return Result{Status: ResultError, Message: msg} }
