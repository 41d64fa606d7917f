package attendance

import "github.com/aussiebroadwan/eas/pkg/attendsdk"

// Status is today's attendance state as derived from the event log.
type Status string

const (
	StatusNotMarked  Status = "not_marked"
	StatusCheckedIn  Status = "checked_in"
	StatusCheckedOut Status = "checked_out"
)

// DeriveStatus returns the status implied by the most recent event in logs.
// Events are ordered by timestamp; among equal timestamps the later list
// position wins.
func DeriveStatus(logs []attendsdk.AttendanceLog) Status {
	last := LatestLog(logs)
	if last == nil {
		return StatusNotMarked
	}

	switch last.EventType {
	case attendsdk.EventIn:
		return StatusCheckedIn
	case attendsdk.EventOut:
		return StatusCheckedOut
	default:
		return StatusNotMarked
	}
}

// LatestLog returns the most recent event in logs, or nil when there is none.
func LatestLog(logs []attendsdk.AttendanceLog) *attendsdk.AttendanceLog {
	var latest *attendsdk.AttendanceLog
	for i := range logs {
		if latest == nil || !logs[i].Timestamp.Before(latest.Timestamp.Time) {
			latest = &logs[i]
		}
	}
	return latest
}

// CanMarkIn reports whether a check-in should be offered for status.
func CanMarkIn(status Status) bool {
	return status != StatusCheckedIn
}

// CanMarkOut reports whether a check-out should be offered for status.
func CanMarkOut(status Status) bool {
	return status == StatusCheckedIn
}
