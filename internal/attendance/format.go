package attendance

import (
	"fmt"
	"time"

	"github.com/aussiebroadwan/eas/pkg/attendsdk"
)

// FormatDuration renders seconds as "{h}h {m}m". Negative input counts as zero.
func FormatDuration(seconds int64) string {
	seconds = max(seconds, 0)
	return fmt.Sprintf("%dh %dm", seconds/3600, seconds%3600/60)
}

// FormatDurationHMS renders seconds as "{h}h {m}m {s}s", or "0s" when there
// is nothing to show.
func FormatDurationHMS(seconds int64) string {
	if seconds <= 0 {
		return "0s"
	}
	return fmt.Sprintf("%dh %dm %ds", seconds/3600, seconds%3600/60, seconds%60)
}

// FormatTime renders a clock time such as "09:05 AM" in loc, or "-" for nil.
func FormatTime(t *attendsdk.Timestamp, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("03:04 PM")
}

// FormatDate renders a date such as "Mar 4, 2025".
func FormatDate(d attendsdk.Date) string {
	if d.IsZero() {
		return "-"
	}
	return d.Format("Jan 2, 2006")
}
