// Package attendance implements check-in and check-out and the views built
// from the server's attendance logs and summaries.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/eas/internal/session"
	"github.com/aussiebroadwan/eas/pkg/attendsdk"
	"github.com/aussiebroadwan/eas/pkg/slogx"
)

// ErrNotLoggedIn is returned when an attendance action runs without a
// resolved user. It signals a caller bug, not a user-facing condition.
var ErrNotLoggedIn = errors.New("attendance: not logged in")

// ErrReloadFailed wraps the reload error after a mark the server accepted.
// The event is recorded; only the returned view is stale.
var ErrReloadFailed = errors.New("attendance recorded but today's view could not be reloaded")

// SessionSource exposes the current session. *auth.Controller implements it.
type SessionSource interface {
	Session() session.Session
}

// TodayView is the employee's attendance for the current calendar day.
type TodayView struct {
	Date    attendsdk.Date
	Status  Status
	Logs    []attendsdk.AttendanceLog
	LastLog *attendsdk.AttendanceLog
	Summary *attendsdk.AttendanceSummary
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// WithLocation sets the zone whose calendar decides what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(w *Workflow) {
		if loc != nil {
			w.loc = loc
		}
	}
}

// Workflow issues attendance actions for the logged-in user and keeps the
// last loaded today view. It is safe for concurrent use and does not
// serialise mark requests; the server decides between racing calls.
type Workflow struct {
	client   *attendsdk.SDKClient
	sessions SessionSource
	now      func() time.Time
	loc      *time.Location

	mu    sync.RWMutex
	today TodayView
}

func NewWorkflow(client *attendsdk.SDKClient, sessions SessionSource, opts ...Option) *Workflow {
	w := &Workflow{
		client:   client,
		sessions: sessions,
		now:      time.Now,
		loc:      time.Local,
		today:    TodayView{Status: StatusNotMarked},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Location returns the zone used for "today" and for displaying times.
func (w *Workflow) Location() *time.Location { return w.loc }

// TodayDate returns the current calendar date in the workflow's location.
func (w *Workflow) TodayDate() attendsdk.Date {
	return attendsdk.DateOf(w.now().In(w.loc))
}

// MarkIn records a check-in and reloads the today view.
func (w *Workflow) MarkIn(ctx context.Context) (TodayView, error) {
	return w.mark(ctx, attendsdk.EventIn)
}

// MarkOut records a check-out and reloads the today view.
func (w *Workflow) MarkOut(ctx context.Context) (TodayView, error) {
	return w.mark(ctx, attendsdk.EventOut)
}

// mark sends the request unconditionally. On rejection the server's message
// is returned verbatim and the cached view is left as it was. On success the
// view is fetched again rather than patched locally; if that fetch fails the
// error wraps ErrReloadFailed so callers do not mistake it for a rejection.
func (w *Workflow) mark(ctx context.Context, event attendsdk.EventType) (TodayView, error) {
	if _, err := w.user(); err != nil {
		return TodayView{}, err
	}
	l := slogx.FromContext(ctx)

	var res attendsdk.Result[attendsdk.AttendanceLog]
	if event == attendsdk.EventIn {
		res = w.client.MarkIn(ctx)
	} else {
		res = w.client.MarkOut(ctx)
	}

	if !res.Success {
		l.Info("attendance mark rejected",
			slog.String("event", string(event)),
			slog.Int("status", res.StatusCode),
			slog.String("error", res.Error),
		)
		return w.Today(), res.Err()
	}

	l.Info("attendance marked", slog.String("event", string(event)), slog.Int64("log_id", res.Data.ID))

	view, err := w.LoadTodayView(ctx)
	if err != nil {
		l.Warn("reload after mark failed", slog.String("event", string(event)), slog.String("error", err.Error()))
		return view, fmt.Errorf("%w: %w", ErrReloadFailed, err)
	}
	return view, nil
}

// LoadTodayView fetches today's logs and summary and derives the status.
// On failure the previously loaded view is kept and returned with the error.
func (w *Workflow) LoadTodayView(ctx context.Context) (TodayView, error) {
	if _, err := w.user(); err != nil {
		return TodayView{}, err
	}

	date := w.TodayDate()
	day := attendsdk.Day(date)

	logs, err := w.client.MyLogs(ctx, day).Value()
	if err != nil {
		return w.Today(), err
	}

	summaries, err := w.client.MySummary(ctx, day).Value()
	if err != nil {
		return w.Today(), err
	}

	view := TodayView{
		Date:    date,
		Status:  DeriveStatus(logs),
		Logs:    logs,
		LastLog: LatestLog(logs),
		Summary: summaryFor(summaries, date),
	}

	w.mu.Lock()
	w.today = view
	w.mu.Unlock()

	return view, nil
}

// Today returns the last loaded view.
func (w *Workflow) Today() TodayView {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.today
}

// History returns the user's daily summaries within r. Missing ends default
// to today and to one month before the end.
func (w *Workflow) History(ctx context.Context, r attendsdk.DateRange) ([]attendsdk.AttendanceSummary, error) {
	if _, err := w.user(); err != nil {
		return nil, err
	}

	if r.End.IsZero() {
		r.End = w.TodayDate()
	}
	if r.Start.IsZero() {
		r.Start = r.End.AddMonths(-1)
	}

	return w.client.MySummary(ctx, r).Value()
}

func (w *Workflow) user() (*attendsdk.User, error) {
	s := w.sessions.Session()
	if !s.Valid() {
		return nil, ErrNotLoggedIn
	}
	return s.User, nil
}

// summaryFor picks the summary dated date, or nil when there is none.
func summaryFor(summaries []attendsdk.AttendanceSummary, date attendsdk.Date) *attendsdk.AttendanceSummary {
	for i := range summaries {
		if summaries[i].Date.Equal(date.Time) {
			return &summaries[i]
		}
	}
	return nil
}
