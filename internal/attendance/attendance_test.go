package attendance_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/eas/internal/attendance"
	"github.com/aussiebroadwan/eas/internal/session"
	"github.com/aussiebroadwan/eas/pkg/attendsdk"
	"github.com/aussiebroadwan/eas/pkg/httpx"
)

// fixedSession is a SessionSource that always returns the same session.
type fixedSession session.Session

func (f fixedSession) Session() session.Session { return session.Session(f) }

func loggedIn(role attendsdk.Role) fixedSession {
	return fixedSession{Credential: "tok", User: &attendsdk.User{ID: 1, Role: role}}
}

var (
	sydney = mustLoadLocation("Australia/Sydney")
	// 2025-03-04 08:30 in Sydney, still 2025-03-03 in UTC
	morning = time.Date(2025, 3, 4, 8, 30, 0, 0, sydney)
)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("AEDT", 11*3600)
	}
	return loc
}

// fakeAttendance is an in-memory attendance service for a single employee
// plus the admin endpoints.
type fakeAttendance struct {
	*httptest.Server

	mu        sync.Mutex
	logs      []attendsdk.AttendanceLog
	employees []attendsdk.User
	summaries []attendsdk.AttendanceSummary
	queries   []string
	now       time.Time

	// logsBusy makes GET /attendance/logs/me answer 503
	logsBusy bool
	// summaryDay overrides the date on the employee's own summary
	summaryDay attendsdk.Date
	registered []attendsdk.NewEmployee
}

func newFakeAttendance(t *testing.T) *fakeAttendance {
	t.Helper()

	f := &fakeAttendance{now: morning}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /attendance/in", func(w http.ResponseWriter, r *http.Request) {
		f.mark(w, attendsdk.EventIn)
	})
	mux.HandleFunc("POST /attendance/out", func(w http.ResponseWriter, r *http.Request) {
		f.mark(w, attendsdk.EventOut)
	})
	mux.HandleFunc("GET /attendance/logs/me", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.queries = append(f.queries, r.URL.RawQuery)
		if f.logsBusy {
			httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"detail": "upstream busy"})
			return
		}
		// The real service returns newest first
		out := make([]attendsdk.AttendanceLog, 0, len(f.logs))
		for i := len(f.logs) - 1; i >= 0; i-- {
			out = append(out, f.logs[i])
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	})
	mux.HandleFunc("GET /attendance/summary/me", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.queries = append(f.queries, r.URL.RawQuery)
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": f.summaryLocked()})
	})
	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		var e attendsdk.NewEmployee
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"message": "Missing required fields"})
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		for _, existing := range f.employees {
			if existing.EmployeeCode == e.EmployeeCode {
				httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"message": "User with this email or code already exists"})
				return
			}
		}
		f.registered = append(f.registered, e)
		f.employees = append(f.employees, attendsdk.User{
			ID:           int64(len(f.employees) + 100),
			EmployeeCode: e.EmployeeCode,
			FullName:     e.FullName,
			Email:        e.Email,
			Role:         e.Role,
			IsActive:     true,
		})
		httpx.WriteJSON(w, http.StatusCreated, map[string]string{"message": "Employee registered successfully"})
	})
	mux.HandleFunc("GET /admin/employees", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		httpx.WriteJSON(w, http.StatusOK, f.employees)
	})
	mux.HandleFunc("GET /admin/attendance/summary", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.queries = append(f.queries, r.URL.RawQuery)
		httpx.WriteJSON(w, http.StatusOK, f.summaries)
	})
	mux.HandleFunc("GET /admin/attendance/logs", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.queries = append(f.queries, r.URL.RawQuery)
		id, _ := strconv.ParseInt(r.URL.Query().Get("employee_id"), 10, 64)
		var out []attendsdk.AttendanceLog
		for _, l := range f.logs {
			if id == 0 || l.EmployeeID == id {
				out = append(out, l)
			}
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	})
	mux.HandleFunc("GET /admin/attendance/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.queries = append(f.queries, r.PathValue("id")+"?"+r.URL.RawQuery)
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		var out []attendsdk.AttendanceSummary
		for _, s := range f.summaries {
			if s.EmployeeID == id {
				out = append(out, s)
			}
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeAttendance) mark(w http.ResponseWriter, event attendsdk.EventType) {
	f.mu.Lock()
	defer f.mu.Unlock()

	status := attendance.DeriveStatus(f.logs)
	switch {
	case event == attendsdk.EventIn && status == attendance.StatusCheckedIn:
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"detail": "Already checked in. Please check out first."})
		return
	case event == attendsdk.EventOut && status != attendance.StatusCheckedIn:
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"detail": "Not checked in"})
		return
	}

	f.now = f.now.Add(time.Hour)
	entry := attendsdk.AttendanceLog{
		ID:         int64(len(f.logs) + 1),
		EmployeeID: 1,
		EventType:  event,
		Timestamp:  attendsdk.Timestamp{Time: f.now},
		Source:     "web",
	}
	f.logs = append(f.logs, entry)
	httpx.WriteJSON(w, http.StatusCreated, entry)
}

func (f *fakeAttendance) summaryLocked() []attendsdk.AttendanceSummary {
	if len(f.logs) == 0 {
		return []attendsdk.AttendanceSummary{}
	}
	first := f.logs[0].Timestamp
	s := attendsdk.AttendanceSummary{
		ID:         1,
		EmployeeID: 1,
		Date:       attendsdk.DateOf(morning),
		FirstIn:    &first,
	}
	if !f.summaryDay.IsZero() {
		s.Date = f.summaryDay
	}
	if last := f.logs[len(f.logs)-1]; last.EventType == attendsdk.EventOut {
		out := last.Timestamp
		s.LastOut = &out
		s.TotalDurationSeconds = int64(out.Sub(first.Time).Seconds())
	}
	return []attendsdk.AttendanceSummary{s}
}

func (f *fakeAttendance) set(fn func(f *fakeAttendance)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeAttendance) recordedQueries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func newWorkflow(f *fakeAttendance, s attendance.SessionSource) *attendance.Workflow {
	client := attendsdk.NewSDKClient(f.URL)
	client.Credentials = attendsdk.StaticCredential("tok")
	return attendance.NewWorkflow(client, s,
		attendance.WithClock(func() time.Time { return morning }),
		attendance.WithLocation(sydney),
	)
}

func ctx() context.Context { return context.Background() }
