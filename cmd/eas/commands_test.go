package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/eas/internal/app"
	"github.com/aussiebroadwan/eas/pkg/attendsdk"
	"github.com/aussiebroadwan/eas/pkg/httpx"
	"github.com/stretchr/testify/require"
)

// fakeService answers as the attendance service for one logged-in user.
type fakeService struct {
	mu         sync.Mutex
	user       attendsdk.User
	logs       []attendsdk.AttendanceLog
	registered []attendsdk.NewEmployee
	logsBusy   bool
}

func (f *fakeService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"access_token": "tok", "user": f.user})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /attendance/in", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if len(f.logs) > 0 && f.logs[len(f.logs)-1].EventType == attendsdk.EventIn {
			httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"detail": "Already checked in"})
			return
		}
		entry := attendsdk.AttendanceLog{
			ID:         int64(len(f.logs) + 1),
			EmployeeID: f.user.ID,
			EventType:  attendsdk.EventIn,
			Timestamp:  attendsdk.Timestamp{Time: time.Now()},
			Source:     "cli",
		}
		f.logs = append(f.logs, entry)
		httpx.WriteJSON(w, http.StatusCreated, entry)
	})
	mux.HandleFunc("GET /attendance/logs/me", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.logsBusy {
			httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"detail": "upstream busy"})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, f.logs)
	})
	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		var e attendsdk.NewEmployee
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"message": "Missing required fields"})
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.registered = append(f.registered, e)
		httpx.WriteJSON(w, http.StatusCreated, map[string]string{"message": "Employee registered successfully"})
	})
	mux.HandleFunc("GET /attendance/summary/me", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, []attendsdk.AttendanceSummary{})
	})
	mux.HandleFunc("GET /admin/employees", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, []attendsdk.User{f.user})
	})
	mux.HandleFunc("GET /admin/attendance/summary", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, []attendsdk.AttendanceSummary{})
	})
	return mux
}

func newTestApp(t *testing.T, user attendsdk.User) *app.Application {
	t.Helper()

	a, _ := newTestAppWithService(t, user)
	return a
}

func newTestAppWithService(t *testing.T, user attendsdk.User) (*app.Application, *fakeService) {
	t.Helper()

	f := &fakeService{user: user}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	a, err := app.New(app.Config{
		APIURL:         srv.URL,
		HTTPTimeout:    5 * time.Second,
		SessionStore:   app.StoreMemory,
		ValidationMode: "cache",
		LogLevel:       "error",
		RateLimit:      httpx.ClientLimit,
	})
	require.NoError(t, err)
	return a, f
}

func exec(t *testing.T, a *app.Application, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	err := run(context.Background(), a, args, &out)
	return out.String(), err
}

var employee = attendsdk.User{ID: 7, EmployeeCode: "EMP007", FullName: "Sam Lee", Email: "sam@example.com", Role: attendsdk.RoleEmployee}

func TestUsage(t *testing.T) {
	a := newTestApp(t, employee)

	out, err := exec(t, a)
	require.NoError(t, err)
	require.Contains(t, out, "usage: eas")

	_, err = exec(t, a, "dance")
	require.ErrorIs(t, err, errUsage)

	_, err = exec(t, a, "admin")
	require.ErrorIs(t, err, errUsage)

	_, err = exec(t, a, "login")
	require.ErrorIs(t, err, errUsage)

	_, err = exec(t, a, "login", "-email", "sam@example.com", "-from", "yesterday")
	require.ErrorIs(t, err, errUsage)

	_, err = exec(t, a, "routes", "extra")
	require.ErrorIs(t, err, errUsage)
}

func TestEmployeeSession(t *testing.T) {
	a := newTestApp(t, employee)

	_, err := exec(t, a, "today")
	require.EqualError(t, err, "not logged in, run: eas login -email <email>")

	out, err := exec(t, a, "login", "-email", "sam@example.com")
	require.NoError(t, err)
	require.Equal(t, "Logged in as Sam Lee (employee)\n", out)

	out, err = exec(t, a, "today")
	require.NoError(t, err)
	require.Contains(t, out, "Not marked")
	require.Contains(t, out, "eas in")

	out, err = exec(t, a, "in")
	require.NoError(t, err)
	require.Contains(t, out, "Checked in")
	require.Contains(t, out, "eas out")

	_, err = exec(t, a, "in")
	require.EqualError(t, err, "Already checked in")

	_, err = exec(t, a, "admin", "dashboard")
	require.EqualError(t, err, "not permitted, redirected to /dashboard")

	out, err = exec(t, a, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "EMP007")
	require.Contains(t, out, "/dashboard")

	out, err = exec(t, a, "routes")
	require.NoError(t, err)
	require.Contains(t, out, "/attendance")
	require.Contains(t, out, "redirect /dashboard")
	require.Contains(t, out, "Menu: Attendance\n")

	out, err = exec(t, a, "logout")
	require.NoError(t, err)
	require.Equal(t, "Logged out\n", out)

	_, err = exec(t, a, "whoami")
	require.Error(t, err)
}

func TestAdminDashboardCommand(t *testing.T) {
	hr := attendsdk.User{ID: 1, EmployeeCode: "HR001", FullName: "Priya Shah", Role: attendsdk.RoleHR}
	a := newTestApp(t, hr)

	_, err := exec(t, a, "login", "-email", "priya@example.com")
	require.NoError(t, err)

	out, err := exec(t, a, "admin", "dashboard", "-date", "2025-03-04")
	require.NoError(t, err)
	require.Contains(t, out, "Mar 4, 2025  total 1  present 0  absent 1")
	require.Contains(t, out, "HR001  Priya Shah")

	_, err = exec(t, a, "admin", "lookup")
	require.EqualError(t, err, "enter an employee code (e.g. EMP001) or numeric id")
}

func TestMarkRecordedButViewStale(t *testing.T) {
	a, f := newTestAppWithService(t, employee)

	_, err := exec(t, a, "login", "-email", "sam@example.com")
	require.NoError(t, err)

	f.mu.Lock()
	f.logsBusy = true
	f.mu.Unlock()

	out, err := exec(t, a, "in")
	require.NoError(t, err, "a recorded check-in must not fail the command")
	require.Contains(t, out, "Checked in\n")
	require.Contains(t, out, "upstream busy")
	require.Contains(t, out, "Run eas today to refresh")

	f.mu.Lock()
	require.Len(t, f.logs, 1)
	f.mu.Unlock()
}

func TestAdminAddEmployeeCommand(t *testing.T) {
	hr := attendsdk.User{ID: 1, EmployeeCode: "HR001", FullName: "Priya Shah", Role: attendsdk.RoleHR}
	a, f := newTestAppWithService(t, hr)

	_, err := exec(t, a, "login", "-email", "priya@example.com")
	require.NoError(t, err)

	_, err = exec(t, a, "admin", "add-employee", "-name", "Kai Tanaka", "-code", "EMP010", "-password", "pw")
	require.EqualError(t, err, "not permitted, redirected to /admin")

	out, err := exec(t, a, "routes")
	require.NoError(t, err)
	require.Contains(t, out, "Menu: Attendance, View Employee, Admin Dashboard\n")

	admin := attendsdk.User{ID: 2, EmployeeCode: "ADM001", FullName: "Ola Berg", Role: attendsdk.RoleAdmin}
	a, f = newTestAppWithService(t, admin)

	_, err = exec(t, a, "login", "-email", "ola@example.com")
	require.NoError(t, err)

	_, err = exec(t, a, "admin", "add-employee", "-name", "Kai Tanaka")
	require.EqualError(t, err, "full name, employee code and password are required")

	out, err = exec(t, a, "admin", "add-employee", "-name", "Kai Tanaka", "-code", "EMP010", "-password", "pw", "-role", "HR")
	require.NoError(t, err)
	require.Equal(t, "Employee registered successfully\n", out)

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Equal(t, []attendsdk.NewEmployee{{
		FullName:     "Kai Tanaka",
		EmployeeCode: "EMP010",
		Password:     "pw",
		Role:         attendsdk.RoleHR,
	}}, f.registered)
}
