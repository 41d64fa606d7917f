package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/eas/internal/policy"
	"github.com/aussiebroadwan/eas/pkg/attendsdk"
	"github.com/aussiebroadwan/eas/pkg/slogx"
)

var (
	ErrEmptyQuery         = errors.New("enter an employee code (e.g. EMP001) or numeric id")
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrIncompleteEmployee = errors.New("full name, employee code and password are required")
)

// EmployeeAdded is reported when the server confirms a registration without
// a message of its own.
const EmployeeAdded = "Employee added"

// Placeholders for summaries whose employee is not in the employee list.
const (
	UnknownName = "Unknown"
	UnknownCode = "-"
)

// Stats counts the employees present and absent on a day.
type Stats struct {
	Total   int
	Present int
	Absent  int
}

// Dashboard is the admin view of a single day.
type Dashboard struct {
	Date      attendsdk.Date
	Stats     Stats
	Summaries []attendsdk.AttendanceSummary
	Employees []attendsdk.User
}

// Absent returns the employees with no summary for the day.
func (d Dashboard) Absent() []attendsdk.User {
	seen := make(map[int64]struct{}, len(d.Summaries))
	for _, s := range d.Summaries {
		seen[s.EmployeeID] = struct{}{}
	}

	var absent []attendsdk.User
	for _, e := range d.Employees {
		if _, ok := seen[e.ID]; !ok {
			absent = append(absent, e)
		}
	}
	return absent
}

// Filter narrows the summaries and employees to those whose name or code
// contains query, ignoring case. Stats are left untouched.
func (d Dashboard) Filter(query string) Dashboard {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return d
	}

	match := func(name, code string) bool {
		return strings.Contains(strings.ToLower(name), query) ||
			strings.Contains(strings.ToLower(code), query)
	}

	out := d
	out.Summaries = nil
	for _, s := range d.Summaries {
		if match(s.EmployeeName, s.EmployeeCode) {
			out.Summaries = append(out.Summaries, s)
		}
	}

	out.Employees = nil
	for _, e := range d.Employees {
		if match(e.FullName, e.EmployeeCode) {
			out.Employees = append(out.Employees, e)
		}
	}

	return out
}

// AdminDashboard loads every employee's summary for date (today when zero)
// and joins employee names and codes onto it.
// Requires: admin or hr role
func (w *Workflow) AdminDashboard(ctx context.Context, date attendsdk.Date) (Dashboard, error) {
	if err := policy.Require(w.sessions.Session(), policy.AdminOrHR); err != nil {
		return Dashboard{}, err
	}
	if date.IsZero() {
		date = w.TodayDate()
	}

	employees, err := w.client.ListEmployees(ctx).Value()
	if err != nil {
		return Dashboard{}, err
	}

	summaries, err := w.client.DailySummary(ctx, date).Value()
	if err != nil {
		return Dashboard{}, err
	}

	byID := make(map[int64]attendsdk.User, len(employees))
	for _, e := range employees {
		byID[e.ID] = e
	}

	present := 0
	for i := range summaries {
		s := &summaries[i]
		if e, ok := byID[s.EmployeeID]; ok {
			s.EmployeeName, s.EmployeeCode = e.FullName, e.EmployeeCode
		}
		if s.EmployeeName == "" {
			s.EmployeeName = UnknownName
		}
		if s.EmployeeCode == "" {
			s.EmployeeCode = UnknownCode
		}
		if s.FirstIn != nil {
			present++
		}
	}

	return Dashboard{
		Date: date,
		Stats: Stats{
			Total:   len(employees),
			Present: present,
			Absent:  len(employees) - present,
		},
		Summaries: summaries,
		Employees: employees,
	}, nil
}

// EmployeeRecord is one employee's attendance over a range.
type EmployeeRecord struct {
	Employee  attendsdk.User
	Range     attendsdk.DateRange
	Summaries []attendsdk.AttendanceSummary
	Logs      []attendsdk.AttendanceLog
}

// Lookup finds an employee by numeric id or by employee code and loads their
// summaries and logs within r. Missing range ends default as in History.
// Requires: admin or hr role
func (w *Workflow) Lookup(ctx context.Context, query string, r attendsdk.DateRange) (EmployeeRecord, error) {
	if err := policy.Require(w.sessions.Session(), policy.AdminOrHR); err != nil {
		return EmployeeRecord{}, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return EmployeeRecord{}, ErrEmptyQuery
	}

	employees, err := w.client.ListEmployees(ctx).Value()
	if err != nil {
		return EmployeeRecord{}, err
	}

	employee, ok := findEmployee(employees, query)
	if !ok {
		return EmployeeRecord{}, ErrEmployeeNotFound
	}

	if r.End.IsZero() {
		r.End = w.TodayDate()
	}
	if r.Start.IsZero() {
		r.Start = r.End.AddMonths(-1)
	}

	summaries, err := w.client.EmployeeAttendance(ctx, employee.ID, r).Value()
	if err != nil {
		return EmployeeRecord{}, err
	}

	logs, err := w.client.AttendanceLogs(ctx, employee.ID, r).Value()
	if err != nil {
		return EmployeeRecord{}, err
	}

	return EmployeeRecord{
		Employee:  employee,
		Range:     r,
		Summaries: summaries,
		Logs:      logs,
	}, nil
}

// Logs lists raw attendance events within r, for one employee or for all
// when employeeID is 0.
// Requires: admin or hr role
func (w *Workflow) Logs(ctx context.Context, employeeID int64, r attendsdk.DateRange) ([]attendsdk.AttendanceLog, error) {
	if err := policy.Require(w.sessions.Session(), policy.AdminOrHR); err != nil {
		return nil, err
	}
	if r.Start.IsZero() && r.End.IsZero() {
		r = attendsdk.Day(w.TodayDate())
	}
	return w.client.AttendanceLogs(ctx, employeeID, r).Value()
}

// findEmployee matches an all-digit query against ids and anything else
// against employee codes, ignoring case.
func findEmployee(employees []attendsdk.User, query string) (attendsdk.User, bool) {
	if id, err := strconv.ParseInt(query, 10, 64); err == nil && isDigits(query) {
		for _, e := range employees {
			if e.ID == id {
				return e, true
			}
		}
		return attendsdk.User{}, false
	}

	for _, e := range employees {
		if strings.EqualFold(e.EmployeeCode, query) {
			return e, true
		}
	}
	return attendsdk.User{}, false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// AddEmployee registers a new employee account and returns the server's
// confirmation. Role defaults to employee.
// Requires: admin role
func (w *Workflow) AddEmployee(ctx context.Context, e attendsdk.NewEmployee) (string, error) {
	if err := policy.Require(w.sessions.Session(), policy.AdminOnly); err != nil {
		return "", err
	}

	e.FullName = strings.TrimSpace(e.FullName)
	e.EmployeeCode = strings.TrimSpace(e.EmployeeCode)
	e.Email = strings.TrimSpace(e.Email)
	if e.FullName == "" || e.EmployeeCode == "" || e.Password == "" {
		return "", ErrIncompleteEmployee
	}

	if e.Role == "" {
		e.Role = attendsdk.RoleEmployee
	}
	if !e.Role.Valid() {
		return "", fmt.Errorf("unknown role %q (want employee, hr or admin)", e.Role)
	}

	res := w.client.CreateEmployee(ctx, e)
	if !res.Success {
		return "", res.Err()
	}

	slogx.FromContext(ctx).Info("employee registered",
		slog.String("employee_code", e.EmployeeCode),
		slog.String("role", string(e.Role)),
	)

	if res.Message != "" {
		return res.Message, nil
	}
	return EmployeeAdded, nil
}
