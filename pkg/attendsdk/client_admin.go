package attendsdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

const (
	pathEmployees          = "/admin/employees"
	pathDailySummary       = "/admin/attendance/summary"
	pathAttendanceLogs     = "/admin/attendance/logs"
	pathEmployeeAttendance = "/admin/attendance/"
	pathRegister           = "/auth/register"
)

// ListEmployees lists every employee.
// Requires: admin or hr role
func (c *SDKClient) ListEmployees(ctx context.Context) Result[[]User] {
	return Do[[]User](ctx, c, Request{Method: http.MethodGet, Path: pathEmployees})
}

// DailySummary lists every employee's summary for a single date.
// Requires: admin or hr role
func (c *SDKClient) DailySummary(ctx context.Context, date Date) Result[[]AttendanceSummary] {
	q := url.Values{}
	if !date.IsZero() {
		q.Set("date", date.String())
	}

	return Do[[]AttendanceSummary](ctx, c, Request{
		Method: http.MethodGet,
		Path:   pathDailySummary,
		Query:  q,
	})
}

// AttendanceLogs lists raw attendance events within r. An employeeID of 0
// lists events for all employees.
// Requires: admin or hr role
func (c *SDKClient) AttendanceLogs(ctx context.Context, employeeID int64, r DateRange) Result[[]AttendanceLog] {
	q := url.Values{}
	if employeeID != 0 {
		q.Set("employee_id", formatID(employeeID))
	}

	return Do[[]AttendanceLog](ctx, c, Request{
		Method: http.MethodGet,
		Path:   pathAttendanceLogs,
		Query:  r.values(q),
	})
}

// EmployeeAttendance lists one employee's daily summaries within r.
// Requires: admin or hr role
func (c *SDKClient) EmployeeAttendance(ctx context.Context, employeeID int64, r DateRange) Result[[]AttendanceSummary] {
	return Do[[]AttendanceSummary](ctx, c, Request{
		Method: http.MethodGet,
		Path:   pathEmployeeAttendance + formatID(employeeID),
		Query:  r.values(nil),
	})
}

// CreateEmployee registers a new employee account. The server answers with a
// confirmation message only, which is returned in Result.Message.
// Requires: admin role
func (c *SDKClient) CreateEmployee(ctx context.Context, e NewEmployee) Result[json.RawMessage] {
	return Do[json.RawMessage](ctx, c, Request{Method: http.MethodPost, Path: pathRegister, Body: e})
}
