package attendsdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// ============================================================================
// Users
// ============================================================================

// Role is a user's role as reported by the server.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleHR       Role = "hr"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleHR, RoleAdmin:
		return true
	default:
		return false
	}
}

// User is the identity record of an employee.
type User struct {
	ID           int64  `json:"id"`
	EmployeeCode string `json:"employee_code"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	IsActive     bool   `json:"is_active"`
}

// NewEmployee is the body of POST /auth/register. Role defaults to employee
// on the server when empty.
type NewEmployee struct {
	FullName     string `json:"full_name"`
	EmployeeCode string `json:"employee_code"`
	Email        string `json:"email,omitempty"`
	Password     string `json:"password"`
	Role         Role   `json:"role,omitempty"`
}

// ============================================================================
// Auth
// ============================================================================

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

// LoginResponse is the body of a successful login. Servers name the
// credential either access_token or token.
type LoginResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token,omitempty"`
	Token       string `json:"token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
}

// Credential returns whichever credential field the server filled in.
func (r LoginResponse) Credential() string {
	if r.AccessToken != "" {
		return r.AccessToken
	}
	return r.Token
}

// ============================================================================
// Attendance
// ============================================================================

// EventType is the kind of an attendance event.
type EventType string

const (
	EventIn  EventType = "IN"
	EventOut EventType = "OUT"
)

// AttendanceLog is a single immutable check-in or check-out event.
type AttendanceLog struct {
	ID         int64     `json:"id"`
	EmployeeID int64     `json:"employee_id"`
	EventType  EventType `json:"event_type"`
	Timestamp  Timestamp `json:"timestamp"`
	Source     string    `json:"source"`
}

// AttendanceSummary is the server's per-employee daily aggregate.
// EmployeeName and EmployeeCode are filled in by servers that join them.
type AttendanceSummary struct {
	ID                   int64      `json:"id"`
	EmployeeID           int64      `json:"employee_id"`
	Date                 Date       `json:"date"`
	FirstIn              *Timestamp `json:"first_in"`
	LastOut              *Timestamp `json:"last_out"`
	TotalDurationSeconds int64      `json:"total_duration_seconds"`
	Notes                *string    `json:"notes"`
	EmployeeName         string     `json:"employee_name,omitempty"`
	EmployeeCode         string     `json:"employee_code,omitempty"`
}

// ============================================================================
// Time values
// ============================================================================

// naiveLayouts are accepted for timestamps sent without a zone.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Timestamp accepts RFC 3339 values as well as zone-less datetimes, which
// are read in the local zone.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}

	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}

	for _, layout := range naiveLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}

	return fmt.Errorf("invalid timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// DateLayout is the wire form of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time of day.
type Date struct {
	time.Time
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

// String returns the YYYY-MM-DD form, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays returns the date n days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// AddMonths returns the date n months later (earlier for negative n).
func (d Date) AddMonths(n int) Date {
	return Date{d.Time.AddDate(0, n, 0)}
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}

	// Some servers send the date as a full datetime
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}

	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// DateRange bounds a query by calendar date. Zero ends are left open.
type DateRange struct {
	Start Date
	End   Date
}

// Day returns a range covering a single date.
func Day(d Date) DateRange {
	return DateRange{Start: d, End: d}
}

// values encodes the range as start_date/end_date query parameters.
func (r DateRange) values(q url.Values) url.Values {
	if q == nil {
		q = url.Values{}
	}
	if !r.Start.IsZero() {
		q.Set("start_date", r.Start.String())
	}
	if !r.End.IsZero() {
		q.Set("end_date", r.End.String())
	}
	return q
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
