package attendsdk

import (
	"context"
	"net/http"
)

const (
	pathMarkIn    = "/attendance/in"
	pathMarkOut   = "/attendance/out"
	pathMyLogs    = "/attendance/logs/me"
	pathMySummary = "/attendance/summary/me"
)

// MarkIn records a check-in for the current user.
func (c *SDKClient) MarkIn(ctx context.Context) Result[AttendanceLog] {
	return Do[AttendanceLog](ctx, c, Request{Method: http.MethodPost, Path: pathMarkIn})
}

// MarkOut records a check-out for the current user.
func (c *SDKClient) MarkOut(ctx context.Context) Result[AttendanceLog] {
	return Do[AttendanceLog](ctx, c, Request{Method: http.MethodPost, Path: pathMarkOut})
}

// MyLogs lists the current user's attendance events within r.
func (c *SDKClient) MyLogs(ctx context.Context, r DateRange) Result[[]AttendanceLog] {
	return Do[[]AttendanceLog](ctx, c, Request{
		Method: http.MethodGet,
		Path:   pathMyLogs,
		Query:  r.values(nil),
	})
}

// MySummary lists the current user's daily summaries within r.
func (c *SDKClient) MySummary(ctx context.Context, r DateRange) Result[[]AttendanceSummary] {
	return Do[[]AttendanceSummary](ctx, c, Request{
		Method: http.MethodGet,
		Path:   pathMySummary,
		Query:  r.values(nil),
	})
}
