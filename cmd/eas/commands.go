package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/aussiebroadwan/eas/internal/app"
	"github.com/aussiebroadwan/eas/internal/attendance"
	"github.com/aussiebroadwan/eas/internal/auth"
	"github.com/aussiebroadwan/eas/internal/policy"
	"github.com/aussiebroadwan/eas/pkg/attendsdk"
	"github.com/aussiebroadwan/eas/pkg/slogx"
)

const usage = `usage: eas <command> [flags]

commands:
  login -email E [-password P]   log in and remember the session
  logout                         forget the session
  whoami                         show the logged-in user
  today                          show today's attendance
  in                             check in
  out                            check out
  history [-from D] [-to D]      show daily summaries (default: last month)
  admin dashboard [-date D] [-q Q]
  admin lookup -q Q [-from D] [-to D]
  admin logs [-employee N] [-from D] [-to D]
  admin add-employee -name N -code C -password P [-email E] [-role R]
  routes                         show which views the session may open

dates are YYYY-MM-DD`

var errUsage = errors.New("invalid usage")

// deniedError reports a policy redirect.
type deniedError struct {
	decision policy.Decision
}

func (e deniedError) Error() string {
	if e.decision.Redirect == policy.ViewLogin {
		return "not logged in, run: eas login -email <email>"
	}
	return fmt.Sprintf("not permitted, redirected to %s", e.decision.Redirect)
}

type command struct {
	// capability is checked before run; empty means no session is needed
	capability policy.Capability
	run        func(ctx context.Context, a *app.Application, args []string, out io.Writer) error
}

// lookup returns the command registered under name.
func lookup(name string) (command, bool) {
	switch name {
	case "login":
		return command{run: cmdLogin}, true
	case "logout":
		return command{run: cmdLogout}, true
	case "routes":
		return command{run: cmdRoutes}, true
	case "whoami":
		return command{capability: policy.AnyAuthenticated, run: cmdWhoami}, true
	case "today":
		return command{capability: policy.AnyAuthenticated, run: cmdToday}, true
	case "in":
		return command{capability: policy.AnyAuthenticated, run: cmdMark(attendsdk.EventIn)}, true
	case "out":
		return command{capability: policy.AnyAuthenticated, run: cmdMark(attendsdk.EventOut)}, true
	case "history":
		return command{capability: policy.AnyAuthenticated, run: cmdHistory}, true
	case "admin dashboard":
		return command{capability: policy.AdminOrHR, run: cmdAdminDashboard}, true
	case "admin lookup":
		return command{capability: policy.AdminOrHR, run: cmdAdminLookup}, true
	case "admin logs":
		return command{capability: policy.AdminOrHR, run: cmdAdminLogs}, true
	case "admin add-employee":
		return command{capability: policy.AdminOnly, run: cmdAdminAddEmployee}, true
	default:
		return command{}, false
	}
}

// run starts the application, resolves the command named by args and runs
// it once the policy gate allows it.
func run(ctx context.Context, a *app.Application, args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(out, usage)
		return nil
	}

	name, rest := args[0], args[1:]
	if name == "admin" {
		if len(rest) == 0 {
			return fmt.Errorf("%w: admin needs a subcommand (dashboard, lookup, logs, add-employee)", errUsage)
		}
		name, rest = "admin "+rest[0], rest[1:]
	}

	cmd, ok := lookup(name)
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}

	ctx, err := a.Start(ctx)
	if err != nil {
		// An unreachable server during remote validation is not fatal for
		// commands that do not need a session
		slogx.FromContext(ctx).Warn("session validation failed", "error", err)
		if cmd.capability != "" {
			return err
		}
	}
	ctx = slogx.WithCommand(ctx, name)

	if cmd.capability != "" {
		if d := policy.Decide(a.Auth().Session(), cmd.capability); !d.Allowed {
			return deniedError{decision: d}
		}
	}

	return cmd.run(ctx, a, rest, out)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: %s: unexpected argument %q", errUsage, fs.Name(), fs.Arg(0))
	}
	return nil
}

// dateFlag is a flag.Value holding an optional YYYY-MM-DD date.
type dateFlag struct {
	attendsdk.Date
}

func (d *dateFlag) Set(s string) error {
	parsed, err := attendsdk.ParseDate(s)
	if err != nil {
		return err
	}
	d.Date = parsed
	return nil
}

func rangeFlags(fs *flag.FlagSet) (from, to *dateFlag) {
	from, to = &dateFlag{}, &dateFlag{}
	fs.Var(from, "from", "first date (YYYY-MM-DD)")
	fs.Var(to, "to", "last date (YYYY-MM-DD)")
	return from, to
}

func cmdLogin(ctx context.Context, a *app.Application, args []string, out io.Writer) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password, when the deployment uses one")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if strings.TrimSpace(*email) == "" {
		return fmt.Errorf("%w: login: -email is required", errUsage)
	}

	if err := a.Auth().Login(ctx, auth.Credentials{Email: *email, Password: *password}); err != nil {
		return err
	}

	u := a.Auth().User()
	fmt.Fprintf(out, "Logged in as %s (%s)\n", displayName(u), u.Role)
	return nil
}

func cmdLogout(ctx context.Context, a *app.Application, args []string, out io.Writer) error {
	if err := parseFlags(newFlagSet("logout"), args); err != nil {
		return err
	}
	if err := a.Auth().Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "Logged out")
	return nil
}

func cmdWhoami(ctx context.Context, a *app.Application, args []string, out io.Writer) error {
	if err := parseFlags(newFlagSet("whoami"), args); err != nil {
		return err
	}

	s := a.Auth().Session()
	u := s.User

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", displayName(u))
	fmt.Fprintf(tw, "Email:\t%s\n", u.Email)
	fmt.Fprintf(tw, "Employee code:\t%s\n", orDash(u.EmployeeCode))
	fmt.Fprintf(tw, "Role:\t%s\n", u.Role)
	fmt.Fprintf(tw, "Home:\t%s\n", policy.HomeFor(s))

	if claims, err := a.Auth().CredentialInfo(); err == nil && claims.ExpiresAt != nil {
		fmt.Fprintf(tw, "Credential expires:\t%s\n", claims.ExpiresAt.In(a.Attendance().Location()).Format("Jan 2, 2006 03:04 PM"))
	}
	return tw.Flush()
}

func cmdToday(ctx context.Context, a *app.Application, args []string, out io.Writer) error {
	if err := parseFlags(newFlagSet("today"), args); err != nil {
		return err
	}

	view, err := a.Attendance().LoadTodayView(ctx)
	if err != nil {
		return err
	}
	return printToday(out, view, a.Attendance())
}

func cmdMark(event attendsdk.EventType) func(context.Context, *app.Application, []string, io.Writer) error {
	return func(ctx context.Context, a *app.Application, args []string, out io.Writer) error {
		name := "in"
		mark := a.Attendance().MarkIn
		if event == attendsdk.EventOut {
			name, mark = "out", a.Attendance().MarkOut
		}

		if err := parseFlags(newFlagSet(name), args); err != nil {
			return err
		}

		view, err := mark(ctx)
		stale := errors.Is(err, attendance.ErrReloadFailed)
		if err != nil && !stale {
			return err
		}

		if event == attendsdk.EventIn {
			fmt.Fprintln(out, "Checked in")
		} else {
			fmt.Fprintln(out, "Checked out")
		}

		// The event is recorded; exiting non-zero here would invite a retry
		if stale {
			fmt.Fprintf(out, "Warning: %v\nRun eas today to refresh\n", err)
			return nil
		}
		return printToday(out, view, a.Attendance())
	}
}

func printToday(out io.Writer, view attendance.TodayView, w *attendance.Workflow) error {
	loc := w.Location()

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Date:\t%s\n", attendance.FormatDate(view.Date))
	fmt.Fprintf(tw, "Status:\t%s\n", statusLabel(view.Status))

	if view.Summary != nil {
		fmt.Fprintf(tw, "First in:\t%s\n", attendance.FormatTime(view.Summary.FirstIn, loc))
		fmt.Fprintf(tw, "Last out:\t%s\n", attendance.FormatTime(view.Summary.LastOut, loc))
		fmt.Fprintf(tw, "Worked:\t%s\n", attendance.FormatDuration(view.Summary.TotalDurationSeconds))
	} else {
		fmt.Fprintf(tw, "Worked:\t%s\n", attendance.FormatDuration(0))
	}

	if view.LastLog != nil {
		fmt.Fprintf(tw, "Last event:\t%s at %s\n", view.LastLog.EventType, attendance.FormatTime(&view.LastLog.Timestamp, loc))
	}

	var next []string
	if attendance.CanMarkIn(view.Status) {
		next = append(next, "eas in")
	}
	if attendance.CanMarkOut(view.Status) {
		next = append(next, "eas out")
	}
	fmt.Fprintf(tw, "Next:\t%s\n", strings.Join(next, ", "))

	return tw.Flush()
}

func cmdHistory(ctx context.Context, a *app.Application, args []string, out io.Writer) error {
	fs := newFlagSet("history")
	from, to := rangeFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	summaries, err := a.Attendance().History(ctx, attendsdk.DateRange{Start: from.Date, End: to.Date})
	if err != nil {
		return err
	}

	if len(summaries) == 0 {
		fmt.Fprintln(out, "No attendance records found")
		return nil
	}

	loc := a.Attendance().Location()
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tFIRST IN\tLAST OUT\tDURATION\tNOTES")
	for _, s := range summaries {
		notes := "-"
		if s.Notes != nil && *s.Notes != "" {
			notes = *s.Notes
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			attendance.FormatDate(s.Date),
			attendance.FormatTime(s.FirstIn, loc),
			attendance.FormatTime(s.LastOut, loc),
			attendance.FormatDuration(s.TotalDurationSeconds),
			notes,
		)
	}
	return tw.Flush()
}

func cmdAdminDashboard(ctx context.Context, a *app.Application, args []string, out io.Writer) error {
	fs := newFlagSet("admin dashboard")
	date := &dateFlag{}
	fs.Var(date, "date", "day to show (YYYY-MM-DD, default today)")
	query := fs.String("q", "", "filter by name or employee code")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	d, err := a.Attendance().AdminDashboard(ctx, date.Date)
	if err != nil {
		return err
	}
	filtered := d.Filter(*query)

	loc := a.Attendance().Location()
	fmt.Fprintf(out, "%s  total %d  present %d  absent %d\n\n",
		attendance.FormatDate(d.Date), d.Stats.Total, d.Stats.Present, d.Stats.Absent)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tFIRST IN\tLAST OUT\tDURATION")
	for _, s := range filtered.Summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.EmployeeCode,
			s.EmployeeName,
			attendance.FormatTime(s.FirstIn, loc),
			attendance.FormatTime(s.LastOut, loc),
			attendance.FormatDuration(s.TotalDurationSeconds),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	absent := filtered.Absent()
	if len(absent) == 0 {
		return nil
	}

	fmt.Fprintln(out, "\nNo record:")
	for _, e := range absent {
		fmt.Fprintf(out, "  %s  %s\n", orDash(e.EmployeeCode), displayName(&e))
	}
	return nil
}

func cmdAdminLookup(ctx context.Context, a *app.Application, args []string, out io.Writer) error {
	fs := newFlagSet("admin lookup")
	query := fs.String("q", "", "employee code (EMP001) or numeric id")
	from, to := rangeFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	rec, err := a.Attendance().Lookup(ctx, *query, attendsdk.DateRange{Start: from.Date, End: to.Date})
	if err != nil {
		return err
	}

	loc := a.Attendance().Location()
	fmt.Fprintf(out, "%s  %s  %s\n", orDash(rec.Employee.EmployeeCode), displayName(&rec.Employee), rec.Employee.Email)
	fmt.Fprintf(out, "%s to %s\n\n", attendance.FormatDate(rec.Range.Start), attendance.FormatDate(rec.Range.End))

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tFIRST IN\tLAST OUT\tDURATION")
	for _, s := range rec.Summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			attendance.FormatDate(s.Date),
			attendance.FormatTime(s.FirstIn, loc),
			attendance.FormatTime(s.LastOut, loc),
			attendance.FormatDurationHMS(s.TotalDurationSeconds),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	return printLogs(out, rec.Logs, loc)
}

func cmdAdminLogs(ctx context.Context, a *app.Application, args []string, out io.Writer) error {
	fs := newFlagSet("admin logs")
	employee := fs.Int64("employee", 0, "employee id (default all)")
	from, to := rangeFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	logs, err := a.Attendance().Logs(ctx, *employee, attendsdk.DateRange{Start: from.Date, End: to.Date})
	if err != nil {
		return err
	}
	return printLogs(out, logs, a.Attendance().Location())
}

func cmdAdminAddEmployee(ctx context.Context, a *app.Application, args []string, out io.Writer) error {
	fs := newFlagSet("admin add-employee")
	name := fs.String("name", "", "full name")
	code := fs.String("code", "", "employee code, e.g. EMP010")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "initial password")
	role := fs.String("role", string(attendsdk.RoleEmployee), "employee, hr or admin")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	msg, err := a.Attendance().AddEmployee(ctx, attendsdk.NewEmployee{
		FullName:     *name,
		EmployeeCode: *code,
		Email:        *email,
		Password:     *password,
		Role:         attendsdk.Role(strings.ToLower(strings.TrimSpace(*role))),
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, msg)
	return nil
}

func printLogs(out io.Writer, logs []attendsdk.AttendanceLog, loc *time.Location) error {
	if len(logs) == 0 {
		fmt.Fprintln(out, "No events")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMPLOYEE\tEVENT\tTIME\tSOURCE")
	for _, l := range logs {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n",
			l.ID,
			l.EmployeeID,
			l.EventType,
			l.Timestamp.In(loc).Format("2006-01-02 03:04 PM"),
			orDash(l.Source),
		)
	}
	return tw.Flush()
}

func cmdRoutes(ctx context.Context, a *app.Application, args []string, out io.Writer) error {
	if err := parseFlags(newFlagSet("routes"), args); err != nil {
		return err
	}

	s := a.Auth().Session()

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tTITLE\tDECISION")
	for _, r := range policy.Routes {
		decision := "allow"
		if d := policy.Authorize(s, r.Path); !d.Allowed {
			decision = "redirect " + d.Redirect
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Path, r.Title, decision)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	var menu []string
	for _, r := range policy.NavLinks(s) {
		menu = append(menu, r.Title)
	}

	fmt.Fprintf(out, "\nMenu: %s\n", orDash(strings.Join(menu, ", ")))
	fmt.Fprintf(out, "Home: %s\n", policy.HomeFor(s))
	return nil
}

func statusLabel(s attendance.Status) string {
	switch s {
	case attendance.StatusCheckedIn:
		return "Checked in"
	case attendance.StatusCheckedOut:
		return "Checked out"
	default:
		return "Not marked"
	}
}

func displayName(u *attendsdk.User) string {
	if u == nil {
		return "-"
	}
	if u.FullName != "" {
		return u.FullName
	}
	return orDash(u.Email)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
