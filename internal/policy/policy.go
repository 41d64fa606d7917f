// Package policy decides which views a session may reach.
//
// Decide is total over every role string and fails closed: a role the client
// does not recognise never grants a capability.
package policy

import (
	"errors"
	"strings"

	"github.com/aussiebroadwan/eas/internal/session"
	"github.com/aussiebroadwan/eas/pkg/attendsdk"
)

// ErrForbidden is returned by operations whose capability the session lacks.
var ErrForbidden = errors.New("policy: forbidden")

// Capability is a named authorization requirement.
type Capability string

const (
	AnyAuthenticated Capability = "any-authenticated"
	AdminOrHR        Capability = "admin-or-hr"
	AdminOnly        Capability = "admin-only"
)

// Views a denied request is redirected to.
const (
	ViewLogin             = "/login"
	ViewEmployeeDashboard = "/dashboard"
	ViewAdminDashboard    = "/admin"
)

// Decision is the gate's answer. The zero value is not an allow.
type Decision struct {
	Allowed bool

	// Redirect is the view to send the caller to when not allowed.
	Redirect string
}

// Allow permits access.
func Allow() Decision { return Decision{Allowed: true} }

// RedirectTo denies access and names where to go instead.
func RedirectTo(view string) Decision { return Decision{Redirect: view} }

// Decide answers whether s holds capability c.
//
// No session, or a session whose role is unknown, is sent to login. A known
// role that is insufficient is sent to its home view. Unknown capabilities
// are denied.
func Decide(s session.Session, c Capability) Decision {
	if !s.Valid() {
		return RedirectTo(ViewLogin)
	}

	if granted(s.User.Role, c) {
		return Allow()
	}
	return RedirectTo(HomeFor(s))
}

func granted(role attendsdk.Role, c Capability) bool {
	switch c {
	case AnyAuthenticated:
		return role.Valid()
	case AdminOrHR:
		return role == attendsdk.RoleAdmin || role == attendsdk.RoleHR
	case AdminOnly:
		return role == attendsdk.RoleAdmin
	default:
		return false
	}
}

// HomeFor returns the landing view for s: the admin dashboard for admin and
// hr, the employee dashboard for employees, login otherwise.
func HomeFor(s session.Session) string {
	if !s.Valid() {
		return ViewLogin
	}
	if IsAdmin(s.User.Role) {
		return ViewAdminDashboard
	}
	return ViewEmployeeDashboard
}

// IsAdmin reports whether role may use the admin views.
func IsAdmin(role attendsdk.Role) bool {
	return role == attendsdk.RoleAdmin || role == attendsdk.RoleHR
}

// IsEmployee reports whether role is a plain employee.
func IsEmployee(role attendsdk.Role) bool {
	return role == attendsdk.RoleEmployee
}

// Route is a gated view.
type Route struct {
	Path       string
	Title      string
	Capability Capability
}

// Routes lists the gated views in menu order.
var Routes = []Route{
	{Path: "/attendance", Title: "Attendance", Capability: AnyAuthenticated},
	{Path: "/view-employee", Title: "View Employee", Capability: AdminOrHR},
	{Path: "/add-employee", Title: "Add Employee", Capability: AdminOnly},
	{Path: "/admin", Title: "Admin Dashboard", Capability: AdminOrHR},
}

// Lookup returns the route registered for path.
func Lookup(path string) (Route, bool) {
	path = "/" + strings.Trim(path, "/")
	for _, r := range Routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// Authorize decides access to a view by path. Unregistered paths require a
// session but no particular role.
func Authorize(s session.Session, path string) Decision {
	r, ok := Lookup(path)
	if !ok {
		return Decide(s, AnyAuthenticated)
	}
	return Decide(s, r.Capability)
}

// NavLinks returns the routes s may follow, in menu order.
func NavLinks(s session.Session) []Route {
	var links []Route
	for _, r := range Routes {
		if Decide(s, r.Capability).Allowed {
			links = append(links, r)
		}
	}
	return links
}

// Require returns nil when s holds c and ErrForbidden otherwise.
func Require(s session.Session, c Capability) error {
	if !Decide(s, c).Allowed {
		return ErrForbidden
	}
	return nil
}
