// Package rbac decides route access from an explicit allow-list keyed by
// HTTP method and route pattern.
package rbac

import "strings"

// Level is the minimum caller standing a route requires.
type Level int

const (
	Public Level = iota
	Authenticated
	Admin
)

func (l Level) String() string {
	switch l {
	case Public:
		return "public"
	case Authenticated:
		return "user"
	case Admin:
		return "admin"
	default:
		return "unknown"
	}
}

// Roles maps a role to the permissions it holds. "*" grants everything.
var Roles = map[string][]string{
	"ADMIN": {"*"},
	"USER":  {"user"},
}

// CheckPermission reports whether role holds permission.
func CheckPermission(role, permission string) bool {
	perms, ok := Roles[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == "*" || p == permission {
			return true
		}
	}
	return false
}

// Subject is the caller as seen by the policy.
type Subject struct {
	Authenticated bool
	Role          string
}

type Decision int

const (
	Allow Decision = iota
	// DenyAnonymous means the route needs a live token the caller did not present.
	DenyAnonymous
	// DenyRole means the caller is authenticated but lacks the role.
	DenyRole
)

// Policy is the route allow-list. Routes without a rule require an
// authenticated caller.
type Policy struct {
	rules    map[string]Level
	fallback Level
}

func NewPolicy() *Policy {
	return &Policy{rules: make(map[string]Level), fallback: Authenticated}
}

// Permit registers level for method on every pattern.
func (p *Policy) Permit(level Level, method string, patterns ...string) *Policy {
	for _, pattern := range patterns {
		p.rules[key(method, pattern)] = level
	}
	return p
}

func (p *Policy) Level(method, pattern string) Level {
	if l, ok := p.rules[key(method, pattern)]; ok {
		return l
	}
	return p.fallback
}

func (p *Policy) Check(method, pattern string, sub Subject) Decision {
	level := p.Level(method, pattern)
	if level == Public {
		return Allow
	}
	if !sub.Authenticated {
		return DenyAnonymous
	}
	if !CheckPermission(sub.Role, level.String()) {
		return DenyRole
	}
	return Allow
}

func key(method, pattern string) string {
	return strings.ToUpper(method) + " " + pattern
}
