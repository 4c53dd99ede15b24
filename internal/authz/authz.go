package authz

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/refoapp/backend/internal/models"
)

// rbacModel is a standard RBAC model with role inheritance: owner
// inherits everything admin can do, admin inherits user.
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// policies is the closed permission table. Every state-changing operation
// in the service layer checks against it exactly once.
var policies = [][]string{
	// user-level
	{"user", "offer", "list"},
	{"user", "task", "start"},
	{"user", "task", "submit"},
	{"user", "wallet", "read"},
	{"user", "payout", "create"},
	{"user", "chat", "send"},
	{"user", "notification", "read"},
	{"user", "profile", "update"},

	// admin-level
	{"admin", "offer", "manage"},
	{"admin", "task", "verify"},
	{"admin", "task", "reject"},
	{"admin", "payout", "approve"},
	{"admin", "payout", "reject"},
	{"admin", "payout", "list"},
	{"admin", "user", "list"},
	{"admin", "notification", "send"},
	{"admin", "chat", "takeover"},
	{"admin", "stats", "read"},

	// owner-level
	{"owner", "role", "grant"},
	{"owner", "role", "revoke"},
}

var roleHierarchy = [][]string{
	{"admin", "user"},
	{"owner", "admin"},
}

// Enforcer evaluates authorization decisions for the whole application
type Enforcer struct {
	enforcer *casbin.Enforcer
}

// NewEnforcer builds the enforcer with the built-in policy table
func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse authz model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create enforcer: %w", err)
	}

	for _, p := range policies {
		if _, err := e.AddPolicy(p[0], p[1], p[2]); err != nil {
			return nil, fmt.Errorf("failed to add policy %v: %w", p, err)
		}
	}
	for _, g := range roleHierarchy {
		if _, err := e.AddGroupingPolicy(g[0], g[1]); err != nil {
			return nil, fmt.Errorf("failed to add role inheritance %v: %w", g, err)
		}
	}

	return &Enforcer{enforcer: e}, nil
}

// Can reports whether the actor may perform action on resource
func (a *Enforcer) Can(actor *models.User, resource, action string) bool {
	if actor == nil || !actor.IsActive {
		return false
	}
	ok, err := a.enforcer.Enforce(actor.Role(), resource, action)
	return err == nil && ok
}

// Require returns ErrForbidden unless the actor may perform action on
// resource.
func (a *Enforcer) Require(actor *models.User, resource, action string) error {
	if !a.Can(actor, resource, action) {
		return ErrForbidden
	}
	return nil
}
