package engine

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	orgdomain "spades-sales-engine/backend/internal/organization/domain"
	userdomain "spades-sales-engine/backend/internal/user/domain"
)

// Default Rego policy: restrict recipient domain when the org lists
// allowed domains, and enforce the seat cap when the org sets one.
const defaultRegoPolicy = `package spades.invite_guard

default allow = false

allow if {
	domain_allowed
	seats_available
	role_assignable
}

domain_allowed if {
	count(input.org.allowed_domains) == 0
}

domain_allowed if {
	some d in input.org.allowed_domains
	endswith(input.invite.email, sprintf("@%s", [d]))
}

seats_available if {
	input.org.max_members == 0
}

seats_available if {
	input.org.seats_used < input.org.max_members
}

role_assignable if {
	input.invite.role in {"admin", "member"}
}

reason = "email domain not allowed" if {
	not domain_allowed
}

reason = "member limit reached" if {
	domain_allowed
	not seats_available
}

reason = "role not assignable" if {
	domain_allowed
	seats_available
	not role_assignable
}
`

// OPAEvaluator evaluates invite policies using OPA Rego.
type OPAEvaluator struct{}

// NewOPAEvaluator returns an OPA-based invite policy evaluator.
func NewOPAEvaluator() *OPAEvaluator {
	return &OPAEvaluator{}
}

// HealthCheck verifies that the in-process OPA Rego engine can compile and evaluate the default policy.
// Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	compiler, err := compileDefault()
	if err != nil {
		return fmt.Errorf("compile default policy: %w", err)
	}
	minimalInput := map[string]interface{}{
		"org": map[string]interface{}{
			"allowed_domains": []string{},
			"max_members":     0,
			"seats_used":      0,
		},
		"invite": map[string]interface{}{
			"email": "probe@example.com",
			"role":  "member",
		},
	}
	q := rego.New(
		rego.Query("data.spades.invite_guard.allow"),
		rego.Compiler(compiler),
		rego.Input(minimalInput),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return fmt.Errorf("eval default policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return fmt.Errorf("policy query returned no result")
	}
	return nil
}

// EvaluateInvite evaluates the invite-guard policy for the org and recipient.
func (e *OPAEvaluator) EvaluateInvite(
	ctx context.Context,
	org *orgdomain.Org,
	email string,
	role userdomain.Role,
	seatsUsed int64,
) (InviteResult, error) {
	input := buildInput(org, email, role, seatsUsed)

	result, err := e.evaluate(ctx, input)
	if err != nil {
		log.Printf("policy: invite evaluation failed: %v", err)
		return InviteResult{}, fmt.Errorf("evaluate invite policy: %w", err)
	}
	return result, nil
}

func buildInput(org *orgdomain.Org, email string, role userdomain.Role, seatsUsed int64) map[string]interface{} {
	allowedDomains := []string{}
	maxMembers := 0
	if org != nil {
		allowedDomains = append(allowedDomains, org.Settings.AllowedInviteDomains...)
		maxMembers = org.Settings.MaxMembers
	}
	return map[string]interface{}{
		"org": map[string]interface{}{
			"allowed_domains": allowedDomains,
			"max_members":     maxMembers,
			"seats_used":      seatsUsed,
		},
		"invite": map[string]interface{}{
			"email": strings.ToLower(email),
			"role":  string(role),
		},
	}
}

func (e *OPAEvaluator) evaluate(ctx context.Context, input map[string]interface{}) (InviteResult, error) {
	compiler, err := compileDefault()
	if err != nil {
		return InviteResult{}, fmt.Errorf("compile policies: %w", err)
	}

	out := InviteResult{}

	allowQuery := rego.New(
		rego.Query("data.spades.invite_guard.allow"),
		rego.Compiler(compiler),
		rego.Input(input),
	)
	allowRS, err := allowQuery.Eval(ctx)
	if err != nil {
		return InviteResult{}, fmt.Errorf("eval allow: %w", err)
	}
	if len(allowRS) > 0 && len(allowRS[0].Expressions) > 0 {
		if v, ok := allowRS[0].Expressions[0].Value.(bool); ok {
			out.Allowed = v
		}
	}
	if out.Allowed {
		return out, nil
	}

	reasonQuery := rego.New(
		rego.Query("data.spades.invite_guard.reason"),
		rego.Compiler(compiler),
		rego.Input(input),
	)
	reasonRS, err := reasonQuery.Eval(ctx)
	if err == nil && len(reasonRS) > 0 && len(reasonRS[0].Expressions) > 0 {
		if v, ok := reasonRS[0].Expressions[0].Value.(string); ok {
			out.Reason = v
		}
	}
	if out.Reason == "" {
		out.Reason = "invite not allowed by organization policy"
	}
	return out, nil
}

func compileDefault() (*ast.Compiler, error) {
	return ast.CompileModules(map[string]string{"invite_guard.rego": defaultRegoPolicy})
}
