package rbac

import "context"

// Requirement expresses an action's access rule as two permission-code sets:
// every code in All is required, and at least one code in Any is required.
// An empty clause is vacuously satisfied.
type Requirement struct {
	All []string
	Any []string
}

// RequireAll builds a conjunction-only requirement.
func RequireAll(codes ...string) Requirement {
	return Requirement{All: codes}
}

// RequireAny builds a disjunction-only requirement.
func RequireAny(codes ...string) Requirement {
	return Requirement{Any: codes}
}

// IsSatisfied evaluates the requirement against the principal. Unauthenticated
// principals never satisfy a requirement, even a vacuous one.
func (r Requirement) IsSatisfied(ctx context.Context, e *Evaluator, principal Principal) (bool, error) {
	if !principal.Authenticated {
		return false, nil
	}
	if ok, err := e.HasAll(ctx, principal, r.All); err != nil || !ok {
		return false, err
	}
	if ok, err := e.HasAny(ctx, principal, r.Any); err != nil || !ok {
		return false, err
	}
	return true, nil
}

// IsEmpty reports whether both clauses are vacuous.
func (r Requirement) IsEmpty() bool {
	return len(nonEmpty(r.All)) == 0 && len(nonEmpty(r.Any)) == 0
}
