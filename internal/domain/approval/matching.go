// Package approval implements C4: policy matching, the request stage
// state machine, and delegation-aware decision authorization. It holds no
// I/O; internal/services/command.ApprovalService supplies persistence and
// the approval-type handler registry.
package approval

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/policyeval"
)

// Candidate is a candidate operation being checked against the policy
// catalog: its approval type, the route and role it was submitted under,
// and the payload PolicyConditions evaluate against. Route and Role are
// optional; a binding of that type never matches a Candidate that leaves
// the corresponding field empty.
type Candidate struct {
	ApprovalType string
	Route        string
	Role         string
	Payload      map[string]any
}

// PolicySet bundles one ApprovalPolicy with its bindings, conditions, and
// stages, the unit the matching algorithm reasons about.
type PolicySet struct {
	Policy     mmodel.ApprovalPolicy
	Bindings   []mmodel.PolicyBinding
	Conditions []mmodel.PolicyCondition
	Stages     []mmodel.PolicyStage
}

// Match implements §4.4's matching algorithm: among ACTIVE policies whose
// validity window contains now, sorted by (priority DESC, version DESC),
// select the first whose bindings match the candidate's approval type and
// whose conditions all evaluate true against its payload. autoPolicy is
// used if nothing matches and is non-nil.
func Match(now time.Time, candidates []PolicySet, cand Candidate, autoPolicy *PolicySet) (*PolicySet, error) {
	active := make([]PolicySet, 0, len(candidates))

	for _, ps := range candidates {
		if ps.Policy.State != mmodel.PolicyActive {
			continue
		}

		if !ps.Policy.InWindow(now) {
			continue
		}

		if !bindingMatches(ps.Bindings, cand) {
			continue
		}

		active = append(active, ps)
	}

	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Policy.Priority != active[j].Policy.Priority {
			return active[i].Policy.Priority > active[j].Policy.Priority
		}

		return active[i].Policy.Version > active[j].Policy.Version
	})

	for i := range active {
		ok, err := conditionsMatch(active[i].Conditions, cand.Payload)
		if err != nil {
			return nil, err
		}

		if ok {
			return &active[i], nil
		}
	}

	if autoPolicy != nil {
		return autoPolicy, nil
	}

	return nil, nil
}

// bindingMatches implements §4.4 step 2: a policy's bindings match the
// candidate if any one of them does, by APPROVAL_TYPE equality or a
// matching ROUTE/ROLE binding. CUSTOM bindings carry no general-purpose
// matcher here and never match.
func bindingMatches(bindings []mmodel.PolicyBinding, cand Candidate) bool {
	if len(bindings) == 0 {
		return false
	}

	for _, b := range bindings {
		var want string

		switch b.BindingType {
		case mmodel.BindingApprovalType:
			want = cand.ApprovalType
		case mmodel.BindingRoute:
			if cand.Route == "" {
				continue
			}

			want = cand.Route
		case mmodel.BindingRole:
			if cand.Role == "" {
				continue
			}

			want = cand.Role
		default:
			continue
		}

		var value string
		if err := json.Unmarshal([]byte(b.BindingValueJSON), &value); err != nil {
			continue
		}

		if value == want {
			return true
		}
	}

	return false
}

func conditionsMatch(conditions []mmodel.PolicyCondition, payload map[string]any) (bool, error) {
	evalConditions := make([]policyeval.Condition, 0, len(conditions))

	for _, c := range conditions {
		var value any
		if err := json.Unmarshal([]byte(c.ValueJSON), &value); err != nil {
			return false, err
		}

		ec := policyeval.Condition{Path: c.Field, Operator: policyeval.Operator(c.Operator)}

		if ec.Operator == policyeval.OpBetween {
			bounds, ok := value.([]any)
			if !ok || len(bounds) != 2 {
				return false, fmt.Errorf("approval: BETWEEN condition on %q requires a 2-element array value", c.Field)
			}

			ec.Low, ec.High = bounds[0], bounds[1]
		} else {
			ec.Value = value
		}

		evalConditions = append(evalConditions, ec)
	}

	return policyeval.Evaluate(evalConditions, payload)
}
