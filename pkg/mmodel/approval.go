package mmodel

import "time"

// PolicyState is the lifecycle state of an ApprovalPolicy.
type PolicyState string

// Supported policy states.
const (
	PolicyDraft    PolicyState = "DRAFT"
	PolicyActive   PolicyState = "ACTIVE"
	PolicyInactive PolicyState = "INACTIVE"
	PolicyArchived PolicyState = "ARCHIVED"
)

// ApprovalPolicy governs whether and how maker-checker applies to a class
// of operation. Among matching ACTIVE policies, the one with the highest
// (Priority, Version) whose bindings and conditions all match wins.
type ApprovalPolicy struct {
	ID                string
	Name              string
	ApprovalType      *string
	Priority          int
	Version           int
	State             PolicyState
	ValidFrom         *time.Time
	ValidTo           *time.Time
	ExpiryMinutes     *int
	EscalationMinutes *int
}

// InWindow reports whether now falls within the policy's validity window.
func (p ApprovalPolicy) InWindow(now time.Time) bool {
	if p.ValidFrom != nil && now.Before(*p.ValidFrom) {
		return false
	}

	if p.ValidTo != nil && now.After(*p.ValidTo) {
		return false
	}

	return true
}

// BindingType enumerates how a PolicyBinding matches a candidate operation.
type BindingType string

// Supported binding types.
const (
	BindingApprovalType BindingType = "APPROVAL_TYPE"
	BindingRoute        BindingType = "ROUTE"
	BindingRole         BindingType = "ROLE"
	BindingCustom       BindingType = "CUSTOM"
)

// PolicyBinding scopes an ApprovalPolicy to the operations it can apply to.
type PolicyBinding struct {
	PolicyID         string
	BindingType      BindingType
	BindingValueJSON string
}

// PolicyCondition is one AND-ed predicate a candidate operation's payload
// must satisfy for its policy to be selected. Field is a dotted path
// evaluated through pkg/policyeval's whitelist, never a general expression.
type PolicyCondition struct {
	PolicyID  string
	Field     string
	Operator  string
	ValueJSON string
}

// PolicyStage is one maker-checker gate a request must clear in sequence.
type PolicyStage struct {
	PolicyID                string
	StageNo                 int
	MinApprovals            int
	Roles                   []string
	ActorIDs                []string
	ExcludeMaker            bool
	ExcludePreviousApprovers bool
	TimeoutMinutes          *int
}

// RequestState is the lifecycle state of an ApprovalRequest.
type RequestState string

// Supported approval request states.
const (
	RequestPending   RequestState = "PENDING"
	RequestApproved  RequestState = "APPROVED"
	RequestRejected  RequestState = "REJECTED"
	RequestExpired   RequestState = "EXPIRED"
	RequestEscalated RequestState = "ESCALATED"
)

// ApprovalRequest tracks one instance of a maker-checker workflow, from
// submission through its terminal state.
type ApprovalRequest struct {
	ID           string
	Type         string
	PayloadJSON  string
	MakerStaffID string
	PolicyID     *string
	CurrentStage int
	TotalStages  int
	State        RequestState
	CreatedAt    time.Time
	DecidedAt    *time.Time
}

// IsTerminal reports whether the request has reached a state that admits
// no further decisions.
func (r ApprovalRequest) IsTerminal() bool {
	switch r.State {
	case RequestApproved, RequestRejected, RequestExpired:
		return true
	default:
		return false
	}
}

// Decision is the verdict a decider recorded on a stage.
type Decision string

// Supported decisions.
const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// ApprovalStageDecision is a single decider's verdict on one stage of one
// ApprovalRequest.
type ApprovalStageDecision struct {
	RequestID   string
	PolicyID    string
	StageNo     int
	Decision    Decision
	DeciderID   string
	DeciderRole string
	Reason      *string
	DecidedAt   time.Time
}

// ApprovalDelegation lets a delegate act with the delegator's role for
// deciding on a (possibly restricted) approval type within a time window.
type ApprovalDelegation struct {
	DelegatorID  string
	DelegateID   string
	ApprovalType *string
	ValidFrom    time.Time
	ValidTo      time.Time
	State        DelegationState
}

// DelegationState is the lifecycle state of an ApprovalDelegation.
type DelegationState string

// Supported delegation states.
const (
	DelegationActive   DelegationState = "ACTIVE"
	DelegationRevoked  DelegationState = "REVOKED"
	DelegationExpired  DelegationState = "EXPIRED"
)

// Active reports whether the delegation covers approvalType (or covers
// all types, when ApprovalType is nil) at the given instant.
func (d ApprovalDelegation) Active(approvalType string, at time.Time) bool {
	if d.State != DelegationActive {
		return false
	}

	if at.Before(d.ValidFrom) || at.After(d.ValidTo) {
		return false
	}

	if d.ApprovalType != nil && *d.ApprovalType != approvalType {
		return false
	}

	return true
}
