// Package mmodel holds the shared domain entities every layer of the core
// (services, adapters, HTTP handlers) passes between one another, the way
// the teacher's common/mmodel holds its shared wire/domain structs.
package mmodel

import "time"

// ActorType enumerates the kinds of party the ledger can hold accounts for.
type ActorType string

// Supported actor types.
const (
	ActorCustomer ActorType = "CUSTOMER"
	ActorAgent    ActorType = "AGENT"
	ActorMerchant ActorType = "MERCHANT"
	ActorStaff    ActorType = "STAFF"
	ActorSystem   ActorType = "SYSTEM"
)

// ActorState is the lifecycle state of an Actor.
type ActorState string

// Supported actor states.
const (
	ActorStateActive   ActorState = "ACTIVE"
	ActorStateFrozen   ActorState = "FROZEN"
	ActorStateClosed   ActorState = "CLOSED"
	ActorStatePending  ActorState = "PENDING"
)

// KYCState is the know-your-customer verification state of an Actor.
type KYCState string

// Supported KYC states.
const (
	KYCUnverified KYCState = "UNVERIFIED"
	KYCPending    KYCState = "PENDING"
	KYCVerified   KYCState = "VERIFIED"
	KYCRejected   KYCState = "REJECTED"
)

// Actor is a party the ledger can hold accounts for: a customer, agent,
// merchant, staff member, or the system itself.
type Actor struct {
	ID            string
	Type          ActorType
	State         ActorState
	MSISDN        *string
	Code          *string
	ParentActorID *string
	KYCState      KYCState
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsFrozen reports whether debits against this actor's accounts must be
// rejected, per the posting engine's precondition 2.
func (a Actor) IsFrozen() bool { return a.State == ActorStateFrozen }
