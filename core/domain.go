package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrBindingNotFound     = errors.New("core: binding not found")
	ErrBindingExists       = errors.New("core: binding already exists")
	ErrInvalidBinding      = errors.New("core: invalid binding")
	ErrCallerNotRelayer    = errors.New("core: caller is not the relayer")
	ErrCallerNotOwner      = errors.New("core: caller is not the owner")
	ErrCallerNotSelf       = errors.New("core: caller is not the module identity")
	ErrUnknownRequest      = errors.New("core: unknown request")
	ErrRequestResponded    = errors.New("core: request already responded")
	ErrInvalidRequestState = errors.New("core: invalid request state transition")
)

// Identity is a verified caller identity as established by the hosting
// environment. The core never derives identities itself; callers pass the
// identity the transport layer authenticated.
type Identity string

func (i Identity) IsZero() bool {
	return strings.TrimSpace(string(i)) == ""
}

// ServiceBinding is a registered service-provider record. Every field is
// populated at creation and stays populated for the binding's lifetime.
type ServiceBinding struct {
	Name     string
	Schema   string
	Provider Identity
	Fee      string
	QoS      int64
}

func (b ServiceBinding) IsZero() bool {
	return b == ServiceBinding{}
}

func (b ServiceBinding) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidBinding)
	}
	if strings.TrimSpace(b.Schema) == "" {
		return fmt.Errorf("%w: schema descriptor is required", ErrInvalidBinding)
	}
	if b.Provider.IsZero() {
		return fmt.Errorf("%w: provider identity is required", ErrInvalidBinding)
	}
	if strings.TrimSpace(b.Fee) == "" {
		return fmt.Errorf("%w: fee is required", ErrInvalidBinding)
	}
	if b.QoS <= 0 {
		return fmt.Errorf("%w: qos must be positive, got %d", ErrInvalidBinding, b.QoS)
	}
	return nil
}

// bindingIndex locates a binding inside the append-only store. Exists is true
// iff the slot holds live data; removal clears both without reclaiming the
// slot, so a slot number stays stable for the binding's whole lifetime.
type bindingIndex struct {
	Slot   int
	Exists bool
}

type RequestState string

const (
	RequestStateCreated   RequestState = "created"
	RequestStateResponded RequestState = "responded"
)

// Request tracks one outstanding service invocation. Records are never
// destroyed; a terminal RESPONDED entry is what makes duplicate deliveries
// detectable.
type Request struct {
	ID              string
	ServiceName     string
	CallbackTarget  string
	CallbackHandler string
	Sent            bool
	Responded       bool
	CreatedAt       time.Time
	RespondedAt     time.Time
}

func (r *Request) State() RequestState {
	if r != nil && r.Responded {
		return RequestStateResponded
	}
	return RequestStateCreated
}

// MarkResponded performs the single legal transition. Any further attempt
// fails ErrRequestResponded.
func (r *Request) MarkResponded(now time.Time) error {
	if r == nil {
		return ErrUnknownRequest
	}
	if r.Responded {
		return fmt.Errorf("%w: %s", ErrRequestResponded, r.ID)
	}
	if !r.Sent {
		return fmt.Errorf("%w: request %s was never sent", ErrInvalidRequestState, r.ID)
	}
	r.Responded = true
	r.RespondedAt = now
	return nil
}

const (
	EventBindingAdded   = "market.binding.added"
	EventBindingUpdated = "market.binding.updated"
	EventBindingRemoved = "market.binding.removed"
	EventRequestSent    = "market.request.sent"
)

// Event is an auditable occurrence. Subject is the primary key external
// consumers filter on: the binding name for registry events, the request id
// for client and workflow events.
type Event struct {
	Type       string
	Subject    string
	Attributes map[string]any
	EmittedAt  time.Time
}
