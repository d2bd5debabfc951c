package inbound

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-service-market/core"
)

// Delivery is one relayer-originated envelope: a tagged command plus its raw
// payload. Caller is the identity the transport layer verified, never a
// self-reported field.
type Delivery struct {
	Caller  core.Identity
	Command string
	Payload json.RawMessage
}

type Result struct {
	Accepted   bool
	StatusCode int
	RequestID  string
	Metadata   map[string]any
}

// Verifier gates deliveries before any payload is decoded.
type Verifier interface {
	Verify(ctx context.Context, delivery Delivery) error
}

// RelayerVerifier gates deliveries by caller identity. Relayer designation is
// an owner action, so set_relayer deliveries must come from the owner; every
// other command must come from the registry's current relayer. Owner-gating
// the designation also lets the first set_relayer arrive before any relayer
// has been installed.
type RelayerVerifier struct {
	Registry *core.BindingRegistry
	Owner    core.Identity
}

func (v RelayerVerifier) Verify(ctx context.Context, delivery Delivery) error {
	if v.Registry == nil {
		return fmt.Errorf("inbound: relayer verifier has no registry")
	}
	if delivery.Command == CommandSetRelayer {
		if v.Owner.IsZero() || delivery.Caller != v.Owner {
			return fmt.Errorf("%w: %s", core.ErrCallerNotOwner, delivery.Caller)
		}
		return nil
	}
	relayer := v.Registry.Relayer()
	if relayer.IsZero() || delivery.Caller != relayer {
		return fmt.Errorf("%w: %s", core.ErrCallerNotRelayer, delivery.Caller)
	}
	return nil
}

// Handler processes one decoded command kind.
type Handler interface {
	Command() string
	Handle(ctx context.Context, delivery Delivery) (Result, error)
}

// Dispatcher verifies a delivery and routes it by command tag. One handler per
// command; later registrations conflict.
type Dispatcher struct {
	Verifier Verifier

	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewDispatcher(verifier Verifier) *Dispatcher {
	return &Dispatcher{
		Verifier: verifier,
		handlers: map[string]Handler{},
	}
}

func (d *Dispatcher) Register(handler Handler) error {
	if d == nil {
		return inboundInternal("inbound: dispatcher is nil", nil)
	}
	if handler == nil {
		return inboundBadInput("inbound: handler is nil", nil)
	}
	command := normalizeCommand(handler.Command())
	if command == "" {
		return inboundBadInput("inbound: handler command is required", nil)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.handlers[command]; exists {
		return inboundError(
			fmt.Sprintf("inbound: handler already registered for command %q", command),
			goerrors.CategoryConflict,
			http.StatusConflict,
			core.MarketErrorDuplicateBinding,
			map[string]any{"command": command},
		)
	}
	d.handlers[command] = handler
	return nil
}

func (d *Dispatcher) Dispatch(ctx context.Context, delivery Delivery) (Result, error) {
	if d == nil {
		return Result{}, inboundInternal("inbound: dispatcher is nil", nil)
	}
	delivery.Command = normalizeCommand(delivery.Command)
	if delivery.Command == "" {
		return Result{}, inboundBadInput("inbound: command tag is required", nil)
	}
	if d.Verifier != nil {
		if err := d.Verifier.Verify(ctx, delivery); err != nil {
			return Result{
					Accepted:   false,
					StatusCode: http.StatusForbidden,
					Metadata: map[string]any{
						"command":  delivery.Command,
						"rejected": true,
					},
				}, inboundWrapError(
					err,
					goerrors.CategoryAuthz,
					"inbound: delivery verification failed",
					http.StatusForbidden,
					core.MarketErrorCallerDenied,
					map[string]any{"command": delivery.Command},
				)
		}
	}

	d.mu.RLock()
	handler := d.handlers[delivery.Command]
	d.mu.RUnlock()
	if handler == nil {
		return Result{}, inboundError(
			fmt.Sprintf("inbound: no handler registered for command %q", delivery.Command),
			goerrors.CategoryNotFound,
			http.StatusNotFound,
			core.MarketErrorBindingNotFound,
			map[string]any{"command": delivery.Command},
		)
	}
	return handler.Handle(ctx, delivery)
}

func normalizeCommand(command string) string {
	return strings.ToLower(strings.TrimSpace(command))
}
