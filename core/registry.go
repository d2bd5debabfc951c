package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// BindingRegistry is the append-only store of service-provider bindings plus
// its name index. Slots are never reclaimed: removing a binding tombstones its
// slot and drops the index entry, and a later re-add of the same name gets a
// fresh slot, so Count only ever grows.
type BindingRegistry struct {
	mu      sync.RWMutex
	owner   Identity
	relayer Identity
	store   []ServiceBinding
	index   map[string]bindingIndex

	sink EventSink
	now  func() time.Time
}

type BindingRegistryOption func(*BindingRegistry)

func WithRegistryEventSink(sink EventSink) BindingRegistryOption {
	return func(r *BindingRegistry) {
		if sink != nil {
			r.sink = sink
		}
	}
}

func WithRegistryClock(now func() time.Time) BindingRegistryOption {
	return func(r *BindingRegistry) {
		if now != nil {
			r.now = now
		}
	}
}

func NewBindingRegistry(owner Identity, opts ...BindingRegistryOption) (*BindingRegistry, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("core: registry owner identity is required")
	}
	registry := &BindingRegistry{
		owner: owner,
		index: map[string]bindingIndex{},
		sink:  NopEventSink{},
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(registry)
	}
	return registry, nil
}

// SetRelayer designates the sole identity allowed to mutate bindings. Owner
// only; the identity must be set.
func (r *BindingRegistry) SetRelayer(ctx context.Context, caller, relayer Identity) error {
	if r == nil {
		return fmt.Errorf("core: binding registry is not configured")
	}
	if relayer.IsZero() {
		return fmt.Errorf("%w: relayer identity is required", ErrInvalidBinding)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if caller != r.owner {
		return fmt.Errorf("%w: %s", ErrCallerNotOwner, caller)
	}
	r.relayer = relayer
	return nil
}

func (r *BindingRegistry) Relayer() Identity {
	if r == nil {
		return ""
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.relayer
}

type AddBindingInput struct {
	Name     string
	Schema   string
	Provider Identity
	Fee      string
	QoS      int64
}

func (r *BindingRegistry) AddBinding(ctx context.Context, caller Identity, in AddBindingInput) error {
	if r == nil {
		return fmt.Errorf("core: binding registry is not configured")
	}
	binding := ServiceBinding{
		Name:     strings.TrimSpace(in.Name),
		Schema:   in.Schema,
		Provider: in.Provider,
		Fee:      in.Fee,
		QoS:      in.QoS,
	}
	if err := binding.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireRelayerLocked(caller); err != nil {
		return err
	}
	if entry, ok := r.index[binding.Name]; ok && entry.Exists {
		return fmt.Errorf("%w: %s", ErrBindingExists, binding.Name)
	}

	r.store = append(r.store, binding)
	r.index[binding.Name] = bindingIndex{Slot: len(r.store) - 1, Exists: true}

	r.emitLocked(ctx, EventBindingAdded, binding.Name, map[string]any{
		"provider": string(binding.Provider),
		"fee":      binding.Fee,
		"qos":      binding.QoS,
	})
	return nil
}

// UpdateBindingInput carries optional overwrites. A nil field is left
// unchanged; a non-nil field must satisfy the same invariants as at creation,
// so no field can be cleared back to its zero value.
type UpdateBindingInput struct {
	Name     string
	Provider *Identity
	Fee      *string
	QoS      *int64
}

func (r *BindingRegistry) UpdateBinding(ctx context.Context, caller Identity, in UpdateBindingInput) error {
	if r == nil {
		return fmt.Errorf("core: binding registry is not configured")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidBinding)
	}
	if in.Provider != nil && in.Provider.IsZero() {
		return fmt.Errorf("%w: provider identity cannot be cleared", ErrInvalidBinding)
	}
	if in.Fee != nil && strings.TrimSpace(*in.Fee) == "" {
		return fmt.Errorf("%w: fee cannot be cleared", ErrInvalidBinding)
	}
	if in.QoS != nil && *in.QoS <= 0 {
		return fmt.Errorf("%w: qos must stay positive, got %d", ErrInvalidBinding, *in.QoS)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireRelayerLocked(caller); err != nil {
		return err
	}
	entry, ok := r.index[name]
	if !ok || !entry.Exists {
		return fmt.Errorf("%w: %s", ErrBindingNotFound, name)
	}

	binding := r.store[entry.Slot]
	if in.Provider != nil {
		binding.Provider = *in.Provider
	}
	if in.Fee != nil {
		binding.Fee = *in.Fee
	}
	if in.QoS != nil {
		binding.QoS = *in.QoS
	}
	r.store[entry.Slot] = binding

	// Updated is emitted unconditionally, no-op parameter sets included.
	r.emitLocked(ctx, EventBindingUpdated, name, map[string]any{
		"provider": string(binding.Provider),
		"fee":      binding.Fee,
		"qos":      binding.QoS,
	})
	return nil
}

func (r *BindingRegistry) RemoveBinding(ctx context.Context, caller Identity, name string) error {
	if r == nil {
		return fmt.Errorf("core: binding registry is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidBinding)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireRelayerLocked(caller); err != nil {
		return err
	}
	entry, ok := r.index[name]
	if !ok || !entry.Exists {
		return fmt.Errorf("%w: %s", ErrBindingNotFound, name)
	}

	r.store[entry.Slot] = ServiceBinding{}
	delete(r.index, name)

	r.emitLocked(ctx, EventBindingRemoved, name, map[string]any{
		"slot": entry.Slot,
	})
	return nil
}

func (r *BindingRegistry) Exists(name string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.index[strings.TrimSpace(name)]
	return ok && entry.Exists
}

// Get returns the stored binding, or the zero binding when the name is absent
// or tombstoned. Reads never error.
func (r *BindingRegistry) Get(name string) ServiceBinding {
	if r == nil {
		return ServiceBinding{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.index[strings.TrimSpace(name)]
	if !ok || !entry.Exists {
		return ServiceBinding{}
	}
	return r.store[entry.Slot]
}

// Count reflects every slot ever appended, tombstoned ones included.
func (r *BindingRegistry) Count() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.store)
}

func (r *BindingRegistry) Provider(name string) Identity {
	return r.Get(name).Provider
}

func (r *BindingRegistry) Fee(name string) string {
	return r.Get(name).Fee
}

func (r *BindingRegistry) QoS(name string) int64 {
	return r.Get(name).QoS
}

// Snapshot copies the full slot layout, tombstones included, for persistence.
func (r *BindingRegistry) Snapshot() []ServiceBinding {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ServiceBinding, len(r.store))
	copy(out, r.store)
	return out
}

// Restore replaces the slot layout with a persisted snapshot. Zero-valued
// entries are tombstones and keep their slot without an index entry. Only an
// empty registry can be restored.
func (r *BindingRegistry) Restore(bindings []ServiceBinding) error {
	if r == nil {
		return fmt.Errorf("core: binding registry is not configured")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.store) > 0 {
		return fmt.Errorf("core: cannot restore a non-empty registry")
	}
	store := make([]ServiceBinding, len(bindings))
	index := map[string]bindingIndex{}
	for slot, binding := range bindings {
		if binding.IsZero() {
			continue
		}
		if err := binding.Validate(); err != nil {
			return fmt.Errorf("core: snapshot slot %d: %w", slot, err)
		}
		if entry, ok := index[binding.Name]; ok && entry.Exists {
			return fmt.Errorf("%w: snapshot repeats %s", ErrBindingExists, binding.Name)
		}
		store[slot] = binding
		index[binding.Name] = bindingIndex{Slot: slot, Exists: true}
	}
	r.store = store
	r.index = index
	return nil
}

func (r *BindingRegistry) requireRelayerLocked(caller Identity) error {
	if r.relayer.IsZero() || caller != r.relayer {
		return fmt.Errorf("%w: %s", ErrCallerNotRelayer, caller)
	}
	return nil
}

func (r *BindingRegistry) emitLocked(ctx context.Context, eventType, subject string, attributes map[string]any) {
	if r.sink == nil {
		return
	}
	r.sink.Emit(ctx, Event{
		Type:       eventType,
		Subject:    subject,
		Attributes: attributes,
		EmittedAt:  r.now(),
	})
}
