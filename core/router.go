package core

import (
	"fmt"
	"strings"
	"sync"
)

// MemoryCallbackRouter is the in-process handler registry consumers register
// their continuations with. Keys are (target, handler) pairs; registration is
// first-wins.
type MemoryCallbackRouter struct {
	mu       sync.RWMutex
	handlers map[string]CallbackFunc
}

func NewMemoryCallbackRouter() *MemoryCallbackRouter {
	return &MemoryCallbackRouter{handlers: map[string]CallbackFunc{}}
}

func (r *MemoryCallbackRouter) Register(target, handler string, fn CallbackFunc) error {
	if r == nil {
		return fmt.Errorf("core: callback router is not configured")
	}
	key, err := callbackKey(target, handler)
	if err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("%w: callback func is required", ErrInvalidBinding)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[key]; exists {
		return fmt.Errorf("core: callback %s already registered", key)
	}
	r.handlers[key] = fn
	return nil
}

func (r *MemoryCallbackRouter) Resolve(target, handler string) (CallbackFunc, bool) {
	if r == nil {
		return nil, false
	}
	key, err := callbackKey(target, handler)
	if err != nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.handlers[key]
	return fn, ok
}

func callbackKey(target, handler string) (string, error) {
	target = strings.TrimSpace(target)
	handler = strings.TrimSpace(handler)
	if target == "" || handler == "" {
		return "", fmt.Errorf("%w: callback target and handler are required", ErrInvalidBinding)
	}
	return target + "::" + handler, nil
}

var _ CallbackRouter = (*MemoryCallbackRouter)(nil)
