package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryDispatcher is an in-process Dispatcher for tests and local
// development. It mints uuid request ids, records every outbound call, and can
// replay a response back into a client the way the external relayer would.
type MemoryDispatcher struct {
	mu    sync.Mutex
	calls map[string]CallServiceRequest
	order []string
}

func NewMemoryDispatcher() *MemoryDispatcher {
	return &MemoryDispatcher{calls: map[string]CallServiceRequest{}}
}

func (d *MemoryDispatcher) CallService(ctx context.Context, req CallServiceRequest) (string, error) {
	if d == nil {
		return "", fmt.Errorf("core: memory dispatcher is not configured")
	}
	if strings.TrimSpace(req.ServiceName) == "" {
		return "", fmt.Errorf("%w: service name is required", ErrInvalidBinding)
	}
	requestID := uuid.NewString()
	d.mu.Lock()
	d.calls[requestID] = req
	d.order = append(d.order, requestID)
	d.mu.Unlock()
	return requestID, nil
}

// Call returns the recorded outbound request for an id.
func (d *MemoryDispatcher) Call(requestID string) (CallServiceRequest, bool) {
	if d == nil {
		return CallServiceRequest{}, false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	call, ok := d.calls[requestID]
	return call, ok
}

// LastRequestID returns the most recently minted id, or "".
func (d *MemoryDispatcher) LastRequestID() string {
	if d == nil {
		return ""
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.order) == 0 {
		return ""
	}
	return d.order[len(d.order)-1]
}

func (d *MemoryDispatcher) CallCount() int {
	if d == nil {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.order)
}

// Deliver replays a response into the client through its re-entry channel,
// impersonating the recorded callback target the way the relayer's setResponse
// call would.
func (d *MemoryDispatcher) Deliver(ctx context.Context, client *ServiceClient, requestID, output string) error {
	if d == nil {
		return fmt.Errorf("core: memory dispatcher is not configured")
	}
	d.mu.Lock()
	call, ok := d.calls[requestID]
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRequest, requestID)
	}
	return client.OnResponse(ctx, Identity(call.CallbackTarget), requestID, output)
}

var _ Dispatcher = (*MemoryDispatcher)(nil)
