package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ResponseEntryHandler is the single fixed re-entry reference every outbound
// call names as its callback. All responses funnel through this one channel no
// matter how many distinct workflow callbacks are registered.
const ResponseEntryHandler = "on_response"

// ServiceClient tracks outstanding invocations and routes inbound responses to
// their registered callbacks exactly once.
type ServiceClient struct {
	mu       sync.RWMutex
	self     Identity
	requests map[string]*Request

	dispatcher Dispatcher
	router     CallbackRouter
	sink       EventSink
	logger     Logger
	now        func() time.Time
}

type ServiceClientOption func(*ServiceClient)

func WithClientEventSink(sink EventSink) ServiceClientOption {
	return func(c *ServiceClient) {
		if sink != nil {
			c.sink = sink
		}
	}
}

func WithClientLogger(logger Logger) ServiceClientOption {
	return func(c *ServiceClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithClientClock(now func() time.Time) ServiceClientOption {
	return func(c *ServiceClient) {
		if now != nil {
			c.now = now
		}
	}
}

func NewServiceClient(
	self Identity,
	dispatcher Dispatcher,
	router CallbackRouter,
	opts ...ServiceClientOption,
) (*ServiceClient, error) {
	if self.IsZero() {
		return nil, fmt.Errorf("core: client module identity is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("core: dispatcher capability is required")
	}
	if router == nil {
		return nil, fmt.Errorf("core: callback router is required")
	}
	client := &ServiceClient{
		self:       self,
		requests:   map[string]*Request{},
		dispatcher: dispatcher,
		router:     router,
		sink:       NopEventSink{},
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(client)
	}
	return client, nil
}

type InitiateRequestInput struct {
	ServiceName     string
	Input           string
	Timeout         int64
	CallbackTarget  string
	CallbackHandler string
}

func (in InitiateRequestInput) Validate() error {
	if strings.TrimSpace(in.ServiceName) == "" {
		return fmt.Errorf("%w: service name is required", ErrInvalidBinding)
	}
	if strings.TrimSpace(in.CallbackTarget) == "" {
		return fmt.Errorf("%w: callback target is required", ErrInvalidBinding)
	}
	if strings.TrimSpace(in.CallbackHandler) == "" {
		return fmt.Errorf("%w: callback handler is required", ErrInvalidBinding)
	}
	if in.Timeout < 0 {
		return fmt.Errorf("%w: timeout cannot be negative", ErrInvalidBinding)
	}
	return nil
}

// InitiateRequest hands the invocation to the external dispatcher, naming this
// module's own identity and the fixed response entry as the delivery target,
// and records the pending request under the dispatcher-returned id. The
// timeout is advisory, passed through for the dispatcher to enforce; the core
// never cancels a pending request.
func (c *ServiceClient) InitiateRequest(ctx context.Context, in InitiateRequestInput) (string, error) {
	if c == nil {
		return "", fmt.Errorf("core: service client is not configured")
	}
	if err := in.Validate(); err != nil {
		return "", err
	}

	requestID, err := c.dispatcher.CallService(ctx, CallServiceRequest{
		ServiceName:     in.ServiceName,
		Input:           in.Input,
		Timeout:         in.Timeout,
		CallbackTarget:  string(c.self),
		CallbackHandler: ResponseEntryHandler,
	})
	if err != nil {
		return "", fmt.Errorf("core: dispatch of %q failed: %w", in.ServiceName, err)
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return "", fmt.Errorf("core: dispatcher returned an empty request id for %q", in.ServiceName)
	}

	now := c.now()
	c.mu.Lock()
	if _, exists := c.requests[requestID]; exists {
		c.mu.Unlock()
		return "", fmt.Errorf("%w: dispatcher reissued live request id %s", ErrInvalidRequestState, requestID)
	}
	c.requests[requestID] = &Request{
		ID:              requestID,
		ServiceName:     in.ServiceName,
		CallbackTarget:  in.CallbackTarget,
		CallbackHandler: in.CallbackHandler,
		Sent:            true,
		CreatedAt:       now,
	}
	c.mu.Unlock()

	if c.sink != nil {
		c.sink.Emit(ctx, Event{
			Type:    EventRequestSent,
			Subject: requestID,
			Attributes: map[string]any{
				"service_name":     in.ServiceName,
				"callback_target":  in.CallbackTarget,
				"callback_handler": in.CallbackHandler,
				"timeout":          in.Timeout,
			},
			EmittedAt: now,
		})
	}
	return requestID, nil
}

// OnResponse is the self-authenticated re-entry channel. It is externally
// reachable, so the caller identity must equal the module's own identity
// before the payload is trusted. The request transitions to RESPONDED before
// the stored callback runs; a callback failure is logged and swallowed so a
// misbehaving consumer can never block finalization.
func (c *ServiceClient) OnResponse(ctx context.Context, caller Identity, requestID string, output string) error {
	if c == nil {
		return fmt.Errorf("core: service client is not configured")
	}
	if caller != c.self {
		return fmt.Errorf("%w: %s", ErrCallerNotSelf, caller)
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return fmt.Errorf("%w: empty request id", ErrUnknownRequest)
	}

	c.mu.Lock()
	request, ok := c.requests[requestID]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownRequest, requestID)
	}
	if err := request.MarkResponded(c.now()); err != nil {
		c.mu.Unlock()
		return err
	}
	target := request.CallbackTarget
	handler := request.CallbackHandler
	c.mu.Unlock()

	c.invokeCallback(ctx, target, handler, requestID, output)
	return nil
}

// Request returns a copy of the tracked request, if any.
func (c *ServiceClient) Request(requestID string) (Request, bool) {
	if c == nil {
		return Request{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	request, ok := c.requests[strings.TrimSpace(requestID)]
	if !ok {
		return Request{}, false
	}
	return *request, true
}

func (c *ServiceClient) PendingCount() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	pending := 0
	for _, request := range c.requests {
		if !request.Responded {
			pending++
		}
	}
	return pending
}

// invokeCallback is fire-and-forget: resolution misses, handler errors, and
// handler panics are logged, never surfaced, never retried.
func (c *ServiceClient) invokeCallback(ctx context.Context, target, handler, requestID, output string) {
	defer func() {
		if recovered := recover(); recovered != nil {
			c.logWarn("callback panicked", map[string]any{
				"request_id": requestID,
				"target":     target,
				"handler":    handler,
				"panic":      fmt.Sprint(recovered),
			})
		}
	}()

	fn, ok := c.router.Resolve(target, handler)
	if !ok {
		c.logWarn("callback handler not registered", map[string]any{
			"request_id": requestID,
			"target":     target,
			"handler":    handler,
		})
		return
	}
	if err := fn(ctx, requestID, output); err != nil {
		c.logWarn("callback failed", map[string]any{
			"request_id": requestID,
			"target":     target,
			"handler":    handler,
			"error":      err.Error(),
		})
	}
}

func (c *ServiceClient) logWarn(message string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logger := c.logger
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(fields)
	}
	logger.Warn(message)
}
