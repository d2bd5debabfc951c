package core

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// Dispatcher is the external invocation capability. CallService hands the
// request to the off-process bridge and returns the opaque request id that the
// eventual response will carry back. The core never waits on the response; it
// arrives through the client's re-entry channel as a separate call.
type Dispatcher interface {
	CallService(ctx context.Context, req CallServiceRequest) (string, error)
}

type CallServiceRequest struct {
	ServiceName string
	Input       string
	Timeout     int64

	// CallbackTarget and CallbackHandler always carry the calling module's
	// own identity and its fixed response-entry handler, never the ultimate
	// consumer. The consumer's callback is resolved locally on re-entry.
	CallbackTarget  string
	CallbackHandler string
}

// CallbackFunc is the continuation invoked when a response is delivered for a
// request registered by its owner.
type CallbackFunc func(ctx context.Context, requestID string, output string) error

// CallbackRouter resolves handler references to callables. Implementations
// must treat missing handlers as a lookup miss, not a panic; delivery failure
// policy belongs to the client.
type CallbackRouter interface {
	Register(target, handler string, fn CallbackFunc) error
	Resolve(target, handler string) (CallbackFunc, bool)
}

// EventSink receives auditable market events. Sinks must not block the
// emitting entrypoint; slow delivery belongs behind the outbox job.
type EventSink interface {
	Emit(ctx context.Context, event Event)
}

type NopEventSink struct{}

func (NopEventSink) Emit(context.Context, Event) {}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

// EventStore is the durable side of the audit ledger. Append-only; batch
// writes come from the ledger flush job draining an in-memory sink.
type EventStore interface {
	Append(ctx context.Context, event Event) error
	AppendBatch(ctx context.Context, events []Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}

// SnapshotStore persists the registry slot layout, tombstones included.
type SnapshotStore interface {
	Save(ctx context.Context, bindings []ServiceBinding) error
	Load(ctx context.Context) ([]ServiceBinding, error)
}

// StoreProvider is what a persistence factory hands back once its stores are
// wired against a live database.
type StoreProvider interface {
	EventStore() EventStore
	SnapshotStore() SnapshotStore
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// JobExecutionMessage is the transport-neutral shape handed to the queue
// adapter when market work (ledger flush, outbox dispatch) is scheduled.
type JobExecutionMessage struct {
	JobID          string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}
