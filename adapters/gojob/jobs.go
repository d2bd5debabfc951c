package gojob

import (
	"context"
	"fmt"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-service-market/core"
)

// LedgerFlusher drains the in-memory event sink into the durable ledger. It
// is the body of the market.ledger.flush job.
type LedgerFlusher struct {
	sink   *core.MemoryEventSink
	store  core.EventStore
	logger core.Logger
}

func NewLedgerFlusher(sink *core.MemoryEventSink, store core.EventStore, logger core.Logger) (*LedgerFlusher, error) {
	if sink == nil {
		return nil, fmt.Errorf("gojob: event sink is required")
	}
	if store == nil {
		return nil, fmt.Errorf("gojob: event store is required")
	}
	return &LedgerFlusher{
		sink:   sink,
		store:  store,
		logger: glog.Ensure(logger),
	}, nil
}

// Run flushes whatever the sink holds. On a write failure the drained batch
// is re-emitted so the next run retries it.
func (f *LedgerFlusher) Run(ctx context.Context) error {
	if f == nil || f.sink == nil || f.store == nil {
		return fmt.Errorf("gojob: ledger flusher is not configured")
	}
	events := f.sink.Drain()
	if len(events) == 0 {
		return nil
	}
	if err := f.store.AppendBatch(ctx, events); err != nil {
		for _, event := range events {
			f.sink.Emit(ctx, event)
		}
		f.logger.Error("ledger flush failed", "error", err, "events", len(events))
		return err
	}
	f.logger.Debug("ledger flushed", "events", len(events))
	return nil
}

// SnapshotSaver persists the registry slot layout. It is the body of the
// market.snapshot.save job.
type SnapshotSaver struct {
	registry *core.BindingRegistry
	store    core.SnapshotStore
	logger   core.Logger
}

func NewSnapshotSaver(registry *core.BindingRegistry, store core.SnapshotStore, logger core.Logger) (*SnapshotSaver, error) {
	if registry == nil {
		return nil, fmt.Errorf("gojob: binding registry is required")
	}
	if store == nil {
		return nil, fmt.Errorf("gojob: snapshot store is required")
	}
	return &SnapshotSaver{
		registry: registry,
		store:    store,
		logger:   glog.Ensure(logger),
	}, nil
}

func (s *SnapshotSaver) Run(ctx context.Context) error {
	if s == nil || s.registry == nil || s.store == nil {
		return fmt.Errorf("gojob: snapshot saver is not configured")
	}
	snapshot := s.registry.Snapshot()
	if err := s.store.Save(ctx, snapshot); err != nil {
		s.logger.Error("snapshot save failed", "error", err, "slots", len(snapshot))
		return err
	}
	s.logger.Debug("snapshot saved", "slots", len(snapshot))
	return nil
}
