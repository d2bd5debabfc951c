package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-service-market/core"
	"github.com/uptrace/bun"
)

// MarketEventStore persists the audit ledger. Rows are append-only; the store
// exposes no update or delete path.
type MarketEventStore struct {
	repo repository.Repository[*marketEventRecord]
}

func NewMarketEventStore(db *bun.DB) (*MarketEventStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*marketEventRecord](db, marketEventHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid market event repository wiring: %w", err)
		}
	}
	return &MarketEventStore{repo: repo}, nil
}

func (s *MarketEventStore) Append(ctx context.Context, event core.Event) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: market event store is not configured")
	}
	if strings.TrimSpace(event.Type) == "" {
		return fmt.Errorf("sqlstore: event type is required")
	}
	if strings.TrimSpace(event.Subject) == "" {
		return fmt.Errorf("sqlstore: event subject is required")
	}
	emittedAt := event.EmittedAt
	if emittedAt.IsZero() {
		emittedAt = time.Now().UTC()
	}
	attributes := event.Attributes
	if attributes == nil {
		attributes = map[string]any{}
	}

	record := &marketEventRecord{
		Subject:    strings.TrimSpace(event.Subject),
		EventType:  strings.TrimSpace(event.Type),
		Attributes: attributes,
		EmittedAt:  emittedAt.UTC(),
		CreatedAt:  time.Now().UTC(),
	}
	_, err := s.repo.Create(ctx, record)
	return err
}

// AppendBatch writes drained sink events in order; the ledger flush job is
// the only caller.
func (s *MarketEventStore) AppendBatch(ctx context.Context, events []core.Event) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: market event store is not configured")
	}
	for _, event := range events {
		if err := s.Append(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// ListBySubject returns the ledger rows for one subject, oldest first.
func (s *MarketEventStore) ListBySubject(ctx context.Context, subject string) ([]core.Event, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: market event store is not configured")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, fmt.Errorf("sqlstore: event subject is required")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("subject", "=", subject),
		repository.OrderBy("emitted_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Event, 0, len(records))
	for _, record := range records {
		out = append(out, eventRecordToDomain(record))
	}
	return out, nil
}

func eventRecordToDomain(record *marketEventRecord) core.Event {
	if record == nil {
		return core.Event{}
	}
	return core.Event{
		Type:       record.EventType,
		Subject:    record.Subject,
		Attributes: record.Attributes,
		EmittedAt:  record.EmittedAt,
	}
}
