package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-service-market/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BindingSnapshotStore mirrors the registry's slot layout so a restarted
// market can rebuild it. One row per slot, tombstoned slots included.
type BindingSnapshotStore struct {
	db   *bun.DB
	repo repository.Repository[*bindingSnapshotRecord]
}

func NewBindingSnapshotStore(db *bun.DB) (*BindingSnapshotStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*bindingSnapshotRecord](db, bindingSnapshotHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid binding snapshot repository wiring: %w", err)
		}
	}
	return &BindingSnapshotStore{
		db:   db,
		repo: repo,
	}, nil
}

// Save persists the registry snapshot. Upserting by slot keeps row ids stable
// across repeated saves of the same layout.
func (s *BindingSnapshotStore) Save(ctx context.Context, bindings []core.ServiceBinding) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: binding snapshot store is not configured")
	}
	now := time.Now().UTC()
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for slot, binding := range bindings {
			record, err := findBindingSnapshotTx(ctx, tx, slot)
			if err != nil {
				return err
			}
			created := false
			if record == nil {
				created = true
				record = &bindingSnapshotRecord{
					ID:        uuid.NewString(),
					Slot:      slot,
					CreatedAt: now,
				}
			}
			record.Name = binding.Name
			record.Schema = binding.Schema
			record.Provider = string(binding.Provider)
			record.Fee = binding.Fee
			record.QoS = binding.QoS
			record.Live = !binding.IsZero()
			record.UpdatedAt = now

			if created {
				if _, insertErr := tx.NewInsert().Model(record).Exec(ctx); insertErr != nil {
					return insertErr
				}
				continue
			}
			if _, updateErr := tx.NewUpdate().
				Model(record).
				Where("id = ?", record.ID).
				Exec(ctx); updateErr != nil {
				return updateErr
			}
		}
		return nil
	})
}

// Load returns the slot layout in slot order. Tombstoned slots come back as
// zero bindings, exactly what BindingRegistry.Restore expects.
func (s *BindingSnapshotStore) Load(ctx context.Context) ([]core.ServiceBinding, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: binding snapshot store is not configured")
	}
	records, _, err := s.repo.List(ctx, repository.OrderBy("slot ASC"))
	if err != nil {
		return nil, err
	}
	out := make([]core.ServiceBinding, 0, len(records))
	for _, record := range records {
		if record == nil {
			continue
		}
		for len(out) < record.Slot {
			out = append(out, core.ServiceBinding{})
		}
		out = append(out, bindingSnapshotToDomain(record))
	}
	return out, nil
}

func bindingSnapshotToDomain(record *bindingSnapshotRecord) core.ServiceBinding {
	if record == nil || !record.Live {
		return core.ServiceBinding{}
	}
	return core.ServiceBinding{
		Name:     record.Name,
		Schema:   record.Schema,
		Provider: core.Identity(record.Provider),
		Fee:      record.Fee,
		QoS:      record.QoS,
	}
}

func findBindingSnapshotTx(ctx context.Context, tx bun.Tx, slot int) (*bindingSnapshotRecord, error) {
	record := &bindingSnapshotRecord{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.slot = ?", slot).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}
