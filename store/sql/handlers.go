package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func marketEventHandlers() repository.ModelHandlers[*marketEventRecord] {
	return repository.ModelHandlers[*marketEventRecord]{
		NewRecord: func() *marketEventRecord {
			return &marketEventRecord{}
		},
		GetID: func(record *marketEventRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *marketEventRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *marketEventRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func bindingSnapshotHandlers() repository.ModelHandlers[*bindingSnapshotRecord] {
	return repository.ModelHandlers[*bindingSnapshotRecord]{
		NewRecord: func() *bindingSnapshotRecord {
			return &bindingSnapshotRecord{}
		},
		GetID: func(record *bindingSnapshotRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *bindingSnapshotRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *bindingSnapshotRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
