package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

// marketEventRecord is one row of the append-only audit ledger. Subject is
// the primary filter key external consumers query on: the binding name for
// registry events, the request id for client and workflow events.
type marketEventRecord struct {
	bun.BaseModel `bun:"table:market_events,alias:me"`

	ID         string         `bun:"id,pk"`
	Subject    string         `bun:"subject,notnull"`
	EventType  string         `bun:"event_type,notnull"`
	Attributes map[string]any `bun:"attributes,type:jsonb,notnull"`
	EmittedAt  time.Time      `bun:"emitted_at,nullzero,notnull"`
	CreatedAt  time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// bindingSnapshotRecord mirrors one registry slot, tombstones included, so a
// restarted market can rebuild the full slot layout.
type bindingSnapshotRecord struct {
	bun.BaseModel `bun:"table:market_binding_snapshots,alias:mbs"`

	ID        string    `bun:"id,pk"`
	Slot      int       `bun:"slot,notnull,unique"`
	Name      string    `bun:"name"`
	Schema    string    `bun:"schema"`
	Provider  string    `bun:"provider"`
	Fee       string    `bun:"fee"`
	QoS       int64     `bun:"qos"`
	Live      bool      `bun:"live,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
