package sqlstore

import "github.com/goliatone/go-service-market/core"

var (
	_ core.EventStore    = (*MarketEventStore)(nil)
	_ core.SnapshotStore = (*BindingSnapshotStore)(nil)
	_ core.StoreProvider = (*RepositoryFactory)(nil)
	_ EventReader        = (*MarketEventStore)(nil)
)
