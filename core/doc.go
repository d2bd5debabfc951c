// Package core contains the canonical service-market domain: the append-only
// binding registry, the request-tracking service client with its
// self-authenticated re-entry channel, and the contracts their collaborators
// implement. Lower-level adapters must depend on this package; core must not
// depend on transport-specific or storage-specific adapters.
package core
