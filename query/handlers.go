package query

import (
	"context"
	"strings"

	"github.com/goliatone/go-service-market/core"
)

// BindingReader is the registry read surface the queries consume.
// *core.BindingRegistry satisfies it.
type BindingReader interface {
	Get(name string) core.ServiceBinding
	Exists(name string) bool
	Snapshot() []core.ServiceBinding
}

// RequestReader is the client read surface. *core.ServiceClient satisfies it.
type RequestReader interface {
	Request(requestID string) (core.Request, bool)
}

// EventReader is the ledger read surface, served by the sql store or its
// cached wrapper.
type EventReader interface {
	ListBySubject(ctx context.Context, subject string) ([]core.Event, error)
}

type GetBindingQuery struct {
	reader BindingReader
}

func NewGetBindingQuery(reader BindingReader) *GetBindingQuery {
	return &GetBindingQuery{reader: reader}
}

// Query follows the registry's non-throwing read contract: an absent or
// tombstoned name yields a not-found envelope rather than a zero binding, so
// transport callers get a status they can act on.
func (q *GetBindingQuery) Query(ctx context.Context, msg GetBindingMessage) (core.ServiceBinding, error) {
	if q == nil || q.reader == nil {
		return core.ServiceBinding{}, queryDependencyError("query: binding reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.ServiceBinding{}, queryWrapValidation(err, "query: invalid get binding message")
	}
	name := strings.TrimSpace(msg.Name)
	binding := q.reader.Get(name)
	if binding.IsZero() {
		return core.ServiceBinding{}, queryNotFoundError("query: binding "+name+" not found", core.MarketErrorBindingNotFound)
	}
	return binding, nil
}

type GetRequestQuery struct {
	reader RequestReader
}

func NewGetRequestQuery(reader RequestReader) *GetRequestQuery {
	return &GetRequestQuery{reader: reader}
}

func (q *GetRequestQuery) Query(ctx context.Context, msg GetRequestMessage) (core.Request, error) {
	if q == nil || q.reader == nil {
		return core.Request{}, queryDependencyError("query: request reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.Request{}, queryWrapValidation(err, "query: invalid get request message")
	}
	request, ok := q.reader.Request(strings.TrimSpace(msg.RequestID))
	if !ok {
		return core.Request{}, queryNotFoundError("query: request "+msg.RequestID+" not found", core.MarketErrorUnknownRequest)
	}
	return request, nil
}

type ListEventsQuery struct {
	reader EventReader
}

func NewListEventsQuery(reader EventReader) *ListEventsQuery {
	return &ListEventsQuery{reader: reader}
}

func (q *ListEventsQuery) Query(ctx context.Context, msg ListEventsMessage) ([]core.Event, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: event reader is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, queryWrapValidation(err, "query: invalid list events message")
	}
	return q.reader.ListBySubject(ctx, strings.TrimSpace(msg.Subject))
}

type ListCatalogQuery struct {
	reader BindingReader
}

func NewListCatalogQuery(reader BindingReader) *ListCatalogQuery {
	return &ListCatalogQuery{reader: reader}
}

func (q *ListCatalogQuery) Query(ctx context.Context, _ ListCatalogMessage) ([]core.ServiceBinding, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: binding reader is required")
	}
	snapshot := q.reader.Snapshot()
	out := make([]core.ServiceBinding, 0, len(snapshot))
	for _, binding := range snapshot {
		if binding.IsZero() {
			continue
		}
		out = append(out, binding)
	}
	return out, nil
}
