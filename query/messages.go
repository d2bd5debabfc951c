package query

import (
	"fmt"
	"strings"
)

const (
	TypeGetBinding  = "market.query.binding.get"
	TypeGetRequest  = "market.query.request.get"
	TypeListEvents  = "market.query.events.list"
	TypeListCatalog = "market.query.catalog.list"
)

type GetBindingMessage struct {
	Name string
}

func (GetBindingMessage) Type() string { return TypeGetBinding }

func (m GetBindingMessage) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("query: binding name is required")
	}
	return nil
}

type GetRequestMessage struct {
	RequestID string
}

func (GetRequestMessage) Type() string { return TypeGetRequest }

func (m GetRequestMessage) Validate() error {
	if strings.TrimSpace(m.RequestID) == "" {
		return fmt.Errorf("query: request id is required")
	}
	return nil
}

type ListEventsMessage struct {
	Subject string
}

func (ListEventsMessage) Type() string { return TypeListEvents }

func (m ListEventsMessage) Validate() error {
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("query: event subject is required")
	}
	return nil
}

// ListCatalogMessage lists the live bindings. No parameters; tombstoned slots
// are never returned.
type ListCatalogMessage struct{}

func (ListCatalogMessage) Type() string { return TypeListCatalog }

func (ListCatalogMessage) Validate() error { return nil }
