package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-service-market/core"
)

var (
	_ gocmd.Querier[GetBindingMessage, core.ServiceBinding]    = (*GetBindingQuery)(nil)
	_ gocmd.Querier[GetRequestMessage, core.Request]           = (*GetRequestQuery)(nil)
	_ gocmd.Querier[ListEventsMessage, []core.Event]           = (*ListEventsQuery)(nil)
	_ gocmd.Querier[ListCatalogMessage, []core.ServiceBinding] = (*ListCatalogQuery)(nil)

	_ BindingReader = (*core.BindingRegistry)(nil)
	_ RequestReader = (*core.ServiceClient)(nil)
)
