// Package servicemarket is an inter-system service market: a registry of
// callable service providers plus a client that issues asynchronous service
// invocations and matches their eventual responses to caller-supplied
// callbacks through a single self-authenticated re-entry channel.
package servicemarket

import "github.com/goliatone/go-service-market/core"

type Config = core.Config

type ParserConfig = core.ParserConfig

type Option = core.Option

type Market = core.Market

type Identity = core.Identity

type ServiceBinding = core.ServiceBinding

type Request = core.Request

type Event = core.Event

type AddBindingInput = core.AddBindingInput
type UpdateBindingInput = core.UpdateBindingInput
type InitiateRequestInput = core.InitiateRequestInput

type Dispatcher = core.Dispatcher
type CallbackRouter = core.CallbackRouter
type EventSink = core.EventSink

var (
	NewMarket               = core.NewMarket
	NewBindingRegistry      = core.NewBindingRegistry
	NewServiceClient        = core.NewServiceClient
	NewMemoryCallbackRouter = core.NewMemoryCallbackRouter
	NewMemoryDispatcher     = core.NewMemoryDispatcher
	NewMemoryEventSink      = core.NewMemoryEventSink

	DefaultConfig = core.DefaultConfig

	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithMetricsRecorder = core.WithMetricsRecorder
	WithErrorFactory    = core.WithErrorFactory
	WithErrorMapper     = core.WithErrorMapper
	WithConfigProvider  = core.WithConfigProvider
	WithOptionsResolver = core.WithOptionsResolver
	WithBindingRegistry = core.WithBindingRegistry
	WithServiceClient   = core.WithServiceClient
	WithCallbackRouter  = core.WithCallbackRouter
	WithDispatcher      = core.WithDispatcher
	WithEventSink       = core.WithEventSink
)
