package core

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// Market is the composed entrypoint surface: the binding registry, the service
// client, and the callback router behind one configured facade. Every call
// validates, mutates, and emits atomically with respect to the owning
// component's lock; failures leave no partial state behind.
type Market struct {
	config          Config
	self            Identity
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorFactory    ErrorFactory
	errorMapper     ErrorMapper

	registry   *BindingRegistry
	client     *ServiceClient
	router     CallbackRouter
	dispatcher Dispatcher
	sink       EventSink
}

func NewMarket(cfg Config, options ...Option) (*Market, error) {
	builder := defaultMarketBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("service-market", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("service-market"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.sink == nil {
		builder.sink = NopEventSink{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	self := Identity(strings.TrimSpace(finalConfig.ModuleID))
	owner := Identity(strings.TrimSpace(finalConfig.Owner))
	if owner.IsZero() {
		owner = self
	}

	registry := builder.registry
	if registry == nil {
		registry, err = NewBindingRegistry(owner, WithRegistryEventSink(builder.sink))
		if err != nil {
			return nil, mapBuildError(builder.errorMapper, err)
		}
	}

	router := builder.router
	if router == nil {
		router = NewMemoryCallbackRouter()
	}

	client := builder.client
	if client == nil {
		if builder.dispatcher == nil {
			return nil, mapBuildError(builder.errorMapper,
				fmt.Errorf("core: dispatcher capability is required"))
		}
		client, err = NewServiceClient(self, builder.dispatcher, router,
			WithClientEventSink(builder.sink),
			WithClientLogger(logger),
		)
		if err != nil {
			return nil, mapBuildError(builder.errorMapper, err)
		}
	}

	return &Market{
		config:          finalConfig,
		self:            self,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorFactory:    builder.errorFactory,
		errorMapper:     builder.errorMapper,
		registry:        registry,
		client:          client,
		router:          router,
		dispatcher:      builder.dispatcher,
		sink:            builder.sink,
	}, nil
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	if mapped := mapper(err); mapped != nil {
		return mapped
	}
	return err
}

func (m *Market) Config() Config {
	if m == nil {
		return Config{}
	}
	return m.config
}

func (m *Market) Self() Identity {
	if m == nil {
		return ""
	}
	return m.self
}

func (m *Market) Registry() *BindingRegistry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Market) Client() *ServiceClient {
	if m == nil {
		return nil
	}
	return m.client
}

func (m *Market) Router() CallbackRouter {
	if m == nil {
		return nil
	}
	return m.router
}

func (m *Market) AddBinding(ctx context.Context, caller Identity, in AddBindingInput) error {
	return m.observe(ctx, "binding.add", map[string]any{"name": in.Name}, func() error {
		return m.registry.AddBinding(ctx, caller, in)
	})
}

func (m *Market) UpdateBinding(ctx context.Context, caller Identity, in UpdateBindingInput) error {
	return m.observe(ctx, "binding.update", map[string]any{"name": in.Name}, func() error {
		return m.registry.UpdateBinding(ctx, caller, in)
	})
}

func (m *Market) RemoveBinding(ctx context.Context, caller Identity, name string) error {
	return m.observe(ctx, "binding.remove", map[string]any{"name": name}, func() error {
		return m.registry.RemoveBinding(ctx, caller, name)
	})
}

func (m *Market) SetRelayer(ctx context.Context, caller, relayer Identity) error {
	return m.observe(ctx, "relayer.set", map[string]any{"relayer": string(relayer)}, func() error {
		return m.registry.SetRelayer(ctx, caller, relayer)
	})
}

func (m *Market) InitiateRequest(ctx context.Context, in InitiateRequestInput) (string, error) {
	if m == nil || m.client == nil {
		return "", fmt.Errorf("core: market is not configured")
	}
	if in.Timeout == 0 {
		in.Timeout = m.config.DefaultTimeout
	}
	var requestID string
	err := m.observe(ctx, "request.initiate", map[string]any{"service_name": in.ServiceName}, func() error {
		var initErr error
		requestID, initErr = m.client.InitiateRequest(ctx, in)
		return initErr
	})
	return requestID, err
}

func (m *Market) OnResponse(ctx context.Context, caller Identity, requestID, output string) error {
	return m.observe(ctx, "request.respond", map[string]any{"request_id": requestID}, func() error {
		return m.client.OnResponse(ctx, caller, requestID, output)
	})
}

func (m *Market) observe(ctx context.Context, operation string, fields map[string]any, fn func() error) error {
	if m == nil {
		return fmt.Errorf("core: market is not configured")
	}
	err := fn()
	m.observeOperation(ctx, operation, err, fields)
	if err != nil {
		return mapBuildError(m.errorMapper, err)
	}
	return nil
}
