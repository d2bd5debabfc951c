package core

import glog "github.com/goliatone/go-logger/glog"

// Compile-time checks that the glog contract satisfies the core aliases and
// that the in-memory collaborators implement their interfaces.
var (
	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
	_ Dispatcher     = (*MemoryDispatcher)(nil)
	_ CallbackRouter = (*MemoryCallbackRouter)(nil)
	_ EventSink      = NopEventSink{}
	_ EventSink      = (*MemoryEventSink)(nil)
)
