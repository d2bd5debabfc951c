package servicemarket

import (
	"context"
	"fmt"
	"strings"

	marketcommand "github.com/goliatone/go-service-market/command"
	"github.com/goliatone/go-service-market/core"
	"github.com/goliatone/go-service-market/inbound"
)

// Commands bundles the bridge command handlers, ready for go-command
// registration.
type Commands struct {
	SendRequest *marketcommand.SendRequestCommand
	SetResponse *marketcommand.SetResponseCommand
	SetRelayer  *marketcommand.SetRelayerCommand
}

// Facade adapts the market to the bridge command surface. It is the trusted
// in-process entry: deliveries reaching it already passed the inbound
// verifier, so response delivery re-enters the client under the module's own
// identity, and relayer administration runs under the configured owner.
type Facade struct {
	market   *core.Market
	owner    core.Identity
	commands Commands
}

func NewFacade(market *core.Market) (*Facade, error) {
	if market == nil {
		return nil, fmt.Errorf("servicemarket: market is required")
	}
	owner := core.Identity(strings.TrimSpace(market.Config().Owner))
	if owner.IsZero() {
		owner = market.Self()
	}
	facade := &Facade{market: market, owner: owner}
	facade.commands = Commands{
		SendRequest: marketcommand.NewSendRequestCommand(facade),
		SetResponse: marketcommand.NewSetResponseCommand(facade),
		SetRelayer:  marketcommand.NewSetRelayerCommand(facade),
	}
	return facade, nil
}

func (f *Facade) Market() *core.Market {
	if f == nil {
		return nil
	}
	return f.market
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

// SendRequest issues an outbound invocation on behalf of the bridge caller.
func (f *Facade) SendRequest(ctx context.Context, in core.InitiateRequestInput) (string, error) {
	if f == nil || f.market == nil {
		return "", fmt.Errorf("servicemarket: facade is not configured")
	}
	return f.market.InitiateRequest(ctx, in)
}

// SetResponse finalizes a pending request. The relayer was verified upstream;
// the client's own identity check still runs, with the module as caller,
// the only legitimate invoker of its response entry.
func (f *Facade) SetResponse(ctx context.Context, requestID, errMsg, output string) (bool, error) {
	if f == nil || f.market == nil {
		return false, fmt.Errorf("servicemarket: facade is not configured")
	}
	// provider-side failures still finalize the request; the callback sees
	// whatever output the provider produced, which may be empty
	if err := f.market.OnResponse(ctx, f.market.Self(), requestID, output); err != nil {
		return false, err
	}
	return true, nil
}

// SetRelayer designates the authorized relayer under the owner identity.
func (f *Facade) SetRelayer(ctx context.Context, relayer core.Identity) error {
	if f == nil || f.market == nil {
		return fmt.Errorf("servicemarket: facade is not configured")
	}
	return f.market.SetRelayer(ctx, f.owner, relayer)
}

// NewInboundDispatcher wires the three bridge handlers behind a verifier
// bound to the market registry. Relayer designation stays an owner action,
// so set_relayer deliveries are gated on the owner identity; the request and
// response commands are gated on the current relayer.
func (f *Facade) NewInboundDispatcher() (*inbound.Dispatcher, error) {
	if f == nil || f.market == nil {
		return nil, fmt.Errorf("servicemarket: facade is not configured")
	}
	dispatcher := inbound.NewDispatcher(inbound.RelayerVerifier{
		Registry: f.market.Registry(),
		Owner:    f.owner,
	})
	for _, handler := range []inbound.Handler{
		inbound.NewSendRequestHandler(f),
		inbound.NewSetResponseHandler(f),
		inbound.NewSetRelayerHandler(f),
	} {
		if err := dispatcher.Register(handler); err != nil {
			return nil, err
		}
	}
	return dispatcher, nil
}

var _ marketcommand.MutatingService = (*Facade)(nil)
