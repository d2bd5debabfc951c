package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-service-market/core"
)

// MutatingService is the market surface the bridge commands dispatch into.
type MutatingService interface {
	SendRequest(ctx context.Context, in core.InitiateRequestInput) (string, error)
	SetResponse(ctx context.Context, requestID, errMsg, output string) (bool, error)
	SetRelayer(ctx context.Context, relayer core.Identity) error
}

type SendRequestCommand struct {
	service MutatingService
}

func NewSendRequestCommand(service MutatingService) *SendRequestCommand {
	return &SendRequestCommand{service: service}
}

func (c *SendRequestCommand) Execute(ctx context.Context, msg SendRequestMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: send request service is required")
	}
	callData, err := DecodePayload(msg.CallData)
	if err != nil {
		return commandWrapValidation(err, "command: call data is not valid base64")
	}
	requestID, err := c.service.SendRequest(ctx, core.InitiateRequestInput{
		ServiceName:     msg.EndpointInfo,
		Input:           callData,
		CallbackTarget:  msg.CallbackAddress,
		CallbackHandler: msg.CallbackFunction,
	})
	if err != nil {
		return err
	}
	storeResult(ctx, requestID)
	return nil
}

type SetResponseCommand struct {
	service MutatingService
}

func NewSetResponseCommand(service MutatingService) *SetResponseCommand {
	return &SetResponseCommand{service: service}
}

func (c *SetResponseCommand) Execute(ctx context.Context, msg SetResponseMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: set response service is required")
	}
	output, err := DecodePayload(msg.Output)
	if err != nil {
		return commandWrapValidation(err, "command: output is not valid base64")
	}
	ok, err := c.service.SetResponse(ctx, msg.RequestID, msg.ErrMsg, output)
	if err != nil {
		return err
	}
	storeResult(ctx, ok)
	return nil
}

type SetRelayerCommand struct {
	service MutatingService
}

func NewSetRelayerCommand(service MutatingService) *SetRelayerCommand {
	return &SetRelayerCommand{service: service}
}

func (c *SetRelayerCommand) Execute(ctx context.Context, msg SetRelayerMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: set relayer service is required")
	}
	return c.service.SetRelayer(ctx, msg.Identity())
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
