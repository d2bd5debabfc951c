package inbound

import (
	"context"
	"encoding/json"
	"net/http"

	marketcommand "github.com/goliatone/go-service-market/command"
	"github.com/goliatone/go-service-market/core"
)

// Command tags as they appear on the wire.
const (
	CommandSendRequest = "send_request"
	CommandSetResponse = "set_response"
	CommandSetRelayer  = "set_relayer"
)

// SendRequestHandler decodes send_request envelopes and issues the outbound
// invocation through the market.
type SendRequestHandler struct {
	service marketcommand.MutatingService
}

func NewSendRequestHandler(service marketcommand.MutatingService) *SendRequestHandler {
	return &SendRequestHandler{service: service}
}

func (h *SendRequestHandler) Command() string { return CommandSendRequest }

func (h *SendRequestHandler) Handle(ctx context.Context, delivery Delivery) (Result, error) {
	if h == nil || h.service == nil {
		return Result{}, inboundInternal("inbound: send request handler is not configured", nil)
	}
	var msg marketcommand.SendRequestMessage
	if err := decodePayload(delivery.Payload, &msg); err != nil {
		return Result{}, err
	}
	if err := msg.Validate(); err != nil {
		return Result{}, inboundBadInputWrap(err, delivery.Command)
	}
	callData, err := marketcommand.DecodePayload(msg.CallData)
	if err != nil {
		return Result{}, inboundBadInputWrap(err, delivery.Command)
	}
	requestID, err := h.service.SendRequest(ctx, core.InitiateRequestInput{
		ServiceName:     msg.EndpointInfo,
		Input:           callData,
		CallbackTarget:  msg.CallbackAddress,
		CallbackHandler: msg.CallbackFunction,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{
		Accepted:   true,
		StatusCode: http.StatusOK,
		RequestID:  requestID,
		Metadata:   map[string]any{"command": delivery.Command},
	}, nil
}

// SetResponseHandler decodes set_response envelopes and delivers the response
// into the request tracker.
type SetResponseHandler struct {
	service marketcommand.MutatingService
}

func NewSetResponseHandler(service marketcommand.MutatingService) *SetResponseHandler {
	return &SetResponseHandler{service: service}
}

func (h *SetResponseHandler) Command() string { return CommandSetResponse }

func (h *SetResponseHandler) Handle(ctx context.Context, delivery Delivery) (Result, error) {
	if h == nil || h.service == nil {
		return Result{}, inboundInternal("inbound: set response handler is not configured", nil)
	}
	var msg marketcommand.SetResponseMessage
	if err := decodePayload(delivery.Payload, &msg); err != nil {
		return Result{}, err
	}
	if err := msg.Validate(); err != nil {
		return Result{}, inboundBadInputWrap(err, delivery.Command)
	}
	output, err := marketcommand.DecodePayload(msg.Output)
	if err != nil {
		return Result{}, inboundBadInputWrap(err, delivery.Command)
	}
	ok, err := h.service.SetResponse(ctx, msg.RequestID, msg.ErrMsg, output)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Accepted:   ok,
		StatusCode: http.StatusOK,
		RequestID:  msg.RequestID,
		Metadata:   map[string]any{"command": delivery.Command},
	}, nil
}

// SetRelayerHandler decodes set_relayer envelopes.
type SetRelayerHandler struct {
	service marketcommand.MutatingService
}

func NewSetRelayerHandler(service marketcommand.MutatingService) *SetRelayerHandler {
	return &SetRelayerHandler{service: service}
}

func (h *SetRelayerHandler) Command() string { return CommandSetRelayer }

func (h *SetRelayerHandler) Handle(ctx context.Context, delivery Delivery) (Result, error) {
	if h == nil || h.service == nil {
		return Result{}, inboundInternal("inbound: set relayer handler is not configured", nil)
	}
	var msg marketcommand.SetRelayerMessage
	if err := decodePayload(delivery.Payload, &msg); err != nil {
		return Result{}, err
	}
	if err := msg.Validate(); err != nil {
		return Result{}, inboundBadInputWrap(err, delivery.Command)
	}
	if err := h.service.SetRelayer(ctx, msg.Identity()); err != nil {
		return Result{}, err
	}
	return Result{
		Accepted:   true,
		StatusCode: http.StatusOK,
		Metadata:   map[string]any{"command": delivery.Command},
	}, nil
}

func decodePayload(payload json.RawMessage, target any) error {
	if len(payload) == 0 {
		return inboundBadInput("inbound: delivery payload is required", nil)
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return inboundBadInputWrap(err, "")
	}
	return nil
}
