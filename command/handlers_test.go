package command

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/goliatone/go-service-market/core"
)

type fakeService struct {
	sendInput     core.InitiateRequestInput
	sendID        string
	sendErr       error
	respRequestID string
	respErrMsg    string
	respOutput    string
	respErr       error
	relayer       core.Identity
	relayerErr    error
}

func (s *fakeService) SendRequest(ctx context.Context, in core.InitiateRequestInput) (string, error) {
	s.sendInput = in
	if s.sendErr != nil {
		return "", s.sendErr
	}
	if s.sendID == "" {
		s.sendID = "req-1"
	}
	return s.sendID, nil
}

func (s *fakeService) SetResponse(ctx context.Context, requestID, errMsg, output string) (bool, error) {
	s.respRequestID = requestID
	s.respErrMsg = errMsg
	s.respOutput = output
	if s.respErr != nil {
		return false, s.respErr
	}
	return true, nil
}

func (s *fakeService) SetRelayer(ctx context.Context, relayer core.Identity) error {
	s.relayer = relayer
	return s.relayerErr
}

func TestSendRequestCommandDecodesCallData(t *testing.T) {
	service := &fakeService{}
	cmd := NewSendRequestCommand(service)

	msg := SendRequestMessage{
		CallData:         EncodePayload(`{"pair":"atom-usd"}`),
		CallbackAddress:  "minter",
		CallbackFunction: "price_callback",
		EndpointInfo:     "price-oracle",
		Method:           "lookup",
	}
	if err := msg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := cmd.Execute(context.Background(), msg); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if service.sendInput.ServiceName != "price-oracle" {
		t.Fatalf("expected endpoint routed as service name, got %s", service.sendInput.ServiceName)
	}
	if service.sendInput.Input != `{"pair":"atom-usd"}` {
		t.Fatalf("expected decoded call data, got %s", service.sendInput.Input)
	}
	if service.sendInput.CallbackTarget != "minter" || service.sendInput.CallbackHandler != "price_callback" {
		t.Fatalf("expected consumer callback carried through, got %s/%s",
			service.sendInput.CallbackTarget, service.sendInput.CallbackHandler)
	}
}

func TestSendRequestMessageValidation(t *testing.T) {
	base := SendRequestMessage{
		CallData:         EncodePayload("data"),
		CallbackAddress:  "minter",
		CallbackFunction: "cb",
		EndpointInfo:     "svc",
		Method:           "m",
	}
	cases := []struct {
		name   string
		mutate func(*SendRequestMessage)
	}{
		{"missing endpoint", func(m *SendRequestMessage) { m.EndpointInfo = "" }},
		{"missing method", func(m *SendRequestMessage) { m.Method = "" }},
		{"missing callback address", func(m *SendRequestMessage) { m.CallbackAddress = "" }},
		{"missing callback function", func(m *SendRequestMessage) { m.CallbackFunction = "" }},
		{"bad base64", func(m *SendRequestMessage) { m.CallData = "not-base64!!" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := base
			tc.mutate(&msg)
			if err := msg.Validate(); err == nil {
				t.Fatal("expected validation failure")
			}
		})
	}
}

func TestSetResponseCommandDecodesOutput(t *testing.T) {
	service := &fakeService{}
	cmd := NewSetResponseCommand(service)

	msg := SetResponseMessage{
		RequestID: "req-9",
		ErrMsg:    "",
		Output:    EncodePayload(`{"price":"2"}`),
	}
	if err := msg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := cmd.Execute(context.Background(), msg); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if service.respRequestID != "req-9" {
		t.Fatalf("expected request id req-9, got %s", service.respRequestID)
	}
	if service.respOutput != `{"price":"2"}` {
		t.Fatalf("expected decoded output, got %s", service.respOutput)
	}
}

func TestSetResponseCommandPropagatesServiceError(t *testing.T) {
	service := &fakeService{respErr: fmt.Errorf("already responded")}
	cmd := NewSetResponseCommand(service)

	err := cmd.Execute(context.Background(), SetResponseMessage{RequestID: "req-9"})
	if err == nil {
		t.Fatal("expected service error propagated")
	}
}

func TestSetRelayerCommand(t *testing.T) {
	service := &fakeService{}
	cmd := NewSetRelayerCommand(service)

	relayer := "relayer-1"
	msg := SetRelayerMessage{Relayer: &relayer}
	if err := msg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := cmd.Execute(context.Background(), msg); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if service.relayer != core.Identity("relayer-1") {
		t.Fatalf("expected relayer-1, got %s", service.relayer)
	}

	// The schema marks relayer optional: a nil field passes validation and
	// the core rejects the empty identity downstream.
	if err := (SetRelayerMessage{}).Validate(); err != nil {
		t.Fatalf("expected nil relayer to validate, got %v", err)
	}
	blank := "   "
	if err := (SetRelayerMessage{Relayer: &blank}).Validate(); err == nil {
		t.Fatal("expected blank relayer to fail validation")
	}
}

func TestCommandsMissingService(t *testing.T) {
	if err := NewSendRequestCommand(nil).Execute(context.Background(), SendRequestMessage{}); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := NewSetResponseCommand(nil).Execute(context.Background(), SetResponseMessage{}); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := NewSetRelayerCommand(nil).Execute(context.Background(), SetRelayerMessage{}); err == nil {
		t.Fatal("expected missing service error")
	}
}

func TestPayloadCodecRoundTrip(t *testing.T) {
	if encoded := EncodePayload(""); encoded != "" {
		t.Fatalf("expected empty encoding, got %q", encoded)
	}
	decoded, err := DecodePayload("")
	if err != nil || decoded != "" {
		t.Fatalf("expected empty decode, got %q %v", decoded, err)
	}

	payload := `{"pair":"atom-usd"}`
	decoded, err = DecodePayload(EncodePayload(payload))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != payload {
		t.Fatalf("expected round trip, got %q", decoded)
	}

	if _, err := DecodePayload("%%%"); err == nil {
		t.Fatal("expected invalid base64 to fail")
	}
	// Raw (unpadded) encodings are not part of the boundary contract.
	raw := base64.RawStdEncoding.EncodeToString([]byte("abcde"))
	if _, err := DecodePayload(raw); err == nil {
		t.Fatal("expected unpadded base64 to fail")
	}
}
