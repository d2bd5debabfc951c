// Package command models the bridge command schema the market consumes: the
// three tagged variants the external relayer delivers, with binary payloads
// carried as base64 text at this boundary. Messages follow the go-command
// Type/Validate contract; handlers dispatch into the market service.
package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-service-market/core"
)

const (
	TypeSendRequest = "market.command.send_request"
	TypeSetResponse = "market.command.set_response"
	TypeSetRelayer  = "market.command.set_relayer"
)

// SendRequestMessage asks the market to issue an outbound invocation on
// behalf of a caller on the other ledger. CallData is base64.
type SendRequestMessage struct {
	CallData         string `json:"call_data"`
	CallbackAddress  string `json:"callback_address"`
	CallbackFunction string `json:"callback_function"`
	EndpointInfo     string `json:"endpoint_info"`
	Method           string `json:"method"`
}

func (SendRequestMessage) Type() string { return TypeSendRequest }

func (m SendRequestMessage) Validate() error {
	if strings.TrimSpace(m.EndpointInfo) == "" {
		return fmt.Errorf("command: endpoint info is required")
	}
	if strings.TrimSpace(m.Method) == "" {
		return fmt.Errorf("command: method is required")
	}
	if strings.TrimSpace(m.CallbackAddress) == "" {
		return fmt.Errorf("command: callback address is required")
	}
	if strings.TrimSpace(m.CallbackFunction) == "" {
		return fmt.Errorf("command: callback function is required")
	}
	if _, err := DecodePayload(m.CallData); err != nil {
		return commandWrapValidation(err, "command: call data is not valid base64")
	}
	return nil
}

// SetResponseMessage delivers the response for an earlier request. Output is
// base64.
type SetResponseMessage struct {
	RequestID string `json:"request_id"`
	ErrMsg    string `json:"err_msg"`
	Output    string `json:"output"`
}

func (SetResponseMessage) Type() string { return TypeSetResponse }

func (m SetResponseMessage) Validate() error {
	if strings.TrimSpace(m.RequestID) == "" {
		return fmt.Errorf("command: request id is required")
	}
	if _, err := DecodePayload(m.Output); err != nil {
		return commandWrapValidation(err, "command: output is not valid base64")
	}
	return nil
}

// SetRelayerMessage designates the authorized relayer. The schema marks the
// field optional; the core rejects an absent identity, so a nil Relayer is
// accepted here and fails downstream.
type SetRelayerMessage struct {
	Relayer *string `json:"relayer,omitempty"`
}

func (SetRelayerMessage) Type() string { return TypeSetRelayer }

func (m SetRelayerMessage) Validate() error {
	if m.Relayer != nil && strings.TrimSpace(*m.Relayer) == "" {
		return fmt.Errorf("command: relayer identity cannot be blank")
	}
	return nil
}

func (m SetRelayerMessage) Identity() core.Identity {
	if m.Relayer == nil {
		return ""
	}
	return core.Identity(strings.TrimSpace(*m.Relayer))
}
