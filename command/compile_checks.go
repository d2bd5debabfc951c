package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[SendRequestMessage] = (*SendRequestCommand)(nil)
	_ gocmd.Commander[SetResponseMessage] = (*SetResponseCommand)(nil)
	_ gocmd.Commander[SetRelayerMessage]  = (*SetRelayerCommand)(nil)
)
