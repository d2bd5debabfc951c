// Package inbound routes relayer-delivered bridge envelopes into the market:
// a verifier gates on the configured relayer identity, then the tagged command
// is decoded and handed to its registered handler.
package inbound
