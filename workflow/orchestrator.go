// Package workflow is the reference consumer of the market client: a token
// mint flow that chains a price lookup and a dependent mint invocation through
// the self-authenticated response channel.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-service-market/core"
	"github.com/goliatone/go-service-market/jsonparse"
)

const (
	HandlerPrice = "price_callback"
	HandlerMint  = "mint_callback"

	EventPriceApplied  = "market.workflow.price_applied"
	EventMintCompleted = "market.workflow.mint_completed"
)

// RequestInitiator is the slice of the market client the orchestrator needs.
type RequestInitiator interface {
	InitiateRequest(ctx context.Context, in core.InitiateRequestInput) (string, error)
}

type Config struct {
	// Target is the callback target this orchestrator registers its handlers
	// under.
	Target string
	// PriceService and MintService are binding names resolved by the external
	// relayer.
	PriceService string
	MintService  string
	// PriceInput is the payload sent with every price lookup.
	PriceInput string
	Timeout    int64
	// TokenCapacity bounds response tokenization.
	TokenCapacity int
	// PricePosition and ResultPosition are the fixed token indexes the
	// respective response fields are extracted from.
	PricePosition  int
	ResultPosition int
	// PriceDecimals is the fixed-point shift applied to the quoted price.
	PriceDecimals int
}

func DefaultConfig() Config {
	return Config{
		Target:         "mint-workflow",
		PriceService:   "token-price",
		MintService:    "token-mint",
		PriceInput:     `{"pair":"token-usd"}`,
		Timeout:        100,
		TokenCapacity:  32,
		PricePosition:  2,
		ResultPosition: 2,
		PriceDecimals:  0,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Target) == "" {
		return fmt.Errorf("workflow: callback target is required")
	}
	if strings.TrimSpace(c.PriceService) == "" || strings.TrimSpace(c.MintService) == "" {
		return fmt.Errorf("workflow: price and mint service names are required")
	}
	if c.TokenCapacity <= 0 {
		return fmt.Errorf("workflow: token capacity must be positive")
	}
	if c.PricePosition < 0 || c.ResultPosition < 0 {
		return fmt.Errorf("workflow: token positions cannot be negative")
	}
	return nil
}

// Orchestrator drives the two-step mint flow. Pending state is single-flight
// per instance: a second Mint before the first price response lands overwrites
// the pending amount and recipient, it does not queue.
type Orchestrator struct {
	mu     sync.Mutex
	config Config
	client RequestInitiator
	sink   core.EventSink
	now    func() time.Time

	rate             int64
	pendingAmount    int64
	pendingRecipient string
	lastTokenID      string
	priceRequestID   string
	mintRequestID    string
}

type OrchestratorOption func(*Orchestrator)

func WithEventSink(sink core.EventSink) OrchestratorOption {
	return func(o *Orchestrator) {
		if sink != nil {
			o.sink = sink
		}
	}
}

func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func NewOrchestrator(cfg Config, client RequestInitiator, opts ...OrchestratorOption) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("workflow: request initiator is required")
	}
	orchestrator := &Orchestrator{
		config: cfg,
		client: client,
		sink:   core.NopEventSink{},
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(orchestrator)
	}
	return orchestrator, nil
}

// Register wires the orchestrator's continuations into the callback router.
func (o *Orchestrator) Register(router core.CallbackRouter) error {
	if o == nil {
		return fmt.Errorf("workflow: orchestrator is not configured")
	}
	if router == nil {
		return fmt.Errorf("workflow: callback router is required")
	}
	if err := router.Register(o.config.Target, HandlerPrice, o.onPrice); err != nil {
		return err
	}
	return router.Register(o.config.Target, HandlerMint, o.onMinted)
}

type MintInput struct {
	Recipient string
	Amount    int64
}

// Mint stores the pending mint and issues the price lookup. The mint request
// itself is issued later, from the price callback.
func (o *Orchestrator) Mint(ctx context.Context, in MintInput) (string, error) {
	if o == nil {
		return "", fmt.Errorf("workflow: orchestrator is not configured")
	}
	if strings.TrimSpace(in.Recipient) == "" {
		return "", fmt.Errorf("workflow: recipient is required")
	}
	if in.Amount <= 0 {
		return "", fmt.Errorf("workflow: amount must be positive, got %d", in.Amount)
	}

	requestID, err := o.client.InitiateRequest(ctx, core.InitiateRequestInput{
		ServiceName:     o.config.PriceService,
		Input:           o.config.PriceInput,
		Timeout:         o.config.Timeout,
		CallbackTarget:  o.config.Target,
		CallbackHandler: HandlerPrice,
	})
	if err != nil {
		return "", err
	}

	o.mu.Lock()
	o.pendingAmount = in.Amount
	o.pendingRecipient = in.Recipient
	o.priceRequestID = requestID
	o.mu.Unlock()
	return requestID, nil
}

// onPrice applies the quoted rate to the pending amount and issues the
// dependent mint invocation.
func (o *Orchestrator) onPrice(ctx context.Context, requestID string, output string) error {
	rate, err := o.extractFixedPoint(output, o.config.PricePosition, o.config.PriceDecimals)
	if err != nil {
		return fmt.Errorf("workflow: price response %s: %w", requestID, err)
	}

	o.mu.Lock()
	o.rate = rate
	amount := o.pendingAmount * rate
	recipient := o.pendingRecipient
	o.mu.Unlock()

	o.emit(ctx, EventPriceApplied, requestID, map[string]any{
		"rate":   rate,
		"amount": amount,
	})

	mintRequestID, err := o.client.InitiateRequest(ctx, core.InitiateRequestInput{
		ServiceName:     o.config.MintService,
		Input:           fmt.Sprintf(`{"to":"%s","amount":"%d"}`, recipient, amount),
		Timeout:         o.config.Timeout,
		CallbackTarget:  o.config.Target,
		CallbackHandler: HandlerMint,
	})
	if err != nil {
		return fmt.Errorf("workflow: dependent mint dispatch: %w", err)
	}

	o.mu.Lock()
	o.mintRequestID = mintRequestID
	o.mu.Unlock()
	return nil
}

// onMinted records the result identifier from the mint response.
func (o *Orchestrator) onMinted(ctx context.Context, requestID string, output string) error {
	token, err := o.extractToken(output, o.config.ResultPosition)
	if err != nil {
		return fmt.Errorf("workflow: mint response %s: %w", requestID, err)
	}
	tokenID := token.Value(output)
	if tokenID == "" {
		return fmt.Errorf("workflow: mint response %s carried an empty token id", requestID)
	}

	o.mu.Lock()
	o.lastTokenID = tokenID
	o.mu.Unlock()

	o.emit(ctx, EventMintCompleted, requestID, map[string]any{
		"token_id": tokenID,
	})
	return nil
}

func (o *Orchestrator) Rate() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rate
}

func (o *Orchestrator) LastTokenID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastTokenID
}

func (o *Orchestrator) extractToken(output string, position int) (jsonparse.Token, error) {
	tokens, err := jsonparse.Parse(output, o.config.TokenCapacity)
	if err != nil {
		return jsonparse.Token{}, err
	}
	if position >= len(tokens) {
		return jsonparse.Token{}, fmt.Errorf("token position %d out of range (%d tokens)", position, len(tokens))
	}
	return tokens[position], nil
}

func (o *Orchestrator) extractFixedPoint(output string, position, decimals int) (int64, error) {
	token, err := o.extractToken(output, position)
	if err != nil {
		return 0, err
	}
	return jsonparse.ParseFixedPoint(token.Value(output), decimals)
}

func (o *Orchestrator) emit(ctx context.Context, eventType, subject string, attributes map[string]any) {
	if o.sink == nil {
		return
	}
	o.sink.Emit(ctx, core.Event{
		Type:       eventType,
		Subject:    subject,
		Attributes: attributes,
		EmittedAt:  o.now(),
	})
}
