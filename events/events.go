package events

import (
	"context"
	"math/big"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeRateChanged     EventType = "rate_changed"
	EventTypeInterestSettled EventType = "interest_settled"
	EventTypeMinted          EventType = "minted"
	EventTypeBurned          EventType = "burned"
	EventTypeTransferred     EventType = "transferred"
	EventTypeAccountCreated  EventType = "account_created"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// RateChangedEvent represents an accepted lowering of the global accrual rate
type RateChangedEvent struct {
	ChangedBy string
	OldRate   *big.Int
	NewRate   *big.Int
}

func (e RateChangedEvent) Type() EventType {
	return EventTypeRateChanged
}

// InterestSettledEvent represents accrued interest folded into principal
type InterestSettledEvent struct {
	Address      string
	Interest     *big.Int
	NewPrincipal *big.Int
}

func (e InterestSettledEvent) Type() EventType {
	return EventTypeInterestSettled
}

// MintedEvent represents principal created on an account
type MintedEvent struct {
	To     string
	Amount *big.Int
}

func (e MintedEvent) Type() EventType {
	return EventTypeMinted
}

// BurnedEvent represents principal destroyed on an account
type BurnedEvent struct {
	From   string
	Amount *big.Int
}

func (e BurnedEvent) Type() EventType {
	return EventTypeBurned
}

// TransferredEvent represents a balance-conserving move between accounts
type TransferredEvent struct {
	From   string
	To     string
	Amount *big.Int
}

func (e TransferredEvent) Type() EventType {
	return EventTypeTransferred
}

// AccountCreatedEvent represents a new account record
type AccountCreatedEvent struct {
	Address string
}

func (e AccountCreatedEvent) Type() EventType {
	return EventTypeAccountCreated
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make([]Handler, 0)
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type on main event bus")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers on main event bus")

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// A transactional event bus for holding pending events coupled to the Unit of Work.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events from transactional bus to main event bus")

	// Use background context for event emission so handlers outlive the
	// transaction context
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
