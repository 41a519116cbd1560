// Package lifecycle owns the status vocabulary and the legal transitions of orders,
// quotes and reservations.
//
// The engine is pure: it never touches storage or the network, and it never mutates
// the entity it is handed. Callers persist the returned entity and event.
package lifecycle

import (
	"time"

	"github.com/vaidashi/catering-api/internal/models"
)

// Authorizer decides whether a role may change the status of an entity kind
type Authorizer interface {
	CanMutate(role string, kind models.EntityKind) bool
}

// AuthorizerFunc adapts a function to the Authorizer interface
type AuthorizerFunc func(role string, kind models.EntityKind) bool

// CanMutate calls f
func (f AuthorizerFunc) CanMutate(role string, kind models.EntityKind) bool {
	return f(role, kind)
}

// Stateful is implemented by every entity with a status machine.
// WithStatus must return a copy and leave the receiver untouched.
type Stateful[T any] interface {
	Kind() models.EntityKind
	GetID() string
	GetStatus() models.Status
	GetVersion() int64
	WithStatus(status models.Status, at time.Time) T
}

// Engine validates and applies status transitions
type Engine struct {
	authz   Authorizer
	now     func() time.Time
	eventID func() string
}

// Option configures an Engine
type Option func(*Engine)

// WithClock replaces the wall clock used for timestamps and date guards
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithEventIDs replaces the event id generator
func WithEventIDs(gen func() string) Option {
	return func(e *Engine) {
		e.eventID = gen
	}
}

// NewEngine creates an engine that asks authz before every transition
func NewEngine(authz Authorizer, opts ...Option) *Engine {
	e := &Engine{
		authz:   authz,
		now:     models.GetCurrentTime,
		eventID: func() string { return models.GenerateID("evt") },
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Now returns the engine clock reading in UTC
func (e *Engine) Now() time.Time {
	return e.now().UTC()
}

// Transition moves entity to target on behalf of role.
// The role is checked before the move itself.
func Transition[T Stateful[T]](e *Engine, entity T, target models.Status, role string) (T, models.TransitionEvent, error) {
	var zero T

	kind := entity.Kind()
	from := entity.GetStatus()

	if e.authz == nil || !e.authz.CanMutate(role, kind) {
		return zero, models.TransitionEvent{}, &UnauthorizedError{
			Role:     role,
			Kind:     kind,
			EntityID: entity.GetID(),
			From:     from,
			To:       target,
		}
	}

	now := e.Now()

	if err := e.check(entity, target, now); err != nil {
		return zero, models.TransitionEvent{}, err
	}

	event := models.TransitionEvent{
		EventID:    e.eventID(),
		EntityKind: kind,
		EntityID:   entity.GetID(),
		FromStatus: from,
		ToStatus:   target,
		ActingRole: role,
		Timestamp:  now,
	}

	return entity.WithStatus(target, now), event, nil
}

func (e *Engine) check(entity interface {
	Kind() models.EntityKind
	GetID() string
	GetStatus() models.Status
}, target models.Status, now time.Time) error {
	kind := entity.Kind()
	from := entity.GetStatus()

	invalid := func(reason string) error {
		return &InvalidTransitionError{Kind: kind, EntityID: entity.GetID(), From: from, To: target, Reason: reason}
	}

	if !IsKnownStatus(kind, from) {
		return invalid("unknown current status")
	}
	if !IsKnownStatus(kind, target) {
		return invalid("unknown target status")
	}
	if IsTerminal(kind, from) {
		return invalid("current status is terminal")
	}
	if !CanTransition(kind, from, target) {
		return invalid("")
	}

	if q, ok := entity.(models.Quote); ok && target == models.QuoteStatusExpired && !q.Lapsed(now) {
		return invalid("quote is still within its validity period")
	}

	return nil
}

// TransitionOrder is Transition for orders
func (e *Engine) TransitionOrder(o models.Order, target models.Status, role string) (models.Order, models.TransitionEvent, error) {
	return Transition(e, o, target, role)
}

// TransitionQuote is Transition for quotes
func (e *Engine) TransitionQuote(q models.Quote, target models.Status, role string) (models.Quote, models.TransitionEvent, error) {
	return Transition(e, q, target, role)
}

// TransitionReservation is Transition for reservations
func (e *Engine) TransitionReservation(r models.Reservation, target models.Status, role string) (models.Reservation, models.TransitionEvent, error) {
	return Transition(e, r, target, role)
}

// ConvertQuote builds a pending order from an accepted quote.
// Items and amounts are copied; the quote itself is left as is.
func (e *Engine) ConvertQuote(q models.Quote, deliveryDate time.Time, role string) (models.Order, error) {
	if e.authz == nil || !e.authz.CanMutate(role, models.KindOrder) {
		return models.Order{}, &UnauthorizedError{
			Role:     role,
			Kind:     models.KindOrder,
			EntityID: q.ID,
			From:     q.Status,
			To:       models.OrderStatusPending,
		}
	}

	if q.Status != models.QuoteStatusAccepted {
		return models.Order{}, &InvalidTransitionError{
			Kind:     models.KindQuote,
			EntityID: q.ID,
			From:     q.Status,
			To:       models.QuoteStatusAccepted,
			Reason:   "only accepted quotes can be converted into orders",
		}
	}

	status, _ := InitialStatus(models.KindOrder)
	now := e.Now()
	quoteID := q.ID

	return models.Order{
		ID:             models.GenerateID("ord"),
		OrderNumber:    models.GenerateNumber("ORD", now),
		ClientID:       q.ClientID,
		QuoteID:        &quoteID,
		Items:          q.Items.Clone(),
		Subtotal:       q.Subtotal,
		TaxAmount:      q.TaxAmount,
		DiscountAmount: q.DiscountAmount,
		TotalAmount:    q.TotalAmount,
		DeliveryDate:   deliveryDate,
		Status:         status,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
