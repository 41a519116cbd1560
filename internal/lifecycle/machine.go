package lifecycle

import (
	"github.com/vaidashi/catering-api/internal/models"
)

// machine holds the legal next statuses for every status of one entity kind
type machine struct {
	initial models.Status
	next    map[models.Status][]models.Status
}

var machines = map[models.EntityKind]machine{
	models.KindOrder: {
		initial: models.OrderStatusPending,
		next: map[models.Status][]models.Status{
			models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusCancelled},
			models.OrderStatusConfirmed: {models.OrderStatusPreparing, models.OrderStatusCancelled},
			models.OrderStatusPreparing: {models.OrderStatusReady, models.OrderStatusCancelled},
			models.OrderStatusReady:     {models.OrderStatusDelivered, models.OrderStatusCancelled},
			models.OrderStatusDelivered: nil,
			models.OrderStatusCancelled: nil,
		},
	},
	models.KindQuote: {
		initial: models.QuoteStatusDraft,
		next: map[models.Status][]models.Status{
			models.QuoteStatusDraft:    {models.QuoteStatusSent},
			models.QuoteStatusSent:     {models.QuoteStatusAccepted, models.QuoteStatusRejected, models.QuoteStatusExpired},
			models.QuoteStatusAccepted: nil,
			models.QuoteStatusRejected: nil,
			models.QuoteStatusExpired:  nil,
		},
	},
	models.KindReservation: {
		initial: models.ReservationStatusPending,
		next: map[models.Status][]models.Status{
			models.ReservationStatusPending:   {models.ReservationStatusConfirmed, models.ReservationStatusCancelled},
			models.ReservationStatusConfirmed: {models.ReservationStatusCancelled},
			models.ReservationStatusCancelled: nil,
		},
	},
}

// InitialStatus returns the status new entities of kind start in.
// Transactions have no status machine.
func InitialStatus(kind models.EntityKind) (models.Status, bool) {
	m, ok := machines[kind]

	if !ok {
		return "", false
	}

	return m.initial, true
}

// AvailableTransitions lists the statuses reachable in one step from status
func AvailableTransitions(kind models.EntityKind, status models.Status) []models.Status {
	m, ok := machines[kind]

	if !ok {
		return nil
	}

	next := m.next[status]
	out := make([]models.Status, len(next))
	copy(out, next)

	return out
}

// IsKnownStatus reports whether status belongs to the vocabulary of kind
func IsKnownStatus(kind models.EntityKind, status models.Status) bool {
	m, ok := machines[kind]

	if !ok {
		return false
	}

	_, known := m.next[status]
	return known
}

// IsTerminal reports whether status has no outgoing transition
func IsTerminal(kind models.EntityKind, status models.Status) bool {
	return IsKnownStatus(kind, status) && len(machines[kind].next[status]) == 0
}

// CanTransition reports whether to is a legal next status of from.
// Date guards such as quote expiry are checked by the engine, not here.
func CanTransition(kind models.EntityKind, from, to models.Status) bool {
	for _, s := range machines[kind].next[from] {
		if s == to {
			return true
		}
	}

	return false
}

// Statuses lists the vocabulary of kind
func Statuses(kind models.EntityKind) []models.Status {
	m, ok := machines[kind]

	if !ok {
		return nil
	}

	out := make([]models.Status, 0, len(m.next))
	for s := range m.next {
		out = append(out, s)
	}

	return out
}
