package models

// EntityKind names one of the record kinds managed by the lifecycle engine
type EntityKind string

const (
	KindOrder       EntityKind = "order"
	KindQuote       EntityKind = "quote"
	KindReservation EntityKind = "reservation"
	KindTransaction EntityKind = "transaction"
)

// Kinds lists every entity kind
var Kinds = []EntityKind{KindOrder, KindQuote, KindReservation, KindTransaction}

// ParseEntityKind accepts the singular or plural form of a kind name
func ParseEntityKind(s string) (EntityKind, bool) {
	for _, k := range Kinds {
		if s == string(k) || s == string(k)+"s" {
			return k, true
		}
	}
	return "", false
}

// Status is a lifecycle status value. Values are only meaningful together with a kind.
type Status string

// Order statuses
const (
	OrderStatusPending   Status = "pending"
	OrderStatusConfirmed Status = "confirmed"
	OrderStatusPreparing Status = "preparing"
	OrderStatusReady     Status = "ready"
	OrderStatusDelivered Status = "delivered"
	OrderStatusCancelled Status = "cancelled"
)

// Quote statuses
const (
	QuoteStatusDraft    Status = "draft"
	QuoteStatusSent     Status = "sent"
	QuoteStatusAccepted Status = "accepted"
	QuoteStatusRejected Status = "rejected"
	QuoteStatusExpired  Status = "expired"
)

// Reservation statuses
const (
	ReservationStatusPending   Status = "pending"
	ReservationStatusConfirmed Status = "confirmed"
	ReservationStatusCancelled Status = "cancelled"
)
