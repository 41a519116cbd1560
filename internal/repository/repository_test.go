package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/vaidashi/catering-api/internal/models"
)

func TestListOptionsNormalized(t *testing.T) {
	tests := []struct {
		name string
		in   ListOptions
		want ListOptions
	}{
		{name: "defaults", in: ListOptions{}, want: ListOptions{Limit: 20}},
		{name: "keepsValid", in: ListOptions{Limit: 50, Offset: 10}, want: ListOptions{Limit: 50, Offset: 10}},
		{name: "capsLimit", in: ListOptions{Limit: 1000}, want: ListOptions{Limit: 20}},
		{name: "negativeOffset", in: ListOptions{Limit: 5, Offset: -3}, want: ListOptions{Limit: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.normalized(); got != tt.want {
				t.Errorf("normalized() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWrapDBError(t *testing.T) {
	dup := wrapDBError(&pq.Error{Code: uniqueViolation, Constraint: "orders_order_number_key"})

	if !errors.Is(dup, ErrDuplicate) {
		t.Errorf("unique violation = %v, want ErrDuplicate", dup)
	}

	other := wrapDBError(errors.New("connection reset"))

	if !errors.Is(other, ErrDatabase) || errors.Is(other, ErrDuplicate) {
		t.Errorf("driver error = %v, want ErrDatabase only", other)
	}
}

func TestSortOutboxMessages(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	messages := []*models.OutboxMessage{
		{ID: 3, CreatedAt: base.Add(time.Second)},
		{ID: 2, CreatedAt: base},
		{ID: 1, CreatedAt: base},
	}

	sortOutboxMessages(messages)

	for i, want := range []int64{1, 2, 3} {
		if messages[i].ID != want {
			t.Fatalf("position %d = message %d, want %d", i, messages[i].ID, want)
		}
	}
}

func TestNullableBounds(t *testing.T) {
	if nullableDate(time.Time{}) != nil || nullableTime(time.Time{}) != nil {
		t.Error("zero bound should be passed as NULL")
	}

	at := time.Date(2024, 3, 31, 23, 0, 0, 0, time.FixedZone("EST", -5*3600))

	if got := nullableDate(at); got != "2024-04-01" {
		t.Errorf("nullableDate() = %v, want 2024-04-01", got)
	}
}
