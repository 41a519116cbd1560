package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vaidashi/catering-api/internal/lifecycle"
	"github.com/vaidashi/catering-api/internal/models"
	apperrors "github.com/vaidashi/catering-api/pkg/errors"
	"github.com/vaidashi/catering-api/pkg/logger"
)

func newReservationService(rs ...models.Reservation) (*ReservationService, *fakeReservationStore, *fakeOutbox) {
	store := newFakeReservationStore(rs...)
	outbox := &fakeOutbox{}
	return NewReservationService(&fakeTx{}, store, outbox, testEngine(), logger.NewNopLogger()), store, outbox
}

func TestCreateReservationValidation(t *testing.T) {
	valid := CreateReservationInput{ClientID: "cli-1", EventAt: testNow.Add(48 * time.Hour), GuestCount: 80, EventType: "wedding"}

	tests := []struct {
		name    string
		mutate  func(*CreateReservationInput)
		wantErr error
	}{
		{name: "valid", mutate: func(*CreateReservationInput) {}},
		{name: "zeroGuests", mutate: func(in *CreateReservationInput) { in.GuestCount = 0 }, wantErr: apperrors.ErrUnprocessable},
		{name: "noEventType", mutate: func(in *CreateReservationInput) { in.EventType = " " }, wantErr: apperrors.ErrInvalidInput},
		{name: "noDate", mutate: func(in *CreateReservationInput) { in.EventAt = time.Time{} }, wantErr: apperrors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newReservationService()
			in := valid
			tt.mutate(&in)

			res, err := svc.CreateReservation(context.Background(), in)

			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("CreateReservation() error = %v", err)
				}
				if res.Status != models.ReservationStatusPending {
					t.Errorf("Status = %q, want pending", res.Status)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreateReservation() error = %v, want %v", err, tt.wantErr)
			}
			if len(store.reservations) != 0 {
				t.Error("invalid reservation was stored")
			}
		})
	}
}

func TestUpdateReservationStatus(t *testing.T) {
	res := models.Reservation{ID: "res-1", Status: models.ReservationStatusConfirmed, Version: 1}
	svc, store, outbox := newReservationService(res)

	updated, err := svc.UpdateReservationStatus(context.Background(), "res-1", models.ReservationStatusCancelled, "staff")

	if err != nil {
		t.Fatalf("UpdateReservationStatus() error = %v", err)
	}
	if updated.Status != models.ReservationStatusCancelled || store.reservations["res-1"].Version != 2 {
		t.Errorf("stored = %+v", store.reservations["res-1"])
	}
	if len(outbox.messages) != 1 {
		t.Errorf("outbox messages = %d, want 1", len(outbox.messages))
	}

	_, err = svc.UpdateReservationStatus(context.Background(), "res-1", models.ReservationStatusConfirmed, "staff")

	if !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Errorf("leaving cancelled: error = %v, want ErrInvalidTransition", err)
	}
}

func TestListReservationsRejectsEmptyWindow(t *testing.T) {
	svc, _, _ := newReservationService()

	_, err := svc.ListReservations(context.Background(), testNow, testNow)

	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("ListReservations() error = %v, want ErrInvalidInput", err)
	}
}
