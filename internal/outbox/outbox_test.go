package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/pkg/kafka"
	"github.com/vaidashi/catering-api/pkg/logger"
)

type fakeStore struct {
	pending   []*models.OutboxMessage
	completed []int64
	retried   []int64
	failed    []int64
}

func (s *fakeStore) ClaimPending(ctx context.Context, limit int) ([]*models.OutboxMessage, error) {
	claimed := s.pending
	s.pending = nil
	for _, m := range claimed {
		m.ProcessingAttempts++
		m.Status = models.OutboxStatusProcessing
	}
	return claimed, nil
}

func (s *fakeStore) MarkAsCompleted(ctx context.Context, id int64) error {
	s.completed = append(s.completed, id)
	return nil
}

func (s *fakeStore) MarkForRetry(ctx context.Context, id int64, errorMessage string) error {
	s.retried = append(s.retried, id)
	return nil
}

func (s *fakeStore) MarkAsFailed(ctx context.Context, id int64, errorMessage string) error {
	s.failed = append(s.failed, id)
	return nil
}

type fakeDLQ struct {
	created   []*models.DeadLetterMessage
	pending   []*models.DeadLetterMessage
	retrying  []int64
	resolved  []int64
	discarded map[int64]string
}

func (d *fakeDLQ) Create(ctx context.Context, message *models.DeadLetterMessage) error {
	message.ID = int64(len(d.created) + 1)
	d.created = append(d.created, message)
	return nil
}

func (d *fakeDLQ) GetPendingMessages(ctx context.Context, limit int) ([]*models.DeadLetterMessage, error) {
	return d.pending, nil
}

func (d *fakeDLQ) MarkAsRetrying(ctx context.Context, id int64) error {
	d.retrying = append(d.retrying, id)
	return nil
}

func (d *fakeDLQ) MarkAsResolved(ctx context.Context, id int64) error {
	d.resolved = append(d.resolved, id)
	return nil
}

func (d *fakeDLQ) MarkAsDiscarded(ctx context.Context, id int64, reason string) error {
	if d.discarded == nil {
		d.discarded = make(map[int64]string)
	}
	d.discarded[id] = reason
	return nil
}

type countingHandler struct {
	calls int
	err   error
}

func (h *countingHandler) HandleMessage(ctx context.Context, message *models.OutboxMessage) error {
	h.calls++
	return h.err
}

func transitionMessage(t *testing.T, id int64) *models.OutboxMessage {
	t.Helper()

	msg, err := models.NewTransitionOutboxMessage(models.TransitionEvent{
		EventID:    "evt-1",
		EntityKind: models.KindOrder,
		EntityID:   "ord-1",
		FromStatus: "pending",
		ToStatus:   "confirmed",
		ActingRole: "manager",
		Timestamp:  time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	})

	if err != nil {
		t.Fatalf("NewTransitionOutboxMessage() error = %v", err)
	}

	msg.ID = id
	return msg
}

func newTestProcessor(store *fakeStore, dlq *fakeDLQ, maxRetries int) *Processor {
	return NewProcessor(store, dlq, ProcessorConfig{
		PollingInterval: time.Second,
		BatchSize:       10,
		MaxRetries:      maxRetries,
	}, logger.NewNopLogger())
}

func TestProcessorCompletesDeliveredMessages(t *testing.T) {
	store := &fakeStore{pending: []*models.OutboxMessage{transitionMessage(t, 1), transitionMessage(t, 2)}}
	handler := &countingHandler{}
	p := newTestProcessor(store, &fakeDLQ{}, 3)
	p.RegisterHandler(models.EventEntityTransitioned, handler)

	if err := p.processBatch(context.Background()); err != nil {
		t.Fatalf("processBatch() error = %v", err)
	}

	if handler.calls != 2 {
		t.Errorf("handler calls = %d, want 2", handler.calls)
	}
	if len(store.completed) != 2 || len(store.retried) != 0 {
		t.Errorf("completed = %v, retried = %v", store.completed, store.retried)
	}
}

func TestProcessorRetriesThenDeadLetters(t *testing.T) {
	msg := transitionMessage(t, 7)
	store := &fakeStore{}
	dlq := &fakeDLQ{}
	handler := &countingHandler{err: errors.New("broker down")}
	p := newTestProcessor(store, dlq, 2)
	p.RegisterHandler(models.EventEntityTransitioned, handler)

	store.pending = []*models.OutboxMessage{msg}
	_ = p.processBatch(context.Background())

	if len(store.retried) != 1 || len(store.failed) != 0 {
		t.Fatalf("after first attempt retried = %v, failed = %v", store.retried, store.failed)
	}

	store.pending = []*models.OutboxMessage{msg}
	_ = p.processBatch(context.Background())

	if len(store.failed) != 1 || store.failed[0] != 7 {
		t.Fatalf("failed = %v, want [7]", store.failed)
	}
	if len(dlq.created) != 1 {
		t.Fatalf("dead letters = %d, want 1", len(dlq.created))
	}

	dead := dlq.created[0]
	if dead.OriginalMessageID != 7 || dead.ErrorMessage != "broker down" || dead.Status != models.DeadLetterStatusPending {
		t.Errorf("dead letter = %+v", dead)
	}
}

func TestProcessorDeadLettersUnknownEventType(t *testing.T) {
	msg := transitionMessage(t, 3)
	msg.EventType = "mystery"
	store := &fakeStore{pending: []*models.OutboxMessage{msg}}
	dlq := &fakeDLQ{}
	p := newTestProcessor(store, dlq, 5)

	_ = p.processBatch(context.Background())

	if len(store.failed) != 1 || len(dlq.created) != 1 {
		t.Errorf("failed = %v, dead letters = %d", store.failed, len(dlq.created))
	}
	if dlq.created[0].FailureReason != "no handler" {
		t.Errorf("FailureReason = %q, want no handler", dlq.created[0].FailureReason)
	}
}

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func TestDeadLetterProcessor(t *testing.T) {
	tests := []struct {
		name          string
		handlerErr    error
		register      bool
		wantCalls     int
		wantResolved  bool
		wantDiscarded bool
	}{
		{name: "resolvedOnSuccess", register: true, wantCalls: 1, wantResolved: true},
		{name: "discardedAfterRetries", handlerErr: errors.New("still down"), register: true, wantCalls: 3, wantDiscarded: true},
		{name: "discardedWithoutHandler", wantDiscarded: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dead := models.NewDeadLetterMessage(transitionMessage(t, 9), "broker down", "max retries")
			dead.ID = 4
			dlq := &fakeDLQ{pending: []*models.DeadLetterMessage{dead}}
			handler := &countingHandler{err: tt.handlerErr}

			p := NewDeadLetterProcessor(dlq, logger.NewNopLogger(), &DeadLetterProcessorConfig{
				PollingInterval: time.Second,
				BatchSize:       5,
				MaxRetries:      3,
			})
			p.sleep = noSleep
			if tt.register {
				p.RegisterHandler(models.EventEntityTransitioned, handler)
			}

			if err := p.processBatch(context.Background()); err != nil {
				t.Fatalf("processBatch() error = %v", err)
			}

			if handler.calls != tt.wantCalls {
				t.Errorf("handler calls = %d, want %d", handler.calls, tt.wantCalls)
			}
			if got := len(dlq.resolved) == 1; got != tt.wantResolved {
				t.Errorf("resolved = %v, want %v", dlq.resolved, tt.wantResolved)
			}
			if _, got := dlq.discarded[4]; got != tt.wantDiscarded {
				t.Errorf("discarded = %v, want %v", dlq.discarded, tt.wantDiscarded)
			}
			if len(dlq.retrying) != 1 {
				t.Errorf("retrying = %v, want one mark", dlq.retrying)
			}
		})
	}
}

type fakeSender struct {
	topic   string
	key     string
	headers []kafka.Header
	err     error
}

func (s *fakeSender) SendMessage(ctx context.Context, topic, key string, value []byte, headers ...kafka.Header) error {
	s.topic, s.key, s.headers = topic, key, headers
	return s.err
}

func TestKafkaHandlerKeysByAggregate(t *testing.T) {
	sender := &fakeSender{}
	h := NewKafkaHandler(sender, "catering.lifecycle", logger.NewNopLogger())

	if err := h.HandleMessage(context.Background(), transitionMessage(t, 1)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	if sender.topic != "catering.lifecycle" || sender.key != "ord-1" {
		t.Errorf("sent to %s with key %s", sender.topic, sender.key)
	}
	if len(sender.headers) != 2 || sender.headers[0].Value != models.EventEntityTransitioned {
		t.Errorf("headers = %+v", sender.headers)
	}

	sender.err = errors.New("no brokers")
	if err := h.HandleMessage(context.Background(), transitionMessage(t, 1)); err == nil {
		t.Error("HandleMessage() error = nil, want publish failure")
	}
}

type fakePublisher struct {
	keys   []string
	bodies [][]byte
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, routingKey string, body []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, routingKey)
	p.bodies = append(p.bodies, body)
	return nil
}

func TestNotificationHandler(t *testing.T) {
	created, err := models.NewEntityCreatedOutboxMessage(models.KindReservation, "res-1", map[string]string{"id": "res-1"})

	if err != nil {
		t.Fatalf("NewEntityCreatedOutboxMessage() error = %v", err)
	}

	ledger, err := models.NewTransactionRecordedOutboxMessage(&models.Transaction{ID: "txn-1"})

	if err != nil {
		t.Fatalf("NewTransactionRecordedOutboxMessage() error = %v", err)
	}

	tests := []struct {
		name    string
		msg     *models.OutboxMessage
		wantKey string
	}{
		{name: "transition", msg: transitionMessage(t, 1), wantKey: "order.confirmed"},
		{name: "created", msg: created, wantKey: "reservation.created"},
		{name: "ledgerEntrySkipped", msg: ledger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			h := NewNotificationHandler(pub, logger.NewNopLogger())

			if err := h.HandleMessage(context.Background(), tt.msg); err != nil {
				t.Fatalf("HandleMessage() error = %v", err)
			}

			if tt.wantKey == "" {
				if len(pub.keys) != 0 {
					t.Errorf("published %v, want nothing", pub.keys)
				}
				return
			}

			if len(pub.keys) != 1 || pub.keys[0] != tt.wantKey {
				t.Fatalf("routing keys = %v, want [%s]", pub.keys, tt.wantKey)
			}

			var n Notification
			if err := json.Unmarshal(pub.bodies[0], &n); err != nil {
				t.Fatalf("body is not a notification: %v", err)
			}
			if n.EntityID == "" || n.EventID == "" {
				t.Errorf("notification = %+v", n)
			}
		})
	}
}

func TestFanoutStopsAtFirstFailure(t *testing.T) {
	first := &countingHandler{err: errors.New("down")}
	second := &countingHandler{}
	h := NewFanoutHandler(first, second)

	if err := h.HandleMessage(context.Background(), transitionMessage(t, 1)); err == nil {
		t.Fatal("HandleMessage() error = nil, want failure")
	}
	if second.calls != 0 {
		t.Errorf("second handler called %d times after a failure", second.calls)
	}

	first.err = nil
	if err := h.HandleMessage(context.Background(), transitionMessage(t, 1)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if first.calls != 2 || second.calls != 1 {
		t.Errorf("calls = %d, %d, want 2, 1", first.calls, second.calls)
	}
}
