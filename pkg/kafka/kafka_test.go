package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/vaidashi/catering-api/pkg/logger"
)

func TestProducerSendMessage(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"id":"ord-1"}` {
			return fmt.Errorf("unexpected payload %s", val)
		}
		return nil
	})
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewProducerFromSync(mock, logger.NewNopLogger())
	defer p.Close()

	if err := p.SendMessage(context.Background(), "catering.lifecycle", "ord-1", []byte(`{"id":"ord-1"}`), Header{Key: "event_type", Value: "entity_created"}); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	err := p.SendMessage(context.Background(), "catering.lifecycle", "ord-1", []byte(`{}`))

	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("SendMessage() error = %v, want ErrOutOfBrokers", err)
	}
}

func TestProducerHonoursCancelledContext(t *testing.T) {
	p := NewProducerFromSync(mocks.NewSyncProducer(t, nil), logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.SendMessage(ctx, "t", "k", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("SendMessage() error = %v, want context.Canceled", err)
	}
}

type fakeSession struct {
	ctx    context.Context
	marked []int64
}

func (s *fakeSession) Claims() map[string][]int32 { return nil }
func (s *fakeSession) MemberID() string { return "member" }
func (s *fakeSession) GenerationID() int32 { return 1 }
func (s *fakeSession) MarkOffset(string, int32, int64, string) {}
func (s *fakeSession) Commit() {}
func (s *fakeSession) ResetOffset(string, int32, int64, string) {}
func (s *fakeSession) Context() context.Context { return s.ctx }
func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) { s.marked = append(s.marked, msg.Offset) }

type fakeClaim struct {
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Topic() string { return "catering.lifecycle" }
func (c *fakeClaim) Partition() int32 { return 0 }
func (c *fakeClaim) InitialOffset() int64 { return 0 }
func (c *fakeClaim) HighWaterMarkOffset() int64 { return 0 }
func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

type flakyHandler struct {
	failures map[int64]int
	calls    map[int64]int
}

func (h *flakyHandler) HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	h.calls[msg.Offset]++
	if h.calls[msg.Offset] <= h.failures[msg.Offset] {
		return errors.New("audit store unavailable")
	}
	return nil
}

func TestConsumeClaimRetriesThenMarks(t *testing.T) {
	c := newConsumer(nil, &ConsumerConfig{Topics: []string{"catering.lifecycle"}, HandlerAttempts: 3}, logger.NewNopLogger())
	c.retryConfig.Sleep = func(context.Context, time.Duration) error { return nil }

	handler := &flakyHandler{
		failures: map[int64]int{1: 2, 2: 10},
		calls:    map[int64]int{},
	}
	c.RegisterHandler("catering.lifecycle", handler)

	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 3)}
	claim.messages <- &sarama.ConsumerMessage{Topic: "catering.lifecycle", Offset: 1}
	claim.messages <- &sarama.ConsumerMessage{Topic: "catering.lifecycle", Offset: 2}
	claim.messages <- &sarama.ConsumerMessage{Topic: "unrouted", Offset: 3}
	close(claim.messages)

	session := &fakeSession{ctx: context.Background()}

	if err := c.ConsumeClaim(session, claim); err != nil {
		t.Fatalf("ConsumeClaim() error = %v", err)
	}

	if handler.calls[1] != 3 {
		t.Errorf("offset 1 handled %d times, want 3", handler.calls[1])
	}
	if handler.calls[2] != 3 {
		t.Errorf("offset 2 handled %d times, want 3 before giving up", handler.calls[2])
	}
	if len(session.marked) != 3 {
		t.Errorf("marked offsets = %v, want all three", session.marked)
	}
}
