package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"marketfund/internal/adapter/memstore"
	"marketfund/internal/domain"
	"marketfund/internal/infra"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	failOn string
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if event.ID == p.failOn {
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, event)
	return nil
}

func enqueue(t *testing.T, store *memstore.Store, ids ...string) {
	t.Helper()
	err := store.InTx(context.Background(), func(uow domain.UnitOfWork) error {
		for _, id := range ids {
			if err := uow.Outbox().Enqueue(context.Background(), domain.Event{
				ID:      id,
				Type:    domain.EventDonationRecorded,
				Key:     "c1",
				Payload: []byte(`{"id":"` + id + `"}`),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
}

func pending(store *memstore.Store) int {
	n := 0
	for _, rec := range store.OutboxRecords() {
		if rec.SentAt == nil {
			n++
		}
	}
	return n
}

func TestRelayRunOnceDeliversInOrder(t *testing.T) {
	store := memstore.New()
	enqueue(t, store, "e1", "e2", "e3")
	pub := &recordingPublisher{}
	metrics := infra.NewMetrics()
	relay := NewRelay(store, pub, zerolog.Nop(), metrics, 2, time.Millisecond)

	n, err := relay.RunOnce(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("first batch: n=%d err=%v", n, err)
	}
	n, err = relay.RunOnce(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("second batch: n=%d err=%v", n, err)
	}
	if n, _ := relay.RunOnce(context.Background()); n != 0 {
		t.Fatalf("expected empty batch, got %d", n)
	}

	if len(pub.events) != 3 || pub.events[0].ID != "e1" || pub.events[2].ID != "e3" {
		t.Fatalf("unexpected delivery order %+v", pub.events)
	}
	if pending(store) != 0 {
		t.Fatalf("records left pending")
	}
	if got := testutil.ToFloat64(metrics.OutboxPublished.WithLabelValues(domain.EventDonationRecorded, "ok")); got != 3 {
		t.Fatalf("published metric = %v", got)
	}
}

func TestRelayStopsAtFirstFailure(t *testing.T) {
	store := memstore.New()
	enqueue(t, store, "e1", "e2", "e3")
	pub := &recordingPublisher{failOn: "e2"}
	relay := NewRelay(store, pub, zerolog.Nop(), nil, 10, time.Millisecond)

	n, err := relay.RunOnce(context.Background())
	if err == nil || n != 1 {
		t.Fatalf("expected one delivery and an error, got n=%d err=%v", n, err)
	}
	if pending(store) != 2 {
		t.Fatalf("expected e2 and e3 pending, got %d", pending(store))
	}

	pub.failOn = ""
	if n, err := relay.RunOnce(context.Background()); err != nil || n != 2 {
		t.Fatalf("retry: n=%d err=%v", n, err)
	}
	if pub.events[1].ID != "e2" {
		t.Fatalf("expected e2 redelivered second, got %+v", pub.events)
	}
}

func TestRelayRunStopsOnCancel(t *testing.T) {
	store := memstore.New()
	enqueue(t, store, "e1")
	pub := &recordingPublisher{}
	relay := NewRelay(store, pub, zerolog.Nop(), nil, 10, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for pending(store) != 0 {
		select {
		case <-deadline:
			t.Fatalf("relay did not deliver")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestKafkaMessage(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "marketfund")
	defer p.Close()

	if got := p.Topic(domain.EventOrderPlaced); got != "marketfund.order.placed" {
		t.Fatalf("topic = %q", got)
	}
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	msg := Message(p.Topic(domain.EventOrderPlaced), domain.Event{ID: "e1", Type: domain.EventOrderPlaced, Key: "buyer-1", Payload: []byte(`{}`), CreatedAt: created})
	if msg.Topic != "marketfund.order.placed" || string(msg.Key) != "buyer-1" || !msg.Time.Equal(created) {
		t.Fatalf("unexpected message %+v", msg)
	}
	if len(msg.Headers) != 2 || string(msg.Headers[0].Value) != "e1" {
		t.Fatalf("unexpected headers %+v", msg.Headers)
	}
}
