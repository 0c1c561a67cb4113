package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/agrosurplus/internal/eventbus"
)

func testEvent() eventbus.Event {
	return eventbus.Event{
		ID:        "0b7c6f1e-5d0a-4a59-9d6e-2f5d1f4f1a11",
		Type:      "crop.created",
		Payload:   map[string]int{"crop_id": 1},
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestClientSend_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.Header.Get("X-Event-Type") != "crop.created" {
			t.Errorf("event type header = %q", r.Header.Get("X-Event-Type"))
		}

		var e eventbus.Event
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			t.Errorf("decode: %v", err)
		}
		if e.ID != testEvent().ID {
			t.Errorf("id = %q", e.ID)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	code, retry, err := client.Send(ctx, testEvent())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, code)
	assert.Zero(t, retry)
}

func TestClientSend_TooManyRequests(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	code, retry, err := NewClient(ts.URL).Send(context.Background(), testEvent())
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, 5*time.Second, retry)
}

func TestClientSend_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	code, _, err := NewClient(ts.URL).Send(context.Background(), testEvent())
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, code)
}

func TestClientSend_NotConfigured(t *testing.T) {
	_, _, err := NewClient("").Send(context.Background(), testEvent())
	assert.Error(t, err)
}

func TestForwarder_RetriesUntilAccepted(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	f := NewForwarder(NewClient(ts.URL), 4, zap.NewNop())
	f.backoff = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	f.Handle(testEvent())

	assert.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestForwarder_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	f := NewForwarder(NewClient(ts.URL), 4, zap.NewNop())
	f.backoff = time.Millisecond

	f.deliver(context.Background(), testEvent())

	assert.Equal(t, int32(maxAttempts), calls.Load())
}

func TestForwarder_DropsWhenQueueFull(t *testing.T) {
	f := NewForwarder(NewClient("http://127.0.0.1:1"), 1, zap.NewNop())

	f.Handle(testEvent())
	f.Handle(testEvent())

	assert.Len(t, f.queue, 1)
}

func TestForwarder_SubscribedToBus(t *testing.T) {
	received := make(chan string, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- r.Header.Get("X-Event-Type")
	}))
	defer ts.Close()

	bus := eventbus.New(eventbus.DefaultMaxSubscribers, zap.NewNop())
	f := NewForwarder(NewClient(ts.URL), 0, zap.NewNop())

	unsubscribe, err := bus.Subscribe(f.Handle)
	require.NoError(t, err)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = f.Run(ctx) }()

	bus.Publish("order.created", map[string]int{"order_id": 1})

	select {
	case typ := <-received:
		assert.Equal(t, "order.created", typ)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was not called")
	}
}
