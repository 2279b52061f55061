package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/pricemap/pkg/logging"
)

type mockSubscriber struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (m *mockSubscriber) Send(e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockSubscriber) types() []EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EventType, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

func (m *mockSubscriber) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func TestSubscribeBeforeRun(t *testing.T) {
	b := NewBroker(logging.NewNopLogger())
	sub := &mockSubscriber{}

	done := make(chan struct{})
	go func() {
		b.Subscribe(sub)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Subscribe blocked before Run")
	}
}

func TestPublishInOrder(t *testing.T) {
	b := NewBroker(logging.NewNopLogger())
	sub := &mockSubscriber{}
	b.Subscribe(sub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	require.Eventually(t, func() bool { return b.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)

	b.Publish(RefreshStarted, map[string]any{"trigger": "manual"})
	b.Publish(RecordAdded, nil)
	b.Publish(RefreshCompleted, nil)

	require.Eventually(t, func() bool { return len(sub.types()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []EventType{RefreshStarted, RecordAdded, RefreshCompleted}, sub.types())
	assert.EqualValues(t, 3, b.EventsPublished())
}

func TestUnsubscribeClosesSubscriber(t *testing.T) {
	b := NewBroker(logging.NewNopLogger())
	sub := &mockSubscriber{}
	b.Subscribe(sub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	require.Eventually(t, func() bool { return b.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)
	b.Unsubscribe(sub)
	require.Eventually(t, func() bool { return b.SubscriberCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, sub.isClosed())
}

func TestShutdownClosesSubscribers(t *testing.T) {
	b := NewBroker(logging.NewNopLogger())
	sub := &mockSubscriber{}
	b.Subscribe(sub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return b.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.True(t, sub.isClosed())
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestPublishDropsWhenFull(t *testing.T) {
	b := NewBroker(logging.NewNopLogger())
	for range cap(b.events) + 5 {
		b.Publish(RecordAdded, nil)
	}
	assert.EqualValues(t, 5, b.EventsDropped())
}
