package watcher

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/docmind/backend/internal/domain/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stateChanged(doc string) *events.DocumentStateChangedEvent {
	return &events.DocumentStateChangedEvent{UserID: "u1", DocumentID: doc, EventTime: time.Now()}
}

func TestEventBus_Subscribe(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	var received atomic.Value
	unsub := bus.Subscribe(events.DocumentStateChanged, events.HandlerFunc(func(event events.Event) error {
		received.Store(event.(*events.DocumentStateChangedEvent).DocumentID)
		return nil
	}))
	defer unsub()

	bus.Publish(stateChanged("d1"))

	assert.Eventually(t, func() bool { return received.Load() == "d1" }, time.Second, 10*time.Millisecond)
}

func TestEventBus_MultipleHandlersAndTypes(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	var count atomic.Int32
	for i := 0; i < 3; i++ {
		defer bus.Subscribe(events.DocumentStateChanged, events.HandlerFunc(func(event events.Event) error {
			count.Add(1)
			return nil
		}))()
	}
	defer bus.SubscribeMultiple(
		[]events.EventType{events.DocumentStateChanged, events.TopicChanged},
		events.HandlerFunc(func(event events.Event) error {
			count.Add(10)
			return nil
		}),
	)()

	bus.Publish(stateChanged("d1"))
	bus.Publish(&events.TopicChangedEvent{UserID: "u1", EventTime: time.Now()})

	assert.Eventually(t, func() bool { return count.Load() == 23 }, time.Second, 10*time.Millisecond)
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	var first, second atomic.Int32
	unsubFirst := bus.Subscribe(events.DocumentDeleted, events.HandlerFunc(func(event events.Event) error {
		first.Add(1)
		return nil
	}))
	bus.Subscribe(events.DocumentDeleted, events.HandlerFunc(func(event events.Event) error {
		second.Add(1)
		return nil
	}))

	unsubFirst()
	unsubFirst()
	bus.Publish(&events.DocumentDeletedEvent{UserID: "u1", DocumentID: "d1", EventTime: time.Now()})

	assert.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(0), first.Load())
}

func TestEventBus_ErrorAndPanicIsolation(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	var successCount atomic.Int32
	bus.Subscribe(events.DocumentStateChanged, events.HandlerFunc(func(event events.Event) error {
		return errors.New("handler error")
	}))
	bus.Subscribe(events.DocumentStateChanged, events.HandlerFunc(func(event events.Event) error {
		panic("handler panic")
	}))
	bus.Subscribe(events.DocumentStateChanged, events.HandlerFunc(func(event events.Event) error {
		successCount.Add(1)
		return nil
	}))

	require.NotPanics(t, func() { bus.Publish(stateChanged("d1")) })
	assert.Eventually(t, func() bool { return successCount.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestEventBus_CloseWaitsForHandlers(t *testing.T) {
	bus := NewEventBus()

	handlerStarted := make(chan struct{})
	var finished atomic.Bool
	bus.Subscribe(events.DocumentStateChanged, events.HandlerFunc(func(event events.Event) error {
		close(handlerStarted)
		time.Sleep(100 * time.Millisecond)
		finished.Store(true)
		return nil
	}))

	bus.Publish(stateChanged("d1"))
	<-handlerStarted
	bus.Close()
	assert.True(t, finished.Load(), "close returns only after in-flight handlers")

	// 关闭后发布的事件被丢弃
	require.NotPanics(t, func() { bus.Publish(stateChanged("d2")) })
}
