// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package progressbus_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qisumi/inkvault/internal/progressbus"
)

func TestBus_PublishDeliversToAllSubscribers(t *testing.T) {
	bus := progressbus.New(slog.Default())

	chA, subA := bus.Subscribe("task-1")
	chB, subB := bus.Subscribe("task-1")
	defer bus.Unsubscribe("task-1", subA)
	defer bus.Unsubscribe("task-1", subB)

	bus.Publish(progressbus.Event{Type: progressbus.EventProgress, TaskID: "task-1", Downloaded: 1})

	select {
	case evt := <-chA:
		assert.Equal(t, "task-1", evt.TaskID)
	case <-time.After(time.Second):
		t.Fatal("subscriber A never received event")
	}

	select {
	case evt := <-chB:
		assert.Equal(t, "task-1", evt.TaskID)
	case <-time.After(time.Second):
		t.Fatal("subscriber B never received event")
	}
}

func TestBus_PublishIgnoresOtherTasks(t *testing.T) {
	bus := progressbus.New(slog.Default())

	ch, sub := bus.Subscribe("task-1")
	defer bus.Unsubscribe("task-1", sub)

	bus.Publish(progressbus.Event{TaskID: "task-2"})

	select {
	case <-ch:
		t.Fatal("subscriber for task-1 should not receive task-2 events")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	bus := progressbus.New(slog.Default())

	ch, sub := bus.Subscribe("task-1")
	bus.Unsubscribe("task-1", sub)

	_, ok := <-ch
	assert.False(t, ok)
}

func TestBus_UnsubscribeAll(t *testing.T) {
	bus := progressbus.New(slog.Default())

	chA, _ := bus.Subscribe("task-1")
	chB, _ := bus.Subscribe("task-1")

	bus.Unsubscribe("task-1", "")

	_, okA := <-chA
	_, okB := <-chB
	assert.False(t, okA)
	assert.False(t, okB)
}

func TestBus_PublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	bus := progressbus.New(slog.Default())
	_, sub := bus.Subscribe("task-1")
	defer bus.Unsubscribe("task-1", sub)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 64; i++ {
			bus.Publish(progressbus.Event{TaskID: "task-1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber channel")
	}
}

func TestBus_Subscribe_RequiresExplicitUnsubscribe(t *testing.T) {
	bus := progressbus.New(slog.Default())
	_, sub := bus.Subscribe("task-1")
	require.NotEmpty(t, sub)
	bus.Unsubscribe("task-1", sub)
}
