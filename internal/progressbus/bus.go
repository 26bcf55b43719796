// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package progressbus is the process-local task-progress fan-out (C6): a
lock-guarded map of task id to subscriber set, grounded on the Python
original's per-task `_progress_callbacks` set
(`original_source/app/services/download_service_operations.py`). Within one
task, events are serialized by the Download Engine in the order chapter
steps complete, followed by the terminal event; there is no ordering
guarantee across tasks, and delivery is best-effort — a slow or dead
subscriber must never block others.
*/
package progressbus

import (
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// EventType distinguishes the kind of update delivered to a subscriber.
type EventType string

const (
	EventProgress  EventType = "progress"
	EventCompleted EventType = "completed"
	EventError     EventType = "error"
)

// Event is one message delivered to a task's subscribers.
type Event struct {
	Type         EventType `json:"type"`
	TaskID       string    `json:"task_id"`
	Status       string    `json:"status,omitempty"`
	Total        int       `json:"total"`
	Downloaded   int       `json:"downloaded"`
	Failed       int       `json:"failed"`
	Progress     float64   `json:"progress"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	BookTitle    string    `json:"book_title,omitempty"`
	Success      bool      `json:"success"`
	Message      string    `json:"message,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Bus fans out [Event]s to per-task subscriber sets.
type Bus struct {
	mu          sync.Mutex
	subscribers map[string]map[string]chan Event
	logger      *slog.Logger
}

// New constructs an empty [Bus].
func New(logger *slog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[string]map[string]chan Event),
		logger:      logger,
	}
}

// Subscribe registers a new subscriber for taskID and returns its channel
// along with a subscriber id to pass to [Bus.Unsubscribe]. The channel is
// buffered so a slow reader does not stall the publisher; events are
// dropped, not blocked, once the buffer is full.
func (b *Bus) Subscribe(taskID string) (<-chan Event, string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subscribers[taskID] == nil {
		b.subscribers[taskID] = make(map[string]chan Event)
	}

	subID := newSubscriberID()
	ch := make(chan Event, 32)
	b.subscribers[taskID][subID] = ch

	return ch, subID
}

// Unsubscribe removes one subscriber from taskID's set and closes its
// channel. If subID is empty, every subscriber for taskID is removed.
func (b *Bus) Unsubscribe(taskID, subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.subscribers[taskID]
	if !ok {
		return
	}

	if subID == "" {
		for _, ch := range set {
			close(ch)
		}
		delete(b.subscribers, taskID)
		return
	}

	if ch, ok := set[subID]; ok {
		close(ch)
		delete(set, subID)
	}
	if len(set) == 0 {
		delete(b.subscribers, taskID)
	}
}

// Publish delivers event to every current subscriber of its TaskID.
// Delivery runs under the bus lock, so a concurrent Unsubscribe cannot
// close a channel mid-send; sends never block, so holding the lock is
// brief. A full subscriber channel is skipped rather than blocked on.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subscribers[event.TaskID] {
		select {
		case ch <- event:
		default:
			b.logger.Warn("progress_subscriber_dropped_event", slog.String("task_id", event.TaskID))
		}
	}
}

var subscriberSeq uint64
var subscriberSeqMu sync.Mutex

// newSubscriberID returns a process-unique subscriber id. Plain
// monotonically-increasing counter under a mutex is enough here: ids never
// leave the process and collisions would only ever let one subscriber
// clobber another's map slot.
func newSubscriberID() string {
	subscriberSeqMu.Lock()
	defer subscriberSeqMu.Unlock()
	subscriberSeq++
	return strconv.FormatUint(subscriberSeq, 10)
}
