// Package events is a small typed pub/sub bus. Panel state publishes here and
// the front ends subscribe to redraw.
package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cloudfm/cloudfm/internal/constants"
	"github.com/cloudfm/cloudfm/internal/models"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventListing   EventType = "listing"   // provider listing replaced
	EventIdentity  EventType = "identity"  // provider connection state changed
	EventOperation EventType = "operation" // listing/uploading flag flipped
	EventSelection EventType = "selection" // selected local file changed
	EventTab       EventType = "tab"       // active tab changed
	EventSignal    EventType = "signal"    // user-visible notification
	EventTransfer  EventType = "transfer"  // upload/download byte progress
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

func base(t EventType) BaseEvent {
	return BaseEvent{EventType: t, Time: time.Now()}
}

// ListingEvent carries the full replacement listing for a provider.
type ListingEvent struct {
	BaseEvent
	Provider models.Provider
	Entries  []models.FileEntry
}

// IdentityEvent reports a provider's connection state. Identity is nil when
// the provider is not connected.
type IdentityEvent struct {
	BaseEvent
	Provider models.Provider
	Identity *models.UserIdentity
}

// Operation names the in-flight flags tracked per provider.
type Operation string

const (
	OpListing   Operation = "listing"
	OpUploading Operation = "uploading"
)

// OperationEvent reports an operation flag transition.
type OperationEvent struct {
	BaseEvent
	Provider models.Provider
	Op       Operation
	Active   bool
}

// SelectionEvent reports the selected local file; File is nil when cleared.
type SelectionEvent struct {
	BaseEvent
	File *models.SelectedFile
}

// TabEvent reports the newly active provider tab.
type TabEvent struct {
	BaseEvent
	Provider models.Provider
}

// SignalKind classifies user-visible notifications.
type SignalKind string

const (
	SignalInfo    SignalKind = "info"
	SignalSuccess SignalKind = "success"
	SignalWarning SignalKind = "warning"
	SignalError   SignalKind = "error"
)

// SignalEvent is a user-visible notification (alert/toast equivalent).
type SignalEvent struct {
	BaseEvent
	Kind     SignalKind
	Provider models.Provider
	Op       string
	Message  string
}

// TransferEvent reports byte progress of an upload or download.
// BytesTotal is -1 when the size is unknown.
type TransferEvent struct {
	BaseEvent
	Op           string // "upload" or "download"
	Name         string
	BytesCurrent int64
	BytesTotal   int64
	Done         bool
	Error        error
}

// Progress returns the completed fraction, or 0 when the total is unknown.
func (e *TransferEvent) Progress() float64 {
	if e.BytesTotal <= 0 {
		return 0
	}
	return float64(e.BytesCurrent) / float64(e.BytesTotal)
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}

	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		bufferSize:  bufferSize,
	}
}

func closedChan() chan Event {
	ch := make(chan Event)
	close(ch)
	return ch
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return closedChan()
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return closedChan()
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// offer delivers without blocking; a full subscriber loses the event.
func (eb *EventBus) offer(ch chan Event, event Event) {
	select {
	case ch <- event:
	default:
		eb.droppedEvents.Add(1)
	}
}

// Publish sends an event to all subscribers. It never blocks the publisher.
// A nil bus is a valid no-op so state can run without a front end.
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		eb.offer(ch, event)
	}
	for _, ch := range eb.all {
		eb.offer(ch, event)
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}
	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range eb.all {
		close(ch)
	}
}

// Unsubscribe removes a subscription channel from a specific event type.
// The channel is closed so a listener loop ends.
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	if subs, ok := removeChan(eb.subscribers[eventType], ch); ok {
		eb.subscribers[eventType] = subs
	}
}

// UnsubscribeAll removes a channel obtained from SubscribeAll.
func (eb *EventBus) UnsubscribeAll(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	if subs, ok := removeChan(eb.all, ch); ok {
		eb.all = subs
	}
}

func removeChan(subs []chan Event, ch <-chan Event) ([]chan Event, bool) {
	for i, sub := range subs {
		if sub == ch {
			close(sub)
			subs[i] = subs[len(subs)-1]
			return subs[:len(subs)-1], true
		}
	}
	return subs, false
}

// DroppedEvents returns the number of events lost to full subscriber buffers.
func (eb *EventBus) DroppedEvents() int64 {
	return eb.droppedEvents.Load()
}

// Listen calls fn for every event on ch until ch closes or ctx is done.
func Listen(ctx context.Context, ch <-chan Event, fn func(Event)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			fn(ev)
		}
	}
}

// PublishSignal is a convenience method for publishing user-visible notifications.
func (eb *EventBus) PublishSignal(kind SignalKind, p models.Provider, op, message string) {
	eb.Publish(&SignalEvent{
		BaseEvent: base(EventSignal),
		Kind:      kind,
		Provider:  p,
		Op:        op,
		Message:   message,
	})
}

// PublishListing publishes a listing replacement.
func (eb *EventBus) PublishListing(p models.Provider, entries []models.FileEntry) {
	eb.Publish(&ListingEvent{BaseEvent: base(EventListing), Provider: p, Entries: entries})
}

// PublishIdentity publishes a connection state change.
func (eb *EventBus) PublishIdentity(p models.Provider, id *models.UserIdentity) {
	eb.Publish(&IdentityEvent{BaseEvent: base(EventIdentity), Provider: p, Identity: id})
}

// PublishOperation publishes a flag transition.
func (eb *EventBus) PublishOperation(p models.Provider, op Operation, active bool) {
	eb.Publish(&OperationEvent{BaseEvent: base(EventOperation), Provider: p, Op: op, Active: active})
}

// PublishSelection publishes the selected file (nil when cleared).
func (eb *EventBus) PublishSelection(f *models.SelectedFile) {
	eb.Publish(&SelectionEvent{BaseEvent: base(EventSelection), File: f})
}

// PublishTab publishes the active tab.
func (eb *EventBus) PublishTab(p models.Provider) {
	eb.Publish(&TabEvent{BaseEvent: base(EventTab), Provider: p})
}

// PublishTransfer publishes transfer progress.
func (eb *EventBus) PublishTransfer(op, name string, current, total int64, done bool, err error) {
	eb.Publish(&TransferEvent{
		BaseEvent:    base(EventTransfer),
		Op:           op,
		Name:         name,
		BytesCurrent: current,
		BytesTotal:   total,
		Done:         done,
		Error:        err,
	})
}
