package catalog

import (
	"context"
	"time"
)

// EventType names a catalog event.
type EventType string

// Catalog events.
const (
	QuerySaved    EventType = "query:saved"
	QueryDeleted  EventType = "query:deleted"
	QueryCompiled EventType = "query:compiled"
	QueryRejected EventType = "query:rejected"
)

// Event is emitted after a catalog operation.
type Event struct {
	Type      EventType     `json:"type"`
	Name      string        `json:"name"`
	Strategy  string        `json:"strategy,omitempty"`
	Query     string        `json:"query,omitempty"`
	Error     *string       `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
}

// EventCallbackFunction handles a catalog event.
type EventCallbackFunction func(ctx context.Context, event Event) error

// RegisterSubscriptionOptions describes a subscription to one event type.
type RegisterSubscriptionOptions struct {
	Event       EventType
	Label       *string
	Description *string
	Callback    EventCallbackFunction
}

// SubscriptionInfo describes a registered subscription.
type SubscriptionInfo struct {
	ID          string    `json:"id"`
	Event       EventType `json:"event"`
	Label       *string   `json:"label,omitempty"`
	Description *string   `json:"description,omitempty"`
	Unsubscribe func()    `json:"-"`
}

// emit publishes an event on the catalog bus.
func (c *Catalog) emit(event Event) {
	if c.bus == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	c.bus.Emit(string(event.Type), event)
}

// RegisterSubscription registers a callback for an event type and returns the
// subscription ID.
func (c *Catalog) RegisterSubscription(options RegisterSubscriptionOptions) string {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	unsubscribe := c.bus.Subscribe(string(options.Event), options.Callback)
	id := newID()

	c.subscriptions[id] = &SubscriptionInfo{
		ID:          id,
		Event:       options.Event,
		Label:       options.Label,
		Description: options.Description,
		Unsubscribe: unsubscribe,
	}
	return id
}

// UnregisterSubscription removes a subscription. Unknown IDs are ignored.
func (c *Catalog) UnregisterSubscription(id string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	info := c.subscriptions[id]
	if info != nil {
		info.Unsubscribe()
		delete(c.subscriptions, id)
	}
}

// Subscriptions returns the registered subscriptions.
func (c *Catalog) Subscriptions() []SubscriptionInfo {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	out := make([]SubscriptionInfo, 0, len(c.subscriptions))
	for _, info := range c.subscriptions {
		out = append(out, *info)
	}
	return out
}
