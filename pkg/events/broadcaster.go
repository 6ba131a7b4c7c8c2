package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/modelpilot-ai/platform/pkg/common/logger"
	"github.com/modelpilot-ai/platform/pkg/common/models"
)

// Sink receives every event the broadcaster publishes, in addition to the
// per-project subscribers. The kafka mirror implements this.
type Sink interface {
	Publish(event models.PipelineEvent)
}

// Subscription is one live listener on a project's event stream.
type Subscription struct {
	ID        string
	ProjectID string
	C         <-chan models.PipelineEvent
	ch        chan models.PipelineEvent
}

// Broadcaster fans pipeline events out to zero or more subscribers per
// project. Delivery is best-effort: a subscriber whose buffer is full is
// dropped rather than ever stalling stage advancement.
type Broadcaster struct {
	mu         sync.RWMutex
	subs       map[string]map[string]*Subscription
	bufferSize int
	sinks      []Sink
}

func NewBroadcaster(bufferSize int, sinks ...Sink) *Broadcaster {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Broadcaster{
		subs:       map[string]map[string]*Subscription{},
		bufferSize: bufferSize,
		sinks:      sinks,
	}
}

// Subscribe registers interest in one project id.
func (b *Broadcaster) Subscribe(projectID string) *Subscription {
	sub := &Subscription{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		ch:        make(chan models.PipelineEvent, b.bufferSize),
	}
	sub.C = sub.ch

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[projectID] == nil {
		b.subs[projectID] = map[string]*Subscription{}
	}
	b.subs[projectID][sub.ID] = sub
	return sub
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(sub)
}

func (b *Broadcaster) removeLocked(sub *Subscription) {
	projectSubs, ok := b.subs[sub.ProjectID]
	if !ok {
		return
	}
	if _, ok := projectSubs[sub.ID]; !ok {
		return
	}
	delete(projectSubs, sub.ID)
	if len(projectSubs) == 0 {
		delete(b.subs, sub.ProjectID)
	}
	close(sub.ch)
}

// Publish delivers an event to every subscriber of its project and to every
// sink. A full subscriber buffer drops that subscriber.
func (b *Broadcaster) Publish(eventType, projectID string, payload map[string]interface{}) models.PipelineEvent {
	event := models.PipelineEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		ProjectID: projectID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	b.Deliver(event)
	for _, sink := range b.sinks {
		sink.Publish(event)
	}
	return event
}

// Deliver fans out an already-built event to local subscribers only. The
// kafka bridge uses this to re-inject mirrored events without looping them
// back to the bus.
func (b *Broadcaster) Deliver(event models.PipelineEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var dropped []*Subscription
	for _, sub := range b.subs[event.ProjectID] {
		select {
		case sub.ch <- event:
		default:
			dropped = append(dropped, sub)
		}
	}
	for _, sub := range dropped {
		logger.Log.WithFields(map[string]interface{}{
			"project_id":    event.ProjectID,
			"subscriber_id": sub.ID,
		}).Warn("Dropping slow event subscriber")
		b.removeLocked(sub)
	}
}

// SubscriberCount reports the live subscriber count for one project.
func (b *Broadcaster) SubscriberCount(projectID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[projectID])
}
