// Package notify is the toast surface: mutating operations publish a title
// and message here, fire-and-forget, and whoever is interested subscribes.
// Notifications are not part of the data model and are never persisted.
package notify

import (
	"log"

	"github.com/asaskevich/EventBus"
)

const TopicToast = "toast:show"

type Notifier struct {
	bus EventBus.Bus
}

func New() *Notifier {
	return &Notifier{bus: EventBus.New()}
}

// Toast publishes a notification. Delivery failures are invisible to the
// caller; the operation that triggered the toast has already completed.
func (n *Notifier) Toast(title string, message string) {
	n.bus.Publish(TopicToast, title, message)
}

// Subscribe registers a handler for toast notifications.
func (n *Notifier) Subscribe(fn func(title string, message string)) error {
	return n.bus.Subscribe(TopicToast, fn)
}

// SubscribeLog attaches a log sink, the default server-side consumer.
func (n *Notifier) SubscribeLog() {
	if err := n.Subscribe(func(title string, message string) {
		log.Printf("[toast] %s: %s", title, message)
	}); err != nil {
		log.Printf("[notify] WARN: failed to attach log sink: %v", err)
	}
}
