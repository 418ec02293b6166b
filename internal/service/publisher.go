package service

import "github.com/KrushnaHarde/ChatNexus/internal/event"

// Publisher fans an event out to the live subscribers of a topic. Publishing
// is fire-and-forget: a topic with no subscribers is not an error, and no
// publish failure ever reaches the write path. Services publish only after
// the corresponding store write has completed.
type Publisher interface {
	Publish(topic string, ev event.Outbound)
}

// NopPublisher discards every event. Used where no live-connection layer is
// attached.
type NopPublisher struct{}

func (NopPublisher) Publish(string, event.Outbound) {}
