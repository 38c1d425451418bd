// Package events publishes domain events for other systems to consume.
package events

import (
	"context"
	"time"
)

const (
	ExchangeName           = "projectflow.events"
	RoutingProgressChanged = "project.progress_changed"
)

// ProgressChanged is emitted whenever a mutation moves a project's stored
// progress value.
type ProgressChanged struct {
	ProjectID uint      `json:"projectId"`
	Project   string    `json:"project"`
	From      int       `json:"from"`
	To        int       `json:"to"`
	Actor     string    `json:"actor,omitempty"`
	At        time.Time `json:"at"`
}

type Publisher interface {
	PublishProgressChanged(ctx context.Context, ev ProgressChanged) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishProgressChanged(context.Context, ProgressChanged) error { return nil }

func (NopPublisher) Close() error { return nil }
