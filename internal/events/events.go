// Package events publishes collection lifecycle notifications over NATS
// JetStream so downstream stages (re-indexers, cache invalidation) hear
// about changes without polling the metadata store. Publishing is best
// effort; the orchestrator never fails an operation over a lost event.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Config holds the eventing settings.
type Config struct {
	// Enabled turns lifecycle event publishing on.
	Enabled bool `yaml:"enabled"`
	// URL is the NATS server address.
	URL string `yaml:"url"`
}

// DefaultConfig returns the default eventing settings: disabled, pointing
// at a local NATS server.
func DefaultConfig() Config {
	return Config{URL: nats.DefaultURL}
}

// Subjects emitted after successful persistence.
const (
	SubjectCreated = "collections.created"
	SubjectUpdated = "collections.updated"
	SubjectDeleted = "collections.deleted"
)

// StreamName is the JetStream stream holding collection events.
const StreamName = "COLLECTIONS"

// CollectionEvent is the wire payload for every lifecycle subject. Files is
// the manifest after the operation; empty on deletion.
type CollectionEvent struct {
	RecordID   int64    `json:"record_id"`
	Identifier string   `json:"identifier"`
	Files      []string `json:"files,omitempty"`
}

// Publisher emits lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, subject string, event CollectionEvent) error
	Close() error
}

// jetStream is the narrow slice of the JetStream API the publisher needs,
// kept small so tests can fake it.
type jetStream interface {
	CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// JetStreamPublisher publishes events to a NATS JetStream stream.
type JetStreamPublisher struct {
	js jetStream
	nc *nats.Conn
}

// Connect dials NATS, initializes JetStream and ensures the collections
// stream exists.
func Connect(ctx context.Context, url string) (*JetStreamPublisher, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("init jetstream: %w", err)
	}
	p, err := newJetStreamPublisher(ctx, js)
	if err != nil {
		nc.Close()
		return nil, err
	}
	p.nc = nc
	return p, nil
}

func newJetStreamPublisher(ctx context.Context, js jetStream) (*JetStreamPublisher, error) {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{"collections.>"},
		Storage:  jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure stream %s: %w", StreamName, err)
	}
	return &JetStreamPublisher{js: js}, nil
}

// Publish marshals the event and publishes it to subject.
func (p *JetStreamPublisher) Publish(ctx context.Context, subject string, event CollectionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event for %s: %w", subject, err)
	}
	if _, err := p.js.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

// Close drains the underlying NATS connection.
func (p *JetStreamPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}

// NopPublisher drops every event, for configurations with eventing disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, CollectionEvent) error { return nil }
func (NopPublisher) Close() error                                          { return nil }
