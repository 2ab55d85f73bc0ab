// Package eventbus is the broadcast sink for change notifications. Events
// fan out in process through a watermill gochannel and, when a NATS URL is
// configured, are bridged to NATS subjects for external consumers.
package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	nc "github.com/nats-io/nats.go"

	"github.com/abacus-tab/abacus/pkg/observability"
	"github.com/abacus-tab/abacus/pkg/observability/attr"
)

const (
	// LocalTopic is the in-process topic every event is published on.
	LocalTopic = "abacus.events"
	// SubjectPrefix prefixes bridged NATS subjects.
	SubjectPrefix = "abacus.events"

	DefaultCapacity = 1000
)

// Sink accepts events for best-effort delivery. Publish never blocks on
// consumers and never fails the caller.
type Sink interface {
	Publish(ctx context.Context, events ...Event)
}

// EventBus is a bounded fan-out. Events are queued and delivered by a
// single goroutine; when the queue is full new events are dropped and
// logged.
type EventBus struct {
	local   *gochannel.GoChannel
	remote  message.Publisher
	queue   chan Event
	logger  *slog.Logger
	metrics observability.Metrics

	closeOnce sync.Once
	done      chan struct{}
}

// Options configures New.
type Options struct {
	Capacity int
	// Remote receives a copy of every event when set.
	Remote  message.Publisher
	Metrics observability.Metrics
}

// New starts an event bus.
func New(logger *slog.Logger, opts Options) *EventBus {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	eb := &EventBus{
		local: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: int64(opts.Capacity),
			Persistent:          false,
		}, watermill.NewSlogLogger(logger)),
		remote:  opts.Remote,
		queue:   make(chan Event, opts.Capacity),
		logger:  logger,
		metrics: opts.Metrics,
		done:    make(chan struct{}),
	}
	go eb.run()
	return eb
}

// NewNATSPublisher connects a watermill publisher to NATS core subjects.
func NewNATSPublisher(url string, logger *slog.Logger) (message.Publisher, error) {
	pub, err := nats.NewPublisher(
		nats.PublisherConfig{
			URL:       url,
			Marshaler: &nats.NATSMarshaler{},
			NatsOptions: []nc.Option{
				nc.Name(observability.ServiceName),
				nc.RetryOnFailedConnect(true),
			},
			JetStream: nats.JetStreamConfig{Disabled: true},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}
	return pub, nil
}

// Publish queues events. Events beyond capacity are dropped.
func (eb *EventBus) Publish(ctx context.Context, events ...Event) {
	for _, e := range events {
		select {
		case <-eb.done:
			eb.logger.WarnContext(ctx, "Event bus closed, dropping event",
				attr.String("kind", string(e.Kind)),
				attr.ExtractCorrelationID(ctx),
			)
			return
		default:
		}
		select {
		case eb.queue <- e:
		default:
			eb.logger.WarnContext(ctx, "Event queue full, dropping event",
				attr.String("kind", string(e.Kind)),
				attr.TournamentID(e.TournamentID),
				attr.ExtractCorrelationID(ctx),
			)
			if eb.metrics != nil {
				eb.metrics.RecordOperationFailure(ctx, "Publish", "EventBus")
			}
		}
	}
}

// Subscribe returns the decoded stream of local events. The channel closes
// when ctx is done or the bus is closed.
func (eb *EventBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	msgs, err := eb.local.Subscribe(ctx, LocalTopic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", LocalTopic, err)
	}
	out := make(chan Event)
	go func() {
		defer close(out)
		for msg := range msgs {
			e, err := Decode(msg)
			msg.Ack()
			if err != nil {
				eb.logger.Error("Dropping undecodable event", attr.Error(err))
				continue
			}
			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (eb *EventBus) run() {
	for {
		select {
		case <-eb.done:
			return
		case e := <-eb.queue:
			eb.deliver(e)
		}
	}
}

func (eb *EventBus) deliver(e Event) {
	ctx := context.Background()
	msg, err := e.toMessage()
	if err != nil {
		eb.logger.Error("Failed to encode event", attr.Error(err))
		return
	}
	if err := eb.local.Publish(LocalTopic, msg); err != nil {
		eb.logger.Error("Failed to publish event locally",
			attr.String("kind", string(e.Kind)),
			attr.Error(err),
		)
	}
	if eb.remote != nil {
		if err := eb.remote.Publish(e.Subject(), msg.Copy()); err != nil {
			eb.logger.Error("Failed to bridge event to NATS",
				attr.String("subject", e.Subject()),
				attr.Error(err),
			)
			if eb.metrics != nil {
				eb.metrics.RecordOperationFailure(ctx, "Bridge", "EventBus")
			}
			return
		}
	}
	if eb.metrics != nil {
		eb.metrics.RecordOperationSuccess(ctx, "Publish", "EventBus")
	}
	eb.logger.Debug("Event published",
		attr.String("kind", string(e.Kind)),
		attr.TournamentID(e.TournamentID),
		attr.RoundID(e.RoundID),
	)
}

// Close stops delivery. Queued events not yet delivered are dropped.
func (eb *EventBus) Close() error {
	var err error
	eb.closeOnce.Do(func() {
		close(eb.done)
		if cerr := eb.local.Close(); cerr != nil {
			err = cerr
		}
		if eb.remote != nil {
			if cerr := eb.remote.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	})
	return err
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, ...Event) {}
