// Package dispatch fans bucket work out to update workers over NATS.
// One message per bucket per cycle; workers ack only after the run
// finished, so an interrupted run is redelivered.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// BucketMessage announces one bucket of work for the current cycle.
type BucketMessage struct {
	Bucket   int `json:"bucket"`
	Priority int `json:"priority"`
	Consumer int `json:"consumer"`
	Items    int `json:"items"`
}

// Publisher announces buckets to workers.
type Publisher interface {
	PublishBucket(ctx context.Context, msg BucketMessage) error
}

// NatsDispatcher implements Publisher and the worker-side subscription
// on a JetStream work queue.
type NatsDispatcher struct {
	js      nats.JetStreamContext
	subject string
	durable string
}

// NewNatsDispatcher connects the dispatcher to a JetStream work queue,
// creating the stream when it does not exist yet.
func NewNatsDispatcher(nc *nats.Conn, stream, subject, durable string) (*NatsDispatcher, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:      stream,
		Subjects:  []string{subject},
		Retention: nats.WorkQueuePolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	})
	if err != nil && err != nats.ErrStreamNameAlreadyInUse {
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	return &NatsDispatcher{js: js, subject: subject, durable: durable}, nil
}

// PublishBucket announces one bucket of work.
func (d *NatsDispatcher) PublishBucket(ctx context.Context, msg BucketMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal bucket message: %w", err)
	}

	if _, err := d.js.Publish(d.subject, data); err != nil {
		return fmt.Errorf("failed to publish bucket %d: %w", msg.Bucket, err)
	}
	return nil
}

// Subscribe consumes bucket messages with manual acks. The handler's
// error nacks the message for redelivery.
func (d *NatsDispatcher) Subscribe(maxPending int, handle func(BucketMessage) error) (*nats.Subscription, error) {
	return d.js.Subscribe(d.subject, func(msg *nats.Msg) {
		var bucket BucketMessage
		if err := json.Unmarshal(msg.Data, &bucket); err != nil {
			log.Printf("[Dispatch] Failed to unmarshal bucket message: %v", err)
			msg.Nak()
			return
		}

		if err := handle(bucket); err != nil {
			log.Printf("[Dispatch] Bucket %d failed: %v", bucket.Bucket, err)
			msg.Nak()
			return
		}
		msg.Ack()
	},
		nats.Durable(d.durable),
		nats.ManualAck(),
		nats.MaxAckPending(maxPending),
	)
}

// Ensure NatsDispatcher implements Publisher
var _ Publisher = (*NatsDispatcher)(nil)
