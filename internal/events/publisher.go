// Package events publishes finished match summaries to a message broker
package events

import (
	"context"
	"encoding/json"
	"time"

	"jitsus/internal/game"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

// SubjectMatchFinished carries one JSON game.Summary per finished match.
const SubjectMatchFinished = "jitsus.match.finished"

// Publisher receives the summary of every finished match.
type Publisher interface {
	Publish(ctx context.Context, summary game.Summary) error
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) Publish(context.Context, game.Summary) error { return nil }
func (Nop) Close() error                                { return nil }

// conn is the subset of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher sends summaries to a NATS subject.
type NATSPublisher struct {
	nc      conn
	subject string
}

// Connect dials the broker at url.
func Connect(url string) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("jitsus-server"),
		nats.Timeout(10 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(5),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "connect to broker %s failed", url)
	}
	return newNATSPublisher(nc), nil
}

func newNATSPublisher(nc conn) *NATSPublisher {
	return &NATSPublisher{nc: nc, subject: SubjectMatchFinished}
}

func (p *NATSPublisher) Publish(ctx context.Context, summary game.Summary) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "publish cancelled")
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return errors.Wrap(err, "marshal summary failed")
	}
	return errors.Wrap(p.nc.Publish(p.subject, data), "publish summary failed")
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return errors.Wrap(p.nc.Drain(), "drain broker connection failed")
}
