package events

import (
	"context"
	"log"

	"github.com/nats-io/nats.go"
)

const subjectPrefix = "spotlight."

// NatsPublisher publishes each event on spotlight.<type>
type NatsPublisher struct {
	nc *nats.Conn
}

func NewNatsPublisher(url string) (*NatsPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("spotlight-api"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, err
	}
	log.Println("NATS connected successfully")
	return &NatsPublisher{nc: nc}, nil
}

// Subject returns the NATS subject an event type is published on
func Subject(eventType string) string {
	return subjectPrefix + eventType
}

func (p *NatsPublisher) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(ev)
	if err != nil {
		return err
	}
	return p.nc.Publish(Subject(ev.Type), data)
}

func (p *NatsPublisher) Close() error {
	return p.nc.Drain()
}
