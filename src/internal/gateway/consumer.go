package gateway

import (
	"context"
	"encoding/json"
	"time"

	"ninja-presence-svc/src/clients"
	"ninja-presence-svc/src/internal/config"
	"ninja-presence-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// Consumer drains the inbound message queue and feeds the handler. Messages
// from the platform arrive in per-user order on a single queue, matching
// the delivery guarantees the tracker assumes.
type Consumer struct {
	rabbit  *clients.RabbitMQ
	handler *Handler
	cfg     *config.RabbitMQConfig
	timeout time.Duration
	done    chan struct{}
}

func NewConsumer(rabbit *clients.RabbitMQ, handler *Handler, cfg *config.Configuration) *Consumer {
	return &Consumer{
		rabbit:  rabbit,
		handler: handler,
		cfg:     &cfg.Queue.RabbitMQ,
		timeout: time.Duration(cfg.App.Timeout) * time.Second,
		done:    make(chan struct{}),
	}
}

func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.rabbit.Channel.Consume(
		c.cfg.MessageQueue,
		c.cfg.Consumer,
		c.cfg.AutoAck,
		c.cfg.Exclusive,
		c.cfg.NoLocal,
		c.cfg.NoWait,
		nil,
	)
	if err != nil {
		logrus.WithError(err).Error("Failed to start consuming message queue")
		return models.ErrQueueConsume
	}

	logrus.WithField("queue", c.cfg.MessageQueue).Info("Consuming inbound messages")

	go c.run(ctx, deliveries)
	return nil
}

// Done is closed once the delivery loop has drained.
func (c *Consumer) Done() <-chan struct{} {
	return c.done
}

func (c *Consumer) run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Message consumer stopping")
			return
		case delivery, ok := <-deliveries:
			if !ok {
				logrus.Warn("Delivery channel closed")
				return
			}
			c.dispatch(ctx, delivery)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, delivery amqp.Delivery) {
	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var err error
	switch delivery.RoutingKey {
	case c.cfg.SetAwayKey:
		var req models.SetAwayRequest
		if err = json.Unmarshal(delivery.Body, &req); err == nil {
			err = c.handler.HandleSetAway(opCtx, req)
		}
	default:
		var msg models.InboundMessage
		if err = json.Unmarshal(delivery.Body, &msg); err == nil {
			err = c.handler.HandleMessage(opCtx, msg)
		}
	}

	if err != nil {
		logrus.WithError(err).WithField("routing_key", delivery.RoutingKey).Error("Failed to process delivery")
		if !c.cfg.AutoAck {
			if nackErr := delivery.Nack(false, false); nackErr != nil {
				logrus.WithError(nackErr).Error("Failed to nack delivery")
			}
		}
		return
	}

	if !c.cfg.AutoAck {
		if ackErr := delivery.Ack(false); ackErr != nil {
			logrus.WithError(ackErr).Error("Failed to ack delivery")
		}
	}
}
