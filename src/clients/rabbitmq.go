package clients

import (
	"fmt"

	"ninja-presence-svc/src/internal/config"

	"github.com/streadway/amqp"
)

type RabbitMQ struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
	cfg     *config.QueueConfig
}

func NewRabbitMQ(cfg *config.QueueConfig) (*RabbitMQ, error) {
	log.WithField("url", "url:"+cfg.RabbitMQ.Url).Info("Connecting to RabbitMQ...")
	conn, err := amqp.Dial(cfg.RabbitMQ.Url)
	if err != nil {
		log.WithError(err).Errorf("Failed to connect to RabbitMQ: %v", err)
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		log.WithError(err).Errorf("Failed to open a channel: %v", err)
		return nil, err
	}

	log.Infof("Connected to RabbitMQ at %s", cfg.RabbitMQ.Url)

	return &RabbitMQ{
		Conn:    conn,
		Channel: channel,
		cfg:     cfg,
	}, nil
}

func (r *RabbitMQ) Close() error {
	if r.Channel != nil {
		if err := r.Channel.Close(); err != nil {
			log.WithError(err).Error("Failed to close RabbitMQ channel")
			return err
		}
		log.Info("RabbitMQ channel closed")
	}

	if r.Conn != nil {
		if err := r.Conn.Close(); err != nil {
			log.WithError(err).Error("Failed to close RabbitMQ connection")
			return err
		}
		log.Info("RabbitMQ connection closed")
	}

	return nil
}

// SetupQueue declares the events exchange and the inbound message queue,
// binding the queue to the gateway routing key.
func (r *RabbitMQ) SetupQueue() error {
	mq := &r.cfg.RabbitMQ

	err := r.Channel.ExchangeDeclare(
		mq.Exchange,
		mq.ExchangeType,
		mq.Durable,
		mq.AutoDelete,
		mq.Internal,
		mq.NoWait,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %v", err)
	}

	_, err = r.Channel.QueueDeclare(
		mq.MessageQueue,
		mq.Durable,
		mq.AutoDelete,
		mq.Exclusive,
		mq.NoWait,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare message queue: %v", err)
	}

	for _, key := range []string{mq.MessageKey, mq.SetAwayKey} {
		err = r.Channel.QueueBind(
			mq.MessageQueue,
			key,
			mq.Exchange,
			mq.NoWait,
			nil,
		)
		if err != nil {
			return fmt.Errorf("failed to bind message queue: %v", err)
		}
	}

	if err := r.Channel.Qos(mq.PrefetchCount, mq.PrefetchSize, mq.Global); err != nil {
		return fmt.Errorf("failed to set channel QoS: %v", err)
	}

	return nil
}
