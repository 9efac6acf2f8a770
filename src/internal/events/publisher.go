package events

import (
	"encoding/json"
	"time"

	"ninja-presence-svc/src/internal/config"
	"ninja-presence-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// Publisher emits presence lifecycle events for the presentation
// collaborator and reconciliation items for offline repair.
type Publisher interface {
	PublishPresence(event models.PresenceEvent) error
	ReportAccrualFailure(userID string, duration time.Duration, reason string)
}

type publisher struct {
	channel *amqp.Channel
	cfg     *config.RabbitMQConfig
}

func NewPublisher(channel *amqp.Channel, cfg *config.Configuration) Publisher {
	return &publisher{
		channel: channel,
		cfg:     &cfg.Queue.RabbitMQ,
	}
}

func (p *publisher) PublishPresence(event models.PresenceEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	body, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal presence event")
		return models.ErrQueuePublish
	}

	err = p.channel.Publish(
		p.cfg.Exchange,
		p.cfg.PresenceKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"kind":    event.Kind,
			"user_id": event.UserID,
		}).Error("Failed to publish presence event")
		return models.ErrQueuePublish
	}

	logrus.WithFields(logrus.Fields{
		"kind":        event.Kind,
		"user_id":     event.UserID,
		"exchange":    p.cfg.Exchange,
		"routing_key": p.cfg.PresenceKey,
	}).Debug("Presence event published")

	return nil
}

// ReportAccrualFailure publishes a reconciliation item for an away duration
// that could not be written to the store. The tracker has already logged it,
// so the log remains the fallback ledger if publishing fails too.
func (p *publisher) ReportAccrualFailure(userID string, duration time.Duration, reason string) {
	event := models.PresenceEvent{
		Kind:       models.KindAfkReconcile,
		UserID:     userID,
		Reason:     reason,
		DurationMs: duration.Milliseconds(),
		Timestamp:  time.Now(),
	}

	if err := p.PublishPresence(event); err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id":     userID,
			"duration_ms": duration.Milliseconds(),
		}).Error("Reconciliation event lost, repair from logs")
	}
}
