package gateway

import (
	"context"
	"errors"
	"time"

	"ninja-presence-svc/src/internal/afk"
	"ninja-presence-svc/src/internal/blacklist"
	"ninja-presence-svc/src/internal/counter"
	"ninja-presence-svc/src/internal/events"
	"ninja-presence-svc/src/internal/models"

	"github.com/sirupsen/logrus"
)

// Handler is the message-handling entry point. Every inbound message runs
// the return check first, then the mention scan, then the counter. It does
// no command parsing and no formatting.
type Handler struct {
	tracker   afk.Tracker
	blacklist blacklist.Repository
	buffer    *counter.WriteBuffer
	publisher events.Publisher
}

func NewHandler(tracker afk.Tracker, bl blacklist.Repository, buffer *counter.WriteBuffer, publisher events.Publisher) *Handler {
	return &Handler{
		tracker:   tracker,
		blacklist: bl,
		buffer:    buffer,
		publisher: publisher,
	}
}

func (h *Handler) HandleMessage(ctx context.Context, msg models.InboundMessage) error {
	if msg.UserID == "" {
		logrus.WithField("message_id", msg.MessageID).Warn("Dropping message without user id")
		return nil
	}

	blacklisted, err := h.blacklist.IsBlacklisted(ctx, msg.UserID)
	if err != nil {
		// Fail open: a blacklist outage must not silence chat processing.
		logrus.WithError(err).WithField("user_id", msg.UserID).Warn("Blacklist check failed, continuing")
	}
	if blacklisted {
		return nil
	}

	// Return check runs before everything else, so returning from away is
	// acknowledged even when the message is itself a command.
	ret, err := h.tracker.CheckReturn(ctx, msg.UserID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", msg.UserID).Error("Return check failed")
	}
	if ret != nil {
		h.publish(models.PresenceEvent{
			Kind:       models.KindAfkClosed,
			UserID:     msg.UserID,
			ChannelID:  msg.ChannelID,
			Reason:     ret.Reason,
			DurationMs: ret.Duration.Milliseconds(),
			Duration:   afk.FormatDuration(ret.Duration),
		})
	}

	for _, mentionID := range msg.MentionIDs {
		if mentionID == msg.UserID {
			continue
		}
		status, err := h.tracker.QueryStatus(ctx, mentionID)
		if err != nil || status == nil {
			continue
		}
		h.publish(models.PresenceEvent{
			Kind:       models.KindAfkStatus,
			UserID:     mentionID,
			ChannelID:  msg.ChannelID,
			Reason:     status.Reason,
			Since:      status.Since,
			DurationMs: status.Elapsed().Milliseconds(),
			Duration:   afk.FormatDuration(status.Elapsed()),
		})
	}

	h.buffer.Add(msg.UserID)
	return nil
}

func (h *Handler) HandleSetAway(ctx context.Context, req models.SetAwayRequest) error {
	err := h.tracker.MarkAway(ctx, req.UserID, req.Reason)
	switch {
	case err == nil:
		h.publish(models.PresenceEvent{
			Kind:      models.KindAfkOpened,
			UserID:    req.UserID,
			ChannelID: req.ChannelID,
			Reason:    req.Reason,
			Since:     time.Now().UTC(),
		})
	case errors.Is(err, models.ErrAlreadyAway):
		h.publish(models.PresenceEvent{
			Kind:      models.KindAfkAlready,
			UserID:    req.UserID,
			ChannelID: req.ChannelID,
		})
	case errors.Is(err, models.ErrInvalidUserID):
		logrus.WithField("channel_id", req.ChannelID).Warn("Dropping away request without user id")
	default:
		logrus.WithError(err).WithField("user_id", req.UserID).Error("Failed to mark user away")
		h.publish(models.PresenceEvent{
			Kind:      models.KindAfkFailed,
			UserID:    req.UserID,
			ChannelID: req.ChannelID,
		})
	}
	return nil
}

func (h *Handler) publish(event models.PresenceEvent) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.PublishPresence(event); err != nil {
		logrus.WithError(err).WithField("kind", event.Kind).Warn("Presence event dropped")
	}
}
