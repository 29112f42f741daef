// Package notify fans a message out to the subscribers of a topic.
package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/sales-backoffice/internal/model"
	"github.com/nurpe/sales-backoffice/internal/repository"
)

// PushSender delivers a message to the devices of the given users.
type PushSender interface {
	Send(ctx context.Context, userIDs []uuid.UUID, title, body string) error
}

// LogSender only logs the message. It stands in where no push gateway is configured.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, userIDs []uuid.UUID, title, body string) error {
	s.log.Info().
		Int("recipients", len(userIDs)).
		Str("title", title).
		Str("body", body).
		Msg("push notification")
	return nil
}

type Notifier struct {
	store *repository.Store
	push  PushSender
	log   zerolog.Logger
}

func NewNotifier(store *repository.Store, push PushSender, log zerolog.Logger) *Notifier {
	return &Notifier{store: store, push: push, log: log}
}

// Publish stores one notification per subscriber of topic and pushes the
// message. It returns the number of recipients. A failed push is logged and
// does not undo the stored notifications.
func (n *Notifier) Publish(ctx context.Context, topic *model.NotificationTopic, title, body string) (int, error) {
	userIDs, err := n.store.Notifications.SubscriberIDs(ctx, topic.ID)
	if err != nil {
		return 0, err
	}
	if len(userIDs) == 0 {
		n.log.Debug().Str("topic", topic.Name).Msg("topic has no subscribers")
		return 0, nil
	}

	notifications := make([]model.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		notifications = append(notifications, model.Notification{
			UserID: id,
			Topic:  topic.Name,
			Title:  title,
			Body:   body,
		})
	}
	if err := n.store.Notifications.Create(ctx, notifications); err != nil {
		return 0, err
	}

	if err := n.push.Send(ctx, userIDs, title, body); err != nil {
		n.log.Error().Err(err).Str("topic", topic.Name).Msg("push delivery failed")
	}
	return len(userIDs), nil
}
