package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nurpe/sales-backoffice/internal/dates"
	"github.com/nurpe/sales-backoffice/internal/model"
	"github.com/nurpe/sales-backoffice/internal/repository"
)

type Publisher interface {
	Publish(ctx context.Context, topic *model.NotificationTopic, title, body string) (int, error)
}

type BirthdayService struct {
	store     *repository.Store
	publisher Publisher
	log       zerolog.Logger
}

func NewBirthdayService(store *repository.Store, publisher Publisher, log zerolog.Logger) *BirthdayService {
	return &BirthdayService{store: store, publisher: publisher, log: log}
}

func (s *BirthdayService) Notify(ctx context.Context, today time.Time) (int, error) {
	today = dates.DateOnly(today)
	topic, err := s.store.Notifications.TopicByName(ctx, model.TopicBirthday)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Error().Str("topic", model.TopicBirthday).Msg("notification topic is not configured")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	members, err := s.store.Parties.ListMembersWithBirthday(ctx, today)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, m := range members {
		body := fmt.Sprintf("%s is %s's birthday.", today.Format("January 2"), m.Name)
		if _, err := s.publisher.Publish(ctx, topic, "Happy birthday!", body); err != nil {
			return count, fmt.Errorf("birthday of %s: %w", m.Code, err)
		}
		count++
	}

	s.log.Info().Int("members", count).Msg("birthdays announced")
	return count, nil
}
