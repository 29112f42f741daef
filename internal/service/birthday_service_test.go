package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/sales-backoffice/internal/dates"
	"github.com/nurpe/sales-backoffice/internal/model"
	"github.com/nurpe/sales-backoffice/internal/notify"
)

type recordingSender struct {
	titles []string
	bodies []string
}

func (s *recordingSender) Send(_ context.Context, _ []uuid.UUID, title, body string) error {
	s.titles = append(s.titles, title)
	s.bodies = append(s.bodies, body)
	return nil
}

func TestBirthday_MissingTopicIsNotAnError(t *testing.T) {
	f := newFixture(t)
	svc := NewBirthdayService(f.store, notify.NewNotifier(f.store, &recordingSender{}, zerolog.Nop()), zerolog.Nop())

	count, err := svc.Notify(f.ctx, dates.New(2020, time.August, 15))
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestBirthday_NotifiesSubscribers(t *testing.T) {
	f := newFixture(t)
	sender := &recordingSender{}
	svc := NewBirthdayService(f.store, notify.NewNotifier(f.store, sender, zerolog.Nop()), zerolog.Nop())

	topic := &model.NotificationTopic{Name: model.TopicBirthday}
	f.create(topic)
	alice, bob := uuid.New(), uuid.New()
	f.create(&model.NotificationSubscription{TopicID: topic.ID, UserID: alice})
	f.create(&model.NotificationSubscription{TopicID: topic.ID, UserID: bob})

	born := dates.New(1990, time.August, 15)
	active := &model.Member{Code: "M001", Name: "Sato", Birthday: &born}
	f.create(active)
	f.employment(active, dates.New(2020, time.January, 1), dates.New(2020, time.December, 31))

	retired := &model.Member{Code: "M002", Name: "Suzuki", Birthday: &born}
	f.create(retired)
	f.employment(retired, dates.New(2019, time.January, 1), dates.New(2020, time.March, 31))

	otherDay := dates.New(1991, time.August, 16)
	notToday := &model.Member{Code: "M003", Name: "Tanaka", Birthday: &otherDay}
	f.create(notToday)
	f.employment(notToday, dates.New(2020, time.January, 1), dates.New(2020, time.December, 31))

	count, err := svc.Notify(f.ctx, dates.New(2020, time.August, 15))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, sender.bodies, 1)
	assert.Equal(t, "August 15 is Sato's birthday.", sender.bodies[0])

	for _, user := range []uuid.UUID{alice, bob} {
		notifications, err := f.store.Notifications.ListForUser(f.ctx, user)
		require.NoError(t, err)
		require.Len(t, notifications, 1)
		assert.Equal(t, model.TopicBirthday, notifications[0].Topic)
	}
}

func TestBirthday_LeapDayMembersOnCommonYears(t *testing.T) {
	f := newFixture(t)
	sender := &recordingSender{}
	svc := NewBirthdayService(f.store, notify.NewNotifier(f.store, sender, zerolog.Nop()), zerolog.Nop())

	topic := &model.NotificationTopic{Name: model.TopicBirthday}
	f.create(topic)
	f.create(&model.NotificationSubscription{TopicID: topic.ID, UserID: uuid.New()})

	leapDay := dates.New(1992, time.February, 29)
	leap := &model.Member{Code: "M001", Name: "Sato", Birthday: &leapDay}
	f.create(leap)
	f.employment(leap, dates.New(2020, time.January, 1), dates.New(2021, time.December, 31))

	feb28 := dates.New(1990, time.February, 28)
	plain := &model.Member{Code: "M002", Name: "Suzuki", Birthday: &feb28}
	f.create(plain)
	f.employment(plain, dates.New(2020, time.January, 1), dates.New(2021, time.December, 31))

	count, err := svc.Notify(f.ctx, dates.New(2021, time.February, 28))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = svc.Notify(f.ctx, dates.New(2020, time.February, 28))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = svc.Notify(f.ctx, dates.New(2020, time.February, 29))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.Len(t, sender.bodies, 4)
	assert.Equal(t, "February 28 is Sato's birthday.", sender.bodies[0])
	assert.Equal(t, "February 28 is Suzuki's birthday.", sender.bodies[1])
	assert.Equal(t, "February 28 is Suzuki's birthday.", sender.bodies[2])
	assert.Equal(t, "February 29 is Sato's birthday.", sender.bodies[3])
}
