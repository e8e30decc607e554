// Package services содержит планировщик уведомлений об окончании подписки.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/chapter-library/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/chapter-library/internal/lib/sl"
	"github.com/magabrotheeeer/chapter-library/internal/models"
)

type SubscriptionRepository interface {
	FindSubscriptionExpiringTomorrow(ctx context.Context) ([]*models.ExpiringSubscription, error)
}

type SchedulerService struct {
	repo     SubscriptionRepository
	interval time.Duration
	log      *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo SubscriptionRepository, interval time.Duration, log *slog.Logger) *SchedulerService {
	if interval <= 0 {
		interval = 12 * time.Hour
	}
	return &SchedulerService{
		repo:     repo,
		interval: interval,
		log:      log,
	}
}

// FindExpiringSubscriptionsDueTomorrow сразу и затем раз в interval публикует
// уведомления о подписках, которые заканчиваются завтра. Возвращается при отмене ctx.
func (s *SchedulerService) FindExpiringSubscriptionsDueTomorrow(ctx context.Context, channel rabbitmq.Publisher) {
	s.runFindExpiringSubscriptionsDueTomorrow(ctx, channel)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.runFindExpiringSubscriptionsDueTomorrow(ctx, channel)
		}
	}
}

func (s *SchedulerService) runFindExpiringSubscriptionsDueTomorrow(ctx context.Context, channel rabbitmq.Publisher) int {
	s.log.Info("starting service to find expiring subscriptions due tomorrow")
	expiring, err := s.repo.FindSubscriptionExpiringTomorrow(ctx)
	if err != nil {
		s.log.Error("failed to find expiring subscriptions", sl.Err(err))
		return 0
	}
	if len(expiring) == 0 {
		s.log.Info("no expiring subscriptions found")
		return 0
	}
	s.log.Info("found expiring subscriptions", slog.Int("count", len(expiring)))
	published := 0
	for _, sub := range expiring {
		err = rabbitmq.PublishNotification(channel, rabbitmq.RoutingUpcoming, sub)
		if err != nil {
			s.log.Error("failed to publish message", slog.String("username", sub.Username), sl.Err(err))
			continue
		}
		published++
	}
	return published
}
