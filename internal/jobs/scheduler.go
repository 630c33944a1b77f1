package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/henningsieh/growagram/internal/config"
	"github.com/henningsieh/growagram/internal/repository"
	"github.com/henningsieh/growagram/internal/service"
)

// Scheduler runs periodic maintenance: purging expired sessions and pruning
// read notifications past their retention age.
type Scheduler struct {
	cron          *cron.Cron
	sessions      *repository.SessionRepository
	notifications *service.NotificationService
	cfg           *config.AppConfig
	log           zerolog.Logger
}

func NewScheduler(sessions *repository.SessionRepository, notifications *service.NotificationService, cfg *config.AppConfig, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:          c,
		sessions:      sessions,
		notifications: notifications,
		cfg:           cfg,
		log:           log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 3 * * *", s.purgeSessions); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 30 3 * * *", s.pruneNotifications); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for running jobs to finish, up to a short grace period.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) purgeSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("session purge failed")
		return
	}
	s.log.Info().Int64("deleted", deleted).Msg("expired sessions purged")
}

func (s *Scheduler) pruneNotifications() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := s.notifications.PruneRead(ctx, s.cfg.Retention.ReadNotificationAge)
	if err != nil {
		s.log.Error().Err(err).Msg("notification prune failed")
		return
	}
	s.log.Info().Int64("deleted", deleted).Msg("read notifications pruned")
}
