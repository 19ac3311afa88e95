package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/busvote/internal/core/domain"
	"github.com/vncsmyrnk/busvote/internal/core/ports"
	"github.com/vncsmyrnk/busvote/internal/metrics"
)

type sweepService struct {
	topics ports.TopicRepository
	log    *slog.Logger
	now    func() time.Time
}

func NewSweepService(topics ports.TopicRepository, log *slog.Logger) ports.SweepService {
	return &sweepService{
		topics: topics,
		log:    log,
		now:    time.Now,
	}
}

func (s *sweepService) CompleteExpired(ctx context.Context) (int, error) {
	topics, err := s.topics.ListExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to fetch expired topics: %w", err)
	}

	var (
		wg        sync.WaitGroup
		completed atomic.Int64
	)
	errChan := make(chan error, len(topics))

	for _, topic := range topics {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			err := s.topics.Transition(ctx, id, domain.TopicCompleted, ports.TopicChange{})
			if errors.Is(err, domain.ErrInvalidTransition) {
				// a coordinator decided it in the meantime
				return
			}
			if err != nil {
				errChan <- fmt.Errorf("failed to complete topic %s: %w", id, err)
				return
			}
			completed.Add(1)
			metrics.Transitions.WithLabelValues(string(domain.TopicCompleted)).Inc()
			s.log.Info("topic completed", slog.String("topic_id", id.String()))
		}(topic.ID)
	}

	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}

	return int(completed.Load()), errors.Join(errs...)
}
