package booking

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/backend-menu/internal/obs"
)

// TaskCompleteExpired is the asynq task type of the booking sweep.
const TaskCompleteExpired = "booking:complete_expired"

// NewCompleteExpiredTask builds a sweep task. Only one sweep is queued per uniqueness window.
func NewCompleteExpiredTask() *asynq.Task {
	return asynq.NewTask(TaskCompleteExpired, nil, asynq.MaxRetry(3), asynq.Unique(time.Minute))
}

// HandleCompleteExpired is the asynq handler for TaskCompleteExpired.
func (s *Service) HandleCompleteExpired(ctx context.Context, _ *asynq.Task) error {
	n, err := s.CompleteExpired(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		obs.LoggerFrom(ctx).Info().Int64("completed", n).Msg("completed expired bookings")
	}
	return nil
}

// RegisterTasks mounts the booking task handlers on mux.
func (s *Service) RegisterTasks(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskCompleteExpired, s.HandleCompleteExpired)
}
