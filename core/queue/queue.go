package queue

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/liyxianren/mmyq/core/config"
	"github.com/liyxianren/mmyq/core/logger"
)

// Worker runs background tasks on asynq with redis as the broker. Periodic
// tasks are registered through Schedule before Start.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
}

func NewWorker(cfg config.RedisConfig) *Worker {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		Logger:      asynqLogger{},
	})
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger: asynqLogger{},
	})
	return &Worker{
		server:    server,
		scheduler: scheduler,
		mux:       asynq.NewServeMux(),
	}
}

// HandleFunc registers the handler for a task type.
func (w *Worker) HandleFunc(taskType string, handler func(context.Context, *asynq.Task) error) {
	w.mux.HandleFunc(taskType, handler)
}

// Schedule registers a periodic task with a cron expression.
func (w *Worker) Schedule(cronspec, taskType string) error {
	entryID, err := w.scheduler.Register(cronspec, asynq.NewTask(taskType, nil))
	if err != nil {
		return fmt.Errorf("register scheduled task %s: %w", taskType, err)
	}
	logger.Info("Queue:Schedule", "task", taskType, "cron", cronspec, "entry_id", entryID)
	return nil
}

// Start runs the server and scheduler in the background.
func (w *Worker) Start() error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("start task server: %w", err)
	}
	if err := w.scheduler.Start(); err != nil {
		w.server.Shutdown()
		return fmt.Errorf("start task scheduler: %w", err)
	}
	return nil
}

func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
}

// asynqLogger routes asynq's internal logging through the application logger.
type asynqLogger struct{}

func (asynqLogger) Debug(args ...any) { logger.Debug("Queue:asynq", "detail", fmt.Sprint(args...)) }
func (asynqLogger) Info(args ...any)  { logger.Info("Queue:asynq", "detail", fmt.Sprint(args...)) }
func (asynqLogger) Warn(args ...any)  { logger.Warn("Queue:asynq", "detail", fmt.Sprint(args...)) }
func (asynqLogger) Error(args ...any) { logger.Error("Queue:asynq", "detail", fmt.Sprint(args...)) }
func (asynqLogger) Fatal(args ...any) { logger.Error("Queue:asynq", "detail", fmt.Sprint(args...)) }
