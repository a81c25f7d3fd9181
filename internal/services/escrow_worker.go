package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/uniqdata/backend/internal/config"
	"github.com/uniqdata/backend/pkg/logger"
)

// ReconcileWorker consumes escrow cancel tasks from the Redis-backed queue.
type ReconcileWorker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor func(context.Context, *EscrowCancelTask) error
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

func NewReconcileWorker(cfg *config.RedisConfig) *ReconcileWorker {
	if !cfg.Enabled {
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"reconcile": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Errorf("reconcile worker: task %s failed: %v", task.Type(), err)
			}),
		},
	)

	return &ReconcileWorker{
		server: server,
		mux:    asynq.NewServeMux(),
	}
}

// SetProcessor sets the function invoked for each escrow cancel task.
func (w *ReconcileWorker) SetProcessor(processor func(context.Context, *EscrowCancelTask) error) {
	w.processor = processor
}

// Start begins consuming tasks.
func (w *ReconcileWorker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeEscrowCancel, w.handleCancelTask)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("reconcile worker: starting")
		if err := w.server.Run(w.mux); err != nil {
			logger.Errorf("reconcile worker: server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the worker.
func (w *ReconcileWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Infof("reconcile worker: stopped")
}

func (w *ReconcileWorker) handleCancelTask(ctx context.Context, t *asynq.Task) error {
	var task EscrowCancelTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		logger.Errorf("reconcile worker: bad payload: %v", err)
		return err
	}

	logger.Infof("reconcile worker: cancelling escrow owner=%s seq=%d reason=%s",
		task.OwnerAddress, task.OfferSequence, task.Reason)

	if w.processor == nil {
		logger.Warnf("reconcile worker: no processor set")
		return nil
	}

	return w.processor(ctx, &task)
}
