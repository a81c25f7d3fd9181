package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/uniqdata/backend/internal/config"
	"github.com/uniqdata/backend/pkg/logger"
)

const TaskTypeEscrowCancel = "escrow:cancel"

// EscrowCancelTask asks the reconciler to cancel an escrow that exists on the
// ledger but has no matching participant row (enroll race loser or a local
// write failure after a successful Core create).
type EscrowCancelTask struct {
	TaskID             string `json:"task_id"`
	ProjectID          uint   `json:"project_id"`
	ParticipantAddress string `json:"participant_address"`
	OwnerAddress       string `json:"owner_address"`
	OfferSequence      int64  `json:"offer_sequence"`
	Reason             string `json:"reason"` // insert_failed, duplicate_race
}

func NewEscrowCancelTask(projectID uint, participantAddress, ownerAddress string, offerSequence int64, reason string) *EscrowCancelTask {
	return &EscrowCancelTask{
		TaskID:             uuid.NewString(),
		ProjectID:          projectID,
		ParticipantAddress: participantAddress,
		OwnerAddress:       ownerAddress,
		OfferSequence:      offerSequence,
		Reason:             reason,
	}
}

// ReconcileQueue accepts escrow cancel tasks for out-of-band processing.
type ReconcileQueue interface {
	Enqueue(task *EscrowCancelTask) error
	IsAsync() bool
	Close() error
}

var (
	globalReconcileQueue ReconcileQueue
	reconcileQueueOnce   sync.Once
)

// InitReconcileQueue initializes the global reconcile queue based on config.
// With Redis enabled the queue is asynq-backed and retried by the worker;
// otherwise tasks run in-process on a best-effort goroutine.
func InitReconcileQueue(cfg *config.Config) ReconcileQueue {
	reconcileQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncReconcileQueue(&cfg.Redis)
			if err != nil {
				logger.Warnf("reconcile queue: redis unavailable, falling back to sync mode: %v", err)
				globalReconcileQueue = NewSyncReconcileQueue()
			} else {
				logger.Infof("reconcile queue: async mode, redis at %s", cfg.Redis.Addr)
				globalReconcileQueue = queue
			}
		} else {
			logger.Infof("reconcile queue: sync mode (redis disabled)")
			globalReconcileQueue = NewSyncReconcileQueue()
		}
	})
	return globalReconcileQueue
}

// GetReconcileQueue returns the global reconcile queue instance.
func GetReconcileQueue() ReconcileQueue {
	return globalReconcileQueue
}

// AsyncReconcileQueue implements ReconcileQueue using asynq (Redis-based).
type AsyncReconcileQueue struct {
	client *asynq.Client
}

func NewAsyncReconcileQueue(cfg *config.RedisConfig) (*AsyncReconcileQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the connection before committing to async mode
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()
	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncReconcileQueue{client: client}, nil
}

func (q *AsyncReconcileQueue) Enqueue(task *EscrowCancelTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeEscrowCancel, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("reconcile"),
		asynq.MaxRetry(5),
	)
	if err != nil {
		return err
	}

	logger.Infof("reconcile queue: task enqueued id=%s queue=%s reason=%s", info.ID, info.Queue, task.Reason)
	return nil
}

func (q *AsyncReconcileQueue) IsAsync() bool { return true }

func (q *AsyncReconcileQueue) Close() error { return q.client.Close() }

// SyncReconcileQueue runs tasks in-process when Redis is disabled. No retry;
// a failed cancel is only visible in the system log.
type SyncReconcileQueue struct {
	processor func(context.Context, *EscrowCancelTask) error
}

func NewSyncReconcileQueue() *SyncReconcileQueue {
	return &SyncReconcileQueue{}
}

// SetProcessor sets the function invoked for each enqueued task.
func (q *SyncReconcileQueue) SetProcessor(processor func(context.Context, *EscrowCancelTask) error) {
	q.processor = processor
}

func (q *SyncReconcileQueue) Enqueue(task *EscrowCancelTask) error {
	if q.processor == nil {
		logger.Warnf("reconcile queue: no processor set, task %s dropped", task.TaskID)
		return nil
	}

	// Run off the request path; the enqueuing request already failed and
	// should not block on the cleanup call.
	go func() {
		if err := q.processor(context.Background(), task); err != nil {
			logger.Errorf("reconcile queue: task %s failed: %v", task.TaskID, err)
		}
	}()

	return nil
}

func (q *SyncReconcileQueue) IsAsync() bool { return false }

func (q *SyncReconcileQueue) Close() error { return nil }

// NewEscrowReconciler returns the processor that cancels an orphaned escrow
// through the gateway and records the outcome.
func NewEscrowReconciler(gateway EscrowGateway) func(context.Context, *EscrowCancelTask) error {
	return func(ctx context.Context, task *EscrowCancelTask) error {
		resp, err := gateway.CancelEscrow(ctx, task.OwnerAddress, task.OfferSequence)
		if err != nil {
			LogError("reconcile", "escrow_cancel", "orphaned escrow cancel failed", nil, "", "", map[string]interface{}{
				"task_id":        task.TaskID,
				"project_id":     task.ProjectID,
				"owner_address":  task.OwnerAddress,
				"offer_sequence": task.OfferSequence,
				"reason":         task.Reason,
				"error":          err.Error(),
			})
			return err
		}

		LogInfo("reconcile", "escrow_cancel", "orphaned escrow cancelled", nil, "", "", map[string]interface{}{
			"task_id":        task.TaskID,
			"project_id":     task.ProjectID,
			"owner_address":  task.OwnerAddress,
			"offer_sequence": task.OfferSequence,
			"reason":         task.Reason,
			"tx_hash":        resp.TxHash,
		})
		return nil
	}
}
