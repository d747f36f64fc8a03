package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go-standings/pkg/database"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

const (
	defaultWorkers     = 10
	defaultQueueSize   = 1000
	defaultTaskTimeout = 10 * time.Minute
	maxAttempts        = 3
	retryDelay         = 30 * time.Second
)

// HandlerFunc executes one task. A returned error requeues the task
// until its attempts are exhausted.
type HandlerFunc func(ctx context.Context, task *Task) error

// Engine runs asynchronous sync tasks on a worker pool with cron-driven
// recurring dispatch and a per-task Redis lock
type Engine struct {
	redis     *database.Redis
	cron      *cron.Cron
	handlers  map[TaskType]HandlerFunc
	taskQueue chan *Task

	workers  int
	workerWg sync.WaitGroup

	running  bool
	runMutex sync.RWMutex
	stopCh   chan struct{}
}

// NewEngine creates a new task engine
func NewEngine(redisDB *database.Redis) *Engine {
	return &Engine{
		redis:     redisDB,
		cron:      cron.New(cron.WithSeconds()),
		handlers:  make(map[TaskType]HandlerFunc),
		taskQueue: make(chan *Task, defaultQueueSize),
		workers:   defaultWorkers,
		stopCh:    make(chan struct{}),
	}
}

// RegisterHandler binds a task type to its handler
func (e *Engine) RegisterHandler(taskType TaskType, handler HandlerFunc) {
	e.handlers[taskType] = handler
}

// Schedule adds a recurring cron entry that enqueues the produced task
func (e *Engine) Schedule(spec string, produce func() *Task) error {
	_, err := e.cron.AddFunc(spec, func() {
		task := produce()
		if err := e.Enqueue(task); err != nil {
			slog.Warn("Failed to enqueue scheduled task",
				"task", task.Describe(),
				"error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	return nil
}

// Enqueue places a task on the queue for asynchronous execution
func (e *Engine) Enqueue(task *Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}

	select {
	case e.taskQueue <- task:
		slog.Debug("Task enqueued", "task", task.Describe(), "task_id", task.ID)
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueueManagerSync enqueues one organization sync
func (e *Engine) EnqueueManagerSync(organizationID int64, force bool, notifyUserID string) error {
	return e.Enqueue(&Task{
		Type:           TaskManagerSync,
		OrganizationID: organizationID,
		Force:          force,
		NotifyUserID:   notifyUserID,
	})
}

// EnqueueCharacterSync enqueues one member character sync
func (e *Engine) EnqueueCharacterSync(characterID int64, force bool) error {
	return e.Enqueue(&Task{
		Type:        TaskCharacterSync,
		CharacterID: characterID,
		Force:       force,
	})
}

// EnqueueWarUpdate enqueues one war update
func (e *Engine) EnqueueWarUpdate(warID int64) error {
	return e.Enqueue(&Task{
		Type:  TaskWarUpdate,
		WarID: warID,
	})
}

// Start starts the worker pool and the cron scheduler
func (e *Engine) Start(ctx context.Context) error {
	e.runMutex.Lock()
	defer e.runMutex.Unlock()

	if e.running {
		return fmt.Errorf("engine is already running")
	}

	slog.Info("Starting sync engine", "workers", e.workers)

	for i := 0; i < e.workers; i++ {
		e.workerWg.Add(1)
		go e.worker(ctx, fmt.Sprintf("worker-%d", i))
	}

	e.cron.Start()
	e.running = true

	return nil
}

// Stop stops the cron scheduler and drains the worker pool
func (e *Engine) Stop() {
	e.runMutex.Lock()
	defer e.runMutex.Unlock()

	if !e.running {
		return
	}

	slog.Info("Stopping sync engine")

	cronCtx := e.cron.Stop()
	<-cronCtx.Done()

	close(e.stopCh)
	e.workerWg.Wait()

	e.running = false
	slog.Info("Sync engine stopped")
}

// IsRunning returns whether the engine is running
func (e *Engine) IsRunning() bool {
	e.runMutex.RLock()
	defer e.runMutex.RUnlock()
	return e.running
}

// QueueSize returns the number of queued tasks
func (e *Engine) QueueSize() int {
	return len(e.taskQueue)
}

// worker processes tasks from the queue
func (e *Engine) worker(ctx context.Context, workerID string) {
	defer e.workerWg.Done()

	slog.Debug("Worker started", "worker_id", workerID)

	for {
		select {
		case <-ctx.Done():
			slog.Debug("Worker stopped due to context cancellation", "worker_id", workerID)
			return
		case <-e.stopCh:
			slog.Debug("Worker stopped", "worker_id", workerID)
			return
		case task, ok := <-e.taskQueue:
			if !ok {
				return
			}
			e.processTask(ctx, task, workerID)
		}
	}
}

// processTask executes one task under a distributed lock, requeueing it
// with a delay when the handler fails and attempts remain
func (e *Engine) processTask(ctx context.Context, task *Task, workerID string) {
	handler, exists := e.handlers[task.Type]
	if !exists {
		slog.Error("No handler registered for task type", "type", task.Type)
		return
	}

	lockKey := task.LockKey()
	lockValue := uuid.New().String()

	acquired, err := e.acquireLock(ctx, lockKey, lockValue, defaultTaskTimeout)
	if err != nil {
		slog.Error("Failed to acquire task lock", "task", task.Describe(), "error", err)
		return
	}
	if !acquired {
		slog.Debug("Task already running elsewhere, skipping", "task", task.Describe())
		return
	}
	defer e.releaseLock(ctx, lockKey, lockValue)

	start := time.Now()
	taskCtx, cancel := context.WithTimeout(ctx, defaultTaskTimeout)
	defer cancel()

	if err := handler(taskCtx, task); err != nil {
		task.Attempt++
		if task.Attempt < maxAttempts {
			slog.Warn("Task failed, retrying",
				"task", task.Describe(),
				"task_id", task.ID,
				"attempt", task.Attempt,
				"error", err)
			e.requeueLater(task)
		} else {
			slog.Error("Task failed permanently",
				"task", task.Describe(),
				"task_id", task.ID,
				"attempts", task.Attempt,
				"error", err)
		}
		return
	}

	slog.Info("Task completed",
		"task", task.Describe(),
		"task_id", task.ID,
		"worker_id", workerID,
		"duration", time.Since(start))
}

// requeueLater puts a failed task back on the queue after the retry delay
func (e *Engine) requeueLater(task *Task) {
	time.AfterFunc(retryDelay, func() {
		select {
		case <-e.stopCh:
			return
		default:
		}
		if err := e.Enqueue(task); err != nil {
			slog.Error("Failed to requeue task", "task", task.Describe(), "error", err)
		}
	})
}

// acquireLock acquires a distributed lock using Redis
func (e *Engine) acquireLock(ctx context.Context, key, value string, timeout time.Duration) (bool, error) {
	result, err := e.redis.Client.SetNX(ctx, key, value, timeout).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return result, nil
}

// releaseLock releases a distributed lock, only when still held by us
func (e *Engine) releaseLock(ctx context.Context, key, value string) {
	script := redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)

	if _, err := script.Run(ctx, e.redis.Client, []string{key}, value).Result(); err != nil {
		slog.Error("Failed to release task lock", "key", key, "error", err)
	}
}
