package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cardshop/pkg/logger"
)

// ErrQueueFull 任务队列已满
var ErrQueueFull = errors.New("任务队列已满")

// ErrStopped 工作器已停止
var ErrStopped = errors.New("工作器已停止")

// Task 表示一个异步任务
type Task struct {
	ID       string
	Handler  func(ctx context.Context) error
	Timeout  time.Duration // 单次执行超时
	RetryMax int
}

// Result 表示任务执行结果
type Result struct {
	TaskID    string
	Completed bool
	Attempts  int
	Error     error
	StartTime time.Time
	EndTime   time.Time
}

// Worker 异步任务处理器
type Worker struct {
	taskQueue chan Task
	results   map[string]Result
	mu        sync.RWMutex
	logger    *logger.Logger
	wg        sync.WaitGroup
	stopped   bool
	backoff   time.Duration
}

// NewWorker 创建一个新的工作器
func NewWorker(queueSize int, logger *logger.Logger) *Worker {
	return &Worker{
		taskQueue: make(chan Task, queueSize),
		results:   make(map[string]Result),
		logger:    logger,
		backoff:   time.Second,
	}
}

// SetBackoff 设置重试退避的基础间隔
func (w *Worker) SetBackoff(d time.Duration) {
	w.backoff = d
}

// Start 启动工作器
func (w *Worker) Start(numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		w.wg.Add(1)
		go w.processTask()
	}
}

// Stop 停止接收新任务，并等待队列中的任务执行完毕
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.taskQueue)
	w.mu.Unlock()

	w.wg.Wait()
}

// AddTask 将任务加入队列，队列已满时立即返回 ErrQueueFull
func (w *Worker) AddTask(task Task) error {
	if task.ID == "" {
		task.ID = fmt.Sprintf("task_%d", time.Now().UnixNano())
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return ErrStopped
	}

	select {
	case w.taskQueue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// GetResult 获取任务结果
func (w *Worker) GetResult(taskID string) (Result, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	result, exists := w.results[taskID]
	return result, exists
}

// processTask 处理任务的工作循环
func (w *Worker) processTask() {
	defer w.wg.Done()

	for task := range w.taskQueue {
		w.executeTask(task)
	}
}

// executeTask 执行单个任务
func (w *Worker) executeTask(task Task) {
	result := Result{
		TaskID:    task.ID,
		StartTime: time.Now(),
	}

	w.logger.Debug("开始执行异步任务", "task_id", task.ID)

	// 执行任务，支持重试
	var err error
	for attempt := 0; attempt <= task.RetryMax; attempt++ {
		if attempt > 0 {
			w.logger.Info("重试异步任务", "task_id", task.ID, "attempt", attempt)
			time.Sleep(w.backoff * time.Duration(attempt)) // 线性退避
		}

		result.Attempts++
		err = w.runOnce(task)
		if err == nil {
			break
		}

		w.logger.Warn("异步任务执行失败", "task_id", task.ID, "attempt", attempt, "error", err)
	}

	result.EndTime = time.Now()
	result.Error = err
	result.Completed = err == nil

	// 存储结果
	w.mu.Lock()
	w.results[task.ID] = result
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("异步任务最终失败", "task_id", task.ID, "error", err)
	} else {
		w.logger.Info("异步任务执行成功", "task_id", task.ID, "duration", result.EndTime.Sub(result.StartTime))
	}
}

// runOnce 在独立的超时上下文中执行一次任务
func (w *Worker) runOnce(task Task) error {
	ctx := context.Background()
	if task.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, task.Timeout)
		defer cancel()
	}
	return task.Handler(ctx)
}
