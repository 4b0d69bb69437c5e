package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

var ErrQueueFull = errors.New("task queue is full")

const taskTimeout = 5 * time.Minute

type Scheduler struct {
	store       PodcastStore
	parser      FeedParser
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

// NewScheduler creates a worker pool for refresh tasks. A zero interval
// disables periodic refreshes; tasks can still be enqueued explicitly.
func NewScheduler(store PodcastStore, parser FeedParser, interval time.Duration, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		store:       store,
		parser:      parser,
		interval:    interval,
		workerCount: max(workerCount, 1),
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	if s.interval <= 0 {
		slog.Debug("Periodic refresh disabled")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.EnqueueRefreshAll(); err != nil {
					slog.Warn("Failed to enqueue periodic refresh", "error", err)
				}
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// EnqueueRefreshAll queues a refresh for every podcast with a feed URL and
// returns how many were queued.
func (s *Scheduler) EnqueueRefreshAll() (int, error) {
	queued := 0
	for _, p := range s.store.Podcasts() {
		if p.FeedURL == "" {
			slog.Debug("Podcast has no feed URL, skipping refresh", "podcast", p.ID)
			continue
		}

		task := NewRefreshPodcastTask(p.ID, s.parser, s.store)
		if err := s.EnqueueTask(task); err != nil {
			return queued, err
		}
		queued++
	}

	slog.Debug("Refresh tasks enqueued", "count", queued)
	return queued, nil
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)
		case <-s.ctx.Done():
			return
		}
	}
}

// executeTask runs a task once. Failed refreshes are not retried; the next
// periodic pass picks the podcast up again.
func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	if err := task.Execute(taskCtx); err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "podcast", task.GetPodcastID(), "error", err)
		return
	}

	slog.Debug("Worker task completed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "duration", task.GetDuration().String())
}
