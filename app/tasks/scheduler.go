package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/agendazap/agendazap/app/cfg"
	"github.com/agendazap/agendazap/app/config"
	"github.com/agendazap/agendazap/app/database"
	"github.com/agendazap/agendazap/app/export"
	"github.com/agendazap/agendazap/app/notify"
	"github.com/agendazap/agendazap/app/schedule"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler owns the two periodic jobs of the system: scanning the
// exports directory for new files (event-driven ingestion, modeled as an
// explicit task queue) and the due-reminder sweep. Workers block on the
// queue; with the default single worker, ingestion and sweep never run
// concurrently.
type Scheduler struct {
	apptRepo      database.AppointmentRepository
	instRepo      database.InstanceRepository
	parser        *export.Parser
	dispatcher    *notify.Dispatcher
	instances     []config.InstanceConfig
	exportsDir    string
	interval      time.Duration
	sweepInterval time.Duration
	workerCount   int
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	taskQueue     chan TaskInterface

	mu          sync.Mutex
	fileState   map[string]string // queued | failed
	nextSweepAt time.Time
}

func NewScheduler(apptRepo database.AppointmentRepository, instRepo database.InstanceRepository,
	parser *export.Parser, dispatcher *notify.Dispatcher, instances []config.InstanceConfig) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		apptRepo:      apptRepo,
		instRepo:      instRepo,
		parser:        parser,
		dispatcher:    dispatcher,
		instances:     instances,
		exportsDir:    cfg.ExportsDir,
		interval:      time.Duration(cfg.SchedulerInterval) * time.Second,
		sweepInterval: time.Duration(cfg.SweepInterval) * time.Second,
		workerCount:   cfg.WorkerCount,
		ctx:           ctx,
		cancel:        cancel,
		taskQueue:     make(chan TaskInterface, 300),
		fileState:     make(map[string]string),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// enqueueStartupTasks seeds the queue: instance mappings sync first so
// ingestion can resolve routes, then an immediate sweep and scan.
func (s *Scheduler) enqueueStartupTasks() {
	syncTask := NewSyncInstancesTask(s.instances, s.instRepo)
	if err := s.EnqueueTask(syncTask); err != nil {
		slog.Warn("Failed to enqueue SyncInstancesTask", "error", err)
	}

	s.enqueueSweep()
	s.scanExports()
}

func (s *Scheduler) enqueueTasks() {
	s.scanExports()

	s.mu.Lock()
	due := !time.Now().Before(s.nextSweepAt)
	s.mu.Unlock()

	if due {
		s.enqueueSweep()
	}
}

// scanExports enqueues one ingestion task per new export file. Files that
// exhausted their retries stay on disk for an operator and are not
// rescanned until restart.
func (s *Scheduler) scanExports() {
	files, err := filepath.Glob(filepath.Join(s.exportsDir, "*.csv"))
	if err != nil {
		slog.Error("Failed to scan exports directory", "dir", s.exportsDir, "error", err)
		return
	}

	for _, file := range files {
		s.mu.Lock()
		_, known := s.fileState[file]
		if !known {
			s.fileState[file] = "queued"
		}
		s.mu.Unlock()

		if known {
			continue
		}

		task := NewIngestExportTask(file, s.parser, s.apptRepo, s.instRepo, s.dispatcher)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue IngestExportTask", "file", file, "error", err)
			s.mu.Lock()
			delete(s.fileState, file)
			s.mu.Unlock()
		} else {
			slog.Info("Export file detected", "file", file)
		}
	}
}

func (s *Scheduler) enqueueSweep() {
	today := time.Now().In(time.Local).Format(schedule.DateLayout)

	task := NewSendRemindersTask(today, s.apptRepo, s.dispatcher)
	if err := s.EnqueueTask(task); err != nil {
		slog.Warn("Failed to enqueue SendRemindersTask", "error", err)
		return
	}

	s.mu.Lock()
	s.nextSweepAt = time.Now().Add(s.sweepInterval)
	s.mu.Unlock()
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err == nil {
		s.noteTaskDone(task, true)
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if task.CanRetry() {
		task.IncrementRetryCount()
		retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
		if retryDelay > 30*time.Second {
			retryDelay = 30 * time.Second
		}

		slog.Warn("Task retry scheduled", "type", string(task.GetType()), "ref", task.GetRef(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

		go func() {
			time.Sleep(retryDelay)
			select {
			case <-s.ctx.Done():
				slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
				return
			default:
				if retryErr := s.EnqueueTask(task); retryErr != nil {
					slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
				}
			}
		}()
		return
	}

	slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
	s.noteTaskDone(task, false)
}

// noteTaskDone updates the per-file bookkeeping once an ingestion task
// reaches a terminal outcome.
func (s *Scheduler) noteTaskDone(task TaskInterface, succeeded bool) {
	ingest, ok := task.(*IngestExportTask)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if succeeded {
		delete(s.fileState, ingest.FilePath)
	} else {
		s.fileState[ingest.FilePath] = "failed"
		slog.Warn("Export file kept for inspection", "file", ingest.FilePath)
	}
}
