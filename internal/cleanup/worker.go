package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/models"
)

var (
	tasksProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bubblegum_cleanup_tasks_total", Help: "Cleanup outbox outcomes"},
		[]string{"outcome"}, // "done" / "retry" / "abandoned"
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(tasksProcessed)
}

// Deleter removes one remote asset. The worker is backend-agnostic; the
// caller maps provider names to concrete storage clients.
type Deleter func(provider, remoteID string) error

// Worker drains the cleanup outbox: rows written by the video delete
// transaction, each naming a remote CDN asset to remove. Failures are
// rescheduled with a doubled delay until MaxAttempts, then abandoned so a
// dead CDN cannot grow the queue forever.
type Worker struct {
	db          *gorm.DB
	delete      Deleter
	interval    time.Duration
	maxAttempts int
	baseDelay   time.Duration
	now         func() time.Time
}

func NewWorker(db *gorm.DB, del Deleter, pollInterval time.Duration, maxAttempts int) *Worker {
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 6
	}
	return &Worker{
		db:          db,
		delete:      del,
		interval:    pollInterval,
		maxAttempts: maxAttempts,
		baseDelay:   time.Minute,
		now:         time.Now,
	}
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := w.ProcessDue(); err != nil {
				slog.Error("cleanup pass failed", "error", err)
			} else if n > 0 {
				slog.Info("cleanup pass finished", "processed", n)
			}
		}
	}
}

// ProcessDue handles every pending task whose next attempt time has
// passed. Returns the number of tasks it touched.
func (w *Worker) ProcessDue() (int, error) {
	var tasks []models.CleanupTask
	err := w.db.Where("status = ? AND next_attempt_at <= ?", models.CleanupPending, w.now()).
		Order("next_attempt_at ASC").
		Limit(50).
		Find(&tasks).Error
	if err != nil {
		return 0, err
	}

	for i := range tasks {
		w.processOne(&tasks[i])
	}
	return len(tasks), nil
}

func (w *Worker) processOne(task *models.CleanupTask) {
	err := w.delete(task.Provider, task.RemoteID)
	task.Attempts++

	if err == nil {
		task.Status = models.CleanupDone
		task.LastError = ""
		tasksProcessed.WithLabelValues("done").Inc()
		w.save(task)
		return
	}

	task.LastError = err.Error()
	if task.Attempts >= w.maxAttempts {
		task.Status = models.CleanupAbandoned
		tasksProcessed.WithLabelValues("abandoned").Inc()
		slog.Error("cleanup task abandoned",
			"provider", task.Provider, "remote_id", task.RemoteID,
			"attempts", task.Attempts, "error", err)
	} else {
		// 1m, 2m, 4m, ... between attempts
		delay := w.baseDelay << (task.Attempts - 1)
		task.NextAttemptAt = w.now().Add(delay)
		tasksProcessed.WithLabelValues("retry").Inc()
		slog.Warn("cleanup task retry scheduled",
			"provider", task.Provider, "remote_id", task.RemoteID,
			"attempt", task.Attempts, "next_in", delay, "error", err)
	}
	w.save(task)
}

func (w *Worker) save(task *models.CleanupTask) {
	if err := w.db.Save(task).Error; err != nil {
		slog.Error("cleanup task update failed", "task_id", task.ID, "error", err)
	}
}
