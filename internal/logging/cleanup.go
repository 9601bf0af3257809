package logging

import (
	"context"
	"log/slog"
	"time"
)

// CleanupJob is one periodic maintenance task. Run returns the number of rows
// it removed.
type CleanupJob struct {
	Name string
	Run  func(ctx context.Context) (int64, error)
}

// StartCleanup runs every job once per interval until done is closed.
func StartCleanup(done <-chan struct{}, interval time.Duration, jobs ...CleanupJob) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				runJobs(jobs)
			case <-done:
				return
			}
		}
	}()
}

func runJobs(jobs []CleanupJob) {
	for _, job := range jobs {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		n, err := job.Run(ctx)
		cancel()
		if err != nil {
			slog.Error("cleanup failed", "action", "cleanup", "job", job.Name, "error", err)
			continue
		}
		if n > 0 {
			slog.Info("cleanup completed", "action", "cleanup", "job", job.Name, "deleted", n)
		}
	}
}
