package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/microarena/api/internal/archive"
	"github.com/microarena/api/internal/model"
)

const defaultSnapshotInterval = 5 * time.Minute

// LadderSource computes a leaderboard.
type LadderSource interface {
	Ladder(ctx context.Context, tab model.LadderTab) ([]model.LadderEntry, error)
}

// LadderSnapshotter pushes the CLANS ladder to the archive on a fixed
// interval.
type LadderSnapshotter struct {
	ranking  LadderSource
	sink     archive.Sink
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	scheduler gocron.Scheduler
}

// LadderSnapshotterConfig holds the snapshotter's dependencies
type LadderSnapshotterConfig struct {
	Ranking  LadderSource
	Sink     archive.Sink
	Interval time.Duration
	Logger   *slog.Logger
}

// NewLadderSnapshotter creates a new snapshot job
func NewLadderSnapshotter(cfg LadderSnapshotterConfig) *LadderSnapshotter {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultSnapshotInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &LadderSnapshotter{
		ranking:  cfg.Ranking,
		sink:     cfg.Sink,
		interval: interval,
		timeout:  min(interval, time.Minute),
		logger:   logger.With("job", "ladder_snapshot"),
	}
}

// Start schedules the job. The first snapshot runs immediately. Calling
// Start on a running job does nothing.
func (j *LadderSnapshotter) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.scheduler != nil {
		return nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(j.interval),
		gocron.NewTask(j.tick),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("schedule ladder snapshot: %w", err)
	}

	sched.Start()
	j.scheduler = sched
	j.logger.Info("ladder snapshot job started", "interval", j.interval)
	return nil
}

// Stop shuts the scheduler down and waits for a running snapshot to finish.
func (j *LadderSnapshotter) Stop() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.scheduler == nil {
		return nil
	}
	err := j.scheduler.Shutdown()
	j.scheduler = nil
	j.logger.Info("ladder snapshot job stopped")
	return err
}

// IsRunning returns whether the job is scheduled
func (j *LadderSnapshotter) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.scheduler != nil
}

// RunOnce takes and archives a single snapshot.
func (j *LadderSnapshotter) RunOnce(ctx context.Context) error {
	if j.ranking == nil || j.sink == nil {
		return errors.New("ladder snapshot: ranking and sink are required")
	}

	entries, err := j.ranking.Ladder(ctx, model.LadderClans)
	if err != nil {
		return fmt.Errorf("compute ladder: %w", err)
	}
	if err := j.sink.ArchiveLadder(ctx, entries); err != nil {
		return err
	}

	j.logger.Debug("ladder snapshot archived", "entries", len(entries))
	return nil
}

func (j *LadderSnapshotter) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.RunOnce(ctx); err != nil {
		j.logger.Error("ladder snapshot failed", "error", err)
	}
}
