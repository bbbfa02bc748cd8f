package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"pricewatch/metrics"
	"pricewatch/models"
)

// DefaultSchedule runs the pipeline at 00:00 and 12:00
const DefaultSchedule = "0 0 */12 * * *"

const maxRetainedRuns = 50

// ErrRunInProgress is returned when a run is requested while another is active
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// Runner executes one pass of the pipeline
type Runner interface {
	Run(ctx context.Context) ([]models.ProductResult, error)
}

// PriceChecker triggers pipeline runs on a cron schedule and on demand,
// keeping a bounded record of recent runs.
type PriceChecker struct {
	cron     *cron.Cron
	schedule string
	runner   Runner
	timeout  time.Duration
	log      logrus.FieldLogger

	// ctx parents scheduled runs and is cancelled by Stop
	ctx    context.Context
	cancel context.CancelFunc

	running sync.Mutex

	mutex sync.RWMutex
	runs  map[string]*models.PipelineRun
	last  *models.PipelineRun
}

// NewPriceChecker creates a checker; an empty schedule uses DefaultSchedule.
// timeout bounds each run, zero means no limit.
func NewPriceChecker(runner Runner, schedule string, timeout time.Duration, log logrus.FieldLogger) *PriceChecker {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PriceChecker{
		ctx:      ctx,
		cancel:   cancel,
		cron:     cron.New(cron.WithSeconds()),
		schedule: schedule,
		runner:   runner,
		timeout:  timeout,
		log:      log.WithField("component", "scheduler"),
		runs:     make(map[string]*models.PipelineRun),
	}
}

// Start schedules the pipeline and starts the cron loop
func (pc *PriceChecker) Start() error {
	_, err := pc.cron.AddFunc(pc.schedule, pc.scheduledRun)
	if err != nil {
		return err
	}

	pc.cron.Start()
	pc.log.WithField("schedule", pc.schedule).Info("⏰ Price checker scheduled")
	return nil
}

// Stop cancels an in-flight scheduled run, stops the cron loop and waits
// for the job to return
func (pc *PriceChecker) Stop() {
	pc.cancel()
	if pc.cron != nil {
		<-pc.cron.Stop().Done()
	}
}

func (pc *PriceChecker) scheduledRun() {
	if _, err := pc.RunNow(pc.ctx); err != nil && errors.Is(err, ErrRunInProgress) {
		pc.log.Warn("⏭️ Skipping scheduled run, previous run still in progress")
	}
}

// RunNow executes the pipeline synchronously and returns the finished run.
// A failed run is returned alongside the run-level error.
func (pc *PriceChecker) RunNow(ctx context.Context) (*models.PipelineRun, error) {
	if !pc.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer pc.running.Unlock()

	if pc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, pc.timeout)
		defer cancel()
	}

	run := models.NewPipelineRun()
	log := pc.log.WithField("run_id", run.ID)

	run.Start()
	pc.store(run)
	log.Info("🚀 Starting pipeline run")

	results, err := pc.runner.Run(ctx)

	final := *run
	if err != nil {
		final.Fail(err)
		log.WithError(err).Error("❌ Pipeline run failed")
	} else {
		final.Complete(results)
		log.WithFields(logrus.Fields{
			"total":    final.Total,
			"updated":  final.Updated,
			"skipped":  final.Skipped,
			"notified": final.Notified,
		}).Infof("✅ Pipeline run completed in %v", final.Duration().Round(time.Millisecond))
	}
	metrics.RecordRun(string(final.Status), final.Duration())
	pc.store(&final)
	pc.cleanup()

	return &final, err
}

func (pc *PriceChecker) store(run *models.PipelineRun) {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	pc.runs[run.ID] = run
	pc.last = run
}

// LastRun returns a copy of the most recent run, or nil before the first run
func (pc *PriceChecker) LastRun() *models.PipelineRun {
	pc.mutex.RLock()
	defer pc.mutex.RUnlock()

	if pc.last == nil {
		return nil
	}
	run := *pc.last
	return &run
}

// GetRun returns a run by ID
func (pc *PriceChecker) GetRun(id string) (*models.PipelineRun, bool) {
	pc.mutex.RLock()
	defer pc.mutex.RUnlock()

	run, ok := pc.runs[id]
	if !ok {
		return nil, false
	}
	cp := *run
	return &cp, true
}

// RecentRuns returns retained runs, newest first
func (pc *PriceChecker) RecentRuns() []models.PipelineRun {
	pc.mutex.RLock()
	defer pc.mutex.RUnlock()

	runs := make([]models.PipelineRun, 0, len(pc.runs))
	for _, run := range pc.runs {
		runs = append(runs, *run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs
}

// cleanup drops the oldest completed runs beyond the retention limit
func (pc *PriceChecker) cleanup() {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	if len(pc.runs) <= maxRetainedRuns {
		return
	}

	completed := make([]*models.PipelineRun, 0, len(pc.runs))
	for _, run := range pc.runs {
		if run.IsCompleted() {
			completed = append(completed, run)
		}
	}
	sort.Slice(completed, func(i, j int) bool {
		return completed[i].CreatedAt.Before(completed[j].CreatedAt)
	})

	for _, run := range completed {
		if len(pc.runs) <= maxRetainedRuns {
			break
		}
		delete(pc.runs, run.ID)
		pc.log.WithField("run_id", run.ID).Debug("🧹 Cleaned up old run")
	}
}
