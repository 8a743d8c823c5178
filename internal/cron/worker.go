package cron

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/cmendoza/biosettle/internal/alerting"
	"github.com/cmendoza/biosettle/internal/logging"
	"github.com/cmendoza/biosettle/internal/metrics"
	"github.com/cmendoza/biosettle/internal/settlement"
	"github.com/cmendoza/biosettle/internal/storage"
	"github.com/robfig/cron/v3"
)

// advisoryLocker is the subset of locking used to serialize job runs.
type advisoryLocker interface {
	AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error)
	ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error)
}

// acquireTracker turns a cumulative sample into per-sample increments.
type acquireTracker struct {
	last int64
}

func (t *acquireTracker) delta(cumulative int64) int64 {
	d := cumulative - t.last
	t.last = cumulative
	if d < 0 {
		d = 0
	}
	return d
}

// Run starts a worker that periodically settles the billing period covering
// the current date. PostgreSQL advisory locks ensure that in a multi-instance
// deployment only one worker executes the job at a time.
func Run(ctx context.Context, driver, dsn string) error {
	if driver == "" {
		driver = "postgres"
	}

	st, err := storage.Open(ctx, storage.Config{Driver: driver, DSN: dsn})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer st.Close()

	// On Postgres, hold the advisory lock on a dedicated pgx pool so a lock
	// held for a long job does not pin a gorm connection. The pool also
	// feeds the connection pool gauges.
	locker := advisoryLocker(st)
	var pool *storage.PoolLocker
	if (driver == "postgres" || driver == "postgrespool") && dsn != "" {
		if pl, err := storage.OpenPoolLocker(ctx, dsn); err != nil {
			log.Printf("cron: open lock pool failed, using storage locks: %v", err)
		} else {
			locker = pl
			pool = pl
			defer pl.Close()
		}
	}

	svc := settlement.NewService(st, logging.Logger)
	alerter := alerting.NewAlerter(alerting.DefaultAlertConfig())

	// Initial interval from env or default.
	// Can be integer seconds or a cron expression.
	intervalSetting := "3600"
	if raw := os.Getenv("BIOSETTLE_CRON_INTERVAL_SECONDS"); raw != "" {
		intervalSetting = raw
	}

	// Check DB for override
	if val, err := st.GetSetting(ctx, "settlement_interval_seconds"); err == nil && val != "" {
		intervalSetting = val
	}

	// Control loop ticker (check config and run time)
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	// Helper to calculate next run time
	getNextRun := func(setting string, lastRun time.Time) time.Time {
		// Try integer seconds
		if v, err := strconv.Atoi(setting); err == nil && v > 0 {
			return lastRun.Add(time.Duration(v) * time.Second)
		}
		// Try cron expression
		if sched, err := cron.ParseStandard(setting); err == nil {
			return sched.Next(lastRun)
		}
		// Fallback to default 1h
		return lastRun.Add(time.Hour)
	}

	// If starting fresh, run immediately, then schedule next
	nextRun := time.Now()

	jobName := "settle_current_period"
	const lockKey int64 = 7431

	// pgxpool reports a cumulative acquire count; the counter wants the
	// increment since the last tick.
	var acquires acquireTracker

	log.Printf("cron worker starting, initial setting=%q driver=%s", intervalSetting, driver)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if pool != nil {
				s := pool.Stat()
				metrics.UpdateDBPoolMetrics(driver,
					float64(s.TotalConns()), float64(s.IdleConns()), float64(s.AcquiredConns()),
					uint64(acquires.delta(s.AcquireCount())))
			}

			// 1. Check for config update
			if val, err := st.GetSetting(ctx, "settlement_interval_seconds"); err == nil && val != "" {
				if val != intervalSetting {
					log.Printf("cron: interval updated from %q to %q", intervalSetting, val)
					intervalSetting = val
					nextRun = getNextRun(intervalSetting, time.Now())
				}
			}

			// 2. Check if it's time to run
			if time.Now().Before(nextRun) {
				continue
			}

			started := time.Now()

			ok, err := locker.AcquireAdvisoryLock(ctx, lockKey)
			if err != nil {
				log.Printf("cron: acquire advisory lock failed: %v", err)
				metrics.UpdateJobMetrics(jobName, started, err)
				nextRun = getNextRun(intervalSetting, time.Now())
				continue
			}
			if !ok {
				// Another worker is running this job.
				log.Printf("cron: advisory lock held by another worker, skipping run")
				nextRun = getNextRun(intervalSetting, time.Now())
				continue
			}

			// We hold the lock for the duration of the job.
			var runErr error
			var result *settlement.PeriodSettlement
			func() {
				defer func() {
					if _, err := locker.ReleaseAdvisoryLock(ctx, lockKey); err != nil {
						log.Printf("cron: release advisory lock failed: %v", err)
					}
				}()

				periodKey := settlement.PeriodForDate(time.Now())
				result, runErr = svc.SettlePeriod(ctx, periodKey, true)
			}()

			// Record metrics & job row.
			metrics.UpdateJobMetrics(jobName, started, runErr)
			dur := time.Since(started)
			errMsg := ""
			success := runErr == nil
			if runErr != nil {
				errMsg = runErr.Error()
			}
			if err := st.UpdateScheduledJob(ctx, jobName, started, dur, success, errMsg); err != nil {
				log.Printf("cron: update scheduled_jobs failed: %v", err)
			}

			if runErr != nil {
				log.Printf("cron: job %s completed with error: %v (duration=%s)", jobName, runErr, dur)
			} else if result != nil && len(result.Errors) > 0 {
				log.Printf("cron: job %s settled %d trips with %d failures (duration=%s)",
					jobName, result.TripsProcessed, len(result.Errors), dur)
				sendFailureAlert(ctx, alerter, result, dur)
			} else {
				log.Printf("cron: job %s completed successfully (duration=%s)", jobName, dur)
			}

			// Schedule next run
			nextRun = getNextRun(intervalSetting, time.Now())
		}
	}
}

func sendFailureAlert(ctx context.Context, a *alerting.Alerter, result *settlement.PeriodSettlement, dur time.Duration) {
	details := make([]alerting.SettlementFailure, 0, len(result.Errors))
	for _, e := range result.Errors {
		ref := e.TripID
		if ref == "" {
			ref = e.LoadID
		}
		details = append(details, alerting.SettlementFailure{Ref: ref, Error: e.Reason})
	}
	alert := alerting.SettlementAlert{
		PeriodKey:      result.PeriodKey,
		LoadsProcessed: result.LoadsProcessed,
		TripsSettled:   result.TripsProcessed,
		FailedCount:    len(result.Errors),
		Duration:       dur,
		FailedDetails:  details,
		Timestamp:      time.Now(),
	}
	if err := a.SendSettlementAlert(ctx, alert); err != nil {
		log.Printf("cron: send settlement alert failed: %v", err)
	}
}
