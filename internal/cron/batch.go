package cron

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/cmendoza/biosettle/internal/logging"
	"github.com/cmendoza/biosettle/internal/metrics"
	"github.com/cmendoza/biosettle/internal/notification"
	"github.com/cmendoza/biosettle/internal/settlement"
	"github.com/cmendoza/biosettle/internal/storage"
)

// RunClosure periodically closes billing periods whose end date has passed.
// Advisory locks ensure multiple replicas do not close the same period
// simultaneously.
func RunClosure(ctx context.Context, driver, dsn string) error {
	st, err := storage.Open(ctx, storage.Config{Driver: driver, DSN: dsn})
	if err != nil {
		return fmt.Errorf("closure: open storage: %w", err)
	}
	defer st.Close()

	closer := settlement.NewCloser(st, notification.NewService(st), logging.Logger)

	// Configurable interval
	intervalSec := 3600
	if raw := os.Getenv("BIOSETTLE_CLOSURE_INTERVAL_SECONDS"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			intervalSec = v
		}
	}

	// Days to wait after a period ends before closing it, so late load
	// registrations still make it into the settlement.
	graceDays := 3
	if raw := os.Getenv("BIOSETTLE_CLOSURE_GRACE_DAYS"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			graceDays = v
		}
	}

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	jobName := "auto_close_period"
	const advisoryKey int64 = 7432

	log.Printf("closure worker starting: interval=%ds grace=%dd driver=%s", intervalSec, graceDays, driver)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			started := time.Now()

			gotLock, err := st.AcquireAdvisoryLock(ctx, advisoryKey)
			if err != nil {
				log.Printf("closure: lock acquire error: %v", err)
				metrics.UpdateJobMetrics(jobName, started, err)
				continue
			}
			if !gotLock {
				log.Printf("closure: lock held by another node, skipping this cycle")
				continue
			}

			var runErr error
			func() {
				defer func() {
					if _, err := st.ReleaseAdvisoryLock(ctx, advisoryKey); err != nil {
						log.Printf("closure: lock release error: %v", err)
					}
				}()

				runErr = closeEligiblePeriod(ctx, st, closer, graceDays)
			}()

			metrics.UpdateJobMetrics(jobName, started, runErr)

			dur := time.Since(started)
			errMsg := ""
			success := runErr == nil
			if runErr != nil {
				errMsg = runErr.Error()
			}
			if err := st.UpdateScheduledJob(ctx, jobName, started, dur, success, errMsg); err != nil {
				log.Printf("closure: update scheduled_jobs failed: %v", err)
			}

			if runErr != nil {
				log.Printf("closure: run completed with error: %v", runErr)
			} else {
				log.Printf("closure: run completed successfully")
			}
		}
	}
}

// closeEligiblePeriod closes the previous billing period if its cycle is
// still open and the grace window after its end date has elapsed.
func closeEligiblePeriod(ctx context.Context, st storage.Storage, closer *settlement.Closer, graceDays int) error {
	now := time.Now().UTC()

	// The previous period is the one covering the current period's start
	// minus one day.
	year, month, err := settlement.ParsePeriodKey(settlement.PeriodForDate(now))
	if err != nil {
		return err
	}
	start, _ := settlement.PeriodBounds(year, month)
	prevKey := settlement.PeriodForDate(start.AddDate(0, 0, -1))

	cycle, err := st.GetEconomicCycle(ctx, prevKey)
	if err != nil {
		return fmt.Errorf("load cycle %s: %w", prevKey, err)
	}
	if cycle == nil || cycle.Status == storage.CycleClosed {
		return nil
	}
	if now.Before(cycle.EndDate.AddDate(0, 0, graceDays)) {
		return nil
	}

	res, err := closer.ClosePeriod(ctx, prevKey)
	if err != nil {
		return fmt.Errorf("close period %s: %w", prevKey, err)
	}
	log.Printf("closure: period %s closed, %d loads frozen", prevKey, res.LoadsFrozen)
	return nil
}
