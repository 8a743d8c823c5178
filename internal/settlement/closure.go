package settlement

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cmendoza/biosettle/internal/storage"
)

// Notifier is told when a period has been closed. The notification service
// implements it; a nil notifier disables notifications.
type Notifier interface {
	NotifyPeriodClosed(ctx context.Context, periodKey string, loadsFrozen int64) error
}

// ClosureResult reports the outcome of an accounting closure.
type ClosureResult struct {
	PeriodKey   string    `json:"period_key"`
	LoadsFrozen int64     `json:"loads_frozen"`
	ClosedAt    time.Time `json:"closed_at"`
}

// Closer performs accounting closures: it freezes every load in the period
// and marks the economic cycle closed so later recalculations cannot alter
// settled amounts.
type Closer struct {
	store    storage.Storage
	notifier Notifier
	log      *zap.Logger
}

func NewCloser(st storage.Storage, n Notifier, log *zap.Logger) *Closer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Closer{store: st, notifier: n, log: log}
}

// ClosePeriod closes the given billing period. Closing an already closed
// period fails with ErrCycleClosed.
func (c *Closer) ClosePeriod(ctx context.Context, periodKey string) (*ClosureResult, error) {
	cycle, err := c.store.GetEconomicCycle(ctx, periodKey)
	if err != nil {
		return nil, fmt.Errorf("load economic cycle: %w", err)
	}
	if cycle == nil {
		return nil, fmt.Errorf("%w: %s", ErrCycleNotFound, periodKey)
	}
	if cycle.Status == storage.CycleClosed {
		return nil, fmt.Errorf("%w: %s", ErrCycleClosed, periodKey)
	}

	frozen, err := c.store.FreezeLoadsInRange(ctx, cycle.StartDate, cycle.EndDate)
	if err != nil {
		return nil, fmt.Errorf("freeze loads: %w", err)
	}

	now := time.Now()
	cycle.Status = storage.CycleClosed
	cycle.ClosedAt = &now
	if err := c.store.UpsertEconomicCycle(ctx, *cycle); err != nil {
		return nil, fmt.Errorf("close economic cycle: %w", err)
	}

	c.log.Info("period closed",
		zap.String("period", periodKey),
		zap.Int64("loads_frozen", frozen),
	)

	if c.notifier != nil {
		if err := c.notifier.NotifyPeriodClosed(ctx, periodKey, frozen); err != nil {
			c.log.Warn("closure notification failed", zap.String("period", periodKey), zap.Error(err))
		}
	}

	return &ClosureResult{PeriodKey: periodKey, LoadsFrozen: frozen, ClosedAt: now}, nil
}
