package invoices

import (
	"context"
	"time"

	"fatture/internal/log"
)

// OverdueSweeper periodically relabels pending invoices past their due date.
type OverdueSweeper struct {
	svc      *Service
	interval time.Duration
	logger   *log.Logger
	now      func() time.Time
}

func NewOverdueSweeper(svc *Service, interval time.Duration, logger *log.Logger) *OverdueSweeper {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &OverdueSweeper{
		svc:      svc,
		interval: interval,
		logger:   logger.WithComponent(log.ComponentSweeper),
		now:      time.Now,
	}
}

// SweepOnce runs a single pass and returns the number of relabelled invoices.
func (w *OverdueSweeper) SweepOnce(ctx context.Context) (int, error) {
	return w.svc.MarkOverdue(ctx, w.now())
}

// Run sweeps once immediately, then on every tick until ctx is done. A
// non-positive interval disables the loop and Run returns at once.
func (w *OverdueSweeper) Run(ctx context.Context) error {
	if w.interval <= 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "Overdue sweeper started", "interval", w.interval)
	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Overdue sweeper stopped")
			return nil
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *OverdueSweeper) sweep(ctx context.Context) {
	count, err := w.SweepOnce(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Overdue sweep failed", log.FieldError, err)
		return
	}
	w.logger.DebugContext(ctx, "Overdue sweep complete",
		log.FieldCount, count,
		"next_check", w.now().Add(w.interval).Format("15:04:05"))
}
