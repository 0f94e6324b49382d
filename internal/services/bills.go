package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"familyfinance/internal/core"
	"familyfinance/internal/log"
	"familyfinance/internal/repository"
)

// BillStatusChecker decides which status an unpaid bill should have on a given day.
// ok is false when the bill cannot be evaluated and must be left alone.
type BillStatusChecker interface {
	Status(bill core.BillReminder, today time.Time) (status core.BillStatus, ok bool)
}

// DueWindowChecker marks bills overdue after their due date, due from WindowDays
// before it through the due date itself, and upcoming otherwise.
type DueWindowChecker struct {
	WindowDays int
}

func (c DueWindowChecker) Status(bill core.BillReminder, today time.Time) (core.BillStatus, bool) {
	if bill.Status == core.BillPaid {
		return core.BillPaid, false
	}
	due, ok := core.ParseDate(bill.DueDate)
	if !ok {
		return bill.Status, false
	}

	dueDay := truncateDay(due)
	day := truncateDay(today)
	switch {
	case day.After(dueDay):
		return core.BillOverdue, true
	case !day.Before(dueDay.AddDate(0, 0, -c.WindowDays)):
		return core.BillDue, true
	default:
		return core.BillUpcoming, true
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BillRefresher periodically moves unpaid bills between upcoming, due and overdue
type BillRefresher struct {
	bills    repository.Records[core.BillReminder]
	checker  BillStatusChecker
	interval time.Duration
	now      func() time.Time
	logger   *log.Logger
}

func NewBillRefresher(bills repository.Records[core.BillReminder], checker BillStatusChecker, interval time.Duration, logger *log.Logger) *BillRefresher {
	return &BillRefresher{
		bills:    bills,
		checker:  checker,
		interval: interval,
		now:      time.Now,
		logger:   logger.WithComponent(log.ComponentBills),
	}
}

// RefreshOnce rewrites every bill whose computed status differs from the stored one
// and returns how many changed. Each bill is re-read and re-checked inside its
// own write transaction, so bills deleted or edited since the listing keep the
// user's version.
func (r *BillRefresher) RefreshOnce(ctx context.Context) (int, error) {
	bills, err := r.bills.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list bills: %w", err)
	}

	today := r.now()
	changed := 0
	for _, listed := range bills {
		if status, ok := r.checker.Status(listed, today); !ok || status == listed.Status {
			continue
		}

		var prev, next core.BillStatus
		_, wrote, err := r.bills.Modify(ctx, listed.ID, func(bill *core.BillReminder) (bool, error) {
			status, ok := r.checker.Status(*bill, today)
			if !ok || status == bill.Status {
				return false, nil
			}
			prev, next = bill.Status, status
			bill.Status = status
			return true, nil
		})
		if errors.Is(err, core.ErrNotFound) {
			continue
		}
		if err != nil {
			return changed, fmt.Errorf("update bill %s: %w", listed.ID, err)
		}
		if !wrote {
			continue
		}
		changed++
		r.logger.InfoContext(ctx, "Bill status changed",
			log.FieldRecordID, listed.ID,
			"from", prev,
			"to", next)
	}
	return changed, nil
}

// Run refreshes immediately and then every interval until ctx is done.
// A non-positive interval disables the refresher.
func (r *BillRefresher) Run(ctx context.Context) {
	if r.interval <= 0 {
		r.logger.Info("Bill status refresher disabled")
		return
	}

	r.logger.Info("Bill status refresher started", "interval", r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if n, err := r.RefreshOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.ErrorContext(ctx, "Bill status refresh failed", "error", err)
		} else if n > 0 {
			r.logger.InfoContext(ctx, "Bill statuses refreshed", log.FieldCount, n)
		}

		select {
		case <-ctx.Done():
			r.logger.Info("Bill status refresher stopped")
			return
		case <-ticker.C:
		}
	}
}
