package core

import (
	"fmt"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}

func nonNegative(field string, v float64) error {
	if v < 0 {
		return invalid("%s must not be negative", field)
	}
	return nil
}

func (e *Expense) Validate() error {
	if err := nonNegative("amount", e.Amount); err != nil {
		return err
	}
	if e.CommentCount < 0 {
		return invalid("commentCount must not be negative")
	}
	return nil
}

func (b *Budget) Validate() error {
	if err := nonNegative("limit", b.Limit); err != nil {
		return err
	}
	if err := nonNegative("spent", b.Spent); err != nil {
		return err
	}
	if b.Month != "" && !ValidMonth(b.Month) {
		return invalid("month %q must be formatted as YYYY-MM", b.Month)
	}
	return nil
}

func (g *Goal) Validate() error {
	if err := nonNegative("target", g.Target); err != nil {
		return err
	}
	return nonNegative("current", g.Current)
}

func (i *Investment) Validate() error {
	if err := nonNegative("units", i.Units); err != nil {
		return err
	}
	if err := nonNegative("purchasePrice", i.PurchasePrice); err != nil {
		return err
	}
	if err := nonNegative("currentValue", i.CurrentValue); err != nil {
		return err
	}
	if err := nonNegative("value", i.Value); err != nil {
		return err
	}
	return nonNegative("investedValue", i.InvestedValue)
}

func (b *BillReminder) Validate() error {
	if err := nonNegative("amount", b.Amount); err != nil {
		return err
	}
	if b.Status != "" && !b.Status.Valid() {
		return invalid("status %q must be one of upcoming, due, overdue or paid", b.Status)
	}
	return nil
}

func (i *Income) Validate() error {
	return nonNegative("amount", i.Amount)
}

func (s BillStatus) Valid() bool {
	switch s {
	case BillUpcoming, BillDue, BillOverdue, BillPaid:
		return true
	}
	return false
}
