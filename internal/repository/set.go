package repository

import (
	"errors"

	"familyfinance/internal/core"
	"familyfinance/internal/storage"
)

// Set groups the record collections of every entity kind
type Set struct {
	Expenses    Records[core.Expense]
	Budgets     Records[core.Budget]
	Goals       Records[core.Goal]
	Investments Records[core.Investment]
	Bills       Records[core.BillReminder]
	Income      Records[core.Income]
}

// NewSet binds one repository per bucket to store
func NewSet(store storage.Store, opts ...Option) *Set {
	return &Set{
		Expenses:    New[core.Expense](store, core.BucketExpenses, opts...),
		Budgets:     New[core.Budget](store, core.BucketBudgets, opts...),
		Goals:       New[core.Goal](store, core.BucketGoals, opts...),
		Investments: New[core.Investment](store, core.BucketInvestments, opts...),
		Bills:       New[core.BillReminder](store, core.BucketBills, opts...),
		Income:      New[core.Income](store, core.BucketIncome, opts...),
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}
