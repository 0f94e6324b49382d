package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"familyfinance/internal/core"
	"familyfinance/internal/log"
	"familyfinance/internal/repository"
)

// RecentTransactionsLimit caps the dashboard's recent transactions list
const RecentTransactionsLimit = 5

// Aggregator computes stats and the dashboard from the current records on every call
type Aggregator struct {
	records *repository.Set
	logger  *log.Logger
}

func NewAggregator(records *repository.Set, logger *log.Logger) *Aggregator {
	return &Aggregator{
		records: records,
		logger:  logger.WithComponent(log.ComponentStats),
	}
}

// Stats sums expenses against the total budget limit
func (a *Aggregator) Stats(ctx context.Context) (core.Stats, error) {
	var (
		expenses []core.Expense
		budgets  []core.Budget
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		expenses, err = a.records.Expenses.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		budgets, err = a.records.Budgets.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Stats{}, fmt.Errorf("load stats inputs: %w", err)
	}

	spent := sumExpenses(expenses)
	budget := sumBudgets(budgets)

	return core.Stats{
		TotalSpent:       spent.Float64(),
		MonthlyBudget:    budget.Float64(),
		TransactionCount: len(expenses),
		SavingsRate:      core.SavingsRate(budget, spent),
	}, nil
}

// Dashboard loads every bucket concurrently and derives the summary blocks.
// Any failed read fails the whole dashboard.
func (a *Aggregator) Dashboard(ctx context.Context) (core.Dashboard, error) {
	var d core.Dashboard

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Expenses, err = a.records.Expenses.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Budgets, err = a.records.Budgets.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Goals, err = a.records.Goals.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Bills, err = a.records.Bills.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Incomes, err = a.records.Income.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Dashboard{}, fmt.Errorf("load dashboard inputs: %w", err)
	}

	spent := sumExpenses(d.Expenses)
	budget := sumBudgets(d.Budgets)
	var income core.Total
	for _, in := range d.Incomes {
		income.Add(in.Amount)
	}

	d.Stats = core.DashboardStats{
		TotalSpent:       spent.Float64(),
		TotalIncome:      income.Float64(),
		MonthlyBudget:    budget.Float64(),
		TransactionCount: len(d.Expenses),
		SavingsRate:      core.SavingsRate(income, spent),
		NetBalance:       core.Difference(income, spent),
	}
	d.CategoryData = CategoryBreakdown(d.Expenses)
	d.RecentTransactions = RecentTransactions(d.Expenses, RecentTransactionsLimit)

	a.logger.DebugContext(ctx, "Dashboard computed",
		log.FieldCount, len(d.Expenses),
		"categories", len(d.CategoryData))

	return d, nil
}

func sumExpenses(expenses []core.Expense) core.Total {
	var t core.Total
	for _, e := range expenses {
		t.Add(e.Amount)
	}
	return t
}

func sumBudgets(budgets []core.Budget) core.Total {
	var t core.Total
	for _, b := range budgets {
		t.Add(b.Limit)
	}
	return t
}

// CategoryBreakdown totals expenses per category in first-seen order. A
// category takes the last non-empty categoryColor among its expenses; the
// rest take palette colors in turn.
func CategoryBreakdown(expenses []core.Expense) []core.CategorySlice {
	type acc struct {
		total core.Total
		color string
	}
	order := make([]string, 0)
	byName := make(map[string]*acc)

	for _, e := range expenses {
		c, ok := byName[e.Category]
		if !ok {
			c = &acc{}
			byName[e.Category] = c
			order = append(order, e.Category)
		}
		c.total.Add(e.Amount)
		if e.CategoryColor != "" {
			c.color = e.CategoryColor
		}
	}

	out := make([]core.CategorySlice, 0, len(order))
	next := 0
	for _, name := range order {
		c := byName[name]
		color := c.color
		if color == "" {
			color = core.CategoryPalette[next%len(core.CategoryPalette)]
			next++
		}
		out = append(out, core.CategorySlice{Name: name, Value: c.total.Float64(), Color: color})
	}
	return out
}

// RecentTransactions returns up to limit expenses, newest date first. Ties go
// to the later createdAt, then the smaller id. Unparseable dates sort last.
func RecentTransactions(expenses []core.Expense, limit int) []core.Expense {
	type keyed struct {
		e    core.Expense
		date time.Time
		ok   bool
	}
	items := make([]keyed, len(expenses))
	for i, e := range expenses {
		d, ok := core.ParseDate(e.Date)
		items[i] = keyed{e: e, date: d, ok: ok}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.ok != b.ok {
			return a.ok
		}
		if !a.date.Equal(b.date) {
			return a.date.After(b.date)
		}
		if !a.e.CreatedAt.Equal(b.e.CreatedAt.Time) {
			return a.e.CreatedAt.After(b.e.CreatedAt.Time)
		}
		return a.e.ID < b.e.ID
	})

	if limit > len(items) {
		limit = len(items)
	}
	out := make([]core.Expense, 0, limit)
	for _, it := range items[:limit] {
		out = append(out, it.e)
	}
	return out
}
