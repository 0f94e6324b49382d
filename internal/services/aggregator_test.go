package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familyfinance/internal/core"
)

func TestStats(t *testing.T) {
	ctx := context.Background()
	set, _ := newRecords(t)
	agg := NewAggregator(set, discard())

	stats, err := agg.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.Stats{}, stats, "empty store yields zeros")

	_, err = set.Budgets.Create(ctx, core.Budget{Category: "all", Limit: 600})
	require.NoError(t, err)
	_, err = set.Budgets.Create(ctx, core.Budget{Category: "fun", Limit: 400})
	require.NoError(t, err)
	_, err = set.Expenses.Create(ctx, core.Expense{Amount: 200})
	require.NoError(t, err)
	_, err = set.Expenses.Create(ctx, core.Expense{Amount: 100})
	require.NoError(t, err)

	stats, err = agg.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 300.0, stats.TotalSpent)
	assert.Equal(t, 1000.0, stats.MonthlyBudget)
	assert.Equal(t, 2, stats.TransactionCount)
	assert.InDelta(t, 70.0, stats.SavingsRate, 1e-9)
}

func TestStats_NoBudgetMeansZeroSavings(t *testing.T) {
	ctx := context.Background()
	set, _ := newRecords(t)
	_, err := set.Expenses.Create(ctx, core.Expense{Amount: 300})
	require.NoError(t, err)

	stats, err := NewAggregator(set, discard()).Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stats.SavingsRate)
	assert.Equal(t, 300.0, stats.TotalSpent)
}

func TestDashboard_EmptyListsAreArrays(t *testing.T) {
	set, _ := newRecords(t)
	d, err := NewAggregator(set, discard()).Dashboard(context.Background())
	require.NoError(t, err)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &m))
	for _, key := range []string{"expenses", "recentTransactions", "budgets", "goals", "bills", "incomes", "categoryData"} {
		assert.Equal(t, "[]", string(m[key]), key)
	}
	assert.Contains(t, m, "stats")
}

func TestDashboard_IncomeDrivesSavings(t *testing.T) {
	ctx := context.Background()
	set, _ := newRecords(t)
	_, err := set.Income.Create(ctx, core.Income{Amount: 50000, Source: "salary"})
	require.NoError(t, err)
	_, err = set.Expenses.Create(ctx, core.Expense{Amount: 10000, Category: "rent"})
	require.NoError(t, err)
	_, err = set.Budgets.Create(ctx, core.Budget{Limit: 20000})
	require.NoError(t, err)

	d, err := NewAggregator(set, discard()).Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50000.0, d.Stats.TotalIncome)
	assert.Equal(t, 10000.0, d.Stats.TotalSpent)
	assert.Equal(t, 20000.0, d.Stats.MonthlyBudget)
	assert.Equal(t, 40000.0, d.Stats.NetBalance)
	assert.InDelta(t, 80.0, d.Stats.SavingsRate, 1e-9)
	assert.Equal(t, 1, d.Stats.TransactionCount)
	assert.Len(t, d.Incomes, 1)
}

func TestDashboard_ReadFailureFailsWholeRequest(t *testing.T) {
	set, _ := newRecords(t)
	set.Goals = failingRecords[core.Goal]{Records: set.Goals, err: errDisk}

	_, err := NewAggregator(set, discard()).Dashboard(context.Background())
	assert.ErrorIs(t, err, errDisk)

	set.Goals = nil
	set.Budgets = failingRecords[core.Budget]{Records: set.Budgets, err: errDisk}
	_, err = NewAggregator(set, discard()).Stats(context.Background())
	assert.ErrorIs(t, err, errDisk)
}

func TestCategoryBreakdown(t *testing.T) {
	expenses := []core.Expense{
		{Category: "groceries", Amount: 100},
		{Category: "dining", Amount: 25},
		{Category: "groceries", Amount: 50},
	}
	got := CategoryBreakdown(expenses)
	require.Len(t, got, 2)
	assert.Equal(t, core.CategorySlice{Name: "groceries", Value: 150, Color: "#22c55e"}, got[0])
	assert.Equal(t, core.CategorySlice{Name: "dining", Value: 25, Color: "#ef4444"}, got[1])

	assert.Equal(t, got, CategoryBreakdown(expenses), "colors are stable across calls")
}

func TestCategoryBreakdown_CarriedColors(t *testing.T) {
	expenses := []core.Expense{
		{Category: "rent", Amount: 1000, CategoryColor: "#111111"},
		{Category: "food", Amount: 10},
		{Category: "rent", Amount: 1, CategoryColor: "#222222"},
		{Category: "rent", Amount: 1},
		{Category: "fuel", Amount: 5},
	}
	got := CategoryBreakdown(expenses)
	require.Len(t, got, 3)
	assert.Equal(t, "#222222", got[0].Color, "last non-empty color wins")
	assert.Equal(t, 1002.0, got[0].Value)
	// palette cursor only advances for categories without their own color
	assert.Equal(t, core.CategoryPalette[0], got[1].Color)
	assert.Equal(t, core.CategoryPalette[1], got[2].Color)
}

func TestCategoryBreakdown_PaletteCycles(t *testing.T) {
	var expenses []core.Expense
	for i := 0; i < len(core.CategoryPalette)+2; i++ {
		expenses = append(expenses, core.Expense{Category: string(rune('a' + i)), Amount: 1})
	}
	got := CategoryBreakdown(expenses)
	require.Len(t, got, len(core.CategoryPalette)+2)
	assert.Equal(t, core.CategoryPalette[0], got[len(core.CategoryPalette)].Color)
	assert.Equal(t, core.CategoryPalette[1], got[len(core.CategoryPalette)+1].Color)
}

func TestRecentTransactions(t *testing.T) {
	ts := func(s string) core.Timestamp {
		v, _ := time.Parse(time.RFC3339, s)
		return core.NewTimestamp(v)
	}
	expenses := []core.Expense{
		{ID: "a", Date: "2025-01-01"},
		{ID: "b", Date: "2025-03-01", CreatedAt: ts("2025-03-01T08:00:00Z")},
		{ID: "c", Date: "not a date"},
		{ID: "d", Date: "2025-03-01", CreatedAt: ts("2025-03-01T09:00:00Z")},
		{ID: "e", Date: "2025-02-15"},
		{ID: "f", Date: "2025-02-20T10:00:00Z"},
		{ID: "g", Date: "2024-12-31"},
	}

	got := RecentTransactions(expenses, RecentTransactionsLimit)
	ids := make([]string, len(got))
	for i, e := range got {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"d", "b", "f", "e", "a"}, ids)

	assert.Len(t, RecentTransactions(expenses[:2], 5), 2)
	assert.NotNil(t, RecentTransactions(nil, 5))
}
