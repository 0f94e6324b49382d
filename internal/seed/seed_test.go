package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familyfinance/internal/core"
	"familyfinance/internal/log"
	"familyfinance/internal/repository"
	"familyfinance/internal/storage/memory"
)

var now = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func TestGeneratorProducesValidRecords(t *testing.T) {
	g := NewGenerator(42, now)
	for i := 0; i < 50; i++ {
		e, b, gl, inv, bill, inc := g.Expense(), g.Budget(), g.Goal(), g.Investment(), g.Bill(), g.Income()
		for _, v := range []core.Validator{&e, &b, &gl, &inv, &bill, &inc} {
			require.NoError(t, v.Validate())
		}
		_, ok := core.ParseDate(e.Date)
		assert.True(t, ok, e.Date)
		assert.Equal(t, "2025-03", b.Month)
		assert.LessOrEqual(t, gl.Current, gl.Target)
	}
}

func TestGeneratorIsDeterministic(t *testing.T) {
	a := NewGenerator(7, now).Expense()
	b := NewGenerator(7, now).Expense()
	assert.Equal(t, a, b)
}

func TestRun(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.EnsureBuckets(context.Background(), core.Buckets...))
	records := repository.NewSet(store)

	counts, err := Run(context.Background(), records, NewGenerator(1, now), 3, log.Discard())
	require.NoError(t, err)
	for _, bucket := range core.Buckets {
		assert.Equal(t, 3, counts[bucket], bucket)
	}

	expenses, err := records.Expenses.List(context.Background())
	require.NoError(t, err)
	require.Len(t, expenses, 3)
	for _, e := range expenses {
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, core.DefaultCurrency, e.Currency)
		assert.False(t, e.CreatedAt.IsZero())
	}
}

func TestRunStopsOnStoreError(t *testing.T) {
	store := memory.New()
	records := repository.NewSet(store)

	counts, err := Run(context.Background(), records, NewGenerator(1, now), 2, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed expenses")
	assert.Zero(t, counts[core.BucketExpenses])
}
