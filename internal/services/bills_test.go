package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familyfinance/internal/core"
	"familyfinance/internal/repository"
)

func TestDueWindowChecker(t *testing.T) {
	today := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)
	checker := DueWindowChecker{WindowDays: 3}

	tests := []struct {
		name   string
		bill   core.BillReminder
		want   core.BillStatus
		wantOK bool
	}{
		{"paid is left alone", core.BillReminder{DueDate: "2025-01-01", Status: core.BillPaid}, core.BillPaid, false},
		{"bad date is left alone", core.BillReminder{DueDate: "soon", Status: core.BillUpcoming}, core.BillUpcoming, false},
		{"past due", core.BillReminder{DueDate: "2025-03-09", Status: core.BillDue}, core.BillOverdue, true},
		{"due today", core.BillReminder{DueDate: "2025-03-10", Status: core.BillUpcoming}, core.BillDue, true},
		{"window edge", core.BillReminder{DueDate: "2025-03-13", Status: core.BillUpcoming}, core.BillDue, true},
		{"outside window", core.BillReminder{DueDate: "2025-03-14", Status: core.BillUpcoming}, core.BillUpcoming, true},
		{"timestamp due date", core.BillReminder{DueDate: "2025-03-11T08:00:00Z", Status: core.BillUpcoming}, core.BillDue, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := checker.Status(tt.bill, today)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBillRefresher_RefreshOnce(t *testing.T) {
	ctx := context.Background()
	set, _ := newRecords(t)

	seed := []core.BillReminder{
		{ID: "rent", Name: "Rent", Amount: 20000, DueDate: "2025-03-01", Status: core.BillUpcoming},
		{ID: "power", Name: "Power", Amount: 1500, DueDate: "2025-03-12", Status: core.BillUpcoming},
		{ID: "net", Name: "Internet", Amount: 999, DueDate: "2025-04-20", Status: core.BillUpcoming},
		{ID: "water", Name: "Water", Amount: 300, DueDate: "2025-02-01", Status: core.BillPaid},
	}
	for _, b := range seed {
		_, err := set.Bills.Create(ctx, b)
		require.NoError(t, err)
	}
	before, err := set.Bills.Get(ctx, "net")
	require.NoError(t, err)

	r := NewBillRefresher(set.Bills, DueWindowChecker{WindowDays: 3}, time.Hour, discard())
	r.now = func() time.Time { return time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC) }

	n, err := r.RefreshOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	want := map[string]core.BillStatus{
		"rent":  core.BillOverdue,
		"power": core.BillDue,
		"net":   core.BillUpcoming,
		"water": core.BillPaid,
	}
	for id, status := range want {
		b, err := set.Bills.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, status, b.Status, id)
	}

	after, err := set.Bills.Get(ctx, "net")
	require.NoError(t, err)
	assert.Equal(t, before, after, "unchanged bills are not rewritten")

	n, err = r.RefreshOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "second pass is a no-op")
}

func TestBillRefresher_ListFailure(t *testing.T) {
	set, _ := newRecords(t)
	bills := failingRecords[core.BillReminder]{Records: set.Bills, err: errDisk}

	_, err := NewBillRefresher(bills, DueWindowChecker{}, time.Hour, discard()).RefreshOnce(context.Background())
	assert.ErrorIs(t, err, errDisk)
}

// afterList runs a write right after the refresher has listed the bills
type afterList struct {
	repository.Records[core.BillReminder]
	then func()
}

func (a afterList) List(ctx context.Context) ([]core.BillReminder, error) {
	bills, err := a.Records.List(ctx)
	a.then()
	return bills, err
}

func TestBillRefresher_KeepsWritesMadeAfterListing(t *testing.T) {
	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		strict bool
		change func(t *testing.T, bills repository.Records[core.BillReminder])
		check  func(t *testing.T, bills repository.Records[core.BillReminder])
	}{
		{
			name: "deleted bill stays deleted",
			change: func(t *testing.T, bills repository.Records[core.BillReminder]) {
				require.NoError(t, bills.Delete(context.Background(), "rent"))
			},
			check: func(t *testing.T, bills repository.Records[core.BillReminder]) {
				_, err := bills.Get(context.Background(), "rent")
				assert.ErrorIs(t, err, core.ErrNotFound)
			},
		},
		{
			name:   "deleted bill with strict updates",
			strict: true,
			change: func(t *testing.T, bills repository.Records[core.BillReminder]) {
				require.NoError(t, bills.Delete(context.Background(), "rent"))
			},
			check: func(t *testing.T, bills repository.Records[core.BillReminder]) {
				_, err := bills.Get(context.Background(), "rent")
				assert.ErrorIs(t, err, core.ErrNotFound)
			},
		},
		{
			name: "paid bill stays paid",
			change: func(t *testing.T, bills repository.Records[core.BillReminder]) {
				b, err := bills.Get(context.Background(), "rent")
				require.NoError(t, err)
				b.Status = core.BillPaid
				_, err = bills.Update(context.Background(), "rent", b)
				require.NoError(t, err)
			},
			check: func(t *testing.T, bills repository.Records[core.BillReminder]) {
				b, err := bills.Get(context.Background(), "rent")
				require.NoError(t, err)
				assert.Equal(t, core.BillPaid, b.Status)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			set, _ := newRecords(t, repository.WithStrictUpdates(tt.strict))
			for _, b := range []core.BillReminder{
				{ID: "rent", Name: "Rent", Amount: 20000, DueDate: "2025-03-01", Status: core.BillUpcoming},
				{ID: "power", Name: "Power", Amount: 1500, DueDate: "2025-03-12", Status: core.BillUpcoming},
			} {
				_, err := set.Bills.Create(ctx, b)
				require.NoError(t, err)
			}

			bills := afterList{Records: set.Bills, then: func() { tt.change(t, set.Bills) }}
			r := NewBillRefresher(bills, DueWindowChecker{WindowDays: 3}, time.Hour, discard())
			r.now = func() time.Time { return today }

			n, err := r.RefreshOnce(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, n, "only the untouched bill is refreshed")
			tt.check(t, set.Bills)

			power, err := set.Bills.Get(ctx, "power")
			require.NoError(t, err)
			assert.Equal(t, core.BillDue, power.Status)
		})
	}
}

func TestBillRefresher_RunDisabled(t *testing.T) {
	set, _ := newRecords(t)
	r := NewBillRefresher(set.Bills, DueWindowChecker{}, 0, discard())

	done := make(chan struct{})
	go func() {
		r.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled refresher did not return")
	}
}

func TestBillRefresher_RunRefreshesImmediatelyAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	set, _ := newRecords(t)
	_, err := set.Bills.Create(ctx, core.BillReminder{ID: "late", DueDate: "2000-01-01"})
	require.NoError(t, err)

	r := NewBillRefresher(set.Bills, DueWindowChecker{WindowDays: 3}, time.Hour, discard())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		b, err := set.Bills.Get(context.Background(), "late")
		return err == nil && b.Status == core.BillOverdue
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop on cancel")
	}
}
