package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familyfinance/internal/amqp"
	"familyfinance/internal/core"
)

func TestRowFromMessage(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		record any
		bucket string
		want   Row
	}{
		{
			name:   "expense",
			bucket: core.BucketExpenses,
			record: core.Expense{ID: "e1", Amount: 150.5, Currency: "INR", Description: "Groceries", Category: "food", Date: "2025-03-01"},
			want:   Row{Amount: 150.5, Currency: "INR", Label: "Groceries", Category: "food", Date: "2025-03-01"},
		},
		{
			name:   "income uses source when there is no description",
			bucket: core.BucketIncome,
			record: core.Income{ID: "e1", Amount: 50000, Currency: "INR", Source: "salary", Date: "2025-03-01"},
			want:   Row{Amount: 50000, Currency: "INR", Label: "salary", Date: "2025-03-01"},
		},
		{
			name:   "budget",
			bucket: core.BucketBudgets,
			record: core.Budget{ID: "e1", Category: "fun", Limit: 400, Month: "2025-03"},
			want:   Row{Amount: 400, Label: "", Category: "fun", Date: "2025-03"},
		},
		{
			name:   "bill",
			bucket: core.BucketBills,
			record: core.BillReminder{ID: "e1", Name: "Rent", Amount: 20000, DueDate: "2025-03-05", Category: "home"},
			want:   Row{Amount: 20000, Label: "Rent", Category: "home", Date: "2025-03-05"},
		},
		{
			name:   "goal",
			bucket: core.BucketGoals,
			record: core.Goal{ID: "e1", Name: "Car", Target: 500000, Deadline: "2026-01-01"},
			want:   Row{Amount: 500000, Label: "Car", Date: "2026-01-01"},
		},
		{
			name:   "investment",
			bucket: core.BucketInvestments,
			record: core.Investment{ID: "e1", Name: "Index fund", Type: "mutual_fund", Value: 1200},
			want:   Row{Amount: 1200, Label: "Index fund", Category: "mutual_fund"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := amqp.NewRecordChangeMessage(tt.bucket, "e1", amqp.OpCreate, tt.record)
			require.NoError(t, err)
			msg.Timestamp = ts

			got, err := RowFromMessage(msg)
			require.NoError(t, err)

			tt.want.Timestamp = ts
			tt.want.Bucket = tt.bucket
			tt.want.Op = amqp.OpCreate
			tt.want.ID = "e1"
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRowFromMessage_Delete(t *testing.T) {
	msg, err := amqp.NewRecordChangeMessage(core.BucketGoals, "g1", amqp.OpDelete, nil)
	require.NoError(t, err)

	row, err := RowFromMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, "g1", row.ID)
	assert.Equal(t, amqp.OpDelete, row.Op)
	assert.Zero(t, row.Amount)
}

func TestRowFromMessage_BadRecord(t *testing.T) {
	msg := &amqp.RecordChangeMessage{Bucket: "expenses", ID: "x", Op: amqp.OpCreate, Record: []byte(`[1,2]`)}
	_, err := RowFromMessage(msg)
	assert.Error(t, err)
}

func TestRowValues(t *testing.T) {
	row := Row{
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("IST", 5*3600+1800)),
		Bucket:    "expenses",
		Op:        "create",
		ID:        "e1",
		Amount:    150.5,
		Currency:  "INR",
		Label:     "Groceries",
		Category:  "food",
		Date:      "2025-03-01",
	}
	assert.Equal(t, []any{"2025-03-01T06:30:00Z", "expenses", "create", "e1", "150.5", "INR", "Groceries", "food", "2025-03-01"}, row.Values())
	assert.Len(t, Header, len(row.Values()))

	assert.Equal(t, "", Row{}.Values()[4], "zero amount renders empty")
}
