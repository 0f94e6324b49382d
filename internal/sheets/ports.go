package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"familyfinance/internal/amqp"
)

// JournalWriter appends one row per record change to an external journal
type JournalWriter interface {
	AppendChange(ctx context.Context, row Row) (rowRef string, err error)
}

// Row is one journal line
type Row struct {
	Timestamp time.Time
	Bucket    string
	Op        string
	ID        string
	Amount    float64
	Currency  string
	Label     string
	Category  string
	Date      string
}

// Header names the journal columns in Values order
var Header = []any{"Timestamp", "Bucket", "Op", "ID", "Amount", "Currency", "Label", "Category", "Date"}

func (r Row) Values() []any {
	amount := ""
	if r.Amount != 0 {
		amount = strconv.FormatFloat(r.Amount, 'f', -1, 64)
	}
	return []any{
		r.Timestamp.UTC().Format(time.RFC3339),
		r.Bucket,
		r.Op,
		r.ID,
		amount,
		r.Currency,
		r.Label,
		r.Category,
		r.Date,
	}
}

// recordFields covers the columns shared by every entity kind
type recordFields struct {
	Amount      *float64 `json:"amount"`
	Limit       *float64 `json:"limit"`
	Target      *float64 `json:"target"`
	Value       *float64 `json:"value"`
	Currency    string   `json:"currency"`
	Description string   `json:"description"`
	Name        string   `json:"name"`
	Source      string   `json:"source"`
	Category    string   `json:"category"`
	Type        string   `json:"type"`
	Date        string   `json:"date"`
	DueDate     string   `json:"dueDate"`
	Deadline    string   `json:"deadline"`
	Month       string   `json:"month"`
}

// RowFromMessage flattens a change message into a journal row. Delete
// messages carry no record and produce a row with only the identifying columns.
func RowFromMessage(msg *amqp.RecordChangeMessage) (Row, error) {
	row := Row{
		Timestamp: msg.Timestamp,
		Bucket:    msg.Bucket,
		Op:        msg.Op,
		ID:        msg.ID,
	}
	if len(msg.Record) == 0 {
		return row, nil
	}

	var f recordFields
	if err := json.Unmarshal(msg.Record, &f); err != nil {
		return Row{}, fmt.Errorf("decode %s record %s: %w", msg.Bucket, msg.ID, err)
	}

	row.Amount = firstNumber(f.Amount, f.Limit, f.Target, f.Value)
	row.Currency = f.Currency
	row.Label = firstString(f.Description, f.Name, f.Source)
	row.Category = firstString(f.Category, f.Type)
	row.Date = firstString(f.Date, f.DueDate, f.Deadline, f.Month)
	return row, nil
}

func firstNumber(vs ...*float64) float64 {
	for _, v := range vs {
		if v != nil {
			return *v
		}
	}
	return 0
}

func firstString(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
