package memory

import (
	"context"
	"fmt"
	"sync"

	"familyfinance/internal/sheets"
)

var _ sheets.JournalWriter = (*Journal)(nil)

// Journal keeps appended rows in memory
type Journal struct {
	mu   sync.Mutex
	rows []sheets.Row
}

func New() *Journal {
	return &Journal{}
}

// AppendChange stores the row and returns a synthetic row reference.
func (j *Journal) AppendChange(ctx context.Context, row sheets.Row) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.rows = append(j.rows, row)
	return fmt.Sprintf("mem:%d", len(j.rows)), nil
}

// Rows returns a copy of everything appended so far
func (j *Journal) Rows() []sheets.Row {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]sheets.Row(nil), j.rows...)
}
