package core

import (
	"errors"
	"time"
)

// Bucket names, one per entity kind. The on-disk layout depends on these.
const (
	BucketExpenses    = "expenses"
	BucketBudgets     = "budgets"
	BucketGoals       = "goals"
	BucketInvestments = "investments"
	BucketBills       = "bills"
	BucketIncome      = "income"
)

// Buckets lists every bucket the store must provide at startup
var Buckets = []string{
	BucketExpenses,
	BucketBudgets,
	BucketGoals,
	BucketInvestments,
	BucketBills,
	BucketIncome,
}

// DefaultCurrency is applied to expenses and incomes created without one
const DefaultCurrency = "INR"

const (
	BillUpcoming BillStatus = "upcoming"
	BillDue      BillStatus = "due"
	BillOverdue  BillStatus = "overdue"
	BillPaid     BillStatus = "paid"
)

type (
	BillStatus string

	Expense struct {
		ID             string    `json:"id"`
		Amount         float64   `json:"amount"`
		Currency       string    `json:"currency"`
		Description    string    `json:"description"`
		Category       string    `json:"category"`
		CategoryColor  string    `json:"categoryColor,omitempty"`
		Merchant       string    `json:"merchant"`
		Date           string    `json:"date"`
		User           string    `json:"user"`
		IsShared       bool      `json:"isShared"`
		HasAttachments bool      `json:"hasAttachments"`
		CommentCount   int       `json:"commentCount"`
		Notes          string    `json:"notes,omitempty"`
		Attachments    []string  `json:"attachments,omitempty"`
		BudgetIDs      []string  `json:"budgetIds,omitempty"`
		CreatedAt      Timestamp `json:"createdAt"`
		UpdatedAt      Timestamp `json:"updatedAt"`
	}

	Budget struct {
		ID          string  `json:"id"`
		Name        string  `json:"name,omitempty"`
		Category    string  `json:"category"`
		Month       string  `json:"month,omitempty"` // YYYY-MM
		Limit       float64 `json:"limit"`
		Spent       float64 `json:"spent"`
		Color       string  `json:"color"`
		IsRecurring bool    `json:"isRecurring"`
	}

	Goal struct {
		ID       string  `json:"id"`
		Name     string  `json:"name"`
		Target   float64 `json:"target"`
		Current  float64 `json:"current"`
		Deadline string  `json:"deadline"`
		Color    string  `json:"color"`
	}

	Investment struct {
		ID             string  `json:"id"`
		Name           string  `json:"name"`
		Type           string  `json:"type"`
		Units          float64 `json:"units,omitempty"`
		PurchasePrice  float64 `json:"purchasePrice,omitempty"`
		CurrentValue   float64 `json:"currentValue,omitempty"`
		Value          float64 `json:"value"`
		InvestedValue  float64 `json:"investedValue"`
		Returns        float64 `json:"returns"`
		ReturnsPercent float64 `json:"returnsPercent"`
		Currency       string  `json:"currency,omitempty"`
	}

	BillReminder struct {
		ID       string     `json:"id"`
		Name     string     `json:"name"`
		Amount   float64    `json:"amount"`
		DueDate  string     `json:"dueDate"`
		Status   BillStatus `json:"status"`
		Category string     `json:"category"`
	}

	Income struct {
		ID          string    `json:"id"`
		Amount      float64   `json:"amount"`
		Currency    string    `json:"currency"`
		Source      string    `json:"source"`
		Description string    `json:"description"`
		Date        string    `json:"date"`
		IsRecurring bool      `json:"isRecurring"`
		User        string    `json:"user"`
		CreatedAt   Timestamp `json:"createdAt"`
		UpdatedAt   Timestamp `json:"updatedAt"`
	}
)

var (
	// ErrNotFound is returned when a record does not exist in its bucket
	ErrNotFound = errors.New("not found")
	// ErrInvalid wraps every validation failure
	ErrInvalid = errors.New("invalid record")
)

// Entity is implemented by pointers to every stored record type
type Entity interface {
	GetID() string
	SetID(id string)
}

// Timestamped records carry createdAt/updatedAt managed by the repository
type Timestamped interface {
	Timestamps() (created, updated time.Time)
	SetTimestamps(created, updated time.Time)
}

// Defaulter fills server-side defaults before a record is written
type Defaulter interface {
	ApplyDefaults()
}

// Validator rejects records that must not be stored
type Validator interface {
	Validate() error
}

func (e *Expense) GetID() string        { return e.ID }
func (e *Expense) SetID(id string)      { e.ID = id }
func (b *Budget) GetID() string         { return b.ID }
func (b *Budget) SetID(id string)       { b.ID = id }
func (g *Goal) GetID() string           { return g.ID }
func (g *Goal) SetID(id string)         { g.ID = id }
func (i *Investment) GetID() string     { return i.ID }
func (i *Investment) SetID(id string)   { i.ID = id }
func (b *BillReminder) GetID() string   { return b.ID }
func (b *BillReminder) SetID(id string) { b.ID = id }
func (i *Income) GetID() string         { return i.ID }
func (i *Income) SetID(id string)       { i.ID = id }

func (e *Expense) Timestamps() (time.Time, time.Time) {
	return e.CreatedAt.Time, e.UpdatedAt.Time
}

func (e *Expense) SetTimestamps(created, updated time.Time) {
	e.CreatedAt = NewTimestamp(created)
	e.UpdatedAt = NewTimestamp(updated)
}

func (i *Income) Timestamps() (time.Time, time.Time) {
	return i.CreatedAt.Time, i.UpdatedAt.Time
}

func (i *Income) SetTimestamps(created, updated time.Time) {
	i.CreatedAt = NewTimestamp(created)
	i.UpdatedAt = NewTimestamp(updated)
}

func (e *Expense) ApplyDefaults() {
	if e.Currency == "" {
		e.Currency = DefaultCurrency
	}
}

func (i *Income) ApplyDefaults() {
	if i.Currency == "" {
		i.Currency = DefaultCurrency
	}
}

func (b *BillReminder) ApplyDefaults() {
	if b.Status == "" {
		b.Status = BillUpcoming
	}
}
