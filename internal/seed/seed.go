// Package seed fills a store with demo records of every entity kind.
package seed

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"familyfinance/internal/core"
	"familyfinance/internal/log"
	"familyfinance/internal/repository"
)

var (
	categories      = []string{"groceries", "dining", "transport", "utilities", "rent", "health", "entertainment", "shopping"}
	investmentTypes = []string{"stocks", "mutual_fund", "fixed_deposit", "gold", "crypto"}
	incomeSources   = []string{"salary", "freelance", "dividends", "rental", "bonus"}
	members         = []string{"Asha", "Ravi", "Meera", "Kiran"}
)

// Counts reports how many records were created per bucket
type Counts map[string]int

// Generator builds random but valid records
type Generator struct {
	faker *gofakeit.Faker
	now   time.Time
}

// NewGenerator returns a generator; the same seed and now produce the same records
func NewGenerator(seed int64, now time.Time) *Generator {
	return &Generator{faker: gofakeit.New(seed), now: now}
}

func money(v float64) float64 {
	return math.Round(v*100) / 100
}

func (g *Generator) date(daysBack, daysAhead int) time.Time {
	return g.faker.DateRange(g.now.AddDate(0, 0, -daysBack), g.now.AddDate(0, 0, daysAhead))
}

func (g *Generator) Expense() core.Expense {
	return core.Expense{
		Amount:      money(g.faker.Price(50, 5000)),
		Description: g.faker.Sentence(4),
		Category:    g.faker.RandomString(categories),
		Merchant:    g.faker.Company(),
		Date:        g.date(60, 0).Format("2006-01-02"),
		User:        g.faker.RandomString(members),
		IsShared:    g.faker.Bool(),
	}
}

func (g *Generator) Budget() core.Budget {
	limit := money(g.faker.Price(2000, 20000))
	return core.Budget{
		Name:        g.faker.Word() + " budget",
		Category:    g.faker.RandomString(categories),
		Month:       g.now.Format("2006-01"),
		Limit:       limit,
		Spent:       money(limit * g.faker.Float64Range(0, 1.2)),
		Color:       g.faker.HexColor(),
		IsRecurring: g.faker.Bool(),
	}
}

func (g *Generator) Goal() core.Goal {
	target := money(g.faker.Price(10000, 500000))
	return core.Goal{
		Name:     g.faker.Word() + " fund",
		Target:   target,
		Current:  money(target * g.faker.Float64Range(0, 1)),
		Deadline: g.date(0, 720).Format("2006-01-02"),
		Color:    g.faker.HexColor(),
	}
}

func (g *Generator) Investment() core.Investment {
	units := float64(g.faker.Number(1, 200))
	price := money(g.faker.Price(10, 3000))
	current := money(price * g.faker.Float64Range(0.7, 1.5))
	invested := money(units * price)
	value := money(units * current)
	return core.Investment{
		Name:           g.faker.Company(),
		Type:           g.faker.RandomString(investmentTypes),
		Units:          units,
		PurchasePrice:  price,
		CurrentValue:   current,
		Value:          value,
		InvestedValue:  invested,
		Returns:        money(value - invested),
		ReturnsPercent: money((value - invested) / invested * 100),
		Currency:       core.DefaultCurrency,
	}
}

func (g *Generator) Bill() core.BillReminder {
	status := core.BillUpcoming
	if g.faker.Number(0, 3) == 0 {
		status = core.BillPaid
	}
	return core.BillReminder{
		Name:     g.faker.Company() + " bill",
		Amount:   money(g.faker.Price(200, 8000)),
		DueDate:  g.date(10, 30).Format("2006-01-02"),
		Status:   status,
		Category: g.faker.RandomString(categories),
	}
}

func (g *Generator) Income() core.Income {
	source := g.faker.RandomString(incomeSources)
	return core.Income{
		Amount:      money(g.faker.Price(5000, 150000)),
		Source:      source,
		Description: source + " " + g.now.Format("January"),
		Date:        g.date(60, 0).Format("2006-01-02"),
		IsRecurring: source == "salary",
		User:        g.faker.RandomString(members),
	}
}

// Run creates n records of every kind through the repositories
func Run(ctx context.Context, records *repository.Set, g *Generator, n int, logger *log.Logger) (Counts, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSeed)

	counts := Counts{}
	steps := []struct {
		bucket string
		create func(context.Context) error
	}{
		{core.BucketExpenses, func(ctx context.Context) error { _, err := records.Expenses.Create(ctx, g.Expense()); return err }},
		{core.BucketBudgets, func(ctx context.Context) error { _, err := records.Budgets.Create(ctx, g.Budget()); return err }},
		{core.BucketGoals, func(ctx context.Context) error { _, err := records.Goals.Create(ctx, g.Goal()); return err }},
		{core.BucketInvestments, func(ctx context.Context) error { _, err := records.Investments.Create(ctx, g.Investment()); return err }},
		{core.BucketBills, func(ctx context.Context) error { _, err := records.Bills.Create(ctx, g.Bill()); return err }},
		{core.BucketIncome, func(ctx context.Context) error { _, err := records.Income.Create(ctx, g.Income()); return err }},
	}

	for _, step := range steps {
		for i := 0; i < n; i++ {
			if err := step.create(ctx); err != nil {
				return counts, fmt.Errorf("seed %s: %w", step.bucket, err)
			}
			counts[step.bucket]++
		}
		logger.Info("Seeded bucket", log.FieldBucket, step.bucket, log.FieldCount, counts[step.bucket])
	}
	return counts, nil
}
