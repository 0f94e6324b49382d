package core

// Stats is the payload of GET /api/stats
type Stats struct {
	TotalSpent       float64 `json:"totalSpent"`
	MonthlyBudget    float64 `json:"monthlyBudget"`
	TransactionCount int     `json:"transactionCount"`
	SavingsRate      float64 `json:"savingsRate"`
}

// DashboardStats is the stats block of the dashboard, where savings are measured against income
type DashboardStats struct {
	TotalSpent       float64 `json:"totalSpent"`
	TotalIncome      float64 `json:"totalIncome"`
	MonthlyBudget    float64 `json:"monthlyBudget"`
	TransactionCount int     `json:"transactionCount"`
	SavingsRate      float64 `json:"savingsRate"`
	NetBalance       float64 `json:"netBalance"`
}

// CategorySlice is one slice of the spending-by-category chart
type CategorySlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

type Dashboard struct {
	Stats              DashboardStats  `json:"stats"`
	Expenses           []Expense       `json:"expenses"`
	RecentTransactions []Expense       `json:"recentTransactions"`
	Budgets            []Budget        `json:"budgets"`
	Goals              []Goal          `json:"goals"`
	Bills              []BillReminder  `json:"bills"`
	Incomes            []Income        `json:"incomes"`
	CategoryData       []CategorySlice `json:"categoryData"`
}

// CategoryPalette colors categories that carry no categoryColor of their own
var CategoryPalette = []string{
	"#22c55e", "#ef4444", "#f59e0b", "#3b82f6",
	"#8b5cf6", "#ec4899", "#14b8a6", "#6366f1",
}
