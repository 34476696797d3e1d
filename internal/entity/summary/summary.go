package summary

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DailyWindowDays    = 7
	MonthlyWindowMonth = 6

	monthLabelLayout = "Jan 2006"
)

func init() {
	// amounts are JSON numbers on every surface: HTTP, Kafka and gRPC payloads
	decimal.MarshalJSONWithoutQuotes = true
}

// Report is the dashboard summary of one user's ledger at a point in time.
type Report struct {
	TodayTotal        decimal.Decimal `json:"today_total"`
	MonthTotal        decimal.Decimal `json:"month_total"`
	TotalTransactions int             `json:"total_transactions"`
	AverageExpense    decimal.Decimal `json:"average_expense"`
	Categories        []CategoryTotal `json:"categories"`
	Daily             []DailyTotal    `json:"daily"`
	Monthly           []MonthlyTotal  `json:"monthly"`
}

type CategoryTotal struct {
	Name  string          `json:"name"`
	Color string          `json:"color"`
	Total decimal.Decimal `json:"total"`
}

type DailyTotal struct {
	Day   string          `json:"day"`
	Total decimal.Decimal `json:"total"`
}

type MonthlyTotal struct {
	Label string          `json:"month_label"`
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// Trends compares the current period against an explicit baseline.
// Today is compared with the previous calendar day, everything else with the previous calendar month.
// A field is null when its baseline is zero.
type Trends struct {
	TodayPct        decimal.NullDecimal `json:"today_pct"`
	MonthPct        decimal.NullDecimal `json:"month_pct"`
	TransactionsPct decimal.NullDecimal `json:"tx_pct"`
	AveragePct      decimal.NullDecimal `json:"avg_pct"`
}

// Update is what the reporter pushes to the server after a ledger change.
// Exactly one of Report and Error is set.
type Update struct {
	UserID      int64     `json:"user_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Report      *Report   `json:"report,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Empty returns the report of a user with no expenses in any window.
func Empty(today time.Time) *Report {
	return &Report{
		TodayTotal:     decimal.Zero,
		MonthTotal:     decimal.Zero,
		AverageExpense: decimal.Zero,
		Categories:     []CategoryTotal{},
		Daily:          DailySkeleton(today),
		Monthly:        []MonthlyTotal{},
	}
}

// DailySkeleton returns the zero-filled daily series ending at today.
func DailySkeleton(today time.Time) []DailyTotal {
	res := make([]DailyTotal, 0, DailyWindowDays)
	for i := DailyWindowDays - 1; i >= 0; i-- {
		res = append(res, DailyTotal{
			Day:   today.AddDate(0, 0, -i).Format("2006-01-02"),
			Total: decimal.Zero,
		})
	}
	return res
}

func NewMonthlyTotal(year int, month time.Month, total decimal.Decimal) MonthlyTotal {
	return MonthlyTotal{
		Label: time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format(monthLabelLayout),
		Year:  year,
		Month: int(month),
		Total: total,
	}
}
