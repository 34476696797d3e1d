package reports

import (
	"context"
	"sort"
	"time"

	"github.com/jinzhu/now"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"max.ks1230/spendings/internal/entity/expense"
	"max.ks1230/spendings/internal/entity/summary"
	"max.ks1230/spendings/internal/logger"
)

const (
	uncategorizedName  = "Uncategorized"
	uncategorizedColor = "#9ca3af"
	averagePlaces      = 2
)

// ledger returns records with from <= date <= to, both bounds inclusive.
type ledger interface {
	GetUserExpenses(ctx context.Context, userID int64, from, to time.Time) ([]expense.Record, error)
	GetCategories(ctx context.Context, userID int64) ([]expense.Category, error)
}

// Aggregator computes dashboard summaries from a user's ledger. It holds no state between calls.
type Aggregator struct {
	ledger ledger
}

func NewAggregator(ledger ledger) *Aggregator {
	return &Aggregator{ledger: ledger}
}

type windows struct {
	today       time.Time
	monthStart  time.Time
	monthEnd    time.Time
	dailyFrom   time.Time
	monthlyFrom time.Time
}

func newWindows(today time.Time) windows {
	today = expense.Day(today)
	month := now.With(today)
	return windows{
		today:       today,
		monthStart:  month.BeginningOfMonth(),
		monthEnd:    expense.Day(month.EndOfMonth()),
		dailyFrom:   today.AddDate(0, 0, -(summary.DailyWindowDays - 1)),
		monthlyFrom: monthsBefore(today, summary.MonthlyWindowMonth),
	}
}

// monthsBefore moves back n calendar months, clamping the day to the target month's length.
func monthsBefore(day time.Time, n int) time.Time {
	first := time.Date(day.Year(), day.Month()-time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := now.With(first).EndOfMonth().Day()
	d := day.Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func inRange(day, from, to time.Time) bool {
	return !day.Before(from) && !day.After(to)
}

// Summarize builds the summary report of userID as of today.
// A storage failure yields an error and no report.
func (a *Aggregator) Summarize(ctx context.Context, userID int64, today time.Time) (report *summary.Report, err error) {
	logger.Info("Summarize - start", zap.Int64("userID", userID), zap.Time("today", today))
	defer logger.Info("Summarize - end", zap.Int64("userID", userID))

	span, ctx := opentracing.StartSpanFromContext(ctx, "summarize")
	defer span.Finish()
	span.SetTag("userID", userID)

	start := time.Now()
	defer func() {
		observeAggregation("summary", time.Since(start), err != nil)
		if err != nil {
			ext.Error.Set(span, true)
		}
	}()

	w := newWindows(today)
	records, categories, err := a.load(ctx, userID, w.monthlyFrom, w.monthEnd)
	if err != nil {
		return nil, errors.Wrap(err, "summarize")
	}
	return buildReport(w, records, categories), nil
}

func (a *Aggregator) load(ctx context.Context, userID int64, from, to time.Time) ([]expense.Record, []expense.Category, error) {
	records, err := a.ledger.GetUserExpenses(ctx, userID, from, to)
	if err != nil {
		return nil, nil, errors.Wrap(err, "load expenses")
	}
	categories, err := a.ledger.GetCategories(ctx, userID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "load categories")
	}
	return validRecords(userID, records), categories, nil
}

// validRecords drops records that must never reach totals: foreign rows and
// rows with a non-positive amount or no date. Every drop is logged and counted.
func validRecords(userID int64, records []expense.Record) []expense.Record {
	res := make([]expense.Record, 0, len(records))
	for _, rec := range records {
		switch {
		case rec.UserID != userID:
			excludeRecord(rec, "foreign user")
		case rec.Malformed():
			excludeRecord(rec, "malformed")
		default:
			res = append(res, rec)
		}
	}
	return res
}

func excludeRecord(rec expense.Record, reason string) {
	excludedRecords.WithLabelValues(reason).Inc()
	logger.Warn("expense excluded from summary",
		zap.Int64("expenseID", rec.ID),
		zap.Int64("userID", rec.UserID),
		zap.String("amount", rec.Amount.String()),
		zap.String("reason", reason),
	)
}

type categoryAcc struct {
	id    int64
	name  string
	color string
	total decimal.Decimal
}

type monthKey struct {
	year  int
	month time.Month
}

func buildReport(w windows, records []expense.Record, categories []expense.Category) *summary.Report {
	report := summary.Empty(w.today)

	dailyIdx := make(map[string]int, len(report.Daily))
	for i, d := range report.Daily {
		dailyIdx[d.Day] = i
	}
	byCategory := make(map[int64]*categoryAcc)
	byMonth := make(map[monthKey]decimal.Decimal)

	for _, rec := range records {
		d := expense.Day(rec.Date)
		if !inRange(d, w.monthlyFrom, w.monthEnd) {
			continue
		}
		key := monthKey{d.Year(), d.Month()}
		byMonth[key] = byMonth[key].Add(rec.Amount)

		if i, ok := dailyIdx[d.Format(expense.DateLayout)]; ok {
			report.Daily[i].Total = report.Daily[i].Total.Add(rec.Amount)
		}
		if d.Equal(w.today) {
			report.TodayTotal = report.TodayTotal.Add(rec.Amount)
		}
		if !inRange(d, w.monthStart, w.monthEnd) {
			continue
		}
		report.MonthTotal = report.MonthTotal.Add(rec.Amount)
		report.TotalTransactions++

		acc, ok := byCategory[rec.CategoryID]
		if !ok {
			acc = &categoryAcc{id: rec.CategoryID, total: decimal.Zero}
			byCategory[rec.CategoryID] = acc
		}
		acc.total = acc.total.Add(rec.Amount)
	}

	report.AverageExpense = average(report.MonthTotal, report.TotalTransactions)
	report.Categories = categoryBreakdown(byCategory, categories)
	report.Monthly = monthlySeries(byMonth)
	return report
}

func average(total decimal.Decimal, count int) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(count))).Round(averagePlaces)
}

func categoryBreakdown(acc map[int64]*categoryAcc, categories []expense.Category) []summary.CategoryTotal {
	names := make(map[int64]expense.Category, len(categories))
	for _, c := range categories {
		names[c.ID] = c
	}

	sorted := make([]*categoryAcc, 0, len(acc))
	for id, a := range acc {
		if c, ok := names[id]; ok {
			a.name, a.color = c.Name, c.Color
		} else {
			a.name, a.color = uncategorizedName, uncategorizedColor
		}
		sorted = append(sorted, a)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if cmp := sorted[i].total.Cmp(sorted[j].total); cmp != 0 {
			return cmp > 0
		}
		if sorted[i].name != sorted[j].name {
			return sorted[i].name < sorted[j].name
		}
		return sorted[i].id < sorted[j].id
	})

	res := make([]summary.CategoryTotal, 0, len(sorted))
	for _, a := range sorted {
		res = append(res, summary.CategoryTotal{Name: a.name, Color: a.color, Total: a.total})
	}
	return res
}

func monthlySeries(byMonth map[monthKey]decimal.Decimal) []summary.MonthlyTotal {
	keys := make([]monthKey, 0, len(byMonth))
	for k, total := range byMonth {
		if total.IsPositive() {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	res := make([]summary.MonthlyTotal, 0, len(keys))
	for _, k := range keys {
		res = append(res, summary.NewMonthlyTotal(k.year, k.month, byMonth[k]))
	}
	return res
}
