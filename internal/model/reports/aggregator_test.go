package reports

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"max.ks1230/spendings/internal/entity/expense"
	"max.ks1230/spendings/internal/entity/summary"
)

const testUser = int64(42)

var (
	food      = expense.Category{ID: 1, Name: "Food", Color: "#ef4444"}
	transport = expense.Category{ID: 2, Name: "Transport", Color: "#3b82f6"}
	bills     = expense.Category{ID: 3, Name: "Bills", Color: "#f59e0b"}
)

type ledgerMock struct {
	mock.Mock
}

func (m *ledgerMock) GetUserExpenses(ctx context.Context, userID int64, from, to time.Time) ([]expense.Record, error) {
	args := m.Called(ctx, userID, from, to)
	res, _ := args.Get(0).([]expense.Record)
	return res, args.Error(1)
}

func (m *ledgerMock) GetCategories(ctx context.Context, userID int64) ([]expense.Category, error) {
	args := m.Called(ctx, userID)
	res, _ := args.Get(0).([]expense.Category)
	return res, args.Error(1)
}

// fakeLedger honours the inclusive date range like the real storage does.
type fakeLedger struct {
	records    []expense.Record
	categories []expense.Category
}

func (f *fakeLedger) GetUserExpenses(_ context.Context, userID int64, from, to time.Time) ([]expense.Record, error) {
	var res []expense.Record
	for _, r := range f.records {
		if r.UserID == userID && inRange(r.Date, from, to) {
			res = append(res, r)
		}
	}
	return res, nil
}

func (f *fakeLedger) GetCategories(context.Context, int64) ([]expense.Category, error) {
	return f.categories, nil
}

func day(s string) time.Time {
	t, err := time.Parse(expense.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func rec(id int64, amount string, date string, category int64) expense.Record {
	return expense.Record{ID: id, UserID: testUser, Amount: dec(amount), Date: day(date), CategoryID: category}
}

func summarize(t *testing.T, today string, records ...expense.Record) *summary.Report {
	t.Helper()
	a := NewAggregator(&fakeLedger{records: records, categories: []expense.Category{food, transport, bills}})
	report, err := a.Summarize(context.Background(), testUser, day(today))
	require.NoError(t, err)
	return report
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func TestSummarize_SingleRecordToday(t *testing.T) {
	report := summarize(t, "2026-10-19", rec(1, "100.00", "2026-10-19", food.ID))

	assertDecimal(t, "100", report.TodayTotal)
	assertDecimal(t, "100", report.MonthTotal)
	assert.Equal(t, 1, report.TotalTransactions)
	assertDecimal(t, "100", report.AverageExpense)
	require.Len(t, report.Categories, 1)
	assert.Equal(t, "Food", report.Categories[0].Name)
	assert.Equal(t, food.Color, report.Categories[0].Color)
	assertDecimal(t, "100", report.Categories[0].Total)

	require.Len(t, report.Daily, 7)
	assertDecimal(t, "100", report.Daily[6].Total)
	for _, d := range report.Daily[:6] {
		assertDecimal(t, "0", d.Total)
	}
}

func TestSummarize_TwoCategoriesOrderedByTotal(t *testing.T) {
	report := summarize(t, "2026-10-19",
		rec(1, "30.00", "2026-10-02", food.ID),
		rec(2, "45.50", "2026-10-05", transport.ID),
	)

	assertDecimal(t, "75.50", report.MonthTotal)
	assertDecimal(t, "37.75", report.AverageExpense)
	require.Len(t, report.Categories, 2)
	assert.Equal(t, "Transport", report.Categories[0].Name)
	assertDecimal(t, "45.50", report.Categories[0].Total)
	assert.Equal(t, "Food", report.Categories[1].Name)
}

func TestSummarize_EmptyLedger(t *testing.T) {
	report := summarize(t, "2026-10-19")

	assertDecimal(t, "0", report.TodayTotal)
	assertDecimal(t, "0", report.MonthTotal)
	assert.Zero(t, report.TotalTransactions)
	assertDecimal(t, "0", report.AverageExpense)
	assert.NotNil(t, report.Categories)
	assert.Empty(t, report.Categories)
	assert.NotNil(t, report.Monthly)
	assert.Empty(t, report.Monthly)
	require.Len(t, report.Daily, 7)
	for _, d := range report.Daily {
		assertDecimal(t, "0", d.Total)
	}
}

func TestSummarize_DailySeriesShape(t *testing.T) {
	for _, today := range []string{"2026-10-19", "2026-03-01", "2024-02-29", "2027-01-03"} {
		t.Run(today, func(t *testing.T) {
			report := summarize(t, today, rec(1, "5", today, food.ID))

			require.Len(t, report.Daily, summary.DailyWindowDays)
			for i, d := range report.Daily {
				expected := day(today).AddDate(0, 0, -(6 - i)).Format(expense.DateLayout)
				assert.Equal(t, expected, d.Day)
			}
		})
	}
}

func TestSummarize_DailySeriesSpansMonths(t *testing.T) {
	report := summarize(t, "2026-10-02",
		rec(1, "7", "2026-09-28", food.ID),
		rec(2, "3", "2026-10-01", food.ID),
	)

	assert.Equal(t, "2026-09-26", report.Daily[0].Day)
	assertDecimal(t, "7", report.Daily[2].Total)
	assertDecimal(t, "3", report.Daily[5].Total)
	assertDecimal(t, "3", report.MonthTotal)
}

func TestSummarize_MonthTotalEqualsCategorySum(t *testing.T) {
	report := summarize(t, "2026-10-19",
		rec(1, "0.01", "2026-10-01", food.ID),
		rec(2, "19.99", "2026-10-19", food.ID),
		rec(3, "7.333", "2026-10-11", transport.ID),
		rec(4, "12", "2026-10-31", bills.ID),
		rec(5, "500", "2026-09-30", bills.ID),
	)

	sum := decimal.Zero
	for _, c := range report.Categories {
		sum = sum.Add(c.Total)
	}
	assert.True(t, report.MonthTotal.Equal(sum))
	assertDecimal(t, "39.333", report.MonthTotal)
	assert.Equal(t, 4, report.TotalTransactions)
	assertDecimal(t, "9.83", report.AverageExpense)
}

func TestSummarize_AverageRoundsHalfAwayFromZero(t *testing.T) {
	report := summarize(t, "2026-10-19",
		rec(1, "0.01", "2026-10-01", food.ID),
		rec(2, "0.02", "2026-10-02", food.ID),
		rec(3, "0.02", "2026-10-03", food.ID),
		rec(4, "0.05", "2026-10-04", food.ID),
		rec(5, "0.00001", "2026-10-04", food.ID),
		rec(6, "0.00999", "2026-10-04", food.ID),
		rec(7, "0.005", "2026-10-04", food.ID),
		rec(8, "0.005", "2026-10-04", food.ID),
	)

	// 0.12 / 8 = 0.015
	assertDecimal(t, "0.12", report.MonthTotal)
	assertDecimal(t, "0.02", report.AverageExpense)
}

func TestSummarize_CategoryTieBreak(t *testing.T) {
	other := expense.Category{ID: 9, Name: "Food", Color: "#000000"}
	a := NewAggregator(&fakeLedger{
		records: []expense.Record{
			rec(1, "10", "2026-10-01", transport.ID),
			rec(2, "10", "2026-10-01", other.ID),
			rec(3, "10", "2026-10-01", food.ID),
			rec(4, "10", "2026-10-01", bills.ID),
		},
		categories: []expense.Category{food, transport, bills, other},
	})

	report, err := a.Summarize(context.Background(), testUser, day("2026-10-19"))
	require.NoError(t, err)

	var got []string
	for _, c := range report.Categories {
		got = append(got, c.Name+c.Color)
	}
	assert.Equal(t, []string{"Bills#f59e0b", "Food#ef4444", "Food#000000", "Transport#3b82f6"}, got)
}

func TestSummarize_UnknownCategory(t *testing.T) {
	report := summarize(t, "2026-10-19", rec(1, "4", "2026-10-19", 77))

	require.Len(t, report.Categories, 1)
	assert.Equal(t, uncategorizedName, report.Categories[0].Name)
	assert.Equal(t, uncategorizedColor, report.Categories[0].Color)
}

func TestSummarize_MonthlySeries(t *testing.T) {
	report := summarize(t, "2026-10-19",
		rec(1, "1", "2026-04-18", food.ID),
		rec(2, "2", "2026-04-19", food.ID),
		rec(3, "3", "2026-06-01", food.ID),
		rec(4, "4", "2026-06-30", food.ID),
		rec(5, "5", "2026-10-19", food.ID),
		rec(6, "6", "2026-10-25", food.ID),
	)

	require.Len(t, report.Monthly, 3)
	assert.Equal(t, summary.MonthlyTotal{Label: "Apr 2026", Year: 2026, Month: 4, Total: report.Monthly[0].Total}, report.Monthly[0])
	assertDecimal(t, "2", report.Monthly[0].Total)
	assert.Equal(t, "Jun 2026", report.Monthly[1].Label)
	assertDecimal(t, "7", report.Monthly[1].Total)
	assert.Equal(t, "Oct 2026", report.Monthly[2].Label)
	assertDecimal(t, "11", report.Monthly[2].Total)

	for _, m := range report.Monthly {
		assert.True(t, m.Total.IsPositive())
	}
}

func TestSummarize_MonthlySeriesAcrossYear(t *testing.T) {
	report := summarize(t, "2027-02-10",
		rec(1, "1", "2026-11-05", food.ID),
		rec(2, "2", "2027-01-05", food.ID),
		rec(3, "3", "2026-12-24", food.ID),
	)

	require.Len(t, report.Monthly, 3)
	assert.Equal(t, []int{11, 12, 1}, []int{report.Monthly[0].Month, report.Monthly[1].Month, report.Monthly[2].Month})
	assert.Equal(t, 2027, report.Monthly[2].Year)
}

func TestSummarize_QueriesWindow(t *testing.T) {
	l := &ledgerMock{}
	l.On("GetUserExpenses", mock.Anything, testUser, day("2026-02-28"), day("2026-08-31")).
		Return([]expense.Record{}, nil).Once()
	l.On("GetCategories", mock.Anything, testUser).Return([]expense.Category{}, nil).Once()

	_, err := NewAggregator(l).Summarize(context.Background(), testUser, day("2026-08-31"))
	require.NoError(t, err)
	l.AssertExpectations(t)
}

func TestSummarize_StorageFailure(t *testing.T) {
	t.Run("expenses", func(t *testing.T) {
		l := &ledgerMock{}
		l.On("GetUserExpenses", mock.Anything, testUser, mock.Anything, mock.Anything).
			Return(nil, errors.New("connection reset"))

		report, err := NewAggregator(l).Summarize(context.Background(), testUser, day("2026-10-19"))
		assert.Error(t, err)
		assert.Nil(t, report)
	})

	t.Run("categories", func(t *testing.T) {
		l := &ledgerMock{}
		l.On("GetUserExpenses", mock.Anything, testUser, mock.Anything, mock.Anything).
			Return([]expense.Record{rec(1, "1", "2026-10-19", food.ID)}, nil)
		l.On("GetCategories", mock.Anything, testUser).Return(nil, errors.New("timeout"))

		report, err := NewAggregator(l).Summarize(context.Background(), testUser, day("2026-10-19"))
		assert.ErrorContains(t, err, "timeout")
		assert.Nil(t, report)
	})
}

func TestSummarize_ExcludesMalformedAndForeignRecords(t *testing.T) {
	foreign := rec(4, "1000", "2026-10-19", food.ID)
	foreign.UserID = testUser + 1

	l := &ledgerMock{}
	l.On("GetUserExpenses", mock.Anything, testUser, mock.Anything, mock.Anything).Return([]expense.Record{
		rec(1, "10", "2026-10-19", food.ID),
		rec(2, "-5", "2026-10-19", food.ID),
		rec(3, "0", "2026-10-19", food.ID),
		{ID: 5, UserID: testUser, Amount: dec("8"), CategoryID: food.ID},
		foreign,
	}, nil)
	l.On("GetCategories", mock.Anything, testUser).Return([]expense.Category{food}, nil)

	report, err := NewAggregator(l).Summarize(context.Background(), testUser, day("2026-10-19"))
	require.NoError(t, err)
	assertDecimal(t, "10", report.TodayTotal)
	assertDecimal(t, "10", report.MonthTotal)
	assert.Equal(t, 1, report.TotalTransactions)
}

func TestSummarize_Idempotent(t *testing.T) {
	ledger := &fakeLedger{
		records: []expense.Record{
			rec(1, "12.5", "2026-10-19", food.ID),
			rec(2, "3", "2026-09-01", transport.ID),
			rec(3, "3", "2026-10-01", transport.ID),
		},
		categories: []expense.Category{food, transport},
	}
	a := NewAggregator(ledger)

	first, err := a.Summarize(context.Background(), testUser, day("2026-10-19"))
	require.NoError(t, err)
	second, err := a.Summarize(context.Background(), testUser, day("2026-10-19"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSummarize_IgnoresTimeOfDay(t *testing.T) {
	a := NewAggregator(&fakeLedger{records: []expense.Record{rec(1, "2", "2026-10-19", food.ID)}})

	report, err := a.Summarize(context.Background(), testUser, time.Date(2026, 10, 19, 23, 59, 0, 0, time.UTC))
	require.NoError(t, err)
	assertDecimal(t, "2", report.TodayTotal)
}

func TestSummarize_NormalizesRecordTimeOfDay(t *testing.T) {
	withTime := rec(1, "7", "2026-10-19", food.ID)
	withTime.Date = time.Date(2026, 10, 19, 2, 0, 0, 0, time.UTC)
	lateInMonth := rec(2, "3", "2026-10-31", food.ID)
	lateInMonth.Date = time.Date(2026, 10, 31, 18, 0, 0, 0, time.UTC)

	l := &ledgerMock{}
	l.On("GetUserExpenses", mock.Anything, testUser, mock.Anything, mock.Anything).
		Return([]expense.Record{withTime, lateInMonth}, nil)
	l.On("GetCategories", mock.Anything, testUser).Return([]expense.Category{food}, nil)

	report, err := NewAggregator(l).Summarize(context.Background(), testUser, day("2026-10-19"))
	require.NoError(t, err)
	assertDecimal(t, "7", report.TodayTotal)
	assertDecimal(t, "7", report.Daily[6].Total)
	assertDecimal(t, "10", report.MonthTotal)
	assert.Equal(t, 2, report.TotalTransactions)
	require.Len(t, report.Monthly, 1)
	assertDecimal(t, "10", report.Monthly[0].Total)
}

func TestMonthsBefore(t *testing.T) {
	tests := []struct {
		day      string
		n        int
		expected string
	}{
		{"2026-10-19", 6, "2026-04-19"},
		{"2026-08-31", 6, "2026-02-28"},
		{"2024-08-31", 6, "2024-02-29"},
		{"2026-03-31", 6, "2025-09-30"},
		{"2026-01-15", 1, "2025-12-15"},
	}
	for _, tt := range tests {
		t.Run(tt.day, func(t *testing.T) {
			assert.Equal(t, day(tt.expected), monthsBefore(day(tt.day), tt.n))
		})
	}
}
