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
)

func TestTrends(t *testing.T) {
	a := NewAggregator(&fakeLedger{records: []expense.Record{
		rec(1, "30", "2026-10-01", food.ID),
		rec(2, "15", "2026-10-01", food.ID),
		rec(3, "60", "2026-09-30", food.ID),
		rec(4, "10", "2026-09-02", food.ID),
		rec(5, "999", "2026-08-31", food.ID),
	}})

	trends, err := a.Trends(context.Background(), testUser, day("2026-10-01"))
	require.NoError(t, err)

	// today 45 vs yesterday 60, month 45/2 vs 70/2
	assert.True(t, trends.TodayPct.Valid)
	assertDecimal(t, "-25", trends.TodayPct.Decimal)
	assertDecimal(t, "-35.71", trends.MonthPct.Decimal)
	assertDecimal(t, "0", trends.TransactionsPct.Decimal)
	assertDecimal(t, "-35.71", trends.AveragePct.Decimal)
}

func TestTrends_NormalizesRecordTimeOfDay(t *testing.T) {
	today := rec(1, "30", "2026-10-19", food.ID)
	today.Date = today.Date.Add(20 * time.Hour)
	yesterday := rec(2, "15", "2026-10-18", food.ID)
	yesterday.Date = yesterday.Date.Add(time.Hour)

	l := &ledgerMock{}
	l.On("GetUserExpenses", mock.Anything, testUser, mock.Anything, mock.Anything).
		Return([]expense.Record{today, yesterday}, nil)

	trends, err := NewAggregator(l).Trends(context.Background(), testUser, day("2026-10-19"))
	require.NoError(t, err)
	require.True(t, trends.TodayPct.Valid)
	assertDecimal(t, "100", trends.TodayPct.Decimal)
}

func TestTrends_NullWithoutBaseline(t *testing.T) {
	a := NewAggregator(&fakeLedger{records: []expense.Record{rec(1, "30", "2026-10-19", food.ID)}})

	trends, err := a.Trends(context.Background(), testUser, day("2026-10-19"))
	require.NoError(t, err)
	assert.False(t, trends.TodayPct.Valid)
	assert.False(t, trends.MonthPct.Valid)
	assert.False(t, trends.TransactionsPct.Valid)
	assert.False(t, trends.AveragePct.Valid)
}

func TestTrends_StorageFailure(t *testing.T) {
	l := &ledgerMock{}
	l.On("GetUserExpenses", mock.Anything, testUser, day("2026-02-01"), day("2026-03-31")).
		Return(nil, errors.New("down"))

	trends, err := NewAggregator(l).Trends(context.Background(), testUser, day("2026-03-15"))
	assert.Error(t, err)
	assert.Nil(t, trends)
	l.AssertExpectations(t)
}

func TestPercentChange(t *testing.T) {
	assert.False(t, percentChange(decimal.NewFromInt(5), decimal.Zero).Valid)

	res := percentChange(decimal.NewFromInt(1), decimal.NewFromInt(3))
	require.True(t, res.Valid)
	assertDecimal(t, "-66.67", res.Decimal)
}
