package reports

import (
	"context"
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

var hundred = decimal.NewFromInt(100)

type periodTotals struct {
	total decimal.Decimal
	count int
}

func (p *periodTotals) add(amount decimal.Decimal) {
	p.total = p.total.Add(amount)
	p.count++
}

// Trends compares today with yesterday and the current calendar month with the previous one.
func (a *Aggregator) Trends(ctx context.Context, userID int64, today time.Time) (trends *summary.Trends, err error) {
	logger.Info("Trends - start", zap.Int64("userID", userID), zap.Time("today", today))
	defer logger.Info("Trends - end", zap.Int64("userID", userID))

	span, ctx := opentracing.StartSpanFromContext(ctx, "trends")
	defer span.Finish()

	start := time.Now()
	defer func() {
		observeAggregation("trends", time.Since(start), err != nil)
		if err != nil {
			ext.Error.Set(span, true)
		}
	}()

	w := newWindows(today)
	yesterday := w.today.AddDate(0, 0, -1)
	prevStart := now.With(w.monthStart.AddDate(0, 0, -1)).BeginningOfMonth()
	prevEnd := w.monthStart.AddDate(0, 0, -1)

	records, err := a.ledger.GetUserExpenses(ctx, userID, prevStart, w.monthEnd)
	if err != nil {
		return nil, errors.Wrap(err, "trends")
	}

	var cur, prev, todays, yesterdays periodTotals
	for _, rec := range validRecords(userID, records) {
		d := expense.Day(rec.Date)
		switch {
		case inRange(d, w.monthStart, w.monthEnd):
			cur.add(rec.Amount)
		case inRange(d, prevStart, prevEnd):
			prev.add(rec.Amount)
		}
		switch {
		case d.Equal(w.today):
			todays.add(rec.Amount)
		case d.Equal(yesterday):
			yesterdays.add(rec.Amount)
		}
	}

	return &summary.Trends{
		TodayPct:        percentChange(todays.total, yesterdays.total),
		MonthPct:        percentChange(cur.total, prev.total),
		TransactionsPct: percentChange(decimal.NewFromInt(int64(cur.count)), decimal.NewFromInt(int64(prev.count))),
		AveragePct:      percentChange(average(cur.total, cur.count), average(prev.total, prev.count)),
	}, nil
}

func percentChange(current, baseline decimal.Decimal) decimal.NullDecimal {
	if baseline.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(
		current.Sub(baseline).Div(baseline).Mul(hundred).Round(averagePlaces),
	)
}
