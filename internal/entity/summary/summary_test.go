package summary

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyTotalJSON(t *testing.T) {
	raw, err := json.Marshal(NewMonthlyTotal(2026, time.October, decimal.RequireFromString("12.5")))
	require.NoError(t, err)

	assert.JSONEq(t, `{"month_label":"Oct 2026","year":2026,"month":10,"total":12.5}`, string(raw))
}

func TestEmptyReportJSON(t *testing.T) {
	raw, err := json.Marshal(Empty(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Len(t, fields, 7)
	for _, key := range []string{"today_total", "month_total", "total_transactions", "average_expense", "categories", "daily", "monthly"} {
		assert.Contains(t, fields, key)
	}
	assert.JSONEq(t, `[]`, string(fields["monthly"]))
	assert.JSONEq(t, `0`, string(fields["today_total"]))
}
