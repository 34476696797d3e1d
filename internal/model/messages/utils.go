package messages

import (
	"fmt"
	"strings"

	"max.ks1230/spendings/internal/entity/expense"
	"max.ks1230/spendings/internal/entity/summary"
)

const commandParts = 2

func parseCommand(text string) (cmd, arg string) {
	text = strings.TrimSpace(text)
	split := strings.SplitN(text, " ", commandParts)

	if len(split) == commandParts && strings.HasPrefix(split[0], "/") {
		return split[0], split[1]
	}
	if strings.HasPrefix(text, "/") {
		return text, ""
	}
	return "", text
}

func formatHello(telegramID int64) string {
	return fmt.Sprintf(helloMessage, telegramID)
}

func formatSummary(report *summary.Report) string {
	res := []string{
		fmt.Sprintf("Today: %s", report.TodayTotal.StringFixed(2)),
		fmt.Sprintf("This month: %s in %d expenses (avg %s)",
			report.MonthTotal.StringFixed(2), report.TotalTransactions, report.AverageExpense.StringFixed(2)),
	}
	if len(report.Categories) > 0 {
		res = append(res, "")
		for _, c := range report.Categories {
			res = append(res, fmt.Sprintf("%s: %s", c.Name, c.Total.StringFixed(2)))
		}
	}
	if len(report.Monthly) > 0 {
		res = append(res, "")
		for _, m := range report.Monthly {
			res = append(res, fmt.Sprintf("%s: %s", m.Label, m.Total.StringFixed(2)))
		}
	}
	return strings.Join(res, "\n")
}

func formatRecent(recent []expense.Listed) string {
	res := make([]string, 0, len(recent))
	for _, e := range recent {
		line := fmt.Sprintf("%s %s: %s", e.Day, e.CategoryName, e.Amount.StringFixed(2))
		if e.Description != "" {
			line += " (" + e.Description + ")"
		}
		res = append(res, line)
	}
	return strings.Join(res, "\n")
}
