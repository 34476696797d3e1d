package messages

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const otherCommand = "other"

var histogramResponseTime = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "spendings",
		Subsystem: "bot",
		Name:      "command_duration_seconds",
		Help:      "Time to answer a Telegram command, including storage and aggregation.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	},
	[]string{"command", "error"},
)

var knownCommands = map[string]struct{}{
	startCommand:      {},
	helpCommand:       {},
	summaryCommand:    {},
	expenseCommand:    {},
	recentCommand:     {},
	categoriesCommand: {},
}

// commandLabel keeps the metric's label set bounded to the commands the bot understands.
func commandLabel(text string) string {
	cmd, _ := parseCommand(text)
	if _, ok := knownCommands[cmd]; ok {
		return cmd
	}
	return otherCommand
}

func observeResponse(command string, elapsed time.Duration, err bool) {
	histogramResponseTime.
		WithLabelValues(command, strconv.FormatBool(err)).
		Observe(elapsed.Seconds())
}
