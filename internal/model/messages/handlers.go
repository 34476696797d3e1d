package messages

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"max.ks1230/spendings/internal/entity/expense"
	"max.ks1230/spendings/internal/entity/summary"
	"max.ks1230/spendings/internal/entity/user"
	"max.ks1230/spendings/internal/logger"
)

const (
	dontUnderstandMessage = "I don't understand you :("
	helloMessage          = "Hello! I am Spendings bot 🤖\nYour Telegram id is %d. Add it to your profile to use me."
	helpMessage           = "Commands:\n/summary\n/expense <category> <amount> [yyyy-mm-dd]\n/recent\n/categories"
	okMessage             = "Gotcha!"
	noExpensesMessage     = "You have no expenses yet"
	notLinkedMessage      = "Your Telegram account is not linked yet. Send /start to get your id."

	incorrectUsageMessage    = "That is an incorrect command usage"
	incorrectExpenseMessage  = "Your expense amount is incorrect"
	incorrectDateMessage     = "The date is incorrect. Should be yyyy-mm-dd"
	unknownCategoryMessage   = "There is no such category. Send /categories to see them"
	summaryUnavailable       = "Summary unavailable. Try later"
	cannotGetExpensesMessage = "Can't get your expenses atm. Try later"
	cannotSaveExpenseMessage = "Can't save your expense atm. Try later"
)

const (
	startCommand      = "/start"
	helpCommand       = "/help"
	summaryCommand    = "/summary"
	expenseCommand    = "/expense"
	recentCommand     = "/recent"
	categoriesCommand = "/categories"
)

type ledger interface {
	UserByTelegram(ctx context.Context, telegramID int64) (user.Record, error)
	AddExpense(ctx context.Context, userID int64, d expense.Draft) (expense.Record, error)
	RecentExpenses(ctx context.Context, userID int64, limit int) ([]expense.Listed, error)
	GetCategories(ctx context.Context, userID int64) ([]expense.Category, error)
}

type summarizer interface {
	Summarize(ctx context.Context, userID int64, today time.Time) (*summary.Report, error)
}

type config interface {
	Location() *time.Location
}

type handler func(ctx context.Context, arg string, telegramID int64) (string, error)

type linkedHandler func(ctx context.Context, arg string, userID int64) (string, error)

type handlerMap map[string]handler

type HandlerService struct {
	handlersMap handlerMap
	ledger      ledger
	summaries   summarizer
	location    *time.Location
	now         func() time.Time
}

func newHandler(ledger ledger, summaries summarizer, cfg config) *HandlerService {
	res := &HandlerService{
		ledger:    ledger,
		summaries: summaries,
		location:  cfg.Location(),
		now:       time.Now,
	}
	res.handlersMap = newMap(res)
	return res
}

func (s *HandlerService) HandleMessage(ctx context.Context, text string, telegramID int64) (string, error) {
	cmd, arg := parseCommand(text)

	handler, ok := s.handlersMap[cmd]
	if ok {
		return handler(ctx, arg, telegramID)
	}
	return dontUnderstandMessage, nil
}

func newMap(s *HandlerService) handlerMap {
	m := make(handlerMap)
	m[startCommand] = s.handleStart
	m[helpCommand] = s.handleHelp
	m[summaryCommand] = s.linked(s.handleSummary)
	m[expenseCommand] = s.linked(s.handleExpense)
	m[recentCommand] = s.linked(s.handleRecent)
	m[categoriesCommand] = s.linked(s.handleCategories)

	m[""] = s.handleHelp

	return m
}

// linked resolves the Telegram account to a ledger owner before running h.
func (s *HandlerService) linked(h linkedHandler) handler {
	return func(ctx context.Context, arg string, telegramID int64) (string, error) {
		u, err := s.ledger.UserByTelegram(ctx, telegramID)
		if errors.Is(err, user.ErrNotLinked) {
			return notLinkedMessage, nil
		}
		if err != nil {
			return cannotGetExpensesMessage, errors.Wrap(err, "resolve user")
		}
		return h(ctx, arg, u.ID)
	}
}

func (s *HandlerService) today() time.Time {
	return s.now().In(s.location)
}

func (s *HandlerService) handleStart(_ context.Context, _ string, telegramID int64) (string, error) {
	return formatHello(telegramID), nil
}

func (s *HandlerService) handleHelp(context.Context, string, int64) (string, error) {
	return helpMessage, nil
}

func (s *HandlerService) handleSummary(ctx context.Context, _ string, userID int64) (string, error) {
	report, err := s.summaries.Summarize(ctx, userID, s.today())
	if err != nil {
		return summaryUnavailable, errors.Wrap(err, "handle summary")
	}
	if report.TotalTransactions == 0 && len(report.Monthly) == 0 {
		return noExpensesMessage, nil
	}
	return formatSummary(report), nil
}

func (s *HandlerService) handleExpense(ctx context.Context, arg string, userID int64) (string, error) {
	args := strings.Fields(arg)
	if len(args) < 2 {
		return incorrectUsageMessage, nil
	}
	amount, err := decimal.NewFromString(args[1])
	if err != nil || !amount.IsPositive() {
		return incorrectExpenseMessage, nil
	}
	date := s.today()
	if len(args) > 2 {
		date, err = expense.ParseDay(args[2])
		if err != nil {
			return incorrectDateMessage, nil
		}
	}

	categories, err := s.ledger.GetCategories(ctx, userID)
	if err != nil {
		return cannotSaveExpenseMessage, errors.Wrap(err, "handle expense")
	}
	categoryID, ok := findCategory(categories, args[0])
	if !ok {
		return unknownCategoryMessage, nil
	}

	rec, err := s.ledger.AddExpense(ctx, userID, expense.Draft{
		Amount:      amount,
		CategoryID:  categoryID,
		Date:        date,
		Description: strings.Join(args[min(3, len(args)):], " "),
	})
	if expense.IsValidation(err) {
		return incorrectExpenseMessage, nil
	}
	if err != nil {
		return cannotSaveExpenseMessage, errors.Wrap(err, "handle expense")
	}
	logger.Info("expense added from telegram", zap.Int64("userID", userID), zap.Int64("expenseID", rec.ID))
	return okMessage, nil
}

func (s *HandlerService) handleRecent(ctx context.Context, arg string, userID int64) (string, error) {
	limit, _ := strconv.Atoi(strings.TrimSpace(arg))
	recent, err := s.ledger.RecentExpenses(ctx, userID, limit)
	if err != nil {
		return cannotGetExpensesMessage, errors.Wrap(err, "handle recent")
	}
	if len(recent) == 0 {
		return noExpensesMessage, nil
	}
	return formatRecent(recent), nil
}

func (s *HandlerService) handleCategories(ctx context.Context, _ string, userID int64) (string, error) {
	categories, err := s.ledger.GetCategories(ctx, userID)
	if err != nil {
		return cannotGetExpensesMessage, errors.Wrap(err, "handle categories")
	}
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return strings.Join(names, "\n"), nil
}

func findCategory(categories []expense.Category, name string) (int64, bool) {
	for _, c := range categories {
		if strings.EqualFold(c.Name, name) {
			return c.ID, true
		}
	}
	return 0, false
}
