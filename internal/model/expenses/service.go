package expenses

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"max.ks1230/spendings/internal/clients/kafka"
	"max.ks1230/spendings/internal/entity/expense"
	"max.ks1230/spendings/internal/entity/user"
	"max.ks1230/spendings/internal/logger"
	"max.ks1230/spendings/internal/model/storage"
)

const (
	defaultColor       = "#6b7280"
	maxCategoryName    = 64
	defaultRecentLimit = 5
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type Storage interface {
	GetUserExpenses(ctx context.Context, userID int64, from, to time.Time) ([]expense.Record, error)
	ListExpenses(ctx context.Context, userID int64, opts storage.ListOptions) ([]expense.Listed, error)
	AddExpense(ctx context.Context, userID int64, d expense.Draft) (expense.Record, error)
	UpdateExpense(ctx context.Context, userID, id int64, d expense.Draft) error
	DeleteExpense(ctx context.Context, userID, id int64) error
	GetCategories(ctx context.Context, userID int64) ([]expense.Category, error)
	CreateCategory(ctx context.Context, userID int64, c expense.Category) (expense.Category, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (user.Record, error)
	LinkTelegram(ctx context.Context, userID, telegramID int64) error
}

type CategoryCache interface {
	CacheCategories(userID int64, categories []expense.Category) error
	GetCategories(userID int64) ([]expense.Category, error)
	InvalidateCategories(userID int64) error
}

type EventPublisher interface {
	PublishLedgerChange(event kafka.LedgerEvent) error
}

// Service owns every ledger mutation. Mutations are scoped to (id, user) and announced after commit.
type Service struct {
	storage     Storage
	cache       CategoryCache
	publisher   EventPublisher
	recentLimit int
	now         func() time.Time
}

// New builds the service. cache and publisher may be nil.
func New(storage Storage, cache CategoryCache, publisher EventPublisher, recentLimit int) *Service {
	if cache == nil {
		cache = noCache{}
	}
	if publisher == nil {
		publisher = noPublisher{}
	}
	if recentLimit <= 0 {
		recentLimit = defaultRecentLimit
	}
	return &Service{
		storage:     storage,
		cache:       cache,
		publisher:   publisher,
		recentLimit: recentLimit,
		now:         time.Now,
	}
}

func (s *Service) GetUserExpenses(ctx context.Context, userID int64, from, to time.Time) ([]expense.Record, error) {
	return s.storage.GetUserExpenses(ctx, userID, from, to)
}

func (s *Service) ListExpenses(ctx context.Context, userID int64) ([]expense.Listed, error) {
	res, err := s.storage.ListExpenses(ctx, userID, storage.ListOptions{})
	return res, errors.Wrap(err, "list expenses")
}

func (s *Service) RecentExpenses(ctx context.Context, userID int64, limit int) ([]expense.Listed, error) {
	if limit <= 0 {
		limit = s.recentLimit
	}
	res, err := s.storage.ListExpenses(ctx, userID, storage.ListOptions{Limit: uint64(limit)})
	return res, errors.Wrap(err, "recent expenses")
}

func (s *Service) SearchExpenses(ctx context.Context, userID int64, query string) ([]expense.Listed, error) {
	res, err := s.storage.ListExpenses(ctx, userID, storage.ListOptions{Query: query})
	return res, errors.Wrap(err, "search expenses")
}

func (s *Service) AddExpense(ctx context.Context, userID int64, d expense.Draft) (expense.Record, error) {
	if err := s.checkDraft(ctx, userID, &d); err != nil {
		return expense.Record{}, errors.Wrap(err, "add expense")
	}
	rec, err := s.storage.AddExpense(ctx, userID, d)
	if err != nil {
		return expense.Record{}, errors.Wrap(err, "add expense")
	}
	logger.Info("expense added", zap.Int64("userID", userID), zap.Int64("expenseID", rec.ID))
	s.announce(userID, kafka.ReasonExpenseAdded)
	return rec, nil
}

func (s *Service) UpdateExpense(ctx context.Context, userID, id int64, d expense.Draft) error {
	if id <= 0 {
		return errors.Wrap(expense.ErrNotFound, "update expense")
	}
	if err := s.checkDraft(ctx, userID, &d); err != nil {
		return errors.Wrap(err, "update expense")
	}
	if err := s.storage.UpdateExpense(ctx, userID, id, d); err != nil {
		return errors.Wrap(err, "update expense")
	}
	logger.Info("expense updated", zap.Int64("userID", userID), zap.Int64("expenseID", id))
	s.announce(userID, kafka.ReasonExpenseUpdated)
	return nil
}

func (s *Service) DeleteExpense(ctx context.Context, userID, id int64) error {
	if id <= 0 {
		return errors.Wrap(expense.ErrNotFound, "delete expense")
	}
	if err := s.storage.DeleteExpense(ctx, userID, id); err != nil {
		return errors.Wrap(err, "delete expense")
	}
	logger.Info("expense deleted", zap.Int64("userID", userID), zap.Int64("expenseID", id))
	s.announce(userID, kafka.ReasonExpenseDeleted)
	return nil
}

func (s *Service) checkDraft(ctx context.Context, userID int64, d *expense.Draft) error {
	d.Normalize()
	if err := d.Validate(); err != nil {
		return err
	}
	categories, err := s.GetCategories(ctx, userID)
	if err != nil {
		return err
	}
	for _, c := range categories {
		if c.ID == d.CategoryID {
			return nil
		}
	}
	return expense.ErrInvalidCategory
}

// announce runs after the write is committed, so a failed publish is logged and not returned.
func (s *Service) announce(userID int64, reason string) {
	err := s.publisher.PublishLedgerChange(kafka.LedgerEvent{
		UserID:    userID,
		ChangedAt: s.now(),
		Reason:    reason,
	})
	if err != nil {
		logger.Error("failed to announce ledger change",
			zap.Int64("userID", userID), zap.String("reason", reason), zap.Error(err))
	}
}

func (s *Service) GetCategories(ctx context.Context, userID int64) ([]expense.Category, error) {
	cached, err := s.cache.GetCategories(userID)
	if err == nil {
		return cached, nil
	}

	categories, err := s.storage.GetCategories(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get categories")
	}
	if err = s.cache.CacheCategories(userID, categories); err != nil {
		logger.Warn("failed to cache categories", zap.Int64("userID", userID), zap.Error(err))
	}
	return categories, nil
}

func (s *Service) CreateCategory(ctx context.Context, userID int64, name, color string) (expense.Category, error) {
	name = strings.TrimSpace(name)
	color = strings.TrimSpace(color)
	if name == "" || len(name) > maxCategoryName {
		return expense.Category{}, errors.Wrap(expense.ErrEmptyCategory, "create category")
	}
	if color == "" {
		color = defaultColor
	}
	if !colorPattern.MatchString(color) {
		return expense.Category{}, errors.Wrap(expense.ErrInvalidColor, "create category")
	}

	c, err := s.storage.CreateCategory(ctx, userID, expense.Category{Name: name, Color: color})
	if err != nil {
		return expense.Category{}, errors.Wrap(err, "create category")
	}
	if err = s.cache.InvalidateCategories(userID); err != nil {
		logger.Warn("failed to invalidate categories", zap.Int64("userID", userID), zap.Error(err))
	}
	return c, nil
}

func (s *Service) LinkTelegram(ctx context.Context, userID, telegramID int64) error {
	if telegramID <= 0 {
		return errors.Wrap(user.ErrInvalidID, "link telegram")
	}
	return errors.Wrap(s.storage.LinkTelegram(ctx, userID, telegramID), "link telegram")
}

func (s *Service) UserByTelegram(ctx context.Context, telegramID int64) (user.Record, error) {
	rec, err := s.storage.GetUserByTelegramID(ctx, telegramID)
	return rec, errors.Wrap(err, "user by telegram")
}

type noCache struct{}

func (noCache) CacheCategories(int64, []expense.Category) error { return nil }

func (noCache) GetCategories(int64) ([]expense.Category, error) {
	return nil, errors.New("cache disabled")
}

func (noCache) InvalidateCategories(int64) error { return nil }

type noPublisher struct{}

func (noPublisher) PublishLedgerChange(kafka.LedgerEvent) error { return nil }
