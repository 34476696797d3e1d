package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"max.ks1230/spendings/internal/entity/expense"
	"max.ks1230/spendings/internal/entity/user"
)

// InMemStorage keeps the ledger in process memory. It backs development runs and tests.
type InMemStorage struct {
	mu             sync.RWMutex
	expenses       map[int64]expense.Record
	categories     map[int64]expense.Category
	telegramLinks  map[int64]int64
	nextExpenseID  int64
	nextCategoryID int64
	clock          func() time.Time
}

func NewInMemStorage() *InMemStorage {
	s := &InMemStorage{
		expenses:      make(map[int64]expense.Record),
		categories:    make(map[int64]expense.Category),
		telegramLinks: make(map[int64]int64),
		clock:         time.Now,
	}
	for _, c := range defaultCategories {
		s.nextCategoryID++
		c.ID = s.nextCategoryID
		s.categories[c.ID] = c
	}
	return s
}

func (s *InMemStorage) GetUserExpenses(_ context.Context, userID int64, from, to time.Time) ([]expense.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, to = expense.Day(from), expense.Day(to)
	res := make([]expense.Record, 0)
	for _, e := range s.expenses {
		if e.UserID == userID && !e.Date.Before(from) && !e.Date.After(to) {
			res = append(res, e)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *InMemStorage) ListExpenses(_ context.Context, userID int64, opts ListOptions) ([]expense.Listed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(opts.Query))
	res := make([]expense.Listed, 0)
	for _, e := range s.expenses {
		if e.UserID != userID {
			continue
		}
		c := s.categories[e.CategoryID]
		if q != "" &&
			!strings.Contains(strings.ToLower(e.Description), q) &&
			!strings.Contains(strings.ToLower(c.Name), q) {
			continue
		}
		res = append(res, e.ToListed(c))
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].Date.Equal(res[j].Date) {
			return res[i].Date.After(res[j].Date)
		}
		if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].CreatedAt.After(res[j].CreatedAt)
		}
		return res[i].ID > res[j].ID
	})
	if opts.Limit > 0 && uint64(len(res)) > opts.Limit {
		res = res[:opts.Limit]
	}
	return res, nil
}

func (s *InMemStorage) AddExpense(_ context.Context, userID int64, d expense.Draft) (expense.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextExpenseID++
	rec := expense.Record{
		ID:          s.nextExpenseID,
		UserID:      userID,
		Amount:      d.Amount,
		CategoryID:  d.CategoryID,
		Date:        expense.Day(d.Date),
		Description: d.Description,
		CreatedAt:   s.clock(),
	}
	s.expenses[rec.ID] = rec
	return rec, nil
}

func (s *InMemStorage) UpdateExpense(_ context.Context, userID, id int64, d expense.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.expenses[id]
	if !ok || rec.UserID != userID {
		return expense.ErrNotFound
	}
	rec.Amount = d.Amount
	rec.CategoryID = d.CategoryID
	rec.Date = expense.Day(d.Date)
	rec.Description = d.Description
	s.expenses[id] = rec
	return nil
}

func (s *InMemStorage) DeleteExpense(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.expenses[id]
	if !ok || rec.UserID != userID {
		return expense.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *InMemStorage) GetCategories(_ context.Context, userID int64) ([]expense.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]expense.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if c.UserID == 0 || c.UserID == userID {
			res = append(res, c)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Name != res[j].Name {
			return res[i].Name < res[j].Name
		}
		return res[i].ID < res[j].ID
	})
	return res, nil
}

func (s *InMemStorage) CreateCategory(_ context.Context, userID int64, c expense.Category) (expense.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.categories {
		if existing.UserID == userID && strings.EqualFold(existing.Name, c.Name) {
			return expense.Category{}, expense.ErrCategoryConflict
		}
	}
	s.nextCategoryID++
	c.ID = s.nextCategoryID
	c.UserID = userID
	s.categories[c.ID] = c
	return c, nil
}

func (s *InMemStorage) GetUserByTelegramID(_ context.Context, telegramID int64) (user.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for userID, tgID := range s.telegramLinks {
		if tgID == telegramID {
			res := user.Record{ID: userID}
			res.SetTelegramID(tgID)
			return res, nil
		}
	}
	return user.Record{}, user.ErrNotLinked
}

func (s *InMemStorage) LinkTelegram(_ context.Context, userID, telegramID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for other, tgID := range s.telegramLinks {
		if tgID == telegramID && other != userID {
			return user.ErrTelegramTaken
		}
	}
	s.telegramLinks[userID] = telegramID
	return nil
}
