package expenses

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"max.ks1230/spendings/internal/clients/kafka"
	"max.ks1230/spendings/internal/entity/expense"
	"max.ks1230/spendings/internal/entity/user"
	"max.ks1230/spendings/internal/model/storage"
)

type publisherMock struct {
	mock.Mock
}

func (m *publisherMock) PublishLedgerChange(event kafka.LedgerEvent) error {
	return m.Called(event).Error(0)
}

type cacheMock struct {
	mock.Mock
}

func (m *cacheMock) CacheCategories(userID int64, categories []expense.Category) error {
	return m.Called(userID, categories).Error(0)
}

func (m *cacheMock) GetCategories(userID int64) ([]expense.Category, error) {
	args := m.Called(userID)
	res, _ := args.Get(0).([]expense.Category)
	return res, args.Error(1)
}

func (m *cacheMock) InvalidateCategories(userID int64) error {
	return m.Called(userID).Error(0)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func foodID(t *testing.T, st *storage.InMemStorage) int64 {
	t.Helper()
	categories, err := st.GetCategories(context.Background(), 1)
	require.NoError(t, err)
	for _, c := range categories {
		if c.Name == "Food" {
			return c.ID
		}
	}
	t.Fatal("no Food category seeded")
	return 0
}

func draft(categoryID int64, amount string) expense.Draft {
	return expense.Draft{
		Amount:      decimal.RequireFromString(amount),
		CategoryID:  categoryID,
		Date:        day(2026, 10, 19),
		Description: "  lunch  ",
	}
}

func TestAddExpense_StoresAndAnnounces(t *testing.T) {
	ctx := context.Background()
	st := storage.NewInMemStorage()
	pub := &publisherMock{}
	pub.On("PublishLedgerChange", mock.MatchedBy(func(e kafka.LedgerEvent) bool {
		return e.UserID == 1 && e.Reason == kafka.ReasonExpenseAdded
	})).Return(nil).Once()

	svc := New(st, nil, pub, 0)
	rec, err := svc.AddExpense(ctx, 1, draft(foodID(t, st), "12.30"))
	require.NoError(t, err)
	assert.Positive(t, rec.ID)
	assert.Equal(t, "lunch", rec.Description)

	listed, err := svc.ListExpenses(ctx, 1)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Food", listed[0].CategoryName)
	assert.Equal(t, "2026-10-19", listed[0].Day)
	pub.AssertExpectations(t)
}

func TestAddExpense_PublishFailureDoesNotFailWrite(t *testing.T) {
	st := storage.NewInMemStorage()
	pub := &publisherMock{}
	pub.On("PublishLedgerChange", mock.Anything).Return(errors.New("broker down"))

	svc := New(st, nil, pub, 0)
	_, err := svc.AddExpense(context.Background(), 1, draft(foodID(t, st), "5"))
	assert.NoError(t, err)
}

func TestAddExpense_Validation(t *testing.T) {
	st := storage.NewInMemStorage()
	svc := New(st, nil, nil, 0)
	food := foodID(t, st)

	tests := []struct {
		name  string
		draft expense.Draft
		want  error
	}{
		{"zero amount", draft(food, "0"), expense.ErrInvalidAmount},
		{"negative amount", draft(food, "-3"), expense.ErrInvalidAmount},
		{"sub-cent amount", draft(food, "0.004"), expense.ErrInvalidAmount},
		{"three decimal places", draft(food, "12.345"), expense.ErrInvalidAmount},
		{"oversized amount", draft(food, "12345678901234.5"), expense.ErrInvalidAmount},
		{"no category", draft(0, "3"), expense.ErrInvalidCategory},
		{"unknown category", draft(9999, "3"), expense.ErrInvalidCategory},
		{"no date", func() expense.Draft { d := draft(food, "3"); d.Date = time.Time{}; return d }(), expense.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddExpense(context.Background(), 1, tt.draft)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, expense.IsValidation(err))
		})
	}
}

func TestAddExpense_AcceptsBoundaryAmounts(t *testing.T) {
	st := storage.NewInMemStorage()
	svc := New(st, nil, nil, 0)
	food := foodID(t, st)

	for _, amount := range []string{"0.01", "12.300", "9999999999.99"} {
		_, err := svc.AddExpense(context.Background(), 1, draft(food, amount))
		assert.NoError(t, err, amount)
	}
}

func TestUpdateAndDelete_AreScopedToOwner(t *testing.T) {
	ctx := context.Background()
	st := storage.NewInMemStorage()
	svc := New(st, nil, nil, 0)
	food := foodID(t, st)

	rec, err := svc.AddExpense(ctx, 1, draft(food, "10"))
	require.NoError(t, err)

	err = svc.UpdateExpense(ctx, 2, rec.ID, draft(food, "99"))
	assert.ErrorIs(t, err, expense.ErrNotFound)
	err = svc.DeleteExpense(ctx, 2, rec.ID)
	assert.ErrorIs(t, err, expense.ErrNotFound)

	stored, err := st.GetUserExpenses(ctx, 1, day(2026, 1, 1), day(2026, 12, 31))
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].Amount.Equal(decimal.NewFromInt(10)))

	require.NoError(t, svc.UpdateExpense(ctx, 1, rec.ID, draft(food, "11")))
	require.NoError(t, svc.DeleteExpense(ctx, 1, rec.ID))
	assert.ErrorIs(t, svc.DeleteExpense(ctx, 1, rec.ID), expense.ErrNotFound)
}

func TestRecentAndSearch(t *testing.T) {
	ctx := context.Background()
	st := storage.NewInMemStorage()
	svc := New(st, nil, nil, 2)
	food := foodID(t, st)

	for i, desc := range []string{"coffee", "groceries", "cinema"} {
		d := draft(food, "1")
		d.Description = desc
		d.Date = day(2026, 10, 10+i)
		_, err := svc.AddExpense(ctx, 1, d)
		require.NoError(t, err)
	}

	recent, err := svc.RecentExpenses(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "cinema", recent[0].Description)
	assert.Equal(t, "groceries", recent[1].Description)

	found, err := svc.SearchExpenses(ctx, 1, "GROC")
	require.NoError(t, err)
	require.Len(t, found, 1)

	byCategory, err := svc.SearchExpenses(ctx, 1, "foo")
	require.NoError(t, err)
	assert.Len(t, byCategory, 3)
}

func TestGetCategories_UsesCache(t *testing.T) {
	cached := []expense.Category{{ID: 1, Name: "Cached", Color: "#000000"}}
	c := &cacheMock{}
	c.On("GetCategories", int64(1)).Return(cached, nil).Once()

	svc := New(storage.NewInMemStorage(), c, nil, 0)
	res, err := svc.GetCategories(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, cached, res)
	c.AssertExpectations(t)
}

func TestGetCategories_FillsCacheOnMiss(t *testing.T) {
	c := &cacheMock{}
	c.On("GetCategories", int64(1)).Return(nil, errors.New("miss")).Once()
	c.On("CacheCategories", int64(1), mock.Anything).Return(nil).Once()

	svc := New(storage.NewInMemStorage(), c, nil, 0)
	res, err := svc.GetCategories(context.Background(), 1)
	require.NoError(t, err)
	assert.NotEmpty(t, res)
	c.AssertExpectations(t)
}

func TestCreateCategory(t *testing.T) {
	ctx := context.Background()
	c := &cacheMock{}
	c.On("InvalidateCategories", int64(1)).Return(nil).Once()

	svc := New(storage.NewInMemStorage(), c, nil, 0)

	created, err := svc.CreateCategory(ctx, 1, " Pets ", "")
	require.NoError(t, err)
	assert.Equal(t, "Pets", created.Name)
	assert.Equal(t, defaultColor, created.Color)

	_, err = svc.CreateCategory(ctx, 1, "pets", "#112233")
	assert.ErrorIs(t, err, expense.ErrCategoryConflict)

	_, err = svc.CreateCategory(ctx, 1, "", "")
	assert.ErrorIs(t, err, expense.ErrEmptyCategory)

	_, err = svc.CreateCategory(ctx, 1, "Gifts", "red")
	assert.ErrorIs(t, err, expense.ErrInvalidColor)
	c.AssertExpectations(t)
}

func TestTelegramLinking(t *testing.T) {
	ctx := context.Background()
	svc := New(storage.NewInMemStorage(), nil, nil, 0)

	_, err := svc.UserByTelegram(ctx, 555)
	assert.ErrorIs(t, err, user.ErrNotLinked)

	require.NoError(t, svc.LinkTelegram(ctx, 1, 555))
	u, err := svc.UserByTelegram(ctx, 555)
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)

	assert.ErrorIs(t, svc.LinkTelegram(ctx, 2, 555), user.ErrTelegramTaken)
	assert.ErrorIs(t, svc.LinkTelegram(ctx, 2, 0), user.ErrInvalidID)
}
