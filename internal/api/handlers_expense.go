package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"max.ks1230/spendings/internal/entity/expense"
)

type expenseRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	CategoryID  int64           `json:"category_id" binding:"required"`
	Date        string          `json:"date" binding:"required"`
	Description string          `json:"description"`
}

func (r expenseRequest) draft() (expense.Draft, error) {
	if strings.TrimSpace(r.Date) == "" {
		return expense.Draft{}, expense.ErrInvalidDate
	}
	date, err := expense.ParseDay(r.Date)
	if err != nil {
		return expense.Draft{}, err
	}
	return expense.Draft{
		Amount:      r.Amount,
		CategoryID:  r.CategoryID,
		Date:        date,
		Description: r.Description,
	}, nil
}

func bindDraft(c *gin.Context) (expense.Draft, bool) {
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, bindMessage(err))
		return expense.Draft{}, false
	}
	d, err := req.draft()
	if err != nil {
		fail(c, err)
		return expense.Draft{}, false
	}
	return d, true
}

var requestFields = map[string]string{
	"CategoryID": "category_id",
	"Date":       "date",
}

func bindMessage(err error) string {
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) || len(invalid) == 0 {
		return "malformed request body"
	}
	field, ok := requestFields[invalid[0].Field()]
	if !ok {
		field = strings.ToLower(invalid[0].Field())
	}
	return field + " is required"
}

func (s *Server) handleListExpenses(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := s.expenses.ListExpenses(ctx, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}

func (s *Server) handleRecentExpenses(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := s.expenses.RecentExpenses(ctx, currentUser(c), limit)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}

func (s *Server) handleSearchExpenses(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := s.expenses.SearchExpenses(ctx, currentUser(c), c.Query("q"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}

func (s *Server) handleAddExpense(c *gin.Context) {
	d, ok := bindDraft(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	rec, err := s.expenses.AddExpense(ctx, currentUser(c), d)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"id": rec.ID})
}

func (s *Server) handleUpdateExpense(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		abort(c, http.StatusBadRequest, "invalid id")
		return
	}
	d, ok := bindDraft(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.expenses.UpdateExpense(ctx, currentUser(c), id, d); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"id": id})
}

func (s *Server) handleDeleteExpense(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		abort(c, http.StatusBadRequest, "invalid id")
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.expenses.DeleteExpense(ctx, currentUser(c), id); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"id": id})
}
