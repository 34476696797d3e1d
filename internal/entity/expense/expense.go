package expense

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	DateLayout           = "2006-01-02"
	MaxDescriptionLength = 255
	AmountPlaces         = 2
)

// MaxAmount is the largest value a NUMERIC(12,2) column holds.
var MaxAmount = decimal.RequireFromString("9999999999.99")

var (
	ErrNotFound         = errors.New("expense not found")
	ErrInvalidAmount    = errors.New("amount must be between 0.01 and 9999999999.99 with at most 2 decimal places")
	ErrInvalidCategory  = errors.New("unknown category")
	ErrInvalidDate      = errors.New("date must be YYYY-MM-DD")
	ErrDescriptionLong  = errors.New("description is too long")
	ErrEmptyCategory    = errors.New("category name is required")
	ErrCategoryConflict = errors.New("category already exists")
	ErrInvalidColor     = errors.New("color must look like #rrggbb")
)

// Record is one row of a user's ledger. Date is a calendar date stored at UTC midnight.
type Record struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"-"`
	Amount      decimal.Decimal `json:"amount"`
	CategoryID  int64           `json:"category_id"`
	Date        time.Time       `json:"-"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Listed is a Record joined with its category, as returned by list and search queries.
type Listed struct {
	Record
	Day           string `json:"date"`
	CategoryName  string `json:"category_name"`
	CategoryColor string `json:"category_color"`
}

type Category struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"-"`
	Name   string `json:"name"`
	Color  string `json:"color"`
}

// Draft carries user input for create and update operations.
type Draft struct {
	Amount      decimal.Decimal
	CategoryID  int64
	Date        time.Time
	Description string
}

// Day truncates t to its calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses an ISO calendar date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errors.Wrap(ErrInvalidDate, err.Error())
	}
	return t, nil
}

func (d *Draft) Normalize() {
	d.Description = strings.TrimSpace(d.Description)
	if !d.Date.IsZero() {
		d.Date = Day(d.Date)
	}
}

func (d Draft) Validate() error {
	if !validAmount(d.Amount) {
		return ErrInvalidAmount
	}
	if d.CategoryID <= 0 {
		return ErrInvalidCategory
	}
	if d.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(d.Description) > MaxDescriptionLength {
		return ErrDescriptionLong
	}
	return nil
}

func validAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() &&
		amount.LessThanOrEqual(MaxAmount) &&
		amount.Equal(amount.Round(AmountPlaces))
}

// Malformed reports whether a record read from storage must be kept out of totals.
func (r Record) Malformed() bool {
	return !r.Amount.IsPositive() || r.Date.IsZero()
}

func (r Record) ToListed(c Category) Listed {
	return Listed{
		Record:        r,
		Day:           r.Date.Format(DateLayout),
		CategoryName:  c.Name,
		CategoryColor: c.Color,
	}
}

// IsValidation reports whether err is caused by bad user input.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrInvalidCategory, ErrInvalidDate,
		ErrDescriptionLong, ErrEmptyCategory, ErrInvalidColor,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
