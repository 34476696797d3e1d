package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"max.ks1230/spendings/internal/entity/expense"
	"max.ks1230/spendings/internal/entity/user"
	"max.ks1230/spendings/internal/logger"
)

const (
	dsnTemplate        = "user=%s password=%s host=%s port=%d dbname=%s sslmode=%s"
	uniqueViolation    = "23505"
	maxOpenConnections = 25
	maxIdleConnections = 5
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var expenseColumns = []string{"id", "user_id", "amount", "category_id", "date", "description", "created_at"}

type config interface {
	Host() string
	Port() int
	Username() string
	Password() string
	Database() string
	SSLMode() string
}

type PostgresStorage struct {
	db *sql.DB
}

func DSN(config config) string {
	return fmt.Sprintf(dsnTemplate,
		config.Username(),
		config.Password(),
		config.Host(),
		config.Port(),
		config.Database(),
		config.SSLMode())
}

func NewPostgresStorage(config config) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", DSN(config))
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to database")
	}
	if err = db.Ping(); err != nil {
		return nil, errors.Wrap(err, "cannot connect to database")
	}
	db.SetMaxOpenConns(maxOpenConnections)
	db.SetMaxIdleConns(maxIdleConnections)
	return &PostgresStorage{db}, nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func (s *PostgresStorage) DB() *sql.DB {
	return s.db
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		logger.Error("error closing rows", zap.Error(err))
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func (s *PostgresStorage) GetUserExpenses(ctx context.Context, userID int64, from, to time.Time) ([]expense.Record, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "storage.getUserExpenses")
	defer span.Finish()

	query := psql.Select(expenseColumns...).
		From("expenses").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.GtOrEq{"date": from.Format(expense.DateLayout)}).
		Where(sq.LtOrEq{"date": to.Format(expense.DateLayout)})

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get expenses")
	}
	defer closeRows(rows)

	exps := make([]expense.Record, 0)
	for rows.Next() {
		var e expense.Record
		var description sql.NullString
		err = rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.CategoryID, &e.Date, &description, &e.CreatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "get expenses")
		}
		e.Date = expense.Day(e.Date)
		e.Description = description.String
		exps = append(exps, e)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "get expenses")
	}
	return exps, nil
}

func (s *PostgresStorage) ListExpenses(ctx context.Context, userID int64, opts ListOptions) ([]expense.Listed, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "storage.listExpenses")
	defer span.Finish()

	columns := make([]string, 0, len(expenseColumns)+2)
	for _, c := range expenseColumns {
		columns = append(columns, "e."+c)
	}
	columns = append(columns, "c.name", "c.color")

	query := psql.Select(columns...).
		From("expenses e").
		Join("categories c ON c.id = e.category_id").
		Where(sq.Eq{"e.user_id": userID}).
		OrderBy("e.date DESC", "e.created_at DESC")
	if q := strings.TrimSpace(opts.Query); q != "" {
		pattern := "%" + q + "%"
		query = query.Where(sq.Expr("(e.description ILIKE ? OR c.name ILIKE ?)", pattern, pattern))
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list expenses")
	}
	defer closeRows(rows)

	res := make([]expense.Listed, 0)
	for rows.Next() {
		var e expense.Record
		var c expense.Category
		var description sql.NullString
		err = rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.CategoryID, &e.Date, &description, &e.CreatedAt, &c.Name, &c.Color)
		if err != nil {
			return nil, errors.Wrap(err, "list expenses")
		}
		e.Date = expense.Day(e.Date)
		e.Description = description.String
		res = append(res, e.ToListed(c))
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list expenses")
	}
	return res, nil
}

func (s *PostgresStorage) AddExpense(ctx context.Context, userID int64, d expense.Draft) (expense.Record, error) {
	query := psql.Insert("expenses").
		Columns("user_id", "amount", "category_id", "date", "description").
		Values(userID, d.Amount, d.CategoryID, d.Date.Format(expense.DateLayout), d.Description).
		Suffix("RETURNING id, created_at")

	rec := expense.Record{
		UserID:      userID,
		Amount:      d.Amount,
		CategoryID:  d.CategoryID,
		Date:        d.Date,
		Description: d.Description,
	}
	err := query.RunWith(s.db).QueryRowContext(ctx).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return expense.Record{}, errors.Wrap(err, "add expense")
	}
	return rec, nil
}

func (s *PostgresStorage) UpdateExpense(ctx context.Context, userID, id int64, d expense.Draft) error {
	query := psql.Update("expenses").
		SetMap(map[string]interface{}{
			"amount":      d.Amount,
			"category_id": d.CategoryID,
			"date":        d.Date.Format(expense.DateLayout),
			"description": d.Description,
		}).
		Where(sq.Eq{"id": id, "user_id": userID})

	res, err := query.RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return errors.Wrap(err, "update expense")
	}
	return errors.Wrap(ensureAffected(res), "update expense")
}

func (s *PostgresStorage) DeleteExpense(ctx context.Context, userID, id int64) error {
	query := psql.Delete("expenses").
		Where(sq.Eq{"id": id, "user_id": userID})

	res, err := query.RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return errors.Wrap(err, "delete expense")
	}
	return errors.Wrap(ensureAffected(res), "delete expense")
}

func ensureAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return expense.ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) GetCategories(ctx context.Context, userID int64) ([]expense.Category, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "storage.getCategories")
	defer span.Finish()

	query := psql.Select("id", "COALESCE(user_id, 0)", "name", "color").
		From("categories").
		Where(sq.Or{sq.Eq{"user_id": nil}, sq.Eq{"user_id": userID}}).
		OrderBy("name ASC", "id ASC")

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get categories")
	}
	defer closeRows(rows)

	res := make([]expense.Category, 0)
	for rows.Next() {
		var c expense.Category
		if err = rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Color); err != nil {
			return nil, errors.Wrap(err, "get categories")
		}
		res = append(res, c)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "get categories")
	}
	return res, nil
}

func (s *PostgresStorage) CreateCategory(ctx context.Context, userID int64, c expense.Category) (expense.Category, error) {
	query := psql.Insert("categories").
		Columns("user_id", "name", "color").
		Values(userID, c.Name, c.Color).
		Suffix("RETURNING id")

	c.UserID = userID
	err := query.RunWith(s.db).QueryRowContext(ctx).Scan(&c.ID)
	if isUniqueViolation(err) {
		return expense.Category{}, expense.ErrCategoryConflict
	}
	if err != nil {
		return expense.Category{}, errors.Wrap(err, "create category")
	}
	return c, nil
}

func (s *PostgresStorage) GetUserByTelegramID(ctx context.Context, telegramID int64) (user.Record, error) {
	query := psql.Select("id").
		From("users").
		Where(sq.Eq{"telegram_id": telegramID})

	var res user.Record
	err := query.RunWith(s.db).QueryRowContext(ctx).Scan(&res.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return user.Record{}, user.ErrNotLinked
	}
	if err != nil {
		return user.Record{}, errors.Wrap(err, "get user")
	}
	res.SetTelegramID(telegramID)
	return res, nil
}

func (s *PostgresStorage) LinkTelegram(ctx context.Context, userID, telegramID int64) error {
	query := psql.Insert("users").
		Columns("id", "telegram_id", "updated_at").
		Values(userID, telegramID, time.Now()).
		Suffix("ON CONFLICT(id) DO UPDATE SET telegram_id = EXCLUDED.telegram_id, updated_at = EXCLUDED.updated_at")

	_, err := query.RunWith(s.db).ExecContext(ctx)
	if isUniqueViolation(err) {
		return user.ErrTelegramTaken
	}
	return errors.Wrap(err, "link telegram")
}
