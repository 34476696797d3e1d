package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"max.ks1230/spendings/internal/entity/expense"
	"max.ks1230/spendings/internal/entity/summary"
	"max.ks1230/spendings/internal/entity/user"
	"max.ks1230/spendings/internal/logger"
)

const (
	requestTimeout    = 7 * time.Second
	readHeaderTimeout = 5 * time.Second
	corsMaxAge        = 12 * time.Hour
)

type summarizer interface {
	Summarize(ctx context.Context, userID int64, today time.Time) (*summary.Report, error)
	Trends(ctx context.Context, userID int64, today time.Time) (*summary.Trends, error)
}

type expenseService interface {
	ListExpenses(ctx context.Context, userID int64) ([]expense.Listed, error)
	RecentExpenses(ctx context.Context, userID int64, limit int) ([]expense.Listed, error)
	SearchExpenses(ctx context.Context, userID int64, query string) ([]expense.Listed, error)
	AddExpense(ctx context.Context, userID int64, d expense.Draft) (expense.Record, error)
	UpdateExpense(ctx context.Context, userID, id int64, d expense.Draft) error
	DeleteExpense(ctx context.Context, userID, id int64) error
	GetCategories(ctx context.Context, userID int64) ([]expense.Category, error)
	CreateCategory(ctx context.Context, userID int64, name, color string) (expense.Category, error)
	LinkTelegram(ctx context.Context, userID, telegramID int64) error
	UserByTelegram(ctx context.Context, telegramID int64) (user.Record, error)
}

type httpConfig interface {
	Addr() string
	AllowedOrigins() []string
}

type appConfig interface {
	Location() *time.Location
	JWTSecret() []byte
}

type Server struct {
	router    *gin.Engine
	srv       *http.Server
	summaries summarizer
	expenses  expenseService
	hub       *Hub
	location  *time.Location
	now       func() time.Time
}

func NewServer(cfg httpConfig, app appConfig, summaries summarizer, expenses expenseService, hub *Hub) *Server {
	s := &Server{
		summaries: summaries,
		expenses:  expenses,
		hub:       hub,
		location:  app.Location(),
		now:       time.Now,
	}
	s.router = s.routes(cfg.AllowedOrigins(), app.JWTSecret())
	s.srv = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

func (s *Server) routes(origins []string, secret []byte) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), observe())
	if len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", requestIDHeader},
			AllowCredentials: true,
			MaxAge:           corsMaxAge,
		}))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": s.now().Format(time.RFC3339)})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.Use(authenticate(secret))
	{
		v1.GET("/summary", s.handleSummary)
		v1.GET("/summary/trends", s.handleTrends)

		v1.GET("/expenses", s.handleListExpenses)
		v1.GET("/expenses/recent", s.handleRecentExpenses)
		v1.GET("/expenses/search", s.handleSearchExpenses)
		v1.POST("/expenses", s.handleAddExpense)
		v1.PUT("/expenses/:id", s.handleUpdateExpense)
		v1.DELETE("/expenses/:id", s.handleDeleteExpense)

		v1.GET("/categories", s.handleListCategories)
		v1.POST("/categories", s.handleCreateCategory)

		v1.PUT("/profile/telegram", s.handleLinkTelegram)

		if s.hub != nil {
			v1.GET("/ws", s.hub.HandleWS)
		}
	}
	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Serve() error {
	logger.Info("HTTP server listening", zap.String("addr", s.srv.Addr))
	err := s.srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serve http")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Close()
	}
	err := s.srv.Shutdown(ctx)
	logger.Info("http server stopped")
	return errors.Wrap(err, "shutdown http")
}

// today resolves the reporting day: ?date=YYYY-MM-DD or the current date in the configured zone.
func (s *Server) today(c *gin.Context) (time.Time, error) {
	if raw := c.Query("date"); raw != "" {
		return expense.ParseDay(raw)
	}
	return s.now().In(s.location), nil
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}
