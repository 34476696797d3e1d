package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"max.ks1230/spendings/internal/logger"
)

// handleSummary never answers with a partial report: a failed aggregation is "summary unavailable".
func (s *Server) handleSummary(c *gin.Context) {
	today, err := s.today(c)
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	report, err := s.summaries.Summarize(ctx, currentUser(c), today)
	if err != nil {
		logger.Error("summary failed", zap.Int64("userID", currentUser(c)), zap.Error(err))
		abort(c, http.StatusServiceUnavailable, summaryUnavailableMessage)
		return
	}
	respond(c, http.StatusOK, report)
}

func (s *Server) handleTrends(c *gin.Context) {
	today, err := s.today(c)
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	trends, err := s.summaries.Trends(ctx, currentUser(c), today)
	if err != nil {
		logger.Error("trends failed", zap.Int64("userID", currentUser(c)), zap.Error(err))
		abort(c, http.StatusServiceUnavailable, summaryUnavailableMessage)
		return
	}
	respond(c, http.StatusOK, trends)
}
