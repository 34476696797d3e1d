package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type telegramRequest struct {
	TelegramID int64 `json:"telegram_id"`
}

func (s *Server) handleListCategories(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := s.expenses.GetCategories(ctx, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}

func (s *Server) handleCreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "malformed request body")
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	created, err := s.expenses.CreateCategory(ctx, currentUser(c), req.Name, req.Color)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, created)
}

func (s *Server) handleLinkTelegram(c *gin.Context) {
	var req telegramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "malformed request body")
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.expenses.LinkTelegram(ctx, currentUser(c), req.TelegramID); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"telegram_id": req.TelegramID})
}
