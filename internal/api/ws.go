package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"max.ks1230/spendings/internal/entity/summary"
	"max.ks1230/spendings/internal/logger"
)

const (
	wsMaxMessageSize = 1024
	wsPingPeriod     = 30 * time.Second
	wsPongWait       = 60 * time.Second

	messageSummary            = "summary"
	messageSummaryUnavailable = "summary_unavailable"
)

type wsMessage struct {
	Type        string          `json:"type"`
	GeneratedAt time.Time       `json:"generated_at"`
	Data        *summary.Report `json:"data,omitempty"`
	Message     string          `json:"message,omitempty"`
}

// Hub fans pushed summaries out to the websocket sessions of their owner.
type Hub struct {
	m *melody.Melody
}

func NewHub() *Hub {
	m := melody.New()
	m.Config.MaxMessageSize = wsMaxMessageSize
	m.Config.PingPeriod = wsPingPeriod
	m.Config.PongWait = wsPongWait

	m.HandleConnect(func(s *melody.Session) {
		userID, _ := s.Get(userIDKey)
		logger.Debug("websocket connected", zap.Any("userID", userID))
	})
	m.HandleDisconnect(func(s *melody.Session) {
		userID, _ := s.Get(userIDKey)
		logger.Debug("websocket disconnected", zap.Any("userID", userID))
	})
	m.HandleError(func(s *melody.Session, err error) {
		logger.Warn("websocket error", zap.Error(err))
	})

	return &Hub{m: m}
}

func (h *Hub) HandleWS(c *gin.Context) {
	keys := map[string]interface{}{userIDKey: currentUser(c)}
	if err := h.m.HandleRequestWithKeys(c.Writer, c.Request, keys); err != nil {
		logger.Warn("websocket upgrade failed", zap.Int64("userID", currentUser(c)), zap.Error(err))
	}
}

// AcceptSummary delivers an update to every open session of update.UserID.
func (h *Hub) AcceptSummary(_ context.Context, update *summary.Update) error {
	msg := wsMessage{Type: messageSummary, GeneratedAt: update.GeneratedAt, Data: update.Report}
	if update.Error != "" || update.Report == nil {
		msg = wsMessage{Type: messageSummaryUnavailable, GeneratedAt: update.GeneratedAt, Message: summaryUnavailableMessage}
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal ws message")
	}

	err = h.m.BroadcastFilter(payload, func(s *melody.Session) bool {
		id, ok := s.Get(userIDKey)
		return ok && id == update.UserID
	})
	return errors.Wrap(err, "broadcast summary")
}

func (h *Hub) Sessions() int {
	return h.m.Len()
}

func (h *Hub) Close() {
	if err := h.m.Close(); err != nil {
		logger.Warn("websocket hub close", zap.Error(err))
	}
}
