package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultTradesLimit = 50
	maxTradesLimit     = 500
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Snapshot()
	if sess == nil {
		s.respondError(w, http.StatusNotFound, "no session yet")
		return
	}
	s.respondJSON(w, sess)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Snapshot()
	if sess == nil {
		s.respondError(w, http.StatusNotFound, "no session yet")
		return
	}

	positions, err := s.exchange.GetPositions(r.Context(), sess.Symbol)
	if err != nil {
		s.logger.Error("Failed to get positions", zap.String("symbol", sess.Symbol), zap.Error(err))
		s.respondError(w, http.StatusBadGateway, "failed to get positions")
		return
	}
	s.respondJSON(w, positions)
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		s.respondError(w, http.StatusNotFound, "journal disabled")
		return
	}

	limit := defaultTradesLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxTradesLimit)
	}

	orders, err := s.journal.ListOrders(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to list trades", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to list trades")
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	s.respondJSON(w, orders)
}

func (s *Server) respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
}
