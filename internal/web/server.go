package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/domain"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// SessionSource exposes the live hedge session.
type SessionSource interface {
	Snapshot() *domain.HedgeSession
}

// Server is the read-only status API.
type Server struct {
	router   *mux.Router
	server   *http.Server
	sessions SessionSource
	journal  domain.JournalRepository // optional
	exchange domain.Exchange
	logger   *zap.Logger
}

func NewServer(
	port int,
	corsOrigins []string,
	sessions SessionSource,
	journal domain.JournalRepository,
	exchange domain.Exchange,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		sessions: sessions,
		journal:  journal,
		exchange: exchange,
		logger:   logger,
	}
	s.routes()

	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           c.Handler(s.router),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/positions", s.handlePositions).Methods(http.MethodGet)
	s.router.HandleFunc("/trades", s.handleTrades).Methods(http.MethodGet)
}

// Handler is the fully wrapped handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start() error {
	s.logger.Info("Starting status server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
