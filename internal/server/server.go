package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/arcanaland/highlander/internal/catalog"
	"github.com/arcanaland/highlander/internal/deck"
	"github.com/arcanaland/highlander/internal/metrics"
	"github.com/arcanaland/highlander/internal/validator"
)

const (
	// maxBodySize bounds a legality request body
	maxBodySize = 1 << 20
	// readyTimeout bounds how long a request waits for the catalog
	readyTimeout  = 30 * time.Second
	randomCards   = 6
	shutdownGrace = 10 * time.Second
)

// Config configures a Server
type Config struct {
	Addr   string
	Engine *validator.Engine
	Store  *catalog.Store
	Logger *zap.Logger
}

// Server exposes legality checks and card lookups over HTTP
type Server struct {
	engine     *validator.Engine
	store      *catalog.Store
	logger     *zap.Logger
	httpServer *http.Server
}

// RandomCard is the summary returned by the random cards endpoint
type RandomCard struct {
	Name      string            `json:"name"`
	OracleID  string            `json:"oracle_id"`
	ImageURIs map[string]string `json:"image_uris,omitempty"`
	URI       string            `json:"uri"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// New creates a server. Nothing listens until Run is called.
func New(config Config) (*Server, error) {
	if config.Engine == nil || config.Store == nil {
		return nil, errors.New("server requires an engine and a store")
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		engine: config.Engine,
		store:  config.Store,
		logger: logger,
	}
	s.httpServer = &http.Server{
		Addr:              config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      time.Minute,
	}
	return s, nil
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/check-legality", s.handleCheckLegality)
	mux.HandleFunc("GET /api/card", s.handleCard)
	mux.HandleFunc("GET /api/random-cards", s.handleRandomCards)
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", listener.Addr().String()))
		errCh <- s.httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleCheckLegality(w http.ResponseWriter, r *http.Request) {
	var decklist deck.Decklist
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := decoder.Decode(&decklist); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse request body: %v", err))
		return
	}
	if decklist.MainDeck == nil {
		writeError(w, http.StatusBadRequest, "mainDeck must be an array")
		return
	}
	if err := decklist.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	result, err := s.engine.CheckContext(ctx, &decklist)
	if err != nil {
		s.unavailable(w, err)
		return
	}

	s.logger.Info("deck legality checked",
		zap.String("commander", result.Commander),
		zap.Int("main_deck_entries", len(decklist.MainDeck)),
		zap.Bool("legal", result.Legal),
		zap.Int("illegal_cards", len(result.IllegalCards)))
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(name) > deck.MaxCardNameLength {
		writeError(w, http.StatusBadRequest, "Card name exceeds maximum length")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	if err := s.store.WaitReady(ctx); err != nil {
		s.unavailable(w, err)
		return
	}

	c := s.engine.Lookup(name)
	if c == nil {
		writeError(w, http.StatusNotFound, "card not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleRandomCards(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	cards, err := s.store.RandomLegal(ctx, randomCards)
	if err != nil {
		s.unavailable(w, err)
		return
	}
	if len(cards) == 0 {
		writeError(w, http.StatusNotFound, "No cards available")
		return
	}

	out := make([]RandomCard, 0, len(cards))
	for _, c := range cards {
		out = append(out, RandomCard{
			Name:      c.Name,
			OracleID:  c.OracleID,
			ImageURIs: c.ImageURIs,
			URI:       c.ScryfallURI,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// unavailable reports a catalog that did not become ready in time
func (s *Server) unavailable(w http.ResponseWriter, err error) {
	s.logger.Warn("catalog not ready", zap.Error(err))
	writeError(w, http.StatusServiceUnavailable, "card catalog is not available yet")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
