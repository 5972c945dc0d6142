package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"bookrag/internal/domain"
)

// RAGPort is the API-facing subset of the RAG service.
type RAGPort interface {
	ProcessQuery(ctx context.Context, query domain.Query) (domain.Answer, error)
	HealthCheck(ctx context.Context) map[string]string
}

// Server exposes the RAG pipeline over HTTP.
type Server struct {
	rag            RAGPort
	allowedOrigins map[string]struct{}
	perMinute      int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewServer creates an HTTP server around the RAG service. ratePerMinute
// bounds queries per client address (default 60).
func NewServer(rag RAGPort, allowedOrigins []string, ratePerMinute int) *Server {
	if ratePerMinute <= 0 {
		ratePerMinute = 60
	}
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}
	return &Server{
		rag:            rag,
		allowedOrigins: origins,
		perMinute:      ratePerMinute,
		limiters:       make(map[string]*rate.Limiter),
	}
}

// Routes builds the handler tree.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/query", s.handleQuery)
	mux.HandleFunc("/api/v1/health", s.handleHealth)
	return s.withCORS(s.withRateLimit(mux))
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	var query domain.Query
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		writeErr(w, http.StatusBadRequest, errors.New("invalid json body"))
		return
	}
	if query.SessionID == "" {
		query.SessionID = uuid.NewString()
	}

	answer, err := s.rag.ProcessQuery(r.Context(), query)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

// handleHealth always answers 200: degraded dependencies are reported in
// the body, not masked by the status code.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	writeJSON(w, http.StatusOK, s.rag.HealthCheck(r.Context()))
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if _, ok := s.allowedOrigins[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter(clientAddr(r)).Allow() {
			writeErr(w, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) limiter(addr string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[addr]
	if !ok {
		l = rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.perMinute)), s.perMinute)
		s.limiters[addr] = l
	}
	return l
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
