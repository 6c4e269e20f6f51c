// Package http serves the bookkeeping dashboard: server-rendered pages with
// HTMX fragments on top of the record store ports.
package http

import (
	"context"
	"encoding/json"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"

	"khata/internal/auth"
	"khata/internal/backend"
	"khata/internal/middleware/ratelimit"
	"khata/internal/middleware/security"
	"khata/internal/middleware/trace"
	"khata/internal/store"
	appweb "khata/web"
)

type Server struct {
	http.Server

	templates *template.Template

	watcher   store.SnapshotWatcher
	owners    store.OwnerWriter
	customers store.CustomerWriter
	income    store.IncomeWriter
	verifier  auth.Verifier

	hub          *snapshotHub
	rateLimiter  *ratelimit.Limiter
	detector     *security.Detector
	traceMW      *trace.Middleware
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, b backend.Backend, verifier auth.Verifier) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		watcher:     b,
		owners:      b,
		customers:   b,
		income:      b,
		verifier:    verifier,
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:    security.NewDetector(),
	}
	s.hub = newSnapshotHub(b)
	s.traceMW = trace.NewMiddleware(s.detector.ExtractClientIP)

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/metricsz", s.handleMetrics)

	// Unauthenticated surface
	mux.HandleFunc("/login", s.public(s.handleLoginPage))
	mux.HandleFunc("/signup", s.public(s.handleSignupPage))
	mux.HandleFunc("/session", s.public(s.handleSession))
	mux.HandleFunc("/logout", s.public(s.handleLogout))

	// Owner-scoped pages and fragments
	mux.HandleFunc("/{$}", s.protected(s.handleDashboard))
	mux.HandleFunc("/customers", s.protected(s.handleCustomers))
	mux.HandleFunc("/customers/{name}", s.protected(s.handleCustomerDetail))
	mux.HandleFunc("/customers/{name}/transactions", s.protected(s.handleTransactions))
	mux.HandleFunc("/customers/{name}/transactions/{id}", s.protected(s.handleTransactionByID))
	mux.HandleFunc("/customers/{name}/statement.csv", s.protected(s.handleStatementCSV))
	mux.HandleFunc("/daily", s.protected(s.handleDaily))
	mux.HandleFunc("/daily/detail", s.protected(s.handleDailyDetail))
	mux.HandleFunc("/income", s.protected(s.handleIncome))
	mux.HandleFunc("/income/{date}/{id}", s.protected(s.handleIncomeByID))
	mux.HandleFunc("/reports", s.protected(s.handleReports))

	return s
}

// public wraps an unauthenticated handler with the shared middleware chain.
func (s *Server) public(next http.HandlerFunc) http.HandlerFunc {
	return s.chain(next)
}

// protected additionally resolves the session identity and rejects or
// redirects unauthenticated requests.
func (s *Server) protected(next http.HandlerFunc) http.HandlerFunc {
	return s.chain(s.requireOwner(next))
}

func (s *Server) chain(next http.HandlerFunc) http.HandlerFunc {
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := s.rateLimiter.Middleware(s.detector.ExtractClientIP, nil)

	handler := headers.Middleware(limited(next))
	traced := s.traceMW.Middleware(handler)

	return func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			slog.WarnContext(r.Context(), "suspicious request rejected",
				"path", r.URL.Path,
				"client_ip", s.detector.ExtractClientIP(r))
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		traced.ServeHTTP(w, r)
	}
}

// Shutdown stops the server plus its background goroutines exactly once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.hub.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleMetrics exposes a small JSON counters payload for scraping.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]any{
		"http":      s.traceMW.GetMetrics(),
		"security":  s.detector.GetMetrics(),
		"ratelimit": s.rateLimiter.GetMetrics(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "templates not loaded", "template", name)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "template execution failed", "template", name, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
