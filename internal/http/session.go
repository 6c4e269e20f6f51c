package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"khata/internal/auth"
	"khata/internal/core"
)

const sessionCookie = "khata_session"

type contextKey string

const identityKey contextKey = "identity"

func identityFromContext(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok
}

// requireOwner resolves the session cookie to an identity and stores it in
// the request context. Browsers get redirected to /login; HTMX fragment
// requests get a client-side redirect header instead.
func (s *Server) requireOwner(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || cookie.Value == "" {
			s.redirectToLogin(w, r)
			return
		}
		id, err := s.verifier.Verify(r.Context(), cookie.Value)
		if err != nil {
			slog.WarnContext(r.Context(), "session verification failed", "error", err)
			s.clearSessionCookie(w)
			s.redirectToLogin(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, id)
		next(w, r.WithContext(ctx))
	}
}

func (s *Server) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	s.render(w, r, "login.html", nil)
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	s.render(w, r, "signup.html", nil)
}

// handleSession establishes the cookie session. The browser signs in against
// the identity provider and posts the resulting ID token here; for a fresh
// signup the shop name comes along and the owner profile record is written.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	parser := NewRequestBodyParser(r)
	token := strings.TrimSpace(parser.Get("idToken"))
	if token == "" {
		BadRequestError("Missing ID token").Write(w)
		return
	}

	id, err := s.verifier.Verify(r.Context(), token)
	if err != nil {
		slog.WarnContext(r.Context(), "session login rejected", "error", err)
		ErrorResponse(http.StatusUnauthorized, "Sign-in failed").Write(w)
		return
	}

	if name := strings.TrimSpace(parser.Get("name")); name != "" {
		profile := core.Profile{
			Name:      sanitizeInput(name),
			Email:     id.Email,
			CreatedAt: core.Timestamp(time.Now()),
		}
		if err := s.owners.PutProfile(r.Context(), id.UID, profile); err != nil {
			slog.ErrorContext(r.Context(), "profile write failed", "owner_id", id.UID, "error", err)
			InternalServerError("Could not create the account record").Write(w)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	w.Header().Set("HX-Redirect", "/")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	s.clearSessionCookie(w)
	w.Header().Set("HX-Redirect", "/login")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
