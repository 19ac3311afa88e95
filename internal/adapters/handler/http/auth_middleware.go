package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vncsmyrnk/busvote/internal/core/domain"
	"github.com/vncsmyrnk/busvote/internal/core/ports"
	"github.com/vncsmyrnk/busvote/internal/guard"
)

type contextKey string

const (
	UserKey contextKey = "user"

	accessTokenCookie = "access_token"
	flashCookie       = "flash"
	noticeHeader      = "X-Notice"
)

// UserFromContext returns the profile RequireRole admitted.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(UserKey).(*domain.User)
	return user, ok && user != nil
}

// Authenticator gates routes with one guard.Guard per request. Sessions are
// resolved before the guard runs, so the guard only ever decides between
// allow, redirect and the expired session error; grace is passed through
// for completeness.
type Authenticator struct {
	verifier ports.TokenVerifier
	users    ports.UserService
	grace    time.Duration
	log      *slog.Logger
}

func NewAuthenticator(verifier ports.TokenVerifier, users ports.UserService, grace time.Duration, log *slog.Logger) *Authenticator {
	return &Authenticator{
		verifier: verifier,
		users:    users,
		grace:    grace,
		log:      log,
	}
}

// RequireRole admits only users with the given role. An empty role admits
// any signed in user.
func (a *Authenticator) RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state, err := a.resolve(r)
			if err != nil {
				a.log.Error("failed to resolve session", slog.Any("error", err))
				writeServiceError(w, err)
				return
			}

			g := guard.New(role, a.grace, time.Now)
			decision := g.Evaluate(state, r.URL.RequestURI())

			if decision.Notice != "" {
				setNotice(w, decision.Notice)
			}

			switch decision.Outcome {
			case guard.Allow:
				ctx := context.WithValue(r.Context(), UserKey, state.User)
				next.ServeHTTP(w, r.WithContext(ctx))
			case guard.RedirectLogin:
				http.Redirect(w, r, decision.LoginURL(), http.StatusFound)
			case guard.RedirectHome:
				http.Redirect(w, r, decision.Location, http.StatusFound)
			case guard.AuthError:
				writeError(w, http.StatusUnauthorized, decision.Message)
			default:
				// Unreachable while resolve is synchronous.
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusServiceUnavailable, guard.MessageSessionChecking)
			}
		})
	}
}

// resolve builds the guard state from the request's access token. Only
// store failures are returned as errors.
func (a *Authenticator) resolve(r *http.Request) (guard.State, error) {
	token := accessToken(r)
	if token == "" {
		return guard.State{}, nil
	}

	claims, err := a.verifier.Verify(token)
	if errors.Is(err, domain.ErrSessionExpired) {
		return guard.State{SessionExpired: true}, nil
	}
	if err != nil {
		a.log.Debug("rejected access token", slog.Any("error", err))
		return guard.State{}, nil
	}

	user, err := a.users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		return guard.State{}, err
	}

	return guard.State{
		HasSession:      true,
		IsAuthenticated: user != nil,
		User:            user,
	}, nil
}

func accessToken(r *http.Request) string {
	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func setNotice(w http.ResponseWriter, notice string) {
	w.Header().Set(noticeHeader, notice)
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(notice),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	})
}
