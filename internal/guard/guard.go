// Package guard decides what a role-restricted page shows for the current
// authentication state.
package guard

import (
	"net/url"
	"sync"
	"time"

	"github.com/vncsmyrnk/busvote/internal/core/domain"
)

const (
	LoginPath = "/login"

	DefaultGrace = 300 * time.Millisecond

	NoticeSessionExpired   = "Session expired. Please log in again."
	NoticeAccessDenied     = "You don't have permission to access this page. Redirecting to your dashboard."
	MessageSessionExpired  = "Your session has expired. Please log in again."
	MessageSessionChecking = "Checking your session..."
)

type Outcome int

const (
	// Pending means loading is still within the grace period: show nothing.
	Pending Outcome = iota
	Loading
	AuthError
	RedirectLogin
	RedirectHome
	Allow
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Loading:
		return "loading"
	case AuthError:
		return "auth_error"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	case Allow:
		return "allow"
	default:
		return "unknown"
	}
}

// State is the authentication state the guard evaluates.
type State struct {
	IsAuthenticated bool
	User            *domain.User
	IsLoading       bool
	HasSession      bool
	// SessionExpired is set when the request carried a session that is no
	// longer valid.
	SessionExpired bool
}

type Decision struct {
	Outcome Outcome
	// Location is the redirect target for RedirectLogin and RedirectHome.
	Location string
	// From is the page the user asked for, kept so login can return there.
	From    string
	Notice  string
	Message string
}

// LoginURL is Location with From carried in the query string.
func (d Decision) LoginURL() string {
	if d.Outcome != RedirectLogin || d.From == "" {
		return d.Location
	}
	return d.Location + "?" + url.Values{"from": {d.From}}.Encode()
}

// Guard restricts a page to one role. An empty role admits any
// authenticated user.
type Guard struct {
	role   domain.Role
	loader *Loader

	mu      sync.Mutex
	authErr string
}

func New(role domain.Role, grace time.Duration, now func() time.Time) *Guard {
	return &Guard{
		role:   role,
		loader: NewLoader(grace, now),
	}
}

func (g *Guard) Role() domain.Role {
	return g.role
}

// Evaluate returns what to render for state at location. An auth error
// is sticky: once shown, the guard keeps showing it.
func (g *Guard) Evaluate(state State, location string) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.authErr != "" {
		return Decision{Outcome: AuthError, Message: g.authErr}
	}

	if state.IsLoading {
		g.loader.Begin()
		if g.loader.Visible() {
			return Decision{Outcome: Loading, Message: MessageSessionChecking}
		}
		return Decision{Outcome: Pending}
	}
	g.loader.End()

	if !state.HasSession && !state.IsAuthenticated && state.SessionExpired {
		g.authErr = MessageSessionExpired
		return Decision{Outcome: AuthError, Message: g.authErr, Notice: NoticeSessionExpired}
	}

	if !state.HasSession || !state.IsAuthenticated || state.User == nil {
		return Decision{Outcome: RedirectLogin, Location: LoginPath, From: location}
	}

	if g.role != "" && state.User.Role != g.role {
		return Decision{
			Outcome:  RedirectHome,
			Location: domain.HomePath(state.User.Role),
			Notice:   NoticeAccessDenied,
		}
	}

	return Decision{Outcome: Allow}
}

// Reset clears a sticky auth error, for example after a fresh login.
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.authErr = ""
	g.loader.End()
}
