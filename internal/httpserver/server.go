package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"habittracker/habits-api/internal/auth"
	"habittracker/habits-api/internal/config"
	"habittracker/habits-api/internal/habitlogs"
	"habittracker/habits-api/internal/habits"
	"habittracker/habits-api/internal/observability"
)

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (auth.User, error)
	Login(ctx context.Context, email, password string) (auth.Session, error)
	ValidateToken(token string) (auth.Identity, error)
}

type HabitService interface {
	Create(ctx context.Context, userID string, in habits.Input) (habits.Habit, error)
	List(ctx context.Context, userID string) ([]habits.Habit, error)
	Update(ctx context.Context, userID, id string, p habits.Patch) (habits.Habit, error)
	Delete(ctx context.Context, userID, id string) error
}

type HabitLogService interface {
	Record(ctx context.Context, userID, habitID, status string) (habitlogs.HabitLog, error)
	ListForUser(ctx context.Context, userID string) ([]habitlogs.HabitLog, error)
	Summarize(ctx context.Context, userID string) ([]habitlogs.Summary, error)
}

type AuditLogger interface {
	Log(actor, action, target, outcome, detail string) error
}

// Pinger reports database reachability for /readyz. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Auth      AuthService
	Habits    HabitService
	HabitLogs HabitLogService
	Audit     AuditLogger
	DB        Pinger
	Logger    *slog.Logger

	SessionTTL   time.Duration
	CookieSecure bool
	ClientOrigin string
	// AuthLimiter throttles register and login per client. Nil disables it.
	AuthLimiter *RateLimiter
}

const (
	sessionCookieName = "auth_token"
	maxBodyBytes      = 1 << 20
)

type Server struct {
	httpServer *http.Server
}

func New(cfg config.HTTPConfig, deps Deps) *Server {
	handler := NewHandler(deps)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      loggingMiddleware(loggerOrDefault(deps.Logger), handler),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
	}
}

func NewHandler(deps Deps) http.Handler {
	deps.Logger = loggerOrDefault(deps.Logger)

	router := mux.NewRouter()
	router.NotFoundHandler = notFoundHandler
	router.MethodNotAllowedHandler = methodNotAllowedHandler
	router.Use(observability.InstrumentHandler)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	router.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if deps.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := deps.DB.PingContext(ctx); err != nil {
				deps.Logger.Warn("readiness check failed", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	registerAuthHandlers(api, deps)

	// mux runs no middleware on a miss, so unknown paths and methods under
	// /api get the guard wrapped around their fallback handlers.
	guard := requireSession(deps.Auth)
	guarded := api.NewRoute().Subrouter()
	guarded.Use(guard)
	guarded.NotFoundHandler = guard(notFoundHandler)
	guarded.MethodNotAllowedHandler = guard(methodNotAllowedHandler)
	registerHabitHandlers(guarded, deps)
	registerHabitLogHandlers(guarded, deps)

	return corsMiddleware(deps.ClientOrigin, router)
}

var (
	notFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	methodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
)

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

var errEmptyBody = errors.New("empty request body")

type identityKey struct{}

// requireSession rejects requests without a valid session cookie and stores
// the caller's identity in the request context.
func requireSession(authSvc AuthService) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authSvc == nil {
				writeError(w, http.StatusServiceUnavailable, "Auth service unavailable")
				return
			}
			c, err := r.Cookie(sessionCookieName)
			if err != nil || c.Value == "" {
				writeError(w, http.StatusUnauthorized, "Not authorized")
				return
			}
			id, err := authSvc.ValidateToken(c.Value)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized - Invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), identityKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func identityFromContext(ctx context.Context) auth.Identity {
	id, _ := ctx.Value(identityKey{}).(auth.Identity)
	return id
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Message: message})
}

func writeErrorDetail(w http.ResponseWriter, status int, message string, err error) {
	body := errorBody{Message: message}
	if err != nil {
		body.Error = err.Error()
	}
	writeJSON(w, status, body)
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
