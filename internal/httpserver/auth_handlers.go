package httpserver

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"habittracker/habits-api/internal/auth"
	"habittracker/habits-api/internal/observability"
)

func registerAuthHandlers(api *mux.Router, deps Deps) {
	throttle := func(h http.HandlerFunc) http.Handler {
		if deps.AuthLimiter == nil {
			return h
		}
		return deps.AuthLimiter.Handler(h)
	}

	api.Handle("/auth/register", throttle(func(w http.ResponseWriter, r *http.Request) {
		if deps.Auth == nil {
			writeError(w, http.StatusServiceUnavailable, "Auth service unavailable")
			return
		}

		var req struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			writeErrorDetail(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}

		u, err := deps.Auth.Register(r.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrUserExists):
				observability.RecordAuthEvent("register", "exists")
				auditReq(deps.Audit, r, req.Email, "auth.register", "", "failed", "user exists")
				writeError(w, http.StatusBadRequest, "User already exists")
			case errors.Is(err, auth.ErrInvalidInput):
				observability.RecordAuthEvent("register", "invalid")
				writeErrorDetail(w, http.StatusBadRequest, "Invalid registration data", err)
			default:
				observability.RecordAuthEvent("register", "error")
				deps.Logger.Error("register user", "error", err, "request_id", requestIDFromContext(r.Context()))
				auditReq(deps.Audit, r, req.Email, "auth.register", "", "failed", err.Error())
				writeError(w, http.StatusInternalServerError, "Server error during registration")
			}
			return
		}

		observability.RecordAuthEvent("register", "success")
		auditReq(deps.Audit, r, u.Email, "auth.register", u.ID, "success", "")
		writeJSON(w, http.StatusCreated, map[string]string{"message": "Registered successfully"})
	})).Methods(http.MethodPost)

	api.Handle("/auth/login", throttle(func(w http.ResponseWriter, r *http.Request) {
		if deps.Auth == nil {
			writeError(w, http.StatusServiceUnavailable, "Auth service unavailable")
			return
		}

		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			writeErrorDetail(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}

		session, err := deps.Auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrUserNotFound):
				observability.RecordAuthEvent("login", "unknown_user")
				auditReq(deps.Audit, r, req.Email, "auth.login", "", "failed", "user not found")
				writeError(w, http.StatusUnauthorized, "User not found")
			case errors.Is(err, auth.ErrInvalidCredentials):
				observability.RecordAuthEvent("login", "bad_password")
				auditReq(deps.Audit, r, req.Email, "auth.login", "", "failed", "invalid credentials")
				writeError(w, http.StatusUnauthorized, "Invalid credentials")
			default:
				observability.RecordAuthEvent("login", "error")
				deps.Logger.Error("login", "error", err, "request_id", requestIDFromContext(r.Context()))
				writeError(w, http.StatusInternalServerError, "Server error during login")
			}
			return
		}

		http.SetCookie(w, sessionCookie(deps, session.Token))
		observability.RecordAuthEvent("login", "success")
		auditReq(deps.Audit, r, session.Email, "auth.login", session.UserID, "success", "")
		writeJSON(w, http.StatusOK, map[string]string{"message": "Login successful"})
	})).Methods(http.MethodPost)

	api.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if deps.Auth == nil {
			writeError(w, http.StatusServiceUnavailable, "Auth service unavailable")
			return
		}
		c, err := r.Cookie(sessionCookieName)
		if err != nil || c.Value == "" {
			writeError(w, http.StatusUnauthorized, "Not logged in")
			return
		}
		id, err := deps.Auth.ValidateToken(c.Value)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"email": id.Email})
	}).Methods(http.MethodGet)

	// The browser client navigates to logout with GET.
	api.HandleFunc("/auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, clearedSessionCookie(deps))
		writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
	}).Methods(http.MethodGet, http.MethodPost)
}

func sessionCookie(deps Deps, token string) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(deps.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   deps.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func clearedSessionCookie(deps Deps) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   deps.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
