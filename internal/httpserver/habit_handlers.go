package httpserver

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"habittracker/habits-api/internal/habitlogs"
	"habittracker/habits-api/internal/habits"
	"habittracker/habits-api/internal/observability"
)

func registerHabitHandlers(api *mux.Router, deps Deps) {
	api.HandleFunc("/habits", func(w http.ResponseWriter, r *http.Request) {
		if deps.Habits == nil {
			writeError(w, http.StatusServiceUnavailable, "Habit service unavailable")
			return
		}
		id := identityFromContext(r.Context())
		list, err := deps.Habits.List(r.Context(), id.UserID)
		if err != nil {
			deps.Logger.Error("list habits", "error", err, "request_id", requestIDFromContext(r.Context()))
			writeError(w, http.StatusInternalServerError, "Error fetching habits")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}).Methods(http.MethodGet)

	api.HandleFunc("/habits", func(w http.ResponseWriter, r *http.Request) {
		if deps.Habits == nil {
			writeError(w, http.StatusServiceUnavailable, "Habit service unavailable")
			return
		}
		id := identityFromContext(r.Context())

		var req habits.Input
		if err := decodeJSON(w, r, &req); err != nil {
			writeErrorDetail(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}

		created, err := deps.Habits.Create(r.Context(), id.UserID, req)
		if err != nil {
			if errors.Is(err, habits.ErrInvalidInput) {
				writeErrorDetail(w, http.StatusBadRequest, "Invalid habit data", err)
				return
			}
			deps.Logger.Error("create habit", "error", err, "request_id", requestIDFromContext(r.Context()))
			writeError(w, http.StatusInternalServerError, "Error creating habit")
			return
		}
		auditReq(deps.Audit, r, id.Email, "habit.create", created.ID, "success", "")
		writeJSON(w, http.StatusCreated, created)
	}).Methods(http.MethodPost)

	// Registered ahead of /habits/{id} so "summary" is never taken as an id.
	api.HandleFunc("/habits/summary", func(w http.ResponseWriter, r *http.Request) {
		if deps.HabitLogs == nil {
			writeError(w, http.StatusServiceUnavailable, "Habit log service unavailable")
			return
		}
		id := identityFromContext(r.Context())
		rows, err := deps.HabitLogs.Summarize(r.Context(), id.UserID)
		if err != nil {
			deps.Logger.Error("summarize habits", "error", err, "request_id", requestIDFromContext(r.Context()))
			writeError(w, http.StatusInternalServerError, "Error retrieving habit summary")
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}).Methods(http.MethodGet)

	api.HandleFunc("/habits/{id}", func(w http.ResponseWriter, r *http.Request) {
		if deps.Habits == nil {
			writeError(w, http.StatusServiceUnavailable, "Habit service unavailable")
			return
		}
		id := identityFromContext(r.Context())
		habitID := mux.Vars(r)["id"]

		// no body leaves every field unchanged
		var req habits.Patch
		if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
			writeErrorDetail(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}

		updated, err := deps.Habits.Update(r.Context(), id.UserID, habitID, req)
		if err != nil {
			switch {
			case errors.Is(err, habits.ErrNotFound):
				writeError(w, http.StatusNotFound, "Habit not found or not authorized")
			case errors.Is(err, habits.ErrInvalidInput):
				writeErrorDetail(w, http.StatusBadRequest, "Invalid habit data", err)
			default:
				deps.Logger.Error("update habit", "error", err, "request_id", requestIDFromContext(r.Context()))
				writeError(w, http.StatusInternalServerError, "Error updating habit")
			}
			return
		}
		auditReq(deps.Audit, r, id.Email, "habit.update", updated.ID, "success", "")
		writeJSON(w, http.StatusOK, updated)
	}).Methods(http.MethodPut)

	api.HandleFunc("/habits/{id}", func(w http.ResponseWriter, r *http.Request) {
		if deps.Habits == nil {
			writeError(w, http.StatusServiceUnavailable, "Habit service unavailable")
			return
		}
		id := identityFromContext(r.Context())
		habitID := mux.Vars(r)["id"]

		if err := deps.Habits.Delete(r.Context(), id.UserID, habitID); err != nil {
			if errors.Is(err, habits.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Habit not found or not authorized")
				return
			}
			deps.Logger.Error("delete habit", "error", err, "request_id", requestIDFromContext(r.Context()))
			writeError(w, http.StatusInternalServerError, "Error deleting habit")
			return
		}
		auditReq(deps.Audit, r, id.Email, "habit.delete", habitID, "success", "")
		writeJSON(w, http.StatusOK, map[string]string{"message": "Habit deleted successfully"})
	}).Methods(http.MethodDelete)
}

func registerHabitLogHandlers(api *mux.Router, deps Deps) {
	api.HandleFunc("/habit-logs", func(w http.ResponseWriter, r *http.Request) {
		if deps.HabitLogs == nil {
			writeError(w, http.StatusServiceUnavailable, "Habit log service unavailable")
			return
		}
		id := identityFromContext(r.Context())

		var req struct {
			HabitID string `json:"habitId"`
			Status  string `json:"status"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			writeErrorDetail(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}

		l, err := deps.HabitLogs.Record(r.Context(), id.UserID, req.HabitID, req.Status)
		if err != nil {
			switch {
			case errors.Is(err, habitlogs.ErrInvalidInput):
				writeErrorDetail(w, http.StatusBadRequest, "Invalid habit log data", err)
			case errors.Is(err, habitlogs.ErrHabitNotFound):
				writeError(w, http.StatusNotFound, "Habit not found or not authorized")
			default:
				deps.Logger.Error("record habit log", "error", err, "request_id", requestIDFromContext(r.Context()))
				writeError(w, http.StatusInternalServerError, "Failed to log habit")
			}
			return
		}
		observability.RecordHabitLog(string(l.Status))
		auditReq(deps.Audit, r, id.Email, "habitlog.record", l.HabitID, "success", "status="+string(l.Status))
		writeJSON(w, http.StatusCreated, l)
	}).Methods(http.MethodPost)

	api.HandleFunc("/habit-logs", func(w http.ResponseWriter, r *http.Request) {
		if deps.HabitLogs == nil {
			writeError(w, http.StatusServiceUnavailable, "Habit log service unavailable")
			return
		}
		id := identityFromContext(r.Context())
		logs, err := deps.HabitLogs.ListForUser(r.Context(), id.UserID)
		if err != nil {
			deps.Logger.Error("list habit logs", "error", err, "request_id", requestIDFromContext(r.Context()))
			writeError(w, http.StatusInternalServerError, "Failed to get habit logs")
			return
		}
		writeJSON(w, http.StatusOK, logs)
	}).Methods(http.MethodGet)
}
